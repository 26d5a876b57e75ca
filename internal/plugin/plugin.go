// Package plugin wires the block reclassifier into the host lifecycle:
// setup, a deferred start once the item registry is ready, and shutdown.
package plugin

import (
	"context"
	"errors"
	"io"
	"log"
	"sync"
	"time"

	"onehand.ai/internal/config"
	"onehand.ai/internal/reclassify"
)

// ReadySource is a Source that can signal when it has finished loading.
type ReadySource interface {
	Ready() <-chan struct{}
}

// AuditSink receives modifications and is closed at shutdown.
type AuditSink interface {
	reclassify.ChangeSink
	io.Closer
}

type Options struct {
	Config config.Config
	Source reclassify.Source
	Logger *log.Logger
	Audit  AuditSink
}

type OneHandBlocks struct {
	cfg    config.Config
	src    reclassify.Source
	logger *log.Logger
	rc     *reclassify.Reclassifier
	audit  AuditSink

	mu      sync.Mutex
	started bool
	stopped bool
	cancel  context.CancelFunc
	done    chan struct{}
	summary reclassify.Summary
	err     error
}

func New(opts Options) *OneHandBlocks {
	logger := opts.Logger
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	ro := reclassify.Options{
		Rules:        opts.Config.Rules(),
		Logger:       logger,
		Debug:        opts.Config.Debug,
		VerboseLimit: opts.Config.VerboseLimit,
	}
	if opts.Audit != nil {
		ro.Sink = opts.Audit
	}
	p := &OneHandBlocks{
		cfg:    opts.Config,
		src:    opts.Source,
		logger: logger,
		rc:     reclassify.New(ro),
		audit:  opts.Audit,
		done:   make(chan struct{}),
	}
	logger.Printf("onehand blocks plugin loading")
	return p
}

func (p *OneHandBlocks) Setup() {
	p.logger.Printf("setup: blacklist=%d block_categories=%d prefix=%q",
		len(p.cfg.Blacklist), len(p.cfg.BlockCategories), p.cfg.CategoryPrefix)
}

// Start schedules the single reclassification pass in the background.
func (p *OneHandBlocks) Start(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.stopped {
		return errors.New("plugin shut down")
	}
	if p.started {
		return errors.New("plugin already started")
	}
	p.started = true

	ctx, cancel := context.WithCancel(ctx)
	p.cancel = cancel

	p.logger.Printf("===========================================")
	p.logger.Printf("onehand blocks starting")
	p.logger.Printf("===========================================")

	go func() {
		defer close(p.done)
		p.run(ctx)
	}()
	return nil
}

func (p *OneHandBlocks) run(ctx context.Context) {
	if err := p.waitReady(ctx); err != nil {
		p.logger.Printf("start interrupted: %v", err)
		p.setResult(reclassify.Summary{}, err)
		return
	}

	p.logger.Printf(">>> starting item modification")
	sum, err := p.rc.RunPass(ctx, p.src)
	p.setResult(sum, err)
	if err != nil {
		p.logger.Printf("item modification failed: %v", err)
	}

	p.logger.Printf("===========================================")
	p.logger.Printf("modification complete")
	p.logger.Printf("  items scanned: %d", sum.Scanned)
	p.logger.Printf("  items matched: %d", sum.Matched)
	p.logger.Printf("  items modified: %d", sum.Modified)
	if sum.Failed > 0 {
		p.logger.Printf("  items failed: %d", sum.Failed)
	}
	p.logger.Printf("===========================================")
}

// waitReady blocks until the registry signals readiness. Without a signal it
// falls back to the fixed start delay; a ready timeout runs the pass anyway.
func (p *OneHandBlocks) waitReady(ctx context.Context) error {
	var ready <-chan struct{}
	if rs, ok := p.src.(ReadySource); ok {
		ready = rs.Ready()
	}

	if ready == nil {
		t := time.NewTimer(p.cfg.StartDelay())
		defer t.Stop()
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-t.C:
			return nil
		}
	}

	var timeout <-chan time.Time
	if d := p.cfg.ReadyTimeout(); d > 0 {
		t := time.NewTimer(d)
		defer t.Stop()
		timeout = t.C
	}
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-ready:
		return nil
	case <-timeout:
		p.logger.Printf("item registry not ready after %s; running anyway", p.cfg.ReadyTimeout())
		return nil
	}
}

func (p *OneHandBlocks) setResult(sum reclassify.Summary, err error) {
	p.mu.Lock()
	p.summary = sum
	p.err = err
	p.mu.Unlock()
}

// Wait blocks until the background pass has finished. It returns at once if
// the plugin was never started.
func (p *OneHandBlocks) Wait() {
	p.mu.Lock()
	started := p.started
	p.mu.Unlock()
	if !started {
		return
	}
	<-p.done
}

// Done is closed when the background pass finishes, or by Shutdown when the
// plugin was never started.
func (p *OneHandBlocks) Done() <-chan struct{} { return p.done }

func (p *OneHandBlocks) Summary() (reclassify.Summary, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.summary, p.err
}

// Shutdown stops a pending pass, waits for it and closes the audit sink.
func (p *OneHandBlocks) Shutdown() error {
	p.mu.Lock()
	cancel := p.cancel
	if !p.started && !p.stopped {
		close(p.done)
	}
	p.stopped = true
	p.mu.Unlock()
	if cancel != nil {
		cancel()
	}
	p.Wait()

	sum, _ := p.Summary()
	p.logger.Printf("onehand blocks plugin disabled. modified %d items total", sum.Modified)
	if p.audit != nil {
		return p.audit.Close()
	}
	return nil
}
