package main

import (
	"context"
	"encoding/json"
	"flag"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"syscall"

	"onehand.ai/internal/assets/items"
	"onehand.ai/internal/auditlog"
	"onehand.ai/internal/config"
	"onehand.ai/internal/plugin"
	"onehand.ai/internal/reclassify"
)

func main() {
	var (
		configDir  = flag.String("configs", "./configs", "config directory (item definitions under <configs>/items)")
		configPath = flag.String("config", "", "path to onehand.yaml (default: <configs>/onehand.yaml)")
		auditDir   = flag.String("audit_dir", "", "write zstd JSONL audit of modified items to this dir (empty to disable)")
		once       = flag.Bool("once", false, "exit after the pass and print the summary as JSON")
		dump       = flag.Bool("dump", false, "with -once, also print every patched item packet")
	)
	flag.Parse()

	logger := log.New(os.Stdout, "[onehand] ", log.LstdFlags|log.Lmicroseconds)

	cp := strings.TrimSpace(*configPath)
	if cp == "" {
		cp = filepath.Join(*configDir, "onehand.yaml")
	}
	cfg, err := config.Load(cp)
	if err != nil {
		if !os.IsNotExist(err) {
			logger.Fatalf("load config: %v", err)
		}
		logger.Printf("config not found (%s); using defaults", cp)
		cfg = config.Defaults()
	}

	ctx, cancel := signalContext()
	defer cancel()

	reg, err := items.Load(filepath.Join(*configDir, "items"))
	if err != nil {
		// The pass still runs and reports the missing data source.
		logger.Printf("load items: %v", err)
	} else {
		logger.Printf("loaded %d items digest=%s", reg.Len(), reg.DefsDigest)
	}

	patched := &patchedSet{}
	if dir := strings.TrimSpace(*auditDir); dir != "" {
		patched.next = auditlog.NewLogger(dir)
	}
	opts := plugin.Options{Config: cfg, Logger: logger, Audit: patched}
	if reg != nil {
		opts.Source = reg
	}

	p := plugin.New(opts)
	p.Setup()
	if err := p.Start(ctx); err != nil {
		logger.Fatalf("start: %v", err)
	}
	if reg != nil {
		reg.MarkReady()
	}

	if *once {
		p.Wait()
	} else {
		<-ctx.Done()
	}
	if err := p.Shutdown(); err != nil {
		logger.Printf("shutdown: %v", err)
	}

	if *once {
		sum, passErr := p.Summary()
		resp := struct {
			Summary reclassify.Summary `json:"summary"`
			Error   string             `json:"error,omitempty"`
		}{Summary: sum}
		if passErr != nil {
			resp.Error = passErr.Error()
		}
		enc := json.NewEncoder(os.Stdout)
		_ = enc.Encode(resp)
		if *dump && reg != nil {
			dumpPatched(enc, reg, patched.IDs(), logger)
		}
		if passErr != nil {
			os.Exit(1)
		}
	}
}

// patchedSet records the ids the pass changed and forwards each change to an
// optional audit log.
type patchedSet struct {
	mu   sync.Mutex
	ids  []string
	next plugin.AuditSink
}

func (s *patchedSet) WriteChange(c reclassify.Change) error {
	s.mu.Lock()
	s.ids = append(s.ids, c.ItemID)
	s.mu.Unlock()
	if s.next != nil {
		return s.next.WriteChange(c)
	}
	return nil
}

func (s *patchedSet) Close() error {
	if s.next != nil {
		return s.next.Close()
	}
	return nil
}

// IDs returns the changed ids, sorted.
func (s *patchedSet) IDs() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := append([]string(nil), s.ids...)
	sort.Strings(out)
	return out
}

func dumpPatched(enc *json.Encoder, reg *items.Registry, ids []string, logger *log.Logger) {
	for _, id := range ids {
		it, err := reg.Get(id)
		if err != nil {
			logger.Printf("dump %s: %v", id, err)
			continue
		}
		pkt, err := it.Packet()
		if err != nil {
			logger.Printf("packet %s: %v", id, err)
			continue
		}
		_ = enc.Encode(json.RawMessage(pkt))
	}
}

func signalContext() (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())
	ch := make(chan os.Signal, 2)
	signal.Notify(ch, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-ch
		cancel()
	}()
	return ctx, cancel
}
