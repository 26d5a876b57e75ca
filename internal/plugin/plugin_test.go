package plugin

import (
	"bytes"
	"context"
	"errors"
	"log"
	"strings"
	"sync"
	"testing"
	"time"

	"onehand.ai/internal/assets/items"
	"onehand.ai/internal/config"
	"onehand.ai/internal/reclassify"
)

type fakeAudit struct {
	mu      sync.Mutex
	changes []reclassify.Change
	closed  bool
}

func (f *fakeAudit) WriteChange(c reclassify.Change) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.changes = append(f.changes, c)
	return nil
}

func (f *fakeAudit) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = true
	return nil
}

type listSource []*items.Item

func (s listSource) All() ([]*items.Item, error) { return s, nil }

// syncBuffer lets the test read log output written by the background pass.
type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func testConfig() config.Config {
	c := config.Defaults()
	c.StartDelayMs = 10
	c.ReadyTimeoutMs = 0
	return c
}

func seededRegistry(t *testing.T) *items.Registry {
	t.Helper()
	reg := items.NewRegistry()
	defs := []items.Def{
		{ID: "Torch_Basic", BlockType: "Torch", PlayerAnimationsID: "Block",
			Interactions: map[items.InteractionType]string{items.Primary: "Block_Primary", items.Secondary: "Block_Secondary"}},
		{ID: "Iron_Sword", BlockType: "Iron_Sword", PlayerAnimationsID: "Block"},
		{ID: "Stone_Brick", Categories: []string{"Blocks.Stone"}, PlayerAnimationsID: "Block"},
		{ID: "Rope", Categories: []string{"Misc"}},
	}
	for _, d := range defs {
		if err := reg.Put(items.NewItem(d)); err != nil {
			t.Fatalf("Put: %v", err)
		}
	}
	return reg
}

func waitDone(t *testing.T, p *OneHandBlocks) {
	t.Helper()
	select {
	case <-p.Done():
	case <-time.After(5 * time.Second):
		t.Fatalf("pass did not finish")
	}
}

func TestPlugin_RunsWhenRegistryReady(t *testing.T) {
	reg := seededRegistry(t)
	audit := &fakeAudit{}
	var logs syncBuffer
	p := New(Options{Config: testConfig(), Source: reg, Logger: log.New(&logs, "", 0), Audit: audit})
	p.Setup()
	if err := p.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}

	select {
	case <-p.Done():
		t.Fatalf("pass ran before the registry was ready")
	case <-time.After(50 * time.Millisecond):
	}

	reg.MarkReady()
	waitDone(t, p)

	sum, err := p.Summary()
	if err != nil {
		t.Fatalf("Summary: %v", err)
	}
	if sum != (reclassify.Summary{Scanned: 4, Matched: 2, Modified: 2}) {
		t.Fatalf("summary=%+v", sum)
	}
	torch, _ := reg.Get("Torch_Basic")
	if torch.PlayerAnimationID() != "Torch" {
		t.Fatalf("torch not patched")
	}

	if err := p.Shutdown(); err != nil {
		t.Fatalf("Shutdown: %v", err)
	}
	if !audit.closed || len(audit.changes) != 2 {
		t.Fatalf("audit closed=%v changes=%d", audit.closed, len(audit.changes))
	}
	out := logs.String()
	for _, want := range []string{"items scanned: 4", "items modified: 2", "modified 2 items total"} {
		if !strings.Contains(out, want) {
			t.Fatalf("log missing %q:\n%s", want, out)
		}
	}
}

func TestPlugin_FallsBackToStartDelay(t *testing.T) {
	src := listSource{items.NewItem(items.Def{ID: "Dirt", BlockType: "Dirt", PlayerAnimationsID: "Block"})}
	p := New(Options{Config: testConfig(), Source: src})
	if err := p.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	waitDone(t, p)
	sum, err := p.Summary()
	if err != nil || sum.Modified != 1 {
		t.Fatalf("sum=%+v err=%v", sum, err)
	}
}

func TestPlugin_ReadyTimeoutRunsAnyway(t *testing.T) {
	reg := seededRegistry(t)
	cfg := testConfig()
	cfg.ReadyTimeoutMs = 20
	p := New(Options{Config: cfg, Source: reg})
	if err := p.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	waitDone(t, p)
	sum, err := p.Summary()
	if err != nil || sum.Scanned != 4 {
		t.Fatalf("sum=%+v err=%v", sum, err)
	}
}

func TestPlugin_ShutdownBeforeReady(t *testing.T) {
	reg := seededRegistry(t)
	audit := &fakeAudit{}
	p := New(Options{Config: testConfig(), Source: reg, Audit: audit})
	if err := p.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if err := p.Shutdown(); err != nil {
		t.Fatalf("Shutdown: %v", err)
	}
	sum, err := p.Summary()
	if !errors.Is(err, context.Canceled) || sum != (reclassify.Summary{}) {
		t.Fatalf("sum=%+v err=%v", sum, err)
	}
	if !audit.closed {
		t.Fatalf("audit sink not closed")
	}
	torch, _ := reg.Get("Torch_Basic")
	if torch.PlayerAnimationID() != "Block" {
		t.Fatalf("no item should be patched after shutdown")
	}
}

func TestPlugin_NoDataSource(t *testing.T) {
	p := New(Options{Config: testConfig()})
	if err := p.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	waitDone(t, p)
	sum, err := p.Summary()
	if !errors.Is(err, reclassify.ErrNoDataSource) || sum != (reclassify.Summary{}) {
		t.Fatalf("sum=%+v err=%v", sum, err)
	}
}

func TestPlugin_StartTwice(t *testing.T) {
	p := New(Options{Config: testConfig(), Source: listSource{}})
	if err := p.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if err := p.Start(context.Background()); err == nil {
		t.Fatalf("expected error on second Start")
	}
	_ = p.Shutdown()
}

func TestPlugin_ShutdownWithoutStart(t *testing.T) {
	p := New(Options{Config: testConfig(), Source: listSource{}})
	if err := p.Shutdown(); err != nil {
		t.Fatalf("Shutdown: %v", err)
	}
	select {
	case <-p.Done():
	case <-time.After(time.Second):
		t.Fatalf("Done not closed after Shutdown")
	}
	if err := p.Shutdown(); err != nil {
		t.Fatalf("second Shutdown: %v", err)
	}
	if err := p.Start(context.Background()); err == nil {
		t.Fatalf("expected Start after Shutdown to fail")
	}
}
