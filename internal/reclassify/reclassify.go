// Package reclassify finds block items in an item registry and patches them
// to use the one-handed torch animation and plain item interactions.
package reclassify

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"strings"

	"onehand.ai/internal/assets/items"
)

var ErrNoDataSource = errors.New("no item data source")

// Record is the subset of an item definition the pass reads and writes.
type Record interface {
	ID() string
	Categories() []string
	HasBlockType() bool
	PlayerAnimationID() string
	SetPlayerAnimationID(string) error
	Interactions() map[items.InteractionType]string
	SetInteractions(map[items.InteractionType]string) error
	ClearCachedPacket() error
}

// Source yields every item the host registry currently holds.
type Source interface {
	All() ([]*items.Item, error)
}

// ChangeSink receives one entry per modified item.
type ChangeSink interface {
	WriteChange(Change) error
}

type SlotChange struct {
	Slot items.InteractionType `json:"slot"`
	From string                `json:"from"`
	To   string                `json:"to"`
}

// Change describes what Patch did to a single item.
type Change struct {
	ItemID        string       `json:"item_id"`
	AnimationFrom string       `json:"animation_from,omitempty"`
	AnimationTo   string       `json:"animation_to,omitempty"`
	Interactions  []SlotChange `json:"interactions,omitempty"`
}

type PatchResult struct {
	// Changed is false when the item matched but already had the target values.
	Changed             bool
	AnimationChanged    bool
	InteractionsChanged bool
	Change              Change
	Err                 error
}

type Summary struct {
	Scanned  int `json:"scanned"`
	Matched  int `json:"matched"`
	Modified int `json:"modified"`
	Failed   int `json:"failed"`
}

type Options struct {
	Rules  Rules
	Logger *log.Logger
	// Debug enables diagnostic lines for swallowed per-item errors.
	Debug bool
	// VerboseLimit caps how many modified items get detailed log lines per pass.
	VerboseLimit int
	Sink         ChangeSink
}

type Reclassifier struct {
	rules        Rules
	allow        map[string]struct{}
	logger       *log.Logger
	debug        bool
	verboseLimit int
	sink         ChangeSink
}

func New(opts Options) *Reclassifier {
	logger := opts.Logger
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	rules := opts.Rules.withDefaults()
	allow := make(map[string]struct{}, len(rules.BlockCategories))
	for _, c := range rules.BlockCategories {
		allow[c] = struct{}{}
	}
	return &Reclassifier{
		rules:        rules,
		allow:        allow,
		logger:       logger,
		debug:        opts.Debug,
		verboseLimit: opts.VerboseLimit,
		sink:         opts.Sink,
	}
}

// Classify reports whether rec is a block item that should be patched.
// A record that cannot be read never matches.
func (r *Reclassifier) Classify(rec Record) (match bool) {
	defer func() {
		if p := recover(); p != nil {
			r.debugf("classify: unreadable item: %v", p)
			match = false
		}
	}()
	if rec == nil {
		return false
	}

	id := rec.ID()
	for _, pat := range r.rules.Blacklist {
		if pat != "" && strings.Contains(id, pat) {
			return false
		}
	}
	if rec.HasBlockType() {
		return true
	}
	for _, c := range rec.Categories() {
		if r.rules.CategoryPrefix != "" && strings.HasPrefix(c, r.rules.CategoryPrefix) {
			return true
		}
		if _, ok := r.allow[c]; ok {
			return true
		}
	}
	return false
}

// Patch rewrites the animation and block interactions of a matched record.
// Errors are reported in the result and logged, never returned.
func (r *Reclassifier) Patch(rec Record) (res PatchResult) {
	id := "<unknown>"
	defer func() {
		if p := recover(); p != nil {
			res.Err = fmt.Errorf("patch %s: %v", id, p)
			r.logger.Printf("error modifying %s: %v", id, p)
		}
	}()
	if rec == nil {
		res.Err = errors.New("patch: nil record")
		return res
	}
	id = rec.ID()
	res.Change.ItemID = id

	defer func() {
		if !res.Changed {
			return
		}
		if err := rec.ClearCachedPacket(); err != nil {
			r.debugf("clear cached packet %s: %v", id, err)
		}
	}()

	if cur := rec.PlayerAnimationID(); cur == BlockAnimation {
		if err := rec.SetPlayerAnimationID(TorchAnimation); err != nil {
			res.Err = err
			r.logger.Printf("error modifying %s: %v", id, err)
			return res
		}
		res.AnimationChanged = true
		res.Changed = true
		res.Change.AnimationFrom = cur
		res.Change.AnimationTo = TorchAnimation
	}

	cur := rec.Interactions()
	if cur == nil {
		return res
	}
	next := make(map[items.InteractionType]string, len(cur))
	for k, v := range cur {
		next[k] = v
	}
	var slots []SlotChange
	for _, rw := range interactionRewrites {
		if v, ok := next[rw.slot]; ok && v == rw.from {
			next[rw.slot] = rw.to
			slots = append(slots, SlotChange{Slot: rw.slot, From: rw.from, To: rw.to})
		}
	}
	if len(slots) == 0 {
		return res
	}
	if err := rec.SetInteractions(next); err != nil {
		res.Err = err
		r.logger.Printf("error modifying %s: %v", id, err)
		return res
	}
	res.InteractionsChanged = true
	res.Changed = true
	res.Change.Interactions = slots
	return res
}

// RunPass classifies and patches every record in src once.
// It fails only when src cannot provide its items.
func (r *Reclassifier) RunPass(ctx context.Context, src Source) (Summary, error) {
	var sum Summary
	if src == nil {
		return sum, ErrNoDataSource
	}
	all, err := src.All()
	if err != nil {
		return sum, fmt.Errorf("%w: %v", ErrNoDataSource, err)
	}
	r.logger.Printf("scanning %d items", len(all))

	for _, it := range all {
		if err := ctx.Err(); err != nil {
			return sum, err
		}
		sum.Scanned++
		if it == nil || !r.Classify(it) {
			continue
		}
		sum.Matched++

		res := r.Patch(it)
		if res.Err != nil {
			sum.Failed++
		}
		if !res.Changed {
			continue
		}
		sum.Modified++
		if sum.Modified <= r.verboseLimit {
			if res.AnimationChanged {
				r.logger.Printf("  changed animation: %s (%s -> %s)", res.Change.ItemID, res.Change.AnimationFrom, res.Change.AnimationTo)
			}
			if res.InteractionsChanged {
				r.logger.Printf("  changed interactions: %s", res.Change.ItemID)
			}
			r.logger.Printf("modified: %s", res.Change.ItemID)
		}
		if r.sink != nil {
			if err := r.sink.WriteChange(res.Change); err != nil {
				r.debugf("audit %s: %v", res.Change.ItemID, err)
			}
		}
	}
	return sum, nil
}

func (r *Reclassifier) debugf(format string, args ...any) {
	if !r.debug {
		return
	}
	r.logger.Printf("debug: "+format, args...)
}
