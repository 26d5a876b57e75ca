package items

import (
	"encoding/json"
	"errors"
	"fmt"
	"sync"
)

var (
	ErrFrozen   = errors.New("item definition is frozen")
	ErrNotFound = errors.New("item not found")
)

// Def is the on-disk form of an item definition.
type Def struct {
	ID                 string                     `json:"id"`
	Categories         []string                   `json:"categories,omitempty"`
	BlockType          string                     `json:"block_type,omitempty"`
	PlayerAnimationsID string                     `json:"player_animations_id,omitempty"`
	Interactions       map[InteractionType]string `json:"interactions,omitempty"`
	MaxStack           int                        `json:"max_stack,omitempty"`
}

// Item is a registry-owned item definition. Fields are only reachable
// through accessors; the registry owner decides when an item is frozen.
type Item struct {
	mu     sync.Mutex
	def    Def
	frozen bool
	packet []byte
}

func NewItem(d Def) *Item {
	d.Categories = cloneStrings(d.Categories)
	d.Interactions = cloneInteractions(d.Interactions)
	return &Item{def: d}
}

func (it *Item) ID() string { return it.def.ID }

func (it *Item) Categories() []string {
	it.mu.Lock()
	defer it.mu.Unlock()
	return cloneStrings(it.def.Categories)
}

func (it *Item) BlockType() string {
	it.mu.Lock()
	defer it.mu.Unlock()
	return it.def.BlockType
}

func (it *Item) HasBlockType() bool { return it.BlockType() != "" }

func (it *Item) PlayerAnimationID() string {
	it.mu.Lock()
	defer it.mu.Unlock()
	return it.def.PlayerAnimationsID
}

func (it *Item) SetPlayerAnimationID(id string) error {
	it.mu.Lock()
	defer it.mu.Unlock()
	if it.frozen {
		return fmt.Errorf("%s: set animation: %w", it.def.ID, ErrFrozen)
	}
	it.def.PlayerAnimationsID = id
	return nil
}

// Interactions returns a copy of the slot bindings, or nil when the item has none.
func (it *Item) Interactions() map[InteractionType]string {
	it.mu.Lock()
	defer it.mu.Unlock()
	return cloneInteractions(it.def.Interactions)
}

// SetInteractions replaces the slot bindings with a private copy of m.
func (it *Item) SetInteractions(m map[InteractionType]string) error {
	it.mu.Lock()
	defer it.mu.Unlock()
	if it.frozen {
		return fmt.Errorf("%s: set interactions: %w", it.def.ID, ErrFrozen)
	}
	it.def.Interactions = cloneInteractions(m)
	return nil
}

// Packet returns a copy of the cached wire form, building it on first use.
func (it *Item) Packet() ([]byte, error) {
	it.mu.Lock()
	defer it.mu.Unlock()
	if it.packet == nil {
		b, err := json.Marshal(it.def)
		if err != nil {
			return nil, fmt.Errorf("%s: encode packet: %w", it.def.ID, err)
		}
		it.packet = b
	}
	return append([]byte(nil), it.packet...), nil
}

func (it *Item) HasCachedPacket() bool {
	it.mu.Lock()
	defer it.mu.Unlock()
	return it.packet != nil
}

func (it *Item) ClearCachedPacket() error {
	it.mu.Lock()
	defer it.mu.Unlock()
	if it.frozen {
		return fmt.Errorf("%s: clear packet: %w", it.def.ID, ErrFrozen)
	}
	it.packet = nil
	return nil
}

// Freeze makes every later setter fail with ErrFrozen.
func (it *Item) Freeze() {
	it.mu.Lock()
	it.frozen = true
	it.mu.Unlock()
}

// Def returns a deep copy of the current definition.
func (it *Item) Def() Def {
	it.mu.Lock()
	defer it.mu.Unlock()
	d := it.def
	d.Categories = cloneStrings(d.Categories)
	d.Interactions = cloneInteractions(d.Interactions)
	return d
}

func cloneStrings(in []string) []string {
	if in == nil {
		return nil
	}
	out := make([]string, len(in))
	copy(out, in)
	return out
}

func cloneInteractions(in map[InteractionType]string) map[InteractionType]string {
	if in == nil {
		return nil
	}
	out := make(map[InteractionType]string, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}
