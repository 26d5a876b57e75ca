package items

import (
	"encoding/json"
	"fmt"
)

// InteractionType is an interaction slot an item binds a named behavior to.
type InteractionType uint8

const (
	Primary InteractionType = iota + 1
	Secondary
	Ability1
	Ability2
	Ability3
	Use
	Pick
	Pickup
	Held
	HeldOffhand
	Equipped
	Dodge
)

var interactionNames = map[InteractionType]string{
	Primary:     "Primary",
	Secondary:   "Secondary",
	Ability1:    "Ability1",
	Ability2:    "Ability2",
	Ability3:    "Ability3",
	Use:         "Use",
	Pick:        "Pick",
	Pickup:      "Pickup",
	Held:        "Held",
	HeldOffhand: "HeldOffhand",
	Equipped:    "Equipped",
	Dodge:       "Dodge",
}

var interactionByName = func() map[string]InteractionType {
	m := make(map[string]InteractionType, len(interactionNames))
	for t, n := range interactionNames {
		m[n] = t
	}
	return m
}()

func (t InteractionType) String() string {
	if n, ok := interactionNames[t]; ok {
		return n
	}
	return fmt.Sprintf("InteractionType(%d)", uint8(t))
}

func ParseInteractionType(s string) (InteractionType, error) {
	t, ok := interactionByName[s]
	if !ok {
		return 0, fmt.Errorf("unknown interaction type %q", s)
	}
	return t, nil
}

// MarshalText lets InteractionType be used as a JSON object key.
func (t InteractionType) MarshalText() ([]byte, error) {
	if _, ok := interactionNames[t]; !ok {
		return nil, fmt.Errorf("unknown interaction type %d", uint8(t))
	}
	return []byte(t.String()), nil
}

func (t *InteractionType) UnmarshalText(b []byte) error {
	v, err := ParseInteractionType(string(b))
	if err != nil {
		return err
	}
	*t = v
	return nil
}

func (t InteractionType) MarshalJSON() ([]byte, error) {
	b, err := t.MarshalText()
	if err != nil {
		return nil, err
	}
	return json.Marshal(string(b))
}

func (t *InteractionType) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	return t.UnmarshalText([]byte(s))
}
