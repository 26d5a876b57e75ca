package reclassify

import "onehand.ai/internal/assets/items"

const (
	BlockAnimation = "Block"
	TorchAnimation = "Torch"
)

// Rules decide which items count as placeable blocks.
type Rules struct {
	// Id substrings that exclude an item outright (case-sensitive).
	Blacklist []string
	// Any category starting with this prefix matches. Empty disables the check.
	CategoryPrefix string
	// Exact category names that match.
	BlockCategories []string
}

func DefaultRules() Rules {
	return Rules{
		Blacklist: []string{
			"Sword",
			"Axe",
			"Pickaxe",
			"Shovel",
			"Hoe",
			"Bow",
			"Crossbow",
			"Shield",
			"Tool",
		},
		CategoryPrefix: "Blocks",
		BlockCategories: []string{
			"Blocks",
			"Blocks.Stone",
			"Blocks.Wood",
			"Blocks.Dirt",
			"Blocks.Sand",
			"Blocks.Metal",
			"Blocks.Ore",
			"Blocks.Decoration",
			"Blocks.Light",
			"Blocks.Glass",
			"Blocks.Natural",
			"Blocks.Rocks",
		},
	}
}

// withDefaults fills the zero value with DefaultRules. An empty blacklist or
// category set falls back to the default list; an empty prefix is kept.
func (r Rules) withDefaults() Rules {
	d := DefaultRules()
	if len(r.Blacklist) == 0 && r.CategoryPrefix == "" && len(r.BlockCategories) == 0 {
		return d
	}
	if len(r.Blacklist) == 0 {
		r.Blacklist = d.Blacklist
	}
	if len(r.BlockCategories) == 0 {
		r.BlockCategories = d.BlockCategories
	}
	return r
}

type interactionRewrite struct {
	slot     items.InteractionType
	from, to string
}

var interactionRewrites = []interactionRewrite{
	{slot: items.Primary, from: "Block_Primary", to: "Item_Primary"},
	{slot: items.Secondary, from: "Block_Secondary", to: "Item_Secondary"},
}
