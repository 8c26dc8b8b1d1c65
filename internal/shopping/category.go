// Package shopping groups shopping-list items into display categories.
package shopping

import "strings"

// Known category display names, in display order.
const (
	CategoryDairy         = "Dairy"
	CategoryMeatFish      = "Meat & Fish"
	CategoryFruitVeg      = "Fruit & Veg"
	CategoryStoreCupboard = "Store Cupboard"
	CategoryFrozen        = "Frozen"
	CategoryBreadsGrains  = "Breads & Grains"
	CategoryOther         = "Other"
)

// Style is the icon and color a client renders next to a category header.
type Style struct {
	Icon  string `json:"icon"`
	Color string `json:"color"`
}

// DefaultStyle is used for categories outside the known table.
var DefaultStyle = Style{Icon: "cart", Color: "gray"}

type categoryDef struct {
	name  string
	style Style
}

var categories = []categoryDef{
	{CategoryDairy, Style{Icon: "drop", Color: "blue"}},
	{CategoryMeatFish, Style{Icon: "fish", Color: "red"}},
	{CategoryFruitVeg, Style{Icon: "leaf", Color: "green"}},
	{CategoryStoreCupboard, Style{Icon: "archivebox", Color: "brown"}},
	{CategoryFrozen, Style{Icon: "snowflake", Color: "cyan"}},
	{CategoryBreadsGrains, Style{Icon: "birthday.cake", Color: "orange"}},
	{CategoryOther, Style{Icon: "bag", Color: "purple"}},
}

var byKey = func() map[string]int {
	m := make(map[string]int, len(categories))
	for i, c := range categories {
		m[strings.ToLower(c.name)] = i
	}
	return m
}()

// Categories returns the known category names in display order.
func Categories() []string {
	names := make([]string, len(categories))
	for i, c := range categories {
		names[i] = c.name
	}
	return names
}

// Normalize maps a raw label to its display name. Known labels match
// case-insensitively, blank labels become Other and unknown labels are
// returned trimmed.
func Normalize(label string) string {
	trimmed := strings.TrimSpace(label)
	if trimmed == "" {
		return CategoryOther
	}
	if i, ok := byKey[strings.ToLower(trimmed)]; ok {
		return categories[i].name
	}
	return trimmed
}

// IsKnown reports whether label names a category from the fixed table.
func IsKnown(label string) bool {
	_, ok := byKey[strings.ToLower(strings.TrimSpace(label))]
	return ok
}

// StyleFor returns the style of a category, or DefaultStyle when unrecognized.
func StyleFor(label string) Style {
	if i, ok := byKey[strings.ToLower(strings.TrimSpace(label))]; ok {
		return categories[i].style
	}
	return DefaultStyle
}

// Icon returns the icon name of a category.
func Icon(label string) string {
	return StyleFor(label).Icon
}

// Color returns the color name of a category.
func Color(label string) string {
	return StyleFor(label).Color
}
