package shopping

import "sort"

// Item is one shopping-list line.
type Item struct {
	Category string `json:"category"`
	Name     string `json:"name"`
	Amount   string `json:"amount"`
}

// Section is one rendered category bucket.
type Section struct {
	Category string `json:"category"`
	Style    Style  `json:"style"`
	Items    []Item `json:"items"`
}

// Categorize buckets items by normalized category. Input order is kept inside
// each bucket and empty buckets never appear.
func Categorize(items []Item) map[string][]Item {
	result := make(map[string][]Item)
	for _, item := range items {
		key := Normalize(item.Category)
		item.Category = key
		result[key] = append(result[key], item)
	}
	return result
}

// Sections returns the buckets of Categorize ordered for display: known
// categories in table order, then unknown ones alphabetically.
func Sections(items []Item) []Section {
	buckets := Categorize(items)

	sections := make([]Section, 0, len(buckets))
	for _, c := range categories {
		if bucket, ok := buckets[c.name]; ok {
			sections = append(sections, Section{Category: c.name, Style: c.style, Items: bucket})
			delete(buckets, c.name)
		}
	}

	unknown := make([]string, 0, len(buckets))
	for name := range buckets {
		unknown = append(unknown, name)
	}
	sort.Strings(unknown)

	for _, name := range unknown {
		sections = append(sections, Section{Category: name, Style: DefaultStyle, Items: buckets[name]})
	}

	return sections
}
