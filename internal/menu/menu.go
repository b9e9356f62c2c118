// Package menu provides the immutable item catalog for the ordering agent.
// The catalog is loaded once at startup from a JSON menu file and shared
// read-only across all conversation sessions, so every query method is safe
// for concurrent use without locking.
package menu

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"strings"
)

// Modifier is a named variation of a single item ("No Pickles",
// "Extra Cheese"). Modifiers have no identity outside their item.
type Modifier struct {
	Name string
}

// Item is one orderable catalog entry. Identity is (Category, Name);
// names are unique within a category.
type Item struct {
	Category        string
	Name            string
	AvailableAsBase bool
	Modifiers       []Modifier
}

// ModifierNames returns the item's modifier names in catalog order.
func (it *Item) ModifierNames() []string {
	names := make([]string, len(it.Modifiers))
	for i, m := range it.Modifiers {
		names[i] = m.Name
	}
	return names
}

// HasModifier reports whether the item offers the named modifier
// (case-insensitive exact match).
func (it *Item) HasModifier(name string) bool {
	for _, m := range it.Modifiers {
		if strings.EqualFold(m.Name, name) {
			return true
		}
	}
	return false
}

// Menu is the loaded catalog. It is never mutated after Load/Parse returns.
type Menu struct {
	categories []string
	byCategory map[string][]Item

	// byName indexes lowercased item name -> item, for exact lookups
	// across categories.
	byName map[string]Item
}

// LoadError is returned when the menu source is missing, malformed, or
// contains duplicate items. It is fatal: the caller should abort startup.
type LoadError struct {
	Path   string
	Reason string
	Err    error
}

func (e *LoadError) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("menu load %s: %s", e.Path, e.Reason)
	}
	return fmt.Sprintf("menu load: %s", e.Reason)
}

func (e *LoadError) Unwrap() error { return e.Err }

// rawItem mirrors one item entry in the menu JSON.
type rawItem struct {
	AvailableAsBase *bool     `json:"available_as_base"`
	Variations      *[]string `json:"variations"`
}

// Load reads and parses a menu JSON file.
func Load(path string) (*Menu, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &LoadError{Path: path, Reason: "cannot read file", Err: err}
	}
	m, err := Parse(data)
	if err != nil {
		if le, ok := err.(*LoadError); ok {
			le.Path = path
		}
		return nil, err
	}
	return m, nil
}

// Parse builds a Menu from raw JSON of the form
//
//	{"Category": {"Item Name": {"available_as_base": true, "variations": ["No Pickles"]}}}
//
// Parse fails on a non-object root, missing item keys, or a duplicate
// (category, name) pair.
func Parse(data []byte) (*Menu, error) {
	var root map[string]map[string]rawItem
	if err := json.Unmarshal(data, &root); err != nil {
		return nil, &LoadError{Reason: "invalid JSON", Err: err}
	}
	if root == nil {
		return nil, &LoadError{Reason: "root must be an object of categories"}
	}

	m := &Menu{
		byCategory: make(map[string][]Item, len(root)),
		byName:     make(map[string]Item),
	}

	for category := range root {
		m.categories = append(m.categories, category)
	}
	sort.Strings(m.categories)

	for _, category := range m.categories {
		entries := root[category]

		// Item names sorted so category order is stable across loads.
		names := make([]string, 0, len(entries))
		for name := range entries {
			names = append(names, name)
		}
		sort.Strings(names)

		seen := make(map[string]bool, len(names))
		items := make([]Item, 0, len(names))
		for _, name := range names {
			raw := entries[name]
			if raw.AvailableAsBase == nil {
				return nil, &LoadError{Reason: fmt.Sprintf("item %q in %q missing available_as_base", name, category)}
			}
			if raw.Variations == nil {
				return nil, &LoadError{Reason: fmt.Sprintf("item %q in %q missing variations", name, category)}
			}

			key := strings.ToLower(name)
			if seen[key] {
				return nil, &LoadError{Reason: fmt.Sprintf("duplicate item %q in category %q", name, category)}
			}
			seen[key] = true

			mods := make([]Modifier, len(*raw.Variations))
			for i, v := range *raw.Variations {
				mods[i] = Modifier{Name: v}
			}
			item := Item{
				Category:        category,
				Name:            name,
				AvailableAsBase: *raw.AvailableAsBase,
				Modifiers:       mods,
			}
			items = append(items, item)

			// Last writer wins across categories; exact cross-category
			// duplicates are legal in the format, only (category, name)
			// pairs must be unique.
			m.byName[key] = item
		}
		m.byCategory[category] = items
	}

	return m, nil
}

// Categories returns all category names in lexicographic order.
func (m *Menu) Categories() []string {
	out := make([]string, len(m.categories))
	copy(out, m.categories)
	return out
}

// Category returns the items of a category, or nil if it does not exist.
func (m *Menu) Category(name string) []Item {
	items, ok := m.byCategory[name]
	if !ok {
		return nil
	}
	out := make([]Item, len(items))
	copy(out, items)
	return out
}

// Lookup returns the item with the given identity, matching the name
// case-insensitively within the category.
func (m *Menu) Lookup(category, name string) (Item, bool) {
	for _, it := range m.byCategory[category] {
		if strings.EqualFold(it.Name, name) {
			return it, true
		}
	}
	return Item{}, false
}

// Find returns an item by exact case-insensitive name across all
// categories.
func (m *Menu) Find(name string) (Item, bool) {
	it, ok := m.byName[strings.ToLower(strings.TrimSpace(name))]
	return it, ok
}

// Items returns every item in the catalog, category order then item order.
func (m *Menu) Items() []Item {
	var out []Item
	for _, category := range m.categories {
		out = append(out, m.byCategory[category]...)
	}
	return out
}

// ItemCount returns the total number of items across all categories.
func (m *Menu) ItemCount() int {
	n := 0
	for _, items := range m.byCategory {
		n += len(items)
	}
	return n
}
