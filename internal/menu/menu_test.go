package menu

import (
	"errors"
	"path/filepath"
	"testing"
)

func loadTestMenu(t *testing.T) *Menu {
	t.Helper()
	m, err := Load(filepath.Join("testdata", "menu.json"))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	return m
}

func TestLoad_BuildsCatalog(t *testing.T) {
	m := loadTestMenu(t)

	if got, want := m.ItemCount(), 6; got != want {
		t.Fatalf("ItemCount() = %d, want %d", got, want)
	}
	if got, want := len(m.Categories()), 3; got != want {
		t.Fatalf("Categories() has %d entries, want %d", got, want)
	}

	item, ok := m.Lookup("Beef & Pork", "Big Mac")
	if !ok {
		t.Fatal("Lookup(Beef & Pork, Big Mac) not found")
	}
	if !item.AvailableAsBase {
		t.Error("Big Mac should be orderable as base")
	}
	if got, want := len(item.Modifiers), 3; got != want {
		t.Errorf("Big Mac has %d modifiers, want %d", got, want)
	}
	if !item.HasModifier("no pickles") {
		t.Error("HasModifier should match case-insensitively")
	}
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join("testdata", "no-such-menu.json"))

	var le *LoadError
	if !errors.As(err, &le) {
		t.Fatalf("Load() error = %v, want *LoadError", err)
	}
}

func TestParse_Failures(t *testing.T) {
	cases := []struct {
		name string
		data string
	}{
		{"invalid json", `{"Breakfast": `},
		{"non-object root", `["Breakfast"]`},
		{"null root", `null`},
		{"missing available_as_base", `{"Breakfast": {"Hash Browns": {"variations": []}}}`},
		{"missing variations", `{"Breakfast": {"Hash Browns": {"available_as_base": true}}}`},
		{"duplicate item", `{"Breakfast": {"Hash Browns": {"available_as_base": true, "variations": []}, "hash browns": {"available_as_base": true, "variations": []}}}`},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := Parse([]byte(tc.data)); err == nil {
				t.Fatalf("Parse(%s) succeeded, want error", tc.data)
			}
		})
	}
}

func TestLookup_WrongCategory(t *testing.T) {
	m := loadTestMenu(t)

	if _, ok := m.Lookup("Breakfast", "Big Mac"); ok {
		t.Fatal("Lookup should not find Big Mac under Breakfast")
	}
}

func TestFind_CaseInsensitive(t *testing.T) {
	m := loadTestMenu(t)

	item, ok := m.Find("  big mac ")
	if !ok {
		t.Fatal("Find(big mac) not found")
	}
	if item.Name != "Big Mac" {
		t.Fatalf("Find returned %q, want Big Mac", item.Name)
	}
}

func TestCategory_Unknown(t *testing.T) {
	m := loadTestMenu(t)

	if items := m.Category("Desserts"); items != nil {
		t.Fatalf("Category(Desserts) = %v, want nil", items)
	}
}
