package menu

import (
	"testing"
)

func TestScore_ExactMatchIs100(t *testing.T) {
	if got := Score("Big Mac", "big mac"); got != 100 {
		t.Fatalf("Score(Big Mac, big mac) = %d, want 100", got)
	}
}

func TestScore_Misspelling(t *testing.T) {
	if got := Score("big mak", "Big Mac"); got < 85 {
		t.Fatalf("Score(big mak, Big Mac) = %d, want >= 85", got)
	}
}

func TestScore_TokenMatch(t *testing.T) {
	// A single word should hit a multi-word name through its token.
	if got := Score("mac", "Big Mac"); got != 100 {
		t.Fatalf("Score(mac, Big Mac) = %d, want 100", got)
	}
}

func TestScore_Empty(t *testing.T) {
	if got := Score("", "Big Mac"); got != 0 {
		t.Fatalf("Score(empty, Big Mac) = %d, want 0", got)
	}
}

func TestSearchItems_EveryItemFindsItself(t *testing.T) {
	m := loadTestMenu(t)

	for _, item := range m.Items() {
		results := m.SearchItems(item.Name, DefaultThreshold, 0)
		if len(results) == 0 {
			t.Fatalf("SearchItems(%q) returned nothing", item.Name)
		}
		top := results[0]
		if top.Score != 100 {
			t.Errorf("SearchItems(%q) top score = %d, want 100", item.Name, top.Score)
		}
		if top.Item.Name != item.Name || top.Item.Category != item.Category {
			t.Errorf("SearchItems(%q) top = %s/%s, want %s/%s",
				item.Name, top.Item.Category, top.Item.Name, item.Category, item.Name)
		}
	}
}

func TestSearchItems_FuzzyMisspelling(t *testing.T) {
	m := loadTestMenu(t)

	results := m.SearchItems("big mak", 85, 0)
	if len(results) == 0 {
		t.Fatal("SearchItems(big mak) returned nothing")
	}
	if results[0].Item.Name != "Big Mac" {
		t.Fatalf("top match = %q, want Big Mac", results[0].Item.Name)
	}
	if results[0].Score < 85 {
		t.Fatalf("score = %d, want >= 85", results[0].Score)
	}
}

func TestSearchItems_NoMatchIsEmptyNotError(t *testing.T) {
	m := loadTestMenu(t)

	if results := m.SearchItems("whopper", 85, 0); len(results) != 0 {
		t.Fatalf("SearchItems(whopper) = %v, want empty", results)
	}
}

func TestSearchItems_DeterministicTieBreak(t *testing.T) {
	m := loadTestMenu(t)

	a := m.SearchItems("mac", 60, 0)
	b := m.SearchItems("mac", 60, 0)
	if len(a) != len(b) {
		t.Fatalf("result counts differ: %d vs %d", len(a), len(b))
	}
	for i := range a {
		if a[i].Item.Name != b[i].Item.Name || a[i].Score != b[i].Score {
			t.Fatalf("ordering not deterministic at %d: %v vs %v", i, a[i], b[i])
		}
	}
	for i := 1; i < len(a); i++ {
		if a[i].Score > a[i-1].Score {
			t.Fatalf("results not score-descending at %d", i)
		}
	}
}

func TestSearchModifiers(t *testing.T) {
	m := loadTestMenu(t)
	item, _ := m.Lookup("Beef & Pork", "Big Mac")

	results := m.SearchModifiers(item, "no pickels", 70)
	if len(results) == 0 {
		t.Fatal("SearchModifiers(no pickels) returned nothing")
	}
	if results[0].Modifier != "No Pickles" {
		t.Fatalf("top modifier = %q, want No Pickles", results[0].Modifier)
	}

	if results := m.SearchModifiers(item, "anchovies", 70); len(results) != 0 {
		t.Fatalf("SearchModifiers(anchovies) = %v, want empty", results)
	}
}

func TestKeywordSearch_DedupsByIdentity(t *testing.T) {
	m := loadTestMenu(t)

	// Both keywords match Big Mac; it must appear once with its best score.
	results := m.KeywordSearch([]string{"big", "mac"}, 80, 50)

	count := 0
	for _, r := range results {
		if r.Item.Name == "Big Mac" {
			count++
			if r.Score != 100 {
				t.Errorf("Big Mac score = %d, want 100 (best of both keywords)", r.Score)
			}
		}
	}
	if count != 1 {
		t.Fatalf("Big Mac appeared %d times, want 1", count)
	}
}

func TestKeywordSearch_Limit(t *testing.T) {
	m := loadTestMenu(t)

	results := m.KeywordSearch([]string{"big", "mac", "cheeseburger", "egg"}, 60, 2)
	if len(results) > 2 {
		t.Fatalf("KeywordSearch returned %d results, want <= 2", len(results))
	}
	for i := 1; i < len(results); i++ {
		if results[i].Score > results[i-1].Score {
			t.Fatalf("results not score-descending at %d", i)
		}
	}
}
