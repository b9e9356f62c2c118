package menu

import (
	"math"
	"sort"
	"strings"

	"github.com/adrg/strutil"
	"github.com/adrg/strutil/metrics"
)

// DefaultThreshold is the minimum similarity score a fuzzy match must
// reach to be returned when the caller does not specify one.
const DefaultThreshold = 85

// SearchResult is one fuzzy match against the catalog. For item searches
// Item is set; for modifier searches Modifier carries the matched name and
// Item the owning item.
type SearchResult struct {
	Item     Item
	Modifier string

	// Score is the similarity score in [0, 100]; an exact
	// case-insensitive match scores 100.
	Score int

	// Query is the (normalized) query fragment that produced the match.
	Query string
}

var levenshtein = metrics.NewLevenshtein()

// Score computes the similarity of a query against a candidate name,
// scaled to [0, 100]. The score is the best of the whole-name Levenshtein
// ratio and the ratio against each whitespace token of the name, so a
// single spoken word ("mac") can still hit a multi-word item ("Big Mac").
func Score(query, name string) int {
	q := normalize(query)
	n := normalize(name)
	if q == "" || n == "" {
		return 0
	}
	if q == n {
		return 100
	}

	best := ratio(q, n)
	for _, token := range strings.Fields(n) {
		if r := ratio(q, token); r > best {
			best = r
		}
	}
	return best
}

func ratio(a, b string) int {
	if a == b {
		return 100
	}
	return int(math.Round(strutil.Similarity(a, b, levenshtein) * 100))
}

func normalize(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// SearchItems fuzzy-matches a query against every item name. Results with
// Score >= threshold are returned ordered by score descending, ties broken
// by category then item name ascending. limit <= 0 means no limit. A query
// that matches nothing yields an empty slice, never an error.
func (m *Menu) SearchItems(query string, threshold, limit int) []SearchResult {
	q := normalize(query)
	if q == "" {
		return nil
	}

	var results []SearchResult
	for _, category := range m.categories {
		for _, it := range m.byCategory[category] {
			score := Score(q, it.Name)
			if score < threshold {
				continue
			}
			results = append(results, SearchResult{Item: it, Score: score, Query: q})
		}
	}

	sortResults(results)
	if limit > 0 && len(results) > limit {
		results = results[:limit]
	}
	return results
}

// SearchModifiers fuzzy-matches a query against the modifier names of a
// single item. An unknown modifier is a non-error empty result; the caller
// decides how to phrase the refusal.
func (m *Menu) SearchModifiers(item Item, query string, threshold int) []SearchResult {
	q := normalize(query)
	if q == "" {
		return nil
	}

	var results []SearchResult
	for _, mod := range item.Modifiers {
		score := Score(q, mod.Name)
		if score < threshold {
			continue
		}
		results = append(results, SearchResult{
			Item:     item,
			Modifier: mod.Name,
			Score:    score,
			Query:    q,
		})
	}

	sort.SliceStable(results, func(i, j int) bool {
		if results[i].Score != results[j].Score {
			return results[i].Score > results[j].Score
		}
		return results[i].Modifier < results[j].Modifier
	})
	return results
}

// KeywordSearch runs SearchItems for each keyword and merges the results,
// deduplicating by item identity and keeping the highest score seen. At
// most limit unique items are returned, in score-descending order with the
// same deterministic tie-break as SearchItems.
func (m *Menu) KeywordSearch(keywords []string, threshold, limit int) []SearchResult {
	type identity struct{ category, name string }
	best := make(map[identity]SearchResult)

	for _, kw := range keywords {
		for _, res := range m.SearchItems(kw, threshold, 0) {
			id := identity{res.Item.Category, res.Item.Name}
			if prev, ok := best[id]; !ok || res.Score > prev.Score {
				best[id] = res
			}
		}
	}

	results := make([]SearchResult, 0, len(best))
	for _, res := range best {
		results = append(results, res)
	}
	sortResults(results)
	if limit > 0 && len(results) > limit {
		results = results[:limit]
	}
	return results
}

func sortResults(results []SearchResult) {
	sort.SliceStable(results, func(i, j int) bool {
		if results[i].Score != results[j].Score {
			return results[i].Score > results[j].Score
		}
		if results[i].Item.Category != results[j].Item.Category {
			return results[i].Item.Category < results[j].Item.Category
		}
		return results[i].Item.Name < results[j].Item.Name
	})
}
