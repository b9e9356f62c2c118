// Package grounding augments generation requests with catalog facts so the
// backend stays anchored to real menu items, and short-circuits trivial
// chit-chat through a fixed-phrase intercept. Both pieces are stateless:
// they hold only immutable configuration and never mutate a conversation
// they are given.
package grounding

import (
	"context"
	"fmt"
	"strings"

	"drivethru/internal/llm"
	"drivethru/internal/menu"
)

// MaxContextItems bounds for the injected listing.
const (
	DefaultMaxContextItems = 50
	MinContextItems        = 10
	MaxContextItems        = 100
)

// stopwords are filler words stripped before keyword search. Fixed set;
// the remaining tokens are treated as catalog keywords.
var stopwords = map[string]bool{
	"i": true, "want": true, "a": true, "an": true, "the": true,
	"please": true, "thanks": true, "and": true, "with": true,
	"to": true, "like": true, "can": true, "could": true, "get": true,
	"have": true, "i'd": true, "id": true, "some": true, "of": true,
}

// Grounder extracts keywords from an utterance, searches the catalog, and
// injects the results into a conversation as one synthetic system entry.
type Grounder struct {
	catalog   *menu.Menu
	maxItems  int
	threshold int
}

// NewGrounder builds a grounder over the shared catalog. maxItems is
// clamped to [MinContextItems, MaxContextItems]; zero means the default.
func NewGrounder(catalog *menu.Menu, maxItems, threshold int) *Grounder {
	if maxItems == 0 {
		maxItems = DefaultMaxContextItems
	}
	if maxItems < MinContextItems {
		maxItems = MinContextItems
	}
	if maxItems > MaxContextItems {
		maxItems = MaxContextItems
	}
	if threshold <= 0 {
		threshold = menu.DefaultThreshold
	}
	return &Grounder{catalog: catalog, maxItems: maxItems, threshold: threshold}
}

// Keywords tokenizes an utterance: lowercase, split on whitespace, drop
// stopwords.
func Keywords(text string) []string {
	var out []string
	for _, w := range strings.Fields(strings.ToLower(text)) {
		w = strings.Trim(w, ".,!?;:")
		if w == "" || stopwords[w] {
			continue
		}
		out = append(out, w)
	}
	return out
}

// Augment returns a copy of the conversation with a "Relevant menu items"
// system entry inserted immediately after the leading system entry (or at
// the front when none leads). When the utterance yields no keywords or no
// catalog matches, the original conversation is returned unchanged. Two
// calls with identical inputs produce identical outputs.
func (g *Grounder) Augment(conv llm.Conversation, utterance string) llm.Conversation {
	keywords := Keywords(utterance)
	if len(keywords) == 0 {
		return conv
	}

	results := g.catalog.KeywordSearch(keywords, g.threshold, g.maxItems)
	if len(results) == 0 {
		return conv
	}

	entry := llm.Message{
		Role:    llm.RoleSystem,
		Content: "Relevant menu items:\n" + FormatResults(results),
	}

	insertAt := 0
	if len(conv) > 0 && conv[0].Role == llm.RoleSystem {
		insertAt = 1
	}

	out := make(llm.Conversation, 0, len(conv)+1)
	out = append(out, conv[:insertAt]...)
	out = append(out, entry)
	out = append(out, conv[insertAt:]...)
	return out
}

// FormatResults renders search results as a flat "name (category)" list,
// with modifier names where an item has any.
func FormatResults(results []menu.SearchResult) string {
	var b strings.Builder
	for _, r := range results {
		fmt.Fprintf(&b, "- %s (%s)\n", r.Item.Name, r.Item.Category)
		if len(r.Item.Modifiers) > 0 {
			fmt.Fprintf(&b, "  Modifiers: %s\n", strings.Join(r.Item.ModifierNames(), ", "))
		}
	}
	return strings.TrimRight(b.String(), "\n")
}

// Wrapper composes the intercept fast path and the grounding path around
// an inner generation client. It holds only configuration, so interleaved
// calls for different sessions never interfere.
type Wrapper struct {
	inner       llm.Client
	grounder    *Grounder
	interceptor *Interceptor
}

// NewWrapper builds the wrapper. interceptor may be nil to disable the
// fast path.
func NewWrapper(inner llm.Client, grounder *Grounder, interceptor *Interceptor) *Wrapper {
	return &Wrapper{inner: inner, grounder: grounder, interceptor: interceptor}
}

// Chat checks the intercept first; on a hit the canned response comes back
// without any catalog lookup or delegation. Otherwise the pending
// utterance grounds the conversation and the inner client is delegated to.
// The wrapper never inspects the inner response.
func (w *Wrapper) Chat(ctx context.Context, conv llm.Conversation, tools []llm.ToolSpec) (*llm.Message, error) {
	utterance := conv.LastUserText()

	if w.interceptor != nil {
		if reply, ok := w.interceptor.Intercept(utterance); ok {
			return &llm.Message{Role: llm.RoleAssistant, Content: reply}, nil
		}
	}

	augmented := w.grounder.Augment(conv, utterance)
	return w.inner.Chat(ctx, augmented, tools)
}
