// Package order tracks one customer's in-progress order for a single
// conversation session. A Ledger is a two-state machine (OPEN -> COMPLETED)
// whose mutating operations are all-or-nothing and validated against the
// shared read-only catalog.
package order

import (
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"drivethru/internal/menu"
)

// Status is the ledger lifecycle state.
type Status string

const (
	// StatusOpen accepts mutations.
	StatusOpen Status = "OPEN"

	// StatusCompleted is terminal; the order and its lines are frozen.
	StatusCompleted Status = "COMPLETED"
)

// ItemRef identifies a catalog item by (category, name).
type ItemRef struct {
	Category string
	Name     string
}

// Line is one (item + modifier set) entry with a quantity of at least 1.
// A line is uniquely identified by its item identity plus modifier set
// while the order is open; adds with the same identity merge instead of
// duplicating.
type Line struct {
	ID        string
	Item      ItemRef
	Modifiers []string
	Quantity  int
	AddedAt   time.Time
}

func (l *Line) clone() Line {
	out := *l
	out.Modifiers = append([]string(nil), l.Modifiers...)
	return out
}

// Record is the immutable snapshot produced on completion, shaped for the
// external collaborator that persists it.
type Record struct {
	SessionID   string       `json:"session_id"`
	Items       []RecordItem `json:"items"`
	CompletedAt time.Time    `json:"completed_at"`
}

// RecordItem is one completed line with its resolved category and
// canonical modifier names.
type RecordItem struct {
	ItemName  string   `json:"item_name"`
	Category  string   `json:"category"`
	Modifiers []string `json:"modifiers"`
	Quantity  int      `json:"quantity"`
}

// TotalUnits sums the quantities of all record items.
func (r *Record) TotalUnits() int {
	n := 0
	for _, it := range r.Items {
		n += it.Quantity
	}
	return n
}

// Ledger accumulates one session's order. Mutations are serialized with an
// internal mutex so a runtime that dispatches concurrent tool calls for
// the same session still gets the all-or-nothing guarantee.
type Ledger struct {
	sessionID string
	catalog   *menu.Menu

	mu     sync.Mutex
	status Status
	lines  []*Line
}

// New creates an open, empty ledger for one conversation session.
func New(sessionID string, catalog *menu.Menu) *Ledger {
	return &Ledger{
		sessionID: sessionID,
		catalog:   catalog,
		status:    StatusOpen,
	}
}

// SessionID returns the owning session's id.
func (g *Ledger) SessionID() string { return g.sessionID }

// Status returns the current lifecycle state.
func (g *Ledger) Status() Status {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.status
}

// IsEmpty reports whether the order has no lines.
func (g *Ledger) IsEmpty() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.lines) == 0
}

// Add resolves the item identity against the catalog and either merges
// into an existing line with the same identity and modifier set or appends
// a new line. Modifier names must match the item's modifier list exactly
// (case-insensitive); on any invalid modifier nothing is applied.
func (g *Ledger) Add(category, name string, quantity int, modifiers []string) (Line, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.status == StatusCompleted {
		return Line{}, ErrOrderCompleted
	}
	if quantity < 1 {
		return Line{}, ErrInvalidQuantity
	}

	item, ok := g.catalog.Lookup(category, name)
	if !ok || !item.AvailableAsBase {
		return Line{}, &ItemNotFoundError{Category: category, Name: name}
	}

	canonical, err := canonicalModifiers(item, modifiers)
	if err != nil {
		return Line{}, err
	}

	if line := g.findLine(item.Category, item.Name, canonical, false); line != nil {
		line.Quantity += quantity
		return line.clone(), nil
	}

	line := &Line{
		ID:        uuid.NewString(),
		Item:      ItemRef{Category: item.Category, Name: item.Name},
		Modifiers: canonical,
		Quantity:  quantity,
		AddedAt:   time.Now().UTC(),
	}
	g.lines = append(g.lines, line)
	return line.clone(), nil
}

// Remove deletes the first line (in insertion order) matching the item
// identity, regardless of quantity. With anyModifiers the modifier set is
// ignored; otherwise it must match exactly.
func (g *Ledger) Remove(category, name string, modifiers []string, anyModifiers bool) (Line, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.status == StatusCompleted {
		return Line{}, ErrOrderCompleted
	}

	idx := g.findIndex(category, name, modifiers, anyModifiers)
	if idx < 0 {
		return Line{}, ErrLineNotFound
	}

	removed := g.lines[idx].clone()
	g.lines = append(g.lines[:idx], g.lines[idx+1:]...)
	return removed, nil
}

// SetQuantity replaces the quantity on the matching line. Setting the same
// quantity twice is a successful no-op the second time; zero is rejected.
func (g *Ledger) SetQuantity(category, name string, modifiers []string, quantity int) (Line, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.status == StatusCompleted {
		return Line{}, ErrOrderCompleted
	}
	if quantity < 1 {
		return Line{}, ErrInvalidQuantity
	}

	line := g.findLine(category, name, modifiers, false)
	if line == nil {
		return Line{}, ErrLineNotFound
	}

	line.Quantity = quantity
	return line.clone(), nil
}

// Replace atomically swaps one line for another item/modifier set. The new
// item and modifiers are validated before the old line is touched, so an
// invalid replacement leaves the order unchanged.
func (g *Ledger) Replace(oldCategory, oldName string, oldModifiers []string, newCategory, newName string, newModifiers []string, quantity int) (Line, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.status == StatusCompleted {
		return Line{}, ErrOrderCompleted
	}
	if quantity < 1 {
		return Line{}, ErrInvalidQuantity
	}

	oldIdx := g.findIndex(oldCategory, oldName, oldModifiers, false)
	if oldIdx < 0 {
		return Line{}, ErrLineNotFound
	}

	item, ok := g.catalog.Lookup(newCategory, newName)
	if !ok || !item.AvailableAsBase {
		return Line{}, &ItemNotFoundError{Category: newCategory, Name: newName}
	}
	canonical, err := canonicalModifiers(item, newModifiers)
	if err != nil {
		return Line{}, err
	}

	// All inputs validated; mutation cannot fail from here on.
	g.lines = append(g.lines[:oldIdx], g.lines[oldIdx+1:]...)

	if line := g.findLine(item.Category, item.Name, canonical, false); line != nil {
		line.Quantity += quantity
		return line.clone(), nil
	}

	line := &Line{
		ID:        uuid.NewString(),
		Item:      ItemRef{Category: item.Category, Name: item.Name},
		Modifiers: canonical,
		Quantity:  quantity,
		AddedAt:   time.Now().UTC(),
	}
	g.lines = append(g.lines, line)
	return line.clone(), nil
}

// Summary returns copies of all lines in insertion order plus the total
// unit count. Valid in any state.
func (g *Ledger) Summary() ([]Line, int) {
	g.mu.Lock()
	defer g.mu.Unlock()

	lines := make([]Line, len(g.lines))
	total := 0
	for i, l := range g.lines {
		lines[i] = l.clone()
		total += l.Quantity
	}
	return lines, total
}

// Complete transitions the order to its terminal state and produces the
// final record. Completing an empty order fails with ErrEmptyOrder and
// leaves the order open; completing twice fails with ErrOrderCompleted.
func (g *Ledger) Complete() (*Record, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.status == StatusCompleted {
		return nil, ErrOrderCompleted
	}
	if len(g.lines) == 0 {
		return nil, ErrEmptyOrder
	}

	g.status = StatusCompleted

	rec := &Record{
		SessionID:   g.sessionID,
		Items:       make([]RecordItem, len(g.lines)),
		CompletedAt: time.Now().UTC(),
	}
	for i, l := range g.lines {
		rec.Items[i] = RecordItem{
			ItemName:  l.Item.Name,
			Category:  l.Item.Category,
			Modifiers: append([]string(nil), l.Modifiers...),
			Quantity:  l.Quantity,
		}
	}
	return rec, nil
}

// findLine returns the first line matching identity and modifier set, or
// nil. Caller holds the lock.
func (g *Ledger) findLine(category, name string, modifiers []string, anyModifiers bool) *Line {
	if idx := g.findIndex(category, name, modifiers, anyModifiers); idx >= 0 {
		return g.lines[idx]
	}
	return nil
}

func (g *Ledger) findIndex(category, name string, modifiers []string, anyModifiers bool) int {
	for i, l := range g.lines {
		if !strings.EqualFold(l.Item.Name, name) {
			continue
		}
		if category != "" && !strings.EqualFold(l.Item.Category, category) {
			continue
		}
		if anyModifiers || sameModifierSet(l.Modifiers, modifiers) {
			return i
		}
	}
	return -1
}

// canonicalModifiers maps requested modifier names to the catalog's exact
// spelling, preserving request order. Any name the item does not offer
// fails the whole set.
func canonicalModifiers(item menu.Item, requested []string) ([]string, error) {
	if len(requested) == 0 {
		return nil, nil
	}
	out := make([]string, 0, len(requested))
	for _, req := range requested {
		found := ""
		for _, m := range item.Modifiers {
			if strings.EqualFold(m.Name, strings.TrimSpace(req)) {
				found = m.Name
				break
			}
		}
		if found == "" {
			return nil, &ModifierNotAvailableError{Item: item.Name, Modifier: req}
		}
		out = append(out, found)
	}
	return out, nil
}

// sameModifierSet compares two modifier lists as case-insensitive sets.
func sameModifierSet(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	used := make([]bool, len(b))
outer:
	for _, ma := range a {
		for i, mb := range b {
			if !used[i] && strings.EqualFold(ma, strings.TrimSpace(mb)) {
				used[i] = true
				continue outer
			}
		}
		return false
	}
	return true
}
