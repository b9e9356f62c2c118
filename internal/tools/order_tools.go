package tools

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"drivethru/internal/grounding"
	"drivethru/internal/menu"
	"drivethru/internal/order"
)

// Fuzzy thresholds for resolving spoken names to catalog entries. Items
// tolerate more distance than the default search threshold; modifiers
// more still, since short names like "pickels" drift further.
const (
	ItemMatchThreshold     = 80
	ModifierMatchThreshold = 70
)

// OrderToolsConfig wires one session's dependencies into the tool surface.
type OrderToolsConfig struct {
	Menu   *menu.Menu
	Ledger *order.Ledger

	// OnComplete receives the final record after a successful
	// complete_order, for persistence by an external collaborator.
	// Optional; errors from it fail the tool without re-opening the
	// order.
	OnComplete func(*order.Record) error
}

// NewOrderRegistry builds a registry holding the seven order tools closed
// over the session's ledger and the shared catalog.
func NewOrderRegistry(cfg OrderToolsConfig) *Registry {
	r := NewRegistry()
	ot := &orderTools{cfg: cfg}

	r.MustRegister(&Tool{
		Name: "search_menu",
		Description: "Search the menu for items matching a spoken name or keyword. " +
			"Use this when the customer asks what is available or when an item name is unclear.",
		Schema: Schema{
			Required: []string{"query"},
			Properties: map[string]Property{
				"query": {Type: "string", Description: "Item name or keyword to search for"},
			},
		},
		Execute: ot.searchMenu,
	})

	r.MustRegister(&Tool{
		Name: "add_item",
		Description: "Add a menu item to the customer's order. REQUIRES item_name. " +
			"If the customer declines modifiers, call with an empty modifiers list. " +
			"Example: add_item(item_name='Big Mac', modifiers=[], quantity=1).",
		Schema: Schema{
			Required: []string{"item_name"},
			Properties: map[string]Property{
				"item_name": {Type: "string", Description: "Name of the menu item, e.g. 'Big Mac'"},
				"modifiers": {Type: "array", Description: "Modifier names, e.g. ['No Pickles']", Items: &PropertyItems{Type: "string"}},
				"quantity":  {Type: "integer", Description: "Number of items to add (default 1)"},
			},
		},
		Execute: ot.addItem,
	})

	r.MustRegister(&Tool{
		Name: "remove_item",
		Description: "Remove an item from the order entirely. Removes the whole line, " +
			"not a single unit. If modifiers are given the line must match them exactly; " +
			"without modifiers the first line with that item name is removed.",
		Schema: Schema{
			Required: []string{"item_name"},
			Properties: map[string]Property{
				"item_name": {Type: "string", Description: "Name of the item to remove"},
				"modifiers": {Type: "array", Description: "Exact modifier set of the line to remove", Items: &PropertyItems{Type: "string"}},
			},
		},
		Execute: ot.removeItem,
	})

	r.MustRegister(&Tool{
		Name: "update_quantity",
		Description: "Change the quantity of a line already in the order. Quantity must be " +
			"at least 1; use remove_item to take a line off the order.",
		Schema: Schema{
			Required: []string{"item_name", "quantity"},
			Properties: map[string]Property{
				"item_name": {Type: "string", Description: "Name of the item"},
				"modifiers": {Type: "array", Description: "Modifier set identifying the line", Items: &PropertyItems{Type: "string"}},
				"quantity":  {Type: "integer", Description: "New quantity, at least 1"},
			},
		},
		Execute: ot.updateQuantity,
	})

	r.MustRegister(&Tool{
		Name: "replace_item",
		Description: "Swap one ordered line for a different item or modifier set in a single " +
			"step. If the new item is invalid the original line is kept unchanged.",
		Schema: Schema{
			Required: []string{"old_item_name", "new_item_name"},
			Properties: map[string]Property{
				"old_item_name": {Type: "string", Description: "Item currently in the order"},
				"old_modifiers": {Type: "array", Description: "Modifier set of the line being replaced", Items: &PropertyItems{Type: "string"}},
				"new_item_name": {Type: "string", Description: "Item to replace it with"},
				"new_modifiers": {Type: "array", Description: "Modifiers for the new item", Items: &PropertyItems{Type: "string"}},
				"quantity":      {Type: "integer", Description: "Quantity for the new line (default 1)"},
			},
		},
		Execute: ot.replaceItem,
	})

	r.MustRegister(&Tool{
		Name: "get_order_summary",
		Description: "Read back the current order: each line with its modifiers and quantity, " +
			"plus the total item count. Valid at any time.",
		Schema:  Schema{Properties: map[string]Property{}},
		Execute: ot.getSummary,
	})

	r.MustRegister(&Tool{
		Name: "complete_order",
		Description: "Finalize the order when the customer says they are done " +
			"(e.g. 'That's all', 'I'm done'). Fails if the order is empty.",
		Schema:  Schema{Properties: map[string]Property{}},
		Execute: ot.completeOrder,
	})

	return r
}

type orderTools struct {
	cfg OrderToolsConfig
}

// stripCategorySuffix removes a trailing "(Category)" the backend
// sometimes copies from the grounding listing.
func stripCategorySuffix(name string) string {
	if i := strings.Index(name, "("); i > 0 && strings.Contains(name[i:], ")") {
		return strings.TrimSpace(name[:i])
	}
	return name
}

// resolveItem maps a spoken item name to a catalog entry: exact
// case-insensitive match first, then the best fuzzy match at or above
// ItemMatchThreshold.
func (ot *orderTools) resolveItem(name string) (menu.Item, bool) {
	name = stripCategorySuffix(name)
	if item, ok := ot.cfg.Menu.Find(name); ok {
		return item, true
	}
	results := ot.cfg.Menu.SearchItems(name, ItemMatchThreshold, 1)
	if len(results) == 0 {
		return menu.Item{}, false
	}
	return results[0].Item, true
}

// resolveModifiers maps spoken modifier names to the item's canonical
// spellings. Any name that cannot be resolved fails the whole set.
func (ot *orderTools) resolveModifiers(item menu.Item, requested []string) ([]string, error) {
	if len(requested) == 0 {
		return nil, nil
	}
	out := make([]string, 0, len(requested))
	for _, req := range requested {
		matches := ot.cfg.Menu.SearchModifiers(item, req, ModifierMatchThreshold)
		if len(matches) == 0 {
			return nil, &order.ModifierNotAvailableError{Item: item.Name, Modifier: req}
		}
		out = append(out, matches[0].Modifier)
	}
	return out, nil
}

func (ot *orderTools) searchMenu(ctx context.Context, args map[string]any) (string, error) {
	query, err := stringArg(args, "query")
	if err != nil {
		return "", err
	}
	if query == "" {
		return "What would you like me to look for?", nil
	}

	results := ot.cfg.Menu.KeywordSearch(grounding.Keywords(query), ItemMatchThreshold, 10)
	if len(results) == 0 {
		results = ot.cfg.Menu.SearchItems(query, ItemMatchThreshold, 10)
	}
	if len(results) == 0 {
		return fmt.Sprintf("I couldn't find anything matching %q on our menu.", query), nil
	}
	return "Here's what I found:\n" + grounding.FormatResults(results), nil
}

func (ot *orderTools) addItem(ctx context.Context, args map[string]any) (string, error) {
	name, err := stringArg(args, "item_name")
	if err != nil {
		return "", err
	}
	if name == "" {
		return "I need to know which item you'd like to add. What would you like to order?", nil
	}
	quantity, err := intArg(args, "quantity", 1)
	if err != nil {
		return "", err
	}
	modifiers, err := stringSliceArg(args, "modifiers")
	if err != nil {
		return "", err
	}

	item, ok := ot.resolveItem(name)
	if !ok {
		e := &order.ItemNotFoundError{Name: name}
		return fmt.Sprintf("Sorry, I couldn't find %q on our menu. Could you try a different item?", name), e
	}

	canonical, err := ot.resolveModifiers(item, modifiers)
	if err != nil {
		var mna *order.ModifierNotAvailableError
		if errors.As(err, &mna) {
			available := strings.Join(item.ModifierNames(), ", ")
			if available == "" {
				return fmt.Sprintf("Sorry, %s doesn't come with any options like %q.", item.Name, mna.Modifier), err
			}
			return fmt.Sprintf("Sorry, %q isn't available for %s. Options are: %s.", mna.Modifier, item.Name, available), err
		}
		return "", err
	}

	line, err := ot.cfg.Ledger.Add(item.Category, item.Name, quantity, canonical)
	if err != nil {
		return refusalFor(err), err
	}

	return confirmAdded(line.Item.Name, canonical, quantity), nil
}

func (ot *orderTools) removeItem(ctx context.Context, args map[string]any) (string, error) {
	name, err := stringArg(args, "item_name")
	if err != nil {
		return "", err
	}
	modifiers, err := stringSliceArg(args, "modifiers")
	if err != nil {
		return "", err
	}
	name = stripCategorySuffix(name)

	// Exact modifier set when given, otherwise any line with the name.
	removed, err := ot.cfg.Ledger.Remove("", name, modifiers, len(modifiers) == 0)
	if err != nil {
		if errors.Is(err, order.ErrLineNotFound) {
			return fmt.Sprintf("I don't see %q in your order.", name), err
		}
		return refusalFor(err), err
	}
	return fmt.Sprintf("Removed %s from your order.", removed.Item.Name), nil
}

func (ot *orderTools) updateQuantity(ctx context.Context, args map[string]any) (string, error) {
	name, err := stringArg(args, "item_name")
	if err != nil {
		return "", err
	}
	quantity, err := intArg(args, "quantity", 0)
	if err != nil {
		return "", err
	}
	modifiers, err := stringSliceArg(args, "modifiers")
	if err != nil {
		return "", err
	}
	name = stripCategorySuffix(name)

	line, err := ot.cfg.Ledger.SetQuantity("", name, modifiers, quantity)
	if err != nil {
		switch {
		case errors.Is(err, order.ErrInvalidQuantity):
			return "Quantity has to be at least one. To take it off the order, say remove instead.", err
		case errors.Is(err, order.ErrLineNotFound):
			return fmt.Sprintf("I don't see %q in your order.", name), err
		default:
			return refusalFor(err), err
		}
	}
	return fmt.Sprintf("Updated %s to %d.", line.Item.Name, line.Quantity), nil
}

func (ot *orderTools) replaceItem(ctx context.Context, args map[string]any) (string, error) {
	oldName, err := stringArg(args, "old_item_name")
	if err != nil {
		return "", err
	}
	oldMods, err := stringSliceArg(args, "old_modifiers")
	if err != nil {
		return "", err
	}
	newName, err := stringArg(args, "new_item_name")
	if err != nil {
		return "", err
	}
	newModsRaw, err := stringSliceArg(args, "new_modifiers")
	if err != nil {
		return "", err
	}
	quantity, err := intArg(args, "quantity", 1)
	if err != nil {
		return "", err
	}
	oldName = stripCategorySuffix(oldName)

	item, ok := ot.resolveItem(newName)
	if !ok {
		e := &order.ItemNotFoundError{Name: newName}
		return fmt.Sprintf("Sorry, I couldn't find %q on our menu, so I've kept your order as it was.", newName), e
	}
	newMods, err := ot.resolveModifiers(item, newModsRaw)
	if err != nil {
		var mna *order.ModifierNotAvailableError
		if errors.As(err, &mna) {
			return fmt.Sprintf("Sorry, %q isn't available for %s, so I've kept your order as it was.", mna.Modifier, item.Name), err
		}
		return "", err
	}

	line, err := ot.cfg.Ledger.Replace("", oldName, oldMods, item.Category, item.Name, newMods, quantity)
	if err != nil {
		if errors.Is(err, order.ErrLineNotFound) {
			return fmt.Sprintf("I don't see %q in your order.", oldName), err
		}
		return refusalFor(err), err
	}
	return fmt.Sprintf("Swapped that for %s.", describeLine(line)), nil
}

func (ot *orderTools) getSummary(ctx context.Context, args map[string]any) (string, error) {
	lines, total := ot.cfg.Ledger.Summary()
	if len(lines) == 0 {
		return "Your order is empty so far.", nil
	}

	parts := make([]string, len(lines))
	for i, l := range lines {
		parts[i] = describeLine(l)
	}
	return fmt.Sprintf("You have: %s. Total items: %d.", strings.Join(parts, "; "), total), nil
}

func (ot *orderTools) completeOrder(ctx context.Context, args map[string]any) (string, error) {
	rec, err := ot.cfg.Ledger.Complete()
	if err != nil {
		switch {
		case errors.Is(err, order.ErrEmptyOrder):
			return "Your order is empty. Would you like to add something?", err
		case errors.Is(err, order.ErrOrderCompleted):
			return "Your order is already complete. Thank you!", err
		default:
			return "", err
		}
	}

	if ot.cfg.OnComplete != nil {
		if err := ot.cfg.OnComplete(rec); err != nil {
			return "", fmt.Errorf("persisting completed order: %w", err)
		}
	}

	parts := make([]string, len(rec.Items))
	for i, it := range rec.Items {
		parts[i] = describeRecordItem(it)
	}
	return fmt.Sprintf("Order complete! You ordered: %s. Total items: %d. Thank you!",
		strings.Join(parts, "; "), rec.TotalUnits()), nil
}

// refusalFor phrases the ledger errors that do not get a bespoke message.
func refusalFor(err error) string {
	if errors.Is(err, order.ErrOrderCompleted) {
		return "Your order is already complete, so I can't change it anymore."
	}
	return "Sorry, I couldn't do that. Could you try again?"
}

func confirmAdded(name string, modifiers []string, quantity int) string {
	modText := ""
	if len(modifiers) > 0 {
		modText = " with " + strings.Join(modifiers, ", ")
	}
	if quantity > 1 {
		return fmt.Sprintf("Added %d %s%s to your order.", quantity, name, modText)
	}
	return fmt.Sprintf("Added one %s%s to your order.", name, modText)
}

func describeLine(l order.Line) string {
	s := fmt.Sprintf("%dx %s", l.Quantity, l.Item.Name)
	if len(l.Modifiers) > 0 {
		s += " (" + strings.Join(l.Modifiers, ", ") + ")"
	}
	return s
}

func describeRecordItem(it order.RecordItem) string {
	s := fmt.Sprintf("%dx %s", it.Quantity, it.ItemName)
	if len(it.Modifiers) > 0 {
		s += " (" + strings.Join(it.Modifiers, ", ") + ")"
	}
	return s
}
