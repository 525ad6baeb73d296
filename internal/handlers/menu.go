package handlers

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"primos/internal/clarification"
	"primos/internal/conversation"
	"primos/internal/models"
	"primos/internal/nlp"
	"primos/internal/services"
)

// BrowseMenu answers menu, item info and price questions
type BrowseMenu struct {
	menu         *services.MenuService
	alternatives *clarification.Service
}

func (h *BrowseMenu) Name() string { return nlp.IntentBrowseMenu }

func (h *BrowseMenu) CanHandle(c *conversation.Context) bool {
	switch c.Intent {
	case nlp.IntentBrowseMenu, nlp.IntentItemInfo, nlp.IntentGetPrice:
		return true
	}
	return false
}

func (h *BrowseMenu) Handle(ctx context.Context, c *conversation.Context) (*conversation.Result, error) {
	switch {
	case c.Entities.Item != "":
		return h.item(c.Entities.Item, c.Lang)
	case c.Entities.Category != "":
		return h.category(models.MenuCategory(c.Entities.Category))
	}
	return h.fullMenu()
}

func (h *BrowseMenu) item(name, lang string) (*conversation.Result, error) {
	item, err := h.menu.GetItemByName(name, false)
	if errors.Is(err, services.ErrItemNotFound) {
		res := &conversation.Result{Error: fmt.Sprintf("Item '%s' not found in menu", name)}
		if h.alternatives != nil {
			alt, err := h.alternatives.SuggestAlternatives(name, lang)
			if err != nil {
				return nil, err
			}
			res.Message = alt
		}
		return res, nil
	}
	if err != nil {
		return nil, err
	}

	prices, err := h.menu.GetItemWithAllPrices(item.ID)
	if err != nil {
		return nil, err
	}
	formatted := h.menu.FormatItemForDisplay(item, true)
	return &conversation.Result{
		Success: true,
		Message: formatted,
		Data: map[string]interface{}{
			"item":      prices,
			"formatted": formatted,
		},
	}, nil
}

func (h *BrowseMenu) category(category models.MenuCategory) (*conversation.Result, error) {
	items, err := h.menu.GetItemsByCategory(category, true)
	if err != nil {
		return nil, err
	}
	if len(items) == 0 {
		return &conversation.Result{Error: fmt.Sprintf("No items found in category '%s'", category)}, nil
	}

	lines := h.format(items)
	return &conversation.Result{
		Success: true,
		Message: bullets(lines),
		Data: map[string]interface{}{
			"category": category,
			"items":    lines,
			"count":    len(items),
		},
	}, nil
}

func (h *BrowseMenu) fullMenu() (*conversation.Result, error) {
	pizzas, err := h.menu.GetAllPizzas(true)
	if err != nil {
		return nil, err
	}
	additions, err := h.menu.GetAllAdditions(true)
	if err != nil {
		return nil, err
	}

	pizzaLines := h.format(pizzas)
	additionLines := h.format(additions)
	msg := "🍕 Pizzas:\n" + bullets(pizzaLines) + "\n\n🥤 Additions:\n" + bullets(additionLines)

	return &conversation.Result{
		Success: true,
		Message: msg,
		Data: map[string]interface{}{
			"menu": map[string][]string{
				"pizzas":    pizzaLines,
				"additions": additionLines,
			},
			"pizza_count":    len(pizzas),
			"addition_count": len(additions),
		},
	}, nil
}

func (h *BrowseMenu) format(items []models.MenuItem) []string {
	out := make([]string, len(items))
	for i := range items {
		out[i] = h.menu.FormatItemForDisplay(&items[i], false)
	}
	return out
}

func bullets(lines []string) string {
	var b strings.Builder
	for i, l := range lines {
		if i > 0 {
			b.WriteString("\n")
		}
		b.WriteString("  • " + l)
	}
	return b.String()
}
