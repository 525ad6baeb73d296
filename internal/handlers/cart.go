package handlers

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"primos/internal/conversation"
	"primos/internal/nlp"
	"primos/internal/services"

	"go.uber.org/zap"
)

var leadingQuantity = regexp.MustCompile(`^(\d+)\s+(.+)$`)

// Remove takes an item, or part of its quantity, out of the cart
type Remove struct {
	cart   *services.CartService
	logger *zap.Logger
}

func (h *Remove) Name() string { return nlp.IntentRemoveItem }

func (h *Remove) CanHandle(c *conversation.Context) bool {
	return c.Intent == nlp.IntentRemoveItem && strings.TrimSpace(c.Entities.Item) != ""
}

func (h *Remove) Handle(ctx context.Context, c *conversation.Context) (*conversation.Result, error) {
	name := strings.TrimSpace(c.Entities.Item)
	qty := c.Entities.Quantity
	if m := leadingQuantity.FindStringSubmatch(name); m != nil {
		qty = nlp.ParseQuantity(m[1])
		name = m[2]
	}

	view, err := h.cart.ViewCart(c.UserID)
	if err != nil {
		return nil, err
	}
	if len(view.Items) == 0 {
		return &conversation.Result{Error: "Your cart is empty"}, nil
	}

	line := matchLine(view, name)
	if line == nil {
		names := make([]string, len(view.Items))
		for i, l := range view.Items {
			names[i] = l.ItemName
		}
		return &conversation.Result{
			Error: fmt.Sprintf("'%s' not found in cart. You have: %s", name, strings.Join(names, ", ")),
		}, nil
	}

	h.logger.Debug("removing item",
		zap.Uint("user_id", c.UserID),
		zap.String("item", line.ItemName),
		zap.Int("quantity", qty),
		zap.Int("in_cart", line.Quantity))

	var msg string
	switch {
	case qty <= 0:
		if msg, err = h.cart.RemoveItem(c.UserID, line.MenuSizeID); err != nil {
			return nil, err
		}
	case qty >= line.Quantity:
		if _, err = h.cart.RemoveItem(c.UserID, line.MenuSizeID); err != nil {
			return nil, err
		}
		msg = fmt.Sprintf("Removed all %s from cart", line.ItemName)
	default:
		remaining := line.Quantity - qty
		if _, err = h.cart.UpdateItemQuantity(c.UserID, line.MenuSizeID, remaining); err != nil {
			return nil, err
		}
		msg = fmt.Sprintf("Removed %d %s, %d remaining", qty, line.ItemName, remaining)
	}

	if view, err := h.cart.ViewCart(c.UserID); err == nil {
		c.Cart = view
	}
	return &conversation.Result{Success: true, Message: msg}, nil
}

// matchLine finds the first line whose name contains name or is
// contained in it
func matchLine(view *services.CartView, name string) *services.CartLine {
	name = strings.ToLower(strings.TrimSpace(name))
	for i := range view.Items {
		n := strings.ToLower(view.Items[i].ItemName)
		if strings.Contains(n, name) || strings.Contains(name, n) {
			return &view.Items[i]
		}
	}
	return nil
}

// GetCart shows the cart
type GetCart struct {
	cart *services.CartService
}

func (h *GetCart) Name() string { return nlp.IntentViewCart }

func (h *GetCart) CanHandle(c *conversation.Context) bool {
	return c.Intent == nlp.IntentViewCart
}

func (h *GetCart) Handle(ctx context.Context, c *conversation.Context) (*conversation.Result, error) {
	view, err := h.cart.ViewCart(c.UserID)
	if err != nil {
		return nil, fmt.Errorf("could not retrieve cart: %w", err)
	}
	c.Cart = view

	summary := services.FormatCartSummary(view)
	return &conversation.Result{
		Success: true,
		Message: summary,
		Data: map[string]interface{}{
			"cart_data": view,
			"summary":   summary,
		},
	}, nil
}

// ClearCart empties the cart
type ClearCart struct {
	cart *services.CartService
}

func (h *ClearCart) Name() string { return nlp.IntentClearCart }

func (h *ClearCart) CanHandle(c *conversation.Context) bool {
	return c.Intent == nlp.IntentClearCart
}

func (h *ClearCart) Handle(ctx context.Context, c *conversation.Context) (*conversation.Result, error) {
	if _, err := h.cart.ClearCart(c.UserID); err != nil {
		return nil, fmt.Errorf("error clearing cart: %w", err)
	}
	c.Cart = &services.CartView{Items: []services.CartLine{}}
	return &conversation.Result{Success: true, Message: "Cart cleared! Ready for a new order 🛒"}, nil
}
