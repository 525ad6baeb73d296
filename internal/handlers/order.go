package handlers

import (
	"context"
	"errors"
	"fmt"

	"primos/internal/conversation"
	"primos/internal/nlp"
	"primos/internal/services"

	"go.uber.org/zap"
)

// Checkout turns the cart into an order
type Checkout struct {
	cart   *services.CartService
	orders *services.OrderService
	logger *zap.Logger
}

func (h *Checkout) Name() string { return nlp.IntentCheckout }

func (h *Checkout) CanHandle(c *conversation.Context) bool {
	return c.Intent == nlp.IntentCheckout && !c.CartIsEmpty()
}

func (h *Checkout) Handle(ctx context.Context, c *conversation.Context) (*conversation.Result, error) {
	receipt, err := h.orders.Checkout(c.UserID)
	if errors.Is(err, services.ErrEmptyCart) {
		return &conversation.Result{Error: "Your cart is empty. Cannot checkout."}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("checkout failed: %w", err)
	}

	h.logger.Info("order placed",
		zap.Uint("user_id", c.UserID),
		zap.Uint("order_id", receipt.OrderID),
		zap.Float64("total", receipt.TotalPrice))

	c.Cart = &services.CartView{Items: []services.CartLine{}}
	return &conversation.Result{
		Success: true,
		Message: fmt.Sprintf("Order #%d placed", receipt.OrderID),
		Order:   receipt,
	}, nil
}

// TrackOrder reports the status of one of the user's orders
type TrackOrder struct {
	orders *services.OrderService
}

func (h *TrackOrder) Name() string { return nlp.IntentTrackOrder }

func (h *TrackOrder) CanHandle(c *conversation.Context) bool {
	return c.Intent == nlp.IntentTrackOrder && c.Entities.OrderID > 0
}

func (h *TrackOrder) Handle(ctx context.Context, c *conversation.Context) (*conversation.Result, error) {
	id := c.Entities.OrderID
	order, err := h.orders.GetUserOrder(c.UserID, id)
	if errors.Is(err, services.ErrOrderNotFound) {
		if c.Lang == nlp.LangArabic {
			return &conversation.Result{Error: fmt.Sprintf("مش لاقي طلب رقم #%d", id)}, nil
		}
		return &conversation.Result{Error: fmt.Sprintf("I couldn't find order #%d", id)}, nil
	}
	if err != nil {
		return nil, err
	}

	msg := fmt.Sprintf("📦 Order #%d is %s. Total: %s", order.ID, order.Status, services.FormatPrice(order.TotalPrice))
	if c.Lang == nlp.LangArabic {
		msg = fmt.Sprintf("📦 طلب رقم #%d حالته %s. الإجمالي: %s جنيه", order.ID, order.Status, services.FormatAmount(order.TotalPrice))
	}
	return &conversation.Result{
		Success: true,
		Message: msg,
		Data: map[string]interface{}{
			"order_id":    order.ID,
			"status":      order.Status,
			"total_price": order.TotalPrice,
			"item_count":  len(order.Items),
		},
	}, nil
}
