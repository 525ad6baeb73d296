package handlers

import (
	"context"
	"errors"
	"fmt"

	"primos/internal/conversation"
	"primos/internal/nlp"
	"primos/internal/services"
	"primos/internal/session"

	"go.uber.org/zap"
)

// Confirmation executes the user's pending suggestion
type Confirmation struct {
	validation *services.ItemValidationService
	cart       *services.CartService
	sessions   *session.Store
	logger     *zap.Logger
}

func (h *Confirmation) Name() string { return nlp.IntentConfirmation }

func (h *Confirmation) CanHandle(c *conversation.Context) bool {
	return c.Intent == nlp.IntentConfirmation
}

func (h *Confirmation) Handle(ctx context.Context, c *conversation.Context) (*conversation.Result, error) {
	if h.sessions == nil {
		return conversation.Failure("I'm not sure what you're confirming. Could you please be more specific?"), nil
	}

	pending, ok := h.sessions.Pending(c.UserID)
	if !ok {
		return conversation.Failure("I'm not sure what you're confirming. Could you please be more specific?"), nil
	}
	if h.sessions.Expired(pending) {
		h.sessions.ClearPending(c.UserID)
		return conversation.Failure("That suggestion has expired. What would you like to order?"), nil
	}

	if pending.Type != session.SuggestionAddItem {
		return conversation.Failure("I couldn't process that confirmation."), nil
	}
	return h.addItem(c, pending)
}

func (h *Confirmation) addItem(c *conversation.Context, s *session.Suggestion) (*conversation.Result, error) {
	v, err := h.validation.ValidateFullItem(s.Item, s.Size)
	if err != nil {
		var verr *services.ValidationError
		if !errors.As(err, &verr) {
			return nil, err
		}
		h.sessions.ClearPending(c.UserID)
		return &conversation.Result{
			Error:   verr.Message,
			Message: fmt.Sprintf("Sorry, I couldn't find '%s' in our menu anymore.", s.Item),
		}, nil
	}

	qty := s.Quantity
	if qty <= 0 {
		qty = 1
	}
	if _, _, err := h.cart.AddItem(c.UserID, v.MenuSizeID, qty); err != nil {
		var verr *services.ValidationError
		if errors.As(err, &verr) {
			h.sessions.ClearPending(c.UserID)
			return &conversation.Result{Error: verr.Message, Message: verr.Message}, nil
		}
		return nil, fmt.Errorf("failed to add confirmed item: %w", err)
	}
	h.sessions.ClearPending(c.UserID)

	h.logger.Debug("suggestion confirmed",
		zap.Uint("user_id", c.UserID),
		zap.String("item", v.ItemName),
		zap.String("size", string(v.Size)))

	if view, err := h.cart.ViewCart(c.UserID); err == nil {
		c.Cart = view
	}
	return &conversation.Result{
		Success: true,
		Message: fmt.Sprintf("✅ Added %dx %s %s to your cart!", qty, v.Size, v.ItemName),
		Data: map[string]interface{}{
			"item_added": map[string]interface{}{
				"name":     v.ItemName,
				"size":     v.Size,
				"quantity": qty,
			},
		},
	}, nil
}

// Rejection drops the pending suggestion
type Rejection struct {
	sessions *session.Store
}

func (h *Rejection) Name() string { return nlp.IntentRejection }

func (h *Rejection) CanHandle(c *conversation.Context) bool {
	return c.Intent == nlp.IntentRejection
}

func (h *Rejection) Handle(ctx context.Context, c *conversation.Context) (*conversation.Result, error) {
	if h.sessions != nil && h.sessions.ClearPending(c.UserID) {
		return &conversation.Result{Success: true, Message: "No problem! What would you like to order instead?"}, nil
	}
	return &conversation.Result{Success: true, Message: "Okay! How can I help you?"}, nil
}
