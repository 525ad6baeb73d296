package handlers

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"primos/internal/conversation"
	"primos/internal/nlp"
	"primos/internal/services"
	"primos/internal/session"

	"go.uber.org/zap"
)

// Add puts a single validated item in the cart
type Add struct {
	validation *services.ItemValidationService
	cart       *services.CartService
	sessions   *session.Store
	logger     *zap.Logger
}

func (h *Add) Name() string { return nlp.IntentAddItem }

func (h *Add) CanHandle(c *conversation.Context) bool {
	return c.Intent == nlp.IntentAddItem && c.Entities.Item != ""
}

func (h *Add) Handle(ctx context.Context, c *conversation.Context) (*conversation.Result, error) {
	name := c.Entities.Item
	size := c.Entities.Size
	qty := c.Entities.Quantity
	if qty <= 0 {
		qty = 1
	}

	h.logger.Debug("adding item",
		zap.Uint("user_id", c.UserID),
		zap.String("item", name),
		zap.String("size", size),
		zap.Int("quantity", qty))

	item, err := h.validation.ValidateItem(name)
	if err != nil {
		var verr *services.ValidationError
		if !errors.As(err, &verr) {
			return nil, err
		}
		if len(verr.Suggestions) > 0 && h.sessions != nil {
			return h.suggest(c, name, size, qty, verr), nil
		}
		return &conversation.Result{Error: verr.Message}, nil
	}

	ms, err := h.validation.ValidateSize(item, size)
	if err != nil {
		var verr *services.ValidationError
		if !errors.As(err, &verr) {
			return nil, err
		}
		return &conversation.Result{
			Error: verr.Message,
			Data:  map[string]interface{}{"suggestion": h.validation.AvailableSizesString(item.ID)},
		}, nil
	}

	line, msg, err := h.cart.AddItem(c.UserID, ms.ID, qty)
	if err != nil {
		var verr *services.ValidationError
		if errors.As(err, &verr) {
			return &conversation.Result{Error: verr.Message}, nil
		}
		return nil, fmt.Errorf("failed to add item: %w", err)
	}

	if view, err := h.cart.ViewCart(c.UserID); err == nil {
		c.Cart = view
	}
	return &conversation.Result{
		Success: true,
		Message: msg,
		Data:    map[string]interface{}{"item": line},
	}, nil
}

// suggest stores the closest match as a pending suggestion the user can
// accept with "yes"
func (h *Add) suggest(c *conversation.Context, name, size string, qty int, verr *services.ValidationError) *conversation.Result {
	sg := session.NewAddItemSuggestion(verr.Suggestions[0], size, qty)
	h.sessions.SetPending(c.UserID, sg)

	question := fmt.Sprintf("I couldn't find '%s'. %s (Say 'yes' to add it)", name, sg.Format(c.Lang))
	if c.Lang == nlp.LangArabic {
		question = fmt.Sprintf("لم أجد '%s'. %s", name, sg.Format(c.Lang))
	}

	return &conversation.Result{
		Error:             verr.Message,
		Message:           question,
		SuggestionCreated: true,
	}
}

// BatchAdd adds every item of a multi item message
type BatchAdd struct {
	validation *services.ItemValidationService
	cart       *services.CartService
	logger     *zap.Logger
}

func (h *BatchAdd) Name() string { return "batch_add_item" }

func (h *BatchAdd) CanHandle(c *conversation.Context) bool {
	return c.IsBatch()
}

type batchFailure struct {
	Item  string `json:"item"`
	Error string `json:"error"`
}

func (h *BatchAdd) Handle(ctx context.Context, c *conversation.Context) (*conversation.Result, error) {
	var added []*services.CartLine
	var addedText []string
	var failed []batchFailure

	for _, bi := range c.BatchItems {
		name := strings.TrimSpace(bi.Item)
		qty := bi.Quantity
		if qty <= 0 {
			qty = 1
		}

		v, err := h.validation.ValidateFullItem(name, bi.Size)
		if err != nil {
			var verr *services.ValidationError
			if !errors.As(err, &verr) {
				return nil, err
			}
			failed = append(failed, batchFailure{Item: name, Error: verr.Message})
			continue
		}

		line, _, err := h.cart.AddItem(c.UserID, v.MenuSizeID, qty)
		if err != nil {
			h.logger.Warn("batch item not added", zap.String("item", name), zap.Error(err))
			failed = append(failed, batchFailure{Item: name, Error: err.Error()})
			continue
		}
		added = append(added, line)

		text := fmt.Sprintf("%s (%s)", v.ItemName, v.Size)
		if qty > 1 {
			text += fmt.Sprintf(" x%d", qty)
		}
		addedText = append(addedText, text)
	}

	if view, err := h.cart.ViewCart(c.UserID); err == nil {
		c.Cart = view
	}

	if len(added) == 0 {
		lines := make([]string, len(failed))
		for i, f := range failed {
			lines[i] = fmt.Sprintf("  • %s: %s", f.Item, f.Error)
		}
		return &conversation.Result{Error: "Couldn't add any items:\n" + strings.Join(lines, "\n")}, nil
	}

	msg := fmt.Sprintf("Added %d items to cart: %s", len(added), strings.Join(addedText, ", "))
	if len(failed) > 0 {
		names := make([]string, len(failed))
		for i, f := range failed {
			names[i] = fmt.Sprintf("%s (%s)", f.Item, f.Error)
		}
		msg += "\n\nCouldn't add: " + strings.Join(names, ", ")
	}

	return &conversation.Result{
		Success: true,
		Message: msg,
		Data: map[string]interface{}{
			"added_count":  len(added),
			"failed_count": len(failed),
			"added":        added,
			"failed":       failed,
		},
	}, nil
}
