// Package handlers executes parsed intents against the cart, menu and
// order services.
package handlers

import (
	"context"

	"primos/internal/clarification"
	"primos/internal/conversation"
	"primos/internal/services"
	"primos/internal/session"

	"go.uber.org/zap"
)

// Handler executes one kind of intent
type Handler interface {
	// Name is the intent name reported as handler_name
	Name() string
	CanHandle(c *conversation.Context) bool
	Handle(ctx context.Context, c *conversation.Context) (*conversation.Result, error)
}

// Deps are the services shared by the default handlers
type Deps struct {
	Menu       *services.MenuService
	Cart       *services.CartService
	Orders     *services.OrderService
	Validation *services.ItemValidationService
	Sessions   *session.Store
	Logger     *zap.Logger
}

// Router picks the first handler that can handle a context
type Router struct {
	handlers []Handler
	logger   *zap.Logger
}

// NewRouter creates a router with the default handlers. BatchAdd is
// registered before Add so multi item messages never reach Add.
func NewRouter(d Deps) *Router {
	if d.Logger == nil {
		d.Logger = zap.NewNop()
	}
	r := &Router{logger: d.Logger}
	r.Register(
		&BatchAdd{validation: d.Validation, cart: d.Cart, logger: d.Logger},
		&Add{validation: d.Validation, cart: d.Cart, sessions: d.Sessions, logger: d.Logger},
		&Remove{cart: d.Cart, logger: d.Logger},
		&GetCart{cart: d.Cart},
		&Checkout{cart: d.Cart, orders: d.Orders, logger: d.Logger},
		&BrowseMenu{menu: d.Menu, alternatives: clarification.NewService(d.Menu)},
		&ClearCart{cart: d.Cart},
		&Confirmation{validation: d.Validation, cart: d.Cart, sessions: d.Sessions, logger: d.Logger},
		&Rejection{sessions: d.Sessions},
		&TrackOrder{orders: d.Orders},
	)
	return r
}

// Register appends handlers after the existing ones
func (r *Router) Register(hs ...Handler) {
	r.handlers = append(r.handlers, hs...)
}

// Handlers returns the registered handlers in routing order
func (r *Router) Handlers() []Handler {
	return r.handlers
}

// Route returns the first matching handler or nil
func (r *Router) Route(c *conversation.Context) Handler {
	if c.Intent == "" {
		return nil
	}
	for _, h := range r.handlers {
		if h.CanHandle(c) {
			return h
		}
	}
	return nil
}

// Execute runs the matching handler and records its result on c
func (r *Router) Execute(ctx context.Context, c *conversation.Context) {
	h := r.Route(c)
	if h == nil {
		c.HandlerResult = &conversation.Result{Error: "No handler found for intent: " + c.Intent}
		return
	}

	res, err := h.Handle(ctx, c)
	if err != nil {
		r.logger.Error("handler failed",
			zap.String("handler", h.Name()),
			zap.Uint("user_id", c.UserID),
			zap.Error(err))
		res = &conversation.Result{Success: false, Error: err.Error()}
	}
	if res == nil {
		res = &conversation.Result{}
	}

	c.HandlerResult = res
	c.HandlerName = h.Name()
	c.HandlerExecuted = true
}
