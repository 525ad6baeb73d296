package handlers

import (
	"context"
	"testing"
	"time"

	"primos/internal/conversation"
	"primos/internal/database"
	"primos/internal/models"
	"primos/internal/nlp"
	"primos/internal/services"
	"primos/internal/session"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fixture struct {
	router   *Router
	cart     *services.CartService
	orders   *services.OrderService
	menu     *services.MenuService
	sessions *session.Store
}

func setup(t *testing.T) *fixture {
	t.Helper()
	db, err := database.OpenInMemory()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	menu := services.NewMenuService(db)
	f := &fixture{
		cart:     services.NewCartService(db),
		orders:   services.NewOrderService(db),
		menu:     menu,
		sessions: session.NewStore(5 * time.Minute),
	}
	f.router = NewRouter(Deps{
		Menu:       menu,
		Cart:       f.cart,
		Orders:     f.orders,
		Validation: services.NewItemValidationService(menu),
		Sessions:   f.sessions,
	})
	return f
}

func (f *fixture) run(t *testing.T, intent string, e nlp.Entities) *conversation.Context {
	t.Helper()
	c := conversation.NewContext(1, "")
	c.Intent = intent
	c.Entities = e
	if view, err := f.cart.ViewCart(1); err == nil {
		c.Cart = view
	}
	f.router.Execute(context.Background(), c)
	return c
}

func TestRouterOrder(t *testing.T) {
	f := setup(t)

	names := make([]string, 0, len(f.router.Handlers()))
	for _, h := range f.router.Handlers() {
		names = append(names, h.Name())
	}
	assert.Equal(t, []string{
		"batch_add_item", "add_item", "remove_item", "view_cart", "checkout",
		"browse_menu", "clear_cart", "confirmation", "rejection", "track_order",
	}, names)

	c := conversation.NewContext(1, "")
	c.Intent = nlp.IntentAddItem
	c.BatchItems = []nlp.BatchItem{{Item: "cola", Quantity: 1}, {Item: "fries", Quantity: 1}}
	c.Entities = nlp.Entities{Item: "cola"}
	assert.Equal(t, "batch_add_item", f.router.Route(c).Name())
}

func TestRouterNoHandler(t *testing.T) {
	f := setup(t)

	c := f.run(t, nlp.IntentWelcome, nlp.Entities{})
	assert.False(t, c.HandlerExecuted)
	assert.Empty(t, c.HandlerName)
	assert.Equal(t, "No handler found for intent: welcome", c.HandlerResult.Error)

	// checkout with an empty cart has no handler
	c = f.run(t, nlp.IntentCheckout, nlp.Entities{})
	assert.False(t, c.HandlerExecuted)
}

func TestAdd(t *testing.T) {
	f := setup(t)

	c := f.run(t, nlp.IntentAddItem, nlp.Entities{Item: "salami", Size: "M", Quantity: 2})
	require.True(t, c.HandlerExecuted)
	assert.Equal(t, "add_item", c.HandlerName)
	assert.True(t, c.HandlerResult.Success)
	assert.Equal(t, "Added Salami Pizza (M) x 2 to cart", c.HandlerResult.Message)
	require.Len(t, c.Cart.Items, 1)
	assert.Equal(t, 270.0, c.Cart.TotalPrice)

	c = f.run(t, nlp.IntentAddItem, nlp.Entities{Item: "margherita", Size: "REG"})
	assert.False(t, c.HandlerResult.Success)
	assert.Equal(t, "Size REG not available. Try: S, M, L", c.HandlerResult.Error)
	assert.Equal(t, "S (83 EGP), M (100 EGP), L (140 EGP)", c.HandlerResult.Data["suggestion"])

	c = f.run(t, nlp.IntentAddItem, nlp.Entities{Item: "sushi"})
	assert.False(t, c.HandlerResult.Success)
	assert.Equal(t, "'sushi' not found in menu", c.HandlerResult.Error)
	assert.False(t, c.HandlerResult.SuggestionCreated)
}

func TestAddCreatesSuggestionAndConfirm(t *testing.T) {
	f := setup(t)

	c := f.run(t, nlp.IntentAddItem, nlp.Entities{Item: "pepperoni special", Size: "L", Quantity: 2})
	assert.False(t, c.HandlerResult.Success)
	assert.True(t, c.HandlerResult.SuggestionCreated)
	assert.Equal(t, "I couldn't find 'pepperoni special'. Would you like to add 2 L Double Pepperoni Pizza to your cart? (Say 'yes' to add it)", c.HandlerResult.Message)

	pending, ok := f.sessions.Active(1)
	require.True(t, ok)
	assert.Equal(t, "Double Pepperoni Pizza", pending.Item)

	c = f.run(t, nlp.IntentConfirmation, nlp.Entities{})
	assert.True(t, c.HandlerResult.Success)
	assert.Equal(t, "✅ Added 2x L Double Pepperoni Pizza to your cart!", c.HandlerResult.Message)
	require.Len(t, c.Cart.Items, 1)
	assert.Equal(t, 390.0, c.Cart.TotalPrice)

	_, ok = f.sessions.Pending(1)
	assert.False(t, ok)
}

func TestConfirmationWithoutPending(t *testing.T) {
	f := setup(t)

	c := f.run(t, nlp.IntentConfirmation, nlp.Entities{})
	assert.False(t, c.HandlerResult.Success)
	assert.Equal(t, "I'm not sure what you're confirming. Could you please be more specific?", c.HandlerResult.Message)

	old := session.NewAddItemSuggestion("Cola", "", 1)
	old.CreatedAt = time.Now().Add(-10 * time.Minute)
	f.sessions.SetPending(1, old)

	c = f.run(t, nlp.IntentConfirmation, nlp.Entities{})
	assert.False(t, c.HandlerResult.Success)
	assert.Equal(t, "That suggestion has expired. What would you like to order?", c.HandlerResult.Message)
	_, ok := f.sessions.Pending(1)
	assert.False(t, ok)
}

func TestRejection(t *testing.T) {
	f := setup(t)

	c := f.run(t, nlp.IntentRejection, nlp.Entities{})
	assert.Equal(t, "Okay! How can I help you?", c.HandlerResult.Message)

	f.sessions.SetPending(1, session.NewAddItemSuggestion("Cola", "", 1))
	c = f.run(t, nlp.IntentRejection, nlp.Entities{})
	assert.True(t, c.HandlerResult.Success)
	assert.Equal(t, "No problem! What would you like to order instead?", c.HandlerResult.Message)
}

func TestBatchAdd(t *testing.T) {
	f := setup(t)

	c := conversation.NewContext(1, "")
	c.Intent = nlp.IntentAddItem
	c.BatchItems = []nlp.BatchItem{
		{Item: "margherita", Quantity: 2, Size: "L"},
		{Item: "cola", Quantity: 1},
		{Item: "sushi", Quantity: 1},
	}
	f.router.Execute(context.Background(), c)

	require.True(t, c.HandlerExecuted)
	assert.True(t, c.HandlerResult.Success)
	assert.Equal(t, "Added 2 items to cart: Margherita Pizza (L) x2, Cola (REG)\n\nCouldn't add: sushi ('sushi' not found in menu)", c.HandlerResult.Message)
	assert.Equal(t, 2, c.HandlerResult.Data["added_count"])
	require.Len(t, c.Cart.Items, 2)
	assert.Equal(t, 300.0, c.Cart.TotalPrice)

	c = conversation.NewContext(1, "")
	c.Intent = nlp.IntentAddItem
	c.BatchItems = []nlp.BatchItem{{Item: "sushi", Quantity: 1}, {Item: "tacos", Quantity: 1}}
	f.router.Execute(context.Background(), c)
	assert.False(t, c.HandlerResult.Success)
	assert.Equal(t, "Couldn't add any items:\n  • sushi: 'sushi' not found in menu\n  • tacos: 'tacos' not found in menu", c.HandlerResult.Error)
}

func TestRemove(t *testing.T) {
	f := setup(t)

	c := f.run(t, nlp.IntentRemoveItem, nlp.Entities{Item: "cola"})
	assert.Equal(t, "Your cart is empty", c.HandlerResult.Error)

	f.run(t, nlp.IntentAddItem, nlp.Entities{Item: "salami", Size: "M", Quantity: 3})
	f.run(t, nlp.IntentAddItem, nlp.Entities{Item: "cola", Quantity: 1})

	c = f.run(t, nlp.IntentRemoveItem, nlp.Entities{Item: "water"})
	assert.Equal(t, "'water' not found in cart. You have: Salami Pizza, Cola", c.HandlerResult.Error)

	c = f.run(t, nlp.IntentRemoveItem, nlp.Entities{Item: "1 salami"})
	assert.True(t, c.HandlerResult.Success)
	assert.Equal(t, "Removed 1 Salami Pizza, 2 remaining", c.HandlerResult.Message)
	assert.Equal(t, 2, c.Cart.Items[0].Quantity)

	c = f.run(t, nlp.IntentRemoveItem, nlp.Entities{Item: "5 salami pizza"})
	assert.Equal(t, "Removed all Salami Pizza from cart", c.HandlerResult.Message)

	// the cart name may be contained in the request
	c = f.run(t, nlp.IntentRemoveItem, nlp.Entities{Item: "the cola"})
	assert.Equal(t, "Removed Cola from cart", c.HandlerResult.Message)
	assert.Empty(t, c.Cart.Items)
}

func TestGetCartAndClear(t *testing.T) {
	f := setup(t)

	c := f.run(t, nlp.IntentViewCart, nlp.Entities{})
	assert.True(t, c.HandlerResult.Success)
	assert.Equal(t, "Your cart is empty", c.HandlerResult.Message)

	f.run(t, nlp.IntentAddItem, nlp.Entities{Item: "fries", Quantity: 2})
	c = f.run(t, nlp.IntentViewCart, nlp.Entities{})
	assert.Equal(t, "Current Cart:\n  • Fries (REG) x2 = 100 EGP\n\nTotal: 100 EGP", c.HandlerResult.Message)

	c = f.run(t, nlp.IntentClearCart, nlp.Entities{})
	assert.Equal(t, "Cart cleared! Ready for a new order 🛒", c.HandlerResult.Message)
	assert.True(t, c.CartIsEmpty())

	view, err := f.cart.ViewCart(1)
	require.NoError(t, err)
	assert.Empty(t, view.Items)
}

func TestCheckoutAndTrack(t *testing.T) {
	f := setup(t)

	f.run(t, nlp.IntentAddItem, nlp.Entities{Item: "salami", Size: "M", Quantity: 2})
	f.run(t, nlp.IntentAddItem, nlp.Entities{Item: "fries"})

	c := f.run(t, nlp.IntentCheckout, nlp.Entities{})
	require.True(t, c.HandlerExecuted)
	require.True(t, c.HandlerResult.Success)
	require.NotNil(t, c.HandlerResult.Order)
	assert.Equal(t, 320.0, c.HandlerResult.Order.TotalPrice)
	assert.Len(t, c.HandlerResult.Order.Items, 2)
	assert.True(t, c.CartIsEmpty())

	id := c.HandlerResult.Order.OrderID
	c = f.run(t, nlp.IntentTrackOrder, nlp.Entities{OrderID: id})
	assert.True(t, c.HandlerResult.Success)
	assert.Contains(t, c.HandlerResult.Message, "is pending")
	assert.Contains(t, c.HandlerResult.Message, "320.00 EGP")

	require.NoError(t, f.orders.UpdateStatus(id, models.OrderStatusReady))
	c = f.run(t, nlp.IntentTrackOrder, nlp.Entities{OrderID: id})
	assert.Contains(t, c.HandlerResult.Message, "is ready")

	c = f.run(t, nlp.IntentTrackOrder, nlp.Entities{OrderID: 999})
	assert.False(t, c.HandlerResult.Success)
	assert.Equal(t, "I couldn't find order #999", c.HandlerResult.Error)
}

func TestBrowseMenu(t *testing.T) {
	f := setup(t)

	c := f.run(t, nlp.IntentBrowseMenu, nlp.Entities{})
	assert.True(t, c.HandlerResult.Success)
	assert.Contains(t, c.HandlerResult.Message, "🍕 Pizzas:\n  • Margherita Pizza (S: 83 EGP, M: 100 EGP, L: 140 EGP)")
	assert.Contains(t, c.HandlerResult.Message, "🥤 Additions:\n  • Fries (REG: 50 EGP)")
	assert.Equal(t, 9, c.HandlerResult.Data["pizza_count"])
	assert.Equal(t, 4, c.HandlerResult.Data["addition_count"])

	c = f.run(t, nlp.IntentGetPrice, nlp.Entities{Item: "cola"})
	assert.Equal(t, "browse_menu", c.HandlerName)
	assert.Equal(t, "Cola (REG: 20 EGP)", c.HandlerResult.Message)

	c = f.run(t, nlp.IntentItemInfo, nlp.Entities{Item: "sushi"})
	assert.False(t, c.HandlerResult.Success)
	assert.Equal(t, "Item 'sushi' not found in menu", c.HandlerResult.Error)
	assert.Empty(t, c.HandlerResult.Message)

	c = f.run(t, nlp.IntentItemInfo, nlp.Entities{Item: "pepperoni special"})
	assert.False(t, c.HandlerResult.Success)
	assert.Equal(t, "Couldn't find 'pepperoni special' exactly. Did you mean: Double Pepperoni Pizza?", c.HandlerResult.Message)

	c = f.run(t, nlp.IntentBrowseMenu, nlp.Entities{Category: "addition"})
	assert.Equal(t, 4, c.HandlerResult.Data["count"])
	assert.Contains(t, c.HandlerResult.Message, "  • Water (REG: 10 EGP)")
}
