package api

import (
	"errors"
	"net/http"
	"strconv"

	"primos/internal/conversation"
	"primos/internal/services"

	"github.com/gin-gonic/gin"
)

type quoteQuery struct {
	DiscountPercent float64 `form:"discount_percent" binding:"gte=0,lte=100"`
}

// GetUser returns the stored profile
func (a *API) GetUser(c *gin.Context) {
	userID, ok := paramID(c, "user_id")
	if !ok {
		return
	}
	user, err := a.State.UserState(userID)
	if err != nil {
		a.respondError(c, err)
		return
	}
	if user == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": conversation.ErrUserNotFound.Error()})
		return
	}
	c.JSON(http.StatusOK, user)
}

// UpdateUser changes the name, phone or address of a user
func (a *API) UpdateUser(c *gin.Context) {
	userID, ok := paramID(c, "user_id")
	if !ok {
		return
	}
	var req conversation.UserUpdate
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := a.State.UpdateUser(userID, req); err != nil {
		if errors.Is(err, conversation.ErrUserNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
			return
		}
		a.respondError(c, err)
		return
	}
	a.GetUser(c)
}

// QuoteCart prices the cart with an optional ?discount_percent=
func (a *API) QuoteCart(c *gin.Context) {
	userID, ok := paramID(c, "user_id")
	if !ok {
		return
	}
	var q quoteQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	cart, err := a.Cart.GetOrCreateCart(userID)
	if err != nil {
		a.respondError(c, err)
		return
	}
	total, err := a.Pricing.CartTotal(cart.ID)
	if err != nil {
		a.respondError(c, err)
		return
	}

	d := a.Pricing.ApplyDiscount(total, q.DiscountPercent)
	c.JSON(http.StatusOK, gin.H{"quote": d, "formatted": services.FormatPrice(d.FinalTotal)})
}

// GetSizePrice prices ?quantity= (default 1) of a menu size
func (a *API) GetSizePrice(c *gin.Context) {
	menuSizeID, ok := paramID(c, "id")
	if !ok {
		return
	}
	qty := 1
	if raw := c.Query("quantity"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 || n > services.MaxItemQuantity {
			c.JSON(http.StatusBadRequest, gin.H{"error": "quantity must be between 1 and 10"})
			return
		}
		qty = n
	}

	price := a.Pricing.ItemPrice(menuSizeID)
	if price == 0 {
		a.respondError(c, services.ErrMenuSizeNotFound)
		return
	}
	subtotal := a.Pricing.Subtotal(menuSizeID, qty)
	c.JSON(http.StatusOK, gin.H{
		"menu_size_id": menuSizeID,
		"price":        price,
		"quantity":     qty,
		"subtotal":     subtotal,
		"formatted":    services.FormatPrice(subtotal),
	})
}
