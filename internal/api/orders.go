package api

import (
	"net/http"
	"strconv"

	"primos/internal/conversation"
	"primos/internal/models"
	"primos/internal/nlp"
	"primos/internal/recommendation"
	"primos/internal/services"

	"github.com/gin-gonic/gin"
)

type cartItemRequest struct {
	MenuSizeID uint `json:"menu_size_id" binding:"required,gt=0"`
	Quantity   int  `json:"quantity" binding:"omitempty,gt=0,lte=10"`
}

type quantityRequest struct {
	Quantity *int `json:"quantity" binding:"required,lte=10"`
}

type statusRequest struct {
	Status models.OrderStatus `json:"status" binding:"required"`
}

// GetCart returns the user's cart
func (a *API) GetCart(c *gin.Context) {
	userID, ok := paramID(c, "user_id")
	if !ok {
		return
	}
	view, err := a.Cart.ViewCart(userID)
	if err != nil {
		a.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"cart": view, "summary": services.FormatCartSummary(view)})
}

// AddCartItem adds a menu size to the cart
func (a *API) AddCartItem(c *gin.Context) {
	userID, ok := paramID(c, "user_id")
	if !ok {
		return
	}
	var req cartItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if !a.Menu.IsSizeAvailable(req.MenuSizeID) {
		c.JSON(http.StatusConflict, gin.H{"error": "This size is currently unavailable"})
		return
	}

	line, msg, err := a.Cart.AddItem(userID, req.MenuSizeID, req.Quantity)
	if err != nil {
		a.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"line": line, "message": msg})
}

// UpdateCartItem sets the quantity of a cart line
func (a *API) UpdateCartItem(c *gin.Context) {
	userID, ok := paramID(c, "user_id")
	if !ok {
		return
	}
	menuSizeID, ok := paramID(c, "menu_size_id")
	if !ok {
		return
	}
	var req quantityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	msg, err := a.Cart.UpdateItemQuantity(userID, menuSizeID, *req.Quantity)
	if err != nil {
		a.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": msg})
}

// RemoveCartItem deletes a cart line
func (a *API) RemoveCartItem(c *gin.Context) {
	userID, ok := paramID(c, "user_id")
	if !ok {
		return
	}
	menuSizeID, ok := paramID(c, "menu_size_id")
	if !ok {
		return
	}

	msg, err := a.Cart.RemoveItem(userID, menuSizeID)
	if err != nil {
		a.respondError(c, err)
		return
	}
	summary, err := a.Cart.Summary(userID)
	if err != nil {
		a.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": msg, "summary": summary})
}

// ClearCart empties the cart
func (a *API) ClearCart(c *gin.Context) {
	userID, ok := paramID(c, "user_id")
	if !ok {
		return
	}
	msg, err := a.Cart.ClearCart(userID)
	if err != nil {
		a.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": msg})
}

// Checkout turns the cart into an order
func (a *API) Checkout(c *gin.Context) {
	userID, ok := paramID(c, "user_id")
	if !ok {
		return
	}
	receipt, err := a.Orders.Checkout(userID)
	if err != nil {
		a.respondError(c, err)
		return
	}
	if a.Metrics != nil {
		a.Metrics.RecordOrder(receipt.TotalPrice)
	}
	c.JSON(http.StatusCreated, receipt)
}

// ListUserOrders lists the user's orders
func (a *API) ListUserOrders(c *gin.Context) {
	userID, ok := paramID(c, "user_id")
	if !ok {
		return
	}
	orders, err := a.Orders.GetUserOrders(userID)
	if err != nil {
		a.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"orders": orders, "count": len(orders)})
}

// GetHistory returns recent conversation messages, ?limit= defaults to 20
func (a *API) GetHistory(c *gin.Context) {
	userID, ok := paramID(c, "user_id")
	if !ok {
		return
	}
	limit := conversation.DefaultHistoryLimit
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 || n > 200 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "limit must be between 1 and 200"})
			return
		}
		limit = n
	}

	history, err := a.State.History(userID, limit)
	if err != nil {
		a.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"messages": history, "count": len(history)})
}

// ClearHistory deletes the user's conversation
func (a *API) ClearHistory(c *gin.Context) {
	userID, ok := paramID(c, "user_id")
	if !ok {
		return
	}
	if err := a.State.ClearHistory(userID); err != nil {
		a.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "History cleared"})
}

// GetRecommendations suggests items for the user's current cart
func (a *API) GetRecommendations(c *gin.Context) {
	userID, ok := paramID(c, "user_id")
	if !ok {
		return
	}
	view, err := a.Cart.ViewCart(userID)
	if err != nil {
		a.respondError(c, err)
		return
	}

	lang := c.DefaultQuery("lang", nlp.LangEnglish)
	recs, err := a.Recommender.GetRecommendations(userID, view, 3)
	if err != nil {
		a.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"recommendations": recs,
		"text":            recommendation.FormatText(recs, lang),
	})
}

// ListOrders lists every order for staff
func (a *API) ListOrders(c *gin.Context) {
	orders, err := a.Orders.GetAllOrders()
	if err != nil {
		a.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"orders": orders, "count": len(orders)})
}

// GetOrder returns one order
func (a *API) GetOrder(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	order, err := a.Orders.GetOrder(id)
	if err != nil {
		a.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, order)
}

// UpdateOrderStatus moves an order along its lifecycle
func (a *API) UpdateOrderStatus(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	var req statusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := a.Orders.UpdateStatus(id, req.Status); err != nil {
		a.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"id": id, "status": req.Status})
}
