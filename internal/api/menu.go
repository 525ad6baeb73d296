package api

import (
	"errors"
	"net/http"
	"strings"

	"primos/internal/models"
	"primos/internal/services"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// respondError maps service errors to HTTP statuses
func (a *API) respondError(c *gin.Context, err error) {
	var verr *services.ValidationError
	switch {
	case errors.Is(err, services.ErrItemNotFound),
		errors.Is(err, services.ErrMenuSizeNotFound),
		errors.Is(err, services.ErrNotInCart),
		errors.Is(err, services.ErrOrderNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, services.ErrEmptyCart), errors.Is(err, services.ErrInvalidStatus):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.As(err, &verr):
		c.JSON(http.StatusBadRequest, gin.H{"error": verr.Message, "suggestions": verr.Suggestions})
	default:
		a.Logger.Error("request failed", zap.String("path", c.FullPath()), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}

// ListMenu returns the menu, optionally filtered by ?category=
func (a *API) ListMenu(c *gin.Context) {
	var (
		items []models.MenuItem
		err   error
	)
	availableOnly := c.Query("available") == "true"
	switch category := models.MenuCategory(strings.ToLower(c.Query("category"))); category {
	case "":
		items, err = a.Menu.GetAllItems()
	case models.MenuCategoryPizza, models.MenuCategoryAddition:
		items, err = a.Menu.GetItemsByCategory(category, availableOnly)
	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": "unknown category: " + string(category)})
		return
	}
	if err != nil {
		a.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"items": items, "count": len(items), "currency": models.Currency})
}

// SearchMenu fuzzy matches ?q= against item names
func (a *API) SearchMenu(c *gin.Context) {
	query := strings.TrimSpace(c.Query("q"))
	if query == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "query parameter q is required"})
		return
	}

	items, err := a.Menu.SearchItemsFuzzy(query, models.MenuCategory(strings.ToLower(c.Query("category"))))
	if err != nil {
		a.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"query": query, "items": items, "count": len(items)})
}

// GetMenuItem returns one item with every size price
func (a *API) GetMenuItem(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	item, err := a.Menu.GetItemWithAllPrices(id)
	if err != nil {
		a.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, item)
}

type availabilityRequest struct {
	Available *bool `json:"available" binding:"required"`
}

// SetItemAvailability marks an item in or out of stock
func (a *API) SetItemAvailability(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	var req availabilityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := a.Menu.SetItemAvailability(id, *req.Available); err != nil {
		a.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"id": id, "available": *req.Available})
}

// SetSizeAvailability marks one size in or out of stock
func (a *API) SetSizeAvailability(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	var req availabilityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := a.Menu.SetSizeAvailability(id, *req.Available); err != nil {
		a.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"menu_size_id": id, "available": *req.Available})
}

// ListCombos returns the combo deals
func (a *API) ListCombos(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"combos": a.Recommender.ComboDeals()})
}
