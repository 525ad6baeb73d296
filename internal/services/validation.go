package services

import (
	"errors"
	"fmt"
	"strings"

	"primos/internal/models"
)

// ValidatedItem is an item and size that passed validation and can go in a cart
type ValidatedItem struct {
	Item       *models.MenuItem
	MenuSize   *models.MenuSize
	ItemID     uint
	MenuSizeID uint
	ItemName   string
	Size       models.Size
	Price      float64
	Category   models.MenuCategory
}

// ItemValidationService checks existence, availability and size of
// requested items before they reach the cart
type ItemValidationService struct {
	menu *MenuService
}

// NewItemValidationService creates a validation service on top of the menu
func NewItemValidationService(menu *MenuService) *ItemValidationService {
	return &ItemValidationService{menu: menu}
}

// ValidateItem resolves a requested name to an orderable menu item
func (v *ItemValidationService) ValidateItem(name string) (*models.MenuItem, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, &ValidationError{Message: "Item name cannot be empty"}
	}

	item, err := v.menu.GetItemByName(name, false)
	if errors.Is(err, ErrItemNotFound) {
		similar, serr := v.menu.SearchItemsFuzzy(name, "")
		if serr != nil {
			return nil, serr
		}
		if len(similar) == 0 {
			return nil, &ValidationError{Message: fmt.Sprintf("'%s' not found in menu", name)}
		}

		suggestions := make([]string, 0, 3)
		for i := 0; i < len(similar) && i < 3; i++ {
			suggestions = append(suggestions, similar[i].Name)
		}
		return nil, &ValidationError{
			Message:     fmt.Sprintf("'%s' not found. Did you mean: %s?", name, strings.Join(suggestions, ", ")),
			Suggestions: suggestions,
		}
	}
	if err != nil {
		return nil, err
	}

	if !item.IsAvailable {
		return nil, &ValidationError{Message: fmt.Sprintf("%s is currently out of stock", item.Name)}
	}
	return item, nil
}

// ValidateSize resolves a size for item. An empty size picks the first
// available one.
func (v *ItemValidationService) ValidateSize(item *models.MenuItem, size string) (*models.MenuSize, error) {
	size = strings.TrimSpace(size)
	if size == "" {
		available := item.AvailableSizes()
		if len(available) == 0 {
			return nil, &ValidationError{Message: fmt.Sprintf("%s has no available sizes", item.Name)}
		}
		return &available[0], nil
	}

	ms, err := v.menu.GetItemSizePrice(item.ID, size, true)
	if err == nil {
		return ms, nil
	}
	if !errors.Is(err, ErrMenuSizeNotFound) {
		return nil, err
	}

	if _, err := v.menu.GetItemSizePrice(item.ID, size, false); err == nil {
		return nil, &ValidationError{Message: fmt.Sprintf("%s size for %s is currently unavailable", strings.ToUpper(size), item.Name)}
	}

	codes := make([]string, 0, len(item.Sizes))
	for _, s := range item.Sizes {
		codes = append(codes, string(s.Size))
	}
	return nil, &ValidationError{Message: fmt.Sprintf("Size %s not available. Try: %s", strings.ToUpper(size), strings.Join(codes, ", "))}
}

// ValidateFullItem validates both the item and the size
func (v *ItemValidationService) ValidateFullItem(name, size string) (*ValidatedItem, error) {
	item, err := v.ValidateItem(name)
	if err != nil {
		return nil, err
	}
	ms, err := v.ValidateSize(item, size)
	if err != nil {
		return nil, err
	}

	return &ValidatedItem{
		Item:       item,
		MenuSize:   ms,
		ItemID:     item.ID,
		MenuSizeID: ms.ID,
		ItemName:   item.Name,
		Size:       ms.Size,
		Price:      ms.Price,
		Category:   item.Category,
	}, nil
}

// AvailableSizesString renders "S (83 EGP), M (100 EGP)" for an item
func (v *ItemValidationService) AvailableSizesString(itemID uint) string {
	item, err := v.menu.GetItemByID(itemID)
	if err != nil {
		return "No sizes available"
	}
	sizes := item.AvailableSizes()
	if len(sizes) == 0 {
		return "No sizes available"
	}

	parts := make([]string, 0, len(sizes))
	for _, s := range sizes {
		parts = append(parts, fmt.Sprintf("%s (%s %s)", s.Size, FormatAmount(s.Price), models.Currency))
	}
	return strings.Join(parts, ", ")
}
