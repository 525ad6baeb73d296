package services

import (
	"fmt"
	"strings"

	"primos/internal/models"

	"github.com/jinzhu/gorm"
)

// CartLine is a cart item joined with its menu data
type CartLine struct {
	MenuSizeID uint                `json:"menu_size_id"`
	ItemName   string              `json:"item_name"`
	Category   models.MenuCategory `json:"category"`
	Size       models.Size         `json:"size"`
	Price      float64             `json:"price"`
	Quantity   int                 `json:"quantity"`
	Subtotal   float64             `json:"subtotal"`
}

// CartView is the priced content of a cart
type CartView struct {
	Items      []CartLine `json:"items"`
	TotalPrice float64    `json:"total_price"`
	ItemCount  int        `json:"item_count"`
}

// HasCategory reports whether any line belongs to category
func (v *CartView) HasCategory(category models.MenuCategory) bool {
	for _, l := range v.Items {
		if l.Category == category {
			return true
		}
	}
	return false
}

// CartService manages one cart per user
type CartService struct {
	db *gorm.DB
}

// NewCartService creates a cart service
func NewCartService(db *gorm.DB) *CartService {
	return &CartService{db: db}
}

// GetOrCreateCart returns the user's cart, creating it on first use
func (s *CartService) GetOrCreateCart(userID uint) (*models.Cart, error) {
	return getOrCreateCart(s.db, userID)
}

func getOrCreateCart(db *gorm.DB, userID uint) (*models.Cart, error) {
	var cart models.Cart
	err := db.Where("user_id = ?", userID).First(&cart).Error
	if err == nil {
		return &cart, nil
	}
	if !gorm.IsRecordNotFoundError(err) {
		return nil, fmt.Errorf("failed to load cart for user %d: %w", userID, err)
	}

	cart = models.Cart{UserID: userID}
	if err := db.Create(&cart).Error; err != nil {
		// lost a race with a concurrent request for the same user
		var existing models.Cart
		if db.Where("user_id = ?", userID).First(&existing).Error == nil {
			return &existing, nil
		}
		return nil, fmt.Errorf("failed to create cart for user %d: %w", userID, err)
	}
	return &cart, nil
}

// AddItem adds quantity of a menu size, merging with an existing line.
// It returns the resulting line and a confirmation message. A line never
// holds more than MaxItemQuantity.
func (s *CartService) AddItem(userID, menuSizeID uint, quantity int) (*CartLine, string, error) {
	if quantity <= 0 {
		quantity = 1
	}
	if quantity > MaxItemQuantity {
		return nil, "", quantityLimitError(0)
	}

	var line CartLine
	err := s.db.Transaction(func(tx *gorm.DB) error {
		cart, err := getOrCreateCart(tx, userID)
		if err != nil {
			return err
		}

		var ms models.MenuSize
		if err := tx.Preload("MenuItem").First(&ms, menuSizeID).Error; err != nil {
			if gorm.IsRecordNotFoundError(err) {
				return ErrMenuSizeNotFound
			}
			return fmt.Errorf("failed to load menu size %d: %w", menuSizeID, err)
		}

		var item models.CartItem
		err = tx.Where("cart_id = ? AND menu_size_id = ?", cart.ID, menuSizeID).First(&item).Error
		switch {
		case err == nil:
			if item.Quantity+quantity > MaxItemQuantity {
				return quantityLimitError(item.Quantity)
			}
			item.Quantity += quantity
			if err := tx.Model(&item).Update("quantity", item.Quantity).Error; err != nil {
				return fmt.Errorf("failed to update cart line: %w", err)
			}
		case gorm.IsRecordNotFoundError(err):
			item = models.CartItem{CartID: cart.ID, MenuSizeID: menuSizeID, Quantity: quantity}
			if err := tx.Create(&item).Error; err != nil {
				return fmt.Errorf("failed to add cart line: %w", err)
			}
		default:
			return fmt.Errorf("failed to load cart line: %w", err)
		}

		line = CartLine{
			MenuSizeID: ms.ID,
			ItemName:   ms.MenuItem.Name,
			Category:   ms.MenuItem.Category,
			Size:       ms.Size,
			Price:      ms.Price,
			Quantity:   item.Quantity,
			Subtotal:   ms.Price * float64(item.Quantity),
		}
		return nil
	})
	if err != nil {
		return nil, "", err
	}

	return &line, fmt.Sprintf("Added %s (%s) x %d to cart", line.ItemName, line.Size, line.Quantity), nil
}

// RemoveItem deletes a line from the cart
func (s *CartService) RemoveItem(userID, menuSizeID uint) (string, error) {
	cart, err := s.GetOrCreateCart(userID)
	if err != nil {
		return "", err
	}

	var item models.CartItem
	err = s.db.Preload("MenuSize.MenuItem").
		Where("cart_id = ? AND menu_size_id = ?", cart.ID, menuSizeID).
		First(&item).Error
	if err != nil {
		if gorm.IsRecordNotFoundError(err) {
			return "", ErrNotInCart
		}
		return "", fmt.Errorf("failed to load cart line: %w", err)
	}

	if err := s.db.Unscoped().Delete(&item).Error; err != nil {
		return "", fmt.Errorf("failed to remove cart line: %w", err)
	}
	return fmt.Sprintf("Removed %s from cart", item.MenuSize.MenuItem.Name), nil
}

// UpdateItemQuantity sets the quantity of a line. Zero or less removes it.
func (s *CartService) UpdateItemQuantity(userID, menuSizeID uint, quantity int) (string, error) {
	if quantity <= 0 {
		return s.RemoveItem(userID, menuSizeID)
	}
	if quantity > MaxItemQuantity {
		return "", quantityLimitError(0)
	}

	cart, err := s.GetOrCreateCart(userID)
	if err != nil {
		return "", err
	}

	var item models.CartItem
	err = s.db.Where("cart_id = ? AND menu_size_id = ?", cart.ID, menuSizeID).First(&item).Error
	if err != nil {
		if gorm.IsRecordNotFoundError(err) {
			return "", ErrNotInCart
		}
		return "", fmt.Errorf("failed to load cart line: %w", err)
	}

	old := item.Quantity
	if err := s.db.Model(&item).Update("quantity", quantity).Error; err != nil {
		return "", fmt.Errorf("failed to update cart line: %w", err)
	}
	return fmt.Sprintf("Updated quantity from %d to %d", old, quantity), nil
}

// ClearCart removes every line
func (s *CartService) ClearCart(userID uint) (string, error) {
	cart, err := s.GetOrCreateCart(userID)
	if err != nil {
		return "", err
	}
	if err := s.db.Unscoped().Where("cart_id = ?", cart.ID).Delete(&models.CartItem{}).Error; err != nil {
		return "", fmt.Errorf("failed to clear cart: %w", err)
	}
	return "Cart cleared", nil
}

// ViewCart returns the priced cart content
func (s *CartService) ViewCart(userID uint) (*CartView, error) {
	cart, err := s.GetOrCreateCart(userID)
	if err != nil {
		return nil, err
	}
	return viewCart(s.db, cart.ID)
}

func viewCart(db *gorm.DB, cartID uint) (*CartView, error) {
	var items []models.CartItem
	err := db.Preload("MenuSize.MenuItem").
		Where("cart_id = ?", cartID).
		Order("id asc").
		Find(&items).Error
	if err != nil {
		return nil, fmt.Errorf("failed to load cart %d: %w", cartID, err)
	}

	view := &CartView{Items: make([]CartLine, 0, len(items))}
	for _, it := range items {
		subtotal := it.MenuSize.Price * float64(it.Quantity)
		view.TotalPrice += subtotal
		view.Items = append(view.Items, CartLine{
			MenuSizeID: it.MenuSizeID,
			ItemName:   it.MenuSize.MenuItem.Name,
			Category:   it.MenuSize.MenuItem.Category,
			Size:       it.MenuSize.Size,
			Price:      it.MenuSize.Price,
			Quantity:   it.Quantity,
			Subtotal:   subtotal,
		})
	}
	view.ItemCount = len(view.Items)
	return view, nil
}

// Summary renders the cart for chat display
func (s *CartService) Summary(userID uint) (string, error) {
	view, err := s.ViewCart(userID)
	if err != nil {
		return "", err
	}
	return FormatCartSummary(view), nil
}

// FormatCartSummary renders a cart view as text
func FormatCartSummary(view *CartView) string {
	if view == nil || len(view.Items) == 0 {
		return "Your cart is empty"
	}

	var b strings.Builder
	b.WriteString("Current Cart:\n")
	for _, l := range view.Items {
		fmt.Fprintf(&b, "  • %s (%s) x%d = %s %s\n", l.ItemName, l.Size, l.Quantity, FormatAmount(l.Subtotal), models.Currency)
	}
	fmt.Fprintf(&b, "\nTotal: %s %s", FormatAmount(view.TotalPrice), models.Currency)
	return b.String()
}
