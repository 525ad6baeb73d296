package services

import (
	"fmt"

	"primos/internal/models"

	"github.com/jinzhu/gorm"
)

// Discount is the result of applying a percentage discount
type Discount struct {
	Original   float64 `json:"original"`
	Percent    float64 `json:"discount_percent"`
	Amount     float64 `json:"discount_amount"`
	FinalTotal float64 `json:"final_total"`
}

// PricingService calculates prices and totals
type PricingService struct {
	db *gorm.DB
}

// NewPricingService creates a pricing service
func NewPricingService(db *gorm.DB) *PricingService {
	return &PricingService{db: db}
}

// CartTotal sums quantity times price over a cart
func (s *PricingService) CartTotal(cartID uint) (float64, error) {
	var row struct{ Total float64 }
	err := s.db.Table("cart_items").
		Select("COALESCE(SUM(cart_items.quantity * menu_sizes.price), 0) AS total").
		Joins("JOIN menu_sizes ON menu_sizes.id = cart_items.menu_size_id").
		Where("cart_items.cart_id = ? AND cart_items.deleted_at IS NULL", cartID).
		Scan(&row).Error
	if err != nil {
		return 0, fmt.Errorf("failed to total cart %d: %w", cartID, err)
	}
	return row.Total, nil
}

// ItemPrice returns the price of a menu size, 0 if unknown
func (s *PricingService) ItemPrice(menuSizeID uint) float64 {
	var ms models.MenuSize
	if err := s.db.First(&ms, menuSizeID).Error; err != nil {
		return 0
	}
	return ms.Price
}

// Subtotal returns price times quantity for a menu size
func (s *PricingService) Subtotal(menuSizeID uint, quantity int) float64 {
	return s.ItemPrice(menuSizeID) * float64(quantity)
}

// ApplyDiscount applies a 0-100 percent discount
func (s *PricingService) ApplyDiscount(total, percent float64) Discount {
	amount := total * percent / 100
	return Discount{
		Original:   total,
		Percent:    percent,
		Amount:     amount,
		FinalTotal: total - amount,
	}
}

// FormatPrice renders "12.50 EGP"
func FormatPrice(price float64) string {
	return fmt.Sprintf("%.2f %s", price, models.Currency)
}
