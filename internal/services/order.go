package services

import (
	"fmt"
	"time"

	"primos/internal/models"

	"github.com/jinzhu/gorm"
)

// Receipt is the result of a successful checkout
type Receipt struct {
	OrderID    uint               `json:"order_id"`
	TotalPrice float64            `json:"total_price"`
	Status     models.OrderStatus `json:"status"`
	Items      []ReceiptItem      `json:"items"`
	CreatedAt  time.Time          `json:"created_at"`
}

// ReceiptItem is one purchased line
type ReceiptItem struct {
	Name     string      `json:"name"`
	Size     models.Size `json:"size"`
	Quantity int         `json:"quantity"`
	Price    float64     `json:"price"`
	Subtotal float64     `json:"subtotal"`
}

// OrderService turns carts into orders and tracks them
type OrderService struct {
	db *gorm.DB
}

// NewOrderService creates an order service
func NewOrderService(db *gorm.DB) *OrderService {
	return &OrderService{db: db}
}

// Checkout creates an order from the user's cart and empties the cart in
// the same transaction
func (s *OrderService) Checkout(userID uint) (*Receipt, error) {
	var receipt Receipt
	err := s.db.Transaction(func(tx *gorm.DB) error {
		var cart models.Cart
		if err := tx.Where("user_id = ?", userID).First(&cart).Error; err != nil {
			if gorm.IsRecordNotFoundError(err) {
				return ErrEmptyCart
			}
			return fmt.Errorf("failed to load cart: %w", err)
		}

		view, err := viewCart(tx, cart.ID)
		if err != nil {
			return err
		}
		if len(view.Items) == 0 {
			return ErrEmptyCart
		}

		total, err := NewPricingService(tx).CartTotal(cart.ID)
		if err != nil {
			return err
		}

		order := models.Order{
			UserID:     userID,
			TotalPrice: total,
			Status:     models.OrderStatusPending,
		}
		for _, l := range view.Items {
			order.Items = append(order.Items, models.OrderItem{
				MenuItemName: l.ItemName,
				Size:         l.Size,
				Quantity:     l.Quantity,
				Price:        l.Price,
			})
			receipt.Items = append(receipt.Items, ReceiptItem{
				Name:     l.ItemName,
				Size:     l.Size,
				Quantity: l.Quantity,
				Price:    l.Price,
				Subtotal: l.Subtotal,
			})
		}

		if err := tx.Create(&order).Error; err != nil {
			return fmt.Errorf("failed to create order: %w", err)
		}
		if err := tx.Unscoped().Where("cart_id = ?", cart.ID).Delete(&models.CartItem{}).Error; err != nil {
			return fmt.Errorf("failed to clear cart after checkout: %w", err)
		}

		receipt.OrderID = order.ID
		receipt.TotalPrice = order.TotalPrice
		receipt.Status = order.Status
		receipt.CreatedAt = order.CreatedAt
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &receipt, nil
}

// GetOrder loads an order with its items
func (s *OrderService) GetOrder(orderID uint) (*models.Order, error) {
	var order models.Order
	if err := s.db.Preload("Items").First(&order, orderID).Error; err != nil {
		if gorm.IsRecordNotFoundError(err) {
			return nil, ErrOrderNotFound
		}
		return nil, fmt.Errorf("failed to load order %d: %w", orderID, err)
	}
	return &order, nil
}

// GetUserOrder loads an order only if it belongs to userID
func (s *OrderService) GetUserOrder(userID, orderID uint) (*models.Order, error) {
	order, err := s.GetOrder(orderID)
	if err != nil {
		return nil, err
	}
	if order.UserID != userID {
		return nil, ErrOrderNotFound
	}
	return order, nil
}

// UpdateStatus moves an order to a new status
func (s *OrderService) UpdateStatus(orderID uint, status models.OrderStatus) error {
	if !models.ValidOrderStatus(status) {
		return fmt.Errorf("%w: %s", ErrInvalidStatus, status)
	}

	res := s.db.Model(&models.Order{}).Where("id = ?", orderID).Update("status", status)
	if res.Error != nil {
		return fmt.Errorf("failed to update order %d: %w", orderID, res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrOrderNotFound
	}
	return nil
}

// GetUserOrders lists a user's orders, newest first
func (s *OrderService) GetUserOrders(userID uint) ([]models.Order, error) {
	var orders []models.Order
	if err := s.db.Preload("Items").Where("user_id = ?", userID).Order("id desc").Find(&orders).Error; err != nil {
		return nil, fmt.Errorf("failed to list orders for user %d: %w", userID, err)
	}
	return orders, nil
}

// GetAllOrders lists every order, newest first
func (s *OrderService) GetAllOrders() ([]models.Order, error) {
	var orders []models.Order
	if err := s.db.Preload("Items").Order("id desc").Find(&orders).Error; err != nil {
		return nil, fmt.Errorf("failed to list orders: %w", err)
	}
	return orders, nil
}
