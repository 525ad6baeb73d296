package models

import (
	"github.com/jinzhu/gorm"
)

// Order represents a placed order
type Order struct {
	gorm.Model
	UserID     uint        `gorm:"index;not null" json:"user_id"`
	TotalPrice float64     `gorm:"not null" json:"total_price"`
	Status     OrderStatus `gorm:"type:varchar(50);default:'pending'" json:"status"`
	Items      []OrderItem `gorm:"foreignkey:OrderID" json:"items,omitempty"`
}

// OrderItem is a snapshot of a cart line at checkout time
type OrderItem struct {
	gorm.Model
	OrderID      uint    `gorm:"index;not null" json:"order_id"`
	MenuItemName string  `gorm:"type:varchar(255);not null" json:"menu_item_name"`
	Size         Size    `gorm:"type:varchar(5);not null" json:"size"`
	Quantity     int     `gorm:"not null" json:"quantity"`
	Price        float64 `gorm:"not null" json:"price"` // unit price at purchase time
}

// Subtotal returns price times quantity
func (oi OrderItem) Subtotal() float64 {
	return oi.Price * float64(oi.Quantity)
}

// OrderStatus represents the possible states of an order
type OrderStatus string

const (
	OrderStatusPending   OrderStatus = "pending"
	OrderStatusConfirmed OrderStatus = "confirmed"
	OrderStatusPreparing OrderStatus = "preparing"
	OrderStatusReady     OrderStatus = "ready"
	OrderStatusDelivered OrderStatus = "delivered"
	OrderStatusCancelled OrderStatus = "cancelled"
)

// ValidOrderStatus reports whether s is a known order status
func ValidOrderStatus(s OrderStatus) bool {
	switch s {
	case OrderStatusPending, OrderStatusConfirmed, OrderStatusPreparing,
		OrderStatusReady, OrderStatusDelivered, OrderStatusCancelled:
		return true
	}
	return false
}
