package models

import "github.com/jinzhu/gorm"

// Cart holds the items a user is about to order. One cart per user.
type Cart struct {
	gorm.Model
	UserID uint       `gorm:"not null" json:"user_id"`
	Items  []CartItem `gorm:"foreignkey:CartID" json:"items,omitempty"`
}

// CartItem is one line of a cart; unique per (cart, menu size)
type CartItem struct {
	gorm.Model
	CartID     uint     `gorm:"index;not null" json:"cart_id"`
	MenuSizeID uint     `gorm:"index;not null" json:"menu_size_id"`
	MenuSize   MenuSize `gorm:"association_autoupdate:false;association_autocreate:false" json:"-"`
	Quantity   int      `gorm:"not null;default:1" json:"quantity"`
}
