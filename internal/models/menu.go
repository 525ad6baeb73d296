package models

import (
	"fmt"
	"strings"

	"github.com/jinzhu/gorm"
)

// MenuItem represents a dish or addition on the menu
type MenuItem struct {
	gorm.Model
	Name        string       `gorm:"type:varchar(255);unique_index;not null" json:"name"`
	Category    MenuCategory `gorm:"type:varchar(50);not null" json:"category"`
	Description string       `gorm:"type:varchar(500)" json:"description,omitempty"`
	IsAvailable bool         `gorm:"not null" json:"is_available"`
	Sizes       []MenuSize   `gorm:"foreignkey:MenuItemID" json:"sizes,omitempty"`
}

// MenuSize is a priced size of a menu item. Cart lines reference it.
type MenuSize struct {
	gorm.Model
	MenuItemID  uint     `gorm:"index;not null" json:"menu_item_id"`
	MenuItem    MenuItem `gorm:"association_autoupdate:false;association_autocreate:false" json:"-"`
	Size        Size     `gorm:"type:varchar(5);not null" json:"size"`
	Price       float64  `gorm:"not null" json:"price"`
	IsAvailable bool     `gorm:"not null" json:"is_available"`
}

// MenuCategory represents the category of a menu item
type MenuCategory string

const (
	MenuCategoryPizza    MenuCategory = "pizza"
	MenuCategoryAddition MenuCategory = "addition"
)

// Size is a size code
type Size string

const (
	SizeSmall   Size = "S"
	SizeMedium  Size = "M"
	SizeLarge   Size = "L"
	SizeRegular Size = "REG"
)

// Currency used for every price on the menu
const Currency = "EGP"

// ParseSize normalizes a size code. ok is false for unknown codes.
func ParseSize(s string) (Size, bool) {
	switch Size(strings.ToUpper(strings.TrimSpace(s))) {
	case SizeSmall:
		return SizeSmall, true
	case SizeMedium:
		return SizeMedium, true
	case SizeLarge:
		return SizeLarge, true
	case SizeRegular:
		return SizeRegular, true
	}
	return "", false
}

// EnglishName returns the display name of a size code
func (s Size) EnglishName() string {
	switch s {
	case SizeSmall:
		return "Small"
	case SizeMedium:
		return "Medium"
	case SizeLarge:
		return "Large"
	case SizeRegular:
		return "Regular"
	}
	return string(s)
}

// ArabicName returns the Arabic display name of a size code
func (s Size) ArabicName() string {
	switch s {
	case SizeSmall:
		return "صغير"
	case SizeMedium:
		return "متوسط"
	case SizeLarge:
		return "كبير"
	case SizeRegular:
		return "عادي"
	}
	return string(s)
}

// AvailableSizes returns the sizes that can currently be ordered
func (mi *MenuItem) AvailableSizes() []MenuSize {
	var sizes []MenuSize
	for _, s := range mi.Sizes {
		if s.IsAvailable {
			sizes = append(sizes, s)
		}
	}
	return sizes
}

// ValidateMenuItem validates a menu item
func ValidateMenuItem(item *MenuItem) error {
	if item.Name == "" {
		return fmt.Errorf("menu item name is required")
	}
	if item.Category != MenuCategoryPizza && item.Category != MenuCategoryAddition {
		return fmt.Errorf("unknown menu category: %s", item.Category)
	}
	if len(item.Sizes) == 0 {
		return fmt.Errorf("menu item must have at least one size")
	}
	for _, s := range item.Sizes {
		if _, ok := ParseSize(string(s.Size)); !ok {
			return fmt.Errorf("menu item %s has unknown size %q", item.Name, s.Size)
		}
		if s.Price <= 0 {
			return fmt.Errorf("menu item %s size %s must have a price greater than 0", item.Name, s.Size)
		}
	}
	return nil
}

