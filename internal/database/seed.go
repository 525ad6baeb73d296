package database

import (
	"fmt"

	"primos/internal/models"

	"github.com/jinzhu/gorm"
)

type seedItem struct {
	name        string
	description string
	prices      []seedPrice
}

type seedPrice struct {
	size  models.Size
	price float64
}

func sml(s, m, l float64) []seedPrice {
	return []seedPrice{
		{models.SizeSmall, s},
		{models.SizeMedium, m},
		{models.SizeLarge, l},
	}
}

func reg(p float64) []seedPrice {
	return []seedPrice{{models.SizeRegular, p}}
}

var defaultPizzas = []seedItem{
	{"Margherita Pizza", "Tomato sauce, mozzarella and basil", sml(83, 100, 140)},
	{"Vegetables Pizza", "Peppers, onions, olives and mushrooms", sml(85, 105, 145)},
	{"Mushroom Pizza", "Fresh mushrooms and mozzarella", sml(90, 120, 160)},
	{"Cheese Lovers Pizza", "Four cheese blend", sml(100, 125, 170)},
	{"Hot Dog Pizza", "Sliced hot dogs and cheddar", sml(100, 125, 170)},
	{"Salami Pizza", "Beef salami and mozzarella", sml(105, 135, 180)},
	{"Pastrami Pizza", "Pastrami, peppers and mozzarella", sml(105, 135, 180)},
	{"Double Pepperoni Pizza", "Double portion of pepperoni", sml(110, 145, 195)},
	{"Super Supreme Pizza", "Pepperoni, sausage, vegetables and olives", sml(125, 165, 215)},
}

var defaultAdditions = []seedItem{
	{"Fries", "Crispy french fries", reg(50)},
	{"Mango Juice", "Fresh mango juice", reg(40)},
	{"Cola", "Cold can of cola", reg(20)},
	{"Water", "Bottled water", reg(10)},
}

// Seed ensures the menu and the test user exist. It is safe to run repeatedly.
func Seed(db *gorm.DB) error {
	var menuCount int64
	if err := db.Model(&models.MenuItem{}).Count(&menuCount).Error; err != nil {
		return fmt.Errorf("failed to count menu items: %w", err)
	}
	if menuCount == 0 {
		if err := seedMenu(db); err != nil {
			return err
		}
	}

	var userCount int64
	if err := db.Model(&models.User{}).Count(&userCount).Error; err != nil {
		return fmt.Errorf("failed to count users: %w", err)
	}
	if userCount == 0 {
		user := models.User{Name: "Test User", Phone: "01000000000", Address: "Cairo"}
		if err := db.Create(&user).Error; err != nil {
			return fmt.Errorf("failed to create test user: %w", err)
		}
	}
	return nil
}

func seedMenu(db *gorm.DB) error {
	return db.Transaction(func(tx *gorm.DB) error {
		for _, group := range []struct {
			category models.MenuCategory
			items    []seedItem
		}{
			{models.MenuCategoryPizza, defaultPizzas},
			{models.MenuCategoryAddition, defaultAdditions},
		} {
			for _, si := range group.items {
				item := models.MenuItem{
					Name:        si.name,
					Category:    group.category,
					Description: si.description,
					IsAvailable: true,
				}
				for _, p := range si.prices {
					item.Sizes = append(item.Sizes, models.MenuSize{Size: p.size, Price: p.price, IsAvailable: true})
				}
				if err := models.ValidateMenuItem(&item); err != nil {
					return err
				}
				if err := tx.Create(&item).Error; err != nil {
					return fmt.Errorf("failed to seed %s: %w", si.name, err)
				}
			}
		}
		return nil
	})
}
