package models

import "github.com/jinzhu/gorm"

// User is a customer talking to the assistant
type User struct {
	gorm.Model
	Name    string `gorm:"type:varchar(100)" json:"name"`
	Phone   string `gorm:"type:varchar(20)" json:"phone"`
	Address string `gorm:"type:varchar(255)" json:"address"`
}
