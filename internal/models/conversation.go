package models

import (
	"database/sql/driver"
	"encoding/json"
	"errors"

	"github.com/jinzhu/gorm"
)

// Metadata is a JSON object stored in a text column
type Metadata map[string]interface{}

// Value converts the map to a JSON string for storage
func (m Metadata) Value() (driver.Value, error) {
	if len(m) == 0 {
		return "{}", nil
	}
	b, err := json.Marshal(m)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

// Scan converts the database value back to a map
func (m *Metadata) Scan(value interface{}) error {
	if value == nil {
		*m = Metadata{}
		return nil
	}

	switch v := value.(type) {
	case []byte:
		return json.Unmarshal(v, m)
	case string:
		return json.Unmarshal([]byte(v), m)
	default:
		return errors.New("unsupported type for Metadata")
	}
}

// ConversationRole identifies who wrote a history message
type ConversationRole string

const (
	RoleUser ConversationRole = "user"
	RoleBot  ConversationRole = "bot"
)

// ConversationHistory is one persisted chat message
type ConversationHistory struct {
	gorm.Model
	UserID   uint             `gorm:"index;not null" json:"user_id"`
	Role     ConversationRole `gorm:"type:varchar(10);not null" json:"role"`
	Content  string           `gorm:"type:text;not null" json:"content"`
	Metadata Metadata         `gorm:"type:text" json:"metadata,omitempty"`
}
