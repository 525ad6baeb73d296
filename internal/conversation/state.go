package conversation

import (
	"errors"
	"fmt"

	"primos/internal/models"

	"github.com/jinzhu/gorm"
)

// ErrUserNotFound is returned when updating an unknown user
var ErrUserNotFound = errors.New("user not found")

// DefaultHistoryLimit is how many messages are loaded per turn
const DefaultHistoryLimit = 20

// UserUpdate holds profile fields to change; nil fields are left alone
type UserUpdate struct {
	Name    *string `json:"name"`
	Phone   *string `json:"phone"`
	Address *string `json:"address"`
}

// StateManager loads and stores per user conversation state
type StateManager struct {
	db *gorm.DB
}

// NewStateManager creates a state manager
func NewStateManager(db *gorm.DB) *StateManager {
	return &StateManager{db: db}
}

// UserState returns the user's profile, or nil when the user is unknown
func (m *StateManager) UserState(userID uint) (*UserData, error) {
	var user models.User
	if err := m.db.First(&user, userID).Error; err != nil {
		if gorm.IsRecordNotFoundError(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to load user %d: %w", userID, err)
	}
	return &UserData{
		UserID:    user.ID,
		Name:      user.Name,
		Phone:     user.Phone,
		Address:   user.Address,
		CreatedAt: user.CreatedAt,
	}, nil
}

// History returns the last limit messages in chronological order
func (m *StateManager) History(userID uint, limit int) ([]Message, error) {
	if limit <= 0 {
		limit = DefaultHistoryLimit
	}

	var rows []models.ConversationHistory
	err := m.db.Where("user_id = ?", userID).
		Order("id desc").
		Limit(limit).
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to load history for user %d: %w", userID, err)
	}

	msgs := make([]Message, len(rows))
	for i, row := range rows {
		msgs[len(rows)-1-i] = Message{
			Role:      row.Role,
			Content:   row.Content,
			Timestamp: row.CreatedAt,
			Metadata:  row.Metadata,
		}
	}
	return msgs, nil
}

// AddMessage appends a message to the user's history
func (m *StateManager) AddMessage(userID uint, role models.ConversationRole, content string, metadata models.Metadata) error {
	row := models.ConversationHistory{
		UserID:   userID,
		Role:     role,
		Content:  content,
		Metadata: metadata,
	}
	if err := m.db.Create(&row).Error; err != nil {
		return fmt.Errorf("failed to store message: %w", err)
	}
	return nil
}

// ClearHistory deletes every stored message of the user
func (m *StateManager) ClearHistory(userID uint) error {
	if err := m.db.Unscoped().Where("user_id = ?", userID).Delete(&models.ConversationHistory{}).Error; err != nil {
		return fmt.Errorf("failed to clear history for user %d: %w", userID, err)
	}
	return nil
}

// UpdateUser changes profile fields
func (m *StateManager) UpdateUser(userID uint, upd UserUpdate) error {
	fields := map[string]interface{}{}
	if upd.Name != nil {
		fields["name"] = *upd.Name
	}
	if upd.Phone != nil {
		fields["phone"] = *upd.Phone
	}
	if upd.Address != nil {
		fields["address"] = *upd.Address
	}
	if len(fields) == 0 {
		return nil
	}

	res := m.db.Model(&models.User{}).Where("id = ?", userID).Updates(fields)
	if res.Error != nil {
		return fmt.Errorf("failed to update user %d: %w", userID, res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("user %d: %w", userID, ErrUserNotFound)
	}
	return nil
}
