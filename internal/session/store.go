package session

import (
	"fmt"
	"strings"
	"time"

	"primos/internal/nlp"

	"github.com/patrickmn/go-cache"
)

// SuggestionType identifies what a pending suggestion will do when confirmed
type SuggestionType string

const (
	SuggestionAddItem       SuggestionType = "add_item"
	SuggestionClarification SuggestionType = "clarification"
)

// Suggestion is an action offered to the user and awaiting a yes or no,
// or an intent waiting for a missing slot
type Suggestion struct {
	Type      SuggestionType `json:"type"`
	Item      string         `json:"item,omitempty"`
	Size      string         `json:"size,omitempty"`
	Quantity  int            `json:"quantity,omitempty"`
	Intent    string         `json:"intent,omitempty"`
	Entities  nlp.Entities   `json:"entities,omitempty"`
	Missing   []string       `json:"missing_fields,omitempty"`
	CreatedAt time.Time      `json:"created_at"`
}

// NewAddItemSuggestion offers to add an item
func NewAddItemSuggestion(item, size string, quantity int) *Suggestion {
	if quantity <= 0 {
		quantity = 1
	}
	return &Suggestion{
		Type:      SuggestionAddItem,
		Item:      item,
		Size:      size,
		Quantity:  quantity,
		CreatedAt: time.Now(),
	}
}

// NewClarificationSuggestion remembers an intent that is missing fields
func NewClarificationSuggestion(intent string, entities nlp.Entities, missing []string) *Suggestion {
	return &Suggestion{
		Type:      SuggestionClarification,
		Intent:    intent,
		Entities:  entities,
		Missing:   missing,
		CreatedAt: time.Now(),
	}
}

// Format phrases the suggestion as a question
func (s *Suggestion) Format(lang string) string {
	if s.Type != SuggestionAddItem {
		if lang == nlp.LangArabic {
			return "هل تريد المتابعة؟"
		}
		return "Would you like to proceed?"
	}

	qty := ""
	if s.Quantity > 1 {
		qty = fmt.Sprintf("%d ", s.Quantity)
	}
	size := ""
	if s.Size != "" {
		size = s.Size + " "
	}

	if lang == nlp.LangArabic {
		return strings.Join(strings.Fields(fmt.Sprintf("هل تريد إضافة %s%s %s إلى السلة؟", qty, s.Item, s.Size)), " ")
	}
	return fmt.Sprintf("Would you like to add %s%s%s to your cart?", qty, size, s.Item)
}

// Store keeps one pending suggestion per user. Entries outlive their TTL
// so an expired suggestion can still be reported as expired.
type Store struct {
	cache *cache.Cache
	ttl   time.Duration
	now   func() time.Time
}

// NewStore creates a store whose suggestions expire after ttl
func NewStore(ttl time.Duration) *Store {
	return &Store{
		cache: cache.New(2*ttl, ttl),
		ttl:   ttl,
		now:   time.Now,
	}
}

func key(userID uint) string {
	return fmt.Sprintf("pending:%d", userID)
}

// TTL returns the suggestion lifetime
func (s *Store) TTL() time.Duration {
	return s.ttl
}

// SetPending replaces the user's pending suggestion
func (s *Store) SetPending(userID uint, sg *Suggestion) {
	if sg.CreatedAt.IsZero() {
		sg.CreatedAt = s.now()
	}
	s.cache.Set(key(userID), sg, cache.DefaultExpiration)
}

// Pending returns the user's pending suggestion, expired or not
func (s *Store) Pending(userID uint) (*Suggestion, bool) {
	v, ok := s.cache.Get(key(userID))
	if !ok {
		return nil, false
	}
	return v.(*Suggestion), true
}

// Active returns the pending suggestion only while it has not expired
func (s *Store) Active(userID uint) (*Suggestion, bool) {
	sg, ok := s.Pending(userID)
	if !ok || s.Expired(sg) {
		return nil, false
	}
	return sg, true
}

// Expired reports whether sg is older than the store TTL
func (s *Store) Expired(sg *Suggestion) bool {
	return s.now().Sub(sg.CreatedAt) > s.ttl
}

// ClearPending drops the user's pending suggestion. It reports whether
// one existed.
func (s *Store) ClearPending(userID uint) bool {
	_, ok := s.cache.Get(key(userID))
	s.cache.Delete(key(userID))
	return ok
}
