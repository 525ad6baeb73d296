package conversation

import (
	"fmt"
	"strings"
	"time"

	"primos/internal/models"
	"primos/internal/nlp"
	"primos/internal/recommendation"
	"primos/internal/services"

	"github.com/google/uuid"
)

// DialogueState tracks multi turn exchanges
type DialogueState string

const (
	StateIdle                 DialogueState = "idle"
	StateAwaitingSize         DialogueState = "awaiting_size"
	StateAwaitingQuantity     DialogueState = "awaiting_quantity"
	StateAwaitingConfirmation DialogueState = "awaiting_confirmation"
	StateAwaitingAddress      DialogueState = "awaiting_address"
	StateAwaitingPayment      DialogueState = "awaiting_payment"
	StateClarifyingItem       DialogueState = "clarifying_item"
)

// Message is one history entry
type Message struct {
	Role      models.ConversationRole `json:"role"`
	Content   string                  `json:"content"`
	Timestamp time.Time               `json:"timestamp"`
	Metadata  models.Metadata         `json:"metadata,omitempty"`
}

// UserData is the stored profile of the user
type UserData struct {
	UserID    uint      `json:"user_id"`
	Name      string    `json:"name"`
	Phone     string    `json:"phone"`
	Address   string    `json:"address"`
	CreatedAt time.Time `json:"created_at"`
}

// Result is what a handler reports back to the orchestrator
type Result struct {
	Success             bool                   `json:"success"`
	Message             string                 `json:"message,omitempty"`
	Error               string                 `json:"error,omitempty"`
	Data                map[string]interface{} `json:"data,omitempty"`
	ClarificationNeeded bool                   `json:"clarification_needed,omitempty"`
	MissingFields       []string               `json:"missing_fields,omitempty"`
	FallbackToLLM       bool                   `json:"fallback_to_llm,omitempty"`
	SuggestionCreated   bool                   `json:"suggestion_created,omitempty"`
	Order               *services.Receipt      `json:"order,omitempty"`
}

// Failure builds an unsuccessful result with a user facing message
func Failure(msg string) *Result {
	return &Result{Success: false, Message: msg}
}

// Context carries everything known about one message while it moves
// through the pipeline
type Context struct {
	UserID      uint   `json:"user_id"`
	SessionID   string `json:"session_id"`
	UserMessage string `json:"user_message"`
	Lang        string `json:"lang"`

	Intent        string          `json:"intent"`
	Entities      nlp.Entities    `json:"entities"`
	BatchItems    []nlp.BatchItem `json:"batch_items,omitempty"`
	NLPSource     nlp.Source      `json:"nlp_source"`
	NLPConfidence float64         `json:"nlp_confidence"`

	History []Message          `json:"-"`
	User    *UserData          `json:"user,omitempty"`
	Cart    *services.CartView `json:"current_cart,omitempty"`

	DialogueState         DialogueState `json:"dialogue_state"`
	ClarificationNeeded   bool          `json:"clarification_needed"`
	ClarificationQuestion string        `json:"clarification_question,omitempty"`

	HandlerExecuted bool    `json:"handler_executed"`
	HandlerName     string  `json:"handler_name,omitempty"`
	HandlerResult   *Result `json:"handler_result,omitempty"`

	BotResponse      string                          `json:"bot_response"`
	Recommendations  []recommendation.Recommendation `json:"recommendations,omitempty"`
	SuggestedActions []string                        `json:"suggested_actions,omitempty"`

	CreatedAt time.Time `json:"created_at"`
}

// NewContext starts a context for one incoming message
func NewContext(userID uint, text string) *Context {
	return &Context{
		UserID:        userID,
		SessionID:     uuid.NewString(),
		UserMessage:   text,
		Lang:          nlp.LangEnglish,
		NLPSource:     nlp.SourceNone,
		DialogueState: StateIdle,
		CreatedAt:     time.Now(),
	}
}

// IsBatch reports whether the message named several items
func (c *Context) IsBatch() bool {
	return len(c.BatchItems) > 1
}

// Succeeded reports whether a handler ran and reported success
func (c *Context) Succeeded() bool {
	return c.HandlerExecuted && c.HandlerResult != nil && c.HandlerResult.Success
}

// CartIsEmpty reports whether the loaded cart has no lines
func (c *Context) CartIsEmpty() bool {
	return c.Cart == nil || len(c.Cart.Items) == 0
}

// HistoryText renders the last max messages as "role: content" lines
func (c *Context) HistoryText(max int) string {
	msgs := c.History
	if max > 0 && len(msgs) > max {
		msgs = msgs[len(msgs)-max:]
	}

	var b strings.Builder
	for _, m := range msgs {
		fmt.Fprintf(&b, "%s: %s\n", m.Role, m.Content)
	}
	return b.String()
}
