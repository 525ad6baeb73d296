// Package orchestrator runs a chat message through parsing, clarification,
// intent handling and response generation.
package orchestrator

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"primos/internal/clarification"
	"primos/internal/conversation"
	"primos/internal/handlers"
	"primos/internal/models"
	"primos/internal/nlp"
	"primos/internal/recommendation"
	"primos/internal/services"
	"primos/internal/session"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const (
	genericHelp      = "I understand your message, but I need more specific menu commands. Try: 'add [item] [size]', 'show cart', or 'checkout'"
	defaultSuccess   = "Request processed successfully"
	llmFailureReply  = "I processed your request. Please let me know if you need anything else."
	maxRecs          = 2
	llmHistoryWindow = 10
)

// IntentParser turns text into an intent
type IntentParser interface {
	Parse(ctx context.Context, text string) nlp.Result
}

// Responder phrases a reply with a language model
type Responder interface {
	GenerateResponse(ctx context.Context, text, convoContext, lang string) (string, error)
}

// Recorder receives pipeline events for metrics
type Recorder interface {
	RecordClarification(intent string)
	RecordFallback(source string)
	RecordOrder(total float64)
}

// Deps are the collaborators of an Orchestrator. Responder, Sessions and
// Metrics are optional.
type Deps struct {
	Parser        IntentParser
	State         *conversation.StateManager
	Cart          *services.CartService
	Clarification *clarification.Service
	Router        *handlers.Router
	Recommender   *recommendation.Engine
	Responder     Responder
	Sessions      *session.Store
	Metrics       Recorder
	Logger        *zap.Logger
}

// Orchestrator coordinates one conversation turn
type Orchestrator struct {
	Deps
	regex *nlp.RegexParser
}

// New creates an orchestrator
func New(d Deps) *Orchestrator {
	if d.Logger == nil {
		d.Logger = zap.NewNop()
	}
	return &Orchestrator{Deps: d, regex: nlp.NewRegexParser()}
}

// HasLLM reports whether replies are phrased by a language model
func (o *Orchestrator) HasLLM() bool {
	return o.Responder != nil
}

// ProcessMessage handles one user message and returns the filled context
func (o *Orchestrator) ProcessMessage(ctx context.Context, userID uint, text string) (*conversation.Context, error) {
	c := conversation.NewContext(userID, text)

	o.extractIntent(ctx, c)

	if err := o.loadUserState(ctx, c); err != nil {
		return nil, err
	}

	if err := o.execute(ctx, c); err != nil {
		return nil, err
	}

	o.generateResponse(ctx, c)

	o.saveConversation(c)
	return c, nil
}

func (o *Orchestrator) extractIntent(ctx context.Context, c *conversation.Context) {
	if o.resumeClarification(c) {
		return
	}

	res := o.Parser.Parse(ctx, c.UserMessage)
	c.Intent = res.Intent
	c.Entities = res.Entities
	c.Lang = res.Lang
	c.NLPSource = res.Source
	c.NLPConfidence = res.Confidence
	c.BatchItems = res.BatchItems

	if res.Source != nlp.SourceRegex && o.Metrics != nil {
		o.Metrics.RecordFallback(string(res.Source))
	}

	o.Logger.Debug("intent extracted",
		zap.Uint("user_id", c.UserID),
		zap.String("intent", c.Intent),
		zap.String("source", string(c.NLPSource)),
		zap.Int("batch_items", len(c.BatchItems)))
}

// resumeClarification completes the intent of an earlier clarification
// question when the message only supplies the missing fields
func (o *Orchestrator) resumeClarification(c *conversation.Context) bool {
	if o.Sessions == nil {
		return false
	}
	pending, ok := o.Sessions.Active(c.UserID)
	if !ok || pending.Type != session.SuggestionClarification {
		return false
	}

	// a message with its own intent starts over
	if _, matched := o.regex.Parse(c.UserMessage); matched {
		o.Sessions.ClearPending(c.UserID)
		return false
	}

	entities := pending.Entities
	for _, field := range pending.Missing {
		value, ok := clarification.ExtractFromContext(c.UserMessage, field)
		if !ok {
			return false
		}
		switch field {
		case "size":
			entities.Size = value.(string)
		case "quantity":
			entities.Quantity = value.(int)
		case "order_id":
			entities.OrderID = value.(uint)
		case "item":
			entities.Item = value.(string)
		default:
			return false
		}
	}

	o.Sessions.ClearPending(c.UserID)
	c.Intent = pending.Intent
	c.Entities = entities
	c.Lang = nlp.DetectLanguage(c.UserMessage)
	if c.Lang == nlp.LangEnglish && nlp.DetectLanguage(entities.Item) == nlp.LangArabic {
		c.Lang = nlp.LangArabic
	}
	c.NLPSource = nlp.SourceRegex
	c.NLPConfidence = 1.0

	o.Logger.Debug("clarification resumed",
		zap.Uint("user_id", c.UserID),
		zap.String("intent", c.Intent),
		zap.Strings("filled", pending.Missing))
	return true
}

func (o *Orchestrator) loadUserState(ctx context.Context, c *conversation.Context) error {
	g, _ := errgroup.WithContext(ctx)

	var history []conversation.Message
	var user *conversation.UserData
	var cart *services.CartView

	g.Go(func() error {
		var err error
		history, err = o.State.History(c.UserID, conversation.DefaultHistoryLimit)
		return err
	})
	g.Go(func() error {
		var err error
		user, err = o.State.UserState(c.UserID)
		return err
	})
	g.Go(func() error {
		var err error
		cart, err = o.Cart.ViewCart(c.UserID)
		return err
	})

	if err := g.Wait(); err != nil {
		return fmt.Errorf("failed to load user state: %w", err)
	}

	c.History = history
	c.User = user
	c.Cart = cart
	return nil
}

func (o *Orchestrator) execute(ctx context.Context, c *conversation.Context) error {
	if c.Intent != "" && !c.IsBatch() {
		if needs, missing := o.Clarification.NeedsClarification(c.Intent, c.Entities); needs {
			o.askClarification(c, missing)
			return nil
		}
	}

	o.Router.Execute(ctx, c)

	if c.HandlerExecuted && (c.Intent == nlp.IntentAddItem || c.Intent == nlp.IntentRemoveItem) {
		view, err := o.Cart.ViewCart(c.UserID)
		if err != nil {
			return fmt.Errorf("failed to refresh cart: %w", err)
		}
		c.Cart = view
	}

	if !c.HandlerExecuted {
		c.HandlerResult = &conversation.Result{
			Error:         "No handler for intent: " + c.Intent,
			FallbackToLLM: true,
		}
	}

	if c.HandlerResult.SuggestionCreated {
		c.DialogueState = conversation.StateAwaitingConfirmation
	}
	if c.Succeeded() && c.HandlerResult.Order != nil && o.Metrics != nil {
		o.Metrics.RecordOrder(c.HandlerResult.Order.TotalPrice)
	}
	return nil
}

func (o *Orchestrator) askClarification(c *conversation.Context, missing []string) {
	question := o.Clarification.Question(c.Intent, c.Entities, missing, c.Lang, c.Cart)

	c.BotResponse = question
	c.ClarificationNeeded = true
	c.ClarificationQuestion = question
	c.HandlerExecuted = false
	c.HandlerResult = &conversation.Result{
		ClarificationNeeded: true,
		MissingFields:       missing,
	}
	c.DialogueState = dialogueStateFor(missing)

	if o.Sessions != nil {
		o.Sessions.SetPending(c.UserID, session.NewClarificationSuggestion(c.Intent, c.Entities, missing))
	}
	if o.Metrics != nil {
		o.Metrics.RecordClarification(c.Intent)
	}
}

func dialogueStateFor(missing []string) conversation.DialogueState {
	for _, f := range missing {
		if f == "item" {
			return conversation.StateClarifyingItem
		}
	}
	for _, f := range missing {
		switch f {
		case "size":
			return conversation.StateAwaitingSize
		case "quantity":
			return conversation.StateAwaitingQuantity
		}
	}
	return conversation.StateIdle
}

func (o *Orchestrator) generateResponse(ctx context.Context, c *conversation.Context) {
	defer func() { c.SuggestedActions = suggestedActions(c) }()

	// receipts come from stored data only
	if c.Intent == nlp.IntentCheckout && c.Succeeded() && c.HandlerResult.Order != nil {
		c.BotResponse = FormatReceipt(c.HandlerResult.Order)
		return
	}

	if c.HandlerResult != nil && c.HandlerResult.ClarificationNeeded {
		return
	}

	if o.Responder == nil {
		switch {
		case c.Succeeded():
			c.BotResponse = messageOr(c.HandlerResult, defaultSuccess)
			o.appendRecommendations(c)
		case c.HandlerExecuted && c.HandlerResult.Message != "":
			c.BotResponse = c.HandlerResult.Message
		case c.HandlerExecuted && c.HandlerResult.Error != "":
			c.BotResponse = c.HandlerResult.Error
		default:
			c.BotResponse = genericHelp
		}
		return
	}

	reply, err := o.Responder.GenerateResponse(ctx, c.UserMessage, o.llmContext(c), c.Lang)
	if err != nil {
		o.Logger.Warn("llm response failed", zap.Uint("user_id", c.UserID), zap.Error(err))
		if c.Succeeded() {
			c.BotResponse = messageOr(c.HandlerResult, "Request processed")
		} else {
			c.BotResponse = llmFailureReply
		}
		return
	}

	reply = strings.TrimSpace(reply)
	if reply == "" {
		reply = messageOr(c.HandlerResult, "Request processed")
	}
	c.BotResponse = reply
	if c.Succeeded() {
		o.appendRecommendations(c)
	}
}

func messageOr(r *conversation.Result, fallback string) string {
	if r != nil && r.Message != "" {
		return r.Message
	}
	return fallback
}

func (o *Orchestrator) appendRecommendations(c *conversation.Context) {
	if c.Intent != nlp.IntentAddItem || o.Recommender == nil {
		return
	}

	recs, err := o.Recommender.GetRecommendations(c.UserID, c.Cart, maxRecs)
	if err != nil {
		o.Logger.Warn("recommendations failed", zap.Uint("user_id", c.UserID), zap.Error(err))
		return
	}
	if len(recs) == 0 {
		return
	}

	c.Recommendations = recs
	text := recommendation.FormatText(recs, c.Lang)
	if c.BotResponse != "" {
		c.BotResponse += "\n\n" + text
	} else {
		c.BotResponse = text
	}
}

// llmContext gives the model the exact handler data so it does not invent
// prices or quantities
func (o *Orchestrator) llmContext(c *conversation.Context) string {
	var summary string
	if c.HandlerExecuted {
		summary = fmt.Sprintf("Handler executed: %s\nSuccess: %t", c.HandlerName, c.Succeeded())
	} else {
		summary = "No specific handler for intent: " + c.Intent
	}

	result, err := json.MarshalIndent(c.HandlerResult, "", "  ")
	if err != nil {
		result = []byte("{}")
	}

	var b strings.Builder
	b.WriteString("Conversation History:\n")
	b.WriteString(c.HistoryText(llmHistoryWindow))
	fmt.Fprintf(&b, "\nUser's current message: %s\n", c.UserMessage)
	fmt.Fprintf(&b, "\nHandler Information:\n%s\n", summary)
	fmt.Fprintf(&b, "\nCRITICAL - ACTUAL DATA (do not modify or guess):\nHandler Result: %s\n", result)
	fmt.Fprintf(&b, "\nCurrent cart: %s\n", services.FormatCartSummary(c.Cart))
	b.WriteString(`
Instructions:
1. For orders/checkout: Use EXACT quantities, prices, and items from handler_result
2. Never guess or change numerical values
3. Be natural but accurate
4. Keep it concise (1-2 sentences)

Please provide a natural, friendly response based ONLY on the actual data above.`)
	return b.String()
}

// FormatReceipt renders a placed order
func FormatReceipt(r *services.Receipt) string {
	lines := make([]string, len(r.Items))
	for i, it := range r.Items {
		lines[i] = fmt.Sprintf("• %dx %s %s - %s %s", it.Quantity, it.Size, it.Name, services.FormatAmount(it.Subtotal), models.Currency)
	}

	return fmt.Sprintf("✅ Order placed successfully!\n\n%s\n\n💰 Total: %s %s\n📦 Order ID: #%d\n\n"+
		"Your delicious pizza will be ready in 30-40 minutes. Thank you for your order! 🍕",
		strings.Join(lines, "\n"), services.FormatAmount(r.TotalPrice), models.Currency, r.OrderID)
}

func suggestedActions(c *conversation.Context) []string {
	switch {
	case c.ClarificationNeeded:
		return nil
	case c.DialogueState == conversation.StateAwaitingConfirmation:
		return []string{"yes", "no"}
	case c.Intent == nlp.IntentCheckout && c.Succeeded():
		return []string{"track my order", "new order"}
	case !c.CartIsEmpty():
		return []string{"show cart", "checkout"}
	}
	return []string{"show menu"}
}

func (o *Orchestrator) saveConversation(c *conversation.Context) {
	err := o.State.AddMessage(c.UserID, models.RoleUser, c.UserMessage, models.Metadata{
		"intent":     c.Intent,
		"nlp_source": string(c.NLPSource),
	})
	if err == nil {
		err = o.State.AddMessage(c.UserID, models.RoleBot, c.BotResponse, models.Metadata{
			"handler":          c.HandlerName,
			"handler_executed": c.HandlerExecuted,
		})
	}
	if err != nil {
		o.Logger.Error("failed to save conversation", zap.Uint("user_id", c.UserID), zap.Error(err))
	}
}
