// Package chat is the entry point for user messages.
package chat

import (
	"context"
	"fmt"
	"sync"
	"time"

	"primos/internal/conversation"
	"primos/internal/monitoring"
	"primos/internal/nlp"
	"primos/internal/recommendation"
	"primos/internal/services"

	"go.uber.org/zap"
)

const (
	emptyReply       = "I processed your request."
	unavailableReply = "Sorry, the service is unavailable. Please try again."
	errorReply       = "Sorry, I encountered an error. Please try again."
)

// Processor runs one conversation turn
type Processor interface {
	ProcessMessage(ctx context.Context, userID uint, text string) (*conversation.Context, error)
}

// Recorder receives per message metrics
type Recorder interface {
	RecordMessage(intent, source string)
	RecordHandlerLatency(handler string, d time.Duration)
}

// Response is what the chat endpoint returns
type Response struct {
	Success               bool                            `json:"success"`
	Error                 string                          `json:"error,omitempty"`
	UserMessage           string                          `json:"user_message"`
	BotResponse           string                          `json:"bot_response"`
	Intent                string                          `json:"intent"`
	NLPSource             string                          `json:"nlp_source"`
	NLPConfidence         float64                         `json:"nlp_confidence"`
	HandlerName           string                          `json:"handler_name,omitempty"`
	HandlerExecuted       bool                            `json:"handler_executed"`
	HandlerResult         interface{}                     `json:"handler_result,omitempty"`
	CurrentCart           *services.CartView              `json:"current_cart,omitempty"`
	Recommendations       []recommendation.Recommendation `json:"recommendations,omitempty"`
	SuggestedActions      []string                        `json:"suggested_actions,omitempty"`
	ClarificationNeeded   bool                            `json:"clarification_needed"`
	ClarificationQuestion string                          `json:"clarification_question,omitempty"`
	Metadata              map[string]interface{}          `json:"metadata"`
}

// Service serializes messages per user and shapes orchestrator output
type Service struct {
	processor Processor
	metrics   Recorder
	monitor   *monitoring.Monitor
	logger    *zap.Logger

	mu    sync.Mutex
	locks map[uint]*userLock
}

// userLock is dropped from the map once no message of the user is queued
type userLock struct {
	sync.Mutex
	refs int
}

// NewService creates a chat service. metrics and monitor may be nil.
func NewService(processor Processor, metrics Recorder, monitor *monitoring.Monitor, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		processor: processor,
		metrics:   metrics,
		monitor:   monitor,
		logger:    logger,
		locks:     make(map[uint]*userLock),
	}
}

// lockUser blocks until userID has no other message in flight. The
// returned func releases the lock.
func (s *Service) lockUser(userID uint) func() {
	s.mu.Lock()
	l, ok := s.locks[userID]
	if !ok {
		l = &userLock{}
		s.locks[userID] = l
	}
	l.refs++
	s.mu.Unlock()

	l.Lock()
	return func() {
		l.Unlock()
		s.mu.Lock()
		l.refs--
		if l.refs == 0 {
			delete(s.locks, userID)
		}
		s.mu.Unlock()
	}
}

func (s *Service) lockCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.locks)
}

// HandleMessage processes text for userID. It never returns an error;
// failures are reported in the response.
func (s *Service) HandleMessage(ctx context.Context, userID uint, text string) Response {
	if s.processor == nil {
		return Response{
			Success:     false,
			Error:       "Chat service not properly initialized",
			UserMessage: text,
			BotResponse: unavailableReply,
			Metadata:    map[string]interface{}{},
		}
	}

	unlock := s.lockUser(userID)
	defer unlock()

	start := time.Now()
	c, err := s.processor.ProcessMessage(ctx, userID, text)
	latency := time.Since(start)

	if err != nil {
		s.logger.Error("failed to process message", zap.Uint("user_id", userID), zap.Error(err))
		s.record(nlp.IntentUnknown, string(nlp.SourceError), "", false, latency)
		return Response{
			Success:       false,
			Error:         fmt.Sprintf("Error processing message: %v", err),
			UserMessage:   text,
			BotResponse:   errorReply,
			NLPSource:     string(nlp.SourceError),
			HandlerResult: map[string]interface{}{"error": err.Error()},
			Metadata:      map[string]interface{}{},
		}
	}

	s.record(c.Intent, string(c.NLPSource), c.HandlerName, c.HandlerExecuted, latency)
	return toResponse(c, latency)
}

func (s *Service) record(intent, source, handler string, handled bool, latency time.Duration) {
	if intent == "" {
		intent = nlp.IntentUnknown
	}
	if s.metrics != nil {
		s.metrics.RecordMessage(intent, source)
		if handled {
			s.metrics.RecordHandlerLatency(handler, latency)
		}
	}
	if s.monitor != nil {
		s.monitor.RecordMessage(intent, source, handled, latency)
	}
}

func toResponse(c *conversation.Context, latency time.Duration) Response {
	bot := c.BotResponse
	if bot == "" {
		bot = emptyReply
	}

	resp := Response{
		Success:          true,
		UserMessage:      c.UserMessage,
		BotResponse:      bot,
		Intent:           c.Intent,
		NLPSource:        string(c.NLPSource),
		NLPConfidence:    c.NLPConfidence,
		HandlerName:      c.HandlerName,
		HandlerExecuted:  c.HandlerExecuted,
		CurrentCart:      c.Cart,
		Recommendations:  c.Recommendations,
		SuggestedActions: c.SuggestedActions,
		Metadata: map[string]interface{}{
			"lang":               c.Lang,
			"session_id":         c.SessionID,
			"dialogue_state":     c.DialogueState,
			"batch_items":        len(c.BatchItems),
			"processing_time_ms": latency.Milliseconds(),
			"timestamp":          c.CreatedAt,
		},
	}
	if c.HandlerResult != nil {
		resp.HandlerResult = c.HandlerResult
		if c.HandlerResult.ClarificationNeeded {
			resp.ClarificationNeeded = true
			resp.ClarificationQuestion = bot
		}
	}
	return resp
}
