// Package app wires the chat service from configuration.
package app

import (
	"errors"
	"fmt"

	"primos/internal/api"
	"primos/internal/chat"
	"primos/internal/clarification"
	"primos/internal/config"
	"primos/internal/conversation"
	"primos/internal/database"
	"primos/internal/evaluation"
	"primos/internal/handlers"
	"primos/internal/llm"
	"primos/internal/monitoring"
	"primos/internal/nlp"
	"primos/internal/orchestrator"
	"primos/internal/recommendation"
	"primos/internal/services"
	"primos/internal/session"

	"github.com/jinzhu/gorm"
	"go.uber.org/zap"
)

// App holds the wired service
type App struct {
	API     *api.API
	Metrics *evaluation.MetricsCollector
	Monitor *monitoring.Monitor
	DB      *gorm.DB
	LLM     llm.Provider
}

// New opens the database and builds every component. A provider that
// cannot be initialized leaves the service on regex parsing only.
func New(cfg *config.Config, logger *zap.Logger) (*App, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	db, err := database.InitDB(cfg.Database.Driver, cfg.Database.DSN, cfg.Database.Seed)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	metrics := evaluation.NewMetricsCollector()
	monitor := monitoring.NewMonitor()

	provider, err := newProvider(cfg.LLM, metrics, logger)
	if err != nil {
		if !errors.Is(err, llm.ErrMissingCredentials) {
			db.Close()
			return nil, err
		}
		logger.Warn("llm disabled, using regex parsing only", zap.Error(err))
	}
	if provider != nil {
		monitor.RecordMetric("llm_provider", provider.Name())
	} else {
		monitor.RecordMetric("llm_provider", "none")
	}

	menu := services.NewMenuService(db)
	cart := services.NewCartService(db)
	orders := services.NewOrderService(db)
	state := conversation.NewStateManager(db)
	sessions := session.NewStore(cfg.Session.SuggestionTTL)
	recs := recommendation.NewEngine(db)

	// keep the interfaces nil when there is no provider
	var (
		extractor nlp.IntentExtractor
		responder orchestrator.Responder
	)
	if provider != nil {
		extractor = provider
		responder = provider
	}
	parser := nlp.NewHybridParser(extractor, logger)

	orch := orchestrator.New(orchestrator.Deps{
		Parser:        parser,
		State:         state,
		Cart:          cart,
		Clarification: clarification.NewService(menu),
		Router: handlers.NewRouter(handlers.Deps{
			Menu:       menu,
			Cart:       cart,
			Orders:     orders,
			Validation: services.NewItemValidationService(menu),
			Sessions:   sessions,
			Logger:     logger,
		}),
		Recommender: recs,
		Responder:   responder,
		Sessions:    sessions,
		Metrics:     metrics,
		Logger:      logger.Named("orchestrator"),
	})

	var rl *api.RateLimit
	if cfg.RateLimit.Enabled {
		rl = &api.RateLimit{
			Requests: cfg.RateLimit.Requests,
			Window:   cfg.RateLimit.Window,
			Burst:    cfg.RateLimit.Burst,
		}
	}

	a := api.New(api.Deps{
		DB:          db,
		ChatService: chat.NewService(orch, metrics, monitor, logger.Named("chat")),
		Menu:        menu,
		Cart:        cart,
		Orders:      orders,
		Pricing:     services.NewPricingService(db),
		State:       state,
		Recommender: recs,
		Evaluator:   evaluation.NewEvaluator(parser, logger),
		Metrics:     metrics,
		Monitor:     monitor,
		RateLimit:   rl,
		JWTSecret:   cfg.Auth.JWTSecret,
		LLMEnabled:  provider != nil,
		Logger:      logger,
	})

	return &App{API: a, Metrics: metrics, Monitor: monitor, DB: db, LLM: provider}, nil
}

func newProvider(cfg config.LLMConfig, observer llm.CallObserver, logger *zap.Logger) (llm.Provider, error) {
	factory, err := llm.NewFactory(cfg, observer, logger)
	if err != nil {
		return nil, err
	}
	return factory.Default()
}

// Close releases the database
func (a *App) Close() error {
	return a.DB.Close()
}
