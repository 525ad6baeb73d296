// Package api exposes the chat service and the menu, cart and order
// operations over HTTP.
package api

import (
	"net/http"
	"strconv"
	"time"

	"primos/internal/chat"
	"primos/internal/conversation"
	"primos/internal/evaluation"
	"primos/internal/logging"
	"primos/internal/monitoring"
	"primos/internal/recommendation"
	"primos/internal/services"

	"github.com/gin-gonic/gin"
	"github.com/jinzhu/gorm"
	"github.com/yasserelgammal/rate-limiter/limiter"
	"github.com/yasserelgammal/rate-limiter/store"
	"go.uber.org/zap"
)

// RateLimit configures the per user token bucket on chat endpoints
type RateLimit struct {
	Requests int64
	Window   time.Duration
	Burst    int64
}

// Deps are the services behind the API. Evaluator, Metrics, Monitor and
// RateLimit are optional.
type Deps struct {
	DB          *gorm.DB
	ChatService *chat.Service
	Menu        *services.MenuService
	Cart        *services.CartService
	Orders      *services.OrderService
	Pricing     *services.PricingService
	State       *conversation.StateManager
	Recommender *recommendation.Engine
	Evaluator   *evaluation.Evaluator
	Metrics     *evaluation.MetricsCollector
	Monitor     *monitoring.Monitor
	RateLimit   *RateLimit
	JWTSecret   string
	LLMEnabled  bool
	Logger      *zap.Logger
}

// API represents the HTTP surface of the chat service
type API struct {
	Router *gin.Engine
	Deps
	limiter *limiter.TokenBucket
}

// New creates an API instance with its routes registered
func New(d Deps) *API {
	d.Logger = logging.OrNop(d.Logger)
	if d.Monitor == nil {
		d.Monitor = monitoring.NewMonitor()
	}
	if d.Pricing == nil && d.DB != nil {
		d.Pricing = services.NewPricingService(d.DB)
	}

	router := gin.New()
	router.Use(gin.Recovery(), RequestID(), logging.GinMiddleware(d.Logger))

	a := &API{Router: router, Deps: d}
	if d.RateLimit != nil && d.RateLimit.Requests > 0 {
		// Only a nil store makes the constructor fail.
		a.limiter, _ = limiter.NewTokenBucket(limiter.Config{
			Rate:     d.RateLimit.Requests,
			Duration: d.RateLimit.Window,
			Burst:    d.RateLimit.Burst,
		}, store.NewMemoryStore(time.Minute))
	}

	a.setupRoutes()
	return a
}

// setupRoutes configures all API endpoints
func (a *API) setupRoutes() {
	a.Router.GET("/health", a.Health)
	a.Router.POST("/api/chat", a.Chat)
	a.Router.GET("/ws/chat", a.ChatWebSocket)

	admin := AdminAuth(a.JWTSecret)

	v1 := a.Router.Group("/api/v1")
	{
		// Menu
		v1.GET("/menu", a.ListMenu)
		v1.GET("/menu/search", a.SearchMenu)
		v1.GET("/menu/items/:id", a.GetMenuItem)
		v1.GET("/menu/sizes/:id/price", a.GetSizePrice)
		v1.PUT("/menu/items/:id/availability", admin, a.SetItemAvailability)
		v1.PUT("/menu/sizes/:id/availability", admin, a.SetSizeAvailability)
		v1.GET("/combos", a.ListCombos)

		// Per user state
		users := v1.Group("/users/:user_id")
		{
			users.GET("", a.GetUser)
			users.PUT("", a.UpdateUser)
			users.GET("/cart", a.GetCart)
			users.GET("/cart/quote", a.QuoteCart)
			users.POST("/cart/items", a.AddCartItem)
			users.PUT("/cart/items/:menu_size_id", a.UpdateCartItem)
			users.DELETE("/cart/items/:menu_size_id", a.RemoveCartItem)
			users.DELETE("/cart", a.ClearCart)
			users.POST("/checkout", a.Checkout)
			users.GET("/orders", a.ListUserOrders)
			users.GET("/history", a.GetHistory)
			users.DELETE("/history", a.ClearHistory)
			users.GET("/recommendations", a.GetRecommendations)
		}

		// Orders
		v1.GET("/orders", admin, a.ListOrders)
		v1.GET("/orders/:id", a.GetOrder)
		v1.PUT("/orders/:id/status", admin, a.UpdateOrderStatus)

		// Runtime
		v1.GET("/stats", a.Stats)
		v1.DELETE("/stats", admin, a.ResetStats)
		v1.GET("/evaluation/scenarios", a.ListScenarios)
		v1.POST("/evaluation", a.Evaluate)
	}
}

// Health reports service status and dependency checks
func (a *API) Health(c *gin.Context) {
	checks := gin.H{"llm": a.LLMEnabled}
	status := http.StatusOK

	if a.DB != nil {
		if err := a.DB.DB().Ping(); err != nil {
			checks["database"] = err.Error()
			status = http.StatusServiceUnavailable
		} else {
			checks["database"] = "ok"
		}
	}

	state := "ok"
	if status != http.StatusOK {
		state = "degraded"
	}
	c.JSON(status, gin.H{"status": state, "service": "Primos Chatbot API", "checks": checks})
}

// Stats returns runtime counters
func (a *API) Stats(c *gin.Context) {
	c.JSON(http.StatusOK, a.Monitor.GetMetrics())
}

// ResetStats clears the runtime counters
func (a *API) ResetStats(c *gin.Context) {
	a.Monitor.Reset()
	c.JSON(http.StatusOK, gin.H{"message": "Stats reset"})
}

func (a *API) allow(userID uint) bool {
	if a.limiter == nil {
		return true
	}
	if a.limiter.Allow(strconv.FormatUint(uint64(userID), 10)) {
		return true
	}
	a.Monitor.Inc("rate_limited_total")
	return false
}

func paramID(c *gin.Context, name string) (uint, bool) {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil || id == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid " + name})
		return 0, false
	}
	return uint(id), true
}
