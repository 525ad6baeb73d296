package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"primos/internal/chat"
	"primos/internal/clarification"
	"primos/internal/conversation"
	"primos/internal/database"
	"primos/internal/evaluation"
	"primos/internal/handlers"
	"primos/internal/monitoring"
	"primos/internal/nlp"
	"primos/internal/orchestrator"
	"primos/internal/recommendation"
	"primos/internal/services"
	"primos/internal/session"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret"

type fixture struct {
	api  *API
	menu *services.MenuService
}

func setup(t *testing.T, rl *RateLimit) *fixture {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db, err := database.OpenInMemory()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	menu := services.NewMenuService(db)
	cart := services.NewCartService(db)
	orders := services.NewOrderService(db)
	state := conversation.NewStateManager(db)
	sessions := session.NewStore(5 * time.Minute)
	recs := recommendation.NewEngine(db)
	parser := nlp.NewHybridParser(nil, nil)
	metrics := evaluation.NewMetricsCollector()
	monitor := monitoring.NewMonitor()

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
		}),
		Recommender: recs,
		Sessions:    sessions,
		Metrics:     metrics,
	})

	a := New(Deps{
		DB:          db,
		ChatService: chat.NewService(orch, metrics, monitor, nil),
		Menu:        menu,
		Cart:        cart,
		Orders:      orders,
		State:       state,
		Recommender: recs,
		Evaluator:   evaluation.NewEvaluator(parser, nil),
		Metrics:     metrics,
		Monitor:     monitor,
		RateLimit:   rl,
		JWTSecret:   testSecret,
	})
	return &fixture{api: a, menu: menu}
}

func (f *fixture) do(t *testing.T, method, path string, body interface{}, headers ...string) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	w := httptest.NewRecorder()
	f.api.Router.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var out map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	return out
}

func adminHeader(t *testing.T) []string {
	t.Helper()
	token, err := IssueAdminToken(testSecret, "staff", time.Hour)
	require.NoError(t, err)
	return []string{"Authorization", "Bearer " + token}
}

func TestHealth(t *testing.T) {
	f := setup(t, nil)

	w := f.do(t, http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	body := decode(t, w)
	assert.Equal(t, "ok", body["status"])
	assert.Equal(t, "ok", body["checks"].(map[string]interface{})["database"])
	assert.NotEmpty(t, w.Header().Get(requestIDHeader))
}

func TestChat(t *testing.T) {
	f := setup(t, nil)

	w := f.do(t, http.MethodPost, "/api/chat", gin.H{"user_id": 1, "text": "add cola"}, requestIDHeader, "req-1")
	require.Equal(t, http.StatusOK, w.Code)

	body := decode(t, w)
	assert.Equal(t, true, body["success"])
	assert.Equal(t, "add_item", body["intent"])
	assert.Equal(t, "regex", body["nlp_source"])
	assert.Contains(t, body["bot_response"], "Added Cola (REG) x 1 to cart")
	assert.Equal(t, "req-1", body["metadata"].(map[string]interface{})["request_id"])

	cart := body["current_cart"].(map[string]interface{})
	assert.Equal(t, 20.0, cart["total_price"])

	w = f.do(t, http.MethodGet, "/api/v1/users/1/history", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 2.0, decode(t, w)["count"])

	w = f.do(t, http.MethodGet, "/api/v1/stats", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 1.0, decode(t, w)["messages_total"])
}

func TestChatValidation(t *testing.T) {
	f := setup(t, nil)

	tests := []struct {
		name string
		body interface{}
	}{
		{"missing user", gin.H{"text": "hi"}},
		{"zero user", gin.H{"user_id": 0, "text": "hi"}},
		{"missing text", gin.H{"user_id": 1}},
		{"blank text", gin.H{"user_id": 1, "text": "   "}},
		{"too long", gin.H{"user_id": 1, "text": strings.Repeat("a", 501)}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := f.do(t, http.MethodPost, "/api/chat", tt.body)
			assert.Equal(t, http.StatusBadRequest, w.Code)
			assert.Contains(t, decode(t, w), "error")
		})
	}
}

func TestChatRateLimit(t *testing.T) {
	f := setup(t, &RateLimit{Requests: 1, Window: time.Hour, Burst: 1})

	var last int
	for i := 0; i < 3; i++ {
		last = f.do(t, http.MethodPost, "/api/chat", gin.H{"user_id": 1, "text": "show menu"}).Code
	}
	assert.Equal(t, http.StatusTooManyRequests, last)

	// other users have their own bucket
	w := f.do(t, http.MethodPost, "/api/chat", gin.H{"user_id": 2, "text": "show menu"})
	assert.Equal(t, http.StatusOK, w.Code)

	stats := decode(t, f.do(t, http.MethodGet, "/api/v1/stats", nil))
	assert.GreaterOrEqual(t, stats["rate_limited_total"], 1.0)

	w = f.do(t, http.MethodDelete, "/api/v1/stats", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	w = f.do(t, http.MethodDelete, "/api/v1/stats", nil, adminHeader(t)...)
	require.Equal(t, http.StatusOK, w.Code)
	stats = decode(t, f.do(t, http.MethodGet, "/api/v1/stats", nil))
	assert.NotContains(t, stats, "rate_limited_total")
}

func TestUserProfileRoutes(t *testing.T) {
	f := setup(t, nil)

	w := f.do(t, http.MethodGet, "/api/v1/users/1", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Test User", decode(t, w)["name"])

	w = f.do(t, http.MethodPut, "/api/v1/users/1", gin.H{"address": "Alexandria"})
	require.Equal(t, http.StatusOK, w.Code)
	user := decode(t, w)
	assert.Equal(t, "Alexandria", user["address"])
	assert.Equal(t, "Test User", user["name"])

	w = f.do(t, http.MethodPut, "/api/v1/users/999", gin.H{"address": "Cairo"})
	assert.Equal(t, http.StatusNotFound, w.Code)
	w = f.do(t, http.MethodGet, "/api/v1/users/999", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestPricingRoutes(t *testing.T) {
	f := setup(t, nil)

	cola, err := f.menu.GetItemByName("Cola", true)
	require.NoError(t, err)
	sizeID := cola.Sizes[0].ID

	w := f.do(t, http.MethodGet, fmt.Sprintf("/api/v1/menu/sizes/%d/price?quantity=3", sizeID), nil)
	require.Equal(t, http.StatusOK, w.Code)
	price := decode(t, w)
	assert.Equal(t, 20.0, price["price"])
	assert.Equal(t, 60.0, price["subtotal"])
	assert.Equal(t, "60.00 EGP", price["formatted"])

	w = f.do(t, http.MethodGet, fmt.Sprintf("/api/v1/menu/sizes/%d/price?quantity=11", sizeID), nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	w = f.do(t, http.MethodGet, "/api/v1/menu/sizes/99999/price", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = f.do(t, http.MethodPost, "/api/v1/users/1/cart/items", gin.H{"menu_size_id": sizeID, "quantity": 2})
	require.Equal(t, http.StatusCreated, w.Code)

	w = f.do(t, http.MethodGet, "/api/v1/users/1/cart/quote?discount_percent=15", nil)
	require.Equal(t, http.StatusOK, w.Code)
	quote := decode(t, w)
	assert.Equal(t, 40.0, quote["quote"].(map[string]interface{})["original"])
	assert.Equal(t, 34.0, quote["quote"].(map[string]interface{})["final_total"])
	assert.Equal(t, "34.00 EGP", quote["formatted"])

	w = f.do(t, http.MethodGet, "/api/v1/users/1/cart/quote?discount_percent=150", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = f.do(t, http.MethodDelete, fmt.Sprintf("/api/v1/users/1/cart/items/%d", sizeID), nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Your cart is empty", decode(t, w)["summary"])
}

func TestMenuRoutes(t *testing.T) {
	f := setup(t, nil)

	w := f.do(t, http.MethodGet, "/api/v1/menu?category=pizza", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 9.0, decode(t, w)["count"])

	w = f.do(t, http.MethodGet, "/api/v1/menu?category=dessert", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = f.do(t, http.MethodGet, "/api/v1/menu/search?q=pepperoni", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 1.0, decode(t, w)["count"])

	w = f.do(t, http.MethodGet, "/api/v1/menu/items/1", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Margherita Pizza", decode(t, w)["name"])

	w = f.do(t, http.MethodGet, "/api/v1/menu/items/999", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = f.do(t, http.MethodGet, "/api/v1/combos", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode(t, w)["combos"], 3)
}

func TestAdminAuth(t *testing.T) {
	f := setup(t, nil)
	body := gin.H{"available": false}

	w := f.do(t, http.MethodPut, "/api/v1/menu/items/1/availability", body)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = f.do(t, http.MethodPut, "/api/v1/menu/items/1/availability", body, "Authorization", "Bearer nonsense")
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	other, err := IssueAdminToken("another-secret", "staff", time.Hour)
	require.NoError(t, err)
	w = f.do(t, http.MethodPut, "/api/v1/menu/items/1/availability", body, "Authorization", "Bearer "+other)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = f.do(t, http.MethodPut, "/api/v1/menu/items/1/availability", body, adminHeader(t)...)
	require.Equal(t, http.StatusOK, w.Code)
	assert.False(t, f.menu.IsItemAvailable(1))

	w = f.do(t, http.MethodPut, "/api/v1/menu/items/999/availability", body, adminHeader(t)...)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestCartAndOrderRoutes(t *testing.T) {
	f := setup(t, nil)

	cola, err := f.menu.GetItemByName("Cola", true)
	require.NoError(t, err)
	sizeID := cola.Sizes[0].ID

	w := f.do(t, http.MethodPost, "/api/v1/users/1/checkout", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = f.do(t, http.MethodPost, "/api/v1/users/1/cart/items", gin.H{"menu_size_id": sizeID, "quantity": 2})
	require.Equal(t, http.StatusCreated, w.Code)

	w = f.do(t, http.MethodPut, fmt.Sprintf("/api/v1/users/1/cart/items/%d", sizeID), gin.H{"quantity": 3})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Updated quantity from 2 to 3", decode(t, w)["message"])

	w = f.do(t, http.MethodPut, fmt.Sprintf("/api/v1/users/1/cart/items/%d", sizeID), gin.H{"quantity": 9223372036854775807})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	w = f.do(t, http.MethodPost, "/api/v1/users/1/cart/items", gin.H{"menu_size_id": sizeID, "quantity": 8})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = f.do(t, http.MethodGet, "/api/v1/users/1/cart", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 60.0, decode(t, w)["cart"].(map[string]interface{})["total_price"])

	w = f.do(t, http.MethodPost, "/api/v1/users/1/checkout", nil)
	require.Equal(t, http.StatusCreated, w.Code)
	receipt := decode(t, w)
	assert.Equal(t, 60.0, receipt["total_price"])
	orderID := uint(receipt["order_id"].(float64))

	w = f.do(t, http.MethodGet, fmt.Sprintf("/api/v1/orders/%d", orderID), nil)
	assert.Equal(t, http.StatusOK, w.Code)

	path := fmt.Sprintf("/api/v1/orders/%d/status", orderID)
	w = f.do(t, http.MethodPut, path, gin.H{"status": "preparing"}, adminHeader(t)...)
	assert.Equal(t, http.StatusOK, w.Code)
	w = f.do(t, http.MethodPut, path, gin.H{"status": "lost"}, adminHeader(t)...)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = f.do(t, http.MethodGet, "/api/v1/users/1/orders", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 1.0, decode(t, w)["count"])

	w = f.do(t, http.MethodDelete, fmt.Sprintf("/api/v1/users/1/cart/items/%d", sizeID), nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestEvaluationRoutes(t *testing.T) {
	f := setup(t, nil)

	w := f.do(t, http.MethodGet, "/api/v1/evaluation/scenarios", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var scenarios []ScenarioInfo
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &scenarios))
	assert.Len(t, scenarios, 4)

	w = f.do(t, http.MethodPost, "/api/v1/evaluation", gin.H{"scenario": "english_basics"})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 1.0, decode(t, w)["intent_accuracy"])

	w = f.do(t, http.MethodPost, "/api/v1/evaluation", gin.H{"scenario": "nope"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestChatWebSocket(t *testing.T) {
	f := setup(t, nil)
	srv := httptest.NewServer(f.api.Router)
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws/chat?user_id=1"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer conn.Close()

	require.NoError(t, conn.WriteJSON(gin.H{"text": "show menu"}))
	var resp chat.Response
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))
	require.NoError(t, conn.ReadJSON(&resp))
	assert.True(t, resp.Success)
	assert.Equal(t, nlp.IntentBrowseMenu, resp.Intent)
	assert.Contains(t, resp.BotResponse, "🍕 Pizzas:")

	require.NoError(t, conn.WriteJSON(gin.H{"text": ""}))
	var errResp map[string]string
	require.NoError(t, conn.ReadJSON(&errResp))
	assert.Equal(t, "text must be between 1 and 500 characters", errResp["error"])
}
