package app

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"testing"

	"primos/internal/config"
	"primos/internal/llm"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func memoryConfig() *config.Config {
	cfg := config.Default()
	cfg.Database.Driver = "memory"
	cfg.LLM.Provider = "groq"
	cfg.LLM.GroqAPIKey = ""
	cfg.RateLimit.Enabled = false
	return cfg
}

func TestNewWithoutLLM(t *testing.T) {
	gin.SetMode(gin.TestMode)

	a, err := New(memoryConfig(), nil)
	require.NoError(t, err)
	defer a.Close()

	assert.Nil(t, a.LLM)
	provider, ok := a.Monitor.GetMetric("llm_provider")
	assert.True(t, ok)
	assert.Equal(t, "none", provider)

	req := httptest.NewRequest(http.MethodPost, "/api/chat", bytes.NewBufferString(`{"user_id":1,"text":"show menu"}`))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	a.API.Router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"intent":"browse_menu"`)
}

func TestNewUnknownProvider(t *testing.T) {
	cfg := memoryConfig()
	cfg.LLM.Provider = "parrot"

	_, err := New(cfg, nil)
	assert.ErrorIs(t, err, llm.ErrUnknownProvider)
}
