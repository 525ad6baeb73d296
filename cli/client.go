package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"
)

// ApiClient handles requests to the Primos chat API
type ApiClient struct {
	httpClient *http.Client
	BaseURL    string
	UserID     uint
	Offline    bool
}

// NewApiClient creates a client from PRIMOS_API_URL
func NewApiClient(userID uint) *ApiClient {
	baseURL := os.Getenv("PRIMOS_API_URL")
	if baseURL == "" {
		baseURL = "http://localhost:8080"
	}

	client := &ApiClient{
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		BaseURL: baseURL,
		UserID:  userID,
	}

	if !client.ping() {
		fmt.Printf("Warning: API server at %s is not available.\n", baseURL)
		client.Offline = true
	}
	return client
}

func (c *ApiClient) ping() bool {
	resp, err := c.httpClient.Get(c.BaseURL + "/health")
	if err != nil {
		return false
	}
	defer resp.Body.Close()
	return resp.StatusCode == http.StatusOK
}

// ChatReply is the part of the chat response the client shows
type ChatReply struct {
	Success          bool     `json:"success"`
	Error            string   `json:"error"`
	BotResponse      string   `json:"bot_response"`
	Intent           string   `json:"intent"`
	NLPSource        string   `json:"nlp_source"`
	SuggestedActions []string `json:"suggested_actions"`
	CurrentCart      *struct {
		TotalPrice float64 `json:"total_price"`
		ItemCount  int     `json:"item_count"`
	} `json:"current_cart"`
}

// MenuSize is one priced size of a menu item
type MenuSize struct {
	ID          uint    `json:"id"`
	Size        string  `json:"size"`
	Price       float64 `json:"price"`
	IsAvailable bool    `json:"is_available"`
}

// MenuItem is one menu entry
type MenuItem struct {
	ID          uint       `json:"id"`
	Name        string     `json:"name"`
	Category    string     `json:"category"`
	IsAvailable bool       `json:"is_available"`
	Sizes       []MenuSize `json:"sizes"`
}

// OrderItem is one purchased line
type OrderItem struct {
	MenuItemName string  `json:"menu_item_name"`
	Size         string  `json:"size"`
	Quantity     int     `json:"quantity"`
	Price        float64 `json:"price"`
}

// Order is a placed order
type Order struct {
	ID         uint        `json:"id"`
	Status     string      `json:"status"`
	TotalPrice float64     `json:"total_price"`
	CreatedAt  time.Time   `json:"CreatedAt"`
	Items      []OrderItem `json:"items"`
}

// Chat sends one message
func (c *ApiClient) Chat(text string) (*ChatReply, error) {
	var reply ChatReply
	body := map[string]interface{}{"user_id": c.UserID, "text": text}
	if err := c.do(http.MethodPost, "/api/chat", body, &reply); err != nil {
		return nil, err
	}
	return &reply, nil
}

// GetMenu lists the menu
func (c *ApiClient) GetMenu() ([]MenuItem, error) {
	var out struct {
		Items []MenuItem `json:"items"`
	}
	if err := c.do(http.MethodGet, "/api/v1/menu", nil, &out); err != nil {
		return nil, err
	}
	return out.Items, nil
}

// GetOrders lists the user's orders
func (c *ApiClient) GetOrders() ([]Order, error) {
	var out struct {
		Orders []Order `json:"orders"`
	}
	if err := c.do(http.MethodGet, fmt.Sprintf("/api/v1/users/%d/orders", c.UserID), nil, &out); err != nil {
		return nil, err
	}
	return out.Orders, nil
}

// GetOrder loads one order
func (c *ApiClient) GetOrder(id uint) (*Order, error) {
	var order Order
	if err := c.do(http.MethodGet, fmt.Sprintf("/api/v1/orders/%d", id), nil, &order); err != nil {
		return nil, err
	}
	return &order, nil
}

// ClearHistory forgets the conversation
func (c *ApiClient) ClearHistory() error {
	return c.do(http.MethodDelete, fmt.Sprintf("/api/v1/users/%d/history", c.UserID), nil, nil)
}

func (c *ApiClient) do(method, path string, in, out interface{}) error {
	if c.Offline {
		return fmt.Errorf("API server at %s is not available", c.BaseURL)
	}

	var body io.Reader
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("error marshaling request: %w", err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequest(method, c.BaseURL+path, body)
	if err != nil {
		return fmt.Errorf("error creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("error sending request: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("error reading response: %w", err)
	}
	if resp.StatusCode >= http.StatusBadRequest {
		var apiErr struct {
			Error string `json:"error"`
		}
		if json.Unmarshal(data, &apiErr) == nil && apiErr.Error != "" {
			return fmt.Errorf("API error: %s", apiErr.Error)
		}
		return fmt.Errorf("API returned status code %d", resp.StatusCode)
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("error decoding response: %w", err)
	}
	return nil
}
