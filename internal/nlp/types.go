package nlp

import (
	"strconv"
	"strings"
)

// Intents understood by the ordering pipeline
const (
	IntentWelcome      = "welcome"
	IntentAddItem      = "add_item"
	IntentRemoveItem   = "remove_item"
	IntentViewCart     = "view_cart"
	IntentClearCart    = "clear_cart"
	IntentCheckout     = "checkout"
	IntentBrowseMenu   = "browse_menu"
	IntentItemInfo     = "item_info"
	IntentGetPrice     = "get_price"
	IntentTrackOrder   = "track_order"
	IntentModifyOrder  = "modify_order"
	IntentNewOrder     = "new_order"
	IntentConfirmation = "confirmation"
	IntentRejection    = "rejection"
	IntentUnknown      = "unknown"
)

// Languages
const (
	LangEnglish = "en"
	LangArabic  = "ar"
)

// Source tells which stage produced a parse result
type Source string

const (
	SourceRegex Source = "regex"
	SourceLLM   Source = "llm"
	SourceNone  Source = "none"
	SourceError Source = "error"
)

// Entities are the slots extracted from an utterance. Zero values mean absent.
type Entities struct {
	Item     string `json:"item,omitempty"`
	Size     string `json:"size,omitempty"`
	Quantity int    `json:"quantity,omitempty"`
	OrderID  uint   `json:"order_id,omitempty"`
	Address  string `json:"address,omitempty"`
	Phone    string `json:"phone,omitempty"`
	Category string `json:"category,omitempty"`
	Action   string `json:"action,omitempty"`
}

// Has reports whether the named entity is set
func (e Entities) Has(field string) bool {
	switch field {
	case "item":
		return e.Item != ""
	case "size":
		return e.Size != ""
	case "quantity":
		return e.Quantity > 0
	case "order_id":
		return e.OrderID > 0
	case "address":
		return e.Address != ""
	case "phone":
		return e.Phone != ""
	case "category":
		return e.Category != ""
	case "action":
		return e.Action != ""
	}
	return false
}

// Map returns the set entities keyed by name
func (e Entities) Map() map[string]interface{} {
	out := map[string]interface{}{}
	if e.Item != "" {
		out["item"] = e.Item
	}
	if e.Size != "" {
		out["size"] = e.Size
	}
	if e.Quantity > 0 {
		out["quantity"] = e.Quantity
	}
	if e.OrderID > 0 {
		out["order_id"] = e.OrderID
	}
	if e.Address != "" {
		out["address"] = e.Address
	}
	if e.Phone != "" {
		out["phone"] = e.Phone
	}
	if e.Category != "" {
		out["category"] = e.Category
	}
	if e.Action != "" {
		out["action"] = e.Action
	}
	return out
}

// EntitiesFromMap converts loosely typed model output into Entities
func EntitiesFromMap(m map[string]interface{}) Entities {
	var e Entities
	e.Item = strings.ToLower(asString(m["item"]))
	if size, ok := SizeFromWord(asString(m["size"])); ok {
		e.Size = size
	}
	e.Quantity = asInt(m["quantity"])
	if id := asInt(m["order_id"]); id > 0 {
		e.OrderID = uint(id)
	}
	e.Address = asString(m["address"])
	e.Phone = asString(m["phone"])
	e.Category = asString(m["category"])
	e.Action = asString(m["action"])
	return e
}

func asString(v interface{}) string {
	switch t := v.(type) {
	case string:
		return strings.TrimSpace(t)
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	}
	return ""
}

func asInt(v interface{}) int {
	switch t := v.(type) {
	case float64:
		return int(t)
	case int:
		return t
	case string:
		s := strings.TrimPrefix(strings.TrimSpace(t), "#")
		if n, err := strconv.Atoi(s); err == nil {
			return n
		}
		if n, ok := textNumbers[LangEnglish][strings.ToLower(s)]; ok {
			return n
		}
	}
	return 0
}

// BatchItem is one item of a multi item request
type BatchItem struct {
	Item     string `json:"item"`
	Quantity int    `json:"quantity"`
	Size     string `json:"size,omitempty"`
}

// Result is the outcome of parsing one utterance
type Result struct {
	Intent     string      `json:"intent"`
	Lang       string      `json:"lang"`
	Entities   Entities    `json:"entities"`
	BatchItems []BatchItem `json:"batch_items,omitempty"`
	Source     Source      `json:"source"`
	Confidence float64     `json:"confidence"`
}

// IsBatch reports whether the utterance named more than one item
func (r *Result) IsBatch() bool {
	return len(r.BatchItems) > 1
}
