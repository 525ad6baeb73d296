package clarification

import (
	"testing"

	"primos/internal/database"
	"primos/internal/models"
	"primos/internal/nlp"
	"primos/internal/services"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newService(t *testing.T) *Service {
	t.Helper()
	db, err := database.OpenInMemory()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return NewService(services.NewMenuService(db))
}

func TestNeedsClarification(t *testing.T) {
	s := &Service{}

	tests := []struct {
		intent   string
		entities nlp.Entities
		missing  []string
	}{
		{nlp.IntentAddItem, nlp.Entities{}, []string{"item", "size"}},
		{nlp.IntentAddItem, nlp.Entities{Item: "margherita"}, []string{"size"}},
		{nlp.IntentAddItem, nlp.Entities{Item: "margherita", Size: "L"}, nil},
		{nlp.IntentAddItem, nlp.Entities{Item: "cola"}, nil},
		{nlp.IntentAddItem, nlp.Entities{Item: "mango juice"}, nil},
		{nlp.IntentRemoveItem, nlp.Entities{}, []string{"item"}},
		{nlp.IntentTrackOrder, nlp.Entities{}, []string{"order_id"}},
		{nlp.IntentTrackOrder, nlp.Entities{OrderID: 3}, nil},
		{nlp.IntentModifyOrder, nlp.Entities{OrderID: 3}, []string{"action"}},
		{nlp.IntentViewCart, nlp.Entities{}, nil},
	}

	for _, tt := range tests {
		t.Run(tt.intent, func(t *testing.T) {
			needs, missing := s.NeedsClarification(tt.intent, tt.entities)
			assert.Equal(t, len(tt.missing) > 0, needs)
			assert.Equal(t, tt.missing, missing)
		})
	}
}

func TestAddItemQuestions(t *testing.T) {
	s := newService(t)

	q := s.Question(nlp.IntentAddItem, nlp.Entities{}, []string{"item", "size"}, nlp.LangEnglish, nil)
	assert.Equal(t, "What would you like to order? Please tell me the item name.", q)

	q = s.Question(nlp.IntentAddItem, nlp.Entities{}, []string{"item"}, nlp.LangArabic, nil)
	assert.Equal(t, "عايز تطلب إيه؟ قول اسم البيتزا أو الإضافة.", q)

	q = s.Question(nlp.IntentAddItem, nlp.Entities{Item: "margherita"}, []string{"size"}, nlp.LangEnglish, nil)
	assert.Equal(t, "What size would you like for margherita?\n"+
		"  • Small (S) - 83 EGP\n"+
		"  • Medium (M) - 100 EGP\n"+
		"  • Large (L) - 140 EGP", q)

	// word fallback finds the item inside a longer phrase
	q = s.Question(nlp.IntentAddItem, nlp.Entities{Item: "spicy salami"}, []string{"size"}, nlp.LangEnglish, nil)
	assert.Contains(t, q, "What size would you like for spicy salami?")
	assert.Contains(t, q, "Large (L) - 180 EGP")

	q = s.Question(nlp.IntentAddItem, nlp.Entities{Item: "sushi"}, []string{"size"}, nlp.LangEnglish, nil)
	assert.Equal(t, "Sorry, I couldn't find 'sushi' in our menu. Could you check the name?", q)

	q = s.Question(nlp.IntentAddItem, nlp.Entities{Item: "margherita"}, []string{"size"}, nlp.LangArabic, nil)
	assert.Contains(t, q, "أي حجم عايز من margherita؟")
	assert.Contains(t, q, "كبير (L) - 140 جنيه")
}

func TestRemoveAndTrackQuestions(t *testing.T) {
	s := newService(t)

	q := s.Question(nlp.IntentRemoveItem, nlp.Entities{}, []string{"item"}, nlp.LangEnglish, nil)
	assert.Equal(t, "Your cart is empty. There's nothing to remove.", q)

	cart := &services.CartView{Items: []services.CartLine{
		{ItemName: "Salami Pizza", Size: models.SizeMedium, Quantity: 2},
		{ItemName: "Cola", Size: models.SizeRegular, Quantity: 1},
	}}
	q = s.Question(nlp.IntentRemoveItem, nlp.Entities{}, []string{"item"}, nlp.LangEnglish, cart)
	assert.Equal(t, "What would you like to remove?\nCurrently in your cart:\n"+
		"  • Salami Pizza (M) × 2\n  • Cola (REG) × 1", q)

	q = s.Question(nlp.IntentTrackOrder, nlp.Entities{}, []string{"order_id"}, nlp.LangEnglish, nil)
	assert.Equal(t, "I need your order number to track it. What's your order number?", q)

	q = s.Question(nlp.IntentModifyOrder, nlp.Entities{}, []string{"order_id", "action"}, nlp.LangEnglish, nil)
	assert.Equal(t, "I need more information: order_id, action", q)

	q = s.Question(nlp.IntentModifyOrder, nlp.Entities{}, []string{"order_id", "action"}, nlp.LangArabic, nil)
	assert.Equal(t, "محتاج معلومات إضافية: order_id، action", q)
}

func TestSuggestAlternatives(t *testing.T) {
	s := newService(t)

	msg, err := s.SuggestAlternatives("pepperoni", nlp.LangEnglish)
	require.NoError(t, err)
	assert.Equal(t, "Couldn't find 'pepperoni' exactly. Did you mean: Double Pepperoni Pizza?", msg)

	// word matching caps at three
	msg, err = s.SuggestAlternatives("veg pizza", nlp.LangEnglish)
	require.NoError(t, err)
	assert.Equal(t, "Couldn't find 'veg pizza' exactly. Did you mean: Margherita Pizza, Vegetables Pizza, Mushroom Pizza?", msg)

	msg, err = s.SuggestAlternatives("sushi", nlp.LangEnglish)
	require.NoError(t, err)
	assert.Empty(t, msg)
}

func TestExtractFromContext(t *testing.T) {
	tests := []struct {
		msg   string
		field string
		want  interface{}
		ok    bool
	}{
		{"large", "size", "L", true},
		{"make it medium please", "size", "M", true},
		{"كبير", "size", "L", true},
		{"regular", "size", "REG", true},
		{"yes", "size", nil, false},
		{"3", "quantity", 3, true},
		{"I want 2", "quantity", 2, true},
		{"order #42", "order_id", uint(42), true},
		{"none", "order_id", nil, false},
		{"cola", "item", "cola", true},
	}

	for _, tt := range tests {
		t.Run(tt.field+"/"+tt.msg, func(t *testing.T) {
			got, ok := ExtractFromContext(tt.msg, tt.field)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}
