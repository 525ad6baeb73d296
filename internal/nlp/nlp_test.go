package nlp

import (
	"context"
	"errors"
	"testing"

	"primos/internal/llm"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegexIntents(t *testing.T) {
	p := NewRegexParser()

	tests := []struct {
		text   string
		intent string
	}{
		{"Hello!", IntentWelcome},
		{"hey there", IntentWelcome},
		{"yes", IntentConfirmation},
		{"Okay.", IntentConfirmation},
		{"no thanks", IntentRejection},
		{"cancel that", IntentRejection},
		{"track my order", IntentTrackOrder},
		{"add cola", IntentAddItem},
		{"I want 2 fries", IntentAddItem},
		{"clear my cart", IntentClearCart},
		{"cancel my cart", IntentClearCart},
		{"remove the cola", IntentRemoveItem},
		{"show my cart", IntentViewCart},
		{"what's in my cart?", IntentViewCart},
		{"what is the total", IntentViewCart},
		{"checkout", IntentCheckout},
		{"place my order", IntentCheckout},
		{"how much is the margherita", IntentGetPrice},
		{"tell me about salami pizza", IntentItemInfo},
		{"show menu", IntentBrowseMenu},
		{"what do you have", IntentBrowseMenu},
		{"start a new order", IntentNewOrder},
		{"new order please", IntentNewOrder},
		{"مرحبا", IntentWelcome},
		{"نعم", IntentConfirmation},
		{"امسح السلة", IntentClearCart},
		{"اعرض السلة", IntentViewCart},
		{"ادفع", IntentCheckout},
		{"حالة طلبي رقم 7", IntentTrackOrder},
	}

	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			res, ok := p.Parse(tt.text)
			require.True(t, ok)
			assert.Equal(t, tt.intent, res.Intent)
			assert.Equal(t, SourceRegex, res.Source)
			assert.Equal(t, 1.0, res.Confidence)
		})
	}

	_, ok := p.Parse("the weather is nice today")
	assert.False(t, ok)
	_, ok = p.Parse("   ")
	assert.False(t, ok)
}

func TestRegexAddItemEntities(t *testing.T) {
	p := NewRegexParser()

	tests := []struct {
		text string
		want Entities
	}{
		{"Add 2 large Margherita please", Entities{Item: "margherita", Size: "L", Quantity: 2}},
		{"add a cola", Entities{Item: "cola"}},
		{"add one mango juice", Entities{Item: "mango juice", Quantity: 1}},
		{"add 3cola", Entities{Item: "cola", Quantity: 3}},
		{"i want a small salami pizza to my cart", Entities{Item: "salami pizza", Size: "S"}},
		{"give me the medium pastrami pizza", Entities{Item: "pastrami pizza", Size: "M"}},
		{"order big margherita", Entities{Item: "margherita", Size: "L"}},
		{"add regular fries", Entities{Item: "fries", Size: "REG"}},
		{"add 9223372036854775807 cola", Entities{Item: "cola"}},
	}

	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			res, ok := p.Parse(tt.text)
			require.True(t, ok)
			assert.Equal(t, IntentAddItem, res.Intent)
			assert.Equal(t, tt.want, res.Entities)
			assert.False(t, res.IsBatch())
		})
	}
}

func TestRegexArabicAddItem(t *testing.T) {
	res, ok := NewRegexParser().Parse("ضيف بيتزا كبير")
	require.True(t, ok)
	assert.Equal(t, LangArabic, res.Lang)
	assert.Equal(t, IntentAddItem, res.Intent)
	assert.Equal(t, "بيتزا", res.Entities.Item)
	assert.Equal(t, "L", res.Entities.Size)

	res, ok = NewRegexParser().Parse("عايز اتنين كولا")
	require.True(t, ok)
	assert.Equal(t, 2, res.Entities.Quantity)
	assert.Equal(t, "كولا", res.Entities.Item)
}

func TestRegexMultiItem(t *testing.T) {
	p := NewRegexParser()

	tests := []struct {
		text string
		want []BatchItem
	}{
		{"add 1fries 2cola", []BatchItem{{Item: "fries", Quantity: 1}, {Item: "cola", Quantity: 2}}},
		{"add 2 large margherita 3 cola", []BatchItem{{Item: "margherita", Quantity: 2, Size: "L"}, {Item: "cola", Quantity: 3}}},
		{"add fries and cola", []BatchItem{{Item: "fries", Quantity: 1}, {Item: "cola", Quantity: 1}}},
		{"add one fries and 2 cola", []BatchItem{{Item: "fries", Quantity: 1}, {Item: "cola", Quantity: 2}}},
		{"add a large salami pizza, a water", []BatchItem{{Item: "salami pizza", Quantity: 1, Size: "L"}, {Item: "water", Quantity: 1}}},
	}

	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			res, ok := p.Parse(tt.text)
			require.True(t, ok)
			assert.Equal(t, IntentAddItem, res.Intent)
			assert.True(t, res.IsBatch())
			assert.Equal(t, tt.want, res.BatchItems)
		})
	}
}

func TestRegexOtherEntities(t *testing.T) {
	p := NewRegexParser()

	res, ok := p.Parse("track my order number 42")
	require.True(t, ok)
	assert.Equal(t, uint(42), res.Entities.OrderID)

	res, ok = p.Parse("remove 2 cola from my cart")
	require.True(t, ok)
	assert.Equal(t, "2 cola", res.Entities.Item)

	res, ok = p.Parse("remove the cola")
	require.True(t, ok)
	assert.Equal(t, "cola", res.Entities.Item)

	res, ok = p.Parse("show me the pizzas")
	require.True(t, ok)
	assert.Equal(t, IntentBrowseMenu, res.Intent)
	assert.Equal(t, "pizza", res.Entities.Category)

	res, ok = p.Parse("how much is the margherita pizza")
	require.True(t, ok)
	assert.Equal(t, "margherita pizza", res.Entities.Item)
}

func TestExtractSizeAndDetectLanguage(t *testing.T) {
	size, rest := ExtractSize("Large Margherita", LangEnglish)
	assert.Equal(t, "L", size)
	assert.Equal(t, "margherita", rest)

	size, rest = ExtractSize("fries", LangEnglish)
	assert.Equal(t, "", size)
	assert.Equal(t, "fries", rest)

	code, ok := SizeFromWord("medium")
	assert.True(t, ok)
	assert.Equal(t, "M", code)
	code, ok = SizeFromWord("reg")
	assert.True(t, ok)
	assert.Equal(t, "REG", code)
	_, ok = SizeFromWord("huge")
	assert.False(t, ok)

	assert.Equal(t, LangArabic, DetectLanguage("عايز بيتزا"))
	assert.Equal(t, LangEnglish, DetectLanguage("pizza"))
}

type fakeExtractor struct {
	result *llm.IntentResult
	err    error
	calls  int
}

func (f *fakeExtractor) ExtractIntent(ctx context.Context, text, lang string) (*llm.IntentResult, error) {
	f.calls++
	return f.result, f.err
}

func TestHybridParser(t *testing.T) {
	ctx := context.Background()

	t.Run("regex first", func(t *testing.T) {
		ext := &fakeExtractor{}
		res := NewHybridParser(ext, nil).Parse(ctx, "add cola")
		assert.Equal(t, SourceRegex, res.Source)
		assert.Equal(t, 0, ext.calls)
	})

	t.Run("no llm", func(t *testing.T) {
		res := NewHybridParser(nil, nil).Parse(ctx, "the weather is nice")
		assert.Equal(t, "", res.Intent)
		assert.Equal(t, SourceNone, res.Source)
		assert.Equal(t, LangEnglish, res.Lang)
		assert.Equal(t, 0.0, res.Confidence)
		assert.Equal(t, Entities{}, res.Entities)
	})

	t.Run("llm fallback defaults confidence", func(t *testing.T) {
		ext := &fakeExtractor{result: &llm.IntentResult{
			Intent:   IntentAddItem,
			Entities: map[string]interface{}{"item": "Margherita", "size": "large", "quantity": 2.0},
		}}
		res := NewHybridParser(ext, nil).Parse(ctx, "I'd fancy something cheesy")
		assert.Equal(t, SourceLLM, res.Source)
		assert.Equal(t, 0.5, res.Confidence)
		assert.Equal(t, Entities{Item: "margherita", Size: "L", Quantity: 2}, res.Entities)
	})

	t.Run("llm confidence kept", func(t *testing.T) {
		c := 0.9
		ext := &fakeExtractor{result: &llm.IntentResult{Intent: IntentTrackOrder, Entities: map[string]interface{}{"order_id": "#12"}, Confidence: &c}}
		res := NewHybridParser(ext, nil).Parse(ctx, "where did my food go")
		assert.Equal(t, 0.9, res.Confidence)
		assert.Equal(t, uint(12), res.Entities.OrderID)
	})

	t.Run("llm error", func(t *testing.T) {
		ext := &fakeExtractor{err: errors.New("boom")}
		res := NewHybridParser(ext, nil).Parse(ctx, "the weather is nice")
		assert.Equal(t, SourceError, res.Source)
		assert.Equal(t, 0.0, res.Confidence)
	})
}

func TestParseQuantity(t *testing.T) {
	assert.Equal(t, 12, ParseQuantity("12"))
	assert.Equal(t, 0, ParseQuantity("99999999999999999999"))
	assert.Equal(t, 0, ParseQuantity("-3"))
	assert.Equal(t, 0, ParseQuantity("x"))
}
