// Package clarification asks for the slots an intent is missing and
// fills them from follow-up messages.
package clarification

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"primos/internal/models"
	"primos/internal/nlp"
	"primos/internal/services"
)

// words in an item name that mark an addition sold in one size only
var additionKeywords = []string{"fries", "cola", "juice", "water", "drink"}

var digits = regexp.MustCompile(`\d+`)

// Service generates clarification questions
type Service struct {
	menu *services.MenuService
}

// NewService creates a clarification service
func NewService(menu *services.MenuService) *Service {
	return &Service{menu: menu}
}

// RequiredFields lists the entities an intent cannot run without
func RequiredFields(intent string, entities nlp.Entities) []string {
	switch intent {
	case nlp.IntentAddItem:
		item := strings.ToLower(entities.Item)
		for _, kw := range additionKeywords {
			if strings.Contains(item, kw) {
				return []string{"item"}
			}
		}
		return []string{"item", "size"}
	case nlp.IntentRemoveItem:
		return []string{"item"}
	case nlp.IntentTrackOrder:
		return []string{"order_id"}
	case nlp.IntentModifyOrder:
		return []string{"order_id", "action"}
	}
	return nil
}

// NeedsClarification reports whether required entities are missing and
// which ones
func (s *Service) NeedsClarification(intent string, entities nlp.Entities) (bool, []string) {
	var missing []string
	for _, field := range RequiredFields(intent, entities) {
		if !entities.Has(field) {
			missing = append(missing, field)
		}
	}
	return len(missing) > 0, missing
}

// Question phrases a clarification question for the missing fields
func (s *Service) Question(intent string, entities nlp.Entities, missing []string, lang string, cart *services.CartView) string {
	switch intent {
	case nlp.IntentAddItem:
		return s.clarifyAddItem(entities, missing, lang)
	case nlp.IntentRemoveItem:
		return clarifyRemoveItem(missing, lang, cart)
	case nlp.IntentTrackOrder:
		if contains(missing, "order_id") {
			if lang == nlp.LangArabic {
				return "محتاج رقم الطلب عشان اتابعه. رقم الطلب إيه؟"
			}
			return "I need your order number to track it. What's your order number?"
		}
	}
	return generic(missing, lang)
}

func (s *Service) clarifyAddItem(entities nlp.Entities, missing []string, lang string) string {
	if contains(missing, "item") {
		if lang == nlp.LangArabic {
			return "عايز تطلب إيه؟ قول اسم البيتزا أو الإضافة."
		}
		return "What would you like to order? Please tell me the item name."
	}

	if contains(missing, "size") && entities.Item != "" {
		item := s.findItem(entities.Item)
		var sizes []models.MenuSize
		if item != nil {
			sizes = item.AvailableSizes()
		}
		if len(sizes) == 0 {
			if lang == nlp.LangArabic {
				return fmt.Sprintf("آسف، مش لاقي '%s' في القائمة. ممكن تتأكد من الاسم؟", entities.Item)
			}
			return fmt.Sprintf("Sorry, I couldn't find '%s' in our menu. Could you check the name?", entities.Item)
		}

		if lang == nlp.LangArabic {
			return fmt.Sprintf("أي حجم عايز من %s؟\n%s", entities.Item, formatSizes(sizes, lang))
		}
		return fmt.Sprintf("What size would you like for %s?\n%s", entities.Item, formatSizes(sizes, lang))
	}
	return generic(missing, lang)
}

func clarifyRemoveItem(missing []string, lang string, cart *services.CartView) string {
	if cart == nil || len(cart.Items) == 0 {
		if lang == nlp.LangArabic {
			return "السلة فاضية، مفيهاش حاجة."
		}
		return "Your cart is empty. There's nothing to remove."
	}

	if contains(missing, "item") {
		lines := make([]string, len(cart.Items))
		for i, l := range cart.Items {
			lines[i] = fmt.Sprintf("  • %s (%s) × %d", l.ItemName, l.Size, l.Quantity)
		}
		if lang == nlp.LangArabic {
			return "عايز تشيل إيه؟\nفي السلة دلوقتي:\n" + strings.Join(lines, "\n")
		}
		return "What would you like to remove?\nCurrently in your cart:\n" + strings.Join(lines, "\n")
	}
	return generic(missing, lang)
}

func generic(missing []string, lang string) string {
	if lang == nlp.LangArabic {
		return "محتاج معلومات إضافية: " + strings.Join(missing, "، ")
	}
	return "I need more information: " + strings.Join(missing, ", ")
}

// findItem matches the name as a substring, then word by word
func (s *Service) findItem(name string) *models.MenuItem {
	item, err := s.menu.GetItemByName(name, false)
	if err == nil {
		return item
	}
	if !errors.Is(err, services.ErrItemNotFound) {
		return nil
	}
	for _, word := range strings.Fields(strings.ToLower(name)) {
		if len([]rune(word)) <= 3 {
			continue
		}
		if item, err := s.menu.GetItemByName(word, false); err == nil {
			return item
		}
	}
	return nil
}

func formatSizes(sizes []models.MenuSize, lang string) string {
	lines := make([]string, len(sizes))
	for i, sz := range sizes {
		if lang == nlp.LangArabic {
			lines[i] = fmt.Sprintf("  • %s (%s) - %s جنيه", sz.Size.ArabicName(), sz.Size, services.FormatAmount(sz.Price))
		} else {
			lines[i] = fmt.Sprintf("  • %s (%s) - %s %s", sz.Size.EnglishName(), sz.Size, services.FormatAmount(sz.Price), models.Currency)
		}
	}
	return strings.Join(lines, "\n")
}

// SuggestAlternatives names up to three menu items resembling name. It
// returns an empty string when nothing resembles it.
func (s *Service) SuggestAlternatives(name, lang string) (string, error) {
	items, err := s.menu.GetAllItems()
	if err != nil {
		return "", err
	}

	query := strings.ToLower(strings.TrimSpace(name))
	if query == "" {
		return "", nil
	}

	var matches []string
	for _, it := range items {
		n := strings.ToLower(it.Name)
		if strings.Contains(n, query) || strings.Contains(query, n) {
			matches = append(matches, it.Name)
		}
	}
	if len(matches) == 0 {
		words := strings.Fields(query)
		for _, it := range items {
			n := strings.ToLower(it.Name)
			for _, w := range words {
				if strings.Contains(n, w) {
					matches = append(matches, it.Name)
					break
				}
			}
		}
	}
	if len(matches) == 0 {
		return "", nil
	}
	if len(matches) > 3 {
		matches = matches[:3]
	}

	if lang == nlp.LangArabic {
		return fmt.Sprintf("مش لاقي '%s' بالضبط. ممكن تقصد: %s؟", name, strings.Join(matches, "، ")), nil
	}
	return fmt.Sprintf("Couldn't find '%s' exactly. Did you mean: %s?", name, strings.Join(matches, ", ")), nil
}

// ExtractFromContext reads a missing field out of a follow-up message
// such as "large" or "#12". ok is false when the message does not carry it.
func ExtractFromContext(message, field string) (value interface{}, ok bool) {
	text := strings.ToLower(strings.TrimSpace(message))
	switch field {
	case "size":
		size, _ := nlp.ExtractSize(text, nlp.DetectLanguage(text))
		if size != "" {
			return size, true
		}
		for _, w := range strings.Fields(text) {
			if size, ok := nlp.SizeFromWord(w); ok {
				return size, true
			}
		}
	case "quantity", "order_id":
		if m := digits.FindString(text); m != "" {
			n, err := strconv.Atoi(m)
			if err == nil && n > 0 {
				if field == "order_id" {
					return uint(n), true
				}
				return n, true
			}
		}
	case "item":
		if text != "" {
			return text, true
		}
	}
	return nil, false
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
