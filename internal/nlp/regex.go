package nlp

import (
	"regexp"
	"strconv"
	"strings"
	"unicode"
)

type pattern struct {
	re   *regexp.Regexp
	lang string
}

type intentPatterns struct {
	intent   string
	patterns []pattern
}

func en(expr string) pattern { return pattern{re: regexp.MustCompile(expr), lang: LangEnglish} }
func ar(expr string) pattern { return pattern{re: regexp.MustCompile(expr), lang: LangArabic} }

// Arabic words are bounded by whitespace or the ends of the text since
// \b only understands ASCII word characters.
const (
	arStart = `(?:^|\s)`
	arEnd   = `(?:\s|$)`
	// item text: letters, digits, spaces and the separators used in lists
	itemChars = `[\p{L}\p{N}_\s,،'&-]`
)

// intentTable is tried top to bottom; the first matching pattern wins.
// Whole utterance replies come before the open ended item patterns, and
// clear_cart before remove_item so "cancel my cart" empties the cart.
var intentTable = []intentPatterns{
	{IntentWelcome, []pattern{
		en(`\b(?:hi|hello|hey)\b`),
		ar(arStart + `(?:اهلا|أهلا|مرحبا|هاي)` + arEnd),
	}},
	{IntentConfirmation, []pattern{
		en(`^(?:yes|yes please|yeah|yep|yup|sure|ok|okay|correct|right|fine|alright|sounds good|that's right|go ahead|do it|add it)$`),
		ar(`^(?:نعم|ايوة|ايوه|أيوة|ماشي|تمام|صح|اه)$`),
	}},
	{IntentRejection, []pattern{
		en(`^(?:no|no thanks|nope|nah|not really|incorrect|wrong|cancel that)$`),
		ar(`^(?:لا|لأ|مش صح|غلط)$`),
	}},
	{IntentTrackOrder, []pattern{
		en(`\b(?:track|status of|where is|where's) (?:my )?order(?:\s+(?:number\s+|no\.?\s*|#)?(?P<order_id>\d+))?`),
		ar(`(?:عايز اعرف|حالة) طلبي(?:\s+رقم\s+(?P<order_id>\d+))?`),
	}},
	{IntentAddItem, []pattern{
		en(`\b(?:add|order|i want to order|i want|i'd like|i would like|get me|give me|can i have|i'll have)\s+(?:a\s+)?(?P<full_input>` + itemChars + `+?)(?:\s+(?:please|thanks|thank you))?$`),
		ar(`(?:ضيف|اطلب|طلب|عايز|عاوز)\s+(?P<full_input>` + itemChars + `+?)(?:\s+(?:من فضلك|شكرا))?$`),
	}},
	{IntentClearCart, []pattern{
		en(`\b(?:clear|empty|reset|cancel) (?:my |the )?cart\b`),
		ar(`(?:امسح|فضي|الغي) (?:السلة|الطلب)`),
	}},
	{IntentRemoveItem, []pattern{
		en(`\b(?:remove|delete|cancel|take out|drop)\s+(?P<item>[\p{L}\p{N}_\s'-]+)`),
		ar(`(?:شيل|احذف)\s+(?P<item>[\p{L}\p{N}_\s]+)`),
	}},
	{IntentViewCart, []pattern{
		en(`\b(?:show|view|what|see|check) (?:my |the )?cart\b`),
		en(`\bwhat'?s in (?:my |the )?cart\b`),
		en(`\b(?:what|how much|what's) (?:is )?(?:the |my )?total\b`),
		en(`\b(?:how much|what) (?:do |did )?i (?:order|have|spend)`),
		en(`\b(?:what's|show) (?:my )?(?:order|price)\b`),
		ar(`(?:اعرض|شف|شوف) (?:سلة )?(?:الطلب|السلة)|كام في السلة`),
		ar(`(?:كام|إيه|ايه) (?:المجموع|السعر)`),
	}},
	{IntentCheckout, []pattern{
		en(`\b(?:checkout|check out|confirm|place (?:my |the |an? )?order|pay|complete)\b`),
		ar(`(?:ادفع|اكمل|اتمم الطلب|قرر)`),
	}},
	{IntentGetPrice, []pattern{
		en(`\bhow much (?:is|are|for|does) (?:the |a |an )?(?P<item>[\p{L}\p{N}_\s'-]+?)(?:\s+cost)?$`),
		en(`\b(?:price|prices) of (?:the |a |an )?(?P<item>[\p{L}\p{N}_\s'-]+)$`),
		ar(`(?:بكام|سعر) (?P<item>[\p{L}\p{N}_\s]+)`),
	}},
	{IntentItemInfo, []pattern{
		en(`\b(?:tell me about|what is in|what's in|describe) (?:the |a |an )?(?P<item>[\p{L}\p{N}_\s'-]+)`),
	}},
	{IntentBrowseMenu, []pattern{
		en(`(?:what do you have|show (?:me )?(?:the )?menu|\bmenu\b|\bpizzas?\b|\bitems\b|\bdrinks\b|\bsides\b|\badditions\b)`),
		ar(`(?:في إيه|قائمة|عندك إيه|عندكم إيه|بيتزا|المنيو|مشروبات)`),
	}},
	{IntentNewOrder, []pattern{
		en(`\b(?:new order|start (?:an? )?(?:new )?order)\b`),
		ar(`(?:طلب جديد|ابدأ طلب)`),
	}},
}

var sizePatterns = map[string][]struct {
	code string
	re   *regexp.Regexp
}{
	LangEnglish: {
		{"S", regexp.MustCompile(`\b(?:small|s)\b`)},
		{"M", regexp.MustCompile(`\b(?:medium|m)\b`)},
		{"L", regexp.MustCompile(`\b(?:large|l|big)\b`)},
		{"REG", regexp.MustCompile(`\b(?:regular|reg)\b`)},
	},
	LangArabic: {
		{"S", regexp.MustCompile(arStart + `(?:صغير|صغيرة|ص)` + arEnd)},
		{"M", regexp.MustCompile(arStart + `(?:متوسط|وسط|م)` + arEnd)},
		{"L", regexp.MustCompile(arStart + `(?:كبير|كبيرة|ك)` + arEnd)},
		{"REG", regexp.MustCompile(arStart + `(?:عادي|عاد)` + arEnd)},
	},
}

var textNumbers = map[string]map[string]int{
	LangEnglish: {
		"one": 1, "two": 2, "three": 3, "four": 4, "five": 5,
		"six": 6, "seven": 7, "eight": 8, "nine": 9, "ten": 10,
	},
	LangArabic: {
		"واحد": 1, "اتنين": 2, "تلاتة": 3, "اربعة": 4, "خمسة": 5,
		"ستة": 6, "سبعة": 7, "تمانية": 8, "تسعة": 9, "عشرة": 10,
	},
}

var fillerWords = map[string]map[string]bool{
	LangEnglish: {"a": true, "an": true, "the": true, "some": true},
	LangArabic:  {},
}

// words that can follow an add verb without naming an item
var notItems = map[string]bool{
	"please": true, "thanks": true, "now": true, "it": true, "something": true,
	"جديد": true,
}

var (
	spaces        = regexp.MustCompile(`\s+`)
	leadingQty    = regexp.MustCompile(`^(\d+)\s*(\p{L}.*)$`)
	leadingNumber = regexp.MustCompile(`^(\d+)\s*(.+)$`)
	qtyItem       = regexp.MustCompile(`\d+\s*\p{L}`)
	separator     = regexp.MustCompile(`\s+(?:and|&|و)\s+|\s*[,،]\s*`)
	trailingSep   = regexp.MustCompile(`(?:\s+(?:and|&|و)|\s*[,،])\s*$`)
	cartSuffix    = regexp.MustCompile(`\s+(?:to|in|into|on) (?:my |the )?(?:cart|order|basket)$`)
	fromCart      = regexp.MustCompile(`\s+(?:from|out of|off) (?:my |the )?(?:cart|order|basket)$`)
)

// RegexParser maps utterances to intents with a fixed pattern table
type RegexParser struct{}

// NewRegexParser creates a regex parser
func NewRegexParser() *RegexParser {
	return &RegexParser{}
}

// DetectLanguage returns "ar" when text contains any Arabic letter
func DetectLanguage(text string) string {
	for _, r := range text {
		if r >= 0x0600 && r <= 0x06FF {
			return LangArabic
		}
	}
	return LangEnglish
}

// Normalize lowercases text and drops surrounding whitespace and
// trailing sentence punctuation
func Normalize(text string) string {
	text = strings.ToLower(strings.TrimSpace(text))
	text = strings.TrimRightFunc(text, func(r rune) bool {
		return r == '.' || r == '!' || r == '?' || r == '؟' || unicode.IsSpace(r)
	})
	return spaces.ReplaceAllString(text, " ")
}

// Parse returns the first matching intent. ok is false when no pattern matches.
func (p *RegexParser) Parse(text string) (*Result, bool) {
	clean := Normalize(text)
	if clean == "" {
		return nil, false
	}
	lang := DetectLanguage(clean)

	for _, ip := range intentTable {
		for _, pat := range ip.patterns {
			if pat.lang != lang {
				continue
			}
			m := pat.re.FindStringSubmatch(clean)
			if m == nil {
				continue
			}
			groups := namedGroups(pat.re, m)

			res := &Result{
				Intent:     ip.intent,
				Lang:       lang,
				Source:     SourceRegex,
				Confidence: 1.0,
			}

			switch ip.intent {
			case IntentAddItem:
				if !p.fillAddItem(res, groups["full_input"], lang) {
					continue
				}
			case IntentTrackOrder:
				if id, err := strconv.Atoi(groups["order_id"]); err == nil && id > 0 {
					res.Entities.OrderID = uint(id)
				}
			case IntentRemoveItem:
				res.Entities.Item = cleanItemName(fromCart.ReplaceAllString(strings.TrimSpace(groups["item"]), ""), lang)
			case IntentGetPrice, IntentItemInfo:
				res.Entities.Item = strings.TrimSpace(groups["item"])
			case IntentBrowseMenu:
				res.Entities.Category = detectCategory(clean)
			}
			return res, true
		}
	}
	return nil, false
}

func (p *RegexParser) fillAddItem(res *Result, fullInput, lang string) bool {
	input := strings.Trim(cartSuffix.ReplaceAllString(strings.TrimSpace(fullInput), ""), " ,،")

	if p.IsMultiItem(input) {
		if batch := p.ParseMultiItems(input, lang); len(batch) >= 2 {
			res.BatchItems = batch
			return true
		}
	}

	if qty, rest := textNumber(input, lang); qty > 0 {
		res.Entities.Quantity = qty
		input = rest
	} else if m := leadingQty.FindStringSubmatch(input); m != nil {
		res.Entities.Quantity = ParseQuantity(m[1])
		input = strings.TrimSpace(m[2])
	}

	size, rest := ExtractSize(input, lang)
	item := cleanItemName(rest, lang)
	if item == "" || notItems[item] {
		return false
	}

	res.Entities.Item = item
	res.Entities.Size = size
	return true
}

// IsMultiItem detects requests such as "1 fries 2 cola" or "fries and cola"
func (p *RegexParser) IsMultiItem(text string) bool {
	text = strings.ToLower(text)
	if len(qtyItem.FindAllStringIndex(text, -1)) >= 2 {
		return true
	}

	parts := separator.Split(text, -1)
	if len(parts) < 2 {
		return false
	}
	for _, part := range parts {
		if strings.TrimSpace(part) == "" {
			return false
		}
	}
	return true
}

// ParseMultiItems splits a multi item request. Numbered segments
// ("2 large margherita 3 cola") win over separator lists.
func (p *RegexParser) ParseMultiItems(text, lang string) []BatchItem {
	text = strings.ToLower(strings.TrimSpace(text))

	if starts := qtyItem.FindAllStringIndex(text, -1); len(starts) >= 2 {
		var items []BatchItem
		for i, loc := range starts {
			end := len(text)
			if i+1 < len(starts) {
				end = starts[i+1][0]
			}
			segment := trailingSep.ReplaceAllString(text[loc[0]:end], "")
			if item, ok := parseBatchPart(segment, lang); ok {
				items = append(items, item)
			}
		}
		return items
	}

	parts := separator.Split(text, -1)
	if len(parts) < 2 {
		return nil
	}
	var items []BatchItem
	for _, part := range parts {
		if item, ok := parseBatchPart(part, lang); ok {
			items = append(items, item)
		}
	}
	return items
}

func parseBatchPart(part, lang string) (BatchItem, bool) {
	part = strings.TrimSpace(part)
	if part == "" {
		return BatchItem{}, false
	}

	qty := 1
	if m := leadingNumber.FindStringSubmatch(part); m != nil {
		if n := ParseQuantity(m[1]); n > 0 {
			qty = n
		}
		part = m[2]
	} else if n, rest := textNumber(part, lang); n > 0 {
		qty = n
		part = rest
	}

	size, rest := ExtractSize(part, lang)
	name := cleanItemName(rest, lang)
	if name == "" {
		return BatchItem{}, false
	}
	return BatchItem{Item: name, Quantity: qty, Size: size}, true
}

// ParseQuantity reads a digit quantity. Values that do not fit an int
// count as no quantity and yield 0.
func ParseQuantity(s string) int {
	n, err := strconv.Atoi(s)
	if err != nil || n < 0 {
		return 0
	}
	return n
}

// ExtractSize finds a size word, returning its code and the text without it
func ExtractSize(text, lang string) (string, string) {
	text = strings.ToLower(strings.TrimSpace(text))
	patterns, ok := sizePatterns[lang]
	if !ok {
		patterns = sizePatterns[LangEnglish]
	}

	for _, sp := range patterns {
		if sp.re.MatchString(text) {
			cleaned := sp.re.ReplaceAllString(text, " ")
			return sp.code, strings.TrimSpace(spaces.ReplaceAllString(cleaned, " "))
		}
	}
	return "", text
}

// SizeFromWord maps a size code or word in either language to a code
func SizeFromWord(word string) (string, bool) {
	word = strings.ToLower(strings.TrimSpace(word))
	if word == "" {
		return "", false
	}
	switch strings.ToUpper(word) {
	case "S", "M", "L", "REG":
		return strings.ToUpper(word), true
	}
	for _, lang := range []string{LangEnglish, LangArabic} {
		for _, sp := range sizePatterns[lang] {
			if sp.re.MatchString(word) {
				return sp.code, true
			}
		}
	}
	return "", false
}

func textNumber(text, lang string) (int, string) {
	words := strings.Fields(text)
	if len(words) == 0 {
		return 0, text
	}
	nums, ok := textNumbers[lang]
	if !ok {
		nums = textNumbers[LangEnglish]
	}
	if n, ok := nums[words[0]]; ok {
		return n, strings.Join(words[1:], " ")
	}
	return 0, text
}

func cleanItemName(text, lang string) string {
	words := strings.Fields(strings.ToLower(text))
	fillers := fillerWords[lang]
	for len(words) > 0 && fillers[words[0]] {
		words = words[1:]
	}
	return strings.Join(words, " ")
}

func detectCategory(text string) string {
	switch {
	case strings.Contains(text, "pizza"), strings.Contains(text, "بيتزا"):
		return "pizza"
	case strings.Contains(text, "drink"), strings.Contains(text, "side"),
		strings.Contains(text, "addition"), strings.Contains(text, "مشروبات"):
		return "addition"
	}
	return ""
}

func namedGroups(re *regexp.Regexp, match []string) map[string]string {
	out := map[string]string{}
	for i, name := range re.SubexpNames() {
		if name != "" && i < len(match) && match[i] != "" {
			out[name] = match[i]
		}
	}
	return out
}
