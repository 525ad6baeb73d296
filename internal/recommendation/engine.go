package recommendation

import (
	"fmt"
	"strings"
	"time"

	"primos/internal/models"
	"primos/internal/services"

	"github.com/jinzhu/gorm"
)

const (
	BadgePopular = "🔥 Popular"
	BadgeForYou  = "✨ For You"
	BadgePair    = "🥤 Pair it"
	BadgeAddOn   = "🍟 Add on"
	BadgeTime    = "⏰ Right Time"
	BadgeFeature = "⭐ Featured"
)

// SizeOption is one orderable size of a recommended item
type SizeOption struct {
	Size       models.Size `json:"size"`
	Price      float64     `json:"price"`
	MenuSizeID uint        `json:"id"`
}

// Recommendation is a suggested menu item
type Recommendation struct {
	Name        string              `json:"name"`
	Category    models.MenuCategory `json:"category"`
	Description string              `json:"description,omitempty"`
	Sizes       []SizeOption        `json:"sizes"`
	OrderCount  int                 `json:"order_count,omitempty"`
	Reason      string              `json:"recommendation_reason"`
	Badge       string              `json:"badge"`
}

// Combo is a predefined bundle with a discount
type Combo struct {
	Name            string   `json:"name"`
	Items           []string `json:"items"`
	Description     string   `json:"description"`
	DiscountPercent float64  `json:"discount_percent"`
	Badge           string   `json:"badge"`
}

// Engine suggests items from the menu and order history
type Engine struct {
	db  *gorm.DB
	now func() time.Time
}

// NewEngine creates a recommendation engine
func NewEngine(db *gorm.DB) *Engine {
	return &Engine{db: db, now: time.Now}
}

// GetRecommendations combines complements, personal picks, popular items
// and time of day picks, falling back to featured menu items, up to max
// entries
func (e *Engine) GetRecommendations(userID uint, cart *services.CartView, max int) ([]Recommendation, error) {
	if max <= 0 {
		return nil, nil
	}

	var recs []Recommendation
	seen := map[string]bool{}
	add := func(items []Recommendation) {
		for _, r := range items {
			if len(recs) >= max {
				return
			}
			if !seen[r.Name] {
				seen[r.Name] = true
				recs = append(recs, r)
			}
		}
	}

	if cart != nil && len(cart.Items) > 0 {
		complements, err := e.Complementary(cart, 2)
		if err != nil {
			return nil, err
		}
		add(complements)
	}

	if len(recs) < max {
		personal, err := e.Personalized(userID, max-len(recs))
		if err != nil {
			return nil, err
		}
		add(personal)
	}

	if len(recs) < max {
		popular, err := e.Popular(max-len(recs), "", names(recs), 30)
		if err != nil {
			return nil, err
		}
		add(popular)
	}

	if len(recs) < max {
		timed, err := e.TimeBased(max - len(recs))
		if err != nil {
			return nil, err
		}
		add(timed)
	}

	if len(recs) < max {
		featured, err := e.Featured(max-len(recs), "", names(recs))
		if err != nil {
			return nil, err
		}
		add(featured)
	}
	return recs, nil
}

type popularRow struct {
	MenuItemName  string
	OrderCount    int
	TotalQuantity int
}

// Popular returns the most ordered items of the last days days.
// Cancelled orders do not count.
func (e *Engine) Popular(max int, category models.MenuCategory, exclude []string, days int) ([]Recommendation, error) {
	since := e.now().AddDate(0, 0, -days)

	q := e.db.Table("order_items").
		Select("order_items.menu_item_name, COUNT(order_items.id) AS order_count, SUM(order_items.quantity) AS total_quantity").
		Joins("JOIN orders ON orders.id = order_items.order_id").
		Where("orders.deleted_at IS NULL AND order_items.deleted_at IS NULL").
		Where("orders.created_at >= ?", since).
		Where("orders.status <> ?", models.OrderStatusCancelled)
	if len(exclude) > 0 {
		q = q.Where("order_items.menu_item_name NOT IN (?)", exclude)
	}

	var rows []popularRow
	err := q.Group("order_items.menu_item_name").
		Order("order_count DESC, total_quantity DESC").
		Limit(max).
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to query popular items: %w", err)
	}

	var recs []Recommendation
	for _, row := range rows {
		item, err := e.itemByName(row.MenuItemName)
		if err != nil {
			return nil, err
		}
		if item == nil || !item.IsAvailable {
			continue
		}
		if category != "" && item.Category != category {
			continue
		}
		rec := fromItem(item, "Popular choice", BadgePopular)
		rec.OrderCount = row.OrderCount
		recs = append(recs, rec)
	}
	return recs, nil
}

type favouriteRow struct {
	MenuItemName string
	OrderCount   int
}

// Personalized suggests unordered items from the categories of the
// user's three favourite items of the last 90 days
func (e *Engine) Personalized(userID uint, max int) ([]Recommendation, error) {
	since := e.now().AddDate(0, 0, -90)

	var favourites []favouriteRow
	err := e.db.Table("order_items").
		Select("order_items.menu_item_name, COUNT(order_items.id) AS order_count").
		Joins("JOIN orders ON orders.id = order_items.order_id").
		Where("orders.deleted_at IS NULL AND order_items.deleted_at IS NULL").
		Where("orders.user_id = ? AND orders.created_at >= ?", userID, since).
		Group("order_items.menu_item_name").
		Order("order_count DESC").
		Limit(3).
		Scan(&favourites).Error
	if err != nil {
		return nil, fmt.Errorf("failed to query order history: %w", err)
	}
	if len(favourites) == 0 {
		return nil, nil
	}

	ordered := make([]string, len(favourites))
	for i, f := range favourites {
		ordered[i] = f.MenuItemName
	}

	var recs []Recommendation
	for _, fav := range favourites {
		item, err := e.itemByName(fav.MenuItemName)
		if err != nil {
			return nil, err
		}
		if item == nil {
			continue
		}

		var similar []models.MenuItem
		err = e.db.Preload("Sizes").
			Where("category = ? AND is_available = ?", item.Category, true).
			Where("name NOT IN (?)", ordered).
			Order("id asc").
			Limit(2).
			Find(&similar).Error
		if err != nil {
			return nil, fmt.Errorf("failed to query similar items: %w", err)
		}

		for i := range similar {
			if len(recs) >= max {
				return recs, nil
			}
			recs = append(recs, fromItem(&similar[i], "Similar to your favorite "+fav.MenuItemName, BadgeForYou))
		}
	}
	return recs, nil
}

// Complementary suggests a drink and a side for carts with pizza
func (e *Engine) Complementary(cart *services.CartView, max int) ([]Recommendation, error) {
	if cart == nil || len(cart.Items) == 0 {
		return nil, nil
	}

	var hasPizza, hasDrink, hasSide bool
	for _, line := range cart.Items {
		name := strings.ToLower(line.ItemName)
		switch line.Category {
		case models.MenuCategoryPizza:
			hasPizza = true
		case models.MenuCategoryAddition:
			if strings.Contains(name, "cola") || strings.Contains(name, "juice") || strings.Contains(name, "water") {
				hasDrink = true
			}
			if strings.Contains(name, "fries") {
				hasSide = true
			}
		}
	}
	if !hasPizza {
		return nil, nil
	}

	var recs []Recommendation
	if !hasDrink {
		var drink models.MenuItem
		err := e.db.Preload("Sizes").
			Where("category = ? AND is_available = ?", models.MenuCategoryAddition, true).
			Where("name IN (?)", []string{"Cola", "Mango Juice"}).
			Order("id asc").
			First(&drink).Error
		switch {
		case err == nil:
			recs = append(recs, fromItem(&drink, "Perfect with your pizza!", BadgePair))
		case !gorm.IsRecordNotFoundError(err):
			return nil, fmt.Errorf("failed to query drinks: %w", err)
		}
	}

	if !hasSide && len(recs) < max {
		side, err := e.itemByName("Fries")
		if err != nil {
			return nil, err
		}
		if side != nil && side.IsAvailable {
			recs = append(recs, fromItem(side, "Complete your meal!", BadgeAddOn))
		}
	}

	if len(recs) > max {
		recs = recs[:max]
	}
	return recs, nil
}

// ComboDeals returns the predefined bundles
func (e *Engine) ComboDeals() []Combo {
	return []Combo{
		{
			Name:            "Family Combo",
			Items:           []string{"Large Pizza", "2 Cola", "Fries"},
			Description:     "Perfect for family dinner",
			DiscountPercent: 15,
			Badge:           "💰 Best Deal",
		},
		{
			Name:            "Solo Meal",
			Items:           []string{"Medium Pizza", "Cola"},
			Description:     "Quick meal for one",
			DiscountPercent: 10,
			Badge:           "🎯 Quick Meal",
		},
		{
			Name:            "Party Pack",
			Items:           []string{"3 Large Pizzas", "3 Cola", "2 Fries"},
			Description:     "Feed the whole party!",
			DiscountPercent: 20,
			Badge:           "🎉 Party",
		},
	}
}

// TimeBased suggests medium pizzas at lunch and large ones at dinner
func (e *Engine) TimeBased(max int) ([]Recommendation, error) {
	hour := e.now().Hour()

	var size models.Size
	var reason string
	switch {
	case hour >= 11 && hour < 15:
		size, reason = models.SizeMedium, "Quick lunch option"
	case hour >= 18 && hour < 23:
		size, reason = models.SizeLarge, "Perfect for dinner"
	default:
		return nil, nil
	}

	var pizzas []models.MenuItem
	err := e.db.Preload("Sizes").
		Where("category = ? AND is_available = ?", models.MenuCategoryPizza, true).
		Order("id asc").
		Limit(max).
		Find(&pizzas).Error
	if err != nil {
		return nil, fmt.Errorf("failed to query pizzas: %w", err)
	}

	var recs []Recommendation
	for _, p := range pizzas {
		for _, s := range p.Sizes {
			if s.Size == size && s.IsAvailable {
				recs = append(recs, Recommendation{
					Name:        p.Name,
					Category:    p.Category,
					Description: p.Description,
					Sizes:       []SizeOption{{Size: s.Size, Price: s.Price, MenuSizeID: s.ID}},
					Reason:      reason,
					Badge:       BadgeTime,
				})
				break
			}
		}
	}
	return recs, nil
}

// Featured returns available menu items in menu order. It is used when
// there is no order history to learn from.
func (e *Engine) Featured(max int, category models.MenuCategory, exclude []string) ([]Recommendation, error) {
	q := e.db.Preload("Sizes").Where("is_available = ?", true).Order("id asc").Limit(max)
	if category != "" {
		q = q.Where("category = ?", category)
	}
	if len(exclude) > 0 {
		q = q.Where("name NOT IN (?)", exclude)
	}

	var items []models.MenuItem
	if err := q.Find(&items).Error; err != nil {
		return nil, fmt.Errorf("failed to query featured items: %w", err)
	}

	recs := make([]Recommendation, 0, len(items))
	for i := range items {
		recs = append(recs, fromItem(&items[i], "Great choice", BadgeFeature))
	}
	return recs, nil
}

// FormatText renders recommendations as a chat block
func FormatText(recs []Recommendation, lang string) string {
	if len(recs) == 0 {
		return ""
	}

	header, currency := "🎯 Recommendations for you:\n\n", models.Currency
	if lang == "ar" {
		header, currency = "🎯 اقتراحات ليك:\n\n", "جنيه"
	}

	var b strings.Builder
	b.WriteString(header)
	for _, r := range recs {
		badge := r.Badge
		if badge == "" {
			badge = "⭐"
		}
		fmt.Fprintf(&b, "%s %s\n", badge, r.Name)
		if r.Reason != "" {
			fmt.Fprintf(&b, "   %s\n", r.Reason)
		}
		switch len(r.Sizes) {
		case 0:
		case 1:
			fmt.Fprintf(&b, "   %s %s\n", services.FormatAmount(r.Sizes[0].Price), currency)
		default:
			parts := make([]string, len(r.Sizes))
			for i, s := range r.Sizes {
				parts[i] = fmt.Sprintf("%s(%s %s)", s.Size, services.FormatAmount(s.Price), currency)
			}
			fmt.Fprintf(&b, "   %s\n", strings.Join(parts, ", "))
		}
		b.WriteString("\n")
	}
	return b.String()
}

func (e *Engine) itemByName(name string) (*models.MenuItem, error) {
	var item models.MenuItem
	if err := e.db.Preload("Sizes").Where("name = ?", name).First(&item).Error; err != nil {
		if gorm.IsRecordNotFoundError(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to load menu item %q: %w", name, err)
	}
	return &item, nil
}

func fromItem(item *models.MenuItem, reason, badge string) Recommendation {
	rec := Recommendation{
		Name:        item.Name,
		Category:    item.Category,
		Description: item.Description,
		Reason:      reason,
		Badge:       badge,
	}
	for _, s := range item.AvailableSizes() {
		rec.Sizes = append(rec.Sizes, SizeOption{Size: s.Size, Price: s.Price, MenuSizeID: s.ID})
	}
	return rec
}

func names(recs []Recommendation) []string {
	out := make([]string, len(recs))
	for i, r := range recs {
		out[i] = r.Name
	}
	return out
}
