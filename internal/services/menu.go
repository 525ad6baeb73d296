package services

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"primos/internal/models"

	"github.com/jinzhu/gorm"
	"github.com/patrickmn/go-cache"
)

// MenuService queries and manages menu items
type MenuService struct {
	db    *gorm.DB
	cache *cache.Cache
}

// ItemPrices is a menu item with every size and price
type ItemPrices struct {
	ID       uint                `json:"id"`
	Name     string              `json:"name"`
	Category models.MenuCategory `json:"category"`
	Sizes    []SizePrice         `json:"sizes"`
}

// SizePrice is one priced size of an item
type SizePrice struct {
	Size        models.Size `json:"size"`
	Price       float64     `json:"price"`
	MenuSizeID  uint        `json:"menu_size_id"`
	IsAvailable bool        `json:"is_available"`
}

// NewMenuService creates a menu service. Name lookups are cached until
// availability changes.
func NewMenuService(db *gorm.DB) *MenuService {
	return &MenuService{
		db:    db,
		cache: cache.New(10*time.Minute, 20*time.Minute),
	}
}

func preloadSizes(db *gorm.DB) *gorm.DB {
	return db.Preload("Sizes", func(db *gorm.DB) *gorm.DB {
		return db.Order("menu_sizes.id asc")
	})
}

// GetItemByName finds an item case-insensitively. Without exact the name
// may be any substring of the item name.
func (s *MenuService) GetItemByName(name string, exact bool) (*models.MenuItem, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, ErrItemNotFound
	}

	key := fmt.Sprintf("name:%t:%s", exact, strings.ToLower(name))
	if id, ok := s.cache.Get(key); ok {
		return s.GetItemByID(id.(uint))
	}

	q := preloadSizes(s.db).Order("id asc")
	if exact {
		q = q.Where("LOWER(name) = ?", strings.ToLower(name))
	} else {
		q = q.Where(nameLike, containsPattern(name))
	}

	var item models.MenuItem
	if err := q.First(&item).Error; err != nil {
		if gorm.IsRecordNotFoundError(err) {
			return nil, ErrItemNotFound
		}
		return nil, fmt.Errorf("failed to look up menu item %q: %w", name, err)
	}

	s.cache.Set(key, item.ID, cache.DefaultExpiration)
	return &item, nil
}

// SearchItemsFuzzy returns substring matches ordered by name length
// distance to the query. When nothing matches, words longer than three
// letters are tried on their own.
func (s *MenuService) SearchItemsFuzzy(query string, category models.MenuCategory) ([]models.MenuItem, error) {
	query = strings.ToLower(strings.TrimSpace(query))
	if query == "" {
		return nil, nil
	}

	items, err := s.SearchItems(query, category)
	if err != nil {
		return nil, err
	}

	if len(items) == 0 {
		seen := map[uint]bool{}
		for _, word := range strings.Fields(query) {
			if len([]rune(word)) <= 3 {
				continue
			}
			matches, err := s.SearchItems(word, category)
			if err != nil {
				return nil, err
			}
			for _, m := range matches {
				if !seen[m.ID] {
					seen[m.ID] = true
					items = append(items, m)
				}
			}
		}
	}

	sort.SliceStable(items, func(i, j int) bool {
		return abs(len(items[i].Name)-len(query)) < abs(len(items[j].Name)-len(query))
	})
	return items, nil
}

// SearchItems returns items whose name contains query
func (s *MenuService) SearchItems(query string, category models.MenuCategory) ([]models.MenuItem, error) {
	q := preloadSizes(s.db).
		Where(nameLike, containsPattern(query)).
		Order("id asc")
	if category != "" {
		q = q.Where("category = ?", category)
	}

	var items []models.MenuItem
	if err := q.Find(&items).Error; err != nil {
		return nil, fmt.Errorf("failed to search menu: %w", err)
	}
	return items, nil
}

// GetAllItems returns the whole menu
func (s *MenuService) GetAllItems() ([]models.MenuItem, error) {
	var items []models.MenuItem
	if err := preloadSizes(s.db).Order("id asc").Find(&items).Error; err != nil {
		return nil, fmt.Errorf("failed to list menu: %w", err)
	}
	return items, nil
}

// GetItemByID loads an item with its sizes
func (s *MenuService) GetItemByID(id uint) (*models.MenuItem, error) {
	var item models.MenuItem
	if err := preloadSizes(s.db).First(&item, id).Error; err != nil {
		if gorm.IsRecordNotFoundError(err) {
			return nil, ErrItemNotFound
		}
		return nil, fmt.Errorf("failed to load menu item %d: %w", id, err)
	}
	return &item, nil
}

// GetItemSizePrice returns the requested size of an item
func (s *MenuService) GetItemSizePrice(itemID uint, size string, checkAvailability bool) (*models.MenuSize, error) {
	q := s.db.Where("menu_item_id = ? AND size = ?", itemID, strings.ToUpper(strings.TrimSpace(size)))
	if checkAvailability {
		q = q.Where("is_available = ?", true)
	}

	var ms models.MenuSize
	if err := q.First(&ms).Error; err != nil {
		if gorm.IsRecordNotFoundError(err) {
			return nil, ErrMenuSizeNotFound
		}
		return nil, fmt.Errorf("failed to load size %s of item %d: %w", size, itemID, err)
	}
	return &ms, nil
}

// GetItemsByCategory lists the items of one category
func (s *MenuService) GetItemsByCategory(category models.MenuCategory, availableOnly bool) ([]models.MenuItem, error) {
	q := preloadSizes(s.db).Where("category = ?", category).Order("id asc")
	if availableOnly {
		q = q.Where("is_available = ?", true)
	}

	var items []models.MenuItem
	if err := q.Find(&items).Error; err != nil {
		return nil, fmt.Errorf("failed to list %s items: %w", category, err)
	}
	return items, nil
}

// GetAllPizzas lists pizzas
func (s *MenuService) GetAllPizzas(availableOnly bool) ([]models.MenuItem, error) {
	return s.GetItemsByCategory(models.MenuCategoryPizza, availableOnly)
}

// GetAllAdditions lists everything that is not a pizza
func (s *MenuService) GetAllAdditions(availableOnly bool) ([]models.MenuItem, error) {
	q := preloadSizes(s.db).Where("category <> ?", models.MenuCategoryPizza).Order("id asc")
	if availableOnly {
		q = q.Where("is_available = ?", true)
	}

	var items []models.MenuItem
	if err := q.Find(&items).Error; err != nil {
		return nil, fmt.Errorf("failed to list additions: %w", err)
	}
	return items, nil
}

// GetItemWithAllPrices returns every size of an item, available or not
func (s *MenuService) GetItemWithAllPrices(id uint) (*ItemPrices, error) {
	item, err := s.GetItemByID(id)
	if err != nil {
		return nil, err
	}

	prices := &ItemPrices{ID: item.ID, Name: item.Name, Category: item.Category}
	for _, size := range item.Sizes {
		prices.Sizes = append(prices.Sizes, SizePrice{
			Size:        size.Size,
			Price:       size.Price,
			MenuSizeID:  size.ID,
			IsAvailable: size.IsAvailable,
		})
	}
	return prices, nil
}

// FormatItemForDisplay renders "Name (S: 83 EGP, M: 100 EGP)"
func (s *MenuService) FormatItemForDisplay(item *models.MenuItem, showAvailability bool) string {
	if item == nil {
		return ""
	}

	available := item.AvailableSizes()
	if len(available) == 0 {
		return item.Name + " (Currently unavailable)"
	}

	parts := make([]string, 0, len(available))
	for _, size := range available {
		parts = append(parts, fmt.Sprintf("%s: %s %s", size.Size, FormatAmount(size.Price), models.Currency))
	}
	result := fmt.Sprintf("%s (%s)", item.Name, strings.Join(parts, ", "))

	if showAvailability && !item.IsAvailable {
		result += " [OUT OF STOCK]"
	}
	return result
}

// IsItemAvailable reports whether an item can be ordered
func (s *MenuService) IsItemAvailable(id uint) bool {
	item, err := s.GetItemByID(id)
	return err == nil && item.IsAvailable
}

// IsSizeAvailable reports whether a size can be ordered
func (s *MenuService) IsSizeAvailable(menuSizeID uint) bool {
	var ms models.MenuSize
	if err := s.db.First(&ms, menuSizeID).Error; err != nil {
		return false
	}
	return ms.IsAvailable
}

// SetItemAvailability toggles an item
func (s *MenuService) SetItemAvailability(id uint, available bool) error {
	res := s.db.Model(&models.MenuItem{}).Where("id = ?", id).Update("is_available", available)
	if res.Error != nil {
		return fmt.Errorf("failed to update item %d: %w", id, res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrItemNotFound
	}
	s.cache.Flush()
	return nil
}

// SetSizeAvailability toggles one size of an item
func (s *MenuService) SetSizeAvailability(menuSizeID uint, available bool) error {
	res := s.db.Model(&models.MenuSize{}).Where("id = ?", menuSizeID).Update("is_available", available)
	if res.Error != nil {
		return fmt.Errorf("failed to update size %d: %w", menuSizeID, res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrMenuSizeNotFound
	}
	s.cache.Flush()
	return nil
}

const nameLike = `LOWER(name) LIKE ? ESCAPE '\'`

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// containsPattern matches s literally anywhere in a lowercased column
func containsPattern(s string) string {
	return "%" + likeEscaper.Replace(strings.ToLower(strings.TrimSpace(s))) + "%"
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}
