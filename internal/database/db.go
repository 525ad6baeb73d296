package database

import (
	"fmt"

	"primos/internal/models"

	"github.com/jinzhu/gorm"
	_ "github.com/jinzhu/gorm/dialects/postgres" // PostgreSQL driver
	_ "github.com/mattn/go-sqlite3"              // SQLite driver
)

var DB *gorm.DB

// Supported drivers
const (
	DriverSQLite   = "sqlite3"
	DriverPostgres = "postgres"
	DriverMemory   = "memory"
)

// Open connects to the store without touching the global handle.
// The memory driver is a private sqlite database pinned to one connection.
func Open(driver, dsn string) (*gorm.DB, error) {
	switch driver {
	case DriverMemory:
		db, err := gorm.Open(DriverSQLite, ":memory:")
		if err != nil {
			return nil, fmt.Errorf("failed to open in-memory database: %w", err)
		}
		// every new connection to :memory: is a fresh database
		db.DB().SetMaxOpenConns(1)
		return db, nil
	case DriverSQLite, DriverPostgres:
		db, err := gorm.Open(driver, dsn)
		if err != nil {
			return nil, fmt.Errorf("failed to open %s database: %w", driver, err)
		}
		if driver == DriverSQLite {
			db.DB().SetMaxOpenConns(1)
		}
		return db, nil
	default:
		return nil, fmt.Errorf("unsupported database driver: %s", driver)
	}
}

// InitDB opens the database, migrates it and stores the global handle
func InitDB(driver, dsn string, seed bool) (*gorm.DB, error) {
	db, err := Open(driver, dsn)
	if err != nil {
		return nil, err
	}
	if err := Migrate(db); err != nil {
		db.Close()
		return nil, err
	}
	if seed {
		if err := Seed(db); err != nil {
			db.Close()
			return nil, err
		}
	}
	DB = db
	return db, nil
}

// OpenInMemory returns a migrated and seeded private database
func OpenInMemory() (*gorm.DB, error) {
	db, err := Open(DriverMemory, "")
	if err != nil {
		return nil, err
	}
	if err := Migrate(db); err != nil {
		db.Close()
		return nil, err
	}
	if err := Seed(db); err != nil {
		db.Close()
		return nil, err
	}
	return db, nil
}

// Migrate creates or updates every table the service needs
func Migrate(db *gorm.DB) error {
	err := db.AutoMigrate(
		&models.User{},
		&models.MenuItem{},
		&models.MenuSize{},
		&models.Cart{},
		&models.CartItem{},
		&models.Order{},
		&models.OrderItem{},
		&models.ConversationHistory{},
	).Error
	if err != nil {
		return fmt.Errorf("failed to migrate database: %w", err)
	}

	// one cart per user and one line per (cart, menu size)
	if err := db.Model(&models.Cart{}).AddUniqueIndex("idx_carts_user", "user_id").Error; err != nil {
		return fmt.Errorf("failed to index carts: %w", err)
	}
	if err := db.Model(&models.CartItem{}).AddUniqueIndex("idx_cart_menu_size", "cart_id", "menu_size_id").Error; err != nil {
		return fmt.Errorf("failed to index cart items: %w", err)
	}
	return nil
}

// GetDB returns the database instance
func GetDB() *gorm.DB {
	return DB
}

// CloseDB closes the database connection
func CloseDB() error {
	if DB != nil {
		return DB.Close()
	}
	return nil
}
