// Package dbtest opens throwaway sqlite databases with the full schema for
// repository and service tests.
package dbtest

import (
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/angelmondragon/storefront-backend/pkg/db"
	"github.com/angelmondragon/storefront-backend/pkg/db/models"
)

// Open returns a client on a private in-memory database. The pool holds a
// single connection so concurrent transactions serialise the way row locks
// would on postgres.
func Open(t testing.TB) *db.Client {
	t.Helper()
	dsn := fmt.Sprintf("file:storefront_%s?mode=memory&cache=shared", uuid.NewString())
	conn, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		SkipDefaultTransaction: true,
		Logger:                 gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	sqlDB, err := conn.DB()
	if err != nil {
		t.Fatalf("sql handle: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	if err := conn.AutoMigrate(models.All()...); err != nil {
		t.Fatalf("migrate sqlite: %v", err)
	}
	return db.NewFromGorm(conn)
}

// ProductOpts overrides fixture defaults. Zero values keep the default.
type ProductOpts struct {
	Name         string
	Slug         string
	Price        string
	ComparePrice string
	Stock        int
	CategoryID   *uuid.UUID
	Inactive     bool
	Featured     bool
	Images       []string
}

// MustCategory inserts an active category.
func MustCategory(t testing.TB, conn *gorm.DB, name string) *models.Category {
	t.Helper()
	cat := &models.Category{
		Name:     name,
		Slug:     slugFor(name),
		IsActive: true,
	}
	if err := conn.Create(cat).Error; err != nil {
		t.Fatalf("create category: %v", err)
	}
	return cat
}

// MustProduct inserts a product, defaulting to an active 10.00 item with no
// stock.
func MustProduct(t testing.TB, conn *gorm.DB, opts ProductOpts) *models.Product {
	t.Helper()
	if opts.Name == "" {
		opts.Name = "Product " + uuid.NewString()[:8]
	}
	if opts.Slug == "" {
		opts.Slug = slugFor(opts.Name)
	}
	if opts.Price == "" {
		opts.Price = "10.00"
	}
	sku := "SKU-" + uuid.NewString()[:8]
	product := &models.Product{
		Name:          opts.Name,
		Slug:          opts.Slug,
		Price:         decimal.RequireFromString(opts.Price),
		SKU:           &sku,
		StockQuantity: opts.Stock,
		CategoryID:    opts.CategoryID,
		IsActive:      true,
		IsFeatured:    opts.Featured,
		Images:        opts.Images,
	}
	if opts.ComparePrice != "" {
		cp := decimal.RequireFromString(opts.ComparePrice)
		product.ComparePrice = &cp
	}
	if err := conn.Create(product).Error; err != nil {
		t.Fatalf("create product: %v", err)
	}
	// is_active has a database default of true, so false must be written
	// after the insert.
	if opts.Inactive {
		if err := conn.Model(product).Update("is_active", false).Error; err != nil {
			t.Fatalf("deactivate product: %v", err)
		}
		product.IsActive = false
	}
	return product
}

func slugFor(name string) string {
	out := make([]rune, 0, len(name))
	for _, r := range name {
		switch {
		case r >= 'A' && r <= 'Z':
			out = append(out, r+('a'-'A'))
		case (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9'):
			out = append(out, r)
		default:
			out = append(out, '-')
		}
	}
	return string(out)
}
