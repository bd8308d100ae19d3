package products

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/angelmondragon/storefront-backend/pkg/db/models"
	"github.com/angelmondragon/storefront-backend/pkg/enums"
)

// Repository reads the catalog.
type Repository struct {
	db *gorm.DB
}

// NewRepository binds a GORM DB to catalog queries.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// WithTx returns a repository bound to tx.
func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	if tx == nil {
		return r
	}
	return &Repository{db: tx}
}

// SearchParams is a validated, normalized catalog query.
type SearchParams struct {
	Text         string
	CategoryID   *uuid.UUID
	CategorySlug string
	MinPrice     *decimal.Decimal
	MaxPrice     *decimal.Decimal
	SortBy       enums.ProductSortKey
	SortOrder    enums.SortDirection
	Limit        int
	Offset       int
}

// Search returns one page of active products plus the total match count.
func (r *Repository) Search(ctx context.Context, p SearchParams) ([]models.Product, int64, error) {
	var total int64
	if err := r.filtered(ctx, p).Model(&models.Product{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var rows []models.Product
	if total == 0 {
		return rows, 0, nil
	}

	sortKey := p.SortBy
	if !sortKey.IsValid() {
		sortKey = enums.ProductSortCreatedAt
	}
	err := r.filtered(ctx, p).
		Preload("Category").
		Order(clause.OrderByColumn{
			Column: clause.Column{Table: "products", Name: sortKey.String()},
			Desc:   p.SortOrder != enums.SortAsc,
		}).
		Order("products.id ASC").
		Limit(p.Limit).
		Offset(p.Offset).
		Find(&rows).Error
	if err != nil {
		return nil, 0, err
	}
	return rows, total, nil
}

func (r *Repository) filtered(ctx context.Context, p SearchParams) *gorm.DB {
	q := r.db.WithContext(ctx).Table("products").Where("products.is_active = ?", true)

	if text := strings.ToLower(strings.TrimSpace(p.Text)); text != "" {
		pattern := "%" + escapeLike(text) + "%"
		q = q.Where(
			"(LOWER(products.name) LIKE ? ESCAPE '\\' OR LOWER(COALESCE(products.description, '')) LIKE ? ESCAPE '\\' OR LOWER(COALESCE(products.short_description, '')) LIKE ? ESCAPE '\\')",
			pattern, pattern, pattern,
		)
	}
	switch {
	case p.CategoryID != nil:
		q = q.Where("products.category_id = ?", *p.CategoryID)
	case p.CategorySlug != "":
		q = q.Where("products.category_id IN (SELECT id FROM categories WHERE slug = ?)", p.CategorySlug)
	}
	if p.MinPrice != nil {
		q = q.Where("products.price >= ?", *p.MinPrice)
	}
	if p.MaxPrice != nil {
		q = q.Where("products.price <= ?", *p.MaxPrice)
	}
	return q
}

func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}

// FindActiveBySlug loads an active product with its category.
func (r *Repository) FindActiveBySlug(ctx context.Context, slug string) (*models.Product, error) {
	var product models.Product
	if err := r.db.WithContext(ctx).
		Preload("Category").
		Where("slug = ? AND is_active = ?", slug, true).
		First(&product).Error; err != nil {
		return nil, err
	}
	return &product, nil
}

// ListRelated returns other active products from the same category.
func (r *Repository) ListRelated(ctx context.Context, categoryID, excludeID uuid.UUID, limit int) ([]models.Product, error) {
	var rows []models.Product
	err := r.db.WithContext(ctx).
		Preload("Category").
		Where("category_id = ? AND id <> ? AND is_active = ?", categoryID, excludeID, true).
		Order("avg_rating DESC").
		Order("id ASC").
		Limit(limit).
		Find(&rows).Error
	return rows, err
}

// ListFeatured returns active featured products, newest first.
func (r *Repository) ListFeatured(ctx context.Context, limit int) ([]models.Product, error) {
	var rows []models.Product
	err := r.db.WithContext(ctx).
		Preload("Category").
		Where("is_featured = ? AND is_active = ?", true, true).
		Order("created_at DESC").
		Order("id ASC").
		Limit(limit).
		Find(&rows).Error
	return rows, err
}

// ListCategories returns active categories by name.
func (r *Repository) ListCategories(ctx context.Context) ([]models.Category, error) {
	var rows []models.Category
	err := r.db.WithContext(ctx).
		Where("is_active = ?", true).
		Order("name ASC").
		Find(&rows).Error
	return rows, err
}
