package products

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/storefront-backend/internal/reviews"
	"github.com/angelmondragon/storefront-backend/pkg/db"
	"github.com/angelmondragon/storefront-backend/pkg/db/models"
	"github.com/angelmondragon/storefront-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
	"github.com/angelmondragon/storefront-backend/pkg/pagination"
)

const (
	FeaturedLimit = 8
	RelatedLimit  = 4
)

type catalogRepository interface {
	Search(ctx context.Context, p SearchParams) ([]models.Product, int64, error)
	FindActiveBySlug(ctx context.Context, slug string) (*models.Product, error)
	ListRelated(ctx context.Context, categoryID, excludeID uuid.UUID, limit int) ([]models.Product, error)
	ListFeatured(ctx context.Context, limit int) ([]models.Product, error)
	ListCategories(ctx context.Context) ([]models.Category, error)
}

type reviewLister interface {
	ListForProduct(ctx context.Context, productID uuid.UUID) ([]reviews.ReviewDTO, error)
}

// Query is a raw catalog query as received from a caller.
type Query struct {
	Text      string
	Category  string
	MinPrice  *decimal.Decimal
	MaxPrice  *decimal.Decimal
	SortBy    string
	SortOrder string
	Limit     int
	Offset    int
}

// Service exposes catalog reads.
type Service interface {
	Search(ctx context.Context, q Query) (*Page, error)
	GetBySlug(ctx context.Context, slug string) (*ProductDTO, error)
	GetDetails(ctx context.Context, slug string) (*Details, error)
	Featured(ctx context.Context) ([]ProductDTO, error)
	ListCategories(ctx context.Context) ([]CategoryDTO, error)
}

type service struct {
	repo    catalogRepository
	reviews reviewLister
}

// NewService builds the catalog service.
func NewService(repo catalogRepository, reviewList reviewLister) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("catalog repository required")
	}
	if reviewList == nil {
		return nil, fmt.Errorf("review lister required")
	}
	return &service{repo: repo, reviews: reviewList}, nil
}

// Normalize validates q and applies defaults.
func (q Query) Normalize() (SearchParams, error) {
	sortBy, err := enums.ParseProductSortKey(q.SortBy)
	if err != nil {
		return SearchParams{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid sort_by")
	}
	sortOrder, err := enums.ParseSortDirection(q.SortOrder)
	if err != nil {
		return SearchParams{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid sort_order")
	}
	page, err := pagination.Normalize(pagination.Params{Limit: q.Limit, Offset: q.Offset})
	if err != nil {
		return SearchParams{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid pagination")
	}
	if q.MinPrice != nil && q.MinPrice.IsNegative() {
		return SearchParams{}, pkgerrors.New(pkgerrors.CodeValidation, "min_price must be >= 0")
	}
	if q.MaxPrice != nil && q.MaxPrice.IsNegative() {
		return SearchParams{}, pkgerrors.New(pkgerrors.CodeValidation, "max_price must be >= 0")
	}
	if q.MinPrice != nil && q.MaxPrice != nil && q.MinPrice.GreaterThan(*q.MaxPrice) {
		return SearchParams{}, pkgerrors.New(pkgerrors.CodeValidation, "min_price must not exceed max_price")
	}

	params := SearchParams{
		Text:      strings.TrimSpace(q.Text),
		MinPrice:  q.MinPrice,
		MaxPrice:  q.MaxPrice,
		SortBy:    sortBy,
		SortOrder: sortOrder,
		Limit:     page.Limit,
		Offset:    page.Offset,
	}
	if category := strings.TrimSpace(q.Category); category != "" {
		if id, err := uuid.Parse(category); err == nil {
			params.CategoryID = &id
		} else {
			params.CategorySlug = category
		}
	}
	return params, nil
}

func (s *service) Search(ctx context.Context, q Query) (*Page, error) {
	params, err := q.Normalize()
	if err != nil {
		return nil, err
	}
	rows, total, err := s.repo.Search(ctx, params)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "search products")
	}
	return &Page{
		Items:      fromModels(rows),
		Pagination: pagination.NewMeta(pagination.Params{Limit: params.Limit, Offset: params.Offset}, total),
	}, nil
}

func (s *service) GetBySlug(ctx context.Context, slug string) (*ProductDTO, error) {
	product, err := s.loadBySlug(ctx, slug)
	if err != nil {
		return nil, err
	}
	dto := FromModel(product)
	return &dto, nil
}

func (s *service) GetDetails(ctx context.Context, slug string) (*Details, error) {
	product, err := s.loadBySlug(ctx, slug)
	if err != nil {
		return nil, err
	}

	approved, err := s.reviews.ListForProduct(ctx, product.ID)
	if err != nil {
		return nil, err
	}

	related := []ProductDTO{}
	if product.CategoryID != nil {
		rows, err := s.repo.ListRelated(ctx, *product.CategoryID, product.ID, RelatedLimit)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load related products")
		}
		related = fromModels(rows)
	}

	dto := FromModel(product)
	return &Details{
		Product:         dto,
		Category:        dto.Category,
		Reviews:         approved,
		AvgRating:       product.AvgRating,
		ReviewCount:     product.ReviewCount,
		RelatedProducts: related,
	}, nil
}

func (s *service) Featured(ctx context.Context) ([]ProductDTO, error) {
	rows, err := s.repo.ListFeatured(ctx, FeaturedLimit)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list featured products")
	}
	return fromModels(rows), nil
}

func (s *service) ListCategories(ctx context.Context) ([]CategoryDTO, error) {
	rows, err := s.repo.ListCategories(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list categories")
	}
	out := make([]CategoryDTO, 0, len(rows))
	for i := range rows {
		out = append(out, *CategoryFromModel(&rows[i]))
	}
	return out, nil
}

func (s *service) loadBySlug(ctx context.Context, slug string) (*models.Product, error) {
	slug = strings.TrimSpace(slug)
	if slug == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "slug is required")
	}
	product, err := s.repo.FindActiveBySlug(ctx, slug)
	if err != nil {
		if db.IsNotFound(err) {
			return nil, pkgerrors.Wrap(pkgerrors.CodeNotFound, err, "product not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load product")
	}
	return product, nil
}
