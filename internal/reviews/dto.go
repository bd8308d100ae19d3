package reviews

import (
	"time"

	"github.com/google/uuid"

	"github.com/angelmondragon/storefront-backend/pkg/db/models"
)

// ReviewDTO is the public view of a review.
type ReviewDTO struct {
	ID         uuid.UUID `json:"id"`
	ProductID  uuid.UUID `json:"product_id"`
	UserID     uuid.UUID `json:"user_id"`
	Rating     int       `json:"rating"`
	Title      *string   `json:"title,omitempty"`
	Comment    *string   `json:"comment,omitempty"`
	IsVerified bool      `json:"is_verified"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// Input is a review submission.
type Input struct {
	Rating  int
	Title   *string
	Comment *string
}

// UpsertResult reports the stored review and the product's new rating.
// Updated is true when an earlier review by the same user was replaced.
type UpsertResult struct {
	Review      ReviewDTO `json:"review"`
	Updated     bool      `json:"updated"`
	AvgRating   float64   `json:"avg_rating"`
	ReviewCount int       `json:"review_count"`
}

func FromModel(m *models.Review) ReviewDTO {
	return ReviewDTO{
		ID:         m.ID,
		ProductID:  m.ProductID,
		UserID:     m.UserID,
		Rating:     m.Rating,
		Title:      m.Title,
		Comment:    m.Comment,
		IsVerified: m.IsVerified,
		CreatedAt:  m.CreatedAt,
		UpdatedAt:  m.UpdatedAt,
	}
}
