package reviews

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/storefront-backend/internal/notifications"
	"github.com/angelmondragon/storefront-backend/pkg/db"
	"github.com/angelmondragon/storefront-backend/pkg/db/models"
	"github.com/angelmondragon/storefront-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
	"github.com/angelmondragon/storefront-backend/pkg/outbox"
	"github.com/angelmondragon/storefront-backend/pkg/outbox/payloads"
)

const (
	MinRating        = 1
	MaxRating        = 5
	maxTitleLength   = 200
	maxCommentLength = 5000
	uniqueConstraint = "reviews_user_product_key"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// Service exposes review submission and listing.
type Service interface {
	Upsert(ctx context.Context, userID, productID uuid.UUID, input Input) (*UpsertResult, error)
	ListForProduct(ctx context.Context, productID uuid.UUID) ([]ReviewDTO, error)
}

// ServiceParams groups review dependencies.
type ServiceParams struct {
	TX     txRunner
	Repo   *Repository
	Outbox outbox.Emitter
	Sink   notifications.Sink
}

type service struct {
	tx     txRunner
	repo   *Repository
	outbox outbox.Emitter
	sink   notifications.Sink
}

func NewService(params ServiceParams) (Service, error) {
	if params.TX == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if params.Repo == nil {
		return nil, fmt.Errorf("review repository required")
	}
	if params.Outbox == nil {
		return nil, fmt.Errorf("outbox emitter required")
	}
	sink := params.Sink
	if sink == nil {
		sink = notifications.Discard{}
	}
	return &service{tx: params.TX, repo: params.Repo, outbox: params.Outbox, sink: sink}, nil
}

func validateInput(input Input) (Input, error) {
	if input.Rating < MinRating || input.Rating > MaxRating {
		return input, pkgerrors.New(pkgerrors.CodeValidation, "rating must be between 1 and 5").
			WithDetails(map[string]any{"rating": input.Rating})
	}
	input.Title = trimOptional(input.Title)
	input.Comment = trimOptional(input.Comment)
	if input.Title != nil && len(*input.Title) > maxTitleLength {
		return input, pkgerrors.New(pkgerrors.CodeValidation, "title is too long")
	}
	if input.Comment != nil && len(*input.Comment) > maxCommentLength {
		return input, pkgerrors.New(pkgerrors.CodeValidation, "comment is too long")
	}
	return input, nil
}

func trimOptional(v *string) *string {
	if v == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*v)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}

func (s *service) Upsert(ctx context.Context, userID, productID uuid.UUID, input Input) (*UpsertResult, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "sign in to leave a review")
	}
	if productID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "product id is required")
	}
	input, err := validateInput(input)
	if err != nil {
		return nil, err
	}

	result, err := s.upsertOnce(ctx, userID, productID, input)
	if err != nil && db.IsUniqueViolation(err, uniqueConstraint, "reviews.user_id", "reviews.product_id") {
		// A concurrent first submission won the insert; apply ours as an update.
		result, err = s.upsertOnce(ctx, userID, productID, input)
	}
	if err != nil {
		if pkgerrors.As(err) != nil {
			return nil, err
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "save review")
	}

	message := "Thanks for your review"
	if result.Updated {
		message = "Your review was updated"
	}
	notifications.Emit(ctx, s.sink, notifications.Notice{
		Kind:    notifications.KindReviewSaved,
		Level:   notifications.LevelSuccess,
		Message: message,
		UserID:  userID,
		Data:    map[string]any{"product_id": productID.String(), "updated": result.Updated},
	})
	return result, nil
}

func (s *service) upsertOnce(ctx context.Context, userID, productID uuid.UUID, input Input) (*UpsertResult, error) {
	var result UpsertResult
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		active, err := repo.ProductIsActive(ctx, productID)
		if err != nil {
			return err
		}
		if !active {
			return pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
		}

		review, err := repo.FindByUserAndProduct(ctx, userID, productID)
		switch {
		case err == nil:
			review.Rating = input.Rating
			review.Title = input.Title
			review.Comment = input.Comment
			if err := repo.UpdateContent(ctx, review); err != nil {
				return err
			}
			result.Updated = true
		case errors.Is(err, gorm.ErrRecordNotFound):
			review = &models.Review{
				UserID:     userID,
				ProductID:  productID,
				Rating:     input.Rating,
				Title:      input.Title,
				Comment:    input.Comment,
				IsApproved: true,
			}
			if err := repo.Create(ctx, review); err != nil {
				return err
			}
		default:
			return err
		}

		avg, count, err := repo.RecomputeRating(ctx, productID)
		if err != nil {
			return err
		}
		result.Review = FromModel(review)
		result.AvgRating = avg
		result.ReviewCount = count

		return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventReviewSubmitted,
			AggregateType: enums.AggregateReview,
			AggregateID:   review.ID,
			Actor:         &outbox.ActorRef{UserID: userID},
			Data: payloads.ReviewSubmittedEvent{
				ReviewID:    review.ID,
				ProductID:   productID,
				UserID:      userID,
				Rating:      review.Rating,
				Updated:     result.Updated,
				AvgRating:   avg,
				ReviewCount: count,
			},
		})
	})
	if err != nil {
		return nil, err
	}
	return &result, nil
}

func (s *service) ListForProduct(ctx context.Context, productID uuid.UUID) ([]ReviewDTO, error) {
	rows, err := s.repo.ListApproved(ctx, productID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list reviews")
	}
	out := make([]ReviewDTO, 0, len(rows))
	for i := range rows {
		out = append(out, FromModel(&rows[i]))
	}
	return out, nil
}
