package services

import (
	"context"

	"github.com/vytor/speakflash/internal/errors"
	"github.com/vytor/speakflash/internal/logger"
	"github.com/vytor/speakflash/internal/models"
	"github.com/vytor/speakflash/internal/repository"
)

const (
	DefaultReviewLimit = 100
	MaxReviewLimit     = 500
)

// ReviewService reads logged review events
type ReviewService interface {
	List(ctx context.Context, filter models.ReviewFilter) ([]models.ReviewEvent, error)
}

type reviewService struct {
	repo repository.ReviewRepository
}

// NewReviewService creates a new ReviewService
func NewReviewService(repo repository.ReviewRepository) ReviewService {
	return &reviewService{repo: repo}
}

func (s *reviewService) List(ctx context.Context, filter models.ReviewFilter) ([]models.ReviewEvent, error) {
	log := logger.FromContext(ctx)

	if filter.FlashcardID < 0 {
		return nil, errors.NewValidationError("flashcard_id", "must be positive")
	}
	if filter.Offset < 0 {
		return nil, errors.NewValidationError("offset", "cannot be negative")
	}
	switch {
	case filter.Limit < 0:
		return nil, errors.NewValidationError("limit", "cannot be negative")
	case filter.Limit == 0:
		filter.Limit = DefaultReviewLimit
	case filter.Limit > MaxReviewLimit:
		filter.Limit = MaxReviewLimit
	}

	log.Debug("listing reviews: flashcard_id=%d, limit=%d, offset=%d", filter.FlashcardID, filter.Limit, filter.Offset)
	events, err := s.repo.List(ctx, filter)
	if err != nil {
		log.Error("failed to list reviews: %v", err)
		return nil, errors.NewInternalError(err)
	}
	if events == nil {
		events = []models.ReviewEvent{}
	}
	return events, nil
}
