package repository

import (
	"context"

	"github.com/vytor/speakflash/internal/models"
)

// FlashcardRepository handles flashcard data access. Order of All is unspecified.
type FlashcardRepository interface {
	All(ctx context.Context) ([]models.Flashcard, error)
	Insert(ctx context.Context, card models.Flashcard) (int64, error)
}

// ReviewRepository is the append-only stats store.
type ReviewRepository interface {
	Insert(ctx context.Context, event models.ReviewEvent) (int64, error)
	List(ctx context.Context, filter models.ReviewFilter) ([]models.ReviewEvent, error)
}
