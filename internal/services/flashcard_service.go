package services

import (
	"context"
	"strings"
	"unicode/utf8"

	"github.com/vytor/speakflash/internal/errors"
	"github.com/vytor/speakflash/internal/logger"
	"github.com/vytor/speakflash/internal/models"
	"github.com/vytor/speakflash/internal/repository"
)

const maxCardTextLength = 500

// FlashcardService handles flashcard-related business logic
type FlashcardService interface {
	List(ctx context.Context) ([]models.Flashcard, error)
	Create(ctx context.Context, question, answer string) (*models.Flashcard, error)
}

type flashcardService struct {
	repo repository.FlashcardRepository
}

// NewFlashcardService creates a new FlashcardService
func NewFlashcardService(repo repository.FlashcardRepository) FlashcardService {
	return &flashcardService{repo: repo}
}

func (s *flashcardService) List(ctx context.Context) ([]models.Flashcard, error) {
	log := logger.FromContext(ctx)
	log.Debug("listing flashcards")

	cards, err := s.repo.All(ctx)
	if err != nil {
		log.Error("failed to list flashcards: %v", err)
		return nil, errors.NewInternalError(err)
	}
	if cards == nil {
		cards = []models.Flashcard{}
	}
	return cards, nil
}

func (s *flashcardService) Create(ctx context.Context, question, answer string) (*models.Flashcard, error) {
	log := logger.FromContext(ctx)

	question = strings.TrimSpace(question)
	answer = strings.TrimSpace(answer)
	if err := validateCardText("question", question); err != nil {
		return nil, err
	}
	if err := validateCardText("answer", answer); err != nil {
		return nil, err
	}

	card := models.Flashcard{Question: question, Answer: answer}
	id, err := s.repo.Insert(ctx, card)
	if err != nil {
		log.Error("failed to create flashcard: %v", err)
		return nil, errors.NewInternalError(err)
	}
	card.ID = id
	log.Info("flashcard created: id=%d", id)
	return &card, nil
}

func validateCardText(field, text string) error {
	if text == "" {
		return errors.NewValidationError(field, "cannot be empty")
	}
	if utf8.RuneCountInString(text) > maxCardTextLength {
		return errors.NewValidationError(field, "must be at most 500 characters")
	}
	return nil
}
