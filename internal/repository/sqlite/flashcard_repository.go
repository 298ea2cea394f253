package sqlite

import (
	"context"
	"database/sql"

	"github.com/vytor/speakflash/internal/logger"
	"github.com/vytor/speakflash/internal/models"
	"github.com/vytor/speakflash/internal/repository"
)

type flashcardRepository struct {
	db *sql.DB
}

// NewFlashcardRepository creates a new FlashcardRepository implementation
func NewFlashcardRepository(db *sql.DB) repository.FlashcardRepository {
	return &flashcardRepository{db: db}
}

func (r *flashcardRepository) All(ctx context.Context) ([]models.Flashcard, error) {
	log := logger.FromContext(ctx).WithPrefix("flashcard_repo")
	log.Debug("loading all flashcards")

	rows, err := r.db.QueryContext(ctx, `SELECT id, question, answer, created_at FROM flashcards`)
	if err != nil {
		log.Error("failed to query flashcards: %v", err)
		return nil, err
	}
	defer rows.Close()

	var cards []models.Flashcard
	for rows.Next() {
		var c models.Flashcard
		if err := rows.Scan(&c.ID, &c.Question, &c.Answer, &c.CreatedAt); err != nil {
			log.Error("failed to scan flashcard row: %v", err)
			return nil, err
		}
		cards = append(cards, c)
	}
	if err := rows.Err(); err != nil {
		log.Error("failed to iterate flashcards: %v", err)
		return nil, err
	}
	log.Debug("loaded %d flashcards", len(cards))
	return cards, nil
}

func (r *flashcardRepository) Insert(ctx context.Context, c models.Flashcard) (int64, error) {
	log := logger.FromContext(ctx).WithPrefix("flashcard_repo")
	log.Debug("inserting flashcard")

	res, err := r.db.ExecContext(ctx, `INSERT INTO flashcards (question, answer) VALUES (?, ?)`, c.Question, c.Answer)
	if err != nil {
		log.Error("failed to insert flashcard: %v", err)
		return 0, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		log.Error("failed to get flashcard id: %v", err)
		return 0, err
	}
	log.Debug("flashcard inserted: id=%d", id)
	return id, nil
}
