package sqlite

import (
	"context"
	"database/sql"
	"math"

	"github.com/Masterminds/squirrel"
	"github.com/vytor/speakflash/internal/logger"
	"github.com/vytor/speakflash/internal/models"
	"github.com/vytor/speakflash/internal/repository"
)

type reviewRepository struct {
	db *sql.DB
}

// NewReviewRepository creates a new ReviewRepository implementation
func NewReviewRepository(db *sql.DB) repository.ReviewRepository {
	return &reviewRepository{db: db}
}

func (r *reviewRepository) Insert(ctx context.Context, e models.ReviewEvent) (int64, error) {
	log := logger.FromContext(ctx).WithPrefix("review_repo")
	log.Debug("inserting review: flashcard_id=%d, correct=%t, time=%.2fs", e.FlashcardID, e.Correct, e.TimeTakenSeconds)

	query, args, err := sqlBuilder.
		Insert("reviews").
		Columns("session_id", "flashcard_id", "correct", "reviewed_at", "time_taken_seconds").
		Values(e.SessionID, e.FlashcardID, e.Correct, formatTimestamp(e.ReviewedAt), e.TimeTakenSeconds).
		ToSql()
	if err != nil {
		return 0, err
	}

	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		log.Error("failed to insert review: %v", err)
		return 0, err
	}
	return res.LastInsertId()
}

func (r *reviewRepository) List(ctx context.Context, f models.ReviewFilter) ([]models.ReviewEvent, error) {
	log := logger.FromContext(ctx).WithPrefix("review_repo")

	query := sqlBuilder.
		Select("id", "session_id", "flashcard_id", "correct", "reviewed_at", "time_taken_seconds").
		From("reviews").
		OrderBy("reviewed_at DESC", "id DESC")

	if f.FlashcardID > 0 {
		query = query.Where(squirrel.Eq{"flashcard_id": f.FlashcardID})
	}
	if f.SessionID != "" {
		query = query.Where(squirrel.Eq{"session_id": f.SessionID})
	}
	if f.Correct != nil {
		query = query.Where(squirrel.Eq{"correct": *f.Correct})
	}
	if !f.Since.IsZero() {
		query = query.Where(squirrel.GtOrEq{"reviewed_at": formatTimestamp(f.Since)})
	}
	switch {
	case f.Limit > 0:
		query = query.Limit(uint64(f.Limit))
	case f.Offset > 0:
		// SQLite only accepts OFFSET after a LIMIT.
		query = query.Limit(math.MaxInt64)
	}
	if f.Offset > 0 {
		query = query.Offset(uint64(f.Offset))
	}

	sqlStr, args, err := query.ToSql()
	if err != nil {
		return nil, err
	}
	log.Debug("listing reviews: %s", sqlStr)

	rows, err := r.db.QueryContext(ctx, sqlStr, args...)
	if err != nil {
		log.Error("failed to query reviews: %v", err)
		return nil, err
	}
	defer rows.Close()

	var events []models.ReviewEvent
	for rows.Next() {
		var e models.ReviewEvent
		var reviewedAt string
		if err := rows.Scan(&e.ID, &e.SessionID, &e.FlashcardID, &e.Correct, &reviewedAt, &e.TimeTakenSeconds); err != nil {
			log.Error("failed to scan review row: %v", err)
			return nil, err
		}
		if e.ReviewedAt, err = parseTimestamp(reviewedAt); err != nil {
			log.Error("invalid reviewed_at %q on review %d: %v", reviewedAt, e.ID, err)
			return nil, err
		}
		events = append(events, e)
	}
	return events, rows.Err()
}
