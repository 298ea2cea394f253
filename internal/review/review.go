// Package review turns a scored question/answer cycle into a ReviewEvent and
// hands it to the stats store without waiting for the write.
package review

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/vytor/speakflash/internal/logger"
	"github.com/vytor/speakflash/internal/models"
	"github.com/vytor/speakflash/internal/repository"
	"github.com/vytor/speakflash/internal/worker"
)

// Attempt is what the sequencer knows when a verdict is reached.
type Attempt struct {
	SessionID      string
	FlashcardID    int64
	Correct        bool
	ReviewedAt     time.Time
	QuestionEndAt  time.Time
	AnswerRevealAt time.Time
}

// TimeTaken is the reveal delay in seconds rounded to two decimals. It is 0
// when either timestamp is unset and never negative.
func TimeTaken(questionEndAt, answerRevealAt time.Time) float64 {
	if questionEndAt.IsZero() || answerRevealAt.IsZero() {
		return 0
	}
	secs := math.Round(answerRevealAt.Sub(questionEndAt).Seconds()*100) / 100
	return math.Max(0, secs)
}

// Event builds the stored form of a.
func (a Attempt) Event() models.ReviewEvent {
	return models.ReviewEvent{
		SessionID:        a.SessionID,
		FlashcardID:      a.FlashcardID,
		Correct:          a.Correct,
		ReviewedAt:       a.ReviewedAt.UTC(),
		TimeTakenSeconds: TimeTaken(a.QuestionEndAt, a.AnswerRevealAt),
	}
}

// Submitter accepts background jobs without blocking. *worker.Pool satisfies it.
type Submitter interface {
	TrySubmit(job worker.Job) error
}

type Logger struct {
	repo      repository.ReviewRepository
	submitter Submitter
	log       *logger.Logger
}

func NewLogger(repo repository.ReviewRepository, submitter Submitter) *Logger {
	return &Logger{
		repo:      repo,
		submitter: submitter,
		log:       logger.Default().WithPrefix("review"),
	}
}

// LogReview dispatches the insert and returns immediately with the event that
// was sent. Dispatch and write failures are logged; the event is then lost.
func (l *Logger) LogReview(ctx context.Context, a Attempt) models.ReviewEvent {
	event := a.Event()
	log := l.log.WithFields(map[string]any{
		"session_id":   event.SessionID,
		"flashcard_id": event.FlashcardID,
		"correct":      event.Correct,
	})

	if err := l.submitter.TrySubmit(&insertJob{repo: l.repo, event: event}); err != nil {
		log.Error("review dropped: %v", err)
		return event
	}
	log.Debug("review dispatched: time_taken=%.2fs", event.TimeTakenSeconds)
	return event
}

type insertJob struct {
	repo  repository.ReviewRepository
	event models.ReviewEvent
}

func (j *insertJob) Name() string {
	return fmt.Sprintf("insert-review:%d", j.event.FlashcardID)
}

func (j *insertJob) Run(ctx context.Context) error {
	if _, err := j.repo.Insert(ctx, j.event); err != nil {
		return fmt.Errorf("insert review for flashcard %d: %w", j.event.FlashcardID, err)
	}
	return nil
}
