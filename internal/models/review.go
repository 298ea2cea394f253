package models

import "time"

// ReviewEvent is one completed question/answer cycle. Rows are append-only.
type ReviewEvent struct {
	ID               int64     `json:"id"`
	SessionID        string    `json:"session_id"`
	FlashcardID      int64     `json:"flashcard_id"`
	Correct          bool      `json:"correct"`
	ReviewedAt       time.Time `json:"reviewed_at"`
	TimeTakenSeconds float64   `json:"time_taken_seconds"`
}

// ReviewFilter narrows a review listing. Zero values mean "no filter".
type ReviewFilter struct {
	FlashcardID int64
	SessionID   string
	Correct     *bool
	Since       time.Time
	Limit       int
	Offset      int
}
