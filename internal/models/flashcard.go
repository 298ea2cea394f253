package models

import "time"

// Flashcard is a question/answer pair owned by the management collaborator.
// A review session only reads it.
type Flashcard struct {
	ID        int64     `json:"id"`
	Question  string    `json:"question"`
	Answer    string    `json:"answer"`
	CreatedAt time.Time `json:"created_at"`
}
