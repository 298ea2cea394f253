package testutil

import (
	"database/sql"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/vytor/speakflash/internal/db"
	"github.com/vytor/speakflash/internal/models"
)

// NewTestDB creates an in-memory SQLite database with all migrations applied.
func NewTestDB(t *testing.T) *sql.DB {
	database, err := db.Open(":memory:")
	require.NoError(t, err)
	return database.DB
}

// MustClose closes a resource and fails the test on error.
func MustClose(t *testing.T, closer interface{ Close() error }) {
	require.NoError(t, closer.Close())
}

// SampleDeck is the two-card arithmetic deck used across session tests.
func SampleDeck() []models.Flashcard {
	return []models.Flashcard{
		{ID: 1, Question: "2+2", Answer: "4"},
		{ID: 2, Question: "3+3", Answer: "6"},
	}
}
