package sqlite

import (
	"time"

	"github.com/Masterminds/squirrel"
)

var sqlBuilder = squirrel.StatementBuilder.PlaceholderFormat(squirrel.Question)

// reviewedAtLayout is fixed-width ISO-8601 UTC so stored values sort lexically.
const reviewedAtLayout = "2006-01-02T15:04:05.000Z"

func formatTimestamp(t time.Time) string {
	return t.UTC().Format(reviewedAtLayout)
}

func parseTimestamp(s string) (time.Time, error) {
	t, err := time.Parse(reviewedAtLayout, s)
	if err != nil {
		return time.Parse(time.RFC3339Nano, s)
	}
	return t, nil
}
