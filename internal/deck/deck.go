// Package deck turns a raw flashcard set into the ordered sequence a review
// session walks through.
package deck

import (
	"cmp"
	"fmt"
	"math/rand/v2"
	"slices"
	"strings"

	"github.com/vytor/speakflash/internal/models"
)

// Policy selects how a deck is ordered.
type Policy string

const (
	OldestFirst Policy = "oldest"
	NewestFirst Policy = "newest"
	Random      Policy = "random"
)

// Policies lists every accepted policy in display order.
var Policies = []Policy{OldestFirst, NewestFirst, Random}

// ParsePolicy accepts the short names and the "-first" spellings.
func ParsePolicy(s string) (Policy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "oldest", "oldest-first":
		return OldestFirst, nil
	case "newest", "newest-first":
		return NewestFirst, nil
	case "random":
		return Random, nil
	}
	return "", fmt.Errorf("unknown order policy %q", s)
}

// Deck is a session-local ordering of flashcards.
type Deck []models.Flashcard

// Order returns a new deck built from cards. The input slice is not modified.
// For Random, rng supplies the permutation; a nil rng uses the global source.
func Order(cards []models.Flashcard, policy Policy, rng *rand.Rand) Deck {
	d := make(Deck, len(cards))
	copy(d, cards)

	switch policy {
	case NewestFirst:
		slices.SortStableFunc(d, func(a, b models.Flashcard) int { return cmp.Compare(b.ID, a.ID) })
	case Random:
		swap := func(i, j int) { d[i], d[j] = d[j], d[i] }
		if rng != nil {
			rng.Shuffle(len(d), swap)
		} else {
			rand.Shuffle(len(d), swap)
		}
	default:
		slices.SortStableFunc(d, func(a, b models.Flashcard) int { return cmp.Compare(a.ID, b.ID) })
	}
	return d
}

// IDs returns the flashcard ids in deck order.
func (d Deck) IDs() []int64 {
	ids := make([]int64, len(d))
	for i, c := range d {
		ids[i] = c.ID
	}
	return ids
}
