package chat

import (
	"strings"
	"unicode"

	"github.com/cgqgames/cgq/go/internal/models"
)

// MatchCard resolves a free-form card query against the votable cards.
// Matching is case- and punctuation-insensitive: an exact id or name match
// wins, otherwise a substring match is accepted when it is unambiguous.
// Returns nil when nothing matches or the query fits more than one card.
func MatchCard(query string, cards []*models.Card) *models.Card {
	q := normalize(query)
	if q == "" {
		return nil
	}

	for _, c := range cards {
		if normalize(c.ID) == q || normalize(c.Name) == q {
			return c
		}
	}

	var hit *models.Card
	for _, c := range cards {
		if strings.Contains(normalize(c.Name), q) {
			if hit != nil {
				return nil
			}
			hit = c
		}
	}
	return hit
}

// normalize lowercases and strips everything but letters, digits and single
// spaces, so "Drone-Strike!" matches "drone strike".
func normalize(s string) string {
	var b strings.Builder
	lastSpace := true
	for _, r := range strings.ToLower(s) {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			b.WriteRune(r)
			lastSpace = false
		case !lastSpace:
			b.WriteRune(' ')
			lastSpace = true
		}
	}
	return strings.TrimSpace(b.String())
}
