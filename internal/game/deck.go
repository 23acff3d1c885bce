package game

import (
	"github.com/aaronzipp/coup-online/internal/apperr"
	"github.com/aaronzipp/coup-online/internal/models"
)

// Rand is the randomness the game needs. *rand.Rand from math/rand/v2 satisfies it.
type Rand interface {
	IntN(n int) int
}

// NewDeck returns the 15-card deck, three of each role, uniformly shuffled.
func NewDeck(rng Rand) models.Deck {
	d := make(models.Deck, 0, len(models.Roles)*CopiesPerRole)
	for _, role := range models.Roles {
		for range CopiesPerRole {
			d = append(d, role)
		}
	}
	Shuffle(rng, d)
	return d
}

// Shuffle permutes d in place (Fisher-Yates).
func Shuffle(rng Rand, d models.Deck) {
	for i := len(d) - 1; i > 0; i-- {
		j := rng.IntN(i + 1)
		d[i], d[j] = d[j], d[i]
	}
}

// Deal pops HandSize cards per seat off the top of deck.
func Deal(deck models.Deck, seats int) ([][]models.Card, models.Deck, error) {
	if seats*HandSize > len(deck) {
		return nil, deck, apperr.Newf(apperr.InvalidAction, "cannot deal %d seats from %d cards", seats, len(deck))
	}
	hands := make([][]models.Card, seats)
	for i := range hands {
		for range HandSize {
			c, _ := deck.Draw()
			hands[i] = append(hands[i], c)
		}
	}
	return hands, deck, nil
}
