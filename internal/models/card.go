package models

import (
	"slices"

	"github.com/aaronzipp/coup-online/internal/apperr"
)

// Card is a character role. Copies of the same role are interchangeable.
type Card string

const (
	Duke       Card = "Duke"
	Assassin   Card = "Assassin"
	Captain    Card = "Captain"
	Ambassador Card = "Ambassador"
	Contessa   Card = "Contessa"
)

// Roles lists every role once, in deck-building order.
var Roles = []Card{Duke, Assassin, Captain, Ambassador, Contessa}

// HiddenCard stands in for an unrevealed card in another player's hand.
const HiddenCard = "?"

// Valid reports whether c is one of the five roles.
func (c Card) Valid() bool {
	for _, r := range Roles {
		if c == r {
			return true
		}
	}
	return false
}

// Deck is a stack of cards. The top of the deck is the end of the slice.
type Deck []Card

// Len returns the number of cards left.
func (d Deck) Len() int {
	return len(d)
}

// Draw pops the top card.
func (d *Deck) Draw() (Card, error) {
	n := len(*d)
	if n == 0 {
		return "", apperr.ErrDeckEmpty
	}
	c := (*d)[n-1]
	*d = (*d)[:n-1]
	return c, nil
}

// ReturnToBottom puts c under the rest of the deck without reshuffling.
func (d *Deck) ReturnToBottom(c Card) {
	next := make(Deck, 0, len(*d)+1)
	next = append(next, c)
	*d = append(next, (*d)...)
}

// Clone returns an independent copy.
func (d Deck) Clone() Deck {
	return slices.Clone(d)
}
