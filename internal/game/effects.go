package game

import (
	"fmt"

	"github.com/aaronzipp/coup-online/internal/apperr"
	"github.com/aaronzipp/coup-online/internal/models"
)

// ApplyEffect performs the coin side effect of a confirmed action and
// describes it. Income and coup never come through here; assassinate and
// exchange have no coin effect.
func ApplyEffect(s *models.Session, kind models.ActionKind, actorID, targetID string) string {
	actor := s.Player(actorID)
	if actor == nil {
		return ""
	}
	switch kind {
	case models.ActionSteal:
		target := s.Player(targetID)
		if target == nil {
			return ""
		}
		amount := min(2, target.Coins)
		target.Coins -= amount
		actor.Coins += amount
		return fmt.Sprintf("%s steals %d coin(s) from %s.", actor.Name, amount, target.Name)
	case models.ActionTax:
		actor.Coins += 3
		return fmt.Sprintf("%s collects Tax (+3 coins).", actor.Name)
	case models.ActionForeignAid:
		actor.Coins += 2
		return fmt.Sprintf("%s collects Foreign Aid (+2 coins).", actor.Name)
	}
	return ""
}

// ExecuteExchange swaps the unrevealed card at index with the top of the
// deck; the old card goes to the bottom without a reshuffle.
func ExecuteExchange(s *models.Session, p *models.Player, index int) (string, error) {
	if s.Deck.Len() == 0 {
		return "", apperr.New(apperr.DeckEmpty, "cannot exchange: the deck is empty")
	}
	if index < 0 || index >= len(p.Hand) {
		return "", apperr.Newf(apperr.InvalidCardSelection, "card index %d is out of range", index)
	}
	if p.Revealed[index] {
		return "", apperr.Newf(apperr.InvalidCardSelection, "card %d is already revealed", index+1)
	}
	drawn, err := s.Deck.Draw()
	if err != nil {
		return "", err
	}
	old := p.Hand[index]
	p.Hand[index] = drawn
	s.Deck.ReturnToBottom(old)
	return fmt.Sprintf("%s exchanges a card with the deck.", p.Name), nil
}
