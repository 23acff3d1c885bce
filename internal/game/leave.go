package game

import (
	"fmt"

	"github.com/aaronzipp/coup-online/internal/apperr"
	"github.com/aaronzipp/coup-online/internal/models"
)

// Forfeit removes a leaving player from play. Their cards go to the trash.
// A pending action naming them is cancelled and the turn moves on, as it
// does when it was their turn.
func Forfeit(s *models.Session, playerID string) (string, error) {
	p := s.Player(playerID)
	if p == nil {
		return "", apperr.Newf(apperr.NotFound, "player %s is not seated", playerID)
	}
	if p.Left {
		return "", nil
	}
	wasTurn := !s.GameOver && CurrentPlayer(s) == p

	s.Trash = append(s.Trash, p.Hand...)
	p.Hand = nil
	p.Revealed = nil
	p.Left = true
	msg := fmt.Sprintf("%s left the game and forfeits their cards.", p.Name)

	if s.GameOver {
		return msg, nil
	}
	switch {
	case s.Pending != nil && s.Pending.Involves(playerID):
		msg += fmt.Sprintf(" The pending %s is cancelled.", s.Pending.Kind)
		s.Pending = nil
		AdvanceTurn(s)
	case wasTurn && s.Pending == nil:
		AdvanceTurn(s)
	default:
		if CheckGameOver(s) {
			s.Pending = nil
		}
	}
	return msg, nil
}
