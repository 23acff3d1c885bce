package game

import "github.com/aaronzipp/coup-online/internal/models"

// CurrentPlayer returns the player whose turn it is, or nil for an empty session.
func CurrentPlayer(s *models.Session) *models.Player {
	if len(s.Players) == 0 {
		return nil
	}
	return s.Players[s.Turn%len(s.Players)]
}

// AlivePlayers returns players still holding influence, in seat order.
func AlivePlayers(s *models.Session) []*models.Player {
	var alive []*models.Player
	for _, p := range s.Players {
		if p.Alive() {
			alive = append(alive, p)
		}
	}
	return alive
}

// CheckGameOver ends the session when at most one player is alive.
func CheckGameOver(s *models.Session) bool {
	if s.GameOver {
		return true
	}
	alive := AlivePlayers(s)
	if len(alive) > 1 {
		return false
	}
	s.GameOver = true
	s.Winner = ""
	if len(alive) == 1 {
		s.Winner = alive[0].ID
	}
	return true
}

// AdvanceTurn moves to the next alive seat, or ends the game.
func AdvanceTurn(s *models.Session) {
	if CheckGameOver(s) {
		return
	}
	n := len(s.Players)
	for range n {
		s.Turn = (s.Turn + 1) % n
		if s.Players[s.Turn].Alive() {
			return
		}
	}
}
