package models

import "slices"

// Session is the state of one running game of a lobby.
type Session struct {
	ID       string         `json:"id"`
	Players  []*Player      `json:"players"` // seating order, fixed at start
	Turn     int            `json:"turn"`    // index into Players
	Deck     Deck           `json:"deck"`
	Trash    []Card         `json:"trash"`
	GameOver bool           `json:"game_over"`
	Winner   string         `json:"winner,omitempty"`
	Pending  *PendingAction `json:"pending,omitempty"`
}

// Player looks up a seated player by id.
func (s *Session) Player(id string) *Player {
	for _, p := range s.Players {
		if p.ID == id {
			return p
		}
	}
	return nil
}

// CardCount is deck + hands + trash; constant once dealt.
func (s *Session) CardCount() int {
	n := len(s.Deck) + len(s.Trash)
	for _, p := range s.Players {
		n += len(p.Hand)
	}
	return n
}

// Clone returns a deep copy that can be mutated independently.
func (s *Session) Clone() *Session {
	cp := *s
	cp.Players = make([]*Player, len(s.Players))
	for i, p := range s.Players {
		cp.Players[i] = p.Clone()
	}
	cp.Deck = s.Deck.Clone()
	cp.Trash = slices.Clone(s.Trash)
	if s.Pending != nil {
		cp.Pending = s.Pending.Clone()
	}
	return &cp
}
