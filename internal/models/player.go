package models

import "slices"

// PlayerScore tracks results across games played in one lobby
type PlayerScore struct {
	GamesWon  int `json:"games_won"`
	GamesLost int `json:"games_lost"`
}

// Member is someone sitting in a lobby
type Member struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Player is a seated participant of a running session.
// Hand and Revealed are parallel and always the same length.
type Player struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Coins    int    `json:"coins"`
	Hand     []Card `json:"hand"`
	Revealed []bool `json:"revealed"`
	Left     bool   `json:"left,omitempty"`
}

// NewPlayer seats a player with the given starting coins and hand.
func NewPlayer(id, name string, coins int, hand []Card) *Player {
	return &Player{
		ID:       id,
		Name:     name,
		Coins:    coins,
		Hand:     append([]Card(nil), hand...),
		Revealed: make([]bool, len(hand)),
	}
}

// Alive reports whether the player still holds any card.
func (p *Player) Alive() bool {
	return len(p.Hand) > 0
}

// Influence counts unrevealed cards.
func (p *Player) Influence() int {
	n := 0
	for i := range p.Hand {
		if !p.Revealed[i] {
			n++
		}
	}
	return n
}

// HasCard reports whether an unrevealed copy of c is in hand.
func (p *Player) HasCard(c Card) bool {
	for i, h := range p.Hand {
		if h == c && !p.Revealed[i] {
			return true
		}
	}
	return false
}

// Discard removes the card at i from hand. The caller validates i.
func (p *Player) Discard(i int) Card {
	c := p.Hand[i]
	p.Hand = append(p.Hand[:i:i], p.Hand[i+1:]...)
	p.Revealed = append(p.Revealed[:i:i], p.Revealed[i+1:]...)
	return c
}

// Clone returns a deep copy.
func (p *Player) Clone() *Player {
	cp := *p
	cp.Hand = slices.Clone(p.Hand)
	cp.Revealed = slices.Clone(p.Revealed)
	return &cp
}
