package render

import (
	"sort"
	"strings"
	"time"

	"github.com/aaronzipp/coup-online/internal/models"
)

// PlayerView is one seat as seen by a particular viewer.
type PlayerView struct {
	ID        string   `json:"id"`
	Name      string   `json:"name"`
	Coins     int      `json:"coins"`
	Hand      []string `json:"hand"`
	Revealed  []bool   `json:"revealed"`
	Influence int      `json:"influence"`
	Alive     bool     `json:"alive"`
	Left      bool     `json:"left,omitempty"`
}

// PendingSummary is the public part of a pending action.
type PendingSummary struct {
	Action           models.ActionKind `json:"action"`
	ActorID          string            `json:"actor_id"`
	TargetID         string            `json:"target_id,omitempty"`
	Stage            models.StageName  `json:"stage"`
	AwaitingFrom     string            `json:"awaiting_from,omitempty"`
	BlockerID        string            `json:"blocker_id,omitempty"`
	BlockCard        models.Card       `json:"block_card,omitempty"`
	RequiredCard     models.Card       `json:"required_card,omitempty"`
	Swap             bool              `json:"swap,omitempty"`
	RemainingSeconds int               `json:"remaining_seconds"`
}

// GameView is a session masked for one viewer.
type GameView struct {
	SessionID     string          `json:"session_id"`
	Viewer        string          `json:"viewer"`
	Players       []PlayerView    `json:"players"`
	Turn          int             `json:"turn"`
	CurrentPlayer string          `json:"current_player,omitempty"`
	DeckCount     int             `json:"deck_count"`
	Trash         []models.Card   `json:"trash"`
	GameOver      bool            `json:"game_over"`
	Winner        string          `json:"winner,omitempty"`
	Pending       *PendingSummary `json:"pending,omitempty"`
}

// MaskSession hides every unrevealed card not held by viewer and reduces
// the deck to its size. Pending is left for the caller to fill in.
func MaskSession(s *models.Session, viewer string) *GameView {
	v := &GameView{
		SessionID: s.ID,
		Viewer:    viewer,
		Players:   make([]PlayerView, 0, len(s.Players)),
		Turn:      s.Turn,
		DeckCount: s.Deck.Len(),
		Trash:     append([]models.Card{}, s.Trash...),
		GameOver:  s.GameOver,
		Winner:    s.Winner,
	}
	if !s.GameOver && len(s.Players) > 0 {
		v.CurrentPlayer = s.Players[s.Turn%len(s.Players)].ID
	}
	for _, p := range s.Players {
		pv := PlayerView{
			ID:        p.ID,
			Name:      p.Name,
			Coins:     p.Coins,
			Hand:      make([]string, len(p.Hand)),
			Revealed:  append([]bool{}, p.Revealed...),
			Influence: p.Influence(),
			Alive:     p.Alive(),
			Left:      p.Left,
		}
		for i, c := range p.Hand {
			if p.ID == viewer || p.Revealed[i] {
				pv.Hand[i] = string(c)
			} else {
				pv.Hand[i] = models.HiddenCard
			}
		}
		v.Players = append(v.Players, pv)
	}
	return v
}

// SummarizePending describes p with the time left in its window, or nil.
func SummarizePending(p *models.PendingAction, now time.Time, window time.Duration) *PendingSummary {
	if p == nil {
		return nil
	}
	sum := &PendingSummary{
		Action:           p.Kind,
		ActorID:          p.ActorID,
		TargetID:         p.TargetID,
		Stage:            p.Stage.Name(),
		AwaitingFrom:     p.Stage.Awaiting(),
		RemainingSeconds: int(p.Remaining(now, window).Round(time.Second) / time.Second),
	}
	switch st := p.Stage.(type) {
	case models.BlockReactionStage:
		sum.BlockerID, sum.BlockCard = st.BlockerID, st.BlockCard
	case models.RevealClaimStage:
		sum.RequiredCard = st.RequiredCard
	case models.CardSelectionStage:
		sum.Swap = st.Swap
	}
	return sum
}

// ScoreRow is one line of a lobby scoreboard.
type ScoreRow struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	GamesWon  int    `json:"games_won"`
	GamesLost int    `json:"games_lost"`
}

// LobbyView is the public state of a lobby.
type LobbyView struct {
	Code     string             `json:"room_code"`
	Host     string             `json:"host"`
	Status   models.LobbyStatus `json:"status"`
	Members  []models.Member    `json:"members"`
	Scores   []ScoreRow         `json:"scores"`
	CanStart bool               `json:"can_start"`
}

// NewLobbyView renders a lobby (must be called with lock held).
func NewLobbyView(l *models.Lobby, minPlayers int) *LobbyView {
	v := &LobbyView{
		Code:     l.Code,
		Host:     l.Host,
		Status:   l.Status,
		Members:  make([]models.Member, 0, len(l.Members)),
		Scores:   ScoreTable(l),
		CanStart: l.Status == models.StatusWaiting && len(l.Members) >= minPlayers,
	}
	for _, m := range l.Members {
		v.Members = append(v.Members, *m)
	}
	return v
}

// ScoreTable lists current members by wins descending, then name.
func ScoreTable(l *models.Lobby) []ScoreRow {
	rows := make([]ScoreRow, 0, len(l.Members))
	for _, m := range l.Members {
		row := ScoreRow{ID: m.ID, Name: m.Name}
		if s, ok := l.Scores[m.ID]; ok {
			row.GamesWon, row.GamesLost = s.GamesWon, s.GamesLost
		}
		rows = append(rows, row)
	}
	sort.SliceStable(rows, func(i, j int) bool {
		if rows[i].GamesWon == rows[j].GamesWon {
			return strings.ToLower(rows[i].Name) < strings.ToLower(rows[j].Name)
		}
		return rows[i].GamesWon > rows[j].GamesWon
	})
	return rows
}

// Envelope is what subscribers receive.
type Envelope struct {
	Type    string     `json:"type"`
	Message string     `json:"message,omitempty"`
	State   *GameView  `json:"state,omitempty"`
	Lobby   *LobbyView `json:"lobby,omitempty"`
}
