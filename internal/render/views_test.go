package render

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aaronzipp/coup-online/internal/models"
)

func session() *models.Session {
	alice := models.NewPlayer("alice", "Alice", 2, []models.Card{models.Duke, models.Captain})
	bob := models.NewPlayer("bob", "Bob", 3, []models.Card{models.Contessa, models.Assassin})
	bob.Revealed[1] = true
	return &models.Session{
		ID:      "s1",
		Players: []*models.Player{alice, bob},
		Turn:    1,
		Deck:    models.Deck{models.Ambassador, models.Duke},
		Trash:   []models.Card{models.Captain},
	}
}

func TestMaskSession(t *testing.T) {
	v := MaskSession(session(), "alice")

	assert.Equal(t, "s1", v.SessionID)
	assert.Equal(t, "alice", v.Viewer)
	assert.Equal(t, 2, v.DeckCount)
	assert.Equal(t, "bob", v.CurrentPlayer)
	assert.Equal(t, []models.Card{models.Captain}, v.Trash)
	assert.Nil(t, v.Pending)

	require.Len(t, v.Players, 2)
	assert.Equal(t, []string{"Duke", "Captain"}, v.Players[0].Hand)
	assert.Equal(t, []string{models.HiddenCard, "Assassin"}, v.Players[1].Hand, "revealed cards are public")
	assert.Equal(t, 1, v.Players[1].Influence)
	assert.True(t, v.Players[1].Alive)
}

func TestMaskSessionForSpectator(t *testing.T) {
	v := MaskSession(session(), "")
	for _, p := range v.Players {
		for i, c := range p.Hand {
			if !p.Revealed[i] {
				assert.Equal(t, models.HiddenCard, c)
			}
		}
	}
}

func TestMaskSessionGameOver(t *testing.T) {
	s := session()
	s.GameOver, s.Winner = true, "alice"
	v := MaskSession(s, "bob")
	assert.Empty(t, v.CurrentPlayer)
	assert.Equal(t, "alice", v.Winner)
}

func TestSummarizePending(t *testing.T) {
	assert.Nil(t, SummarizePending(nil, time.Now(), time.Minute))

	created := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)
	p := &models.PendingAction{
		ActorID:   "alice",
		Kind:      models.ActionSteal,
		TargetID:  "bob",
		CreatedAt: created,
		Stage:     models.BlockReactionStage{BlockerID: "bob", BlockCard: models.Captain},
	}
	sum := SummarizePending(p, created.Add(15*time.Second), time.Minute)
	require.NotNil(t, sum)
	assert.Equal(t, models.StageBlockReaction, sum.Stage)
	assert.Equal(t, "bob", sum.BlockerID)
	assert.Equal(t, models.Captain, sum.BlockCard)
	assert.Equal(t, 45, sum.RemainingSeconds)

	p.Stage = models.CardSelectionStage{AwaitingFrom: "alice", Swap: true}
	sum = SummarizePending(p, created.Add(2*time.Minute), time.Minute)
	assert.Equal(t, "alice", sum.AwaitingFrom)
	assert.True(t, sum.Swap)
	assert.Zero(t, sum.RemainingSeconds)
}

func TestScoreTableOrder(t *testing.T) {
	l := models.NewLobby("ABCDEF", "cara")
	for _, m := range []*models.Member{{ID: "cara", Name: "cara"}, {ID: "ben", Name: "Ben"}, {ID: "al", Name: "al"}} {
		l.AddMember(m)
	}
	l.Scores["cara"].GamesWon = 2
	l.Scores["ben"].GamesWon = 1
	l.Scores["al"].GamesWon = 1
	l.Scores["gone"] = &models.PlayerScore{GamesWon: 9}

	rows := ScoreTable(l)
	require.Len(t, rows, 3, "only current members are listed")
	assert.Equal(t, "cara", rows[0].ID)
	assert.Equal(t, "al", rows[1].ID)
	assert.Equal(t, "ben", rows[2].ID)
}

func TestNewLobbyView(t *testing.T) {
	l := models.NewLobby("ABCDEF", "alice")
	l.AddMember(&models.Member{ID: "alice", Name: "Alice"})
	v := NewLobbyView(l, 2)
	assert.Equal(t, "ABCDEF", v.Code)
	assert.False(t, v.CanStart)

	l.AddMember(&models.Member{ID: "bob", Name: "Bob"})
	assert.True(t, NewLobbyView(l, 2).CanStart)

	l.Status = models.StatusStarted
	assert.False(t, NewLobbyView(l, 2).CanStart)
}
