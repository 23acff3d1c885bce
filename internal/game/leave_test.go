package game

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aaronzipp/coup-online/internal/apperr"
	"github.com/aaronzipp/coup-online/internal/models"
)

func TestForfeitTargetCancelsPendingAction(t *testing.T) {
	s := table()
	m := newMachine(newClock())
	_, err := m.Submit(s, "alice", models.ActionSteal, "bob")
	require.NoError(t, err)

	msg, err := Forfeit(s, "bob")
	require.NoError(t, err)
	assert.Contains(t, msg, "cancelled")
	assert.Nil(t, s.Pending)
	assert.False(t, s.Players[1].Alive())
	assert.True(t, s.Players[1].Left)
	assert.Equal(t, 2, s.Turn, "turn moves past the actor and the empty seat")
	assert.Equal(t, 2, s.Players[0].Coins)
	checkInvariants(t, s, 10)
}

func TestForfeitOnOwnTurn(t *testing.T) {
	s := table()
	_, err := Forfeit(s, "alice")
	require.NoError(t, err)
	assert.Equal(t, 1, s.Turn)
	assert.Len(t, s.Trash, 2)
	checkInvariants(t, s, 10)
}

func TestForfeitBystanderKeepsPendingAction(t *testing.T) {
	s := table()
	m := newMachine(newClock())
	_, err := m.Submit(s, "alice", models.ActionTax, "")
	require.NoError(t, err)

	_, err = Forfeit(s, "carol")
	require.NoError(t, err)
	require.NotNil(t, s.Pending)
	assert.Equal(t, 0, s.Turn)

	_, err = m.React(s, "bob", pass())
	require.NoError(t, err)
	assert.Equal(t, 5, s.Players[0].Coins)
	assert.Equal(t, 1, s.Turn)
}

func TestForfeitEndsTwoPlayerGame(t *testing.T) {
	s := table()
	s.Players = s.Players[:2]
	s.Turn = 1
	_, err := Forfeit(s, "alice")
	require.NoError(t, err)
	assert.True(t, s.GameOver)
	assert.Equal(t, "bob", s.Winner)
}

func TestForfeitTwice(t *testing.T) {
	s := table()
	_, err := Forfeit(s, "carol")
	require.NoError(t, err)
	trash := len(s.Trash)
	msg, err := Forfeit(s, "carol")
	require.NoError(t, err)
	assert.Empty(t, msg)
	assert.Len(t, s.Trash, trash)

	_, err = Forfeit(s, "zed")
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}
