package game

import (
	"context"
	"errors"
	"math/rand/v2"
	"sync"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aaronzipp/coup-online/internal/apperr"
	"github.com/aaronzipp/coup-online/internal/models"
	"github.com/aaronzipp/coup-online/internal/store"
)

type recordingBroadcaster struct {
	mu      sync.Mutex
	updates []Update
}

func (b *recordingBroadcaster) Publish(_ *models.Lobby, u Update) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.updates = append(b.updates, u)
}

func (b *recordingBroadcaster) last() Update {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.updates[len(b.updates)-1]
}

type failingSnapshots struct {
	*store.MemorySnapshotStore
	fail bool
}

func (f *failingSnapshots) SaveSnapshot(ctx context.Context, snap *models.Snapshot) error {
	if f.fail {
		return errors.New("disk full")
	}
	return f.MemorySnapshotStore.SaveSnapshot(ctx, snap)
}

type fixture struct {
	svc       *Service
	clock     *fakeClock
	bc        *recordingBroadcaster
	snapshots *failingSnapshots
	logs      *test.Hook
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	logger, hook := test.NewNullLogger()
	logger.SetLevel(logrus.DebugLevel)
	f := &fixture{
		clock:     newClock(),
		bc:        &recordingBroadcaster{},
		snapshots: &failingSnapshots{MemorySnapshotStore: store.NewMemorySnapshotStore()},
		logs:      hook,
	}
	f.svc = NewService(store.NewLobbyStore(),
		WithSnapshotStore(f.snapshots),
		WithBroadcaster(f.bc),
		WithLogger(logger),
		WithClock(f.clock.Now),
		WithRand(rand.New(rand.NewPCG(42, 42))),
	)
	return f
}

// room creates a lobby hosted by alice with bob and carol seated.
func (f *fixture) room(t *testing.T) string {
	t.Helper()
	ctx := context.Background()
	v, err := f.svc.CreateLobby(ctx, "alice", "Alice")
	require.NoError(t, err)
	_, err = f.svc.JoinLobby(ctx, v.Code, "bob", "Bob")
	require.NoError(t, err)
	_, err = f.svc.JoinLobby(ctx, v.Code, "carol", "Carol")
	require.NoError(t, err)
	return v.Code
}

// rig replaces the dealt session with the fixed table.
func (f *fixture) rig(t *testing.T, code string) {
	t.Helper()
	l, err := f.svc.Lobby(code)
	require.NoError(t, err)
	l.Lock()
	l.Session = table()
	l.Status = models.StatusStarted
	l.Unlock()
}

func TestLobbyLifecycle(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	code := f.room(t)

	v, err := f.svc.JoinLobby(ctx, code, "bob", "Bob")
	require.NoError(t, err)
	assert.Len(t, v.Members, 3, "joining twice is a no-op")
	assert.True(t, v.CanStart)

	_, err = f.svc.StartGame(ctx, code, "bob")
	assert.ErrorIs(t, err, apperr.ErrWrongResponder)

	res, err := f.svc.StartGame(ctx, code, "alice")
	require.NoError(t, err)
	require.NotNil(t, res.State)
	assert.Len(t, res.State.Players, 3)
	assert.Equal(t, 9, res.State.DeckCount)
	for _, p := range res.State.Players {
		assert.Equal(t, StartingCoins, p.Coins)
		for _, c := range p.Hand {
			if p.ID == "alice" {
				assert.NotEqual(t, models.HiddenCard, c)
			} else {
				assert.Equal(t, models.HiddenCard, c)
			}
		}
	}
	assert.Equal(t, EventState, f.bc.last().Event)

	_, err = f.svc.JoinLobby(ctx, code, "dave", "Dave")
	assert.ErrorIs(t, err, apperr.ErrInvalidAction)
	_, err = f.svc.StartGame(ctx, code, "alice")
	assert.ErrorIs(t, err, apperr.ErrInvalidAction)
	_, err = f.svc.RestartGame(ctx, code, "alice")
	assert.ErrorIs(t, err, apperr.ErrInvalidAction)

	snap, err := f.snapshots.LoadSnapshot(ctx, code)
	require.NoError(t, err)
	assert.Equal(t, models.StatusStarted, snap.Status)
	assert.Equal(t, 15, snap.Session.CardCount())
}

func TestStartNeedsTwoPlayers(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	v, err := f.svc.CreateLobby(ctx, "alice", "Alice")
	require.NoError(t, err)
	assert.False(t, v.CanStart)
	_, err = f.svc.StartGame(ctx, v.Code, "alice")
	assert.ErrorIs(t, err, apperr.ErrInvalidAction)
}

func TestLobbyIsCappedAtSixPlayers(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	v, err := f.svc.CreateLobby(ctx, "p0", "")
	require.NoError(t, err)
	for _, id := range []string{"p1", "p2", "p3", "p4", "p5"} {
		_, err := f.svc.JoinLobby(ctx, v.Code, id, "")
		require.NoError(t, err)
	}
	_, err = f.svc.JoinLobby(ctx, v.Code, "p6", "")
	assert.ErrorIs(t, err, apperr.ErrInvalidAction)
}

func TestOpenLobbies(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	assert.Empty(t, f.svc.OpenLobbies())

	started := f.room(t)
	waiting, err := f.svc.CreateLobby(ctx, "dave", "Dave")
	require.NoError(t, err)
	_, err = f.svc.StartGame(ctx, started, "alice")
	require.NoError(t, err)

	open := f.svc.OpenLobbies()
	require.Len(t, open, 1)
	assert.Equal(t, waiting.Code, open[0].Code)
}

func TestPlayThroughService(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	code := f.room(t)
	f.rig(t, code)

	_, err := f.svc.SubmitAction(ctx, code, "bob", models.ActionIncome, "")
	assert.ErrorIs(t, err, apperr.ErrOutOfTurn)

	res, err := f.svc.SubmitAction(ctx, code, "alice", models.ActionTax, "")
	require.NoError(t, err)
	require.NotNil(t, res.State.Pending)
	assert.Equal(t, models.StageReaction, res.State.Pending.Stage)
	assert.Equal(t, 60, res.State.Pending.RemainingSeconds)

	f.clock.Advance(15 * time.Second)
	view, err := f.svc.View(code, "bob")
	require.NoError(t, err)
	assert.Equal(t, 45, view.Pending.RemainingSeconds)

	res, err = f.svc.SubmitReaction(ctx, code, "bob", Reaction{Kind: ReactPass})
	require.NoError(t, err)
	assert.Contains(t, res.Message, "Tax")
	assert.Nil(t, res.State.Pending)
	assert.Equal(t, 5, res.State.Players[0].Coins)
	assert.Equal(t, "bob", res.State.CurrentPlayer)

	u := f.bc.last()
	assert.Equal(t, EventState, u.Event)
	assert.Equal(t, res.Message, u.Message)
	assert.Equal(t, []models.Card{models.Contessa, models.Ambassador}, u.Session.Players[1].Hand, "updates carry the unmasked session")
}

func TestRacingReactionsHonorOnlyTheFirst(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	code := f.room(t)
	f.rig(t, code)

	_, err := f.svc.SubmitAction(ctx, code, "alice", models.ActionTax, "")
	require.NoError(t, err)

	responders := []string{"bob", "carol"}
	errs := make([]error, len(responders))
	var wg sync.WaitGroup
	for i, id := range responders {
		wg.Add(1)
		go func(i int, id string) {
			defer wg.Done()
			_, errs[i] = f.svc.SubmitReaction(ctx, code, id, Reaction{Kind: ReactPass})
		}(i, id)
	}
	wg.Wait()

	var ok int
	for _, err := range errs {
		if err == nil {
			ok++
			continue
		}
		assert.ErrorIs(t, err, apperr.ErrNoPendingAction)
	}
	assert.Equal(t, 1, ok, "exactly one pass resolves the tax")

	view, err := f.svc.View(code, "alice")
	require.NoError(t, err)
	assert.Nil(t, view.Pending)
	assert.Equal(t, 5, view.Players[0].Coins, "tax is paid once")
	assert.Equal(t, "bob", view.CurrentPlayer)
}

func TestConcurrentSubmitsAcceptOne(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	code := f.room(t)
	f.rig(t, code)

	kinds := []models.ActionKind{
		models.ActionTax, models.ActionIncome, models.ActionTax, models.ActionIncome,
		models.ActionTax, models.ActionIncome, models.ActionTax, models.ActionIncome,
	}
	errs := make([]error, len(kinds))
	var wg sync.WaitGroup
	for i, kind := range kinds {
		wg.Add(1)
		go func(i int, kind models.ActionKind) {
			defer wg.Done()
			_, errs[i] = f.svc.SubmitAction(ctx, code, "alice", kind, "")
		}(i, kind)
	}
	wg.Wait()

	var ok int
	for _, err := range errs {
		if err == nil {
			ok++
			continue
		}
		// a pending tax keeps alice's turn; a resolved income moves it to bob
		assert.True(t, errors.Is(err, apperr.ErrInvalidAction) || errors.Is(err, apperr.ErrOutOfTurn), "unexpected error: %v", err)
	}
	assert.Equal(t, 1, ok, "only one action is accepted per turn")

	view, err := f.svc.View(code, "alice")
	require.NoError(t, err)
	if view.Pending != nil {
		assert.Equal(t, "alice", view.CurrentPlayer)
		assert.Equal(t, 2, view.Players[0].Coins)
	} else {
		assert.Equal(t, "bob", view.CurrentPlayer)
		assert.Equal(t, 3, view.Players[0].Coins)
	}
}

func TestRejectedReactionLeavesStateUntouched(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	code := f.room(t)
	f.rig(t, code)

	_, err := f.svc.SubmitAction(ctx, code, "alice", models.ActionTax, "")
	require.NoError(t, err)
	before, err := f.svc.Snapshot(code)
	require.NoError(t, err)
	published := len(f.bc.updates)

	_, err = f.svc.SubmitReaction(ctx, code, "bob", Reaction{Kind: ReactSelectCard, CardIndex: 0})
	assert.ErrorIs(t, err, apperr.ErrInvalidAction)

	after, err := f.svc.Snapshot(code)
	require.NoError(t, err)
	assert.Equal(t, before, after)
	assert.Len(t, f.bc.updates, published, "nothing is broadcast for a rejected request")
}

func TestExpiredWindowIsCommitted(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	code := f.room(t)
	f.rig(t, code)

	_, err := f.svc.SubmitAction(ctx, code, "alice", models.ActionTax, "")
	require.NoError(t, err)
	f.clock.Advance(61 * time.Second)

	_, err = f.svc.SubmitReaction(ctx, code, "bob", Reaction{Kind: ReactPass})
	assert.ErrorIs(t, err, apperr.ErrWindowExpired)

	view, err := f.svc.View(code, "alice")
	require.NoError(t, err)
	assert.Nil(t, view.Pending)
	assert.Equal(t, "alice", view.CurrentPlayer)

	snap, err := f.snapshots.LoadSnapshot(ctx, code)
	require.NoError(t, err)
	assert.Nil(t, snap.Session.Pending, "the cleared action is persisted")
}

func TestPersistenceFailureRollsBack(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	code := f.room(t)
	f.rig(t, code)

	f.snapshots.fail = true
	_, err := f.svc.SubmitAction(ctx, code, "alice", models.ActionIncome, "")
	assert.Equal(t, apperr.Internal, apperr.KindOf(err))

	view, err := f.svc.View(code, "alice")
	require.NoError(t, err)
	assert.Equal(t, 2, view.Players[0].Coins)
	assert.Equal(t, "alice", view.CurrentPlayer)
	assert.NotEmpty(t, f.logs.AllEntries())
}

func TestGameOverUpdatesScores(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	code := f.room(t)
	f.rig(t, code)

	l, err := f.svc.Lobby(code)
	require.NoError(t, err)
	l.Lock()
	l.Session.Players[2].Hand, l.Session.Players[2].Revealed = nil, nil
	l.Session.Players[1].Hand = l.Session.Players[1].Hand[:1]
	l.Session.Players[1].Revealed = l.Session.Players[1].Revealed[:1]
	l.Session.Players[0].Coins = 7
	l.Unlock()

	_, err = f.svc.SubmitAction(ctx, code, "alice", models.ActionCoup, "bob")
	require.NoError(t, err)
	res, err := f.svc.SubmitReaction(ctx, code, "bob", Reaction{Kind: ReactSelectCard, CardIndex: 0})
	require.NoError(t, err)
	assert.True(t, res.State.GameOver)
	assert.Equal(t, "alice", res.State.Winner)

	lv, err := f.svc.LobbyView(code)
	require.NoError(t, err)
	assert.Equal(t, models.StatusFinished, lv.Status)
	require.Len(t, lv.Scores, 3)
	assert.Equal(t, "alice", lv.Scores[0].ID)
	assert.Equal(t, 1, lv.Scores[0].GamesWon)
	assert.Equal(t, 1, lv.Scores[1].GamesLost)

	_, err = f.svc.SubmitAction(ctx, code, "alice", models.ActionIncome, "")
	assert.ErrorIs(t, err, apperr.ErrInvalidAction)

	lv, err = f.svc.RestartGame(ctx, code, "alice")
	require.NoError(t, err)
	assert.Equal(t, models.StatusWaiting, lv.Status)
	_, err = f.svc.View(code, "alice")
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestLeaveDuringGame(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	code := f.room(t)
	f.rig(t, code)

	_, err := f.svc.SubmitAction(ctx, code, "alice", models.ActionSteal, "bob")
	require.NoError(t, err)

	lv, err := f.svc.LeaveLobby(ctx, code, "alice")
	require.NoError(t, err)
	assert.Equal(t, "bob", lv.Host, "host passes to the next member")
	assert.Len(t, lv.Members, 2)

	view, err := f.svc.View(code, "bob")
	require.NoError(t, err)
	assert.Nil(t, view.Pending)
	assert.Equal(t, "bob", view.CurrentPlayer)
	assert.True(t, view.Players[0].Left)

	_, err = f.svc.LeaveLobby(ctx, code, "carol")
	require.NoError(t, err)
	lv, err = f.svc.LobbyView(code)
	require.NoError(t, err)
	assert.Equal(t, models.StatusFinished, lv.Status)

	_, err = f.svc.LeaveLobby(ctx, code, "bob")
	require.NoError(t, err)
	_, err = f.svc.Lobby(code)
	assert.ErrorIs(t, err, apperr.ErrNotFound, "an empty room closes")
	_, err = f.snapshots.LoadSnapshot(ctx, code)
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestCloseLobby(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	code := f.room(t)

	assert.ErrorIs(t, f.svc.CloseLobby(ctx, code, "bob"), apperr.ErrWrongResponder)
	require.NoError(t, f.svc.CloseLobby(ctx, code, "alice"))
	assert.Equal(t, EventClosed, f.bc.last().Event)
	_, err := f.svc.Lobby(code)
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestRestoreFromSnapshots(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	code := f.room(t)
	_, err := f.svc.StartGame(ctx, code, "alice")
	require.NoError(t, err)
	want, err := f.svc.Snapshot(code)
	require.NoError(t, err)

	restarted := NewService(store.NewLobbyStore(), WithSnapshotStore(f.snapshots), WithClock(f.clock.Now))
	n, err := restarted.Restore(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	got, err := restarted.Snapshot(code)
	require.NoError(t, err)
	assert.Equal(t, want.Session.Players, got.Session.Players)
	assert.Equal(t, want.Session.Deck, got.Session.Deck)
	assert.Equal(t, want.Session.Turn, got.Session.Turn)
	assert.Equal(t, models.StatusStarted, got.Status)
}
