package store

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aaronzipp/coup-online/internal/apperr"
	"github.com/aaronzipp/coup-online/internal/models"
)

func TestLobbyStore(t *testing.T) {
	s := NewLobbyStore()
	assert.True(t, s.Add(models.NewLobby("BBBBBB", "h1")))
	assert.True(t, s.Add(models.NewLobby("AAAAAA", "h2")))
	assert.False(t, s.Add(models.NewLobby("AAAAAA", "h3")), "codes are unique")

	l, ok := s.Get("AAAAAA")
	require.True(t, ok)
	assert.Equal(t, "h2", l.Host)
	assert.Equal(t, []string{"AAAAAA", "BBBBBB"}, s.Codes())

	s.Delete("AAAAAA")
	_, ok = s.Get("AAAAAA")
	assert.False(t, ok)
	assert.Equal(t, []string{"BBBBBB"}, s.Codes())
}

type snapshotStore interface {
	SaveSnapshot(context.Context, *models.Snapshot) error
	LoadSnapshot(context.Context, string) (*models.Snapshot, error)
	DeleteSnapshot(context.Context, string) error
	ListSnapshots(context.Context) ([]*models.Snapshot, error)
}

func sampleSnapshot(code string) *models.Snapshot {
	l := models.NewLobby(code, "p1")
	l.AddMember(&models.Member{ID: "p1", Name: "Ada"})
	l.AddMember(&models.Member{ID: "p2", Name: "Bo"})
	l.Status = models.StatusStarted
	l.Session = &models.Session{
		ID: "s1",
		Players: []*models.Player{
			models.NewPlayer("p1", "Ada", 2, []models.Card{models.Duke, models.Captain}),
			models.NewPlayer("p2", "Bo", 2, []models.Card{models.Contessa, models.Assassin}),
		},
		Deck: models.Deck{models.Ambassador, models.Duke},
		Pending: &models.PendingAction{
			ActorID: "p1",
			Kind:    models.ActionTax,
			Stage:   models.RevealClaimStage{AwaitingFrom: "p1", RequiredCard: models.Duke, NextLoser: "p2", Then: models.ContinueChallengeFailed},
		},
	}
	return l.Snapshot()
}

func TestSnapshotStores(t *testing.T) {
	ctx := context.Background()
	stores := map[string]func(t *testing.T) snapshotStore{
		"memory": func(t *testing.T) snapshotStore { return NewMemorySnapshotStore() },
		"sqlite": func(t *testing.T) snapshotStore {
			s, err := OpenSQLite(filepath.Join(t.TempDir(), "coup.db"))
			require.NoError(t, err)
			t.Cleanup(func() { _ = s.Close() })
			return s
		},
	}

	for name, open := range stores {
		t.Run(name, func(t *testing.T) {
			s := open(t)

			_, err := s.LoadSnapshot(ctx, "NOPE42")
			assert.ErrorIs(t, err, apperr.ErrNotFound)

			require.NoError(t, s.SaveSnapshot(ctx, sampleSnapshot("ROOM22")))
			require.NoError(t, s.SaveSnapshot(ctx, sampleSnapshot("ROOM11")))

			got, err := s.LoadSnapshot(ctx, "ROOM22")
			require.NoError(t, err)
			assert.Equal(t, models.StatusStarted, got.Status)
			require.NotNil(t, got.Session)
			require.NotNil(t, got.Session.Pending)
			assert.Equal(t, models.RevealClaimStage{AwaitingFrom: "p1", RequiredCard: models.Duke, NextLoser: "p2", Then: models.ContinueChallengeFailed}, got.Session.Pending.Stage)
			assert.Equal(t, []models.Card{models.Duke, models.Captain}, got.Session.Players[0].Hand)

			// overwrite
			updated := sampleSnapshot("ROOM22")
			updated.Status = models.StatusFinished
			require.NoError(t, s.SaveSnapshot(ctx, updated))
			got, err = s.LoadSnapshot(ctx, "ROOM22")
			require.NoError(t, err)
			assert.Equal(t, models.StatusFinished, got.Status)

			all, err := s.ListSnapshots(ctx)
			require.NoError(t, err)
			require.Len(t, all, 2)
			assert.Equal(t, "ROOM11", all[0].Code)
			assert.Equal(t, "ROOM22", all[1].Code)

			require.NoError(t, s.DeleteSnapshot(ctx, "ROOM11"))
			require.NoError(t, s.DeleteSnapshot(ctx, "ROOM11"))
			all, err = s.ListSnapshots(ctx)
			require.NoError(t, err)
			assert.Len(t, all, 1)
		})
	}
}

func TestOpenSQLiteRequiresPath(t *testing.T) {
	_, err := OpenSQLite("  ")
	assert.Error(t, err)
}

func TestSQLiteConcurrentSaves(t *testing.T) {
	ctx := context.Background()
	s, err := OpenSQLite(filepath.Join(t.TempDir(), "coup.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })

	var mode string
	require.NoError(t, s.sqlDB.QueryRowContext(ctx, "PRAGMA journal_mode").Scan(&mode))
	assert.Equal(t, "wal", mode)

	const writers, saves = 32, 50
	errs := make(chan error, writers*saves)
	var wg sync.WaitGroup
	for w := 0; w < writers; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			code := fmt.Sprintf("RM%04d", w)
			for i := 0; i < saves; i++ {
				if err := s.SaveSnapshot(ctx, sampleSnapshot(code)); err != nil {
					errs <- err
				}
			}
		}(w)
	}
	wg.Wait()
	close(errs)

	var failed []error
	for err := range errs {
		failed = append(failed, err)
	}
	assert.Empty(t, failed)

	all, err := s.ListSnapshots(ctx)
	require.NoError(t, err)
	assert.Len(t, all, writers)
}
