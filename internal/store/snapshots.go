package store

import (
	"context"
	"encoding/json"
	"sort"
	"sync"

	"github.com/aaronzipp/coup-online/internal/apperr"
	"github.com/aaronzipp/coup-online/internal/models"
)

// MemorySnapshotStore keeps encoded snapshots in a map. Snapshots are stored
// as JSON so that loads never alias live state.
type MemorySnapshotStore struct {
	mu    sync.RWMutex
	blobs map[string][]byte
}

// NewMemorySnapshotStore returns an empty store.
func NewMemorySnapshotStore() *MemorySnapshotStore {
	return &MemorySnapshotStore{blobs: make(map[string][]byte)}
}

func (s *MemorySnapshotStore) SaveSnapshot(_ context.Context, snap *models.Snapshot) error {
	data, err := json.Marshal(snap)
	if err != nil {
		return apperr.Wrap(apperr.Internal, "encode snapshot", err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.blobs[snap.Code] = data
	return nil
}

func (s *MemorySnapshotStore) LoadSnapshot(_ context.Context, code string) (*models.Snapshot, error) {
	s.mu.RLock()
	data, ok := s.blobs[code]
	s.mu.RUnlock()
	if !ok {
		return nil, apperr.Newf(apperr.NotFound, "no snapshot for room %s", code)
	}
	return decodeSnapshot(data)
}

func (s *MemorySnapshotStore) DeleteSnapshot(_ context.Context, code string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.blobs, code)
	return nil
}

func (s *MemorySnapshotStore) ListSnapshots(ctx context.Context) ([]*models.Snapshot, error) {
	s.mu.RLock()
	codes := make([]string, 0, len(s.blobs))
	for code := range s.blobs {
		codes = append(codes, code)
	}
	s.mu.RUnlock()
	sort.Strings(codes)

	out := make([]*models.Snapshot, 0, len(codes))
	for _, code := range codes {
		snap, err := s.LoadSnapshot(ctx, code)
		if apperr.KindOf(err) == apperr.NotFound {
			continue
		}
		if err != nil {
			return nil, err
		}
		out = append(out, snap)
	}
	return out, nil
}

func decodeSnapshot(data []byte) (*models.Snapshot, error) {
	var snap models.Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, apperr.Wrap(apperr.Internal, "decode snapshot", err)
	}
	return &snap, nil
}
