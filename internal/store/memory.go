package store

import (
	"sort"
	"sync"

	"github.com/aaronzipp/coup-online/internal/models"
)

// LobbyStore manages live lobbies
type LobbyStore struct {
	lobbies map[string]*models.Lobby
	mu      sync.RWMutex
}

// NewLobbyStore creates a new lobby store
func NewLobbyStore() *LobbyStore {
	return &LobbyStore{
		lobbies: make(map[string]*models.Lobby),
	}
}

// Get retrieves a lobby by code
func (s *LobbyStore) Get(code string) (*models.Lobby, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	lobby, exists := s.lobbies[code]
	return lobby, exists
}

// Set stores a lobby
func (s *LobbyStore) Set(code string, lobby *models.Lobby) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lobbies[code] = lobby
}

// Add stores a lobby unless its code is taken
func (s *LobbyStore) Add(lobby *models.Lobby) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, taken := s.lobbies[lobby.Code]; taken {
		return false
	}
	s.lobbies[lobby.Code] = lobby
	return true
}

// Delete removes a lobby
func (s *LobbyStore) Delete(code string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.lobbies, code)
}

// Codes returns all lobby codes, sorted
func (s *LobbyStore) Codes() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	codes := make([]string, 0, len(s.lobbies))
	for code := range s.lobbies {
		codes = append(codes, code)
	}
	sort.Strings(codes)
	return codes
}
