package models

import "sync"

// Lobby is a room: its members, their scores and the current session.
// All reads and writes go through its lock; one lock per lobby.
type Lobby struct {
	Code    string
	Host    string
	Members []*Member               // join order, becomes seating order
	Scores  map[string]*PlayerScore // playerID -> PlayerScore (persistent)
	Status  LobbyStatus
	Session *Session // nil until the game starts
	mu      sync.RWMutex
	clients map[chan Event]string // channel -> playerID
}

// Event is one message pushed to a subscribed client.
type Event struct {
	Name string // event type (e.g., "action", "lobby-update")
	Data string // JSON payload
}

// NewLobby creates an empty waiting lobby.
func NewLobby(code, hostID string) *Lobby {
	return &Lobby{
		Code:   code,
		Host:   hostID,
		Scores: make(map[string]*PlayerScore),
		Status: StatusWaiting,
	}
}

// Lock acquires the lobby's write lock
func (l *Lobby) Lock() {
	l.mu.Lock()
}

// Unlock releases the lobby's write lock
func (l *Lobby) Unlock() {
	l.mu.Unlock()
}

// RLock acquires the lobby's read lock
func (l *Lobby) RLock() {
	l.mu.RLock()
}

// RUnlock releases the lobby's read lock
func (l *Lobby) RUnlock() {
	l.mu.RUnlock()
}

// Member returns the member with id, or nil.
func (l *Lobby) Member(id string) *Member {
	for _, m := range l.Members {
		if m.ID == id {
			return m
		}
	}
	return nil
}

// AddMember appends a member and gives them a score row.
func (l *Lobby) AddMember(m *Member) {
	l.Members = append(l.Members, m)
	if _, ok := l.Scores[m.ID]; !ok {
		l.Scores[m.ID] = &PlayerScore{}
	}
}

// RemoveMember drops a member; scores are kept.
func (l *Lobby) RemoveMember(id string) {
	out := l.Members[:0]
	for _, m := range l.Members {
		if m.ID != id {
			out = append(out, m)
		}
	}
	l.Members = out
}

// GetClients returns a copy of the subscribed clients (must be called with lock held)
func (l *Lobby) GetClients() map[chan Event]string {
	clients := make(map[chan Event]string, len(l.clients))
	for k, v := range l.clients {
		clients[k] = v
	}
	return clients
}

// AddClient subscribes a channel on behalf of playerID
func (l *Lobby) AddClient(client chan Event, playerID string) {
	if l.clients == nil {
		l.clients = make(map[chan Event]string)
	}
	l.clients[client] = playerID
}

// RemoveClient unsubscribes a channel
func (l *Lobby) RemoveClient(client chan Event) {
	delete(l.clients, client)
}

// ClientCount returns the number of subscribed clients
func (l *Lobby) ClientCount() int {
	return len(l.clients)
}

// Snapshot is the persisted form of a lobby.
type Snapshot struct {
	Code    string                  `json:"code"`
	Host    string                  `json:"host"`
	Members []*Member               `json:"members"`
	Scores  map[string]*PlayerScore `json:"scores"`
	Status  LobbyStatus             `json:"status"`
	Session *Session                `json:"session,omitempty"`
}

// Snapshot copies the persistent part of the lobby (must be called with lock held).
func (l *Lobby) Snapshot() *Snapshot {
	snap := &Snapshot{
		Code:    l.Code,
		Host:    l.Host,
		Members: make([]*Member, len(l.Members)),
		Scores:  make(map[string]*PlayerScore, len(l.Scores)),
		Status:  l.Status,
	}
	for i, m := range l.Members {
		cp := *m
		snap.Members[i] = &cp
	}
	for id, s := range l.Scores {
		cp := *s
		snap.Scores[id] = &cp
	}
	if l.Session != nil {
		snap.Session = l.Session.Clone()
	}
	return snap
}

// LobbyFromSnapshot rebuilds a lobby with no subscribed clients.
func LobbyFromSnapshot(snap *Snapshot) *Lobby {
	l := NewLobby(snap.Code, snap.Host)
	l.Members = snap.Members
	if snap.Scores != nil {
		l.Scores = snap.Scores
	}
	l.Status = snap.Status
	l.Session = snap.Session
	return l
}

// Restore puts the persistent part of the lobby back to snap. Subscribed
// clients are kept (must be called with lock held).
func (l *Lobby) Restore(snap *Snapshot) {
	l.Host = snap.Host
	l.Members = snap.Members
	l.Scores = snap.Scores
	if l.Scores == nil {
		l.Scores = make(map[string]*PlayerScore)
	}
	l.Status = snap.Status
	l.Session = snap.Session
}
