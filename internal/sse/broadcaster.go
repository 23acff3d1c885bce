package sse

import (
	"encoding/json"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/aaronzipp/coup-online/internal/game"
	"github.com/aaronzipp/coup-online/internal/models"
	"github.com/aaronzipp/coup-online/internal/render"
)

// Broadcaster delivers updates to every client subscribed to a lobby.
// Each client gets its own masked copy of the session. Slow clients are
// skipped after the send timeout; failures are logged, never returned.
type Broadcaster struct {
	log     logrus.FieldLogger
	timeout time.Duration
}

// NewBroadcaster creates a broadcaster.
func NewBroadcaster(log logrus.FieldLogger) *Broadcaster {
	return &Broadcaster{log: log, timeout: game.SendTimeout}
}

// AddClient subscribes a channel to the lobby on behalf of playerID
func AddClient(lobby *models.Lobby, client chan models.Event, playerID string, log logrus.FieldLogger) {
	lobby.Lock()
	defer lobby.Unlock()

	dup := 0
	for _, pid := range lobby.GetClients() {
		if pid == playerID {
			dup++
		}
	}
	if dup > 0 {
		log.WithFields(logrus.Fields{"room": lobby.Code, "player": playerID}).
			Warnf("player opened %d additional connection(s)", dup)
	}
	lobby.AddClient(client, playerID)
}

// RemoveClient unsubscribes a channel
func RemoveClient(lobby *models.Lobby, client chan models.Event) {
	lobby.Lock()
	defer lobby.Unlock()
	lobby.RemoveClient(client)
}

// Publish renders u for each subscriber and sends it.
func (b *Broadcaster) Publish(lobby *models.Lobby, u game.Update) {
	lobby.RLock()
	clients := lobby.GetClients()
	lobby.RUnlock()

	log := b.log.WithFields(logrus.Fields{"room": lobby.Code, "event": u.Event})
	sent := 0
	for client, playerID := range clients {
		data, err := json.Marshal(Envelope(u, playerID))
		if err != nil {
			log.WithError(err).Warn("encode update")
			continue
		}
		select {
		case client <- models.Event{Name: u.Event, Data: string(data)}:
			sent++
		case <-time.After(b.timeout):
			log.WithField("player", playerID).Debug("timeout sending to client")
		}
	}
	log.Debugf("sent to %d/%d clients", sent, len(clients))
}

// Envelope is the payload of u as seen by viewer.
func Envelope(u game.Update, viewer string) render.Envelope {
	env := render.Envelope{Type: u.Event, Message: u.Message, Lobby: u.Lobby}
	if u.Session != nil {
		env.State = render.MaskSession(u.Session, viewer)
		env.State.Pending = u.Pending
	}
	return env
}
