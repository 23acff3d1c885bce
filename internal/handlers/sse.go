package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/sirupsen/logrus"

	"github.com/aaronzipp/coup-online/internal/game"
	"github.com/aaronzipp/coup-online/internal/models"
	"github.com/aaronzipp/coup-online/internal/render"
	"github.com/aaronzipp/coup-online/internal/sse"
)

// initialEnvelope is the first message a new subscriber gets: the lobby and,
// while a game exists, the session masked for playerID.
func (ctx *Context) initialEnvelope(code, playerID string) (render.Envelope, error) {
	lv, err := ctx.Service.LobbyView(code)
	if err != nil {
		return render.Envelope{}, err
	}
	env := render.Envelope{Type: game.EventLobby, Lobby: lv}
	if lv.Status != models.StatusWaiting {
		if gv, err := ctx.Service.View(code, playerID); err == nil {
			env.Type = game.EventState
			env.State = gv
		}
	}
	return env, nil
}

// HandleSSE streams per-viewer envelopes for a lobby
func (ctx *Context) HandleSSE(w http.ResponseWriter, r *http.Request) {
	g := ctx.requireGuest(w, r)
	if g == nil {
		return
	}
	code := roomCode(r)
	log := ctx.Log.WithFields(logrus.Fields{"room": code, "player": g.ID})

	lobby, err := ctx.Service.Lobby(code)
	if err != nil {
		ctx.writeError(w, r, err)
		return
	}
	env, err := ctx.initialEnvelope(code, g.ID)
	if err != nil {
		ctx.writeError(w, r, err)
		return
	}
	initial, err := json.Marshal(env)
	if err != nil {
		ctx.writeError(w, r, err)
		return
	}

	// Set headers for SSE
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no") // Disable buffering in nginx/proxies
	rc := http.NewResponseController(w)

	clientChan := make(chan models.Event, game.EventBufferSize)
	sse.AddClient(lobby, clientChan, g.ID, log)
	defer sse.RemoveClient(lobby, clientChan)
	log.Debug("sse client connected")

	fmt.Fprintf(w, "event: %s\ndata: %s\n\n", env.Type, initial)
	if err := rc.Flush(); err != nil {
		log.WithError(err).Warn("streaming unsupported")
		return
	}

	// Listen for updates
	reqCtx := r.Context()
	for {
		select {
		case <-reqCtx.Done():
			log.Debug("sse client disconnected")
			return
		case msg := <-clientChan:
			fmt.Fprintf(w, "event: %s\ndata: %s\n\n", msg.Name, msg.Data)
			if err := rc.Flush(); err != nil {
				return
			}
			if msg.Name == game.EventClosed {
				return
			}
		}
	}
}
