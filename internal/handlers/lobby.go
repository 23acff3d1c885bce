package handlers

import (
	"net/http"

	"github.com/aaronzipp/coup-online/internal/render"
)

// HandleListLobbies lists rooms that can still be joined
func (ctx *Context) HandleListLobbies(w http.ResponseWriter, r *http.Request) {
	views := ctx.Service.OpenLobbies()
	if views == nil {
		views = []*render.LobbyView{}
	}
	ctx.writeJSON(w, http.StatusOK, views)
}

// HandleCreateLobby creates a new lobby hosted by the caller
func (ctx *Context) HandleCreateLobby(w http.ResponseWriter, r *http.Request) {
	g := ctx.requireGuest(w, r)
	if g == nil {
		return
	}
	view, err := ctx.Service.CreateLobby(r.Context(), g.ID, g.Nickname)
	if err != nil {
		ctx.writeError(w, r, err)
		return
	}
	ctx.writeJSON(w, http.StatusCreated, view)
}

// HandleJoinLobby seats the caller in an existing lobby
func (ctx *Context) HandleJoinLobby(w http.ResponseWriter, r *http.Request) {
	g := ctx.requireGuest(w, r)
	if g == nil {
		return
	}
	view, err := ctx.Service.JoinLobby(r.Context(), roomCode(r), g.ID, g.Nickname)
	if err != nil {
		ctx.writeError(w, r, err)
		return
	}
	ctx.writeJSON(w, http.StatusOK, view)
}

type leaveResponse struct {
	Code   string            `json:"room_code"`
	Closed bool              `json:"closed"`
	Lobby  *render.LobbyView `json:"lobby,omitempty"`
}

// HandleLeaveLobby removes the caller from a lobby
func (ctx *Context) HandleLeaveLobby(w http.ResponseWriter, r *http.Request) {
	g := ctx.requireGuest(w, r)
	if g == nil {
		return
	}
	code := roomCode(r)
	view, err := ctx.Service.LeaveLobby(r.Context(), code, g.ID)
	if err != nil {
		ctx.writeError(w, r, err)
		return
	}
	ctx.writeJSON(w, http.StatusOK, leaveResponse{Code: code, Closed: view == nil, Lobby: view})
}

// HandleLobby returns the public lobby state
func (ctx *Context) HandleLobby(w http.ResponseWriter, r *http.Request) {
	view, err := ctx.Service.LobbyView(roomCode(r))
	if err != nil {
		ctx.writeError(w, r, err)
		return
	}
	ctx.writeJSON(w, http.StatusOK, view)
}

// HandleStartGame deals a new game (host only)
func (ctx *Context) HandleStartGame(w http.ResponseWriter, r *http.Request) {
	g := ctx.requireGuest(w, r)
	if g == nil {
		return
	}
	res, err := ctx.Service.StartGame(r.Context(), roomCode(r), g.ID)
	if err != nil {
		ctx.writeError(w, r, err)
		return
	}
	ctx.writeJSON(w, http.StatusOK, res)
}

// HandleRestartGame returns a finished lobby to waiting (host only)
func (ctx *Context) HandleRestartGame(w http.ResponseWriter, r *http.Request) {
	g := ctx.requireGuest(w, r)
	if g == nil {
		return
	}
	view, err := ctx.Service.RestartGame(r.Context(), roomCode(r), g.ID)
	if err != nil {
		ctx.writeError(w, r, err)
		return
	}
	ctx.writeJSON(w, http.StatusOK, view)
}

// HandleCloseLobby deletes the lobby (host only)
func (ctx *Context) HandleCloseLobby(w http.ResponseWriter, r *http.Request) {
	g := ctx.requireGuest(w, r)
	if g == nil {
		return
	}
	code := roomCode(r)
	if err := ctx.Service.CloseLobby(r.Context(), code, g.ID); err != nil {
		ctx.writeError(w, r, err)
		return
	}
	ctx.writeJSON(w, http.StatusOK, leaveResponse{Code: code, Closed: true})
}
