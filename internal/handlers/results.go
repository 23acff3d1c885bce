package handlers

import (
	"net/http"

	"github.com/aaronzipp/coup-online/internal/apperr"
	"github.com/aaronzipp/coup-online/internal/models"
	"github.com/aaronzipp/coup-online/internal/render"
)

type resultsResponse struct {
	Code       string              `json:"room_code"`
	Winner     string              `json:"winner"`
	WinnerName string              `json:"winner_name"`
	Trash      []models.Card       `json:"trash"`
	Players    []render.PlayerView `json:"players"`
	Scores     []render.ScoreRow   `json:"scores"`
}

// HandleResults shows the outcome of a finished game
func (ctx *Context) HandleResults(w http.ResponseWriter, r *http.Request) {
	g := ctx.requireGuest(w, r)
	if g == nil {
		return
	}
	code := roomCode(r)
	view, err := ctx.Service.View(code, g.ID)
	if err != nil {
		ctx.writeError(w, r, err)
		return
	}
	if !view.GameOver {
		ctx.writeError(w, r, apperr.New(apperr.InvalidAction, "the game has not finished"))
		return
	}
	lobby, err := ctx.Service.LobbyView(code)
	if err != nil {
		ctx.writeError(w, r, err)
		return
	}

	resp := resultsResponse{
		Code:    code,
		Winner:  view.Winner,
		Trash:   view.Trash,
		Players: view.Players,
		Scores:  lobby.Scores,
	}
	for _, p := range view.Players {
		if p.ID == view.Winner {
			resp.WinnerName = p.Name
		}
	}
	ctx.writeJSON(w, http.StatusOK, resp)
}
