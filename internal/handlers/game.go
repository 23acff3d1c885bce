package handlers

import (
	"context"
	"net/http"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/aaronzipp/coup-online/internal/apperr"
	"github.com/aaronzipp/coup-online/internal/game"
	"github.com/aaronzipp/coup-online/internal/models"
)

// actionRequest is the body of POST /game/{code}/action and of WebSocket
// action messages. Reaction types are routed to SubmitReaction.
type actionRequest struct {
	ActionType string `json:"action_type"`
	TargetID   string `json:"target_id,omitempty"`
	CardIndex  *int   `json:"card_index,omitempty"`
	BlockCard  string `json:"block_card,omitempty"`
}

func (req actionRequest) reaction() (game.Reaction, bool) {
	kind := game.ReactionKind(strings.ToLower(strings.TrimSpace(req.ActionType)))
	switch kind {
	case game.ReactChallenge, game.ReactBlock, game.ReactPass, game.ReactSelectCard:
	default:
		return game.Reaction{}, false
	}
	r := game.Reaction{Kind: kind, BlockCard: models.Card(req.BlockCard), CardIndex: -1}
	if req.CardIndex != nil {
		r.CardIndex = *req.CardIndex
	}
	return r, true
}

// dispatch sends req for playerID to the service.
func (ctx *Context) dispatch(c context.Context, code, playerID string, req actionRequest) (*game.Result, error) {
	if req.ActionType == "" {
		return nil, apperr.New(apperr.InvalidAction, "action_type is required")
	}
	if r, ok := req.reaction(); ok {
		return ctx.Service.SubmitReaction(c, code, playerID, r)
	}
	kind := models.ActionKind(strings.ToLower(strings.TrimSpace(req.ActionType)))
	return ctx.Service.SubmitAction(c, code, playerID, kind, req.TargetID)
}

// HandleAction submits an action or a reaction for the caller
func (ctx *Context) HandleAction(w http.ResponseWriter, r *http.Request) {
	g := ctx.requireGuest(w, r)
	if g == nil {
		return
	}
	var req actionRequest
	if err := decodeBody(r, &req); err != nil {
		ctx.writeError(w, r, err)
		return
	}
	code := roomCode(r)
	res, err := ctx.dispatch(r.Context(), code, g.ID, req)
	if err != nil {
		ctx.Log.WithFields(logrus.Fields{"room": code, "player": g.ID, "action": req.ActionType}).
			WithError(err).Debug("action rejected")
		ctx.writeError(w, r, err)
		return
	}
	ctx.writeJSON(w, http.StatusOK, res)
}

// HandleGameState returns the session masked for the caller
func (ctx *Context) HandleGameState(w http.ResponseWriter, r *http.Request) {
	g := ctx.requireGuest(w, r)
	if g == nil {
		return
	}
	view, err := ctx.Service.View(roomCode(r), g.ID)
	if err != nil {
		ctx.writeError(w, r, err)
		return
	}
	ctx.writeJSON(w, http.StatusOK, view)
}
