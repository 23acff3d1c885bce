package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/aaronzipp/coup-online/internal/apperr"
	"github.com/aaronzipp/coup-online/internal/auth"
	"github.com/aaronzipp/coup-online/internal/game"
)

// TokenCookie carries the guest token for browser clients.
const TokenCookie = "coup_token"

// maxBody caps JSON request bodies.
const maxBody = 1 << 16

// guestFromRequest resolves the caller from a bearer token, the session
// cookie or a token query parameter, in that order.
func (ctx *Context) guestFromRequest(r *http.Request) (*auth.Guest, error) {
	token := ""
	if h := r.Header.Get("Authorization"); strings.HasPrefix(h, "Bearer ") {
		token = strings.TrimPrefix(h, "Bearer ")
	} else if c, err := r.Cookie(TokenCookie); err == nil {
		token = c.Value
	} else {
		token = r.URL.Query().Get("token")
	}
	return ctx.Auth.Verify(token)
}

// requireGuest writes a 401 and returns nil when the caller is not logged in.
func (ctx *Context) requireGuest(w http.ResponseWriter, r *http.Request) *auth.Guest {
	g, err := ctx.guestFromRequest(r)
	if err != nil {
		ctx.writeError(w, r, err)
		return nil
	}
	return g
}

func roomCode(r *http.Request) string {
	return game.NormalizeRoomCode(r.PathValue("code"))
}

// decodeBody reads a JSON body into v. An empty body leaves v untouched.
func decodeBody(r *http.Request, v any) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBody))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil && !errors.Is(err, io.EOF) {
		return apperr.Wrap(apperr.InvalidAction, "malformed request body", err)
	}
	return nil
}

func (ctx *Context) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		ctx.Log.WithError(err).Warn("encode response")
	}
}

type errorBody struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

func (ctx *Context) writeError(w http.ResponseWriter, r *http.Request, err error) {
	kind := apperr.KindOf(err)
	if kind == apperr.Internal {
		ctx.Log.WithError(err).WithField("path", r.URL.Path).Error("request failed")
	}
	ctx.writeJSON(w, kind.HTTPStatus(), errorBody{Error: apperr.MessageOf(err), Code: string(kind)})
}
