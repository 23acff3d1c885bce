package handlers

import (
	"net/http"
)

type guestRequest struct {
	Nickname string `json:"nickname"`
}

// HandleGuestLogin issues a guest identity and sets the session cookie
func (ctx *Context) HandleGuestLogin(w http.ResponseWriter, r *http.Request) {
	var req guestRequest
	if err := decodeBody(r, &req); err != nil {
		ctx.writeError(w, r, err)
		return
	}
	g, err := ctx.Auth.IssueGuest(req.Nickname)
	if err != nil {
		ctx.writeError(w, r, err)
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     TokenCookie,
		Value:    g.Token,
		Path:     "/",
		Expires:  g.ExpiresAt,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		Secure:   r.TLS != nil,
	})
	ctx.Log.WithField("player", g.ID).Info("guest logged in")
	ctx.writeJSON(w, http.StatusOK, g)
}
