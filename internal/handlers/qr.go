package handlers

import (
	"net/http"
	"net/url"

	qrcode "github.com/skip2/go-qrcode"

	"github.com/aaronzipp/coup-online/internal/apperr"
)

// qrSize is the edge length of join QR codes in pixels.
const qrSize = 256

// JoinURL is the link encoded in a lobby's QR code.
func (ctx *Context) JoinURL(code string) string {
	return ctx.BaseURL + "/?room=" + url.QueryEscape(code)
}

// HandleQRCode serves a PNG QR code that opens the join page for a lobby
func (ctx *Context) HandleQRCode(w http.ResponseWriter, r *http.Request) {
	code := roomCode(r)
	if _, err := ctx.Service.Lobby(code); err != nil {
		ctx.writeError(w, r, err)
		return
	}
	png, err := qrcode.Encode(ctx.JoinURL(code), qrcode.Medium, qrSize)
	if err != nil {
		ctx.writeError(w, r, apperr.Wrap(apperr.Internal, "render qr code", err))
		return
	}
	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "public, max-age=300")
	w.Write(png)
}
