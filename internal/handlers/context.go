package handlers

import (
	"bufio"
	"net"
	"net/http"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/aaronzipp/coup-online/internal/auth"
	"github.com/aaronzipp/coup-online/internal/game"
)

// Context holds shared application dependencies
type Context struct {
	Service        *game.Service
	Auth           *auth.Issuer
	Log            logrus.FieldLogger
	BaseURL        string
	AllowedOrigins []string
}

// Routes registers every endpoint on a new mux.
func (ctx *Context) Routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", ctx.HandleHealth)
	mux.HandleFunc("POST /auth/guest", ctx.HandleGuestLogin)

	mux.HandleFunc("GET /lobby", ctx.HandleListLobbies)
	mux.HandleFunc("POST /lobby", ctx.HandleCreateLobby)
	mux.HandleFunc("GET /lobby/{code}", ctx.HandleLobby)
	mux.HandleFunc("POST /lobby/{code}/join", ctx.HandleJoinLobby)
	mux.HandleFunc("POST /lobby/{code}/leave", ctx.HandleLeaveLobby)
	mux.HandleFunc("POST /lobby/{code}/start", ctx.HandleStartGame)
	mux.HandleFunc("POST /lobby/{code}/restart", ctx.HandleRestartGame)
	mux.HandleFunc("POST /lobby/{code}/close", ctx.HandleCloseLobby)

	mux.HandleFunc("GET /game/{code}/state", ctx.HandleGameState)
	mux.HandleFunc("POST /game/{code}/action", ctx.HandleAction)
	mux.HandleFunc("GET /game/{code}/results", ctx.HandleResults)

	mux.HandleFunc("GET /sse/{code}", ctx.HandleSSE)
	mux.HandleFunc("GET /ws/{code}", ctx.HandleWebSocket)
	mux.HandleFunc("GET /qr/{code}", ctx.HandleQRCode)
	return ctx.logRequests(mux)
}

// HandleHealth reports liveness
func (ctx *Context) HandleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Write([]byte("ok"))
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (s *statusRecorder) WriteHeader(code int) {
	s.status = code
	s.ResponseWriter.WriteHeader(code)
}

func (s *statusRecorder) Flush() {
	http.NewResponseController(s.ResponseWriter).Flush()
}

func (s *statusRecorder) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	return http.NewResponseController(s.ResponseWriter).Hijack()
}

func (s *statusRecorder) Unwrap() http.ResponseWriter {
	return s.ResponseWriter
}

func (ctx *Context) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		ctx.Log.WithFields(logrus.Fields{
			"method":   r.Method,
			"path":     r.URL.Path,
			"status":   rec.status,
			"duration": time.Since(start),
		}).Debug("request")
	})
}
