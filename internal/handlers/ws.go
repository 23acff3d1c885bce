package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"nhooyr.io/websocket"
	"nhooyr.io/websocket/wsjson"

	"github.com/aaronzipp/coup-online/internal/apperr"
	"github.com/aaronzipp/coup-online/internal/game"
	"github.com/aaronzipp/coup-online/internal/models"
	"github.com/aaronzipp/coup-online/internal/sse"
)

// wsPingInterval keeps idle connections open through proxies.
const wsPingInterval = 15 * time.Second

// wsMsg is the WebSocket frame: T is the type, M the payload.
type wsMsg struct {
	T string          `json:"t"`
	M json.RawMessage `json:"m,omitempty"`
}

func (ctx *Context) originPatterns() []string {
	patterns := make([]string, 0, len(ctx.AllowedOrigins))
	for _, o := range ctx.AllowedOrigins {
		o = strings.TrimSpace(o)
		o = strings.TrimPrefix(o, "https://")
		o = strings.TrimPrefix(o, "http://")
		if o != "" {
			patterns = append(patterns, strings.TrimRight(o, "/"))
		}
	}
	return patterns
}

// HandleWebSocket pushes the same envelopes as the SSE stream and accepts
// actions and reactions from the caller.
func (ctx *Context) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
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

	c, err := websocket.Accept(w, r, &websocket.AcceptOptions{OriginPatterns: ctx.originPatterns()})
	if err != nil {
		log.WithError(err).Debug("websocket accept")
		return
	}
	defer c.Close(websocket.StatusInternalError, "unexpected close")

	connCtx, cancel := context.WithCancel(r.Context())
	defer cancel()

	clientChan := make(chan models.Event, game.EventBufferSize)
	sse.AddClient(lobby, clientChan, g.ID, log)
	defer sse.RemoveClient(lobby, clientChan)
	log.Debug("websocket client connected")

	if err := ctx.wsSend(connCtx, c, env.Type, env); err != nil {
		return
	}

	// writer
	go func() {
		defer cancel()
		ping := time.NewTicker(wsPingInterval)
		defer ping.Stop()
		for {
			select {
			case <-connCtx.Done():
				return
			case msg := <-clientChan:
				if err := ctx.wsSend(connCtx, c, msg.Name, json.RawMessage(msg.Data)); err != nil {
					return
				}
				if msg.Name == game.EventClosed {
					c.Close(websocket.StatusNormalClosure, "room closed")
					return
				}
			case <-ping.C:
				if err := c.Ping(connCtx); err != nil {
					log.WithError(err).Debug("websocket ping")
					return
				}
			}
		}
	}()

	// reader
	for {
		var in wsMsg
		if err := wsjson.Read(connCtx, c, &in); err != nil {
			if websocket.CloseStatus(err) == -1 && connCtx.Err() == nil {
				log.WithError(err).Debug("websocket read")
			}
			break
		}
		switch in.T {
		case "action":
			var req actionRequest
			if err := json.Unmarshal(in.M, &req); err != nil {
				ctx.wsError(connCtx, c, apperr.Wrap(apperr.InvalidAction, "malformed action", err))
				continue
			}
			res, err := ctx.dispatch(connCtx, code, g.ID, req)
			if err != nil {
				ctx.wsError(connCtx, c, err)
				continue
			}
			ctx.wsSend(connCtx, c, "result", res)
		case "ping":
			ctx.wsSend(connCtx, c, "pong", nil)
		case "pong":
			// ignore
		default:
			ctx.wsError(connCtx, c, apperr.Newf(apperr.InvalidAction, "unknown message type %q", in.T))
		}
	}

	c.Close(websocket.StatusNormalClosure, "bye")
	log.Debug("websocket client disconnected")
}

func (ctx *Context) wsSend(c context.Context, conn *websocket.Conn, typ string, payload any) error {
	out := wsMsg{T: typ}
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			ctx.Log.WithError(err).Warn("encode websocket message")
			return err
		}
		out.M = data
	}
	writeCtx, cancel := context.WithTimeout(c, game.SendTimeout)
	defer cancel()
	return wsjson.Write(writeCtx, conn, out)
}

func (ctx *Context) wsError(c context.Context, conn *websocket.Conn, err error) {
	kind := apperr.KindOf(err)
	ctx.wsSend(c, conn, "error", errorBody{Error: apperr.MessageOf(err), Code: string(kind)})
}
