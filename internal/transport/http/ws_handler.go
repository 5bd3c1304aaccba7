package http

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	stdhttp "net/http"
	"strings"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/classes-lms/roomchat/internal/config"
	"github.com/classes-lms/roomchat/internal/core"
)

const writeTimeout = 10 * time.Second

// errSessionEnded is returned by the write loop when the core closed the session.
var errSessionEnded = errors.New("session ended")

// WSHandler upgrades room connections and bridges them to core.Chat.
type WSHandler struct {
	chat            *core.Chat
	prefix          string
	allowedOrigins  []string
	maxMessageBytes int64
	sendBuffer      int
	rateLimit       int
	log             *zerolog.Logger
}

// NewWSHandler builds a WebSocket handler serving {prefix}/{room}/.
func NewWSHandler(chat *core.Chat, prefix string, cfg *config.Config, logger *zerolog.Logger) *WSHandler {
	return &WSHandler{
		chat:            chat,
		prefix:          strings.TrimRight(prefix, "/"),
		allowedOrigins:  cfg.AllowedOrigins,
		maxMessageBytes: cfg.MaxMessageBytes,
		sendBuffer:      cfg.SendBuffer,
		rateLimit:       cfg.RateLimit,
		log:             logger,
	}
}

func (h *WSHandler) ServeHTTP(w stdhttp.ResponseWriter, r *stdhttp.Request) {
	room, ok := h.roomFromPath(r.URL.Path)
	if !ok {
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		w.WriteHeader(stdhttp.StatusNotFound)
		_ = json.NewEncoder(w).Encode(ErrorResponse{Error: "room not found"})
		return
	}
	h.serve(w, r, room)
}

// roomFromPath extracts the room from {prefix}/{room} with an optional trailing slash.
func (h *WSHandler) roomFromPath(path string) (string, bool) {
	rest, ok := strings.CutPrefix(path, h.prefix+"/")
	if !ok {
		return "", false
	}
	room := strings.TrimSuffix(rest, "/")
	if !core.ValidRoomName(room) {
		return "", false
	}
	return room, true
}

func (h *WSHandler) acceptOptions() *websocket.AcceptOptions {
	if len(h.allowedOrigins) == 0 {
		return &websocket.AcceptOptions{InsecureSkipVerify: true}
	}
	return &websocket.AcceptOptions{OriginPatterns: h.allowedOrigins}
}

func (h *WSHandler) serve(w stdhttp.ResponseWriter, r *stdhttp.Request, room string) {
	conn, err := websocket.Accept(w, r, h.acceptOptions())
	if err != nil {
		h.log.Error().Err(err).Str("room", room).Msg("ws accept error")
		return
	}
	defer conn.Close(websocket.StatusInternalError, "internal error")

	if h.maxMessageBytes > 0 {
		conn.SetReadLimit(h.maxMessageBytes)
	}

	sess := core.NewSession(uuid.NewString(), room, h.sendBuffer)
	h.chat.Connect(sess)
	defer h.chat.Disconnect(sess)

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	errCh := make(chan error, 2)
	go func() {
		errCh <- h.readLoop(ctx, conn, sess)
	}()
	go func() {
		errCh <- h.writeLoop(ctx, conn, sess)
	}()

	err = <-errCh
	status, reason := h.closeStatus(sess, err)
	// Cancelling a pending read tears the connection down, so the close frame goes first.
	conn.Close(status, reason)
	cancel() // stop the other goroutine
	<-errCh
}

func (h *WSHandler) closeStatus(sess *core.Session, err error) (websocket.StatusCode, string) {
	if errors.Is(err, errSessionEnded) {
		return websocket.StatusGoingAway, "server shutting down"
	}

	status := websocket.StatusNormalClosure
	reason := "closing"
	if err == nil || errors.Is(err, context.Canceled) || errors.Is(err, io.EOF) {
		return status, reason
	}
	if s := websocket.CloseStatus(err); s != -1 {
		status = s
	}
	if status == websocket.StatusNormalClosure || status == websocket.StatusGoingAway {
		return status, reason
	}
	if status == websocket.StatusMessageTooBig {
		h.log.Debug().Str("session_id", sess.ID).Msg("inbound frame over read limit")
		return status, "message too big"
	}
	h.log.Warn().Err(err).Str("session_id", sess.ID).Str("room", sess.Room).Msg("ws connection closed with error")
	return websocket.StatusInternalError, "internal error"
}

func (h *WSHandler) readLoop(ctx context.Context, conn *websocket.Conn, sess *core.Session) error {
	limiter := newRateLimiter(h.rateLimit)

	for {
		typ, data, err := conn.Read(ctx)
		if err != nil {
			return err
		}
		if typ != websocket.MessageText {
			h.log.Debug().Str("session_id", sess.ID).Msg("binary frame ignored")
			continue
		}
		if !limiter.allow() {
			h.log.Debug().Str("session_id", sess.ID).Str("room", sess.Room).Msg("rate limited message dropped")
			continue
		}

		in, err := incomingFromFrame(data)
		if err != nil {
			h.log.Debug().Err(err).Str("session_id", sess.ID).Msg("malformed message dropped")
			continue
		}

		if _, err := h.chat.Send(ctx, sess, in); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			h.log.Error().Err(err).Str("session_id", sess.ID).Str("room", sess.Room).Msg("send message")
		}
	}
}

func (h *WSHandler) writeLoop(ctx context.Context, conn *websocket.Conn, sess *core.Session) error {
	for {
		select {
		case ev, ok := <-sess.Events():
			if !ok {
				return errSessionEnded
			}
			writeCtx, cancel := context.WithTimeout(ctx, writeTimeout)
			err := wsjson.Write(writeCtx, conn, outboundFromEvent(ev))
			cancel()
			if err != nil {
				h.log.Error().Err(err).Str("session_id", sess.ID).Msg("write ws event")
				return err
			}
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}
