package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"summoner-analytics/internal/analytics"
	"summoner-analytics/internal/constants"
	"summoner-analytics/internal/domain"
	"summoner-analytics/internal/service"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
)

const WebSocketPattern = "GET /ws/queries/{id}"

const writeWait = 10 * time.Second

// Message is one frame sent to a websocket subscriber.
//
//	{"type": "state", "query": {...}}
//	{"type": "error", "error": "..."}
type Message struct {
	Type  string                   `json:"type"`
	Query *analytics.AnalyzedQuery `json:"query,omitempty"`
	Error string                   `json:"error,omitempty"`
}

type WebSocketHandler struct {
	stream   *service.StreamService
	upgrader websocket.Upgrader
	ping     time.Duration
	logger   zerolog.Logger
}

func NewWebSocketHandler(stream *service.StreamService, logger zerolog.Logger) *WebSocketHandler {
	return &WebSocketHandler{
		stream: stream,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 4096,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
		ping:   constants.StreamPingInterval,
		logger: logger,
	}
}

func (h *WebSocketHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	queryID := r.PathValue("id")
	log := h.logger.With().Str("query_id", queryID).Logger()

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Warn().Err(err).Msg("websocket upgrade failed")
		return
	}
	defer conn.Close()

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	// the read side only detects the client going away
	go func() {
		defer cancel()
		for {
			if _, _, err := conn.NextReader(); err != nil {
				return
			}
		}
	}()
	go h.keepAlive(ctx, conn)

	err = h.stream.Stream(ctx, queryID, func(state *analytics.AnalyzedQuery) error {
		conn.SetWriteDeadline(time.Now().Add(writeWait))
		return conn.WriteJSON(Message{Type: "state", Query: state})
	})

	var failed *service.QueryFailedError
	code, reason := websocket.CloseNormalClosure, "complete"
	switch {
	case err == nil:
	case errors.Is(err, context.Canceled):
		log.Debug().Msg("websocket subscriber left")
		return
	case errors.Is(err, domain.ErrNotFound):
		h.writeError(conn, "query not found")
		code, reason = websocket.ClosePolicyViolation, "not found"
	case errors.As(err, &failed):
		h.writeError(conn, failed.Reason)
		reason = "failed"
	default:
		log.Error().Err(err).Msg("websocket stream failed")
		h.writeError(conn, "internal error")
		code, reason = websocket.CloseInternalServerErr, "internal error"
	}

	conn.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(code, reason), time.Now().Add(writeWait))
}

func (h *WebSocketHandler) writeError(conn *websocket.Conn, msg string) {
	conn.SetWriteDeadline(time.Now().Add(writeWait))
	if err := conn.WriteJSON(Message{Type: "error", Error: msg}); err != nil {
		h.logger.Debug().Err(err).Msg("failed to write websocket error")
	}
}

func (h *WebSocketHandler) keepAlive(ctx context.Context, conn *websocket.Conn) {
	ticker := time.NewTicker(h.ping)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait)); err != nil {
				return
			}
		}
	}
}
