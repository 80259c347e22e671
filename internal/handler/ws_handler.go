package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stemsi/survey-backend/internal/config"
	"github.com/stemsi/survey-backend/internal/middleware"
	"github.com/stemsi/survey-backend/internal/response"
	ws "github.com/stemsi/survey-backend/internal/websocket"
)

// feedReadLimit bounds client frames; the feed only ever receives pings.
const feedReadLimit = 512

// buildUpgrader creates a WebSocket upgrader with origin validation.
// allowedOrigins comes from config.Config.AllowedOrigins.
// An empty slice permits all origins (development mode).
func buildUpgrader(allowedOrigins []string) websocket.Upgrader {
	return websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			if len(allowedOrigins) == 0 {
				return true
			}
			origin := r.Header.Get("Origin")
			for _, allowed := range allowedOrigins {
				if strings.EqualFold(allowed, origin) {
					return true
				}
			}
			return false
		},
	}
}

// WSHandler relays survey lifecycle events to admin dashboards.
type WSHandler struct {
	rdb      *redis.Client
	log      zerolog.Logger
	upgrader websocket.Upgrader
}

// NewWSHandler creates a new WSHandler.
func NewWSHandler(rdb *redis.Client, log zerolog.Logger, allowedOrigins []string) *WSHandler {
	return &WSHandler{
		rdb:      rdb,
		log:      log.With().Str("component", "ws_handler").Logger(),
		upgrader: buildUpgrader(allowedOrigins),
	}
}

// AdminFeed godoc
// WS /ws/v1/admin/feed?token=...
// Streams survey events (completions, deletions, catalog changes) as they happen.
func (h *WSHandler) AdminFeed(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.log.Error().Err(err).Msg("WebSocket upgrade failed")
		return
	}
	defer conn.Close()

	wsLog := h.log.With().Int("admin_id", claims.UserID).Logger()

	ctx, cancel := context.WithCancel(c.Request.Context())
	defer cancel()

	channel := config.CacheKey.SurveyEventsChannel()
	pubsub := h.rdb.Subscribe(ctx, channel)
	defer pubsub.Close()

	// Wait for the subscription so no event published after "connected" is missed.
	if _, err := pubsub.Receive(ctx); err != nil {
		wsLog.Error().Err(err).Msg("Subscribe failed")
		_ = ws.WriteError(conn, "subscription failed")
		return
	}

	if err := ws.WriteTyped(conn, ws.ConnectedResponse{
		Event:   ws.EventConnected,
		AdminID: claims.UserID,
		Channel: channel,
	}); err != nil {
		return
	}
	wsLog.Info().Msg("Admin attached to live feed")

	// Only this goroutine writes to conn; the reader asks for pongs through pings.
	pings := make(chan struct{}, 1)
	go h.readLoop(conn, cancel, pings, wsLog)

	events := pubsub.Channel()
	ticker := time.NewTicker(ws.PingPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			wsLog.Info().Msg("Admin detached from live feed")
			return

		case msg, ok := <-events:
			if !ok {
				return
			}
			if err := ws.WriteTyped(conn, ws.SurveyEventResponse{
				Event: ws.EventSurvey,
				Data:  json.RawMessage(msg.Payload),
			}); err != nil {
				wsLog.Debug().Err(err).Msg("Write failed")
				return
			}

		case <-pings:
			if err := ws.WriteTyped(conn, ws.PongResponse{Event: ws.EventPong}); err != nil {
				return
			}

		case <-ticker.C:
			if err := ws.WritePing(conn); err != nil {
				return
			}
		}
	}
}

// readLoop consumes client frames until the connection closes.
func (h *WSHandler) readLoop(conn *websocket.Conn, cancel context.CancelFunc, pings chan<- struct{}, log zerolog.Logger) {
	defer cancel()
	ws.PrepareRead(conn, feedReadLimit)

	for {
		var msg ws.RequestEnvelope
		if err := ws.ReadJSON(conn, &msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Warn().Err(err).Msg("Unexpected close")
			}
			return
		}
		if msg.Action == ws.ActionPing {
			select {
			case pings <- struct{}{}:
			default:
			}
		}
	}
}
