package websocket

import "encoding/json"

// ─── Actions (Client → Server) ──────────────────────────────────────

type Action string

const (
	ActionPing Action = "ping"
)

// RequestEnvelope is used to peek at the action before full parsing.
type RequestEnvelope struct {
	Action Action `json:"action"`
}

// ─── Events (Server → Client) ───────────────────────────────────────

type Event string

const (
	EventError     Event = "error"
	EventConnected Event = "connected"
	EventSurvey    Event = "survey_event"
	EventPong      Event = "pong"
)

// ConnectedResponse is the first frame sent after the upgrade.
type ConnectedResponse struct {
	Event   Event  `json:"event"`
	AdminID int    `json:"admin_id"`
	Channel string `json:"channel"`
}

// SurveyEventResponse relays one survey lifecycle event as published on Redis.
type SurveyEventResponse struct {
	Event Event           `json:"event"`
	Data  json.RawMessage `json:"data"`
}

type ErrorResponse struct {
	Event Event  `json:"event"`
	Error string `json:"error"`
}

type PongResponse struct {
	Event Event `json:"event"`
}
