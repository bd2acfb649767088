package models

import "encoding/json"

// Events consumed by the relay
const (
	EventJoin           = "join"
	EventGetPresence    = "get_presence"
	EventGetInitialData = "get_initial_data"
	EventUpdateAgents   = "update_agents"
	EventUpdateHandlers = "update_handlers" // legacy alias of update_agents
	EventUpdateRoster   = "update_roster"
	EventUpdateStats    = "update_stats"
	EventAddLog         = "add_log"
)

// Events emitted by the relay
const (
	EventPresenceUpdated = "presence_updated"
	EventInit            = "init"
	EventAgentsUpdated   = "agents_updated"
	EventRosterUpdated   = "roster_updated"
	EventStatsUpdated    = "stats_updated"
	EventLogAdded        = "log_added"
	EventErrorMessage    = "error_message"
)

// Envelope is a single websocket frame in either direction
type Envelope struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

// JoinRequest is the payload of the join event
type JoinRequest struct {
	Username  string `json:"username"`
	AccessKey string `json:"accessKey"`
}
