package relay

import (
	"bytes"
	"context"
	"crypto/subtle"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/linesmerrill/queue-tracker-api/databases"
	"github.com/linesmerrill/queue-tracker-api/models"
)

// Messages sent to a client with error_message
const (
	MsgAccessDenied = "Invalid Team Access Key. Access Denied."
	MsgJoinRequired = "Please join with a valid Team Access Key first."
	MsgRateExceeded = "Slow down! Too many requests."
	MsgSaveFailed   = "Failed to save changes. Please try again."
	MsgLoadFailed   = "Failed to load data. Please try again."
	MsgInvalidFrame = "Invalid message format."
)

// ErrMalformedPayload is returned when an event payload is missing or has the wrong shape
var ErrMalformedPayload = errors.New("malformed payload")

var (
	errAccessDenied = errors.New("access denied")
	errJoinRequired = errors.New("join required")
)

const defaultQueueSize = 64

// Options configures a Relay
type Options struct {
	// AccessKey is the shared team secret. Empty disables access control.
	AccessKey  string
	RateMax    int
	RateWindow time.Duration
	QueueSize  int
}

// Relay coordinates every connection of the global session
type Relay struct {
	states    databases.StateDatabase
	logs      databases.LogDatabase
	publisher Publisher
	presence  *Presence
	limiter   *RateLimiter
	writer    *writer
	accessKey string
	now       func() time.Time
}

// New creates a relay persisting to the given stores and delivering through publisher.
// Close must be called to stop the mutation queue.
func New(states databases.StateDatabase, logs databases.LogDatabase, publisher Publisher, opts Options) *Relay {
	queueSize := opts.QueueSize
	if queueSize <= 0 {
		queueSize = defaultQueueSize
	}
	return &Relay{
		states:    states,
		logs:      logs,
		publisher: publisher,
		presence:  NewPresence(),
		limiter:   NewRateLimiter(opts.RateMax, opts.RateWindow),
		writer:    newWriter(queueSize),
		accessKey: strings.TrimSpace(opts.AccessKey),
		now:       time.Now,
	}
}

// Close stops accepting mutations and waits for queued ones to finish
func (r *Relay) Close() {
	r.writer.close()
}

// Connect announces the current presence list to every connection, the new one included
func (r *Relay) Connect(connID string) {
	zap.S().Infow("client connected", "conn", connID)
	r.publishPresence()
}

// Disconnect drops the connection's rate and presence state and tells the
// remaining connections when a named user left
func (r *Relay) Disconnect(connID string) {
	r.limiter.Remove(connID)
	name, ok := r.presence.Remove(connID)
	if !ok {
		zap.S().Debugw("anonymous client disconnected", "conn", connID)
		return
	}
	zap.S().Infow("user disconnected", "user", name, "conn", connID)
	r.publishPresence()
}

// Dispatch handles one inbound frame. It is rate limited before anything else.
func (r *Relay) Dispatch(ctx context.Context, connID string, frame []byte) {
	if !r.limiter.Allow(connID) {
		zap.S().Warnw("socket exceeded rate limit", "conn", connID)
		r.publisher.Publish(toSender(connID, models.EventErrorMessage, MsgRateExceeded))
		return
	}

	var env models.Envelope
	if err := json.Unmarshal(frame, &env); err != nil || env.Event == "" {
		zap.S().Warnw("dropping malformed frame", "conn", connID, "error", err)
		r.publisher.Publish(toSender(connID, models.EventErrorMessage, MsgInvalidFrame))
		return
	}

	deliveries, err := r.handle(ctx, connID, env)
	r.finish(connID, env.Event, deliveries, err)
}

// joinRequired lists the events that read or write the document
var joinRequired = map[string]bool{
	models.EventGetInitialData: true,
	models.EventUpdateAgents:   true,
	models.EventUpdateHandlers: true,
	models.EventUpdateRoster:   true,
	models.EventUpdateStats:    true,
	models.EventAddLog:         true,
}

func (r *Relay) handle(ctx context.Context, connID string, env models.Envelope) ([]Delivery, error) {
	if joinRequired[env.Event] && !r.authorized(connID) {
		return nil, errJoinRequired
	}

	switch env.Event {
	case models.EventJoin:
		return r.join(ctx, connID, env.Data)
	case models.EventGetPresence:
		return []Delivery{toSender(connID, models.EventPresenceUpdated, r.presence.DistinctNames())}, nil
	case models.EventGetInitialData:
		return r.initialData(ctx, connID)
	case models.EventUpdateAgents, models.EventUpdateHandlers:
		return r.updateAgents(ctx, connID, env.Data)
	case models.EventUpdateRoster:
		return r.updateRoster(ctx, connID, env.Data)
	case models.EventUpdateStats:
		return r.updateStats(ctx, connID, env.Data)
	case models.EventAddLog:
		return r.addLog(ctx, connID, env.Data)
	}

	zap.S().Debugw("ignoring unknown event", "event", env.Event, "conn", connID)
	return nil, nil
}

func (r *Relay) finish(connID, event string, deliveries []Delivery, err error) {
	for _, d := range deliveries {
		r.publisher.Publish(d)
	}
	if err == nil {
		return
	}

	var msg string
	switch {
	case errors.Is(err, ErrMalformedPayload):
		zap.S().Warnw("malformed payload", "event", event, "conn", connID, "error", err)
		msg = fmt.Sprintf("Invalid payload for %s.", event)
	case errors.Is(err, errAccessDenied):
		msg = MsgAccessDenied
	case errors.Is(err, errJoinRequired):
		zap.S().Warnw("event from connection that has not joined", "event", event, "conn", connID)
		msg = MsgJoinRequired
	case errors.Is(err, context.Canceled), errors.Is(err, ErrClosed):
		zap.S().Debugw("event abandoned", "event", event, "conn", connID, "error", err)
		return
	case event == models.EventJoin || event == models.EventGetInitialData:
		zap.S().Errorw("failed to load global state", "event", event, "conn", connID, "error", err)
		msg = MsgLoadFailed
	default:
		zap.S().Errorw("failed to persist event", "event", event, "conn", connID, "error", err)
		msg = MsgSaveFailed
	}
	r.publisher.Publish(toSender(connID, models.EventErrorMessage, msg))
}

func (r *Relay) publishPresence() {
	r.publisher.Publish(toAll(models.EventPresenceUpdated, r.presence.DistinctNames()))
}

func (r *Relay) keyMatches(provided string) bool {
	if r.accessKey == "" {
		return true
	}
	key := strings.TrimSpace(provided)
	return subtle.ConstantTimeCompare([]byte(key), []byte(r.accessKey)) == 1
}

// authorized reports whether a connection may read or write the document.
// Without an access key every connection may.
func (r *Relay) authorized(connID string) bool {
	if r.accessKey == "" {
		return true
	}
	_, ok := r.presence.Lookup(connID)
	return ok
}

func (r *Relay) join(ctx context.Context, connID string, data json.RawMessage) ([]Delivery, error) {
	var req models.JoinRequest
	if err := decode(data, &req); err != nil {
		return nil, err
	}

	name := Sanitize(req.Username)
	if !r.keyMatches(req.AccessKey) {
		zap.S().Warnw("unauthorized join attempt", "user", name, "conn", connID)
		return nil, errAccessDenied
	}
	if name == "" {
		return nil, fmt.Errorf("%w: empty username", ErrMalformedPayload)
	}

	r.presence.Set(connID, name)
	r.publishPresence()
	zap.S().Infow("user joined", "user", name, "conn", connID, "online", r.presence.DistinctNames())

	return r.initialData(ctx, connID)
}

// initialData reads and sends the document from the writer queue so a peer's
// broadcast can never reach this connection ahead of an older snapshot.
func (r *Relay) initialData(ctx context.Context, connID string) ([]Delivery, error) {
	return nil, r.serialize(ctx, func(storeCtx context.Context) ([]Delivery, error) {
		state, err := r.states.GetOrCreate(storeCtx)
		if err != nil {
			return nil, err
		}
		return []Delivery{toSender(connID, models.EventInit, state)}, nil
	})
}

func (r *Relay) updateAgents(ctx context.Context, connID string, data json.RawMessage) ([]Delivery, error) {
	var agents []models.Agent
	if err := decode(data, &agents); err != nil {
		return nil, err
	}
	agents, err := cleanAgents(agents)
	if err != nil {
		return nil, err
	}
	return r.replaceField(ctx, connID, databases.FieldAgents, agents, models.EventAgentsUpdated)
}

func (r *Relay) updateRoster(ctx context.Context, connID string, data json.RawMessage) ([]Delivery, error) {
	var roster []models.RosterEntry
	if err := decode(data, &roster); err != nil {
		return nil, err
	}
	roster, err := cleanRoster(roster)
	if err != nil {
		return nil, err
	}
	return r.replaceField(ctx, connID, databases.FieldRoster, roster, models.EventRosterUpdated)
}

func (r *Relay) updateStats(ctx context.Context, connID string, data json.RawMessage) ([]Delivery, error) {
	var stats []models.DailyStat
	if err := decode(data, &stats); err != nil {
		return nil, err
	}
	stats, err := cleanStats(stats)
	if err != nil {
		return nil, err
	}
	return r.replaceField(ctx, connID, databases.FieldStats, stats, models.EventStatsUpdated)
}

func (r *Relay) replaceField(ctx context.Context, connID, field string, value interface{}, event string) ([]Delivery, error) {
	return nil, r.serialize(ctx, func(storeCtx context.Context) ([]Delivery, error) {
		if err := r.states.UpdateField(storeCtx, field, value); err != nil {
			return nil, err
		}
		return []Delivery{toOthers(connID, event, value)}, nil
	})
}

func (r *Relay) addLog(ctx context.Context, connID string, data json.RawMessage) ([]Delivery, error) {
	var entry models.LogEntry
	if err := decode(data, &entry); err != nil {
		return nil, err
	}

	now := r.now()
	entry = cleanLogEntry(entry, now)

	return nil, r.serialize(ctx, func(storeCtx context.Context) ([]Delivery, error) {
		if err := r.logs.InsertOne(storeCtx, entry); err != nil {
			return nil, err
		}
		return []Delivery{toOthers(connID, models.EventLogAdded, models.LogAdded{DateStr: entry.DateStr, LogEntry: entry})}, nil
	})
}

// serialize runs apply on the writer queue and publishes its deliveries from there,
// so peers observe snapshots and broadcasts in the order the store applied them.
// The store call is not tied to ctx: a write started before a disconnect still completes.
func (r *Relay) serialize(ctx context.Context, apply func(context.Context) ([]Delivery, error)) error {
	var applyErr error
	err := r.writer.submit(ctx, func() {
		storeCtx, cancel := databases.WithQueryTimeout(context.Background())
		defer cancel()

		deliveries, err := apply(storeCtx)
		if err != nil {
			applyErr = err
			return
		}
		for _, d := range deliveries {
			r.publisher.Publish(d)
		}
	})
	if err != nil {
		return err
	}
	return applyErr
}

func decode(data json.RawMessage, v interface{}) error {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return fmt.Errorf("%w: missing data", ErrMalformedPayload)
	}
	if err := json.Unmarshal(trimmed, v); err != nil {
		return fmt.Errorf("%w: %v", ErrMalformedPayload, err)
	}
	return nil
}
