package relay

import (
	"fmt"
	"strings"
	"time"

	"github.com/linesmerrill/queue-tracker-api/models"
)

// DateLayout is the calendar day format used by roster, stats and logs
const DateLayout = "2006-01-02"

const timestampLayout = "15:04:05"

var logTypes = map[string]bool{
	"":         true,
	"positive": true,
	"negative": true,
	"neutral":  true,
}

func validDate(date string) bool {
	_, err := time.Parse(DateLayout, date)
	return err == nil
}

// dedupe keeps one element per key. The survivor holds the last value seen for
// that key at the position of the first occurrence.
func dedupe[T any](items []T, key func(T) string) []T {
	out := make([]T, 0, len(items))
	index := make(map[string]int, len(items))
	for _, item := range items {
		k := key(item)
		if i, ok := index[k]; ok {
			out[i] = item
			continue
		}
		index[k] = len(out)
		out = append(out, item)
	}
	return out
}

func cleanAgents(agents []models.Agent) ([]models.Agent, error) {
	for i := range agents {
		agents[i].ID = strings.TrimSpace(agents[i].ID)
		if agents[i].ID == "" {
			return nil, fmt.Errorf("%w: agent %d has no id", ErrMalformedPayload, i)
		}
		agents[i].Name = Sanitize(agents[i].Name)
	}
	return dedupe(agents, func(a models.Agent) string { return a.ID }), nil
}

func cleanRoster(roster []models.RosterEntry) ([]models.RosterEntry, error) {
	for i, e := range roster {
		if strings.TrimSpace(e.AgentID) == "" {
			return nil, fmt.Errorf("%w: roster entry %d has no agentId", ErrMalformedPayload, i)
		}
		if !validDate(e.Date) {
			return nil, fmt.Errorf("%w: roster entry %d has invalid date %q", ErrMalformedPayload, i, e.Date)
		}
		roster[i].Shift = strings.TrimSpace(e.Shift)
	}
	return dedupe(roster, func(e models.RosterEntry) string { return e.AgentID + "|" + e.Date }), nil
}

func cleanStats(stats []models.DailyStat) ([]models.DailyStat, error) {
	for i, s := range stats {
		if strings.TrimSpace(s.AgentID) == "" {
			return nil, fmt.Errorf("%w: stat %d has no agentId", ErrMalformedPayload, i)
		}
		if !validDate(s.Date) {
			return nil, fmt.Errorf("%w: stat %d has invalid date %q", ErrMalformedPayload, i, s.Date)
		}
		if s.Incidents < 0 || s.Tasks < 0 || s.Calls < 0 {
			return nil, fmt.Errorf("%w: stat %d has a negative counter", ErrMalformedPayload, i)
		}
	}
	return dedupe(stats, func(s models.DailyStat) string { return s.AgentID + "|" + s.Date }), nil
}

// cleanLogEntry stamps the entry with the UTC day it was received on. The
// client clock is trusted for the displayed time.
func cleanLogEntry(entry models.LogEntry, now time.Time) models.LogEntry {
	entry.User = Sanitize(entry.User)
	entry.Details = Sanitize(entry.Details)
	entry.DateStr = now.UTC().Format(DateLayout)
	if strings.TrimSpace(entry.Timestamp) == "" {
		entry.Timestamp = now.Format(timestampLayout)
	}
	if !logTypes[entry.Type] {
		entry.Type = ""
	}
	return entry
}
