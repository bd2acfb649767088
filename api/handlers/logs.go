package handlers

import (
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/mux"

	"github.com/linesmerrill/queue-tracker-api/config"
	"github.com/linesmerrill/queue-tracker-api/databases"
	"github.com/linesmerrill/queue-tracker-api/models"
	"github.com/linesmerrill/queue-tracker-api/relay"
)

const exportDateLayout = "1/2/2006, 3:04:05 PM"

// Logs exists for dependency injection purposes
type Logs struct {
	DB databases.LogDatabase
	// Clock stamps the full history export. Nil means time.Now.
	Clock func() time.Time
}

// DownloadLogsHandler returns one day of the audit log as a text attachment
func (l Logs) DownloadLogsHandler(w http.ResponseWriter, r *http.Request) {
	date := mux.Vars(r)["date"]
	if _, err := time.Parse(relay.DateLayout, date); err != nil {
		http.Error(w, "Invalid date, expected YYYY-MM-DD", http.StatusBadRequest)
		return
	}

	ctx, cancel := databases.WithQueryTimeout(r.Context())
	defer cancel()

	entries, err := l.DB.Find(ctx, date, databases.SortChronological)
	if err != nil {
		config.ErrorStatus("failed to get log entries", http.StatusInternalServerError, w, err)
		return
	}
	if len(entries) == 0 {
		http.Error(w, "No logs found for this date", http.StatusNotFound)
		return
	}

	lines := make([]string, 0, len(entries))
	for _, e := range entries {
		lines = append(lines, formatLogLine(e))
	}

	writeAttachment(w, fmt.Sprintf("QueueTracker_Logs_%s.txt", date), strings.Join(lines, "\n"))
}

// DownloadAllLogsHandler returns the whole audit log, newest day first
func (l Logs) DownloadAllLogsHandler(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := databases.WithQueryTimeout(r.Context())
	defer cancel()

	entries, err := l.DB.Find(ctx, "", databases.SortByDayDescending)
	if err != nil {
		config.ErrorStatus("failed to get log entries", http.StatusInternalServerError, w, err)
		return
	}

	now := time.Now
	if l.Clock != nil {
		now = l.Clock
	}

	var b strings.Builder
	b.WriteString("=== QUEUE TRACKER FULL AUDIT LOG ===\n")
	fmt.Fprintf(&b, "Export Date: %s\n\n", now().Format(exportDateLayout))

	day := ""
	for _, e := range entries {
		if e.DateStr != day {
			day = e.DateStr
			fmt.Fprintf(&b, "\nDATE: %s\n", day)
		}
		fmt.Fprintf(&b, "  %s\n", formatLogLine(e))
	}

	writeAttachment(w, "QueueTracker_FullHistory.txt", b.String())
}

func formatLogLine(e models.LogEntry) string {
	return fmt.Sprintf("[%s] %s - %s: %s", e.Timestamp, strings.ToUpper(e.User), strings.ToUpper(e.Action), e.Details)
}

func writeAttachment(w http.ResponseWriter, filename, content string) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Header().Set("Content-Disposition", "attachment; filename="+filename)
	w.WriteHeader(http.StatusOK)
	_, _ = io.WriteString(w, content)
}
