package models

// LogEntry holds the structure for the logs collection in mongo. Rows are
// append-only and partitioned by DateStr.
type LogEntry struct {
	DateStr   string `json:"dateStr" bson:"dateStr"`
	Timestamp string `json:"timestamp" bson:"timestamp"`
	User      string `json:"user" bson:"user"`
	Action    string `json:"action" bson:"action"`
	Details   string `json:"details" bson:"details"`
	Type      string `json:"type,omitempty" bson:"type,omitempty"` // "positive", "negative", "neutral"
}

// LogAdded is the payload broadcast when a new log entry is appended
type LogAdded struct {
	DateStr  string   `json:"dateStr"`
	LogEntry LogEntry `json:"logEntry"`
}
