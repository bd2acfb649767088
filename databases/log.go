package databases

// go generate: mockery --name LogDatabase

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/linesmerrill/queue-tracker-api/models"
)

const logName = "logs"

// SortOrder selects how log entries are ordered when queried
type SortOrder int

const (
	// SortChronological orders by timestamp ascending
	SortChronological SortOrder = iota
	// SortByDayDescending orders by day descending, then timestamp ascending
	SortByDayDescending
)

// LogDatabase contains the methods to use with the audit log collection
type LogDatabase interface {
	InsertOne(ctx context.Context, entry models.LogEntry) error
	InsertMany(ctx context.Context, entries []models.LogEntry) error
	Find(ctx context.Context, dateStr string, order SortOrder) ([]models.LogEntry, error)
	CountDocuments(ctx context.Context) (int64, error)
	EnsureIndexes(ctx context.Context) error
}

type logDatabase struct {
	db DatabaseHelper
}

// NewLogDatabase initializes a new instance of log database with the provided db connection
func NewLogDatabase(db DatabaseHelper) LogDatabase {
	return &logDatabase{
		db: db,
	}
}

func (l *logDatabase) InsertOne(ctx context.Context, entry models.LogEntry) error {
	_, err := l.db.Collection(logName).InsertOne(ctx, entry)
	if err != nil {
		return fmt.Errorf("failed to insert log entry: %w", err)
	}
	return nil
}

func (l *logDatabase) InsertMany(ctx context.Context, entries []models.LogEntry) error {
	if len(entries) == 0 {
		return nil
	}
	docs := make([]interface{}, 0, len(entries))
	for _, e := range entries {
		docs = append(docs, e)
	}
	_, err := l.db.Collection(logName).InsertMany(ctx, docs)
	if err != nil {
		return fmt.Errorf("failed to insert %d log entries: %w", len(entries), err)
	}
	return nil
}

// Find returns the entries of one day, or of every day when dateStr is empty
func (l *logDatabase) Find(ctx context.Context, dateStr string, order SortOrder) ([]models.LogEntry, error) {
	filter := bson.M{}
	if dateStr != "" {
		filter["dateStr"] = dateStr
	}

	sort := bson.D{{Key: "timestamp", Value: 1}}
	if order == SortByDayDescending {
		sort = bson.D{{Key: "dateStr", Value: -1}, {Key: "timestamp", Value: 1}}
	}

	curr, err := l.db.Collection(logName).Find(ctx, filter, options.Find().SetSort(sort))
	if err != nil {
		return nil, fmt.Errorf("failed to find log entries: %w", err)
	}
	defer curr.Close(ctx)

	entries := []models.LogEntry{}
	if err := curr.All(ctx, &entries); err != nil {
		return nil, fmt.Errorf("failed to decode log entries: %w", err)
	}
	return entries, nil
}

func (l *logDatabase) CountDocuments(ctx context.Context) (int64, error) {
	return l.db.Collection(logName).CountDocuments(ctx, bson.M{})
}

// EnsureIndexes creates the index on dateStr used by the per-day downloads
func (l *logDatabase) EnsureIndexes(ctx context.Context) error {
	_, err := l.db.Collection(logName).CreateIndex(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "dateStr", Value: 1}},
	})
	return err
}
