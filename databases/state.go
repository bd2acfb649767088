package databases

// go generate: mockery --name StateDatabase

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/linesmerrill/queue-tracker-api/models"
)

const stateName = "states"

// Fields of the global state document that can be replaced independently
const (
	FieldAgents = "agents"
	FieldRoster = "roster"
	FieldStats  = "stats"
)

// ErrInvalidField is returned when an update targets a field outside of
// agents, roster and stats
var ErrInvalidField = errors.New("invalid global state field")

// StateDatabase contains the methods to use with the global state document
type StateDatabase interface {
	GetOrCreate(ctx context.Context) (*models.GlobalState, error)
	UpdateField(ctx context.Context, field string, value interface{}) error
	Seed(ctx context.Context, state models.GlobalState) (bool, error)
	EnsureIndexes(ctx context.Context) error
}

type stateDatabase struct {
	db DatabaseHelper
}

// NewStateDatabase initializes a new instance of state database with the provided db connection
func NewStateDatabase(db DatabaseHelper) StateDatabase {
	return &stateDatabase{
		db: db,
	}
}

func globalFilter() bson.M {
	return bson.M{"key": models.GlobalStateKey}
}

// GetOrCreate returns the global state, creating it with empty arrays when absent.
// The upsert on the unique key keeps concurrent first calls from creating two documents.
func (s *stateDatabase) GetOrCreate(ctx context.Context) (*models.GlobalState, error) {
	update := bson.M{"$setOnInsert": bson.M{
		FieldAgents: bson.A{},
		FieldRoster: bson.A{},
		FieldStats:  bson.A{},
	}}
	opts := options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After)

	state := &models.GlobalState{}
	err := s.db.Collection(stateName).FindOneAndUpdate(ctx, globalFilter(), update, opts).Decode(state)
	if err != nil {
		return nil, fmt.Errorf("failed to get or create global state: %w", err)
	}
	return state.Normalize(), nil
}

// UpdateField atomically replaces a single top-level field of the global state
func (s *stateDatabase) UpdateField(ctx context.Context, field string, value interface{}) error {
	switch field {
	case FieldAgents, FieldRoster, FieldStats:
	default:
		return fmt.Errorf("%w: %q", ErrInvalidField, field)
	}

	update := bson.M{"$set": bson.M{field: value}}
	_, err := s.db.Collection(stateName).UpdateOne(ctx, globalFilter(), update, options.Update().SetUpsert(true))
	if err != nil {
		return fmt.Errorf("failed to update global state field %s: %w", field, err)
	}
	return nil
}

// Seed inserts the given state only if no global state exists yet. It reports
// whether the document was created.
func (s *stateDatabase) Seed(ctx context.Context, state models.GlobalState) (bool, error) {
	state.Normalize()
	update := bson.M{"$setOnInsert": bson.M{
		FieldAgents: state.Agents,
		FieldRoster: state.Roster,
		FieldStats:  state.Stats,
	}}
	res, err := s.db.Collection(stateName).UpdateOne(ctx, globalFilter(), update, options.Update().SetUpsert(true))
	if err != nil {
		return false, fmt.Errorf("failed to seed global state: %w", err)
	}
	return res != nil && res.UpsertedCount > 0, nil
}

// EnsureIndexes creates the unique index on key
func (s *stateDatabase) EnsureIndexes(ctx context.Context) error {
	_, err := s.db.Collection(stateName).CreateIndex(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "key", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	return err
}
