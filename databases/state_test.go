package databases_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/linesmerrill/queue-tracker-api/databases"
	mocksdb "github.com/linesmerrill/queue-tracker-api/databases/mocks"
	"github.com/linesmerrill/queue-tracker-api/models"
)

func TestStateDatabase_GetOrCreateReturnsEmptyArrays(t *testing.T) {
	db := &mocksdb.DatabaseHelper{}
	conn := &mocksdb.CollectionHelper{}
	singleResultHelper := &mocksdb.SingleResultHelper{}

	singleResultHelper.On("Decode", mock.Anything).Return(nil).Run(func(args mock.Arguments) {
		arg := args.Get(0).(*models.GlobalState)
		arg.Key = models.GlobalStateKey
	})
	conn.On("FindOneAndUpdate", mock.Anything, bson.M{"key": "global"}, mock.Anything, mock.Anything).Return(singleResultHelper)
	db.On("Collection", "states").Return(conn)

	state, err := databases.NewStateDatabase(db).GetOrCreate(context.Background())

	require.NoError(t, err)
	assert.Equal(t, "global", state.Key)
	assert.NotNil(t, state.Agents)
	assert.NotNil(t, state.Roster)
	assert.NotNil(t, state.Stats)
	assert.Empty(t, state.Agents)
	conn.AssertExpectations(t)
}

func TestStateDatabase_GetOrCreateDecodeError(t *testing.T) {
	db := &mocksdb.DatabaseHelper{}
	conn := &mocksdb.CollectionHelper{}
	singleResultHelper := &mocksdb.SingleResultHelper{}

	singleResultHelper.On("Decode", mock.Anything).Return(errors.New("mocked-error"))
	conn.On("FindOneAndUpdate", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(singleResultHelper)
	db.On("Collection", "states").Return(conn)

	state, err := databases.NewStateDatabase(db).GetOrCreate(context.Background())

	assert.Nil(t, state)
	assert.EqualError(t, err, "failed to get or create global state: mocked-error")
}

func TestStateDatabase_UpdateFieldSetsSingleField(t *testing.T) {
	db := &mocksdb.DatabaseHelper{}
	conn := &mocksdb.CollectionHelper{}

	roster := []models.RosterEntry{{AgentID: "1", Date: "2026-01-05", Shift: models.ShiftMorning}}
	conn.On("UpdateOne", mock.Anything, bson.M{"key": "global"}, bson.M{"$set": bson.M{"roster": roster}}, mock.Anything).
		Return(&mongo.UpdateResult{MatchedCount: 1, ModifiedCount: 1}, nil)
	db.On("Collection", "states").Return(conn)

	err := databases.NewStateDatabase(db).UpdateField(context.Background(), databases.FieldRoster, roster)

	assert.NoError(t, err)
	conn.AssertExpectations(t)
}

func TestStateDatabase_UpdateFieldRejectsUnknownField(t *testing.T) {
	db := &mocksdb.DatabaseHelper{}

	err := databases.NewStateDatabase(db).UpdateField(context.Background(), "key", "other")

	assert.True(t, errors.Is(err, databases.ErrInvalidField))
	db.AssertNotCalled(t, "Collection", mock.Anything)
}

func TestStateDatabase_UpdateFieldError(t *testing.T) {
	db := &mocksdb.DatabaseHelper{}
	conn := &mocksdb.CollectionHelper{}

	conn.On("UpdateOne", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(nil, errors.New("mocked-error"))
	db.On("Collection", "states").Return(conn)

	err := databases.NewStateDatabase(db).UpdateField(context.Background(), databases.FieldStats, []models.DailyStat{})

	assert.EqualError(t, err, "failed to update global state field stats: mocked-error")
}

func TestStateDatabase_SeedReportsCreation(t *testing.T) {
	db := &mocksdb.DatabaseHelper{}
	conn := &mocksdb.CollectionHelper{}

	conn.On("UpdateOne", mock.Anything, bson.M{"key": "global"}, mock.Anything, mock.Anything).
		Return(&mongo.UpdateResult{UpsertedCount: 1}, nil).Once()
	conn.On("UpdateOne", mock.Anything, bson.M{"key": "global"}, mock.Anything, mock.Anything).
		Return(&mongo.UpdateResult{MatchedCount: 1}, nil).Once()
	db.On("Collection", "states").Return(conn)

	stateDB := databases.NewStateDatabase(db)
	created, err := stateDB.Seed(context.Background(), models.GlobalState{Agents: []models.Agent{{ID: "1", Name: "Alice"}}})
	require.NoError(t, err)
	assert.True(t, created)

	created, err = stateDB.Seed(context.Background(), models.GlobalState{})
	require.NoError(t, err)
	assert.False(t, created)
}

func TestStateDatabase_EnsureIndexes(t *testing.T) {
	db := &mocksdb.DatabaseHelper{}
	conn := &mocksdb.CollectionHelper{}

	conn.On("CreateIndex", mock.Anything, mock.MatchedBy(func(m mongo.IndexModel) bool {
		return m.Options != nil && m.Options.Unique != nil && *m.Options.Unique
	})).Return("key_1", nil)
	db.On("Collection", "states").Return(conn)

	assert.NoError(t, databases.NewStateDatabase(db).EnsureIndexes(context.Background()))
	conn.AssertExpectations(t)
}
