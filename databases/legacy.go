package databases

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"

	"github.com/linesmerrill/queue-tracker-api/models"
)

// legacyHandlersField is where the previous server kept the agent list
const legacyHandlersField = "handlers"

// legacyAgent accepts agent rows written by the previous server and client,
// which named the queue-handler flag isQH
type legacyAgent struct {
	ID             string `json:"id" bson:"id"`
	Name           string `json:"name" bson:"name"`
	IsQH           *bool  `json:"isQH" bson:"isQH"`
	IsQueueHandler bool   `json:"isQueueHandler" bson:"isQueueHandler"`
}

func (a legacyAgent) agent() models.Agent {
	isQueueHandler := a.IsQueueHandler
	if a.IsQH != nil {
		isQueueHandler = *a.IsQH
	}
	return models.Agent{ID: a.ID, Name: a.Name, IsQueueHandler: isQueueHandler}
}

// legacyStat accepts stats rows that named the task counter sctasks
type legacyStat struct {
	AgentID   string `json:"agentId" bson:"agentId"`
	Date      string `json:"date" bson:"date"`
	Incidents int    `json:"incidents" bson:"incidents"`
	SCTasks   *int   `json:"sctasks" bson:"sctasks"`
	Tasks     int    `json:"tasks" bson:"tasks"`
	Calls     int    `json:"calls" bson:"calls"`
	Comments  string `json:"comments" bson:"comments"`
}

func (s legacyStat) stat() models.DailyStat {
	tasks := s.Tasks
	if s.SCTasks != nil {
		tasks = *s.SCTasks
	}
	return models.DailyStat{
		AgentID:   s.AgentID,
		Date:      s.Date,
		Incidents: s.Incidents,
		Tasks:     tasks,
		Calls:     s.Calls,
		Comments:  s.Comments,
	}
}

// legacyAgents prefers the agents list and falls back to handlers
func legacyAgents(agents, handlers []legacyAgent) []models.Agent {
	rows := agents
	if len(rows) == 0 {
		rows = handlers
	}
	out := make([]models.Agent, 0, len(rows))
	for _, a := range rows {
		out = append(out, a.agent())
	}
	return out
}

func legacyStats(rows []legacyStat) []models.DailyStat {
	out := make([]models.DailyStat, 0, len(rows))
	for _, s := range rows {
		out = append(out, s.stat())
	}
	return out
}

type legacyStateDocument struct {
	Agents   []legacyAgent `bson:"agents"`
	Handlers []legacyAgent `bson:"handlers"`
	Stats    []legacyStat  `bson:"stats"`
}

// UpgradeLegacyState rewrites a global state document left by the previous server:
// handlers move to agents and renamed row fields are mapped. The handlers field is
// removed afterwards, so the upgrade runs at most once. It reports whether a
// document was rewritten.
func UpgradeLegacyState(ctx context.Context, db DatabaseHelper) (bool, error) {
	filter := bson.M{"key": models.GlobalStateKey, legacyHandlersField: bson.M{"$exists": true}}
	curr, err := db.Collection(stateName).Find(ctx, filter)
	if err != nil {
		return false, fmt.Errorf("failed to find legacy global state: %w", err)
	}
	defer curr.Close(ctx)

	var docs []bson.Raw
	if err := curr.All(ctx, &docs); err != nil {
		return false, fmt.Errorf("failed to read legacy global state: %w", err)
	}
	if len(docs) == 0 {
		return false, nil
	}

	var doc legacyStateDocument
	if err := bson.Unmarshal(docs[0], &doc); err != nil {
		return false, fmt.Errorf("failed to decode legacy global state: %w", err)
	}
	update := bson.M{
		"$set": bson.M{
			FieldAgents: legacyAgents(doc.Agents, doc.Handlers),
			FieldStats:  legacyStats(doc.Stats),
		},
		"$unset": bson.M{legacyHandlersField: ""},
	}
	if _, err := db.Collection(stateName).UpdateOne(ctx, globalFilter(), update); err != nil {
		return false, fmt.Errorf("failed to upgrade legacy global state: %w", err)
	}
	return true, nil
}
