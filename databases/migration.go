package databases

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"sort"

	"go.uber.org/zap"

	"github.com/linesmerrill/queue-tracker-api/models"
)

// MigratedSuffix is appended to the legacy file once its contents are in mongo
const MigratedSuffix = ".migrated"

// legacySnapshot is the flat-file layout used before the mongo store existed.
// Older snapshots keep the agents under "handlers" with isQH and sctasks row fields.
type legacySnapshot struct {
	Agents   []legacyAgent                `json:"agents"`
	Handlers []legacyAgent                `json:"handlers"`
	Roster   []models.RosterEntry         `json:"roster"`
	Stats    []legacyStat                 `json:"stats"`
	Logs     map[string][]models.LogEntry `json:"logs"`
}

// Migrate imports a legacy snapshot file into mongo. A missing file is a no-op.
// The global state is only seeded when absent and logs are only imported into an
// empty collection; the file is renamed afterwards so later runs skip it.
func Migrate(ctx context.Context, path string, states StateDatabase, logs LogDatabase) error {
	raw, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to read legacy data file: %w", err)
	}
	zap.S().Infow("legacy data file found, migrating", "path", path)

	var snap legacySnapshot
	if err := json.Unmarshal(raw, &snap); err != nil {
		return fmt.Errorf("failed to parse legacy data file: %w", err)
	}

	created, err := states.Seed(ctx, models.GlobalState{
		Key:    models.GlobalStateKey,
		Agents: legacyAgents(snap.Agents, snap.Handlers),
		Roster: snap.Roster,
		Stats:  legacyStats(snap.Stats),
	})
	if err != nil {
		return err
	}
	if created {
		zap.S().Info("global state migrated")
	}

	count, err := logs.CountDocuments(ctx)
	if err != nil {
		return fmt.Errorf("failed to count log entries: %w", err)
	}
	if count == 0 && len(snap.Logs) > 0 {
		entries := flattenLegacyLogs(snap.Logs)
		if err := logs.InsertMany(ctx, entries); err != nil {
			return err
		}
		zap.S().Infow("log entries migrated", "count", len(entries))
	}

	if err := os.Rename(path, path+MigratedSuffix); err != nil {
		return fmt.Errorf("failed to rename legacy data file: %w", err)
	}
	zap.S().Infow("migration complete", "renamedTo", path+MigratedSuffix)
	return nil
}

func flattenLegacyLogs(byDay map[string][]models.LogEntry) []models.LogEntry {
	days := make([]string, 0, len(byDay))
	for day := range byDay {
		days = append(days, day)
	}
	sort.Strings(days)

	var entries []models.LogEntry
	for _, day := range days {
		for _, e := range byDay[day] {
			e.DateStr = day
			entries = append(entries, e)
		}
	}
	return entries
}
