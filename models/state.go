package models

// GlobalStateKey is the key of the single shared state document
const GlobalStateKey = "global"

// GlobalState holds the structure for the states collection in mongo. Exactly one
// document exists, keyed by GlobalStateKey.
type GlobalState struct {
	Key    string        `json:"key" bson:"key"`
	Agents []Agent       `json:"agents" bson:"agents"`
	Roster []RosterEntry `json:"roster" bson:"roster"`
	Stats  []DailyStat   `json:"stats" bson:"stats"`
}

// Normalize replaces nil slices with empty ones so the document always
// serializes with arrays
func (g *GlobalState) Normalize() *GlobalState {
	if g.Agents == nil {
		g.Agents = []Agent{}
	}
	if g.Roster == nil {
		g.Roster = []RosterEntry{}
	}
	if g.Stats == nil {
		g.Stats = []DailyStat{}
	}
	return g
}

// Agent is a team member that can be rostered
type Agent struct {
	ID             string `json:"id" bson:"id"`
	Name           string `json:"name" bson:"name"`
	IsQueueHandler bool   `json:"isQueueHandler" bson:"isQueueHandler"`
}

// RosterEntry assigns a shift to an agent for one calendar day (YYYY-MM-DD)
type RosterEntry struct {
	AgentID string `json:"agentId" bson:"agentId"`
	Date    string `json:"date" bson:"date"`
	Shift   string `json:"shift" bson:"shift"`
}

// Standard shift codes. Custom shift strings are accepted as well.
const (
	ShiftMorning   = "6AM-3PM"
	ShiftAfternoon = "1PM-10PM"
	ShiftLate      = "2PM-11PM"
	ShiftNight     = "10PM-7AM"
	ShiftMidday    = "12PM-9PM"
	ShiftWeekOff   = "WO"
	ShiftMedical   = "ML"
	ShiftPlanned   = "PL"
	ShiftEarned    = "EL"
	ShiftUnpaid    = "UL"
	ShiftCompOff   = "CO"
	ShiftMidLeave  = "MID-LEAVE"
)

// DailyStat holds the per-agent productivity counters for one day
type DailyStat struct {
	AgentID   string `json:"agentId" bson:"agentId"`
	Date      string `json:"date" bson:"date"`
	Incidents int    `json:"incidents" bson:"incidents"`
	Tasks     int    `json:"tasks" bson:"tasks"`
	Calls     int    `json:"calls" bson:"calls"`
	Comments  string `json:"comments" bson:"comments"`
}
