package model

// PressureContext buckets the leverage index into four categories.
type PressureContext string

// Pressure contexts, ordered low to critical.
const (
	PressureLow      PressureContext = "low"
	PressureMedium   PressureContext = "medium"
	PressureHigh     PressureContext = "high"
	PressureCritical PressureContext = "critical"
)

// GameSituation is the discrete baseball state supplied by coach input.
// Bases is a 3-character binary string, first base first ("101" means
// runners on first and third).
type GameSituation struct {
	Inning    int    `json:"inning"`     // [1,15]
	Outs      int    `json:"outs"`       // [0,2]
	Bases     string `json:"bases"`      // exactly 3 binary digits
	ScoreDiff int    `json:"score_diff"` // [-50,50], positive means leading
}

// GameContext is the derived pressure view of a GameSituation.
type GameContext struct {
	GameSituation

	LeverageIndex   float64         `json:"leverage_index"` // >= 0, 2 decimals
	PressureContext PressureContext `json:"pressure_context"`
	BasesState      string          `json:"bases_state"` // "empty", "runners on", "bases loaded"
	Description     string          `json:"description"` // human-readable situation text
}
