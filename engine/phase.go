package engine

// Phase is a state of the step state machine.
type Phase uint8

const (
	PhaseIdle Phase = iota
	PhaseCollecting
	PhaseSelecting
	PhaseApplying
	PhaseAging
	PhaseMoving
	PhaseFields
)

// PhaseInfo describes a step phase for logs and perf output.
type PhaseInfo struct {
	Phase       Phase
	ID          string // used as perf key and CSV column prefix
	Name        string
	Description string
}

// phases lists the step phases in execution order.
var phases = []PhaseInfo{
	{PhaseCollecting, "collect", "Collecting", "Matches behaviors and binds reaction slots against the pre-step grid"},
	{PhaseSelecting, "select", "Selecting", "Draws at most one firing behavior per anchor"},
	{PhaseApplying, "apply", "Applying", "Writes products, copies and field influences to the next grid"},
	{PhaseAging, "age", "Aging & Death", "Ages untransformed agents and removes those that fail their death draw"},
	{PhaseMoving, "move", "Moving", "Moves agents into empty neighbors"},
	{PhaseFields, "fields", "Field Update", "Diffuses, decays and evaluates formulas for every field"},
}

// Phases returns the step phases in execution order.
func Phases() []PhaseInfo {
	return append([]PhaseInfo(nil), phases...)
}

// PhaseIDs returns the phase IDs in execution order.
func PhaseIDs() []string {
	ids := make([]string, len(phases))
	for i, p := range phases {
		ids[i] = p.ID
	}
	return ids
}

func (p Phase) String() string {
	if p == PhaseIdle {
		return "idle"
	}
	for _, info := range phases {
		if info.Phase == p {
			return info.ID
		}
	}
	return "unknown"
}

// Timer receives phase boundaries. telemetry.PerfCollector implements it.
type Timer interface {
	StartTick()
	StartPhase(phase string)
	EndTick()
}

type noopTimer struct{}

func (noopTimer) StartTick()        {}
func (noopTimer) StartPhase(string) {}
func (noopTimer) EndTick()          {}
