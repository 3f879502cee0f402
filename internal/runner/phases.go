package runner

// Phase identifies one stage of a run
type Phase string

const (
	PhaseDiscover  Phase = "discover"  // Phase 1
	PhaseProbe     Phase = "probe"     // Phase 2
	PhaseFetch     Phase = "fetch"     // Phase 3
	PhaseAnalyze   Phase = "analyze"   // Phase 4 (vocabulary + statistics)
	PhaseTransform Phase = "transform" // Phase 5
	PhaseMarkov    Phase = "markov"    // Phase 6
	PhaseOutput    Phase = "output"    // Phase 7
)

// PhaseNumber maps phases to their display number
var PhaseNumber = map[Phase]int{
	PhaseDiscover:  1,
	PhaseProbe:     2,
	PhaseFetch:     3,
	PhaseAnalyze:   4,
	PhaseTransform: 5,
	PhaseMarkov:    6,
	PhaseOutput:    7,
}

// PhaseName maps phases to their display name
var PhaseName = map[Phase]string{
	PhaseDiscover:  "Host Discovery",
	PhaseProbe:     "Liveness Probing",
	PhaseFetch:     "Content Extraction",
	PhaseAnalyze:   "Vocabulary + Statistics",
	PhaseTransform: "Transformation Rules",
	PhaseMarkov:    "Markov Generation",
	PhaseOutput:    "Write Results",
}

// AllPhases returns the phases in execution order
func AllPhases() []Phase {
	return []Phase{
		PhaseDiscover, PhaseProbe, PhaseFetch, PhaseAnalyze,
		PhaseTransform, PhaseMarkov, PhaseOutput,
	}
}
