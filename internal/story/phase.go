package story

// Phase is a narrative stage derived from page progress.
type Phase string

const (
	PhaseIntroduction  Phase = "introduction"
	PhaseRisingAction  Phase = "rising_action"
	PhaseClimax        Phase = "climax"
	PhaseFallingAction Phase = "falling_action"
	PhaseResolution    Phase = "resolution"
)

// Phases lists every phase in narrative order.
var Phases = []Phase{PhaseIntroduction, PhaseRisingAction, PhaseClimax, PhaseFallingAction, PhaseResolution}

// ClassifyPhase maps current/total progress to a phase. totalPages below 1
// is treated as 1 and negative currentPage as 0.
func ClassifyPhase(currentPage, totalPages int) Phase {
	if totalPages < 1 {
		totalPages = 1
	}
	if currentPage < 0 {
		currentPage = 0
	}
	// integer comparisons avoid float rounding at the 0.2 steps
	scaled := currentPage * 5
	switch {
	case scaled <= totalPages:
		return PhaseIntroduction
	case scaled <= 2*totalPages:
		return PhaseRisingAction
	case scaled <= 3*totalPages:
		return PhaseClimax
	case scaled <= 4*totalPages:
		return PhaseFallingAction
	default:
		return PhaseResolution
	}
}

// Order returns the position of p in Phases, or -1.
func (p Phase) Order() int {
	for i, ph := range Phases {
		if ph == p {
			return i
		}
	}
	return -1
}
