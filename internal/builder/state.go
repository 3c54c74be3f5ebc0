package builder

// Phase is a named stage of the guided build process.
type Phase string

// Build phases, in rough order of the guided flow. There is no terminal
// phase: publish can return to preview for iterative edits.
const (
	PhaseStart    Phase = "start"
	PhaseClarify  Phase = "clarify"
	PhaseBrand    Phase = "brand"
	PhaseHero     Phase = "hero"
	PhaseProducts Phase = "products"
	PhaseStyle    Phase = "style"
	PhasePreview  Phase = "preview"
	PhasePublish  Phase = "publish"
)

// transitions is the static validity table for phase changes.
// A proposed next phase is applied only if it appears in the current
// phase's entry; anything else is ignored.
var transitions = map[Phase][]Phase{
	PhaseStart:    {PhaseClarify, PhaseBrand},
	PhaseClarify:  {PhaseBrand, PhaseHero},
	PhaseBrand:    {PhaseHero},
	PhaseHero:     {PhaseProducts},
	PhaseProducts: {PhaseStyle},
	PhaseStyle:    {PhasePreview},
	PhasePreview:  {PhasePublish, PhaseProducts, PhaseHero, PhaseBrand},
	PhasePublish:  {PhasePreview},
}

// ValidPhase reports whether p is one of the known build phases.
func ValidPhase(p Phase) bool {
	_, ok := transitions[p]
	return ok
}

// CanTransition reports whether the build may move from one phase to another.
func CanTransition(from, to Phase) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// NextPhase applies a proposed transition. Invalid or hallucinated
// proposals leave the current phase unchanged rather than erroring:
// the extraction model regularly suggests phases it cannot reach.
func NextPhase(current Phase, proposed Phase) Phase {
	if CanTransition(current, proposed) {
		return proposed
	}
	return current
}
