package batch

// Step is one stage of the label purchase wizard. The original flow tracked
// this implicitly through navigation history; here it is an explicit
// four-state machine with a terminal sub-state on Purchase.
type Step int

const (
	StepUpload Step = iota
	StepReview
	StepShipping
	StepPurchase
)

func (s Step) String() string {
	switch s {
	case StepUpload:
		return "Upload"
	case StepReview:
		return "Review"
	case StepShipping:
		return "Shipping"
	case StepPurchase:
		return "Purchase"
	}
	return "Unknown"
}

// Wizard sequences Upload → Review → Shipping → Purchase. Forward moves are
// guarded only by "a batch exists"; backward moves are always permitted and
// perform no state rollback.
type Wizard struct {
	step Step
}

// NewWizard starts at the given step (StepUpload for a fresh run, StepReview
// when resuming an existing batch).
func NewWizard(start Step) *Wizard { return &Wizard{step: start} }

// Step returns the current step.
func (w *Wizard) Step() Step { return w.step }

// Advance moves forward one step. hasBatch is the only guard; returns whether
// a move happened.
func (w *Wizard) Advance(hasBatch bool) bool {
	if w.step >= StepPurchase || !hasBatch {
		return false
	}
	w.step++
	return true
}

// Retreat moves back one step. Pure read navigation: nothing is rolled back.
func (w *Wizard) Retreat() bool {
	if w.step <= StepUpload {
		return false
	}
	w.step--
	return true
}
