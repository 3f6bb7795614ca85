package reasoning

// Profile describes how one model family exposes its reasoning control.
// Exactly three shapes exist; the sealed marker keeps the set closed so
// mapping code can exhaustively switch on the concrete type.
type Profile interface {
	sealed()
}

// ContinuousProfile is a token-budget range (budget-based providers).
// Low maps to Min, high to Max, medium to Medium. Off is valid only when
// CanBeOff is set; xhigh has no continuous equivalent.
type ContinuousProfile struct {
	// Min is the smallest non-zero budget the provider accepts.
	Min int
	// Max is the largest budget the provider accepts.
	Max int
	// Medium is the recommended mid-range budget.
	Medium int
	// CanBeOff reports whether a zero budget (thinking disabled) is valid.
	CanBeOff bool
}

func (ContinuousProfile) sealed() {}

// DiscreteProfile is a named effort scale with per-model support
// (effort-enum providers). Solely these profiles may support a separate
// verbosity control.
type DiscreteProfile struct {
	// Efforts lists the tiers this model accepts, in increasing order.
	Efforts []Effort
	// Default is the tier the provider uses when none is requested.
	Default Effort
	// Verbosity reports whether the model exposes a verbosity control.
	Verbosity bool
}

func (DiscreteProfile) sealed() {}

// FixedProfile is a second discrete scale limited to low/medium/high with
// no "none" tier (providers whose thinking cannot be disabled).
type FixedProfile struct {
	// Efforts lists the tiers this model accepts, in increasing order.
	Efforts []Effort
	// Default is the tier the provider uses when none is requested.
	Default Effort
}

func (FixedProfile) sealed() {}

// supportsEffort reports whether e appears in the profile's effort set.
func supportsEffort(efforts []Effort, e Effort) bool {
	for _, s := range efforts {
		if s == e {
			return true
		}
	}
	return false
}
