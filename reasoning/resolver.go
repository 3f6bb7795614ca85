package reasoning

// ToBudget maps an abstract option to the outbound budget value for the
// given model. Options the resolved profile does not support collapse to
// BudgetDynamic, as does any model without a profile.
func ToBudget(modelID string, opt Option) int {
	if opt == OptionDynamic {
		return BudgetDynamic
	}
	profile, ok := ResolveProfile(modelID)
	if !ok {
		return BudgetDynamic
	}

	switch p := profile.(type) {
	case ContinuousProfile:
		switch opt {
		case OptionOff:
			if p.CanBeOff {
				return BudgetOff
			}
			return BudgetDynamic
		case OptionLow:
			return p.Min
		case OptionMedium:
			return p.Medium
		case OptionHigh:
			return p.Max
		default:
			// xhigh has no continuous equivalent.
			return BudgetDynamic
		}
	case DiscreteProfile:
		if e := opt.effort(); supportsEffort(p.Efforts, e) {
			return e.ordinal()
		}
		return BudgetDynamic
	case FixedProfile:
		if e := opt.effort(); supportsEffort(p.Efforts, e) {
			return e.ordinal()
		}
		return BudgetDynamic
	default:
		return BudgetDynamic
	}
}

// FromBudget maps a stored outbound budget value back to the abstract
// option. The mapping is total: BudgetDynamic and every value outside the
// profile's valid set return OptionDynamic, so stale persisted values stay
// renderable.
func FromBudget(modelID string, value int) Option {
	if value == BudgetDynamic {
		return OptionDynamic
	}
	profile, ok := ResolveProfile(modelID)
	if !ok {
		return OptionDynamic
	}

	switch p := profile.(type) {
	case ContinuousProfile:
		switch value {
		case BudgetOff:
			if p.CanBeOff {
				return OptionOff
			}
		case p.Min:
			return OptionLow
		case p.Medium:
			return OptionMedium
		case p.Max:
			return OptionHigh
		}
		return OptionDynamic
	case DiscreteProfile:
		if e := effortForOrdinal(value); e != "" && supportsEffort(p.Efforts, e) {
			return e.option()
		}
		return OptionDynamic
	case FixedProfile:
		if e := effortForOrdinal(value); e != "" && supportsEffort(p.Efforts, e) {
			return e.option()
		}
		return OptionDynamic
	default:
		return OptionDynamic
	}
}

// IsOffAllowed reports whether the model's thinking can be disabled
// outright: a continuous profile with CanBeOff, or a discrete profile whose
// effort set includes "none". Fixed profiles can never be off.
func IsOffAllowed(modelID string) bool {
	profile, ok := ResolveProfile(modelID)
	if !ok {
		return false
	}
	switch p := profile.(type) {
	case ContinuousProfile:
		return p.CanBeOff
	case DiscreteProfile:
		return supportsEffort(p.Efforts, EffortNone)
	default:
		return false
	}
}

// SupportsVerbosity reports whether the model exposes a separate verbosity
// control. Only discrete-effort profiles may.
func SupportsVerbosity(modelID string) bool {
	profile, ok := ResolveProfile(modelID)
	if !ok {
		return false
	}
	p, ok := profile.(DiscreteProfile)
	return ok && p.Verbosity
}

// Options returns the abstract options selectable for the model, in UI
// order, always starting with OptionDynamic. A model without a profile
// returns nil.
func Options(modelID string) []Option {
	profile, ok := ResolveProfile(modelID)
	if !ok {
		return nil
	}

	opts := []Option{OptionDynamic}
	switch p := profile.(type) {
	case ContinuousProfile:
		if p.CanBeOff {
			opts = append(opts, OptionOff)
		}
		opts = append(opts, OptionLow, OptionMedium, OptionHigh)
	case DiscreteProfile:
		for _, e := range p.Efforts {
			opts = append(opts, e.option())
		}
	case FixedProfile:
		for _, e := range p.Efforts {
			opts = append(opts, e.option())
		}
	}
	return opts
}

// DefaultOption returns the option preselected for a model: the profile's
// default tier for discrete scales, dynamic otherwise.
func DefaultOption(modelID string) Option {
	profile, ok := ResolveProfile(modelID)
	if !ok {
		return OptionDynamic
	}
	switch p := profile.(type) {
	case DiscreteProfile:
		return p.Default.option()
	case FixedProfile:
		return p.Default.option()
	default:
		return OptionDynamic
	}
}
