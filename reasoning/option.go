package reasoning

import "fmt"

// Option is the abstract user-facing thinking control.
type Option string

const (
	// OptionDynamic lets the provider decide how much to think.
	OptionDynamic Option = "dynamic"
	// OptionOff disables thinking entirely. Not every model allows it.
	OptionOff Option = "off"
	// OptionLow requests minimal thinking.
	OptionLow Option = "low"
	// OptionMedium requests moderate thinking.
	OptionMedium Option = "medium"
	// OptionHigh requests extensive thinking.
	OptionHigh Option = "high"
	// OptionXHigh requests the deepest thinking tier. Only discrete-effort
	// models expose it.
	OptionXHigh Option = "xhigh"
)

// ParseOption converts a string to an Option. The empty string parses to
// OptionDynamic.
func ParseOption(s string) (Option, error) {
	switch s {
	case "", "dynamic":
		return OptionDynamic, nil
	case "off":
		return OptionOff, nil
	case "low":
		return OptionLow, nil
	case "medium":
		return OptionMedium, nil
	case "high":
		return OptionHigh, nil
	case "xhigh":
		return OptionXHigh, nil
	default:
		return "", fmt.Errorf("reasoning: invalid option %q: must be dynamic, off, low, medium, high, or xhigh", s)
	}
}

// Effort is a named reasoning tier used by discrete-effort providers.
type Effort string

const (
	EffortNone   Effort = "none"
	EffortLow    Effort = "low"
	EffortMedium Effort = "medium"
	EffortHigh   Effort = "high"
	EffortXHigh  Effort = "xhigh"
)

// effort returns the discrete tier matching an option, or "" when the
// option has no discrete counterpart (dynamic).
func (o Option) effort() Effort {
	switch o {
	case OptionOff:
		return EffortNone
	case OptionLow:
		return EffortLow
	case OptionMedium:
		return EffortMedium
	case OptionHigh:
		return EffortHigh
	case OptionXHigh:
		return EffortXHigh
	default:
		return ""
	}
}

// option returns the abstract option matching a discrete tier.
func (e Effort) option() Option {
	switch e {
	case EffortNone:
		return OptionOff
	case EffortLow:
		return OptionLow
	case EffortMedium:
		return OptionMedium
	case EffortHigh:
		return OptionHigh
	case EffortXHigh:
		return OptionXHigh
	default:
		return OptionDynamic
	}
}

// Outbound budget wire values shared by all profiles. Dynamic is the
// out-of-band sentinel; discrete tiers occupy 0..4 in increasing order.
// Continuous profiles use real token counts instead of ordinals.
const (
	// BudgetDynamic asks the provider to pick its own budget.
	BudgetDynamic = -1
	// BudgetOff disables thinking (discrete "none", continuous zero budget).
	BudgetOff = 0

	budgetLow    = 1
	budgetMedium = 2
	budgetHigh   = 3
	budgetXHigh  = 4
)

// ordinal returns the wire ordinal for a discrete tier.
func (e Effort) ordinal() int {
	switch e {
	case EffortNone:
		return BudgetOff
	case EffortLow:
		return budgetLow
	case EffortMedium:
		return budgetMedium
	case EffortHigh:
		return budgetHigh
	case EffortXHigh:
		return budgetXHigh
	default:
		return BudgetDynamic
	}
}

// effortForOrdinal is the inverse of ordinal. Unknown values return "".
func effortForOrdinal(v int) Effort {
	switch v {
	case BudgetOff:
		return EffortNone
	case budgetLow:
		return EffortLow
	case budgetMedium:
		return EffortMedium
	case budgetHigh:
		return EffortHigh
	case budgetXHigh:
		return EffortXHigh
	default:
		return ""
	}
}
