package reasoning

import "strings"

// registryEntry binds a model-family prefix to its profile.
type registryEntry struct {
	prefix  string
	profile Profile
}

// registry is the static model-family table. Matching is longest-prefix, so
// more specific families may shadow broader ones regardless of order here.
// Model identifiers that match no entry carry no reasoning capability.
var registry = []registryEntry{
	{
		prefix:  "gemini-2.5-pro",
		profile: ContinuousProfile{Min: 128, Max: 32768, Medium: 8192, CanBeOff: false},
	},
	{
		prefix:  "gemini-2.5-flash-lite",
		profile: ContinuousProfile{Min: 512, Max: 24576, Medium: 8192, CanBeOff: true},
	},
	{
		prefix:  "gemini-2.5-flash",
		profile: ContinuousProfile{Min: 2048, Max: 24576, Medium: 8192, CanBeOff: true},
	},
	{
		prefix: "gpt-5.1-codex-max",
		profile: DiscreteProfile{
			Efforts: []Effort{EffortLow, EffortMedium, EffortHigh, EffortXHigh},
			Default: EffortMedium,
		},
	},
	{
		prefix: "gpt-5.1",
		profile: DiscreteProfile{
			Efforts:   []Effort{EffortNone, EffortLow, EffortMedium, EffortHigh},
			Default:   EffortMedium,
			Verbosity: true,
		},
	},
	{
		prefix: "gpt-5",
		profile: DiscreteProfile{
			Efforts:   []Effort{EffortLow, EffortMedium, EffortHigh},
			Default:   EffortMedium,
			Verbosity: true,
		},
	},
	{
		prefix: "grok-4",
		profile: FixedProfile{
			Efforts: []Effort{EffortLow, EffortMedium, EffortHigh},
			Default: EffortLow,
		},
	},
	{
		prefix: "grok-3-mini",
		profile: FixedProfile{
			Efforts: []Effort{EffortLow, EffortHigh},
			Default: EffortLow,
		},
	},
}

// ResolveProfile returns the reasoning profile for a model identifier via
// longest-prefix match against the family registry. The second return is
// false when the model has no reasoning capability.
func ResolveProfile(modelID string) (Profile, bool) {
	var best Profile
	bestLen := -1
	for _, e := range registry {
		if strings.HasPrefix(modelID, e.prefix) && len(e.prefix) > bestLen {
			best = e.profile
			bestLen = len(e.prefix)
		}
	}
	return best, bestLen >= 0
}

// IsSupported reports whether the model resolves to a reasoning profile.
// Callers should hide reasoning controls entirely when this is false.
func IsSupported(modelID string) bool {
	_, ok := ResolveProfile(modelID)
	return ok
}

// ModelPrefixes returns the registered family prefixes, mainly for tests
// and capability listings.
func ModelPrefixes() []string {
	out := make([]string, 0, len(registry))
	for _, e := range registry {
		out = append(out, e.prefix)
	}
	return out
}
