// Package reasoning normalizes provider-specific reasoning controls into a
// single abstract thinking option and a single integer wire value.
//
// Three provider families expose "how much should the model think" through
// incompatible shapes: a continuous token budget, a discrete effort level
// with partial support per model, and a second discrete scale with a
// different default and no "off". This package resolves a model identifier
// to one profile via a static prefix registry and maps a ThinkingOption to
// the provider's outbound budget value and back.
//
// The inbound direction is total: any value that is not valid for the
// resolved profile maps to OptionDynamic rather than failing, so persisted
// chats remain loadable after a model is deprecated or its profile changes.
package reasoning
