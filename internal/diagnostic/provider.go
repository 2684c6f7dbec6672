package diagnostic

import "context"

// DefaultPriority is the registry ordering key assigned to providers
// that do not declare their own. Higher priorities run first.
const DefaultPriority = 100

// Provider is the contract every pluggable analyzer implements. The
// core treats providers as opaque: it orders them, invokes Analyze
// with fault isolation, and aggregates whatever they return.
type Provider interface {
	// Analyze inspects the build and returns findings. An empty slice
	// means no issues found. Errors and panics are contained by the
	// orchestrator and never abort the pass.
	Analyze(ctx context.Context, build BuildContext) ([]Result, error)

	// ID returns the provider identifier, non-empty and unique across
	// the registry (e.g. "pattern-matcher").
	ID() string

	// Name returns the display name (e.g. "Pattern Matcher").
	Name() string

	// Categories returns the category tags this provider can produce.
	Categories() []string

	// Enabled reports whether the provider should run for this build.
	Enabled(build BuildContext) bool

	// Priority is the registry-wide ordering key; higher runs first.
	Priority() int
}

// ProviderDefaults supplies the default Enabled and Priority behavior.
// Embed it in providers that only need to implement the rest.
type ProviderDefaults struct{}

// Enabled always returns true.
func (ProviderDefaults) Enabled(BuildContext) bool { return true }

// Priority returns DefaultPriority.
func (ProviderDefaults) Priority() int { return DefaultPriority }
