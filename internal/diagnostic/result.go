package diagnostic

import "strings"

// ActionStep is a single step within a solution.
type ActionStep struct {
	// Description explains what to do. Required.
	Description string `json:"description"`

	// Command is an optional shell command implementing the step.
	Command string `json:"command,omitempty"`

	// Optional marks steps that may be skipped.
	Optional bool `json:"optional,omitempty"`
}

// HasCommand reports whether the step carries a runnable command.
func (a ActionStep) HasCommand() bool {
	return strings.TrimSpace(a.Command) != ""
}

// Solution describes one way to resolve a diagnosed issue. Slice order
// of Steps is the author-declared execution order. Priority is only
// comparable between solutions of the same provider.
type Solution struct {
	ID          string            `json:"id"`
	Title       string            `json:"title"`
	Description string            `json:"description,omitempty"`
	Steps       []ActionStep      `json:"steps,omitempty"`
	Examples    map[string]string `json:"examples,omitempty"`
	Priority    int               `json:"priority"`
}

// Result is a single diagnostic finding. Results are value types;
// NewResult normalizes them once and they are never mutated afterward.
type Result struct {
	// ID is unique within one orchestration pass.
	ID string `json:"id"`

	// Category is a free-form tag (e.g. "dependency", "infrastructure").
	Category string `json:"category"`

	Severity Severity `json:"severity"`

	// Summary is a short human-readable statement of the finding.
	Summary string `json:"summary"`

	// Description optionally elaborates on the summary.
	Description string `json:"description,omitempty"`

	// Solutions are ordered by the provider's own ranking.
	Solutions []Solution `json:"solutions,omitempty"`

	// Metadata carries opaque provider-specific values.
	Metadata map[string]any `json:"metadata,omitempty"`

	// ProviderID identifies the provider that produced the finding.
	ProviderID string `json:"provider_id"`

	// Confidence is the provider-declared certainty in [0,100].
	Confidence int `json:"confidence"`
}

// NewResult returns a normalized copy of r. Confidence outside [0,100]
// is clamped, never rejected, so a provider's otherwise-valid finding
// is not lost over a cosmetic defect.
func NewResult(r Result) Result {
	r.Confidence = clampConfidence(r.Confidence)
	return r
}

func clampConfidence(c int) int {
	if c < 0 {
		return 0
	}
	if c > 100 {
		return 100
	}
	return c
}
