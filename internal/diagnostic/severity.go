package diagnostic

import "fmt"

// Severity classifies the impact of a finding. The order is total:
// critical > high > medium > low.
type Severity string

const (
	// SeverityCritical means the build fails with no workaround.
	SeverityCritical Severity = "critical"
	// SeverityHigh means the build fails but a manual workaround exists.
	SeverityHigh Severity = "high"
	// SeverityMedium means the build succeeds but with issues.
	SeverityMedium Severity = "medium"
	// SeverityLow covers performance and optimization suggestions.
	SeverityLow Severity = "low"
)

// Severities lists all severities from most to least severe.
func Severities() []Severity {
	return []Severity{SeverityCritical, SeverityHigh, SeverityMedium, SeverityLow}
}

// Rank returns the position of s in the severity order. Rank 0 is the
// most severe; unknown severities rank below low.
func (s Severity) Rank() int {
	switch s {
	case SeverityCritical:
		return 0
	case SeverityHigh:
		return 1
	case SeverityMedium:
		return 2
	case SeverityLow:
		return 3
	default:
		return 4
	}
}

// WorseThan reports whether s is strictly more severe than other.
func (s Severity) WorseThan(other Severity) bool {
	return s.Rank() < other.Rank()
}

// Valid reports whether s is one of the four known severities.
func (s Severity) Valid() bool {
	return s.Rank() < 4
}

// ParseSeverity converts a string into a Severity.
func ParseSeverity(value string) (Severity, error) {
	s := Severity(value)
	if !s.Valid() {
		return "", fmt.Errorf("unknown severity %q", value)
	}
	return s, nil
}
