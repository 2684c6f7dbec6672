// Package diagnostic defines the value types and capability interfaces
// shared by every diagnostic provider and by the orchestration core.
//
// The package has no dependencies on the rest of doctord. It contains:
//   - Result, Solution, ActionStep: immutable finding values
//   - Severity: the total order used for ranking and queries
//   - BuildMetadata and BuildContext: the per-build input snapshot
//   - Provider: the contract every pluggable analyzer implements
//   - ResultSet: the immutable aggregate attached to one build
//
// Values handed to the orchestrator become owned by it; providers must
// not retain or mutate results after returning them from Analyze.
package diagnostic
