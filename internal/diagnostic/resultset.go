package diagnostic

import (
	"encoding/json"
	"time"
)

// ResultSet is the immutable ordered aggregate of findings produced by
// one orchestration pass. It is created once when analysis completes
// and never mutated, so it can be read concurrently without locks.
type ResultSet struct {
	passID       string
	results      []Result
	providersRun int
	createdAt    time.Time
}

// NewResultSet builds a result set from one pass. The slice is copied;
// each result is normalized on the way in.
func NewResultSet(passID string, results []Result, providersRun int) *ResultSet {
	owned := make([]Result, len(results))
	for i, r := range results {
		owned[i] = NewResult(r)
	}
	return &ResultSet{
		passID:       passID,
		results:      owned,
		providersRun: providersRun,
		createdAt:    time.Now().UTC(),
	}
}

// PassID identifies the orchestration pass that produced the set.
func (rs *ResultSet) PassID() string { return rs.passID }

// ProvidersRun is the number of providers that were invoked.
func (rs *ResultSet) ProvidersRun() int { return rs.providersRun }

// CreatedAt is when the pass completed.
func (rs *ResultSet) CreatedAt() time.Time { return rs.createdAt }

// Results returns the findings in pass order. The returned slice is a
// copy; the set itself stays immutable.
func (rs *ResultSet) Results() []Result {
	out := make([]Result, len(rs.results))
	copy(out, rs.results)
	return out
}

// Count returns the number of findings.
func (rs *ResultSet) Count() int { return len(rs.results) }

// HasResults reports whether the set contains any finding.
func (rs *ResultSet) HasResults() bool { return len(rs.results) > 0 }

// BySeverity returns the findings of the given severity, preserving
// the original pass order.
func (rs *ResultSet) BySeverity(s Severity) []Result {
	var out []Result
	for _, r := range rs.results {
		if r.Severity == s {
			out = append(out, r)
		}
	}
	return out
}

// CountBySeverity returns how many findings carry the given severity.
func (rs *ResultSet) CountBySeverity(s Severity) int {
	n := 0
	for _, r := range rs.results {
		if r.Severity == s {
			n++
		}
	}
	return n
}

// HighestSeverity returns the most severe finding level in the set.
// ok is false when the set is empty.
func (rs *ResultSet) HighestSeverity() (highest Severity, ok bool) {
	for _, r := range rs.results {
		if !ok || r.Severity.WorseThan(highest) {
			highest = r.Severity
			ok = true
		}
	}
	return highest, ok
}

// resultSetRecord is the persisted wire form of a ResultSet.
type resultSetRecord struct {
	PassID       string    `json:"pass_id"`
	Results      []Result  `json:"results"`
	ProvidersRun int       `json:"providers_run"`
	CreatedAt    time.Time `json:"created_at"`
}

// MarshalJSON implements json.Marshaler for persistence.
func (rs *ResultSet) MarshalJSON() ([]byte, error) {
	return json.Marshal(resultSetRecord{
		PassID:       rs.passID,
		Results:      rs.results,
		ProvidersRun: rs.providersRun,
		CreatedAt:    rs.createdAt,
	})
}

// UnmarshalJSON implements json.Unmarshaler for persistence.
func (rs *ResultSet) UnmarshalJSON(data []byte) error {
	var rec resultSetRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return err
	}
	rs.passID = rec.PassID
	rs.results = rec.Results
	rs.providersRun = rec.ProvidersRun
	rs.createdAt = rec.CreatedAt
	return nil
}
