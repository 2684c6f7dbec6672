package diagnostic

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func severityFixture() []Result {
	return []Result{
		{ID: "a", Severity: SeverityLow, Summary: "slow cache", ProviderID: "p1", Confidence: 40},
		{ID: "b", Severity: SeverityCritical, Summary: "compile error", ProviderID: "p1", Confidence: 95},
		{ID: "c", Severity: SeverityMedium, Summary: "flaky test", ProviderID: "p2", Confidence: 60},
	}
}

func TestResultSet_Queries(t *testing.T) {
	rs := NewResultSet("pass-1", severityFixture(), 2)

	assert.Equal(t, 3, rs.Count())
	assert.True(t, rs.HasResults())
	assert.Equal(t, 2, rs.ProvidersRun())

	assert.Equal(t, 1, rs.CountBySeverity(SeverityCritical))
	assert.Equal(t, 0, rs.CountBySeverity(SeverityHigh))

	highest, ok := rs.HighestSeverity()
	require.True(t, ok)
	assert.Equal(t, SeverityCritical, highest)

	// Filtering preserves pass order.
	medium := rs.BySeverity(SeverityMedium)
	require.Len(t, medium, 1)
	assert.Equal(t, "c", medium[0].ID)
}

func TestResultSet_Empty(t *testing.T) {
	rs := NewResultSet("pass-2", nil, 0)

	assert.Equal(t, 0, rs.Count())
	assert.False(t, rs.HasResults())
	_, ok := rs.HighestSeverity()
	assert.False(t, ok)
}

func TestResultSet_HighestSeverityIgnoresOrder(t *testing.T) {
	// CRITICAL wins regardless of where it sits in the sequence.
	rs := NewResultSet("pass-3", []Result{
		{ID: "1", Severity: SeverityMedium},
		{ID: "2", Severity: SeverityLow},
		{ID: "3", Severity: SeverityCritical},
	}, 1)

	highest, ok := rs.HighestSeverity()
	require.True(t, ok)
	assert.Equal(t, SeverityCritical, highest)
}

func TestResultSet_NormalizesOnConstruction(t *testing.T) {
	rs := NewResultSet("pass-4", []Result{
		{ID: "x", Severity: SeverityHigh, Confidence: 400},
	}, 1)

	assert.Equal(t, 100, rs.Results()[0].Confidence)
}

func TestResultSet_ResultsReturnsCopy(t *testing.T) {
	rs := NewResultSet("pass-5", severityFixture(), 2)

	got := rs.Results()
	got[0].Summary = "mutated"

	assert.Equal(t, "slow cache", rs.Results()[0].Summary)
}

func TestResultSet_JSONRoundTrip(t *testing.T) {
	rs := NewResultSet("pass-6", severityFixture(), 2)

	data, err := json.Marshal(rs)
	require.NoError(t, err)

	var restored ResultSet
	require.NoError(t, json.Unmarshal(data, &restored))

	assert.Equal(t, rs.PassID(), restored.PassID())
	assert.Equal(t, rs.Count(), restored.Count())
	assert.Equal(t, rs.ProvidersRun(), restored.ProvidersRun())
	assert.Equal(t, rs.Results(), restored.Results())
}
