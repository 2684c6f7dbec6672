package orchestrator

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/fyrsmithlabs/doctord/internal/diagnostic"
)

type fakeProvider struct {
	diagnostic.ProviderDefaults
	id       string
	priority int
	results  []diagnostic.Result
	err      error
	panics   bool
	block    time.Duration
}

func (f *fakeProvider) Analyze(ctx context.Context, _ diagnostic.BuildContext) ([]diagnostic.Result, error) {
	if f.panics {
		panic("fake provider exploded")
	}
	if f.block > 0 {
		select {
		case <-time.After(f.block):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	return f.results, f.err
}

func (f *fakeProvider) ID() string           { return f.id }
func (f *fakeProvider) Name() string         { return f.id }
func (f *fakeProvider) Categories() []string { return nil }

func (f *fakeProvider) Priority() int {
	if f.priority != 0 {
		return f.priority
	}
	return diagnostic.DefaultPriority
}

// fixedSource returns providers as-is; order is the caller's priority order.
type fixedSource struct {
	providers []diagnostic.Provider
}

func (s *fixedSource) EnabledProviders(diagnostic.BuildContext) []diagnostic.Provider {
	return s.providers
}

func buildFixture() diagnostic.BuildContext {
	return &diagnostic.Snapshot{
		Log:    "FATAL: out of memory",
		Meta:   diagnostic.BuildMetadata{JobName: "ci/main", BuildNumber: 17},
		Result: "FAILURE",
	}
}

func result(id, provider string, severity diagnostic.Severity) diagnostic.Result {
	return diagnostic.Result{ID: id, Severity: severity, Summary: id, ProviderID: provider, Confidence: 80}
}

func TestAnalyze_MergesInPriorityOrder(t *testing.T) {
	a := &fakeProvider{id: "a", priority: 200, results: []diagnostic.Result{result("ra", "a", diagnostic.SeverityHigh)}}
	b := &fakeProvider{id: "b", priority: 50, results: []diagnostic.Result{result("rb", "b", diagnostic.SeverityLow)}}

	o := New(&fixedSource{providers: []diagnostic.Provider{a, b}}, zap.NewNop())
	report := o.Analyze(context.Background(), buildFixture())

	require.Len(t, report.Results, 2)
	assert.Equal(t, "ra", report.Results[0].ID)
	assert.Equal(t, "rb", report.Results[1].ID)
	assert.Equal(t, 2, report.ProvidersRun)
	assert.False(t, report.Degraded())
	assert.NotEmpty(t, report.PassID)
}

func TestAnalyze_IsolatesFailingProvider(t *testing.T) {
	bad := &fakeProvider{id: "bad", priority: 300, err: errors.New("boom")}
	good := &fakeProvider{id: "good", results: []diagnostic.Result{result("rg", "good", diagnostic.SeverityMedium)}}

	o := New(&fixedSource{providers: []diagnostic.Provider{bad, good}}, zap.NewNop())
	report := o.Analyze(context.Background(), buildFixture())

	require.Len(t, report.Results, 1)
	assert.Equal(t, "rg", report.Results[0].ID)
	assert.Equal(t, 2, report.ProvidersRun)
	assert.True(t, report.Degraded())
	assert.Equal(t, []string{"bad"}, report.Failed)
}

func TestAnalyze_ContainsPanics(t *testing.T) {
	angry := &fakeProvider{id: "angry", priority: 300, panics: true}
	calm := &fakeProvider{id: "calm", results: []diagnostic.Result{result("rc", "calm", diagnostic.SeverityLow)}}

	o := New(&fixedSource{providers: []diagnostic.Provider{angry, calm}}, zap.NewNop())
	report := o.Analyze(context.Background(), buildFixture())

	require.Len(t, report.Results, 1)
	assert.Equal(t, []string{"angry"}, report.Failed)
}

func TestAnalyze_BoundsHungProvider(t *testing.T) {
	hung := &fakeProvider{id: "hung", priority: 300, block: 2 * time.Second}
	quick := &fakeProvider{id: "quick", results: []diagnostic.Result{result("rq", "quick", diagnostic.SeverityLow)}}

	o := New(&fixedSource{providers: []diagnostic.Provider{hung, quick}}, zap.NewNop(),
		WithProviderTimeout(20*time.Millisecond))

	start := time.Now()
	report := o.Analyze(context.Background(), buildFixture())

	assert.Less(t, time.Since(start), time.Second)
	require.Len(t, report.Results, 1)
	assert.Equal(t, []string{"hung"}, report.Failed)
}

func TestAnalyze_NormalizesResults(t *testing.T) {
	p := &fakeProvider{id: "p", results: []diagnostic.Result{
		{ID: "over", Severity: diagnostic.SeverityHigh, ProviderID: "p", Confidence: 900},
	}}

	o := New(&fixedSource{providers: []diagnostic.Provider{p}}, zap.NewNop())
	report := o.Analyze(context.Background(), buildFixture())

	require.Len(t, report.Results, 1)
	assert.Equal(t, 100, report.Results[0].Confidence)
}

func TestAnalyze_StampsProvenance(t *testing.T) {
	p := &fakeProvider{id: "stamper", results: []diagnostic.Result{
		{Severity: diagnostic.SeverityMedium, Summary: "anonymous finding", Confidence: 60},
	}}

	o := New(&fixedSource{providers: []diagnostic.Provider{p}}, zap.NewNop())
	report := o.Analyze(context.Background(), buildFixture())

	require.Len(t, report.Results, 1)
	assert.NotEmpty(t, report.Results[0].ID)
	assert.Equal(t, "stamper", report.Results[0].ProviderID)
}

func TestAnalyze_EmptyRegistry(t *testing.T) {
	o := New(&fixedSource{}, zap.NewNop())
	report := o.Analyze(context.Background(), buildFixture())

	assert.Empty(t, report.Results)
	assert.Equal(t, 0, report.ProvidersRun)
	assert.False(t, report.Degraded())
}

func TestAnalyze_RecordsMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewMetrics(reg)

	bad := &fakeProvider{id: "bad", err: errors.New("boom")}
	good := &fakeProvider{id: "good", results: []diagnostic.Result{result("r", "good", diagnostic.SeverityCritical)}}

	o := New(&fixedSource{providers: []diagnostic.Provider{good, bad}}, zap.NewNop(), WithMetrics(m))
	o.Analyze(context.Background(), buildFixture())

	families, err := reg.Gather()
	require.NoError(t, err)

	names := make(map[string]bool, len(families))
	for _, f := range families {
		names[f.GetName()] = true
	}
	assert.True(t, names["doctord_passes_total"])
	assert.True(t, names["doctord_provider_failures_total"])
	assert.True(t, names["doctord_findings_total"])
}
