// Package lifecycle decides when an analysis pass runs and what gets
// attached to the build record afterward.
//
// Each build moves through a one-shot state machine:
//
//	NotAnalyzed -> Analyzing -> Attached | NoFindings (terminal)
//	NotAnalyzed -> Skipped                            (terminal)
//
// Once terminal, the trigger never re-runs for that build.
package lifecycle

import (
	"context"
	"errors"
	"fmt"
	"io"
	"regexp"
	"sort"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/fyrsmithlabs/doctord/internal/config"
	"github.com/fyrsmithlabs/doctord/internal/diagnostic"
	"github.com/fyrsmithlabs/doctord/internal/orchestrator"
	"github.com/fyrsmithlabs/doctord/internal/store"
)

// State is the per-build lifecycle state.
type State string

const (
	StateNotAnalyzed State = "not_analyzed"
	StateAnalyzing   State = "analyzing"
	StateAttached    State = "attached"
	StateNoFindings  State = "no_findings"
	StateSkipped     State = "skipped"
)

// Terminal reports whether the state is final for the build.
func (s State) Terminal() bool {
	return s == StateAttached || s == StateNoFindings || s == StateSkipped
}

// Analyzer runs one pass over a build. Implemented by the orchestrator.
type Analyzer interface {
	Analyze(ctx context.Context, build diagnostic.BuildContext) *orchestrator.Report
}

// ContextSource lazily constructs the build context. Successful builds
// are skipped before the context is ever built.
type ContextSource interface {
	BuildContext(ctx context.Context) (diagnostic.BuildContext, error)
}

// ContextSourceFunc adapts a function to ContextSource.
type ContextSourceFunc func(ctx context.Context) (diagnostic.BuildContext, error)

// BuildContext implements ContextSource.
func (f ContextSourceFunc) BuildContext(ctx context.Context) (diagnostic.BuildContext, error) {
	return f(ctx)
}

// outcomeRank orders build outcomes from best to worst, mirroring the
// usual CI result ordering.
func outcomeRank(outcome string) int {
	switch strings.ToUpper(strings.TrimSpace(outcome)) {
	case "SUCCESS":
		return 0
	case "UNSTABLE":
		return 1
	case "FAILURE":
		return 2
	case "NOT_BUILT":
		return 3
	case "ABORTED":
		return 4
	default:
		// Unknown outcomes are not strictly successful, so analyze.
		return 5
	}
}

// thresholdRank maps the configured threshold to the worst outcome
// that still triggers analysis.
func thresholdRank(threshold string) int {
	switch threshold {
	case "failure":
		return 2
	case "aborted":
		return 4
	default: // "unstable"
		return 1
	}
}

// Trigger owns the per-build lifecycle.
type Trigger struct {
	analyzer   Analyzer
	results    store.Store
	logger     *zap.Logger
	cfg        config.AnalysisConfig
	exclusions []*regexp.Regexp

	mu     sync.Mutex
	states map[string]State
}

// NewTrigger creates a trigger. The exclusion patterns are compiled
// here; invalid patterns fail construction.
func NewTrigger(analyzer Analyzer, results store.Store, cfg config.AnalysisConfig, logger *zap.Logger) (*Trigger, error) {
	if analyzer == nil {
		return nil, errors.New("analyzer is required")
	}
	if results == nil {
		return nil, errors.New("result store is required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	exclusions, err := cfg.CompiledExclusions()
	if err != nil {
		return nil, err
	}

	return &Trigger{
		analyzer:   analyzer,
		results:    results,
		logger:     logger,
		cfg:        cfg,
		exclusions: exclusions,
		states:     make(map[string]State),
	}, nil
}

// State returns the lifecycle state for a build key.
func (t *Trigger) State(key string) State {
	t.mu.Lock()
	defer t.mu.Unlock()
	if s, ok := t.states[key]; ok {
		return s
	}
	return StateNotAnalyzed
}

// BuildCompleted handles one build-completion notice. It decides
// whether to analyze, runs the pass, attaches the result set, and
// writes a severity summary to console (the build's log stream).
// The transition is one-shot: a build already in a terminal state is
// left untouched.
func (t *Trigger) BuildCompleted(ctx context.Context, jobName string, buildNumber int, outcome string, src ContextSource, console io.Writer) (State, error) {
	key := store.BuildKey(jobName, buildNumber)
	if console == nil {
		console = io.Discard
	}

	t.mu.Lock()
	if s, ok := t.states[key]; ok && s != StateNotAnalyzed {
		t.mu.Unlock()
		t.logger.Debug("build already handled", zap.String("build", key), zap.String("state", string(s)))
		return s, nil
	}

	if skip, reason := t.shouldSkip(jobName, outcome); skip {
		t.states[key] = StateSkipped
		t.mu.Unlock()
		t.logger.Debug("skipping analysis",
			zap.String("build", key),
			zap.String("outcome", outcome),
			zap.String("reason", reason))
		return StateSkipped, nil
	}

	t.states[key] = StateAnalyzing
	t.mu.Unlock()

	t.logger.Info("starting diagnostic analysis",
		zap.String("build", key),
		zap.String("outcome", outcome))

	build, err := src.BuildContext(ctx)
	if err != nil {
		// Silent-degradation policy: the build stays unannotated and
		// only an internal log entry records the failure.
		t.setState(key, StateSkipped)
		t.logger.Error("failed to construct build context",
			zap.String("build", key),
			zap.Error(err))
		return StateSkipped, fmt.Errorf("build context for %s: %w", key, err)
	}

	report := t.analyzer.Analyze(ctx, build)

	results := truncate(report.Results, t.cfg.MaxResultsPerBuild)
	if len(results) == 0 {
		t.setState(key, StateNoFindings)
		t.logger.Info("no diagnostic issues found", zap.String("build", key))
		return StateNoFindings, nil
	}

	set := diagnostic.NewResultSet(report.PassID, results, report.ProvidersRun)
	if err := t.results.Attach(ctx, key, set); err != nil {
		if errors.Is(err, store.ErrAlreadyAttached) {
			// A previous process already annotated this build.
			t.setState(key, StateAttached)
			t.logger.Warn("result set already attached", zap.String("build", key))
			return StateAttached, nil
		}
		t.setState(key, StateSkipped)
		t.logger.Error("failed to attach result set",
			zap.String("build", key),
			zap.Error(err))
		return StateSkipped, err
	}

	t.setState(key, StateAttached)
	writeSummary(console, set)
	return StateAttached, nil
}

// ResultSet returns the attached result set for a build, if any.
func (t *Trigger) ResultSet(ctx context.Context, jobName string, buildNumber int) (*diagnostic.ResultSet, error) {
	return t.results.Get(ctx, store.BuildKey(jobName, buildNumber))
}

// shouldSkip applies the pre-context gates: feature toggles, excluded
// job patterns, and the outcome threshold. Called with t.mu held.
func (t *Trigger) shouldSkip(jobName, outcome string) (bool, string) {
	if !t.cfg.EnabledByDefault {
		return true, "diagnostics disabled"
	}
	if !t.cfg.AutoAnalyze {
		return true, "auto-analyze disabled"
	}
	for _, re := range t.exclusions {
		if re.MatchString(jobName) {
			return true, "job excluded by pattern " + re.String()
		}
	}
	if outcomeRank(outcome) < thresholdRank(t.cfg.Threshold) {
		return true, "outcome below analysis threshold"
	}
	return false, ""
}

func (t *Trigger) setState(key string, s State) {
	t.mu.Lock()
	t.states[key] = s
	t.mu.Unlock()
}

// truncate keeps the top max results ranked by confidence (descending)
// then severity (most severe first). The stable sort keeps pass order
// between equal results.
func truncate(results []diagnostic.Result, max int) []diagnostic.Result {
	if max <= 0 || len(results) <= max {
		return results
	}

	ranked := make([]diagnostic.Result, len(results))
	copy(ranked, results)
	sort.SliceStable(ranked, func(i, j int) bool {
		if ranked[i].Confidence != ranked[j].Confidence {
			return ranked[i].Confidence > ranked[j].Confidence
		}
		return ranked[i].Severity.Rank() < ranked[j].Severity.Rank()
	})
	return ranked[:max]
}

// writeSummary emits the human-readable severity summary to the
// build's log stream.
func writeSummary(w io.Writer, set *diagnostic.ResultSet) {
	fmt.Fprintln(w)
	fmt.Fprintln(w, "=== doctord analysis ===")
	fmt.Fprintf(w, "found %d diagnostic result(s)\n", set.Count())
	for _, s := range diagnostic.Severities() {
		if n := set.CountBySeverity(s); n > 0 {
			fmt.Fprintf(w, "  %s: %d\n", s, n)
		}
	}
	for _, r := range set.Results() {
		fmt.Fprintf(w, "  - [%s] %s (confidence %d%%)\n", r.Severity, r.Summary, r.Confidence)
	}
	fmt.Fprintln(w, "========================")
}
