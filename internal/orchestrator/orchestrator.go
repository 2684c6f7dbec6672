// Package orchestrator runs one analysis pass over a finished build:
// it resolves the enabled providers in priority order, invokes each one
// with fault isolation and timing, and merges their findings into a
// single ordered sequence.
//
// Provider failures are non-fatal and fully contained. An erroring,
// panicking, or timed-out provider is logged with its ID and skipped;
// it contributes zero results and never aborts the pass.
package orchestrator

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/fyrsmithlabs/doctord/internal/diagnostic"
)

var tracer = otel.Tracer("doctord/orchestrator")

// ProviderSource is the view of the provider registry the orchestrator
// needs: the enabled providers for a build, already priority-sorted.
type ProviderSource interface {
	EnabledProviders(build diagnostic.BuildContext) []diagnostic.Provider
}

// Report is the outcome of one pass.
type Report struct {
	// PassID uniquely identifies this pass.
	PassID string

	// Results are the merged findings in provider execution order.
	Results []diagnostic.Result

	// ProvidersRun counts the providers that were invoked, including
	// ones that failed.
	ProvidersRun int

	// Failed lists the IDs of providers that errored, panicked, or
	// timed out. A non-empty list marks the pass as degraded.
	Failed []string

	// Duration is the wall-clock time of the whole pass.
	Duration time.Duration
}

// Degraded reports whether any provider failed during the pass.
func (r *Report) Degraded() bool { return len(r.Failed) > 0 }

// Orchestrator executes analysis passes. It holds no per-pass state,
// so passes for different builds may run concurrently.
type Orchestrator struct {
	providers ProviderSource
	logger    *zap.Logger
	metrics   *Metrics
	timeout   time.Duration
	tracer    trace.Tracer
}

// Option configures an Orchestrator.
type Option func(*Orchestrator)

// WithProviderTimeout bounds each provider invocation. A hung provider
// is abandoned after d and the pass continues; zero disables the bound.
func WithProviderTimeout(d time.Duration) Option {
	return func(o *Orchestrator) { o.timeout = d }
}

// WithMetrics attaches prometheus collectors for pass instrumentation.
func WithMetrics(m *Metrics) Option {
	return func(o *Orchestrator) { o.metrics = m }
}

// New creates an orchestrator over the given provider source.
func New(providers ProviderSource, logger *zap.Logger, opts ...Option) *Orchestrator {
	if logger == nil {
		logger = zap.NewNop()
	}
	o := &Orchestrator{
		providers: providers,
		logger:    logger,
		tracer:    tracer,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Analyze runs one pass over the build and returns the merged report.
// The returned result sequence may be empty; that alone does not mean
// no analysis occurred (see Report.ProvidersRun).
func (o *Orchestrator) Analyze(ctx context.Context, build diagnostic.BuildContext) *Report {
	meta := build.Metadata()
	passID := uuid.New().String()

	ctx, span := o.tracer.Start(ctx, "Orchestrator.Analyze",
		trace.WithAttributes(
			attribute.String("pass.id", passID),
			attribute.String("build.job", meta.JobName),
			attribute.Int("build.number", meta.BuildNumber),
		))
	defer span.End()

	start := time.Now()
	enabled := o.providers.EnabledProviders(build)

	o.logger.Info("starting analysis pass",
		zap.String("pass_id", passID),
		zap.String("job", meta.JobName),
		zap.Int("build", meta.BuildNumber),
		zap.Int("providers", len(enabled)))

	var merged []diagnostic.Result
	var failed []string

	for _, p := range enabled {
		results, err := o.runProvider(ctx, p, build)
		if err != nil {
			o.logger.Error("provider failed, continuing pass",
				zap.String("pass_id", passID),
				zap.String("provider_id", p.ID()),
				zap.Error(err))
			failed = append(failed, p.ID())
			if o.metrics != nil {
				o.metrics.ProviderFailuresTotal.WithLabelValues(p.ID()).Inc()
			}
			continue
		}
		for _, r := range results {
			if r.ID == "" {
				r.ID = uuid.New().String()
			}
			if r.ProviderID == "" {
				r.ProviderID = p.ID()
			}
			r = diagnostic.NewResult(r)
			merged = append(merged, r)
			if o.metrics != nil {
				o.metrics.FindingsTotal.WithLabelValues(string(r.Severity)).Inc()
			}
		}
	}

	report := &Report{
		PassID:       passID,
		Results:      merged,
		ProvidersRun: len(enabled),
		Failed:       failed,
		Duration:     time.Since(start),
	}

	if o.metrics != nil {
		o.metrics.PassesTotal.Inc()
		o.metrics.PassDurationSec.Observe(report.Duration.Seconds())
	}

	span.SetAttributes(
		attribute.Int("pass.results", len(merged)),
		attribute.Int("pass.failed_providers", len(failed)),
	)

	o.logger.Info("analysis pass complete",
		zap.String("pass_id", passID),
		zap.Int("results", len(merged)),
		zap.Int("providers_run", report.ProvidersRun),
		zap.Strings("failed_providers", failed),
		zap.Duration("duration", report.Duration))

	return report
}

// runProvider invokes one provider with panic containment, timing, and
// an optional bounded wait. The provider goroutine receives a context
// that is cancelled on timeout; a provider that ignores cancellation is
// abandoned rather than allowed to hang the pass.
func (o *Orchestrator) runProvider(ctx context.Context, p diagnostic.Provider, build diagnostic.BuildContext) ([]diagnostic.Result, error) {
	ctx, span := o.tracer.Start(ctx, "provider.analyze",
		trace.WithAttributes(attribute.String("provider.id", p.ID())))
	defer span.End()

	runCtx := ctx
	if o.timeout > 0 {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithTimeout(ctx, o.timeout)
		defer cancel()
	}

	type outcome struct {
		results []diagnostic.Result
		err     error
	}

	start := time.Now()
	done := make(chan outcome, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				done <- outcome{err: fmt.Errorf("provider panic: %v", r)}
			}
		}()
		results, err := p.Analyze(runCtx, build)
		done <- outcome{results: results, err: err}
	}()

	select {
	case out := <-done:
		duration := time.Since(start)
		if o.metrics != nil {
			o.metrics.ProviderDurationSec.WithLabelValues(p.ID()).Observe(duration.Seconds())
		}
		if out.err != nil {
			span.RecordError(out.err)
			return nil, out.err
		}
		o.logger.Debug("provider finished",
			zap.String("provider_id", p.ID()),
			zap.Int("results", len(out.results)),
			zap.Duration("duration", duration))
		return out.results, nil

	case <-runCtx.Done():
		err := fmt.Errorf("provider %q did not finish: %w", p.ID(), runCtx.Err())
		span.RecordError(err)
		return nil, err
	}
}
