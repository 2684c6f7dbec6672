// Package providers ships the optional analyzers bundled with the
// daemon. They implement the same contract as any external provider
// and carry no special treatment from the core.
package providers

import (
	"context"
	"strings"

	"github.com/fyrsmithlabs/doctord/internal/diagnostic"
)

// marker pairs a log substring with the finding it indicates.
type marker struct {
	needle     string
	category   string
	severity   diagnostic.Severity
	summary    string
	confidence int
	solution   diagnostic.Solution
}

var markers = []marker{
	{
		needle:     "OutOfMemoryError",
		category:   "memory",
		severity:   diagnostic.SeverityCritical,
		summary:    "Build ran out of JVM heap",
		confidence: 90,
		solution: diagnostic.Solution{
			ID:          "increase-heap",
			Title:       "Increase JVM heap size",
			Description: "Raise -Xmx for the build JVM or reduce build parallelism.",
			Steps: []diagnostic.ActionStep{
				{Description: "Raise the maximum heap", Command: "export MAVEN_OPTS=\"-Xmx2g\""},
				{Description: "Re-run the failing stage", Optional: true},
			},
			Priority: 1,
		},
	},
	{
		needle:     "No space left on device",
		category:   "infrastructure",
		severity:   diagnostic.SeverityCritical,
		summary:    "Build agent disk is full",
		confidence: 95,
		solution: diagnostic.Solution{
			ID:          "free-disk",
			Title:       "Free disk space on the agent",
			Description: "Clean workspace and tool caches on the build agent.",
			Steps: []diagnostic.ActionStep{
				{Description: "Remove stale workspaces", Command: "rm -rf \"$WORKSPACE\"/../*/"},
			},
			Priority: 1,
		},
	},
	{
		needle:     "Connection timed out",
		category:   "network",
		severity:   diagnostic.SeverityHigh,
		summary:    "Network timeout during the build",
		confidence: 70,
		solution: diagnostic.Solution{
			ID:          "retry-network",
			Title:       "Retry and check proxy settings",
			Description: "Transient network failure; retry the build and verify proxy configuration.",
			Priority:    2,
		},
	},
	{
		needle:     "Could not resolve dependencies",
		category:   "dependencies",
		severity:   diagnostic.SeverityHigh,
		summary:    "Dependency resolution failed",
		confidence: 85,
		solution: diagnostic.Solution{
			ID:          "check-repos",
			Title:       "Check artifact repository availability",
			Description: "Verify the artifact repository is reachable and the dependency coordinates exist.",
			Priority:    1,
		},
	},
	{
		needle:     "Tests run:",
		category:   "test",
		severity:   diagnostic.SeverityMedium,
		summary:    "Test failures in the build log",
		confidence: 50,
		solution: diagnostic.Solution{
			ID:          "inspect-tests",
			Title:       "Inspect failing tests",
			Description: "Check the surefire/test reports for the failing cases.",
			Priority:    3,
		},
	},
}

// Heuristics scans the build log for well-known failure markers. It is
// deliberately simple; richer analyzers live outside this repository.
type Heuristics struct {
	diagnostic.ProviderDefaults
}

// NewHeuristics returns the bundled log-marker provider.
func NewHeuristics() *Heuristics { return &Heuristics{} }

func (h *Heuristics) ID() string   { return "log-heuristics" }
func (h *Heuristics) Name() string { return "Log heuristics" }

func (h *Heuristics) Categories() []string {
	return []string{"memory", "infrastructure", "network", "dependencies", "test"}
}

// Analyze reports one result per marker found in the log. The test
// marker only fires when the needle appears with failures, to avoid
// flagging green test runs.
func (h *Heuristics) Analyze(ctx context.Context, build diagnostic.BuildContext) ([]diagnostic.Result, error) {
	log := build.BuildLog()
	var results []diagnostic.Result
	for _, m := range markers {
		if err := ctx.Err(); err != nil {
			return results, err
		}
		if !strings.Contains(log, m.needle) {
			continue
		}
		if m.category == "test" && !strings.Contains(log, "Failures:") {
			continue
		}
		results = append(results, diagnostic.Result{
			Category:    m.category,
			Severity:    m.severity,
			Summary:     m.summary,
			Description: "Matched \"" + m.needle + "\" in the build log.",
			Solutions:   []diagnostic.Solution{m.solution},
			Confidence:  m.confidence,
		})
	}
	return results, nil
}
