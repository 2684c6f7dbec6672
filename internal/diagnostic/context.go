package diagnostic

import (
	"errors"
	"time"
)

// ErrMissingJobName is returned when a build snapshot lacks the one
// field the core cannot work without.
var ErrMissingJobName = errors.New("build metadata: job name is required")

// BuildMetadata is an immutable snapshot of build identity, created
// once per analyzed build by the host CI integration.
type BuildMetadata struct {
	JobName     string `json:"job_name"`
	BuildNumber int    `json:"build_number"`
	BuildURL    string `json:"build_url,omitempty"`
	NodeName    string `json:"node_name,omitempty"`

	// StartTime is the build start in epoch milliseconds.
	StartTime int64 `json:"start_time"`

	SCMRevision string `json:"scm_revision,omitempty"`
	Branch      string `json:"branch,omitempty"`
}

// Validate checks the required fields.
func (m BuildMetadata) Validate() error {
	if m.JobName == "" {
		return ErrMissingJobName
	}
	return nil
}

// BuildContext is the read-only view of one finished build that
// providers analyze. The core never constructs build logs itself and
// never mutates the context.
type BuildContext interface {
	// BuildLog returns the complete raw log text.
	BuildLog() string

	// Environment returns the build's environment variables.
	Environment() map[string]string

	// Metadata returns the build identity snapshot.
	Metadata() BuildMetadata

	// PipelineBuild reports whether the build came from a pipeline
	// definition rather than a freestyle job.
	PipelineBuild() bool

	// BuildResult returns the outcome string reported by the host CI
	// (e.g. "SUCCESS", "UNSTABLE", "FAILURE").
	BuildResult() string

	// BuildDuration returns how long the build ran.
	BuildDuration() time.Duration
}

// Snapshot is a concrete BuildContext assembled by a host integration
// (the NATS event intake or the one-shot CLI).
type Snapshot struct {
	Log      string
	Env      map[string]string
	Meta     BuildMetadata
	Pipeline bool
	Result   string
	Duration time.Duration
}

var _ BuildContext = (*Snapshot)(nil)

func (s *Snapshot) BuildLog() string { return s.Log }

func (s *Snapshot) Environment() map[string]string { return s.Env }

func (s *Snapshot) Metadata() BuildMetadata { return s.Meta }

func (s *Snapshot) PipelineBuild() bool { return s.Pipeline }

func (s *Snapshot) BuildResult() string { return s.Result }

func (s *Snapshot) BuildDuration() time.Duration { return s.Duration }
