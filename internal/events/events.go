// Package events receives build-completion notices over NATS and
// feeds them into the lifecycle trigger.
package events

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/nats-io/nats.go"
	"go.uber.org/zap"

	"github.com/fyrsmithlabs/doctord/internal/diagnostic"
	"github.com/fyrsmithlabs/doctord/internal/lifecycle"
)

// BuildCompletedEvent is the wire format CI agents publish when a
// build finishes. Log and environment ride along so analysis needs no
// callback to the CI system.
type BuildCompletedEvent struct {
	JobName     string            `json:"job_name"`
	BuildNumber int               `json:"build_number"`
	BuildURL    string            `json:"build_url,omitempty"`
	NodeName    string            `json:"node_name,omitempty"`
	StartTime   int64             `json:"start_time,omitempty"`
	SCMRevision string            `json:"scm_revision,omitempty"`
	Branch      string            `json:"branch,omitempty"`
	Result      string            `json:"result"`
	DurationMS  int64             `json:"duration_ms,omitempty"`
	Pipeline    bool              `json:"pipeline,omitempty"`
	Log         string            `json:"log,omitempty"`
	Environment map[string]string `json:"environment,omitempty"`
}

// Validate checks the fields analysis cannot proceed without.
func (e *BuildCompletedEvent) Validate() error {
	if strings.TrimSpace(e.JobName) == "" {
		return errors.New("job_name is required")
	}
	if e.BuildNumber <= 0 {
		return fmt.Errorf("build_number must be positive, got %d", e.BuildNumber)
	}
	return nil
}

// Snapshot converts the event into the build context providers see.
func (e *BuildCompletedEvent) Snapshot() *diagnostic.Snapshot {
	return &diagnostic.Snapshot{
		Log: e.Log,
		Env: e.Environment,
		Meta: diagnostic.BuildMetadata{
			JobName:     e.JobName,
			BuildNumber: e.BuildNumber,
			BuildURL:    e.BuildURL,
			NodeName:    e.NodeName,
			StartTime:   e.StartTime,
			SCMRevision: e.SCMRevision,
			Branch:      e.Branch,
		},
		Pipeline: e.Pipeline,
		Result:   e.Result,
		Duration: time.Duration(e.DurationMS) * time.Millisecond,
	}
}

// Summary is the reply payload sent back when the event carries a
// reply subject.
type Summary struct {
	State      string         `json:"state"`
	Results    int            `json:"results"`
	Severities map[string]int `json:"severities,omitempty"`
	Error      string         `json:"error,omitempty"`
}

// Subscriber binds a NATS queue subscription to the trigger. Running
// multiple daemons with the same queue name load-balances events
// between them.
type Subscriber struct {
	conn    *nats.Conn
	trigger *lifecycle.Trigger
	logger  *zap.Logger
	subject string
	queue   string
	sub     *nats.Subscription
}

// NewSubscriber creates an unstarted subscriber.
func NewSubscriber(conn *nats.Conn, trigger *lifecycle.Trigger, subject, queue string, logger *zap.Logger) (*Subscriber, error) {
	if conn == nil {
		return nil, errors.New("nats connection is required")
	}
	if trigger == nil {
		return nil, errors.New("trigger is required")
	}
	if subject == "" {
		return nil, errors.New("subject is required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Subscriber{
		conn:    conn,
		trigger: trigger,
		logger:  logger,
		subject: subject,
		queue:   queue,
	}, nil
}

// Start subscribes and begins handling events. Handlers run on the
// NATS delivery goroutine; the ctx bounds each analysis pass.
func (s *Subscriber) Start(ctx context.Context) error {
	sub, err := s.conn.QueueSubscribe(s.subject, s.queue, func(msg *nats.Msg) {
		s.handle(ctx, msg)
	})
	if err != nil {
		return fmt.Errorf("failed to subscribe to %s: %w", s.subject, err)
	}
	s.sub = sub
	s.logger.Info("listening for build events",
		zap.String("subject", s.subject),
		zap.String("queue", s.queue))
	return nil
}

// Stop drains the subscription so in-flight events finish.
func (s *Subscriber) Stop() error {
	if s.sub == nil {
		return nil
	}
	return s.sub.Drain()
}

func (s *Subscriber) handle(ctx context.Context, msg *nats.Msg) {
	summary := s.process(ctx, msg.Data)
	if msg.Reply == "" {
		return
	}
	payload, err := json.Marshal(summary)
	if err != nil {
		s.logger.Error("failed to marshal reply", zap.Error(err))
		return
	}
	if err := msg.Respond(payload); err != nil {
		s.logger.Warn("failed to send reply", zap.Error(err))
	}
}

// process decodes, validates, and dispatches one event. Malformed
// events are logged and dropped; the publisher gets the error back
// only when it asked for a reply.
func (s *Subscriber) process(ctx context.Context, data []byte) Summary {
	var event BuildCompletedEvent
	if err := json.Unmarshal(data, &event); err != nil {
		s.logger.Warn("discarding malformed build event", zap.Error(err))
		return Summary{State: string(lifecycle.StateSkipped), Error: "malformed event: " + err.Error()}
	}
	if err := event.Validate(); err != nil {
		s.logger.Warn("discarding invalid build event",
			zap.String("job", event.JobName),
			zap.Error(err))
		return Summary{State: string(lifecycle.StateSkipped), Error: err.Error()}
	}

	source := lifecycle.ContextSourceFunc(func(context.Context) (diagnostic.BuildContext, error) {
		return event.Snapshot(), nil
	})

	state, err := s.trigger.BuildCompleted(ctx, event.JobName, event.BuildNumber, event.Result, source, nil)
	summary := Summary{State: string(state)}
	if err != nil {
		summary.Error = err.Error()
		return summary
	}

	if state == lifecycle.StateAttached {
		summary.Severities = s.severityCounts(ctx, event)
		for _, n := range summary.Severities {
			summary.Results += n
		}
	}
	return summary
}

func (s *Subscriber) severityCounts(ctx context.Context, event BuildCompletedEvent) map[string]int {
	set, err := s.trigger.ResultSet(ctx, event.JobName, event.BuildNumber)
	if err != nil {
		s.logger.Warn("failed to load attached results for reply",
			zap.String("job", event.JobName),
			zap.Error(err))
		return nil
	}
	counts := make(map[string]int)
	for _, sev := range diagnostic.Severities() {
		if n := set.CountBySeverity(sev); n > 0 {
			counts[string(sev)] = n
		}
	}
	return counts
}
