// Package notify publishes run summaries to NATS so other systems can react to finished batches.
package notify

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/nats-io/nats.go"

	ferrors "git.home.luguber.info/inful/depmerge/internal/foundation/errors"
	"git.home.luguber.info/inful/depmerge/internal/logfields"
)

// RunCompleted is published when a start or continue invocation finishes its batch.
type RunCompleted struct {
	RunID             string    `json:"run_id"`
	Repository        string    `json:"repository,omitempty"`
	IntegrationBranch string    `json:"integration_branch"`
	Succeeded         []string  `json:"succeeded"`
	Failed            []string  `json:"failed"`
	CIFailing         []string  `json:"ci_failing"`
	FinishedAt        time.Time `json:"finished_at"`
}

// Publisher delivers run events.
type Publisher interface {
	PublishRunCompleted(ctx context.Context, ev RunCompleted) error
	Close() error
}

// Noop discards every event.
type Noop struct{}

func (Noop) PublishRunCompleted(context.Context, RunCompleted) error { return nil }
func (Noop) Close() error                                            { return nil }

// conn is the subset of *nats.Conn used here.
type conn interface {
	Publish(subject string, data []byte) error
	FlushWithContext(ctx context.Context) error
	Close()
}

// NATSPublisher publishes JSON events on a core NATS subject.
type NATSPublisher struct {
	conn    conn
	subject string
	logger  *slog.Logger
}

// Connect dials url and returns a publisher for subject.
func Connect(url, subject string, logger *slog.Logger) (*NATSPublisher, error) {
	nc, err := nats.Connect(url, nats.Name("depmerge"), nats.Timeout(5*time.Second))
	if err != nil {
		return nil, ferrors.WrapError(err, ferrors.CategoryConfig, "failed to connect to NATS").
			WithContext("url", url).
			WithHint("check notify.nats_url or DEPMERGE_NATS_URL").
			Build()
	}
	return newNATSPublisher(nc, subject, logger), nil
}

func newNATSPublisher(c conn, subject string, logger *slog.Logger) *NATSPublisher {
	if logger == nil {
		logger = slog.Default()
	}
	return &NATSPublisher{conn: c, subject: subject, logger: logger}
}

// PublishRunCompleted implements Publisher. It waits for the server to acknowledge the flush.
func (p *NATSPublisher) PublishRunCompleted(ctx context.Context, ev RunCompleted) error {
	data, err := json.Marshal(ev)
	if err != nil {
		return ferrors.WrapError(err, ferrors.CategoryInternal, "failed to marshal run event").Build()
	}
	if err := p.conn.Publish(p.subject, data); err != nil {
		return ferrors.WrapError(err, ferrors.CategoryInternal, "failed to publish run event").
			WithContext("subject", p.subject).
			Build()
	}
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := p.conn.FlushWithContext(ctx); err != nil {
		return ferrors.WrapError(err, ferrors.CategoryInternal, "failed to flush run event").
			WithContext("subject", p.subject).
			Build()
	}
	p.logger.Debug("Published run event", logfields.RunID(ev.RunID), slog.String("subject", p.subject))
	return nil
}

// Close implements Publisher.
func (p *NATSPublisher) Close() error {
	p.conn.Close()
	return nil
}
