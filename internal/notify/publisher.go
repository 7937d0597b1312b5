// Package notify publishes terminal build outcomes over NATS for CI
// dashboards and downstream automation. Publishing is optional: with no URL
// configured the publisher is a no-op and no connection is made.
package notify

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/bookforge/bookforge/internal/config"
	"github.com/bookforge/bookforge/internal/pandoc"
)

// BuildEvent is the wire form of a terminal build outcome.
type BuildEvent struct {
	BuildID    string    `json:"build_id"`
	Format     string    `json:"format"`
	State      string    `json:"state"`
	Output     string    `json:"output,omitempty"`
	ExitCode   int       `json:"exit_code"`
	DurationMS int64     `json:"duration_ms"`
	Commit     string    `json:"commit,omitempty"`
	Timestamp  time.Time `json:"timestamp"`
}

// Publisher forwards build results to a NATS subject. The zero-value
// (disabled) Publisher is safe to use everywhere a publisher is accepted.
type Publisher struct {
	conn    *nats.Conn
	subject string
	commit  string
}

// NewPublisher connects to NATS when a URL is configured. A nil Publisher is
// returned (no error) when notification is disabled.
func NewPublisher(cfg config.NotifyConfig, commit string) (*Publisher, error) {
	if cfg.URL == "" {
		return nil, nil
	}

	conn, err := nats.Connect(cfg.URL,
		nats.Name("bookforge"),
		nats.MaxReconnects(3),
		nats.Timeout(5*time.Second))
	if err != nil {
		return nil, err
	}

	slog.Info("Build notifications enabled", "url", cfg.URL, "subject", cfg.Subject)
	return &Publisher{conn: conn, subject: cfg.Subject, commit: commit}, nil
}

// Publish implements pandoc.Publisher. Failures are logged, never fatal: a
// lost notification must not fail the build it describes.
func (p *Publisher) Publish(_ context.Context, res *pandoc.Result) {
	if p == nil || p.conn == nil {
		return
	}

	event := BuildEvent{
		BuildID:    res.BuildID,
		Format:     res.Format,
		State:      string(res.State),
		Output:     res.Output,
		ExitCode:   res.ExitCode,
		DurationMS: res.Duration.Milliseconds(),
		Commit:     p.commit,
		Timestamp:  time.Now(),
	}
	data, err := json.Marshal(event)
	if err != nil {
		slog.Warn("Failed to encode build event", "error", err)
		return
	}
	if err := p.conn.Publish(p.subject, data); err != nil {
		slog.Warn("Failed to publish build event", "subject", p.subject, "error", err)
	}
}

// Close flushes and closes the connection. Safe on a nil or disabled publisher.
func (p *Publisher) Close() {
	if p == nil || p.conn == nil {
		return
	}
	_ = p.conn.Flush()
	p.conn.Close()
}
