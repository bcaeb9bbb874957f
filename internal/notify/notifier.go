// Package notify publishes link and network status transitions to NATS
// for downstream consumers (alerting, dashboards).
package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"

	"git.home.luguber.info/inful/linkmon/internal/logfields"
	"git.home.luguber.info/inful/linkmon/internal/metrics"
	"git.home.luguber.info/inful/linkmon/internal/netstate"
)

const defaultSubjectPrefix = "linkmon"

// Options configures the notifier connection.
type Options struct {
	URL           string
	SubjectPrefix string
}

// StatusEvent is the wire payload for one status transition. Alias is
// empty for network-level transitions.
type StatusEvent struct {
	Network   string    `json:"network"`
	Alias     string    `json:"alias,omitempty"`
	From      string    `json:"from"`
	To        string    `json:"to"`
	Timestamp time.Time `json:"timestamp"`
}

// Notifier publishes status events. A disabled notifier has no
// connection and drops events silently.
type Notifier struct {
	conn     *nats.Conn
	js       jetstream.JetStream
	prefix   string
	recorder metrics.Recorder
}

// NewNotifier connects to NATS and prepares the JetStream context.
func NewNotifier(opts Options) (*Notifier, error) {
	if opts.SubjectPrefix == "" {
		opts.SubjectPrefix = defaultSubjectPrefix
	}

	conn, err := nats.Connect(opts.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}

	js, err := jetstream.New(conn)
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to create JetStream context: %w", err)
	}

	slog.Info("NATS notifier initialized",
		logfields.URL(opts.URL),
		logfields.Subject(opts.SubjectPrefix+".>"))

	return &Notifier{
		conn:     conn,
		js:       js,
		prefix:   opts.SubjectPrefix,
		recorder: metrics.NoopRecorder{},
	}, nil
}

// Disabled returns a notifier that drops every event.
func Disabled() *Notifier {
	return &Notifier{prefix: defaultSubjectPrefix, recorder: metrics.NoopRecorder{}}
}

// WithRecorder injects a metrics recorder and returns the notifier.
func (n *Notifier) WithRecorder(rec metrics.Recorder) *Notifier {
	if rec != nil {
		n.recorder = rec
	}
	return n
}

// Enabled reports whether events actually leave the process.
func (n *Notifier) Enabled() bool { return n != nil && n.js != nil }

// PublishTransition sends one status transition. Disabled notifiers
// return nil without publishing.
func (n *Notifier) PublishTransition(ctx context.Context, tr netstate.Transition) error {
	if !n.Enabled() {
		return nil
	}

	subject, event := eventFor(n.prefix, tr)
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if _, err := n.js.Publish(ctx, subject, data); err != nil {
		n.recorder.IncNotifyPublished(subject, false)
		return fmt.Errorf("failed to publish event: %w", err)
	}
	n.recorder.IncNotifyPublished(subject, true)

	slog.Debug("Published status transition",
		logfields.Subject(subject),
		logfields.Network(tr.Network),
		logfields.Alias(tr.Alias))
	return nil
}

// eventFor shapes the subject and payload for one transition.
func eventFor(prefix string, tr netstate.Transition) (string, StatusEvent) {
	subject := prefix + ".network.status"
	if tr.Alias != "" {
		subject = prefix + ".link.status"
	}
	return subject, StatusEvent{
		Network:   tr.Network,
		Alias:     tr.Alias,
		From:      string(tr.From),
		To:        string(tr.To),
		Timestamp: tr.At,
	}
}

// Close closes the NATS connection.
func (n *Notifier) Close() error {
	if n != nil && n.conn != nil {
		n.conn.Close()
	}
	return nil
}
