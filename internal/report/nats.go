package report

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"
)

// Publisher is the subset of *nats.Conn the reporter needs.
type Publisher interface {
	Publish(subject string, data []byte) error
}

// NATSReporter publishes events as JSON to <subject>.blocked or <subject>.clean.
type NATSReporter struct {
	pub     Publisher
	subject string
}

func NewNATSReporter(pub Publisher, subject string) *NATSReporter {
	return &NATSReporter{pub: pub, subject: subject}
}

// Subject returns the subject an event is published on.
func (r *NATSReporter) Subject(ev Event) string {
	if ev.Blocked {
		return r.subject + ".blocked"
	}
	return r.subject + ".clean"
}

func (r *NATSReporter) Report(_ context.Context, ev Event) error {
	data, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}
	subject := r.Subject(ev)
	if err := r.pub.Publish(subject, data); err != nil {
		return fmt.Errorf("publish to %s: %w", subject, err)
	}
	return nil
}

// DialNATS connects with reconnects enabled for the life of the process.
func DialNATS(url string) (*nats.Conn, error) {
	conn, err := nats.Connect(url,
		nats.Name("urlguard"),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2*time.Second),
	)
	if err != nil {
		return nil, fmt.Errorf("connect to NATS: %w", err)
	}
	return conn, nil
}
