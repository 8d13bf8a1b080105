package moves

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"

	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
)

// NATSQueue publishes move jobs to a JetStream subject consumed by the
// external move executor.
type NATSQueue struct {
	conn    *nats.Conn
	js      jetstream.JetStream
	subject string
}

// NewNATSQueue connects to NATS and prepares the JetStream context.
func NewNATSQueue(url, subject string) (*NATSQueue, error) {
	conn, err := nats.Connect(url)
	if err != nil {
		return nil, fmt.Errorf("connect to NATS: %w", err)
	}
	js, err := jetstream.New(conn)
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("create JetStream context: %w", err)
	}

	slog.Info("move queue initialized", "url", url, "subject", subject)
	return &NATSQueue{conn: conn, js: js, subject: subject}, nil
}

// Enqueue implements Queue.
func (q *NATSQueue) Enqueue(ctx context.Context, job Job) error {
	data, err := json.Marshal(job)
	if err != nil {
		return fmt.Errorf("marshal move job: %w", err)
	}
	if _, err := q.js.Publish(ctx, q.subject, data); err != nil {
		return fmt.Errorf("publish move job: %w", err)
	}
	slog.Info("move job submitted",
		"job.id", job.ID, "locale", job.Locale, "slug", job.Slug, "new_slug", job.NewSlug)
	return nil
}

// Close drains the NATS connection.
func (q *NATSQueue) Close() {
	q.conn.Close()
}

// MemoryQueue collects jobs in memory. It backs tests and deployments
// without a NATS cluster, where moves are drained by an in-process worker.
type MemoryQueue struct {
	mu   sync.Mutex
	jobs []Job
}

// Enqueue implements Queue.
func (q *MemoryQueue) Enqueue(_ context.Context, job Job) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.jobs = append(q.jobs, job)
	return nil
}

// Jobs returns a copy of everything enqueued so far.
func (q *MemoryQueue) Jobs() []Job {
	q.mu.Lock()
	defer q.mu.Unlock()
	return append([]Job(nil), q.jobs...)
}
