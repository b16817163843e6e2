package conversation

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

// MemoryQueue carries conversation jobs over a buffered channel. It backs
// single-process deployments and tests where SQS would be overkill; receipt
// handles exist only to satisfy the queueClient contract.
type MemoryQueue struct {
	jobs chan queueMessage
}

// NewMemoryQueue creates a MemoryQueue holding at most buffer pending jobs.
func NewMemoryQueue(buffer int) *MemoryQueue {
	if buffer <= 0 {
		buffer = 128
	}
	return &MemoryQueue{jobs: make(chan queueMessage, buffer)}
}

var _ queueClient = (*MemoryQueue)(nil)

// Send enqueues a payload, blocking until there is room or ctx is done.
func (q *MemoryQueue) Send(ctx context.Context, body string) error {
	if ctx == nil {
		ctx = context.Background()
	}
	msg := queueMessage{
		ID:            uuid.NewString(),
		Body:          body,
		ReceiptHandle: uuid.NewString(),
	}
	select {
	case q.jobs <- msg:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Receive waits up to waitSeconds for at least one job, then drains up to
// maxMessages without blocking further. A wait that elapses empty returns
// (nil, nil), mirroring an empty SQS long poll.
func (q *MemoryQueue) Receive(ctx context.Context, maxMessages int, waitSeconds int) ([]queueMessage, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	if maxMessages <= 0 {
		maxMessages = 1
	}

	waitCtx := ctx
	if waitSeconds > 0 {
		var cancel context.CancelFunc
		waitCtx, cancel = context.WithTimeout(ctx, time.Duration(waitSeconds)*time.Second)
		defer cancel()
	}

	select {
	case first := <-q.jobs:
		return append([]queueMessage{first}, q.drain(maxMessages-1)...), nil
	case <-waitCtx.Done():
		// Distinguish the wait elapsing from the caller going away.
		if errors.Is(ctx.Err(), context.Canceled) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return nil, ctx.Err()
		}
		return nil, nil
	}
}

// Delete is a no-op; channel delivery already consumed the job.
func (q *MemoryQueue) Delete(_ context.Context, _ string) error {
	return nil
}

func (q *MemoryQueue) drain(max int) []queueMessage {
	if max <= 0 {
		return nil
	}
	batch := make([]queueMessage, 0, max)
	for len(batch) < max {
		select {
		case msg := <-q.jobs:
			batch = append(batch, msg)
		default:
			return batch
		}
	}
	return batch
}
