package conversation

import "context"

// queueClient abstracts the turn queue so the orchestrator can point at an
// in-memory queue during development and SQS in production.
type queueClient interface {
	Send(ctx context.Context, body string) error
	Receive(ctx context.Context, maxMessages int, waitSeconds int) ([]queueMessage, error)
	Delete(ctx context.Context, receiptHandle string) error
}

type queueMessage struct {
	ID            string
	Body          string
	ReceiptHandle string
}

type jobType string

const (
	jobTypeStart   jobType = "start"
	jobTypeMessage jobType = "message"
)

type queuePayload struct {
	ID      string         `json:"id"`
	Kind    jobType        `json:"kind"`
	Start   StartRequest   `json:"start,omitempty"`
	Message MessageRequest `json:"message,omitempty"`
}
