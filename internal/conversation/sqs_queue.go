package conversation

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
)

// sqsAPI is the slice of the SQS client the queue needs; *sqs.Client
// satisfies it and tests substitute a fake.
type sqsAPI interface {
	SendMessage(ctx context.Context, params *sqs.SendMessageInput, optFns ...func(*sqs.Options)) (*sqs.SendMessageOutput, error)
	ReceiveMessage(ctx context.Context, params *sqs.ReceiveMessageInput, optFns ...func(*sqs.Options)) (*sqs.ReceiveMessageOutput, error)
	DeleteMessage(ctx context.Context, params *sqs.DeleteMessageInput, optFns ...func(*sqs.Options)) (*sqs.DeleteMessageOutput, error)
}

// sqsMaxBatch is the largest batch a single ReceiveMessage call may request.
const sqsMaxBatch = 10

// SQSQueue carries conversation jobs over AWS/LocalStack SQS. It is the
// durable counterpart to MemoryQueue for multi-process deployments.
type SQSQueue struct {
	api      sqsAPI
	queueURL string
}

var _ queueClient = (*SQSQueue)(nil)

// NewSQSQueue wraps an SQS client for the given queue URL.
func NewSQSQueue(api sqsAPI, queueURL string) *SQSQueue {
	if api == nil {
		panic("conversation: SQS client cannot be nil")
	}
	if queueURL == "" {
		panic("conversation: SQS queueURL cannot be empty")
	}
	return &SQSQueue{api: api, queueURL: queueURL}
}

func (q *SQSQueue) Send(ctx context.Context, body string) error {
	_, err := q.api.SendMessage(ctx, &sqs.SendMessageInput{
		QueueUrl:    aws.String(q.queueURL),
		MessageBody: aws.String(body),
	})
	if err != nil {
		return fmt.Errorf("conversation: failed to send SQS message: %w", err)
	}
	return nil
}

func (q *SQSQueue) Receive(ctx context.Context, maxMessages int, waitSeconds int) ([]queueMessage, error) {
	if maxMessages < 1 {
		maxMessages = 1
	}
	if maxMessages > sqsMaxBatch {
		maxMessages = sqsMaxBatch
	}

	out, err := q.api.ReceiveMessage(ctx, &sqs.ReceiveMessageInput{
		QueueUrl:            aws.String(q.queueURL),
		MaxNumberOfMessages: int32(maxMessages),
		WaitTimeSeconds:     int32(waitSeconds),
	})
	if err != nil {
		return nil, fmt.Errorf("conversation: failed to receive SQS messages: %w", err)
	}

	jobs := make([]queueMessage, 0, len(out.Messages))
	for _, msg := range out.Messages {
		body := aws.ToString(msg.Body)
		if body == "" {
			continue
		}
		jobs = append(jobs, queueMessage{
			ID:            aws.ToString(msg.MessageId),
			Body:          body,
			ReceiptHandle: aws.ToString(msg.ReceiptHandle),
		})
	}
	return jobs, nil
}

func (q *SQSQueue) Delete(ctx context.Context, receiptHandle string) error {
	if receiptHandle == "" {
		return nil
	}
	_, err := q.api.DeleteMessage(ctx, &sqs.DeleteMessageInput{
		QueueUrl:      aws.String(q.queueURL),
		ReceiptHandle: aws.String(receiptHandle),
	})
	if err != nil {
		return fmt.Errorf("conversation: failed to delete SQS message: %w", err)
	}
	return nil
}
