package scheduler

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
)

// maxDelay is the longest delivery delay SQS accepts.
const maxDelay = 15 * time.Minute

// SQSAPI is the subset of the SQS client used by SQSScheduler.
type SQSAPI interface {
	SendMessage(ctx context.Context, params *sqs.SendMessageInput, optFns ...func(*sqs.Options)) (*sqs.SendMessageOutput, error)
}

// ExpiryMessage is the body of a scheduled expiry check.
type ExpiryMessage struct {
	TransactionID string `json:"transaction_id"`
}

// ParseExpiryMessage decodes the body of a scheduled expiry check.
func ParseExpiryMessage(body string) (ExpiryMessage, error) {
	var msg ExpiryMessage
	if err := json.Unmarshal([]byte(body), &msg); err != nil {
		return ExpiryMessage{}, fmt.Errorf("failed to unmarshal expiry message: %w", err)
	}
	if msg.TransactionID == "" {
		return ExpiryMessage{}, fmt.Errorf("expiry message has no transaction_id")
	}
	return msg, nil
}

// SQSScheduler implements the Scheduler interface using AWS SQS.
type SQSScheduler struct {
	Client   SQSAPI
	QueueURL string
}

// NewSQSScheduler creates a new SQSScheduler.
func NewSQSScheduler(client SQSAPI, queueURL string) *SQSScheduler {
	return &SQSScheduler{
		Client:   client,
		QueueURL: queueURL,
	}
}

// Make sure we conform to the interface
var _ Scheduler = (*SQSScheduler)(nil)

// ScheduleExpiry sends an expiry message to the SQS queue, delayed by up to 15 minutes.
func (s *SQSScheduler) ScheduleExpiry(ctx context.Context, transactionID string, delay time.Duration) error {
	body, err := json.Marshal(ExpiryMessage{TransactionID: transactionID})
	if err != nil {
		return fmt.Errorf("failed to marshal expiry message for SQS: %w", err)
	}

	delay = min(max(delay, 0), maxDelay)

	_, err = s.Client.SendMessage(ctx, &sqs.SendMessageInput{
		QueueUrl:     aws.String(s.QueueURL),
		MessageBody:  aws.String(string(body)),
		DelaySeconds: int32(delay / time.Second),
	})
	if err != nil {
		return fmt.Errorf("failed to send message to SQS: %w", err)
	}

	return nil
}
