package sqs

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
)

// PublisherAPI defines the interface for SQS operations used by Publisher.
type PublisherAPI interface {
	SendMessage(ctx context.Context, params *sqs.SendMessageInput, optFns ...func(*sqs.Options)) (*sqs.SendMessageOutput, error)
}

// Publisher handles publishing messages to AWS SQS.
type Publisher struct {
	client   PublisherAPI
	queueURL string
}

// NewPublisher creates a new SQS Publisher with the given client and queue URL.
func NewPublisher(client PublisherAPI, queueURL string) *Publisher {
	return &Publisher{
		client:   client,
		queueURL: queueURL,
	}
}

// Material lifecycle actions carried by MaterialMessage.
const (
	ActionCreated   = "created"
	ActionReserved  = "reserved"
	ActionCollected = "collected"
	ActionDeleted   = "deleted"
)

// MaterialMessage represents a message about a material lifecycle event.
type MaterialMessage struct {
	Action       string `json:"action"`
	MaterialID   string `json:"material_id"`
	MaterialType string `json:"material_type"`
	OwnerID      string `json:"owner_id"`
	CollectorID  string `json:"collector_id,omitempty"`
}

// PublishMaterialMessage publishes a material lifecycle message to the SQS queue.
func (p *Publisher) PublishMaterialMessage(ctx context.Context, msg MaterialMessage) error {
	messageBody, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("failed to marshal message: %w", err)
	}

	_, err = p.client.SendMessage(ctx, &sqs.SendMessageInput{
		QueueUrl:    aws.String(p.queueURL),
		MessageBody: aws.String(string(messageBody)),
	})
	if err != nil {
		return fmt.Errorf("failed to send message to SQS: %w", err)
	}

	return nil
}
