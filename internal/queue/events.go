// Package queue publishes alert events to SQS so downstream consumers (audit
// log, dashboards) can observe sent alerts without reading the ledger file.
package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	sqsTypes "github.com/aws/aws-sdk-go-v2/service/sqs/types"
	"github.com/google/uuid"

	"windalert/internal/types"
)

// SQSSender abstracts the SQS SendMessage operation for testability.
// Production code uses the *sqs.Client from aws-sdk-go-v2.
type SQSSender interface {
	SendMessage(ctx context.Context, params *sqs.SendMessageInput, optFns ...func(*sqs.Options)) (*sqs.SendMessageOutput, error)
}

// AlertEvent is the JSON body of an "alert sent" message.
type AlertEvent struct {
	EventID      string    `json:"event_id"`
	RunID        string    `json:"run_id,omitempty"`
	Spot         string    `json:"spot"`
	SpeedKmh     float64   `json:"speed_kmh"`
	DirectionDeg float64   `json:"direction_deg"`
	Abbrev       string    `json:"direction"`
	Provider     string    `json:"provider"`
	Source       string    `json:"source"`
	MessageSID   string    `json:"message_sid"`
	Message      string    `json:"message"`
	SentAt       time.Time `json:"sent_at"`
}

// Message attribute keys.
const (
	AttrEventType = "event_type"
	AttrRunID     = "run_id"

	EventTypeAlertSent = "alert_sent"
)

// AlertEventPublisher sends AlertEvents to a single SQS queue.
type AlertEventPublisher struct {
	client   SQSSender
	queueURL string
	logger   *slog.Logger
	newID    func() string
}

// NewAlertEventPublisher creates a publisher for queueURL.
func NewAlertEventPublisher(client SQSSender, queueURL string, logger *slog.Logger) *AlertEventPublisher {
	if logger == nil {
		logger = slog.Default()
	}
	return &AlertEventPublisher{
		client:   client,
		queueURL: queueURL,
		logger:   logger,
		newID:    func() string { return uuid.New().String() },
	}
}

// PublishAlertSent serializes evt and sends it. EventID and RunID are filled
// in when empty, the latter from the run ID carried in ctx.
func (p *AlertEventPublisher) PublishAlertSent(ctx context.Context, evt AlertEvent) error {
	if evt.EventID == "" {
		evt.EventID = p.newID()
	}
	if evt.RunID == "" {
		evt.RunID = types.GetRunID(ctx)
	}

	body, err := json.Marshal(evt)
	if err != nil {
		return fmt.Errorf("queue: failed to marshal AlertEvent: %w", err)
	}

	attrs := map[string]sqsTypes.MessageAttributeValue{
		AttrEventType: {
			DataType:    aws.String("String"),
			StringValue: aws.String(EventTypeAlertSent),
		},
	}
	if evt.RunID != "" {
		attrs[AttrRunID] = sqsTypes.MessageAttributeValue{
			DataType:    aws.String("String"),
			StringValue: aws.String(evt.RunID),
		}
	}

	input := &sqs.SendMessageInput{
		QueueUrl:          aws.String(p.queueURL),
		MessageBody:       aws.String(string(body)),
		MessageAttributes: attrs,
	}

	if _, err := p.client.SendMessage(ctx, input); err != nil {
		return fmt.Errorf("queue: failed to send AlertEvent to %s: %w", p.queueURL, err)
	}

	p.logger.InfoContext(ctx, "alert event published",
		"queue_url", p.queueURL,
		"event_id", evt.EventID,
		"run_id", evt.RunID,
		"message_sid", evt.MessageSID,
	)
	return nil
}
