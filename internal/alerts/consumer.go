package alerts

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/rabbitmq/amqp091-go"
	"gorm.io/gorm"

	"github.com/lifeline-dev/lifeline/internal/models"
	"github.com/lifeline-dev/lifeline/internal/types"
)

// Number of crew droids currently wired to the remediation desk.
const availableDroids = 2

// Processor turns received alerts into flight-log rows. Split from the
// channel plumbing so the decision and persistence logic runs the same way
// whatever transport delivered the alert.
type Processor struct {
	db         *gorm.DB
	remediator *Remediator
}

func NewProcessor(db *gorm.DB, remediator *Remediator) *Processor {
	return &Processor{db: db, remediator: remediator}
}

// HandleAlert resolves the automated action for the alert and appends the
// flight-log row. Returning an error means the row was not persisted and the
// delivery must not be acknowledged.
func (p *Processor) HandleAlert(alert SystemAlert) error {
	log.Printf("[alerts] ALERT RECEIVED AT BRIDGE source=%s severity=%s message=%q", alert.SystemSource, alert.Severity, alert.Message)

	history := p.Resolve(alert)

	if err := p.db.Create(&history).Error; err != nil {
		return fmt.Errorf("failed to persist flight log row: %w", err)
	}

	log.Printf("[alerts] alert %s saved to flight log, action=%q", alert.EventID, history.AutomatedActionTaken)
	return nil
}

// Resolve turns a received alert into its flight-log row. Only CRITICAL
// alerts get an automated response; anything else is recorded with the
// no-automated-action sentinel so the row's action is never empty.
func (p *Processor) Resolve(alert SystemAlert) models.AlertHistory {
	actionTaken := types.NoAutomatedAction

	if alert.Severity == types.SeverityCritical {
		actionTaken = p.remediator.CoordinateDroidRepair("oxygen", availableDroids)
		if actionTaken == "" {
			actionTaken = types.PendingManualReview
		}
		log.Printf("[alerts] automated response: %s", actionTaken)
	}

	timestamp := alert.Timestamp
	if timestamp.IsZero() {
		timestamp = time.Now()
	}

	return models.AlertHistory{
		EventID:              alert.EventID,
		SystemSource:         alert.SystemSource,
		Severity:             alert.Severity,
		Message:              alert.Message,
		Timestamp:            timestamp,
		AutomatedActionTaken: actionTaken,
	}
}

// Consumer is the bridge-side listener: it receives critical alerts from the
// channel, runs the automated remediation decision and records the outcome
// in the flight log. The flight-log row is written before the message is
// acknowledged, so a crash between the two redelivers the alert instead of
// losing it. Duplicate deliveries produce duplicate rows; the channel is
// at-least-once and the log is an audit trail, so that is accepted.
type Consumer struct {
	*Processor

	conn    *amqp091.Connection
	channel *amqp091.Channel
}

func NewConsumer(url string, db *gorm.DB, remediator *Remediator) (*Consumer, error) {
	conn, err := amqp091.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to RabbitMQ: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to open channel: %w", err)
	}

	if err := DeclareTopology(ch); err != nil {
		ch.Close()
		conn.Close()
		return nil, err
	}

	return &Consumer{
		Processor: NewProcessor(db, remediator),
		conn:      conn,
		channel:   ch,
	}, nil
}

// Start consumes the critical-alert queue until the context is cancelled.
// Blocking; run it on its own goroutine.
func (c *Consumer) Start(ctx context.Context) error {
	if err := c.channel.Qos(1, 0, false); err != nil {
		return fmt.Errorf("failed to set QoS: %w", err)
	}

	msgs, err := c.channel.Consume(
		CriticalQueue,
		"",    // consumer tag
		false, // auto-ack
		false, // exclusive
		false, // no-local
		false, // no-wait
		nil,   // args
	)
	if err != nil {
		return fmt.Errorf("failed to register alert consumer: %w", err)
	}

	log.Println("[alerts] consumer started, waiting for critical alerts")

	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-msgs:
			if !ok {
				return fmt.Errorf("alert channel closed")
			}

			if err := c.handleDelivery(msg.Body); err != nil {
				log.Printf("[alerts] failed to process alert, requeueing: %v", err)
				msg.Nack(false, true)
				continue
			}

			msg.Ack(false)
		}
	}
}

// handleDelivery processes one raw delivery. A received alert is never
// dropped: even an unparseable body gets a flight-log row for manual review.
func (c *Consumer) handleDelivery(body []byte) error {
	var alert SystemAlert
	if err := json.Unmarshal(body, &alert); err != nil {
		log.Printf("[alerts] unparseable alert payload: %v", err)
		alert = SystemAlert{
			SystemSource: "UNKNOWN",
			Severity:     "UNKNOWN",
			Message:      string(body),
			Timestamp:    time.Now(),
		}
	}

	return c.HandleAlert(alert)
}

func (c *Consumer) Close() error {
	if c.channel != nil {
		c.channel.Close()
	}
	if c.conn != nil {
		c.conn.Close()
	}
	return nil
}
