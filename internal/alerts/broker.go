package alerts

import (
	"encoding/json"
	"fmt"

	"github.com/rabbitmq/amqp091-go"
)

const (
	TelemetryExchange  = "station.telemetry.exchange"
	CriticalQueue      = "station.critical.alerts"
	CriticalRoutingKey = "alert.critical.oxygen"
	criticalBindingKey = "alert.critical.#"
)

// BrokerSender publishes critical alerts to the RabbitMQ topic exchange.
// The channel gives at-least-once delivery; the consumer side tolerates
// duplicates.
type BrokerSender struct {
	conn    *amqp091.Connection
	channel *amqp091.Channel
}

func NewBrokerSender(url string) (*BrokerSender, error) {
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

	return &BrokerSender{conn: conn, channel: ch}, nil
}

// DeclareTopology declares the alert exchange, the durable critical queue
// and its binding. Both sender and consumer declare on startup so either
// side can come up first.
func DeclareTopology(ch *amqp091.Channel) error {
	err := ch.ExchangeDeclare(
		TelemetryExchange, // name
		"topic",           // type
		true,              // durable
		false,             // auto-deleted
		false,             // internal
		false,             // no-wait
		nil,               // arguments
	)
	if err != nil {
		return fmt.Errorf("failed to declare telemetry exchange: %w", err)
	}

	_, err = ch.QueueDeclare(
		CriticalQueue, // name
		true,          // durable
		false,         // delete when unused
		false,         // exclusive
		false,         // no-wait
		nil,           // arguments
	)
	if err != nil {
		return fmt.Errorf("failed to declare critical alerts queue: %w", err)
	}

	err = ch.QueueBind(
		CriticalQueue,      // queue name
		criticalBindingKey, // routing key
		TelemetryExchange,  // exchange
		false,
		nil,
	)
	if err != nil {
		return fmt.Errorf("failed to bind critical alerts queue: %w", err)
	}

	return nil
}

func (s *BrokerSender) SendCriticalAlert(alert SystemAlert) error {
	body, err := json.Marshal(alert)
	if err != nil {
		return fmt.Errorf("failed to serialize alert: %w", err)
	}

	err = s.channel.Publish(
		TelemetryExchange,
		CriticalRoutingKey,
		false, // mandatory
		false, // immediate
		amqp091.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp091.Persistent,
			MessageId:    alert.EventID,
			Body:         body,
		},
	)
	if err != nil {
		return fmt.Errorf("failed to publish alert: %w", err)
	}

	return nil
}

func (s *BrokerSender) Close() error {
	if s.channel != nil {
		s.channel.Close()
	}
	if s.conn != nil {
		s.conn.Close()
	}
	return nil
}
