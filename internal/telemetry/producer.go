package telemetry

import (
	"context"
	"encoding/json"
	"log"
	"time"

	redis "github.com/redis/go-redis/v9"
)

// Stream is the Redis stream carrying raw telemetry.
const Stream = "station:telemetry"

// streamAppender is the slice of the Redis client the producer needs.
type streamAppender interface {
	XAdd(ctx context.Context, a *redis.XAddArgs) *redis.StringCmd
}

// Producer serializes packets and appends them to the telemetry stream.
type Producer struct {
	client streamAppender
}

func NewProducer(client *redis.Client) *Producer {
	return &Producer{client: client}
}

func newProducerWith(client streamAppender) *Producer {
	return &Producer{client: client}
}

// Publish stamps a missing timestamp, serializes the packet and appends it
// keyed by sensor id. Serialization failure logs and drops the packet; a
// stream append failure is returned so the HTTP layer can degrade to a
// warning.
func (p *Producer) Publish(ctx context.Context, packet Packet) error {
	packet.StampIfMissing(time.Now())

	payload, err := json.Marshal(packet)
	if err != nil {
		log.Printf("[telemetry] failed to serialize packet from sensor %s, dropping: %v", packet.SensorID, err)
		return nil
	}

	err = p.client.XAdd(ctx, &redis.XAddArgs{
		Stream: Stream,
		Values: map[string]interface{}{
			"sensor_id": packet.SensorID,
			"payload":   payload,
		},
	}).Err()
	if err != nil {
		return err
	}

	log.Printf("[telemetry] sent [sensor: %s]: %s", packet.SensorID, payload)
	return nil
}
