package telemetry

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"strings"
	"time"

	redis "github.com/redis/go-redis/v9"
)

// ProcessFunc receives each decoded packet. The default hook in main
// broadcasts to the dashboard websocket hub.
type ProcessFunc func(packet Packet)

// Consumer reads the telemetry stream through a consumer group and forwards
// decoded packets to the processing hook. Multiple consumers in the same
// group split the load; a different group id sees the full stream again.
type Consumer struct {
	client  *redis.Client
	group   string
	name    string
	process ProcessFunc
}

func NewConsumer(client *redis.Client, group, name string, process ProcessFunc) *Consumer {
	return &Consumer{
		client:  client,
		group:   group,
		name:    name,
		process: process,
	}
}

// Start consumes until the context is cancelled. Blocking; run it on its own
// goroutine.
func (c *Consumer) Start(ctx context.Context) error {
	err := c.client.XGroupCreateMkStream(ctx, Stream, c.group, "0").Err()
	if err != nil && !strings.Contains(err.Error(), "BUSYGROUP") {
		return err
	}

	log.Printf("[telemetry] consumer %s started on group %s", c.name, c.group)

	for {
		select {
		case <-ctx.Done():
			return nil
		default:
		}

		streams, err := c.client.XReadGroup(ctx, &redis.XReadGroupArgs{
			Group:    c.group,
			Consumer: c.name,
			Streams:  []string{Stream, ">"},
			Count:    16,
			Block:    5 * time.Second,
		}).Result()
		if errors.Is(err, redis.Nil) {
			continue
		}
		if errors.Is(err, context.Canceled) {
			return nil
		}
		if err != nil {
			log.Printf("[telemetry] read failed: %v", err)
			time.Sleep(time.Second)
			continue
		}

		for _, stream := range streams {
			for _, message := range stream.Messages {
				c.handle(ctx, message)
			}
		}
	}
}

func (c *Consumer) handle(ctx context.Context, message redis.XMessage) {
	payload, ok := message.Values["payload"].(string)
	if !ok {
		log.Printf("[telemetry] message %s has no payload, skipping", message.ID)
		c.client.XAck(ctx, Stream, c.group, message.ID)
		return
	}

	var packet Packet
	if err := json.Unmarshal([]byte(payload), &packet); err != nil {
		log.Printf("[telemetry] failed to decode packet %s, skipping: %v", message.ID, err)
		c.client.XAck(ctx, Stream, c.group, message.ID)
		return
	}

	log.Printf("[telemetry] received [sensor: %s]: %s", packet.SensorID, payload)

	if c.process != nil {
		c.process(packet)
	}

	c.client.XAck(ctx, Stream, c.group, message.ID)
}
