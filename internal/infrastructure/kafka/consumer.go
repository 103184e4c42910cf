package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	wbfkafka "github.com/wb-go/wbf/kafka"
	"github.com/wb-go/wbf/retry"
	"github.com/wb-go/wbf/zlog"

	"github.com/yokitheyo/imagekit/internal/config"
	"github.com/yokitheyo/imagekit/internal/dto"
)

type MessageHandler func(ctx context.Context, msg *dto.ImageEventMessage) error

type Consumer struct {
	client   *wbfkafka.Consumer
	handler  MessageHandler
	topic    string
	strategy retry.Strategy
}

func NewConsumer(cfg *config.KafkaConfig, strategy retry.Strategy, handler MessageHandler) (*Consumer, error) {
	if handler == nil {
		return nil, fmt.Errorf("kafka consumer: handler is required")
	}
	client := wbfkafka.NewConsumer(cfg.Brokers, cfg.Topic, cfg.GroupID)

	zlog.Logger.Info().
		Strs("brokers", cfg.Brokers).
		Str("topic", cfg.Topic).
		Str("group_id", cfg.GroupID).
		Msg("Kafka consumer initialized (WB)")

	return &Consumer{
		client:   client,
		handler:  handler,
		topic:    cfg.Topic,
		strategy: strategy,
	}, nil
}

// Decode parses and checks one image event payload.
func Decode(value []byte) (*dto.ImageEventMessage, error) {
	var msg dto.ImageEventMessage
	if err := json.Unmarshal(value, &msg); err != nil {
		return nil, fmt.Errorf("unmarshal image event: %w", err)
	}
	switch msg.Type {
	case dto.EventSaved, dto.EventDeleted:
	default:
		return nil, fmt.Errorf("unknown image event type %q", msg.Type)
	}
	if msg.Disk == "" || msg.FullPath == "" {
		return nil, fmt.Errorf("image event without disk or full_path")
	}
	return &msg, nil
}

// Start fetches until ctx is done. A message is committed once handled;
// malformed messages are committed and skipped, failed ones are left for
// redelivery.
func (c *Consumer) Start(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			zlog.Logger.Info().Msg("Kafka consumer stopped")
			return nil
		default:
			msg, err := c.client.FetchWithRetry(ctx, c.strategy)
			if err != nil {
				if ctx.Err() != nil {
					continue
				}
				zlog.Logger.Error().Err(err).Msg("Failed to fetch Kafka message")
				time.Sleep(time.Second)
				continue
			}

			event, err := Decode(msg.Value)
			if err != nil {
				zlog.Logger.Error().
					Err(err).
					Bytes("msg", msg.Value).
					Msg("Skipping invalid image event")
				if err := c.client.Commit(ctx, msg); err != nil {
					zlog.Logger.Error().Err(err).Msg("Failed to commit skipped message")
				}
				continue
			}

			zlog.Logger.Info().
				Str("type", event.Type).
				Str("disk", event.Disk).
				Str("full_path", event.FullPath).
				Msg("Received image event")

			if err := c.handler(ctx, event); err != nil {
				zlog.Logger.Error().
					Err(err).
					Str("type", event.Type).
					Str("full_path", event.FullPath).
					Msg("Image event processing failed")
				continue
			}

			if err := c.client.Commit(ctx, msg); err != nil {
				zlog.Logger.Error().
					Err(err).
					Str("full_path", event.FullPath).
					Msg("Failed to commit message")
				continue
			}

			zlog.Logger.Debug().
				Str("type", event.Type).
				Str("full_path", event.FullPath).
				Msg("Image event processed and committed")
		}
	}
}

func (c *Consumer) Close() error {
	if err := c.client.Close(); err != nil {
		zlog.Logger.Error().Err(err).Msg("Failed to close Kafka consumer")
		return err
	}
	zlog.Logger.Info().Msg("Kafka consumer closed successfully")
	return nil
}
