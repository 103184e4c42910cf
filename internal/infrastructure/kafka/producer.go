package kafka

import (
	"context"
	"encoding/json"
	"time"

	wbfkafka "github.com/wb-go/wbf/kafka"
	"github.com/wb-go/wbf/retry"
	"github.com/wb-go/wbf/zlog"

	"github.com/yokitheyo/imagekit/internal/config"
	"github.com/yokitheyo/imagekit/internal/dto"
	"github.com/yokitheyo/imagekit/internal/events"
	"github.com/yokitheyo/imagekit/internal/pathutil"
)

// Sender is the subset of the wbf producer the publisher needs.
type Sender interface {
	SendWithRetry(ctx context.Context, strategy retry.Strategy, key, value []byte) error
	Close() error
}

type Producer struct {
	client   Sender
	topic    string
	strategy retry.Strategy
	timeout  time.Duration
}

// NewProducer создаёт Kafka producer через wbf.
func NewProducer(cfg *config.KafkaConfig, strategy retry.Strategy) *Producer {
	client := wbfkafka.NewProducer(cfg.Brokers, cfg.Topic)
	zlog.Logger.Info().
		Strs("brokers", cfg.Brokers).
		Str("topic", cfg.Topic).
		Msg("Kafka producer initialized (wbf)")
	return newProducer(client, cfg.Topic, strategy)
}

func newProducer(client Sender, topic string, strategy retry.Strategy) *Producer {
	return &Producer{
		client:   client,
		topic:    topic,
		strategy: strategy,
		timeout:  10 * time.Second,
	}
}

// Publish отправляет событие с повторными попытками; ключ - полный путь.
func (p *Producer) Publish(ctx context.Context, msg dto.ImageEventMessage) error {
	data, err := json.Marshal(msg)
	if err != nil {
		zlog.Logger.Error().Err(err).Str("type", msg.Type).Str("name", msg.Name).Msg("Failed to marshal image event")
		return err
	}

	key := []byte(msg.Disk + ":" + msg.FullPath)
	if err := p.client.SendWithRetry(ctx, p.strategy, key, data); err != nil {
		zlog.Logger.Error().
			Err(err).
			Str("type", msg.Type).
			Str("full_path", msg.FullPath).
			Msg("Failed to send image event with retry")
		return err
	}
	zlog.Logger.Debug().
		Str("type", msg.Type).
		Str("full_path", msg.FullPath).
		Str("topic", p.topic).
		Msg("Image event sent to Kafka")
	return nil
}

// Subscribe forwards saved and deleted events from bus. Send failures are
// logged and never reach the pipeline.
func (p *Producer) Subscribe(bus *events.Bus) error {
	if err := bus.OnSaved(func(e events.SavedEvent) {
		p.forward(SavedMessage(e))
	}); err != nil {
		return err
	}
	return bus.OnDeleted(func(e events.DeletedEvent) {
		p.forward(DeletedMessage(e))
	})
}

func (p *Producer) forward(msg dto.ImageEventMessage) {
	ctx, cancel := context.WithTimeout(context.Background(), p.timeout)
	defer cancel()
	_ = p.Publish(ctx, msg)
}

func SavedMessage(e events.SavedEvent) dto.ImageEventMessage {
	return dto.ImageEventMessage{
		Type:     dto.EventSaved,
		Disk:     e.Disk,
		Name:     e.Name,
		Path:     e.Path,
		FullPath: e.FullPath,
		Sizes:    e.Sizes,
		At:       e.At,
	}
}

func DeletedMessage(e events.DeletedEvent) dto.ImageEventMessage {
	return dto.ImageEventMessage{
		Type:     dto.EventDeleted,
		Disk:     e.Disk,
		Name:     e.Name,
		Path:     e.Path,
		FullPath: pathutil.Join(e.Path, e.Name),
		Deleted:  e.Deleted,
		At:       e.At,
	}
}

// Close закрывает продюсер.
func (p *Producer) Close() error {
	if err := p.client.Close(); err != nil {
		zlog.Logger.Error().Err(err).Msg("Failed to close Kafka producer")
		return err
	}
	zlog.Logger.Info().Msg("Kafka producer closed successfully")
	return nil
}
