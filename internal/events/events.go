// Package events delivers pipeline notifications to in-process subscribers.
// Delivery is synchronous and follows publication order.
package events

import (
	"time"

	EventBus "github.com/asaskevich/EventBus"
	"github.com/wb-go/wbf/zlog"

	"github.com/yokitheyo/imagekit/internal/domain"
	"github.com/yokitheyo/imagekit/internal/upload"
)

const (
	TopicSaving  = "image:saving"
	TopicSaved   = "image:saved"
	TopicDeleted = "image:deleted"
)

// SavingOptions is the option set resolved for one save.
type SavingOptions struct {
	Dimensions domain.Dimensions `json:"dimensions"`
	Watermark  *domain.Watermark `json:"watermark,omitempty"`
	Compress   bool              `json:"compress"`
	Sizes      []string          `json:"sizes,omitempty"`
}

// SavingEvent fires after validation and before the original is persisted.
type SavingEvent struct {
	Upload  *upload.File
	Disk    string
	Path    string
	Options SavingOptions
}

// SavedEvent fires after the whole pipeline has completed.
type SavedEvent struct {
	Disk     string    `json:"disk"`
	Name     string    `json:"name"`
	Path     string    `json:"path"`
	FullPath string    `json:"full_path"`
	Sizes    []string  `json:"sizes,omitempty"`
	At       time.Time `json:"at"`
}

// DeletedEvent fires after every delete attempt.
type DeletedEvent struct {
	Disk    string    `json:"disk"`
	Name    string    `json:"name"`
	Path    string    `json:"path"`
	Deleted bool      `json:"deleted"`
	At      time.Time `json:"at"`
}

type Bus struct {
	bus EventBus.Bus
}

func NewBus() *Bus {
	return &Bus{bus: EventBus.New()}
}

func (b *Bus) OnSaving(fn func(SavingEvent)) error {
	return b.bus.Subscribe(TopicSaving, fn)
}

func (b *Bus) OnSaved(fn func(SavedEvent)) error {
	return b.bus.Subscribe(TopicSaved, fn)
}

func (b *Bus) OnDeleted(fn func(DeletedEvent)) error {
	return b.bus.Subscribe(TopicDeleted, fn)
}

func (b *Bus) PublishSaving(e SavingEvent) {
	zlog.Logger.Debug().Str("path", e.Path).Str("disk", e.Disk).Msg("publishing image saving event")
	b.bus.Publish(TopicSaving, e)
}

func (b *Bus) PublishSaved(e SavedEvent) {
	zlog.Logger.Debug().Str("full_path", e.FullPath).Str("disk", e.Disk).Msg("publishing image saved event")
	b.bus.Publish(TopicSaved, e)
}

func (b *Bus) PublishDeleted(e DeletedEvent) {
	zlog.Logger.Debug().Str("name", e.Name).Bool("deleted", e.Deleted).Msg("publishing image deleted event")
	b.bus.Publish(TopicDeleted, e)
}
