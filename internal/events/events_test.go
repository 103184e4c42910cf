package events

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBusDeliversInOrder(t *testing.T) {
	bus := NewBus()
	var got []string

	require.NoError(t, bus.OnSaving(func(e SavingEvent) { got = append(got, "saving:"+e.Path) }))
	require.NoError(t, bus.OnSaved(func(e SavedEvent) { got = append(got, "saved:"+e.FullPath) }))
	require.NoError(t, bus.OnDeleted(func(e DeletedEvent) {
		if e.Deleted {
			got = append(got, "deleted:"+e.Name)
		} else {
			got = append(got, "missing:"+e.Name)
		}
	}))

	bus.PublishSaving(SavingEvent{Path: "uploads/images"})
	bus.PublishSaved(SavedEvent{FullPath: "uploads/images/a.jpg"})
	bus.PublishDeleted(DeletedEvent{Name: "a.jpg", Deleted: true})
	bus.PublishDeleted(DeletedEvent{Name: "b.jpg"})

	assert.Equal(t, []string{
		"saving:uploads/images",
		"saved:uploads/images/a.jpg",
		"deleted:a.jpg",
		"missing:b.jpg",
	}, got)
}

func TestBusMultipleSubscribers(t *testing.T) {
	bus := NewBus()
	calls := 0
	require.NoError(t, bus.OnSaved(func(SavedEvent) { calls++ }))
	require.NoError(t, bus.OnSaved(func(SavedEvent) { calls++ }))

	bus.PublishSaved(SavedEvent{})
	assert.Equal(t, 2, calls)
}
