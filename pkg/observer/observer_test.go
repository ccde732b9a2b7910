package observer_test

import (
	"testing"

	"clientes/pkg/observer"

	"github.com/stretchr/testify/assert"
)

func TestHub_PublishInOrder(t *testing.T) {
	hub := observer.New[int]()
	var got []string

	unsubA := hub.Subscribe(func(v int) { got = append(got, "a") })
	hub.Subscribe(func(v int) { got = append(got, "b") })

	hub.Publish(1)
	assert.Equal(t, []string{"a", "b"}, got)
	assert.Equal(t, 2, hub.Len())

	unsubA()
	unsubA()
	got = nil
	hub.Publish(2)
	assert.Equal(t, []string{"b"}, got)
	assert.Equal(t, 1, hub.Len())
}

func TestHub_UnsubscribeDuringPublish(t *testing.T) {
	hub := observer.New[string]()
	calls := 0

	var unsub func()
	unsub = hub.Subscribe(func(string) {
		calls++
		unsub()
	})

	hub.Publish("x")
	hub.Publish("y")
	assert.Equal(t, 1, calls)
	assert.Zero(t, hub.Len())
}
