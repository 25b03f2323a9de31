package eventbus

import (
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func received(sub *Subscription) bool {
	select {
	case <-sub.C():
		return true
	case <-time.After(50 * time.Millisecond):
		return false
	}
}

func TestBus_PublishReachesSubscribers(t *testing.T) {
	bus := New(zerolog.Nop())

	a := bus.Subscribe(UpdateTopic("q1"))
	b := bus.Subscribe(UpdateTopic("q1"))
	other := bus.Subscribe(UpdateTopic("q2"))
	defer a.Close()
	defer b.Close()
	defer other.Close()

	bus.PublishUpdate("q1")

	assert.True(t, received(a))
	assert.True(t, received(b))
	assert.False(t, received(other))
}

func TestBus_BurstsCoalesce(t *testing.T) {
	bus := New(zerolog.Nop())
	sub := bus.Subscribe(UpdateTopic("q1"))
	defer sub.Close()

	for i := 0; i < 100; i++ {
		bus.PublishUpdate("q1")
	}

	assert.True(t, received(sub))
	assert.False(t, received(sub))
}

func TestBus_PublishWithoutSubscribers(t *testing.T) {
	bus := New(zerolog.Nop())
	assert.NotPanics(t, func() { bus.PublishComplete("nobody") })
	assert.Equal(t, 0, bus.Topics())
}

func TestBus_CloseRemovesEmptyTopics(t *testing.T) {
	bus := New(zerolog.Nop())

	a := bus.Subscribe(CompleteTopic("q1"))
	b := bus.Subscribe(CompleteTopic("q1"))
	require.Equal(t, 2, bus.Subscribers(CompleteTopic("q1")))

	a.Close()
	a.Close()
	assert.Equal(t, 1, bus.Subscribers(CompleteTopic("q1")))

	b.Close()
	assert.Equal(t, 0, bus.Subscribers(CompleteTopic("q1")))
	assert.Equal(t, 0, bus.Topics())

	bus.PublishComplete("q1")
	assert.False(t, received(a))
}

func TestBus_ConcurrentUse(t *testing.T) {
	bus := New(zerolog.Nop())
	topic := UpdateTopic("q1")

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			sub := bus.Subscribe(topic)
			bus.Publish(topic)
			sub.Close()
		}()
		go func() {
			defer wg.Done()
			bus.Publish(topic)
		}()
	}
	wg.Wait()

	assert.Equal(t, 0, bus.Topics())
}

func TestTopics(t *testing.T) {
	assert.Equal(t, "query.abc.update", UpdateTopic("abc"))
	assert.Equal(t, "query.abc.complete", CompleteTopic("abc"))
}
