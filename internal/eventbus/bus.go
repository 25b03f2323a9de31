// Package eventbus is the in-process notification channel between the
// query pipeline and stream subscribers. Events carry no payload: a
// notification only tells the subscriber to re-read the query state.
package eventbus

import (
	"sync"

	"github.com/puzpuzpuz/xsync/v4"
	"github.com/rs/zerolog"
)

func UpdateTopic(queryID string) string {
	return "query." + queryID + ".update"
}

func CompleteTopic(queryID string) string {
	return "query." + queryID + ".complete"
}

type subscribers = *xsync.Map[*Subscription, struct{}]

type Bus struct {
	topics *xsync.Map[string, subscribers]
	logger zerolog.Logger
}

func New(logger zerolog.Logger) *Bus {
	return &Bus{
		topics: xsync.NewMap[string, subscribers](),
		logger: logger,
	}
}

// Subscription receives at most one pending signal. Signals published while
// one is already pending are merged into it.
type Subscription struct {
	bus    *Bus
	topic  string
	signal chan struct{}
	once   sync.Once
}

func (s *Subscription) C() <-chan struct{} {
	return s.signal
}

// Close detaches the subscription. It is safe to call more than once.
func (s *Subscription) Close() {
	s.once.Do(func() {
		s.bus.topics.Compute(s.topic, func(subs subscribers, loaded bool) (subscribers, xsync.ComputeOp) {
			if !loaded {
				return subs, xsync.CancelOp
			}
			subs.Delete(s)
			if subs.Size() == 0 {
				return subs, xsync.DeleteOp
			}
			return subs, xsync.UpdateOp
		})
	})
}

func (b *Bus) Subscribe(topic string) *Subscription {
	sub := &Subscription{
		bus:    b,
		topic:  topic,
		signal: make(chan struct{}, 1),
	}
	b.topics.Compute(topic, func(subs subscribers, loaded bool) (subscribers, xsync.ComputeOp) {
		if !loaded {
			subs = xsync.NewMap[*Subscription, struct{}]()
		}
		subs.Store(sub, struct{}{})
		return subs, xsync.UpdateOp
	})
	return sub
}

// Publish notifies every current subscriber of topic without blocking.
func (b *Bus) Publish(topic string) {
	subs, ok := b.topics.Load(topic)
	if !ok {
		return
	}
	delivered := 0
	subs.Range(func(sub *Subscription, _ struct{}) bool {
		select {
		case sub.signal <- struct{}{}:
			delivered++
		default:
		}
		return true
	})
	b.logger.Trace().Str("topic", topic).Int("delivered", delivered).Msg("event published")
}

func (b *Bus) PublishUpdate(queryID string) {
	b.Publish(UpdateTopic(queryID))
}

func (b *Bus) PublishComplete(queryID string) {
	b.Publish(CompleteTopic(queryID))
}

// Subscribers returns the number of live subscriptions on topic.
func (b *Bus) Subscribers(topic string) int {
	subs, ok := b.topics.Load(topic)
	if !ok {
		return 0
	}
	return subs.Size()
}

// Topics returns the number of topics with at least one subscriber.
func (b *Bus) Topics() int {
	return b.topics.Size()
}
