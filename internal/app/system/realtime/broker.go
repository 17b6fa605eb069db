// Package realtime is the live-subscription primitive behind the
// collaborative features (event voting, bingo). Stores publish the full
// document after every committed write; subscribers receive each snapshot
// in publish order.
//
// The broker carries whole-document snapshots rather than deltas, so a
// subscriber that joins late (or a client that reconnects) is complete
// after its first message. There is no conflict resolution here: the last
// published snapshot is the document.
//
// Topic state lives only while the topic has subscribers, so an idle
// process holds nothing no matter how many documents it has written. The
// first subscriber on a topic therefore sees no retained snapshot; the
// stream layer seeds that first frame from the store.
package realtime

import (
	"sync"
)

// subBuffer is the per-subscriber channel capacity. A subscriber that
// falls this far behind is closed rather than allowed to stall the
// publisher; the client reconnects and starts from the store's state.
const subBuffer = 16

// Topic names a single shared document, conventionally
// "<collection>/<document id>".
func Topic(collection, id string) string {
	return collection + "/" + id
}

// Subscription is one live feed of document snapshots. C is closed when
// the subscription is cancelled or the subscriber is dropped for falling
// behind.
type Subscription struct {
	C <-chan any

	// Primed reports whether a retained snapshot was queued at subscribe
	// time. When false, the caller is responsible for producing the
	// current state (from the store) as the first frame.
	Primed bool

	topic  string
	ch     chan any
	broker *Broker
	closed bool // guarded by broker.mu
}

// Cancel tears the subscription down. No further snapshots are delivered
// after Cancel returns, even if the document keeps changing. Safe to call
// more than once.
func (s *Subscription) Cancel() {
	s.broker.mu.Lock()
	defer s.broker.mu.Unlock()
	s.broker.drop(s)
}

type topicState struct {
	retained    any
	hasRetained bool
	subs        map[*Subscription]struct{}
}

// Broker fans document snapshots out to subscribers. One Broker serves
// the whole process; topics are created on first subscribe and torn down
// when the last subscriber leaves.
type Broker struct {
	mu     sync.Mutex
	topics map[string]*topicState
}

// NewBroker creates an empty Broker.
func NewBroker() *Broker {
	return &Broker{topics: make(map[string]*topicState)}
}

// Subscribe registers a new subscriber on topic. If a snapshot has been
// published while the topic had subscribers, it is delivered immediately
// as the first message and Primed is set.
func (b *Broker) Subscribe(topic string) *Subscription {
	b.mu.Lock()
	defer b.mu.Unlock()

	ts := b.topics[topic]
	if ts == nil {
		ts = &topicState{subs: make(map[*Subscription]struct{})}
		b.topics[topic] = ts
	}

	ch := make(chan any, subBuffer)
	sub := &Subscription{C: ch, ch: ch, topic: topic, broker: b}
	ts.subs[sub] = struct{}{}

	if ts.hasRetained {
		ch <- ts.retained // fresh channel, capacity is guaranteed
		sub.Primed = true
	}
	return sub
}

// Publish records doc as the topic's current state and delivers it to
// every live subscriber. Calls for the same topic are serialized, so
// subscribers observe snapshots in publish order. A subscriber whose
// buffer is full is dropped. Publishing to a topic nobody subscribes to
// is a no-op.
func (b *Broker) Publish(topic string, doc any) {
	b.mu.Lock()
	defer b.mu.Unlock()

	ts := b.topics[topic]
	if ts == nil {
		return
	}
	ts.retained = doc
	ts.hasRetained = true

	for sub := range ts.subs {
		select {
		case sub.ch <- doc:
		default:
			b.drop(sub)
		}
	}
}

// drop closes sub and detaches it from its topic, deleting the topic when
// it was the last subscriber. Cancel and Publish's slow-subscriber path
// both land here under b.mu, so the channel closes exactly once and the
// two paths cannot contend on anything but the broker lock.
func (b *Broker) drop(sub *Subscription) {
	if sub.closed {
		return
	}
	sub.closed = true
	close(sub.ch)
	if ts := b.topics[sub.topic]; ts != nil {
		delete(ts.subs, sub)
		if len(ts.subs) == 0 {
			delete(b.topics, sub.topic)
		}
	}
}
