package relay

import "sync"

// Subscription owns the release action of one observer registration
type Subscription struct {
	once    sync.Once
	release func()
}

// NewSubscription wraps release so it runs at most once
func NewSubscription(release func()) *Subscription {
	return &Subscription{release: release}
}

// Unsubscribe removes the observer. Calling it again is a no-op.
func (s *Subscription) Unsubscribe() {
	if s == nil {
		return
	}
	s.once.Do(func() {
		if s.release != nil {
			s.release()
		}
	})
}

// DisposedBy adds the subscription to bag and returns it
func (s *Subscription) DisposedBy(bag *Bag) *Subscription {
	bag.Add(s)
	return s
}

// Bag collects subscriptions that share a lifetime, typically a view model
type Bag struct {
	mu   sync.Mutex
	subs []*Subscription
}

// Add appends subscriptions to the bag
func (b *Bag) Add(subs ...*Subscription) {
	b.mu.Lock()
	b.subs = append(b.subs, subs...)
	b.mu.Unlock()
}

// Len returns the number of held subscriptions
func (b *Bag) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.subs)
}

// Dispose releases every held subscription in reverse order and empties the bag
func (b *Bag) Dispose() {
	b.mu.Lock()
	subs := b.subs
	b.subs = nil
	b.mu.Unlock()

	for i := len(subs) - 1; i >= 0; i-- {
		subs[i].Unsubscribe()
	}
}
