package relay

import "sync"

// Observer receives a new value and the previous one. old is nil when there
// was no previous value.
type Observer[T any] func(value T, old *T)

// Subscribable is anything observers can be attached to
type Subscribable[T any] interface {
	Subscribe(observer Observer[T]) *Subscription
}

type entry[T any] struct {
	id       uint64
	observer Observer[T]
}

// Observable holds an optional current value and an ordered set of observers.
// Use PublishRelay or BehaviorRelay to emit values.
type Observable[T any] struct {
	mu        sync.Mutex
	value     T
	hasValue  bool
	lastID    uint64
	observers []entry[T]
	live      map[uint64]struct{}
}

// Subscribe registers observer and returns the handle that removes it
func (o *Observable[T]) Subscribe(observer Observer[T]) *Subscription {
	o.mu.Lock()
	o.lastID++
	id := o.lastID
	o.observers = append(o.observers, entry[T]{id: id, observer: observer})
	if o.live == nil {
		o.live = make(map[uint64]struct{})
	}
	o.live[id] = struct{}{}
	o.mu.Unlock()

	return NewSubscription(func() {
		o.remove(id)
	})
}

// Value returns the current value if one has been set
func (o *Observable[T]) Value() (T, bool) {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.value, o.hasValue
}

// Len returns the number of live observers
func (o *Observable[T]) Len() int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return len(o.observers)
}

// ClearAll drops every observer. Outstanding subscriptions become no-ops;
// ids are never reused so a stale handle cannot remove a newer observer.
func (o *Observable[T]) ClearAll() {
	o.mu.Lock()
	o.observers = nil
	o.live = nil
	o.mu.Unlock()
}

func (o *Observable[T]) remove(id uint64) {
	o.mu.Lock()
	defer o.mu.Unlock()

	if _, ok := o.live[id]; !ok {
		return
	}
	delete(o.live, id)
	for i, e := range o.observers {
		if e.id == id {
			o.observers = append(o.observers[:i:i], o.observers[i+1:]...)
			return
		}
	}
}

// emit stores value and notifies a snapshot of the observers. The lock is
// released before any observer runs so observers may update or unsubscribe.
func (o *Observable[T]) emit(value T) {
	o.mu.Lock()
	var old *T
	if o.hasValue {
		prev := o.value
		old = &prev
	}
	o.value = value
	o.hasValue = true
	snapshot := make([]entry[T], len(o.observers))
	copy(snapshot, o.observers)
	o.mu.Unlock()

	for _, e := range snapshot {
		if !o.alive(e.id) {
			continue
		}
		e.observer(value, old)
	}
}

// alive reports whether id is still registered. An observer released by an
// earlier observer in the same emission must not be called.
func (o *Observable[T]) alive(id uint64) bool {
	o.mu.Lock()
	defer o.mu.Unlock()

	_, ok := o.live[id]
	return ok
}
