package relay

// PublishRelay starts empty and only emits new values to subscribers
type PublishRelay[T any] struct {
	Observable[T]
}

// NewPublishRelay creates an empty relay
func NewPublishRelay[T any]() *PublishRelay[T] {
	return &PublishRelay[T]{}
}

// Update stores value and notifies observers with (value, previous)
func (r *PublishRelay[T]) Update(value T) {
	r.emit(value)
}

// BehaviorRelay always holds a value and replays it to new subscribers
type BehaviorRelay[T any] struct {
	Observable[T]
}

// NewBehaviorRelay creates a relay holding initial
func NewBehaviorRelay[T any](initial T) *BehaviorRelay[T] {
	r := &BehaviorRelay[T]{}
	r.value = initial
	r.hasValue = true
	return r
}

// Subscribe calls observer with the current value, then registers it.
// The observer is not yet registered during that first call, so a Set made
// from inside it is not delivered back to the same observer.
func (r *BehaviorRelay[T]) Subscribe(observer Observer[T]) *Subscription {
	observer(r.Value(), nil)
	return r.Observable.Subscribe(observer)
}

// Value returns the current value
func (r *BehaviorRelay[T]) Value() T {
	v, _ := r.Observable.Value()
	return v
}

// Set replaces the current value and notifies observers
func (r *BehaviorRelay[T]) Set(value T) {
	r.emit(value)
}

// Update is an alias for Set
func (r *BehaviorRelay[T]) Update(value T) {
	r.Set(value)
}

// Accept sets the value to fn(current)
func (r *BehaviorRelay[T]) Accept(fn func(T) T) {
	r.Set(fn(r.Value()))
}
