package relay

// Dynamic is an always-valued box for binding a view to a single value.
// Binds receive only the new value.
type Dynamic[T any] struct {
	relay *BehaviorRelay[T]
}

type bindConfig struct {
	skipInitial bool
}

// BindOption configures Dynamic.Bind
type BindOption func(*bindConfig)

// SkipInitial binds without delivering the current value first
func SkipInitial() BindOption {
	return func(c *bindConfig) {
		c.skipInitial = true
	}
}

// NewDynamic creates a Dynamic holding initial
func NewDynamic[T any](initial T) *Dynamic[T] {
	return &Dynamic[T]{relay: NewBehaviorRelay(initial)}
}

// Bind registers fn, calling it with the current value unless SkipInitial is given
func (d *Dynamic[T]) Bind(fn func(T), opts ...BindOption) *Subscription {
	cfg := bindConfig{}
	for _, opt := range opts {
		opt(&cfg)
	}

	observer := func(value T, _ *T) { fn(value) }
	if cfg.skipInitial {
		return d.relay.Observable.Subscribe(observer)
	}
	return d.relay.Subscribe(observer)
}

// Value returns the current value
func (d *Dynamic[T]) Value() T {
	return d.relay.Value()
}

// Set replaces the value and runs every bind
func (d *Dynamic[T]) Set(value T) {
	d.relay.Set(value)
}
