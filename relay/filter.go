package relay

// Filter decides whether an emission reaches a filtered observer
type Filter[T any] func(value T, old *T) bool

// SubscribeFilter forwards emissions of src to observer only when filter
// passes. The old value given to observer is the last value that passed the
// filter, not the raw previous value of src.
func SubscribeFilter[T any](src Subscribable[T], filter Filter[T], observer Observer[T]) *Subscription {
	var lastPassed *T

	return src.Subscribe(func(value T, old *T) {
		if !filter(value, old) {
			return
		}
		prev := lastPassed
		passed := value
		lastPassed = &passed
		observer(value, prev)
	})
}

// SubscribeDistinct suppresses consecutive equal values
func SubscribeDistinct[T comparable](src Subscribable[T], observer Observer[T]) *Subscription {
	return SubscribeDistinctFunc(src, func(a, b T) bool { return a == b }, observer)
}

// SubscribeDistinctFunc suppresses consecutive values for which equal returns true
func SubscribeDistinctFunc[T any](src Subscribable[T], equal func(a, b T) bool, observer Observer[T]) *Subscription {
	return SubscribeFilter(src, func(value T, old *T) bool {
		return old == nil || !equal(value, *old)
	}, observer)
}
