package sdkcommon

// Controller provides lifecycle control over one registered service
type Controller[T any] struct {
	container *Container
	opts      []Option
	key       ServiceKey
}

// Accessor creates a controller for T. Options select the name and the
// scope used by Get.
func Accessor[T any](c *Container, opts ...Option) *Controller[T] {
	o := buildOptions(opts)
	return &Controller[T]{
		container: c,
		opts:      opts,
		key:       KeyOf[T](o.name),
	}
}

// Key returns the controlled service key
func (c *Controller[T]) Key() ServiceKey {
	return c.key
}

// Get resolves the service
func (c *Controller[T]) Get() (T, error) {
	return Resolve[T](c.container, c.opts...)
}

// Peek returns the cached instance without resolving
func (c *Controller[T]) Peek() (T, bool) {
	val, ok := c.container.cached(c.key)
	if !ok {
		var zero T
		return zero, false
	}
	typed, err := SafeTypeAssertion[T](val)
	if err != nil {
		return typed, false
	}
	return typed, true
}

// Release invalidates the cached instance
func (c *Controller[T]) Release() error {
	return c.container.invalidate(c.key, "invalidate")
}

// Reload invalidates and immediately re-resolves
func (c *Controller[T]) Reload() (T, error) {
	if err := c.Release(); err != nil {
		var zero T
		return zero, err
	}
	return c.Get()
}

// IsCached checks if an instance is currently cached
func (c *Controller[T]) IsCached() bool {
	_, ok := c.container.cached(c.key)
	return ok
}
