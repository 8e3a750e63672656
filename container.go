package sdkcommon

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"sort"
	"sync"
)

// Factory builds an instance of T
type Factory[T any] func(ctx *ResolveCtx) (T, error)

// Resolver is implemented by *Container and *ResolveCtx
type Resolver interface {
	target() (*Container, *ResolveCtx)
}

type registration struct {
	key     ServiceKey
	scope   Scope
	factory func(ctx *ResolveCtx) (any, error)
}

// Registration describes one registered service
type Registration struct {
	Key    ServiceKey
	Scope  Scope
	Cached bool
}

// Container maps service types to factories and cached instances. Create one
// per application (or per test) and pass it down.
type Container struct {
	mu            sync.Mutex
	registrations map[ServiceKey]*registration
	cache         *instanceCache
	presets       map[ServiceKey]any
	cleanups      map[ServiceKey][]cleanupEntry
	graph         *DependencyGraph
	extensions    []Extension
	logger        *slog.Logger
}

// ContainerOption is a modifier for containers
type ContainerOption func(*Container)

// WithExtension returns an option that registers an extension
func WithExtension(ext Extension) ContainerOption {
	return func(c *Container) {
		if err := c.UseExtension(ext); err != nil {
			panic(err)
		}
	}
}

// WithLogger sets the logger used for registration and resolution events
func WithLogger(logger *slog.Logger) ContainerOption {
	return func(c *Container) {
		c.logger = logger
	}
}

// WithPreset makes every resolution of T (and name, if given) return value,
// whatever is registered. Intended for tests.
func WithPreset[T any](value T, opts ...Option) ContainerOption {
	return func(c *Container) {
		o := buildOptions(opts)
		c.presets[KeyOf[T](o.name)] = value
	}
}

// NewContainer creates an empty container
func NewContainer(opts ...ContainerOption) *Container {
	c := &Container{
		registrations: make(map[ServiceKey]*registration),
		cache:         newInstanceCache(),
		presets:       make(map[ServiceKey]any),
		cleanups:      make(map[ServiceKey][]cleanupEntry),
		graph:         NewDependencyGraph(),
		extensions:    []Extension{},
		logger:        slog.New(slog.DiscardHandler),
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

func (c *Container) target() (*Container, *ResolveCtx) {
	return c, nil
}

// UseExtension registers an extension to the container
func (c *Container) UseExtension(ext Extension) error {
	c.mu.Lock()
	c.extensions = append(c.extensions, ext)
	sort.SliceStable(c.extensions, func(i, j int) bool {
		return c.extensions[i].Order() < c.extensions[j].Order()
	})
	c.mu.Unlock()

	return ext.Init(c)
}

// Register associates factory with T. With As(Singleton) the factory runs
// immediately and its instance is cached; a factory error is returned and
// any previous registration of the key stays in effect. Registering the same
// key again replaces the factory and drops the cached instance along with
// everything that depends on it.
func Register[T any](c *Container, factory Factory[T], opts ...Option) error {
	o := buildOptions(opts)
	reg := &registration{
		key:   KeyOf[T](o.name),
		scope: o.scope,
		factory: func(ctx *ResolveCtx) (any, error) {
			return factory(ctx)
		},
	}
	return c.register(reg)
}

// RegisterInstance registers an already built value
func RegisterInstance[T any](c *Container, value T, opts ...Option) error {
	return Register(c, func(*ResolveCtx) (T, error) {
		return value, nil
	}, opts...)
}

// Resolve returns an instance of T.
//
//   - Singleton: the cached instance. Panics with a *ResolveError wrapping
//     ErrNotRegistered when T was never registered as a singleton.
//   - NewInstance: invokes the factory and caches the result.
//   - Automatic (default): the cached instance, otherwise as NewInstance.
//
// A type registered as Singleton resolves to its single instance under every
// scope. Absence for non-singleton scopes is reported as ErrNotRegistered.
func Resolve[T any](r Resolver, opts ...Option) (T, error) {
	c, parent := r.target()
	o := buildOptions(opts)
	key := KeyOf[T](o.name)

	if parent != nil {
		c.graph.AddDependency(parent.key, key)
		parent.record(key)
	}

	val, err := c.resolve(key, o.scope)
	if err != nil {
		var zero T
		return zero, err
	}

	typed, err := SafeTypeAssertion[T](val)
	if err != nil {
		return typed, newResolveError(key, o.scope, err, "type assertion")
	}
	return typed, nil
}

// MustResolve is Resolve that panics on any failure
func MustResolve[T any](r Resolver, opts ...Option) T {
	val, err := Resolve[T](r, opts...)
	if err != nil {
		panic(err)
	}
	return val
}

// Invalidate drops the cached instance of T and of every service that
// resolved it, directly or transitively, running their cleanups. The next
// Automatic resolution invokes the factories again.
func Invalidate[T any](c *Container, opts ...Option) error {
	o := buildOptions(opts)
	return c.invalidate(KeyOf[T](o.name), "invalidate")
}

// IsRegistered reports whether a factory or preset exists for T
func IsRegistered[T any](c *Container, opts ...Option) bool {
	o := buildOptions(opts)
	key := KeyOf[T](o.name)

	c.mu.Lock()
	defer c.mu.Unlock()
	_, hasReg := c.registrations[key]
	_, hasPreset := c.presets[key]
	return hasReg || hasPreset
}

func (c *Container) register(reg *registration) error {
	op := &Operation{
		Kind:      OpRegister,
		Key:       reg.key,
		Scope:     reg.scope,
		Container: c,
	}

	_, err := c.run(op, func() (any, error) {
		if reg.scope != Singleton {
			if err := c.invalidate(reg.key, "invalidate"); err != nil {
				return nil, err
			}
			c.mu.Lock()
			c.registrations[reg.key] = reg
			c.mu.Unlock()

			c.logger.Debug("service registered", "key", reg.key.String(), "scope", reg.scope.String())
			return nil, nil
		}

		// the previous registration and instance stay until the replacement builds
		val, entries, err := c.build(reg, Singleton)
		if err != nil {
			return nil, err
		}
		invalidateErr := c.invalidate(reg.key, "invalidate")

		c.mu.Lock()
		c.registrations[reg.key] = reg
		c.mu.Unlock()
		c.commit(reg.key, val, entries)

		c.logger.Debug("service registered", "key", reg.key.String(), "scope", reg.scope.String())
		return val, invalidateErr
	})
	return err
}

func (c *Container) resolve(key ServiceKey, scope Scope) (any, error) {
	op := &Operation{
		Kind:      OpResolve,
		Key:       key,
		Scope:     scope,
		Container: c,
	}

	val, err := c.run(op, func() (any, error) {
		return c.resolveKey(key, scope)
	})
	if err != nil {
		if scope == Singleton && missing(err, key) {
			c.logger.Error("singleton not registered", "key", key.String())
			panic(err)
		}
		return nil, err
	}

	c.logger.Debug("service resolved", "key", key.String(), "scope", scope.String())
	return val, nil
}

// missing reports whether err is the absence of key itself rather than of
// something its factory needed
func missing(err error, key ServiceKey) bool {
	var resolveErr *ResolveError
	return errors.As(err, &resolveErr) && resolveErr.Key == key && resolveErr.Cause == ErrNotRegistered
}

func (c *Container) resolveKey(key ServiceKey, scope Scope) (any, error) {
	c.mu.Lock()
	if preset, ok := c.presets[key]; ok {
		c.mu.Unlock()
		return preset, nil
	}
	cached, hasCached := c.cache.Load(key)
	reg := c.registrations[key]
	c.mu.Unlock()

	if hasCached && (scope != NewInstance || reg == nil || reg.scope == Singleton) {
		return cached, nil
	}

	if reg == nil {
		return nil, newResolveError(key, scope, ErrNotRegistered, "")
	}

	if scope == Singleton && reg.scope != Singleton {
		return nil, newResolveError(key, scope, ErrNotRegistered, "not registered as singleton")
	}

	val, entries, err := c.build(reg, scope)
	if err != nil {
		return nil, err
	}
	c.commit(key, val, entries)

	return val, nil
}

// build runs the factory without holding the lock so it may resolve other
// services through its ResolveCtx. The instance and its cleanups are returned
// uncommitted.
func (c *Container) build(reg *registration, scope Scope) (any, []cleanupEntry, error) {
	ctx := &ResolveCtx{
		container: c,
		key:       reg.key,
		scope:     scope,
	}

	val, err := reg.factory(ctx)
	entries := ctx.takeCleanups()
	if err != nil {
		if cleanupErr := c.runCleanups(reg.key, entries, "invalidate"); cleanupErr != nil {
			err = errors.Join(err, cleanupErr)
		}
		return nil, nil, newResolveError(reg.key, scope, err, "factory")
	}

	// edges from earlier builds that this one no longer resolved
	current := ctx.dependencies()
	for _, dep := range c.graph.Dependencies(reg.key) {
		if !slices.Contains(current, dep) {
			c.graph.RemoveDependency(reg.key, dep)
		}
	}

	return val, entries, nil
}

func (c *Container) commit(key ServiceKey, val any, entries []cleanupEntry) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.cache.Store(key, val)
	if len(entries) > 0 {
		c.cleanups[key] = append(c.cleanups[key], entries...)
	}
}

// run applies extensions around next (last registered wraps first) and
// reports failures to them
func (c *Container) run(op *Operation, next func() (any, error)) (any, error) {
	c.mu.Lock()
	exts := make([]Extension, len(c.extensions))
	copy(exts, c.extensions)
	c.mu.Unlock()

	for i := len(exts) - 1; i >= 0; i-- {
		ext := exts[i]
		currentNext := next
		next = func() (any, error) {
			return ext.Wrap(context.Background(), currentNext, op)
		}
	}

	result, err := next()
	if err != nil {
		for _, ext := range exts {
			ext.OnError(err, op, c)
		}
	}
	return result, err
}

func (c *Container) cached(key ServiceKey) (any, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if preset, ok := c.presets[key]; ok {
		return preset, true
	}
	return c.cache.Load(key)
}

// invalidate drops key and its transitive dependents, newest first
func (c *Container) invalidate(key ServiceKey, cleanupContext string) error {
	targets := map[ServiceKey]bool{key: true}
	for _, dependent := range c.graph.FindDependents(key) {
		targets[dependent] = true
	}

	c.mu.Lock()
	var order []ServiceKey
	keys := c.cache.Keys()
	for i := len(keys) - 1; i >= 0; i-- {
		if targets[keys[i]] {
			order = append(order, keys[i])
		}
	}
	// key may still hold cleanups without a cached instance
	if _, cached := c.cache.Load(key); !cached {
		order = append(order, key)
	}

	batches := make([][]cleanupEntry, len(order))
	for i, k := range order {
		c.cache.Delete(k)
		batches[i] = c.cleanups[k]
		delete(c.cleanups, k)
	}
	c.mu.Unlock()

	var errs []error
	for i, k := range order {
		if err := c.runCleanups(k, batches[i], cleanupContext); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Reset drops every cached instance, running cleanups newest first.
// Factories stay registered.
func (c *Container) Reset() error {
	op := &Operation{
		Kind:      OpReset,
		Container: c,
	}

	_, err := c.run(op, func() (any, error) {
		return nil, c.dropAll("reset")
	})
	return err
}

// RemoveAll drops every cached instance, factory and recorded dependency
func (c *Container) RemoveAll() error {
	err := c.Reset()

	c.mu.Lock()
	c.registrations = make(map[ServiceKey]*registration)
	c.mu.Unlock()
	c.graph.Clear()

	return err
}

// Dispose tears down every cached instance and all extensions
func (c *Container) Dispose() error {
	errs := []error{c.dropAll("dispose")}

	c.mu.Lock()
	c.registrations = make(map[ServiceKey]*registration)
	exts := make([]Extension, len(c.extensions))
	copy(exts, c.extensions)
	c.mu.Unlock()
	c.graph.Clear()

	for _, ext := range exts {
		if err := ext.Dispose(c); err != nil {
			errs = append(errs, fmt.Errorf("disposing extension %s: %w", ext.Name(), err))
		}
	}

	return errors.Join(errs...)
}

func (c *Container) dropAll(cleanupContext string) error {
	c.mu.Lock()
	keys := c.cache.Keys()
	cleanups := c.cleanups
	c.cache.Clear()
	c.cleanups = make(map[ServiceKey][]cleanupEntry)
	c.mu.Unlock()

	var errs []error
	for i := len(keys) - 1; i >= 0; i-- {
		entries := cleanups[keys[i]]
		delete(cleanups, keys[i])
		if err := c.runCleanups(keys[i], entries, cleanupContext); err != nil {
			errs = append(errs, err)
		}
	}
	// cleanups registered by instances that were replaced in the cache
	for key, entries := range cleanups {
		if err := c.runCleanups(key, entries, cleanupContext); err != nil {
			errs = append(errs, err)
		}
	}

	return errors.Join(errs...)
}

func (c *Container) runCleanups(key ServiceKey, entries []cleanupEntry, cleanupContext string) error {
	if len(entries) == 0 {
		return nil
	}

	c.mu.Lock()
	exts := make([]Extension, len(c.extensions))
	copy(exts, c.extensions)
	c.mu.Unlock()

	var errs []error
	for i := len(entries) - 1; i >= 0; i-- {
		if err := entries[i].fn(); err != nil {
			cleanupErr := &CleanupError{
				Key:     key,
				Err:     err,
				Context: cleanupContext,
			}

			handled := false
			for _, ext := range exts {
				if ext.OnCleanupError(cleanupErr) {
					handled = true
					break
				}
			}
			if !handled {
				c.logger.Warn("cleanup failed", "key", key.String(), "context", cleanupContext, "error", err)
				errs = append(errs, cleanupErr)
			}
		}
	}

	return errors.Join(errs...)
}

// Registrations lists registered services sorted by key
func (c *Container) Registrations() []Registration {
	c.mu.Lock()
	defer c.mu.Unlock()

	out := make([]Registration, 0, len(c.registrations))
	for key, reg := range c.registrations {
		_, cached := c.cache.Load(key)
		out = append(out, Registration{
			Key:    key,
			Scope:  reg.scope,
			Cached: cached,
		})
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].Key.String() < out[j].Key.String()
	})
	return out
}

// DependencyGraph returns the dependencies recorded while factories ran
func (c *Container) DependencyGraph() *DependencyGraph {
	return c.graph
}
