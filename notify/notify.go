// Package notify is an in-process notification center: observers register
// for a name and receive every notification posted under it.
package notify

import (
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	sdkcommon "github.com/sdkcommon/sdkcommon-go"
	"github.com/sdkcommon/sdkcommon-go/relay"
)

// Name identifies a notification channel
type Name string

// Notification is one posted event
type Notification struct {
	ID       string
	Name     Name
	Object   any
	UserInfo map[string]any
	PostedAt time.Time
}

// Service is the notification capability consumed by SDK modules
type Service interface {
	Observe(name Name, fn func(Notification)) *relay.Subscription
	Post(name Name, object any, userInfo map[string]any) Notification
	RemoveObservers(name Name)
	RemoveAll()
}

// Center implements Service with one publish relay per name
type Center struct {
	mu       sync.Mutex
	channels map[Name]*relay.PublishRelay[Notification]
	logger   *slog.Logger
	now      func() time.Time
}

// Option configures a Center
type Option func(*Center)

// WithLogger sets the logger used for post events
func WithLogger(logger *slog.Logger) Option {
	return func(c *Center) {
		c.logger = logger
	}
}

// WithClock overrides the time source
func WithClock(now func() time.Time) Option {
	return func(c *Center) {
		c.now = now
	}
}

// NewCenter creates an empty notification center
func NewCenter(opts ...Option) *Center {
	c := &Center{
		channels: make(map[Name]*relay.PublishRelay[Notification]),
		logger:   slog.Default(),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Observe registers fn for name
func (c *Center) Observe(name Name, fn func(Notification)) *relay.Subscription {
	c.mu.Lock()
	ch, ok := c.channels[name]
	if !ok {
		ch = relay.NewPublishRelay[Notification]()
		c.channels[name] = ch
	}
	c.mu.Unlock()

	return ch.Subscribe(func(n Notification, _ *Notification) {
		fn(n)
	})
}

// Post delivers a notification to the current observers of name
func (c *Center) Post(name Name, object any, userInfo map[string]any) Notification {
	n := Notification{
		ID:       uuid.NewString(),
		Name:     name,
		Object:   object,
		UserInfo: userInfo,
		PostedAt: c.now(),
	}

	c.mu.Lock()
	ch, ok := c.channels[name]
	c.mu.Unlock()

	if !ok {
		c.logger.Debug("notification dropped", "name", string(name), "id", n.ID)
		return n
	}

	c.logger.Debug("notification posted", "name", string(name), "id", n.ID, "observers", ch.Len())
	ch.Update(n)
	return n
}

// RemoveObservers drops every observer of name
func (c *Center) RemoveObservers(name Name) {
	c.mu.Lock()
	ch, ok := c.channels[name]
	delete(c.channels, name)
	c.mu.Unlock()

	if ok {
		ch.ClearAll()
	}
}

// RemoveAll drops every observer of every name
func (c *Center) RemoveAll() {
	c.mu.Lock()
	channels := c.channels
	c.channels = make(map[Name]*relay.PublishRelay[Notification])
	c.mu.Unlock()

	for _, ch := range channels {
		ch.ClearAll()
	}
}

// Assembly registers a singleton Center as Service
func Assembly(opts ...Option) sdkcommon.Assembly {
	return sdkcommon.AssemblyFunc(func(c *sdkcommon.Container) error {
		return sdkcommon.Register(c, func(ctx *sdkcommon.ResolveCtx) (Service, error) {
			center := NewCenter(opts...)
			ctx.OnCleanup(func() error {
				center.RemoveAll()
				return nil
			})
			return center, nil
		}, sdkcommon.As(sdkcommon.Singleton))
	})
}
