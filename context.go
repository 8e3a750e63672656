package sdkcommon

import (
	"slices"
	"sync"
)

type cleanupEntry struct {
	fn    func() error
	order int
}

// ResolveCtx is handed to factories. Resolving through it records the
// dependency edge from the service being built.
type ResolveCtx struct {
	container *Container
	key       ServiceKey
	scope     Scope
	cleanups  []cleanupEntry
	deps      []ServiceKey
	cleanupMu sync.Mutex
}

// Key returns the key of the service being built
func (ctx *ResolveCtx) Key() ServiceKey {
	return ctx.key
}

// Scope returns the scope the service is being resolved with
func (ctx *ResolveCtx) Scope() Scope {
	return ctx.scope
}

// Container returns the owning container
func (ctx *ResolveCtx) Container() *Container {
	return ctx.container
}

// OnCleanup registers fn to run when the built instance leaves the cache.
// Cleanups run in reverse registration order.
func (ctx *ResolveCtx) OnCleanup(fn func() error) {
	ctx.cleanupMu.Lock()
	defer ctx.cleanupMu.Unlock()

	ctx.cleanups = append(ctx.cleanups, cleanupEntry{
		fn:    fn,
		order: len(ctx.cleanups),
	})
}

func (ctx *ResolveCtx) target() (*Container, *ResolveCtx) {
	return ctx.container, ctx
}

func (ctx *ResolveCtx) record(dep ServiceKey) {
	ctx.cleanupMu.Lock()
	defer ctx.cleanupMu.Unlock()
	ctx.deps = appendUnique(ctx.deps, dep)
}

func (ctx *ResolveCtx) dependencies() []ServiceKey {
	ctx.cleanupMu.Lock()
	defer ctx.cleanupMu.Unlock()
	return slices.Clone(ctx.deps)
}

func (ctx *ResolveCtx) takeCleanups() []cleanupEntry {
	ctx.cleanupMu.Lock()
	defer ctx.cleanupMu.Unlock()

	entries := ctx.cleanups
	ctx.cleanups = nil
	return entries
}
