// Package sdkcommon provides the service container shared by SDK modules.
//
// # Overview
//
// A Container maps a static type (plus an optional name) to a factory and
// the instances it produced. Containers are plain values: build one at
// application start, apply the assemblies of every module, and pass it down.
//
//	c := sdkcommon.NewContainer(
//	    sdkcommon.WithLogger(slog.Default()),
//	)
//
//	err := sdkcommon.Register(c, func(ctx *sdkcommon.ResolveCtx) (fetch.Fetcher, error) {
//	    return fetch.NewHTTPFetcher(), nil
//	}, sdkcommon.As(sdkcommon.Singleton))
//
//	fetcher, err := sdkcommon.Resolve[fetch.Fetcher](c)
//
// # Scopes
//
// Scope decides how Resolve treats the cache:
//
//	// Singleton: the factory ran at Register, every call returns that instance.
//	// Resolving an unregistered singleton panics.
//	sdkcommon.Resolve[Clock](c, sdkcommon.As(sdkcommon.Singleton))
//
//	// NewInstance: run the factory, cache and return the result.
//	sdkcommon.Resolve[*Session](c, sdkcommon.As(sdkcommon.NewInstance))
//
//	// Automatic (default): cached instance if any, otherwise NewInstance.
//	sdkcommon.Resolve[*Session](c)
//
// Absence outside the singleton scope is an ordinary error:
//
//	if _, err := sdkcommon.Resolve[Analytics](c); sdkcommon.IsNotRegistered(err) {
//	    // optional service
//	}
//
// # Named registrations
//
//	sdkcommon.Register(c, newPublicAPI, sdkcommon.Named("public"))
//	sdkcommon.Register(c, newPrivateAPI, sdkcommon.Named("private"))
//	api, _ := sdkcommon.Resolve[fetch.Fetcher](c, sdkcommon.Named("public"))
//
// # Factories
//
// Factories receive a *ResolveCtx. Resolving through it records the
// dependency edge; OnCleanup registers teardown that runs when the instance
// leaves the cache (Invalidate, Reset, RemoveAll, Dispose):
//
//	sdkcommon.Register(c, func(ctx *sdkcommon.ResolveCtx) (*Repository, error) {
//	    store, err := sdkcommon.Resolve[docstore.Store](ctx)
//	    if err != nil {
//	        return nil, err
//	    }
//	    repo := NewRepository(store)
//	    ctx.OnCleanup(repo.Close)
//	    return repo, nil
//	})
//
// # Assemblies
//
// Modules expose their registrations as an Assembly:
//
//	err := c.Apply(fetch.Assembly(), notify.Assembly())
//
// # Extensions
//
// Extensions wrap register, resolve and reset operations in middleware
// order and are told about failures. See the extensions package for slog
// logging and dependency graph rendering.
//
// # Concurrency
//
// A Container guards its maps but never holds its lock while a factory or
// cleanup runs. Resolution is not atomic: two goroutines resolving the same
// Automatic service may both run its factory. Serialize externally when that
// matters.
package sdkcommon
