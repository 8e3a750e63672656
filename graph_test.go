package sdkcommon

import (
	"fmt"
	"reflect"
	"sort"
	"testing"
)

type (
	config     struct{ url string }
	client     struct{ cfg *config }
	repository struct{ cl *client }
)

func registerChain(t *testing.T, c *Container) {
	t.Helper()

	if err := RegisterInstance(c, &config{url: "https://example.com"}); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	Register(c, func(ctx *ResolveCtx) (*client, error) {
		cfg, err := Resolve[*config](ctx)
		if err != nil {
			return nil, err
		}
		return &client{cfg: cfg}, nil
	})
	Register(c, func(ctx *ResolveCtx) (*repository, error) {
		cl, err := Resolve[*client](ctx)
		if err != nil {
			return nil, err
		}
		return &repository{cl: cl}, nil
	})
}

func TestDependencyGraph_RecordedThroughResolveCtx(t *testing.T) {
	c := NewContainer()
	registerChain(t, c)

	repo := MustResolve[*repository](c)
	if repo.cl.cfg.url != "https://example.com" {
		t.Fatalf("unexpected wiring %+v", repo)
	}

	g := c.DependencyGraph()

	deps := g.Dependencies(KeyOf[*repository](""))
	if !reflect.DeepEqual(deps, []ServiceKey{KeyOf[*client]("")}) {
		t.Errorf("unexpected repository dependencies %v", deps)
	}

	dependents := g.FindDependents(KeyOf[*config](""))
	names := make([]string, 0, len(dependents))
	for _, k := range dependents {
		names = append(names, k.String())
	}
	sort.Strings(names)
	want := []string{"*sdkcommon.client", "*sdkcommon.repository"}
	if !reflect.DeepEqual(names, want) {
		t.Errorf("expected %v, got %v", want, names)
	}

	exported := g.Export()
	if len(exported) != 2 {
		t.Errorf("expected 2 dependents in export, got %d", len(exported))
	}
}

func TestDependencyGraph_MissingDependency(t *testing.T) {
	c := NewContainer()

	Register(c, func(ctx *ResolveCtx) (*client, error) {
		cfg, err := Resolve[*config](ctx)
		if err != nil {
			return nil, err
		}
		return &client{cfg: cfg}, nil
	})

	_, err := Resolve[*client](c)
	if !IsNotRegistered(err) {
		t.Fatalf("expected missing dependency to surface, got %v", err)
	}
	if len(c.DependencyGraph().Dependencies(KeyOf[*client](""))) != 1 {
		t.Error("expected edge to be recorded even when resolution fails")
	}
}

func TestDependencyGraph_RemoveAndClear(t *testing.T) {
	g := NewDependencyGraph()
	a, b := KeyOf[int]("a"), KeyOf[int]("b")

	g.AddDependency(a, b)
	g.AddDependency(a, b)
	if len(g.Dependencies(a)) != 1 {
		t.Errorf("expected duplicate edge to be ignored, got %v", g.Dependencies(a))
	}

	g.RemoveDependency(a, b)
	if len(g.Dependencies(a)) != 0 {
		t.Errorf("expected no dependencies, got %v", g.Dependencies(a))
	}

	g.AddDependency(a, b)
	g.Clear()
	if len(g.Export()) != 0 {
		t.Error("expected empty graph after clear")
	}
}

func TestInvalidate_CascadesToDependents(t *testing.T) {
	c := NewContainer()

	version := 0
	Register(c, func(ctx *ResolveCtx) (*config, error) {
		version++
		return &config{url: fmt.Sprintf("v%d", version)}, nil
	})
	cleaned := []string{}
	Register(c, func(ctx *ResolveCtx) (*client, error) {
		cfg, err := Resolve[*config](ctx)
		if err != nil {
			return nil, err
		}
		ctx.OnCleanup(func() error {
			cleaned = append(cleaned, "client")
			return nil
		})
		return &client{cfg: cfg}, nil
	})
	Register(c, func(ctx *ResolveCtx) (*repository, error) {
		cl, err := Resolve[*client](ctx)
		if err != nil {
			return nil, err
		}
		ctx.OnCleanup(func() error {
			cleaned = append(cleaned, "repository")
			return nil
		})
		return &repository{cl: cl}, nil
	})

	first := MustResolve[*repository](c)

	if err := Invalidate[*config](c); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if !reflect.DeepEqual(cleaned, []string{"repository", "client"}) {
		t.Errorf("expected dependents cleaned newest first, got %v", cleaned)
	}
	if Accessor[*client](c).IsCached() {
		t.Error("expected client to be dropped with its config")
	}

	second := MustResolve[*repository](c)
	if second == first {
		t.Fatal("expected repository to be rebuilt")
	}
	if second.cl.cfg.url != "v2" {
		t.Errorf("expected repository to see the fresh config, got %s", second.cl.cfg.url)
	}
}

func TestController_ReleaseCascades(t *testing.T) {
	c := NewContainer()
	registerChain(t, c)

	MustResolve[*repository](c)
	if err := Accessor[*client](c).Release(); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	if !Accessor[*config](c).IsCached() {
		t.Error("expected the dependency to stay cached")
	}
	if Accessor[*repository](c).IsCached() {
		t.Error("expected the dependent to be released")
	}
}

func TestDependencyGraph_RebuildPrunesStaleEdges(t *testing.T) {
	c := NewContainer()

	useConfig := true
	RegisterInstance(c, &config{url: "https://example.com"})
	RegisterInstance(c, "fallback")
	Register(c, func(ctx *ResolveCtx) (*client, error) {
		if useConfig {
			cfg, err := Resolve[*config](ctx)
			return &client{cfg: cfg}, err
		}
		if _, err := Resolve[string](ctx); err != nil {
			return nil, err
		}
		return &client{}, nil
	})

	MustResolve[*client](c)
	useConfig = false
	MustResolve[*client](c, As(NewInstance))

	deps := c.DependencyGraph().Dependencies(KeyOf[*client](""))
	if !reflect.DeepEqual(deps, []ServiceKey{KeyOf[string]("")}) {
		t.Errorf("expected only the current dependency, got %v", deps)
	}
	if len(c.DependencyGraph().FindDependents(KeyOf[*config](""))) != 0 {
		t.Error("expected config to have no dependents after rebuild")
	}
}
