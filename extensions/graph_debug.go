package extensions

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sort"
	"strings"
	"sync"

	"github.com/m1gwings/treedrawer/tree"

	sdkcommon "github.com/sdkcommon/sdkcommon-go"
)

// GraphDebugExtension logs the service dependency graph when a resolution fails.
//
// Usage:
//
//	// Human-readable formatted output (with line breaks)
//	handler := extensions.NewHumanHandler(os.Stdout, slog.LevelError)
//	ext := extensions.NewGraphDebugExtension(handler)
//
//	// Structured JSON logging
//	ext := extensions.NewGraphDebugExtension(slog.NewJSONHandler(os.Stdout, nil))
//
//	// Silent (for testing)
//	ext := extensions.NewGraphDebugExtension(extensions.NewSilentHandler())
type GraphDebugExtension struct {
	sdkcommon.BaseExtension

	mu       sync.Mutex
	resolved map[sdkcommon.ServiceKey]bool
	failed   map[sdkcommon.ServiceKey]error
	logger   *slog.Logger
}

// NewGraphDebugExtension creates a new graph debug extension
func NewGraphDebugExtension(logHandler slog.Handler) *GraphDebugExtension {
	return &GraphDebugExtension{
		BaseExtension: sdkcommon.NewBaseExtension("graph-debug"),
		resolved:      make(map[sdkcommon.ServiceKey]bool),
		failed:        make(map[sdkcommon.ServiceKey]error),
		logger:        slog.New(logHandler),
	}
}

// Wrap tracks resolution outcomes
func (e *GraphDebugExtension) Wrap(ctx context.Context, next func() (any, error), op *sdkcommon.Operation) (any, error) {
	result, err := next()

	if op.Kind != sdkcommon.OpResolve {
		return result, err
	}

	e.mu.Lock()
	if err == nil {
		e.resolved[op.Key] = true
		delete(e.failed, op.Key)
	} else {
		e.failed[op.Key] = err
	}
	e.mu.Unlock()

	return result, err
}

// OnError logs the dependency graph when resolution fails
func (e *GraphDebugExtension) OnError(err error, op *sdkcommon.Operation, c *sdkcommon.Container) {
	e.logger.Error("Dependency Resolution Error",
		"service", op.Key.String(),
		"error", err.Error(),
		"operation", string(op.Kind),
		"dependency_graph", e.Render(c, op.Key),
	)
}

// Render draws every service that transitively depends on failed (or every
// recorded edge if failed has no dependents) as trees rooted at dependents
func (e *GraphDebugExtension) Render(c *sdkcommon.Container, failed sdkcommon.ServiceKey) string {
	graph := c.DependencyGraph().Export()
	if len(graph) == 0 {
		return "\n(empty - no dependencies recorded)"
	}

	roots := rootsOf(graph)

	var sb strings.Builder
	for _, root := range roots {
		t := tree.NewTree(tree.NodeString(e.label(root, failed)))
		e.grow(t, root, failed, graph, map[sdkcommon.ServiceKey]bool{root: true})
		sb.WriteString("\n")
		sb.WriteString(t.String())
	}
	return sb.String()
}

func (e *GraphDebugExtension) grow(t *tree.Tree, key, failed sdkcommon.ServiceKey, graph map[sdkcommon.ServiceKey][]sdkcommon.ServiceKey, path map[sdkcommon.ServiceKey]bool) {
	deps := append([]sdkcommon.ServiceKey(nil), graph[key]...)
	sort.Slice(deps, func(i, j int) bool { return deps[i].String() < deps[j].String() })

	for _, dep := range deps {
		if path[dep] {
			t.AddChild(tree.NodeString(dep.String() + " (cycle)"))
			continue
		}
		child := t.AddChild(tree.NodeString(e.label(dep, failed)))
		path[dep] = true
		e.grow(child, dep, failed, graph, path)
		delete(path, dep)
	}
}

func (e *GraphDebugExtension) label(key, failed sdkcommon.ServiceKey) string {
	e.mu.Lock()
	defer e.mu.Unlock()

	switch {
	case key == failed:
		return key.String() + " FAILED"
	case e.resolved[key]:
		return key.String() + " ok"
	}
	if err, ok := e.failed[key]; ok {
		return fmt.Sprintf("%s error: %v", key, err)
	}
	return key.String() + " pending"
}

// rootsOf returns services nothing else depends on, sorted by name
func rootsOf(graph map[sdkcommon.ServiceKey][]sdkcommon.ServiceKey) []sdkcommon.ServiceKey {
	isDependency := make(map[sdkcommon.ServiceKey]bool)
	for _, deps := range graph {
		for _, d := range deps {
			isDependency[d] = true
		}
	}

	var roots []sdkcommon.ServiceKey
	for k := range graph {
		if !isDependency[k] {
			roots = append(roots, k)
		}
	}
	// a graph made only of cycles has no natural root
	if len(roots) == 0 {
		for k := range graph {
			roots = append(roots, k)
		}
	}
	sort.Slice(roots, func(i, j int) bool { return roots[i].String() < roots[j].String() })
	return roots
}

// SilentHandler is a slog.Handler that discards all log output
type SilentHandler struct{}

// NewSilentHandler creates a new silent log handler
func NewSilentHandler() *SilentHandler {
	return &SilentHandler{}
}

func (h *SilentHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return false
}

func (h *SilentHandler) Handle(ctx context.Context, record slog.Record) error {
	return nil
}

func (h *SilentHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return h
}

func (h *SilentHandler) WithGroup(name string) slog.Handler {
	return h
}

// HumanHandler is a slog.Handler that prints the dependency graph of
// resolution errors with its line breaks intact
type HumanHandler struct {
	mu     sync.Mutex
	writer io.Writer
	level  slog.Level
}

// NewHumanHandler creates a new human-readable log handler
func NewHumanHandler(writer io.Writer, level slog.Level) *HumanHandler {
	return &HumanHandler{
		writer: writer,
		level:  level,
	}
}

func (h *HumanHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return level >= h.level
}

func (h *HumanHandler) Handle(ctx context.Context, record slog.Record) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	var sb strings.Builder
	if record.Message == "Dependency Resolution Error" {
		sb.WriteString(strings.Repeat("=", 70) + "\n")
		sb.WriteString("[GraphDebug] Dependency Resolution Error\n")
		sb.WriteString(strings.Repeat("=", 70) + "\n")
	} else {
		fmt.Fprintf(&sb, "[%s] %s\n", record.Level, record.Message)
	}

	var graph string
	record.Attrs(func(a slog.Attr) bool {
		if a.Key == "dependency_graph" {
			graph = a.Value.String()
			return true
		}
		fmt.Fprintf(&sb, "  %s: %v\n", a.Key, a.Value)
		return true
	})
	if graph != "" {
		fmt.Fprintf(&sb, "\nDependency Graph:%s\n", graph)
	}

	_, err := io.WriteString(h.writer, sb.String())
	return err
}

func (h *HumanHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return h
}

func (h *HumanHandler) WithGroup(name string) slog.Handler {
	return h
}
