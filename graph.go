package sdkcommon

import (
	"sync"
)

// DependencyGraph records which services resolved which others while their
// factories ran
type DependencyGraph struct {
	// dependency -> dependents
	downstream map[ServiceKey][]ServiceKey
	// dependent -> dependencies
	upstream map[ServiceKey][]ServiceKey
	mu       sync.RWMutex
}

// NewDependencyGraph creates an empty graph
func NewDependencyGraph() *DependencyGraph {
	return &DependencyGraph{
		downstream: make(map[ServiceKey][]ServiceKey),
		upstream:   make(map[ServiceKey][]ServiceKey),
	}
}

// AddDependency records that dependent resolved dependency
func (g *DependencyGraph) AddDependency(dependent ServiceKey, dependency ServiceKey) {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.downstream[dependency] = appendUnique(g.downstream[dependency], dependent)
	g.upstream[dependent] = appendUnique(g.upstream[dependent], dependency)
}

// RemoveDependency removes a dependency relationship
func (g *DependencyGraph) RemoveDependency(dependent ServiceKey, dependency ServiceKey) {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.downstream[dependency] = removeElement(g.downstream[dependency], dependent)
	if len(g.downstream[dependency]) == 0 {
		delete(g.downstream, dependency)
	}

	g.upstream[dependent] = removeElement(g.upstream[dependent], dependency)
	if len(g.upstream[dependent]) == 0 {
		delete(g.upstream, dependent)
	}
}

// FindDependents returns every service that transitively depends on start
func (g *DependencyGraph) FindDependents(start ServiceKey) []ServiceKey {
	g.mu.RLock()
	defer g.mu.RUnlock()

	stack := make([]ServiceKey, 0, 16)
	stack = append(stack, start)

	dependents := make([]ServiceKey, 0, 16)
	visited := make(map[ServiceKey]bool, 16)

	for len(stack) > 0 {
		current := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		if visited[current] {
			continue
		}
		visited[current] = true

		if current != start {
			dependents = append(dependents, current)
		}

		for _, dep := range g.downstream[current] {
			if !visited[dep] {
				stack = append(stack, dep)
			}
		}
	}

	return dependents
}

// Dependencies returns the direct dependencies of key
func (g *DependencyGraph) Dependencies(key ServiceKey) []ServiceKey {
	g.mu.RLock()
	defer g.mu.RUnlock()

	deps := g.upstream[key]
	result := make([]ServiceKey, len(deps))
	copy(result, deps)
	return result
}

// Export returns a copy of the dependent -> dependencies adjacency
func (g *DependencyGraph) Export() map[ServiceKey][]ServiceKey {
	g.mu.RLock()
	defer g.mu.RUnlock()

	out := make(map[ServiceKey][]ServiceKey, len(g.upstream))
	for k, deps := range g.upstream {
		cp := make([]ServiceKey, len(deps))
		copy(cp, deps)
		out[k] = cp
	}
	return out
}

// Clear drops all edges
func (g *DependencyGraph) Clear() {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.downstream = make(map[ServiceKey][]ServiceKey)
	g.upstream = make(map[ServiceKey][]ServiceKey)
}

func appendUnique[T comparable](slice []T, item T) []T {
	for _, existing := range slice {
		if existing == item {
			return slice
		}
	}
	return append(slice, item)
}

func removeElement[T comparable](slice []T, item T) []T {
	for i, existing := range slice {
		if existing == item {
			return append(slice[:i], slice[i+1:]...)
		}
	}
	return slice
}
