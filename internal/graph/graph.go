// Package graph keeps the symmetric relationship adjacency between context
// item identifiers.
package graph

import "sort"

// Graph is an undirected adjacency set. It is not safe for concurrent use;
// the owning store guards it.
type Graph struct {
	adj map[string]map[string]struct{}
}

// New returns an empty graph.
func New() *Graph {
	return &Graph{adj: map[string]map[string]struct{}{}}
}

// Link relates a and b in both directions. Repeated links and self links are no-ops.
func (g *Graph) Link(a, b string) {
	if a == "" || b == "" || a == b {
		return
	}
	g.add(a, b)
	g.add(b, a)
}

func (g *Graph) add(from, to string) {
	set, ok := g.adj[from]
	if !ok {
		set = map[string]struct{}{}
		g.adj[from] = set
	}
	set[to] = struct{}{}
}

// Neighbors returns the ids directly linked to id, sorted.
func (g *Graph) Neighbors(id string) []string {
	return sortedKeys(g.adj[id])
}

// Related expands breadth-first from start for maxDepth rounds and returns
// every id discovered, excluding start. Unknown ids yield nil.
func (g *Graph) Related(start string, maxDepth int) []string {
	if maxDepth <= 0 {
		return nil
	}
	found := map[string]struct{}{}
	visited := map[string]struct{}{}
	frontier := []string{start}

	for depth := 0; depth < maxDepth && len(frontier) > 0; depth++ {
		var next []string
		for _, id := range frontier {
			if _, ok := visited[id]; ok {
				continue
			}
			visited[id] = struct{}{}
			for n := range g.adj[id] {
				found[n] = struct{}{}
				if _, ok := visited[n]; !ok {
					next = append(next, n)
				}
			}
		}
		frontier = next
	}
	delete(found, start)
	if len(found) == 0 {
		return nil
	}
	return sortedKeys(found)
}

// Remove drops id and every edge that points at it. It returns the former neighbors.
func (g *Graph) Remove(id string) []string {
	neighbors := sortedKeys(g.adj[id])
	for _, n := range neighbors {
		if set, ok := g.adj[n]; ok {
			delete(set, id)
			if len(set) == 0 {
				delete(g.adj, n)
			}
		}
	}
	delete(g.adj, id)
	return neighbors
}

// Export returns the adjacency as id -> sorted related ids.
func (g *Graph) Export() map[string][]string {
	out := make(map[string][]string, len(g.adj))
	for id, set := range g.adj {
		if len(set) > 0 {
			out[id] = sortedKeys(set)
		}
	}
	return out
}

// Import links every pair in m, repairing any missing mirror edges.
func (g *Graph) Import(m map[string][]string) {
	for a, list := range m {
		for _, b := range list {
			g.Link(a, b)
		}
	}
}

// Len returns the number of ids with at least one edge.
func (g *Graph) Len() int {
	return len(g.adj)
}

func sortedKeys(set map[string]struct{}) []string {
	if len(set) == 0 {
		return nil
	}
	out := make([]string, 0, len(set))
	for k := range set {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
