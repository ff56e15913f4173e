package compiler

import "github.com/roach88/apigen/internal/ir"

// embedGraph maps a plain struct name to the plain structs it embeds by
// value, in field order. nodes keeps declaration order so results do not
// depend on map iteration.
type embedGraph struct {
	nodes []string
	edges map[string][]string
}

func buildEmbedGraph(structs []ir.PlainStruct) embedGraph {
	g := embedGraph{edges: make(map[string][]string, len(structs))}
	for _, s := range structs {
		g.nodes = append(g.nodes, s.Name)
		g.edges[s.Name] = []string{}
		for _, f := range s.Fields {
			if f.Type.Kind == ir.KindStruct && !f.IsPointer() {
				g.edges[s.Name] = append(g.edges[s.Name], f.Type.Name)
			}
		}
	}
	return g
}

// findEmbeddingCycle returns the first by-value embedding cycle among
// structs as a closed path ["A", "B", "A"], or nil when the embedding
// graph is a DAG.
func findEmbeddingCycle(structs []ir.PlainStruct) []string {
	g := buildEmbedGraph(structs)
	for _, scc := range tarjanSCC(g) {
		if len(scc) > 1 || hasSelfLoop(scc[0], g) {
			return reconstructCyclePath(scc, g)
		}
	}
	return nil
}

func hasSelfLoop(node string, g embedGraph) bool {
	for _, n := range g.edges[node] {
		if n == node {
			return true
		}
	}
	return false
}

// tarjanSCC finds strongly connected components with Tarjan's algorithm.
// Components come out in reverse topological order; within the search,
// roots are tried in declaration order.
func tarjanSCC(g embedGraph) [][]string {
	var (
		index   = 0
		stack   []string
		indices = make(map[string]int)
		lowlink = make(map[string]int)
		onStack = make(map[string]bool)
		sccs    [][]string
	)

	var strongConnect func(string)
	strongConnect = func(v string) {
		indices[v] = index
		lowlink[v] = index
		index++
		stack = append(stack, v)
		onStack[v] = true

		for _, w := range g.edges[v] {
			if _, visited := indices[w]; !visited {
				strongConnect(w)
				lowlink[v] = min(lowlink[v], lowlink[w])
			} else if onStack[w] {
				lowlink[v] = min(lowlink[v], indices[w])
			}
		}

		if lowlink[v] == indices[v] {
			var scc []string
			for {
				w := stack[len(stack)-1]
				stack = stack[:len(stack)-1]
				onStack[w] = false
				scc = append(scc, w)
				if w == v {
					break
				}
			}
			sccs = append(sccs, scc)
		}
	}

	for _, node := range g.nodes {
		if _, visited := indices[node]; !visited {
			strongConnect(node)
		}
	}
	return sccs
}

// reconstructCyclePath finds a closed walk inside scc starting from its
// declaration-first member.
func reconstructCyclePath(scc []string, g embedGraph) []string {
	members := make(map[string]bool, len(scc))
	for _, n := range scc {
		members[n] = true
	}
	start := scc[0]
	for _, n := range g.nodes {
		if members[n] {
			start = n
			break
		}
	}

	visited := map[string]bool{}
	var path []string
	var walk func(string) bool
	walk = func(v string) bool {
		path = append(path, v)
		visited[v] = true
		for _, w := range g.edges[v] {
			if w == start {
				path = append(path, w)
				return true
			}
			if members[w] && !visited[w] && walk(w) {
				return true
			}
		}
		path = path[:len(path)-1]
		return false
	}
	walk(start)
	return path
}
