package planner

import (
	"sort"

	"github.com/brightlinq/qplan/internal/qerrors"
	"github.com/brightlinq/qplan/internal/query"
)

// TripleGraphNode is one node of the triple graph: a triple pattern and
// the variables occurring in it.
type TripleGraphNode struct {
	Triple query.TriplePattern
	Vars   []string
}

// TripleGraph is an undirected multigraph whose nodes are triple
// patterns and whose edges connect any two nodes sharing a variable.
// Node storage is append-only; a node's id equals its index.
type TripleGraph struct {
	Nodes [][]int // adjacency lists, symmetric
	Items []TripleGraphNode
}

// BuildTripleGraph appends triples in input order, adding a symmetric
// adjacency edge between any two nodes that share a variable.
func BuildTripleGraph(triples []query.TriplePattern) *TripleGraph {
	g := &TripleGraph{}
	for _, t := range triples {
		node := TripleGraphNode{Triple: t, Vars: t.Vars()}
		newID := len(g.Items)
		g.Items = append(g.Items, node)
		g.Nodes = append(g.Nodes, nil)
		for other := 0; other < newID; other++ {
			if shareVar(g.Items[other].Vars, node.Vars) {
				g.Nodes[other] = append(g.Nodes[other], newID)
				g.Nodes[newID] = append(g.Nodes[newID], other)
			}
		}
	}
	return g
}

func shareVar(a, b []string) bool {
	set := make(map[string]bool, len(a))
	for _, v := range a {
		set[v] = true
	}
	for _, v := range b {
		if set[v] {
			return true
		}
	}
	return false
}

// isTextNode reports whether node i's triple is a text-context edge.
func (g *TripleGraph) isTextNode(i int) bool {
	return g.Items[i].Triple.IsTextNode()
}

// bfsLeaveOut performs a breadth-first search over the graph's adjacency
// lists starting at start, never stepping into a node present in
// leaveOut, and returns every node reached (including start itself,
// unless start is in leaveOut in which case it returns nil).
//
// This resolves the upstream stub of the same name: the original source
// left it as an empty no-op; here it is a real traversal.
func (g *TripleGraph) bfsLeaveOut(start int, leaveOut map[int]bool) []int {
	if leaveOut[start] {
		return nil
	}
	visited := map[int]bool{start: true}
	queue := []int{start}
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		for _, n := range g.Nodes[cur] {
			if leaveOut[n] || visited[n] {
				continue
			}
			visited[n] = true
			queue = append(queue, n)
		}
	}
	out := make([]int, 0, len(visited))
	for n := range visited {
		out = append(out, n)
	}
	sort.Ints(out)
	return out
}

// connectedComponents partitions the nodes not in leaveOut into maximal
// connected components, using only edges between two non-leaveOut nodes.
func (g *TripleGraph) connectedComponents(leaveOut map[int]bool) [][]int {
	seen := make(map[int]bool, len(g.Items))
	var components [][]int
	for i := range g.Items {
		if leaveOut[i] || seen[i] {
			continue
		}
		comp := g.bfsLeaveOut(i, leaveOut)
		for _, n := range comp {
			seen[n] = true
		}
		components = append(components, comp)
	}
	return components
}

// pickFilters retains filters whose variable operands are all covered by
// the triples of nodes (i.e. every variable the filter mentions occurs in
// at least one triple among nodes).
//
// This resolves the upstream stub of the same name: the original source
// left it as an empty no-op; here it retains exactly the filters whose
// operands the component actually covers.
func (g *TripleGraph) pickFilters(filters []query.Filter, nodes []int) []query.Filter {
	covered := make(map[string]bool)
	for _, n := range nodes {
		for _, v := range g.Items[n].Vars {
			covered[v] = true
		}
	}
	var out []query.Filter
	for _, f := range filters {
		ok := true
		for _, v := range f.Vars() {
			if !covered[v] {
				ok = false
				break
			}
		}
		if ok {
			out = append(out, f)
		}
	}
	return out
}

// SplitResult is the outcome of splitting a triple graph at its
// text-context variables: the node ids that remain for DP enumeration,
// and the filters applicable to that subgraph (context-variable filters
// are set aside and are not returned here, since text-joins themselves
// are NOT_YET_IMPLEMENTED by this engine).
type SplitResult struct {
	Nodes   []int
	Filters []query.Filter
}

// SplitAtText classifies text nodes, computes the context variables
// (variables occurring only in text nodes), sets aside any filter whose
// operand is a context variable, and finds the connected components of
// the non-text subgraph (edges that do not cross a text node). Exactly
// one non-empty component is supported; more than one is the text-join
// case and is rejected as NOT_YET_IMPLEMENTED, per §4.A.
func (g *TripleGraph) SplitAtText(filters []query.Filter) (SplitResult, error) {
	textNodes := make(map[int]bool)
	inText := make(map[string]bool)
	inNonText := make(map[string]bool)
	for i, node := range g.Items {
		if g.isTextNode(i) {
			textNodes[i] = true
			for _, v := range node.Vars {
				inText[v] = true
			}
		} else {
			for _, v := range node.Vars {
				inNonText[v] = true
			}
		}
	}

	contextVars := make(map[string]bool)
	for v := range inText {
		if !inNonText[v] {
			contextVars[v] = true
		}
	}

	var contextFilters, remaining []query.Filter
	for _, f := range filters {
		isContext := false
		for _, v := range f.Vars() {
			if contextVars[v] {
				isContext = true
				break
			}
		}
		if isContext {
			contextFilters = append(contextFilters, f)
		} else {
			remaining = append(remaining, f)
		}
	}
	_ = contextFilters // set aside: text-join filter application is out of scope

	components := g.connectedComponents(textNodes)
	if len(components) > 1 {
		return SplitResult{}, qerrors.NotYetImpl("text subgraph has %d non-text components, want 1", len(components))
	}
	var nodes []int
	if len(components) == 1 {
		nodes = components[0]
	}
	return SplitResult{Nodes: nodes, Filters: g.pickFilters(remaining, nodes)}, nil
}
