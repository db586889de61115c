// toposort orders objects so that each one comes after everything it depends
// on, and finds the dependency cycles that make such an order impossible.
package toposort

import (
	"sort"

	"golang.org/x/exp/constraints"
)

type Sortable[K constraints.Ordered] interface {
	SortKey() K     // sorted by this, ascending
	DependsOn() []K // what they depend on
}

// Sort returns the nodes in dependency order: every node appears after the
// nodes it depends on. Among nodes with no ordering constraint between them,
// the node with the smaller SortKey comes first, so the result does not depend
// on the initial ordering of the slice.
//
// Dependencies on keys that are not in the graph are ignored. Cycles do not
// cause an error; the cycle is broken at the first node the walk revisits (use
// [Cycles] to report them). For the graph
//
//	a -> b -> c
//	a -> e
//	b -> d -> e
//	x
//	y -> z
//
// the result is
//
//	c, e, d, b, a, x, z, y
//
// with O(n log n + m) complexity for n nodes and m edges.
func Sort[K constraints.Ordered, T Sortable[K]](nodes []T) []T {
	state := &sortState[K, T]{
		permanent: make(map[K]void, len(nodes)),
		temporary: make(map[K]void, len(nodes)),
		byKey:     make(map[K]T, len(nodes)),
		result:    make([]T, 0, len(nodes)),
	}
	for _, obj := range nodes {
		state.byKey[obj.SortKey()] = obj
	}
	ordered := sorted(nodes)
	for _, obj := range ordered {
		visit(state, obj)
	}
	return state.result
}

type void struct{}

type sortState[K constraints.Ordered, T Sortable[K]] struct {
	permanent map[K]void
	temporary map[K]void
	byKey     map[K]T
	result    []T
}

func visit[K constraints.Ordered, T Sortable[K]](state *sortState[K, T], node T) {
	key := node.SortKey()
	if _, ok := state.permanent[key]; ok {
		return
	}
	if _, ok := state.temporary[key]; ok {
		// part of a cycle that is already being walked.
		return
	}
	state.temporary[key] = void{}
	for _, childKey := range node.DependsOn() {
		if childNode, ok := state.byKey[childKey]; ok {
			visit(state, childNode)
		}
	}
	delete(state.temporary, key)
	state.permanent[key] = void{}
	state.result = append(state.result, node)
}

// Cycles returns every strongly connected component of the dependency graph
// that contains a cycle, including nodes that depend on themselves. Each
// cycle's keys are sorted ascending, and the cycles are sorted by their first
// key.
func Cycles[K constraints.Ordered, T Sortable[K]](nodes []T) [][]K {
	state := &tarjanState[K, T]{
		byKey:   make(map[K]T, len(nodes)),
		index:   make(map[K]int, len(nodes)),
		lowlink: make(map[K]int, len(nodes)),
		onStack: make(map[K]bool, len(nodes)),
	}
	for _, obj := range nodes {
		state.byKey[obj.SortKey()] = obj
	}
	for _, obj := range sorted(nodes) {
		if _, seen := state.index[obj.SortKey()]; !seen {
			strongConnect(state, obj)
		}
	}
	sort.Slice(state.cycles, func(i, j int) bool {
		return state.cycles[i][0] < state.cycles[j][0]
	})
	return state.cycles
}

type tarjanState[K constraints.Ordered, T Sortable[K]] struct {
	byKey   map[K]T
	index   map[K]int
	lowlink map[K]int
	onStack map[K]bool
	stack   []K
	next    int
	cycles  [][]K
}

func strongConnect[K constraints.Ordered, T Sortable[K]](state *tarjanState[K, T], node T) {
	key := node.SortKey()
	state.index[key] = state.next
	state.lowlink[key] = state.next
	state.next++
	state.stack = append(state.stack, key)
	state.onStack[key] = true

	selfLoop := false
	for _, childKey := range node.DependsOn() {
		child, ok := state.byKey[childKey]
		if !ok {
			continue
		}
		if childKey == key {
			selfLoop = true
		}
		if _, seen := state.index[childKey]; !seen {
			strongConnect(state, child)
			state.lowlink[key] = min(state.lowlink[key], state.lowlink[childKey])
		} else if state.onStack[childKey] {
			state.lowlink[key] = min(state.lowlink[key], state.index[childKey])
		}
	}

	if state.lowlink[key] != state.index[key] {
		return
	}
	var component []K
	for {
		top := state.stack[len(state.stack)-1]
		state.stack = state.stack[:len(state.stack)-1]
		state.onStack[top] = false
		component = append(component, top)
		if top == key {
			break
		}
	}
	if len(component) > 1 || selfLoop {
		sort.Slice(component, func(i, j int) bool { return component[i] < component[j] })
		state.cycles = append(state.cycles, component)
	}
}

// sorted returns a copy of nodes ordered by SortKey, ascending, so that the
// walks above visit nodes in the same order no matter how they were passed in.
func sorted[K constraints.Ordered, T Sortable[K]](nodes []T) []T {
	out := make([]T, len(nodes))
	copy(out, nodes)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].SortKey() < out[j].SortKey()
	})
	return out
}
