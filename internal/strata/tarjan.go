package strata

import "sort"

// sccs returns the strongly connected components of g, each as a list of
// rule ids, via Tarjan's algorithm. Component order is not meaningful on
// its own; Stratify further orders rules within and across components.
func (g *Graph) sccs() [][]int {
	t := &tarjanState{
		index:   make(map[int]int),
		lowlink: make(map[int]int),
		onStack: make(map[int]bool),
	}
	ids := make([]int, len(g.rules))
	for i, r := range g.rules {
		ids[i] = r.Id
	}
	sort.Ints(ids)

	for _, id := range ids {
		if _, visited := t.index[id]; !visited {
			t.strongconnect(g, id)
		}
	}
	return t.result
}

type tarjanState struct {
	counter int
	index   map[int]int
	lowlink map[int]int
	onStack map[int]bool
	stack   []int
	result  [][]int
}

func (t *tarjanState) strongconnect(g *Graph, v int) {
	t.index[v] = t.counter
	t.lowlink[v] = t.counter
	t.counter++
	t.stack = append(t.stack, v)
	t.onStack[v] = true

	for _, w := range g.edges[v] {
		if _, visited := t.index[w]; !visited {
			t.strongconnect(g, w)
			if t.lowlink[w] < t.lowlink[v] {
				t.lowlink[v] = t.lowlink[w]
			}
		} else if t.onStack[w] {
			if t.index[w] < t.lowlink[v] {
				t.lowlink[v] = t.index[w]
			}
		}
	}

	if t.lowlink[v] == t.index[v] {
		var component []int
		for {
			n := len(t.stack) - 1
			w := t.stack[n]
			t.stack = t.stack[:n]
			t.onStack[w] = false
			component = append(component, w)
			if w == v {
				break
			}
		}
		t.result = append(t.result, component)
	}
}
