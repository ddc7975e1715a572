package rendergraph

import (
	"fmt"
	"slices"
	"sort"
)

type groupEntry struct {
	task  Task
	id    string
	order Order
	after []string
}

// TaskGroup holds every producer of one resource in execution order.
type TaskGroup struct {
	Tag       string
	Ownership Ownership
	resource  Resource
	entries   []groupEntry
}

// Resource returns the instance the group writes to.
func (g *TaskGroup) Resource() Resource { return g.resource }

// Tasks returns the producers in execution order.
func (g *TaskGroup) Tasks() []Task {
	out := make([]Task, len(g.entries))
	for i, e := range g.entries {
		out[i] = e.task
	}
	return out
}

// TaskIDs returns the ids of the producers in execution order.
func (g *TaskGroup) TaskIDs() []string {
	out := make([]string, len(g.entries))
	for i, e := range g.entries {
		out[i] = e.id
	}
	return out
}

// insert places e after every entry whose order is lower or equal, so equal
// orders keep their discovery sequence.
func (g *TaskGroup) insert(e groupEntry) {
	i := sort.Search(len(g.entries), func(i int) bool { return g.entries[i].order > e.order })
	g.entries = slices.Insert(g.entries, i, e)
}

// applyPredecessors reorders entries so that every explicit predecessor
// comes first. Among ready entries the one with the lowest current position
// wins, which keeps the Order placement wherever predecessors allow it.
// Predecessors that do not write this resource are ignored.
func (g *TaskGroup) applyPredecessors() error {
	pos := make(map[string]int, len(g.entries))
	for i, e := range g.entries {
		pos[e.id] = i
	}
	indegree := make([]int, len(g.entries))
	succ := make([][]int, len(g.entries))
	edges := 0
	for i, e := range g.entries {
		for _, p := range e.after {
			j, ok := pos[p]
			if !ok || j == i {
				continue
			}
			succ[j] = append(succ[j], i)
			indegree[i]++
			edges++
		}
	}
	if edges == 0 {
		return nil
	}

	done := make([]bool, len(g.entries))
	sorted := make([]groupEntry, 0, len(g.entries))
	for len(sorted) < len(g.entries) {
		pick := -1
		for i := range g.entries {
			if !done[i] && indegree[i] == 0 {
				pick = i
				break
			}
		}
		if pick < 0 {
			var stuck []string
			for i, e := range g.entries {
				if !done[i] {
					stuck = append(stuck, e.id)
				}
			}
			return fmt.Errorf("%w: explicit predecessors loop between %v", ErrCycle, stuck)
		}
		done[pick] = true
		sorted = append(sorted, g.entries[pick])
		for _, s := range succ[pick] {
			indegree[s]--
		}
	}
	g.entries = sorted
	return nil
}

// orderTies returns runs of adjacent producers sharing the same order.
func (g *TaskGroup) orderTies() [][]string {
	var ties [][]string
	for i := 0; i < len(g.entries); {
		j := i + 1
		for j < len(g.entries) && g.entries[j].order == g.entries[i].order {
			j++
		}
		if j-i > 1 {
			ids := make([]string, 0, j-i)
			for _, e := range g.entries[i:j] {
				ids = append(ids, e.id)
			}
			ties = append(ties, ids)
		}
		i = j
	}
	return ties
}
