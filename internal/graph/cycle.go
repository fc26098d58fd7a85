package graph

import (
	"fmt"
	"strings"
)

// CycleInfo describes the cyclic part of a graph. Lineage graphs may be
// legitimately cyclic, so this is a report rather than an error.
type CycleInfo struct {
	TotalNodes        int      // Total number of nodes in the graph
	ProcessedNodes    int      // Nodes removed by Kahn's algorithm
	UnprocessedNodes  []string // Nodes on or downstream of a cycle
	CycleParticipants []string // Nodes that can reach themselves
	CyclePath         []string // One concrete cycle, e.g. [A, B, A]
}

// String formats the report for display.
func (ci *CycleInfo) String() string {
	msg := fmt.Sprintf("%d of %d objects take part in or depend on a cycle",
		len(ci.UnprocessedNodes), ci.TotalNodes)
	if len(ci.CyclePath) > 0 {
		msg += fmt.Sprintf("\nCycle path: %s", strings.Join(ci.CyclePath, " -> "))
	}
	if len(ci.CycleParticipants) > 0 {
		msg += fmt.Sprintf("\nObjects in cycle: %s", strings.Join(ci.CycleParticipants, ", "))
	}
	return msg
}

// DetectCycles runs Kahn's algorithm over the graph and returns nil when
// every node could be ordered, which means the graph is acyclic.
func DetectCycles(g *LineageGraph) *CycleInfo {
	inDegree := make(map[string]int, len(g.nodes))
	for id := range g.nodes {
		inDegree[id] = 0
	}
	for id := range g.nodes {
		for _, child := range g.Children(id) {
			inDegree[child]++
		}
	}

	queue := newFIFO[string]()
	for _, id := range g.NodeIDs() {
		if inDegree[id] == 0 {
			queue.push(id)
		}
	}

	processed := make(map[string]bool)
	for queue.len() > 0 {
		node, _ := queue.pop()
		processed[node] = true

		for _, child := range g.Children(node) {
			inDegree[child]--
			if inDegree[child] == 0 {
				queue.push(child)
			}
		}
	}

	if len(processed) == len(g.nodes) {
		return nil
	}

	var unprocessed []string
	unprocessedSet := make(map[string]bool)
	for _, id := range g.NodeIDs() {
		if !processed[id] {
			unprocessed = append(unprocessed, id)
			unprocessedSet[id] = true
		}
	}

	var participants []string
	for _, id := range unprocessed {
		if g.canReachSelf(id, unprocessedSet) {
			participants = append(participants, id)
		}
	}

	var path []string
	if len(participants) > 0 {
		path = g.findCyclePath(participants[0], unprocessedSet)
	}

	return &CycleInfo{
		TotalNodes:        len(g.nodes),
		ProcessedNodes:    len(processed),
		UnprocessedNodes:  unprocessed,
		CycleParticipants: participants,
		CyclePath:         path,
	}
}

// HasCycle reports whether the graph contains a cycle.
func (g *LineageGraph) HasCycle() bool {
	return DetectCycles(g) != nil
}

// findCyclePath returns the nodes of one cycle through start, with start at
// both ends, or nil.
func (g *LineageGraph) findCyclePath(start string, allowed map[string]bool) []string {
	visited := make(map[string]bool)
	path := []string{start}

	if g.dfsFindPath(start, start, visited, allowed, &path) {
		return path
	}
	return nil
}

func (g *LineageGraph) dfsFindPath(current, target string, visited, allowed map[string]bool, path *[]string) bool {
	for _, child := range g.Children(current) {
		if !allowed[child] {
			continue
		}
		if child == target {
			*path = append(*path, target)
			return true
		}
		if visited[child] {
			continue
		}

		visited[child] = true
		*path = append(*path, child)

		if g.dfsFindPath(child, target, visited, allowed, path) {
			return true
		}

		*path = (*path)[:len(*path)-1]
	}
	return false
}

// canReachSelf checks whether start lies on a cycle inside allowed.
func (g *LineageGraph) canReachSelf(start string, allowed map[string]bool) bool {
	visited := make(map[string]bool)
	queue := newFIFO[string]()
	for _, child := range g.Children(start) {
		if allowed[child] {
			queue.push(child)
		}
	}
	for queue.len() > 0 {
		cur, _ := queue.pop()
		if cur == start {
			return true
		}
		if visited[cur] {
			continue
		}
		visited[cur] = true
		for _, child := range g.Children(cur) {
			if allowed[child] && !visited[child] {
				queue.push(child)
			}
		}
	}
	return false
}
