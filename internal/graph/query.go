package graph

import "fmt"

// Direction selects which edges Subgraph follows.
type Direction int

const (
	// Upstream follows outgoing edges: what the object depends on.
	Upstream Direction = iota
	// Downstream follows incoming edges: what depends on the object.
	Downstream
	// Both follows edges either way.
	Both
)

func (d Direction) String() string {
	switch d {
	case Upstream:
		return "upstream"
	case Downstream:
		return "downstream"
	default:
		return "both"
	}
}

// ParseDirection parses "upstream", "downstream" or "both".
func ParseDirection(s string) (Direction, error) {
	switch s {
	case "upstream", "up":
		return Upstream, nil
	case "downstream", "down":
		return Downstream, nil
	case "both", "":
		return Both, nil
	}
	return Both, fmt.Errorf("unknown direction %q", s)
}

// orientation fixes which way a walk follows edges. head is the node a
// walk moves to over an edge, tail the node it comes from.
type orientation struct {
	forward  func(g *LineageGraph, id string) []*DependencyEdge
	backward func(g *LineageGraph, id string) []*DependencyEdge
	head     func(e *DependencyEdge) string
	tail     func(e *DependencyEdge) string
}

var (
	alongEdges = orientation{
		forward:  (*LineageGraph).outgoing,
		backward: (*LineageGraph).incoming,
		head:     func(e *DependencyEdge) string { return e.Target },
		tail:     func(e *DependencyEdge) string { return e.Source },
	}
	againstEdges = orientation{
		forward:  (*LineageGraph).incoming,
		backward: (*LineageGraph).outgoing,
		head:     func(e *DependencyEdge) string { return e.Source },
		tail:     func(e *DependencyEdge) string { return e.Target },
	}
)

// FilterTransactional returns the part of g that lies on a transactional
// walk from the root: the root itself, every node reachable from the root
// through a walk that has already crossed a transactional edge, and every
// node reachable from the root that can still reach one. Edges between kept
// nodes are kept and depths are copied unchanged.
func FilterTransactional(g *LineageGraph, c *Classifier) *LineageGraph {
	return FilterTransactionalToward(g, c, Upstream)
}

// FilterTransactionalToward is FilterTransactional with walks that follow
// dir: outgoing edges for Upstream, incoming edges for Downstream, and the
// union of both for Both.
func FilterTransactionalToward(g *LineageGraph, c *Classifier, dir Direction) *LineageGraph {
	if !g.HasNode(g.Root) {
		return New(g.Root)
	}

	keep := map[string]bool{g.Root: true}
	if dir == Upstream || dir == Both {
		markTransactional(g, c, alongEdges, keep)
	}
	if dir == Downstream || dir == Both {
		markTransactional(g, c, againstEdges, keep)
	}
	return g.induced(g.Root, keep, func(n *Node) int { return n.Depth })
}

// markTransactional adds to keep every node on a root walk in orientation o
// that contains a transactional edge.
func markTransactional(g *LineageGraph, c *Classifier, o orientation, keep map[string]bool) {
	reachable := reach(g, g.Root, o)

	// Forward pass over (node, crossed-transactional) states.
	type state struct {
		id      string
		crossed bool
	}
	seen := map[state]bool{{g.Root, false}: true}
	frontier := newFIFO(state{g.Root, false})
	for frontier.len() > 0 {
		cur, _ := frontier.pop()
		if cur.crossed {
			keep[cur.id] = true
		}
		for _, e := range o.forward(g, cur.id) {
			next := state{o.head(e), cur.crossed || c.IsTransactional(*e)}
			if !seen[next] {
				seen[next] = true
				frontier.push(next)
			}
		}
	}

	// Backward pass from the tails of reachable transactional edges.
	before := make(map[string]bool)
	queue := newFIFO[string]()
	for _, e := range g.edges {
		if t := o.tail(e); c.IsTransactional(*e) && reachable[t] && !before[t] {
			before[t] = true
			queue.push(t)
		}
	}
	for queue.len() > 0 {
		id, _ := queue.pop()
		keep[id] = true
		for _, e := range o.backward(g, id) {
			if t := o.tail(e); reachable[t] && !before[t] {
				before[t] = true
				queue.push(t)
			}
		}
	}
}

// FindPath returns the shortest chain of edges leading from one object to
// another. Neighbours are explored in ascending target id, so among equally
// short paths the one with the lexicographically smallest next hop wins.
// A path from an object to itself is empty.
func FindPath(g *LineageGraph, from, to string) ([]DependencyEdge, bool) {
	if !g.HasNode(from) || !g.HasNode(to) {
		return nil, false
	}
	if from == to {
		return []DependencyEdge{}, true
	}

	via := map[string]*DependencyEdge{}
	visited := map[string]bool{from: true}
	queue := newFIFO[string]()
	queue.push(from)

	for queue.len() > 0 {
		cur, _ := queue.pop()
		for _, e := range g.outgoing(cur) {
			if visited[e.Target] {
				continue
			}
			visited[e.Target] = true
			via[e.Target] = e

			if e.Target == to {
				return unwindPath(via, from, to), true
			}
			queue.push(e.Target)
		}
	}

	return nil, false
}

func unwindPath(via map[string]*DependencyEdge, from, to string) []DependencyEdge {
	var path []DependencyEdge
	for cur := to; cur != from; {
		e := via[cur]
		path = append(path, *e)
		cur = e.Source
	}
	for i, j := 0, len(path)-1; i < j; i, j = i+1, j-1 {
		path[i], path[j] = path[j], path[i]
	}
	return path
}

// Subgraph extracts the neighbourhood of id in the given direction, at most
// maxDepth edges away (unlimited when maxDepth <= 0). The result is rooted at
// id and node depths are distances from it.
func Subgraph(g *LineageGraph, id string, dir Direction, maxDepth int) *LineageGraph {
	if !g.HasNode(id) {
		return New(id)
	}

	dist := map[string]int{id: 0}
	queue := newFIFO[string]()
	queue.push(id)

	for queue.len() > 0 {
		cur, _ := queue.pop()
		if maxDepth > 0 && dist[cur] >= maxDepth {
			continue
		}

		var next []string
		if dir == Upstream || dir == Both {
			next = append(next, g.Children(cur)...)
		}
		if dir == Downstream || dir == Both {
			next = append(next, g.Parents(cur)...)
		}
		for _, n := range next {
			if _, ok := dist[n]; ok {
				continue
			}
			dist[n] = dist[cur] + 1
			queue.push(n)
		}
	}

	keep := make(map[string]bool, len(dist))
	for n := range dist {
		keep[n] = true
	}
	return g.induced(id, keep, func(n *Node) int { return dist[n.ID()] })
}

// reach returns every node a walk in orientation o can reach from start.
func reach(g *LineageGraph, start string, o orientation) map[string]bool {
	seen := map[string]bool{start: true}
	queue := newFIFO(start)
	for queue.len() > 0 {
		cur, _ := queue.pop()
		for _, e := range o.forward(g, cur) {
			if n := o.head(e); !seen[n] {
				seen[n] = true
				queue.push(n)
			}
		}
	}
	return seen
}
