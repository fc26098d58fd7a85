package graph

import (
	"context"
	"errors"
	"sort"

	"github.com/dbsmedya/dsplineage/internal/logger"
	"github.com/dbsmedya/dsplineage/internal/types"
)

// DefaultMaxDepth bounds traversal when no explicit cap is configured.
const DefaultMaxDepth = 50

// ErrNoRecords is returned when a response holds no usable record.
var ErrNoRecords = errors.New("no usable dependency records")

// Record is one dependency record as delivered by the repository. Nested
// responses carry further records in Dependencies; flat ones do not.
type Record struct {
	ID             string
	QualifiedName  string
	Name           string
	Kind           string
	SpaceID        string
	FolderID       string
	Hash           string
	DependencyType string
	Impact         bool
	Lineage        bool
	Dependencies   []Record
}

// Object converts the record's metadata to a DesignObject.
func (r Record) Object() types.DesignObject {
	technical := r.QualifiedName
	if technical == "" {
		technical = r.Name
	}
	business := ""
	if r.Name != technical {
		business = r.Name
	}
	return types.DesignObject{
		ID:            r.ID,
		QualifiedName: r.QualifiedName,
		TechnicalName: technical,
		BusinessName:  business,
		Kind:          r.Kind,
		SpaceID:       r.SpaceID,
	}
}

// BuildReport describes what normalization did with its input.
type BuildReport struct {
	Records   int
	Skipped   int
	Detached  int
	Truncated bool

	// RootSubstituted is set when the requested root was absent and the
	// first top-level record was used instead. RequestedRoot keeps the id
	// that was asked for.
	RootSubstituted bool
	RequestedRoot   string
}

// Normalizer turns dependency records into a LineageGraph.
type Normalizer struct {
	maxDepth int
	log      *logger.Logger
}

// NewNormalizer creates a Normalizer with the given depth cap.
func NewNormalizer(maxDepth int, log *logger.Logger) *Normalizer {
	if maxDepth <= 0 {
		maxDepth = DefaultMaxDepth
	}
	if log == nil {
		log = logger.NewNop()
	}
	return &Normalizer{maxDepth: maxDepth, log: log}
}

// indexEntry collects everything known about one object id across every
// place it appears in the response.
type indexEntry struct {
	object types.DesignObject
	deps   []DependencyEdge
	seen   map[EdgeKey]int
}

// Build normalizes records into a graph rooted at rootID.
//
// Records are first indexed by id, which makes flat and nested responses
// carrying the same edges indistinguishable. The graph is then grown from
// the root depth-first: each node keeps its minimum depth, a node reached
// again at a smaller depth is expanded again, and a node already on the
// current path is linked but not descended into. Indexed objects that the
// root does not reach are added afterwards as depth-0 seeds.
//
// Records without an id are skipped and counted in the report.
func (n *Normalizer) Build(ctx context.Context, rootID string, records []Record) (*LineageGraph, BuildReport, error) {
	report := BuildReport{RequestedRoot: rootID}

	index, order, err := n.index(ctx, records, &report)
	if err != nil {
		return nil, report, err
	}
	if len(index) == 0 {
		return nil, report, ErrNoRecords
	}

	if _, ok := index[rootID]; !ok || rootID == "" {
		fallback := order[0]
		n.log.Warnw("Root object not present in response, using first record",
			"requested", rootID, "root", fallback)
		rootID = fallback
		report.RootSubstituted = true
	}

	w := &walker{
		ctx:      ctx,
		graph:    New(rootID),
		index:    index,
		visiting: make(map[string]bool),
		expanded: make(map[string]int),
		maxDepth: n.maxDepth,
	}

	w.graph.AddNode(w.object(rootID), 0, w.isStub(rootID))
	if err := w.visit(rootID, 0); err != nil {
		return nil, report, err
	}

	ids := make([]string, 0, len(index))
	for id := range index {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	for _, id := range ids {
		if w.graph.HasNode(id) || len(index[id].deps) == 0 {
			continue
		}
		report.Detached++
		w.graph.AddNode(w.object(id), 0, w.isStub(id))
		if err := w.visit(id, 0); err != nil {
			return nil, report, err
		}
	}

	report.Truncated = w.truncated
	w.graph.Truncated = w.truncated

	n.log.Debugw("Normalized lineage graph",
		"root", rootID,
		"nodes", w.graph.NodeCount(),
		"edges", w.graph.EdgeCount(),
		"skipped", report.Skipped,
		"detached", report.Detached,
		"truncated", report.Truncated)

	return w.graph, report, nil
}

// index walks every record, nested ones included, with an explicit stack.
// The returned order lists top-level ids as first seen.
func (n *Normalizer) index(ctx context.Context, records []Record, report *BuildReport) (map[string]*indexEntry, []string, error) {
	index := make(map[string]*indexEntry)
	var order []string

	entry := func(id string) *indexEntry {
		e, ok := index[id]
		if !ok {
			e = &indexEntry{object: types.DesignObject{ID: id}, seen: make(map[EdgeKey]int)}
			index[id] = e
		}
		return e
	}

	type frame struct {
		rec Record
		top bool
	}

	stack := make([]frame, 0, len(records))
	for i := len(records) - 1; i >= 0; i-- {
		stack = append(stack, frame{rec: records[i], top: true})
	}
	seenTop := make(map[string]bool)

	for len(stack) > 0 {
		if err := ctx.Err(); err != nil {
			return nil, nil, err
		}

		f := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		rec := f.rec
		report.Records++

		if rec.ID == "" {
			report.Skipped++
			n.log.Warnw("Skipping dependency record without id",
				"name", rec.Name, "kind", rec.Kind)
			continue
		}

		e := entry(rec.ID)
		e.object = e.object.Merge(rec.Object())
		if f.top && !seenTop[rec.ID] {
			seenTop[rec.ID] = true
			order = append(order, rec.ID)
		}

		for i := len(rec.Dependencies) - 1; i >= 0; i-- {
			dep := rec.Dependencies[i]
			if dep.ID == "" {
				report.Records++
				report.Skipped++
				n.log.Warnw("Skipping dependency without id",
					"source", rec.ID, "type", dep.DependencyType)
				continue
			}

			edge := DependencyEdge{
				Source:    rec.ID,
				Target:    dep.ID,
				Type:      dep.DependencyType,
				IsImpact:  dep.Impact,
				IsLineage: dep.Lineage,
			}
			if pos, ok := e.seen[edge.Key()]; ok {
				e.deps[pos].IsImpact = e.deps[pos].IsImpact || edge.IsImpact
				e.deps[pos].IsLineage = e.deps[pos].IsLineage || edge.IsLineage
			} else {
				e.seen[edge.Key()] = len(e.deps)
				e.deps = append(e.deps, edge)
			}

			stack = append(stack, frame{rec: dep})
		}
	}

	if len(order) == 0 {
		for id := range index {
			order = append(order, id)
		}
		sort.Strings(order)
	}

	for _, e := range index {
		sort.Slice(e.deps, func(i, j int) bool { return edgeLess(e.deps[i], e.deps[j]) })
	}

	return index, order, nil
}

type walker struct {
	ctx       context.Context
	graph     *LineageGraph
	index     map[string]*indexEntry
	visiting  map[string]bool
	expanded  map[string]int
	maxDepth  int
	truncated bool
}

func (w *walker) object(id string) types.DesignObject {
	if e, ok := w.index[id]; ok {
		return e.object
	}
	return types.DesignObject{ID: id}
}

// isStub reports whether nothing but the id is known about an object.
func (w *walker) isStub(id string) bool {
	o := w.object(id)
	return o.QualifiedName == "" && o.TechnicalName == "" && o.BusinessName == "" && o.Kind == ""
}

func (w *walker) visit(id string, depth int) error {
	if err := w.ctx.Err(); err != nil {
		return err
	}

	w.expanded[id] = depth
	e, ok := w.index[id]
	if !ok || len(e.deps) == 0 {
		return nil
	}
	if depth >= w.maxDepth {
		w.truncated = true
		return nil
	}

	w.visiting[id] = true
	defer delete(w.visiting, id)

	for _, edge := range e.deps {
		child := depth + 1
		w.graph.AddNode(w.object(edge.Target), child, w.isStub(edge.Target))
		w.graph.AddEdge(edge)

		if w.visiting[edge.Target] {
			continue
		}
		if d, seen := w.expanded[edge.Target]; seen && d <= child {
			continue
		}
		if err := w.visit(edge.Target, child); err != nil {
			return err
		}
	}
	return nil
}
