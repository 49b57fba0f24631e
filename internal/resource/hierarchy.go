package resource

import (
	"sort"

	"github.com/dominikbraun/graph"

	apperrors "github.com/classmeta/pkg/errors"
)

const (
	edgeKind       = "kind"
	edgeExtends    = "extends"
	edgeImplements = "implements"
)

// Relation is a direct supertype link.
type Relation struct {
	Name string `json:"name"`
	Kind string `json:"kind"`
}

// Hierarchy is the supertype graph of a resource snapshot. Types referenced
// but not defined in the resource appear as leaf vertices. Later changes to
// the resource are not reflected.
type Hierarchy struct {
	res  *Resource
	up   graph.Graph[string, string] // class -> direct supertypes
	down graph.Graph[string, string] // class -> direct subtypes
}

// NewHierarchy builds the hierarchy of every class currently in res.
func NewHierarchy(res *Resource) *Hierarchy {
	h := &Hierarchy{
		res:  res,
		up:   graph.New(graph.StringHash, graph.Directed()),
		down: graph.New(graph.StringHash, graph.Directed()),
	}
	for _, ci := range res.Classes() {
		h.addVertex(ci.Name())
		if ci.HasSuperName() {
			h.link(ci.Name(), ci.SuperName(), edgeExtends)
		}
		for _, iface := range ci.Interfaces() {
			h.link(ci.Name(), iface, edgeImplements)
		}
	}
	return h
}

func (h *Hierarchy) addVertex(name string) {
	_ = h.up.AddVertex(name)
	_ = h.down.AddVertex(name)
}

// link records child -> parent. A repeated edge keeps its first kind.
func (h *Hierarchy) link(child, parent, kind string) {
	h.addVertex(parent)
	_ = h.up.AddEdge(child, parent, graph.EdgeAttribute(edgeKind, kind))
	_ = h.down.AddEdge(parent, child, graph.EdgeAttribute(edgeKind, kind))
}

// Len returns the number of types, including external ones.
func (h *Hierarchy) Len() int {
	n, _ := h.up.Order()
	return n
}

// Contains reports whether name is a vertex of the hierarchy.
func (h *Hierarchy) Contains(name string) bool {
	_, err := h.up.Vertex(name)
	return err == nil
}

// Parents returns the direct supertypes of a class: the superclass first,
// then interfaces in declaration order. External types have no known parents.
func (h *Hierarchy) Parents(name string) ([]Relation, error) {
	if !h.Contains(name) {
		return nil, notInHierarchy(name)
	}
	out := []Relation{}
	ci, ok := h.res.GetClass(name)
	if !ok {
		return out, nil
	}
	if ci.HasSuperName() {
		out = append(out, Relation{Name: ci.SuperName(), Kind: edgeExtends})
	}
	for _, iface := range ci.Interfaces() {
		out = append(out, Relation{Name: iface, Kind: edgeImplements})
	}
	return out, nil
}

// Children returns the direct subtypes of a type sorted by name.
func (h *Hierarchy) Children(name string) ([]Relation, error) {
	adj, err := h.down.AdjacencyMap()
	if err != nil {
		return nil, apperrors.Wrap(apperrors.CodeInvalidInput, "hierarchy adjacency", err)
	}
	edges, ok := adj[name]
	if !ok {
		return nil, notInHierarchy(name)
	}
	out := make([]Relation, 0, len(edges))
	for child, e := range edges {
		out = append(out, Relation{Name: child, Kind: e.Properties.Attributes[edgeKind]})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

// AllParents returns every transitive supertype, sorted, excluding name.
func (h *Hierarchy) AllParents(name string) ([]string, error) {
	return reachable(h.up, name)
}

// AllChildren returns every transitive subtype, sorted, excluding name.
func (h *Hierarchy) AllChildren(name string) ([]string, error) {
	return reachable(h.down, name)
}

// SuperChain follows superclasses from name upwards. The chain ends at the
// first type not defined in the resource or when a type repeats.
func (h *Hierarchy) SuperChain(name string) ([]string, error) {
	if !h.Contains(name) {
		return nil, notInHierarchy(name)
	}
	chain := []string{}
	seen := map[string]bool{name: true}
	for cur := name; ; {
		ci, ok := h.res.GetClass(cur)
		if !ok || !ci.HasSuperName() {
			return chain, nil
		}
		cur = ci.SuperName()
		if seen[cur] {
			return chain, nil
		}
		seen[cur] = true
		chain = append(chain, cur)
	}
}

// Cycles returns groups of types that are their own supertypes. Valid
// input has none; each group and the list are sorted.
func (h *Hierarchy) Cycles() ([][]string, error) {
	sccs, err := graph.StronglyConnectedComponents(h.up)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.CodeInvalidInput, "hierarchy components", err)
	}
	out := [][]string{}
	for _, c := range sccs {
		if len(c) < 2 {
			continue
		}
		sort.Strings(c)
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i][0] < out[j][0] })
	return out, nil
}

func reachable(g graph.Graph[string, string], start string) ([]string, error) {
	if _, err := g.Vertex(start); err != nil {
		return nil, notInHierarchy(start)
	}
	out := []string{}
	err := graph.BFS(g, start, func(v string) bool {
		if v != start {
			out = append(out, v)
		}
		return false
	})
	if err != nil {
		return nil, apperrors.Wrap(apperrors.CodeInvalidInput, "hierarchy traversal", err)
	}
	sort.Strings(out)
	return out, nil
}

func notInHierarchy(name string) error {
	return apperrors.New(apperrors.CodeNotFound, "type not in hierarchy: "+name)
}
