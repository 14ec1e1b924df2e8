package transcoding

import (
	"path/filepath"
	"sort"
	"strings"

	"syncplaylists/filetype"
)

// CopyName is the reserved name of the always-registered identity transcoder.
const CopyName Name = "copy"

// Registry holds constructed transcoder instances keyed by name, and plans
// transcoding paths for a given input file.
type Registry struct {
	transcoders map[Name]Transcoder
}

// NewRegistry constructs every transcoder known to factories using settings,
// plus the built-in copy transcoder. Every key in settings must resolve to a
// factory in factories, or construction fails with *UnknownTranscoderError.
func NewRegistry(factories map[Name]Factory, settings Settings) (*Registry, error) {
	r := &Registry{transcoders: map[Name]Transcoder{CopyName: newCopyTranscoder()}}

	remaining := settings.AllNames()
	for name, factory := range factories {
		if name == CopyName {
			continue
		}
		opts := settings.ForName(name)
		delete(remaining, name)
		t, err := factory(opts)
		if err != nil {
			return nil, &InvalidSettingsError{Name: name, Err: err}
		}
		r.transcoders[name] = t
	}
	if len(remaining) > 0 {
		names := make([]string, 0, len(remaining))
		for n := range remaining {
			names = append(names, string(n))
		}
		sort.Strings(names)
		return nil, &UnknownTranscoderError{Name: Name(strings.Join(names, ", "))}
	}
	return r, nil
}

// GetTranscoder implements Lookup.
func (r *Registry) GetTranscoder(name Name) (Transcoder, bool) {
	t, ok := r.transcoders[name]
	return t, ok
}

// edge is one multigraph edge: a transcoder instance keyed to a name,
// traversing from SrcType to DstType.
type edge struct {
	name   Name
	dst    filetype.FileType
	cost   int
	isCopy bool
}

// Graph is the directed multigraph built by MapPipelines: nodes are
// FileTypes, edges are named transcoder traversals. It is exposed primarily
// for diagnostics/visualization.
type Graph struct {
	nodes map[filetype.FileType]bool
	edges map[filetype.FileType][]edge
}

func newGraph() *Graph {
	return &Graph{nodes: map[filetype.FileType]bool{}, edges: map[filetype.FileType][]edge{}}
}

func (g *Graph) addNode(t filetype.FileType) {
	g.nodes[t] = true
}

func (g *Graph) addEdge(src filetype.FileType, e edge) {
	g.edges[src] = append(g.edges[src], e)
}

// Nodes returns every FileType discovered while planning.
func (g *Graph) Nodes() []filetype.FileType {
	out := make([]filetype.FileType, 0, len(g.nodes))
	for n := range g.nodes {
		out = append(out, n)
	}
	return out
}

// MapPipelines builds the per-input directed multigraph for src and returns
// it alongside every ranked TranscodingPath: the single-step copy path plus
// every simple edge path from src's type to any reachable type, sorted
// ascending by cost with copy always first on ties, and with any multi-step
// path through copy discarded.
func (r *Registry) MapPipelines(src string) (*Graph, []Path, error) {
	srcType := filetype.FromPath(src)
	g := newGraph()

	explored := map[filetype.FileType]bool{srcType: false}
	order := []filetype.FileType{srcType}

	for {
		var next filetype.FileType
		found := false
		for _, t := range order {
			if !explored[t] {
				next = t
				found = true
				break
			}
		}
		if !found {
			break
		}
		g.addNode(next)

		probe := filepath.Join(filepath.Dir(src), stem(src)+"."+string(next))
		for name, t := range r.transcoders {
			dsts, err := t.CanTranscode(probe)
			if err != nil {
				return nil, nil, err
			}
			for _, d := range dsts {
				g.addNode(d)
				g.addEdge(next, edge{name: name, dst: d, cost: t.Cost(), isCopy: name == CopyName})
				if _, seen := explored[d]; !seen {
					explored[d] = false
					order = append(order, d)
				}
			}
		}
		explored[next] = true
	}

	type rawPath struct {
		cost  int
		steps []Step
	}
	var raw []rawPath

	// Copy self-path is always present, regardless of what was discovered.
	raw = append(raw, rawPath{cost: r.transcoders[CopyName].Cost(), steps: []Step{{SrcType: srcType, DstType: srcType, TranscoderName: CopyName}}})

	for _, target := range order {
		for _, p := range enumerateSimplePaths(g, srcType, target) {
			if len(p) == 0 {
				continue
			}
			if len(p) > 1 {
				skip := false
				for _, e := range p {
					if e.isCopy {
						skip = true
						break
					}
				}
				if skip {
					continue
				}
			}
			cost := 0
			steps := make([]Step, 0, len(p))
			s := srcType
			for _, e := range p {
				steps = append(steps, Step{SrcType: s, DstType: e.dst, TranscoderName: e.name})
				cost += e.cost
				s = e.dst
			}
			raw = append(raw, rawPath{cost: cost, steps: steps})
		}
	}

	sort.SliceStable(raw, func(i, j int) bool { return raw[i].cost < raw[j].cost })

	paths := make([]Path, 0, len(raw))
	for _, rp := range raw {
		paths = append(paths, Path{Cost: rp.cost, Steps: rp.steps})
	}
	return g, paths, nil
}

// pathEdge is an edge as it appears in an enumerated path; the node it
// departs from is implied by the previous edge (or the path's source).
type pathEdge = edge

// enumerateSimplePaths returns every simple (no repeated node) path of edges
// from src to dst using a recursive depth-first traversal, per spec.md §9's
// guidance to avoid a general graph library for this. Node-simplicity (not
// merely edge-simplicity) matches the upstream graph library's actual
// all_simple_edge_paths behavior: a path may never revisit a node, which in
// particular rules out ever looping back through a self-edge (e.g. "copy")
// to reach a node already on the path, including src itself.
func enumerateSimplePaths(g *Graph, src, dst filetype.FileType) [][]pathEdge {
	var results [][]pathEdge

	var walk func(node filetype.FileType, path []pathEdge, visited map[filetype.FileType]bool)
	walk = func(node filetype.FileType, path []pathEdge, visited map[filetype.FileType]bool) {
		if len(path) > 0 && node == dst {
			cp := make([]pathEdge, len(path))
			copy(cp, path)
			results = append(results, cp)
			return
		}
		if len(path) > 64 {
			// defensive bound: spec notes path counts are small in practice.
			return
		}
		for _, e := range g.edges[node] {
			if visited[e.dst] {
				continue
			}
			nv := make(map[filetype.FileType]bool, len(visited)+1)
			for k, v := range visited {
				nv[k] = v
			}
			nv[e.dst] = true
			walk(e.dst, append(append([]pathEdge{}, path...), e), nv)
		}
	}
	walk(src, nil, map[filetype.FileType]bool{src: true})
	return results
}

func stem(p string) string {
	base := filepath.Base(p)
	ext := filepath.Ext(base)
	return strings.TrimSuffix(base, ext)
}
