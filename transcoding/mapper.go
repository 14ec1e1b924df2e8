package transcoding

import (
	"path/filepath"
	"sync"

	"syncplaylists/dzutil"
	"syncplaylists/filetype"
)

// Mapper resolves a source path to its mapped destination path (same
// parent/stem, extension set by the cheapest policy-accepted pipeline),
// caching the pipeline lookup per path. It implements PathLookup.
type Mapper struct {
	registry *Registry
	selector *PolicySelector

	mu    sync.Mutex
	cache map[string][]Path
}

// NewMapper builds a Mapper over registry, filtering candidate pipelines
// through selector.
func NewMapper(registry *Registry, selector *PolicySelector) *Mapper {
	return &Mapper{registry: registry, selector: selector, cache: map[string][]Path{}}
}

func (m *Mapper) feedCache(path string) ([]Path, error) {
	m.mu.Lock()
	if cached, ok := m.cache[path]; ok {
		m.mu.Unlock()
		return cached, nil
	}
	m.mu.Unlock()

	_, allPaths, err := m.registry.MapPipelines(path)
	if err != nil {
		return nil, err
	}
	paths := m.selector.SelectPipelines(allPaths, path, "", nil)

	m.mu.Lock()
	m.cache[path] = paths
	m.mu.Unlock()
	return paths, nil
}

// Map returns the destination path implied by the cheapest policy-accepted
// pipeline for path: same parent directory and stem, with the pipeline's
// final destination type as extension. Returns *NoPipelineError if no
// pipeline is accepted.
func (m *Mapper) Map(path string) (string, error) {
	paths, err := m.feedCache(path)
	if err != nil {
		return "", err
	}
	if len(paths) == 0 {
		return "", &NoPipelineError{Src: path}
	}
	best := paths[0]
	dir := filepath.Dir(path)
	stem := dzutil.RemoveExt(filepath.Base(path))
	return filepath.Join(dir, stem+"."+string(best.DstType())), nil
}

// Lookup implements PathLookup, returning every policy-accepted candidate
// path for src, ranked cheapest first.
func (m *Mapper) Lookup(src string) ([]Path, error) {
	return m.feedCache(src)
}

// LookupWithGraph mirrors Lookup but also returns the underlying multigraph
// (for diagnostics) and accepts an explicit destination-type/pipeline
// constraint instead of relying on the cache.
func (m *Mapper) LookupWithGraph(src string, dsttype filetype.FileType, pipeline []Name) (*Graph, []Path, error) {
	graph, all, err := m.registry.MapPipelines(src)
	if err != nil {
		return nil, nil, err
	}
	return graph, m.selector.SelectPipelines(all, src, dsttype, pipeline), nil
}
