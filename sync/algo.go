package sync

import (
	"path/filepath"
	"strings"

	"syncplaylists/pathmap"
	"syncplaylists/transcoding"
)

// within reports whether subpath equals path or lies beneath it.
func within(path, subpath string) bool {
	if path == subpath {
		return true
	}
	rel, err := filepath.Rel(path, subpath)
	if err != nil {
		return false
	}
	return rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}

// TransferItem describes one file that will be copied/transcoded from
// Source to Target using Path.
type TransferItem struct {
	Source string
	Target string
	Path   transcoding.Path
}

// Plan is the outcome of ComputeSynchronization: what will be transferred,
// what couldn't be, what's already up to date, and what's slated for
// deletion from the target.
type Plan struct {
	WillTransfer       []TransferItem
	CantTransfer       map[string]error
	AlreadyTransferred map[string]string
	Deleting           []string
}

func multimap(f string, mappers []pathmap.Mapper) (string, error) {
	for _, m := range mappers {
		mapped, err := m.Map(f)
		if err != nil {
			return "", err
		}
		abs, err := filepath.Abs(mapped)
		if err != nil {
			return "", err
		}
		f = abs
	}
	return f, nil
}

// ComputeSynchronization compares sourceFiles (found via playlists, all
// beneath sourceBasedir) against targetFiles (found by recursively
// scanning targetBasedir) and decides, for each source file, whether it
// needs to be transferred, has already been transferred, or cannot be
// transferred — along with which target files no longer correspond to any
// source file and should be deleted.
//
// sourceMappers transform a source path into its destination-relative
// form (e.g. transcoding extension remapping) before the relative path
// beneath sourceBasedir is computed; targetMappers further transform the
// resulting absolute target path (e.g. VFAT legalization). transcodePather
// resolves the cheapest transcoding pipeline for a source file; comparator
// decides whether the source is newer than an existing target.
//
// Target files within excludeBeneath are never proposed for deletion, and
// source files that map into excludeBeneath are silently skipped.
func ComputeSynchronization(
	sourceFiles []string,
	sourceBasedir string,
	targetFiles []string,
	targetBasedir string,
	sourceMappers []pathmap.Mapper,
	targetMappers []pathmap.Mapper,
	transcodePather transcoding.PathLookup,
	comparator pathmap.Comparator,
	excludeBeneath []string,
) (Plan, error) {
	plan := Plan{
		CantTransfer:       map[string]error{},
		AlreadyTransferred: map[string]string{},
	}

	deleting := map[string]bool{}
	order := make([]string, 0, len(targetFiles))
	for _, t := range targetFiles {
		excluded := false
		for _, root := range excludeBeneath {
			if within(root, t) {
				excluded = true
				break
			}
		}
		if !excluded {
			if _, seen := deleting[t]; !seen {
				order = append(order, t)
			}
			deleting[t] = true
		}
		// Warm up the target mappers so paths with different casing are
		// discovered consistently later on.
		if _, err := multimap(t, targetMappers); err != nil {
			return Plan{}, err
		}
	}

	alreadyProcessed := map[string]bool{}
	alreadyForeseen := map[string]string{}

	for _, src := range sourceFiles {
		if !within(sourceBasedir, src) {
			return Plan{}, &SourcePathOutOfBaseError{Source: src, Base: sourceBasedir}
		}
		if alreadyProcessed[src] {
			continue
		}
		alreadyProcessed[src] = true

		srcMapped, err := multimap(src, sourceMappers)
		if err != nil {
			plan.CantTransfer[src] = err
			continue
		}
		paths, err := transcodePather.Lookup(src)
		if err != nil {
			plan.CantTransfer[src] = err
			continue
		}
		if len(paths) == 0 {
			plan.CantTransfer[src] = &transcoding.NoPipelineError{Src: src}
			continue
		}
		tpath := paths[0]

		rel, err := filepath.Rel(sourceBasedir, srcMapped)
		if err != nil {
			plan.CantTransfer[src] = err
			continue
		}
		absp := filepath.Join(targetBasedir, rel)

		tgt, err := multimap(absp, targetMappers)
		if err != nil {
			plan.CantTransfer[src] = err
			continue
		}

		excluded := false
		for _, root := range excludeBeneath {
			if within(root, tgt) {
				excluded = true
				break
			}
		}
		if excluded {
			continue
		}

		if predecessor, ok := alreadyForeseen[tgt]; ok {
			plan.CantTransfer[src] = &Conflict{Source: src, Target: tgt, Predecessor: predecessor}
		} else {
			cmp, err := comparator.Compare(src, tgt)
			if err != nil {
				plan.CantTransfer[src] = err
			} else if cmp > 0 {
				plan.WillTransfer = append(plan.WillTransfer, TransferItem{Source: src, Target: tgt, Path: tpath})
				alreadyForeseen[tgt] = src
			} else {
				plan.AlreadyTransferred[src] = tgt
			}
		}

		if _, seen := deleting[tgt]; !seen {
			order = append(order, tgt)
		}
		deleting[tgt] = false
	}

	for _, d := range order {
		if deleting[d] {
			plan.Deleting = append(plan.Deleting, d)
		}
	}

	return plan, nil
}
