package sync

import (
	"context"
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	"github.com/sirupsen/logrus"

	"syncplaylists/pathmap"
	"syncplaylists/playlist"
	"syncplaylists/transcoding"
)

// Exit-code bits, OR'd together into the process's final exit status.
const (
	ExitScanFault       = 2
	ExitTransferFailure = 4
	ExitPlaylistFailure = 8
	ExitDeletionFailure = 16
)

// Orchestrator wires C7 through C11 into one scan -> plan -> execute ->
// rewrite -> delete run.
type Orchestrator struct {
	Playlists      []string
	TargetDir      string
	Mapper         *transcoding.Mapper
	Registry       transcoding.Lookup
	Postprocessor  transcoding.Postprocessor
	ForceVFAT      bool
	ExcludeBeneath []string
	Concurrency    int64
	Delete         bool
	DryRun         bool
	Logger         *logrus.Logger
}

// Run executes one full synchronization pass and returns the exit-code
// bitmask described in spec §4.12: bit 4 if any file could not be planned
// or any transfer failed, bit 8 if any playlist failed to rewrite, bit 16
// if any deletion failed. A planning-time failure (playlist parse, target
// scan, invalid mapper construction) is returned as an error instead,
// since nothing downstream can proceed without a valid plan; Run never
// sets ExitScanFault in the returned code.
func (o *Orchestrator) Run(ctx context.Context) (int, error) {
	logger := o.Logger
	if logger == nil {
		logger = logrus.StandardLogger()
	}

	sourceMap, parseErrs := playlist.Parse(o.Playlists)
	if len(parseErrs) > 0 {
		first := parseErrs[0]
		return 0, &PlaylistParseFailure{Playlist: first.Playlist, Err: first.Err}
	}
	logger.Debugf("discovered %d source files across %d playlists", len(sourceMap), len(o.Playlists))

	sourceFiles := make([]string, 0, len(sourceMap))
	for f := range sourceMap {
		sourceFiles = append(sourceFiles, f)
	}
	sort.Strings(sourceFiles)

	targetFiles, err := playlist.ListFilesRecursively(o.TargetDir)
	if err != nil {
		return 0, &TargetScanFailure{Target: o.TargetDir, Err: err}
	}
	logger.Debugf("discovered %d target files beneath %s", len(targetFiles), o.TargetDir)

	sourceBasedir := commonAncestor(dirsOf(sourceFiles))

	targetPlaylistDir := filepath.Join(o.TargetDir, "Playlists")
	excludeBeneath := append([]string{}, o.ExcludeBeneath...)
	for _, p := range o.Playlists {
		excludeBeneath = append(excludeBeneath, filepath.Join(targetPlaylistDir, filepath.Base(p)))
	}

	var targetMapper pathmap.Mapper
	if o.ForceVFAT {
		targetMapper, err = pathmap.NewForceVFATPathMapper(o.TargetDir)
	} else {
		targetMapper, err = pathmap.NewFilesystemPathMapper(o.TargetDir)
	}
	if err != nil {
		return 0, fmt.Errorf("building target path mapper: %w", err)
	}

	comparator, err := pathmap.NewModtimeComparator()
	if err != nil {
		return 0, fmt.Errorf("building modification-time comparator: %w", err)
	}

	plan, err := ComputeSynchronization(
		sourceFiles,
		sourceBasedir,
		targetFiles,
		o.TargetDir,
		[]pathmap.Mapper{o.Mapper},
		[]pathmap.Mapper{targetMapper},
		o.Mapper,
		comparator,
		excludeBeneath,
	)
	if err != nil {
		return 0, err
	}

	exitCode := 0
	if len(plan.CantTransfer) > 0 {
		for src, cantErr := range plan.CantTransfer {
			logger.WithError(cantErr).Warnf("cannot transfer %s", src)
		}
		// Matches the original CLI's `retval += 4` whenever cant_sync is
		// non-empty, even if every attempted transfer below succeeds.
		exitCode |= ExitTransferFailure
	}

	syncer := NewSingleItemSyncer(o.Registry, o.Postprocessor)
	if o.DryRun {
		logger.Infof("[dry run] would transfer %d files", len(plan.WillTransfer))
	} else {
		logger.Infof("transferring %d files", len(plan.WillTransfer))
		results := RunPool(ctx, plan.WillTransfer, syncer, o.Concurrency)
		for r := range results {
			if r.Err != nil {
				logger.WithError(r.Err).Errorf("failed to sync %s -> %s", r.Source, r.Target)
				exitCode |= ExitTransferFailure
			} else {
				logger.Debugf("synced %s -> %s", r.Source, r.Target)
			}
		}
	}

	wontSyncReason := map[string]string{}
	for src, cantErr := range plan.CantTransfer {
		wontSyncReason[src] = cantErr.Error()
	}
	willSync := map[string]string{}
	for _, item := range plan.WillTransfer {
		willSync[item.Source] = item.Target
	}

	rewriteResults := playlist.Rewrite(o.Playlists, targetPlaylistDir, willSync, plan.AlreadyTransferred, wontSyncReason, o.DryRun)
	for _, r := range rewriteResults {
		if r.Err != nil {
			logger.WithError(r.Err).Errorf("failed to rewrite playlist %s", r.Source)
			exitCode |= ExitPlaylistFailure
		} else {
			logger.Debugf("rewrote playlist %s -> %s", r.Source, r.Target)
		}
	}

	if o.Delete && !o.DryRun {
		for _, failure := range Delete(plan.Deleting) {
			logger.WithError(failure.Err).Errorf("failed to delete %s", failure.Path)
			exitCode |= ExitDeletionFailure
		}
	} else if o.Delete {
		logger.Infof("[dry run] would delete %d stale files", len(plan.Deleting))
	}

	return exitCode, nil
}

func dirsOf(files []string) []string {
	dirs := make([]string, len(files))
	for i, f := range files {
		dirs[i] = filepath.Dir(f)
	}
	return dirs
}

// commonAncestor returns the deepest directory that is an ancestor of (or
// equal to) every directory in dirs, comparing whole path components
// rather than raw string prefixes. An empty input yields "/".
func commonAncestor(dirs []string) string {
	if len(dirs) == 0 {
		return "/"
	}
	common := strings.Split(filepath.Clean(dirs[0]), string(filepath.Separator))
	for _, d := range dirs[1:] {
		parts := strings.Split(filepath.Clean(d), string(filepath.Separator))
		common = commonPrefixParts(common, parts)
	}
	joined := strings.Join(common, string(filepath.Separator))
	if joined == "" {
		return string(filepath.Separator)
	}
	return joined
}

func commonPrefixParts(a, b []string) []string {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	i := 0
	for i < n && a[i] == b[i] {
		i++
	}
	return a[:i]
}
