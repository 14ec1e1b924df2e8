package sync

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"syncplaylists/dzutil"
	"syncplaylists/transcoding"
)

// SingleItemSyncer runs a single file through its transcoding pipeline,
// one temporary file per pipeline step, before atomically renaming the
// final result into place.
type SingleItemSyncer struct {
	registry      transcoding.Lookup
	postprocessor transcoding.Postprocessor
}

// NewSingleItemSyncer builds a SingleItemSyncer resolving transcoder names
// via registry and invoking postprocessor after the last pipeline step.
func NewSingleItemSyncer(registry transcoding.Lookup, postprocessor transcoding.Postprocessor) *SingleItemSyncer {
	return &SingleItemSyncer{registry: registry, postprocessor: postprocessor}
}

// Sync transforms src into dst by running every step of path in sequence,
// each writing to a fresh temporary file in dst's directory, then invokes
// the postprocessor on the final temp file before renaming it to dst. Any
// intermediate temp file left over from a failed step is removed.
func (s *SingleItemSyncer) Sync(src, dst string, path transcoding.Path) error {
	dstDir := filepath.Dir(dst)
	if err := dzutil.EnsureDirectoriesExist(dstDir); err != nil {
		return err
	}

	var remover dzutil.Remover
	defer remover.Cleanup()

	inFn := src
	for _, step := range path.Steps {
		suffix := "." + string(step.DstType)
		disambiguator := uuid.NewString()[:8]
		prefix := fmt.Sprintf(".tmp-%s-%s-", step.TranscoderName, strings.TrimSuffix(filepath.Base(dst), filepath.Ext(dst)))
		prefix = dzutil.ShortenToNameMax(dstDir, prefix, len(suffix)+len(disambiguator))

		outFn := filepath.Join(dstDir, prefix+disambiguator+suffix)
		f, err := os.OpenFile(outFn, os.O_RDWR|os.O_CREATE|os.O_EXCL, 0o644)
		if err != nil {
			return err
		}
		f.Close()
		remover.Track(outFn)

		if err := step.Transcode(s.registry, inFn, outFn); err != nil {
			return err
		}
		if err := copyMode(inFn, outFn); err != nil {
			return err
		}
		inFn = outFn
	}

	if err := s.postprocessor(src, inFn, path.SrcType(), path.DstType()); err != nil {
		return err
	}

	return os.Rename(inFn, dst)
}

func copyMode(src, dst string) error {
	info, err := os.Stat(src)
	if err != nil {
		return err
	}
	return os.Chmod(dst, info.Mode().Perm())
}
