package transcoding

import (
	"os"

	"github.com/dhowden/tag"
	"github.com/sirupsen/logrus"

	"syncplaylists/filetype"
)

// DefaultPostprocessor reads the original source file's tags and logs, at
// debug level, which fields would be carried over to the transcoded output.
// Actually writing tags into the (possibly differently-formatted) output is
// a codec-specific concern left to a real postprocessor; see SPEC_FULL.md §7.
func DefaultPostprocessor(logger *logrus.Logger) Postprocessor {
	return func(src, finalTemp string, srcType, dstType filetype.FileType) error {
		f, err := os.Open(src)
		if err != nil {
			// Tag-reading is best-effort; a source the tag library can't open
			// (or that simply has no tags) must not fail the sync.
			logger.WithError(err).Debugf("could not open %s for tag inspection", src)
			return nil
		}
		defer f.Close()

		m, err := tag.ReadFrom(f)
		if err != nil {
			logger.WithError(err).Debugf("no tags read from %s", src)
			return nil
		}

		logger.WithFields(logrus.Fields{
			"src":      src,
			"dst":      finalTemp,
			"srcType":  string(srcType),
			"dstType":  string(dstType),
			"title":    m.Title(),
			"artist":   m.Artist(),
			"album":    m.Album(),
		}).Debug("tags available to carry over to transcoded output")
		return nil
	}
}

// NoopPostprocessor performs no work; useful for tests and dry runs that
// don't care about tag propagation.
func NoopPostprocessor(src, finalTemp string, srcType, dstType filetype.FileType) error {
	return nil
}
