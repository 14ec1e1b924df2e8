package transcoding

import (
	"os"

	"syncplaylists/dzutil"
	"syncplaylists/filetype"
)

// copyTranscoder is the built-in identity transcoder: cost 1, always able to
// "transcode" any file by copying it byte-for-byte, reporting the source's
// own FileType as its only output.
type copyTranscoder struct{}

func newCopyTranscoder() Transcoder {
	return copyTranscoder{}
}

func (copyTranscoder) Cost() int { return 1 }

func (copyTranscoder) CanTranscode(src string) ([]filetype.FileType, error) {
	return []filetype.FileType{filetype.FromPath(src)}, nil
}

func (copyTranscoder) Transcode(src, dst string) error {
	info, err := os.Stat(src)
	if err != nil {
		return err
	}
	return dzutil.CopyFile(src, dst, info.Mode().Perm())
}
