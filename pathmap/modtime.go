package pathmap

import "os"

// Comparator orders path1 against path2 by modification time, returning 1
// if path1 is newer, -1 if path2 is newer, and 0 if they are the same
// instant (subject to filesystem-dependent fuzz).
type Comparator interface {
	Compare(path1, path2 string) (int, error)
}

// vfatcompare treats two timestamps within 2 seconds of each other as
// equal, matching VFAT's 2-second modification-time resolution.
func vfatcompare(s, t int64) int {
	x := s - t
	if x >= 2 {
		return 1
	}
	if x <= -2 {
		return -1
	}
	return 0
}

func exactcompare(s, t int64) int {
	switch {
	case s > t:
		return 1
	case s < t:
		return -1
	default:
		return 0
	}
}

// SourceAlwaysNewer is a Comparator that unconditionally reports the source
// path as newer, for callers that want to always copy/transcode regardless
// of modification time (e.g. a forced resync).
type SourceAlwaysNewer struct{}

// Compare always returns 1.
func (SourceAlwaysNewer) Compare(path1, path2 string) (int, error) {
	return 1, nil
}

// ModtimeComparator compares modification times, using the coarse VFAT
// comparison when either path resides on a vfat-family filesystem.
type ModtimeComparator struct {
	mptypes MountTypes
}

// NewModtimeComparator builds a ModtimeComparator that discovers mount
// filesystem types once at construction time.
func NewModtimeComparator() (*ModtimeComparator, error) {
	mptypes, err := GetMountTypes()
	if err != nil {
		return nil, err
	}
	return &ModtimeComparator{mptypes: mptypes}, nil
}

// Compare reports whether path1 (source) is newer than path2 (target). If
// path2 does not exist, path1 is always considered newer.
func (c *ModtimeComparator) Compare(path1, path2 string) (int, error) {
	fstype1, _ := GetFsType(path1, c.mptypes)
	fstype2, _ := GetFsType(path2, c.mptypes)

	st2, err := os.Stat(path2)
	if err != nil {
		if os.IsNotExist(err) {
			return 1, nil
		}
		return 0, err
	}
	st1, err := os.Stat(path1)
	if err != nil {
		return 0, err
	}

	if fstype1 == "vfat" || fstype2 == "vfat" {
		return vfatcompare(st1.ModTime().Unix(), st2.ModTime().Unix()), nil
	}
	// Neither path is on a vfat-family filesystem: compare at full
	// (nanosecond, where the filesystem supports it) precision instead of
	// truncating to whole seconds.
	return exactcompare(st1.ModTime().UnixNano(), st2.ModTime().UnixNano()), nil
}
