// Package pathmap implements the filesystem-legality path mappers and the
// modification-time comparator used by the synchronization algorithm.
package pathmap

import (
	"strings"

	"github.com/shirou/gopsutil/v3/disk"
)

// MountTypes maps a mount point to its filesystem type, the Go analogue of
// psutil.disk_partitions().
type MountTypes map[string]string

// GetMountTypes enumerates mounted partitions and their filesystem types.
func GetMountTypes() (MountTypes, error) {
	partitions, err := disk.Partitions(true)
	if err != nil {
		return nil, err
	}
	mt := make(MountTypes, len(partitions))
	for _, p := range partitions {
		mt[p.Mountpoint] = p.Fstype
	}
	return mt, nil
}

// GetFsType returns the filesystem type of the deepest mount point
// enclosing p, along with that mount point itself.
func GetFsType(p string, mptypes MountTypes) (fstype string, mountpoint string) {
	candidate := p
	best := ""
	bestLen := -1
	for mp, t := range mptypes {
		if candidate == mp || strings.HasPrefix(candidate, ensureTrailingSlash(mp)) {
			if len(mp) > bestLen {
				best = mp
				bestLen = len(mp)
				fstype = t
			}
		}
	}
	return fstype, best
}

func ensureTrailingSlash(p string) string {
	if strings.HasSuffix(p, "/") {
		return p
	}
	return p + "/"
}
