package dzutil

import (
	"os"
	"sync"

	"golang.org/x/sys/unix"
)

// dirLock guards directory creation so concurrent workers racing to create
// the same destination directory never both observe ErrNotExist and both
// attempt MkdirAll.
var dirLock sync.Mutex

// EnsureDirectoriesExist creates each of dirs (and any missing parents) if
// it does not already exist. Empty strings are ignored.
func EnsureDirectoriesExist(dirs ...string) error {
	dirLock.Lock()
	defer dirLock.Unlock()
	for _, d := range dirs {
		if d == "" {
			continue
		}
		if _, err := os.Stat(d); err == nil {
			continue
		} else if !os.IsNotExist(err) {
			return err
		}
		if err := os.MkdirAll(d, 0o755); err != nil {
			return err
		}
	}
	return nil
}

// EnsureFilesGone removes each of files, tolerating files that are already
// absent.
func EnsureFilesGone(files ...string) {
	for _, f := range files {
		if f == "" {
			continue
		}
		_ = os.Remove(f)
	}
}

// Remover tracks a set of paths for best-effort cleanup; call Track to
// register a path and Cleanup (typically via defer) to remove every
// tracked path that still exists.
type Remover struct {
	mu    sync.Mutex
	paths []string
}

// Track registers path for cleanup.
func (r *Remover) Track(path string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.paths = append(r.paths, path)
}

// Cleanup removes every tracked path, ignoring not-found errors.
func (r *Remover) Cleanup() {
	r.mu.Lock()
	paths := r.paths
	r.paths = nil
	r.mu.Unlock()
	EnsureFilesGone(paths...)
}

// defaultNameMax is used when the filesystem's NAME_MAX cannot be queried.
const defaultNameMax = 255

// NameMax returns the maximum filename length (in bytes) for the
// filesystem containing directory, falling back to a conservative default
// if it cannot be determined. directory need not itself exist; the nearest
// existing ancestor is queried instead.
func NameMax(directory string) int {
	dir := directory
	for {
		if fi, err := os.Stat(dir); err == nil && fi.IsDir() {
			break
		}
		parent := parentDir(dir)
		if parent == dir {
			return defaultNameMax
		}
		dir = parent
	}

	n, err := unix.Pathconf(dir, unix.PC_NAME_MAX)
	if err != nil || n <= 0 {
		return defaultNameMax
	}
	return int(n)
}

func parentDir(p string) string {
	for i := len(p) - 1; i > 0; i-- {
		if p[i] == '/' {
			return p[:i]
		}
	}
	if len(p) > 1 && p[0] == '/' {
		return "/"
	}
	return p
}

// ShortenToNameMax truncates name so that len(name) <= NameMax(directory) -
// stripExtraChars, matching the source's shorten_to_name_max: the caller
// reserves stripExtraChars bytes for a suffix it will append afterward.
func ShortenToNameMax(directory, name string, stripExtraChars int) string {
	max := NameMax(directory) - stripExtraChars
	if max < 0 {
		max = 0
	}
	if len(name) <= max {
		return name
	}
	return name[:max]
}
