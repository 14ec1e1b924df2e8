package pathmap

import (
	"strings"
	"sync"
)

// Mapper transforms an absolute path before it is compared or transferred,
// e.g. applying VFAT-legality mangling and case-folding. Implementations
// must be safe to compose left-to-right and must preserve absoluteness.
type Mapper interface {
	Map(path string) (string, error)
}

// illegalVFATChars are replaced with "_" by vfatprotect.
const illegalVFATChars = `?<>\:*|"^`

// VFATProtect replaces VFAT-illegal characters in f with "_" and collapses
// any "./" or " /" sequences, to a fixed point.
func VFATProtect(f string) string {
	var b strings.Builder
	b.Grow(len(f))
	for _, r := range f {
		if strings.ContainsRune(illegalVFATChars, r) {
			b.WriteByte('_')
		} else {
			b.WriteRune(r)
		}
	}
	f = b.String()
	for strings.Contains(f, "./") || strings.Contains(f, " /") {
		f = strings.ReplaceAll(f, "./", "/")
		f = strings.ReplaceAll(f, " /", "/")
	}
	return f
}

// FilesystemPathMapper discovers the filesystem type of each path's deepest
// mount point and applies VFAT/NTFS legality mangling plus case-insensitive
// first-seen-casing memoization.
type FilesystemPathMapper struct {
	mptypes MountTypes

	mu       sync.Mutex
	pathsSeen map[string]string // lower(canonical) -> first-seen canonical
}

// NewFilesystemPathMapper builds a mapper that discovers real mount types.
// targetDir is accepted for parity with the original constructor but is not
// otherwise used by the base variant.
func NewFilesystemPathMapper(targetDir string) (*FilesystemPathMapper, error) {
	mptypes, err := GetMountTypes()
	if err != nil {
		return nil, err
	}
	return &FilesystemPathMapper{mptypes: mptypes, pathsSeen: map[string]string{}}, nil
}

// Map implements Mapper.
func (m *FilesystemPathMapper) Map(path string) (string, error) {
	fstype, mountpoint := GetFsType(path, m.mptypes)
	if fstype != "vfat" && fstype != "ntfs" {
		return path, nil
	}

	tail := strings.TrimPrefix(path, mountpoint)
	tail = strings.TrimPrefix(tail, "/")
	mangledTail := VFATProtect(tail)
	canonical := joinMount(mountpoint, mangledTail)
	canonicalLower := joinMount(mountpoint, strings.ToLower(mangledTail))

	m.mu.Lock()
	defer m.mu.Unlock()
	if prior, ok := m.pathsSeen[canonicalLower]; ok {
		return prior, nil
	}
	m.pathsSeen[canonicalLower] = canonical
	return canonical, nil
}

func joinMount(mount, tail string) string {
	if tail == "" {
		return mount
	}
	if strings.HasSuffix(mount, "/") {
		return mount + tail
	}
	return mount + "/" + tail
}

// ForceVFATPathMapper behaves like FilesystemPathMapper but treats
// targetDir as vfat unconditionally, regardless of the filesystem it
// actually resides on.
type ForceVFATPathMapper struct {
	*FilesystemPathMapper
}

// NewForceVFATPathMapper builds a mapper that always treats targetDir as a
// vfat mount.
func NewForceVFATPathMapper(targetDir string) (*ForceVFATPathMapper, error) {
	mptypes, err := GetMountTypes()
	if err != nil {
		mptypes = MountTypes{}
	}
	forced := MountTypes{targetDir: "vfat"}
	if root, ok := mptypes["/"]; ok {
		forced["/"] = root
	}
	return &ForceVFATPathMapper{FilesystemPathMapper: &FilesystemPathMapper{mptypes: forced, pathsSeen: map[string]string{}}}, nil
}
