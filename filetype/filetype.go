// Package filetype provides the interned file-type tag used throughout the
// transcoding planner: a canonical lowercase filename-extension token.
package filetype

import (
	"path/filepath"
	"strings"
	"sync"
)

// FileType is a canonical lowercase filename-suffix token, e.g. "mp3" or
// "ogg". The reserved token Wildcard means "any type". FileTypes returned by
// ByName for equal names are the same value (string equality already gives
// value-equality in Go, but the cache keeps the set of known tokens small and
// mirrors the original's interning discipline).
type FileType string

// Wildcard is the reserved "any type" token used by policies.
const Wildcard FileType = "*"

var (
	cacheMu sync.Mutex
	cache   = map[string]FileType{}
)

// ByName interns name, returning the canonical FileType for it.
func ByName(name string) FileType {
	cacheMu.Lock()
	defer cacheMu.Unlock()
	if ft, ok := cache[name]; ok {
		return ft
	}
	ft := FileType(name)
	cache[name] = ft
	return ft
}

// FromPath derives a FileType from the lowercase extension of p, without the
// leading dot. A path with no extension yields the empty token, which never
// matches any real type.
func FromPath(p string) FileType {
	ext := filepath.Ext(p)
	ext = strings.TrimPrefix(ext, ".")
	return ByName(strings.ToLower(ext))
}

// String implements fmt.Stringer.
func (f FileType) String() string {
	return string(f)
}
