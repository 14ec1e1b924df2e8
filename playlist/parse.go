// Package playlist parses and rewrites M3U-style playlists: reading the
// absolute paths they reference (C8), and later rewriting them to point at
// a target directory once their referenced files have been synchronized
// (part of C11).
package playlist

import (
	"bufio"
	"os"
	"path/filepath"
	"strings"
)

// ParseError records a playlist that could not be read or resolved.
type ParseError struct {
	Playlist string
	Err      error
}

func (e *ParseError) Error() string {
	return e.Playlist + ": " + e.Err.Error()
}

func (e *ParseError) Unwrap() error { return e.Err }

// Parse reads each playlist in sources (following symlinks to their real
// target) and returns a map from every absolute path mentioned in any
// playlist to the list of playlists (as given in sources, symlinks
// unresolved) that mentioned it. Lines starting with "#", and blank lines,
// are ignored. Playlists that fail to open or read are reported in the
// returned error slice rather than aborting the scan of the others.
func Parse(sources []string) (map[string][]string, []ParseError) {
	files := map[string][]string{}
	var errs []ParseError

	for _, source := range sources {
		realSource, err := filepath.EvalSymlinks(source)
		if err != nil {
			errs = append(errs, ParseError{Playlist: source, Err: err})
			continue
		}
		realDir := filepath.Dir(realSource)

		entries, err := readEntries(realSource, realDir)
		if err != nil {
			errs = append(errs, ParseError{Playlist: source, Err: err})
			continue
		}

		for _, path := range entries {
			files[path] = append(files[path], source)
		}
	}

	return files, errs
}

func readEntries(realSource, realDir string) ([]string, error) {
	f, err := os.Open(realSource)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var entries []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		abs := line
		if !filepath.IsAbs(abs) {
			abs = filepath.Join(realDir, abs)
		}
		entries = append(entries, filepath.Clean(abs))
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return entries, nil
}
