package playlist

import (
	"os"
	"path/filepath"
)

// ListFilesRecursively returns the absolute paths of every regular file
// beneath directory, walking subdirectories. A non-existent directory
// yields an empty list, not an error, matching os.walk's behavior on a
// missing root (the target may legitimately not exist yet on first sync).
func ListFilesRecursively(directory string) ([]string, error) {
	var out []string
	err := filepath.WalkDir(directory, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			if os.IsNotExist(err) && path == directory {
				return nil
			}
			return err
		}
		if d.IsDir() {
			return nil
		}
		abs, err := filepath.Abs(path)
		if err != nil {
			return err
		}
		out = append(out, abs)
		return nil
	})
	if os.IsNotExist(err) {
		return out, nil
	}
	return out, err
}
