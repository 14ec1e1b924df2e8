package sync

import (
	"os"

	"github.com/Bios-Marcel/wastebasket"
)

// Delete removes every path in paths, sending each to the system trash
// rather than unlinking outright, tolerating paths that are already gone.
// It returns one DeletionFailure per path that could not be removed,
// continuing through the rest of the list rather than stopping at the
// first failure.
func Delete(paths []string) []DeletionFailure {
	var failures []DeletionFailure
	for _, p := range paths {
		if _, err := os.Lstat(p); os.IsNotExist(err) {
			continue
		}
		if err := wastebasket.Trash(p); err != nil {
			failures = append(failures, DeletionFailure{Path: p, Err: err})
		}
	}
	return failures
}
