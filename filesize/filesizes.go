// Package filesize formats byte counts for progress and summary output.
package filesize

import (
	"fmt"

	"github.com/dustin/go-humanize"
)

// ByteCountBothStyles returns a formatted string for the given byte count in both
// SI (base 10) and IEC (base 2) styles.
func ByteCountBothStyles(b int64) string {
	if b == 0 {
		return "0 B"
	}
	return fmt.Sprintf("%s (%s)", ByteCountSI(b), ByteCountIEC(b))
}

// ByteCountSI returns a formatted string for the given byte count, assuming
// SI (base 10) units.
func ByteCountSI(b int64) string {
	return humanize.Bytes(uint64(b))
}

// ByteCountIEC returns a formatted string for the given byte count, assuming
// IEC (base 2) units.
func ByteCountIEC(b int64) string {
	return humanize.IBytes(uint64(b))
}
