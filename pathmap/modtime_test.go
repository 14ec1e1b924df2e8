package pathmap

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestVfatcompareFuzz(t *testing.T) {
	cases := []struct {
		s, t int64
		want int
	}{
		{100, 100, 0},
		{100, 99, 0},
		{101, 99, 1},
		{99, 101, -1},
		{100, 98, 1},
	}
	for _, c := range cases {
		require.Equal(t, c.want, vfatcompare(c.s, c.t), "vfatcompare(%d,%d)", c.s, c.t)
	}
}

func TestSourceAlwaysNewer(t *testing.T) {
	var c SourceAlwaysNewer
	got, err := c.Compare("/a", "/b")
	require.NoError(t, err)
	require.Equal(t, 1, got)
}

func TestModtimeComparatorMissingTargetIsNewer(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "src.mp3")
	require.NoError(t, os.WriteFile(src, []byte("x"), 0o644))

	c := &ModtimeComparator{mptypes: MountTypes{"/": "ext4"}}
	got, err := c.Compare(src, filepath.Join(dir, "missing.mp3"))
	require.NoError(t, err)
	require.Equal(t, 1, got)
}

func TestModtimeComparatorExact(t *testing.T) {
	dir := t.TempDir()
	older := filepath.Join(dir, "older.mp3")
	newer := filepath.Join(dir, "newer.mp3")
	require.NoError(t, os.WriteFile(older, []byte("x"), 0o644))
	require.NoError(t, os.WriteFile(newer, []byte("x"), 0o644))

	past := time.Now().Add(-time.Hour)
	require.NoError(t, os.Chtimes(older, past, past))

	c := &ModtimeComparator{mptypes: MountTypes{"/": "ext4"}}
	got, err := c.Compare(newer, older)
	require.NoError(t, err)
	require.Equal(t, 1, got, "newer source")

	got, err = c.Compare(older, newer)
	require.NoError(t, err)
	require.Equal(t, -1, got, "older source")
}

func TestModtimeComparatorExactSubSecondPrecision(t *testing.T) {
	dir := t.TempDir()
	older := filepath.Join(dir, "older.mp3")
	newer := filepath.Join(dir, "newer.mp3")
	require.NoError(t, os.WriteFile(older, []byte("x"), 0o644))
	require.NoError(t, os.WriteFile(newer, []byte("x"), 0o644))

	base := time.Now().Truncate(time.Second)
	require.NoError(t, os.Chtimes(older, base, base))
	require.NoError(t, os.Chtimes(newer, base.Add(200*time.Millisecond), base.Add(200*time.Millisecond)))

	c := &ModtimeComparator{mptypes: MountTypes{"/": "ext4"}}
	got, err := c.Compare(newer, older)
	require.NoError(t, err)
	require.Equal(t, 1, got, "files differing only by milliseconds within the same second must not compare equal")
}
