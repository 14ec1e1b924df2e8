package dzutil

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestEnsureDirectoriesExist(t *testing.T) {
	base := t.TempDir()
	target := filepath.Join(base, "a", "b", "c")
	require.NoError(t, EnsureDirectoriesExist(target))
	fi, err := os.Stat(target)
	require.NoError(t, err)
	require.True(t, fi.IsDir())
	// calling again must not error
	require.NoError(t, EnsureDirectoriesExist(target, ""))
}

func TestRemoverCleanup(t *testing.T) {
	base := t.TempDir()
	f := filepath.Join(base, "tmp.txt")
	require.NoError(t, os.WriteFile(f, []byte("x"), 0o644))
	var r Remover
	r.Track(f)
	r.Track(filepath.Join(base, "does-not-exist.txt"))
	r.Cleanup()
	_, err := os.Stat(f)
	require.True(t, os.IsNotExist(err), "expected %s to be removed", f)
}

func TestShortenToNameMax(t *testing.T) {
	base := t.TempDir()
	name := "short-name.tmp"
	got := ShortenToNameMax(base, name, 4)
	require.LessOrEqual(t, len(got), len(name), "shortened name longer than input: %q", got)
}
