package playlist

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseBasic(t *testing.T) {
	dir := t.TempDir()
	songA := filepath.Join(dir, "a.mp3")
	songB := filepath.Join(dir, "b.mp3")
	for _, p := range []string{songA, songB} {
		require.NoError(t, os.WriteFile(p, []byte("x"), 0o644))
	}
	playlist := filepath.Join(dir, "list.m3u")
	content := "#EXTM3U\n# a comment\na.mp3\n\nb.mp3\n"
	require.NoError(t, os.WriteFile(playlist, []byte(content), 0o644))

	files, errs := Parse([]string{playlist})
	require.Empty(t, errs)
	require.Contains(t, files, songA)
	require.Contains(t, files, songB)
	require.Equal(t, []string{playlist}, files[songA])
}

func TestParseMissingPlaylistReportsError(t *testing.T) {
	dir := t.TempDir()
	missing := filepath.Join(dir, "nope.m3u")
	files, errs := Parse([]string{missing})
	require.Empty(t, files)
	require.Len(t, errs, 1)
	require.Equal(t, missing, errs[0].Playlist)
}

func TestParseSharedEntryAttributesBothPlaylists(t *testing.T) {
	dir := t.TempDir()
	song := filepath.Join(dir, "shared.mp3")
	require.NoError(t, os.WriteFile(song, []byte("x"), 0o644))
	p1 := filepath.Join(dir, "one.m3u")
	p2 := filepath.Join(dir, "two.m3u")
	require.NoError(t, os.WriteFile(p1, []byte("shared.mp3\n"), 0o644))
	require.NoError(t, os.WriteFile(p2, []byte("shared.mp3\n"), 0o644))

	files, errs := Parse([]string{p1, p2})
	require.Empty(t, errs)
	require.Len(t, files[song], 2)
}
