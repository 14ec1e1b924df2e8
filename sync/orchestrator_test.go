package sync

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"syncplaylists/transcoding"
)

func TestOrchestratorRunSyncsFromPlaylist(t *testing.T) {
	srcDir := t.TempDir()
	dstDir := t.TempDir()

	song := filepath.Join(srcDir, "song.mp3")
	require.NoError(t, os.WriteFile(song, []byte("hello"), 0o644))
	playlistPath := filepath.Join(srcDir, "list.m3u")
	require.NoError(t, os.WriteFile(playlistPath, []byte("song.mp3\n"), 0o644))

	reg, err := transcoding.NewRegistry(nil, transcoding.NewSettings(nil))
	require.NoError(t, err)
	selector := transcoding.NoPolicySelector()
	mapper := transcoding.NewMapper(reg, selector)

	orch := &Orchestrator{
		Playlists:     []string{playlistPath},
		TargetDir:     dstDir,
		Mapper:        mapper,
		Registry:      reg,
		Postprocessor: transcoding.NoopPostprocessor,
		Concurrency:   2,
		Delete:        true,
	}

	code, err := orch.Run(context.Background())
	require.NoError(t, err)
	require.Equal(t, 0, code)

	synced := filepath.Join(dstDir, "song.mp3")
	got, err := os.ReadFile(synced)
	require.NoError(t, err, "expected song synced to %s", synced)
	require.Equal(t, "hello", string(got))

	rewritten := filepath.Join(dstDir, "Playlists", "list.m3u")
	_, err = os.Stat(rewritten)
	require.NoError(t, err, "expected rewritten playlist at %s", rewritten)
}

func TestOrchestratorRunSetsTransferFailureBitForUnsyncableFiles(t *testing.T) {
	srcDir := t.TempDir()
	dstDir := t.TempDir()

	song := filepath.Join(srcDir, "song.mp3")
	require.NoError(t, os.WriteFile(song, []byte("hello"), 0o644))
	unsyncable := filepath.Join(srcDir, "song.wav")
	require.NoError(t, os.WriteFile(unsyncable, []byte("x"), 0o644))
	playlistPath := filepath.Join(srcDir, "list.m3u")
	require.NoError(t, os.WriteFile(playlistPath, []byte("song.mp3\nsong.wav\n"), 0o644))

	reg, err := transcoding.NewRegistry(nil, transcoding.NewSettings(nil))
	require.NoError(t, err)
	// Only mp3 sources are policy-accepted, with no fallback: song.wav has
	// no accepted pipeline, landing it in plan.CantTransfer even though
	// song.mp3's own transfer succeeds outright.
	selector := transcoding.NewPolicySelector(transcoding.NewPolicies([]transcoding.Policy{{Source: "mp3"}}), false)
	mapper := transcoding.NewMapper(reg, selector)

	orch := &Orchestrator{
		Playlists:     []string{playlistPath},
		TargetDir:     dstDir,
		Mapper:        mapper,
		Registry:      reg,
		Postprocessor: transcoding.NoopPostprocessor,
		Concurrency:   2,
	}

	code, err := orch.Run(context.Background())
	require.NoError(t, err)
	require.Equal(t, ExitTransferFailure, code&ExitTransferFailure,
		"an unsyncable file (no accepted pipeline) must set the transfer-failure bit even when every attempted transfer succeeds")

	synced := filepath.Join(dstDir, "song.mp3")
	_, err = os.Stat(synced)
	require.NoError(t, err, "expected song.mp3 to still sync successfully")
}

func TestOrchestratorRunToleratesMissingTargetDir(t *testing.T) {
	srcDir := t.TempDir()
	playlistPath := filepath.Join(srcDir, "list.m3u")
	require.NoError(t, os.WriteFile(playlistPath, []byte("song.mp3\n"), 0o644))

	reg, err := transcoding.NewRegistry(nil, transcoding.NewSettings(nil))
	require.NoError(t, err)
	mapper := transcoding.NewMapper(reg, transcoding.NoPolicySelector())

	orch := &Orchestrator{
		Playlists:     []string{playlistPath},
		TargetDir:     filepath.Join(srcDir, "does-not-exist-parent", "target"),
		Mapper:        mapper,
		Registry:      reg,
		Postprocessor: transcoding.NoopPostprocessor,
		Concurrency:   1,
	}

	// A missing target directory yields zero target files rather than a
	// scan failure (ListFilesRecursively tolerates an absent root), so this
	// exercises the ordinary first-sync path instead of a TargetScanFailure.
	_, err = orch.Run(context.Background())
	require.NoError(t, err, "unexpected error on first sync to a not-yet-existing target")
}
