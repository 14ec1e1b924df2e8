package sync

import (
	"os"
	"path/filepath"
	"testing"

	"syncplaylists/pathmap"
	"syncplaylists/transcoding"
)

type passthroughMapper struct{}

func (passthroughMapper) Map(p string) (string, error) { return p, nil }

type fakeLookup struct {
	path transcoding.Path
}

func (f fakeLookup) Lookup(src string) ([]transcoding.Path, error) {
	return []transcoding.Path{f.path}, nil
}

type fixedComparator struct {
	result int
}

func (c fixedComparator) Compare(path1, path2 string) (int, error) { return c.result, nil }

func copyPath() transcoding.Path {
	return transcoding.Path{
		Cost: 1,
		Steps: []transcoding.Step{
			{SrcType: "mp3", DstType: "mp3", TranscoderName: transcoding.CopyName},
		},
	}
}

func TestComputeSynchronizationTransfersNewerSource(t *testing.T) {
	srcDir := t.TempDir()
	dstDir := t.TempDir()
	src := filepath.Join(srcDir, "a.mp3")
	if err := os.WriteFile(src, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}

	plan, err := ComputeSynchronization(
		[]string{src},
		srcDir,
		nil,
		dstDir,
		[]pathmap.Mapper{passthroughMapper{}},
		[]pathmap.Mapper{passthroughMapper{}},
		fakeLookup{path: copyPath()},
		fixedComparator{result: 1},
		nil,
	)
	if err != nil {
		t.Fatal(err)
	}
	if len(plan.WillTransfer) != 1 {
		t.Fatalf("expected 1 transfer, got %d: %+v", len(plan.WillTransfer), plan)
	}
	want := filepath.Join(dstDir, "a.mp3")
	if plan.WillTransfer[0].Target != want {
		t.Fatalf("target = %q, want %q", plan.WillTransfer[0].Target, want)
	}
}

func TestComputeSynchronizationAlreadyTransferred(t *testing.T) {
	srcDir := t.TempDir()
	dstDir := t.TempDir()
	src := filepath.Join(srcDir, "a.mp3")
	if err := os.WriteFile(src, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}

	plan, err := ComputeSynchronization(
		[]string{src}, srcDir, nil, dstDir,
		[]pathmap.Mapper{passthroughMapper{}}, []pathmap.Mapper{passthroughMapper{}},
		fakeLookup{path: copyPath()}, fixedComparator{result: 0}, nil,
	)
	if err != nil {
		t.Fatal(err)
	}
	if len(plan.WillTransfer) != 0 {
		t.Fatalf("expected no transfers, got %+v", plan.WillTransfer)
	}
	if plan.AlreadyTransferred[src] == "" {
		t.Fatalf("expected %s marked already transferred", src)
	}
}

func TestComputeSynchronizationConflict(t *testing.T) {
	srcDir := t.TempDir()
	dstDir := t.TempDir()
	a := filepath.Join(srcDir, "sub1", "song.mp3")
	b := filepath.Join(srcDir, "sub2", "song.mp3")
	for _, p := range []string{a, b} {
		if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(p, []byte("x"), 0o644); err != nil {
			t.Fatal(err)
		}
	}

	collapsingMapper := mapperFunc(func(p string) (string, error) {
		return filepath.Join(filepath.Dir(filepath.Dir(p)), filepath.Base(p)), nil
	})

	plan, err := ComputeSynchronization(
		[]string{a, b}, srcDir, nil, dstDir,
		[]pathmap.Mapper{collapsingMapper}, []pathmap.Mapper{passthroughMapper{}},
		fakeLookup{path: copyPath()}, fixedComparator{result: 1}, nil,
	)
	if err != nil {
		t.Fatal(err)
	}
	if len(plan.WillTransfer) != 1 {
		t.Fatalf("expected exactly one winner, got %+v", plan.WillTransfer)
	}
	if len(plan.CantTransfer) != 1 {
		t.Fatalf("expected exactly one conflict, got %+v", plan.CantTransfer)
	}
	for _, err := range plan.CantTransfer {
		if _, ok := err.(*Conflict); !ok {
			t.Fatalf("expected *Conflict, got %T: %v", err, err)
		}
	}
}

func TestComputeSynchronizationDeletesStaleTargetFiles(t *testing.T) {
	dstDir := t.TempDir()
	stale := filepath.Join(dstDir, "gone.mp3")
	if err := os.WriteFile(stale, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}

	plan, err := ComputeSynchronization(
		nil, t.TempDir(), []string{stale}, dstDir,
		nil, []pathmap.Mapper{passthroughMapper{}},
		fakeLookup{path: copyPath()}, fixedComparator{result: 1}, nil,
	)
	if err != nil {
		t.Fatal(err)
	}
	if len(plan.Deleting) != 1 || plan.Deleting[0] != stale {
		t.Fatalf("expected %s to be marked for deletion, got %+v", stale, plan.Deleting)
	}
}

func TestComputeSynchronizationExcludeBeneath(t *testing.T) {
	dstDir := t.TempDir()
	excluded := filepath.Join(dstDir, "Playlists", "keep.m3u")
	if err := os.MkdirAll(filepath.Dir(excluded), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(excluded, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}

	plan, err := ComputeSynchronization(
		nil, t.TempDir(), []string{excluded}, dstDir,
		nil, []pathmap.Mapper{passthroughMapper{}},
		fakeLookup{path: copyPath()}, fixedComparator{result: 1},
		[]string{filepath.Join(dstDir, "Playlists")},
	)
	if err != nil {
		t.Fatal(err)
	}
	if len(plan.Deleting) != 0 {
		t.Fatalf("expected excluded file to survive, got %+v", plan.Deleting)
	}
}

// mapperFunc adapts a function to pathmap.Mapper for tests.
type mapperFunc func(string) (string, error)

func (f mapperFunc) Map(p string) (string, error) { return f(p) }
