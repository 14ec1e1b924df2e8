package transcoding

import (
	"testing"

	"syncplaylists/filetype"
)

type fakeTranscoder struct {
	cost int
	from filetype.FileType
	to   filetype.FileType
}

func (f fakeTranscoder) Cost() int { return f.cost }

func (f fakeTranscoder) CanTranscode(src string) ([]filetype.FileType, error) {
	if filetype.FromPath(src) == f.from {
		return []filetype.FileType{f.to}, nil
	}
	return nil, nil
}

func (f fakeTranscoder) Transcode(src, dst string) error { return nil }

func newTestRegistry(t *testing.T) *Registry {
	t.Helper()
	factories := map[Name]Factory{
		"mp3-to-wav": func(map[string]any) (Transcoder, error) {
			return fakeTranscoder{cost: 10, from: "mp3", to: "wav"}, nil
		},
		"wav-to-ogg": func(map[string]any) (Transcoder, error) {
			return fakeTranscoder{cost: 20, from: "wav", to: "ogg"}, nil
		},
	}
	r, err := NewRegistry(factories, NewSettings(nil))
	if err != nil {
		t.Fatalf("NewRegistry: %v", err)
	}
	return r
}

func TestMapPipelinesRanking(t *testing.T) {
	r := newTestRegistry(t)
	_, paths, err := r.MapPipelines("a.mp3")
	if err != nil {
		t.Fatalf("MapPipelines: %v", err)
	}
	if len(paths) != 3 {
		t.Fatalf("expected 3 ranked paths, got %d: %v", len(paths), paths)
	}

	// P5: first element is always the copy self-path.
	if len(paths[0].Steps) != 1 || paths[0].Steps[0].TranscoderName != CopyName {
		t.Fatalf("expected copy path first, got %v", paths[0])
	}
	if paths[0].Cost != 1 {
		t.Fatalf("expected copy path cost 1, got %d", paths[0].Cost)
	}

	if paths[1].Cost != 10 || paths[2].Cost != 30 {
		t.Fatalf("expected costs [1,10,30], got [%d,%d,%d]", paths[0].Cost, paths[1].Cost, paths[2].Cost)
	}

	// P6: copy never appears in a multi-step path.
	for _, p := range paths {
		if len(p.Steps) > 1 {
			for _, s := range p.Steps {
				if s.TranscoderName == CopyName {
					t.Fatalf("copy transcoder appeared in multi-step path: %v", p)
				}
			}
		}
	}

	// P7: adjacent steps share a type.
	for _, p := range paths {
		for i := 0; i+1 < len(p.Steps); i++ {
			if p.Steps[i].DstType != p.Steps[i+1].SrcType {
				t.Fatalf("path not internally chained: %v", p)
			}
		}
	}
}

func TestRegistryRejectsUnknownTranscoderSettings(t *testing.T) {
	factories := map[Name]Factory{
		"mp3-to-wav": func(map[string]any) (Transcoder, error) {
			return fakeTranscoder{cost: 10, from: "mp3", to: "wav"}, nil
		},
	}
	settings := NewSettings(map[string]map[string]any{
		"no-such-transcoder": {"foo": "bar"},
	})
	_, err := NewRegistry(factories, settings)
	if err == nil {
		t.Fatal("expected error for settings referencing an unknown transcoder")
	}
}
