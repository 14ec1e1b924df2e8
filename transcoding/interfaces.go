// Package transcoding holds the transcoder registry, the directed
// multigraph planner, and the policy selector that together decide how a
// source file should be converted before it lands on the target.
package transcoding

import "syncplaylists/filetype"

// Name is a transcoder's registered, lowercase, unique name.
type Name string

// Transcoder converts files from one format to another. Names are unique
// across a Registry. The built-in "copy" transcoder has cost 1 and reports
// the source's own FileType as its only output type.
type Transcoder interface {
	// Cost is the relative expense of running this transcoder; lower costs
	// are preferred by the planner.
	Cost() int
	// CanTranscode returns the FileTypes this transcoder would produce for
	// src, or nil if it cannot handle src at all. Implementations may probe
	// the file itself (e.g. inspecting codec streams) when src exists.
	CanTranscode(src string) ([]filetype.FileType, error)
	// Transcode converts src to dst. The caller has already created dst as
	// an empty file; Transcode overwrites it.
	Transcode(src, dst string) error
}

// Factory constructs a Transcoder from a settings map. settings may be nil.
type Factory func(settings map[string]any) (Transcoder, error)

// Step is one edge traversal within a TranscodingPath.
type Step struct {
	SrcType        filetype.FileType
	DstType        filetype.FileType
	TranscoderName Name
}

// Lookup resolves a transcoder by name; satisfied by *Registry.
type Lookup interface {
	GetTranscoder(name Name) (Transcoder, bool)
}

// Transcode runs this step's transcoder, resolved via db.
func (s Step) Transcode(db Lookup, src, dst string) error {
	t, ok := db.GetTranscoder(s.TranscoderName)
	if !ok {
		return &UnknownTranscoderError{Name: s.TranscoderName}
	}
	return t.Transcode(src, dst)
}

func (s Step) String() string {
	return string(s.SrcType) + " --(" + string(s.TranscoderName) + ")--> " + string(s.DstType)
}

// Path is a chained, non-empty sequence of Steps whose adjacent types match,
// with a total Cost equal to the sum of its steps' transcoder costs.
type Path struct {
	Cost  int
	Steps []Step
}

// SrcType is the source type of the first step.
func (p Path) SrcType() filetype.FileType {
	return p.Steps[0].SrcType
}

// DstType is the destination type of the last step.
func (p Path) DstType() filetype.FileType {
	return p.Steps[len(p.Steps)-1].DstType
}

// String renders the path as "< step | step | ... >"; two paths are equal
// iff their String() renderings are equal.
func (p Path) String() string {
	s := "< "
	for i, step := range p.Steps {
		if i > 0 {
			s += " | "
		}
		s += step.String()
	}
	return s + " >"
}

// Equal reports whether p and other render identically.
func (p Path) Equal(other Path) bool {
	return p.String() == other.String()
}

// PathLookup resolves candidate TranscodingPaths for a source file;
// satisfied by *Mapper.
type PathLookup interface {
	Lookup(src string) ([]Path, error)
}

// Postprocessor is invoked after the last pipeline step with the original
// source path, the final temp file path, and the source/destination types.
// It typically copies tags from src into finalTemp.
type Postprocessor func(src, finalTemp string, srcType, dstType filetype.FileType) error
