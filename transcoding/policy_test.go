package transcoding

import (
	"testing"

	"syncplaylists/filetype"
)

func TestPolicyMatchWildcard(t *testing.T) {
	p := Policy{Source: filetype.Wildcard}
	if !p.Match(filetype.ByName("mp3"), filetype.ByName("ogg")) {
		t.Fatal("wildcard source policy should match any srctype")
	}
}

func TestPolicyMatchTranscodeTo(t *testing.T) {
	// Target is set (and differs from ogg) so that only the transcode_to
	// clause can make the query match; an empty Target matches any dsttype.
	p := Policy{Target: filetype.ByName("opus"), TranscodeTo: filetype.ByName("ogg")}
	if !p.Match(filetype.ByName("mp3"), filetype.ByName("ogg")) {
		t.Fatal("expected transcode_to match")
	}
	if p.Match(filetype.ByName("mp3"), filetype.ByName("wav")) {
		t.Fatal("expected no match for a different dsttype")
	}
}

func mkPath(cost int, steps ...Step) Path {
	return Path{Cost: cost, Steps: steps}
}

func TestSelectPipelinesByPipelineName(t *testing.T) {
	copyPath := mkPath(1, Step{SrcType: "mp3", DstType: "mp3", TranscoderName: "copy"})
	toWav := mkPath(10, Step{SrcType: "mp3", DstType: "wav", TranscoderName: "mp3-to-wav"})
	toOgg := mkPath(30,
		Step{SrcType: "mp3", DstType: "wav", TranscoderName: "mp3-to-wav"},
		Step{SrcType: "wav", DstType: "ogg", TranscoderName: "wav-to-ogg"},
	)
	candidates := []Path{copyPath, toWav, toOgg}

	selector := NoPolicySelector()

	got := selector.SelectPipelines(candidates, "a.mp3", "", []Name{"copy"})
	if len(got) != 1 || !got[0].Equal(copyPath) {
		t.Fatalf("pipeline=[copy] => %v, want [%v]", got, copyPath)
	}

	got = selector.SelectPipelines(candidates, "a.mp3", filetype.ByName("ogg"), nil)
	if len(got) != 1 || !got[0].Equal(toOgg) {
		t.Fatalf("dsttype=ogg => %v, want [%v]", got, toOgg)
	}
}
