package transcoding

import (
	"strings"

	"syncplaylists/filetype"
)

// Policy constrains which transcoding paths are acceptable for a given
// (source, destination) pairing. Empty fields act as wildcards.
type Policy struct {
	Source      filetype.FileType
	Target      filetype.FileType
	TranscodeTo filetype.FileType
	Pipeline    []Name
}

// Match reports whether the policy applies to a query (srctype, dsttype).
// Either may be empty to mean "don't care".
func (p Policy) Match(srctype, dsttype filetype.FileType) bool {
	matchSrc := p.Source == "" || p.Source == filetype.Wildcard || srctype == "" || p.Source == srctype
	matchDst := p.Target == "" || p.Target == filetype.Wildcard || dsttype == "" || p.Target == dsttype || p.TranscodeTo == dsttype
	return matchSrc && matchDst
}

func (p Policy) String() string {
	var parts []string
	if p.Source != "" {
		parts = append(parts, "source: "+string(p.Source))
	}
	if p.Target != "" {
		parts = append(parts, "target: "+string(p.Target))
	}
	if len(p.Pipeline) > 0 {
		names := make([]string, len(p.Pipeline))
		for i, n := range p.Pipeline {
			names[i] = string(n)
		}
		parts = append(parts, "pipeline: "+strings.Join(names, " | "))
	}
	if p.TranscodeTo != "" {
		parts = append(parts, "transcode_to: "+string(p.TranscodeTo))
	}
	return "[" + strings.Join(parts, ", ") + "]"
}

// FallbackPolicy matches any (srctype, dsttype) with no pipeline
// constraint, used when a selector allows falling back to an unconstrained
// search.
var FallbackPolicy = Policy{Source: filetype.Wildcard}

// Policies is an ordered list of Policy; the first match wins.
type Policies struct {
	policies []Policy
}

// NewPolicies builds a Policies from an ordered slice.
func NewPolicies(policies []Policy) Policies {
	return Policies{policies: policies}
}

// GetPoliciesFor returns every policy matching (srctype, dsttype), in
// definition order.
func (ps Policies) GetPoliciesFor(srctype, dsttype filetype.FileType) []Policy {
	var out []Policy
	for _, p := range ps.policies {
		if p.Match(srctype, dsttype) {
			out = append(out, p)
		}
	}
	return out
}

// selectPipelines filters candidatePaths down to those whose source type
// matches srctype, whose destination chain matches dsttypes (if non-empty),
// and whose transcoder-name sequence matches pipeline (if non-empty).
func selectPipelines(candidatePaths []Path, src string, dsttypes []filetype.FileType, pipeline []Name) []Path {
	srctype := filetype.FromPath(src)

	var out []Path
	for _, p := range candidatePaths {
		if p.Steps[0].SrcType != srctype {
			continue
		}
		out = append(out, p)
	}

	if len(dsttypes) > 0 {
		var matches []Path
		for _, p := range out {
			chain := make([]filetype.FileType, 0, len(p.Steps)+1)
			for _, s := range p.Steps {
				chain = append(chain, s.SrcType)
			}
			chain = append(chain, p.Steps[len(p.Steps)-1].DstType)

			if dsttypes[len(dsttypes)-1] != chain[len(chain)-1] {
				continue
			}
			if len(dsttypes) == 1 {
				matches = append(matches, p)
				continue
			}
			if containsType(chain[:len(chain)-1], dsttypes[0]) {
				matches = append(matches, p)
			}
		}
		out = matches
	}

	if len(pipeline) > 0 {
		var matches []Path
		for _, p := range out {
			if len(p.Steps) != len(pipeline) {
				continue
			}
			ok := true
			for i, name := range pipeline {
				if p.Steps[i].TranscoderName != name {
					ok = false
					break
				}
			}
			if ok {
				matches = append(matches, p)
			}
		}
		out = matches
	}

	return out
}

func containsType(types []filetype.FileType, t filetype.FileType) bool {
	for _, x := range types {
		if x == t {
			return true
		}
	}
	return false
}

// PolicySelector chooses the best candidate paths for a source file by
// trying each applicable Policy in order and returning the first
// non-empty result.
type PolicySelector struct {
	policies     Policies
	allowFallback bool
}

// NewPolicySelector builds a PolicySelector. When allowFallback is true, an
// unconstrained FallbackPolicy is tried after every configured policy.
func NewPolicySelector(policies Policies, allowFallback bool) *PolicySelector {
	return &PolicySelector{policies: policies, allowFallback: allowFallback}
}

// NoPolicySelector returns a selector with no configured policies, relying
// entirely on the fallback (used when no transcoding.yaml policies section
// was supplied).
func NoPolicySelector() *PolicySelector {
	return NewPolicySelector(NewPolicies(nil), true)
}

// SelectPipelines implements the policy-filtering algorithm from C4: gather
// applicable policies, derive each one's destination-type chain, and return
// the first non-empty filtered candidate set.
func (s *PolicySelector) SelectPipelines(candidatePaths []Path, src string, dsttype filetype.FileType, pipeline []Name) []Path {
	srctype := filetype.FromPath(src)
	policies := s.policies.GetPoliciesFor(srctype, dsttype)
	if s.allowFallback {
		// The fallback carries the caller's dsttype (if any) as its target, so
		// an explicit destination type still filters the fallback search.
		fallback := FallbackPolicy
		fallback.Target = dsttype
		policies = append(policies, fallback)
	}

	for _, policy := range policies {
		var dsttypes []filetype.FileType
		switch {
		case policy.TranscodeTo != "" && policy.Target != "":
			dsttypes = []filetype.FileType{policy.Target, policy.TranscodeTo}
		case policy.TranscodeTo != "":
			dsttypes = []filetype.FileType{policy.TranscodeTo}
		case policy.Target != "":
			dsttypes = []filetype.FileType{policy.Target}
		}

		limitToPipeline := pipeline
		if len(limitToPipeline) == 0 {
			limitToPipeline = policy.Pipeline
		}

		filtered := selectPipelines(candidatePaths, src, dsttypes, limitToPipeline)
		if len(filtered) > 0 {
			return filtered
		}
	}
	return nil
}
