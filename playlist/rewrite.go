package playlist

import (
	"bufio"
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// RewriteResult reports the outcome of rewriting a single playlist.
type RewriteResult struct {
	Source string
	Target string
	Err    error
}

// Rewrite rewrites each playlist in playlists into targetDir, replacing
// every referenced path with its synchronized location (or a comment
// explaining why it wasn't synced), and prefixing each rewritten line with
// a "# was: ..." provenance comment. willSync and alreadySynced map a
// resolved source path to its destination path; wontSyncReason maps a
// resolved source path to a human-readable reason it was skipped.
//
// A playlist identical to what's already on disk at its target location is
// left untouched. When dryRun is true, no files are written; results are
// still reported as if they had been.
func Rewrite(
	playlists []string,
	targetDir string,
	willSync map[string]string,
	alreadySynced map[string]string,
	wontSyncReason map[string]string,
	dryRun bool,
) []RewriteResult {
	results := make([]RewriteResult, 0, len(playlists))

	if !dryRun {
		if err := os.MkdirAll(targetDir, 0o755); err != nil {
			return []RewriteResult{{Source: targetDir, Target: targetDir, Err: err}}
		}
	}

	for _, p := range playlists {
		newp := filepath.Join(targetDir, filepath.Base(p))
		realp, err := filepath.EvalSymlinks(p)
		if err != nil {
			results = append(results, RewriteResult{Source: p, Target: newp, Err: err})
			continue
		}

		lines, err := rewriteLines(realp, p, newp, targetDir, willSync, alreadySynced, wontSyncReason)
		if err != nil {
			results = append(results, RewriteResult{Source: p, Target: newp, Err: err})
			continue
		}

		newContent := strings.Join(lines, "")
		if existing, err := os.ReadFile(newp); err == nil && string(existing) == newContent {
			continue
		}

		if !dryRun {
			if err := os.WriteFile(newp, []byte(newContent), 0o644); err != nil {
				results = append(results, RewriteResult{Source: p, Target: newp, Err: err})
				continue
			}
		}
		results = append(results, RewriteResult{Source: p, Target: newp})
	}

	return results
}

func rewriteLines(
	realSource, originalSource, newp, targetDir string,
	willSync, alreadySynced, wontSyncReason map[string]string,
) ([]string, error) {
	content, err := os.ReadFile(realSource)
	if err != nil {
		return nil, err
	}
	hasTrailingNewline := len(content) > 0 && content[len(content)-1] == '\n'

	pdir := filepath.Dir(realSource)

	var out []string
	scanner := bufio.NewScanner(bytes.NewReader(content))
	for scanner.Scan() {
		raw := scanner.Text()
		if strings.HasPrefix(raw, "#") || strings.TrimSpace(raw) == "" {
			out = append(out, raw+"\n")
			continue
		}

		out = append(out, "# was: "+strings.TrimSpace(raw)+"\n")

		trimmed := strings.TrimSpace(raw)
		truel := trimmed
		if !filepath.IsAbs(truel) {
			truel = filepath.Join(pdir, truel)
		}
		truel = filepath.Clean(truel)

		var ln string
		switch {
		case willSync[truel] != "":
			rel, err := filepath.Rel(targetDir, willSync[truel])
			if err != nil {
				return nil, err
			}
			ln = rel
		case alreadySynced[truel] != "":
			rel, err := filepath.Rel(targetDir, alreadySynced[truel])
			if err != nil {
				return nil, err
			}
			ln = rel
		case wontSyncReason[truel] != "":
			ln = "# not synced because of " + wontSyncReason[truel]
		default:
			return nil, fmt.Errorf("playlist entry %q resolved to %q, which was not accounted for in the sync plan", trimmed, truel)
		}
		out = append(out, ln+"\n")
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	if !hasTrailingNewline && len(out) > 0 {
		out[len(out)-1] = strings.TrimSuffix(out[len(out)-1], "\n")
	}

	insertAt := 0
	if len(out) > 0 && strings.HasPrefix(out[0], "#EXTM3U") {
		insertAt = 1
	}
	provenance := fmt.Sprintf("# from: %s\n", originalSource)
	out = append(out, "")
	copy(out[insertAt+1:], out[insertAt:])
	out[insertAt] = provenance

	return out, nil
}
