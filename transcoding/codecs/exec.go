// Package codecs provides concrete Transcoder implementations driven by
// external encoder/probe processes, configured from the transcoding.yaml
// settings block.
package codecs

import (
	"os/exec"
)

// Exec runs executable with args, returning combined stdout+stderr. Mirrors
// the teacher's own util_exec.go helper: resolve the binary on PATH, then
// run it and report combined output on failure for diagnostics.
func Exec(executable string, args []string) (string, error) {
	bin, err := exec.LookPath(executable)
	if err != nil {
		return "", err
	}
	out, err := exec.Command(bin, args...).CombinedOutput()
	return string(out), err
}
