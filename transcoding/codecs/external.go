package codecs

import (
	"fmt"
	"os"
	"strings"

	"syncplaylists/filetype"
)

// ExternalProcess is a settings-driven Transcoder that shells out to an
// external encoder, generalizing the teacher's hardcoded two-attempt ffmpeg
// invocation (copy video + re-encode audio, falling back to audio-only on
// failure) into a configurable codec usable for any external tool.
//
// Settings:
//
//	cost:                  positive int, required
//	source_extensions:     list of file-type tokens this transcoder accepts,
//	                       or ["*"] to accept any input
//	dest_extension:        the single file-type token this transcoder produces
//	command:                executable name, looked up on PATH
//	args:                  argument template; "{src}" and "{dst}" are
//	                       substituted with the absolute input/output paths
//	fallback_args:         optional second argument template, tried if the
//	                       primary invocation fails (mirrors the teacher's
//	                       "retry without video" behavior)
//	environment_variables: extra environment variables merged into the
//	                       subprocess environment
type ExternalProcess struct {
	cost             int
	sourceExtensions map[filetype.FileType]bool
	anySource        bool
	destExtension    filetype.FileType
	command          string
	args             []string
	fallbackArgs     []string
	env              map[string]string
}

// NewExternalProcess constructs an ExternalProcess transcoder from a
// settings map, as decoded from transcoding.yaml's settings section.
func NewExternalProcess(settings map[string]any) (*ExternalProcess, error) {
	ep := &ExternalProcess{sourceExtensions: map[filetype.FileType]bool{}, env: map[string]string{}}

	cost, ok := settings["cost"]
	if !ok {
		return nil, fmt.Errorf("missing required setting %q", "cost")
	}
	switch v := cost.(type) {
	case int:
		ep.cost = v
	case float64:
		ep.cost = int(v)
	default:
		return nil, fmt.Errorf("setting %q must be an integer", "cost")
	}

	exts, _ := settings["source_extensions"].([]any)
	if len(exts) == 0 {
		return nil, fmt.Errorf("missing required setting %q", "source_extensions")
	}
	for _, e := range exts {
		s, _ := e.(string)
		if s == "*" {
			ep.anySource = true
			continue
		}
		ep.sourceExtensions[filetype.ByName(strings.ToLower(s))] = true
	}

	dest, _ := settings["dest_extension"].(string)
	if dest == "" {
		return nil, fmt.Errorf("missing required setting %q", "dest_extension")
	}
	ep.destExtension = filetype.ByName(strings.ToLower(dest))

	command, _ := settings["command"].(string)
	if command == "" {
		return nil, fmt.Errorf("missing required setting %q", "command")
	}
	ep.command = command

	if rawArgs, ok := settings["args"].([]any); ok {
		for _, a := range rawArgs {
			s, _ := a.(string)
			ep.args = append(ep.args, s)
		}
	}
	if rawArgs, ok := settings["fallback_args"].([]any); ok {
		for _, a := range rawArgs {
			s, _ := a.(string)
			ep.fallbackArgs = append(ep.fallbackArgs, s)
		}
	}
	if rawEnv, ok := settings["environment_variables"].(map[string]any); ok {
		for k, v := range rawEnv {
			s, _ := v.(string)
			ep.env[k] = s
		}
	}

	return ep, nil
}

// Cost implements transcoding.Transcoder.
func (e *ExternalProcess) Cost() int { return e.cost }

// CanTranscode implements transcoding.Transcoder.
func (e *ExternalProcess) CanTranscode(src string) ([]filetype.FileType, error) {
	if !e.anySource {
		if !e.sourceExtensions[filetype.FromPath(src)] {
			return nil, nil
		}
	}
	return []filetype.FileType{e.destExtension}, nil
}

// Transcode implements transcoding.Transcoder, running the primary argument
// template and retrying with fallback_args (if configured) on failure.
func (e *ExternalProcess) Transcode(src, dst string) error {
	err := e.run(e.substitute(e.args, src, dst))
	if err == nil || len(e.fallbackArgs) == 0 {
		return err
	}
	_ = os.Remove(dst)
	return e.run(e.substitute(e.fallbackArgs, src, dst))
}

func (e *ExternalProcess) substitute(template []string, src, dst string) []string {
	out := make([]string, len(template))
	for i, a := range template {
		a = strings.ReplaceAll(a, "{src}", src)
		a = strings.ReplaceAll(a, "{dst}", dst)
		out[i] = a
	}
	return out
}

func (e *ExternalProcess) run(args []string) error {
	for k, v := range e.env {
		prev, had := os.LookupEnv(k)
		_ = os.Setenv(k, v)
		defer func(k, prev string, had bool) {
			if had {
				_ = os.Setenv(k, prev)
			} else {
				_ = os.Unsetenv(k)
			}
		}(k, prev, had)
	}
	out, err := Exec(e.command, args)
	if err != nil {
		return fmt.Errorf("%s failed: %w: %s", e.command, err, out)
	}
	return nil
}
