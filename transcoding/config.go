package transcoding

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"syncplaylists/filetype"
)

// Configuration is the decoded transcoding.yaml contract: an ordered policy
// list and a per-transcoder settings map.
type Configuration struct {
	Policies Policies
	Settings Settings
}

// SampleConfig renders an example configuration file, mirroring the
// original's sample_policy_file module constant.
func SampleConfig() string {
	return `
policies:
- source: abc
  target: def
settings:
#  copy: {}
# The copy transcoder supports no settings.
#  another:
#     abc: def
`
}

// rawPolicy mirrors one entry under the "policies" key.
type rawPolicy struct {
	Source      *string
	Target      *string
	TranscodeTo *string
	Pipeline    []string
}

// decodePolicies strictly decodes the "policies" sequence, rejecting any
// key within a policy entry other than source/target/transcode_to/pipeline,
// matching the original's construct_transcoder_policy.
func decodePolicies(node *yaml.Node, out *[]rawPolicy) error {
	if node.Kind != yaml.SequenceNode {
		return fmt.Errorf("transcoder policies must be a list of policies")
	}
	for _, entry := range node.Content {
		if entry.Kind != yaml.MappingNode {
			return fmt.Errorf("a transcoder policy must be a dictionary of policy settings")
		}
		var rp rawPolicy
		for i := 0; i < len(entry.Content); i += 2 {
			key := entry.Content[i].Value
			val := entry.Content[i+1]
			switch key {
			case "source":
				var v string
				if err := val.Decode(&v); err != nil {
					return fmt.Errorf("a transcoder source must be a file type in string form")
				}
				rp.Source = &v
			case "target":
				var v string
				if err := val.Decode(&v); err != nil {
					return fmt.Errorf("a transcoder target must be a file type in string form")
				}
				rp.Target = &v
			case "transcode_to":
				var v string
				if err := val.Decode(&v); err != nil {
					return fmt.Errorf("a transcoder transcode_to value must be a file type in string form")
				}
				rp.TranscodeTo = &v
			case "pipeline":
				var v []string
				if err := val.Decode(&v); err != nil {
					return fmt.Errorf("a transcoder pipeline must be a list of transcoder names")
				}
				rp.Pipeline = v
			default:
				return fmt.Errorf("transcoder policies do not know setting %q", key)
			}
		}
		*out = append(*out, rp)
	}
	return nil
}

// UnmarshalYAML implements strict top-level key validation: unknown
// top-level keys are rejected, matching the original's
// TranscoderConfigurationLoader.construct_document.
func (c *Configuration) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.MappingNode {
		return fmt.Errorf("configuration document must be a mapping")
	}

	var policies []rawPolicy
	settings := map[string]map[string]any{}

	for i := 0; i < len(node.Content); i += 2 {
		key := node.Content[i]
		val := node.Content[i+1]
		switch key.Value {
		case "policies":
			if err := decodePolicies(val, &policies); err != nil {
				return fmt.Errorf("decoding policies: %w", err)
			}
		case "settings":
			if err := decodeStrictSettings(val, settings); err != nil {
				return fmt.Errorf("decoding settings: %w", err)
			}
		default:
			return fmt.Errorf("%q is not permitted in the configuration", key.Value)
		}
	}

	ps := make([]Policy, 0, len(policies))
	for _, rp := range policies {
		p := Policy{}
		if rp.Source != nil {
			p.Source = filetype.ByName(*rp.Source)
		}
		if rp.Target != nil {
			p.Target = filetype.ByName(*rp.Target)
		}
		if rp.TranscodeTo != nil {
			p.TranscodeTo = filetype.ByName(*rp.TranscodeTo)
		}
		for _, name := range rp.Pipeline {
			p.Pipeline = append(p.Pipeline, Name(name))
		}
		if p.Source == "" && p.Target == "" && p.TranscodeTo == "" && len(p.Pipeline) == 0 {
			continue
		}
		ps = append(ps, p)
	}

	c.Policies = NewPolicies(ps)
	c.Settings = NewSettings(settings)
	return nil
}

// decodeStrictSettings decodes the "settings" mapping (transcoder name ->
// arbitrary options map) without imposing any further key restriction on
// the per-transcoder options themselves (those are validated later by each
// transcoder's own factory).
func decodeStrictSettings(node *yaml.Node, out map[string]map[string]any) error {
	if node.Kind != yaml.MappingNode {
		return fmt.Errorf("transcoder settings must be a mapping of transcoder name to options")
	}
	for i := 0; i < len(node.Content); i += 2 {
		name := node.Content[i].Value
		var opts map[string]any
		if err := node.Content[i+1].Decode(&opts); err != nil {
			return fmt.Errorf("decoding settings for %q: %w", name, err)
		}
		out[name] = opts
	}
	return nil
}

// LoadConfig decodes a Configuration from data. An empty document yields an
// empty Configuration (no policies, no settings), matching the original's
// "p is None -> DefaultTranscoderConfiguration" fallback.
func LoadConfig(data []byte) (Configuration, error) {
	var cfg Configuration
	if len(data) == 0 {
		return cfg, nil
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Configuration{}, err
	}
	return cfg, nil
}

// DefaultConfigFilename is the relative path of the configuration file
// beneath a config-home directory.
func DefaultConfigFilename() string {
	return filepath.Join("musictoolbox", "transcoding.yaml")
}

// DefaultConfigPath returns the XDG-resolved default configuration path.
func DefaultConfigPath() string {
	configHome := os.Getenv("XDG_CONFIG_HOME")
	if configHome == "" {
		home, err := os.UserHomeDir()
		if err == nil {
			configHome = filepath.Join(home, ".config")
		}
	}
	return filepath.Join(configHome, DefaultConfigFilename())
}

// LoadConfigFile resolves and loads the transcoding configuration.
// path == "" explicitly disables configuration loading, returning an empty
// Configuration. path == nil searches the default XDG location; if nothing
// is found there, an empty Configuration is returned.
func LoadConfigFile(path *string) (Configuration, error) {
	if path != nil && *path == "" {
		return Configuration{}, nil
	}

	resolved := DefaultConfigPath()
	if path != nil {
		resolved = *path
	}

	data, err := os.ReadFile(resolved)
	if err != nil {
		if os.IsNotExist(err) {
			return Configuration{}, nil
		}
		return Configuration{}, err
	}
	return LoadConfig(data)
}
