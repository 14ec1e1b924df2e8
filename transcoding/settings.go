package transcoding

import "strings"

// Settings is a mapping from transcoder name to its options-map. Names are
// lowercased on construction; ForName does not lowercase its argument, so
// lookups match only lowercase names.
type Settings struct {
	byName map[Name]map[string]any
}

// NewSettings builds a Settings from a raw transcoder-name -> options map,
// as decoded from the YAML "settings" section.
func NewSettings(raw map[string]map[string]any) Settings {
	byName := make(map[Name]map[string]any, len(raw))
	for name, opts := range raw {
		byName[Name(strings.ToLower(name))] = opts
	}
	return Settings{byName: byName}
}

// AllNames returns every transcoder name for which settings were supplied.
func (s Settings) AllNames() map[Name]struct{} {
	names := make(map[Name]struct{}, len(s.byName))
	for name := range s.byName {
		names[name] = struct{}{}
	}
	return names
}

// ForName returns the options-map for name, or an empty map if none was
// supplied.
func (s Settings) ForName(name Name) map[string]any {
	if opts, ok := s.byName[name]; ok {
		return opts
	}
	return map[string]any{}
}
