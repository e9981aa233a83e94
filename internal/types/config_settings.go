package types

import (
	"encoding/json"
	"sort"
	"strings"
)

// ConfigSettings are the PEP 517 config_settings passed to backend hooks.
// A key given once maps to a string, a repeated key maps to a list.
type ConfigSettings map[string][]string

// ParseConfigSettings converts repeated -C key=value arguments. A missing
// "=" yields an empty value. Nil is returned when no arguments are given so
// that hooks receive None.
func ParseConfigSettings(args []string) ConfigSettings {
	if len(args) == 0 {
		return nil
	}
	settings := ConfigSettings{}
	for _, arg := range args {
		key, value, _ := strings.Cut(arg, "=")
		settings[key] = append(settings[key], value)
	}
	return settings
}

func (c ConfigSettings) MarshalJSON() ([]byte, error) {
	if c == nil {
		return []byte("null"), nil
	}
	out := make(map[string]any, len(c))
	for key, values := range c {
		if len(values) == 1 {
			out[key] = values[0]
			continue
		}
		out[key] = values
	}
	return json.Marshal(out)
}

// Args renders the settings as key=value pairs in key order, repeating
// keys that carry several values.
func (c ConfigSettings) Args() []string {
	keys := make([]string, 0, len(c))
	for key := range c {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	var args []string
	for _, key := range keys {
		for _, value := range c[key] {
			args = append(args, key+"="+value)
		}
	}
	return args
}
