package core

import (
	"sort"
)

// Environment maps marker variable names to their values for one
// evaluation.
type Environment map[string]string

// With returns a copy of the environment with key set to value.
func (e Environment) With(key, value string) Environment {
	clone := make(Environment, len(e)+1)
	for k, v := range e {
		clone[k] = v
	}
	clone[key] = value
	return clone
}

// CandidateEnvironments builds one environment per active extra, in
// sorted order. Without active extras a single environment with an empty
// extra is returned.
func CandidateEnvironments(base Environment, extras []string) []Environment {
	if len(extras) == 0 {
		return []Environment{base.With("extra", "")}
	}
	sorted := append([]string(nil), extras...)
	sort.Strings(sorted)
	envs := make([]Environment, 0, len(sorted))
	for _, extra := range sorted {
		envs = append(envs, base.With("extra", extra))
	}
	return envs
}

// EvaluateAny reports whether the marker holds in at least one of the
// environments. A nil marker always holds.
func EvaluateAny(marker Marker, envs []Environment) (bool, error) {
	if marker == nil {
		return true, nil
	}
	for _, env := range envs {
		ok, err := marker.Evaluate(env)
		if err != nil {
			return false, err
		}
		if ok {
			return true, nil
		}
	}
	return false, nil
}
