package types

// BuildSystem is the [build-system] table of pyproject.toml.
type BuildSystem struct {
	Requires     []string `toml:"requires"`
	BuildBackend string   `toml:"build-backend"`
	// BackendPath is a list per PEP 517, but some projects use a bare string.
	BackendPath any `toml:"backend-path"`
}

// Project is the subset of the [project] table this tool reads.
type Project struct {
	Name                 string              `toml:"name"`
	Dependencies         []string            `toml:"dependencies"`
	OptionalDependencies map[string][]string `toml:"optional-dependencies"`
	Dynamic              []string            `toml:"dynamic"`
}

// Pyproject is the parsed pyproject.toml of the project being packaged.
// A missing file yields the zero value.
type Pyproject struct {
	BuildSystem *BuildSystem `toml:"build-system"`
	Project     *Project     `toml:"project"`
	// DependencyGroups keeps raw values so that malformed entries can be
	// reported by the group resolver instead of failing the whole decode.
	DependencyGroups map[string]any `toml:"dependency-groups"`
	Found            bool           `toml:"-"`
}

// BackendPaths normalizes backend-path to a slice.
func (b BuildSystem) BackendPaths() []string {
	switch value := b.BackendPath.(type) {
	case string:
		if value == "" {
			return nil
		}
		return []string{value}
	case []any:
		paths := make([]string, 0, len(value))
		for _, item := range value {
			if s, ok := item.(string); ok {
				paths = append(paths, s)
			}
		}
		return paths
	case []string:
		return value
	default:
		return nil
	}
}

// IsDynamic reports whether field is listed in project.dynamic.
func (p Project) IsDynamic(field string) bool {
	for _, name := range p.Dynamic {
		if name == field {
			return true
		}
	}
	return false
}
