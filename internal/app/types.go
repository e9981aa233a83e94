package app

import "pyproject-buildrequires/internal/types"

type GenerateRequest struct {
	Output           string
	RequirementFiles []string
	Runtime          bool
	Extras           []string
	DependencyGroups []string
	Tox              bool
	Toxenvs          []string
	// DefaultToxenv replaces the py<major><minor> default when set, as
	// $RPM_TOXENV does.
	DefaultToxenv  string
	Wheel          bool
	WheelDir       string
	ReadPyproject  bool
	UseBuildSystem bool
	ConfigSettings types.ConfigSettings
	GenerateExtras bool
	PkgVersion     string
}

type GenerateResult struct {
	Output  string
	Lines   []string
	Missing bool
	// Ended is set when a pass stopped early because requirements are
	// missing.
	Ended bool
}

// runtimeSource picks where run-time requirements come from; -p wins
// over -w.
func (r GenerateRequest) runtimeSource() types.RuntimeSource {
	switch {
	case r.ReadPyproject:
		return types.RuntimeSourcePyproject
	case r.Wheel:
		return types.RuntimeSourceWheel
	default:
		return types.RuntimeSourceHook
	}
}
