package types

// DefaultBuildBackend is used for projects without build-system.build-backend
// that still ship a setup.py.
const DefaultBuildBackend = "setuptools.build_meta:__legacy__"

// Backend identifies a PEP 517 build backend as "module:object" plus the
// in-tree directories it is loaded from.
type Backend struct {
	Name  string
	Paths []string
}
