package ports

import "pyproject-buildrequires/internal/types"

// ProjectPort reads the declaration of the project being packaged.
type ProjectPort interface {
	// LoadPyproject parses pyproject.toml in dir. A missing file yields
	// a zero Pyproject with Found unset.
	LoadPyproject(dir string) (types.Pyproject, error)
	HasSetupPy(dir string) bool
}

// RequirementsFilePort expands a pip requirements file into requirement
// strings.
type RequirementsFilePort interface {
	ReadRequirements(path string) ([]string, error)
}

// MetadataPort reads core metadata files (METADATA, PKG-INFO).
type MetadataPort interface {
	ReadMetadataFile(path string) (types.Metadata, error)
}

// WheelPort locates built wheels and reads their metadata.
type WheelPort interface {
	// FindBuiltWheel returns the single wheel in dir, if any. More than
	// one wheel is an error.
	FindBuiltWheel(dir string) (string, bool, error)
	ReadWheelMetadata(path string) (types.Metadata, error)
}
