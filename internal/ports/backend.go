package ports

import (
	"context"

	"pyproject-buildrequires/internal/types"
)

// BuildBackendPort calls the PEP 517 hooks of a build backend. The bool
// results report whether the backend defines the optional hook at all.
type BuildBackendPort interface {
	GetRequiresForBuildWheel(ctx context.Context, backend types.Backend, settings types.ConfigSettings) ([]string, bool, error)
	// PrepareMetadataForBuildWheel writes a .dist-info directory into
	// metadataDir and returns its base name.
	PrepareMetadataForBuildWheel(ctx context.Context, backend types.Backend, metadataDir string, settings types.ConfigSettings) (string, bool, error)
	// BuildWheel builds the project into wheelDir and returns the exit
	// code of the build.
	BuildWheel(ctx context.Context, wheelDir string, settings types.ConfigSettings) (int, error)
}
