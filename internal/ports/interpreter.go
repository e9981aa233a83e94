package ports

import (
	"context"

	"pyproject-buildrequires/internal/types"
)

// InterpreterPort inspects the Python interpreter the project is built for.
type InterpreterPort interface {
	Probe(ctx context.Context) (types.InterpreterInfo, error)
}

// InstalledVersionsPort lists the distributions importable from sysPath,
// keyed by canonical name. The first distribution found in path order wins.
type InstalledVersionsPort interface {
	Installed(ctx context.Context, sysPath []string) (map[string]string, error)
}
