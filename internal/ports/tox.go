package ports

import (
	"context"

	"pyproject-buildrequires/internal/types"
)

// ToxPort asks tox which dependencies its environments need without
// letting it install or provision anything.
type ToxPort interface {
	PrintDeps(ctx context.Context, toxenvs []string) (types.ToxResult, error)
	// DependencyGroups returns the dependency groups the environments
	// use. Tox versions that cannot report them yield none.
	DependencyGroups(ctx context.Context, toxenvs []string) ([]string, error)
}
