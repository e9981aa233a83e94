package adapters

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/ZanzyTHEbar/errbuilder-go"
	"github.com/pelletier/go-toml/v2"

	"pyproject-buildrequires/internal/ports"
	"pyproject-buildrequires/internal/types"
)

type PyprojectFileAdapter struct{}

func NewPyprojectFileAdapter() PyprojectFileAdapter {
	return PyprojectFileAdapter{}
}

func (a PyprojectFileAdapter) LoadPyproject(dir string) (types.Pyproject, error) {
	path := filepath.Join(dir, "pyproject.toml")
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return types.Pyproject{}, nil
		}
		return types.Pyproject{}, errbuilder.New().
			WithCode(errbuilder.CodeInternal).
			WithMsg("failed to read pyproject.toml").
			WithCause(err)
	}
	var doc types.Pyproject
	if err := toml.Unmarshal(data, &doc); err != nil {
		return types.Pyproject{}, errbuilder.New().
			WithCode(errbuilder.CodeInvalidArgument).
			WithMsg("failed to parse pyproject.toml").
			WithCause(err)
	}
	doc.Found = true
	return doc, nil
}

func (a PyprojectFileAdapter) HasSetupPy(dir string) bool {
	info, err := os.Stat(filepath.Join(dir, "setup.py"))
	return err == nil && !info.IsDir()
}

var _ ports.ProjectPort = PyprojectFileAdapter{}
