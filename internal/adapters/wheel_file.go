package adapters

import (
	"archive/zip"
	"io"
	"path/filepath"
	"sort"
	"strings"

	"github.com/ZanzyTHEbar/errbuilder-go"

	"pyproject-buildrequires/internal/ports"
	"pyproject-buildrequires/internal/types"
)

// WheelFileAdapter reads wheels produced by the -w run-time mode.
type WheelFileAdapter struct{}

func NewWheelFileAdapter() WheelFileAdapter {
	return WheelFileAdapter{}
}

func (a WheelFileAdapter) FindBuiltWheel(dir string) (string, bool, error) {
	wheels, err := filepath.Glob(filepath.Join(dir, "*.whl"))
	if err != nil {
		return "", false, errbuilder.New().
			WithCode(errbuilder.CodeInternal).
			WithMsg("failed to list wheels in " + dir).
			WithCause(err)
	}
	sort.Strings(wheels)
	switch len(wheels) {
	case 0:
		return "", false, nil
	case 1:
		return wheels[0], true, nil
	default:
		return "", false, errbuilder.New().
			WithCode(errbuilder.CodeFailedPrecondition).
			WithMsg("Found multiple wheels in %{_pyproject_wheeldir}, this is not supported with %pyproject_buildrequires -w.")
	}
}

func (a WheelFileAdapter) ReadWheelMetadata(path string) (types.Metadata, error) {
	reader, err := zip.OpenReader(path)
	if err != nil {
		return types.Metadata{}, errbuilder.New().
			WithCode(errbuilder.CodeInvalidArgument).
			WithMsg("failed to open wheel " + path).
			WithCause(err)
	}
	defer reader.Close()

	for _, file := range reader.File {
		if strings.Count(file.Name, "/") != 1 || !strings.HasSuffix(file.Name, ".dist-info/METADATA") {
			continue
		}
		handle, err := file.Open()
		if err != nil {
			return types.Metadata{}, errbuilder.New().
				WithCode(errbuilder.CodeInternal).
				WithMsg("failed to read " + file.Name + " from " + path).
				WithCause(err)
		}
		content, err := io.ReadAll(handle)
		handle.Close()
		if err != nil {
			return types.Metadata{}, errbuilder.New().
				WithCode(errbuilder.CodeInternal).
				WithMsg("failed to read " + file.Name + " from " + path).
				WithCause(err)
		}
		return parseMetadata(content), nil
	}
	return types.Metadata{}, errbuilder.New().
		WithCode(errbuilder.CodeFailedPrecondition).
		WithMsg("Could not find *.dist-info/METADATA in built wheel.")
}

var _ ports.WheelPort = WheelFileAdapter{}
