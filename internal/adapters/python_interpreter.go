package adapters

import (
	"context"
	"encoding/json"

	"github.com/ZanzyTHEbar/errbuilder-go"
	"github.com/rs/zerolog/log"

	"pyproject-buildrequires/internal/ports"
	"pyproject-buildrequires/internal/types"
)

// PythonInterpreterAdapter reports the marker environment and import path
// of the target interpreter.
type PythonInterpreterAdapter struct {
	Python string
	Dir    string
}

func NewPythonInterpreterAdapter(python string, dir string) PythonInterpreterAdapter {
	return PythonInterpreterAdapter{Python: python, Dir: dir}
}

func (a PythonInterpreterAdapter) Probe(ctx context.Context) (types.InterpreterInfo, error) {
	run, err := checkedPython(ctx, a.Python, a.Dir, "interpreter probe", "-c", probeScript)
	if err != nil {
		return types.InterpreterInfo{}, err
	}
	var info types.InterpreterInfo
	if err := json.Unmarshal(run.Stdout, &info); err != nil {
		return types.InterpreterInfo{}, errbuilder.New().
			WithCode(errbuilder.CodeInternal).
			WithMsg("failed to decode interpreter probe output").
			WithCause(err)
	}
	log.Ctx(ctx).Debug().
		Str("executable", info.Executable).
		Str("version", info.Version).
		Msg("interpreter probed")
	return info, nil
}

var _ ports.InterpreterPort = PythonInterpreterAdapter{}
