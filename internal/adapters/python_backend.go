package adapters

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/ZanzyTHEbar/errbuilder-go"
	"github.com/rs/zerolog/log"

	"pyproject-buildrequires/internal/ports"
	"pyproject-buildrequires/internal/types"
)

// PythonBackendAdapter calls PEP 517 hooks by running the hook runner
// script in the project directory.
type PythonBackendAdapter struct {
	Python string
	Dir    string
}

func NewPythonBackendAdapter(python string, dir string) PythonBackendAdapter {
	return PythonBackendAdapter{Python: python, Dir: dir}
}

type hookRequest struct {
	Backend        string               `json:"backend"`
	BackendPath    []string             `json:"backend_path"`
	Hook           string               `json:"hook"`
	Args           []string             `json:"args"`
	ConfigSettings types.ConfigSettings `json:"config_settings"`
	Result         string               `json:"result"`
}

type hookResult struct {
	Missing bool            `json:"missing"`
	Value   json.RawMessage `json:"value"`
}

func (a PythonBackendAdapter) GetRequiresForBuildWheel(ctx context.Context, backend types.Backend, settings types.ConfigSettings) ([]string, bool, error) {
	result, err := a.callHook(ctx, backend, "get_requires_for_build_wheel", nil, settings)
	if err != nil || result.Missing {
		return nil, false, err
	}
	var requires []string
	if err := json.Unmarshal(result.Value, &requires); err != nil {
		return nil, true, errbuilder.New().
			WithCode(errbuilder.CodeInternal).
			WithMsg("get_requires_for_build_wheel did not return a list of strings").
			WithCause(err)
	}
	return requires, true, nil
}

func (a PythonBackendAdapter) PrepareMetadataForBuildWheel(ctx context.Context, backend types.Backend, metadataDir string, settings types.ConfigSettings) (string, bool, error) {
	result, err := a.callHook(ctx, backend, "prepare_metadata_for_build_wheel", []string{metadataDir}, settings)
	if err != nil || result.Missing {
		return "", false, err
	}
	var basename string
	if err := json.Unmarshal(result.Value, &basename); err != nil {
		return "", true, errbuilder.New().
			WithCode(errbuilder.CodeInternal).
			WithMsg("prepare_metadata_for_build_wheel did not return a directory name").
			WithCause(err)
	}
	return basename, true, nil
}

// BuildWheel builds the project with pip the way %pyproject_wheel does,
// reusing the build environment instead of an isolated one.
func (a PythonBackendAdapter) BuildWheel(ctx context.Context, wheelDir string, settings types.ConfigSettings) (int, error) {
	args := []string{
		"-m", "pip", "wheel",
		"--wheel-dir", wheelDir,
		"--no-deps",
		"--use-pep517",
		"--no-build-isolation",
		"--disable-pip-version-check",
		"--no-clean",
		"--progress-bar", "off",
		"--verbose",
	}
	for _, setting := range settings.Args() {
		args = append(args, "--config-settings", setting)
	}
	args = append(args, ".")
	run, err := runPython(ctx, a.Python, a.Dir, args...)
	if err != nil {
		return 0, err
	}
	logger := log.Ctx(ctx)
	logger.Info().Msg(string(run.Stdout))
	if len(run.Stderr) > 0 {
		logger.Info().Msg(string(run.Stderr))
	}
	return run.ExitCode, nil
}

func (a PythonBackendAdapter) callHook(ctx context.Context, backend types.Backend, hook string, args []string, settings types.ConfigSettings) (hookResult, error) {
	tmpDir, err := os.MkdirTemp("", "pyproject-hook-")
	if err != nil {
		return hookResult{}, errbuilder.New().
			WithCode(errbuilder.CodeInternal).
			WithMsg("failed to create hook result directory").
			WithCause(err)
	}
	defer os.RemoveAll(tmpDir)

	if args == nil {
		args = []string{}
	}
	request := hookRequest{
		Backend:        backend.Name,
		BackendPath:    backend.Paths,
		Hook:           hook,
		Args:           args,
		ConfigSettings: settings,
		Result:         filepath.Join(tmpDir, "result.json"),
	}
	payload, err := json.Marshal(request)
	if err != nil {
		return hookResult{}, errbuilder.New().
			WithCode(errbuilder.CodeInternal).
			WithMsg("failed to encode hook request").
			WithCause(err)
	}

	log.Ctx(ctx).Debug().Str("backend", backend.Name).Str("hook", hook).Msg("calling build backend hook")
	run, err := checkedPython(ctx, a.Python, a.Dir, "build backend hook "+hook, "-c", hookRunnerScript, string(payload))
	if err != nil {
		return hookResult{}, err
	}
	if len(run.Stderr) > 0 {
		log.Ctx(ctx).Info().Msg(string(run.Stderr))
	}

	data, err := os.ReadFile(request.Result)
	if err != nil {
		return hookResult{}, errbuilder.New().
			WithCode(errbuilder.CodeInternal).
			WithMsg("build backend hook " + hook + " produced no result").
			WithCause(err)
	}
	var result hookResult
	if err := json.Unmarshal(data, &result); err != nil {
		return hookResult{}, errbuilder.New().
			WithCode(errbuilder.CodeInternal).
			WithMsg("failed to decode build backend hook result").
			WithCause(err)
	}
	return result, nil
}

var _ ports.BuildBackendPort = PythonBackendAdapter{}
