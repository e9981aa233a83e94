package adapters

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/ZanzyTHEbar/errbuilder-go"
	"github.com/rs/zerolog/log"

	"pyproject-buildrequires/internal/ports"
	"pyproject-buildrequires/internal/types"
)

// ToxAdapter runs tox with the tox-current-env plugin flags that make it
// report dependencies instead of installing them.
type ToxAdapter struct {
	Python string
	Dir    string
	// Fedora is the value of $FEDORA; tox on some releases lacks
	// --assert-config.
	Fedora       string
	Requirements RequirementsFileAdapter
}

func NewToxAdapter(python string, dir string, fedora string) ToxAdapter {
	return ToxAdapter{
		Python:       python,
		Dir:          dir,
		Fedora:       fedora,
		Requirements: NewRequirementsFileAdapter(),
	}
}

func (a ToxAdapter) PrintDeps(ctx context.Context, toxenvs []string) (types.ToxResult, error) {
	tmpDir, err := os.MkdirTemp("", "pyproject-tox-")
	if err != nil {
		return types.ToxResult{}, errbuilder.New().
			WithCode(errbuilder.CodeInternal).
			WithMsg("failed to create tox output directory").
			WithCause(err)
	}
	defer os.RemoveAll(tmpDir)

	depsPath := filepath.Join(tmpDir, "deps")
	extrasPath := filepath.Join(tmpDir, "extras")
	provisionPath := filepath.Join(tmpDir, "provision")
	args := []string{
		"-m", "tox",
		"--print-deps-to", depsPath,
		"--print-extras-to", extrasPath,
		"--no-provision", provisionPath,
	}
	if a.assertConfig() {
		args = append(args, "--assert-config")
	}
	args = append(args, "-q", "-r", "-e", strings.Join(toxenvs, ","))

	run, err := runPython(ctx, a.Python, a.Dir, args...)
	if err != nil {
		return types.ToxResult{}, err
	}
	result := types.ToxResult{
		ExitCode: run.ExitCode,
		Output:   string(run.Stdout) + string(run.Stderr),
	}
	if result.Output != "" {
		log.Ctx(ctx).Info().Msg(strings.TrimRight(result.Output, "\n"))
	}

	provision := readOptionalFile(provisionPath)
	if provision != "" && run.ExitCode != 0 {
		var parsed types.ToxProvision
		if err := json.Unmarshal([]byte(provision), &parsed); err != nil {
			return types.ToxResult{}, errbuilder.New().
				WithCode(errbuilder.CodeInternal).
				WithMsg("failed to decode tox provisioning requirements").
				WithCause(err)
		}
		result.Provision = &parsed
		return result, nil
	}
	if run.ExitCode != 0 {
		return result, nil
	}

	deps, err := a.Requirements.ConvertLines(splitLines(readOptionalFile(depsPath)), a.Dir)
	if err != nil {
		return types.ToxResult{}, err
	}
	result.Deps = deps
	result.Extras = splitLines(readOptionalFile(extrasPath))
	return result, nil
}

func (a ToxAdapter) DependencyGroups(ctx context.Context, toxenvs []string) ([]string, error) {
	tmpDir, err := os.MkdirTemp("", "pyproject-tox-groups-")
	if err != nil {
		return nil, errbuilder.New().
			WithCode(errbuilder.CodeInternal).
			WithMsg("failed to create tox output directory").
			WithCause(err)
	}
	defer os.RemoveAll(tmpDir)

	groupsPath := filepath.Join(tmpDir, "groups")
	run, err := runPython(ctx, a.Python, a.Dir,
		"-m", "tox",
		"--print-dependency-groups-to", groupsPath,
		"-q", "-e", strings.Join(toxenvs, ","),
	)
	if err != nil {
		return nil, err
	}
	if run.ExitCode != 0 {
		log.Ctx(ctx).Debug().Int("exit_code", run.ExitCode).Msg("tox cannot report dependency groups")
		return nil, nil
	}
	return splitLines(readOptionalFile(groupsPath)), nil
}

func (a ToxAdapter) assertConfig() bool {
	release, err := strconv.Atoi(strings.TrimSpace(a.Fedora))
	if err != nil {
		return true
	}
	return release < 40 || release > 42
}

func readOptionalFile(path string) string {
	data, err := os.ReadFile(path)
	if err != nil {
		return ""
	}
	return string(data)
}

func splitLines(content string) []string {
	var lines []string
	for _, line := range strings.Split(content, "\n") {
		line = strings.TrimRight(line, "\r")
		if strings.TrimSpace(line) == "" {
			continue
		}
		lines = append(lines, line)
	}
	return lines
}

var _ ports.ToxPort = ToxAdapter{}
