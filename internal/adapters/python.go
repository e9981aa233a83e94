package adapters

import (
	"bytes"
	"context"
	_ "embed"
	"errors"
	"fmt"
	"os/exec"
	"strings"

	"github.com/ZanzyTHEbar/errbuilder-go"

	"pyproject-buildrequires/internal/shared"
)

//go:embed scripts/probe.py
var probeScript string

//go:embed scripts/hook_runner.py
var hookRunnerScript string

// pythonRun is the outcome of one interpreter invocation.
type pythonRun struct {
	Stdout   []byte
	Stderr   []byte
	ExitCode int
}

// runPython runs the interpreter in dir. A non-zero exit is reported in
// the result, not as an error; errors mean the interpreter could not run.
func runPython(ctx context.Context, python string, dir string, args ...string) (pythonRun, error) {
	cmd := exec.CommandContext(ctx, python, args...)
	cmd.Dir = dir
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	err := cmd.Run()
	run := pythonRun{Stdout: stdout.Bytes(), Stderr: stderr.Bytes()}
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			run.ExitCode = exitErr.ExitCode()
			return run, nil
		}
		return run, errbuilder.New().
			WithCode(errbuilder.CodeFailedPrecondition).
			WithMsg("failed to run " + python).
			WithCause(err)
	}
	return run, nil
}

// checkedPython is runPython with a non-zero exit turned into an error.
func checkedPython(ctx context.Context, python string, dir string, what string, args ...string) (pythonRun, error) {
	run, err := runPython(ctx, python, dir, args...)
	if err != nil {
		return run, err
	}
	if run.ExitCode != 0 {
		output := strings.TrimSpace(string(run.Stderr) + "\n" + string(run.Stdout))
		return run, errbuilder.New().
			WithCode(errbuilder.CodeInternal).
			WithMsg(what + " failed").
			WithCause(shared.CommandError([]byte(output), fmt.Errorf("exit status %d", run.ExitCode)))
	}
	return run, nil
}
