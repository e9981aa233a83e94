package types

import (
	"fmt"
	"strings"
)

// InterpreterInfo describes the Python interpreter the project is built
// with, as reported by the interpreter probe.
type InterpreterInfo struct {
	Executable  string            `json:"executable"`
	Version     string            `json:"version"`
	SysPath     []string          `json:"sys_path"`
	Environment map[string]string `json:"environment"`
}

// DefaultToxEnv returns the tox environment named after the interpreter
// version, e.g. "py312" for 3.12.
func (i InterpreterInfo) DefaultToxEnv() string {
	major, rest, _ := strings.Cut(i.Version, ".")
	minor, _, _ := strings.Cut(rest, ".")
	return fmt.Sprintf("py%s%s", major, minor)
}
