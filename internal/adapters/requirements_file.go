package adapters

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/ZanzyTHEbar/errbuilder-go"

	"pyproject-buildrequires/internal/ports"
)

var (
	requirementsCommentRe = regexp.MustCompile(`(^|\s+)#.*$`)
	requirementsEnvVarRe  = regexp.MustCompile(`\$\{([A-Z0-9_]+)\}`)
)

// RequirementsFileAdapter converts pip requirements files into plain
// requirement strings. Only the subset of the format that maps onto
// requirements is understood: comments, line continuations, ${VAR}
// expansion and nested -r includes.
type RequirementsFileAdapter struct {
	Getenv func(string) (string, bool)
}

func NewRequirementsFileAdapter() RequirementsFileAdapter {
	return RequirementsFileAdapter{Getenv: os.LookupEnv}
}

func (a RequirementsFileAdapter) ReadRequirements(path string) ([]string, error) {
	return a.readRequirements(path, map[string]bool{})
}

func (a RequirementsFileAdapter) readRequirements(path string, visiting map[string]bool) ([]string, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		abs = path
	}
	if visiting[abs] {
		return nil, errbuilder.New().
			WithCode(errbuilder.CodeInvalidArgument).
			WithMsg("requirements file " + path + " includes itself")
	}
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, errbuilder.New().
			WithCode(errbuilder.CodeNotFound).
			WithMsg("failed to read requirements file " + path).
			WithCause(err)
	}
	visiting[abs] = true
	defer delete(visiting, abs)
	return a.convert(strings.Split(string(content), "\n"), filepath.Dir(path), visiting)
}

// ConvertLines converts the lines of a requirements file located in dir.
func (a RequirementsFileAdapter) ConvertLines(lines []string, dir string) ([]string, error) {
	return a.convert(lines, dir, map[string]bool{})
}

func (a RequirementsFileAdapter) convert(lines []string, dir string, visiting map[string]bool) ([]string, error) {
	var requirements []string
	for _, line := range stripRequirementComments(combineLogicalLines(lines)) {
		line = a.expandEnvVars(line)
		if include, ok := requirementsInclude(line); ok {
			nested, err := a.readRequirements(filepath.Join(dir, include), visiting)
			if err != nil {
				return nil, err
			}
			requirements = append(requirements, nested...)
			continue
		}
		if strings.HasPrefix(line, "-") {
			return nil, errbuilder.New().
				WithCode(errbuilder.CodeInvalidArgument).
				WithMsg(fmt.Sprintf("Unsupported requirement: %s", line))
		}
		requirements = append(requirements, line)
	}
	return requirements, nil
}

func requirementsInclude(line string) (string, bool) {
	for _, prefix := range []string{"--requirement", "-r"} {
		if !strings.HasPrefix(line, prefix) {
			continue
		}
		rest := strings.TrimPrefix(line, prefix)
		rest = strings.TrimPrefix(strings.TrimSpace(rest), "=")
		return strings.TrimSpace(rest), true
	}
	return "", false
}

func combineLogicalLines(lines []string) []string {
	var combined []string
	var pending strings.Builder
	for _, line := range lines {
		line = strings.TrimRight(line, "\r")
		if strings.HasSuffix(line, `\`) {
			pending.WriteString(strings.TrimSuffix(line, `\`))
			continue
		}
		pending.WriteString(line)
		combined = append(combined, pending.String())
		pending.Reset()
	}
	if pending.Len() > 0 {
		combined = append(combined, pending.String())
	}
	return combined
}

func stripRequirementComments(lines []string) []string {
	var out []string
	for _, line := range lines {
		line = strings.TrimSpace(requirementsCommentRe.ReplaceAllString(line, ""))
		if line != "" {
			out = append(out, line)
		}
	}
	return out
}

func (a RequirementsFileAdapter) expandEnvVars(line string) string {
	getenv := a.Getenv
	if getenv == nil {
		getenv = os.LookupEnv
	}
	return requirementsEnvVarRe.ReplaceAllStringFunc(line, func(match string) string {
		name := requirementsEnvVarRe.FindStringSubmatch(match)[1]
		if value, ok := getenv(name); ok {
			return value
		}
		return match
	})
}

var _ ports.RequirementsFilePort = RequirementsFileAdapter{}
