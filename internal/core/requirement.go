package core

import (
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/ZanzyTHEbar/errbuilder-go"
	pep440 "github.com/aquasecurity/go-pep440-version"

	"pyproject-buildrequires/internal/shared"
	"pyproject-buildrequires/internal/types"
)

// Requirement is a parsed PEP 508 dependency specification.
type Requirement struct {
	Name       string
	Extras     []string
	Specifiers []types.Constraint
	URL        string
	Marker     Marker
}

var (
	requirementNameRe = regexp.MustCompile(`^[A-Za-z0-9](?:[A-Za-z0-9._-]*[A-Za-z0-9])?`)
	extraNameRe       = regexp.MustCompile(`^[A-Za-z0-9](?:[A-Za-z0-9._-]*[A-Za-z0-9])?$`)
	urlSchemeRe       = regexp.MustCompile(`^[A-Za-z][A-Za-z0-9+.-]*:\S+$`)
	specifierRe       = regexp.MustCompile(`^\s*(~=|===|==|!=|<=|>=|<|>)\s*([^\s,;()]+)\s*$`)
)

// specifierOps is the ordered list of operators tried during parsing.
// Longer tokens must precede shorter ones to avoid false matches
// (e.g. "===" before "==", ">=" before ">").
var specifierOps = []types.ConstraintOp{
	types.ConstraintOpArbitrary,
	types.ConstraintOpCompat,
	types.ConstraintOpEq,
	types.ConstraintOpNe,
	types.ConstraintOpLte,
	types.ConstraintOpGte,
	types.ConstraintOpLt,
	types.ConstraintOpGt,
}

// CanonicalizeName returns the PEP 503 normalized form of a project name.
// Every comparison and every emitted clause goes through it, so Foo_Bar,
// foo.bar and FOO-BAR are the same project.
func CanonicalizeName(name string) string {
	return shared.NormalizePipName(name)
}

// Canonical returns the canonical project name of the requirement.
func (r Requirement) Canonical() string {
	return CanonicalizeName(r.Name)
}

// HasExtras reports whether the requirement selects any extras.
func (r Requirement) HasExtras() bool {
	return len(r.Extras) > 0
}

// String renders the requirement back in PEP 508 form.
func (r Requirement) String() string {
	var builder strings.Builder
	builder.WriteString(r.Name)
	if len(r.Extras) > 0 {
		builder.WriteString("[")
		builder.WriteString(strings.Join(r.Extras, ","))
		builder.WriteString("]")
	}
	if r.URL != "" {
		builder.WriteString(" @ ")
		builder.WriteString(r.URL)
		if r.Marker != nil {
			builder.WriteString(" ")
		}
	} else if len(r.Specifiers) > 0 {
		specs := make([]string, 0, len(r.Specifiers))
		for _, spec := range r.Specifiers {
			specs = append(specs, spec.String())
		}
		builder.WriteString(strings.Join(specs, ","))
	}
	if r.Marker != nil {
		builder.WriteString("; ")
		builder.WriteString(r.Marker.String())
	}
	return builder.String()
}

// SortedSpecifiers returns the version clauses ordered by operator, then
// version, so that the emitted clause does not depend on input order.
func (r Requirement) SortedSpecifiers() []types.Constraint {
	sorted := append([]types.Constraint(nil), r.Specifiers...)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].Op != sorted[j].Op {
			return sorted[i].Op < sorted[j].Op
		}
		return sorted[i].Version < sorted[j].Version
	})
	return sorted
}

// ParseRequirement parses a PEP 508 requirement string. The source names
// where the string came from and only appears in error messages.
func ParseRequirement(raw string, source string) (Requirement, error) {
	req, err := parseRequirement(raw)
	if err != nil {
		message := fmt.Sprintf("Requirement '%s' from %s is invalid.", raw, source)
		if hint := guessInvalidRequirementReason(raw); hint != "" {
			message += " Hint: " + hint
		}
		return Requirement{}, errbuilder.New().
			WithCode(errbuilder.CodeInvalidArgument).
			WithMsg(message).
			WithCause(err)
	}
	return req, nil
}

func parseRequirement(raw string) (Requirement, error) {
	rest := strings.TrimSpace(raw)
	if rest == "" {
		return Requirement{}, fmt.Errorf("empty requirement")
	}
	name := requirementNameRe.FindString(rest)
	if name == "" {
		return Requirement{}, fmt.Errorf("expected package name at the start of %q", raw)
	}
	req := Requirement{Name: name}
	rest = strings.TrimLeft(rest[len(name):], " \t")

	if strings.HasPrefix(rest, "[") {
		end := strings.Index(rest, "]")
		if end == -1 {
			return Requirement{}, fmt.Errorf("unclosed extras in %q", raw)
		}
		extras, err := parseExtras(rest[1:end])
		if err != nil {
			return Requirement{}, err
		}
		req.Extras = extras
		rest = strings.TrimLeft(rest[end+1:], " \t")
	}

	markerText := ""
	hasMarker := false
	switch {
	case strings.HasPrefix(rest, "@"):
		urlPart := strings.TrimSpace(rest[1:])
		url := urlPart
		if idx := findURLMarkerSeparator(urlPart); idx != -1 {
			url = strings.TrimSpace(urlPart[:idx])
			markerText = urlPart[idx+1:]
			hasMarker = true
		} else if strings.Contains(urlPart, ";") && !strings.Contains(urlPart, " ") {
			// a marker glued to the URL is ambiguous in PEP 508
			return Requirement{}, fmt.Errorf("missing whitespace after URL in %q", raw)
		}
		if !urlSchemeRe.MatchString(url) {
			return Requirement{}, fmt.Errorf("invalid URL %q", url)
		}
		req.URL = url
	default:
		specText := rest
		if idx := strings.Index(rest, ";"); idx != -1 {
			specText = rest[:idx]
			markerText = rest[idx+1:]
			hasMarker = true
		}
		specs, err := parseSpecifiers(specText)
		if err != nil {
			return Requirement{}, err
		}
		req.Specifiers = specs
	}

	if hasMarker {
		if strings.TrimSpace(markerText) == "" {
			return Requirement{}, fmt.Errorf("expected marker after ';' in %q", raw)
		}
		marker, err := ParseMarker(markerText)
		if err != nil {
			return Requirement{}, err
		}
		req.Marker = marker
	}
	return req, nil
}

func findURLMarkerSeparator(value string) int {
	for i := 1; i < len(value); i++ {
		if value[i] == ';' && (value[i-1] == ' ' || value[i-1] == '\t') {
			return i
		}
	}
	return -1
}

func parseExtras(text string) ([]string, error) {
	var extras []string
	seen := map[string]struct{}{}
	if strings.TrimSpace(text) == "" {
		return nil, nil
	}
	for _, part := range strings.Split(text, ",") {
		extra := strings.TrimSpace(part)
		if !extraNameRe.MatchString(extra) {
			return nil, fmt.Errorf("invalid extra %q", extra)
		}
		if _, ok := seen[extra]; ok {
			continue
		}
		seen[extra] = struct{}{}
		extras = append(extras, extra)
	}
	sort.Strings(extras)
	return extras, nil
}

func parseSpecifiers(text string) ([]types.Constraint, error) {
	text = strings.TrimSpace(text)
	if strings.HasPrefix(text, "(") {
		if !strings.HasSuffix(text, ")") {
			return nil, fmt.Errorf("unclosed version specifier %q", text)
		}
		text = strings.TrimSpace(text[1 : len(text)-1])
	}
	if text == "" {
		return nil, nil
	}
	var specs []types.Constraint
	for _, part := range strings.Split(text, ",") {
		match := specifierRe.FindStringSubmatch(part)
		if match == nil {
			return nil, fmt.Errorf("invalid version specifier %q", strings.TrimSpace(part))
		}
		op := matchOp(match[1])
		version := match[2]
		if op != types.ConstraintOpArbitrary {
			if _, err := pep440.NewSpecifiers(string(op) + version); err != nil {
				return nil, fmt.Errorf("invalid version specifier %q: %w", strings.TrimSpace(part), err)
			}
		}
		specs = append(specs, types.Constraint{Op: op, Version: version})
	}
	return specs, nil
}

func matchOp(token string) types.ConstraintOp {
	for _, op := range specifierOps {
		if token == string(op) {
			return op
		}
	}
	return types.ConstraintOpNone
}

func guessInvalidRequirementReason(raw string) string {
	if strings.Contains(raw, ":") {
		message := "It might be an URL. " +
			"%pyproject_buildrequires cannot handle all URL-based requirements. " +
			"Add PackageName@ (see PEP 508) to the URL to at least require any version of PackageName."
		if strings.Contains(raw, "@") {
			message += " (but note that URLs might not work well with other features)"
		}
		return message
	}
	if strings.Contains(raw, "/") {
		return "It might be a local path. " +
			"%pyproject_buildrequires cannot handle local paths as requirements. " +
			"Use an URL with PackageName@ (see PEP 508) to at least require any version of PackageName."
	}
	return ""
}
