package core

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/ZanzyTHEbar/assert-lib"
	"github.com/ZanzyTHEbar/errbuilder-go"
	pep440 "github.com/aquasecurity/go-pep440-version"

	"pyproject-buildrequires/internal/types"
)

var (
	emittableVersionRe  = regexp.MustCompile(`^[a-zA-Z0-9.-]+(\.\*)?$`)
	normalizedVersionRe = regexp.MustCompile(
		`^(?:(\d+)!)?(\d+(?:\.\d+)*)(?:(a|b|rc)(\d+))?(?:\.post(\d+))?(?:\.dev(\d+))?(?:\+.*)?$`)
)

// rpmVersion is a PEP 440 version decomposed for rendering as an RPM
// version string. Versions PEP 440 cannot parse are kept verbatim in
// legacy.
type rpmVersion struct {
	legacy  string
	epoch   uint64
	release []uint64
	pre     string
	post    string
	dev     string
}

func newRpmVersion(value string) rpmVersion {
	parsed, err := pep440.Parse(value)
	if err != nil {
		return rpmVersion{legacy: value}
	}
	match := normalizedVersionRe.FindStringSubmatch(parsed.String())
	if match == nil {
		return rpmVersion{legacy: value}
	}
	version := rpmVersion{}
	if match[1] != "" {
		version.epoch, _ = strconv.ParseUint(match[1], 10, 64)
	}
	for _, component := range strings.Split(match[2], ".") {
		number, _ := strconv.ParseUint(component, 10, 64)
		version.release = append(version.release, number)
	}
	if match[3] != "" {
		version.pre = match[3] + match[4]
	}
	if match[5] != "" {
		version.post = match[5]
	}
	if match[6] != "" {
		version.dev = "dev" + match[6]
	}
	return version
}

func (v rpmVersion) isLegacy() bool {
	return v.legacy != ""
}

func (v rpmVersion) isFinal() bool {
	return v.pre == "" && v.dev == "" && v.post == ""
}

// increment bumps the last release component and drops any pre, post
// or dev part.
func (v rpmVersion) increment() rpmVersion {
	release := append([]uint64(nil), v.release...)
	release[len(release)-1]++
	return rpmVersion{epoch: v.epoch, release: release}
}

// dropLast removes the last release component.
func (v rpmVersion) dropLast() rpmVersion {
	out := v
	out.release = append([]uint64(nil), v.release[:len(v.release)-1]...)
	return out
}

func (v rpmVersion) String() string {
	if v.isLegacy() {
		return v.legacy
	}
	var builder strings.Builder
	if v.epoch != 0 {
		builder.WriteString(strconv.FormatUint(v.epoch, 10))
		builder.WriteString(":")
	}
	release := v.release
	for len(release) > 1 && release[len(release)-1] == 0 {
		release = release[:len(release)-1]
	}
	parts := make([]string, 0, len(release))
	for _, component := range release {
		parts = append(parts, strconv.FormatUint(component, 10))
	}
	builder.WriteString(strings.Join(parts, "."))
	switch {
	case v.pre != "":
		builder.WriteString("~" + v.pre)
	case v.dev != "":
		builder.WriteString("~~" + v.dev)
	case v.post != "":
		builder.WriteString("^post" + v.post)
	}
	return builder.String()
}

// Python3Dist renders the RPM virtual provide of a distribution, e.g.
// python3dist(requests) or python3dist(requests) >= 2.
func Python3Dist(ctx context.Context, name string, op string, version string, pkgVersion string) string {
	if pkgVersion == "" {
		pkgVersion = "3"
	}
	return distClause(ctx, fmt.Sprintf("python%sdist(%s)", pkgVersion, name), op, version)
}

// distClause renders "dist op version". op and version go together.
func distClause(ctx context.Context, dist string, op string, version string) string {
	if op == "" {
		if version != "" {
			assert.NotEmpty(ctx, op, "op and version go together")
		}
		return dist
	}
	assert.NotEmpty(ctx, version, "op and version go together")
	return dist + " " + op + " " + version
}

// ConvertSpecifier translates one PEP 440 version clause on the RPM
// dependency named dist into an RPM rich dependency expression.
func ConvertSpecifier(ctx context.Context, dist string, spec types.Constraint) (string, error) {
	switch spec.Op {
	case types.ConstraintOpCompat:
		return convertCompatible(ctx, dist, spec.Version)
	case types.ConstraintOpEq:
		return convertEqual(ctx, dist, spec.Version)
	case types.ConstraintOpArbitrary:
		if strings.HasSuffix(spec.Version, ".*") {
			return "", invalidVersion(spec)
		}
		return distClause(ctx, dist, "=", newRpmVersion(spec.Version).String()), nil
	case types.ConstraintOpNe:
		return convertNotEqual(ctx, dist, spec.Version)
	case types.ConstraintOpLt, types.ConstraintOpLte, types.ConstraintOpGt, types.ConstraintOpGte:
		return convertOrdered(ctx, dist, spec.Op, spec.Version), nil
	default:
		return "", errbuilder.New().
			WithCode(errbuilder.CodeInvalidArgument).
			WithMsg(fmt.Sprintf("unsupported version operator %q", spec.Op))
	}
}

func convertCompatible(ctx context.Context, dist string, version string) (string, error) {
	spec := types.Constraint{Op: types.ConstraintOpCompat, Version: version}
	if strings.HasSuffix(version, ".*") {
		return "", invalidVersion(spec)
	}
	lower := newRpmVersion(version)
	if lower.isLegacy() || len(lower.release) == 1 {
		return "", invalidVersion(spec)
	}
	upper := lower.dropLast().increment()
	return fmt.Sprintf("(%s with %s)",
		distClause(ctx, dist, ">=", lower.String()),
		distClause(ctx, dist, "<", upper.String())), nil
}

func convertEqual(ctx context.Context, dist string, version string) (string, error) {
	if strings.HasSuffix(version, ".*") {
		return convertCompatible(ctx, dist, strings.TrimSuffix(version, ".*")+".0")
	}
	return distClause(ctx, dist, "=", newRpmVersion(version).String()), nil
}

func convertNotEqual(ctx context.Context, dist string, version string) (string, error) {
	if strings.HasSuffix(version, ".*") {
		base := newRpmVersion(strings.TrimSuffix(version, ".*"))
		if base.isLegacy() {
			return "", invalidVersion(types.Constraint{Op: types.ConstraintOpNe, Version: version})
		}
		return fmt.Sprintf("(%s or %s)",
			distClause(ctx, dist, "<", base.String()+"~~"),
			distClause(ctx, dist, ">=", base.increment().String())), nil
	}
	parsed := newRpmVersion(version).String()
	return fmt.Sprintf("(%s or %s)", distClause(ctx, dist, "<", parsed), distClause(ctx, dist, ">", parsed)), nil
}

func convertOrdered(ctx context.Context, dist string, op types.ConstraintOp, version string) string {
	var parsed rpmVersion
	if strings.HasSuffix(version, ".*") {
		parsed = newRpmVersion(strings.TrimSuffix(version, ".*"))
		// prefix matching is undefined for ordered comparisons; map to
		// the nearest release boundary
		switch op {
		case types.ConstraintOpLte:
			op = types.ConstraintOpLt
			if !parsed.isLegacy() {
				parsed = parsed.increment()
			}
		case types.ConstraintOpGt:
			op = types.ConstraintOpGte
			if !parsed.isLegacy() {
				parsed = parsed.increment()
			}
		}
	} else {
		parsed = newRpmVersion(version)
	}
	rendered := parsed.String()
	if !parsed.isLegacy() && parsed.isFinal() {
		switch op {
		case types.ConstraintOpLt:
			rendered += "~~"
		case types.ConstraintOpGt:
			rendered += ".0"
		}
	}
	return distClause(ctx, dist, string(op), rendered)
}

func invalidVersion(spec types.Constraint) error {
	return errbuilder.New().
		WithCode(errbuilder.CodeInvalidArgument).
		WithMsg(fmt.Sprintf("Invalid version: %s%s", spec.Op, spec.Version))
}

// validateEmittableVersion rejects version strings that cannot appear in
// an RPM dependency.
func validateEmittableVersion(version string) error {
	if emittableVersionRe.MatchString(version) {
		return nil
	}
	return errbuilder.New().
		WithCode(errbuilder.CodeInvalidArgument).
		WithMsg(fmt.Sprintf("Unknown character in version: %s. (This might be a bug in pyproject-rpm-macros.)", version))
}
