package core

import (
	"strings"

	pep440 "github.com/aquasecurity/go-pep440-version"

	"pyproject-buildrequires/internal/types"
)

// versionCache memoizes parsed version objects to avoid repeated parsing
// while checking many requirements against the installed registry.
type versionCache struct {
	pep  map[string]pep440.Version
	spec map[string]pep440.Specifiers
}

func newVersionCache() *versionCache {
	return &versionCache{
		pep:  map[string]pep440.Version{},
		spec: map[string]pep440.Specifiers{},
	}
}

// pepVersion returns a parsed PEP 440 version, caching the result.
func (c *versionCache) pepVersion(value string) (pep440.Version, error) {
	if parsed, ok := c.pep[value]; ok {
		return parsed, nil
	}
	parsed, err := pep440.Parse(value)
	if err != nil {
		return pep440.Version{}, err
	}
	c.pep[value] = parsed
	return parsed, nil
}

// pepSpec returns parsed PEP 440 specifiers, caching the result.
// Pre-releases always take part in the check.
func (c *versionCache) pepSpec(value string) (pep440.Specifiers, error) {
	if parsed, ok := c.spec[value]; ok {
		return parsed, nil
	}
	parsed, err := pep440.NewSpecifiers(value, pep440.WithPreRelease(true))
	if err != nil {
		return pep440.Specifiers{}, err
	}
	c.spec[value] = parsed
	return parsed, nil
}

// satisfies reports whether an installed version string meets every
// version clause. An unparsable installed version satisfies nothing but
// an unconstrained requirement.
func (c *versionCache) satisfies(installed string, specs []types.Constraint) bool {
	if len(specs) == 0 {
		return true
	}
	for _, spec := range specs {
		if spec.Op == types.ConstraintOpArbitrary {
			if !strings.EqualFold(installed, spec.Version) {
				return false
			}
			continue
		}
		version, err := c.pepVersion(installed)
		if err != nil {
			return false
		}
		parsed, err := c.pepSpec(toPep440Spec(spec))
		if err != nil {
			return false
		}
		if !parsed.Check(version) {
			return false
		}
	}
	return true
}

// toPep440Spec converts an internal constraint to a PEP 440 specifier
// string (e.g. ">= 1.0", "~= 2.3").
func toPep440Spec(constraint types.Constraint) string {
	return strings.TrimSpace(string(constraint.Op) + " " + constraint.Version)
}
