package core

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/rs/zerolog/log"
)

// PassOutcome tells the driver whether generation may continue with the
// next source or must stop so that missing requirements get installed
// first.
type PassOutcome int

const (
	PassContinue PassOutcome = iota
	PassEnd
)

// AddOptions qualify a requirement handed to the Aggregator.
type AddOptions struct {
	// PackageName is the project being packaged. Requirements on it are
	// self-references and only contribute extras.
	PackageName string
	// Source describes where the requirement came from, for diagnostics.
	Source string
	// Extra conjoins the requirement marker with extra == "<Extra>".
	Extra string
}

type alienRequirement struct {
	raw   string
	extra string
}

// Aggregator collects requirements from every source of one run, decides
// which of them apply to the target environment and renders the RPM
// dependency clauses.
type Aggregator struct {
	// GenerateExtras also emits name[extra] clauses for requirements
	// with extras.
	GenerateExtras bool
	// PkgVersion selects the python{N}dist() prefix.
	PkgVersion string

	baseEnv   Environment
	installed map[string]string
	versions  *versionCache

	output  []string
	extras  map[string]struct{}
	missing bool
	aliens  []alienRequirement
}

// NewAggregator creates an Aggregator evaluating markers against env and
// checking satisfaction against installed, keyed by canonical name.
func NewAggregator(env Environment, installed map[string]string) *Aggregator {
	if env == nil {
		env = Environment{}
	}
	if installed == nil {
		installed = map[string]string{}
	}
	return &Aggregator{
		PkgVersion: "3",
		baseEnv:    env,
		installed:  installed,
		versions:   newVersionCache(),
		extras:     map[string]struct{}{},
	}
}

// Lines returns the emitted clauses in emission order.
func (a *Aggregator) Lines() []string {
	return append([]string(nil), a.output...)
}

// Missing reports whether any requirement handled so far is not
// satisfied by the installed registry.
func (a *Aggregator) Missing() bool {
	return a.missing
}

// Extras returns the active extras, sorted.
func (a *Aggregator) Extras() []string {
	extras := make([]string, 0, len(a.extras))
	for extra := range a.extras {
		extras = append(extras, extra)
	}
	sort.Strings(extras)
	return extras
}

// AddExtras activates extras. Each value may hold a comma separated list.
func (a *Aggregator) AddExtras(values ...string) {
	for _, value := range values {
		for _, extra := range strings.Split(value, ",") {
			extra = strings.TrimSpace(extra)
			if extra == "" {
				continue
			}
			a.extras[CanonicalizeName(extra)] = struct{}{}
		}
	}
}

// Extend adds every raw requirement with the same options.
func (a *Aggregator) Extend(ctx context.Context, raws []string, opts AddOptions) error {
	for _, raw := range raws {
		if err := a.Add(ctx, raw, opts); err != nil {
			return err
		}
	}
	return nil
}

// Check ends the pass when a requirement is missing.
func (a *Aggregator) Check(ctx context.Context, source string) PassOutcome {
	if !a.missing {
		return PassContinue
	}
	log.Ctx(ctx).Info().Msgf("Exiting dependency generation pass: %s", source)
	return PassEnd
}

// Add parses a raw requirement and handles it.
func (a *Aggregator) Add(ctx context.Context, raw string, opts AddOptions) error {
	logger := log.Ctx(ctx)
	logger.Info().Msgf("Handling %s from %s", raw, opts.Source)

	req, err := ParseRequirement(raw, opts.Source)
	if err != nil {
		return err
	}
	if req.URL != "" {
		logger.Warn().Msgf("Simplifying '%s' to '%s'.", raw, req.Name)
	}
	return a.handle(ctx, raw, req, opts)
}

// AddRequirement handles an already parsed requirement.
func (a *Aggregator) AddRequirement(ctx context.Context, req Requirement, opts AddOptions) error {
	raw := req.String()
	log.Ctx(ctx).Info().Msgf("Handling %s from %s", raw, opts.Source)
	return a.handle(ctx, raw, req, opts)
}

func (a *Aggregator) handle(ctx context.Context, raw string, req Requirement, opts AddOptions) error {
	logger := log.Ctx(ctx)
	name := req.Canonical()

	marker := req.Marker
	if opts.Extra != "" {
		marker = WithExtra(marker, opts.Extra)
	}
	applies, err := EvaluateAny(marker, CandidateEnvironments(a.baseEnv, a.Extras()))
	if err != nil {
		return err
	}
	if !applies {
		logger.Info().Msgf("Ignoring alien requirement: %s", raw)
		a.aliens = append(a.aliens, alienRequirement{raw: raw, extra: opts.Extra})
		return nil
	}

	if opts.PackageName != "" && CanonicalizeName(opts.PackageName) == name {
		if !req.HasExtras() {
			logger.Info().Msgf("Ignoring self-referential requirement without extras: %s", raw)
			return nil
		}
		if a.hasAllExtras(req.Extras) {
			return nil
		}
		a.AddExtras(req.Extras...)
		return a.replayAliens(ctx, opts.PackageName)
	}

	installed, ok := a.installed[name]
	if ok && a.versions.satisfies(installed, req.Specifiers) {
		logger.Info().Msgf("Requirement satisfied: %s", raw)
		logger.Info().Msgf("   (installed: %s %s)", req.Name, installed)
		if req.HasExtras() {
			logger.Info().Msg("   (extras are currently not checked)")
		}
	} else {
		logger.Info().Msgf("Requirement not satisfied: %s", raw)
		a.missing = true
	}

	return a.emit(ctx, name, req)
}

func (a *Aggregator) hasAllExtras(extras []string) bool {
	for _, extra := range extras {
		if _, ok := a.extras[CanonicalizeName(extra)]; !ok {
			return false
		}
	}
	return true
}

// replayAliens re-handles every requirement ignored so far, since the
// grown set of extras may now select them.
func (a *Aggregator) replayAliens(ctx context.Context, packageName string) error {
	pending := a.aliens
	a.aliens = nil
	for _, alien := range pending {
		err := a.Add(ctx, alien.raw, AddOptions{
			PackageName: packageName,
			Source:      "Previously ignored alien requirements",
			Extra:       alien.extra,
		})
		if err != nil {
			return err
		}
	}
	return nil
}

func (a *Aggregator) emit(ctx context.Context, name string, req Requirement) error {
	names := []string{name}
	if a.GenerateExtras {
		for _, extra := range req.Extras {
			names = append(names, fmt.Sprintf("%s[%s]", name, strings.ToLower(extra)))
		}
	}
	specs := req.SortedSpecifiers()
	for _, version := range specs {
		if err := validateEmittableVersion(version.Version); err != nil {
			return err
		}
	}
	for _, dist := range names {
		base := Python3Dist(ctx, dist, "", "", a.PkgVersion)
		clauses := make([]string, 0, len(specs))
		for _, spec := range specs {
			clause, err := ConvertSpecifier(ctx, base, spec)
			if err != nil {
				return err
			}
			clauses = append(clauses, clause)
		}
		switch len(clauses) {
		case 0:
			a.output = append(a.output, base)
		case 1:
			a.output = append(a.output, clauses[0])
		default:
			a.output = append(a.output, "("+strings.Join(clauses, " with ")+")")
		}
	}
	return nil
}
