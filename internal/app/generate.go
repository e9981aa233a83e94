package app

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/ZanzyTHEbar/errbuilder-go"
	"github.com/rs/zerolog/log"

	"pyproject-buildrequires/internal/core"
	"pyproject-buildrequires/internal/shared"
	"pyproject-buildrequires/internal/types"
)

// Generate writes the BuildRequires of the project to request.Output. The
// output file is written on every return path, including errors, so the
// calling macro always sees the clauses gathered so far.
func (s Service) Generate(ctx context.Context, request GenerateRequest) (result GenerateResult, err error) {
	run := &generation{service: s, request: normalizeGenerateRequest(request)}
	defer func() {
		var lines []string
		if run.aggregator != nil {
			lines = run.aggregator.Lines()
			result.Missing = run.aggregator.Missing()
		}
		result.Output = request.Output
		result.Lines = lines
		result.Ended = run.ended
		if writeErr := s.Output.WriteRequirements(request.Output, lines); writeErr != nil && err == nil {
			err = writeErr
		}
	}()

	if err := validateGenerateRequest(run.request); err != nil {
		return GenerateResult{}, err
	}
	if err := run.init(ctx); err != nil {
		return GenerateResult{}, err
	}

	passes := []func(context.Context) (core.PassOutcome, error){
		run.requirementFiles,
		run.buildSystem,
		run.tox,
		run.dependencyGroups,
		run.runtime,
	}
	for _, pass := range passes {
		outcome, err := pass(ctx)
		if err != nil {
			return GenerateResult{}, err
		}
		if outcome == core.PassEnd {
			run.ended = true
			return GenerateResult{}, nil
		}
	}
	return GenerateResult{}, nil
}

// normalizeGenerateRequest applies the implications between options:
// -N turns run-time generation off, while tox environments, tox and
// extras turn it back on.
func normalizeGenerateRequest(request GenerateRequest) GenerateRequest {
	if !request.UseBuildSystem {
		request.Runtime = false
	}
	if len(request.Toxenvs) > 0 {
		request.Tox = true
	}
	if request.Tox {
		request.Runtime = true
	}
	if len(request.Extras) > 0 {
		request.Runtime = true
	}
	if strings.TrimSpace(request.PkgVersion) == "" {
		request.PkgVersion = "3"
	}
	request.DependencyGroups = append([]string(nil), request.DependencyGroups...)
	return request
}

func validateGenerateRequest(request GenerateRequest) error {
	if strings.TrimSpace(request.Output) == "" {
		return errbuilder.New().
			WithCode(errbuilder.CodeInvalidArgument).
			WithMsg("--output is required")
	}
	if request.Wheel && strings.TrimSpace(request.WheelDir) == "" {
		return errbuilder.New().
			WithCode(errbuilder.CodeInvalidArgument).
			WithMsg("--wheeldir must be set when -w.")
	}
	if (request.Runtime || request.Tox || request.ReadPyproject) && !request.UseBuildSystem {
		return errbuilder.New().
			WithCode(errbuilder.CodeInvalidArgument).
			WithMsg("-N option cannot be used in combination with -r, -e, -t, -x, -p options")
	}
	return nil
}

// generation is the state of one Generate call. The project declaration
// is read at most once and shared by every pass.
type generation struct {
	service    Service
	request    GenerateRequest
	aggregator *core.Aggregator
	info       types.InterpreterInfo
	backend    types.Backend
	ended      bool

	pyproject       types.Pyproject
	pyprojectLoaded bool
}

func (g *generation) init(ctx context.Context) error {
	info, err := g.service.Interpreter.Probe(ctx)
	if err != nil {
		return err
	}
	installed, err := g.service.Installed.Installed(ctx, info.SysPath)
	if err != nil {
		return err
	}
	log.Ctx(ctx).Debug().
		Str("python", info.Executable).
		Str("version", info.Version).
		Int("installed", len(installed)).
		Msg("interpreter probed")

	g.info = info
	g.aggregator = core.NewAggregator(core.Environment(info.Environment), installed)
	g.aggregator.GenerateExtras = g.request.GenerateExtras
	g.aggregator.PkgVersion = g.request.PkgVersion
	g.aggregator.AddExtras(g.request.Extras...)
	return nil
}

func (g *generation) project() (types.Pyproject, error) {
	if g.pyprojectLoaded {
		return g.pyproject, nil
	}
	doc, err := g.service.Project.LoadPyproject(g.service.Dir)
	if err != nil {
		return types.Pyproject{}, err
	}
	g.pyproject = doc
	g.pyprojectLoaded = true
	return doc, nil
}

func (g *generation) requirementFiles(ctx context.Context) (core.PassOutcome, error) {
	if len(g.request.RequirementFiles) == 0 {
		return core.PassContinue, nil
	}
	for _, path := range g.request.RequirementFiles {
		lines, err := g.service.Requirements.ReadRequirements(path)
		if err != nil {
			return core.PassContinue, err
		}
		if err := g.aggregator.Extend(ctx, lines, core.AddOptions{Source: "requirements file " + path}); err != nil {
			return core.PassContinue, err
		}
	}
	return g.aggregator.Check(ctx, "all requirements files"), nil
}

func (g *generation) buildSystem(ctx context.Context) (core.PassOutcome, error) {
	if !g.request.UseBuildSystem {
		return core.PassContinue, nil
	}
	doc, err := g.project()
	if err != nil {
		return core.PassContinue, err
	}
	var buildSystem types.BuildSystem
	if doc.BuildSystem != nil {
		buildSystem = *doc.BuildSystem
	}
	if err := g.aggregator.Extend(ctx, buildSystem.Requires, core.AddOptions{Source: "build-system.requires"}); err != nil {
		return core.PassContinue, err
	}

	backendName := strings.TrimSpace(buildSystem.BuildBackend)
	if backendName == "" {
		if !g.service.Project.HasSetupPy(g.service.Dir) {
			msg := `File "setup.py" not found for legacy project.`
			if !doc.Found {
				msg += ` File "pyproject.toml" not found either.`
			}
			return core.PassContinue, errbuilder.New().
				WithCode(errbuilder.CodeNotFound).
				WithMsg(msg + " Use -N if the project does not use any build system.")
		}
		backendName = types.DefaultBuildBackend
		if err := g.aggregator.Add(ctx, "setuptools >= 40.8", core.AddOptions{Source: "default build backend"}); err != nil {
			return core.PassContinue, err
		}
	}
	if g.aggregator.Check(ctx, "build backend") == core.PassEnd {
		return core.PassEnd, nil
	}
	g.backend = types.Backend{Name: backendName, Paths: buildSystem.BackendPaths()}

	requires, ok, err := g.service.Backend.GetRequiresForBuildWheel(ctx, g.backend, g.request.ConfigSettings)
	if err != nil {
		return core.PassContinue, err
	}
	if !ok {
		return core.PassContinue, nil
	}
	if err := g.aggregator.Extend(ctx, requires, core.AddOptions{Source: "get_requires_for_build_wheel"}); err != nil {
		return core.PassContinue, err
	}
	return g.aggregator.Check(ctx, "get_requires_for_build_wheel"), nil
}

func (g *generation) tox(ctx context.Context) (core.PassOutcome, error) {
	if !g.request.Tox {
		return core.PassContinue, nil
	}
	toxenvs := g.toxenvs()
	if err := g.aggregator.Add(ctx, "tox-current-env >= 0.0.16", core.AddOptions{Source: "tox itself"}); err != nil {
		return core.PassContinue, err
	}
	if g.aggregator.Check(ctx, "tox itself") == core.PassEnd {
		return core.PassEnd, nil
	}

	result, err := g.service.Tox.PrintDeps(ctx, toxenvs)
	if err != nil {
		return core.PassContinue, err
	}
	if result.Provision != nil {
		return g.toxProvision(ctx, *result.Provision)
	}
	if result.ExitCode != 0 {
		return core.PassContinue, errbuilder.New().
			WithCode(errbuilder.CodeInternal).
			WithMsg(fmt.Sprintf("tox exited with status %d", result.ExitCode)).
			WithCause(shared.CommandError([]byte(result.Output), fmt.Errorf("exit status %d", result.ExitCode)))
	}

	joined := strings.Join(toxenvs, ",")
	g.aggregator.AddExtras(result.Extras...)
	if err := g.aggregator.Extend(ctx, result.Deps, core.AddOptions{Source: "tox --print-deps-only: " + joined}); err != nil {
		return core.PassContinue, err
	}
	if g.aggregator.Check(ctx, "tox --print-deps-only: "+joined) == core.PassEnd {
		return core.PassEnd, nil
	}

	groups, err := g.service.Tox.DependencyGroups(ctx, toxenvs)
	if err != nil {
		return core.PassContinue, err
	}
	g.request.DependencyGroups = append(g.request.DependencyGroups, groups...)
	return core.PassContinue, nil
}

func (g *generation) toxProvision(ctx context.Context, provision types.ToxProvision) (core.PassOutcome, error) {
	if provision.MinVersion != nil {
		raw := fmt.Sprintf("tox >= %v", provision.MinVersion)
		if err := g.aggregator.Add(ctx, raw, core.AddOptions{Source: "tox provision (minversion)"}); err != nil {
			return core.PassContinue, err
		}
	}
	if err := g.aggregator.Extend(ctx, provision.Requires, core.AddOptions{Source: "tox provision (requires)"}); err != nil {
		return core.PassContinue, err
	}
	if g.aggregator.Check(ctx, "tox provision") == core.PassEnd {
		return core.PassEnd, nil
	}
	return core.PassContinue, errbuilder.New().
		WithCode(errbuilder.CodeFailedPrecondition).
		WithMsg("Dependencies requested by tox provisioning appear installed, but tox disagreed.")
}

func (g *generation) toxenvs() []string {
	var toxenvs []string
	for _, value := range g.request.Toxenvs {
		for _, env := range strings.Split(value, ",") {
			if env = strings.TrimSpace(env); env != "" {
				toxenvs = append(toxenvs, env)
			}
		}
	}
	if len(toxenvs) > 0 {
		return toxenvs
	}
	if g.request.DefaultToxenv != "" {
		return []string{g.request.DefaultToxenv}
	}
	return []string{g.info.DefaultToxEnv()}
}

func (g *generation) dependencyGroups(ctx context.Context) (core.PassOutcome, error) {
	if len(g.request.DependencyGroups) == 0 {
		return core.PassContinue, nil
	}
	doc, err := g.project()
	if err != nil {
		return core.PassContinue, err
	}
	groups, err := core.NewDependencyGroups(doc.DependencyGroups)
	if err != nil {
		return core.PassContinue, err
	}
	for _, value := range g.request.DependencyGroups {
		for _, name := range strings.Split(value, ",") {
			requirements, err := groups.Resolve(name)
			if err != nil {
				if errbuilder.CodeOf(err) == errbuilder.CodeNotFound {
					log.Ctx(ctx).Info().Strs("available", groups.Names()).Msg("dependency groups in pyproject.toml")
				}
				return core.PassContinue, err
			}
			if err := g.aggregator.Extend(ctx, requirements, core.AddOptions{Source: "Dependency group " + name}); err != nil {
				return core.PassContinue, err
			}
		}
	}
	return g.aggregator.Check(ctx, "dependency groups"), nil
}

func (g *generation) runtime(ctx context.Context) (core.PassOutcome, error) {
	if !g.request.Runtime {
		return core.PassContinue, nil
	}
	source := g.request.runtimeSource()
	log.Ctx(ctx).Debug().Str("source", string(source)).Msg("generating run-time requirements")

	var err error
	switch source {
	case types.RuntimeSourcePyproject:
		err = g.runtimeFromPyproject(ctx)
	case types.RuntimeSourceWheel:
		var outcome core.PassOutcome
		outcome, err = g.runtimeFromWheel(ctx)
		if err == nil && outcome == core.PassEnd {
			return core.PassEnd, nil
		}
	default:
		err = g.runtimeFromHook(ctx)
	}
	if err != nil {
		return core.PassContinue, err
	}
	return g.aggregator.Check(ctx, "run-time requirements"), nil
}

func (g *generation) runtimeFromPyproject(ctx context.Context) error {
	doc, err := g.project()
	if err != nil {
		return err
	}
	if doc.Project == nil {
		return errbuilder.New().
			WithCode(errbuilder.CodeInvalidArgument).
			WithMsg("Could not find the [project] table in pyproject.toml.")
	}
	project := *doc.Project
	if project.IsDynamic("dependencies") || project.IsDynamic("optional-dependencies") {
		return errbuilder.New().
			WithCode(errbuilder.CodeInvalidArgument).
			WithMsg("Could not read the dependencies or optional-dependencies " +
				"from the [project] table in pyproject.toml, as the field is dynamic.")
	}

	name := project.Name
	err = g.aggregator.Extend(ctx, project.Dependencies, core.AddOptions{
		PackageName: name,
		Source:      fmt.Sprintf("pyproject.toml generated metadata: [dependencies] (%s)", name),
	})
	if err != nil {
		return err
	}

	extras := make([]string, 0, len(project.OptionalDependencies))
	for extra := range project.OptionalDependencies {
		extras = append(extras, extra)
	}
	sort.Strings(extras)
	for _, extra := range extras {
		err := g.aggregator.Extend(ctx, project.OptionalDependencies[extra], core.AddOptions{
			PackageName: name,
			Source:      fmt.Sprintf("pyproject.toml generated metadata: [optional-dependencies] %s (%s)", extra, name),
			Extra:       extra,
		})
		if err != nil {
			return err
		}
	}
	return nil
}

func (g *generation) runtimeFromHook(ctx context.Context) error {
	metadataDir, err := os.MkdirTemp("", "pyproject-metadata-")
	if err != nil {
		return errbuilder.New().
			WithCode(errbuilder.CodeInternal).
			WithMsg("failed to create metadata directory").
			WithCause(err)
	}
	defer os.RemoveAll(metadataDir)

	distInfo, ok, err := g.service.Backend.PrepareMetadataForBuildWheel(ctx, g.backend, metadataDir, g.request.ConfigSettings)
	if err != nil {
		return err
	}
	if !ok {
		return errbuilder.New().
			WithCode(errbuilder.CodeFailedPrecondition).
			WithMsg("The build backend cannot provide build metadata " +
				"(incl. runtime requirements) before build. " +
				"If the dependencies are specified in the pyproject.toml [project] " +
				"table, you can use the -p flag to read them. " +
				"Alternatively, use the -R flag not to generate runtime dependencies.")
	}
	metadata, err := g.service.Metadata.ReadMetadataFile(filepath.Join(metadataDir, distInfo, "METADATA"))
	if err != nil {
		return err
	}
	return g.extendFromMetadata(ctx, metadata, "hook generated metadata")
}

func (g *generation) runtimeFromWheel(ctx context.Context) (core.PassOutcome, error) {
	wheelDir := g.request.WheelDir
	wheel, found, err := g.service.Wheels.FindBuiltWheel(wheelDir)
	if err != nil {
		return core.PassContinue, err
	}
	if !found {
		// pip may be echoed by the macro already, but the pass has to
		// restart until it is installed.
		if err := g.aggregator.Add(ctx, "pip >= 19", core.AddOptions{Source: "%pyproject_buildrequires -w"}); err != nil {
			return core.PassContinue, err
		}
		if g.aggregator.Check(ctx, "%pyproject_buildrequires -w") == core.PassEnd {
			return core.PassEnd, nil
		}
		exitCode, err := g.service.Backend.BuildWheel(ctx, wheelDir, g.request.ConfigSettings)
		if err != nil {
			return core.PassContinue, err
		}
		if exitCode != 0 {
			return core.PassContinue, errbuilder.New().
				WithCode(errbuilder.CodeInternal).
				WithMsg("Failed to build the wheel for %pyproject_buildrequires -w.")
		}
		wheel, found, err = g.service.Wheels.FindBuiltWheel(wheelDir)
		if err != nil {
			return core.PassContinue, err
		}
	}
	if !found {
		return core.PassContinue, errbuilder.New().
			WithCode(errbuilder.CodeInternal).
			WithMsg("Cannot locate the built wheel for %pyproject_buildrequires -w.")
	}

	log.Ctx(ctx).Info().Msgf("Reading metadata from %s", wheel)
	metadata, err := g.service.Wheels.ReadWheelMetadata(wheel)
	if err != nil {
		return core.PassContinue, err
	}
	return core.PassContinue, g.extendFromMetadata(ctx, metadata, "built wheel metadata")
}

func (g *generation) extendFromMetadata(ctx context.Context, metadata types.Metadata, origin string) error {
	fields := []struct {
		key      string
		requires []string
	}{
		{key: "Requires", requires: metadata.Requires},
		{key: "Requires-Dist", requires: metadata.RequiresDist},
	}
	for _, field := range fields {
		err := g.aggregator.Extend(ctx, field.requires, core.AddOptions{
			PackageName: metadata.Name,
			Source:      fmt.Sprintf("%s: %s (%s)", origin, field.key, metadata.Name),
		})
		if err != nil {
			return err
		}
	}
	return nil
}
