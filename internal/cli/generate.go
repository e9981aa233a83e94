package cli

import (
	"context"
	"path/filepath"

	"github.com/ZanzyTHEbar/errbuilder-go"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"pyproject-buildrequires/internal/app"
	"pyproject-buildrequires/internal/types"
)

type generateOptions struct {
	Output           string
	Runtime          bool
	NoRuntime        bool
	Extras           []string
	DependencyGroups []string
	Tox              bool
	Toxenvs          []string
	Wheel            bool
	WheelDir         string
	ReadPyproject    bool
	NoBuildSystem    bool
	ConfigSettings   []string
	GenerateExtras   bool
	PkgVersion       string
	Python           string
}

func newGenerateCommand() *cobra.Command {
	opts := generateOptions{}
	cmd := &cobra.Command{
		Use:   "generate [REQUIREMENTS.TXT...]",
		Short: "Generate BuildRequires for the Python project in the current directory",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runGenerate(cmd.Context(), cmd, opts, args)
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&opts.Output, "output", "", "File the generated BuildRequires are written to")
	flags.BoolVarP(&opts.Runtime, "runtime", "r", true, "Generate run-time requirements")
	flags.BoolVarP(&opts.NoRuntime, "no-runtime", "R", false, "Don't generate run-time requirements (implied by -N)")
	flags.StringArrayVarP(&opts.Extras, "extras", "x", nil,
		`comma separated list of "extras" for runtime requirements (e.g. -x testing,feature-x) (implies --runtime, can be repeated)`)
	flags.StringArrayVarP(&opts.DependencyGroups, "dependency-groups", "g", nil,
		"comma separated list of dependency groups (PEP 735) for requirements (e.g. -g tests,docs) (can be repeated)")
	flags.BoolVarP(&opts.Tox, "tox", "t", false, "generate test requirements from tox environment (implies --runtime)")
	flags.StringArrayVarP(&opts.Toxenvs, "toxenv", "e", nil, "specify tox environments (comma separated and/or repeated) (implies --tox)")
	flags.BoolVarP(&opts.Wheel, "wheel", "w", false,
		"Generate run-time requirements by building the wheel (useful for build backends without the prepare_metadata_for_build_wheel hook, deprecated)")
	flags.StringVar(&opts.WheelDir, "wheeldir", "", "Directory the wheel is built into with -w")
	flags.BoolVarP(&opts.ReadPyproject, "read-pyproject-dependencies", "p", false,
		"Generate dependencies from [project] table of pyproject.toml instead of calling prepare_metadata_for_build_wheel hook")
	flags.BoolVarP(&opts.NoBuildSystem, "no-use-build-system", "N", false, "Use -N to indicate that project does not use any build system")
	flags.StringArrayVarP(&opts.ConfigSettings, "config-settings", "C", nil, "Configuration settings to pass to the PEP 517 backend")
	flags.BoolVar(&opts.GenerateExtras, "generate-extras", false, "Also generate name[extra] requirements")
	flags.StringVar(&opts.PkgVersion, "python3_pkgversion", "3", "Value of %{python3_pkgversion}")
	flags.StringVar(&opts.Python, "python", "python3", "Python interpreter the project is built with")
	_ = flags.MarkHidden("runtime")
	_ = flags.MarkHidden("generate-extras")
	_ = flags.MarkHidden("python3_pkgversion")
	_ = flags.MarkHidden("wheeldir")
	_ = cmd.MarkFlagRequired("output")

	_ = viper.BindPFlag("python", flags.Lookup("python"))
	_ = viper.BindPFlag("python3_pkgversion", flags.Lookup("python3_pkgversion"))
	_ = viper.BindPFlag("generate_extras", flags.Lookup("generate-extras"))
	return cmd
}

func runGenerate(ctx context.Context, cmd *cobra.Command, opts generateOptions, args []string) error {
	ctx = log.Logger.WithContext(ctx)

	request, err := generateRequest(cmd, opts, args)
	if err != nil {
		return err
	}
	service := newAppService(resolveString(cmd, opts.Python, "python", "python"))
	_, err = service.Generate(ctx, request)
	return err
}

func generateRequest(cmd *cobra.Command, opts generateOptions, args []string) (app.GenerateRequest, error) {
	wheelDir := opts.WheelDir
	if wheelDir != "" {
		abs, err := filepath.Abs(wheelDir)
		if err != nil {
			return app.GenerateRequest{}, errbuilder.New().
				WithCode(errbuilder.CodeInvalidArgument).
				WithMsg("invalid --wheeldir " + wheelDir).
				WithCause(err)
		}
		wheelDir = abs
	}

	settings := resolveStrings(cmd, opts.ConfigSettings, "config_settings", "config-settings")
	return app.GenerateRequest{
		Output:           opts.Output,
		RequirementFiles: args,
		Runtime:          opts.Runtime && !opts.NoRuntime,
		Extras:           resolveStrings(cmd, opts.Extras, "extras", "extras"),
		DependencyGroups: resolveStrings(cmd, opts.DependencyGroups, "dependency_groups", "dependency-groups"),
		Tox:              opts.Tox,
		Toxenvs:          opts.Toxenvs,
		DefaultToxenv:    viper.GetString("rpm_toxenv"),
		Wheel:            opts.Wheel,
		WheelDir:         wheelDir,
		ReadPyproject:    opts.ReadPyproject,
		UseBuildSystem:   !opts.NoBuildSystem,
		ConfigSettings:   types.ParseConfigSettings(settings),
		GenerateExtras:   resolveBool(cmd, opts.GenerateExtras, "generate_extras", "generate-extras"),
		PkgVersion:       resolveString(cmd, opts.PkgVersion, "python3_pkgversion", "python3_pkgversion"),
	}, nil
}

func newAppService(python string) app.Service {
	return app.NewService(app.ServiceConfig{
		Python: python,
		Dir:    ".",
		Fedora: viper.GetString("fedora"),
	})
}
