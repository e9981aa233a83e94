package cli

import (
	"fmt"
	"strings"

	"github.com/ZanzyTHEbar/errbuilder-go"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

func newToxenvCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "toxenv [-e TOXENV]...",
		Short: "Print the tox environments given with -e, comma separated",
		// RPM passes the macro arguments through verbatim, unknown
		// options included.
		DisableFlagParsing: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			toxenv, err := constructToxenv(args)
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), toxenv)
			return err
		},
	}
}

func constructToxenv(argv []string) (string, error) {
	flags := pflag.NewFlagSet("toxenv", pflag.ContinueOnError)
	flags.ParseErrorsWhitelist.UnknownFlags = true
	flags.Usage = func() {}
	toxenvs := flags.StringArrayP("toxenv", "e", nil, "")
	if err := flags.Parse(stripUnitSeparators(argv)); err != nil {
		return "", errbuilder.New().
			WithCode(errbuilder.CodeInvalidArgument).
			WithMsg("failed to parse tox environments").
			WithCause(err)
	}
	if len(*toxenvs) == 0 {
		return "", errbuilder.New().
			WithCode(errbuilder.CodeInvalidArgument).
			WithMsg("no tox environment given, use -e")
	}
	return strings.Join(*toxenvs, ","), nil
}

// stripUnitSeparators removes the \x1f characters RPM 4.20 leaks into
// macro arguments.
func stripUnitSeparators(argv []string) []string {
	out := make([]string, 0, len(argv))
	for _, arg := range argv {
		out = append(out, strings.Trim(arg, "\x1f"))
	}
	return out
}
