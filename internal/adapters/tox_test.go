package adapters

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"

	"pyproject-buildrequires/internal/types"
)

// toxArgs collects the output paths tox-current-env is asked to write.
const toxArgs = `while [ $# -gt 0 ]; do
	case "$1" in
	--print-deps-to) deps=$2; shift ;;
	--print-extras-to) extras=$2; shift ;;
	--no-provision) provision=$2; shift ;;
	esac
	shift
done
`

func TestToxAdapterPrintDeps(t *testing.T) {
	tests := []struct {
		name   string
		script string
		want   types.ToxResult
	}{
		{
			name: "provision requested",
			script: `printf '{"minversion": "4.0", "requires": ["tox-uv >= 1"]}' > "$provision"
echo "tox needs provisioning" >&2
exit 1
`,
			want: types.ToxResult{
				ExitCode:  1,
				Output:    "tox needs provisioning\n",
				Provision: &types.ToxProvision{MinVersion: "4.0", Requires: []string{"tox-uv >= 1"}},
			},
		},
		{
			name: "provision file ignored on success",
			script: `printf '{"minversion": "4.0", "requires": []}' > "$provision"
printf 'pytest >= 7\n# comment\n\nhypothesis\n' > "$deps"
printf 'tests\n' > "$extras"
`,
			want: types.ToxResult{
				Deps:   []string{"pytest >= 7", "hypothesis"},
				Extras: []string{"tests"},
			},
		},
		{
			name: "failure without provisioning",
			script: `printf 'pytest\n' > "$deps"
echo "ERROR: unknown environment"
exit 2
`,
			want: types.ToxResult{
				ExitCode: 2,
				Output:   "ERROR: unknown environment\n",
			},
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			python := fakeInterpreter(t, toxArgs+tt.script)
			adapter := NewToxAdapter(python, t.TempDir(), "")

			got, err := adapter.PrintDeps(t.Context(), []string{"py312"})
			require.NoError(t, err)
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Fatalf("tox result mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestToxAdapterPrintDepsInvalidProvision(t *testing.T) {
	python := fakeInterpreter(t, toxArgs+`printf 'not json' > "$provision"
exit 1
`)
	_, err := NewToxAdapter(python, t.TempDir(), "").PrintDeps(t.Context(), []string{"py312"})
	require.Error(t, err)
	require.Equal(t, "failed to decode tox provisioning requirements", errMessage(t, err))
}

func TestToxAdapterAssertConfig(t *testing.T) {
	tests := []struct {
		fedora string
		want   bool
	}{
		{fedora: "", want: true},
		{fedora: "39", want: true},
		{fedora: "40", want: false},
		{fedora: "42", want: false},
		{fedora: "43", want: true},
		{fedora: "rawhide", want: true},
	}
	for _, tt := range tests {
		adapter := NewToxAdapter("python3", ".", tt.fedora)
		require.Equal(t, tt.want, adapter.assertConfig(), "FEDORA=%q", tt.fedora)
	}
}

func TestSplitLines(t *testing.T) {
	require.Equal(t, []string{"docs", "tests"}, splitLines("docs\r\n\ntests\n"))
	require.Nil(t, splitLines(""))
}
