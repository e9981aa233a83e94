package core

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"
)

func testEnvironment() Environment {
	return Environment{
		"python_version":                 "3.12",
		"python_full_version":            "3.12.4",
		"os_name":                        "posix",
		"sys_platform":                   "linux",
		"platform_system":                "Linux",
		"platform_machine":               "x86_64",
		"platform_python_implementation": "CPython",
		"implementation_name":            "cpython",
		"extra":                          "",
	}
}

func TestMarkerEvaluate(t *testing.T) {
	tests := []struct {
		marker string
		extra  string
		want   bool
	}{
		{marker: `python_version >= "3.8"`, want: true},
		{marker: `python_version < "3.8"`, want: false},
		{marker: `python_full_version >= "3.12.0rc1"`, want: true},
		{marker: `sys_platform == "win32"`, want: false},
		{marker: `sys_platform == "linux" and os_name == "posix"`, want: true},
		{marker: `sys_platform == "win32" or os_name == "posix"`, want: true},
		{marker: `(sys_platform == "win32" or os_name == "nt") and python_version > "3"`, want: false},
		{marker: `"linux" in sys_platform`, want: true},
		{marker: `"arm" not in platform_machine`, want: true},
		{marker: `platform_system != "Windows"`, want: true},
		{marker: `os.name == "posix"`, want: true},
		{marker: `extra == "docs"`, want: false},
		{marker: `extra == "docs"`, extra: "docs", want: true},
		{marker: `extra == "Docs_Extra"`, extra: "docs-extra", want: true},
		{marker: `"docs" == extra`, extra: "DOCS", want: true},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.marker, func(t *testing.T) {
			marker, err := ParseMarker(tt.marker)
			require.NoError(t, err)
			got, err := marker.Evaluate(testEnvironment().With("extra", tt.extra))
			require.NoError(t, err)
			require.Equal(t, tt.want, got)
		})
	}
}

func TestMarkerString(t *testing.T) {
	tests := []struct {
		marker string
		want   string
	}{
		{marker: `python_version>='3.8'`, want: `python_version >= "3.8"`},
		{marker: `(os_name=="nt" or os_name=='posix') and extra=="x"`, want: `(os_name == "nt" or os_name == "posix") and extra == "x"`},
		{marker: `python_implementation == "CPython"`, want: `platform_python_implementation == "CPython"`},
	}
	for _, tt := range tests {
		marker, err := ParseMarker(tt.marker)
		require.NoError(t, err)
		if diff := cmp.Diff(tt.want, marker.String()); diff != "" {
			t.Fatalf("unexpected marker string (-want +got):\n%s", diff)
		}
	}
}

func TestParseMarkerErrors(t *testing.T) {
	for _, raw := range []string{
		`python_version >=`,
		`unknown == "x"`,
		`python_version >= "3.8`,
		`(python_version >= "3.8"`,
		`python_version "3.8"`,
		`python_version >= "3.8" xor os_name == "nt"`,
		`"a" not "b"`,
	} {
		_, err := ParseMarker(raw)
		require.Error(t, err, raw)
	}
}

func TestMarkerEvaluateMissingVariable(t *testing.T) {
	marker, err := ParseMarker(`platform_release == "6.0"`)
	require.NoError(t, err)
	_, err = marker.Evaluate(Environment{"extra": ""})
	require.Error(t, err)
}

func TestWithExtra(t *testing.T) {
	marker, err := ParseMarker(`python_version >= "3" or os_name == "nt"`)
	require.NoError(t, err)

	combined := WithExtra(marker, "docs")
	if diff := cmp.Diff(`(python_version >= "3" or os_name == "nt") and extra == "docs"`, combined.String()); diff != "" {
		t.Fatalf("unexpected marker (-want +got):\n%s", diff)
	}
	ok, err := combined.Evaluate(testEnvironment())
	require.NoError(t, err)
	require.False(t, ok)
	ok, err = combined.Evaluate(testEnvironment().With("extra", "docs"))
	require.NoError(t, err)
	require.True(t, ok)

	bare := WithExtra(nil, "tests")
	if diff := cmp.Diff(`extra == "tests"`, bare.String()); diff != "" {
		t.Fatalf("unexpected marker (-want +got):\n%s", diff)
	}
}

func TestCandidateEnvironments(t *testing.T) {
	base := Environment{"python_version": "3.12"}

	envs := CandidateEnvironments(base, nil)
	require.Len(t, envs, 1)
	require.Equal(t, "", envs[0]["extra"])
	require.Equal(t, "3.12", envs[0]["python_version"])

	envs = CandidateEnvironments(base, []string{"tests", "docs"})
	require.Len(t, envs, 2)
	require.Equal(t, "docs", envs[0]["extra"])
	require.Equal(t, "tests", envs[1]["extra"])
	_, mutated := base["extra"]
	require.False(t, mutated)
}

func TestEvaluateAny(t *testing.T) {
	marker, err := ParseMarker(`extra == "tests"`)
	require.NoError(t, err)

	ok, err := EvaluateAny(marker, CandidateEnvironments(testEnvironment(), []string{"docs", "tests"}))
	require.NoError(t, err)
	require.True(t, ok)

	ok, err = EvaluateAny(marker, CandidateEnvironments(testEnvironment(), []string{"docs"}))
	require.NoError(t, err)
	require.False(t, ok)

	ok, err = EvaluateAny(nil, nil)
	require.NoError(t, err)
	require.True(t, ok)
}
