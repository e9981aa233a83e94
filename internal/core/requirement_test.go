package core

import (
	"errors"
	"testing"

	"github.com/ZanzyTHEbar/errbuilder-go"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"

	"pyproject-buildrequires/internal/types"
)

func errMessage(t *testing.T, err error) string {
	t.Helper()
	var builder *errbuilder.ErrBuilder
	require.True(t, errors.As(err, &builder), "expected errbuilder error, got %v", err)
	return builder.Msg
}

func TestCanonicalizeName(t *testing.T) {
	for _, raw := range []string{"Foo.Bar", "foo-bar", "FOO_BAR", "foo__bar", "Foo-_.Bar"} {
		if diff := cmp.Diff("foo-bar", CanonicalizeName(raw)); diff != "" {
			t.Fatalf("unexpected canonical name for %q (-want +got):\n%s", raw, diff)
		}
	}
}

func TestParseRequirement(t *testing.T) {
	tests := []struct {
		raw    string
		name   string
		extras []string
		specs  []types.Constraint
		url    string
		marker string
	}{
		{raw: "pkg", name: "pkg"},
		{
			raw:   "pkg>=1.0,<2.0",
			name:  "pkg",
			specs: []types.Constraint{{Op: ">=", Version: "1.0"}, {Op: "<", Version: "2.0"}},
		},
		{
			raw:    "Foo_Bar[tests, Docs] (>= 1.0) ; python_version >= '3.8'",
			name:   "Foo_Bar",
			extras: []string{"Docs", "tests"},
			specs:  []types.Constraint{{Op: ">=", Version: "1.0"}},
			marker: `python_version >= "3.8"`,
		},
		{
			raw:  "pkg~=1.4.5",
			name: "pkg",
			specs: []types.Constraint{
				{Op: "~=", Version: "1.4.5"},
			},
		},
		{
			raw:   "pkg===weird-build",
			name:  "pkg",
			specs: []types.Constraint{{Op: "===", Version: "weird-build"}},
		},
		{
			raw:    "pkg @ https://example.com/pkg-1.0.tar.gz ; sys_platform == 'linux'",
			name:   "pkg",
			url:    "https://example.com/pkg-1.0.tar.gz",
			marker: `sys_platform == "linux"`,
		},
		{
			raw:    `pkg; extra == "docs"`,
			name:   "pkg",
			marker: `extra == "docs"`,
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.raw, func(t *testing.T) {
			req, err := ParseRequirement(tt.raw, "test")
			require.NoError(t, err)
			if diff := cmp.Diff(tt.name, req.Name); diff != "" {
				t.Fatalf("unexpected name (-want +got):\n%s", diff)
			}
			if diff := cmp.Diff(tt.extras, req.Extras); diff != "" {
				t.Fatalf("unexpected extras (-want +got):\n%s", diff)
			}
			if diff := cmp.Diff(tt.specs, req.Specifiers); diff != "" {
				t.Fatalf("unexpected specifiers (-want +got):\n%s", diff)
			}
			if diff := cmp.Diff(tt.url, req.URL); diff != "" {
				t.Fatalf("unexpected url (-want +got):\n%s", diff)
			}
			marker := ""
			if req.Marker != nil {
				marker = req.Marker.String()
			}
			if diff := cmp.Diff(tt.marker, marker); diff != "" {
				t.Fatalf("unexpected marker (-want +got):\n%s", diff)
			}
		})
	}
}

func TestParseRequirementRoundTrip(t *testing.T) {
	req, err := ParseRequirement(`Foo[b,a]>=1.0,<2; python_version >= "3.8"`, "test")
	require.NoError(t, err)

	again, err := ParseRequirement(req.String(), "test")
	require.NoError(t, err)
	if diff := cmp.Diff(req.String(), again.String()); diff != "" {
		t.Fatalf("normalizing twice changed the requirement (-want +got):\n%s", diff)
	}
}

func TestParseRequirementHints(t *testing.T) {
	tests := []struct {
		raw      string
		contains string
		excludes string
	}{
		{
			raw:      "./path/to/pkg",
			contains: "It might be a local path.",
		},
		{
			raw:      "https://example.com/pkg.tar.gz",
			contains: "It might be an URL.",
			excludes: "but note that URLs",
		},
		{
			raw:      "git+https://user@example.com/pkg.git",
			contains: "(but note that URLs might not work well with other features)",
		},
		{
			raw:      "pkg >= !!",
			excludes: "Hint:",
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.raw, func(t *testing.T) {
			_, err := ParseRequirement(tt.raw, "build-system.requires")
			require.Error(t, err)
			require.Equal(t, errbuilder.CodeInvalidArgument, errbuilder.CodeOf(err))
			message := errMessage(t, err)
			require.Contains(t, message, "Requirement '"+tt.raw+"' from build-system.requires is invalid.")
			if tt.contains != "" {
				require.Contains(t, message, tt.contains)
			}
			if tt.excludes != "" {
				require.NotContains(t, message, tt.excludes)
			}
		})
	}
}

func TestParseRequirementRejectsMalformed(t *testing.T) {
	for _, raw := range []string{"", "pkg[", "pkg >=", "pkg; ", "pkg; unknown_var == 'x'", "pkg~=1.*"} {
		_, err := ParseRequirement(raw, "test")
		require.Error(t, err, raw)
	}
}

func TestSortedSpecifiers(t *testing.T) {
	first, err := ParseRequirement("pkg>=1.0,<2.0,!=1.5", "test")
	require.NoError(t, err)
	second, err := ParseRequirement("pkg!=1.5,<2.0,>=1.0", "test")
	require.NoError(t, err)

	expected := []types.Constraint{
		{Op: "!=", Version: "1.5"},
		{Op: "<", Version: "2.0"},
		{Op: ">=", Version: "1.0"},
	}
	if diff := cmp.Diff(expected, first.SortedSpecifiers()); diff != "" {
		t.Fatalf("unexpected order (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(first.SortedSpecifiers(), second.SortedSpecifiers()); diff != "" {
		t.Fatalf("order depends on input (-want +got):\n%s", diff)
	}
}
