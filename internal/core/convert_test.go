package core

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"

	"pyproject-buildrequires/internal/types"
)

func TestConvertSpecifier(t *testing.T) {
	tests := []struct {
		op      types.ConstraintOp
		version string
		want    string
	}{
		{types.ConstraintOpCompat, "1.4.5", "(python3dist(foo) >= 1.4.5 with python3dist(foo) < 1.5)"},
		{types.ConstraintOpCompat, "1.0", "(python3dist(foo) >= 1 with python3dist(foo) < 2)"},
		{types.ConstraintOpCompat, "2.2rc1", "(python3dist(foo) >= 2.2~rc1 with python3dist(foo) < 3)"},
		{types.ConstraintOpEq, "1.0", "python3dist(foo) = 1"},
		{types.ConstraintOpEq, "2.1.*", "(python3dist(foo) >= 2.1 with python3dist(foo) < 2.2)"},
		{types.ConstraintOpEq, "1!2.0", "python3dist(foo) = 1:2"},
		{types.ConstraintOpArbitrary, "weird-build", "python3dist(foo) = weird-build"},
		{types.ConstraintOpNe, "1.2", "(python3dist(foo) < 1.2 or python3dist(foo) > 1.2)"},
		{types.ConstraintOpNe, "1.2.*", "(python3dist(foo) < 1.2~~ or python3dist(foo) >= 1.3)"},
		{types.ConstraintOpLt, "2.0", "python3dist(foo) < 2~~"},
		{types.ConstraintOpLt, "2.0b1", "python3dist(foo) < 2~b1"},
		{types.ConstraintOpLte, "2.0", "python3dist(foo) <= 2"},
		{types.ConstraintOpLte, "1.2.*", "python3dist(foo) < 1.3~~"},
		{types.ConstraintOpGt, "2", "python3dist(foo) > 2.0"},
		{types.ConstraintOpGt, "1.2.*", "python3dist(foo) >= 1.3"},
		{types.ConstraintOpGte, "1.0", "python3dist(foo) >= 1"},
		{types.ConstraintOpGte, "1.0rc1", "python3dist(foo) >= 1~rc1"},
		{types.ConstraintOpGte, "1.0.post1", "python3dist(foo) >= 1^post1"},
		{types.ConstraintOpGte, "2.0.dev3", "python3dist(foo) >= 2~~dev3"},
		{types.ConstraintOpGte, "1.2.*", "python3dist(foo) >= 1.2"},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(string(tt.op)+tt.version, func(t *testing.T) {
			got, err := ConvertSpecifier(t.Context(), "python3dist(foo)", types.Constraint{Op: tt.op, Version: tt.version})
			require.NoError(t, err)
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Fatalf("unexpected clause (-want +got):\n%s", diff)
			}
		})
	}
}

func TestConvertSpecifierInvalid(t *testing.T) {
	tests := []types.Constraint{
		{Op: types.ConstraintOpCompat, Version: "1"},
		{Op: types.ConstraintOpCompat, Version: "1.*"},
		{Op: types.ConstraintOpCompat, Version: "weird-build"},
		{Op: types.ConstraintOpArbitrary, Version: "1.*"},
		{Op: types.ConstraintOpNe, Version: "weird-build.*"},
	}
	for _, spec := range tests {
		_, err := ConvertSpecifier(t.Context(), "python3dist(foo)", spec)
		require.Error(t, err, spec.String())
	}
}

func TestPython3Dist(t *testing.T) {
	ctx := t.Context()
	require.Equal(t, "python3dist(foo)", Python3Dist(ctx, "foo", "", "", ""))
	require.Equal(t, "python3.11dist(foo)", Python3Dist(ctx, "foo", "", "", "3.11"))
	require.Equal(t, "python3dist(foo) >= 1", Python3Dist(ctx, "foo", ">=", "1", "3"))
	require.Equal(t, "python3dist(foo)", distClause(ctx, "python3dist(foo)", "", ""))
	require.Equal(t, "python3dist(foo) < 2~~", distClause(ctx, "python3dist(foo)", "<", "2~~"))
}

func TestValidateEmittableVersion(t *testing.T) {
	require.NoError(t, validateEmittableVersion("1.0"))
	require.NoError(t, validateEmittableVersion("1.0.*"))
	require.NoError(t, validateEmittableVersion("weird-build"))

	err := validateEmittableVersion("1.0+local")
	require.Error(t, err)
	require.Contains(t, errMessage(t, err), "Unknown character in version: 1.0+local.")
}
