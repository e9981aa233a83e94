package types

import (
	"encoding/json"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"
)

func TestParseConfigSettings(t *testing.T) {
	require.Nil(t, ParseConfigSettings(nil))

	settings := ParseConfigSettings([]string{"abc=123", "xyz=456", "xyz=789", "flag", "k=a=b"})
	expected := ConfigSettings{
		"abc":  {"123"},
		"xyz":  {"456", "789"},
		"flag": {""},
		"k":    {"a=b"},
	}
	if diff := cmp.Diff(expected, settings); diff != "" {
		t.Fatalf("unexpected settings (-want +got):\n%s", diff)
	}
	require.Equal(t, []string{"abc=123", "flag=", "k=a=b", "xyz=456", "xyz=789"}, settings.Args())
}

func TestConfigSettingsJSON(t *testing.T) {
	data, err := json.Marshal(ParseConfigSettings([]string{"abc=123", "xyz=456", "xyz=789"}))
	require.NoError(t, err)
	require.JSONEq(t, `{"abc": "123", "xyz": ["456", "789"]}`, string(data))

	var empty ConfigSettings
	data, err = json.Marshal(empty)
	require.NoError(t, err)
	require.Equal(t, "null", string(data))
}

func TestBackendPaths(t *testing.T) {
	require.Nil(t, BuildSystem{}.BackendPaths())
	require.Equal(t, []string{"."}, BuildSystem{BackendPath: "."}.BackendPaths())
	require.Equal(t, []string{"a", "b"}, BuildSystem{BackendPath: []any{"a", "b"}}.BackendPaths())
}

func TestDefaultToxEnv(t *testing.T) {
	require.Equal(t, "py312", InterpreterInfo{Version: "3.12.4"}.DefaultToxEnv())
	require.Equal(t, "py39", InterpreterInfo{Version: "3.9.18"}.DefaultToxEnv())
}
