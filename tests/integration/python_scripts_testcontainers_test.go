//go:build integration

package integration

import (
	"context"
	"encoding/json"
	"io"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"pyproject-buildrequires/internal/types"
	"pyproject-buildrequires/tests/testutil"
)

const sampleBackend = `
def get_requires_for_build_wheel(config_settings=None):
    print("chatty backend")
    requires = ["wheel"]
    for key, value in sorted((config_settings or {}).items()):
        requires.append(f"{key}=={value}" if isinstance(value, str) else f"{key}=={','.join(value)}")
    return requires
`

func TestProbeScriptInContainer(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping testcontainers test in short mode")
	}
	ctx := t.Context()
	scripts := filepath.Join(testutil.RepoRoot(t), "internal", "adapters", "scripts")

	output := runPythonContainer(ctx, t, []testcontainers.ContainerFile{
		{HostFilePath: filepath.Join(scripts, "probe.py"), ContainerFilePath: "/work/probe.py", FileMode: 0644},
	}, nil, `cd /work && python -c "$(cat /work/probe.py)" 2>/dev/null`)

	var info types.InterpreterInfo
	require.NoError(t, json.Unmarshal([]byte(output), &info), output)
	require.True(t, strings.HasPrefix(info.Version, "3.12."), info.Version)
	require.Equal(t, "py312", info.DefaultToxEnv())
	require.Equal(t, "3.12", info.Environment["python_version"])
	require.Equal(t, "linux", info.Environment["sys_platform"])
	require.Equal(t, "cpython", info.Environment["implementation_name"])
	require.NotContains(t, info.SysPath, "/work")
	require.NotEmpty(t, info.SysPath)
}

func TestHookRunnerInContainer(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping testcontainers test in short mode")
	}
	ctx := t.Context()
	root := testutil.RepoRoot(t)
	backendDir := testutil.WriteFiles(t, t.TempDir(), map[string]string{
		"sample_backend.py": sampleBackend,
	})

	request, err := json.Marshal(map[string]any{
		"backend":         "sample_backend",
		"backend_path":    []string{"_build"},
		"hook":            "get_requires_for_build_wheel",
		"args":            []string{},
		"config_settings": types.ParseConfigSettings([]string{"abc=123", "xyz=456", "xyz=789"}),
		"result":          "/work/result.json",
	})
	require.NoError(t, err)

	output := runPythonContainer(ctx, t, []testcontainers.ContainerFile{
		{
			HostFilePath:      filepath.Join(root, "internal", "adapters", "scripts", "hook_runner.py"),
			ContainerFilePath: "/work/hook_runner.py",
			FileMode:          0644,
		},
		{
			HostFilePath:      filepath.Join(backendDir, "sample_backend.py"),
			ContainerFilePath: "/work/_build/sample_backend.py",
			FileMode:          0644,
		},
	}, map[string]string{"HOOK_REQUEST": string(request)},
		`cd /work && python /work/hook_runner.py "$HOOK_REQUEST" 2>/dev/null && cat /work/result.json`)

	var result struct {
		Value []string `json:"value"`
	}
	require.NoError(t, json.Unmarshal([]byte(output), &result), output)
	require.Equal(t, []string{"wheel", "abc==123", "xyz==456,789"}, result.Value)
}

func runPythonContainer(ctx context.Context, t *testing.T, files []testcontainers.ContainerFile, env map[string]string, script string) string {
	t.Helper()
	req := testcontainers.ContainerRequest{
		Image:      "python:3.12-alpine",
		Files:      files,
		Env:        env,
		Cmd:        []string{"sh", "-c", script},
		WaitingFor: wait.ForExit().WithExitTimeout(60 * time.Second),
	}
	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = container.Terminate(context.Background())
	})

	logs, err := container.Logs(ctx)
	require.NoError(t, err)
	defer logs.Close()
	output, err := io.ReadAll(logs)
	require.NoError(t, err)
	return strings.TrimSpace(string(output))
}
