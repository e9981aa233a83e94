package adapters

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/ZanzyTHEbar/errbuilder-go"
	"github.com/stretchr/testify/require"
)

func errMessage(t *testing.T, err error) string {
	t.Helper()
	var builder *errbuilder.ErrBuilder
	require.True(t, errors.As(err, &builder), "expected errbuilder error, got %v", err)
	return builder.Msg
}

// fakeInterpreter writes an executable shell script that stands in for
// the Python interpreter.
func fakeInterpreter(t *testing.T, body string) string {
	t.Helper()
	if _, err := os.Stat("/bin/sh"); err != nil {
		t.Skip("/bin/sh not available")
	}
	path := filepath.Join(t.TempDir(), "python3")
	require.NoError(t, os.WriteFile(path, []byte("#!/bin/sh\n"+body), 0o755))
	return path
}
