package shared

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizePipName(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Foo.Bar", "foo-bar"},
		{"foo-bar", "foo-bar"},
		{"FOO_BAR", "foo-bar"},
		{"foo__bar..baz", "foo-bar-baz"},
		{"  Requests ", "requests"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, NormalizePipName(tt.in), tt.in)
	}
}

func TestCommandError(t *testing.T) {
	cause := errors.New("exit status 1")
	err := CommandError([]byte("  boom\n"), cause)
	assert.Equal(t, "boom: exit status 1", err.Error())
	assert.ErrorIs(t, err, cause)
}
