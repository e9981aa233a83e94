// Package shared provides common utility functions used across multiple
// packages in the pyproject-buildrequires codebase.
package shared

import (
	"fmt"
	"regexp"
	"strings"
)

var nameSeparators = regexp.MustCompile(`[-_.]+`)

// NormalizePipName lowercases a Python package name and collapses runs of
// hyphens, underscores and dots into a single hyphen, following PEP 503
// normalization.
func NormalizePipName(value string) string {
	return nameSeparators.ReplaceAllString(strings.ToLower(strings.TrimSpace(value)), "-")
}

// CommandError wraps a command execution error with its trimmed output
// for cleaner error messages.
func CommandError(output []byte, err error) error {
	return fmt.Errorf("%s: %w", strings.TrimSpace(string(output)), err)
}
