// Package shared provides common utility functions used across multiple
// packages in the project-dependencies codebase.
package shared

import (
	"fmt"
	"os"
	"strings"
)

// HTTPStatusError creates a formatted error for non-2xx HTTP responses.
func HTTPStatusError(status int, url string) error {
	return fmt.Errorf("status=%d url=%s", status, url)
}

// CommandError wraps a command execution error with its trimmed output
// for cleaner error messages.
func CommandError(output []byte, err error) error {
	trimmed := strings.TrimSpace(string(output))
	if trimmed == "" {
		return err
	}
	return fmt.Errorf("%s: %w", trimmed, err)
}

// ExpandPlaceholders replaces {key} tokens in value with vars[key].
// Unknown tokens are left untouched.
func ExpandPlaceholders(value string, vars map[string]string) string {
	if !strings.Contains(value, "{") {
		return value
	}
	pairs := make([]string, 0, len(vars)*2)
	for key, replacement := range vars {
		pairs = append(pairs, "{"+key+"}", replacement)
	}
	return strings.NewReplacer(pairs...).Replace(value)
}

// WithWorkingDir runs fn with the process working directory set to dir and
// restores the previous directory on every exit path, including panics.
func WithWorkingDir(dir string, fn func() error) (err error) {
	previous, err := os.Getwd()
	if err != nil {
		return fmt.Errorf("get working directory: %w", err)
	}
	if err := os.Chdir(dir); err != nil {
		return fmt.Errorf("enter %s: %w", dir, err)
	}
	defer func() {
		if restoreErr := os.Chdir(previous); restoreErr != nil && err == nil {
			err = fmt.Errorf("restore working directory %s: %w", previous, restoreErr)
		}
	}()
	return fn()
}
