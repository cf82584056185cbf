// Package cli locates the Claude Code executable and translates query
// configuration into its command-line invocation.
package cli

import (
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strconv"
)

// Candidate install locations checked after PATH lookup fails.
var fallbackPaths = []string{
	"/usr/local/bin/claude-code",
	"/opt/homebrew/bin/claude-code",
}

// ErrNotFound is returned when no Claude Code executable can be located.
var ErrNotFound = errors.New("claude-code executable not found")

// Find resolves the Claude Code executable. An explicit override wins;
// otherwise PATH is searched, then the well-known install locations.
func Find(override string) (string, error) {
	if override != "" {
		info, err := os.Stat(override)
		if err != nil || info.IsDir() {
			return "", fmt.Errorf("%w: %s", ErrNotFound, override)
		}
		return override, nil
	}

	if path, err := exec.LookPath("claude-code"); err == nil {
		return path, nil
	}

	for _, path := range fallbackPaths {
		if info, err := os.Stat(path); err == nil && !info.IsDir() {
			return path, nil
		}
	}

	return "", ErrNotFound
}

// Invocation carries the option values that map onto CLI flags. It is a
// plain data snapshot so this package stays independent of the public
// options type.
type Invocation struct {
	SystemPrompt string
	MaxTurns     int
	AcceptEdits  bool
	BypassPerms  bool
	AllowedTools []string
	Model        string

	DisableSafetySuggestions bool
	DisableTelemetry         bool
	DisableStream            bool
	DisableVision            bool
	DisableSearch            bool
}

// Args builds the CLI argument vector for one query. The prompt is always
// the trailing argument, after every flag.
func Args(prompt string, inv Invocation) []string {
	args := []string{"--format", "json"}

	if inv.SystemPrompt != "" {
		args = append(args, "--system", inv.SystemPrompt)
	}
	if inv.MaxTurns > 0 {
		args = append(args, "--max-turns", strconv.Itoa(inv.MaxTurns))
	}
	if inv.AcceptEdits {
		args = append(args, "--accept-edits")
	}
	if inv.BypassPerms {
		args = append(args, "--bypass-permissions")
	}
	for _, tool := range inv.AllowedTools {
		args = append(args, "--tool", tool)
	}
	if inv.Model != "" {
		args = append(args, "--model", inv.Model)
	}
	if inv.DisableSafetySuggestions {
		args = append(args, "--disable-safety-suggestions")
	}
	if inv.DisableTelemetry {
		args = append(args, "--disable-telemetry")
	}
	if inv.DisableStream {
		args = append(args, "--disable-stream")
	}
	if inv.DisableVision {
		args = append(args, "--disable-vision")
	}
	if inv.DisableSearch {
		args = append(args, "--disable-search")
	}

	return append(args, prompt)
}
