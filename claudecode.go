// Package claudecode provides a typed, streaming Go interface to the
// Claude Code CLI. A query launches the CLI as a subprocess and exposes
// its newline-delimited JSON output as a lazy sequence of typed messages.
//
//	stream, err := claudecode.Query(ctx, "What is 2 + 2?", claudecode.Options{})
//	if err != nil {
//		return err
//	}
//	for msg, err := range stream.All(ctx) {
//		...
//	}
//
// Each query is a single subprocess invocation whose outcome is reported
// to the caller; the SDK never retries on its own.
package claudecode

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"

	"github.com/ReOpsIL/claude-code-sdk-go/internal/cli"
	"github.com/ReOpsIL/claude-code-sdk-go/internal/proc"
)

// Query launches the Claude Code CLI with the given prompt and options
// and returns a Stream of its output. It returns as soon as the process
// has been spawned; messages are produced lazily as the consumer pulls.
//
// Launch-time failures short-circuit here: *CLINotFoundError when no
// executable can be located, *CLIConnectionError when the process cannot
// be spawned. Everything after a successful launch is reported through
// the stream.
func Query(ctx context.Context, prompt string, opts Options) (*Stream, error) {
	path, err := cli.Find(opts.CLIPath)
	if err != nil {
		return nil, &CLINotFoundError{Path: opts.CLIPath}
	}

	if opts.Cwd != "" {
		info, statErr := os.Stat(opts.Cwd)
		if statErr != nil || !info.IsDir() {
			return nil, &CLIConnectionError{
				Message: fmt.Sprintf("working directory does not exist: %s", opts.Cwd),
				Err:     statErr,
			}
		}
	}

	p, err := proc.Launch(ctx, proc.Options{
		Path: path,
		Args: cli.Args(prompt, invocation(opts)),
		Dir:  opts.Cwd,
		Env:  childEnv(opts),
	})
	if err != nil {
		if errors.Is(err, exec.ErrNotFound) {
			return nil, &CLINotFoundError{Path: path}
		}
		return nil, &CLIConnectionError{Message: "failed to spawn CLI process", Err: err}
	}

	return newStream(p, opts.FailFastDecode), nil
}

func invocation(opts Options) cli.Invocation {
	return cli.Invocation{
		SystemPrompt: opts.SystemPrompt,
		MaxTurns:     opts.MaxTurns,
		AcceptEdits:  opts.PermissionMode == PermissionAcceptEdits,
		BypassPerms:  opts.PermissionMode == PermissionBypassPermissions,
		AllowedTools: opts.AllowedTools,
		Model:        opts.Model,

		DisableSafetySuggestions: opts.DisableSafetySuggestions,
		DisableTelemetry:         opts.DisableTelemetry,
		DisableStream:            opts.DisableStream,
		DisableVision:            opts.DisableVision,
		DisableSearch:            opts.DisableSearch,
	}
}

func childEnv(opts Options) []string {
	env := append(os.Environ(), "CLAUDE_CODE_ENTRYPOINT=sdk-go")
	if opts.APIKey != "" {
		env = append(env, "ANTHROPIC_API_KEY="+opts.APIKey)
	}
	for k, v := range opts.Env {
		env = append(env, k+"="+v)
	}
	return env
}
