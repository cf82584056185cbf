// Command claude-query runs a single Claude Code query from the shell
// and prints the streamed output.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/cenkalti/backoff/v5"

	claudecode "github.com/ReOpsIL/claude-code-sdk-go"
	"github.com/ReOpsIL/claude-code-sdk-go/internal/config"
	"github.com/ReOpsIL/claude-code-sdk-go/internal/logging"
)

var version = "dev"

func main() {
	logging.Setup()

	if err := run(os.Args[1:]); err != nil {
		var procErr *claudecode.ProcessError
		if errors.As(err, &procErr) {
			slog.Error("query failed", "exit_code", procErr.ExitCode, "stderr", procErr.Stderr)
			os.Exit(procErr.ExitCode)
		}
		slog.Error("fatal", "error", err)
		os.Exit(1)
	}
}

func run(args []string) error {
	fs := flag.NewFlagSet("claude-query", flag.ExitOnError)
	configPath := fs.String("config", config.DefaultPath(), "YAML config file")
	cwd := fs.String("cwd", "", "working directory for the CLI")
	system := fs.String("system", "", "system prompt override")
	model := fs.String("model", "", "model override")
	maxTurns := fs.Int("max-turns", 0, "turn cap (0 = no cap)")
	permMode := fs.String("permission-mode", "", "default, accept_edits, or bypass_permissions")
	tools := fs.String("tools", "", "comma-separated tool allowlist")
	logLevel := fs.String("log-level", "", "debug, info, warn, or error")
	showVersion := fs.Bool("version", false, "print version and exit")
	_ = fs.Parse(args)

	if *showVersion {
		fmt.Println(version)
		return nil
	}

	prompt := strings.TrimSpace(strings.Join(fs.Args(), " "))
	if prompt == "" {
		return fmt.Errorf("usage: claude-query [flags] <prompt>")
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		return err
	}

	level := cfg.LogLevel
	if *logLevel != "" {
		level = *logLevel
	}
	if l, err := logging.ParseLevel(level); err == nil {
		logging.SetLevel(l)
	}

	opts := cfg.Options()
	if *cwd != "" {
		opts = opts.WithCwd(*cwd)
	}
	if *system != "" {
		opts = opts.WithSystemPrompt(*system)
	}
	if *model != "" {
		opts = opts.WithModel(*model)
	}
	if *maxTurns > 0 {
		opts = opts.WithMaxTurns(*maxTurns)
	}
	if *permMode != "" {
		opts = opts.WithPermissionMode(claudecode.PermissionMode(*permMode))
	}
	if *tools != "" {
		opts = opts.WithAllowedTools(strings.Split(*tools, ",")...)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	stream, err := launch(ctx, prompt, opts)
	if err != nil {
		return err
	}
	defer stream.Close()

	return printStream(ctx, stream)
}

// launch starts the query, retrying transient spawn failures with
// exponential backoff. The SDK itself never retries; that policy belongs
// to the caller, which here means us.
func launch(ctx context.Context, prompt string, opts claudecode.Options) (*claudecode.Stream, error) {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = 500 * time.Millisecond
	b.MaxInterval = 5 * time.Second

	return backoff.Retry(ctx, func() (*claudecode.Stream, error) {
		stream, err := claudecode.Query(ctx, prompt, opts)
		if err != nil {
			var connErr *claudecode.CLIConnectionError
			if errors.As(err, &connErr) {
				slog.Warn("spawn failed, retrying", "error", err)
				return nil, err
			}
			// A missing CLI will not appear between attempts.
			return nil, backoff.Permanent(err)
		}
		return stream, nil
	}, backoff.WithBackOff(b), backoff.WithMaxTries(4))
}

func printStream(ctx context.Context, stream *claudecode.Stream) error {
	for msg, err := range stream.All(ctx) {
		if err != nil {
			var decodeErr *claudecode.JSONDecodeError
			if errors.As(err, &decodeErr) {
				slog.Warn("skipping undecodable line", "error", decodeErr)
				continue
			}
			return err
		}

		switch m := msg.(type) {
		case *claudecode.AssistantMessage:
			printBlocks(m.Content)
		case *claudecode.UserMessage:
			printBlocks(m.Content)
		case *claudecode.SystemMessage:
			slog.Debug("system message", "subtype", m.Subtype())
		case *claudecode.ResultMessage:
			printResult(m)
		}
	}
	return nil
}

func printBlocks(blocks []claudecode.ContentBlock) {
	for _, block := range blocks {
		switch b := block.(type) {
		case claudecode.TextBlock:
			fmt.Println(b.Text)
		case claudecode.ToolUseBlock:
			slog.Info("tool use", "tool", b.Name, "id", b.ID)
		case claudecode.ToolResultBlock:
			slog.Debug("tool result", "tool_use_id", b.ToolUseID)
		case claudecode.UnknownBlock:
			slog.Debug("unrecognized content block", "type", b.TypeName)
		}
	}
}

func printResult(m *claudecode.ResultMessage) {
	attrs := []any{}
	if m.CostUSD != nil {
		attrs = append(attrs, "cost_usd", *m.CostUSD)
	}
	if m.TokensInput != nil {
		attrs = append(attrs, "tokens_input", *m.TokensInput)
	}
	if m.TokensOutput != nil {
		attrs = append(attrs, "tokens_output", *m.TokensOutput)
	}
	slog.Info("query finished", attrs...)
}
