// Package config loads default query options for the claude-query tool
// from a YAML config file and CLAUDE_SDK_* environment variables.
package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env/v2"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	claudecode "github.com/ReOpsIL/claude-code-sdk-go"
)

// envPrefix namespaces the environment overrides, e.g.
// CLAUDE_SDK_MODEL=claude-sonnet-4 or CLAUDE_SDK_MAX_TURNS=3.
const envPrefix = "CLAUDE_SDK_"

// Config is the file/env configuration surface of the claude-query tool.
// Precedence, lowest to highest: built-in defaults, config file,
// environment.
type Config struct {
	LogLevel       string   `koanf:"log_level"`
	CLIPath        string   `koanf:"cli_path"`
	Cwd            string   `koanf:"cwd"`
	Model          string   `koanf:"model"`
	SystemPrompt   string   `koanf:"system_prompt"`
	PermissionMode string   `koanf:"permission_mode"`
	MaxTurns       int      `koanf:"max_turns"`
	AllowedTools   []string `koanf:"allowed_tools"`
	FailFastDecode bool     `koanf:"fail_fast_decode"`
}

// Load reads configuration from the given YAML file path (may be empty:
// file layer is skipped) with environment overrides applied on top.
func Load(path string) (*Config, error) {
	k := koanf.New(".")

	defaults := map[string]any{
		"log_level":       "info",
		"permission_mode": string(claudecode.PermissionDefault),
	}
	if err := k.Load(confmap.Provider(defaults, "."), nil); err != nil {
		return nil, fmt.Errorf("load defaults: %w", err)
	}

	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("load config file %s: %w", path, err)
		}
	}

	if err := k.Load(env.Provider(".", env.Opt{
		Prefix: envPrefix,
		TransformFunc: func(key, value string) (string, any) {
			key = strings.ToLower(strings.TrimPrefix(key, envPrefix))
			return key, value
		},
	}), nil); err != nil {
		return nil, fmt.Errorf("load environment: %w", err)
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	return &cfg, nil
}

// DefaultPath returns the conventional config file location if it exists,
// otherwise empty.
func DefaultPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	path := home + "/.config/claude-sdk/config.yaml"
	if _, err := os.Stat(path); err != nil {
		return ""
	}
	return path
}

// Options converts the file/env configuration into a query Options
// snapshot.
func (c *Config) Options() claudecode.Options {
	return claudecode.Options{
		Cwd:            c.Cwd,
		AllowedTools:   c.AllowedTools,
		PermissionMode: claudecode.PermissionMode(c.PermissionMode),
		SystemPrompt:   c.SystemPrompt,
		MaxTurns:       c.MaxTurns,
		Model:          c.Model,
		CLIPath:        c.CLIPath,
		FailFastDecode: c.FailFastDecode,
	}
}
