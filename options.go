package claudecode

// PermissionMode governs whether tool use requires interactive
// confirmation from the user.
type PermissionMode string

const (
	// PermissionDefault lets the CLI prompt for dangerous tools.
	PermissionDefault PermissionMode = "default"
	// PermissionAcceptEdits auto-accepts file edit tools.
	PermissionAcceptEdits PermissionMode = "accept_edits"
	// PermissionBypassPermissions allows all tools without prompting.
	PermissionBypassPermissions PermissionMode = "bypass_permissions"
)

// Options is an immutable configuration snapshot captured at query start.
// The zero value uses documented defaults: no working-directory override,
// no tool allowlist, PermissionDefault, no turn cap.
//
// The With* methods are value receivers returning a modified copy, so a
// base Options can be shared and specialized per query:
//
//	base := claudecode.Options{}.WithSystemPrompt("Be terse")
//	stream, err := claudecode.Query(ctx, prompt, base.WithMaxTurns(1))
type Options struct {
	// Cwd is the working directory for the CLI process.
	Cwd string
	// AllowedTools is the ordered tool allowlist passed to the CLI.
	AllowedTools []string
	// PermissionMode selects the tool-permission policy. Empty means
	// PermissionDefault.
	PermissionMode PermissionMode
	// SystemPrompt overrides the CLI's system prompt.
	SystemPrompt string
	// MaxTurns caps agentic turns. Zero means no cap.
	MaxTurns int
	// Model selects the model.
	Model string
	// APIKey, if set, is passed to the child as ANTHROPIC_API_KEY.
	APIKey string
	// Env holds extra environment variables for the child process.
	Env map[string]string
	// CLIPath overrides executable discovery. Empty means search PATH
	// and the well-known install locations.
	CLIPath string

	// FailFastDecode makes a JSON decode failure terminal instead of the
	// default policy of yielding it as one stream item and continuing.
	FailFastDecode bool

	// CLI behavior toggles, each mapping to the corresponding flag.
	DisableSafetySuggestions bool
	DisableTelemetry         bool
	DisableStream            bool
	DisableVision            bool
	DisableSearch            bool
}

// WithCwd returns a copy with the working directory set.
func (o Options) WithCwd(dir string) Options {
	o.Cwd = dir
	return o
}

// WithAllowedTools returns a copy with the tool allowlist set.
func (o Options) WithAllowedTools(tools ...string) Options {
	o.AllowedTools = append([]string(nil), tools...)
	return o
}

// WithPermissionMode returns a copy with the permission mode set.
func (o Options) WithPermissionMode(mode PermissionMode) Options {
	o.PermissionMode = mode
	return o
}

// WithSystemPrompt returns a copy with the system prompt set.
func (o Options) WithSystemPrompt(prompt string) Options {
	o.SystemPrompt = prompt
	return o
}

// WithMaxTurns returns a copy with the turn cap set.
func (o Options) WithMaxTurns(turns int) Options {
	o.MaxTurns = turns
	return o
}

// WithModel returns a copy with the model set.
func (o Options) WithModel(model string) Options {
	o.Model = model
	return o
}
