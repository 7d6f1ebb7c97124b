package sandbox

import "context"

// Request describes one execution of untrusted code.
type Request struct {
	SubmissionID string
	Code         string
	Language     string
	// Stdin is fed to the program as its standard input.
	Stdin string
	// TimeLimitMs bounds the run. The wall deadline adds a fixed grace
	// period on top to cover container startup.
	TimeLimitMs int64
	// MemoryLimitMB caps container memory. Zero falls back to the
	// executor's default.
	MemoryLimitMB int64
}

// Executor runs untrusted code in an isolated environment. Run returns an
// error only for infrastructure failures; program misbehavior (non-zero
// exit, timeout) is reported through RunResult.Outcome.
type Executor interface {
	Run(ctx context.Context, req Request) (*RunResult, error)
}

// LanguageSpec describes how one language is compiled and run inside the
// container. Command may reference {src}, which expands to SourceFile.
type LanguageSpec struct {
	SourceFile string `yaml:"sourceFile"`
	Command    string `yaml:"command"`
}
