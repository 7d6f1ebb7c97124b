package sandbox

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/google/shlex"
	"github.com/google/uuid"
	"go.uber.org/zap"

	appErr "github.com/harsh-s15/iitj-coder/pkg/errors"
	"github.com/harsh-s15/iitj-coder/pkg/utils/logger"
)

const (
	defaultImage          = "gcc:latest"
	defaultCPUs           = "0.5"
	defaultMemoryMB int64 = 128
	defaultGraceMs  int64 = 5000
	defaultMaxBytes int64 = 64 * 1024

	// defaultRunTemplate is expanded with shlex, then each token has its
	// placeholders substituted. {cmd} is passed as a single argv entry.
	defaultRunTemplate = "docker run --rm -i --name {name} --network none --memory {memory}m --memory-swap {memory}m --cpus {cpus} -v {dir}:/work -w /work {image} sh -c {cmd}"

	containerNamePrefix = "judge-"
)

// Config controls the Docker-backed executor.
type Config struct {
	// WorkRoot is the host directory holding per-execution work dirs.
	WorkRoot string `yaml:"workRoot"`
	Image    string `yaml:"image"`
	CPUs     string `yaml:"cpus"`
	// DefaultMemoryMB applies when a request carries no memory limit.
	DefaultMemoryMB int64 `yaml:"defaultMemoryMB"`
	// GraceMs is added to the request time limit to form the wall deadline.
	GraceMs int64 `yaml:"graceMs"`
	// MaxOutputBytes caps captured stdout and stderr individually.
	MaxOutputBytes int64 `yaml:"maxOutputBytes"`
	// RunTemplate overrides the container invocation. Placeholders:
	// {dir} {image} {cpus} {memory} {cmd} {name}.
	RunTemplate string                  `yaml:"runTemplate"`
	Languages   map[string]LanguageSpec `yaml:"languages"`
}

// DefaultConfig returns a config matching the stock gcc container setup.
func DefaultConfig() Config {
	return Config{
		WorkRoot:        filepath.Join(os.TempDir(), "judge"),
		Image:           defaultImage,
		CPUs:            defaultCPUs,
		DefaultMemoryMB: defaultMemoryMB,
		GraceMs:         defaultGraceMs,
		MaxOutputBytes:  defaultMaxBytes,
		RunTemplate:     defaultRunTemplate,
		Languages: map[string]LanguageSpec{
			"c":   {SourceFile: "main.c", Command: "gcc {src} -O2 -o prog && ./prog"},
			"cpp": {SourceFile: "main.cpp", Command: "g++ {src} -O2 -o prog && ./prog"},
		},
	}
}

// DockerExecutor runs code inside short-lived Docker containers, one
// container per execution.
type DockerExecutor struct {
	cfg      Config
	template []string
	// named is set when the template carries the {name} placeholder.
	// Only named containers can be killed through the daemon.
	named         bool
	stopContainer func(name string)
}

// NewDockerExecutor validates the config and pre-parses the run template.
func NewDockerExecutor(cfg Config) (*DockerExecutor, error) {
	if cfg.WorkRoot == "" {
		return nil, fmt.Errorf("workRoot is required")
	}
	if cfg.Image == "" {
		cfg.Image = defaultImage
	}
	if cfg.CPUs == "" {
		cfg.CPUs = defaultCPUs
	}
	if cfg.DefaultMemoryMB <= 0 {
		cfg.DefaultMemoryMB = defaultMemoryMB
	}
	if cfg.GraceMs <= 0 {
		cfg.GraceMs = defaultGraceMs
	}
	if cfg.MaxOutputBytes <= 0 {
		cfg.MaxOutputBytes = defaultMaxBytes
	}
	if cfg.RunTemplate == "" {
		cfg.RunTemplate = defaultRunTemplate
	}
	if len(cfg.Languages) == 0 {
		cfg.Languages = DefaultConfig().Languages
	}
	template, err := shlex.Split(cfg.RunTemplate)
	if err != nil {
		return nil, fmt.Errorf("parse run template: %w", err)
	}
	if len(template) == 0 {
		return nil, fmt.Errorf("run template is empty")
	}
	if err := os.MkdirAll(cfg.WorkRoot, 0o755); err != nil {
		return nil, fmt.Errorf("create work root: %w", err)
	}
	return &DockerExecutor{
		cfg:           cfg,
		template:      template,
		named:         strings.Contains(cfg.RunTemplate, "{name}"),
		stopContainer: dockerKill,
	}, nil
}

func (e *DockerExecutor) Run(ctx context.Context, req Request) (*RunResult, error) {
	lang, ok := e.cfg.Languages[strings.ToLower(req.Language)]
	if !ok {
		return nil, appErr.Newf(appErr.LanguageNotSupported, "language %q is not supported", req.Language)
	}
	if req.TimeLimitMs <= 0 {
		return nil, appErr.Newf(appErr.InvalidParams, "time limit must be positive")
	}

	runID := uuid.NewString()
	containerName := containerNamePrefix + runID
	workDir := filepath.Join(e.cfg.WorkRoot, runID)
	if err := os.MkdirAll(workDir, 0o755); err != nil {
		return nil, appErr.Wrapf(err, appErr.EvalSystemError, "create work dir")
	}
	defer func() {
		if err := os.RemoveAll(workDir); err != nil {
			logger.Warn(ctx, "remove work dir failed",
				zap.String("dir", workDir), zap.Error(err))
		}
	}()

	srcPath := filepath.Join(workDir, lang.SourceFile)
	if err := os.WriteFile(srcPath, []byte(req.Code), 0o644); err != nil {
		return nil, appErr.Wrapf(err, appErr.EvalSystemError, "write source file")
	}

	memoryMB := req.MemoryLimitMB
	if memoryMB <= 0 {
		memoryMB = e.cfg.DefaultMemoryMB
	}
	containerCmd := strings.ReplaceAll(lang.Command, "{src}", lang.SourceFile)
	args := e.expandTemplate(workDir, memoryMB, containerCmd, containerName)

	cmd := exec.Command(args[0], args[1:]...)
	cmd.Dir = workDir
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}
	cmd.Stdin = strings.NewReader(req.Stdin)

	stdout := newCappedBuffer(e.cfg.MaxOutputBytes)
	stderr := newCappedBuffer(e.cfg.MaxOutputBytes)
	cmd.Stdout = stdout
	cmd.Stderr = stderr

	start := time.Now()
	if err := cmd.Start(); err != nil {
		return nil, appErr.Wrapf(err, appErr.EvalSystemError, "start container")
	}

	wallDeadline := time.Duration(req.TimeLimitMs+e.cfg.GraceMs) * time.Millisecond
	var timedOut atomic.Bool
	done := make(chan struct{})
	go func() {
		select {
		case <-ctx.Done():
			e.kill(containerName, cmd.Process.Pid)
		case <-time.After(wallDeadline):
			timedOut.Store(true)
			e.kill(containerName, cmd.Process.Pid)
		case <-done:
		}
	}()

	waitErr := cmd.Wait()
	close(done)
	wallMs := time.Since(start).Milliseconds()

	res := &RunResult{
		Stdout:          stdout.String(),
		Stderr:          stderr.String(),
		ExitCode:        exitCode(waitErr, cmd),
		WallTimeMs:      wallMs,
		OutputTruncated: stdout.truncated || stderr.truncated,
	}

	switch {
	case timedOut.Load():
		res.Outcome = OutcomeTimeout
	case waitErr == nil:
		res.Outcome = OutcomeSuccess
	default:
		var exitErr *exec.ExitError
		if errors.As(waitErr, &exitErr) {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			res.Outcome = OutcomeRuntimeError
		} else {
			return nil, appErr.Wrapf(waitErr, appErr.EvalSystemError, "wait for container")
		}
	}
	return res, nil
}

func (e *DockerExecutor) expandTemplate(workDir string, memoryMB int64, containerCmd, containerName string) []string {
	replacer := strings.NewReplacer(
		"{dir}", workDir,
		"{image}", e.cfg.Image,
		"{cpus}", e.cfg.CPUs,
		"{memory}", fmt.Sprintf("%d", memoryMB),
		"{cmd}", containerCmd,
		"{name}", containerName,
	)
	args := make([]string, len(e.template))
	for i, tok := range e.template {
		args[i] = replacer.Replace(tok)
	}
	return args
}

// kill tears down one execution. The container is a child of dockerd, not
// of this process group, so it needs its own kill through the daemon; the
// pgroup kill covers the docker client and any helpers.
func (e *DockerExecutor) kill(containerName string, pid int) {
	if e.named {
		e.stopContainer(containerName)
	}
	killProcessGroup(pid)
}

// killProcessGroup kills the whole process group so the container client
// and any children go down together.
func killProcessGroup(pid int) {
	if pid <= 0 {
		return
	}
	_ = syscall.Kill(-pid, syscall.SIGKILL)
}

func dockerKill(name string) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = exec.CommandContext(ctx, "docker", "kill", name).Run()
}

func exitCode(waitErr error, cmd *exec.Cmd) int {
	if cmd.ProcessState != nil {
		return cmd.ProcessState.ExitCode()
	}
	if waitErr == nil {
		return 0
	}
	return -1
}

// cappedBuffer accepts all writes but retains at most max bytes.
type cappedBuffer struct {
	buf       bytes.Buffer
	max       int64
	truncated bool
}

func newCappedBuffer(max int64) *cappedBuffer {
	return &cappedBuffer{max: max}
}

func (b *cappedBuffer) Write(p []byte) (int, error) {
	remaining := b.max - int64(b.buf.Len())
	if remaining <= 0 {
		if len(p) > 0 {
			b.truncated = true
		}
		return len(p), nil
	}
	if int64(len(p)) > remaining {
		b.buf.Write(p[:remaining])
		b.truncated = true
	} else {
		b.buf.Write(p)
	}
	return len(p), nil
}

func (b *cappedBuffer) String() string {
	return b.buf.String()
}

var _ Executor = (*DockerExecutor)(nil)
