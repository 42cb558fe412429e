package validator

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Diagnostic is one structured compiler error: location, category code, and
// the message text.
type Diagnostic struct {
	Line    int    `json:"line"`
	Column  int    `json:"column"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Report is the outcome of one validation call. Valid is true exactly when
// Diagnostics is empty.
type Report struct {
	Valid       bool         `json:"valid"`
	Diagnostics []Diagnostic `json:"diagnostics"`
}

// CommandRunner executes a toolchain process and captures its output. The
// indirection keeps compiler invocations fakeable in tests.
type CommandRunner interface {
	Run(ctx context.Context, dir string, name string, args ...string) (stdout, stderr string, err error)
}

// ExecRunner runs commands directly on the host with the workspace bin
// directory prepended to PATH.
type ExecRunner struct {
	ExtraPath string
	Timeout   time.Duration
}

// Run executes the command with combined capture of stdout and stderr.
func (r ExecRunner) Run(ctx context.Context, dir string, name string, args ...string) (string, string, error) {
	execCtx := ctx
	cancel := func() {}
	if r.Timeout > 0 {
		execCtx, cancel = context.WithTimeout(ctx, r.Timeout)
	}
	defer cancel()
	cmd := exec.CommandContext(execCtx, name, args...)
	cmd.Dir = dir
	if r.ExtraPath != "" {
		env := os.Environ()
		env = append(env, "PATH="+r.ExtraPath+string(os.PathListSeparator)+os.Getenv("PATH"))
		cmd.Env = env
	}
	// Orphaned children of a killed compiler can hold the output pipes open;
	// WaitDelay bounds how long we wait on them after cancellation.
	cmd.WaitDelay = 5 * time.Second
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	err := cmd.Run()
	if ctxErr := execCtx.Err(); ctxErr != nil {
		// The process was killed by cancellation or timeout; its exit status
		// must not be mistaken for a compile result.
		err = ctxErr
	}
	return stdout.String(), stderr.String(), err
}

// Config controls workspace location and the dependency pin.
type Config struct {
	// BaseDir is the workspace root. Each Validator appends a unique id so
	// concurrent validators never share a source slot.
	BaseDir  string
	Manifest Manifest
	// SkipInstall leaves dependency installation to the operator; setup then
	// only verifies the toolchain is present.
	SkipInstall bool
}

// Validator materializes candidate code into its workspace and drives tsc
// against it. Validate calls on one instance are serialized by a mutex; the
// single source slot cannot be shared safely otherwise.
type Validator struct {
	mu        sync.Mutex
	workspace *Workspace
	runner    CommandRunner
	tscPath   string
	npmPath   string
	logger    *zap.Logger
}

// claimedDirs tracks workspace directories held by validators in this
// process, so directory reuse never hands the same source slot to two
// instances.
var (
	claimMu     sync.Mutex
	claimedDirs = map[string]struct{}{}
)

// claimWorkspace reuses an existing workspace directory under base when one
// is free, so repeated restarts do not accumulate abandoned installs; when
// none is available it mints a fresh uuid-suffixed one. The manifest and
// compiler config of a reused directory are rewritten during setup, and a
// present node_modules skips the install.
func claimWorkspace(base string) (dir, id string) {
	claimMu.Lock()
	defer claimMu.Unlock()
	entries, err := os.ReadDir(base)
	if err == nil {
		for _, entry := range entries {
			if !entry.IsDir() {
				continue
			}
			candidate := filepath.Join(base, entry.Name())
			if _, used := claimedDirs[candidate]; used {
				continue
			}
			if _, err := os.Stat(filepath.Join(candidate, "package.json")); err != nil {
				continue
			}
			claimedDirs[candidate] = struct{}{}
			return candidate, entry.Name()
		}
	}
	id = uuid.NewString()[:8]
	dir = filepath.Join(base, id)
	claimedDirs[dir] = struct{}{}
	return dir, id
}

// New sets up the compilation environment: workspace layout, pinned manifest,
// strict compiler config, installed dependencies, and a resolved tsc binary.
// A missing toolchain is a configuration error and fails construction.
func New(cfg Config, logger *zap.Logger) (*Validator, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.BaseDir == "" {
		cfg.BaseDir = "./tsx_validator_env"
	}
	dir, id := claimWorkspace(cfg.BaseDir)
	ws, err := NewWorkspace(dir, id, cfg.Manifest)
	if err != nil {
		return nil, err
	}
	v := &Validator{
		workspace: ws,
		runner:    ExecRunner{ExtraPath: filepath.Join(dir, "node_modules", ".bin")},
		logger:    logger.With(zap.String("workspace", dir)),
	}
	npmPath, err := exec.LookPath("npm")
	if err != nil {
		return nil, fmt.Errorf("npm not found: %w", err)
	}
	v.npmPath = npmPath
	if !cfg.SkipInstall {
		if err := v.install(context.Background()); err != nil {
			return nil, err
		}
	}
	tscPath, err := v.locateTsc()
	if err != nil {
		return nil, err
	}
	v.tscPath = tscPath
	v.logger.Info("validator environment ready", zap.String("tsc", tscPath))
	return v, nil
}

// NewWithRunner wires a custom runner and an already-prepared workspace. Used
// by tests; production callers go through New.
func NewWithRunner(ws *Workspace, runner CommandRunner, tscPath string, logger *zap.Logger) *Validator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Validator{workspace: ws, runner: runner, tscPath: tscPath, logger: logger}
}

// Workspace exposes the underlying workspace, mainly for tests and doctor
// output.
func (v *Validator) Workspace() *Workspace { return v.workspace }

func (v *Validator) install(ctx context.Context) error {
	if _, err := os.Stat(filepath.Join(v.workspace.Dir, "node_modules")); err == nil {
		return nil
	}
	v.logger.Info("installing workspace dependencies")
	stdout, stderr, err := v.runner.Run(ctx, v.workspace.Dir, v.npmPath, "install")
	if err != nil {
		v.logger.Error("npm install failed", zap.String("stderr", stderr))
		return fmt.Errorf("install workspace dependencies: %w", err)
	}
	v.logger.Debug("npm install output", zap.String("stdout", stdout))
	return nil
}

func (v *Validator) locateTsc() (string, error) {
	local := filepath.Join(v.workspace.Dir, "node_modules", ".bin", "tsc")
	if _, err := os.Stat(local); err == nil {
		return local, nil
	}
	if global, err := exec.LookPath("tsc"); err == nil {
		return global, nil
	}
	return "", fmt.Errorf("typescript compiler not found in %s or PATH", v.workspace.Dir)
}

// Validate writes the candidate source into the slot, runs tsc in strict
// project mode, and parses diagnostics from the combined output. The slot is
// cleared on every exit path. A returned error means the toolchain itself
// failed (infrastructure), never that the code has diagnostics.
func (v *Validator) Validate(ctx context.Context, source string) (*Report, error) {
	v.mu.Lock()
	defer v.mu.Unlock()

	if err := v.workspace.WriteSlot(source); err != nil {
		return nil, fmt.Errorf("write candidate: %w", err)
	}
	defer func() {
		if err := v.workspace.ClearSlot(); err != nil {
			v.logger.Warn("failed to remove candidate file", zap.Error(err))
		}
	}()

	stdout, stderr, err := v.runner.Run(ctx, v.workspace.Dir, v.tscPath, "--project", filepath.Join(v.workspace.Dir, "tsconfig.json"))
	if ctxErr := ctx.Err(); ctxErr != nil {
		// The compiler was interrupted; its truncated output says nothing
		// about the candidate.
		return nil, fmt.Errorf("compiler interrupted: %w", ctxErr)
	}
	output := stdout + "\n" + stderr
	if err != nil {
		var exitErr *exec.ExitError
		if !errors.As(err, &exitErr) {
			// The process could not run at all: that is an infrastructure
			// failure, not a compile result.
			return nil, fmt.Errorf("invoke compiler: %w", err)
		}
	}

	diags := v.parseDiagnostics(output)
	if len(diags) == 0 {
		v.logger.Debug("validation passed")
		return &Report{Valid: true, Diagnostics: []Diagnostic{}}, nil
	}
	v.logger.Debug("validation found diagnostics", zap.Int("count", len(diags)))
	return &Report{Valid: false, Diagnostics: diags}, nil
}

// CheckEnvironment reports setup problems as a list of human-readable issues.
// An empty list means the environment looks usable.
func (v *Validator) CheckEnvironment() []string {
	var issues []string
	if v.npmPath == "" {
		if _, err := exec.LookPath("npm"); err != nil {
			issues = append(issues, "npm not found on PATH")
		}
	}
	for _, file := range []string{"package.json", "tsconfig.json"} {
		if _, err := os.Stat(filepath.Join(v.workspace.Dir, file)); err != nil {
			issues = append(issues, fmt.Sprintf("%s missing from workspace", file))
		}
	}
	if _, err := os.Stat(filepath.Join(v.workspace.Dir, "node_modules")); err != nil {
		issues = append(issues, "node_modules missing; dependencies not installed")
	}
	if v.tscPath == "" {
		issues = append(issues, "typescript compiler not resolved")
	}
	return issues
}

// managedRoot is the path prefix diagnostics must carry to be attributed to
// the candidate source rather than vendored dependencies.
const managedRoot = "src/"

func (v *Validator) parseDiagnostics(output string) []Diagnostic {
	var diags []Diagnostic
	for _, line := range strings.Split(output, "\n") {
		line = strings.TrimRight(line, "\r")
		if !strings.Contains(line, "error TS") {
			continue
		}
		if !strings.HasPrefix(line, managedRoot) {
			continue
		}
		diag, ok := parseDiagnosticLine(line)
		if !ok {
			v.logger.Warn("unparseable diagnostic line", zap.String("line", line))
			continue
		}
		diags = append(diags, diag)
	}
	return diags
}
