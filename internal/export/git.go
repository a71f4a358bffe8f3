package export

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"go.uber.org/zap"
)

const gitExecutable = "git"

// GitConfig points the exporter at an existing working tree.
type GitConfig struct {
	Dir    string
	Remote string
	Branch string
	Push   bool
}

// GitExporter commits audits into a git working tree and optionally pushes.
// Exports are serialized; git does not tolerate concurrent index writers.
type GitExporter struct {
	cfg    GitConfig
	runner CommandRunner
	log    *zap.Logger
	mu     sync.Mutex
}

func NewGitExporter(cfg GitConfig, runner CommandRunner, log *zap.Logger) (*GitExporter, error) {
	if strings.TrimSpace(cfg.Dir) == "" {
		return nil, fmt.Errorf("git export directory is required")
	}
	if runner == nil {
		runner = OSCommandRunner{}
	}
	if log == nil {
		log = zap.NewNop()
	}
	if cfg.Remote == "" {
		cfg.Remote = "origin"
	}
	if cfg.Branch == "" {
		cfg.Branch = "main"
	}
	return &GitExporter{cfg: cfg, runner: runner, log: log}, nil
}

func (e *GitExporter) Name() string { return "git" }

func (e *GitExporter) Export(ctx context.Context, auditID, content string) (ArtifactLocation, error) {
	if err := checkID(auditID); err != nil {
		return ArtifactLocation{}, err
	}
	e.mu.Lock()
	defer e.mu.Unlock()

	key := ObjectKey(auditID)
	path := filepath.Join(e.cfg.Dir, filepath.FromSlash(key))
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return ArtifactLocation{}, fmt.Errorf("%w: %v", ErrExportFailed, err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		return ArtifactLocation{}, fmt.Errorf("%w: %v", ErrExportFailed, err)
	}

	if _, err := e.git(ctx, "add", "--", key); err != nil {
		return ArtifactLocation{}, err
	}
	changed, err := e.staged(ctx, key)
	if err != nil {
		return ArtifactLocation{}, err
	}
	if changed {
		if _, err := e.git(ctx, "commit", "-m", "Publish audit "+auditID, "--", key); err != nil {
			return ArtifactLocation{}, err
		}
	} else {
		e.log.Info("audit already published", zap.String("key", key))
	}
	head, err := e.git(ctx, "rev-parse", "HEAD")
	if err != nil {
		return ArtifactLocation{}, err
	}
	if e.cfg.Push {
		if _, err := e.git(ctx, "push", e.cfg.Remote, "HEAD:"+e.cfg.Branch); err != nil {
			return ArtifactLocation{}, err
		}
	}
	return ArtifactLocation{Exporter: e.Name(), Key: key, Commit: strings.TrimSpace(head)}, nil
}

// staged reports whether key differs from HEAD in the index. git diff
// --quiet exits 1 when there are differences.
func (e *GitExporter) staged(ctx context.Context, key string) (bool, error) {
	args := []string{"diff", "--cached", "--quiet", "--", key}
	res, err := e.runner.Run(ctx, ShellCommand{Name: gitExecutable, Arguments: args, WorkingDirectory: e.cfg.Dir})
	if err != nil {
		return false, fmt.Errorf("%w: git diff: %v", ErrExportFailed, err)
	}
	switch res.ExitCode {
	case 0:
		return false, nil
	case 1:
		return true, nil
	}
	e.log.Warn("git command failed",
		zap.Strings("args", args),
		zap.Int("exit_code", res.ExitCode),
		zap.String("stderr", strings.TrimSpace(res.StandardError)))
	return false, fmt.Errorf("%w: git diff exited %d", ErrExportFailed, res.ExitCode)
}

func (e *GitExporter) git(ctx context.Context, args ...string) (string, error) {
	cmd := ShellCommand{Name: gitExecutable, Arguments: args, WorkingDirectory: e.cfg.Dir}
	e.log.Debug("git command", zap.Strings("args", args), zap.String("dir", e.cfg.Dir))
	res, err := e.runner.Run(ctx, cmd)
	if err != nil {
		return "", fmt.Errorf("%w: git %s: %v", ErrExportFailed, args[0], err)
	}
	if res.ExitCode != 0 {
		e.log.Warn("git command failed",
			zap.Strings("args", args),
			zap.Int("exit_code", res.ExitCode),
			zap.String("stderr", strings.TrimSpace(res.StandardError)))
		return "", fmt.Errorf("%w: git %s exited %d", ErrExportFailed, args[0], res.ExitCode)
	}
	return res.StandardOutput, nil
}
