// Package git inspects repositories on disk: bare detection, linked
// worktrees and the head and default branches.
//
// Every lookup collapses failures to "not a repo", an empty list or false.
// A Repo holds only the paths it resolved; nothing is cached between calls.
package git

import (
	"context"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"github.com/undrift/tuxmux/pkg/shell"
)

// Repo is an opened repository.
type Repo struct {
	// Path is the directory the repo was opened at.
	Path string
	// GitDir is the repository directory for Path.
	GitDir string
	// CommonDir is the directory shared by all worktrees.
	CommonDir string

	runner shell.Runner
}

// Open opens the repository rooted at path. A plain subdirectory of a
// repository is not a repository.
func Open(path string) (*Repo, bool) {
	return OpenWith(shell.NewRunner(), path)
}

// OpenWith opens the repository at path using runner to invoke git.
func OpenWith(runner shell.Runner, path string) (*Repo, bool) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, false
	}

	r := &Repo{Path: abs, runner: runner}
	out, ok := r.git("rev-parse", "--git-dir", "--git-common-dir")
	if !ok {
		return nil, false
	}

	lines := strings.Split(out, "\n")
	if len(lines) != 2 {
		return nil, false
	}
	r.GitDir = r.resolve(lines[0])
	r.CommonDir = r.resolve(lines[1])
	return r, true
}

// IsBare reports the core.bare setting.
func (r *Repo) IsBare() bool {
	out, ok := r.git("config", "--bool", "core.bare")
	return ok && out == "true"
}

// IsWorktree reports whether Path is a linked worktree rather than the
// main repository.
func (r *Repo) IsWorktree() bool {
	return r.GitDir != r.CommonDir
}

// HeadBranch returns the short name of the branch HEAD points at. It is
// false when HEAD is detached.
func (r *Repo) HeadBranch() (string, bool) {
	out, ok := r.git("symbolic-ref", "--short", "HEAD")
	if !ok || out == "" {
		return "", false
	}
	return out, true
}

// DefaultBranch returns the branch the default fetch remote's HEAD points
// at, without the remote prefix.
func (r *Repo) DefaultBranch() (string, bool) {
	remote, ok := r.defaultRemote()
	if !ok {
		return "", false
	}

	out, ok := r.git("symbolic-ref", "--short", "refs/remotes/"+remote+"/HEAD")
	if !ok {
		return "", false
	}

	branch := strings.TrimPrefix(out, remote+"/")
	return branch, branch != ""
}

// defaultRemote picks origin when it exists, otherwise the only remote.
func (r *Repo) defaultRemote() (string, bool) {
	out, ok := r.git("remote")
	if !ok || out == "" {
		return "", false
	}

	remotes := strings.Fields(out)
	for _, name := range remotes {
		if name == "origin" {
			return name, true
		}
	}
	if len(remotes) == 1 {
		return remotes[0], true
	}
	return "", false
}

// git runs a git subcommand in the repo path. The parent directory is a
// ceiling so discovery never walks upwards.
func (r *Repo) git(args ...string) (string, bool) {
	cmd := shell.Command{
		Name: "git",
		Args: args,
		Dir:  r.Path,
		Env:  map[string]string{"GIT_CEILING_DIRECTORIES": filepath.Dir(r.Path)},
	}

	result, err := r.runner.Exec(context.Background(), cmd)
	if err != nil || !result.Success() {
		fields := []zap.Field{zap.String("dir", r.Path), zap.Strings("args", args)}
		if err != nil {
			fields = append(fields, zap.Error(err))
		} else {
			fields = append(fields, zap.Int("exit", result.ExitCode), zap.String("stderr", result.Stderr))
		}
		zap.L().Debug("git command failed", fields...)
		return "", false
	}
	return result.Stdout, true
}

func (r *Repo) resolve(p string) string {
	if !filepath.IsAbs(p) {
		p = filepath.Join(r.Path, p)
	}
	return filepath.Clean(p)
}
