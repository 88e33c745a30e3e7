// Package gittest builds throwaway git repositories for tests.
package gittest

import (
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"
)

// Run runs git in dir and fails the test on error. It returns trimmed
// stdout.
func Run(t testing.TB, dir string, args ...string) string {
	t.Helper()

	cmd := exec.Command("git", args...)
	cmd.Dir = dir
	cmd.Env = append(os.Environ(),
		"GIT_AUTHOR_NAME=Test User",
		"GIT_AUTHOR_EMAIL=test@test.com",
		"GIT_COMMITTER_NAME=Test User",
		"GIT_COMMITTER_EMAIL=test@test.com",
		"GIT_CONFIG_NOSYSTEM=1",
	)

	out, err := cmd.CombinedOutput()
	if err != nil {
		t.Fatalf("git %s failed: %v\n%s", strings.Join(args, " "), err, out)
	}
	return strings.TrimSpace(string(out))
}

// Init creates a repository at dir with one commit on main.
func Init(t testing.TB, dir string) string {
	t.Helper()

	if _, err := exec.LookPath("git"); err != nil {
		t.Skip("git not installed")
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		t.Fatalf("Failed to create %s: %v", dir, err)
	}

	Run(t, dir, "init", "-q")
	Run(t, dir, "symbolic-ref", "HEAD", "refs/heads/main")

	if err := os.WriteFile(filepath.Join(dir, "README.md"), []byte("# Test\n"), 0644); err != nil {
		t.Fatalf("Failed to create test file: %v", err)
	}
	Run(t, dir, "add", ".")
	Run(t, dir, "commit", "-q", "-m", "Initial commit")
	return dir
}

// Bare lays out dir as a bare clone in dir/.bare with a dir/.git pointer
// file and one linked worktree per branch at dir/<branch>. origin/HEAD is
// set to defaultBranch when it is not empty. The first branch is the one
// the source repository starts on.
func Bare(t testing.TB, dir, defaultBranch string, branches ...string) string {
	t.Helper()

	src := Init(t, filepath.Join(t.TempDir(), "src"))
	for _, b := range branches {
		if b != "main" {
			Run(t, src, "branch", b)
		}
	}

	if err := os.MkdirAll(dir, 0755); err != nil {
		t.Fatalf("Failed to create %s: %v", dir, err)
	}
	bare := filepath.Join(dir, ".bare")
	Run(t, dir, "clone", "-q", "--bare", src, bare)
	if err := os.WriteFile(filepath.Join(dir, ".git"), []byte("gitdir: ./.bare\n"), 0644); err != nil {
		t.Fatalf("Failed to write .git file: %v", err)
	}

	for _, b := range branches {
		Run(t, bare, "worktree", "add", filepath.Join(dir, b), b)
	}

	if defaultBranch != "" {
		Run(t, bare, "update-ref", "refs/remotes/origin/"+defaultBranch, "refs/heads/"+defaultBranch)
		Run(t, bare, "symbolic-ref", "refs/remotes/origin/HEAD", "refs/remotes/origin/"+defaultBranch)
	}
	return dir
}
