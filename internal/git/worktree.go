package git

import (
	"os"
	"path/filepath"
	"strings"
)

// Worktree is a linked worktree of a repository.
type Worktree struct {
	// ID is the administrative name under <common-dir>/worktrees.
	ID string
	// BasePath is the worktree's checkout directory.
	BasePath string
	// Branch is the checked out branch, empty when detached.
	Branch string
}

// Worktrees lists the linked worktrees ordered by id. The main working
// directory is not included. Entries whose checkout no longer exists are
// skipped.
func (r *Repo) Worktrees() []Worktree {
	adminDir := filepath.Join(r.CommonDir, "worktrees")
	entries, err := os.ReadDir(adminDir)
	if err != nil {
		return nil
	}

	worktrees := []Worktree{}
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		wt, ok := readWorktree(filepath.Join(adminDir, entry.Name()))
		if !ok {
			continue
		}
		wt.ID = entry.Name()
		worktrees = append(worktrees, wt)
	}
	return worktrees
}

// FindWorktree returns the worktree with the given id.
func FindWorktree(worktrees []Worktree, id string) (Worktree, bool) {
	for _, wt := range worktrees {
		if wt.ID == id {
			return wt, true
		}
	}
	return Worktree{}, false
}

// readWorktree reads one admin directory. gitdir holds the path of the
// checkout's .git file; HEAD holds either a symbolic ref or a commit.
func readWorktree(dir string) (Worktree, bool) {
	gitdir, err := os.ReadFile(filepath.Join(dir, "gitdir"))
	if err != nil {
		return Worktree{}, false
	}

	dotGit := strings.TrimSpace(string(gitdir))
	if dotGit == "" {
		return Worktree{}, false
	}
	if !filepath.IsAbs(dotGit) {
		dotGit = filepath.Join(dir, dotGit)
	}

	base := filepath.Dir(filepath.Clean(dotGit))
	if info, err := os.Stat(base); err != nil || !info.IsDir() {
		return Worktree{}, false
	}

	wt := Worktree{BasePath: base}
	if head, err := os.ReadFile(filepath.Join(dir, "HEAD")); err == nil {
		wt.Branch = branchFromHead(string(head))
	}
	return wt, true
}

func branchFromHead(head string) string {
	ref, ok := strings.CutPrefix(strings.TrimSpace(head), "ref:")
	if !ok {
		return ""
	}
	return strings.TrimPrefix(strings.TrimSpace(ref), "refs/heads/")
}
