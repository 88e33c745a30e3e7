// Package walker discovers project directories under the configured
// workspace roots.
package walker

import (
	"context"
	"os"
	"path/filepath"
	"runtime"
	"slices"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/undrift/tuxmux/internal/config"
)

// Walker enumerates candidate directories. A directory is a candidate when
// one of the project markers exists directly inside it; candidates are not
// descended into.
type Walker struct {
	Roots    []string
	Singles  []string
	Excludes []string
	Markers  []string
	Depth    int

	// Parallelism bounds the number of directories read concurrently.
	Parallelism int
}

// New creates a Walker from the config.
func New(cfg *config.Config) *Walker {
	return &Walker{
		Roots:       cfg.WorkspaceRoots,
		Singles:     cfg.SinglePaths,
		Excludes:    cfg.ExcludeNames,
		Markers:     cfg.ProjectMarkers,
		Depth:       cfg.Depth,
		Parallelism: runtime.GOMAXPROCS(0) * 4,
	}
}

// Walk returns the candidates for cfg.
func Walk(ctx context.Context, cfg *config.Config) []string {
	return New(cfg).Walk(ctx)
}

// Walk returns the single paths followed by the candidates of each root in
// root order. Within a root the candidates are sorted. A path reachable
// from several roots is listed once, where it was first found. Unreadable
// directories are skipped.
func (w *Walker) Walk(ctx context.Context) []string {
	seen := make(map[string]bool)
	var result []string
	add := func(paths []string) {
		for _, p := range paths {
			p = filepath.Clean(p)
			if seen[p] {
				continue
			}
			seen[p] = true
			result = append(result, p)
		}
	}

	add(w.Singles)
	for _, root := range w.Roots {
		add(w.walkRoot(ctx, root))
	}
	return result
}

func (w *Walker) walkRoot(ctx context.Context, root string) []string {
	start := time.Now()
	log := zap.L().With(zap.String("root", root))

	info, err := os.Stat(root)
	if err != nil || !info.IsDir() {
		log.Debug("skipping workspace root", zap.Error(err))
		return nil
	}

	var (
		mu    sync.Mutex
		found []string
	)

	g, ctx := errgroup.WithContext(ctx)
	if w.Parallelism > 0 {
		g.SetLimit(w.Parallelism)
	}

	var visit func(dir string, depth int)
	visit = func(dir string, depth int) {
		if ctx.Err() != nil {
			return
		}

		if w.isCandidate(dir) {
			mu.Lock()
			found = append(found, dir)
			mu.Unlock()
			return
		}

		if depth >= w.Depth {
			return
		}

		entries, err := os.ReadDir(dir)
		if err != nil {
			log.Debug("failed to read directory", zap.String("dir", dir), zap.Error(err))
			return
		}

		for _, entry := range entries {
			// DirEntry reports symlinks as non-directories, so links are
			// never followed.
			if !entry.IsDir() || slices.Contains(w.Excludes, entry.Name()) {
				continue
			}

			child := filepath.Join(dir, entry.Name())
			if !g.TryGo(func() error {
				visit(child, depth+1)
				return nil
			}) {
				visit(child, depth+1)
			}
		}
	}

	visit(root, 0)
	_ = g.Wait()

	slices.Sort(found)
	log.Debug("walk finished", zap.Int("candidates", len(found)), zap.Duration("elapsed", time.Since(start)))
	return found
}

func (w *Walker) isCandidate(dir string) bool {
	for _, marker := range w.Markers {
		if _, err := os.Lstat(filepath.Join(dir, marker)); err == nil {
			return true
		}
	}
	return false
}
