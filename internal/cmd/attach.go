package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/undrift/tuxmux/internal/config"
	"github.com/undrift/tuxmux/internal/git"
	"github.com/undrift/tuxmux/internal/mux"
	"github.com/undrift/tuxmux/internal/ui"
	"github.com/undrift/tuxmux/internal/walker"
)

var (
	attachExists  bool
	attachDefault bool
	attachAll     bool
	attachExact   bool
	attachPath    string
)

var attachCmd = &cobra.Command{
	Use:     "attach [QUERY...]",
	Aliases: []string{"a"},
	Short:   "Create or attach to a session for a project",
	Long: `Create or attach to a session for a project directory.

Projects are the directories under the configured workspace roots that
contain one of the project markers, plus the configured single paths. The
query prefills the picker; when exactly one project contains the query it is
used without showing the picker.

Git repositories with linked worktrees follow worktree_mode:
  prompt   pick a worktree to open the session at
  default  open the session at the default branch's worktree
  all      open one window per worktree`,
	Example: `  tm attach
  tm attach api
  tm attach --exists
  tm attach --path ~/code/api
  tm attach .`,
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := loadEnv()
		if err != nil {
			return err
		}
		return runAttach(cmd.Context(), e, attachOptions{
			exists:        attachExists,
			preferDefault: attachDefault,
			all:           attachAll,
			exact:         attachExact,
			path:          attachPath,
			query:         args,
		})
	},
}

func init() {
	attachCmd.Flags().BoolVarP(&attachExists, "exists", "e", false, "only pick from running sessions")
	attachCmd.Flags().BoolVarP(&attachDefault, "default", "d", false, "open repositories at the default branch's worktree")
	attachCmd.Flags().BoolVarP(&attachAll, "all", "a", false, "open one window per worktree")
	attachCmd.Flags().BoolVarP(&attachExact, "exact", "x", false, "use exact matching instead of fuzzy")
	attachCmd.Flags().StringVarP(&attachPath, "path", "p", "", "attach to the session for `PATH`")
	attachCmd.MarkFlagsMutuallyExclusive("default", "all")

	rootCmd.AddCommand(attachCmd)
}

type attachOptions struct {
	exists        bool
	preferDefault bool
	all           bool
	exact         bool
	path          string
	query         []string
}

func runAttach(ctx context.Context, e *env, opts attachOptions) error {
	query := strings.Join(opts.query, " ")
	if opts.exists {
		return attachExisting(ctx, e, query, opts.exact)
	}

	path := opts.path
	if path == "" && query == "." {
		path = "."
	}

	selected, ok, err := selectProject(ctx, e, path, query, opts.exact)
	if err != nil || !ok {
		return err
	}
	return openProject(ctx, e, selected, opts)
}

func attachExisting(ctx context.Context, e *env, query string, exact bool) error {
	sessions, err := e.mux.ListSessions(ctx)
	if err != nil {
		return err
	}

	var selected string
	switch len(sessions) {
	case 0:
		ui.Info("no running sessions")
		return nil
	case 1:
		selected = sessions[0]
	default:
		var ok bool
		selected, ok, err = e.picker(exact).Items(sessions).Filter(query).Select()
		if err != nil || !ok {
			return err
		}
	}
	return e.mux.AttachSession(ctx, selected)
}

// selectProject resolves the directory to open: an explicit path, a unique
// substring match among the candidates, or the user's pick.
func selectProject(ctx context.Context, e *env, path, query string, exact bool) (string, bool, error) {
	if path == "." {
		cwd, err := e.getwd()
		if err != nil {
			return "", false, fmt.Errorf("failed to get current directory: %w", err)
		}
		return cwd, true, nil
	}
	if path != "" {
		abs, err := filepath.Abs(config.ExpandTilde(path))
		if err != nil {
			return "", false, err
		}
		if _, err := os.Stat(abs); err != nil {
			return "", false, fmt.Errorf("invalid path '%s': %w", path, err)
		}
		return abs, true, nil
	}

	candidates := walker.Walk(ctx, e.cfg)
	if err := ctx.Err(); err != nil {
		return "", false, err
	}

	if query != "" {
		var hits []string
		for _, c := range candidates {
			if strings.Contains(c, query) {
				hits = append(hits, c)
			}
		}
		if len(hits) == 1 {
			zap.L().Debug("unique query match", zap.String("query", query), zap.String("path", hits[0]))
			return hits[0], true, nil
		}
	}

	return e.picker(exact).Items(candidates).Filter(query).Select()
}

// openProject attaches to the session for path, creating it first with the
// worktree policy when it does not exist yet.
func openProject(ctx context.Context, e *env, path string, opts attachOptions) error {
	name := mux.FormatName(filepath.Base(path))
	exists, err := e.mux.SessionExists(ctx, name)
	if err != nil {
		return err
	}
	if exists {
		return e.mux.AttachSession(ctx, name)
	}

	if err := createSession(ctx, e, name, path, opts); err != nil {
		return err
	}
	return e.mux.AttachSession(ctx, name)
}

// createSession starts the session for path. Repositories follow the
// worktree policy; a linked worktree is opened as it is.
func createSession(ctx context.Context, e *env, name, path string, opts attachOptions) error {
	repo, ok := git.Open(path)
	if !ok || repo.IsWorktree() {
		return e.mux.CreateSession(ctx, name, path, "")
	}

	switch {
	case opts.all || e.cfg.WorktreeMode == config.WorktreeAll:
		return createAllWorktrees(ctx, e, repo, name, path)
	case opts.preferDefault || e.cfg.PreferDefaultWorktree():
		return createAtDefaultWorktree(ctx, e, repo, name, path)
	default:
		return createAtChosenWorktree(ctx, e, repo, name, path, opts.exact)
	}
}

// createAllWorktrees opens one window per worktree.
func createAllWorktrees(ctx context.Context, e *env, repo *git.Repo, name, path string) error {
	worktrees := repo.Worktrees()

	rest := worktrees
	if repo.IsBare() && len(worktrees) > 0 {
		first := worktrees[0]
		if err := e.mux.CreateSession(ctx, name, first.BasePath, first.ID); err != nil {
			return err
		}
		rest = worktrees[1:]
	} else {
		head, _ := repo.HeadBranch()
		if err := e.mux.CreateSession(ctx, name, path, head); err != nil {
			return err
		}
	}

	for _, wt := range rest {
		if err := e.mux.CreateWindowIn(ctx, name, wt.ID, wt.BasePath); err != nil {
			return err
		}
	}
	return nil
}

// createAtDefaultWorktree opens the session at the worktree of the default
// branch. Repositories with a working directory of their own open there.
func createAtDefaultWorktree(ctx context.Context, e *env, repo *git.Repo, name, path string) error {
	worktrees := repo.Worktrees()
	if !repo.IsBare() || len(worktrees) == 0 {
		return e.mux.CreateSession(ctx, name, path, "")
	}

	wt := worktrees[0]
	if len(worktrees) > 1 {
		branch, _ := repo.DefaultBranch()
		var found bool
		wt, found = git.FindWorktree(worktrees, branch)
		if !found {
			return errors.New("could not find default branch/worktree")
		}
	}
	return e.mux.CreateSession(ctx, name, wt.BasePath, windowName(wt))
}

// createAtChosenWorktree asks which worktree to open. A repository with a
// working directory of its own offers it first, labelled with its branch.
func createAtChosenWorktree(ctx context.Context, e *env, repo *git.Repo, name, path string, exact bool) error {
	worktrees := repo.Worktrees()
	if len(worktrees) == 0 {
		return e.mux.CreateSession(ctx, name, path, "")
	}

	var labels []string
	bases := map[string]string{}
	if !repo.IsBare() {
		head, ok := repo.HeadBranch()
		if !ok {
			head = "main"
		}
		labels = append(labels, head)
		bases[head] = path
	}
	for _, wt := range worktrees {
		if _, dup := bases[wt.ID]; dup {
			continue
		}
		labels = append(labels, wt.ID)
		bases[wt.ID] = wt.BasePath
	}

	choice, ok, err := e.picker(exact).Items(labels).Prompt("worktree> ").Select()
	if err != nil {
		return err
	}
	if !ok {
		return ErrPromptCancelled
	}
	return e.mux.CreateSession(ctx, name, bases[choice], "")
}

func windowName(wt git.Worktree) string {
	if wt.Branch != "" {
		return wt.Branch
	}
	return wt.ID
}
