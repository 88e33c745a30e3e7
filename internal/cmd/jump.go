package cmd

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"slices"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/undrift/tuxmux/internal/config"
	"github.com/undrift/tuxmux/internal/jumplist"
	"github.com/undrift/tuxmux/internal/mux"
	"github.com/undrift/tuxmux/internal/ui"
)

var (
	jumpEdit  bool
	jumpList  bool
	jumpIndex int
	jumpPath  string
)

var jumpCmd = &cobra.Command{
	Use:     "jump",
	Aliases: []string{"j"},
	Short:   "Store paths and later jump to them by index",
	Long: `Store a list of paths and jump to them by index. This is useful for
keybindings: bind keys to "tm jump -i 1", "tm jump -i 2", ... and tm opens
the session for the stored path.

Without options the current directory is added to the jump list.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := loadEnv()
		if err != nil {
			return err
		}
		opts := jumpOptions{edit: jumpEdit, list: jumpList, path: jumpPath}
		if cmd.Flags().Changed("index") {
			opts.index = &jumpIndex
		}
		return runJump(cmd.Context(), e, opts)
	},
}

func init() {
	jumpCmd.Flags().BoolVarP(&jumpEdit, "edit", "e", false, "open the jump list in $EDITOR")
	jumpCmd.Flags().BoolVarP(&jumpList, "list", "l", false, "print the jump list")
	jumpCmd.Flags().IntVarP(&jumpIndex, "index", "i", 0, "jump to the 1-based `N`th entry")
	jumpCmd.Flags().StringVarP(&jumpPath, "path", "p", "", "add `PATH` instead of the current directory")
	jumpCmd.MarkFlagsMutuallyExclusive("edit", "list", "index", "path")
	rootCmd.AddCommand(jumpCmd)
}

type jumpOptions struct {
	edit  bool
	list  bool
	index *int
	path  string
}

func runJump(ctx context.Context, e *env, opts jumpOptions) error {
	file, err := jumplist.Path()
	if err != nil {
		return fmt.Errorf("failed to resolve jump list: %w", err)
	}

	if opts.edit {
		if err := os.MkdirAll(filepath.Dir(file), 0755); err != nil {
			return fmt.Errorf("failed to create data directory: %w", err)
		}
		return e.edit(ctx, file)
	}

	if opts.list || opts.index != nil {
		list, err := jumplist.Load(file)
		if err != nil {
			return err
		}
		if opts.list {
			for i, p := range list.Entries() {
				fmt.Fprintf(e.stdout, "%d: %s\n", i+1, p)
			}
			return nil
		}
		return jumpTo(ctx, e, list, *opts.index)
	}

	path := opts.path
	if path == "" {
		if path, err = e.getwd(); err != nil {
			return fmt.Errorf("failed to get current directory: %w", err)
		}
	}
	abs, err := canonicalize(path)
	if err != nil {
		return fmt.Errorf("invalid path '%s': %w", path, err)
	}

	return jumplist.Update(ctx, file, func(list *jumplist.Jumplist) error {
		if slices.Contains(list.Entries(), abs) {
			ui.Infof("%s is already in the jump list", abs)
			return nil
		}
		list.Add(abs)
		zap.L().Debug("added to jump list", zap.String("path", abs), zap.Int("entries", list.Len()))
		return nil
	})
}

// jumpTo opens the session for the 1-based index. Indexes below 1 select
// the first entry.
func jumpTo(ctx context.Context, e *env, list *jumplist.Jumplist, index int) error {
	path, ok := list.Get(max(index-1, 0))
	if !ok {
		ui.Warningf("jump list has no entry %d", index)
		return nil
	}
	return e.mux.CreateOrAttach(ctx, mux.FormatName(filepath.Base(path)), path)
}

func canonicalize(path string) (string, error) {
	abs, err := filepath.Abs(config.ExpandTilde(path))
	if err != nil {
		return "", err
	}
	if _, err := os.Stat(abs); err != nil {
		return "", err
	}
	return filepath.EvalSymlinks(abs)
}
