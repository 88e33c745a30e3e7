// Package cmd implements the tm CLI commands.
package cmd

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/undrift/tuxmux/internal/config"
	"github.com/undrift/tuxmux/internal/logging"
	"github.com/undrift/tuxmux/pkg/shell"
)

var (
	version       = "dev"
	verbose       bool
	defaultConfig bool
	editGlobal    bool
	editLocal     bool

	flushLogs = func() {}
)

// SetVersion sets the version string (called from main).
func SetVersion(v string) {
	version = v
	rootCmd.Version = v
}

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "tm",
	Short: "Terminal multiplexer session manager",
	Long: `tm turns project directories into tmux or zellij sessions named after
them. Git repositories with linked worktrees can be opened at the default
branch, at a chosen worktree, or with one window per worktree.

By default if there is no command passed as the first argument the command
'attach' will be assumed.`,
	Example: `  tm                 Pick a project and attach to it
  tm api             Attach to the project matching "api"
  tm .               Attach to a session for the current directory
  tm --default-config > ~/.config/tuxmux/config.kdl`,
	Args:          cobra.NoArgs,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		flush, err := logging.Setup(logging.FromEnv(verbose))
		if err != nil {
			return err
		}
		flushLogs = flush
		zap.L().Debug("starting", zap.String("command", cmd.CommandPath()), zap.Strings("args", args))
		return nil
	},
	RunE: runRoot,
}

// rootFlags are handled by the root command itself; everything else that
// does not name a subcommand is passed to attach.
var rootFlags = []string{"--default-config", "--edit", "--local", "-h", "--help", "--version"}

// Execute runs the command tree against the process arguments.
func Execute(ctx context.Context) error {
	defer func() { flushLogs() }()
	rootCmd.SetArgs(implicitAttach(rootCmd, os.Args[1:]))
	return rootCmd.ExecuteContext(ctx)
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "write debug logs to stderr")
	rootCmd.Flags().BoolVar(&defaultConfig, "default-config", false, "print the built-in configuration and exit")
	rootCmd.Flags().BoolVar(&editGlobal, "edit", false, "open the global config file in $EDITOR")
	rootCmd.Flags().BoolVar(&editLocal, "local", false, "open the local config file in $EDITOR")
	rootCmd.MarkFlagsMutuallyExclusive("default-config", "edit", "local")

	rootCmd.CompletionOptions.DisableDefaultCmd = true
	rootCmd.Version = version
	rootCmd.SetVersionTemplate("tm version {{.Version}}\n")
}

// implicitAttach inserts "attach" before the first argument that is not a
// subcommand or a root flag, so "tm api" means "tm attach api".
func implicitAttach(root *cobra.Command, args []string) []string {
	for i, arg := range args {
		switch {
		case arg == "-v" || arg == "--verbose":
			continue
		case slices.Contains(rootFlags, arg):
			return args
		case strings.HasPrefix(arg, "-") && arg != "-" && arg != "--":
			return insertAt(args, i, "attach")
		case isSubcommand(root, arg):
			return args
		default:
			return insertAt(args, i, "attach")
		}
	}
	return args
}

func isSubcommand(root *cobra.Command, name string) bool {
	switch name {
	case "help", cobra.ShellCompRequestCmd, cobra.ShellCompNoDescRequestCmd:
		return true
	}
	for _, c := range root.Commands() {
		if c.Name() == name || c.HasAlias(name) {
			return true
		}
	}
	return false
}

func insertAt(args []string, i int, v string) []string {
	out := make([]string, 0, len(args)+1)
	out = append(out, args[:i]...)
	out = append(out, v)
	return append(out, args[i:]...)
}

func runRoot(cmd *cobra.Command, args []string) error {
	if defaultConfig {
		_, err := fmt.Fprint(cmd.OutOrStdout(), config.Marshal(config.DefaultConfig()))
		return err
	}

	if editGlobal || editLocal {
		loc := config.Global
		if editLocal {
			loc = config.Local
		}
		e := &env{runner: shell.NewRunner(), getenv: os.Getenv}
		return editConfig(cmd.Context(), e, loc)
	}

	e, err := loadEnv()
	if err != nil {
		return err
	}
	return runAttach(cmd.Context(), e, attachOptions{})
}

// editConfig opens the config file for loc, creating its directory first so
// the editor can save a new file.
func editConfig(ctx context.Context, e *env, loc config.Location) error {
	path, err := config.FilePath(loc)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	zap.L().Debug("editing config", zap.Stringer("location", loc), zap.String("path", path))
	return e.edit(ctx, path)
}
