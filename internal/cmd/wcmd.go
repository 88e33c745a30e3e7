package cmd

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/undrift/tuxmux/internal/mux"
)

var wcmdCmd = &cobra.Command{
	Use:     "wcmd WINDOW [CMD...]",
	Aliases: []string{"w"},
	Short:   "Run a command in a window of the current session",
	Long: `Send a command to a window of the current session, creating the window
when it does not exist.

WINDOW may be a path; only its last component is used. Pass the command
after '--' to stop tm from parsing its flags.`,
	Example: `  tm wcmd server cd backend
  tm w foo/bar/baz -- make test`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := loadEnv()
		if err != nil {
			return err
		}
		return runWcmd(cmd.Context(), e, args[0], args[1:])
	},
}

func init() {
	rootCmd.AddCommand(wcmdCmd)
}

func runWcmd(ctx context.Context, e *env, window string, cmds []string) error {
	session, ok := e.mux.CurrentSessionName(ctx)
	if !ok {
		return fmt.Errorf("not running inside a %s session", e.mux.Binary())
	}

	name := mux.FormatName(filepath.Base(window))
	target := session + ":" + name

	exists, err := e.mux.WindowExists(ctx, session, name)
	if err != nil {
		return err
	}
	if !exists {
		cwd, _ := e.getwd()
		zap.L().Debug("creating window", zap.String("target", target), zap.String("cwd", cwd))
		if err := e.mux.CreateWindow(ctx, name, cwd); err != nil {
			return err
		}
	}

	return e.mux.SendCommand(ctx, target, strings.Join(cmds, " "))
}
