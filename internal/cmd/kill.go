package cmd

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

var (
	killAll   bool
	killExact bool
)

var killCmd = &cobra.Command{
	Use:     "kill [QUERY...]",
	Aliases: []string{"k"},
	Short:   "Kill running sessions",
	Long: `Kill running sessions. Without --all a picker is shown; Tab marks
several sessions to kill at once.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := loadEnv()
		if err != nil {
			return err
		}
		return runKill(cmd.Context(), e, killAll, killExact, args)
	},
}

func init() {
	killCmd.Flags().BoolVarP(&killAll, "all", "a", false, "kill every session")
	killCmd.Flags().BoolVarP(&killExact, "exact", "x", false, "use exact matching instead of fuzzy")
	rootCmd.AddCommand(killCmd)
}

func runKill(ctx context.Context, e *env, all, exact bool, query []string) error {
	sessions, err := e.mux.ListSessions(ctx)
	if err != nil {
		return err
	}

	selected := sessions
	if !all {
		var ok bool
		// A unique match is still shown before anything is killed.
		selected, ok, err = e.picker(exact).
			SingleShot(false).
			Items(sessions).
			Filter(strings.Join(query, " ")).
			SelectMulti()
		if err != nil || !ok {
			return err
		}
	}

	for _, name := range selected {
		if err := e.mux.KillSession(ctx, name); err != nil {
			return err
		}
		fmt.Fprintf(e.stdout, "Killed %s\n", name)
	}
	return nil
}
