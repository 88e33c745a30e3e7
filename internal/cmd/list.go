package cmd

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"unicode/utf8"

	"github.com/spf13/cobra"

	"github.com/undrift/tuxmux/internal/mux"
	"github.com/undrift/tuxmux/internal/ui"
	"github.com/undrift/tuxmux/internal/walker"
)

var listAll bool

var listCmd = &cobra.Command{
	Use:     "list",
	Aliases: []string{"ls"},
	Short:   "List running sessions",
	Long: `List running sessions. The first column is the number of attached
clients when the multiplexer reports it.

With --all the project directories tm would offer are printed instead.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := loadEnv()
		if err != nil {
			return err
		}
		return runList(cmd.Context(), e, listAll)
	},
}

func init() {
	listCmd.Flags().BoolVarP(&listAll, "all", "a", false, "list project directories instead of sessions")
	rootCmd.AddCommand(listCmd)
}

func runList(ctx context.Context, e *env, all bool) error {
	if all {
		var candidates []string
		err := ui.WithSpinner("Scanning workspaces", func() error {
			candidates = walker.Walk(ctx, e.cfg)
			return ctx.Err()
		})
		if err != nil {
			return err
		}
		for _, c := range candidates {
			fmt.Fprintln(e.stdout, c)
		}
		return nil
	}

	infos, err := e.mux.SessionInfos(ctx)
	if err != nil {
		return err
	}
	writeSessions(e.stdout, infos)
	return nil
}

// writeSessions prints one session per line with names right-aligned to
// the longest name. Backends that report attached clients get a leading
// column holding the count, or blanks for sessions nobody is attached to.
func writeSessions(w io.Writer, infos []mux.SessionInfo) {
	nameWidth, countWidth := 0, 0
	hasCounts := false
	for _, info := range infos {
		nameWidth = max(nameWidth, utf8.RuneCountInString(info.Name))
		if info.HasAttached {
			hasCounts = true
			if info.Attached > 0 {
				countWidth = max(countWidth, len(strconv.Itoa(info.Attached)))
			}
		}
	}

	for _, info := range infos {
		if !hasCounts {
			fmt.Fprintf(w, "%*s\n", nameWidth, info.Name)
			continue
		}
		count := ""
		if info.Attached > 0 {
			count = strconv.Itoa(info.Attached)
		}
		fmt.Fprintf(w, "%*s %*s\n", countWidth, count, nameWidth, info.Name)
	}
}
