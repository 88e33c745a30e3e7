package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"runtime"
	"strings"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"github.com/undrift/tuxmux/internal/config"
	"github.com/undrift/tuxmux/internal/jumplist"
	"github.com/undrift/tuxmux/internal/mux"
	"github.com/undrift/tuxmux/internal/ui"
	"github.com/undrift/tuxmux/pkg/shell"
)

var doctorCmd = &cobra.Command{
	Use:   "doctor",
	Short: "Check system dependencies and configuration",
	Long: `Check that the tools tm drives are installed and that the configuration
loads.

This command verifies:
  - The configured multiplexer (required)
  - git, used to detect worktrees
  - The editor used by --edit and jump --edit
  - Config and data locations and config file validity`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, cfgErr := config.Load()
		if cfgErr != nil {
			cfg = config.DefaultConfig()
		}
		e := &env{
			cfg:    cfg,
			mux:    mux.New(cfg.Mux),
			runner: shell.NewRunner(),
			stdout: cmd.OutOrStdout(),
			getwd:  os.Getwd,
			getenv: os.Getenv,
		}
		return runDoctor(cmd.Context(), e, cfgErr)
	},
}

func init() {
	rootCmd.AddCommand(doctorCmd)
}

type checkStatus string

const (
	statusOK      checkStatus = "ok"
	statusWarning checkStatus = "warning"
	statusError   checkStatus = "error"
)

type checkResult struct {
	name    string
	status  checkStatus
	message string
}

func (r checkResult) color() tablewriter.Colors {
	switch r.status {
	case statusOK:
		return ui.TableColor.Green
	case statusWarning:
		return ui.TableColor.Yellow
	default:
		return ui.TableColor.Red
	}
}

func runDoctor(ctx context.Context, e *env, cfgErr error) error {
	fmt.Fprintf(e.stdout, "tm %s (%s/%s)\n", version, runtime.GOOS, runtime.GOARCH)

	var results []checkResult
	results = append(results, checkMux(ctx, e))
	results = append(results, checkBinary(ctx, e, "git", "used to detect worktrees"))
	results = append(results, checkEditor(e))
	results = append(results, checkConfig(cfgErr)...)

	ui.SubHeader(e.stdout, "Checks")
	table := ui.NewTable(e.stdout, []string{"Check", "Status", "Detail"})
	hasErrors := false
	for _, r := range results {
		table.AddColoredRow(
			[]string{r.name, string(r.status), r.message},
			[]tablewriter.Colors{ui.TableColor.Normal, r.color(), ui.TableColor.Normal},
		)
		if r.status == statusError {
			hasErrors = true
		}
	}
	table.Render()

	ui.SubHeader(e.stdout, "Locations")
	paths := ui.NewTableNoHeader(e.stdout)
	for _, p := range locations() {
		paths.AddRow(p)
	}
	paths.Render()

	if hasErrors {
		return errors.New("doctor checks failed")
	}
	ui.Success(e.stdout, "All checks passed")
	return nil
}

// checkMux fails when the configured multiplexer is missing.
func checkMux(ctx context.Context, e *env) checkResult {
	name := e.mux.Binary()
	if err := e.mux.Available(); err != nil {
		return checkResult{name: name, status: statusError, message: "not installed: " + e.mux.InstallHint()}
	}
	return checkResult{name: name, status: statusOK, message: binaryVersion(ctx, e, name)}
}

// checkBinary warns when an optional tool is missing.
func checkBinary(ctx context.Context, e *env, name, hint string) checkResult {
	if _, err := e.runner.LookPath(name); err != nil {
		return checkResult{name: name, status: statusWarning, message: "not installed: " + hint}
	}
	return checkResult{name: name, status: statusOK, message: binaryVersion(ctx, e, name)}
}

func binaryVersion(ctx context.Context, e *env, name string) string {
	// tmux reports its version with -V, everything else with --version.
	flag := "--version"
	if name == string(config.MuxTmux) {
		flag = "-V"
	}
	result, err := e.runner.Exec(ctx, shell.Command{Name: name, Args: []string{flag}})
	if err != nil || !result.Success() {
		return "installed"
	}
	first, _, _ := strings.Cut(result.Stdout, "\n")
	if first = strings.TrimSpace(first); first == "" {
		return "installed"
	}
	return first
}

func checkEditor(e *env) checkResult {
	argv, err := e.editor()
	if err != nil {
		var envErr *EnvError
		msg := err.Error()
		if errors.As(err, &envErr) {
			msg = envErr.Hint
		}
		return checkResult{name: "editor", status: statusWarning, message: msg}
	}
	return checkResult{name: "editor", status: statusOK, message: strings.Join(argv, " ")}
}

func checkConfig(cfgErr error) []checkResult {
	var results []checkResult
	for _, loc := range []config.Location{config.Global, config.Local} {
		name := loc.String() + " config"
		path, err := config.FilePath(loc)
		if err != nil {
			results = append(results, checkResult{name: name, status: statusError, message: err.Error()})
			continue
		}
		if _, err := os.Stat(path); err != nil {
			results = append(results, checkResult{name: name, status: statusOK, message: "not present, using defaults"})
			continue
		}
		if _, err := config.LoadLocation(loc); err != nil {
			results = append(results, checkResult{name: name, status: statusError, message: err.Error()})
			continue
		}
		results = append(results, checkResult{name: name, status: statusOK, message: path})
	}

	if cfgErr != nil {
		results = append(results, checkResult{name: "merged config", status: statusError, message: cfgErr.Error()})
	}
	return results
}

func locations() [][]string {
	var rows [][]string
	add := func(label string, resolve func() (string, error)) {
		p, err := resolve()
		if err != nil {
			p = ui.Red(err.Error())
		}
		rows = append(rows, []string{label, p})
	}
	add("config dir", config.ConfigDir)
	add("data dir", config.DataDir)
	add("jump list", jumplist.Path)
	return rows
}
