// Package config handles loading and managing tm configuration.
//
// Settings are layered: built-in defaults, then the global file in the
// config directory, then the local file in the data directory. Each layer
// may be written in KDL (preferred), TOML or YAML.
package config

import (
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"slices"
	"strings"
)

// PickerKind selects how the picker height is derived from the terminal.
type PickerKind int

const (
	PickerFull PickerKind = iota
	PickerLines
	PickerPercentage
)

// PickerMode is how much of the terminal the picker occupies.
type PickerMode struct {
	Kind       PickerKind
	Lines      uint16
	Percentage float32
}

// FullPicker uses every terminal row.
func FullPicker() PickerMode { return PickerMode{Kind: PickerFull} }

// LinesPicker uses at most n rows.
func LinesPicker(n uint16) PickerMode { return PickerMode{Kind: PickerLines, Lines: n} }

// PercentagePicker uses floor(rows * p) rows.
func PercentagePicker(p float32) PickerMode { return PickerMode{Kind: PickerPercentage, Percentage: p} }

// Height resolves the mode against the terminal row count.
func (m PickerMode) Height(rows int) int {
	switch m.Kind {
	case PickerLines:
		return min(int(m.Lines), rows)
	case PickerPercentage:
		return int(math.Floor(float64(rows) * float64(m.Percentage)))
	default:
		return rows
	}
}

func (m PickerMode) String() string {
	switch m.Kind {
	case PickerLines:
		return fmt.Sprintf("lines(%d)", m.Lines)
	case PickerPercentage:
		return fmt.Sprintf("percentage(%g)", m.Percentage)
	default:
		return "full"
	}
}

// Validate checks the mode's parameters.
func (m PickerMode) Validate() error {
	switch m.Kind {
	case PickerFull:
		return nil
	case PickerLines:
		if m.Lines < 1 {
			return errors.New("lines must be at least 1")
		}
		return nil
	case PickerPercentage:
		if !(m.Percentage > 0 && m.Percentage <= 1) {
			return fmt.Errorf("percentage must be in (0, 1], got %g", m.Percentage)
		}
		return nil
	}
	return fmt.Errorf("unknown picker mode %d", m.Kind)
}

// WorktreeMode decides which worktrees a new session is opened at.
type WorktreeMode string

const (
	WorktreePrompt  WorktreeMode = "prompt"
	WorktreeDefault WorktreeMode = "default"
	WorktreeAll     WorktreeMode = "all"
)

// ParseWorktreeMode validates a worktree mode name.
func ParseWorktreeMode(s string) (WorktreeMode, error) {
	switch m := WorktreeMode(strings.ToLower(s)); m {
	case WorktreePrompt, WorktreeDefault, WorktreeAll:
		return m, nil
	}
	return "", fmt.Errorf("unknown worktree mode %q (expected prompt, default or all)", s)
}

// MuxKind selects the terminal multiplexer backend.
type MuxKind string

const (
	MuxTmux   MuxKind = "tmux"
	MuxZellij MuxKind = "zellij"
)

// ParseMuxKind validates a mux name.
func ParseMuxKind(s string) (MuxKind, error) {
	switch k := MuxKind(strings.ToLower(s)); k {
	case MuxTmux, MuxZellij:
		return k, nil
	}
	return "", fmt.Errorf("unknown mux %q (expected tmux or zellij)", s)
}

// Config holds validated settings for one invocation. It is built once at
// command entry and treated as immutable afterwards.
type Config struct {
	WorkspaceRoots  []string
	SinglePaths     []string
	ExcludeNames    []string
	Depth           int
	Picker          PickerMode
	DefaultWorktree bool
	WorktreeMode    WorktreeMode
	Mux             MuxKind
	ProjectMarkers  []string
	SingleShot      bool
	Exact           bool
}

// Clone returns a deep copy.
func (c *Config) Clone() *Config {
	out := *c
	out.WorkspaceRoots = slices.Clone(c.WorkspaceRoots)
	out.SinglePaths = slices.Clone(c.SinglePaths)
	out.ExcludeNames = slices.Clone(c.ExcludeNames)
	out.ProjectMarkers = slices.Clone(c.ProjectMarkers)
	return &out
}

// PreferDefaultWorktree reports whether the default-branch worktree policy
// applies without a per-call flag.
func (c *Config) PreferDefaultWorktree() bool {
	return c.DefaultWorktree || c.WorktreeMode == WorktreeDefault
}

// Format is a config file syntax.
type Format string

const (
	FormatKDL  Format = "kdl"
	FormatTOML Format = "toml"
	FormatYAML Format = "yaml"
)

// FormatOf infers the format from a file extension.
func FormatOf(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".kdl":
		return FormatKDL, nil
	case ".toml":
		return FormatTOML, nil
	case ".yaml", ".yml":
		return FormatYAML, nil
	}
	return "", fmt.Errorf("unsupported config format: %s", path)
}

// Load returns the defaults overlaid with the global and then the local
// config file, when they exist.
func Load() (*Config, error) {
	cfg := DefaultConfig()
	for _, loc := range []Location{Global, Local} {
		dir, err := Dir(loc)
		if err != nil {
			return nil, fmt.Errorf("failed to resolve %s config directory: %w", loc, err)
		}
		path, ok := findFile(dir)
		if !ok {
			continue
		}
		cfg, err = LoadFile(path, cfg)
		if err != nil {
			return nil, err
		}
	}
	return cfg, nil
}

// LoadLocation loads a single layer on top of the defaults.
func LoadLocation(loc Location) (*Config, error) {
	dir, err := Dir(loc)
	if err != nil {
		return nil, err
	}
	path, ok := findFile(dir)
	if !ok {
		return DefaultConfig(), nil
	}
	return LoadFile(path, DefaultConfig())
}

// LoadFile overlays the file at path onto base. base is not modified.
func LoadFile(path string, base *Config) (*Config, error) {
	format, err := FormatOf(path)
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	return Parse(format, path, string(data), base)
}

// Parse overlays src, written in format, onto base. path is used only for
// diagnostics. A nil base means the defaults.
func Parse(format Format, path, src string, base *Config) (*Config, error) {
	if base == nil {
		base = DefaultConfig()
	}
	cfg := base.Clone()

	var err error
	switch format {
	case FormatKDL:
		err = applyKDL(cfg, path, src)
	case FormatTOML:
		err = applyTOML(cfg, path, src)
	case FormatYAML:
		err = applyYAML(cfg, path, src)
	default:
		err = fmt.Errorf("unsupported config format %q", format)
	}
	if err != nil {
		return nil, err
	}

	cfg.expandPaths()
	return cfg, nil
}

func (c *Config) expandPaths() {
	for i, p := range c.WorkspaceRoots {
		c.WorkspaceRoots[i] = ExpandTilde(p)
	}
	for i, p := range c.SinglePaths {
		c.SinglePaths[i] = ExpandTilde(p)
	}
}

// appendUnique appends values not already present, preserving order.
func appendUnique(list []string, values ...string) []string {
	for _, v := range values {
		if !slices.Contains(list, v) {
			list = append(list, v)
		}
	}
	return list
}
