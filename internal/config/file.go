package config

import (
	"bytes"
	"errors"
	"io"
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"
)

// fileConfig is the TOML and YAML schema. Every field is optional; lists
// replace the inherited value when present.
type fileConfig struct {
	Paths           *filePaths      `toml:"paths" yaml:"paths"`
	ExcludePath     []string        `toml:"exclude_path" yaml:"exclude_path"`
	Markers         []string        `toml:"markers" yaml:"markers"`
	Depth           *int            `toml:"depth" yaml:"depth"`
	PickerMode      *filePickerMode `toml:"picker_mode" yaml:"picker_mode"`
	DefaultWorktree *bool           `toml:"default_worktree" yaml:"default_worktree"`
	WorktreeMode    *string         `toml:"worktree_mode" yaml:"worktree_mode"`
	Mux             *string         `toml:"mux" yaml:"mux"`
	SingleShot      *bool           `toml:"single_shot" yaml:"single_shot"`
	Exact           *bool           `toml:"exact" yaml:"exact"`

	// Keys from the older settings file.
	WorkspacePaths []string `toml:"workspace_paths" yaml:"workspace_paths"`
	SinglePaths    []string `toml:"single_paths" yaml:"single_paths"`
	Height         *int     `toml:"height" yaml:"height"`
}

type filePaths struct {
	Workspace []string `toml:"workspace" yaml:"workspace"`
	Single    []string `toml:"single" yaml:"single"`
}

type filePickerMode struct {
	Full       *bool    `toml:"full" yaml:"full"`
	Lines      *int     `toml:"lines" yaml:"lines"`
	Percentage *float64 `toml:"percentage" yaml:"percentage"`
}

func applyTOML(cfg *Config, path, src string) error {
	var fc fileConfig
	md, err := toml.Decode(src, &fc)
	if err != nil {
		var perr toml.ParseError
		if errors.As(err, &perr) {
			return lineDiagnostic(path, src, perr.Position.Line, "%s", perr.Message)
		}
		return &Diagnostic{Path: path, Message: err.Error()}
	}

	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		key := undecoded[0]
		last := key[len(key)-1]
		return lineDiagnostic(path, src, keyLine(src, last), "unknown configuration key `%s`", key.String())
	}

	return fc.apply(cfg, path, src)
}

var yamlLine = regexp.MustCompile(`line (\d+)`)

func applyYAML(cfg *Config, path, src string) error {
	var fc fileConfig
	dec := yaml.NewDecoder(bytes.NewBufferString(src))
	dec.KnownFields(true)
	if err := dec.Decode(&fc); err != nil && !errors.Is(err, io.EOF) {
		msg := err.Error()
		var typeErr *yaml.TypeError
		if errors.As(err, &typeErr) && len(typeErr.Errors) > 0 {
			msg = typeErr.Errors[0]
		}
		msg = strings.TrimPrefix(msg, "yaml: ")

		line := 0
		if m := yamlLine.FindStringSubmatch(msg); m != nil {
			line, _ = strconv.Atoi(m[1])
			msg = strings.TrimSpace(strings.TrimPrefix(msg, m[0]+":"))
		}
		if line == 0 {
			return &Diagnostic{Path: path, Message: msg}
		}
		return lineDiagnostic(path, src, line, "%s", msg)
	}

	return fc.apply(cfg, path, src)
}

// apply overlays the decoded file onto cfg. Value errors point at the line
// holding the key.
func (fc *fileConfig) apply(cfg *Config, path, src string) error {
	fail := func(key, format string, args ...any) error {
		return lineDiagnostic(path, src, keyLine(src, key), format, args...)
	}

	if fc.WorkspacePaths != nil {
		cfg.WorkspaceRoots = appendUnique([]string{}, fc.WorkspacePaths...)
	}
	if fc.SinglePaths != nil {
		cfg.SinglePaths = appendUnique([]string{}, fc.SinglePaths...)
	}
	if fc.Paths != nil {
		if fc.Paths.Workspace != nil {
			cfg.WorkspaceRoots = appendUnique([]string{}, fc.Paths.Workspace...)
		}
		if fc.Paths.Single != nil {
			cfg.SinglePaths = appendUnique([]string{}, fc.Paths.Single...)
		}
	}
	if fc.ExcludePath != nil {
		cfg.ExcludeNames = appendUnique([]string{}, fc.ExcludePath...)
	}
	if fc.Markers != nil {
		cfg.ProjectMarkers = appendUnique([]string{}, fc.Markers...)
	}

	if fc.Depth != nil {
		if *fc.Depth < 0 {
			return fail("depth", "depth must be a non-negative integer")
		}
		cfg.Depth = *fc.Depth
	}

	if fc.Height != nil {
		if *fc.Height < 1 || *fc.Height > 100 {
			return fail("height", "height must be a percentage between 1 and 100")
		}
		cfg.Picker = PercentagePicker(float32(*fc.Height) / 100)
	}

	if pm := fc.PickerMode; pm != nil {
		set := 0
		if pm.Full != nil && *pm.Full {
			cfg.Picker = FullPicker()
			set++
		}
		if pm.Lines != nil {
			if *pm.Lines < 1 || *pm.Lines > math.MaxUint16 {
				return fail("lines", "lines must be between 1 and %d", math.MaxUint16)
			}
			cfg.Picker = LinesPicker(uint16(*pm.Lines))
			set++
		}
		if pm.Percentage != nil {
			if !(*pm.Percentage > 0 && *pm.Percentage <= 1) {
				return fail("percentage", "percentage must be greater than 0 and at most 1")
			}
			cfg.Picker = PercentagePicker(float32(*pm.Percentage))
			set++
		}
		if set != 1 {
			return fail("picker_mode", "`picker_mode` requires exactly one of full, lines or percentage")
		}
	}

	if fc.DefaultWorktree != nil {
		cfg.DefaultWorktree = *fc.DefaultWorktree
	}
	if fc.SingleShot != nil {
		cfg.SingleShot = *fc.SingleShot
	}
	if fc.Exact != nil {
		cfg.Exact = *fc.Exact
	}

	if fc.WorktreeMode != nil {
		mode, err := ParseWorktreeMode(*fc.WorktreeMode)
		if err != nil {
			return fail("worktree_mode", "%s", err.Error())
		}
		cfg.WorktreeMode = mode
	}

	if fc.Mux != nil {
		kind, err := ParseMuxKind(*fc.Mux)
		if err != nil {
			return fail("mux", "%s", err.Error())
		}
		cfg.Mux = kind
	}

	return nil
}
