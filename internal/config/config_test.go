package config

import (
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
)

func home(t *testing.T) string {
	t.Helper()
	h, err := HomeDir()
	if err != nil {
		t.Skipf("no home directory: %v", err)
	}
	return h
}

func TestDefaultConfig_HasExpectedValues(t *testing.T) {
	cfg := DefaultConfig()

	if !reflect.DeepEqual(cfg.WorkspaceRoots, []string{home(t)}) {
		t.Errorf("DefaultConfig().WorkspaceRoots = %v, want [home]", cfg.WorkspaceRoots)
	}
	if !reflect.DeepEqual(cfg.ExcludeNames, []string{"node_modules", ".direnv"}) {
		t.Errorf("DefaultConfig().ExcludeNames = %v", cfg.ExcludeNames)
	}
	if !reflect.DeepEqual(cfg.ProjectMarkers, []string{".git", ".bare"}) {
		t.Errorf("DefaultConfig().ProjectMarkers = %v", cfg.ProjectMarkers)
	}
	if cfg.Depth != 5 {
		t.Errorf("DefaultConfig().Depth = %d, want 5", cfg.Depth)
	}
	if cfg.Picker != PercentagePicker(0.5) {
		t.Errorf("DefaultConfig().Picker = %v, want percentage(0.5)", cfg.Picker)
	}
	if cfg.Mux != MuxTmux {
		t.Errorf("DefaultConfig().Mux = %q, want tmux", cfg.Mux)
	}
	if cfg.WorktreeMode != WorktreePrompt {
		t.Errorf("DefaultConfig().WorktreeMode = %q, want prompt", cfg.WorktreeMode)
	}
	if cfg.DefaultWorktree || cfg.Exact || !cfg.SingleShot {
		t.Errorf("DefaultConfig() flags = default_worktree %v exact %v single_shot %v", cfg.DefaultWorktree, cfg.Exact, cfg.SingleShot)
	}
}

func TestPickerMode_Height(t *testing.T) {
	tests := []struct {
		mode PickerMode
		rows int
		want int
	}{
		{FullPicker(), 40, 40},
		{LinesPicker(10), 40, 10},
		{LinesPicker(100), 40, 40},
		{PercentagePicker(0.5), 41, 20},
		{PercentagePicker(0.25), 10, 2},
		{PercentagePicker(0.1), 10, 1},
		{PercentagePicker(0.1), 5, 0},
		{LinesPicker(1), 40, 1},
		{FullPicker(), 1, 1},
	}

	for _, tt := range tests {
		t.Run(tt.mode.String(), func(t *testing.T) {
			if got := tt.mode.Height(tt.rows); got != tt.want {
				t.Errorf("Height(%d) = %d, want %d", tt.rows, got, tt.want)
			}
		})
	}
}

func TestPickerMode_Validate(t *testing.T) {
	if err := PercentagePicker(0).Validate(); err == nil {
		t.Error("Validate() expected error for percentage 0")
	}
	if err := PercentagePicker(1.5).Validate(); err == nil {
		t.Error("Validate() expected error for percentage 1.5")
	}
	if err := LinesPicker(0).Validate(); err == nil {
		t.Error("Validate() expected error for lines 0")
	}
	if err := PercentagePicker(1).Validate(); err != nil {
		t.Errorf("Validate() error = %v for percentage 1", err)
	}
}

func TestExpandTilde(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"~", "/home/me"},
		{"~/code", "/home/me/code"},
		{"/abs/path", "/abs/path"},
		{"~other/x", "~other/x"},
		{"rel/~", "rel/~"},
	}

	for _, tt := range tests {
		if got := expandTilde("/home/me", tt.in); got != tt.want {
			t.Errorf("expandTilde(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestParse_KDL(t *testing.T) {
	src := `paths { workspace "~/code"; single "~/notes" }
exclude_path { - "node_modules"; - ".direnv"; - "target" }
depth 3
default_worktree #true
worktree_mode "all"
mux "zellij"
picker_mode { lines 40 }
single_shot #false
exact #true
`
	cfg, err := Parse(FormatKDL, "config.kdl", src, nil)
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}

	h := home(t)
	if want := []string{h, filepath.Join(h, "code")}; !reflect.DeepEqual(cfg.WorkspaceRoots, want) {
		t.Errorf("WorkspaceRoots = %v, want %v", cfg.WorkspaceRoots, want)
	}
	if want := []string{filepath.Join(h, "notes")}; !reflect.DeepEqual(cfg.SinglePaths, want) {
		t.Errorf("SinglePaths = %v, want %v", cfg.SinglePaths, want)
	}
	if want := []string{"node_modules", ".direnv", "target"}; !reflect.DeepEqual(cfg.ExcludeNames, want) {
		t.Errorf("ExcludeNames = %v, want %v", cfg.ExcludeNames, want)
	}
	if cfg.Depth != 3 || !cfg.DefaultWorktree || cfg.WorktreeMode != WorktreeAll || cfg.Mux != MuxZellij {
		t.Errorf("Parse() = %+v", cfg)
	}
	if cfg.Picker != LinesPicker(40) {
		t.Errorf("Picker = %v, want lines(40)", cfg.Picker)
	}
	if cfg.SingleShot || !cfg.Exact {
		t.Errorf("SingleShot = %v, Exact = %v", cfg.SingleShot, cfg.Exact)
	}
}

func TestParse_KDLDefaultFalseReplaces(t *testing.T) {
	src := `paths {
    workspace default=#false {
        - "/srv/code"
    }
}
markers default=#false "Cargo.toml" ".git"
`
	cfg, err := Parse(FormatKDL, "config.kdl", src, nil)
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}

	if !reflect.DeepEqual(cfg.WorkspaceRoots, []string{"/srv/code"}) {
		t.Errorf("WorkspaceRoots = %v, want [/srv/code]", cfg.WorkspaceRoots)
	}
	if !reflect.DeepEqual(cfg.ProjectMarkers, []string{"Cargo.toml", ".git"}) {
		t.Errorf("ProjectMarkers = %v", cfg.ProjectMarkers)
	}
}

func TestParse_KDLWorkspaceDefinitions(t *testing.T) {
	tests := []struct {
		name string
		src  string
		want []string
	}{
		{
			name: "extends markers",
			src: `workspaces {
    workspace "go" {
        files { - "go.mod" }
    }
}
`,
			want: []string{".git", ".bare", "go.mod"},
		},
		{
			name: "replaces markers",
			src: `workspaces default=#false {
    workspace "rust" layout="dev" {
        files {
            - "Cargo.toml"
            - ".git"
        }
    }
    workspace "node" {
        files "package.json" ".git"
    }
}
`,
			want: []string{"Cargo.toml", ".git", "package.json"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := Parse(FormatKDL, "config.kdl", tt.src, nil)
			if err != nil {
				t.Fatalf("Parse() error = %v", err)
			}
			if !reflect.DeepEqual(cfg.ProjectMarkers, tt.want) {
				t.Errorf("ProjectMarkers = %v, want %v", cfg.ProjectMarkers, tt.want)
			}
		})
	}
}

func TestParse_KDLDiagnostics(t *testing.T) {
	tests := []struct {
		name    string
		src     string
		line    int
		col     int
		message string
	}{
		{"unknown key", "depth 5\nfinder \"fzf\"\n", 2, 1, "unknown configuration key `finder`"},
		{"unknown mux", "mux \"screen\"\n", 1, 5, `unknown mux "screen"`},
		{"percentage out of range", "picker_mode {\n    percentage 1.5\n}\n", 2, 16, "percentage must be greater than 0"},
		{"lines zero", "picker_mode { lines 0 }", 1, 21, "lines must be between 1"},
		{"type mismatch", "depth \"five\"", 1, 7, "expected number, found string"},
		{"negative depth", "depth -1", 1, 7, "depth must be a non-negative integer"},
		{"bad default", "exclude_path default=\"yes\" { - \"x\" }", 1, 22, "expected boolean, found string"},
		{"unknown path type", "paths { global \"~\" }", 1, 9, "unknown path type `global`"},
		{"syntax", "paths {\n", 1, 7, "unclosed '{'"},
		{"unknown worktree mode", "worktree_mode \"some\"", 1, 15, `unknown worktree mode "some"`},
		{"workspace without files", "workspaces {\n    workspace \"go\"\n}\n", 2, 5, "workspace `go` requires a `files` list"},
		{"workspace without name", "workspaces { workspace { files \"x\" } }", 1, 14, "`workspace` requires a single name"},
		{"unknown workspace child", "workspaces { project \"x\" }", 1, 14, "expected `workspace` in `workspaces`"},
		{"duplicate workspace", "workspaces {\n    workspace \"a\" { files \"x\" }\n    workspace \"a\" { files \"y\" }\n}", 3, 15, "workspace `a` is defined twice"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse(FormatKDL, "config.kdl", tt.src, nil)
			var diag *Diagnostic
			if !errors.As(err, &diag) {
				t.Fatalf("Parse() error = %v, want *Diagnostic", err)
			}
			if diag.Line != tt.line || diag.Column != tt.col {
				t.Errorf("position = %d:%d, want %d:%d (%s)", diag.Line, diag.Column, tt.line, tt.col, diag.Message)
			}
			if !strings.Contains(diag.Message, tt.message) {
				t.Errorf("message = %q, want it to contain %q", diag.Message, tt.message)
			}
		})
	}
}

func TestDiagnostic_Rendering(t *testing.T) {
	_, err := Parse(FormatKDL, "/etc/tm/config.kdl", "depth 5\nmux \"screen\"\n", nil)
	var diag *Diagnostic
	if !errors.As(err, &diag) {
		t.Fatalf("Parse() error = %v, want *Diagnostic", err)
	}

	if got, want := diag.Error(), `/etc/tm/config.kdl:2:5: unknown mux "screen" (expected tmux or zellij)`; got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}

	want := "  |\n2 | mux \"screen\"\n  |     ^^^^^^^^"
	if got := diag.Snippet(); got != want {
		t.Errorf("Snippet() =\n%s\nwant\n%s", got, want)
	}
}

func TestMarshal_RoundTrip(t *testing.T) {
	h := home(t)
	cfg := &Config{
		WorkspaceRoots:  []string{filepath.Join(h, "code"), "/srv/repos"},
		SinglePaths:     []string{},
		ExcludeNames:    []string{"node_modules", "vendor"},
		Depth:           7,
		Picker:          PercentagePicker(0.3),
		DefaultWorktree: true,
		WorktreeMode:    WorktreeDefault,
		Mux:             MuxZellij,
		ProjectMarkers:  []string{".git"},
		SingleShot:      false,
		Exact:           true,
	}

	text := Marshal(cfg)
	if !strings.Contains(text, `- "~/code"`) {
		t.Errorf("Marshal() should contract the home directory:\n%s", text)
	}
	if !strings.Contains(text, "single default=#false {}") {
		t.Errorf("Marshal() should write an empty list as an empty block:\n%s", text)
	}

	back, err := Parse(FormatKDL, "roundtrip.kdl", text, nil)
	if err != nil {
		t.Fatalf("Parse(Marshal()) error = %v\n%s", err, text)
	}

	if !reflect.DeepEqual(back, cfg) {
		t.Errorf("round trip mismatch:\n got %+v\nwant %+v", back, cfg)
	}
}

func TestMarshal_DefaultsRoundTrip(t *testing.T) {
	for _, mode := range []PickerMode{FullPicker(), LinesPicker(12), PercentagePicker(0.5)} {
		cfg := DefaultConfig()
		cfg.Picker = mode

		back, err := Parse(FormatKDL, "default.kdl", Marshal(cfg), nil)
		if err != nil {
			t.Fatalf("Parse() error = %v", err)
		}
		if !reflect.DeepEqual(back, cfg) {
			t.Errorf("%v: round trip mismatch:\n got %+v\nwant %+v", mode, back, cfg)
		}
	}
}

func TestParse_TOML(t *testing.T) {
	src := `depth = 2
mux = "zellij"
exclude_path = ["target"]

[paths]
workspace = ["/srv/code"]
single = ["/srv/notes"]

[picker_mode]
percentage = 0.75
`
	cfg, err := Parse(FormatTOML, "config.toml", src, nil)
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}

	if cfg.Depth != 2 || cfg.Mux != MuxZellij {
		t.Errorf("Parse() = %+v", cfg)
	}
	if !reflect.DeepEqual(cfg.WorkspaceRoots, []string{"/srv/code"}) || !reflect.DeepEqual(cfg.SinglePaths, []string{"/srv/notes"}) {
		t.Errorf("paths = %v %v", cfg.WorkspaceRoots, cfg.SinglePaths)
	}
	if !reflect.DeepEqual(cfg.ExcludeNames, []string{"target"}) {
		t.Errorf("ExcludeNames = %v", cfg.ExcludeNames)
	}
	if cfg.Picker != PercentagePicker(0.75) {
		t.Errorf("Picker = %v", cfg.Picker)
	}
}

func TestParse_TOMLLegacyKeys(t *testing.T) {
	src := "workspace_paths = [\"/a\"]\nsingle_paths = [\"/b\"]\nheight = 40\n"
	cfg, err := Parse(FormatTOML, "config.toml", src, nil)
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}

	if !reflect.DeepEqual(cfg.WorkspaceRoots, []string{"/a"}) || !reflect.DeepEqual(cfg.SinglePaths, []string{"/b"}) {
		t.Errorf("paths = %v %v", cfg.WorkspaceRoots, cfg.SinglePaths)
	}
	if cfg.Picker != PercentagePicker(0.4) {
		t.Errorf("Picker = %v, want percentage(0.4)", cfg.Picker)
	}
}

func TestParse_TOMLUnknownKey(t *testing.T) {
	_, err := Parse(FormatTOML, "config.toml", "depth = 2\nfinder = \"fzf\"\n", nil)
	var diag *Diagnostic
	if !errors.As(err, &diag) {
		t.Fatalf("Parse() error = %v, want *Diagnostic", err)
	}
	if diag.Line != 2 || !strings.Contains(diag.Message, "unknown configuration key `finder`") {
		t.Errorf("diag = %+v", diag)
	}
}

func TestParse_TOMLBadValue(t *testing.T) {
	_, err := Parse(FormatTOML, "config.toml", "depth = 2\n\n[picker_mode]\npercentage = 2.0\n", nil)
	var diag *Diagnostic
	if !errors.As(err, &diag) {
		t.Fatalf("Parse() error = %v, want *Diagnostic", err)
	}
	if diag.Line != 4 || diag.Source != "percentage = 2.0" {
		t.Errorf("diag = %+v", diag)
	}
}

func TestParse_YAML(t *testing.T) {
	src := `paths:
  workspace: [/srv/code]
depth: 4
worktree_mode: default
picker_mode:
  full: true
`
	cfg, err := Parse(FormatYAML, "config.yaml", src, nil)
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}

	if !reflect.DeepEqual(cfg.WorkspaceRoots, []string{"/srv/code"}) || cfg.Depth != 4 {
		t.Errorf("Parse() = %+v", cfg)
	}
	if cfg.WorktreeMode != WorktreeDefault || !cfg.PreferDefaultWorktree() {
		t.Errorf("WorktreeMode = %q", cfg.WorktreeMode)
	}
	if cfg.Picker != FullPicker() {
		t.Errorf("Picker = %v, want full", cfg.Picker)
	}
}

func TestParse_YAMLUnknownKey(t *testing.T) {
	_, err := Parse(FormatYAML, "config.yaml", "depth: 4\nfinder: fzf\n", nil)
	var diag *Diagnostic
	if !errors.As(err, &diag) {
		t.Fatalf("Parse() error = %v, want *Diagnostic", err)
	}
	if diag.Line != 2 || !strings.Contains(diag.Message, "finder") {
		t.Errorf("diag = %+v", diag)
	}
}

func TestParse_YAMLEmpty(t *testing.T) {
	cfg, err := Parse(FormatYAML, "config.yaml", "", nil)
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if !reflect.DeepEqual(cfg, DefaultConfig()) {
		t.Errorf("empty YAML should yield defaults, got %+v", cfg)
	}
}

func TestLoad_LayersGlobalThenLocal(t *testing.T) {
	globalDir := t.TempDir()
	localDir := t.TempDir()
	t.Setenv(EnvConfigPath, globalDir)
	t.Setenv(EnvDataPath, localDir)

	global := "depth 3\npaths { workspace default=#false \"/a\"; }\nexclude_path \"build\"\n"
	if err := os.WriteFile(filepath.Join(globalDir, "config.kdl"), []byte(global), 0644); err != nil {
		t.Fatal(err)
	}
	local := "mux = \"zellij\"\ndepth = 4\n"
	if err := os.WriteFile(filepath.Join(localDir, "config.toml"), []byte(local), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Depth != 4 {
		t.Errorf("Depth = %d, want local override 4", cfg.Depth)
	}
	if cfg.Mux != MuxZellij {
		t.Errorf("Mux = %q, want zellij", cfg.Mux)
	}
	if !reflect.DeepEqual(cfg.WorkspaceRoots, []string{"/a"}) {
		t.Errorf("WorkspaceRoots = %v, want [/a]", cfg.WorkspaceRoots)
	}
	if !reflect.DeepEqual(cfg.ExcludeNames, []string{"node_modules", ".direnv", "build"}) {
		t.Errorf("ExcludeNames = %v", cfg.ExcludeNames)
	}

	path, err := FilePath(Local)
	if err != nil || path != filepath.Join(localDir, "config.toml") {
		t.Errorf("FilePath(Local) = %q, %v", path, err)
	}
}

func TestLoad_NoFiles(t *testing.T) {
	t.Setenv(EnvConfigPath, t.TempDir())
	t.Setenv(EnvDataPath, t.TempDir())

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if !reflect.DeepEqual(cfg, DefaultConfig()) {
		t.Errorf("Load() = %+v, want defaults", cfg)
	}

	path, _ := FilePath(Global)
	if filepath.Base(path) != "config.kdl" {
		t.Errorf("FilePath(Global) = %q, want config.kdl default", path)
	}
}

func TestLoad_PropagatesDiagnostics(t *testing.T) {
	dir := t.TempDir()
	t.Setenv(EnvConfigPath, dir)
	t.Setenv(EnvDataPath, t.TempDir())

	path := filepath.Join(dir, "config.kdl")
	if err := os.WriteFile(path, []byte("depth #true\n"), 0644); err != nil {
		t.Fatal(err)
	}

	_, err := Load()
	var diag *Diagnostic
	if !errors.As(err, &diag) || diag.Path != path {
		t.Errorf("Load() error = %v, want diagnostic for %s", err, path)
	}
}

func TestDirs_EnvPrecedence(t *testing.T) {
	t.Setenv(EnvConfigPath, "")
	t.Setenv(EnvDataPath, "")
	t.Setenv("XDG_CONFIG_HOME", "/xdg/config")
	t.Setenv("XDG_DATA_HOME", "/xdg/data")

	if dir, _ := ConfigDir(); dir != "/xdg/config/tuxmux" {
		t.Errorf("ConfigDir() = %q", dir)
	}
	if dir, _ := DataDir(); dir != "/xdg/data/tuxmux" {
		t.Errorf("DataDir() = %q", dir)
	}

	t.Setenv(EnvConfigPath, "/override/config")
	t.Setenv(EnvDataPath, "/override/data")

	if dir, _ := ConfigDir(); dir != "/override/config" {
		t.Errorf("ConfigDir() = %q", dir)
	}
	if dir, _ := Dir(Local); dir != "/override/data" {
		t.Errorf("Dir(Local) = %q", dir)
	}
}

func TestFormatOf(t *testing.T) {
	for path, want := range map[string]Format{
		"a/config.kdl":  FormatKDL,
		"a/config.toml": FormatTOML,
		"a/config.yml":  FormatYAML,
		"a/config.YAML": FormatYAML,
	} {
		if got, err := FormatOf(path); err != nil || got != want {
			t.Errorf("FormatOf(%q) = %q, %v", path, got, err)
		}
	}

	if _, err := FormatOf("config.json"); err == nil {
		t.Error("FormatOf(json) expected error")
	}
}
