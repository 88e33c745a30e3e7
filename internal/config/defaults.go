package config

// DefaultConfig returns a Config with sensible default values.
func DefaultConfig() *Config {
	return &Config{
		WorkspaceRoots:  []string{ExpandTilde("~")},
		SinglePaths:     []string{},
		ExcludeNames:    []string{"node_modules", ".direnv"},
		Depth:           5,
		Picker:          PercentagePicker(0.5),
		DefaultWorktree: false,
		WorktreeMode:    WorktreePrompt,
		Mux:             MuxTmux,
		ProjectMarkers:  []string{".git", ".bare"},
		SingleShot:      true,
		Exact:           false,
	}
}
