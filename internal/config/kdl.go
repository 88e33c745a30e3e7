package config

import (
	"errors"
	"math"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/undrift/tuxmux/internal/kdl"
)

type kdlDecoder struct {
	path string
	src  string
}

func (d *kdlDecoder) errorAt(span kdl.Span, format string, args ...any) error {
	return spanDiagnostic(d.path, d.src, span, format, args...)
}

func applyKDL(cfg *Config, path, src string) error {
	doc, err := kdl.Parse(src)
	if err != nil {
		var perr *kdl.ParseError
		if errors.As(err, &perr) {
			return spanDiagnostic(path, src, kdl.Span{Offset: perr.Offset, Length: 1}, "%s", perr.Msg)
		}
		return err
	}

	d := &kdlDecoder{path: path, src: src}
	for _, node := range doc.Nodes {
		if err := d.apply(cfg, node); err != nil {
			return err
		}
	}
	return nil
}

func (d *kdlDecoder) apply(cfg *Config, node *kdl.Node) error {
	var err error
	switch node.Name {
	case "paths":
		err = d.paths(cfg, node)
	case "exclude_path":
		cfg.ExcludeNames, err = d.list(node, cfg.ExcludeNames)
	case "markers":
		cfg.ProjectMarkers, err = d.list(node, cfg.ProjectMarkers)
	case "workspaces":
		cfg.ProjectMarkers, err = d.workspaces(node, cfg.ProjectMarkers)
	case "depth":
		var v kdl.Value
		if v, err = d.scalar(node, kdl.KindInt); err == nil {
			if v.Int < 0 || v.Int > math.MaxInt32 {
				return d.errorAt(v.Span, "depth must be a non-negative integer")
			}
			cfg.Depth = int(v.Int)
		}
	case "default_worktree":
		cfg.DefaultWorktree, err = d.boolean(node)
	case "single_shot":
		cfg.SingleShot, err = d.boolean(node)
	case "exact":
		cfg.Exact, err = d.boolean(node)
	case "worktree_mode":
		var v kdl.Value
		if v, err = d.scalar(node, kdl.KindString); err == nil {
			mode, perr := ParseWorktreeMode(v.Str)
			if perr != nil {
				return d.errorAt(v.Span, "%s", perr.Error())
			}
			cfg.WorktreeMode = mode
		}
	case "mux":
		var v kdl.Value
		if v, err = d.scalar(node, kdl.KindString); err == nil {
			kind, perr := ParseMuxKind(v.Str)
			if perr != nil {
				return d.errorAt(v.Span, "%s", perr.Error())
			}
			cfg.Mux = kind
		}
	case "picker_mode":
		err = d.pickerMode(cfg, node)
	default:
		return d.errorAt(node.NameSpan, "unknown configuration key `%s`", node.Name)
	}
	return err
}

func (d *kdlDecoder) paths(cfg *Config, node *kdl.Node) error {
	if err := d.noEntries(node); err != nil {
		return err
	}
	for _, child := range node.Children {
		var err error
		switch child.Name {
		case "workspace":
			cfg.WorkspaceRoots, err = d.list(child, cfg.WorkspaceRoots)
		case "single":
			cfg.SinglePaths, err = d.list(child, cfg.SinglePaths)
		default:
			return d.errorAt(child.NameSpan, "unknown path type `%s` (expected workspace or single)", child.Name)
		}
		if err != nil {
			return err
		}
	}
	return nil
}

// list reads a string list from a node's arguments and `- "value"` children.
// With default=#true (the default) values extend inherited; with
// default=#false they replace it.
func (d *kdlDecoder) list(node *kdl.Node, inherited []string) ([]string, error) {
	extend, err := d.defaultProp(node)
	if err != nil {
		return nil, err
	}

	var values []string
	for _, a := range node.Args {
		if a.Kind != kdl.KindString {
			return nil, d.errorAt(a.Span, "expected string, found %s", a.Kind)
		}
		values = append(values, a.Str)
	}
	for _, child := range node.Children {
		if child.Name != "-" {
			return nil, d.errorAt(child.NameSpan, "expected `-` entry in `%s`, found `%s`", node.Name, child.Name)
		}
		if len(child.Args) == 0 {
			return nil, d.errorAt(child.Span, "`-` entry requires a value")
		}
		v := child.Args[0]
		if v.Kind != kdl.KindString {
			return nil, d.errorAt(v.Span, "expected string, found %s", v.Kind)
		}
		values = append(values, v.Str)
	}

	out := []string{}
	if extend {
		out = append(out, inherited...)
	}
	return appendUnique(out, values...), nil
}

// defaultProp reads the only property a list node accepts.
func (d *kdlDecoder) defaultProp(node *kdl.Node) (bool, error) {
	extend := true
	for _, p := range node.Props {
		if p.Name != "default" {
			return false, d.errorAt(p.Span, "unknown property `%s` on `%s`", p.Name, node.Name)
		}
		if p.Value.Kind != kdl.KindBool {
			return false, d.errorAt(p.Value.Span, "expected boolean, found %s", p.Value.Kind)
		}
		extend = p.Value.Bool
	}
	return extend, nil
}

// workspaces reads named marker sets. The files of every set become
// project markers, extending inherited unless default=#false:
//
//	workspaces {
//	    workspace "rust" { files { - "Cargo.toml" } }
//	}
//
// A layout property is accepted and ignored.
func (d *kdlDecoder) workspaces(node *kdl.Node, inherited []string) ([]string, error) {
	extend, err := d.defaultProp(node)
	if err != nil {
		return nil, err
	}
	if len(node.Args) > 0 {
		return nil, d.errorAt(node.Args[0].Span, "`workspaces` does not take arguments")
	}

	out := []string{}
	if extend {
		out = append(out, inherited...)
	}
	seen := map[string]bool{}
	for _, def := range node.Children {
		if def.Name != "workspace" {
			return nil, d.errorAt(def.NameSpan, "expected `workspace` in `workspaces`, found `%s`", def.Name)
		}
		if len(def.Args) != 1 || def.Args[0].Kind != kdl.KindString {
			return nil, d.errorAt(def.Span, "`workspace` requires a single name")
		}
		name := def.Args[0].Str
		if seen[name] {
			return nil, d.errorAt(def.Args[0].Span, "workspace `%s` is defined twice", name)
		}
		seen[name] = true

		for _, p := range def.Props {
			if p.Name != "layout" {
				return nil, d.errorAt(p.Span, "unknown property `%s` on `workspace`", p.Name)
			}
			if p.Value.Kind != kdl.KindString {
				return nil, d.errorAt(p.Value.Span, "expected string, found %s", p.Value.Kind)
			}
		}

		var files *kdl.Node
		for _, child := range def.Children {
			if child.Name != "files" {
				return nil, d.errorAt(child.NameSpan, "unknown key `%s` in workspace `%s`", child.Name, name)
			}
			files = child
		}
		if files == nil {
			return nil, d.errorAt(def.Span, "workspace `%s` requires a `files` list", name)
		}
		values, err := d.list(files, nil)
		if err != nil {
			return nil, err
		}
		out = appendUnique(out, values...)
	}
	return out, nil
}

func (d *kdlDecoder) noEntries(node *kdl.Node) error {
	if len(node.Args) > 0 {
		return d.errorAt(node.Args[0].Span, "`%s` does not take arguments", node.Name)
	}
	if len(node.Props) > 0 {
		return d.errorAt(node.Props[0].Span, "`%s` does not take properties", node.Name)
	}
	return nil
}

// scalar returns the single argument of node, checked against kind.
func (d *kdlDecoder) scalar(node *kdl.Node, kind kdl.Kind) (kdl.Value, error) {
	if len(node.Args) == 0 {
		return kdl.Value{}, d.errorAt(node.Span, "`%s` requires a %s value", node.Name, kind)
	}
	if len(node.Args) > 1 {
		return kdl.Value{}, d.errorAt(node.Args[1].Span, "`%s` takes a single value", node.Name)
	}
	if len(node.Props) > 0 {
		return kdl.Value{}, d.errorAt(node.Props[0].Span, "`%s` does not take properties", node.Name)
	}
	if len(node.Children) > 0 {
		return kdl.Value{}, d.errorAt(node.Children[0].Span, "`%s` does not take children", node.Name)
	}

	v := node.Args[0]
	if v.Kind != kind && !(kind == kdl.KindFloat && v.Kind == kdl.KindInt) {
		return kdl.Value{}, d.errorAt(v.Span, "expected %s, found %s", kind, v.Kind)
	}
	return v, nil
}

func (d *kdlDecoder) boolean(node *kdl.Node) (bool, error) {
	v, err := d.scalar(node, kdl.KindBool)
	return v.Bool, err
}

func (d *kdlDecoder) pickerMode(cfg *Config, node *kdl.Node) error {
	if err := d.noEntries(node); err != nil {
		return err
	}
	if len(node.Children) == 0 {
		return d.errorAt(node.Span, "`picker_mode` requires one of full, lines or percentage")
	}
	if len(node.Children) > 1 {
		return d.errorAt(node.Children[1].Span, "`picker_mode` takes a single mode")
	}

	child := node.Children[0]
	switch child.Name {
	case "full":
		if err := d.noEntries(child); err != nil {
			return err
		}
		cfg.Picker = FullPicker()
	case "lines":
		v, err := d.scalar(child, kdl.KindInt)
		if err != nil {
			return err
		}
		if v.Int < 1 || v.Int > math.MaxUint16 {
			return d.errorAt(v.Span, "lines must be between 1 and %d", math.MaxUint16)
		}
		cfg.Picker = LinesPicker(uint16(v.Int))
	case "percentage":
		v, err := d.scalar(child, kdl.KindFloat)
		if err != nil {
			return err
		}
		f, _ := v.AsFloat()
		if !(f > 0 && f <= 1) {
			return d.errorAt(v.Span, "percentage must be greater than 0 and at most 1")
		}
		cfg.Picker = PercentagePicker(float32(f))
	default:
		return d.errorAt(child.NameSpan, "unknown picker mode `%s` (expected full, lines or percentage)", child.Name)
	}
	return nil
}

// Marshal serializes cfg as a KDL document that parses back to an
// equivalent Config. Lists are written with default=#false so they replace
// the built-in values instead of extending them.
func Marshal(cfg *Config) string {
	home, _ := HomeDir()

	paths := kdl.NewNode("paths").
		AddChild(listNode("workspace", contractTilde(home, cfg.WorkspaceRoots))).
		AddChild(listNode("single", contractTilde(home, cfg.SinglePaths)))

	var mode *kdl.Node
	switch cfg.Picker.Kind {
	case PickerLines:
		mode = kdl.NewNode("lines", kdl.Int(int64(cfg.Picker.Lines)))
	case PickerPercentage:
		f, _ := strconv.ParseFloat(strconv.FormatFloat(float64(cfg.Picker.Percentage), 'g', -1, 32), 64)
		mode = kdl.NewNode("percentage", kdl.Float(f))
	default:
		mode = kdl.NewNode("full")
	}

	doc := &kdl.Document{Nodes: []*kdl.Node{
		paths,
		listNode("exclude_path", cfg.ExcludeNames),
		listNode("markers", cfg.ProjectMarkers),
		kdl.NewNode("depth", kdl.Int(int64(cfg.Depth))),
		kdl.NewNode("picker_mode").AddChild(mode),
		kdl.NewNode("default_worktree", kdl.Bool(cfg.DefaultWorktree)),
		kdl.NewNode("worktree_mode", kdl.String(string(cfg.WorktreeMode))),
		kdl.NewNode("mux", kdl.String(string(cfg.Mux))),
		kdl.NewNode("single_shot", kdl.Bool(cfg.SingleShot)),
		kdl.NewNode("exact", kdl.Bool(cfg.Exact)),
	}}
	return doc.String()
}

func listNode(name string, values []string) *kdl.Node {
	n := kdl.NewNode(name).SetProp("default", kdl.Bool(false))
	n.HasChildren = true
	for _, v := range values {
		n.AddChild(kdl.NewNode("-", kdl.String(v)))
	}
	return n
}

func contractTilde(home string, paths []string) []string {
	out := make([]string, len(paths))
	for i, p := range paths {
		switch {
		case home != "" && p == home:
			out[i] = "~"
		case home != "" && strings.HasPrefix(p, home+string(filepath.Separator)):
			out[i] = "~/" + filepath.ToSlash(p[len(home)+1:])
		default:
			out[i] = p
		}
	}
	return out
}
