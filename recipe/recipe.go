// Package recipe describes the ISP project's package recipe: the pinned
// requirements, their default options, the build generators and the copy
// rules run at import and deploy time.
package recipe

import (
	"path"
	"slices"
	"strings"

	"github.com/goplus/isp/mod/module"
)

// FileName is the conventional name of a recipe file.
const FileName = "isp.yaml"

// DefaultBuildType is used when no build type is requested.
const DefaultBuildType = "Release"

// Recipe is a declarative build description consumed by the isp tool.
type Recipe struct {
	Name       string
	Version    string
	Settings   []string
	Generators []string

	Requires       []module.Version
	DefaultOptions []Option

	Imports []CopyRule
	Deploy  []CopyRule
}

// ValueKind tells boolean options from free-form string options.
type ValueKind int

const (
	String ValueKind = iota
	Bool
)

// Option is a default option applied to every required package whose
// reference matches Pattern, e.g. "opencv/*:shared" = true.
type Option struct {
	Pattern string
	Name    string
	Value   string
	Kind    ValueKind
}

// Key renders the option key in its "<pattern>:<name>" form.
func (o Option) Key() string {
	return o.Pattern + ":" + o.Name
}

// Bool reports the option's boolean value; string options are false.
func (o Option) Bool() bool {
	return o.Kind == Bool && o.Value == "true"
}

// Applies reports whether the option targets ref. A pattern containing "/"
// is matched against "name/version"; otherwise against the name alone.
func (o Option) Applies(ref module.Version) bool {
	subject := ref.Path
	if strings.Contains(o.Pattern, "/") {
		subject = ref.String()
	}
	ok, err := path.Match(o.Pattern, subject)
	return err == nil && ok
}

// BoolOption returns a boolean Option for key "<pattern>:<name>".
func BoolOption(key string, v bool) Option {
	o := splitKey(key)
	o.Kind = Bool
	o.Value = "false"
	if v {
		o.Value = "true"
	}
	return o
}

// StringOption returns a string Option for key "<pattern>:<name>".
func StringOption(key, v string) Option {
	o := splitKey(key)
	o.Kind = String
	o.Value = v
	return o
}

func splitKey(key string) Option {
	i := strings.LastIndexByte(key, ':')
	if i < 0 {
		return Option{Name: key}
	}
	return Option{Pattern: key[:i], Name: key[i+1:]}
}

// CopyRule copies the entries of Src matching Pattern into Dst.
type CopyRule struct {
	Pattern string `yaml:"pattern"`
	Src     string `yaml:"src"`
	Dst     string `yaml:"dst"`
}

// Ref returns the recipe's own package reference.
func (r *Recipe) Ref() module.Version {
	return module.Version{Path: r.Name, Version: r.Version}
}

// Require declares that the recipe depends on the package at the given
// name and version.
func (r *Recipe) Require(name, ver string) {
	r.Requires = append(r.Requires, module.Version{Path: name, Version: ver})
}

// OptionsFor returns the default options that apply to ref, in
// declaration order.
func (r *Recipe) OptionsFor(ref module.Version) []Option {
	var opts []Option
	for _, o := range r.DefaultOptions {
		if o.Applies(ref) {
			opts = append(opts, o)
		}
	}
	return opts
}

// HasGenerator reports whether the recipe enables the named generator.
func (r *Recipe) HasGenerator(name string) bool {
	return slices.Contains(r.Generators, name)
}

// Default returns the ISPProject recipe: OpenCV with its contrib modules as
// shared libraries, CLI11, and copy rules for shared libraries, debug
// symbols and symbol bundles.
func Default() *Recipe {
	r := &Recipe{
		Name:       "ISPProject",
		Version:    "1.0",
		Settings:   []string{"os", "compiler", "build_type", "arch"},
		Generators: []string{"CMakeToolchain", "CMakeDeps"},
		DefaultOptions: []Option{
			BoolOption("opencv/*:shared", true),
			BoolOption("opencv/*:with_contrib", true),
		},
		Imports: []CopyRule{
			{Pattern: "*.dll", Src: "bin", Dst: "bin"},
			{Pattern: "*.dylib*", Src: "lib", Dst: "bin"},
			{Pattern: "*.so*", Src: "lib", Dst: "bin"},
			{Pattern: "*.pdb", Src: "bin", Dst: "bin"},
			{Pattern: "*.dSYM", Src: "lib", Dst: "bin"},
		},
		Deploy: []CopyRule{
			{Pattern: "*", Src: "bin", Dst: "bin"},
			{Pattern: "*.dll", Src: "bin", Dst: "bin"},
			{Pattern: "*.dylib*", Src: "lib", Dst: "bin"},
			{Pattern: "*.so*", Src: "lib", Dst: "bin"},
		},
	}
	r.Require("opencv", "4.5.5")
	r.Require("cli11", "2.2.0")
	return r
}
