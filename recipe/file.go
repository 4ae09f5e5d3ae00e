package recipe

import (
	"os"
	"strings"

	"go.trai.ch/zerr"
	"gopkg.in/yaml.v3"

	"github.com/goplus/isp/mod/module"
)

// recipeFile is the on-disk YAML form of a Recipe.
type recipeFile struct {
	Name           string     `yaml:"name"`
	Version        string     `yaml:"version"`
	Settings       []string   `yaml:"settings,omitempty"`
	Generators     []string   `yaml:"generators,omitempty"`
	Requires       []string   `yaml:"requires,omitempty"`
	DefaultOptions *yaml.Node `yaml:"default_options,omitempty"`
	Imports        []CopyRule `yaml:"imports,omitempty"`
	Deploy         []CopyRule `yaml:"deploy,omitempty"`
}

// Load reads and parses the recipe file at path.
func Load(path string) (*Recipe, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, zerr.With(wrapAs(err, ErrReadFailed), "path", path)
	}
	r, err := Parse(data)
	if err != nil {
		return nil, zerr.With(err, "path", path)
	}
	return r, nil
}

// Parse decodes a YAML recipe. It only checks the document's shape; call
// Validate for the schema checks.
func Parse(data []byte) (*Recipe, error) {
	var f recipeFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, wrapAs(err, ErrParseFailed)
	}

	r := &Recipe{
		Name:       f.Name,
		Version:    f.Version,
		Settings:   f.Settings,
		Generators: f.Generators,
		Imports:    f.Imports,
		Deploy:     f.Deploy,
	}
	for _, ref := range f.Requires {
		name, ver, _ := strings.Cut(ref, "/")
		r.Requires = append(r.Requires, module.Version{Path: name, Version: ver})
	}
	opts, err := decodeOptions(f.DefaultOptions)
	if err != nil {
		return nil, err
	}
	r.DefaultOptions = opts
	return r, nil
}

func decodeOptions(n *yaml.Node) ([]Option, error) {
	if n == nil || n.Kind == 0 {
		return nil, nil
	}
	if n.Kind != yaml.MappingNode {
		return nil, annotate(ErrParseFailed, "default_options", "expected a mapping")
	}
	opts := make([]Option, 0, len(n.Content)/2)
	for i := 0; i+1 < len(n.Content); i += 2 {
		k, v := n.Content[i], n.Content[i+1]
		if v.Kind != yaml.ScalarNode {
			return nil, annotate(ErrInvalidOption, "option", k.Value)
		}
		if v.ShortTag() == "!!bool" {
			opts = append(opts, BoolOption(k.Value, strings.EqualFold(v.Value, "true")))
			continue
		}
		opts = append(opts, StringOption(k.Value, v.Value))
	}
	return opts, nil
}

// Marshal encodes the recipe as YAML.
func (r *Recipe) Marshal() ([]byte, error) {
	f := recipeFile{
		Name:       r.Name,
		Version:    r.Version,
		Settings:   r.Settings,
		Generators: r.Generators,
		Imports:    r.Imports,
		Deploy:     r.Deploy,
	}
	for _, req := range r.Requires {
		f.Requires = append(f.Requires, req.String())
	}
	if len(r.DefaultOptions) > 0 {
		opts := &yaml.Node{Kind: yaml.MappingNode}
		for _, o := range r.DefaultOptions {
			v := &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: o.Value}
			if o.Kind == Bool {
				v.Tag = "!!bool"
			}
			opts.Content = append(opts.Content,
				&yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: o.Key()}, v)
		}
		f.DefaultOptions = opts
	}
	return yaml.Marshal(&f)
}
