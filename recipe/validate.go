package recipe

import (
	"errors"
	"path"
	"path/filepath"
	"regexp"
	"strings"

	"go.trai.ch/zerr"

	"github.com/goplus/isp/mod/module"
)

var knownSettings = map[string]bool{
	"os":               true,
	"arch":             true,
	"compiler":         true,
	"compiler.version": true,
	"compiler.cppstd":  true,
	"build_type":       true,
}

var knownGenerators = map[string]bool{
	"CMakeToolchain": true,
	"CMakeDeps":      true,
}

var validOptionName = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_.]*$`)

// Validate runs the schema checks on r and returns every problem found,
// joined. It checks that package references and versions are well formed,
// that every option applies to a required package, and that each copy rule
// carries a valid glob and relative directories.
func (r *Recipe) Validate() error {
	var errs []error

	if err := module.CheckPath(r.Name); err != nil {
		errs = append(errs, annotate(ErrInvalidName, "name", r.Name))
	}
	if err := module.CheckVersion(r.Version); err != nil {
		errs = append(errs, annotate(ErrInvalidVersion, "version", r.Version))
	}
	for _, s := range r.Settings {
		if !knownSettings[s] {
			errs = append(errs, annotate(ErrUnknownSetting, "setting", s))
		}
	}
	for _, g := range r.Generators {
		if !knownGenerators[g] {
			errs = append(errs, annotate(ErrUnknownGenerator, "generator", g))
		}
	}

	seen := make(map[string]bool, len(r.Requires))
	for _, req := range r.Requires {
		if err := module.Check(req); err != nil {
			errs = append(errs, zerr.With(wrapAs(err, ErrInvalidRequirement), "requirement", req.String()))
			continue
		}
		if seen[req.Path] {
			errs = append(errs, annotate(ErrDuplicateRequirement, "requirement", req.Path))
		}
		seen[req.Path] = true
	}

	for _, o := range r.DefaultOptions {
		if err := r.checkOption(o); err != nil {
			errs = append(errs, err)
		}
	}

	for _, rule := range r.Imports {
		if err := CheckRule(rule); err != nil {
			errs = append(errs, zerr.With(err, "step", "imports"))
		}
	}
	for _, rule := range r.Deploy {
		if err := CheckRule(rule); err != nil {
			errs = append(errs, zerr.With(err, "step", "deploy"))
		}
	}
	return errors.Join(errs...)
}

func (r *Recipe) checkOption(o Option) error {
	if o.Pattern == "" || !validOptionName.MatchString(o.Name) {
		return annotate(ErrInvalidOption, "option", o.Key())
	}
	if _, err := path.Match(o.Pattern, ""); err != nil {
		return zerr.With(wrapAs(err, ErrInvalidOption), "option", o.Key())
	}
	if o.Kind == Bool && o.Value != "true" && o.Value != "false" {
		return annotate(ErrInvalidOption, "option", o.Key())
	}
	for _, req := range r.Requires {
		if o.Applies(req) {
			return nil
		}
	}
	return annotate(ErrOptionNamespace, "option", o.Key())
}

// CheckRule reports whether rule has a well-formed glob pattern and clean,
// relative source and destination directories.
func CheckRule(rule CopyRule) error {
	if rule.Pattern == "" {
		return annotate(ErrInvalidCopyRule, "pattern", rule.Pattern)
	}
	if _, err := path.Match(rule.Pattern, ""); err != nil {
		return zerr.With(wrapAs(err, ErrInvalidCopyRule), "pattern", rule.Pattern)
	}
	for _, dir := range []string{rule.Src, rule.Dst} {
		if !relativeDir(dir) {
			return zerr.With(annotate(ErrInvalidCopyRule, "pattern", rule.Pattern), "dir", dir)
		}
	}
	return nil
}

func relativeDir(dir string) bool {
	if dir == "" || filepath.IsAbs(dir) || path.IsAbs(dir) {
		return false
	}
	clean := path.Clean(filepath.ToSlash(dir))
	return clean != ".." && !strings.HasPrefix(clean, "../")
}
