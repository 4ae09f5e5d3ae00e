// Package deploy runs a recipe's copy rules: the import step that gathers
// shared libraries and debug symbols from dependencies, and the deploy step
// that assembles a distributable bin directory.
package deploy

import (
	"context"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"runtime"
	"sort"
	"strings"
	"sync"

	"github.com/hashicorp/go-hclog"
	"github.com/schollz/progressbar/v3"
	"go.trai.ch/zerr"
	"golang.org/x/sync/errgroup"

	"github.com/goplus/isp/recipe"
)

var (
	// ErrCopyFailed is returned when a matched entry cannot be copied.
	ErrCopyFailed = zerr.New("failed to copy")

	// ErrWalkFailed is returned when a rule's source directory cannot be walked.
	ErrWalkFailed = zerr.New("failed to walk source directory")
)

// Copier applies copy rules.
type Copier struct {
	L hclog.Logger

	// Progress, when set, receives a progress bar while files are copied.
	Progress io.Writer

	// Jobs bounds the number of concurrent copies. Zero means GOMAXPROCS.
	Jobs int
}

// Report lists the destination paths, relative to the destination root and
// slash separated, that were written or left alone because they were
// already up to date.
type Report struct {
	Copied  []string
	Skipped []string
}

type job struct {
	src     string
	dst     string
	rel     string
	mode    fs.FileMode
	symlink bool
}

func (c *Copier) logger() hclog.Logger {
	if c.L == nil {
		return hclog.L()
	}
	return c.L
}

// Apply copies, for every rule, the entries under srcRoot/rule.Src that
// match rule.Pattern into dstRoot/rule.Dst. A pattern without a slash is
// matched against entry base names at any depth; a pattern with a slash is
// matched against the path relative to rule.Src. Matching files keep their
// relative sub-path; a matching directory is copied as a whole. A missing
// source directory or a rule that matches nothing copies nothing.
func (c *Copier) Apply(ctx context.Context, rules []recipe.CopyRule, srcRoot, dstRoot string) (*Report, error) {
	L := c.logger()

	var jobs []job
	planned := make(map[string]bool)
	for _, rule := range rules {
		if err := recipe.CheckRule(rule); err != nil {
			return nil, err
		}
		matched, err := plan(rule, srcRoot, dstRoot)
		if err != nil {
			return nil, err
		}
		if len(matched) == 0 {
			L.Debug("rule matched nothing", "pattern", rule.Pattern, "src", filepath.Join(srcRoot, rule.Src))
		}
		for _, j := range matched {
			if planned[j.dst] {
				continue
			}
			planned[j.dst] = true
			jobs = append(jobs, j)
		}
	}

	var bar *progressbar.ProgressBar
	if c.Progress != nil && len(jobs) > 0 {
		bar = progressbar.NewOptions(len(jobs),
			progressbar.OptionSetWriter(c.Progress),
			progressbar.OptionSetDescription("copying"),
			progressbar.OptionClearOnFinish(),
		)
	}

	var (
		mu     sync.Mutex
		report Report
	)
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(c.jobs())
	for _, j := range jobs {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			copied, err := copyEntry(j)
			if err != nil {
				return zerr.With(zerr.With(fmt.Errorf("%w: %w", ErrCopyFailed, err), "src", j.src), "dst", j.dst)
			}
			if bar != nil {
				_ = bar.Add(1)
			}
			mu.Lock()
			defer mu.Unlock()
			if copied {
				L.Trace("copied", "from", j.src, "to", j.dst)
				report.Copied = append(report.Copied, j.rel)
			} else {
				report.Skipped = append(report.Skipped, j.rel)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if bar != nil {
		_ = bar.Finish()
	}

	sort.Strings(report.Copied)
	sort.Strings(report.Skipped)
	L.Info("copy rules applied", "dest", dstRoot, "copied", len(report.Copied), "up_to_date", len(report.Skipped))
	return &report, nil
}

func (c *Copier) jobs() int {
	if c.Jobs > 0 {
		return c.Jobs
	}
	return runtime.GOMAXPROCS(0)
}

// Match reports whether an entry at the slash-separated relative path rel
// is selected by pattern.
func Match(pattern, rel string) bool {
	subject := rel
	if !strings.Contains(pattern, "/") {
		subject = path.Base(rel)
	}
	ok, err := path.Match(pattern, subject)
	return err == nil && ok
}

func plan(rule recipe.CopyRule, srcRoot, dstRoot string) ([]job, error) {
	src := filepath.Join(srcRoot, filepath.FromSlash(rule.Src))
	dst := filepath.Join(dstRoot, filepath.FromSlash(rule.Dst))
	if info, err := os.Stat(src); err != nil || !info.IsDir() {
		return nil, nil
	}

	var jobs []job
	add := func(p string, d fs.DirEntry) error {
		rel, err := filepath.Rel(src, p)
		if err != nil {
			return err
		}
		info, err := d.Info()
		if err != nil {
			return err
		}
		jobs = append(jobs, job{
			src:     p,
			dst:     filepath.Join(dst, rel),
			rel:     path.Join(filepath.ToSlash(rule.Dst), filepath.ToSlash(rel)),
			mode:    info.Mode().Perm(),
			symlink: d.Type()&fs.ModeSymlink != 0,
		})
		return nil
	}

	err := filepath.WalkDir(src, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if p == src {
			return nil
		}
		rel, err := filepath.Rel(src, p)
		if err != nil {
			return err
		}
		if !Match(rule.Pattern, filepath.ToSlash(rel)) {
			return nil
		}
		if !d.IsDir() {
			return add(p, d)
		}
		// A matching directory, such as a symbol bundle, is taken whole.
		if err := filepath.WalkDir(p, func(p string, d fs.DirEntry, err error) error {
			if err != nil || d.IsDir() {
				return err
			}
			return add(p, d)
		}); err != nil {
			return err
		}
		return fs.SkipDir
	})
	if err != nil {
		return nil, zerr.With(fmt.Errorf("%w: %w", ErrWalkFailed, err), "src", src)
	}
	return jobs, nil
}

// Imports applies the recipe's import rules from every dependency root into
// projectDir.
func (c *Copier) Imports(ctx context.Context, r *recipe.Recipe, depRoots []string, projectDir string) (*Report, error) {
	total := &Report{}
	for _, root := range depRoots {
		rep, err := c.Apply(ctx, r.Imports, root, projectDir)
		if err != nil {
			return nil, zerr.With(err, "dependency", root)
		}
		total.Copied = append(total.Copied, rep.Copied...)
		total.Skipped = append(total.Skipped, rep.Skipped...)
	}
	sort.Strings(total.Copied)
	sort.Strings(total.Skipped)
	return total, nil
}

// Deploy applies the recipe's deploy rules from the build output in
// buildDir into deployDir.
func (c *Copier) Deploy(ctx context.Context, r *recipe.Recipe, buildDir, deployDir string) (*Report, error) {
	return c.Apply(ctx, r.Deploy, buildDir, deployDir)
}
