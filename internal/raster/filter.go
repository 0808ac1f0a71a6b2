package raster

import (
	"path/filepath"

	"pixed/internal/errors"

	"github.com/gobwas/glob"
)

// SourceFilter decides which files may be opened as layer sources by
// matching their base name against glob patterns.
type SourceFilter struct {
	patterns []string
	globs    []glob.Glob
}

// NewSourceFilter compiles patterns. An empty list accepts everything.
func NewSourceFilter(patterns []string) (*SourceFilter, error) {
	f := &SourceFilter{patterns: patterns}
	for _, p := range patterns {
		g, err := glob.Compile(p)
		if err != nil {
			return nil, errors.NewRasterError("invalid source pattern", p, errors.UnsupportedSource, err)
		}
		f.globs = append(f.globs, g)
	}
	return f, nil
}

// Allow reports whether path may be opened.
func (f *SourceFilter) Allow(path string) bool {
	if f == nil || len(f.globs) == 0 {
		return true
	}
	name := filepath.Base(path)
	for _, g := range f.globs {
		if g.Match(name) {
			return true
		}
	}
	return false
}

// Check returns an UnsupportedSource error for rejected paths.
func (f *SourceFilter) Check(path string) error {
	if f.Allow(path) {
		return nil
	}
	return errors.NewRasterError("unsupported source", path, errors.UnsupportedSource, nil)
}

// Patterns returns the configured patterns.
func (f *SourceFilter) Patterns() []string {
	return f.patterns
}
