// Package retention deletes generated speech files once they expire.
package retention

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/book-expert/logger"
)

// DefaultMaxAge is the age after which a generated output is deleted.
const DefaultMaxAge = time.Hour

// Report describes the outcome of one sweep.
type Report struct {
	Removed   []string
	Kept      []string
	Protected []string
	Errors    []string
}

// Sweeper removes regular files older than maxAge from a directory. Names in
// the protected allowlist and subdirectories are never touched.
type Sweeper struct {
	dir       string
	maxAge    time.Duration
	protected map[string]struct{}
	now       func() time.Time
	log       *logger.Logger
}

// Option customizes a Sweeper.
type Option func(*Sweeper)

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(s *Sweeper) {
		s.now = now
	}
}

// New creates a sweeper for dir. protected lists base names relative to dir.
func New(dir string, maxAge time.Duration, protected []string, log *logger.Logger, opts ...Option) *Sweeper {
	if maxAge <= 0 {
		maxAge = DefaultMaxAge
	}

	allow := make(map[string]struct{}, len(protected))
	for _, name := range protected {
		allow[filepath.Base(name)] = struct{}{}
	}

	sweeper := &Sweeper{
		dir:       dir,
		maxAge:    maxAge,
		protected: allow,
		now:       time.Now,
		log:       log,
	}

	for _, opt := range opts {
		opt(sweeper)
	}

	return sweeper
}

// Sweep performs one pass over the directory. Only entries present when the
// directory is read are considered; deletion errors are recorded and skipped.
func (s *Sweeper) Sweep() Report {
	var report Report

	entries, err := os.ReadDir(s.dir)
	if err != nil {
		s.log.Error("Error cleaning up files: %v", err)
		report.Errors = append(report.Errors, err.Error())

		return report
	}

	now := s.now()

	for _, entry := range entries {
		name := entry.Name()

		if _, ok := s.protected[name]; ok {
			report.Protected = append(report.Protected, name)

			continue
		}

		if !entry.Type().IsRegular() {
			continue
		}

		info, infoErr := entry.Info()
		if infoErr != nil {
			// Removed concurrently.
			continue
		}

		if now.Sub(info.ModTime()) <= s.maxAge {
			report.Kept = append(report.Kept, name)

			continue
		}

		removeErr := os.Remove(filepath.Join(s.dir, name))
		if removeErr != nil && !os.IsNotExist(removeErr) {
			s.log.Warn("Failed to remove expired file '%s': %v", name, removeErr)
			report.Errors = append(report.Errors, fmt.Sprintf("%s: %v", name, removeErr))

			continue
		}

		s.log.Info("Cleaned up old file: %s", name)
		report.Removed = append(report.Removed, name)
	}

	return report
}

// Run sweeps immediately and then every interval until ctx is cancelled.
func (s *Sweeper) Run(ctx context.Context, interval time.Duration) error {
	s.logReport(s.Sweep())

	if interval <= 0 {
		return nil
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			s.logReport(s.Sweep())
		}
	}
}

func (s *Sweeper) logReport(report Report) {
	if len(report.Removed) == 0 && len(report.Errors) == 0 {
		return
	}

	s.log.Info("Retention sweep of %s: removed %d, kept %d, errors %d",
		s.dir, len(report.Removed), len(report.Kept), len(report.Errors))
}
