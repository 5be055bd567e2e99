// ABOUTME: Walker drives a scan over target files and directories
// ABOUTME: Visits entries in name order, records each result, and forwards it to the reporter

package scanner

import (
	"context"
	"errors"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/hikmaai-io/hikmaai-sigscan/internal/observability"
	"github.com/hikmaai-io/hikmaai-sigscan/internal/types"
)

// FileScanner classifies one file.
type FileScanner interface {
	Scan(ctx context.Context, path string) types.MatchResult
}

// Walker scans targets sequentially against a FileScanner.
type Walker struct {
	scanner  FileScanner
	summary  *Summary
	reporter Reporter
	logger   *slog.Logger
}

// NewWalker creates a walker. A nil logger uses slog.Default().
func NewWalker(fsc FileScanner, summary *Summary, reporter Reporter, logger *slog.Logger) *Walker {
	if logger == nil {
		logger = slog.Default()
	}
	return &Walker{
		scanner:  fsc,
		summary:  summary,
		reporter: reporter,
		logger:   logger,
	}
}

// ScanPath scans a directory with ScanDir and anything else as a file.
// It only fails when ctx is cancelled.
func (w *Walker) ScanPath(ctx context.Context, path string, recursive bool) error {
	if info, err := os.Stat(path); err == nil && info.IsDir() {
		return w.ScanDir(ctx, path, recursive)
	}
	return w.ScanFile(ctx, path)
}

// ScanDir scans the entries of dir in name order. Subdirectories are
// descended depth-first when recursive. The directory is counted after
// its contents.
func (w *Walker) ScanDir(ctx context.Context, dir string, recursive bool) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		w.emit(ctx, types.NewErrorResult(dir, "unable to read directory: "+pathErrorText(err)))
		return nil
	}

	for _, entry := range entries {
		if err := ctx.Err(); err != nil {
			return err
		}

		path := filepath.Join(dir, entry.Name())

		info, err := os.Stat(path)
		if err != nil {
			// Dangling links and races surface as read errors.
			if err := w.ScanFile(ctx, path); err != nil {
				return err
			}
			continue
		}

		switch {
		case info.IsDir():
			if !recursive {
				continue
			}
			if entry.Type()&fs.ModeSymlink != 0 {
				observability.LogWithContext(ctx, w.logger, slog.LevelDebug, "not following directory link",
					slog.String("path", path))
				continue
			}
			if err := w.ScanDir(ctx, path, recursive); err != nil {
				return err
			}
		case info.Mode().IsRegular():
			if err := w.ScanFile(ctx, path); err != nil {
				return err
			}
		default:
			observability.LogWithContext(ctx, w.logger, slog.LevelDebug, "skipping special file",
				slog.String("path", path),
				slog.String("mode", info.Mode().String()),
			)
		}
	}

	w.summary.AddDir()
	return nil
}

// ScanFile scans one file, records it, and reports it.
func (w *Walker) ScanFile(ctx context.Context, path string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	w.emit(ctx, w.scanner.Scan(ctx, path))
	return nil
}

func (w *Walker) emit(ctx context.Context, r types.MatchResult) {
	w.summary.Record(r)

	if r.Verdict == types.VerdictError {
		observability.LogWithContext(ctx, w.logger, slog.LevelDebug, "scan error",
			slog.String("path", r.Path), slog.String("error", r.Err))
	}

	if err := w.reporter.Report(ctx, r); err != nil {
		observability.LogWithContext(ctx, w.logger, slog.LevelWarn, "reporting result failed",
			slog.String("path", r.Path), slog.Any("error", err))
	}
}

func pathErrorText(err error) string {
	var pathErr *fs.PathError
	if errors.As(err, &pathErr) {
		return pathErr.Err.Error()
	}
	return err.Error()
}
