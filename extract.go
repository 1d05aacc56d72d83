package dat

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"runtime"
	"sync/atomic"

	"golang.org/x/sync/errgroup"

	"github.com/meigma/dat/internal/pathutil"
)

// ExtractOption configures Extract.
type ExtractOption func(*extractConfig)

type extractConfig struct {
	overwrite bool
	workers   int
	names     []string
	prefix    string
}

// ExtractWithOverwrite allows overwriting existing files.
// By default, existing files are skipped.
func ExtractWithOverwrite(overwrite bool) ExtractOption {
	return func(c *extractConfig) {
		c.overwrite = overwrite
	}
}

// ExtractWithWorkers sets the number of entries materialized concurrently.
// Values < 0 force serial processing. Zero uses GOMAXPROCS.
func ExtractWithWorkers(n int) ExtractOption {
	return func(c *extractConfig) {
		c.workers = n
	}
}

// ExtractWithNames restricts extraction to the named entries.
// Names that are not in the archive are ignored.
func ExtractWithNames(names ...string) ExtractOption {
	return func(c *extractConfig) {
		c.names = names
	}
}

// ExtractWithPrefix restricts extraction to entries under the directory dir.
// The name is normalized; "" and "." select every entry.
func ExtractWithPrefix(dir string) ExtractOption {
	return func(c *extractConfig) {
		c.prefix = pathutil.DirPrefix(NormalizeFilename(dir))
	}
}

// ExtractStats reports the outcome of Extract.
type ExtractStats struct {
	// FileCount is the number of files written.
	FileCount int

	// TotalBytes is the total unpacked size of the files written.
	TotalBytes uint64

	// Skipped is the number of entries left alone because the file existed.
	Skipped int
}

// Extract writes archive entries under destDir using their normalized names.
//
// Files are written to a temp file and renamed into place. Parent
// directories are created as needed. Each worker reads through its own
// accessor over the archive's ByteSource, so the archive position is not
// touched. Extraction stops at the first error; entries whose names are not
// valid relative paths fail with an *fs.PathError wrapping fs.ErrInvalid.
func (a *Archive) Extract(ctx context.Context, destDir string, opts ...ExtractOption) (ExtractStats, error) {
	cfg := extractConfig{}
	for _, opt := range opts {
		opt(&cfg)
	}

	entries := a.collectEntries(cfg.names, cfg.prefix)
	workers := cfg.workers
	switch {
	case workers < 0:
		workers = 1
	case workers == 0:
		workers = runtime.GOMAXPROCS(0)
	}

	var (
		written atomic.Int64
		skipped atomic.Int64
		total   atomic.Uint64
	)
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for _, e := range entries {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			ok, err := a.extractEntry(destDir, e, cfg.overwrite)
			if err != nil {
				return err
			}
			if !ok {
				skipped.Add(1)
				return nil
			}
			written.Add(1)
			total.Add(e.UnpackedSize)
			return nil
		})
	}
	err := g.Wait()

	stats := ExtractStats{
		FileCount:  int(written.Load()),
		TotalBytes: total.Load(),
		Skipped:    int(skipped.Load()),
	}
	if err != nil {
		return stats, err
	}
	a.log().Info("archive extracted", "dest", destDir, "files", stats.FileCount, "bytes", stats.TotalBytes, "skipped", stats.Skipped)
	return stats, nil
}

// collectEntries returns the named entries, or all entries when names is
// empty, keeping only those under prefix.
func (a *Archive) collectEntries(names []string, prefix string) []*Entry {
	candidates := a.entries
	if len(names) > 0 {
		candidates = make([]*Entry, 0, len(names))
		for _, name := range names {
			if e, ok := a.Entry(name); ok {
				candidates = append(candidates, e)
			}
		}
	}

	entries := make([]*Entry, 0, len(candidates))
	for _, e := range candidates {
		if pathutil.Under(NormalizeFilename(e.Filename), prefix) {
			entries = append(entries, e)
		}
	}
	return entries
}

// extractEntry writes one entry. It reports false if the file was skipped.
func (a *Archive) extractEntry(destDir string, e *Entry, overwrite bool) (bool, error) {
	name := NormalizeFilename(e.Filename)
	if !fs.ValidPath(name) || name == "." {
		return false, &fs.PathError{Op: "extract", Path: e.Filename, Err: fs.ErrInvalid}
	}
	destPath := filepath.Join(destDir, filepath.FromSlash(name))

	if !overwrite {
		if _, err := os.Stat(destPath); err == nil {
			return false, nil
		}
	}

	private := *e
	private.Archive = &sourceReader{src: a.src}
	it := NewEntryItem(&private, a.itemOptions(nil)...)
	defer it.Close()

	content, err := it.Bytes()
	if err != nil {
		return false, err
	}
	if err := writeFileAtomic(destPath, content); err != nil {
		return false, fmt.Errorf("extract %s: %w", name, err)
	}
	return true, nil
}

// writeFileAtomic writes content to a temp file next to destPath and renames
// it into place.
func writeFileAtomic(destPath string, content []byte) error {
	dir := filepath.Dir(destPath)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return fmt.Errorf("create directory %s: %w", dir, err)
	}

	tempFile, err := os.CreateTemp(dir, ".dat-*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tempPath := tempFile.Name()

	if _, err := tempFile.Write(content); err != nil {
		_ = tempFile.Close()    //nolint:errcheck // we're cleaning up
		_ = os.Remove(tempPath) //nolint:errcheck // best-effort cleanup
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := tempFile.Close(); err != nil {
		_ = os.Remove(tempPath) //nolint:errcheck // best-effort cleanup
		return fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Rename(tempPath, destPath); err != nil {
		_ = os.Remove(tempPath) //nolint:errcheck // best-effort cleanup
		return fmt.Errorf("rename to %s: %w", destPath, err)
	}
	return nil
}
