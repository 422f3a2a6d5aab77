package archive

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"

	"simplebackup/internal/storage"
)

var (
	ErrSourceNotFound    = errors.New("source directory not found")
	ErrUnsupportedFormat = errors.New("unsupported archive format")
	ErrArchive           = errors.New("archive creation failed")
)

// Archiver writes one timestamped archive per source directory.
type Archiver struct {
	logger zerolog.Logger
	now    func() time.Time
}

// New creates an Archiver that logs to logger.
func New(logger zerolog.Logger) *Archiver {
	return &Archiver{logger: logger, now: time.Now}
}

// Archive packs the tree rooted at sourcePath into
// <destinationDir>/<basename>_<YYYYMMDD_HHMMSS><ext> and returns the archive
// path. Entries are named relative to sourcePath. Failures are logged here;
// the returned error wraps ErrSourceNotFound, ErrUnsupportedFormat or
// ErrArchive. A partially written archive is left in place on failure.
func (a *Archiver) Archive(ctx context.Context, sourcePath, destinationDir, format string) (string, error) {
	a.logger.Info().Msgf("Attempting to back up: %s (format: %s)", sourcePath, format)

	path, err := a.archive(ctx, sourcePath, destinationDir, format)
	if err != nil {
		switch {
		case errors.Is(err, ErrSourceNotFound):
			a.logger.Error().Msgf("Source directory not found at '%s'", sourcePath)
		case errors.Is(err, ErrUnsupportedFormat):
			a.logger.Error().Msgf("Cannot back up '%s': %v", sourcePath, err)
		default:
			a.logger.Error().Msgf("Error creating backup for '%s': %v", sourcePath, err)
		}
		return "", err
	}

	size := "unknown size"
	if info, err := os.Stat(path); err == nil {
		size = storage.FormatSize(info.Size())
	}
	a.logger.Info().Msgf("Successfully created backup: %s (%s)", path, size)
	return path, nil
}

func (a *Archiver) archive(ctx context.Context, sourcePath, destinationDir, format string) (string, error) {
	f, err := ParseFormat(format)
	if err != nil {
		return "", err
	}

	timestamp := a.now()
	source := filepath.Clean(sourcePath)

	info, err := os.Stat(source)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return "", fmt.Errorf("%w: %s", ErrSourceNotFound, source)
		}
		return "", fmt.Errorf("%w: %w", ErrArchive, err)
	}
	if !info.IsDir() {
		return "", fmt.Errorf("%w: %s is not a directory", ErrArchive, source)
	}

	// Walk the resolved directory so a source that is itself a symlink is
	// descended into.
	root, err := filepath.EvalSymlinks(source)
	if err != nil {
		return "", a.walkError(source, err)
	}

	dest := storage.NewDestination(destinationDir)
	name := storage.FormatArchiveName(BaseName(source), timestamp, f.Extension())
	file, err := dest.Create(name)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrArchive, err)
	}
	defer file.Close()

	output, err := file.Stat()
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrArchive, err)
	}

	w, err := codecs[f].open(file)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrArchive, err)
	}

	if err := a.writeTree(ctx, w, root, output); err != nil {
		w.Close()
		return "", a.walkError(source, err)
	}
	if err := w.Close(); err != nil {
		return "", fmt.Errorf("%w: failed to finalize %s: %w", ErrArchive, name, err)
	}
	if err := file.Close(); err != nil {
		return "", fmt.Errorf("%w: failed to close %s: %w", ErrArchive, name, err)
	}

	return file.Name(), nil
}

// walkError classifies a failure that happened after the existence check.
// A source that disappeared in the meantime is still reported as not found.
func (a *Archiver) walkError(source string, err error) error {
	if _, statErr := os.Stat(source); errors.Is(statErr, fs.ErrNotExist) {
		return fmt.Errorf("%w: %s (removed during backup: %v)", ErrSourceNotFound, source, err)
	}
	return fmt.Errorf("%w: %w", ErrArchive, err)
}

// writeTree adds every entry under root to w. The archive being written
// (output) is skipped when the destination lies inside the source.
func (a *Archiver) writeTree(ctx context.Context, w entryWriter, root string, output fs.FileInfo) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if err := ctx.Err(); err != nil {
			return err
		}

		rel, err := filepath.Rel(root, path)
		if err != nil {
			return fmt.Errorf("failed to get relative path for %s: %w", path, err)
		}
		if rel == "." {
			return nil
		}
		name := filepath.ToSlash(rel)

		info, err := d.Info()
		if err != nil {
			return err
		}
		if isOutput(path, info, output) {
			a.logger.Debug().Msgf("Skipping archive being written: %s", path)
			return nil
		}

		switch mode := info.Mode(); {
		case mode.IsDir():
			err = w.writeDir(name, info)
		case mode.IsRegular():
			err = w.writeFile(name, info, path)
		case mode&fs.ModeSymlink != 0:
			err = w.writeSymlink(name, info, path)
		default:
			a.logger.Warn().Msgf("Skipping special file %s (%s)", path, mode.Type())
			return nil
		}
		if err != nil {
			return fmt.Errorf("failed to add %s: %w", name, err)
		}
		return nil
	})
}

func isOutput(path string, info, output fs.FileInfo) bool {
	if info.Mode()&fs.ModeSymlink != 0 {
		target, err := os.Stat(path)
		if err != nil {
			return false
		}
		info = target
	}
	return info.Mode().IsRegular() && os.SameFile(info, output)
}

// BaseName returns the archive base name for a source path: the last
// element of the cleaned path. "." resolves to the working directory's name
// and the filesystem root becomes "root".
func BaseName(sourcePath string) string {
	p := filepath.Clean(sourcePath)
	if p == "." || p == ".." {
		if abs, err := filepath.Abs(p); err == nil {
			p = abs
		}
	}
	base := filepath.Base(p)
	if base == string(filepath.Separator) || base == "." {
		return "root"
	}
	return base
}
