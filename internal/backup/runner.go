package backup

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"simplebackup/internal/config"
	"simplebackup/internal/storage"
)

// ErrDestinationCreate aborts a run before any source is processed.
var ErrDestinationCreate = errors.New("could not create destination directory")

const separator = "----------------------"

// Archiver creates one archive of sourcePath inside destinationDir and
// returns its path. Implementations log their own failures.
type Archiver interface {
	Archive(ctx context.Context, sourcePath, destinationDir, format string) (string, error)
}

// Summary holds the per-run tallies.
type Summary struct {
	Total      int
	Successful int
	Failed     int
}

// Runner backs up every configured source, one after another.
type Runner struct {
	archiver Archiver
	logger   zerolog.Logger
	newRunID func() string
}

// NewRunner creates a Runner that archives with archiver and logs to logger.
func NewRunner(archiver Archiver, logger zerolog.Logger) *Runner {
	return &Runner{
		archiver: archiver,
		logger:   logger,
		newRunID: uuid.NewString,
	}
}

// Run processes cfg.Sources in order. A failing source is counted and
// skipped; only a destination that cannot be created stops the run, in
// which case the returned error wraps ErrDestinationCreate.
func (r *Runner) Run(ctx context.Context, cfg *config.Config) (Summary, error) {
	r.logger.Info().Msgf("Backup Utility Started (run %s)", r.newRunID())
	r.logger.Info().Msg(separator)
	r.logger.Info().Msg("Effective Configuration:")
	r.logger.Info().Msgf("  Sources to back up: %v", cfg.Sources)
	r.logger.Info().Msgf("  Destination for backups: %s", cfg.Destination)
	r.logger.Info().Msgf("  Archive format: %s", cfg.ArchiveFormat)
	r.logger.Info().Msg(separator)

	summary := Summary{Total: len(cfg.Sources)}

	if len(cfg.Sources) == 0 {
		r.logger.Warn().Msg("No source directories configured. Exiting.")
		return summary, nil
	}

	if err := r.ensureDestination(cfg.Destination); err != nil {
		r.logger.Error().Msgf("Could not create destination directory '%s': %v", cfg.Destination, err)
		return summary, fmt.Errorf("%w: %w", ErrDestinationCreate, err)
	}

	for _, src := range cfg.Sources {
		source := filepath.Clean(src)
		if _, err := os.Stat(source); err != nil {
			r.logger.Warn().Msgf("Source path '%s' does not exist. Skipping.", source)
			summary.Failed++
			continue
		}

		r.logger.Info().Msgf("Processing source: %s", source)
		if _, err := r.archiver.Archive(ctx, source, cfg.Destination, cfg.ArchiveFormat); err != nil {
			summary.Failed++
			continue
		}
		summary.Successful++
	}

	r.logSummary(summary)
	return summary, nil
}

func (r *Runner) ensureDestination(path string) error {
	_, statErr := os.Stat(path)
	if err := storage.NewDestination(path).Ensure(); err != nil {
		return err
	}
	if os.IsNotExist(statErr) {
		r.logger.Info().Msgf("Created destination directory: %s", path)
	}
	return nil
}

func (r *Runner) logSummary(s Summary) {
	r.logger.Info().Msg("--- Backup Summary ---")
	r.logger.Info().Msgf("Total sources configured: %d", s.Total)
	r.logger.Info().Msgf("Successful backups: %d", s.Successful)
	r.logger.Info().Msgf("Failed backups: %d", s.Failed)
	r.logger.Info().Msgf("total_sources=%d successful_backups=%d failed_backups=%d", s.Total, s.Successful, s.Failed)
	r.logger.Info().Msg(separator)
	r.logger.Info().Msg("Backup Utility Finished")
}
