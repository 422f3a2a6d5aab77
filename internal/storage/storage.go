package storage

import (
	"fmt"
	"time"
)

// TimestampFormat is the layout of the timestamp embedded in archive names.
const TimestampFormat = "20060102_150405"

// ArchiveMetadata describes a single archive file in a destination.
type ArchiveMetadata struct {
	// Path is the archive's full path.
	Path string
	// FileName is the archive's base name (e.g. "docs_20261019_120000.zip").
	FileName string
	// Size is the archive size in bytes.
	Size int64
	// ModifiedAt is the archive file's modification time.
	ModifiedAt time.Time
}

// FormatArchiveName creates a consistent archive filename from a base name,
// a timestamp and a format extension.
// Format: <base>_<YYYYMMDD_HHMMSS><ext>
func FormatArchiveName(base string, t time.Time, ext string) string {
	return base + "_" + t.Format(TimestampFormat) + ext
}

// FormatSize returns a human-readable size string.
func FormatSize(bytes int64) string {
	switch {
	case bytes >= 1<<30:
		return fmt.Sprintf("%.1f GB", float64(bytes)/float64(1<<30))
	case bytes >= 1<<20:
		return fmt.Sprintf("%.1f MB", float64(bytes)/float64(1<<20))
	case bytes >= 1<<10:
		return fmt.Sprintf("%.1f KB", float64(bytes)/float64(1<<10))
	default:
		return fmt.Sprintf("%d B", bytes)
	}
}
