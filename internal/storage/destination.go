package storage

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// Destination is the local directory archives are written to.
type Destination struct {
	basePath string
}

// NewDestination returns a Destination rooted at basePath. Nothing is
// created until Ensure or Create is called.
func NewDestination(basePath string) *Destination {
	return &Destination{basePath: basePath}
}

// Path returns the destination directory.
func (d *Destination) Path() string {
	return d.basePath
}

// Ensure creates the destination directory and any missing parents.
// It is a no-op when the directory already exists.
func (d *Destination) Ensure() error {
	if err := os.MkdirAll(d.basePath, 0o755); err != nil {
		return fmt.Errorf("failed to create directory %s: %w", d.basePath, err)
	}
	return nil
}

// Create opens <basePath>/<fileName> for writing, truncating an existing file
// of the same name. The caller must close the returned file.
func (d *Destination) Create(fileName string) (*os.File, error) {
	if err := d.Ensure(); err != nil {
		return nil, err
	}
	path := filepath.Join(d.basePath, fileName)
	file, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("failed to create file %s: %w", path, err)
	}
	return file, nil
}

// List returns the archives in the destination whose names end in one of
// extensions, sorted newest-first by modification time. A missing
// destination yields no archives.
func (d *Destination) List(extensions []string) ([]ArchiveMetadata, error) {
	entries, err := os.ReadDir(d.basePath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to list directory %s: %w", d.basePath, err)
	}

	var archives []ArchiveMetadata
	for _, entry := range entries {
		if entry.IsDir() || !hasAnySuffix(entry.Name(), extensions) {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		archives = append(archives, ArchiveMetadata{
			Path:       filepath.Join(d.basePath, entry.Name()),
			FileName:   entry.Name(),
			Size:       info.Size(),
			ModifiedAt: info.ModTime(),
		})
	}

	sort.Slice(archives, func(i, j int) bool {
		if archives[i].ModifiedAt.Equal(archives[j].ModifiedAt) {
			return archives[i].FileName > archives[j].FileName
		}
		return archives[i].ModifiedAt.After(archives[j].ModifiedAt)
	})

	return archives, nil
}

func hasAnySuffix(name string, suffixes []string) bool {
	for _, s := range suffixes {
		if strings.HasSuffix(name, s) {
			return true
		}
	}
	return false
}
