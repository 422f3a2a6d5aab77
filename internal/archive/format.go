package archive

import (
	"fmt"
	"io"
	"io/fs"
	"sort"

	"github.com/dsnet/compress/bzip2"
	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
	"github.com/ulikunitz/xz"
)

// Format identifies an archive container and its compression.
type Format string

const (
	Zip     Format = "zip"
	Tar     Format = "tar"
	GzTar   Format = "gztar"
	BzTar   Format = "bztar"
	XzTar   Format = "xztar"
	ZstdTar Format = "zstdtar"
)

// entryWriter adds the entries of a directory tree to an archive stream.
// Names are slash separated and relative to the archived root.
type entryWriter interface {
	writeDir(name string, info fs.FileInfo) error
	writeFile(name string, info fs.FileInfo, path string) error
	writeSymlink(name string, info fs.FileInfo, path string) error
	Close() error
}

type codec struct {
	ext  string
	open func(w io.Writer) (entryWriter, error)
}

var codecs = map[Format]codec{
	Zip: {ext: ".zip", open: newZipWriter},
	Tar: {ext: ".tar", open: func(w io.Writer) (entryWriter, error) {
		return newTarWriter(w, nil), nil
	}},
	GzTar: {ext: ".tar.gz", open: compressedTar(func(w io.Writer) (io.WriteCloser, error) {
		return gzip.NewWriterLevel(w, gzip.DefaultCompression)
	})},
	BzTar: {ext: ".tar.bz2", open: compressedTar(func(w io.Writer) (io.WriteCloser, error) {
		return bzip2.NewWriter(w, &bzip2.WriterConfig{Level: bzip2.BestCompression})
	})},
	XzTar: {ext: ".tar.xz", open: compressedTar(func(w io.Writer) (io.WriteCloser, error) {
		return xz.NewWriter(w)
	})},
	ZstdTar: {ext: ".tar.zst", open: compressedTar(func(w io.Writer) (io.WriteCloser, error) {
		return zstd.NewWriter(w)
	})},
}

func compressedTar(compress func(io.Writer) (io.WriteCloser, error)) func(io.Writer) (entryWriter, error) {
	return func(w io.Writer) (entryWriter, error) {
		cw, err := compress(w)
		if err != nil {
			return nil, fmt.Errorf("failed to create compressor: %w", err)
		}
		return newTarWriter(cw, cw), nil
	}
}

// ParseFormat maps a configured format name to a Format. Names are matched
// exactly.
func ParseFormat(name string) (Format, error) {
	f := Format(name)
	if _, ok := codecs[f]; !ok {
		return "", fmt.Errorf("%w: %q (supported: %v)", ErrUnsupportedFormat, name, Formats())
	}
	return f, nil
}

// Extension returns the file extension, including the leading dot.
func (f Format) Extension() string {
	return codecs[f].ext
}

// Formats returns the supported format names in sorted order.
func Formats() []Format {
	out := make([]Format, 0, len(codecs))
	for f := range codecs {
		out = append(out, f)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Extensions returns the file extensions of all supported formats.
func Extensions() []string {
	out := make([]string, 0, len(codecs))
	for _, f := range Formats() {
		out = append(out, f.Extension())
	}
	return out
}
