package archive

import (
	"archive/tar"
	"io"
	"io/fs"
	"os"

	"github.com/klauspost/compress/flate"
	"github.com/klauspost/compress/zip"
)

type zipWriter struct {
	zw *zip.Writer
}

func newZipWriter(w io.Writer) (entryWriter, error) {
	zw := zip.NewWriter(w)
	zw.RegisterCompressor(zip.Deflate, func(out io.Writer) (io.WriteCloser, error) {
		return flate.NewWriter(out, flate.DefaultCompression)
	})
	return &zipWriter{zw: zw}, nil
}

func (z *zipWriter) writeDir(name string, info fs.FileInfo) error {
	header, err := zip.FileInfoHeader(info)
	if err != nil {
		return err
	}
	header.Name = name + "/"
	header.Method = zip.Store
	_, err = z.zw.CreateHeader(header)
	return err
}

func (z *zipWriter) writeFile(name string, info fs.FileInfo, path string) error {
	header, err := zip.FileInfoHeader(info)
	if err != nil {
		return err
	}
	header.Name = name
	header.Method = zip.Deflate

	w, err := z.zw.CreateHeader(header)
	if err != nil {
		return err
	}
	return copyFile(w, path)
}

// Zip entries follow symbolic links: the link is stored as the directory or
// file it points to.
func (z *zipWriter) writeSymlink(name string, _ fs.FileInfo, path string) error {
	target, err := os.Stat(path)
	if err != nil {
		return err
	}
	if target.IsDir() {
		return z.writeDir(name, target)
	}
	return z.writeFile(name, target, path)
}

func (z *zipWriter) Close() error {
	return z.zw.Close()
}

type tarWriter struct {
	tw         *tar.Writer
	compressor io.Closer
}

func newTarWriter(w io.Writer, compressor io.Closer) *tarWriter {
	return &tarWriter{tw: tar.NewWriter(w), compressor: compressor}
}

func (t *tarWriter) writeDir(name string, info fs.FileInfo) error {
	header, err := tar.FileInfoHeader(info, "")
	if err != nil {
		return err
	}
	header.Name = name + "/"
	return t.tw.WriteHeader(header)
}

func (t *tarWriter) writeFile(name string, info fs.FileInfo, path string) error {
	header, err := tar.FileInfoHeader(info, "")
	if err != nil {
		return err
	}
	header.Name = name
	if err := t.tw.WriteHeader(header); err != nil {
		return err
	}
	return copyFile(t.tw, path)
}

func (t *tarWriter) writeSymlink(name string, info fs.FileInfo, path string) error {
	link, err := os.Readlink(path)
	if err != nil {
		return err
	}
	header, err := tar.FileInfoHeader(info, link)
	if err != nil {
		return err
	}
	header.Name = name
	return t.tw.WriteHeader(header)
}

// Close finalizes the tar stream and then the compressor, if any.
func (t *tarWriter) Close() error {
	if err := t.tw.Close(); err != nil {
		return err
	}
	if t.compressor != nil {
		return t.compressor.Close()
	}
	return nil
}

func copyFile(w io.Writer, path string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	_, err = io.Copy(w, f)
	return err
}
