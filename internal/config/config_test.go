package config

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"simplebackup/internal/logging"
)

func writeConfig(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func bufferLogger() (zerolog.Logger, *bytes.Buffer) {
	var buf bytes.Buffer
	return logging.NewWithWriters(zerolog.InfoLevel, &buf), &buf
}

func logLines(buf *bytes.Buffer) []string {
	s := strings.TrimRight(buf.String(), "\n")
	if s == "" {
		return nil
	}
	return strings.Split(s, "\n")
}

func TestParse_Valid(t *testing.T) {
	tests := []struct {
		name    string
		file    string
		content string
		want    Config
	}{
		{
			name:    "json with format",
			file:    "backup_config.json",
			content: `{"sources": ["./docsA", "./missingDir"], "destination": "./out", "archive_format": "gztar"}`,
			want:    Config{Sources: []string{"./docsA", "./missingDir"}, Destination: "./out", ArchiveFormat: "gztar"},
		},
		{
			name:    "json default format",
			file:    "backup_config.json",
			content: `{"sources": ["/srv/data"], "destination": "/backups"}`,
			want:    Config{Sources: []string{"/srv/data"}, Destination: "/backups", ArchiveFormat: "zip"},
		},
		{
			name:    "null format falls back to default",
			file:    "backup_config.json",
			content: `{"sources": [], "destination": "/backups", "archive_format": null}`,
			want:    Config{Sources: []string{}, Destination: "/backups", ArchiveFormat: "zip"},
		},
		{
			name:    "empty sources",
			file:    "backup_config.json",
			content: `{"sources": [], "destination": "/backups"}`,
			want:    Config{Sources: []string{}, Destination: "/backups", ArchiveFormat: "zip"},
		},
		{
			name:    "unsupported format is left to the archiver",
			file:    "backup_config.json",
			content: `{"sources": ["a"], "destination": "b", "archive_format": "rar"}`,
			want:    Config{Sources: []string{"a"}, Destination: "b", ArchiveFormat: "rar"},
		},
		{
			name:    "yaml",
			file:    "backup_config.yaml",
			content: "sources:\n  - /home/me/docs\n  - /etc\ndestination: /mnt/backups\narchive_format: xztar\n",
			want:    Config{Sources: []string{"/home/me/docs", "/etc"}, Destination: "/mnt/backups", ArchiveFormat: "xztar"},
		},
		{
			name:    "no extension is json",
			file:    "backup_config",
			content: `{"sources": ["x"], "destination": "y"}`,
			want:    Config{Sources: []string{"x"}, Destination: "y", ArchiveFormat: "zip"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := Parse(writeConfig(t, tt.file, tt.content))
			require.NoError(t, err)
			require.NotNil(t, cfg)
			assert.Equal(t, tt.want, *cfg)
		})
	}
}

func TestParse_Errors(t *testing.T) {
	tests := []struct {
		name    string
		file    string
		content string
		wantErr error
	}{
		{"malformed json", "c.json", `{"sources": [`, ErrParse},
		{"empty json", "c.json", ``, ErrParse},
		{"trailing garbage", "c.json", `{"sources": [], "destination": "x"} }`, ErrParse},
		{"malformed yaml", "c.yml", "sources: [a\ndestination: b\n", ErrParse},
		{"missing sources", "c.json", `{"destination": "/out"}`, ErrSchema},
		{"missing destination", "c.json", `{"sources": []}`, ErrSchema},
		{"sources not a list", "c.json", `{"sources": "/data", "destination": "/out"}`, ErrSchema},
		{"sources null", "c.json", `{"sources": null, "destination": "/out"}`, ErrSchema},
		{"destination not a string", "c.json", `{"sources": [], "destination": 42}`, ErrSchema},
		{"source element not a string", "c.json", `{"sources": ["/a", 1], "destination": "/out"}`, ErrSchema},
		{"format not a string", "c.json", `{"sources": [], "destination": "/out", "archive_format": 3}`, ErrSchema},
		{"top level list", "c.json", `["/a", "/b"]`, ErrSchema},
		{"empty yaml document", "c.yaml", ``, ErrSchema},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := Parse(writeConfig(t, tt.file, tt.content))
			assert.Nil(t, cfg)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestParse_NotFound(t *testing.T) {
	cfg, err := Parse(filepath.Join(t.TempDir(), "nope.json"))
	assert.Nil(t, cfg)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestParse_Directory(t *testing.T) {
	cfg, err := Parse(t.TempDir())
	assert.Nil(t, cfg)
	assert.ErrorIs(t, err, ErrUnknown)
}

func TestLoad_LogsExactlyOnce(t *testing.T) {
	tests := []struct {
		name      string
		content   *string
		wantLevel string
		wantMsg   string
	}{
		{"success", ptr(`{"sources": ["a"], "destination": "b"}`), "INFO", "Configuration loaded successfully"},
		{"not found", nil, "ERROR", "Configuration file not found"},
		{"parse error", ptr(`{not json`), "ERROR", "Could not decode configuration"},
		{"schema error", ptr(`{"sources": "a", "destination": "b"}`), "ERROR", "'sources' in config must be a list"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "backup_config.json")
			if tt.content != nil {
				require.NoError(t, os.WriteFile(path, []byte(*tt.content), 0o644))
			}

			logger, buf := bufferLogger()
			_, _ = Load(path, logger)

			got := logLines(buf)
			require.Len(t, got, 1)
			assert.Contains(t, got[0], " - "+tt.wantLevel+" - ")
			assert.Contains(t, got[0], tt.wantMsg)
		})
	}
}

func TestLoad_EchoesValues(t *testing.T) {
	path := writeConfig(t, "backup_config.json", `{"sources": ["/srv/a", "/srv/b"], "destination": "/mnt/out", "archive_format": "tar"}`)
	logger, buf := bufferLogger()

	cfg, err := Load(path, logger)
	require.NoError(t, err)
	assert.Equal(t, "tar", cfg.ArchiveFormat)

	out := buf.String()
	assert.Contains(t, out, "/srv/a")
	assert.Contains(t, out, "/mnt/out")
	assert.Contains(t, out, "archive_format=tar")
}

func ptr(s string) *string { return &s }
