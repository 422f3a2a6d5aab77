package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog"
	"gopkg.in/yaml.v3"
)

const (
	// DefaultPath is used when no config path is given on the command line
	// or in the environment.
	DefaultPath = "backup_config.json"
	// DefaultArchiveFormat applies when archive_format is absent.
	DefaultArchiveFormat = "zip"
)

var (
	ErrNotFound = errors.New("configuration file not found")
	ErrParse    = errors.New("configuration file could not be decoded")
	ErrSchema   = errors.New("invalid configuration")
	ErrUnknown  = errors.New("unexpected error loading configuration")
)

// Config is the validated backup configuration.
type Config struct {
	Sources       []string `json:"sources" yaml:"sources"`
	Destination   string   `json:"destination" yaml:"destination"`
	ArchiveFormat string   `json:"archive_format" yaml:"archive_format"`
}

// Load parses the config file at path and logs the outcome. Exactly one log
// event is written per call; on failure the returned config is nil.
func Load(path string, logger zerolog.Logger) (*Config, error) {
	cfg, err := Parse(path)
	if err != nil {
		switch {
		case errors.Is(err, ErrNotFound):
			logger.Error().Msgf("Configuration file not found at '%s'", path)
		case errors.Is(err, ErrParse):
			logger.Error().Msgf("Could not decode configuration from '%s'. Check for syntax errors: %v", path, errors.Unwrap(err))
		case errors.Is(err, ErrSchema):
			logger.Error().Msg(err.Error())
		default:
			logger.Error().Msgf("An unexpected error occurred loading config from '%s': %+v", path, err)
		}
		return nil, err
	}

	logger.Info().Msgf("Configuration loaded successfully from %s (sources=%v, destination=%s, archive_format=%s)",
		path, cfg.Sources, cfg.Destination, cfg.ArchiveFormat)
	return cfg, nil
}

// Parse reads and validates the config file at path without logging.
// Files ending in .yaml or .yml are decoded as YAML, everything else as JSON.
func Parse(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, path)
		}
		return nil, fmt.Errorf("%w: reading %s: %w", ErrUnknown, path, err)
	}

	raw, err := decode(path, data)
	if err != nil {
		return nil, &parseError{path: path, err: err}
	}
	return validate(raw)
}

type parseError struct {
	path string
	err  error
}

func (e *parseError) Error() string {
	return fmt.Sprintf("%v: %s: %v", ErrParse, e.path, e.err)
}

// Unwrap exposes the decoder error; Is reports the ErrParse class.
func (e *parseError) Unwrap() error { return e.err }

func (e *parseError) Is(target error) bool { return target == ErrParse }

func decode(path string, data []byte) (any, error) {
	var raw any
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &raw); err != nil {
			return nil, err
		}
	default:
		if err := json.Unmarshal(data, &raw); err != nil {
			return nil, err
		}
	}
	return raw, nil
}

// validate turns decoded key-value data into a Config. It never returns a
// partially filled config.
func validate(raw any) (*Config, error) {
	m, ok := raw.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("%w: config file must contain a mapping with 'sources' (list) and 'destination' (string)", ErrSchema)
	}

	sourcesRaw, hasSources := m["sources"]
	destRaw, hasDest := m["destination"]
	if !hasSources || !hasDest {
		return nil, fmt.Errorf("%w: config file must contain 'sources' (list) and 'destination' (string)", ErrSchema)
	}

	list, ok := sourcesRaw.([]any)
	if !ok {
		return nil, fmt.Errorf("%w: 'sources' in config must be a list", ErrSchema)
	}
	dest, ok := destRaw.(string)
	if !ok {
		return nil, fmt.Errorf("%w: 'destination' in config must be a string", ErrSchema)
	}

	sources := make([]string, 0, len(list))
	for i, v := range list {
		s, ok := v.(string)
		if !ok {
			return nil, fmt.Errorf("%w: 'sources[%d]' in config must be a string", ErrSchema, i)
		}
		sources = append(sources, s)
	}

	format := DefaultArchiveFormat
	if v := m["archive_format"]; v != nil {
		s, ok := v.(string)
		if !ok {
			return nil, fmt.Errorf("%w: 'archive_format' in config must be a string", ErrSchema)
		}
		format = s
	}

	return &Config{
		Sources:       sources,
		Destination:   dest,
		ArchiveFormat: format,
	}, nil
}
