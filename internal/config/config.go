// Package config resolves eventgraph settings from defaults, a YAML file,
// the environment and a .env file.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"github.com/hashicorp/go-multierror"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"eventgraph/internal/extract"
	"eventgraph/internal/render"
	"eventgraph/internal/scanner"
)

// Config holds every tunable setting. Flags are applied on top by the CLI.
type Config struct {
	Extensions       []string `yaml:"extensions"`
	Extractor        string   `yaml:"extractor"`
	SinkMethods      []string `yaml:"sink_methods"`
	SourceMethods    []string `yaml:"source_methods"`
	ListenTarget     string   `yaml:"listen_target"`
	IgnoreEvents     []string `yaml:"ignore_events"`
	DirConcurrency   int      `yaml:"dir_concurrency"`
	FileConcurrency  int      `yaml:"file_concurrency"`
	RespectGitignore bool     `yaml:"respect_gitignore"`
	Format           string   `yaml:"format"`
	LogLevel         string   `yaml:"log_level"`
}

// Default returns the built-in settings.
func Default() Config {
	p := extract.DefaultPatterns()
	return Config{
		Extensions:       []string{".js"},
		Extractor:        extract.ExtractorRegex,
		SinkMethods:      p.SinkMethods,
		SourceMethods:    p.SourceMethods,
		ListenTarget:     p.Target,
		DirConcurrency:   scanner.DefaultDirConcurrency,
		FileConcurrency:  scanner.DefaultFileConcurrency,
		RespectGitignore: true,
		Format:           string(render.FormatDOT),
		LogLevel:         "warn",
	}
}

// LoadDotEnv loads a .env file from the working directory if there is one.
// Variables already set in the environment are left alone.
func LoadDotEnv() error {
	err := godotenv.Load()
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("load .env: %w", err)
	}
	return nil
}

// Load resolves the configuration. When path is empty the default location
// is used and a missing file is not an error; an explicit path must exist.
func Load(path string) (Config, error) {
	cfg := Default()

	explicit := path != ""
	if !explicit {
		p, err := DefaultConfigPath()
		if err != nil {
			return cfg, err
		}
		path = p
		explicit = os.Getenv("EVENTGRAPH_CONFIG") != ""
	}

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := decode(data, &cfg); err != nil {
			return cfg, fmt.Errorf("config %s: %w", path, err)
		}
	case errors.Is(err, fs.ErrNotExist) && !explicit:
	default:
		return cfg, fmt.Errorf("read config: %w", err)
	}

	if err := applyEnv(&cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func decode(data []byte, cfg *Config) error {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}

func applyEnv(cfg *Config) error {
	var result *multierror.Error

	if v := os.Getenv("EVENTGRAPH_EXTRACTOR"); v != "" {
		cfg.Extractor = v
	}
	if v := os.Getenv("EVENTGRAPH_FORMAT"); v != "" {
		cfg.Format = v
	}
	if v := os.Getenv("EVENTGRAPH_LOG_LEVEL"); v != "" {
		cfg.LogLevel = v
	}
	for key, dst := range map[string]*int{
		"EVENTGRAPH_DIR_CONCURRENCY":  &cfg.DirConcurrency,
		"EVENTGRAPH_FILE_CONCURRENCY": &cfg.FileConcurrency,
	} {
		v := os.Getenv(key)
		if v == "" {
			continue
		}
		n, err := strconv.Atoi(v)
		if err != nil {
			result = multierror.Append(result, fmt.Errorf("%s: %w", key, err))
			continue
		}
		*dst = n
	}
	return result.ErrorOrNil()
}

// Validate reports every invalid setting at once.
func (c Config) Validate() error {
	var result *multierror.Error

	if len(c.Extensions) == 0 {
		result = multierror.Append(result, errors.New("extensions: at least one extension is required"))
	}
	if len(c.SinkMethods) == 0 {
		result = multierror.Append(result, errors.New("sink_methods: at least one method is required"))
	}
	if len(c.SourceMethods) == 0 {
		result = multierror.Append(result, errors.New("source_methods: at least one method is required"))
	}
	if strings.TrimSpace(c.ListenTarget) == "" {
		result = multierror.Append(result, errors.New("listen_target: must not be empty"))
	}
	switch strings.ToLower(c.Extractor) {
	case extract.ExtractorRegex, extract.ExtractorTreeSitter:
	default:
		result = multierror.Append(result, fmt.Errorf("extractor: unknown extractor %q", c.Extractor))
	}
	if _, err := render.ParseFormat(c.Format); err != nil {
		result = multierror.Append(result, fmt.Errorf("format: %w", err))
	}
	if c.DirConcurrency < 1 {
		result = multierror.Append(result, fmt.Errorf("dir_concurrency: must be at least 1, got %d", c.DirConcurrency))
	}
	if c.FileConcurrency < 1 {
		result = multierror.Append(result, fmt.Errorf("file_concurrency: must be at least 1, got %d", c.FileConcurrency))
	}
	if _, err := c.SlogLevel(); err != nil {
		result = multierror.Append(result, fmt.Errorf("log_level: %w", err))
	}

	return result.ErrorOrNil()
}

// SlogLevel parses LogLevel.
func (c Config) SlogLevel() (slog.Level, error) {
	var level slog.Level
	err := level.UnmarshalText([]byte(c.LogLevel))
	return level, err
}

// Patterns returns the extractor call patterns.
func (c Config) Patterns() extract.Patterns {
	return extract.Patterns{
		SinkMethods:   c.SinkMethods,
		SourceMethods: c.SourceMethods,
		Target:        c.ListenTarget,
	}
}

// ScanOptions returns the scanner settings.
func (c Config) ScanOptions() scanner.Options {
	return scanner.Options{
		Walk: scanner.WalkOptions{
			Extensions:       c.Extensions,
			RespectGitignore: c.RespectGitignore,
		},
		DirConcurrency:  c.DirConcurrency,
		FileConcurrency: c.FileConcurrency,
	}
}
