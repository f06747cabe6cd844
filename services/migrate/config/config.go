// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package config loads ngmigrate settings.
//
// Settings are resolved in three layers: the embedded defaults, an optional
// YAML file, then NGMIGRATE_* environment variables. The result is validated
// once all layers are applied.
package config

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"github.com/AleutianAI/ngmigrate/services/migrate/ast"
	"github.com/AleutianAI/ngmigrate/services/migrate/hostbinding"
	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"gopkg.in/yaml.v3"
)

//go:embed defaults.yaml
var defaultsYAML []byte

var tracer = otel.Tracer("migrate.config")

// MaxYAMLFileSize bounds the size of a user config file.
const MaxYAMLFileSize = 1 << 20

// EnvPrefix prefixes every environment override.
const EnvPrefix = "NGMIGRATE_"

var (
	// ErrInvalidConfig indicates the merged configuration failed validation.
	ErrInvalidConfig = errors.New("invalid configuration")

	// ErrConfigTooLarge indicates the config file exceeds MaxYAMLFileSize.
	ErrConfigTooLarge = errors.New("config file too large")
)

// Config is the complete tool configuration.
//
// Thread Safety: Immutable after loading; safe for concurrent use.
type Config struct {
	// Marker names the member annotation to consume.
	Marker MarkerConfig `yaml:"marker" validate:"required"`

	// Host names the class decorators that carry the host map.
	Host HostConfig `yaml:"host" validate:"required"`

	// BracketKeys renders new keys as property bindings.
	BracketKeys bool `yaml:"bracket_keys"`

	// Quote is "single" or "double".
	Quote string `yaml:"quote" validate:"oneof=single double"`

	// RemoveUnusedImport drops the marker import specifier when unused.
	RemoveUnusedImport bool `yaml:"remove_unused_import"`

	// MaxFileSize is the largest file that will be parsed, in bytes.
	MaxFileSize int64 `yaml:"max_file_size" validate:"gt=0"`

	// Jobs is the number of files converted concurrently.
	Jobs int `yaml:"jobs" validate:"gte=1,lte=256"`

	// Extensions are the file suffixes picked up when expanding directories.
	Extensions []string `yaml:"extensions" validate:"min=1,dive,startswith=."`

	// ExcludeDirs are directory names skipped when expanding directories.
	ExcludeDirs []string `yaml:"exclude_dirs" validate:"dive,required"`

	// Log configures the slog handler installed by the CLI.
	Log LogConfig `yaml:"log"`
}

// MarkerConfig identifies the member annotation by its export.
type MarkerConfig struct {
	Module string `yaml:"module" validate:"required"`
	Name   string `yaml:"name" validate:"required"`
}

// HostConfig identifies the class decorators and the host property.
type HostConfig struct {
	Module     string   `yaml:"module" validate:"required"`
	Decorators []string `yaml:"decorators" validate:"min=1,dive,required"`
	Key        string   `yaml:"key" validate:"required"`
}

// LogConfig selects the log level and output format.
type LogConfig struct {
	Level  string `yaml:"level" validate:"oneof=debug info warn error"`
	Format string `yaml:"format" validate:"oneof=text json"`
}

// Default returns the embedded default configuration.
func Default() *Config {
	var cfg Config
	if err := yaml.Unmarshal(defaultsYAML, &cfg); err != nil {
		panic(fmt.Sprintf("config: embedded defaults are invalid: %v", err))
	}
	return &cfg
}

// Parse overlays YAML data onto the defaults and validates the result.
//
// Description:
//
//	Keys absent from data keep their default value. Lists given in data
//	replace the default list. Environment variables are not consulted.
//
// Inputs:
//   - ctx: Context for tracing.
//   - data: YAML bytes. May be empty.
//
// Outputs:
//   - *Config: The validated configuration.
//   - error: Wraps ErrConfigTooLarge, a YAML error or ErrInvalidConfig.
func Parse(ctx context.Context, data []byte) (*Config, error) {
	_, span := tracer.Start(ctx, "config.Parse")
	defer span.End()

	if len(data) > MaxYAMLFileSize {
		return nil, fmt.Errorf("%w: %d > %d bytes", ErrConfigTooLarge, len(data), MaxYAMLFileSize)
	}

	cfg := Default()
	if len(data) > 0 {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing YAML: %w", err)
		}
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	span.SetAttributes(
		attribute.String("marker", cfg.Marker.Module+"#"+cfg.Marker.Name),
		attribute.Int("jobs", cfg.Jobs),
	)
	return cfg, nil
}

// Load resolves the configuration from all layers.
//
// Description:
//
//	Reads the YAML file at path (skipped when path is empty), overlays it on
//	the defaults, then applies NGMIGRATE_* overrides. Overrides come from
//	the process environment first and from envFile second, so an exported
//	variable always beats the .env file. A missing envFile is ignored.
//
// Inputs:
//   - ctx: Context for tracing.
//   - path: Optional YAML config file.
//   - envFile: Optional dotenv file, typically ".env".
//
// Outputs:
//   - *Config: The validated configuration.
//   - error: Non-nil if any layer fails to load or the result is invalid.
func Load(ctx context.Context, path, envFile string) (*Config, error) {
	ctx, span := tracer.Start(ctx, "config.Load")
	defer span.End()

	var data []byte
	if path != "" {
		info, err := os.Stat(path)
		if err != nil {
			return nil, fmt.Errorf("reading config: %w", err)
		}
		if info.Size() > MaxYAMLFileSize {
			return nil, fmt.Errorf("%w: %s", ErrConfigTooLarge, path)
		}
		if data, err = os.ReadFile(path); err != nil {
			return nil, fmt.Errorf("reading config: %w", err)
		}
	}

	cfg, err := Parse(ctx, data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", displayPath(path), err)
	}

	dotenv := map[string]string{}
	if envFile != "" {
		dotenv, err = godotenv.Read(envFile)
		if err != nil && !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("reading %s: %w", envFile, err)
		}
	}
	lookup := func(key string) (string, bool) {
		if v, ok := os.LookupEnv(key); ok {
			return v, true
		}
		v, ok := dotenv[key]
		return v, ok
	}
	if err := applyEnv(cfg, lookup); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("after environment overrides: %w", err)
	}

	slog.Debug("config loaded",
		slog.String("path", displayPath(path)),
		slog.String("marker", cfg.Marker.Module+"#"+cfg.Marker.Name),
		slog.Any("host_decorators", cfg.Host.Decorators),
		slog.Bool("bracket_keys", cfg.BracketKeys),
		slog.Int("jobs", cfg.Jobs))
	return cfg, nil
}

func displayPath(path string) string {
	if path == "" {
		return "<defaults>"
	}
	return path
}

// applyEnv applies NGMIGRATE_* overrides found through lookup.
func applyEnv(cfg *Config, lookup func(string) (string, bool)) error {
	str := func(name string, dst *string) {
		if v, ok := lookup(EnvPrefix + name); ok && strings.TrimSpace(v) != "" {
			*dst = strings.TrimSpace(v)
		}
	}
	str("MARKER_MODULE", &cfg.Marker.Module)
	str("MARKER_NAME", &cfg.Marker.Name)
	str("HOST_MODULE", &cfg.Host.Module)
	str("HOST_KEY", &cfg.Host.Key)
	str("QUOTE", &cfg.Quote)
	str("LOG_LEVEL", &cfg.Log.Level)
	str("LOG_FORMAT", &cfg.Log.Format)

	if v, ok := lookup(EnvPrefix + "HOST_DECORATORS"); ok && strings.TrimSpace(v) != "" {
		cfg.Host.Decorators = splitList(v)
	}
	if v, ok := lookup(EnvPrefix + "EXCLUDE_DIRS"); ok {
		cfg.ExcludeDirs = splitList(v)
	}

	for name, dst := range map[string]*bool{
		"BRACKET_KEYS":         &cfg.BracketKeys,
		"REMOVE_UNUSED_IMPORT": &cfg.RemoveUnusedImport,
	} {
		v, ok := lookup(EnvPrefix + name)
		if !ok || strings.TrimSpace(v) == "" {
			continue
		}
		b, err := strconv.ParseBool(strings.TrimSpace(v))
		if err != nil {
			return fmt.Errorf("%w: %s%s: %v", ErrInvalidConfig, EnvPrefix, name, err)
		}
		*dst = b
	}

	if v, ok := lookup(EnvPrefix + "JOBS"); ok && strings.TrimSpace(v) != "" {
		n, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			return fmt.Errorf("%w: %sJOBS: %v", ErrInvalidConfig, EnvPrefix, err)
		}
		cfg.Jobs = n
	}
	if v, ok := lookup(EnvPrefix + "MAX_FILE_SIZE"); ok && strings.TrimSpace(v) != "" {
		n, err := strconv.ParseInt(strings.TrimSpace(v), 10, 64)
		if err != nil {
			return fmt.Errorf("%w: %sMAX_FILE_SIZE: %v", ErrInvalidConfig, EnvPrefix, err)
		}
		cfg.MaxFileSize = n
	}
	return nil
}

func splitList(v string) []string {
	var out []string
	for _, part := range strings.Split(v, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// Validate checks field constraints.
//
// Outputs:
//   - error: Wraps ErrInvalidConfig and lists every failing field.
func (c *Config) Validate() error {
	err := validate.Struct(c)
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	msgs := make([]string, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		if fe.Param() != "" {
			msgs = append(msgs, fmt.Sprintf("%s: failed %s=%s (got %v)", fe.Namespace(), fe.Tag(), fe.Param(), fe.Value()))
		} else {
			msgs = append(msgs, fmt.Sprintf("%s: failed %s", fe.Namespace(), fe.Tag()))
		}
	}
	return fmt.Errorf("%w: %s", ErrInvalidConfig, strings.Join(msgs, "; "))
}

// HostBindingOptions converts the configuration into engine options.
func (c *Config) HostBindingOptions() hostbinding.Options {
	quote := byte('\'')
	if c.Quote == "double" {
		quote = '"'
	}
	return hostbinding.Options{
		MarkerModule:       c.Marker.Module,
		MarkerName:         c.Marker.Name,
		HostModule:         c.Host.Module,
		HostDecorators:     append([]string(nil), c.Host.Decorators...),
		HostKey:            c.Host.Key,
		BracketKeys:        c.BracketKeys,
		Quote:              quote,
		RemoveUnusedImport: c.RemoveUnusedImport,
	}
}

// ParseOptions returns the parser options implied by the configuration.
func (c *Config) ParseOptions() []ast.ParseOption {
	return []ast.ParseOption{ast.WithMaxFileSize(c.MaxFileSize)}
}

// SlogLevel maps Log.Level to a slog.Level.
func (c *Config) SlogLevel() slog.Level {
	switch c.Log.Level {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	}
	return slog.LevelInfo
}
