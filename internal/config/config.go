// Copyright 2025 The DBQ Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//      http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package config holds the dbqrules application configuration.
package config

import (
	"errors"
	"fmt"
	"unicode/utf8"

	"github.com/DataBridgeTech/dbqrules"
)

const (
	DefaultFileName  = "dbqrules.yaml"
	DefaultOutputDir = "dq_output"
	DefaultFormat    = FormatTable
	EnvPrefix        = "DBQRULES_"

	FormatTable = "table"
	FormatJSON  = "json"
)

// Config is the merged result of defaults, config file, environment and flags.
type Config struct {
	// Input is a delimited file; when empty the dataset comes from Source.
	Input      string `koanf:"input"`
	Delimiter  string `koanf:"delimiter"`
	ChecksFile string `koanf:"checks_file"`
	SampleSize int    `koanf:"sample_size"`
	Workers    int    `koanf:"workers"`
	OutputDir  string `koanf:"output_dir"`
	Format     string `koanf:"format"`
	Verbose    bool   `koanf:"verbose"`
	// MetricsFile receives the engine metrics in Prometheus text format.
	MetricsFile string       `koanf:"metrics_file"`
	Source      SourceConfig `koanf:"source"`
	Export      ExportConfig `koanf:"export"`

	// File is the config file that was loaded, if any.
	File string `koanf:"-"`
}

type SourceConfig struct {
	Type     string   `koanf:"type"`
	Host     string   `koanf:"host"`
	Port     int      `koanf:"port"`
	Database string   `koanf:"database"`
	Username string   `koanf:"username"`
	Password string   `koanf:"password"`
	Path     string   `koanf:"path"`
	PoolSize int      `koanf:"pool_size"`
	Dataset  string   `koanf:"dataset"`
	Where    string   `koanf:"where"`
	Key      []string `koanf:"key"`
}

type ExportConfig struct {
	Enabled bool     `koanf:"enabled"`
	S3      S3Config `koanf:"s3"`
}

type S3Config struct {
	Bucket         string `koanf:"bucket"`
	Region         string `koanf:"region"`
	Endpoint       string `koanf:"endpoint"`
	Prefix         string `koanf:"prefix"`
	AccessKeyID    string `koanf:"access_key_id"`
	SecretKey      string `koanf:"secret_key"`
	ForcePathStyle bool   `koanf:"force_path_style"`
}

// UsesSource reports whether the dataset is loaded from a database.
func (c *Config) UsesSource() bool {
	return c.Input == "" && c.Source.Type != ""
}

// UsesS3 reports whether violations are exported to a bucket instead of OutputDir.
func (c *Config) UsesS3() bool {
	return c.Export.S3.Bucket != ""
}

func (c *Config) DataSource() *dbqrules.DataSource {
	return &dbqrules.DataSource{
		Type: dbqrules.DataSourceType(c.Source.Type),
		Configuration: dbqrules.ConnectionConfig{
			Host:     c.Source.Host,
			Port:     c.Source.Port,
			Username: c.Source.Username,
			Password: c.Source.Password,
			Database: c.Source.Database,
			Path:     c.Source.Path,
			PoolSize: c.Source.PoolSize,
		},
	}
}

func (c *Config) Validate() error {
	var errs []error
	if c.Format != FormatTable && c.Format != FormatJSON {
		errs = append(errs, fmt.Errorf("format must be %q or %q, got %q", FormatTable, FormatJSON, c.Format))
	}
	if utf8.RuneCountInString(c.Delimiter) != 1 {
		errs = append(errs, fmt.Errorf("delimiter must be a single character, got %q", c.Delimiter))
	}
	if c.SampleSize < 0 {
		errs = append(errs, fmt.Errorf("sample_size must not be negative"))
	}
	if c.Workers < 0 {
		errs = append(errs, fmt.Errorf("workers must not be negative"))
	}
	if c.OutputDir == "" {
		errs = append(errs, fmt.Errorf("output_dir is required"))
	}
	if c.Export.Enabled && c.UsesS3() && c.Export.S3.Region == "" {
		errs = append(errs, fmt.Errorf("export.s3.region is required with export.s3.bucket"))
	}
	return errors.Join(errs...)
}
