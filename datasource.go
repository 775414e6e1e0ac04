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

package dbqrules

const (
	Version = "v0.1.0"
)

type DataSourceType string

const (
	DataSourceTypeClickhouse DataSourceType = "clickhouse"
	DataSourceTypePostgresql DataSourceType = "postgresql"
	DataSourceTypeMysql      DataSourceType = "mysql"
	DataSourceTypeDuckdb     DataSourceType = "duckdb"
	DataSourceTypeSqlite     DataSourceType = "sqlite"
)

// DataSource describes a database the dataset is loaded from.
type DataSource struct {
	Type          DataSourceType   `yaml:"type" koanf:"type"`
	Configuration ConnectionConfig `yaml:"configuration" koanf:"configuration"`
}

// ConnectionConfig holds connection parameters. Path is used by embedded
// engines (duckdb, sqlite) instead of host based settings.
type ConnectionConfig struct {
	Host     string `yaml:"host" koanf:"host"`
	Port     int    `yaml:"port" koanf:"port"`
	Username string `yaml:"username" koanf:"username"`
	Password string `yaml:"password" koanf:"password"`
	Database string `yaml:"database" koanf:"database"`
	Path     string `yaml:"path" koanf:"path"`
	PoolSize int    `yaml:"pool_size" koanf:"pool_size"`
}
