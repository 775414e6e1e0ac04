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

package cnn

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/DataBridgeTech/dbqrules"
)

func TestDSN(t *testing.T) {
	cfg := dbqrules.ConnectionConfig{
		Host:     "db.local",
		Port:     5432,
		Username: "racing",
		Password: "secret",
		Database: "telemetry",
	}

	assert.Equal(t, "host=db.local port=5432 user=racing password=secret dbname=telemetry sslmode=disable", PostgresqlDSN(cfg))

	cfg.Port = 3306
	assert.Equal(t, "racing:secret@tcp(db.local:3306)/telemetry?parseTime=true", MysqlDSN(cfg))
}

func TestPoolSize(t *testing.T) {
	assert.Equal(t, defaultPoolSize, poolSize(dbqrules.ConnectionConfig{}))
	assert.Equal(t, 2, poolSize(dbqrules.ConnectionConfig{PoolSize: 2}))
}

func TestNewSqliteConnection(t *testing.T) {
	_, err := NewSqliteConnection(dbqrules.ConnectionConfig{})
	assert.ErrorContains(t, err, "requires a database path")

	db, err := NewSqliteConnection(dbqrules.ConnectionConfig{Path: ":memory:"})
	require.NoError(t, err)
	defer func() { _ = db.Close() }()
	assert.Equal(t, 1, db.Stats().MaxOpenConnections)
}
