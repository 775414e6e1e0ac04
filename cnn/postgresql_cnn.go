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
	"database/sql"
	"fmt"

	"github.com/DataBridgeTech/dbqrules"
	_ "github.com/lib/pq"
)

// PostgresqlDSN renders the lib/pq keyword DSN for cfg.
func PostgresqlDSN(cfg dbqrules.ConnectionConfig) string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=disable",
		cfg.Host, cfg.Port, cfg.Username, cfg.Password, cfg.Database)
}

func NewPostgresqlConnection(connectionCfg dbqrules.ConnectionConfig) (*sql.DB, error) {
	db, err := sql.Open("postgres", PostgresqlDSN(connectionCfg))
	if err != nil {
		return nil, err
	}

	db.SetMaxOpenConns(poolSize(connectionCfg))
	return db, nil
}
