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

	"github.com/DataBridgeTech/dbqrules"
	_ "github.com/marcboeker/go-duckdb"
)

// NewDuckdbConnection opens the database file at Path, or an in-memory database
// when Path is empty. The in-memory form is handy for read_csv_auto queries.
func NewDuckdbConnection(connectionCfg dbqrules.ConnectionConfig) (*sql.DB, error) {
	db, err := sql.Open("duckdb", connectionCfg.Path)
	if err != nil {
		return nil, err
	}

	// a single connection keeps in-memory state visible to every query
	if connectionCfg.Path == "" {
		db.SetMaxOpenConns(1)
	}
	return db, nil
}
