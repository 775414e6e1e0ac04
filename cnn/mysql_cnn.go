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
	_ "github.com/go-sql-driver/mysql"
)

// MysqlDSN renders the go-sql-driver DSN for cfg.
func MysqlDSN(cfg dbqrules.ConnectionConfig) string {
	return fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?parseTime=true",
		cfg.Username, cfg.Password, cfg.Host, cfg.Port, cfg.Database)
}

func NewMysqlConnection(connectionCfg dbqrules.ConnectionConfig) (*sql.DB, error) {
	db, err := sql.Open("mysql", MysqlDSN(connectionCfg))
	if err != nil {
		return nil, err
	}

	db.SetMaxOpenConns(poolSize(connectionCfg))
	db.SetMaxIdleConns(poolSize(connectionCfg))

	return db, nil
}
