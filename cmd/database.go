/*******************************************************************************
 * Copyright (c) 2026 British Columbia Centre for Disease Control
 *
 * Permission is hereby granted, free of charge, to any person obtaining
 * a copy of this software and associated documentation files (the
 * "Software"), to deal in the Software without restriction, including
 * without limitation the rights to use, copy, modify, merge, publish,
 * distribute, sublicense, and/or sell copies of the Software, and to
 * permit persons to whom the Software is furnished to do so, subject to
 * the following conditions:
 *
 * The above copyright notice and this permission notice shall be included
 * in all copies or substantial portions of the Software.
 *
 * THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND,
 * EXPRESS OR IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF
 * MERCHANTABILITY, FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT.
 * IN NO EVENT SHALL THE AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY
 * CLAIM, DAMAGES OR OTHER LIABILITY, WHETHER IN AN ACTION OF CONTRACT,
 * TORT OR OTHERWISE, ARISING FROM, OUT OF OR IN CONNECTION WITH THE
 * SOFTWARE OR THE USE OR OTHER DEALINGS IN THE SOFTWARE.
 ******************************************************************************/

package cmd

import (
	"errors"
	"os"
	"strings"

	"github.com/BCCDC-PHL/tb-db/warehouse"
	"github.com/joho/godotenv"
)

const (
	envDatabaseDriver = "TBDB_DRIVER"
	envDatabaseDSN    = "TBDB_DSN"
)

var errDSNRequired = errors.New("database DSN required (--dsn or " + envDatabaseDSN + ")")

var databaseDotEnvKeys = []string{
	envDatabaseDriver,
	envDatabaseDSN,
}

// global database connection flags.
var (
	databaseDriver string
	databaseDSN    string
)

func init() {
	RootCmd.PersistentFlags().StringVar(&databaseDriver, "driver", "",
		"database driver, sqlite3 or pgx (default sqlite3)")
	RootCmd.PersistentFlags().StringVar(&databaseDSN, "dsn", "",
		"database connection string")
}

// openWarehouse connects to the configured database. Flags win over
// environment variables, which win over .env/.env.local files.
func openWarehouse() (*warehouse.DB, error) {
	loadDatabaseDotEnv()

	driver := flagOrEnv(databaseDriver, envDatabaseDriver)
	if driver == "" {
		driver = string(warehouse.DriverSQLite)
	}

	dsn := flagOrEnv(databaseDSN, envDatabaseDSN)
	if dsn == "" {
		return nil, errDSNRequired
	}

	db, err := warehouse.Open(warehouse.Driver(driver), dsn)
	if err != nil {
		return nil, err
	}

	db.SetLogger(appLogger)

	return db, nil
}

// loadDatabaseDotEnv reads .env then .env.local, without overriding
// variables already present in the real environment.
func loadDatabaseDotEnv() {
	orig := originalEnvKeys(databaseDotEnvKeys)

	loadDatabaseDotEnvFile(".env", orig)
	loadDatabaseDotEnvFile(".env.local", orig)
}

func originalEnvKeys(keys []string) map[string]struct{} {
	orig := map[string]struct{}{}

	for _, key := range keys {
		if _, ok := os.LookupEnv(key); ok {
			orig[key] = struct{}{}
		}
	}

	return orig
}

func loadDatabaseDotEnvFile(path string, orig map[string]struct{}) {
	env, err := godotenv.Read(path)
	if err != nil {
		return
	}

	for _, key := range databaseDotEnvKeys {
		val, ok := env[key]
		if !ok {
			continue
		}

		if _, ok := orig[key]; ok {
			continue
		}

		_ = os.Setenv(key, val)
	}
}

func flagOrEnv(flagValue, envKey string) string {
	v := strings.TrimSpace(flagValue)
	if v != "" {
		return v
	}

	return strings.TrimSpace(os.Getenv(envKey))
}
