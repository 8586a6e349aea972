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

// package warehouse implements the write path of the TB genomic
// surveillance warehouse: identity resolution of samples and libraries,
// per-assay upsert reconciliation, cluster membership, and temporal
// versioning of sample records.
package warehouse

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/inconshreveable/log15"

	_ "github.com/jackc/pgx/v5/stdlib" // register pgx as a database/sql driver
	_ "github.com/mattn/go-sqlite3"    // register the sqlite3 driver
)

// Driver names a supported database/sql driver.
type Driver string

const (
	DriverSQLite   = Driver("sqlite3")
	DriverPostgres = Driver("pgx")
)

// DB wraps a relational database holding the warehouse schema. It is safe
// for the single-writer batch model the loaders use; concurrent batch loads
// are not coordinated beyond the schema's unique constraints.
type DB struct {
	handle *sql.DB
	driver Driver
	logger log15.Logger
}

// Open connects to the database identified by the given driver and DSN.
// For sqlite3 the DSN is a file path (or ":memory:"); for pgx it is a
// postgres:// connection URI.
func Open(driver Driver, dsn string) (*DB, error) {
	switch driver {
	case DriverSQLite, DriverPostgres:
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedDriver, driver)
	}

	handle, err := sql.Open(string(driver), dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if driver == DriverSQLite {
		handle.SetMaxOpenConns(1)

		if _, err := handle.Exec("PRAGMA foreign_keys = ON"); err != nil {
			return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
		}
	}

	logger := log15.New()
	logger.SetHandler(log15.DiscardHandler())

	return &DB{handle: handle, driver: driver, logger: logger}, nil
}

// SetLogger replaces the logger used for per-record skip warnings and load
// progress. The default discards everything.
func (d *DB) SetLogger(logger log15.Logger) {
	d.logger = logger
}

// Close closes the underlying database handle.
func (d *DB) Close() error {
	return d.handle.Close()
}

// Handle exposes the underlying sql.DB for integration testing hooks.
func (d *DB) Handle() *sql.DB {
	return d.handle
}

// rebind converts ?-style placeholders to the $N style pgx requires.
// Queries are written with ? throughout; none of them contain literal
// question marks.
func (d *DB) rebind(query string) string {
	if d.driver != DriverPostgres {
		return query
	}

	var sb strings.Builder

	n := 0

	for _, r := range query {
		if r == '?' {
			n++

			sb.WriteByte('$')
			sb.WriteString(strconv.Itoa(n))
		} else {
			sb.WriteRune(r)
		}
	}

	return sb.String()
}

// inTx runs fn inside a transaction, committing on nil error and rolling
// back otherwise. Each loader record is processed in its own transaction so
// a failed record rolls back alone and the batch continues.
func (d *DB) inTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := d.handle.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	if err := fn(tx); err != nil {
		if errr := tx.Rollback(); errr != nil {
			return fmt.Errorf("rollback after %w failed: %s", err, errr)
		}

		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}

// now returns the wall-clock time used for version stamps. Overridden in
// tests to get deterministic history rows.
var now = func() time.Time {
	return time.Now().UTC()
}

// Info reports row counts for each table, counting only current sample
// versions separately from the full version history.
func (d *DB) Info(ctx context.Context) (*Info, error) {
	info := &Info{}

	counts := []struct {
		query string
		dest  *int64
	}{
		{"SELECT COUNT(*) FROM sample WHERE valid_until IS NULL", &info.Samples},
		{"SELECT COUNT(*) FROM sample", &info.SampleVersions},
		{"SELECT COUNT(*) FROM library", &info.Libraries},
		{"SELECT COUNT(*) FROM cgmlst_allele_profile", &info.CgmlstProfiles},
		{"SELECT COUNT(*) FROM miru_profile", &info.MiruProfiles},
		{"SELECT COUNT(*) FROM cgmlst_cluster", &info.CgmlstClusters},
		{"SELECT COUNT(*) FROM miru_cluster", &info.MiruClusters},
		{"SELECT COUNT(*) FROM tb_complex", &info.Complexes},
		{"SELECT COUNT(*) FROM tb_species", &info.Species},
		{"SELECT COUNT(*) FROM amr_profile", &info.AmrProfiles},
		{"SELECT COUNT(*) FROM drug_mutation_profile", &info.DrugMutationProfiles},
		{"SELECT COUNT(*) FROM snpit", &info.Snpits},
		{"SELECT COUNT(*) FROM load", &info.Loads},
	}

	for _, c := range counts {
		if err := d.handle.QueryRowContext(ctx, c.query).Scan(c.dest); err != nil {
			return nil, fmt.Errorf("failed to count rows: %w", err)
		}
	}

	return info, nil
}
