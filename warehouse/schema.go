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

package warehouse

import (
	"context"
	"embed"
	"fmt"
	"io/fs"
	"sort"
	"strings"
)

//go:embed schema/sqlite/*.sql schema/postgres/*.sql
var schemaFS embed.FS

// Init applies the embedded DDL for the configured driver. Every statement
// is idempotent (CREATE ... IF NOT EXISTS), so Init is safe to run against
// an existing database.
func (d *DB) Init(ctx context.Context) error {
	dir := "schema/sqlite"
	if d.driver == DriverPostgres {
		dir = "schema/postgres"
	}

	stmts, err := schemaSQL(dir)
	if err != nil {
		return err
	}

	for _, stmt := range stmts {
		if _, err := d.handle.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to apply schema statement: %w", err)
		}
	}

	return nil
}

func schemaSQL(dir string) ([]string, error) {
	entries, err := fs.Glob(schemaFS, dir+"/*.sql")
	if err != nil {
		return nil, fmt.Errorf("failed to list embedded schema files: %w", err)
	}

	sort.Strings(entries)

	var stmts []string

	for _, name := range entries {
		data, err := schemaFS.ReadFile(name)
		if err != nil {
			return nil, fmt.Errorf("failed to read embedded schema file: %w", err)
		}

		for _, stmt := range strings.Split(string(data), ";\n") {
			if strings.TrimSpace(stmt) == "" {
				continue
			}

			stmts = append(stmts, stmt)
		}
	}

	return stmts, nil
}
