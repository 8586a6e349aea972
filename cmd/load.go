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
	"context"

	"github.com/BCCDC-PHL/tb-db/warehouse"
	"github.com/spf13/cobra"
)

// loadCmd represents the load command.
var loadCmd = &cobra.Command{
	Use:   "load",
	Short: "Load laboratory output files into the database",
	Long: `Load laboratory output files into the database.

Each load subcommand ingests one kind of laboratory output. Records are
processed one at a time; a record that fails to persist is rolled back and
reported by sample id without stopping the rest of the file, so you can fix
and re-run just the affected rows.

Every run is stamped with a UUID and recorded in the load audit table with
its outcome counts.`,
}

func init() {
	RootCmd.AddCommand(loadCmd)
}

// storeFunc applies one parsed input file to the warehouse.
type storeFunc func(ctx context.Context, db *warehouse.DB) (warehouse.LoadStats, error)

// runLoad is the shared skeleton of every load subcommand: connect, record
// the run in the audit table, store, record the outcome, report.
func runLoad(kind, inputPath string, store storeFunc) {
	db, err := openWarehouse()
	if err != nil {
		die("failed to connect to database: %s", err)
	}

	defer db.Close()

	ctx := context.Background()

	l, err := db.BeginLoad(ctx, kind, inputPath)
	if err != nil {
		die("failed to record load start: %s", err)
	}

	runLogger := appLogger.New("load", l.UUID.String())
	db.SetLogger(runLogger)

	stats, storeErr := store(ctx, db)

	if err := db.Finish(ctx, l, stats); err != nil {
		warn("failed to record load finish: %s", err)
	}

	runLogger.Info("load finished", "kind", kind,
		"created", stats.Created, "updated", stats.Updated,
		"unchanged", stats.Unchanged, "skipped", stats.Skipped,
		"failed", stats.Failed)

	if storeErr != nil {
		die("%d records failed to persist: %s", stats.Failed, storeErr)
	}
}
