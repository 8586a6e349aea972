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

	"github.com/BCCDC-PHL/tb-db/parse"
	"github.com/BCCDC-PHL/tb-db/warehouse"
	"github.com/spf13/cobra"
)

var amrRunID string

// loadAmrCmd represents the load amr command.
var loadAmrCmd = &cobra.Command{
	Use:   "amr --run-id RUN <report.json>",
	Short: "Load a drug-resistance report",
	Long: `Load a drug-resistance report.

The input is a TB-Profiler style JSON report. The summary (resistance type,
median depth, caller database version) is kept one-per-library and is
overwritten on reload; the per-mutation drug associations are an append-only
audit trail, so loading the same report twice duplicates its mutation rows.`,
	Args: cobra.ExactArgs(1),
	Run: func(_ *cobra.Command, args []string) {
		if amrRunID == "" {
			die("--run-id is required")
		}

		recs, err := parse.AmrReports(args[0])
		if err != nil {
			die("failed to parse AMR report: %s", err)
		}

		runLoad("amr", args[0],
			func(ctx context.Context, db *warehouse.DB) (warehouse.LoadStats, error) {
				return db.StoreAmrReports(ctx, amrRunID, recs)
			})
	},
}

func init() {
	loadCmd.AddCommand(loadAmrCmd)

	loadAmrCmd.Flags().StringVar(&amrRunID, "run-id", "",
		"sequencing run the report belongs to")
}
