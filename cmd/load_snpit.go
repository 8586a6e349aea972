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

var snpitRunID string

// loadSnpitCmd represents the load snpit command.
var loadSnpitCmd = &cobra.Command{
	Use:   "snpit --run-id RUN <snpit.csv>",
	Short: "Load SNPit lineage calls",
	Long: `Load SNPit lineage calls.

The input CSV has columns Sample, Species, Lineage, Sublineage, Name and
Percentage. Calls attach to each sample's library for the given sequencing
run, one row per library, overwritten on reload.`,
	Args: cobra.ExactArgs(1),
	Run: func(_ *cobra.Command, args []string) {
		if snpitRunID == "" {
			die("--run-id is required")
		}

		recs, err := parse.Snpits(args[0])
		if err != nil {
			die("failed to parse SNPit file: %s", err)
		}

		runLoad("snpit", args[0],
			func(ctx context.Context, db *warehouse.DB) (warehouse.LoadStats, error) {
				return db.StoreSnpits(ctx, snpitRunID, recs)
			})
	},
}

func init() {
	loadCmd.AddCommand(loadSnpitCmd)

	loadSnpitCmd.Flags().StringVar(&snpitRunID, "run-id", "",
		"sequencing run the calls belong to")
}
