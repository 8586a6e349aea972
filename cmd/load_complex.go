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

var complexRunID string

// loadComplexCmd represents the load complex command.
var loadComplexCmd = &cobra.Command{
	Use:   "complex --run-id RUN <complex.csv>",
	Short: "Load MTBC/NTM complex calls",
	Long: `Load MTBC/NTM complex calls.

One row per sample: the proportions of reads assigned to the M. tuberculosis
complex, non-tuberculous mycobacteria, other organisms and unclassified,
plus the resulting complex call. Calls attach to each sample's library for
the given sequencing run, one row per library, overwritten on reload.`,
	Args: cobra.ExactArgs(1),
	Run: func(_ *cobra.Command, args []string) {
		if complexRunID == "" {
			die("--run-id is required")
		}

		recs, err := parse.Complexes(args[0])
		if err != nil {
			die("failed to parse complex file: %s", err)
		}

		runLoad("complex", args[0],
			func(ctx context.Context, db *warehouse.DB) (warehouse.LoadStats, error) {
				return db.StoreComplexes(ctx, complexRunID, recs)
			})
	},
}

func init() {
	loadCmd.AddCommand(loadComplexCmd)

	loadComplexCmd.Flags().StringVar(&complexRunID, "run-id", "",
		"sequencing run the calls belong to")
}
