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

var speciesRunID string

// loadSpeciesCmd represents the load species command.
var loadSpeciesCmd = &cobra.Command{
	Use:   "species --run-id RUN <species.csv>",
	Short: "Load top-5 species abundance breakdowns",
	Long: `Load top-5 species abundance breakdowns.

One row per sample, with the five most abundant taxa as indexed column
groups. The stored breakdown is positional: reloading overwrites each slot
in place, and an input whose slot count differs from what is stored is
rejected for that sample rather than partially applied.`,
	Args: cobra.ExactArgs(1),
	Run: func(_ *cobra.Command, args []string) {
		if speciesRunID == "" {
			die("--run-id is required")
		}

		recs, err := parse.SpeciesSets(args[0])
		if err != nil {
			die("failed to parse species file: %s", err)
		}

		runLoad("species", args[0],
			func(ctx context.Context, db *warehouse.DB) (warehouse.LoadStats, error) {
				return db.StoreSpecies(ctx, speciesRunID, recs)
			})
	},
}

func init() {
	loadCmd.AddCommand(loadSpeciesCmd)

	loadSpeciesCmd.Flags().StringVar(&speciesRunID, "run-id", "",
		"sequencing run the breakdowns belong to")
}
