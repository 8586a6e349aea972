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

var (
	libraryQCPath        string
	libraryLocationsPath string
)

// loadLibraryCmd represents the load library command.
var loadLibraryCmd = &cobra.Command{
	Use:   "library --qc <qc.csv> --locations <locations.csv>",
	Short: "Load sequencing library QC metrics",
	Long: `Load sequencing library QC metrics.

The QC CSV carries per-library quality metrics; the locations CSV maps each
sample to its FASTQ path, from which the sequencing run id is taken. One
library row is kept per (sample, sequencing run); reloading overwrites its
QC fields. Every other per-run assay load attaches to the library created
here, so library QC must be loaded before cgMLST, complex, species, AMR or
SNPit results for the same run.`,
	Run: func(_ *cobra.Command, _ []string) {
		if libraryQCPath == "" || libraryLocationsPath == "" {
			die("--qc and --locations are both required")
		}

		recs, err := parse.Libraries(libraryQCPath, libraryLocationsPath)
		if err != nil {
			die("failed to parse library QC: %s", err)
		}

		runLoad("library", libraryQCPath,
			func(ctx context.Context, db *warehouse.DB) (warehouse.LoadStats, error) {
				return db.StoreLibraries(ctx, recs)
			})
	},
}

func init() {
	loadCmd.AddCommand(loadLibraryCmd)

	loadLibraryCmd.Flags().StringVar(&libraryQCPath, "qc", "",
		"QC metrics CSV")
	loadLibraryCmd.Flags().StringVar(&libraryLocationsPath, "locations", "",
		"run locations CSV (sample_id, fastq_path)")
}
