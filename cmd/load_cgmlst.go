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
	cgmlstRunID         string
	cgmlstUncalled      string
	cgmlstSchemeName    string
	cgmlstSchemeVersion string
	cgmlstSchemeLoci    int
)

// loadCgmlstCmd represents the load cgmlst command.
var loadCgmlstCmd = &cobra.Command{
	Use:   "cgmlst --run-id RUN <cgmlst.csv>",
	Short: "Load cgMLST allele profiles",
	Long: `Load cgMLST allele profiles.

The input CSV has a sample_id column followed by one column per locus.
Profiles attach to each sample's library for the given sequencing run; each
library keeps its latest profile only, so reloading replaces the stored
calls. A scheme named with --scheme is found or created by name and linked
to the profiles.`,
	Args: cobra.ExactArgs(1),
	Run: func(_ *cobra.Command, args []string) {
		if cgmlstRunID == "" {
			die("--run-id is required")
		}

		recs, err := parse.CgmlstProfiles(args[0], cgmlstUncalled)
		if err != nil {
			die("failed to parse cgMLST file: %s", err)
		}

		var scheme *warehouse.SchemeInfo
		if cgmlstSchemeName != "" {
			scheme = &warehouse.SchemeInfo{
				Name:    cgmlstSchemeName,
				Version: cgmlstSchemeVersion,
				NumLoci: cgmlstSchemeLoci,
			}
		}

		runLoad("cgmlst", args[0],
			func(ctx context.Context, db *warehouse.DB) (warehouse.LoadStats, error) {
				return db.StoreCgmlstProfiles(ctx, cgmlstRunID, scheme, recs)
			})
	},
}

func init() {
	loadCmd.AddCommand(loadCgmlstCmd)

	loadCgmlstCmd.Flags().StringVar(&cgmlstRunID, "run-id", "",
		"sequencing run the profiles belong to")
	loadCgmlstCmd.Flags().StringVar(&cgmlstUncalled, "uncalled",
		parse.DefaultUncalledMarker, "value marking an uncalled locus")
	loadCgmlstCmd.Flags().StringVar(&cgmlstSchemeName, "scheme", "",
		"cgMLST scheme name")
	loadCgmlstCmd.Flags().StringVar(&cgmlstSchemeVersion, "scheme-version", "",
		"cgMLST scheme version")
	loadCgmlstCmd.Flags().IntVar(&cgmlstSchemeLoci, "scheme-loci", 0,
		"number of loci in the scheme")
}
