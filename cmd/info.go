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
	"os"

	"github.com/dustin/go-humanize"
	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
)

// infoCmd represents the info command.
var infoCmd = &cobra.Command{
	Use:   "info",
	Short: "Get summary information on the database",
	Long: `Get summary information on the database.

This sub-command reports row counts for every table, including how many
superseded sample versions are being kept.`,
	Run: func(_ *cobra.Command, _ []string) {
		db, err := openWarehouse()
		if err != nil {
			die("failed to connect to database: %s", err)
		}

		defer db.Close()

		dbInfo, err := db.Info(context.Background())
		if err != nil {
			die("failed to get database info: %s", err)
		}

		table := tablewriter.NewWriter(os.Stdout)
		table.SetHeader([]string{"Table", "Rows"})

		for _, row := range [...]struct {
			name  string
			count int64
		}{
			{"samples (current)", dbInfo.Samples},
			{"sample versions (incl. superseded)", dbInfo.SampleVersions},
			{"libraries", dbInfo.Libraries},
			{"cgMLST profiles", dbInfo.CgmlstProfiles},
			{"MIRU profiles", dbInfo.MiruProfiles},
			{"cgMLST clusters", dbInfo.CgmlstClusters},
			{"MIRU clusters", dbInfo.MiruClusters},
			{"complex calls", dbInfo.Complexes},
			{"species abundances", dbInfo.Species},
			{"AMR profiles", dbInfo.AmrProfiles},
			{"drug mutations", dbInfo.DrugMutationProfiles},
			{"SNPit calls", dbInfo.Snpits},
			{"loads", dbInfo.Loads},
		} {
			table.Append([]string{row.name, humanize.Comma(row.count)})
		}

		table.Render()
	},
}

func init() {
	RootCmd.AddCommand(infoCmd)
}
