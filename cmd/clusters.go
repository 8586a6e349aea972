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
	"strings"

	"github.com/spf13/cobra"
)

// clustersCmd represents the clusters command.
var clustersCmd = &cobra.Command{
	Use:   "clusters <sample_id>",
	Short: "Report the clusters a sample belongs to",
	Long: `Report the clusters a sample belongs to.

Prints the cgMLST cluster codes (gathered across all of the sample's
sequencing libraries) and the MIRU cluster codes for the given sample id.`,
	Args: cobra.ExactArgs(1),
	Run: func(_ *cobra.Command, args []string) {
		setCLIFormat()

		db, err := openWarehouse()
		if err != nil {
			die("failed to connect to database: %s", err)
		}

		defer db.Close()

		codes, err := db.ClusterCodesBySample(context.Background(), args[0])
		if err != nil {
			die("failed to look up clusters: %s", err)
		}

		cliPrint("cgMLST: %s\n", strings.Join(codes.Cgmlst, ", "))
		cliPrint("MIRU: %s\n", strings.Join(codes.Miru, ", "))
	},
}

func init() {
	RootCmd.AddCommand(clustersCmd)
}
