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

var cgmlstClusterColumn string

// loadCgmlstClusterCmd represents the load cgmlst-cluster command.
var loadCgmlstClusterCmd = &cobra.Command{
	Use:   "cgmlst-cluster <clusters.csv>",
	Short: "Load cgMLST cluster assignments",
	Long: `Load cgMLST cluster assignments.

The input CSV has a sample_id column and a cluster code column. Cluster
rows are created on first reference; each of the sample's libraries is
attached to the cluster, and repeated loads do not duplicate memberships.
Samples with no libraries yet are skipped and reported.`,
	Args: cobra.ExactArgs(1),
	Run: func(_ *cobra.Command, args []string) {
		recs, err := parse.ClusterAssignments(args[0], cgmlstClusterColumn)
		if err != nil {
			die("failed to parse cluster file: %s", err)
		}

		runLoad("cgmlst-cluster", args[0],
			func(ctx context.Context, db *warehouse.DB) (warehouse.LoadStats, error) {
				return db.StoreCgmlstClusters(ctx, recs)
			})
	},
}

func init() {
	loadCmd.AddCommand(loadCgmlstClusterCmd)

	loadCgmlstClusterCmd.Flags().StringVar(&cgmlstClusterColumn, "cluster-column",
		parse.DefaultCgmlstClusterColumn, "name of the cluster code column")
}
