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

	"github.com/spf13/cobra"
)

// deleteSampleCmd represents the delete-sample command.
var deleteSampleCmd = &cobra.Command{
	Use:   "delete-sample <sample_id>",
	Short: "Delete a sample and everything attached to it",
	Long: `Delete a sample and everything attached to it.

Removes every version of the sample, its libraries, and all assay results
and cluster memberships hanging off them. This cannot be undone.`,
	Args: cobra.ExactArgs(1),
	Run: func(_ *cobra.Command, args []string) {
		db, err := openWarehouse()
		if err != nil {
			die("failed to connect to database: %s", err)
		}

		defer db.Close()

		n, err := db.DeleteSample(context.Background(), args[0])
		if err != nil {
			die("failed to delete sample: %s", err)
		}

		if n == 0 {
			warn("no sample found with id %q", args[0])

			return
		}

		info("deleted sample %q (%d version(s))", args[0], n)
	},
}

func init() {
	RootCmd.AddCommand(deleteSampleCmd)
}
