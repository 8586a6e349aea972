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

package parse

// DefaultCgmlstClusterColumn is the cluster code column of a cgMLST
// cluster assignment CSV.
const DefaultCgmlstClusterColumn = "clusters_cgmlst"

// ClusterAssignment assigns one sample to one epidemiological cluster.
type ClusterAssignment struct {
	SampleID string
	Cluster  string
}

// ClusterAssignments reads a cluster CSV with a sample_id column and the
// named cluster code column.
func ClusterAssignments(path, clusterColumn string) ([]ClusterAssignment, error) {
	rows, err := readCSVRows(path)
	if err != nil {
		return nil, err
	}

	assignments := make([]ClusterAssignment, 0, len(rows))

	for _, row := range rows {
		sampleID, err := requireColumn(row, "sample_id")
		if err != nil {
			return nil, err
		}

		cluster, err := requireColumn(row, clusterColumn)
		if err != nil {
			return nil, err
		}

		assignments = append(assignments, ClusterAssignment{
			SampleID: sampleID,
			Cluster:  cluster,
		})
	}

	return assignments, nil
}
