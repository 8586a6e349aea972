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

package warehouse

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/hashicorp/go-multierror"

	"github.com/BCCDC-PHL/tb-db/parse"
)

// ClusterCodes holds the cluster memberships of one sample, per cluster
// kind, across all of its sequencing runs.
type ClusterCodes struct {
	Cgmlst []string
	Miru   []string
}

// resolveClusterTx finds or creates a cluster row by its natural-key code
// in the named cluster table, which must be one of cgmlst_cluster or
// miru_cluster.
func (d *DB) resolveClusterTx(tx *sql.Tx, table, code string) (int64, error) {
	if strings.TrimSpace(code) == "" {
		return 0, fmt.Errorf("%w: cluster code", ErrValidation)
	}

	insert := d.rebind("INSERT INTO " + table + " (cluster_id) VALUES (?) " +
		"ON CONFLICT (cluster_id) DO NOTHING")

	if _, err := tx.Exec(insert, code); err != nil {
		return 0, fmt.Errorf("failed to create cluster %q: %w", code, err)
	}

	var id int64

	err := tx.QueryRow(d.rebind("SELECT id FROM "+table+" WHERE cluster_id = ?"), code).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("failed to look up cluster %q: %w", code, err)
	}

	return id, nil
}

// attachSampleToMiruClusterTx appends a membership edge between a sample
// row and a MIRU cluster. Re-attaching an existing pair is a no-op.
func (d *DB) attachSampleToMiruClusterTx(tx *sql.Tx, sampleRowID int64, code string) error {
	clusterID, err := d.resolveClusterTx(tx, "miru_cluster", code)
	if err != nil {
		return err
	}

	query := d.rebind("INSERT INTO miru_cluster_member (sample_id, miru_cluster_id) " +
		"VALUES (?, ?) ON CONFLICT (sample_id, miru_cluster_id) DO NOTHING")

	if _, err := tx.Exec(query, sampleRowID, clusterID); err != nil {
		return fmt.Errorf("failed to attach sample to cluster %q: %w", code, err)
	}

	return nil
}

// attachLibraryToCgmlstClusterTx appends a membership edge between a
// library row and a cgMLST cluster. Re-attaching an existing pair is a
// no-op.
func (d *DB) attachLibraryToCgmlstClusterTx(tx *sql.Tx, libraryRowID int64, code string) error {
	clusterID, err := d.resolveClusterTx(tx, "cgmlst_cluster", code)
	if err != nil {
		return err
	}

	query := d.rebind("INSERT INTO cgmlst_cluster_member (library_id, cgmlst_cluster_id) " +
		"VALUES (?, ?) ON CONFLICT (library_id, cgmlst_cluster_id) DO NOTHING")

	if _, err := tx.Exec(query, libraryRowID, clusterID); err != nil {
		return fmt.Errorf("failed to attach library to cluster %q: %w", code, err)
	}

	return nil
}

// StoreCgmlstClusters attaches samples to cgMLST clusters. Membership is
// per-library; a sample's assignment applies to every one of its
// sequencing runs. A sample with no libraries yet is skipped, but the
// lazily created sample row is kept for later enrichment.
func (d *DB) StoreCgmlstClusters(ctx context.Context, recs []parse.ClusterAssignment) (LoadStats, error) {
	var (
		stats LoadStats
		agg   *multierror.Error
	)

	for _, rec := range recs {
		sample, err := d.resolveSample(ctx, rec.SampleID)
		if err != nil {
			agg = d.recordFailure(rec.SampleID, err, &stats, agg)

			continue
		}

		err = d.inTx(ctx, func(tx *sql.Tx) error {
			libs, err := d.librariesOfSampleTx(tx, sample.ID)
			if err != nil {
				return err
			}

			if len(libs) == 0 {
				return fmt.Errorf("%w: sample %q has no libraries", ErrMissingParent, rec.SampleID)
			}

			for _, lib := range libs {
				if err := d.attachLibraryToCgmlstClusterTx(tx, lib.ID, rec.Cluster); err != nil {
					return err
				}
			}

			stats.Created++

			return nil
		})
		if err != nil {
			agg = d.recordFailure(rec.SampleID, err, &stats, agg)
		}
	}

	return stats, agg.ErrorOrNil()
}

// ClusterCodesBySample returns the cluster codes of both kinds attached to
// a sample, traversing every library for cgMLST membership.
func (d *DB) ClusterCodesBySample(ctx context.Context, sampleID string) (*ClusterCodes, error) {
	codes := &ClusterCodes{}

	cgmlstQuery := d.rebind("SELECT DISTINCT c.cluster_id FROM cgmlst_cluster c " +
		"JOIN cgmlst_cluster_member m ON m.cgmlst_cluster_id = c.id " +
		"JOIN library l ON l.id = m.library_id " +
		"JOIN sample s ON s.id = l.sample_id " +
		"WHERE s.sample_id = ? AND s." + currently + " ORDER BY c.cluster_id")

	miruQuery := d.rebind("SELECT DISTINCT c.cluster_id FROM miru_cluster c " +
		"JOIN miru_cluster_member m ON m.miru_cluster_id = c.id " +
		"JOIN sample s ON s.id = m.sample_id " +
		"WHERE s.sample_id = ? AND s." + currently + " ORDER BY c.cluster_id")

	for _, q := range []struct {
		query string
		dest  *[]string
	}{
		{cgmlstQuery, &codes.Cgmlst},
		{miruQuery, &codes.Miru},
	} {
		if err := d.queryStrings(ctx, q.query, sampleID, q.dest); err != nil {
			return nil, err
		}
	}

	return codes, nil
}

func (d *DB) queryStrings(ctx context.Context, query, arg string, dest *[]string) error {
	rows, err := d.handle.QueryContext(ctx, query, arg)
	if err != nil {
		return fmt.Errorf("failed to query cluster codes: %w", err)
	}

	defer rows.Close()

	for rows.Next() {
		var code string

		if err := rows.Scan(&code); err != nil {
			return fmt.Errorf("failed to scan cluster code: %w", err)
		}

		*dest = append(*dest, code)
	}

	return rows.Err()
}
