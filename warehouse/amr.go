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
	"errors"
	"fmt"

	"github.com/hashicorp/go-multierror"

	"github.com/BCCDC-PHL/tb-db/parse"
)

// StoreAmrReports reconciles drug-resistance reports for the libraries of
// the given sequencing run. The summary row is one-to-one per library and
// overwritten in place; the per-mutation drug associations under it are an
// append-only audit trail, so re-loading the same report duplicates them.
// Callers are responsible for not loading a report twice.
func (d *DB) StoreAmrReports(ctx context.Context, runID string, recs []parse.AmrReport) (LoadStats, error) {
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
			lib, err := d.resolveLibraryTx(tx, sample.ID, runID)
			if err != nil {
				return err
			}

			outcome, err := d.storeAmrReportTx(tx, lib.ID, &rec)
			if err != nil {
				return err
			}

			stats.add(outcome)

			return nil
		})
		if err != nil {
			agg = d.recordFailure(rec.SampleID, err, &stats, agg)
		}
	}

	return stats, agg.ErrorOrNil()
}

func (d *DB) storeAmrReportTx(tx *sql.Tx, libraryRowID int64, rec *parse.AmrReport) (recordOutcome, error) {
	amrRowID, outcome, err := d.upsertAmrSummaryTx(tx, libraryRowID, rec)
	if err != nil {
		return 0, err
	}

	for _, m := range rec.Mutations {
		if err := d.appendMutationTx(tx, amrRowID, &m); err != nil {
			return 0, err
		}
	}

	return outcome, nil
}

func (d *DB) upsertAmrSummaryTx(tx *sql.Tx, libraryRowID int64, rec *parse.AmrReport) (int64, recordOutcome, error) {
	var existingID int64

	err := tx.QueryRow(d.rebind("SELECT id FROM amr_profile WHERE library_id = ?"),
		libraryRowID).Scan(&existingID)
	if errors.Is(err, sql.ErrNoRows) {
		insert := d.rebind("INSERT INTO amr_profile (library_id, date, dr_type, " +
			"median_depth, tbprofiler_version) VALUES (?, ?, ?, ?, ?) RETURNING id")

		var id int64

		if err := tx.QueryRow(insert, libraryRowID, nullTimeFromPtr(rec.Date),
			nullString(rec.DrType), nullIntFromPtr(rec.MedianDepth),
			nullString(rec.DBVersion)).Scan(&id); err != nil {
			return 0, 0, fmt.Errorf("failed to insert AMR summary: %w", err)
		}

		return id, outcomeCreated, nil
	} else if err != nil {
		return 0, 0, fmt.Errorf("failed to look up AMR summary: %w", err)
	}

	update := d.rebind("UPDATE amr_profile SET date = ?, dr_type = ?, " +
		"median_depth = ?, tbprofiler_version = ? WHERE id = ?")

	if _, err := tx.Exec(update, nullTimeFromPtr(rec.Date), nullString(rec.DrType),
		nullIntFromPtr(rec.MedianDepth), nullString(rec.DBVersion), existingID); err != nil {
		return 0, 0, fmt.Errorf("failed to update AMR summary: %w", err)
	}

	return existingID, outcomeUpdated, nil
}

func (d *DB) appendMutationTx(tx *sql.Tx, amrRowID int64, m *parse.AmrMutation) error {
	for _, drug := range m.Drugs {
		drugRowID, err := d.resolveDrugTx(tx, drug)
		if err != nil {
			return err
		}

		insert := d.rebind("INSERT INTO drug_mutation_profile (amr_id, drug_id, mutation, allele_freq) " +
			"VALUES (?, ?, ?, ?)")

		if _, err := tx.Exec(insert, amrRowID, nullIntFromPtr(drugRowID),
			m.Mutation(), nullFloatFromPtr(m.Freq)); err != nil {
			return fmt.Errorf("failed to append mutation %q: %w", m.Mutation(), err)
		}
	}

	return nil
}

// resolveDrugTx finds or creates the reference row for a drug code.
func (d *DB) resolveDrugTx(tx *sql.Tx, code string) (*int64, error) {
	if code == "" {
		return nil, nil
	}

	insert := d.rebind("INSERT INTO drug (drug_id) VALUES (?) ON CONFLICT (drug_id) DO NOTHING")

	if _, err := tx.Exec(insert, code); err != nil {
		return nil, fmt.Errorf("failed to create drug %q: %w", code, err)
	}

	var id int64

	if err := tx.QueryRow(d.rebind("SELECT id FROM drug WHERE drug_id = ?"), code).Scan(&id); err != nil {
		return nil, fmt.Errorf("failed to look up drug %q: %w", code, err)
	}

	return &id, nil
}
