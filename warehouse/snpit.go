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

// StoreSnpits reconciles SNP-based lineage calls for the libraries of the
// given sequencing run, one row per library, overwritten in place on
// reload.
func (d *DB) StoreSnpits(ctx context.Context, runID string, recs []parse.Snpit) (LoadStats, error) {
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

			outcome, err := d.storeSnpitTx(tx, lib.ID, &rec)
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

func (d *DB) storeSnpitTx(tx *sql.Tx, libraryRowID int64, rec *parse.Snpit) (recordOutcome, error) {
	var existingID int64

	err := tx.QueryRow(d.rebind("SELECT id FROM snpit WHERE library_id = ?"),
		libraryRowID).Scan(&existingID)
	if errors.Is(err, sql.ErrNoRows) {
		insert := d.rebind("INSERT INTO snpit (library_id, species, lineage, sublineage, name, percent) " +
			"VALUES (?, ?, ?, ?, ?, ?)")

		if _, err := tx.Exec(insert, libraryRowID, nullString(rec.Species),
			nullString(rec.Lineage), nullString(rec.Sublineage), nullString(rec.Name),
			nullFloatFromPtr(rec.Percent)); err != nil {
			return 0, fmt.Errorf("failed to insert snpit: %w", err)
		}

		return outcomeCreated, nil
	} else if err != nil {
		return 0, fmt.Errorf("failed to look up snpit: %w", err)
	}

	update := d.rebind("UPDATE snpit SET species = ?, lineage = ?, sublineage = ?, " +
		"name = ?, percent = ? WHERE id = ?")

	if _, err := tx.Exec(update, nullString(rec.Species), nullString(rec.Lineage),
		nullString(rec.Sublineage), nullString(rec.Name), nullFloatFromPtr(rec.Percent),
		existingID); err != nil {
		return 0, fmt.Errorf("failed to update snpit: %w", err)
	}

	return outcomeUpdated, nil
}
