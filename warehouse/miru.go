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
	"encoding/json"
	"errors"
	"fmt"

	"github.com/hashicorp/go-multierror"

	"github.com/BCCDC-PHL/tb-db/parse"
)

// StoreMiruProfiles reconciles MIRU-VNTR profiles. MIRU typing predates
// multi-run support, so profiles and cluster membership attach at the
// sample level. An unknown sample is created with the identifying fields
// the MIRU sheet carries (accession, collection date); a known sample is
// left as-is.
func (d *DB) StoreMiruProfiles(ctx context.Context, recs []parse.MiruProfile) (LoadStats, error) {
	var (
		stats LoadStats
		agg   *multierror.Error
	)

	for _, rec := range recs {
		err := d.inTx(ctx, func(tx *sql.Tx) error {
			sample, err := d.resolveMiruSampleTx(tx, &rec)
			if err != nil {
				return err
			}

			outcome, err := d.storeMiruProfileTx(tx, sample.ID, &rec)
			if err != nil {
				return err
			}

			if rec.Cluster != "" {
				if err := d.attachSampleToMiruClusterTx(tx, sample.ID, rec.Cluster); err != nil {
					return err
				}
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

func (d *DB) resolveMiruSampleTx(tx *sql.Tx, rec *parse.MiruProfile) (*Sample, error) {
	sample, err := d.getSampleTx(tx, rec.SampleID)
	if err == nil {
		return sample, nil
	}

	if !errors.Is(err, ErrNotFound) {
		return nil, err
	}

	if rec.SampleID == "" {
		return nil, fmt.Errorf("%w: sample_id", ErrValidation)
	}

	sample = &Sample{
		SampleID:       rec.SampleID,
		Accession:      rec.Accession,
		CollectionDate: rec.CollectionDate,
	}

	return sample, d.insertSampleTx(tx, sample)
}

func (d *DB) storeMiruProfileTx(tx *sql.Tx, sampleRowID int64, rec *parse.MiruProfile) (recordOutcome, error) {
	profile, err := json.Marshal(rec.ProfileByPosition)
	if err != nil {
		return 0, fmt.Errorf("failed to encode MIRU profile: %w", err)
	}

	var existingID int64

	err = tx.QueryRow(d.rebind("SELECT id FROM miru_profile WHERE sample_id = ?"),
		sampleRowID).Scan(&existingID)
	if errors.Is(err, sql.ErrNoRows) {
		insert := d.rebind("INSERT INTO miru_profile " +
			"(sample_id, percent_called, profile_by_position, miru_pattern, " +
			"quarter_tested, year_tested) VALUES (?, ?, ?, ?, ?, ?)")

		if _, err := tx.Exec(insert, sampleRowID, nullFloatFromPtr(rec.PercentCalled),
			string(profile), nullString(rec.MiruPattern),
			nullString(rec.QuarterTested), nullString(rec.YearTested)); err != nil {
			return 0, fmt.Errorf("failed to insert MIRU profile: %w", err)
		}

		return outcomeCreated, nil
	} else if err != nil {
		return 0, fmt.Errorf("failed to look up MIRU profile: %w", err)
	}

	update := d.rebind("UPDATE miru_profile SET percent_called = ?, " +
		"profile_by_position = ?, miru_pattern = ?, quarter_tested = ?, " +
		"year_tested = ? WHERE id = ?")

	if _, err := tx.Exec(update, nullFloatFromPtr(rec.PercentCalled),
		string(profile), nullString(rec.MiruPattern), nullString(rec.QuarterTested),
		nullString(rec.YearTested), existingID); err != nil {
		return 0, fmt.Errorf("failed to update MIRU profile: %w", err)
	}

	return outcomeUpdated, nil
}
