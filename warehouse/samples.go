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
	"strings"

	"github.com/hashicorp/go-multierror"

	"github.com/BCCDC-PHL/tb-db/parse"
)

// GetSample returns the current version of the sample with the given
// natural key.
func (d *DB) GetSample(ctx context.Context, sampleID string) (*Sample, error) {
	query := d.rebind("SELECT " + sampleColumns + " FROM sample WHERE sample_id = ? AND " + currently)

	s, err := scanSample(d.handle.QueryRowContext(ctx, query, sampleID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: sample %q", ErrNotFound, sampleID)
	} else if err != nil {
		return nil, fmt.Errorf("failed to look up sample %q: %w", sampleID, err)
	}

	return s, nil
}

// StoreSamples reconciles records from a samples file. A new natural key
// inserts a row; an existing sample whose incoming fields differ is
// superseded via the history mechanism, enriching only the fields the
// samples file carries. Each record gets its own transaction, so one
// failure never aborts the batch.
func (d *DB) StoreSamples(ctx context.Context, recs []parse.Sample) (LoadStats, error) {
	var (
		stats LoadStats
		agg   *multierror.Error
	)

	for _, rec := range recs {
		err := d.inTx(ctx, func(tx *sql.Tx) error {
			outcome, err := d.storeSampleTx(tx, &rec)
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

func (d *DB) storeSampleTx(tx *sql.Tx, rec *parse.Sample) (recordOutcome, error) {
	if strings.TrimSpace(rec.SampleID) == "" {
		return 0, fmt.Errorf("%w: sample_id", ErrValidation)
	}

	s, err := d.getSampleTx(tx, rec.SampleID)
	if errors.Is(err, ErrNotFound) {
		s = &Sample{
			SampleID:       rec.SampleID,
			Accession:      rec.Accession,
			CollectionDate: rec.CollectionDate,
		}

		return outcomeCreated, d.insertSampleTx(tx, s)
	} else if err != nil {
		return 0, err
	}

	if !enrichSample(s, rec) {
		return outcomeUnchanged, nil
	}

	if _, err := d.updateSampleWithHistoryTx(tx, s); err != nil {
		return 0, err
	}

	return outcomeUpdated, nil
}

// enrichSample applies the incoming record's populated fields to the
// sample, reporting whether anything changed. A samples file only carries
// the fields it names; absent fields never blank out stored values.
func enrichSample(s *Sample, rec *parse.Sample) bool {
	changed := false

	if rec.Accession != "" && rec.Accession != s.Accession {
		s.Accession = rec.Accession
		changed = true
	}

	if rec.CollectionDate != nil &&
		(s.CollectionDate == nil || !rec.CollectionDate.Equal(*s.CollectionDate)) {
		s.CollectionDate = rec.CollectionDate
		changed = true
	}

	return changed
}

// DeleteSample removes every version of a sample, cascading to its
// libraries and all dependent assay and membership rows. It returns the
// number of sample version rows removed.
func (d *DB) DeleteSample(ctx context.Context, sampleID string) (int64, error) {
	var n int64

	err := d.inTx(ctx, func(tx *sql.Tx) error {
		res, err := tx.Exec(d.rebind("DELETE FROM sample WHERE sample_id = ?"), sampleID)
		if err != nil {
			return fmt.Errorf("failed to delete sample %q: %w", sampleID, err)
		}

		n, err = res.RowsAffected()

		return err
	})

	return n, err
}
