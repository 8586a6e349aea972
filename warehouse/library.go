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

// StoreLibraries reconciles QC records against the library table. The
// library/QC loader is the only writer that creates library rows; per-run
// assay loaders require the row to exist already. Re-loading a run's QC
// overwrites every metric in place.
func (d *DB) StoreLibraries(ctx context.Context, recs []parse.Library) (LoadStats, error) {
	var (
		stats LoadStats
		agg   *multierror.Error
	)

	for _, rec := range recs {
		err := d.inTx(ctx, func(tx *sql.Tx) error {
			outcome, err := d.storeLibraryTx(tx, &rec)
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

func (d *DB) storeLibraryTx(tx *sql.Tx, rec *parse.Library) (recordOutcome, error) {
	sample, _, err := d.resolveSampleTx(tx, rec.SampleID)
	if err != nil {
		return 0, err
	}

	existing, err := d.resolveLibraryTx(tx, sample.ID, rec.SequencingRunID)
	if err != nil && !errors.Is(err, ErrMissingParent) {
		return 0, err
	}

	if existing == nil {
		return outcomeCreated, d.insertLibraryTx(tx, sample.ID, rec)
	}

	return outcomeUpdated, d.updateLibraryTx(tx, existing.ID, rec)
}

func (d *DB) insertLibraryTx(tx *sql.Tx, sampleRowID int64, rec *parse.Library) error {
	query := d.rebind("INSERT INTO library (sample_id, sequencing_run_id, library_id, " +
		"most_abundant_species_name, most_abundant_species_fraction_total_reads, " +
		"estimated_genome_size_bp, estimated_depth_coverage, total_bases, " +
		"average_base_quality, percent_bases_above_q30, percent_gc) " +
		"VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)")

	_, err := tx.Exec(query, sampleRowID, rec.SequencingRunID, nullString(rec.LibraryID),
		nullString(rec.MostAbundantSpeciesName),
		nullFloatFromPtr(rec.MostAbundantSpeciesFractionTotalReads),
		nullIntFromPtr(rec.EstimatedGenomeSizeBp),
		nullFloatFromPtr(rec.EstimatedDepthCoverage),
		nullIntFromPtr(rec.TotalBases),
		nullFloatFromPtr(rec.AverageBaseQuality),
		nullFloatFromPtr(rec.PercentBasesAboveQ30),
		nullFloatFromPtr(rec.PercentGC))
	if err != nil {
		return fmt.Errorf("failed to insert library for run %q: %w", rec.SequencingRunID, err)
	}

	return nil
}

func (d *DB) updateLibraryTx(tx *sql.Tx, libraryRowID int64, rec *parse.Library) error {
	query := d.rebind("UPDATE library SET library_id = ?, " +
		"most_abundant_species_name = ?, most_abundant_species_fraction_total_reads = ?, " +
		"estimated_genome_size_bp = ?, estimated_depth_coverage = ?, total_bases = ?, " +
		"average_base_quality = ?, percent_bases_above_q30 = ?, percent_gc = ? " +
		"WHERE id = ?")

	_, err := tx.Exec(query, nullString(rec.LibraryID),
		nullString(rec.MostAbundantSpeciesName),
		nullFloatFromPtr(rec.MostAbundantSpeciesFractionTotalReads),
		nullIntFromPtr(rec.EstimatedGenomeSizeBp),
		nullFloatFromPtr(rec.EstimatedDepthCoverage),
		nullIntFromPtr(rec.TotalBases),
		nullFloatFromPtr(rec.AverageBaseQuality),
		nullFloatFromPtr(rec.PercentBasesAboveQ30),
		nullFloatFromPtr(rec.PercentGC),
		libraryRowID)
	if err != nil {
		return fmt.Errorf("failed to update library for run %q: %w", rec.SequencingRunID, err)
	}

	return nil
}
