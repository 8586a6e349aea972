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

// StoreComplexes reconciles species-complex classifications for the
// libraries of the given sequencing run, one row per library, overwritten
// in place on reload.
func (d *DB) StoreComplexes(ctx context.Context, runID string, recs []parse.Complex) (LoadStats, error) {
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

			outcome, err := d.storeComplexTx(tx, lib.ID, &rec)
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

func (d *DB) storeComplexTx(tx *sql.Tx, libraryRowID int64, rec *parse.Complex) (recordOutcome, error) {
	var existingID int64

	err := tx.QueryRow(d.rebind("SELECT id FROM tb_complex WHERE library_id = ?"),
		libraryRowID).Scan(&existingID)
	if errors.Is(err, sql.ErrNoRows) {
		insert := d.rebind("INSERT INTO tb_complex (library_id, mtbc_prop, ntm_prop, " +
			"nonmycobacterium_prop, unclassified_prop, complex, reason, flag) " +
			"VALUES (?, ?, ?, ?, ?, ?, ?, ?)")

		if _, err := tx.Exec(insert, libraryRowID,
			nullFloatFromPtr(rec.MtbcProp), nullFloatFromPtr(rec.NtmProp),
			nullFloatFromPtr(rec.NonmycobacteriumProp), nullFloatFromPtr(rec.UnclassifiedProp),
			nullString(rec.Complex), nullString(rec.Reason), nullString(rec.Flag)); err != nil {
			return 0, fmt.Errorf("failed to insert complex: %w", err)
		}

		return outcomeCreated, nil
	} else if err != nil {
		return 0, fmt.Errorf("failed to look up complex: %w", err)
	}

	update := d.rebind("UPDATE tb_complex SET mtbc_prop = ?, ntm_prop = ?, " +
		"nonmycobacterium_prop = ?, unclassified_prop = ?, complex = ?, reason = ?, flag = ? " +
		"WHERE id = ?")

	if _, err := tx.Exec(update,
		nullFloatFromPtr(rec.MtbcProp), nullFloatFromPtr(rec.NtmProp),
		nullFloatFromPtr(rec.NonmycobacteriumProp), nullFloatFromPtr(rec.UnclassifiedProp),
		nullString(rec.Complex), nullString(rec.Reason), nullString(rec.Flag),
		existingID); err != nil {
		return 0, fmt.Errorf("failed to update complex: %w", err)
	}

	return outcomeUpdated, nil
}

// StoreSpecies reconciles top-5 species abundance breakdowns for the
// libraries of the given sequencing run. Positions are index-stable: on
// reload, incoming position i overwrites stored position i, and a size
// mismatch between the incoming and stored sets is an input error, never a
// silent truncation.
func (d *DB) StoreSpecies(ctx context.Context, runID string, recs []parse.SpeciesSet) (LoadStats, error) {
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

			outcome, err := d.storeSpeciesSetTx(tx, lib.ID, &rec)
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

func (d *DB) storeSpeciesSetTx(tx *sql.Tx, libraryRowID int64, rec *parse.SpeciesSet) (recordOutcome, error) {
	rows, err := tx.Query(d.rebind("SELECT id FROM tb_species WHERE library_id = ? ORDER BY position"),
		libraryRowID)
	if err != nil {
		return 0, fmt.Errorf("failed to look up species set: %w", err)
	}

	defer rows.Close()

	var existingIDs []int64

	for rows.Next() {
		var id int64

		if err := rows.Scan(&id); err != nil {
			return 0, fmt.Errorf("failed to scan species row: %w", err)
		}

		existingIDs = append(existingIDs, id)
	}

	if err := rows.Err(); err != nil {
		return 0, err
	}

	if len(existingIDs) == 0 {
		for i, a := range rec.Abundances {
			insert := d.rebind("INSERT INTO tb_species (library_id, position, taxonomy_level, " +
				"species_name, ncbi_taxonomy_id, fraction_total_reads, num_assigned_reads) " +
				"VALUES (?, ?, ?, ?, ?, ?, ?)")

			if _, err := tx.Exec(insert, libraryRowID, i,
				nullString(a.TaxonomyLevel), nullString(a.Name), nullString(a.NCBITaxonomyID),
				nullFloatFromPtr(a.FractionTotalReads), nullIntFromPtr(a.NumAssignedReads)); err != nil {
				return 0, fmt.Errorf("failed to insert species row %d: %w", i, err)
			}
		}

		return outcomeCreated, nil
	}

	if len(existingIDs) != len(rec.Abundances) {
		return 0, fmt.Errorf("%w: incoming %d, stored %d",
			ErrShapeMismatch, len(rec.Abundances), len(existingIDs))
	}

	for i, a := range rec.Abundances {
		update := d.rebind("UPDATE tb_species SET taxonomy_level = ?, species_name = ?, " +
			"ncbi_taxonomy_id = ?, fraction_total_reads = ?, num_assigned_reads = ? WHERE id = ?")

		if _, err := tx.Exec(update,
			nullString(a.TaxonomyLevel), nullString(a.Name), nullString(a.NCBITaxonomyID),
			nullFloatFromPtr(a.FractionTotalReads), nullIntFromPtr(a.NumAssignedReads),
			existingIDs[i]); err != nil {
			return 0, fmt.Errorf("failed to update species row %d: %w", i, err)
		}
	}

	return outcomeUpdated, nil
}
