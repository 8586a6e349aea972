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

// SchemeInfo identifies the cgMLST typing scheme a profile load was called
// against. The scheme row is created lazily by name on first sight.
type SchemeInfo struct {
	Name    string
	Version string
	NumLoci int
}

// StoreCgmlstProfiles reconciles cgMLST allele profiles for the libraries
// of the given sequencing run. A library keeps its latest profile only:
// reloading replaces the stored calls wholesale. Samples are created lazily
// (and kept even when the assay record is then skipped for want of a
// library), matching the loaders' observable partial-application model.
func (d *DB) StoreCgmlstProfiles(ctx context.Context, runID string, scheme *SchemeInfo,
	recs []parse.CgmlstProfile) (LoadStats, error) {
	var (
		stats LoadStats
		agg   *multierror.Error
	)

	schemeRowID, err := d.resolveScheme(ctx, scheme)
	if err != nil {
		return stats, err
	}

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

			outcome, err := d.storeCgmlstProfileTx(tx, lib.ID, schemeRowID, &rec)
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

// resolveSample commits the lazy creation of a sample in its own
// transaction, so a later skip of the assay record leaves the bare sample
// behind for enrichment by a samples load.
func (d *DB) resolveSample(ctx context.Context, sampleID string) (*Sample, error) {
	var sample *Sample

	err := d.inTx(ctx, func(tx *sql.Tx) error {
		var err error

		sample, _, err = d.resolveSampleTx(tx, sampleID)

		return err
	})

	return sample, err
}

func (d *DB) resolveScheme(ctx context.Context, scheme *SchemeInfo) (*int64, error) {
	if scheme == nil || scheme.Name == "" {
		return nil, nil
	}

	var id int64

	err := d.inTx(ctx, func(tx *sql.Tx) error {
		insert := d.rebind("INSERT INTO cgmlst_scheme (name, version, num_loci) " +
			"VALUES (?, ?, ?) ON CONFLICT (name) DO NOTHING")

		if _, err := tx.Exec(insert, scheme.Name, nullString(scheme.Version), scheme.NumLoci); err != nil {
			return fmt.Errorf("failed to create scheme %q: %w", scheme.Name, err)
		}

		return tx.QueryRow(d.rebind("SELECT id FROM cgmlst_scheme WHERE name = ?"),
			scheme.Name).Scan(&id)
	})
	if err != nil {
		return nil, err
	}

	return &id, nil
}

func (d *DB) storeCgmlstProfileTx(tx *sql.Tx, libraryRowID int64, schemeRowID *int64,
	rec *parse.CgmlstProfile) (recordOutcome, error) {
	profile, err := json.Marshal(rec.Profile)
	if err != nil {
		return 0, fmt.Errorf("failed to encode allele profile: %w", err)
	}

	var existingID int64

	err = tx.QueryRow(d.rebind("SELECT id FROM cgmlst_allele_profile WHERE library_id = ?"),
		libraryRowID).Scan(&existingID)
	if errors.Is(err, sql.ErrNoRows) {
		insert := d.rebind("INSERT INTO cgmlst_allele_profile " +
			"(library_id, cgmlst_scheme_id, percent_called, profile) VALUES (?, ?, ?, ?)")

		if _, err := tx.Exec(insert, libraryRowID, nullIntFromPtr(schemeRowID),
			nullFloatFromPtr(rec.PercentCalled), string(profile)); err != nil {
			return 0, fmt.Errorf("failed to insert cgMLST profile: %w", err)
		}

		return outcomeCreated, nil
	} else if err != nil {
		return 0, fmt.Errorf("failed to look up cgMLST profile: %w", err)
	}

	update := d.rebind("UPDATE cgmlst_allele_profile SET cgmlst_scheme_id = ?, " +
		"percent_called = ?, profile = ? WHERE id = ?")

	if _, err := tx.Exec(update, nullIntFromPtr(schemeRowID),
		nullFloatFromPtr(rec.PercentCalled), string(profile), existingID); err != nil {
		return 0, fmt.Errorf("failed to update cgMLST profile: %w", err)
	}

	return outcomeUpdated, nil
}
