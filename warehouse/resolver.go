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
	"database/sql"
	"errors"
	"fmt"
	"strings"
)

// currently is the reusable currency predicate for temporally versioned
// rows. Every "truth as of now" lookup must include it; lookups without it
// observe historical versions.
const currently = "valid_until IS NULL"

const sampleColumns = "id, sample_id, accession, collection_date, created_at, valid_until"

const libraryColumns = "id, sample_id, sequencing_run_id, library_id, " +
	"most_abundant_species_name, most_abundant_species_fraction_total_reads, " +
	"estimated_genome_size_bp, estimated_depth_coverage, total_bases, " +
	"average_base_quality, percent_bases_above_q30, percent_gc"

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSample(row rowScanner) (*Sample, error) {
	s := &Sample{}

	var (
		accession      sql.NullString
		collectionDate sql.NullTime
		validUntil     sql.NullTime
	)

	err := row.Scan(&s.ID, &s.SampleID, &accession, &collectionDate, &s.CreatedAt, &validUntil)
	if err != nil {
		return nil, err
	}

	s.Accession = accession.String
	s.CollectionDate = timePtr(collectionDate)
	s.ValidUntil = timePtr(validUntil)

	return s, nil
}

func scanLibrary(row rowScanner) (*Library, error) {
	l := &Library{}

	var (
		libraryID sql.NullString
		masName   sql.NullString
		masFrac   sql.NullFloat64
		genomeBp  sql.NullInt64
		depth     sql.NullFloat64
		bases     sql.NullInt64
		baseQual  sql.NullFloat64
		q30       sql.NullFloat64
		gc        sql.NullFloat64
	)

	err := row.Scan(&l.ID, &l.SampleRowID, &l.SequencingRunID, &libraryID,
		&masName, &masFrac, &genomeBp, &depth, &bases, &baseQual, &q30, &gc)
	if err != nil {
		return nil, err
	}

	l.LibraryID = libraryID.String
	l.MostAbundantSpeciesName = masName.String
	l.MostAbundantSpeciesFractionTotalReads = floatPtr(masFrac)
	l.EstimatedGenomeSizeBp = intPtr(genomeBp)
	l.EstimatedDepthCoverage = floatPtr(depth)
	l.TotalBases = intPtr(bases)
	l.AverageBaseQuality = floatPtr(baseQual)
	l.PercentBasesAboveQ30 = floatPtr(q30)
	l.PercentGC = floatPtr(gc)

	return l, nil
}

// getSampleTx finds the current version of a sample by its natural key.
func (d *DB) getSampleTx(tx *sql.Tx, sampleID string) (*Sample, error) {
	query := d.rebind("SELECT " + sampleColumns + " FROM sample WHERE sample_id = ? AND " + currently)

	s, err := scanSample(tx.QueryRow(query, sampleID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: sample %q", ErrNotFound, sampleID)
	} else if err != nil {
		return nil, fmt.Errorf("failed to look up sample %q: %w", sampleID, err)
	}

	return s, nil
}

func (d *DB) insertSampleTx(tx *sql.Tx, s *Sample) error {
	s.CreatedAt = now()
	s.ValidUntil = nil

	query := d.rebind("INSERT INTO sample (sample_id, accession, collection_date, created_at, valid_until) " +
		"VALUES (?, ?, ?, ?, NULL) RETURNING id")

	err := tx.QueryRow(query, s.SampleID, nullString(s.Accession),
		nullTimeFromPtr(s.CollectionDate), s.CreatedAt).Scan(&s.ID)
	if err != nil {
		return fmt.Errorf("failed to insert sample %q: %w", s.SampleID, err)
	}

	return nil
}

// resolveSampleTx finds the current row for the given natural key, creating
// a bare row if absent. Resolution is not pure: the created row is visible
// to later statements in the same transaction and persists when the caller
// commits.
func (d *DB) resolveSampleTx(tx *sql.Tx, sampleID string) (*Sample, bool, error) {
	if strings.TrimSpace(sampleID) == "" {
		return nil, false, fmt.Errorf("%w: sample_id", ErrValidation)
	}

	s, err := d.getSampleTx(tx, sampleID)
	if err == nil {
		return s, false, nil
	}

	if !errors.Is(err, ErrNotFound) {
		return nil, false, err
	}

	s = &Sample{SampleID: sampleID}
	if err := d.insertSampleTx(tx, s); err != nil {
		return nil, false, err
	}

	return s, true, nil
}

// resolveLibraryTx finds the library of the given sample row matching the
// requested sequencing run id. Libraries are only ever created by the
// library/QC loader; an assay record without one is skipped by its caller.
func (d *DB) resolveLibraryTx(tx *sql.Tx, sampleRowID int64, runID string) (*Library, error) {
	if strings.TrimSpace(runID) == "" {
		return nil, fmt.Errorf("%w: sequencing_run_id", ErrValidation)
	}

	query := d.rebind("SELECT " + libraryColumns + " FROM library " +
		"WHERE sample_id = ? AND sequencing_run_id = ? ORDER BY id")

	rows, err := tx.Query(query, sampleRowID, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to look up library for run %q: %w", runID, err)
	}

	defer rows.Close()

	var libs []*Library

	for rows.Next() {
		l, err := scanLibrary(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan library for run %q: %w", runID, err)
		}

		libs = append(libs, l)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	switch len(libs) {
	case 0:
		return nil, fmt.Errorf("%w: run %q", ErrMissingParent, runID)
	case 1:
		return libs[0], nil
	default:
		return nil, fmt.Errorf("%w: run %q has %d libraries", ErrDuplicateLibrary, runID, len(libs))
	}
}

// librariesOfSampleTx returns every library belonging to the sample row.
func (d *DB) librariesOfSampleTx(tx *sql.Tx, sampleRowID int64) ([]*Library, error) {
	query := d.rebind("SELECT " + libraryColumns + " FROM library WHERE sample_id = ? ORDER BY id")

	rows, err := tx.Query(query, sampleRowID)
	if err != nil {
		return nil, fmt.Errorf("failed to list libraries: %w", err)
	}

	defer rows.Close()

	var libs []*Library

	for rows.Next() {
		l, err := scanLibrary(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan library: %w", err)
		}

		libs = append(libs, l)
	}

	return libs, rows.Err()
}
