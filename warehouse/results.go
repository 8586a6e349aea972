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
)

// Read-back queries for the per-assay result rows. Per-run results are
// addressed by their natural keys (sample_id, sequencing_run_id), scoped
// to the current sample version.

// libraryScope joins a result table's library_id through to the sample
// natural key, so per-run getters can filter by (sample_id, run).
const libraryScope = " JOIN library l ON l.id = %s.library_id " +
	"JOIN sample s ON s.id = l.sample_id " +
	"WHERE s.sample_id = ? AND s." + currently + " AND l.sequencing_run_id = ?"

func notFound(err error, what, sampleID string) error {
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("%w: %s for sample %q", ErrNotFound, what, sampleID)
	}

	return fmt.Errorf("failed to look up %s for sample %q: %w", what, sampleID, err)
}

// GetCgmlstScheme returns the scheme reference row with the given name.
func (d *DB) GetCgmlstScheme(ctx context.Context, name string) (*CgmlstScheme, error) {
	query := d.rebind("SELECT id, name, version, num_loci FROM cgmlst_scheme WHERE name = ?")

	sc := &CgmlstScheme{}

	var (
		version sql.NullString
		numLoci sql.NullInt64
	)

	err := d.handle.QueryRowContext(ctx, query, name).Scan(&sc.ID, &sc.Name, &version, &numLoci)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: scheme %q", ErrNotFound, name)
	} else if err != nil {
		return nil, fmt.Errorf("failed to look up scheme %q: %w", name, err)
	}

	sc.Version = version.String
	sc.NumLoci = int(numLoci.Int64)

	return sc, nil
}

// GetCgmlstProfile returns the cgMLST allele profile stored for the
// sample's library under the given sequencing run.
func (d *DB) GetCgmlstProfile(ctx context.Context, sampleID, runID string) (*CgmlstAlleleProfile, error) {
	query := d.rebind("SELECT p.id, p.library_id, p.cgmlst_scheme_id, p.percent_called, p.profile " +
		"FROM cgmlst_allele_profile p" + fmt.Sprintf(libraryScope, "p"))

	p := &CgmlstAlleleProfile{}

	var (
		schemeID      sql.NullInt64
		percentCalled sql.NullFloat64
	)

	err := d.handle.QueryRowContext(ctx, query, sampleID, runID).Scan(
		&p.ID, &p.LibraryRowID, &schemeID, &percentCalled, &p.Profile)
	if err != nil {
		return nil, notFound(err, "cgMLST profile", sampleID)
	}

	p.SchemeRowID = intPtr(schemeID)
	p.PercentCalled = floatPtr(percentCalled)

	return p, nil
}

// GetMiruProfile returns the MIRU-VNTR profile stored for the sample.
func (d *DB) GetMiruProfile(ctx context.Context, sampleID string) (*MiruProfile, error) {
	query := d.rebind("SELECT p.id, p.sample_id, p.percent_called, p.profile_by_position, " +
		"p.miru_pattern, p.quarter_tested, p.year_tested FROM miru_profile p " +
		"JOIN sample s ON s.id = p.sample_id WHERE s.sample_id = ? AND s." + currently)

	p := &MiruProfile{}

	var (
		percentCalled sql.NullFloat64
		pattern       sql.NullString
		quarter       sql.NullString
		year          sql.NullString
	)

	err := d.handle.QueryRowContext(ctx, query, sampleID).Scan(&p.ID, &p.SampleRowID,
		&percentCalled, &p.ProfileByPosition, &pattern, &quarter, &year)
	if err != nil {
		return nil, notFound(err, "MIRU profile", sampleID)
	}

	p.PercentCalled = floatPtr(percentCalled)
	p.MiruPattern = pattern.String
	p.QuarterTested = quarter.String
	p.YearTested = year.String

	return p, nil
}

// GetComplex returns the species-complex call stored for the sample's
// library under the given sequencing run.
func (d *DB) GetComplex(ctx context.Context, sampleID, runID string) (*TbComplex, error) {
	query := d.rebind("SELECT c.id, c.library_id, c.mtbc_prop, c.ntm_prop, " +
		"c.nonmycobacterium_prop, c.unclassified_prop, c.complex, c.reason, c.flag " +
		"FROM tb_complex c" + fmt.Sprintf(libraryScope, "c"))

	c := &TbComplex{}

	var (
		mtbc, ntm, nonmyco, uncl sql.NullFloat64
		cx, reason, flag         sql.NullString
	)

	err := d.handle.QueryRowContext(ctx, query, sampleID, runID).Scan(&c.ID, &c.LibraryRowID,
		&mtbc, &ntm, &nonmyco, &uncl, &cx, &reason, &flag)
	if err != nil {
		return nil, notFound(err, "complex call", sampleID)
	}

	c.MtbcProp = floatPtr(mtbc)
	c.NtmProp = floatPtr(ntm)
	c.NonmycobacteriumProp = floatPtr(nonmyco)
	c.UnclassifiedProp = floatPtr(uncl)
	c.Complex = cx.String
	c.Reason = reason.String
	c.Flag = flag.String

	return c, nil
}

// GetSpecies returns the sample's taxonomic abundance breakdown for the
// given sequencing run, ordered by position.
func (d *DB) GetSpecies(ctx context.Context, sampleID, runID string) ([]TbSpecies, error) {
	query := d.rebind("SELECT t.id, t.library_id, t.position, t.taxonomy_level, "+
		"t.species_name, t.ncbi_taxonomy_id, t.fraction_total_reads, t.num_assigned_reads "+
		"FROM tb_species t"+fmt.Sprintf(libraryScope, "t")) + " ORDER BY t.position"

	rows, err := d.handle.QueryContext(ctx, query, sampleID, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to look up species for sample %q: %w", sampleID, err)
	}

	defer rows.Close()

	var species []TbSpecies

	for rows.Next() {
		var (
			t           TbSpecies
			level       sql.NullString
			name        sql.NullString
			taxID       sql.NullString
			frac        sql.NullFloat64
			numAssigned sql.NullInt64
		)

		err := rows.Scan(&t.ID, &t.LibraryRowID, &t.Position, &level, &name,
			&taxID, &frac, &numAssigned)
		if err != nil {
			return nil, fmt.Errorf("failed to scan species row: %w", err)
		}

		t.TaxonomyLevel = level.String
		t.SpeciesName = name.String
		t.NCBITaxonomyID = taxID.String
		t.FractionTotalReads = floatPtr(frac)
		t.NumAssignedReads = intPtr(numAssigned)

		species = append(species, t)
	}

	return species, rows.Err()
}

// GetAmrProfile returns the drug-resistance summary stored for the
// sample's library under the given sequencing run.
func (d *DB) GetAmrProfile(ctx context.Context, sampleID, runID string) (*AmrProfile, error) {
	query := d.rebind("SELECT a.id, a.library_id, a.date, a.dr_type, a.median_depth, " +
		"a.tbprofiler_version FROM amr_profile a" + fmt.Sprintf(libraryScope, "a"))

	a := &AmrProfile{}

	var (
		date        sql.NullTime
		drType      sql.NullString
		medianDepth sql.NullInt64
		version     sql.NullString
	)

	err := d.handle.QueryRowContext(ctx, query, sampleID, runID).Scan(&a.ID, &a.LibraryRowID,
		&date, &drType, &medianDepth, &version)
	if err != nil {
		return nil, notFound(err, "AMR profile", sampleID)
	}

	a.Date = timePtr(date)
	a.DrType = drType.String
	a.MedianDepth = intPtr(medianDepth)
	a.TbprofilerVersion = version.String

	return a, nil
}

// GetDrugMutations returns the append-only mutation rows under the
// sample's AMR profile for the given sequencing run, in load order.
func (d *DB) GetDrugMutations(ctx context.Context, sampleID, runID string) ([]DrugMutationProfile, error) {
	query := d.rebind("SELECT m.id, m.amr_id, m.drug_id, d.drug_id, m.mutation, m.allele_freq "+
		"FROM drug_mutation_profile m "+
		"LEFT JOIN drug d ON d.id = m.drug_id "+
		"JOIN amr_profile a ON a.id = m.amr_id"+fmt.Sprintf(libraryScope, "a")) +
		" ORDER BY m.id"

	rows, err := d.handle.QueryContext(ctx, query, sampleID, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to look up drug mutations for sample %q: %w", sampleID, err)
	}

	defer rows.Close()

	var mutations []DrugMutationProfile

	for rows.Next() {
		var (
			m      DrugMutationProfile
			drugID sql.NullInt64
			drug   sql.NullString
			freq   sql.NullFloat64
		)

		if err := rows.Scan(&m.ID, &m.AmrRowID, &drugID, &drug, &m.Mutation, &freq); err != nil {
			return nil, fmt.Errorf("failed to scan drug mutation row: %w", err)
		}

		m.DrugRowID = intPtr(drugID)
		m.Drug = drug.String
		m.AlleleFreq = floatPtr(freq)

		mutations = append(mutations, m)
	}

	return mutations, rows.Err()
}

// GetSnpit returns the lineage call stored for the sample's library under
// the given sequencing run.
func (d *DB) GetSnpit(ctx context.Context, sampleID, runID string) (*Snpit, error) {
	query := d.rebind("SELECT n.id, n.library_id, n.species, n.lineage, n.sublineage, " +
		"n.name, n.percent FROM snpit n" + fmt.Sprintf(libraryScope, "n"))

	n := &Snpit{}

	var (
		species, lineage, sublineage, name sql.NullString
		percent                            sql.NullFloat64
	)

	err := d.handle.QueryRowContext(ctx, query, sampleID, runID).Scan(&n.ID, &n.LibraryRowID,
		&species, &lineage, &sublineage, &name, &percent)
	if err != nil {
		return nil, notFound(err, "SNPit call", sampleID)
	}

	n.Species = species.String
	n.Lineage = lineage.String
	n.Sublineage = sublineage.String
	n.Name = name.String
	n.Percent = floatPtr(percent)

	return n, nil
}
