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

import "time"

// Sample is a single biological specimen, identified by an external
// sample_id. Rows are temporally versioned: the current version of a sample
// has a null ValidUntil, and every enrichment of a sample's fields closes
// out the old row and inserts a new one (see updateSampleWithHistory).
type Sample struct {
	ID             int64
	SampleID       string
	Accession      string
	CollectionDate *time.Time
	CreatedAt      time.Time
	ValidUntil     *time.Time
}

// Library is one sequencing run of a Sample, identified by the pair
// (sample, sequencing run id). It is the unit that per-run assay results
// attach to, and carries the run's QC metrics.
type Library struct {
	ID                                    int64
	SampleRowID                           int64
	SequencingRunID                       string
	LibraryID                             string
	MostAbundantSpeciesName               string
	MostAbundantSpeciesFractionTotalReads *float64
	EstimatedGenomeSizeBp                 *int64
	EstimatedDepthCoverage                *float64
	TotalBases                            *int64
	AverageBaseQuality                    *float64
	PercentBasesAboveQ30                  *float64
	PercentGC                             *float64
}

// CgmlstScheme is a reference row describing a cgMLST typing scheme,
// created lazily on first sight of its name.
type CgmlstScheme struct {
	ID      int64
	Name    string
	Version string
	NumLoci int
}

// CgmlstAlleleProfile is the latest cgMLST allele profile for a library.
// The per-locus calls are stored as a JSON object keyed by locus name.
type CgmlstAlleleProfile struct {
	ID            int64
	LibraryRowID  int64
	SchemeRowID   *int64
	PercentCalled *float64
	Profile       string
}

// MiruProfile is the latest MIRU-VNTR profile for a sample. The per-locus
// repeat counts are stored as a JSON object keyed by genomic position, and
// the quarter of test keeps its normalised "<year>-Q<n>" form.
type MiruProfile struct {
	ID                int64
	SampleRowID       int64
	PercentCalled     *float64
	ProfileByPosition string
	MiruPattern       string
	QuarterTested     string
	YearTested        string
}

// TbComplex is the species-complex classification for a library.
type TbComplex struct {
	ID                   int64
	LibraryRowID         int64
	MtbcProp             *float64
	NtmProp              *float64
	NonmycobacteriumProp *float64
	UnclassifiedProp     *float64
	Complex              string
	Reason               string
	Flag                 string
}

// TbSpecies is one position of a library's fixed-size top-5 taxonomic
// abundance breakdown.
type TbSpecies struct {
	ID                 int64
	LibraryRowID       int64
	Position           int
	TaxonomyLevel      string
	SpeciesName        string
	NCBITaxonomyID     string
	FractionTotalReads *float64
	NumAssignedReads   *int64
}

// AmrProfile is the drug-resistance summary for a library. Its mutation
// rows are stored separately as DrugMutationProfile rows.
type AmrProfile struct {
	ID                int64
	LibraryRowID      int64
	Date              *time.Time
	DrType            string
	MedianDepth       *int64
	TbprofilerVersion string
}

// DrugMutationProfile is one (mutation, drug) association under an
// AmrProfile. These rows are append-only. Drug carries the referenced
// drug's code when read back.
type DrugMutationProfile struct {
	ID         int64
	AmrRowID   int64
	DrugRowID  *int64
	Drug       string
	Mutation   string
	AlleleFreq *float64
}

// Snpit is the SNP-based lineage call for a library.
type Snpit struct {
	ID           int64
	LibraryRowID int64
	Species      string
	Lineage      string
	Sublineage   string
	Name         string
	Percent      *float64
}

// Info holds per-table row counts, as reported by the info subcommand.
// Sample counts only current versions.
type Info struct {
	Samples              int64
	SampleVersions       int64
	Libraries            int64
	CgmlstProfiles       int64
	MiruProfiles         int64
	CgmlstClusters       int64
	MiruClusters         int64
	Complexes            int64
	Species              int64
	AmrProfiles          int64
	DrugMutationProfiles int64
	Snpits               int64
	Loads                int64
}
