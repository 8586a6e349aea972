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

package parse

import (
	"fmt"
	"path/filepath"
)

// Library is one sequencing library: QC metrics from the QC CSV joined
// with the sequencing run id derived from the run-locations CSV.
type Library struct {
	SampleID                              string
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

// ErrNoRunLocation means a QC row's sample had no entry in the
// run-locations CSV, so its sequencing run cannot be identified.
const ErrNoRunLocation = Error("no run location found for sample")

// Libraries reads a QC CSV and a run-locations CSV (sample_id, fastq_path)
// and joins them into one Library record per QC row. The sequencing run id
// is the name of the directory holding the FASTQ files.
func Libraries(qcPath, locationsPath string) ([]Library, error) {
	runBySample, err := runLocations(locationsPath)
	if err != nil {
		return nil, err
	}

	rows, err := readCSVRows(qcPath)
	if err != nil {
		return nil, err
	}

	libraries := make([]Library, 0, len(rows))

	for _, row := range rows {
		lib, err := libraryFromRow(row, runBySample)
		if err != nil {
			return nil, err
		}

		libraries = append(libraries, lib)
	}

	return libraries, nil
}

func libraryFromRow(row map[string]string, runBySample map[string]string) (Library, error) {
	sampleID, err := requireColumn(row, "sample_id")
	if err != nil {
		return Library{}, err
	}

	runID, ok := runBySample[sampleID]
	if !ok {
		return Library{}, fmt.Errorf("%w: %q", ErrNoRunLocation, sampleID)
	}

	lib := Library{
		SampleID:                sampleID,
		SequencingRunID:         runID,
		LibraryID:               row["library_id"],
		MostAbundantSpeciesName: row["most_abundant_species_name"],
	}

	for _, field := range []struct {
		col  string
		dest **float64
	}{
		{"most_abundant_species_fraction_total_reads", &lib.MostAbundantSpeciesFractionTotalReads},
		{"estimated_depth_coverage", &lib.EstimatedDepthCoverage},
		{"average_base_quality", &lib.AverageBaseQuality},
		{"percent_bases_above_q30", &lib.PercentBasesAboveQ30},
		{"percent_gc", &lib.PercentGC},
	} {
		if *field.dest, err = optionalFloat(row[field.col]); err != nil {
			return Library{}, fmt.Errorf("%w (column %q)", err, field.col)
		}
	}

	if lib.EstimatedGenomeSizeBp, err = optionalInt(row["estimated_genome_size_bp"]); err != nil {
		return Library{}, err
	}

	if lib.TotalBases, err = optionalInt(row["total_bases"]); err != nil {
		return Library{}, err
	}

	return lib, nil
}

// runLocations maps sample_id to sequencing run id, taken from the parent
// directory of each sample's fastq_path.
func runLocations(path string) (map[string]string, error) {
	rows, err := readCSVRows(path)
	if err != nil {
		return nil, err
	}

	runs := make(map[string]string, len(rows))

	for _, row := range rows {
		sampleID, err := requireColumn(row, "sample_id")
		if err != nil {
			return nil, err
		}

		fastq, err := requireColumn(row, "fastq_path")
		if err != nil {
			return nil, err
		}

		runs[sampleID] = filepath.Base(filepath.Dir(fastq))
	}

	return runs, nil
}
