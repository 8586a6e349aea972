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
	"strconv"
)

// Complex is one sample's MTBC vs NTM read-proportion breakdown and the
// resulting complex call.
type Complex struct {
	SampleID             string
	MtbcProp             *float64
	NtmProp              *float64
	NonmycobacteriumProp *float64
	UnclassifiedProp     *float64
	Complex              string
	Reason               string
	Flag                 string
}

// Complexes reads a complex-call CSV with one row per sample.
func Complexes(path string) ([]Complex, error) {
	rows, err := readCSVRows(path)
	if err != nil {
		return nil, err
	}

	complexes := make([]Complex, 0, len(rows))

	for _, row := range rows {
		sampleID, err := requireColumn(row, "sample_id")
		if err != nil {
			return nil, err
		}

		cx := Complex{
			SampleID: sampleID,
			Complex:  row["complex"],
			Reason:   row["reason"],
			Flag:     row["flag"],
		}

		for _, field := range []struct {
			col  string
			dest **float64
		}{
			{"mtbc_prop", &cx.MtbcProp},
			{"ntm_prop", &cx.NtmProp},
			{"nonmycobacterium_prop", &cx.NonmycobacteriumProp},
			{"unclassified_prop", &cx.UnclassifiedProp},
		} {
			if *field.dest, err = optionalFloat(row[field.col]); err != nil {
				return nil, fmt.Errorf("%w (column %q)", err, field.col)
			}
		}

		complexes = append(complexes, cx)
	}

	return complexes, nil
}

// TopSpecies is the number of taxonomic abundance slots recorded per
// library.
const TopSpecies = 5

// SpeciesAbundance is one slot of a library's top-N taxonomic breakdown.
type SpeciesAbundance struct {
	TaxonomyLevel      string
	Name               string
	NCBITaxonomyID     string
	FractionTotalReads *float64
	NumAssignedReads   *int64
}

// SpeciesSet is the full fixed-size abundance breakdown for one sample,
// ordered most to least abundant.
type SpeciesSet struct {
	SampleID   string
	Abundances []SpeciesAbundance
}

// SpeciesSets reads a Kraken-style abundance CSV where the five per-slot
// field groups appear as indexed columns (taxonomy_level_1,
// species_name_1, ... through _5). Slots with no species name are dropped,
// preserving order.
func SpeciesSets(path string) ([]SpeciesSet, error) {
	rows, err := readCSVRows(path)
	if err != nil {
		return nil, err
	}

	sets := make([]SpeciesSet, 0, len(rows))

	for _, row := range rows {
		sampleID, err := requireColumn(row, "sample_id")
		if err != nil {
			return nil, err
		}

		set := SpeciesSet{SampleID: sampleID}

		for i := 1; i <= TopSpecies; i++ {
			abundance, err := abundanceFromRow(row, i)
			if err != nil {
				return nil, err
			}

			if abundance.Name == "" {
				continue
			}

			set.Abundances = append(set.Abundances, abundance)
		}

		sets = append(sets, set)
	}

	return sets, nil
}

func abundanceFromRow(row map[string]string, slot int) (SpeciesAbundance, error) {
	suffix := "_" + strconv.Itoa(slot)

	abundance := SpeciesAbundance{
		TaxonomyLevel:  row["taxonomy_level"+suffix],
		Name:           row["species_name"+suffix],
		NCBITaxonomyID: row["ncbi_taxonomy_id"+suffix],
	}

	var err error

	if abundance.FractionTotalReads, err = optionalFloat(row["fraction_total_reads"+suffix]); err != nil {
		return SpeciesAbundance{}, err
	}

	if abundance.NumAssignedReads, err = optionalInt(row["num_assigned_reads"+suffix]); err != nil {
		return SpeciesAbundance{}, err
	}

	return abundance, nil
}
