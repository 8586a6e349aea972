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

// Snpit is one sample's SNP-based lineage call.
type Snpit struct {
	SampleID   string
	Species    string
	Lineage    string
	Sublineage string
	Name       string
	Percent    *float64
}

// Snpits reads a SNPit CSV with columns Sample, Species, Lineage,
// Sublineage, Name and Percentage.
func Snpits(path string) ([]Snpit, error) {
	rows, err := readCSVRows(path)
	if err != nil {
		return nil, err
	}

	snpits := make([]Snpit, 0, len(rows))

	for _, row := range rows {
		sampleID, err := requireColumn(row, "Sample")
		if err != nil {
			return nil, err
		}

		percent, err := optionalFloat(row["Percentage"])
		if err != nil {
			return nil, err
		}

		snpits = append(snpits, Snpit{
			SampleID:   sampleID,
			Species:    row["Species"],
			Lineage:    row["Lineage"],
			Sublineage: row["Sublineage"],
			Name:       row["Name"],
			Percent:    percent,
		})
	}

	return snpits, nil
}
