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

// CgmlstProfile is one sample's core-genome MLST allele calls, keyed by
// locus name.
type CgmlstProfile struct {
	SampleID      string
	PercentCalled *float64
	Profile       map[string]string
}

// CgmlstProfiles reads a cgMLST CSV whose first column is sample_id and
// whose remaining columns are one allele call per locus. A locus is called
// when its value differs from the uncalled marker; percent_called is nil
// when the profile has no loci.
func CgmlstProfiles(path, uncalled string) ([]CgmlstProfile, error) {
	rows, err := readCSVRows(path)
	if err != nil {
		return nil, err
	}

	profiles := make([]CgmlstProfile, 0, len(rows))

	for _, row := range rows {
		sampleID, err := requireColumn(row, "sample_id")
		if err != nil {
			return nil, err
		}

		profile := make(map[string]string, len(row)-1)
		called := 0

		for locus, allele := range row {
			if locus == "sample_id" {
				continue
			}

			profile[locus] = allele

			if allele != uncalled {
				called++
			}
		}

		profiles = append(profiles, CgmlstProfile{
			SampleID:      sampleID,
			PercentCalled: percentCalled(called, len(profile)),
			Profile:       profile,
		})
	}

	return profiles, nil
}
