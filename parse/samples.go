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

import "time"

// Sample is one row of a samples metadata CSV.
type Sample struct {
	SampleID       string
	Accession      string
	CollectionDate *time.Time
}

// Samples reads a samples CSV with columns sample_id and collection_date
// (ISO YYYY-MM-DD); an accession column is used when present.
func Samples(path string) ([]Sample, error) {
	rows, err := readCSVRows(path)
	if err != nil {
		return nil, err
	}

	samples := make([]Sample, 0, len(rows))

	for _, row := range rows {
		sampleID, err := requireColumn(row, "sample_id")
		if err != nil {
			return nil, err
		}

		date, err := isoDate(row["collection_date"])
		if err != nil {
			return nil, err
		}

		samples = append(samples, Sample{
			SampleID:       sampleID,
			Accession:      row["accession"],
			CollectionDate: date,
		})
	}

	return samples, nil
}
