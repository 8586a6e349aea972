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
	"encoding/json"
	"fmt"
	"path/filepath"
	"strings"
	"time"
)

const amrTimestampLayout = "02-01-2006 15:04:05"

// AmrMutation is one resistance-conferring variant from an AMR report,
// with the drugs it confers resistance to.
type AmrMutation struct {
	Gene             string
	NucleotideChange string
	Freq             *float64
	Drugs            []string
}

// Mutation is the composite mutation identifier recorded per drug
// association.
func (m AmrMutation) Mutation() string {
	return m.Gene + "_" + m.NucleotideChange
}

// AmrReport is one TB-Profiler style drug-resistance report for a single
// library.
type AmrReport struct {
	SampleID    string
	Date        *time.Time
	DrType      string
	MedianDepth *int64
	DBVersion   string
	Mutations   []AmrMutation
}

type amrReportJSON struct {
	ID        string `json:"id"`
	Timestamp string `json:"timestamp"`
	DrType    string `json:"drtype"`
	QC        struct {
		MedianCoverage *float64 `json:"median_coverage"`
	} `json:"qc"`
	DBVersion  string `json:"db_version"`
	DrVariants []struct {
		Gene             string   `json:"gene"`
		NucleotideChange string   `json:"nucleotide_change"`
		Freq             *float64 `json:"freq"`
		Drugs            []struct {
			Drug string `json:"drug"`
		} `json:"drugs"`
	} `json:"dr_variants"`
}

// AmrReports reads a TB-Profiler style JSON report file: either a single
// report object or an array of them. When a report carries no id field the
// sample id is taken from the file name.
func AmrReports(path string) ([]AmrReport, error) {
	r, err := openInput(path)
	if err != nil {
		return nil, err
	}

	defer r.Close()

	dec := json.NewDecoder(r)

	tok, err := dec.Token()
	if err != nil {
		return nil, fmt.Errorf("failed to read AMR report: %w", err)
	}

	var raws []amrReportJSON

	if delim, ok := tok.(json.Delim); ok && delim == '[' {
		for dec.More() {
			var raw amrReportJSON
			if err := dec.Decode(&raw); err != nil {
				return nil, fmt.Errorf("failed to read AMR report: %w", err)
			}

			raws = append(raws, raw)
		}
	} else {
		// single object; re-read from the start of the stream
		r2, err := openInput(path)
		if err != nil {
			return nil, err
		}

		defer r2.Close()

		var raw amrReportJSON
		if err := json.NewDecoder(r2).Decode(&raw); err != nil {
			return nil, fmt.Errorf("failed to read AMR report: %w", err)
		}

		raws = append(raws, raw)
	}

	reports := make([]AmrReport, 0, len(raws))

	for _, raw := range raws {
		report, err := amrFromJSON(raw, path)
		if err != nil {
			return nil, err
		}

		reports = append(reports, report)
	}

	return reports, nil
}

func amrFromJSON(raw amrReportJSON, path string) (AmrReport, error) {
	report := AmrReport{
		SampleID:  raw.ID,
		DrType:    raw.DrType,
		DBVersion: raw.DBVersion,
	}

	if report.SampleID == "" {
		report.SampleID = sampleIDFromPath(path)
	}

	if raw.Timestamp != "" {
		t, err := time.Parse(amrTimestampLayout, raw.Timestamp)
		if err != nil {
			return AmrReport{}, fmt.Errorf("%w: %q", ErrBadDate, raw.Timestamp)
		}

		report.Date = &t
	}

	if raw.QC.MedianCoverage != nil {
		depth := int64(*raw.QC.MedianCoverage)
		report.MedianDepth = &depth
	}

	for _, v := range raw.DrVariants {
		mutation := AmrMutation{
			Gene:             v.Gene,
			NucleotideChange: v.NucleotideChange,
			Freq:             v.Freq,
		}

		for _, d := range v.Drugs {
			mutation.Drugs = append(mutation.Drugs, d.Drug)
		}

		report.Mutations = append(report.Mutations, mutation)
	}

	return report, nil
}

func sampleIDFromPath(path string) string {
	base := filepath.Base(path)
	base = strings.TrimSuffix(base, ".gz")

	return strings.TrimSuffix(base, filepath.Ext(base))
}
