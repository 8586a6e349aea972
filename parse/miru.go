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
	"strings"
	"time"
)

// MiruProfile is one sample's 24-locus MIRU-VNTR typing result. Loci are
// keyed by their genomic position on the reference.
type MiruProfile struct {
	SampleID          string
	Accession         string
	CollectionDate    *time.Time
	QuarterTested     string
	YearTested        string
	PercentCalled     *float64
	ProfileByPosition map[int]string
	MiruPattern       string
	Cluster           string
}

// vntrPositionByHeader maps each cleaned MIRU CSV header to the genomic
// position of the VNTR locus it carries; the historical layout names twelve
// loci by their MIRU alias and the other twelve by position directly
// (doi:10.1371/journal.pone.0149435, Table 1).
var vntrPositionByHeader = map[string]int{
	"miru_02": 154,
	"miru_04": 580,
	"miru_10": 960,
	"miru_16": 1644,
	"miru_20": 2059,
	"miru_23": 2531,
	"miru_24": 2687,
	"miru_26": 2996,
	"miru_27": 3007,
	"miru_31": 3192,
	"miru_39": 4348,
	"miru_40": 802,
	"424":     424,
	"577":     577,
	"1955":    1955,
	"2163":    2163,
	"2165":    2165,
	"2347":    2347,
	"2401":    2401,
	"2461":    2461,
	"3171":    3171,
	"3690":    3690,
	"4052":    4052,
	"4156":    4156,
}

// MiruProfiles reads the historical MIRU CSV layout: free-form headers are
// normalised, the quarter-of-test field is rewritten from "<year> <n>th QTR"
// to "<year>-Q<n>", and the collection date from YYYY-Month-DD to ISO.
func MiruProfiles(path string) ([]MiruProfile, error) {
	rows, err := readCSVRows(path)
	if err != nil {
		return nil, err
	}

	profiles := make([]MiruProfile, 0, len(rows))

	for _, row := range rows {
		profile, err := miruFromRow(row)
		if err != nil {
			return nil, err
		}

		profiles = append(profiles, profile)
	}

	return profiles, nil
}

func miruFromRow(row map[string]string) (MiruProfile, error) {
	var (
		profile MiruProfile
		err     error
	)

	byPosition := make(map[int]string, len(vntrPositionByHeader))
	called := 0

	for header, value := range row {
		cleaned := cleanMiruHeader(header)

		if pos, ok := vntrPositionByHeader[cleaned]; ok {
			byPosition[pos] = value

			if value != DefaultUncalledMarker {
				called++
			}

			continue
		}

		switch cleaned {
		case "key", "sample_id":
			profile.SampleID = value
		case "acc_num", "accession":
			profile.Accession = value
		case "year_tested":
			if profile.QuarterTested, profile.YearTested, err = miruQuarter(value); err != nil {
				return MiruProfile{}, err
			}
		case "collection_date":
			if profile.CollectionDate, err = miruDate(value); err != nil {
				return MiruProfile{}, err
			}
		case "miru_pattern":
			profile.MiruPattern = value
		case "cluster":
			profile.Cluster = value
		}
	}

	if profile.SampleID == "" {
		return MiruProfile{}, fmt.Errorf("%w: %q", ErrMissingColumn, "key")
	}

	profile.ProfileByPosition = byPosition
	profile.PercentCalled = percentCalled(called, len(byPosition))

	return profile, nil
}

func cleanMiruHeader(header string) string {
	cleaned := strings.ToLower(strings.TrimSpace(header))
	cleaned = strings.ReplaceAll(cleaned, " ", "_")

	return strings.ReplaceAll(cleaned, "#", "_num")
}

// miruQuarter converts a free-text quarter of test like "2009 4th QTR" to
// "2009-Q4", and returns the year separately.
func miruQuarter(v string) (quarter, year string, err error) {
	if v == "" {
		return "", "", nil
	}

	parts := strings.Fields(v)
	if len(parts) < 2 || parts[1] == "" {
		return "", "", fmt.Errorf("%w: %q", ErrBadQuarter, v)
	}

	if _, err := strconv.Atoi(parts[1][:1]); err != nil {
		return "", "", fmt.Errorf("%w: %q", ErrBadQuarter, v)
	}

	return parts[0] + "-Q" + parts[1][:1], parts[0], nil
}

// miruDate parses a YYYY-Month-DD date, tolerating full month names by
// truncating them to their three-letter abbreviation.
func miruDate(v string) (*time.Time, error) {
	if v == "" {
		return nil, nil
	}

	parts := strings.SplitN(v, "-", 3)
	if len(parts) != 3 {
		return nil, fmt.Errorf("%w: %q", ErrBadDate, v)
	}

	if len(parts[1]) > 3 {
		parts[1] = parts[1][:3]
	}

	t, err := time.Parse("2006-Jan-2", strings.Join(parts, "-"))
	if err != nil {
		return nil, fmt.Errorf("%w: %q", ErrBadDate, v)
	}

	return &t, nil
}
