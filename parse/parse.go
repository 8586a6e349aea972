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

// package parse reads the heterogeneous laboratory output files that feed
// the warehouse, producing one explicitly typed record per input row.
// Parsing is the only place loosely shaped lab data is handled; everything
// downstream of this package works on fixed fields.
package parse

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/klauspost/pgzip"
)

// Error is the custom error type for the parse package.
type Error string

func (e Error) Error() string { return string(e) }

const (
	// DefaultUncalledMarker is the value a genotyping locus carries when
	// no allele could be called.
	DefaultUncalledMarker = "-"

	ErrMissingColumn = Error("input is missing a required column")
	ErrBadDate       = Error("unparseable date")
	ErrBadQuarter    = Error("unparseable quarter-of-test")
	ErrBadNumber     = Error("unparseable numeric field")
)

// openInput opens the given file for reading, transparently decompressing
// it if it has a .gz suffix.
func openInput(path string) (io.ReadCloser, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open input file: %w", err)
	}

	if !strings.HasSuffix(path, ".gz") {
		return f, nil
	}

	gz, err := pgzip.NewReader(f)
	if err != nil {
		f.Close()

		return nil, fmt.Errorf("failed to decompress input file: %w", err)
	}

	return &gzReadCloser{Reader: gz, file: f}, nil
}

type gzReadCloser struct {
	*pgzip.Reader
	file *os.File
}

func (g *gzReadCloser) Close() error {
	err := g.Reader.Close()
	if errr := g.file.Close(); err == nil {
		err = errr
	}

	return err
}

// readCSVRows reads a headered CSV file into one map per row, keyed by
// column name. Used by every CSV parser before converting rows to typed
// records.
func readCSVRows(path string) ([]map[string]string, error) {
	r, err := openInput(path)
	if err != nil {
		return nil, err
	}

	defer r.Close()

	cr := csv.NewReader(r)

	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("failed to read CSV header: %w", err)
	}

	var rows []map[string]string

	for {
		record, err := cr.Read()
		if err == io.EOF {
			break
		} else if err != nil {
			return nil, fmt.Errorf("failed to read CSV row: %w", err)
		}

		row := make(map[string]string, len(header))

		for i, col := range header {
			if i < len(record) {
				row[strings.TrimSpace(col)] = strings.TrimSpace(record[i])
			}
		}

		rows = append(rows, row)
	}

	return rows, nil
}

func requireColumn(row map[string]string, col string) (string, error) {
	v, ok := row[col]
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrMissingColumn, col)
	}

	return v, nil
}

// percentCalled returns 100 * called / total, or nil when there are no
// loci at all.
func percentCalled(called, total int) *float64 {
	if total == 0 {
		return nil
	}

	pc := float64(called) / float64(total) * 100

	return &pc
}

func optionalFloat(v string) (*float64, error) {
	if v == "" {
		return nil, nil
	}

	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return nil, fmt.Errorf("%w: %q", ErrBadNumber, v)
	}

	return &f, nil
}

func optionalInt(v string) (*int64, error) {
	if v == "" {
		return nil, nil
	}

	// some tools emit integer counts in float notation
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return nil, fmt.Errorf("%w: %q", ErrBadNumber, v)
	}

	i := int64(f)

	return &i, nil
}

func isoDate(v string) (*time.Time, error) {
	if v == "" {
		return nil, nil
	}

	t, err := time.Parse("2006-01-02", v)
	if err != nil {
		return nil, fmt.Errorf("%w: %q", ErrBadDate, v)
	}

	return &t, nil
}
