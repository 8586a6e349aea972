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
	"database/sql"
	"fmt"
)

// childFKRepointQueries re-point rows owned by a superseded sample version
// at its replacement, so ownership always follows the current version.
var childFKRepointQueries = []string{
	"UPDATE library SET sample_id = ? WHERE sample_id = ?",
	"UPDATE miru_profile SET sample_id = ? WHERE sample_id = ?",
	"UPDATE miru_cluster_member SET sample_id = ? WHERE sample_id = ?",
}

// updateSampleWithHistoryTx turns a logical update of a sample into an
// insert-only append: within the caller's transaction it stamps the old
// row's valid_until, inserts the new field values as a fresh row with a
// null valid_until, and re-points child rows at the new version. The
// current version of a sample is always exactly the one row whose
// valid_until is null.
func (d *DB) updateSampleWithHistoryTx(tx *sql.Tx, s *Sample) (*Sample, error) {
	ts := now()

	res, err := tx.Exec(d.rebind("UPDATE sample SET valid_until = ? WHERE id = ? AND "+currently), ts, s.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to close out sample version: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return nil, err
	}

	if n == 0 {
		return nil, fmt.Errorf("%w: sample %q version %d is not current", ErrNotFound, s.SampleID, s.ID)
	}

	superseded := *s
	superseded.ValidUntil = &ts

	next := *s
	if err := d.insertSampleTx(tx, &next); err != nil {
		return nil, err
	}

	for _, query := range childFKRepointQueries {
		if _, err := tx.Exec(d.rebind(query), next.ID, superseded.ID); err != nil {
			return nil, fmt.Errorf("failed to re-point child rows: %w", err)
		}
	}

	return &next, nil
}
