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
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/hashicorp/go-multierror"
)

// LoadStats counts the per-record outcomes of one loader run. Skipped
// covers records rejected with a typed no-op (missing parent library,
// blank natural key); Failed covers records whose transaction rolled back
// for any other reason.
type LoadStats struct {
	Created   int
	Updated   int
	Unchanged int
	Skipped   int
	Failed    int
}

func (s *LoadStats) add(o recordOutcome) {
	switch o {
	case outcomeCreated:
		s.Created++
	case outcomeUpdated:
		s.Updated++
	case outcomeUnchanged:
		s.Unchanged++
	}
}

type recordOutcome int

const (
	outcomeCreated recordOutcome = iota
	outcomeUpdated
	outcomeUnchanged
)

// Load is one row of the load audit table, stamped with a UUID that also
// appears on the run's log lines.
type Load struct {
	ID        int64
	UUID      uuid.UUID
	Kind      string
	InputPath string
	StartedAt time.Time
}

// BeginLoad records the start of a loader run in the audit table.
func (d *DB) BeginLoad(ctx context.Context, kind, inputPath string) (*Load, error) {
	l := &Load{
		UUID:      uuid.New(),
		Kind:      kind,
		InputPath: inputPath,
		StartedAt: now(),
	}

	query := d.rebind("INSERT INTO load (load_uuid, kind, input_path, started_at) " +
		"VALUES (?, ?, ?, ?) RETURNING id")

	err := d.handle.QueryRowContext(ctx, query, l.UUID.String(), l.Kind,
		nullString(l.InputPath), l.StartedAt).Scan(&l.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to record load start: %w", err)
	}

	return l, nil
}

// Finish stamps the audit row with the run's end time and outcome counts.
func (d *DB) Finish(ctx context.Context, l *Load, stats LoadStats) error {
	query := d.rebind("UPDATE load SET finished_at = ?, num_created = ?, " +
		"num_updated = ?, num_unchanged = ?, num_skipped = ?, num_failed = ? WHERE id = ?")

	_, err := d.handle.ExecContext(ctx, query, now(), stats.Created,
		stats.Updated, stats.Unchanged, stats.Skipped, stats.Failed, l.ID)
	if err != nil {
		return fmt.Errorf("failed to record load finish: %w", err)
	}

	return nil
}

// skippable reports whether a per-record error is a typed no-op rejection
// rather than a persistence failure.
func skippable(err error) bool {
	return errors.Is(err, ErrMissingParent) || errors.Is(err, ErrValidation)
}

// recordFailure classifies a per-record error into the stats, warns about
// it by sample id, and appends persistence failures to the aggregate.
func (d *DB) recordFailure(sampleID string, err error, stats *LoadStats, agg *multierror.Error) *multierror.Error {
	if skippable(err) {
		stats.Skipped++
		d.logger.Warn("skipped record", "sample_id", sampleID, "reason", err)

		return agg
	}

	stats.Failed++
	d.logger.Error("failed to persist record", "sample_id", sampleID, "err", err)

	return multierror.Append(agg, fmt.Errorf("sample %q: %w", sampleID, err))
}
