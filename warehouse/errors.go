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

// Error is the custom error type for the warehouse package.
type Error string

func (e Error) Error() string { return string(e) }

const (
	// ErrNotFound is returned when a natural-key lookup finds zero rows
	// where exactly one was expected.
	ErrNotFound = Error("record not found")

	// ErrMissingParent is returned when an assay record references a
	// library (by sequencing run id) that does not exist for its sample.
	// Loaders treat it as a per-record skip, not a batch failure.
	ErrMissingParent = Error("library not found for sequencing run")

	// ErrDuplicateLibrary is returned when more than one library shares a
	// (sample, sequencing run) pair. This is a data-integrity violation to
	// be reported, never resolved by taking the first match.
	ErrDuplicateLibrary = Error("multiple libraries share a sequencing run id")

	// ErrShapeMismatch is returned when an incoming fixed-size list (the
	// top-5 species breakdown) does not match the stored list.
	ErrShapeMismatch = Error("species set size does not match stored set")

	// ErrValidation is returned when a mandatory natural-key field is
	// blank, so batch reporting can flag the skipped record.
	ErrValidation = Error("blank natural key")

	// ErrUnsupportedDriver is returned by Open for an unknown driver name.
	ErrUnsupportedDriver = Error("unsupported database driver")
)
