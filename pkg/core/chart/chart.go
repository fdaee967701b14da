// Copyright CSV Chart Authors
// SPDX-License-Identifier: Apache-2.0

// Package chart reduces a delimited text file to the label/value pairs
// drawn by the visualization page.
package chart

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
)

// DefaultTitle is attached to every extraction unless the Extractor overrides it.
const DefaultTitle = "Uploaded data"

// ErrExtraction is the only error kind callers should test for. The wrapped
// cause is kept for diagnostics.
var ErrExtraction = errors.New("chart extraction failed")

var (
	errEmptyFile      = errors.New("empty file")
	errTooFewColumns  = errors.New("fewer than two columns")
	errRowTooLong     = errors.New("row has more fields than the header")
	errUnreadablePath = errors.New("unreadable file")
)

// Data holds row-aligned labels and values ready for charting.
type Data struct {
	Labels []string `json:"labels"`
	Values []string `json:"values"`
	Title  string   `json:"title"`
}

// Len returns the number of label/value pairs.
func (d *Data) Len() int {
	return len(d.Labels)
}

// Extractor selects the first two columns of a CSV file and drops rows with a
// missing label or value. The zero value is usable.
type Extractor struct {
	Title  string
	Comma  rune         // field delimiter, ',' when zero
	Logger *slog.Logger // nil disables diagnostics
}

// Extract reads the file at path.
func (e *Extractor) Extract(path string) (*Data, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, e.fail(path, fmt.Errorf("%w: %w", errUnreadablePath, err))
	}
	defer f.Close()

	data, err := e.extract(f)
	if err != nil {
		return nil, e.fail(path, err)
	}
	return data, nil
}

// ExtractFrom reads CSV content from r.
func (e *Extractor) ExtractFrom(r io.Reader) (*Data, error) {
	data, err := e.extract(r)
	if err != nil {
		return nil, e.fail("", err)
	}
	return data, nil
}

func (e *Extractor) extract(r io.Reader) (*Data, error) {
	comma := e.Comma
	if comma == 0 {
		comma = ','
	}
	rows, err := readRows(r, comma)
	if err != nil {
		return nil, err
	}
	labels, values, err := selectPairs(rows)
	if err != nil {
		return nil, err
	}

	title := e.Title
	if title == "" {
		title = DefaultTitle
	}
	return &Data{Labels: labels, Values: values, Title: title}, nil
}

func (e *Extractor) fail(path string, cause error) error {
	if e.Logger != nil {
		if path != "" {
			e.Logger.Warn("Extraction failed", "path", path, "error", cause)
		} else {
			e.Logger.Warn("Extraction failed", "error", cause)
		}
	}
	return fmt.Errorf("%w: %w", ErrExtraction, cause)
}

// Extract reads path with a default Extractor.
func Extract(path string) (*Data, error) {
	var e Extractor
	return e.Extract(path)
}

// selectPairs keeps the first two columns of every data row, skipping rows
// where either is missing.
func selectPairs(rows [][]string) ([]string, []string, error) {
	if len(rows) == 0 {
		return nil, nil, errEmptyFile
	}
	header := rows[0]
	if len(header) < 2 {
		return nil, nil, fmt.Errorf("%w: header has %d", errTooFewColumns, len(header))
	}

	labels := make([]string, 0, len(rows)-1)
	values := make([]string, 0, len(rows)-1)
	for i, row := range rows[1:] {
		if len(row) > len(header) {
			return nil, nil, fmt.Errorf("%w: data row %d has %d fields, header has %d",
				errRowTooLong, i+1, len(row), len(header))
		}
		if len(row) < 2 || IsMissing(row[0]) || IsMissing(row[1]) {
			continue
		}
		labels = append(labels, row[0])
		values = append(values, row[1])
	}
	return labels, values, nil
}
