// Copyright (C) 2021-2025 Intel Corporation
// SPDX-License-Identifier: BSD-3-Clause

// Package series loads time-series tables from local files and prepares them
// for replay: sort, fixed-width resampling by mean, and removal of
// incomplete rows.
package series

import (
	"fmt"
	"math"
	"sort"
	"time"

	mapset "github.com/deckarep/golang-set/v2"
)

// DefaultBucket is the resampling width used when none is configured.
const DefaultBucket = time.Second

// Frame is a table of named numeric series indexed by timestamp.
// Values is row-major; Values[i][j] is the value of Columns[j] at Index[i].
// A missing value is NaN.
type Frame struct {
	Index   []time.Time
	Columns []string
	Values  [][]float64
	// Zoned is set when the source timestamps carried a UTC offset. Zoned
	// timestamps are held in UTC.
	Zoned bool
}

// Len returns the number of rows.
func (f *Frame) Len() int {
	return len(f.Index)
}

// Column returns a copy of the values of the named column.
func (f *Frame) Column(name string) ([]float64, error) {
	col := f.columnIndex(name)
	if col == -1 {
		return nil, fmt.Errorf("column %q not found", name)
	}
	out := make([]float64, len(f.Values))
	for i, row := range f.Values {
		out[i] = row[col]
	}
	return out, nil
}

func (f *Frame) columnIndex(name string) int {
	for i, c := range f.Columns {
		if c == name {
			return i
		}
	}
	return -1
}

// Sort orders rows by ascending timestamp. Rows with equal timestamps keep
// their input order.
func (f *Frame) Sort() {
	sort.Stable(byTime{f})
}

type byTime struct{ f *Frame }

func (b byTime) Len() int           { return len(b.f.Index) }
func (b byTime) Less(i, j int) bool { return b.f.Index[i].Before(b.f.Index[j]) }
func (b byTime) Swap(i, j int) {
	b.f.Index[i], b.f.Index[j] = b.f.Index[j], b.f.Index[i]
	b.f.Values[i], b.f.Values[j] = b.f.Values[j], b.f.Values[i]
}

// Resample groups the rows of a sorted frame into contiguous buckets of the
// given width and returns a new frame with one row per non-empty bucket.
// Each cell is the mean of the non-missing samples in the bucket, or NaN
// when the bucket has none for that column. Buckets that receive no rows are
// not emitted. Bucket boundaries are multiples of width counted from the
// zero time in UTC, so widths that do not divide a day, or hour buckets for a
// source with a half hour offset, do not line up with local midnight.
func (f *Frame) Resample(width time.Duration) *Frame {
	if width <= 0 {
		width = DefaultBucket
	}
	out := &Frame{
		Columns: append([]string(nil), f.Columns...),
		Zoned:   f.Zoned,
	}
	numCols := len(f.Columns)
	sums := make([]float64, numCols)
	counts := make([]int, numCols)
	var bucket time.Time
	open := false
	flush := func() {
		row := make([]float64, numCols)
		for c := range row {
			if counts[c] == 0 {
				row[c] = math.NaN()
			} else {
				row[c] = sums[c] / float64(counts[c])
			}
			sums[c] = 0
			counts[c] = 0
		}
		out.Index = append(out.Index, bucket)
		out.Values = append(out.Values, row)
	}
	for i, ts := range f.Index {
		key := ts.Truncate(width)
		if !open || !key.Equal(bucket) {
			if open {
				flush()
			}
			bucket = key
			open = true
		}
		for c, v := range f.Values[i] {
			if math.IsNaN(v) {
				continue
			}
			sums[c] += v
			counts[c]++
		}
	}
	if open {
		flush()
	}
	return out
}

// DropMissing returns a frame without the rows that contain a missing value,
// and the number of rows removed.
func (f *Frame) DropMissing() (*Frame, int) {
	out := &Frame{
		Columns: append([]string(nil), f.Columns...),
		Zoned:   f.Zoned,
	}
	dropped := 0
	for i, row := range f.Values {
		if hasMissing(row) {
			dropped++
			continue
		}
		out.Index = append(out.Index, f.Index[i])
		out.Values = append(out.Values, row)
	}
	return out, dropped
}

func hasMissing(row []float64) bool {
	for _, v := range row {
		if math.IsNaN(v) {
			return true
		}
	}
	return false
}

// Select returns a frame containing only the named columns, in the order
// given.
func (f *Frame) Select(names []string) (*Frame, error) {
	available := mapset.NewSet(f.Columns...)
	requested := mapset.NewSet[string]()
	var idx []int
	for _, name := range names {
		if !requested.Add(name) {
			return nil, fmt.Errorf("column %q selected more than once", name)
		}
		if !available.Contains(name) {
			return nil, fmt.Errorf("column %q not found, available columns: %v", name, f.Columns)
		}
		idx = append(idx, f.columnIndex(name))
	}
	out := &Frame{
		Index:   f.Index,
		Columns: append([]string(nil), names...),
		Zoned:   f.Zoned,
	}
	out.Values = make([][]float64, len(f.Values))
	for i, row := range f.Values {
		selected := make([]float64, len(idx))
		for j, col := range idx {
			selected[j] = row[col]
		}
		out.Values[i] = selected
	}
	return out, nil
}
