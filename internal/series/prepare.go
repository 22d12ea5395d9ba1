package series

// Copyright (C) 2021-2025 Intel Corporation
// SPDX-License-Identifier: BSD-3-Clause

import (
	"fmt"
	"log/slog"
	"time"
)

// Stage labels passed to PrepareOptions.Status.
const (
	StageLoad     = "load"
	StageResample = "resample"
)

// PrepareOptions configures Prepare.
type PrepareOptions struct {
	LoadOptions
	// Bucket is the resampling width. Zero means DefaultBucket.
	Bucket time.Duration
	// Derive lists derived series computed after resampling.
	Derive []Derived
	// Status, if set, is called as each stage progresses.
	Status func(stage string, status string)
}

// Stats counts what happened to the data during preparation.
type Stats struct {
	RawPoints       int
	MissingCells    int
	DroppedColumns  []string
	Buckets         int
	DroppedBuckets  int
	ResampledPoints int
}

// Prepare loads the file at path and produces a frame ready for replay:
// sorted, resampled into fixed-width buckets by mean, derived series added,
// and every row containing a missing value removed. Any failure is a
// *LoadError and no frame is returned.
func Prepare(path string, opts PrepareOptions) (*Frame, Stats, error) {
	var stats Stats
	status := func(stage, msg string) {
		if opts.Status != nil {
			opts.Status(stage, msg)
		}
	}
	bucket := opts.Bucket
	if bucket <= 0 {
		bucket = DefaultBucket
	}
	status(StageLoad, "reading")
	raw, loadStats, err := Load(path, opts.LoadOptions)
	if err != nil {
		status(StageLoad, "failed")
		return nil, stats, err
	}
	stats.RawPoints = loadStats.Rows
	stats.MissingCells = loadStats.MissingCells
	stats.DroppedColumns = loadStats.DroppedColumns
	slog.Info("loaded source", slog.String("path", path), slog.Int("rows", stats.RawPoints), slog.Int("columns", len(raw.Columns)), slog.Int("missing cells", stats.MissingCells))
	status(StageLoad, fmt.Sprintf("%d rows", stats.RawPoints))

	status(StageResample, "sorting")
	raw.Sort()
	status(StageResample, "resampling")
	resampled := raw.Resample(bucket)
	stats.Buckets = resampled.Len()
	if err = resampled.Derive(opts.Derive); err != nil {
		status(StageResample, "failed")
		return nil, stats, parseFailure(path, err)
	}
	prepared, dropped := resampled.DropMissing()
	stats.DroppedBuckets = dropped
	stats.ResampledPoints = prepared.Len()
	slog.Info("resampled source", slog.String("bucket", bucket.String()), slog.Int("buckets", stats.Buckets), slog.Int("dropped", stats.DroppedBuckets), slog.Int("points", stats.ResampledPoints))
	status(StageResample, fmt.Sprintf("%d points", stats.ResampledPoints))
	return prepared, stats, nil
}
