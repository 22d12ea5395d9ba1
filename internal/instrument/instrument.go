// Package instrument counts what a replay run did to its data.
package instrument

// Copyright (C) 2021-2025 Intel Corporation
// SPDX-License-Identifier: BSD-3-Clause

import (
	"log/slog"
	"strings"

	"github.com/prometheus/client_golang/prometheus"

	"tsreplay/internal/series"
)

const metricPrefix = "tsreplay_"

// Counters holds the run counters in a private registry.
type Counters struct {
	registry       *prometheus.Registry
	rows           prometheus.Counter
	missingCells   prometheus.Counter
	droppedColumns prometheus.Counter
	buckets        prometheus.Counter
	droppedBuckets prometheus.Counter
	bytesWritten   prometheus.Counter
}

func newCounter(name, help string) prometheus.Counter {
	return prometheus.NewCounter(prometheus.CounterOpts{
		Name: metricPrefix + name,
		Help: help,
	})
}

// New creates a set of zeroed counters
func New() *Counters {
	c := &Counters{
		registry:       prometheus.NewRegistry(),
		rows:           newCounter("rows_read_total", "Data rows read from the source file"),
		missingCells:   newCounter("cells_missing_total", "Cells of numeric columns that were empty or unparsable"),
		droppedColumns: newCounter("columns_dropped_total", "Columns dropped because no cell was numeric"),
		buckets:        newCounter("buckets_total", "Non-empty buckets produced by resampling"),
		droppedBuckets: newCounter("buckets_dropped_total", "Buckets dropped because a value was missing"),
		bytesWritten:   newCounter("bytes_written_total", "Bytes of replay document written"),
	}
	c.registry.MustRegister(c.rows, c.missingCells, c.droppedColumns, c.buckets, c.droppedBuckets, c.bytesWritten)
	return c
}

// Prepared adds the counts from a Prepare run
func (c *Counters) Prepared(stats series.Stats) {
	c.rows.Add(float64(stats.RawPoints))
	c.missingCells.Add(float64(stats.MissingCells))
	c.droppedColumns.Add(float64(len(stats.DroppedColumns)))
	c.buckets.Add(float64(stats.Buckets))
	c.droppedBuckets.Add(float64(stats.DroppedBuckets))
}

// Written adds the size of a written document
func (c *Counters) Written(n int) {
	c.bytesWritten.Add(float64(n))
}

// Snapshot returns the current value of every counter keyed by its name
// without the common prefix.
func (c *Counters) Snapshot() (map[string]float64, error) {
	families, err := c.registry.Gather()
	if err != nil {
		return nil, err
	}
	values := make(map[string]float64, len(families))
	for _, mf := range families {
		for _, m := range mf.GetMetric() {
			values[strings.TrimPrefix(mf.GetName(), metricPrefix)] += m.GetCounter().GetValue()
		}
	}
	return values, nil
}

// Log writes the snapshot as one debug record
func (c *Counters) Log() {
	values, err := c.Snapshot()
	if err != nil {
		slog.Warn("failed to gather run counters", slog.String("error", err.Error()))
		return
	}
	attrs := make([]any, 0, len(values))
	for name, value := range values {
		attrs = append(attrs, slog.Float64(name, value))
	}
	slog.Debug("run counters", attrs...)
}
