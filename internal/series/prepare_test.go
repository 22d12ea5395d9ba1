package series

// Copyright (C) 2021-2025 Intel Corporation
// SPDX-License-Identifier: BSD-3-Clause

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPrepare(t *testing.T) {
	path := writeFile(t, "sensors.csv", "Time,A,B\n"+
		"2024-05-01 12:00:02.500,5,50\n"+
		"2024-05-01 12:00:00.100,1,10\n"+
		"2024-05-01 12:00:00.900,3,30\n"+
		"2024-05-01 12:00:01.000,,20\n"+ // A missing for the whole second
		"2024-05-01 12:00:05.000,7,70\n")
	var stages []string
	f, stats, err := Prepare(path, PrepareOptions{
		Status: func(stage, status string) { stages = append(stages, stage) },
	})
	require.NoError(t, err)
	assert.Equal(t, 5, stats.RawPoints)
	assert.Equal(t, 4, stats.Buckets)
	assert.Equal(t, 1, stats.DroppedBuckets)
	assert.Equal(t, 3, stats.ResampledPoints)
	assert.Equal(t, []time.Time{
		time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC),
		time.Date(2024, 5, 1, 12, 0, 2, 0, time.UTC),
		time.Date(2024, 5, 1, 12, 0, 5, 0, time.UTC),
	}, f.Index)
	assert.Equal(t, [][]float64{{2, 20}, {5, 50}, {7, 70}}, f.Values)
	assert.Contains(t, stages, StageLoad)
	assert.Contains(t, stages, StageResample)
}

func TestPrepareDropsRowsNeverMoreThanBuckets(t *testing.T) {
	path := writeFile(t, "gappy.csv", "Time,A,B\n"+
		"2024-05-01 12:00:00,1,\n"+
		"2024-05-01 12:00:01,,2\n"+
		"2024-05-01 12:00:02,3,4\n")
	f, stats, err := Prepare(path, PrepareOptions{})
	require.NoError(t, err)
	assert.LessOrEqual(t, f.Len(), stats.Buckets)
	assert.Equal(t, 1, f.Len())
	for _, row := range f.Values {
		assert.False(t, hasMissing(row))
	}
}

func TestPrepareWithDerivedSeries(t *testing.T) {
	path := writeFile(t, "power.csv", "Time,volts,amps\n"+
		"2024-05-01 12:00:00,12,2\n"+
		"2024-05-01 12:00:01,12,0.5\n")
	f, _, err := Prepare(path, PrepareOptions{
		Derive: []Derived{{Name: "watts", Expression: "volts * amps"}},
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"volts", "amps", "watts"}, f.Columns)
	assert.Equal(t, [][]float64{{12, 2, 24}, {12, 0.5, 6}}, f.Values)
}

func TestPrepareFailures(t *testing.T) {
	_, _, err := Prepare("/nonexistent/dir/data.csv", PrepareOptions{})
	assert.True(t, IsNotFound(err))

	path := writeFile(t, "ok.csv", "Time,A\n2024-05-01 12:00:00,1\n")
	_, _, err = Prepare(path, PrepareOptions{Derive: []Derived{{Name: "x", Expression: "Q + 1"}}})
	require.Error(t, err)
	assert.Equal(t, ParseFailure, Kind(err))
}

func TestPrepareCustomBucket(t *testing.T) {
	path := writeFile(t, "minute.csv", "Time,A\n"+
		"2024-05-01 12:00:10,1\n"+
		"2024-05-01 12:00:50,3\n"+
		"2024-05-01 12:01:30,5\n")
	f, _, err := Prepare(path, PrepareOptions{Bucket: time.Minute})
	require.NoError(t, err)
	assert.Equal(t, [][]float64{{2}, {5}}, f.Values)
}
