package series

// Copyright (C) 2021-2025 Intel Corporation
// SPDX-License-Identifier: BSD-3-Clause

import (
	"math"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func writeFile(t *testing.T, name string, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestLoadCSV(t *testing.T) {
	path := writeFile(t, "sensors.csv", "Time,A,B\n"+
		"2024-05-01 12:00:01,1.5,2\n"+
		"2024-05-01 12:00:00,0.5,\n")
	f, stats, err := Load(path, LoadOptions{})
	require.NoError(t, err)
	assert.Equal(t, []string{"A", "B"}, f.Columns)
	assert.Equal(t, 2, stats.Rows)
	assert.Equal(t, 1, stats.MissingCells)
	assert.False(t, f.Zoned)
	assert.Equal(t, time.Date(2024, 5, 1, 12, 0, 1, 0, time.UTC), f.Index[0])
	assert.Equal(t, 1.5, f.Values[0][0])
	assert.True(t, math.IsNaN(f.Values[1][1]))
}

func TestLoadNotFound(t *testing.T) {
	path := filepath.Join(t.TempDir(), "missing.csv")
	_, _, err := Load(path, LoadOptions{})
	require.Error(t, err)
	assert.True(t, IsNotFound(err))
	var le *LoadError
	require.ErrorAs(t, err, &le)
	assert.Equal(t, NotFound, le.Kind)
	assert.Equal(t, path, le.Path)
	assert.Contains(t, err.Error(), path)
}

func TestLoadParseFailures(t *testing.T) {
	tests := []struct {
		name    string
		content string
		errText string
	}{
		{"bad timestamp", "Time,A\nyesterday,1\n", "line 2"},
		{"duplicate column", "Time,A,A\n2024-05-01 12:00:00,1,2\n", "duplicate column name: A"},
		{"no data column", "Time\n2024-05-01 12:00:00\n", "at least one data column"},
		{"empty file", "", "no header row"},
		{"nothing numeric", "Time,A\n2024-05-01 12:00:00,x\n", "no numeric data columns"},
		{"bad quoting", "Time,A\n2024-05-01 12:00:00,\"1\n", "failed to read delimited input"},
		{"mixed offsets", "Time,A\n2024-05-01T12:00:00+02:00,1\n2024-05-01 12:00:01,2\n", "line 3: timestamps mix values"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeFile(t, "bad.csv", tt.content)
			_, _, err := Load(path, LoadOptions{})
			require.Error(t, err)
			assert.Equal(t, ParseFailure, Kind(err))
			assert.False(t, IsNotFound(err))
			assert.Contains(t, err.Error(), tt.errText)
		})
	}
}

func TestLoadDirectoryIsParseFailure(t *testing.T) {
	_, _, err := Load(t.TempDir(), LoadOptions{})
	require.Error(t, err)
	assert.Equal(t, ParseFailure, Kind(err))
}

func TestLoadDropsNonNumericColumns(t *testing.T) {
	path := writeFile(t, "mixed.csv", "Time,A,Label,B\n"+
		"2024-05-01 12:00:00,1,idle,2\n"+
		"2024-05-01 12:00:01,3,busy,4\n")
	f, stats, err := Load(path, LoadOptions{})
	require.NoError(t, err)
	assert.Equal(t, []string{"A", "B"}, f.Columns)
	assert.Equal(t, []string{"Label"}, stats.DroppedColumns)
	assert.Equal(t, [][]float64{{1, 2}, {3, 4}}, f.Values)
	assert.Equal(t, 0, stats.MissingCells)
}

func TestLoadDelimiterAndSelection(t *testing.T) {
	path := writeFile(t, "semi.txt", "Time;A;B;C\n2024-05-01T12:00:00Z;1;2;3\n")
	f, _, err := Load(path, LoadOptions{Delimiter: ';', Columns: []string{"C", "A"}})
	require.NoError(t, err)
	assert.Equal(t, []string{"C", "A"}, f.Columns)
	assert.Equal(t, [][]float64{{3, 1}}, f.Values)
	assert.True(t, f.Zoned)

	_, _, err = Load(path, LoadOptions{Delimiter: ';', Columns: []string{"Z"}})
	require.Error(t, err)
	assert.Equal(t, ParseFailure, Kind(err))
}

func TestLoadShortRowsAreMissing(t *testing.T) {
	path := writeFile(t, "short.csv", "Time,A,B\n2024-05-01 12:00:00,1\n2024-05-01 12:00:01,2,3\n")
	f, stats, err := Load(path, LoadOptions{})
	require.NoError(t, err)
	assert.True(t, math.IsNaN(f.Values[0][1]))
	assert.Equal(t, 1, stats.MissingCells)
}

func TestLoadWorkbook(t *testing.T) {
	wb := excelize.NewFile()
	sheet := wb.GetSheetName(0)
	rows := [][]any{
		{"Time", "A", "B"},
		{"2024-05-01 12:00:00", 1.25, 10},
		{"2024-05-01 12:00:01", 2.5, 20},
	}
	for r, row := range rows {
		for c, v := range row {
			cell, err := excelize.CoordinatesToCellName(c+1, r+1)
			require.NoError(t, err)
			require.NoError(t, wb.SetCellValue(sheet, cell, v))
		}
	}
	path := filepath.Join(t.TempDir(), "sensors.xlsx")
	require.NoError(t, wb.SaveAs(path))
	require.NoError(t, wb.Close())

	f, stats, err := Load(path, LoadOptions{})
	require.NoError(t, err)
	assert.Equal(t, 2, stats.Rows)
	assert.Equal(t, []string{"A", "B"}, f.Columns)
	assert.Equal(t, [][]float64{{1.25, 10}, {2.5, 20}}, f.Values)
}

func TestLoadWorkbookDateCells(t *testing.T) {
	wb := excelize.NewFile()
	sheet := wb.GetSheetName(0)
	require.NoError(t, wb.SetSheetRow(sheet, "A1", &[]any{"Time", "A"}))
	start := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	var expected []time.Time
	for i := range 3 {
		ts := start.Add(time.Duration(i) * time.Second)
		expected = append(expected, ts)
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		require.NoError(t, err)
		require.NoError(t, wb.SetSheetRow(sheet, cell, &[]any{ts, float64(i)}))
	}
	path := filepath.Join(t.TempDir(), "dates.xlsx")
	require.NoError(t, wb.SaveAs(path))
	require.NoError(t, wb.Close())

	f, stats, err := Load(path, LoadOptions{})
	require.NoError(t, err)
	assert.Equal(t, 3, stats.Rows)
	assert.False(t, f.Zoned)
	require.Len(t, f.Index, 3)
	for i, ts := range expected {
		assert.True(t, ts.Equal(f.Index[i]), "row %d: expected %v, got %v", i, ts, f.Index[i])
	}
	assert.Equal(t, [][]float64{{0}, {1}, {2}}, f.Values)
}

func TestConvertDateCells(t *testing.T) {
	rows := [][]string{
		{},
		{"Time", "A"},
		{"45413.5", "1"},
		{"2024-05-01 12:00:01", "2"},
	}
	convertDateCells(rows, false)
	assert.Equal(t, "Time", rows[1][0])
	assert.Equal(t, "2024-05-01T12:00:00", rows[2][0])
	assert.Equal(t, "2024-05-01 12:00:01", rows[3][0])

	rows = [][]string{{"Time", "A"}, {"43951.5", "1"}}
	convertDateCells(rows, true)
	assert.Equal(t, "2024-05-01T12:00:00", rows[1][0])
}

func TestParseTimestamp(t *testing.T) {
	tests := []struct {
		input    string
		expected time.Time
		zoned    bool
	}{
		{"2024-05-01 12:00:00", time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC), false},
		{"2024-05-01T12:00:00.250", time.Date(2024, 5, 1, 12, 0, 0, 250000000, time.UTC), false},
		{"2024-05-01T14:00:00+02:00", time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC), true},
		{"2024-05-01 14:00:00+02:00", time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC), true},
		{"2024-05-01", time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC), false},
		{"05/01/2024 12:00:00", time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC), false},
		{" 2024-05-01 12:00 ", time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC), false},
	}
	for _, tt := range tests {
		ts, zoned, err := parseTimestamp(tt.input)
		if err != nil {
			t.Fatalf("failed to parse %q: %v", tt.input, err)
		}
		if !ts.Equal(tt.expected) {
			t.Errorf("expected %v, got %v for %q", tt.expected, ts, tt.input)
		}
		if zoned != tt.zoned {
			t.Errorf("expected zoned=%t for %q", tt.zoned, tt.input)
		}
	}
	for _, bad := range []string{"", "noon", "1714564800"} {
		if _, _, err := parseTimestamp(bad); err == nil {
			t.Errorf("expected error for %q", bad)
		}
	}
}

func TestParseCell(t *testing.T) {
	tests := []struct {
		input string
		value float64
		ok    bool
	}{
		{"1.5", 1.5, true},
		{" -2 ", -2, true},
		{"1e3", 1000, true},
		{"", 0, false},
		{"NaN", 0, false},
		{"NA", 0, false},
		{"inf", 0, false},
		{"abc", 0, false},
	}
	for _, tt := range tests {
		v, ok := parseCell(tt.input)
		assert.Equal(t, tt.ok, ok, tt.input)
		if tt.ok {
			assert.Equal(t, tt.value, v, tt.input)
		} else {
			assert.True(t, math.IsNaN(v), tt.input)
		}
	}
}
