package series

// Copyright (C) 2021-2025 Intel Corporation
// SPDX-License-Identifier: BSD-3-Clause

// functions to load a frame from a delimited text file or an xlsx workbook

import (
	"encoding/csv"
	"io"
	"io/fs"
	"log/slog"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	mapset "github.com/deckarep/golang-set/v2"
	"github.com/pkg/errors"
	"github.com/xuri/excelize/v2"
)

// workbookTimeLayout formats converted date cells, it is one of timeLayouts
const workbookTimeLayout = "2006-01-02T15:04:05.999999999"

// LoadOptions controls how a source file is read.
type LoadOptions struct {
	// Delimiter separates fields in text input. Zero means comma.
	Delimiter rune
	// Sheet names the worksheet to read from xlsx input. Empty means the
	// first sheet.
	Sheet string
	// Columns, if not empty, selects and orders the series kept.
	Columns []string
}

// LoadStats describes what the loader saw in the source.
type LoadStats struct {
	Rows           int
	MissingCells   int
	DroppedColumns []string
}

// Load reads the file at path into a frame. The first column is parsed as
// the timestamp index; every other column is a series named by the header
// row. Columns without a single numeric cell are dropped.
func Load(path string, opts LoadOptions) (*Frame, LoadStats, error) {
	records, err := readRecords(path, opts)
	if err != nil {
		return nil, LoadStats{}, err
	}
	frame, stats, err := newFrameFromRecords(records)
	if err != nil {
		return nil, stats, parseFailure(path, err)
	}
	if len(opts.Columns) > 0 {
		if frame, err = frame.Select(opts.Columns); err != nil {
			return nil, stats, parseFailure(path, err)
		}
	}
	return frame, stats, nil
}

func readRecords(path string, opts LoadOptions) ([][]string, error) {
	info, err := os.Stat(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, notFound(path, err)
		}
		return nil, parseFailure(path, err)
	}
	if info.IsDir() {
		return nil, parseFailure(path, errors.Errorf("%s is a directory", path))
	}
	var records [][]string
	if strings.EqualFold(filepath.Ext(path), ".xlsx") {
		records, err = readWorkbook(path, opts.Sheet)
	} else {
		records, err = readDelimited(path, opts.Delimiter)
	}
	if err != nil {
		return nil, parseFailure(path, err)
	}
	return records, nil
}

func readDelimited(path string, delimiter rune) (records [][]string, err error) {
	file, err := os.Open(path) // #nosec G304
	if err != nil {
		return
	}
	defer file.Close()
	reader := csv.NewReader(file)
	if delimiter != 0 {
		reader.Comma = delimiter
	}
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true
	for {
		var fields []string
		if fields, err = reader.Read(); err != nil {
			if err == io.EOF {
				err = nil
				break
			}
			err = errors.Wrap(err, "failed to read delimited input")
			return
		}
		records = append(records, fields)
	}
	return
}

func readWorkbook(path string, sheet string) ([][]string, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "failed to open workbook")
	}
	defer func() {
		if err := f.Close(); err != nil {
			slog.Warn("failed to close workbook", slog.String("path", path), slog.String("error", err.Error()))
		}
	}()
	if sheet == "" {
		sheets := f.GetSheetList()
		if len(sheets) == 0 {
			return nil, errors.New("workbook has no sheets")
		}
		sheet = sheets[0]
	}
	props, err := f.GetWorkbookProps()
	if err != nil {
		return nil, errors.Wrap(err, "failed to read workbook properties")
	}
	date1904 := props.Date1904 != nil && *props.Date1904
	// raw values, formatted date cells would lose their precision
	rows, err := f.GetRows(sheet, excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read sheet %s", sheet)
	}
	convertDateCells(rows, date1904)
	return rows, nil
}

// convertDateCells rewrites serial date numbers in the time column of the data
// rows as timestamp text. Other cells are left for parseTimestamp.
func convertDateCells(rows [][]string, date1904 bool) {
	header := true
	for _, row := range rows {
		if isBlank(row) {
			continue
		}
		if header {
			header = false
			continue
		}
		serial, err := strconv.ParseFloat(strings.TrimSpace(row[0]), 64)
		if err != nil {
			continue
		}
		ts, err := excelize.ExcelDateToTime(serial, date1904)
		if err != nil {
			continue
		}
		row[0] = ts.Format(workbookTimeLayout)
	}
}

// newFrameFromRecords builds a frame from a header record followed by data
// records.
func newFrameFromRecords(records [][]string) (*Frame, LoadStats, error) {
	var stats LoadStats
	// skip leading blank records
	for len(records) > 0 && isBlank(records[0]) {
		records = records[1:]
	}
	if len(records) == 0 {
		return nil, stats, errors.New("no header row found")
	}
	header := records[0]
	if len(header) < 2 {
		return nil, stats, errors.Errorf("expected a time column and at least one data column, found %d column(s)", len(header))
	}
	names := make([]string, len(header)-1)
	seen := mapset.NewSet[string]()
	for i, h := range header[1:] {
		name := strings.TrimSpace(h)
		if name == "" {
			return nil, stats, errors.Errorf("column %d has an empty name", i+2)
		}
		if !seen.Add(name) {
			return nil, stats, errors.Errorf("duplicate column name: %s", name)
		}
		names[i] = name
	}
	frame := &Frame{}
	numeric := make([]bool, len(names))
	for recIdx, fields := range records[1:] {
		if isBlank(fields) {
			continue
		}
		line := recIdx + 2 // 1-based, after header
		ts, zoned, err := parseTimestamp(fields[0])
		if err != nil {
			return nil, stats, errors.Wrapf(err, "line %d", line)
		}
		// the index is either all zoned or all naive
		if frame.Len() == 0 {
			frame.Zoned = zoned
		} else if zoned != frame.Zoned {
			return nil, stats, errors.Errorf("line %d: timestamps mix values with and without a UTC offset", line)
		}
		row := make([]float64, len(names))
		for c := range names {
			var field string
			if c+1 < len(fields) {
				field = fields[c+1]
			}
			v, ok := parseCell(field)
			if ok {
				numeric[c] = true
			}
			row[c] = v
		}
		frame.Index = append(frame.Index, ts)
		frame.Values = append(frame.Values, row)
	}
	stats.Rows = frame.Len()
	if frame.Len() == 0 {
		// header only, keep the declared names
		frame.Columns = names
		return frame, stats, nil
	}
	// drop non-numeric columns
	var keep []int
	for c, name := range names {
		if numeric[c] {
			keep = append(keep, c)
			continue
		}
		stats.DroppedColumns = append(stats.DroppedColumns, name)
		slog.Warn("dropping non-numeric column", slog.String("column", name))
	}
	if len(keep) == 0 {
		return nil, stats, errors.New("no numeric data columns found")
	}
	frame.Columns = make([]string, 0, len(keep))
	for _, c := range keep {
		frame.Columns = append(frame.Columns, names[c])
	}
	if len(keep) != len(names) {
		for i, row := range frame.Values {
			kept := make([]float64, len(keep))
			for j, c := range keep {
				kept[j] = row[c]
			}
			frame.Values[i] = kept
		}
	}
	stats.MissingCells = countMissing(frame)
	return frame, stats, nil
}

func isBlank(fields []string) bool {
	for _, f := range fields {
		if strings.TrimSpace(f) != "" {
			return false
		}
	}
	return true
}

// countMissing returns the number of NaN cells in the frame.
func countMissing(f *Frame) (n int) {
	for _, row := range f.Values {
		for _, v := range row {
			if math.IsNaN(v) {
				n++
			}
		}
	}
	return
}
