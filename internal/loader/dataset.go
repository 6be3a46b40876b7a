package loader

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/KshitijBharambe/hygiene/pkg/table"
)

// LoadDataset reads a CSV file with a header row into a table. Cell
// values are typed by inference: empty cells become nulls, numerics
// become int64 or float64, booleans become bool, everything else stays
// a string.
func LoadDataset(path string) (*table.Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening dataset: %w", err)
	}
	defer f.Close()

	name := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	return ReadDataset(name, f)
}

// ReadDataset reads CSV content into a table.
func ReadDataset(name string, r io.Reader) (*table.Table, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err == io.EOF {
		return nil, fmt.Errorf("dataset is empty")
	}
	if err != nil {
		return nil, fmt.Errorf("reading header: %w", err)
	}

	cells := make([][]any, len(header))
	rowCount := 0
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("reading row %d: %w", rowCount+1, err)
		}
		for i := range header {
			cells[i] = append(cells[i], inferCell(record[i]))
		}
		rowCount++
	}

	columns := make([]table.Column, len(header))
	for i, colName := range header {
		columns[i] = table.Column{Name: colName, Cells: cells[i]}
	}
	tbl, err := table.New(name, columns...)
	if err != nil {
		return nil, fmt.Errorf("building dataset: %w", err)
	}
	return tbl, nil
}

// inferCell types a raw CSV field. The empty string is a null.
func inferCell(raw string) any {
	if raw == "" {
		return nil
	}
	if i, err := strconv.ParseInt(raw, 10, 64); err == nil {
		return i
	}
	if f, err := strconv.ParseFloat(raw, 64); err == nil {
		return f
	}
	switch strings.ToLower(raw) {
	case "true":
		return true
	case "false":
		return false
	}
	return raw
}
