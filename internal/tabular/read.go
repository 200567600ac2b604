// Package tabular converts uploaded spreadsheets into importer rows and
// renders donations as CSV for export.
package tabular

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/templeledger/donations-backend/internal/importer"
)

var (
	// ErrUnsupportedFormat is returned for file types other than CSV and XLSX.
	ErrUnsupportedFormat = errors.New("unsupported file format, upload a .csv or .xlsx file")

	// ErrNoHeader is returned when a file has no non-blank header row.
	ErrNoHeader = errors.New("file must contain a header row")
)

// Read dispatches on the file extension of name.
func Read(name string, r io.Reader) ([]importer.RawRow, error) {
	switch strings.ToLower(filepath.Ext(strings.TrimSpace(name))) {
	case ".csv":
		return ReadCSV(r)
	case ".xlsx", ".xlsm":
		return ReadXLSX(r)
	}
	return nil, ErrUnsupportedFormat
}

// ReadCSV parses r as comma-separated values. The first non-blank record is
// the header; blank records are skipped and a UTF-8 byte order mark is
// ignored. Quoting is lenient.
func ReadCSV(r io.Reader) ([]importer.RawRow, error) {
	cr := csv.NewReader(r)
	cr.LazyQuotes = true
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	var records [][]string
	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read csv: %w", err)
		}
		records = append(records, rec)
	}
	return toRows(records)
}

// ReadXLSX parses the first worksheet of an XLSX workbook. Cells are read
// unformatted, so dates arrive as Excel serial numbers and phone numbers keep
// every digit.
func ReadXLSX(r io.Reader) ([]importer.RawRow, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("open xlsx: %w", err)
	}
	defer func() { _ = f.Close() }()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, ErrNoHeader
	}
	records, err := f.GetRows(sheets[0], excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, fmt.Errorf("read xlsx: %w", err)
	}
	return toRows(records)
}

func toRows(records [][]string) ([]importer.RawRow, error) {
	start := -1
	for i, rec := range records {
		if strings.TrimSpace(strings.Join(rec, "")) != "" {
			start = i
			break
		}
	}
	if start < 0 {
		return nil, ErrNoHeader
	}
	header := records[start]
	if len(header) > 0 {
		header[0] = strings.TrimPrefix(header[0], "\ufeff")
	}

	out := make([]importer.RawRow, 0, len(records)-start-1)
	for _, rec := range records[start+1:] {
		if row := importer.NewRow(header, rec); !row.Blank() {
			out = append(out, row)
		}
	}
	return out, nil
}

