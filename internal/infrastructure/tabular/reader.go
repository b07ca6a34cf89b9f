// Package tabular parses uploaded transaction lists into header and data rows.
package tabular

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"

	"palletledger/internal/core/apperror"
	"palletledger/internal/domain/ingest"
)

var _ ingest.TableReader = Reader{}

// Reader dispatches on the file extension: .csv and .txt are delimited text,
// .xlsx is read from its first sheet.
type Reader struct{}

// NewReader creates a tabular reader.
func NewReader() Reader { return Reader{} }

// Read parses data. The first non-empty row is the header.
func (Reader) Read(filename string, data []byte) (*ingest.Table, error) {
	var (
		rows  [][]string
		lines []int
		err   error
	)

	switch ext := strings.ToLower(filepath.Ext(filename)); ext {
	case ".csv", ".txt":
		rows, lines, err = readCSV(data)
	case ".xlsx":
		rows, lines, err = readXLSX(data)
	default:
		return nil, apperror.NewValidation(fmt.Sprintf("unsupported file type %q", ext)).
			WithDetail("filename", filename)
	}
	if err != nil {
		return nil, apperror.NewValidation("cannot read source file").
			WithDetail("filename", filename).
			WithCause(err)
	}

	return toTable(rows, lines)
}

// toTable takes the first non-blank row as header. lines holds the file line
// of every row.
func toTable(rows [][]string, lines []int) (*ingest.Table, error) {
	for i, row := range rows {
		if isBlank(row) {
			continue
		}
		header := make([]string, len(row))
		for j, h := range row {
			header[j] = strings.TrimSpace(h)
		}
		return &ingest.Table{Header: header, Rows: rows[i+1:], Lines: lines[i+1:]}, nil
	}
	return nil, apperror.NewValidation("source file has no header row")
}

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

func readCSV(data []byte) ([][]string, []int, error) {
	data = bytes.TrimPrefix(data, utf8BOM)

	r := csv.NewReader(bytes.NewReader(data))
	r.Comma = detectDelimiter(data)
	r.FieldsPerRecord = -1
	r.LazyQuotes = true
	r.TrimLeadingSpace = true

	var (
		rows  [][]string
		lines []int
	)
	for {
		rec, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, nil, fmt.Errorf("parse csv: %w", err)
		}
		// encoding/csv skips empty lines, so the position is taken from the reader.
		line, _ := r.FieldPos(0)
		rows = append(rows, rec)
		lines = append(lines, line)
	}
	return rows, lines, nil
}

// detectDelimiter picks the separator that occurs most on the first non-empty line.
func detectDelimiter(data []byte) rune {
	var line []byte
	for rest := data; len(rest) > 0; {
		line, rest, _ = bytes.Cut(rest, []byte{'\n'})
		if len(bytes.TrimSpace(line)) > 0 {
			break
		}
	}

	best, bestCount := ',', bytes.Count(line, []byte{','})
	for _, d := range []rune{';', '\t'} {
		if n := bytes.Count(line, []byte(string(d))); n > bestCount {
			best, bestCount = d, n
		}
	}
	return best
}

func readXLSX(data []byte) ([][]string, []int, error) {
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, nil, fmt.Errorf("open workbook: %w", err)
	}
	defer func() { _ = f.Close() }()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, nil, fmt.Errorf("workbook has no sheets")
	}

	rows, err := f.GetRows(sheets[0], excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, nil, fmt.Errorf("read sheet %q: %w", sheets[0], err)
	}

	// GetRows keeps empty rows in place, so row i sits on sheet row i+1.
	lines := make([]int, len(rows))
	for i := range lines {
		lines[i] = i + 1
	}
	return rows, lines, nil
}

func isBlank(row []string) bool {
	for _, c := range row {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}
