package tabular

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"palletledger/internal/core/apperror"
)

func TestRead_CSV(t *testing.T) {
	data := []byte("Date,Flight,From,To,Qty\n2026-01-05,OP-1,SYSTEM,ALPHA,25\n,,,,\n2026-01-06,OP-2,ALPHA,BRAVO,5\n")

	table, err := NewReader().Read("list.csv", data)
	require.NoError(t, err)

	assert.Equal(t, []string{"Date", "Flight", "From", "To", "Qty"}, table.Header)
	require.Len(t, table.Rows, 3)
	assert.Equal(t, []string{"2026-01-05", "OP-1", "SYSTEM", "ALPHA", "25"}, table.Rows[0])
	assert.Equal(t, "BRAVO", table.Rows[2][3])
}

func TestRead_CSVTracksFileLines(t *testing.T) {
	data := []byte("\n\nFrom;To;Qty\nSYSTEM;ALPHA;5\n\n;;\nALPHA;BRAVO;2\n")

	table, err := NewReader().Read("list.csv", data)
	require.NoError(t, err)

	assert.Equal(t, []string{"From", "To", "Qty"}, table.Header)
	require.Len(t, table.Rows, 3)
	assert.Equal(t, []int{4, 6, 7}, table.Lines)
	assert.Equal(t, 7, table.Line(2))
}

func TestRead_CSVSemicolonAndBOM(t *testing.T) {
	data := append([]byte{0xEF, 0xBB, 0xBF}, []byte("From;To;Quantity\nSYSTEM;ALPHA;\"1,200\"\n")...)

	table, err := NewReader().Read("LIST.TXT", data)
	require.NoError(t, err)

	assert.Equal(t, []string{"From", "To", "Quantity"}, table.Header)
	require.Len(t, table.Rows, 1)
	assert.Equal(t, "1,200", table.Rows[0][2])
}

func TestRead_XLSX(t *testing.T) {
	f := excelize.NewFile()
	sheet := f.GetSheetName(0)
	require.NoError(t, f.SetSheetRow(sheet, "A1", &[]any{"Date", "Mission", "Origin", "Destination", "Qty"}))
	require.NoError(t, f.SetSheetRow(sheet, "A2", &[]any{"2026-01-05", "OP-1", "SYSTEM", "ALPHA", 25}))
	buf, err := f.WriteToBuffer()
	require.NoError(t, err)
	require.NoError(t, f.Close())

	table, err := NewReader().Read("list.xlsx", buf.Bytes())
	require.NoError(t, err)

	assert.Equal(t, []string{"Date", "Mission", "Origin", "Destination", "Qty"}, table.Header)
	require.Len(t, table.Rows, 1)
	assert.Equal(t, "25", table.Rows[0][4])
	assert.Equal(t, []int{2}, table.Lines)
}

func TestRead_XLSXHeaderBelowBlankRows(t *testing.T) {
	f := excelize.NewFile()
	sheet := f.GetSheetName(0)
	require.NoError(t, f.SetSheetRow(sheet, "A3", &[]any{"From", "To", "Qty"}))
	require.NoError(t, f.SetSheetRow(sheet, "A4", &[]any{"SYSTEM", "ALPHA", 25}))
	buf, err := f.WriteToBuffer()
	require.NoError(t, err)
	require.NoError(t, f.Close())

	table, err := NewReader().Read("list.xlsx", buf.Bytes())
	require.NoError(t, err)

	assert.Equal(t, []string{"From", "To", "Qty"}, table.Header)
	assert.Equal(t, []int{4}, table.Lines)
}

func TestRead_Errors(t *testing.T) {
	tests := []struct {
		name     string
		filename string
		data     []byte
	}{
		{name: "UnsupportedExtension", filename: "list.pdf", data: []byte("x")},
		{name: "CorruptWorkbook", filename: "list.xlsx", data: []byte("not a zip")},
		{name: "EmptyFile", filename: "list.csv", data: nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewReader().Read(tt.filename, tt.data)
			require.Error(t, err)
			assert.True(t, apperror.IsCode(err, apperror.CodeValidation))
		})
	}
}

func TestDetectDelimiter(t *testing.T) {
	assert.Equal(t, ',', detectDelimiter([]byte("a,b,c")))
	assert.Equal(t, ';', detectDelimiter([]byte("a;b;c\n1,5;2;3")))
	assert.Equal(t, '\t', detectDelimiter([]byte("a\tb\tc")))
	assert.Equal(t, ';', detectDelimiter([]byte("\n  \na;b;c\n")))
	assert.Equal(t, ',', detectDelimiter(nil))
}
