package ingest

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// ParseQuantity converts a cell to a whole pallet count, truncating any
// fractional part toward zero ("12.9" is 12, "-3.5" is -3).
func ParseQuantity(cell string) (int64, error) {
	s := strings.ReplaceAll(strings.TrimSpace(cell), ",", "")
	if s == "" {
		return 0, fmt.Errorf("quantity is empty")
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return 0, fmt.Errorf("invalid quantity %q", cell)
	}
	whole := d.Truncate(0).BigInt()
	if !whole.IsInt64() {
		return 0, fmt.Errorf("invalid quantity %q: out of range", cell)
	}
	return whole.Int64(), nil
}

var dateLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"2006-01-02",
	"2006/01/02",
	"01/02/2006 15:04",
	"01/02/2006",
	"02-Jan-2006",
	"Jan 2, 2006",
}

// excelEpoch is day zero of the 1900 date system as used by spreadsheets.
var excelEpoch = time.Date(1899, time.December, 30, 0, 0, 0, 0, time.UTC)

// ParseDate converts a cell to a UTC timestamp. A blank cell yields nil.
// Numeric cells are read as spreadsheet serial dates.
func ParseDate(cell string) (*time.Time, error) {
	s := strings.TrimSpace(cell)
	if s == "" {
		return nil, nil
	}

	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			t = t.UTC()
			return &t, nil
		}
	}

	if serial, err := decimal.NewFromString(s); err == nil && serial.IsPositive() {
		days := serial.IntPart()
		frac := serial.Sub(decimal.NewFromInt(days))
		nanos := frac.Mul(decimal.NewFromInt(int64(24 * time.Hour))).Round(0).IntPart()
		t := excelEpoch.AddDate(0, 0, int(days)).Add(time.Duration(nanos)).Truncate(time.Second)
		return &t, nil
	}

	return nil, fmt.Errorf("invalid date %q", cell)
}
