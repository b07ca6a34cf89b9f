package postgres

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"palletledger/internal/domain/ingest"
	"palletledger/internal/domain/ledger"
)

type timestamps struct {
	CreatedAt time.Time `db:"created_at"`
}

type embeddedRow struct {
	timestamps
	Code   string `db:"code"`
	Cache  string `db:"-"`
	Note   string
	secret string `db:"secret"`
}

type auditedRow struct {
	*timestamps
	Code string `db:"code"`
}

func TestExtractDBColumns_Movement(t *testing.T) {
	cols := ExtractDBColumns[ledger.Movement]()

	for _, expected := range []string{
		"id", "uuid", "reference_id", "from_location_code", "to_location_code",
		"quantity", "source_file_row", "confirmed_by", "created_at",
	} {
		assert.Contains(t, cols, expected)
	}
}

func TestExtractDBColumns_SkipsIgnoredFields(t *testing.T) {
	cols := ExtractDBColumns[ingest.Report]()

	assert.Contains(t, cols, "file_hash")
	assert.NotContains(t, cols, "-")
	assert.NotContains(t, cols, "MovementIDs")
}

func TestStructToMap_Embedded(t *testing.T) {
	now := time.Now().UTC()
	row := embeddedRow{timestamps: timestamps{CreatedAt: now}, Code: "ALPHA", Cache: "x", Note: "y", secret: "z"}

	m := StructToMap(row)

	assert.Len(t, m, 2)
	assert.Equal(t, now, m["created_at"])
	assert.Equal(t, "ALPHA", m["code"])
	assert.Equal(t, []string{"created_at", "code"}, ExtractDBColumns[embeddedRow]())
}

func TestStructToMap_EmbeddedPointer(t *testing.T) {
	now := time.Now().UTC()

	assert.Equal(t, map[string]any{"code": "ALPHA"}, StructToMap(auditedRow{Code: "ALPHA"}))

	m := StructToMap(&auditedRow{timestamps: &timestamps{CreatedAt: now}, Code: "BRAVO"})
	assert.Equal(t, now, m["created_at"])
	assert.Equal(t, "BRAVO", m["code"])
}

func TestStructToMap_Pointer(t *testing.T) {
	b := &ledger.Balance{LocationCode: "ALPHA", Quantity: 7}

	m := StructToMap(b)

	assert.Equal(t, "ALPHA", m["location_code"])
	assert.Equal(t, int64(7), m["quantity"])
	assert.Nil(t, StructToMap(42))
}

func TestPick(t *testing.T) {
	m := Pick(map[string]any{"a": 1, "b": 2, "c": 3}, "a", "c", "z")

	assert.Equal(t, map[string]any{"a": 1, "c": 3}, m)
}
