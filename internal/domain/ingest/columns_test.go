package ingest

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"palletledger/internal/core/apperror"
)

func TestResolveColumns(t *testing.T) {
	tests := []struct {
		name   string
		header []string
		want   Mapping
	}{
		{
			name:   "ExactNames",
			header: []string{"Date", "Mission", "From", "To", "Quantity"},
			want:   Mapping{FieldDate: 0, FieldMission: 1, FieldFrom: 2, FieldTo: 3, FieldQuantity: 4},
		},
		{
			name:   "ShuffledSynonyms",
			header: []string{"QTY", "Destination", "Origin", "Flight No", "Movement Date"},
			want:   Mapping{FieldDate: 4, FieldMission: 3, FieldFrom: 2, FieldTo: 1, FieldQuantity: 0},
		},
		{
			name:   "ToKeywordDoesNotStealOtherColumns",
			header: []string{"Date", "Mission", "Source Location", "Total Quantity", "To Location"},
			want:   Mapping{FieldDate: 0, FieldMission: 1, FieldFrom: 2, FieldTo: 4, FieldQuantity: 3},
		},
		{
			name:   "SubstringFallback",
			header: []string{"txdate", "missionid", "fromloc", "toloc", "qtyshipped"},
			want:   Mapping{FieldDate: 0, FieldMission: 1, FieldFrom: 2, FieldTo: 3, FieldQuantity: 4},
		},
		{
			name:   "ExtraColumnsIgnored",
			header: []string{"Notes", "Date", "Flight", "From", "To", "Qty", "Remarks"},
			want:   Mapping{FieldDate: 1, FieldMission: 2, FieldFrom: 3, FieldTo: 4, FieldQuantity: 5},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ResolveColumns(tt.header)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestResolveColumns_SharedColumnFallback(t *testing.T) {
	// "Destination Date" is the only date candidate and also the only "dest" one.
	got, err := ResolveColumns([]string{"Destination Date", "Flight", "From", "Qty"})
	require.NoError(t, err)

	assert.Equal(t, 0, got[FieldDate])
	assert.Equal(t, 0, got[FieldTo])
}

func TestResolveColumns_Missing(t *testing.T) {
	_, err := ResolveColumns([]string{"Date", "Flight", "Qty"})
	require.Error(t, err)

	appErr, ok := apperror.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, apperror.CodeSchemaMismatch, appErr.Code)
	assert.Equal(t, []string{"from", "to"}, appErr.Details["missing"])
}

func TestMapping_Cell(t *testing.T) {
	m := Mapping{FieldFrom: 0, FieldTo: 3}
	row := []string{"  ALPHA ", "x"}

	assert.Equal(t, "ALPHA", m.Cell(row, FieldFrom))
	assert.Equal(t, "", m.Cell(row, FieldTo))
	assert.Equal(t, "", m.Cell(row, FieldDate))
}
