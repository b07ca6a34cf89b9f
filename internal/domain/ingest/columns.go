package ingest

import (
	"strings"
	"unicode"

	"palletledger/internal/core/apperror"
)

// Field is a logical column of a transaction list.
type Field string

const (
	FieldDate     Field = "date"
	FieldMission  Field = "mission"
	FieldFrom     Field = "from"
	FieldTo       Field = "to"
	FieldQuantity Field = "quantity"
)

type fieldKeywords struct {
	field    Field
	keywords []string
}

// columnKeywords maps each logical field to the header keywords that identify it.
// Order matters: earlier fields claim ambiguous columns first, so the short "to"
// keyword comes last.
var columnKeywords = []fieldKeywords{
	{FieldDate, []string{"date"}},
	{FieldMission, []string{"flight", "mission"}},
	{FieldFrom, []string{"from", "origin", "source"}},
	{FieldQuantity, []string{"qty", "quantity"}},
	{FieldTo, []string{"to", "dest"}},
}

// Mapping resolves each logical field to a column index.
type Mapping map[Field]int

type matchTier int

const (
	tierExact matchTier = iota
	tierWord
	tierSubstring
)

// ResolveColumns maps header names onto logical fields.
//
// Matching is case-insensitive and runs in tiers: a header equal to a keyword,
// then a header containing the keyword as a word, then as a substring. Within a
// tier a column already claimed by another field is skipped. A field whose only
// candidates were claimed falls back to its first substring candidate. The run
// fails with SCHEMA_MISMATCH only when some field has no candidate at all.
func ResolveColumns(header []string) (Mapping, error) {
	normalized := make([]string, len(header))
	for i, h := range header {
		normalized[i] = normalizeHeader(h)
	}

	mapping := make(Mapping, len(columnKeywords))
	claimed := make(map[int]bool, len(header))

	for _, tier := range []matchTier{tierExact, tierWord, tierSubstring} {
		for _, fk := range columnKeywords {
			if _, done := mapping[fk.field]; done {
				continue
			}
			if idx := findColumn(normalized, fk.keywords, tier, claimed); idx >= 0 {
				mapping[fk.field] = idx
				claimed[idx] = true
			}
		}
	}

	var missing []string
	for _, fk := range columnKeywords {
		if _, done := mapping[fk.field]; done {
			continue
		}
		if idx := findColumn(normalized, fk.keywords, tierSubstring, nil); idx >= 0 {
			mapping[fk.field] = idx
			continue
		}
		missing = append(missing, string(fk.field))
	}

	if len(missing) > 0 {
		return nil, apperror.NewSchemaMismatch(missing).WithDetail("found", header)
	}
	return mapping, nil
}

func findColumn(headers, keywords []string, tier matchTier, claimed map[int]bool) int {
	for i, h := range headers {
		if claimed[i] || h == "" {
			continue
		}
		for _, kw := range keywords {
			if matches(h, kw, tier) {
				return i
			}
		}
	}
	return -1
}

func matches(header, keyword string, tier matchTier) bool {
	switch tier {
	case tierExact:
		return header == keyword
	case tierWord:
		for _, w := range strings.FieldsFunc(header, isSeparator) {
			if w == keyword {
				return true
			}
		}
		return false
	default:
		return strings.Contains(header, keyword)
	}
}

func isSeparator(r rune) bool {
	return !unicode.IsLetter(r) && !unicode.IsDigit(r)
}

func normalizeHeader(h string) string {
	return strings.ToLower(strings.TrimSpace(h))
}

// Cell returns the trimmed value of field in row, or "" when the row is short.
func (m Mapping) Cell(row []string, field Field) string {
	idx, ok := m[field]
	if !ok || idx >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[idx])
}
