// Package ingest replays tabular transaction lists through the ledger engine
// with per-row isolation and records one reconciliation report per source file.
package ingest

import (
	"crypto/sha256"
	"encoding/hex"
	"time"

	"palletledger/internal/core/id"
)

// Status of a reconciliation report.
type Status string

const (
	StatusProcessing          Status = "PROCESSING"
	StatusCompleted           Status = "COMPLETED"
	StatusCompletedWithErrors Status = "COMPLETED_WITH_ERRORS"
)

// Mode selects how rows are isolated from each other.
type Mode string

const (
	// ModeSavepoint runs the whole file in one transaction with a savepoint per row.
	ModeSavepoint Mode = "savepoint"
	// ModeIndependent commits every row on its own and writes the report last.
	ModeIndependent Mode = "independent"
)

// DefaultMaxErrors is how many row errors a report retains.
const DefaultMaxErrors = 50

// Report summarizes one ingestion run. It is not mutated after CompletedAt is set.
type Report struct {
	ID                 int64      `db:"id" json:"id"`
	UUID               id.ID      `db:"uuid" json:"uuid"`
	ReportName         string     `db:"report_name" json:"reportName"`
	PeriodStart        *time.Time `db:"period_start" json:"periodStart,omitempty"`
	PeriodEnd          *time.Time `db:"period_end" json:"periodEnd,omitempty"`
	SourceFilename     string     `db:"source_filename" json:"sourceFilename"`
	FileHash           string     `db:"file_hash" json:"fileHash"`
	TotalRows          int        `db:"total_movements" json:"totalMovements"`
	SuccessfulRows     int        `db:"successful_movements" json:"successfulMovements"`
	FailedRows         int        `db:"failed_movements" json:"failedMovements"`
	DiscrepanciesFound int        `db:"discrepancies_found" json:"discrepanciesFound"`
	Status             Status     `db:"status" json:"status"`
	ProcessingErrors   string     `db:"processing_errors" json:"processingErrors,omitempty"`
	ProcessedBy        string     `db:"processed_by" json:"processedBy"`
	ProcessedAt        time.Time  `db:"processed_at" json:"processedAt"`
	CompletedAt        *time.Time `db:"completed_at" json:"completedAt,omitempty"`

	MovementIDs []int64 `db:"-" json:"movementIds"`
}

// Source is the raw uploaded file.
type Source struct {
	Filename string
	Data     []byte
}

// Metadata describes the run.
type Metadata struct {
	Name        string
	PeriodStart *time.Time
	PeriodEnd   *time.Time
	Operator    string
}

// Table is a parsed tabular source: one header row and data rows.
// Lines[i] is the 1-based file line of Rows[i]; without it rows are numbered
// as if the header sat on line 1.
type Table struct {
	Header []string
	Rows   [][]string
	Lines  []int
}

// Line returns the file line of data row i.
func (t *Table) Line(i int) int {
	if i < len(t.Lines) {
		return t.Lines[i]
	}
	return i + headerOffset
}

// Hash returns the hex sha256 of data, the idempotency key of a source.
func Hash(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}
