package ingest

import (
	"context"
	"fmt"
	"strings"
	"time"

	"palletledger/internal/core/apperror"
	appctx "palletledger/internal/core/context"
	"palletledger/internal/core/id"
	"palletledger/internal/core/tx"
	"palletledger/internal/domain/ledger"
	"palletledger/pkg/logger"
)

// headerOffset turns a zero-based data row index into the line number a user
// sees when the header is the first line.
const headerOffset = 2

// Pipeline ingests transaction lists.
type Pipeline struct {
	txm       tx.Manager
	reports   Repository
	recorder  Recorder
	reader    TableReader
	mode      Mode
	maxErrors int
	now       func() time.Time
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithMode selects the row isolation mode.
func WithMode(m Mode) Option {
	return func(p *Pipeline) { p.mode = m }
}

// WithMaxErrors sets how many row errors a report keeps.
func WithMaxErrors(n int) Option {
	return func(p *Pipeline) {
		if n > 0 {
			p.maxErrors = n
		}
	}
}

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(p *Pipeline) { p.now = now }
}

// NewPipeline creates an ingestion pipeline.
func NewPipeline(txm tx.Manager, reports Repository, recorder Recorder, reader TableReader, opts ...Option) *Pipeline {
	p := &Pipeline{
		txm:       txm,
		reports:   reports,
		recorder:  recorder,
		reader:    reader,
		mode:      ModeSavepoint,
		maxErrors: DefaultMaxErrors,
		now:       func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// run accumulates row outcomes.
type run struct {
	report  *Report
	errors  []string
	maxErrs int
}

func (r *run) succeeded(movementID int64) {
	r.report.SuccessfulRows++
	r.report.MovementIDs = append(r.report.MovementIDs, movementID)
}

func (r *run) failed(rowNum int, err error) {
	r.report.FailedRows++
	if len(r.errors) < r.maxErrs {
		r.errors = append(r.errors, fmt.Sprintf("Row %d: %s", rowNum, apperror.Message(err)))
	}
}

// Ingest processes src and returns its report. A source whose content hash was
// ingested before returns the earlier report without touching the ledger.
// Any error returned leaves no report behind.
func (p *Pipeline) Ingest(ctx context.Context, src Source, meta Metadata) (*Report, error) {
	hash := Hash(src.Data)

	if existing, err := p.priorReport(ctx, hash); err != nil || existing != nil {
		return existing, err
	}

	release, err := p.reports.Claim(ctx, hash)
	if err != nil {
		if apperror.IsCode(err, apperror.CodeIngestInProgress) {
			logger.Warn(ctx, "source is being ingested by another run", "file_hash", hash)
		}
		return nil, err
	}
	defer release()

	// The previous holder of the claim may have finished in between.
	if existing, err := p.priorReport(ctx, hash); err != nil || existing != nil {
		return existing, err
	}

	table, err := p.reader.Read(src.Filename, src.Data)
	if err != nil {
		if apperror.IsAppError(err) {
			return nil, err
		}
		return nil, apperror.NewValidation("cannot read source file").WithDetail("filename", src.Filename).WithCause(err)
	}

	mapping, err := ResolveColumns(table.Header)
	if err != nil {
		return nil, err
	}

	rows := nonBlankRows(table)
	r := &run{report: p.newReport(ctx, src, meta, hash, len(rows)), maxErrs: p.maxErrors}

	logger.Info(ctx, "ingestion started",
		"filename", src.Filename,
		"file_hash", hash,
		"rows", len(rows),
		"mode", p.mode,
	)

	switch p.mode {
	case ModeIndependent:
		err = p.runIndependent(ctx, r, rows, mapping)
	default:
		err = p.runSavepoint(ctx, r, rows, mapping)
	}
	if apperror.IsCode(err, apperror.CodeDuplicateReport) {
		// Another process wrote the report first; its run is the one that counts.
		if existing, ferr := p.priorReport(ctx, hash); ferr == nil && existing != nil {
			return existing, nil
		}
	}
	if err != nil {
		logger.Error(ctx, "ingestion aborted", "filename", src.Filename, "error", err)
		return nil, err
	}

	logger.Info(ctx, "ingestion finished",
		"report_id", r.report.ID,
		"status", r.report.Status,
		"successful", r.report.SuccessfulRows,
		"failed", r.report.FailedRows,
	)
	return r.report, nil
}

// priorReport returns the report already stored for hash, or nil.
func (p *Pipeline) priorReport(ctx context.Context, hash string) (*Report, error) {
	existing, err := p.reports.FindByHash(ctx, hash)
	if err != nil {
		return nil, fmt.Errorf("find report by hash: %w", err)
	}
	if existing != nil {
		logger.Info(ctx, "source already ingested", "file_hash", hash, "report_id", existing.ID)
	}
	return existing, nil
}

// runSavepoint processes every row inside one outer transaction; each row runs
// in its own savepoint so a failing row rolls back only itself.
func (p *Pipeline) runSavepoint(ctx context.Context, r *run, rows []indexedRow, mapping Mapping) error {
	return p.txm.RunInTransaction(ctx, func(ctx context.Context) error {
		if err := p.reports.Create(ctx, r.report); err != nil {
			return fmt.Errorf("create report: %w", err)
		}

		for _, row := range rows {
			if err := ctx.Err(); err != nil {
				return err
			}

			var movementID int64
			err := p.txm.RunInSavepoint(ctx, func(ctx context.Context) error {
				m, err := p.processRow(ctx, r.report, row, mapping)
				if err != nil {
					return err
				}
				movementID = m.ID
				return p.reports.LinkMovement(ctx, r.report.ID, m.ID)
			})
			if err != nil {
				p.rowFailed(ctx, r, row, err)
				continue
			}
			r.succeeded(movementID)
		}

		if err := ctx.Err(); err != nil {
			return err
		}
		p.finalize(r)
		if err := p.reports.Finalize(ctx, r.report); err != nil {
			return fmt.Errorf("finalize report: %w", err)
		}
		return nil
	})
}

// runIndependent commits each row on its own and writes the report with its
// links in one final transaction. An abort mid-run keeps the rows committed so
// far and writes no report.
func (p *Pipeline) runIndependent(ctx context.Context, r *run, rows []indexedRow, mapping Mapping) error {
	for _, row := range rows {
		if err := ctx.Err(); err != nil {
			return err
		}

		m, err := p.processRow(ctx, r.report, row, mapping)
		if err != nil {
			p.rowFailed(ctx, r, row, err)
			continue
		}
		r.succeeded(m.ID)
	}

	if err := ctx.Err(); err != nil {
		return err
	}
	p.finalize(r)

	return p.txm.RunInTransaction(ctx, func(ctx context.Context) error {
		if err := p.reports.Create(ctx, r.report); err != nil {
			return fmt.Errorf("create report: %w", err)
		}
		if err := p.reports.LinkMovements(ctx, r.report.ID, r.report.MovementIDs); err != nil {
			return fmt.Errorf("link movements: %w", err)
		}
		return nil
	})
}

func (p *Pipeline) processRow(ctx context.Context, report *Report, row indexedRow, mapping Mapping) (*ledger.Movement, error) {
	qty, err := ParseQuantity(mapping.Cell(row.cells, FieldQuantity))
	if err != nil {
		return nil, apperror.NewRowProcessing(row.number, err.Error())
	}
	date, err := ParseDate(mapping.Cell(row.cells, FieldDate))
	if err != nil {
		return nil, apperror.NewRowProcessing(row.number, err.Error())
	}

	rowNum := row.number
	return p.recorder.RecordMovement(ctx, ledger.MovementRequest{
		MissionID:   mapping.Cell(row.cells, FieldMission),
		From:        mapping.Cell(row.cells, FieldFrom),
		To:          mapping.Cell(row.cells, FieldTo),
		Quantity:    qty,
		Type:        ledger.TypeTransfer,
		Notes:       "Batch import: " + report.SourceFilename,
		ConfirmedBy: report.ProcessedBy,
		Date:        date,
		SourceFile:  report.SourceFilename,
		SourceRow:   &rowNum,
	})
}

func (p *Pipeline) rowFailed(ctx context.Context, r *run, row indexedRow, err error) {
	r.failed(row.number, err)
	logger.Debug(ctx, "ingestion row failed", "row", row.number, "error", err)
}

func (p *Pipeline) newReport(ctx context.Context, src Source, meta Metadata, hash string, total int) *Report {
	operator := appctx.OperatorOr(ctx, meta.Operator)
	if operator == "" {
		operator = ledger.DefaultConfirmedBy
	}
	name := strings.TrimSpace(meta.Name)
	if name == "" {
		name = src.Filename
	}

	return &Report{
		UUID:           id.New(),
		ReportName:     name,
		PeriodStart:    meta.PeriodStart,
		PeriodEnd:      meta.PeriodEnd,
		SourceFilename: src.Filename,
		FileHash:       hash,
		TotalRows:      total,
		Status:         StatusProcessing,
		ProcessedBy:    operator,
		ProcessedAt:    p.now(),
		MovementIDs:    []int64{},
	}
}

func (p *Pipeline) finalize(r *run) {
	completed := p.now()
	r.report.CompletedAt = &completed
	r.report.ProcessingErrors = strings.Join(r.errors, "\n")
	if r.report.FailedRows == 0 {
		r.report.Status = StatusCompleted
	} else {
		r.report.Status = StatusCompletedWithErrors
	}
}

type indexedRow struct {
	number int
	cells  []string
}

// nonBlankRows drops rows whose cells are all empty and numbers the rest by
// their line in the file.
func nonBlankRows(table *Table) []indexedRow {
	out := make([]indexedRow, 0, len(table.Rows))
	for i, cells := range table.Rows {
		blank := true
		for _, c := range cells {
			if strings.TrimSpace(c) != "" {
				blank = false
				break
			}
		}
		if blank {
			continue
		}
		out = append(out, indexedRow{number: table.Line(i), cells: cells})
	}
	return out
}

// Get returns a report by id.
func (p *Pipeline) Get(ctx context.Context, reportID int64) (*Report, error) {
	return p.reports.Get(ctx, reportID)
}

// List returns the most recent reports.
func (p *Pipeline) List(ctx context.Context, limit int) ([]Report, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	return p.reports.List(ctx, limit)
}
