package ledger

import (
	"context"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"palletledger/internal/core/apperror"
	appctx "palletledger/internal/core/context"
	"palletledger/internal/core/id"
	"palletledger/internal/core/tx"
	"palletledger/internal/domain/audit"
	"palletledger/internal/domain/location"
	"palletledger/pkg/logger"
)

// MovementsTable is the audit table name of movement entries.
const MovementsTable = "pallet_movements"

// AuditAppender appends entries to the audit trail.
type AuditAppender interface {
	Log(ctx context.Context, entry audit.Entry) (int64, error)
}

// Engine records movements. It is the only writer of balances and of
// location.Location.CurrentStock.
type Engine struct {
	txm       tx.Manager
	locations location.Repository
	balances  BalanceRepository
	movements MovementRepository
	summaries SummaryRepository
	audit     AuditAppender
	now       func() time.Time
}

// NewEngine creates a ledger engine.
func NewEngine(
	txm tx.Manager,
	locations location.Repository,
	balances BalanceRepository,
	movements MovementRepository,
	summaries SummaryRepository,
	auditLog AuditAppender,
) *Engine {
	return &Engine{
		txm:       txm,
		locations: locations,
		balances:  balances,
		movements: movements,
		summaries: summaries,
		audit:     auditLog,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// WithClock overrides the time source. Used by tests.
func (e *Engine) WithClock(now func() time.Time) *Engine {
	e.now = now
	return e
}

// RecordMovement validates and atomically applies one double-entry transfer.
// Validation failures leave no trace; storage failures roll back the whole
// transaction and surface as TRANSACTION_FAILED.
func (e *Engine) RecordMovement(ctx context.Context, req MovementRequest) (*Movement, error) {
	m, err := e.prepare(ctx, req)
	if err != nil {
		logger.Warn(ctx, "movement rejected", "from", req.From, "to", req.To, "quantity", req.Quantity, "error", err)
		return nil, err
	}

	err = e.txm.RunInTransaction(ctx, func(ctx context.Context) error {
		if err := e.ensureAccounts(ctx, m.FromLocation, m.ToLocation); err != nil {
			return err
		}

		locked, err := e.balances.GetForUpdate(ctx, m.FromLocation, m.ToLocation)
		if err != nil {
			return fmt.Errorf("lock balances: %w", err)
		}
		dst, ok := locked[m.ToLocation]
		if !ok {
			return apperror.NewUnknownDestination(m.ToLocation)
		}
		src, ok := locked[m.FromLocation]
		if !ok {
			return apperror.NewUnknownSource(m.FromLocation)
		}
		if m.FromLocation != location.SystemCode && src.Quantity < m.Quantity {
			return apperror.NewInsufficientStock(m.FromLocation, m.Quantity, src.Quantity)
		}
		if dst.Quantity > math.MaxInt64-m.Quantity {
			return apperror.NewQuantityOverflow(m.ToLocation, m.Quantity)
		}
		if src.Quantity < math.MinInt64+m.Quantity {
			return apperror.NewQuantityOverflow(m.FromLocation, m.Quantity)
		}

		return e.apply(ctx, m, src, dst)
	})
	if err != nil {
		if !apperror.IsAppError(err) {
			err = apperror.NewTransactionFailed(err)
		}
		logger.Warn(ctx, "movement rejected", "from", m.FromLocation, "to", m.ToLocation, "quantity", m.Quantity, "error", err)
		return nil, err
	}

	logger.Info(ctx, "movement recorded",
		"movement_id", m.ID,
		"reference_id", m.ReferenceID,
		"from", m.FromLocation,
		"to", m.ToLocation,
		"quantity", m.Quantity,
	)
	return m, nil
}

// prepare runs the side-effect free checks and fills defaults.
func (e *Engine) prepare(ctx context.Context, req MovementRequest) (*Movement, error) {
	from := location.NormalizeCode(req.From)
	to := location.NormalizeCode(req.To)
	if from == "" || to == "" {
		return nil, apperror.NewInvalidCode(from+to, "Locations cannot be empty")
	}
	if from == to {
		return nil, apperror.NewSameLocation(from)
	}
	if req.Quantity <= 0 {
		return nil, apperror.NewInvalidQuantity(req.Quantity)
	}

	mt := req.Type
	if mt == "" {
		mt = TypeDeployment
	}
	mt = MovementType(strings.ToLower(string(mt)))
	if !mt.IsValid() {
		return nil, apperror.NewValidation(fmt.Sprintf("unknown movement type %q", req.Type)).WithDetail("field", "type")
	}

	priority := strings.TrimSpace(req.Priority)
	if priority == "" {
		priority = DefaultPriority
	}
	confirmedBy := appctx.OperatorOr(ctx, req.ConfirmedBy)
	if confirmedBy == "" {
		confirmedBy = DefaultConfirmedBy
	}

	return &Movement{
		MissionID:     strings.TrimSpace(req.MissionID),
		FromLocation:  from,
		ToLocation:    to,
		Quantity:      req.Quantity,
		Type:          mt,
		Priority:      priority,
		Notes:         req.Notes,
		ReferenceID:   strings.TrimSpace(req.ReferenceID),
		SourceFile:    req.SourceFile,
		SourceFileRow: req.SourceRow,
		EnteredBy:     appctx.GetOperatorID(ctx),
		ConfirmedBy:   confirmedBy,
		Status:        StatusCompleted,
		MovementDate:  derefTime(req.Date),
	}, nil
}

// ensureAccounts is the single place where accounts are provisioned lazily:
// the SYSTEM account when referenced, and a zero balance for a registered
// destination. An unregistered destination fails with UNKNOWN_DESTINATION.
func (e *Engine) ensureAccounts(ctx context.Context, from, to string) error {
	if from == location.SystemCode || to == location.SystemCode {
		sys := location.NewSystem(e.now())
		created, err := e.locations.CreateIfAbsent(ctx, &sys)
		if err != nil {
			return fmt.Errorf("provision system account: %w", err)
		}
		if err := e.balances.CreateZero(ctx, location.SystemCode); err != nil {
			return fmt.Errorf("provision system balance: %w", err)
		}
		if created {
			logger.Info(ctx, "system account provisioned")
		}
	}

	if to != location.SystemCode {
		exists, err := e.locations.Exists(ctx, to)
		if err != nil {
			return fmt.Errorf("check destination: %w", err)
		}
		if !exists {
			return apperror.NewUnknownDestination(to)
		}
		if err := e.balances.CreateZero(ctx, to); err != nil {
			return fmt.Errorf("provision destination balance: %w", err)
		}
	}

	return nil
}

// apply performs the atomic effect. The caller holds row locks on src and dst.
func (e *Engine) apply(ctx context.Context, m *Movement, src, dst *Balance) error {
	now := e.now()
	m.UUID = id.New()
	m.CreatedAt = now
	if m.MovementDate.IsZero() {
		m.MovementDate = now
	}
	if m.ReferenceID == "" {
		m.ReferenceID = "MVT-" + now.Format("20060102150405")
	}

	if err := e.movements.Create(ctx, m); err != nil {
		return fmt.Errorf("insert movement: %w", err)
	}

	srcBefore, dstBefore := src.Quantity, dst.Quantity
	src.apply(-m.Quantity, m.ID, m.MovementDate, now)
	dst.apply(m.Quantity, m.ID, m.MovementDate, now)

	if err := e.balances.Save(ctx, src); err != nil {
		return fmt.Errorf("update source balance: %w", err)
	}
	if err := e.balances.Save(ctx, dst); err != nil {
		return fmt.Errorf("update destination balance: %w", err)
	}

	if err := e.locations.SetCurrentStock(ctx, src.LocationCode, src.Quantity); err != nil {
		return fmt.Errorf("update source stock cache: %w", err)
	}
	if err := e.locations.SetCurrentStock(ctx, dst.LocationCode, dst.Quantity); err != nil {
		return fmt.Errorf("update destination stock cache: %w", err)
	}

	movementID := m.ID
	_, err := e.audit.Log(ctx, audit.Entry{
		MovementID:          &movementID,
		Action:              audit.ActionMovement,
		TableName:           MovementsTable,
		RecordID:            strconv.FormatInt(m.ID, 10),
		DebitLocation:       m.FromLocation,
		CreditLocation:      m.ToLocation,
		Quantity:            m.Quantity,
		DebitBalanceBefore:  srcBefore,
		DebitBalanceAfter:   src.Quantity,
		CreditBalanceBefore: dstBefore,
		CreditBalanceAfter:  dst.Quantity,
		UserID:              m.ConfirmedBy,
		CreatedAt:           now,
	})
	if err != nil {
		return fmt.Errorf("insert audit: %w", err)
	}
	return nil
}

func derefTime(t *time.Time) time.Time {
	if t == nil {
		return time.Time{}
	}
	return t.UTC()
}
