package location

import (
	"context"
	"fmt"
	"strings"
	"time"

	"palletledger/internal/core/apperror"
	"palletledger/internal/core/tx"
	"palletledger/internal/domain/audit"
	"palletledger/pkg/logger"
)

// TableName is the audit table name for location changes.
const TableName = "locations"

// BalanceProvisioner creates and drops the balance rows paired with a location.
type BalanceProvisioner interface {
	CreateZero(ctx context.Context, code string) error
	DeleteByLocation(ctx context.Context, code string) error
}

// HistoryCounter counts movements referencing a location as source or destination.
type HistoryCounter interface {
	CountByLocation(ctx context.Context, code string) (int64, error)
}

// ChangeLogger records metadata mutations in the audit trail.
type ChangeLogger interface {
	LogChange(ctx context.Context, action audit.Action, table, recordID string, changes map[string]any) error
}

// Registry manages location accounts.
type Registry struct {
	txm      tx.Manager
	repo     Repository
	balances BalanceProvisioner
	history  HistoryCounter
	audit    ChangeLogger
	now      func() time.Time
}

// NewRegistry creates a location registry.
func NewRegistry(txm tx.Manager, repo Repository, balances BalanceProvisioner, history HistoryCounter, auditLog ChangeLogger) *Registry {
	return &Registry{
		txm:      txm,
		repo:     repo,
		balances: balances,
		history:  history,
		audit:    auditLog,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// Register creates a location together with its zero balance and a CREATE audit entry.
func (r *Registry) Register(ctx context.Context, in RegisterInput) (*Location, error) {
	loc, err := r.build(in)
	if err != nil {
		return nil, err
	}

	err = r.txm.RunInTransaction(ctx, func(ctx context.Context) error {
		if err := r.repo.Create(ctx, loc); err != nil {
			return err
		}
		if err := r.balances.CreateZero(ctx, loc.Code); err != nil {
			return fmt.Errorf("create balance: %w", err)
		}
		return r.audit.LogChange(ctx, audit.ActionCreate, TableName, loc.Code, map[string]any{
			"name":          loc.Name,
			"location_type": string(loc.Type),
			"max_capacity":  loc.MaxCapacity,
		})
	})
	if err != nil {
		return nil, err
	}

	logger.Info(ctx, "location registered", "code", loc.Code, "type", loc.Type)
	return loc, nil
}

func (r *Registry) build(in RegisterInput) (*Location, error) {
	code := NormalizeCode(in.Code)
	if err := ValidateCode(code); err != nil {
		return nil, err
	}

	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, apperror.NewValidation("name is required").WithDetail("field", "name")
	}

	now := r.now()
	loc := &Location{
		Code:                code,
		Name:                name,
		Type:                TypeForwardBase,
		Status:              StatusActive,
		MaxCapacity:         DefaultCapacity,
		ContactPerson:       in.ContactPerson,
		ContactPhone:        in.ContactPhone,
		Coordinates:         in.Coordinates,
		Region:              in.Region,
		Timezone:            "UTC",
		IsRestricted:        true,
		ClassificationLevel: "UNCLASSIFIED",
		CreatedAt:           now,
		UpdatedAt:           now,
	}

	if in.Type != "" {
		loc.Type = in.Type
	}
	if in.Status != "" {
		loc.Status = in.Status
	}
	if in.MaxCapacity != nil {
		loc.MaxCapacity = *in.MaxCapacity
	}
	if in.Timezone != "" {
		loc.Timezone = in.Timezone
	}
	if in.IsRestricted != nil {
		loc.IsRestricted = *in.IsRestricted
	}
	if in.Classification != "" {
		loc.ClassificationLevel = in.Classification
	}

	if err := validateMetadata(loc); err != nil {
		return nil, err
	}
	return loc, nil
}

func validateMetadata(loc *Location) error {
	if !loc.Type.IsValid() {
		return apperror.NewValidation(fmt.Sprintf("unknown location type %q", loc.Type)).WithDetail("field", "type")
	}
	if loc.Type == TypeVirtual && !loc.IsSystem() {
		return apperror.NewValidation("only the SYSTEM account may be virtual").WithDetail("field", "type")
	}
	if !loc.Status.IsValid() {
		return apperror.NewValidation(fmt.Sprintf("unknown status %q", loc.Status)).WithDetail("field", "status")
	}
	if loc.MaxCapacity < 0 {
		return apperror.NewValidation("max_capacity must be non-negative").WithDetail("field", "maxCapacity")
	}
	return nil
}

// Update applies a partial metadata edit and records an UPDATE audit entry.
func (r *Registry) Update(ctx context.Context, code string, in UpdateInput) (*Location, error) {
	code = NormalizeCode(code)
	if in.IsEmpty() {
		return nil, apperror.NewValidation("no fields to update")
	}

	var updated *Location
	err := r.txm.RunInTransaction(ctx, func(ctx context.Context) error {
		loc, err := r.repo.Get(ctx, code)
		if err != nil {
			return err
		}
		before := loc.snapshot()

		applyUpdate(loc, in)
		if err := validateMetadata(loc); err != nil {
			return err
		}
		if name := strings.TrimSpace(loc.Name); name == "" {
			return apperror.NewValidation("name is required").WithDetail("field", "name")
		}
		loc.UpdatedAt = r.now()

		if err := r.repo.Update(ctx, loc); err != nil {
			return err
		}
		updated = loc

		changes := audit.Diff(before, loc.snapshot())
		if len(changes) == 0 {
			return nil
		}
		return r.audit.LogChange(ctx, audit.ActionUpdate, TableName, code, changes)
	})
	if err != nil {
		return nil, err
	}

	logger.Info(ctx, "location updated", "code", code)
	return updated, nil
}

func applyUpdate(loc *Location, in UpdateInput) {
	if in.Name != nil {
		loc.Name = strings.TrimSpace(*in.Name)
	}
	if in.Type != nil {
		loc.Type = *in.Type
	}
	if in.Status != nil {
		loc.Status = *in.Status
	}
	if in.MaxCapacity != nil {
		loc.MaxCapacity = *in.MaxCapacity
	}
	if in.ContactPerson != nil {
		loc.ContactPerson = *in.ContactPerson
	}
	if in.ContactPhone != nil {
		loc.ContactPhone = *in.ContactPhone
	}
	if in.Coordinates != nil {
		loc.Coordinates = *in.Coordinates
	}
	if in.Region != nil {
		loc.Region = *in.Region
	}
	if in.Timezone != nil {
		loc.Timezone = *in.Timezone
	}
	if in.IsRestricted != nil {
		loc.IsRestricted = *in.IsRestricted
	}
	if in.Classification != nil {
		loc.ClassificationLevel = *in.Classification
	}
}

// Remove deletes a location that no movement references.
// Locations with history are refused with HAS_HISTORY; nothing is cascaded.
func (r *Registry) Remove(ctx context.Context, code string) error {
	code = NormalizeCode(code)

	err := r.txm.RunInTransaction(ctx, func(ctx context.Context) error {
		loc, err := r.repo.Get(ctx, code)
		if err != nil {
			return err
		}

		count, err := r.history.CountByLocation(ctx, code)
		if err != nil {
			return fmt.Errorf("count movements: %w", err)
		}
		if count > 0 {
			return apperror.NewHasHistory(code, count)
		}

		if err := r.balances.DeleteByLocation(ctx, code); err != nil {
			return fmt.Errorf("delete balances: %w", err)
		}
		if err := r.repo.Delete(ctx, code); err != nil {
			return err
		}
		return r.audit.LogChange(ctx, audit.ActionDelete, TableName, code, map[string]any{"name": loc.Name})
	})
	if err != nil {
		return err
	}

	logger.Info(ctx, "location removed", "code", code)
	return nil
}

// Get returns one location.
func (r *Registry) Get(ctx context.Context, code string) (*Location, error) {
	return r.repo.Get(ctx, NormalizeCode(code))
}

// List returns locations ordered by code.
func (r *Registry) List(ctx context.Context, filter Filter) ([]Location, error) {
	return r.repo.List(ctx, filter)
}
