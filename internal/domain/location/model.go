// Package location provides the registry of named pallet accounts.
package location

import (
	"strings"
	"time"
	"unicode/utf8"

	"palletledger/internal/core/apperror"
)

// SystemCode is the reserved virtual account for external supply and demand.
const SystemCode = "SYSTEM"

// DefaultCapacity applies when registration omits max_capacity.
const DefaultCapacity int64 = 1000

const minCodeLength = 3

// Type classifies a location.
type Type string

const (
	TypeMainBase     Type = "main_base"
	TypeForwardBase  Type = "forward_base"
	TypeLogisticsHub Type = "logistics_hub"
	TypeAirfield     Type = "airfield"
	TypeStorage      Type = "storage"
	TypeVirtual      Type = "virtual"
)

// IsValid reports whether t is a known location type.
func (t Type) IsValid() bool {
	switch t {
	case TypeMainBase, TypeForwardBase, TypeLogisticsHub, TypeAirfield, TypeStorage, TypeVirtual:
		return true
	}
	return false
}

// Status is the operational status of a location.
type Status string

const (
	StatusActive      Status = "active"
	StatusInactive    Status = "inactive"
	StatusMaintenance Status = "maintenance"
)

// IsValid reports whether s is a known status.
func (s Status) IsValid() bool {
	switch s {
	case StatusActive, StatusInactive, StatusMaintenance:
		return true
	}
	return false
}

// Location is a named account holding pallets.
type Location struct {
	Code   string `db:"code" json:"code"`
	Name   string `db:"name" json:"name"`
	Type   Type   `db:"location_type" json:"type"`
	Status Status `db:"operational_status" json:"status"`

	MaxCapacity int64 `db:"max_capacity" json:"maxCapacity"`
	// CurrentStock mirrors the location's Balance quantity. Only the ledger engine writes it.
	CurrentStock int64 `db:"current_stock" json:"currentStock"`

	ContactPerson       string `db:"contact_person" json:"contactPerson,omitempty"`
	ContactPhone        string `db:"contact_phone" json:"contactPhone,omitempty"`
	Coordinates         string `db:"coordinates" json:"coordinates,omitempty"`
	Region              string `db:"region" json:"region,omitempty"`
	Timezone            string `db:"timezone" json:"timezone"`
	IsRestricted        bool   `db:"is_restricted" json:"isRestricted"`
	ClassificationLevel string `db:"classification_level" json:"classificationLevel"`

	CreatedAt time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt time.Time `db:"updated_at" json:"updatedAt"`
}

// IsSystem reports whether l is the virtual account.
func (l Location) IsSystem() bool {
	return l.Code == SystemCode
}

// NewSystem returns the virtual account provisioned on first use.
func NewSystem(now time.Time) Location {
	return Location{
		Code:                SystemCode,
		Name:                "System Adjustment Account",
		Type:                TypeVirtual,
		Status:              StatusActive,
		MaxCapacity:         999999,
		Timezone:            "UTC",
		ClassificationLevel: "UNCLASSIFIED",
		CreatedAt:           now,
		UpdatedAt:           now,
	}
}

// NormalizeCode trims and upper-cases a location code.
func NormalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// ValidateCode checks a normalized code for registration.
func ValidateCode(code string) error {
	if utf8.RuneCountInString(code) < minCodeLength {
		return apperror.NewInvalidCode(code, "Location code must be at least 3 characters")
	}
	if code == SystemCode {
		return apperror.NewInvalidCode(code, "Location code SYSTEM is reserved")
	}
	return nil
}

// Filter narrows ListLocations. Empty fields match everything.
type Filter struct {
	Status Status
	Type   Type
}

// RegisterInput describes a new location.
type RegisterInput struct {
	Code           string
	Name           string
	Type           Type
	MaxCapacity    *int64
	Status         Status
	ContactPerson  string
	ContactPhone   string
	Coordinates    string
	Region         string
	Timezone       string
	IsRestricted   *bool
	Classification string
}

// UpdateInput carries a partial metadata edit; nil fields stay unchanged.
// Code and CurrentStock are not editable.
type UpdateInput struct {
	Name           *string
	Type           *Type
	Status         *Status
	MaxCapacity    *int64
	ContactPerson  *string
	ContactPhone   *string
	Coordinates    *string
	Region         *string
	Timezone       *string
	IsRestricted   *bool
	Classification *string
}

// IsEmpty reports whether no field is set.
func (u UpdateInput) IsEmpty() bool {
	return u.Name == nil && u.Type == nil && u.Status == nil && u.MaxCapacity == nil &&
		u.ContactPerson == nil && u.ContactPhone == nil && u.Coordinates == nil &&
		u.Region == nil && u.Timezone == nil && u.IsRestricted == nil && u.Classification == nil
}

// snapshot returns the editable fields as a map for audit diffs.
func (l Location) snapshot() map[string]any {
	return map[string]any{
		"name":                 l.Name,
		"location_type":        string(l.Type),
		"operational_status":   string(l.Status),
		"max_capacity":         l.MaxCapacity,
		"contact_person":       l.ContactPerson,
		"contact_phone":        l.ContactPhone,
		"coordinates":          l.Coordinates,
		"region":               l.Region,
		"timezone":             l.Timezone,
		"is_restricted":        l.IsRestricted,
		"classification_level": l.ClassificationLevel,
	}
}
