package dto

import (
	"palletledger/internal/domain/location"
)

// CreateLocationRequest registers a location.
type CreateLocationRequest struct {
	Code                string        `json:"code"`
	Name                string        `json:"name"`
	Type                location.Type `json:"type"`
	Status              string        `json:"status"`
	MaxCapacity         *int64        `json:"maxCapacity"`
	ContactPerson       string        `json:"contactPerson"`
	ContactPhone        string        `json:"contactPhone"`
	Coordinates         string        `json:"coordinates"`
	Region              string        `json:"region"`
	Timezone            string        `json:"timezone"`
	IsRestricted        *bool         `json:"isRestricted"`
	ClassificationLevel string        `json:"classificationLevel"`
}

// ToInput converts the request into a registry input.
func (r CreateLocationRequest) ToInput() location.RegisterInput {
	return location.RegisterInput{
		Code:           r.Code,
		Name:           r.Name,
		Type:           r.Type,
		MaxCapacity:    r.MaxCapacity,
		Status:         location.Status(r.Status),
		ContactPerson:  r.ContactPerson,
		ContactPhone:   r.ContactPhone,
		Coordinates:    r.Coordinates,
		Region:         r.Region,
		Timezone:       r.Timezone,
		IsRestricted:   r.IsRestricted,
		Classification: r.ClassificationLevel,
	}
}

// UpdateLocationRequest is a partial metadata edit. Absent fields stay unchanged.
type UpdateLocationRequest struct {
	Name                *string          `json:"name"`
	Type                *location.Type   `json:"type"`
	Status              *location.Status `json:"status"`
	MaxCapacity         *int64           `json:"maxCapacity"`
	ContactPerson       *string          `json:"contactPerson"`
	ContactPhone        *string          `json:"contactPhone"`
	Coordinates         *string          `json:"coordinates"`
	Region              *string          `json:"region"`
	Timezone            *string          `json:"timezone"`
	IsRestricted        *bool            `json:"isRestricted"`
	ClassificationLevel *string          `json:"classificationLevel"`
}

// ToInput converts the request into a registry input.
func (r UpdateLocationRequest) ToInput() location.UpdateInput {
	return location.UpdateInput{
		Name:           r.Name,
		Type:           r.Type,
		Status:         r.Status,
		MaxCapacity:    r.MaxCapacity,
		ContactPerson:  r.ContactPerson,
		ContactPhone:   r.ContactPhone,
		Coordinates:    r.Coordinates,
		Region:         r.Region,
		Timezone:       r.Timezone,
		IsRestricted:   r.IsRestricted,
		Classification: r.ClassificationLevel,
	}
}

// LocationListQuery filters GET /locations.
type LocationListQuery struct {
	Status string `form:"status"`
	Type   string `form:"type"`
}

// ToFilter converts the query into a registry filter.
func (q LocationListQuery) ToFilter() location.Filter {
	return location.Filter{
		Status: location.Status(q.Status),
		Type:   location.Type(q.Type),
	}
}
