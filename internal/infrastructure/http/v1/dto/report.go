package dto

import (
	"palletledger/internal/core/apperror"
	"palletledger/internal/domain/ingest"
)

// UploadReportForm is the non-file part of POST /reports.
type UploadReportForm struct {
	Name        string `form:"name"`
	PeriodStart string `form:"periodStart"`
	PeriodEnd   string `form:"periodEnd"`
	Operator    string `form:"operator"`
}

// ToMetadata validates the form and converts it into run metadata.
func (f UploadReportForm) ToMetadata() (ingest.Metadata, error) {
	start, err := parseDay("periodStart", f.PeriodStart)
	if err != nil {
		return ingest.Metadata{}, apperror.NewValidation(err.Error())
	}
	end, err := parseDay("periodEnd", f.PeriodEnd)
	if err != nil {
		return ingest.Metadata{}, apperror.NewValidation(err.Error())
	}
	return ingest.Metadata{
		Name:        f.Name,
		PeriodStart: start,
		PeriodEnd:   end,
		Operator:    f.Operator,
	}, nil
}
