package handlers

import (
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"palletledger/internal/core/apperror"
	"palletledger/internal/domain/ingest"
	"palletledger/internal/infrastructure/http/v1/dto"
)

// ReportHandler accepts transaction list uploads and serves reconciliation reports.
type ReportHandler struct {
	*BaseHandler
	pipeline       *ingest.Pipeline
	maxUploadBytes int64
}

// NewReportHandler creates a report handler.
func NewReportHandler(base *BaseHandler, pipeline *ingest.Pipeline, maxUploadBytes int64) *ReportHandler {
	return &ReportHandler{BaseHandler: base, pipeline: pipeline, maxUploadBytes: maxUploadBytes}
}

// Upload handles POST /reports (multipart/form-data, file field "file").
func (h *ReportHandler) Upload(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.maxUploadBytes)

	var form dto.UploadReportForm
	if err := c.ShouldBind(&form); err != nil {
		h.Error(c, h.uploadError(err))
		return
	}
	meta, err := form.ToMetadata()
	if err != nil {
		h.Error(c, err)
		return
	}

	header, err := c.FormFile("file")
	if err != nil {
		h.Error(c, h.uploadError(err))
		return
	}
	f, err := header.Open()
	if err != nil {
		h.Error(c, apperror.NewInternal(fmt.Errorf("open upload: %w", err)))
		return
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		h.Error(c, apperror.NewInternal(fmt.Errorf("read upload: %w", err)))
		return
	}

	report, err := h.pipeline.Ingest(c.Request.Context(), ingest.Source{Filename: header.Filename, Data: data}, meta)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.Created(c, fmt.Sprintf("Processed %d of %d rows", report.SuccessfulRows, report.TotalRows), report)
}

func (h *ReportHandler) uploadError(err error) error {
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		return apperror.NewValidation("upload exceeds size limit").WithDetail("limit_bytes", h.maxUploadBytes)
	}
	if errors.Is(err, http.ErrMissingFile) {
		return apperror.NewValidation("file is required").WithDetail("field", "file")
	}
	return apperror.NewValidation("invalid upload").WithDetail("error", err.Error())
}

// List handles GET /reports
func (h *ReportHandler) List(c *gin.Context) {
	reports, err := h.pipeline.List(c.Request.Context(), h.ParseIntQuery(c, "limit", 0))
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, dto.NewListResponse(reports))
}

// Get handles GET /reports/:id
func (h *ReportHandler) Get(c *gin.Context) {
	reportID, ok := h.ParseIDParam(c, "id")
	if !ok {
		return
	}

	report, err := h.pipeline.Get(c.Request.Context(), reportID)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, report)
}
