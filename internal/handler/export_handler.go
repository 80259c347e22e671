package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/stemsi/survey-backend/internal/model"
	"github.com/stemsi/survey-backend/internal/response"
	"github.com/stemsi/survey-backend/internal/service"
	"github.com/stemsi/survey-backend/internal/validator"
)

const (
	contentTypeCSV  = "text/csv; charset=utf-8"
	contentTypeXLSX = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
)

// ExportHandler streams completed responses as spreadsheet downloads.
type ExportHandler struct {
	exportService *service.ExportService
	log           zerolog.Logger
	now           func() time.Time
}

// NewExportHandler creates a new ExportHandler.
func NewExportHandler(exportService *service.ExportService, log zerolog.Logger) *ExportHandler {
	return &ExportHandler{
		exportService: exportService,
		log:           log.With().Str("component", "export_handler").Logger(),
		now:           time.Now,
	}
}

// ExportCSV godoc
// GET /api/v1/admin/export.csv
// Downloads completed responses as CSV. Accepts the search filters.
func (h *ExportHandler) ExportCSV(c *gin.Context) {
	f, ok := bindExportFilter(c)
	if !ok {
		return
	}

	body, err := h.exportService.CSV(c.Request.Context(), f)
	if err != nil {
		h.log.Error().Err(err).Msg("CSV export failed")
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}
	response.Attachment(c, service.ExportFilename("csv", h.now()), contentTypeCSV, body)
}

// ExportXLSX godoc
// GET /api/v1/admin/export.xlsx
// Downloads completed responses as an Excel workbook. Accepts the search filters.
func (h *ExportHandler) ExportXLSX(c *gin.Context) {
	f, ok := bindExportFilter(c)
	if !ok {
		return
	}

	body, err := h.exportService.XLSX(c.Request.Context(), f)
	if err != nil {
		h.log.Error().Err(err).Msg("XLSX export failed")
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}
	response.Attachment(c, service.ExportFilename("xlsx", h.now()), contentTypeXLSX, body)
}

func bindExportFilter(c *gin.Context) (model.SearchFilter, bool) {
	var f model.SearchFilter
	if err := c.ShouldBindQuery(&f); err != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, validator.TranslateErrors(err))
		return f, false
	}
	return f, true
}
