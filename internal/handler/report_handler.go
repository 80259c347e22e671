package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stemsi/survey-backend/internal/model"
	"github.com/stemsi/survey-backend/internal/response"
	"github.com/stemsi/survey-backend/internal/service"
	"github.com/stemsi/survey-backend/internal/validator"
)

// ReportHandler handles the admin dashboard, search and data management endpoints.
type ReportHandler struct {
	reportService     *service.ReportService
	respondentService *service.RespondentService
	log               zerolog.Logger
}

// NewReportHandler creates a new ReportHandler.
func NewReportHandler(reportService *service.ReportService, respondentService *service.RespondentService, log zerolog.Logger) *ReportHandler {
	return &ReportHandler{
		reportService:     reportService,
		respondentService: respondentService,
		log:               log.With().Str("component", "report_handler").Logger(),
	}
}

// GetDashboard godoc
// GET /api/v1/admin/dashboard
// Returns headline numbers and the latest completions.
func (h *ReportHandler) GetDashboard(c *gin.Context) {
	dashboard, err := h.reportService.Dashboard(c.Request.Context())
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to build dashboard")
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}
	response.Success(c, http.StatusOK, dashboard)
}

// GetChartData godoc
// GET /api/v1/admin/chart-data
// Returns the chart snapshot, served from cache when fresh.
func (h *ReportHandler) GetChartData(c *gin.Context) {
	data, err := h.reportService.ChartData(c.Request.Context())
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to build chart data")
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}
	response.Success(c, http.StatusOK, data)
}

// Search godoc
// GET /api/v1/admin/search?q=&program=&semester=&completed=&page=&per_page=
// Searches respondents with their survey result.
func (h *ReportHandler) Search(c *gin.Context) {
	var f model.SearchFilter
	if err := c.ShouldBindQuery(&f); err != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, validator.TranslateErrors(err))
		return
	}

	result, pagination, err := h.reportService.Search(c.Request.Context(), f)
	if err != nil {
		h.log.Error().Err(err).Msg("Search failed")
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}
	response.SuccessWithPagination(c, http.StatusOK, result, pagination)
}

// GetRespondent godoc
// GET /api/v1/admin/respondents/:id
// Returns a respondent and their response, if any.
func (h *ReportHandler) GetRespondent(c *gin.Context) {
	id, ok := intParam(c, "id")
	if !ok {
		return
	}

	respondent, resp, err := h.reportService.RespondentDetail(c.Request.Context(), id)
	if err != nil {
		h.failNotFound(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"respondent": respondent, "response": resp})
}

// DeleteRespondent godoc
// DELETE /api/v1/admin/respondents/:id
// Deletes a respondent together with their response and answers.
func (h *ReportHandler) DeleteRespondent(c *gin.Context) {
	id, ok := intParam(c, "id")
	if !ok {
		return
	}

	if err := h.respondentService.Delete(c.Request.Context(), id); err != nil {
		h.failNotFound(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"message": "respondent deleted"})
}

// GetResponse godoc
// GET /api/v1/admin/responses/:id
// Returns a response header with every answer.
func (h *ReportHandler) GetResponse(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	detail, err := h.reportService.ResponseDetail(c.Request.Context(), id)
	if err != nil {
		h.failNotFound(c, err)
		return
	}
	response.Success(c, http.StatusOK, detail)
}

// DeleteResponse godoc
// DELETE /api/v1/admin/responses/:id
// Deletes a response. The respondent stays registered and may not retake the survey.
func (h *ReportHandler) DeleteResponse(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	if err := h.reportService.DeleteResponse(c.Request.Context(), id); err != nil {
		h.failNotFound(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"message": "response deleted"})
}

// PurgeAll godoc
// POST /api/v1/admin/purge-all
// Deletes every respondent, response and answer. Requires the confirmation code.
func (h *ReportHandler) PurgeAll(c *gin.Context) {
	var req model.PurgeRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	err := h.reportService.PurgeAll(c.Request.Context(), req.ConfirmationCode)
	switch {
	case err == nil:
		response.Success(c, http.StatusOK, gin.H{"message": "all survey data purged"})
	case errors.Is(err, service.ErrPurgeDisabled):
		response.Fail(c, http.StatusForbidden, response.ErrPurgeDisabled)
	case errors.Is(err, service.ErrInvalidConfirmation):
		response.Fail(c, http.StatusForbidden, response.ErrInvalidConfirmCode)
	default:
		h.log.Error().Err(err).Msg("Purge failed")
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
	}
}

func (h *ReportHandler) failNotFound(c *gin.Context, err error) {
	if errors.Is(err, service.ErrNotFound) {
		response.Fail(c, http.StatusNotFound, response.ErrNotFound)
		return
	}
	h.log.Error().Err(err).Msg("Admin request failed")
	response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
}
