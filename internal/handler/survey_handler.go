package handler

import (
	"errors"
	"fmt"
	"math"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/rs/zerolog"
	"github.com/stemsi/survey-backend/internal/config"
	"github.com/stemsi/survey-backend/internal/model"
	"github.com/stemsi/survey-backend/internal/response"
	"github.com/stemsi/survey-backend/internal/service"
)

// completeSegment is the step name reserved for the confirmation page.
const completeSegment = "complete"

// SurveyHandler serves the multi-step survey to respondents.
type SurveyHandler struct {
	surveyService  *service.SurveyService
	catalogService *service.CatalogService
	log            zerolog.Logger
}

// NewSurveyHandler creates a new SurveyHandler.
func NewSurveyHandler(surveyService *service.SurveyService, catalogService *service.CatalogService, log zerolog.Logger) *SurveyHandler {
	return &SurveyHandler{
		surveyService:  surveyService,
		catalogService: catalogService,
		log:            log.With().Str("component", "survey_handler").Logger(),
	}
}

// ListCategories godoc
// GET /api/v1/categories
// Lists the survey categories in order, with their question counts.
func (h *SurveyHandler) ListCategories(c *gin.Context) {
	categories, err := h.catalogService.ListCategories(c.Request.Context())
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to list categories")
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"categories": categories})
}

// GetStatus godoc
// GET /api/v1/survey/:respondent_id
// Returns the respondent's progress through the survey.
func (h *SurveyHandler) GetStatus(c *gin.Context) {
	respondentID, ok := respondentParam(c)
	if !ok {
		return
	}

	status, err := h.surveyService.Status(c.Request.Context(), respondentID)
	if err != nil {
		h.fail(c, respondentID, err)
		return
	}
	response.Success(c, http.StatusOK, status)
}

// GetStep godoc
// GET /api/v1/survey/:respondent_id/:category
// Returns one step with its questions and any answers already buffered.
// The "complete" step returns the stored response.
func (h *SurveyHandler) GetStep(c *gin.Context) {
	respondentID, ok := respondentParam(c)
	if !ok {
		return
	}

	category := c.Param("category")
	if category == completeSegment {
		h.complete(c, respondentID)
		return
	}

	view, err := h.surveyService.GetStep(c.Request.Context(), respondentID, category)
	if err != nil {
		h.fail(c, respondentID, err)
		return
	}
	response.Success(c, http.StatusOK, view)
}

// SubmitStep godoc
// POST /api/v1/survey/:respondent_id/:category
// Validates and stores one step, then redirects to the next step or to the
// confirmation page once the last step is in.
func (h *SurveyHandler) SubmitStep(c *gin.Context) {
	respondentID, ok := respondentParam(c)
	if !ok {
		return
	}

	category := c.Param("category")
	if category == completeSegment {
		h.complete(c, respondentID)
		return
	}

	raw, err := readAnswers(c)
	if err != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrInvalidPayload, map[string]string{"detail": err.Error()})
		return
	}

	result, err := h.surveyService.SubmitStep(c.Request.Context(), respondentID, category, raw)
	if err != nil {
		h.fail(c, respondentID, err)
		return
	}

	if result.Completed != nil {
		response.Redirect(c, config.RoutePath.SurveyComplete(respondentID), gin.H{
			"completed": true,
			"response":  result.Completed,
		})
		return
	}

	next := config.RoutePath.SurveyStep(respondentID, result.Next)
	response.Redirect(c, next, gin.H{"next": next, "next_category": result.Next})
}

func (h *SurveyHandler) complete(c *gin.Context, respondentID int) {
	resp, err := h.surveyService.Completion(c.Request.Context(), respondentID)
	if err != nil {
		h.fail(c, respondentID, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{
		"completed":     true,
		"response":      resp,
		"average_score": math.Round(resp.AverageScore()*100) / 100,
	})
}

// fail maps survey errors onto redirects and error envelopes.
func (h *SurveyHandler) fail(c *gin.Context, respondentID int, err error) {
	var (
		redirect    *service.StepRedirect
		validation  *service.ValidationError
		persistence *service.PersistenceError
	)

	switch {
	case errors.As(err, &redirect):
		next := config.RoutePath.SurveyStep(respondentID, redirect.Category)
		response.Redirect(c, next, gin.H{"next": next, "next_category": redirect.Category})
	case errors.As(err, &validation):
		answers := validation.Answers
		if answers == nil {
			answers = map[string]int{}
		}
		response.FailWithData(c, http.StatusBadRequest, response.ErrIncompleteStep, validation.Fields, gin.H{"answers": answers})
	case errors.Is(err, service.ErrUnknownRespondent):
		clearSurveyCookie(c)
		c.Header("Location", config.RoutePath.Registration())
		response.Fail(c, http.StatusFound, response.ErrUnknownRespondent)
	case errors.Is(err, service.ErrAlreadyCompleted):
		c.Header("Location", config.RoutePath.SurveyComplete(respondentID))
		response.Fail(c, http.StatusFound, response.ErrSurveyCompleted)
	case errors.Is(err, service.ErrCategoryNotFound):
		response.Fail(c, http.StatusNotFound, response.ErrCategoryNotFound)
	case errors.Is(err, service.ErrEmptyCatalog):
		response.Fail(c, http.StatusNotFound, response.ErrCategoryNotFound)
	case errors.As(err, &persistence):
		h.log.Error().Err(err).Int("respondent_id", respondentID).Msg("Survey response was not persisted")
		response.Fail(c, http.StatusInternalServerError, response.ErrPersistence)
	default:
		h.log.Error().Err(err).Int("respondent_id", respondentID).Msg("Survey request failed")
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
	}
}

func respondentParam(c *gin.Context) (int, bool) {
	id, err := strconv.Atoi(c.Param("respondent_id"))
	if err != nil || id <= 0 {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return 0, false
	}
	return id, true
}

// readAnswers collects question code -> raw value from a JSON body
// ({"answers": {...}}) or from form fields named after the question codes.
func readAnswers(c *gin.Context) (map[string]string, error) {
	raw := make(map[string]string)

	if c.ContentType() == binding.MIMEJSON {
		var req model.SubmitStepRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			return nil, err
		}
		for code, v := range req.Answers {
			raw[code] = answerString(v)
		}
		return raw, nil
	}

	if err := c.Request.ParseForm(); err != nil {
		return nil, err
	}
	for code, values := range c.Request.PostForm {
		if len(values) > 0 {
			raw[code] = values[0]
		}
	}
	return raw, nil
}

// answerString renders a decoded JSON value so the service can parse it.
// Integral numbers become plain integers; anything else keeps a textual form
// that will fail validation.
func answerString(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case float64:
		if t == math.Trunc(t) && !math.IsInf(t, 0) {
			return strconv.FormatInt(int64(t), 10)
		}
		return strconv.FormatFloat(t, 'f', -1, 64)
	default:
		return fmt.Sprint(t)
	}
}
