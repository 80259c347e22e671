package handler

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/stemsi/survey-backend/internal/config"
	"github.com/stemsi/survey-backend/internal/middleware"
	"github.com/stemsi/survey-backend/internal/model"
	"github.com/stemsi/survey-backend/internal/response"
	"github.com/stemsi/survey-backend/internal/service"
	"github.com/stemsi/survey-backend/internal/validator"
)

// RespondentHandler handles public registration endpoints.
type RespondentHandler struct {
	respondentService *service.RespondentService
	surveyService     *service.SurveyService
	authService       *service.AuthService
	tokenTTL          time.Duration
	log               zerolog.Logger
}

// NewRespondentHandler creates a new RespondentHandler.
func NewRespondentHandler(
	respondentService *service.RespondentService,
	surveyService *service.SurveyService,
	authService *service.AuthService,
	tokenTTL time.Duration,
	log zerolog.Logger,
) *RespondentHandler {
	return &RespondentHandler{
		respondentService: respondentService,
		surveyService:     surveyService,
		authService:       authService,
		tokenTTL:          tokenTTL,
		log:               log.With().Str("component", "respondent_handler").Logger(),
	}
}

// Register godoc
// POST /api/v1/respondents
// Registers a respondent and redirects to the first survey step.
// Accepts JSON or a plain form post.
func (h *RespondentHandler) Register(c *gin.Context) {
	var req model.RegisterRespondentRequest
	if fields := validator.BindAny(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	respondent, err := h.respondentService.Register(c.Request.Context(), req.Name, req.Identifier, req.Program, req.Semester)
	if err != nil {
		var ve *service.ValidationError
		switch {
		case errors.As(err, &ve):
			response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, ve.Fields)
		case errors.Is(err, service.ErrDuplicateIdentifier):
			response.FailWithFields(c, http.StatusConflict, response.ErrDuplicateIdentifier, map[string]string{
				"identifier": "identifier is already registered",
			})
		default:
			h.log.Error().Err(err).Msg("Failed to register respondent")
			response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		}
		return
	}

	token, err := h.authService.GenerateRespondentToken(respondent.ID)
	if err != nil {
		h.log.Error().Err(err).Int("respondent_id", respondent.ID).Msg("Failed to sign survey token")
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}
	setSurveyCookie(c, token, h.tokenTTL)

	first, err := h.surveyService.FirstStep(c.Request.Context())
	if err != nil {
		// Registered, but there is nothing to answer yet.
		h.log.Warn().Err(err).Msg("Survey has no steps")
		response.Success(c, http.StatusCreated, model.RegisterRespondentResponse{
			Respondent: *respondent,
			Token:      token,
		})
		return
	}

	next := config.RoutePath.SurveyStep(respondent.ID, first)
	response.Redirect(c, next, model.RegisterRespondentResponse{
		Respondent: *respondent,
		Token:      token,
		Next:       next,
	})
}

// CheckAvailability godoc
// GET /api/v1/respondents/:identifier/availability?identifier=...
// Reports whether an identifier can still be registered.
func (h *RespondentHandler) CheckAvailability(c *gin.Context) {
	identifier := c.Query("identifier")
	if identifier == "" {
		identifier = c.Param("identifier")
	}

	available, msg, err := h.respondentService.CheckIdentifierAvailable(c.Request.Context(), identifier)
	if err != nil {
		h.log.Error().Err(err).Msg("Availability check failed")
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	response.Success(c, http.StatusOK, model.IdentifierAvailability{Available: available, Message: msg})
}

func setSurveyCookie(c *gin.Context, token string, ttl time.Duration) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(middleware.SurveyTokenCookie, token, int(ttl.Seconds()), config.APIPrefix+"/survey", "", c.Request.TLS != nil, true)
}

func clearSurveyCookie(c *gin.Context) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(middleware.SurveyTokenCookie, "", -1, config.APIPrefix+"/survey", "", c.Request.TLS != nil, true)
}
