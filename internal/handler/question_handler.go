package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/stemsi/survey-backend/internal/model"
	"github.com/stemsi/survey-backend/internal/response"
	"github.com/stemsi/survey-backend/internal/service"
	"github.com/stemsi/survey-backend/internal/validator"
)

// QuestionHandler handles question catalog management endpoints.
type QuestionHandler struct {
	catalogService *service.CatalogService
	log            zerolog.Logger
}

// NewQuestionHandler creates a new QuestionHandler.
func NewQuestionHandler(catalogService *service.CatalogService, log zerolog.Logger) *QuestionHandler {
	return &QuestionHandler{
		catalogService: catalogService,
		log:            log.With().Str("component", "question_handler").Logger(),
	}
}

// ListQuestions godoc
// GET /api/v1/admin/questions?category=...
// Lists the catalog, optionally restricted to one category.
func (h *QuestionHandler) ListQuestions(c *gin.Context) {
	var (
		questions []model.Question
		err       error
	)
	if category := c.Query("category"); category != "" {
		questions, err = h.catalogService.ListByCategory(c.Request.Context(), category)
	} else {
		questions, err = h.catalogService.ListAll(c.Request.Context())
	}
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to list questions")
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	if questions == nil {
		questions = []model.Question{}
	}

	response.Success(c, http.StatusOK, gin.H{"questions": questions})
}

// CreateQuestion godoc
// POST /api/v1/admin/questions
// Adds a question. A blank code is generated from the category's existing codes.
func (h *QuestionHandler) CreateQuestion(c *gin.Context) {
	var req model.CreateQuestionRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	question, err := h.catalogService.Create(c.Request.Context(), req.Code, req.Category, req.Text)
	if err != nil {
		h.failCatalog(c, err)
		return
	}

	response.Success(c, http.StatusCreated, gin.H{"question": question})
}

// UpdateQuestion godoc
// PUT /api/v1/admin/questions/:id
// Updates a question's text and, while it has no answers, its category.
func (h *QuestionHandler) UpdateQuestion(c *gin.Context) {
	id, ok := intParam(c, "id")
	if !ok {
		return
	}

	var req model.UpdateQuestionRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	question, err := h.catalogService.Update(c.Request.Context(), id, req.Text, req.Category)
	if err != nil {
		h.failCatalog(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"question": question})
}

// DeleteQuestion godoc
// DELETE /api/v1/admin/questions/:id
// Removes a question from the catalog. Stored answers are kept.
func (h *QuestionHandler) DeleteQuestion(c *gin.Context) {
	id, ok := intParam(c, "id")
	if !ok {
		return
	}

	if err := h.catalogService.Delete(c.Request.Context(), id); err != nil {
		h.failCatalog(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"message": "question deleted"})
}

// ListCategories godoc
// GET /api/v1/admin/categories
func (h *QuestionHandler) ListCategories(c *gin.Context) {
	categories, err := h.catalogService.ListCategories(c.Request.Context())
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to list categories")
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"categories": categories})
}

// CreateCategory godoc
// POST /api/v1/admin/categories
// Adds a survey step.
func (h *QuestionHandler) CreateCategory(c *gin.Context) {
	var req model.CreateCategoryRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	category, err := h.catalogService.CreateCategory(c.Request.Context(), req.Code, req.Label, req.Position)
	if err != nil {
		h.failCatalog(c, err)
		return
	}

	response.Success(c, http.StatusCreated, gin.H{"category": category})
}

func (h *QuestionHandler) failCatalog(c *gin.Context, err error) {
	var ve *service.ValidationError
	switch {
	case errors.As(err, &ve):
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, ve.Fields)
	case errors.Is(err, service.ErrNotFound):
		response.Fail(c, http.StatusNotFound, response.ErrNotFound)
	case errors.Is(err, service.ErrCategoryNotFound):
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, map[string]string{
			"category": "unknown category",
		})
	case errors.Is(err, service.ErrInvalidQuestionCode):
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, map[string]string{
			"code": err.Error(),
		})
	case errors.Is(err, service.ErrDuplicateQuestionCode):
		response.Fail(c, http.StatusConflict, response.ErrDuplicateCode)
	case errors.Is(err, service.ErrDuplicateCategory):
		response.Fail(c, http.StatusConflict, response.ErrConflict)
	case errors.Is(err, service.ErrQuestionInUse):
		response.Fail(c, http.StatusConflict, response.ErrQuestionInUse)
	default:
		h.log.Error().Err(err).Msg("Catalog operation failed")
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
	}
}

func intParam(c *gin.Context, name string) (int, bool) {
	id, err := strconv.Atoi(c.Param(name))
	if err != nil || id <= 0 {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return 0, false
	}
	return id, true
}
