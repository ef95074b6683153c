package main

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/mmdatafocus/fiado_backend/config"
	"github.com/mmdatafocus/fiado_backend/models"
	"github.com/mmdatafocus/fiado_backend/utils"
	"github.com/mmdatafocus/fiado_backend/workflow"
)

type errorResponse struct {
	Error   string         `json:"error"`
	Message string         `json:"message"`
	Context map[string]any `json:"context,omitempty"`
}

// statusForError maps ledger errors onto HTTP statuses.
func statusForError(err error) int {
	var validationErr *utils.ValidationError
	switch {
	case errors.Is(err, models.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, models.ErrInsufficientStock),
		errors.Is(err, models.ErrInvalidPaymentAmount),
		errors.As(err, &validationErr):
		return http.StatusUnprocessableEntity
	case errors.Is(err, models.ErrAlreadySettled),
		errors.Is(err, models.ErrConcurrentModification),
		errors.Is(err, models.ErrReferenced),
		errors.Is(err, workflow.ErrIdempotencyKeyReused),
		errors.Is(err, workflow.ErrIdempotencyInProgress):
		return http.StatusConflict
	}
	return http.StatusInternalServerError
}

func abortWithError(c *gin.Context, err error) {
	status := statusForError(err)
	body := errorResponse{Error: "Internal", Message: "internal error"}

	var domainErr models.DomainError
	var validationErr *utils.ValidationError
	switch {
	case errors.As(err, &domainErr):
		body = errorResponse{Error: domainErr.Kind(), Message: domainErr.Error(), Context: domainErr.Context()}
	case errors.As(err, &validationErr):
		ctx := make(map[string]any, len(validationErr.Fields))
		for k, v := range validationErr.Fields {
			ctx[k] = v
		}
		body = errorResponse{Error: "ValidationError", Message: validationErr.Error(), Context: ctx}
	case status == http.StatusConflict:
		body = errorResponse{Error: "IdempotencyConflict", Message: err.Error()}
	default:
		cid, _ := utils.GetCorrelationIdFromContext(c.Request.Context())
		config.LogError(config.GetLogger(), "server", c.FullPath(), cid, nil, err)
		_ = c.Error(err)
	}
	c.AbortWithStatusJSON(status, body)
}

// abortWithBindError answers a payload that could not be bound.
func abortWithBindError(c *gin.Context, err error) {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		abortWithError(c, &utils.ValidationError{Fields: utils.ProcessValidationErrors(verrs)})
		return
	}
	c.AbortWithStatusJSON(http.StatusBadRequest, errorResponse{Error: "BadRequest", Message: "invalid request body"})
}

func paramId(c *gin.Context, name string) (int, bool) {
	id, err := strconv.Atoi(c.Param(name))
	if err != nil || id <= 0 {
		c.AbortWithStatusJSON(http.StatusBadRequest, errorResponse{Error: "BadRequest", Message: name + " must be a positive integer"})
		return 0, false
	}
	return id, true
}

func queryLimit(c *gin.Context, def int) int {
	if v := c.Query("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			return n
		}
	}
	return def
}
