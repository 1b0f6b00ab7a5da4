package http

import (
	"errors"
	"log"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/mrlokans/shelf/internal/forms"
	"github.com/mrlokans/shelf/internal/store"
)

// --- Response Types ---

// ErrorResponse is the standard error response format for all API errors.
type ErrorResponse struct {
	Error   string `json:"error"`
	Code    int    `json:"code,omitempty"`
	Details any    `json:"details,omitempty"` // field messages for validation errors
}

// SuccessResponse is a standard success response with optional data.
type SuccessResponse struct {
	Message string `json:"message"`
	Data    any    `json:"data,omitempty"`
}

// PaginatedResponse wraps paginated data with metadata.
type PaginatedResponse struct {
	Data    any   `json:"data"`
	Total   int64 `json:"total"`
	Limit   int   `json:"limit"`
	Offset  int   `json:"offset"`
	HasMore bool  `json:"has_more"`
}

// --- Error Response Helpers ---

func respondError(c *gin.Context, status int, message string) {
	c.JSON(status, ErrorResponse{Error: message, Code: status})
}

func respondBadRequest(c *gin.Context, message string) {
	respondError(c, http.StatusBadRequest, message)
}

func respondNotFound(c *gin.Context, resource string) {
	respondError(c, http.StatusNotFound, resource+" not found")
}

// respondValidation sends a 422 with the per-field messages.
func respondValidation(c *gin.Context, errs forms.FieldErrors) {
	c.JSON(http.StatusUnprocessableEntity, ErrorResponse{
		Error:   "validation failed",
		Code:    http.StatusUnprocessableEntity,
		Details: errs,
	})
}

// respondInternalError logs err and sends a 500 carrying only the user-facing message.
func respondInternalError(c *gin.Context, err error, context, message string) {
	log.Printf("Internal error (%s): %v", context, err)
	respondError(c, http.StatusInternalServerError, message)
}

// respondMutationError maps a failed catalog operation onto a response.
func respondMutationError(c *gin.Context, err error, resource, context, message string) {
	var fieldErrs forms.FieldErrors
	switch {
	case errors.As(err, &fieldErrs):
		respondValidation(c, fieldErrs)
	case errors.Is(err, store.ErrNotFound):
		respondNotFound(c, resource)
	default:
		respondInternalError(c, err, context, message)
	}
}

// --- Success Response Helpers ---

func respondSuccess(c *gin.Context, message string, data any) {
	c.JSON(http.StatusOK, SuccessResponse{Message: message, Data: data})
}

func respondCreated(c *gin.Context, data any) {
	c.JSON(http.StatusCreated, data)
}

// respondAccepted sends a 202 Accepted response (for async operations).
func respondAccepted(c *gin.Context, message string, data any) {
	c.JSON(http.StatusAccepted, SuccessResponse{Message: message, Data: data})
}

// --- Parameter Parsing ---

// parseIDParam reads a record id from the URL. Ids are opaque strings; only
// emptiness is rejected.
func parseIDParam(c *gin.Context, paramName string) (string, bool) {
	id := c.Param(paramName)
	if id == "" {
		respondBadRequest(c, "invalid "+paramName)
		return "", false
	}
	return id, true
}

// parsePagination reads limit and offset query parameters.
func parsePagination(c *gin.Context, defaultLimit, maxLimit int) (int, int) {
	limit, err := strconv.Atoi(c.DefaultQuery("limit", strconv.Itoa(defaultLimit)))
	if err != nil || limit < 1 || limit > maxLimit {
		limit = defaultLimit
	}
	offset, err := strconv.Atoi(c.DefaultQuery("offset", "0"))
	if err != nil || offset < 0 {
		offset = 0
	}
	return limit, offset
}
