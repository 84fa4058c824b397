// Package handler adapts the order use cases to gin.
package handler

import (
	"context"
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/mosaico/backend/internal/domain/shared"
	"github.com/mosaico/backend/internal/infrastructure/logger"
	"github.com/mosaico/backend/internal/interfaces/http/dto"
	"github.com/mosaico/backend/internal/interfaces/http/middleware"
)

// BaseHandler provides common handler utilities
type BaseHandler struct{}

func getRequestID(c *gin.Context) string {
	return c.GetString(middleware.RequestIDKey)
}

// Success sends a success response
func (h *BaseHandler) Success(c *gin.Context, data any) {
	c.JSON(http.StatusOK, dto.NewSuccessResponse(data))
}

// SuccessWithMeta sends a success response with pagination meta
func (h *BaseHandler) SuccessWithMeta(c *gin.Context, data any, total int64, page, pageSize int) {
	c.JSON(http.StatusOK, dto.NewSuccessResponseWithMeta(data, total, page, pageSize))
}

// Created sends a 201 created response
func (h *BaseHandler) Created(c *gin.Context, data any) {
	c.JSON(http.StatusCreated, dto.NewSuccessResponse(data))
}

// Error sends an error response with the given status
func (h *BaseHandler) Error(c *gin.Context, statusCode int, code, message string) {
	c.JSON(statusCode, dto.NewErrorResponse(code, message, getRequestID(c)))
}

// BadRequest sends a 400 bad request response
func (h *BaseHandler) BadRequest(c *gin.Context, message string) {
	h.Error(c, http.StatusBadRequest, dto.ErrCodeBadRequest, message)
}

// ValidationError sends a 400 validation error response with details
func (h *BaseHandler) ValidationError(c *gin.Context, details []dto.FieldDetail) {
	c.JSON(http.StatusBadRequest, dto.NewValidationErrorResponse(
		"Request validation failed",
		getRequestID(c),
		details,
	))
}

// HandleBindError answers a request whose body or query could not be bound
func (h *BaseHandler) HandleBindError(c *gin.Context, err error) {
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		h.Error(c, http.StatusRequestEntityTooLarge, dto.ErrCodeRequestTooLarge, "Request body too large")
		return
	}
	if details := middleware.FieldDetails(err); details != nil {
		h.ValidationError(c, details)
		return
	}
	h.Error(c, http.StatusBadRequest, dto.ErrCodeInvalidJSON, "Malformed request body")
}

// HandleError maps an error returned by a use case onto the envelope. The
// status comes from the error code; infrastructure failures are logged and
// their detail withheld from the client.
func (h *BaseHandler) HandleError(c *gin.Context, err error) {
	_ = c.Error(err)
	requestID := getRequestID(c)

	var verr *shared.ValidationError
	if errors.As(err, &verr) {
		details := make([]dto.FieldDetail, len(verr.Fields))
		for i, f := range verr.Fields {
			details[i] = dto.FieldDetail{Field: f.Field, Message: f.Message}
		}
		h.ValidationError(c, details)
		return
	}

	if errors.Is(err, context.DeadlineExceeded) {
		logger.FromGin(c).Warn("request deadline exceeded", zap.Error(err))
		resp := dto.NewErrorResponse(dto.ErrCodeTimeout, "Request timed out", requestID)
		resp.Error.Retryable = true
		c.JSON(dto.GetHTTPStatus(dto.ErrCodeTimeout), resp)
		return
	}

	code := shared.ErrorCodeOf(err)
	status := dto.GetHTTPStatus(code)
	message := err.Error()
	if status >= http.StatusInternalServerError {
		logger.FromGin(c).Error("request failed", zap.String("code", code), zap.Error(err))
		if code == dto.ErrCodeInfrastructure {
			message = "Service temporarily unavailable"
		}
	}

	resp := dto.NewErrorResponse(code, message, requestID)
	resp.Error.Retryable = shared.IsRetryable(err)
	c.JSON(status, resp)
}

// parseID reads a UUID path parameter, answering 400 when it is malformed
func (h *BaseHandler) parseID(c *gin.Context, param string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(param))
	if err != nil {
		h.ValidationError(c, []dto.FieldDetail{{Field: param, Message: "must be a UUID"}})
		return uuid.Nil, false
	}
	return id, true
}

// bindOptionalJSON binds a body that callers may omit entirely
func bindOptionalJSON(c *gin.Context, obj any) error {
	if c.Request.ContentLength == 0 {
		return nil
	}
	if err := c.ShouldBindJSON(obj); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}
