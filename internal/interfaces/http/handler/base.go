package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/studioops/backend/internal/domain/shared"
	"github.com/studioops/backend/internal/infrastructure/logger"
	"github.com/studioops/backend/internal/interfaces/http/dto"
	"github.com/studioops/backend/internal/interfaces/http/middleware"
)

// BaseHandler provides shared response helpers for all handlers.
type BaseHandler struct{}

// Success writes a 200 response with the given payload.
func (h *BaseHandler) Success(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, dto.NewSuccessResponse(data))
}

// Created writes a 201 response with the given payload.
func (h *BaseHandler) Created(c *gin.Context, data interface{}) {
	c.JSON(http.StatusCreated, dto.NewSuccessResponse(data))
}

// BadRequest writes a 400 validation error.
func (h *BaseHandler) BadRequest(c *gin.Context, message string) {
	c.JSON(http.StatusBadRequest,
		dto.NewErrorResponseWithRequestID(dto.ErrCodeValidationFailed, message, h.requestID(c)))
}

// NotFound writes a 404 error.
func (h *BaseHandler) NotFound(c *gin.Context, message string) {
	c.JSON(http.StatusNotFound,
		dto.NewErrorResponseWithRequestID(dto.ErrCodeNotFound, message, h.requestID(c)))
}

// Unauthorized writes a 401 error.
func (h *BaseHandler) Unauthorized(c *gin.Context, message string) {
	c.JSON(http.StatusUnauthorized,
		dto.NewErrorResponseWithRequestID(dto.ErrCodeUnauthorized, message, h.requestID(c)))
}

// Forbidden writes a 403 error.
func (h *BaseHandler) Forbidden(c *gin.Context, message string) {
	c.JSON(http.StatusForbidden,
		dto.NewErrorResponseWithRequestID(dto.ErrCodeForbidden, message, h.requestID(c)))
}

// HandleError maps a domain error to the appropriate HTTP response.
// Unknown errors are logged and surfaced as a sanitized 500.
func (h *BaseHandler) HandleError(c *gin.Context, err error) {
	var domainErr *shared.DomainError
	if errors.As(err, &domainErr) {
		code := dto.NormalizeErrorCode(domainErr.Code)
		message := domainErr.Message
		if code == dto.ErrCodeInternalError && code != domainErr.Code {
			message = "an internal error occurred"
		}
		c.JSON(dto.GetHTTPStatus(code),
			dto.NewErrorResponseWithRequestID(code, message, h.requestID(c)))
		return
	}

	logger.GetGinLogger(c).Error("unhandled error",
		zap.String("path", c.FullPath()),
		zap.Error(err),
	)
	c.JSON(http.StatusInternalServerError,
		dto.NewErrorResponseWithRequestID(dto.ErrCodeInternalError, "an internal error occurred", h.requestID(c)))
}

func (h *BaseHandler) requestID(c *gin.Context) string {
	return middleware.GetRequestID(c)
}
