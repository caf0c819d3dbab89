package handler

import (
	"errors"
	"net/http"
	"time"

	"github.com/astro-analytics/video-tagging-go/internal/models"
	"github.com/astro-analytics/video-tagging-go/internal/service"
	"github.com/astro-analytics/video-tagging-go/pkg/logger"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

func respondError(c *gin.Context, status int, message string) {
	c.JSON(status, models.ErrorResponse{
		Status:    status,
		Error:     http.StatusText(status),
		Message:   message,
		Timestamp: time.Now(),
		Path:      c.Request.URL.Path,
	})
}

func badRequest(c *gin.Context, err error) {
	logger.Log.Warn("Invalid request payload",
		zap.Error(err),
		zap.String("path", c.Request.URL.Path),
	)
	respondError(c, http.StatusBadRequest, "Invalid request payload: "+err.Error())
}

func handleError(c *gin.Context, err error) {
	var (
		validationErr *service.ValidationError
		notFoundErr   *service.NotFoundError
		processingErr *service.ProcessingError
	)

	switch {
	case errors.As(err, &validationErr):
		logger.Log.Warn("Validation error",
			zap.Error(err),
			zap.String("path", c.Request.URL.Path),
		)
		respondError(c, http.StatusBadRequest, err.Error())
	case errors.As(err, &notFoundErr):
		respondError(c, http.StatusNotFound, err.Error())
	case errors.As(err, &processingErr):
		logger.Log.Error("Processing error",
			zap.Error(err),
			zap.String("path", c.Request.URL.Path),
		)
		respondError(c, http.StatusInternalServerError, processingErr.Message)
	default:
		logger.Log.Error("Unexpected error",
			zap.Error(err),
			zap.String("path", c.Request.URL.Path),
		)
		respondError(c, http.StatusInternalServerError, "An unexpected error occurred")
	}
}
