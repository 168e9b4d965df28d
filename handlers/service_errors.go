package handlers

import (
	"errors"
	"net/http"

	"github.com/upb/permguard/services"
	"github.com/upb/permguard/utils"
	"go.uber.org/zap"
)

// HandleServiceError maps domain errors to HTTP responses
func HandleServiceError(w http.ResponseWriter, err error, logger *zap.Logger) {
	if err == nil {
		return
	}

	var domainErr *services.DomainError
	if !errors.As(err, &domainErr) {
		logger.Error("unhandled error type", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "An unexpected error occurred", nil, logger)
		return
	}

	switch domainErr.Type {
	case services.ErrorTypeNotFound:
		writeError(w, http.StatusNotFound, domainErr.Message, domainErr.Details, logger)
	case services.ErrorTypeValidation:
		writeError(w, http.StatusBadRequest, domainErr.Message, domainErr.Details, logger)
	case services.ErrorTypeUnauthorized:
		writeError(w, http.StatusUnauthorized, domainErr.Message, nil, logger)
	case services.ErrorTypeForbidden:
		writeError(w, http.StatusForbidden, domainErr.Message, nil, logger)
	case services.ErrorTypeConflict:
		writeError(w, http.StatusConflict, domainErr.Message, domainErr.Details, logger)
	default:
		// Internal details stay in the log
		logger.Error("internal server error", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "An internal error occurred", nil, logger)
	}
}

// HandleValidationError handles errors from decoding and validating a request body
func HandleValidationError(w http.ResponseWriter, err error, logger *zap.Logger) {
	if utils.IsValidationError(err) {
		writeError(w, http.StatusBadRequest, "Validation failed", utils.ValidationDetails(err), logger)
		return
	}
	writeError(w, http.StatusBadRequest, err.Error(), nil, logger)
}

func writeError(w http.ResponseWriter, status int, message string, details map[string]interface{}, logger *zap.Logger) {
	if len(details) == 0 {
		details = nil
	}
	if err := utils.WriteError(w, status, message, details); err != nil {
		logger.Error("failed to write error response", zap.Int("status", status), zap.Error(err))
	}
}
