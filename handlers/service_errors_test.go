package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/upb/permguard/services"
	"github.com/upb/permguard/utils"
	"go.uber.org/zap"
)

func decodeErrorResponse(t *testing.T, w *httptest.ResponseRecorder) utils.ErrorResponse {
	t.Helper()
	var response utils.ErrorResponse
	require.NoError(t, json.NewDecoder(w.Body).Decode(&response))
	return response
}

func TestHandleServiceError(t *testing.T) {
	logger := zap.NewNop()

	tests := []struct {
		name            string
		err             error
		expectedStatus  int
		expectedError   string
		expectedMessage string
	}{
		{"not found error", services.ErrPostNotFound, http.StatusNotFound, "not_found", "post not found"},
		{"validation error", services.ErrInvalidStatus, http.StatusBadRequest, "bad_request", "invalid status"},
		{"unauthorized error", services.ErrUnauthorized, http.StatusUnauthorized, "unauthorized", "unauthorized"},
		{"forbidden error", services.ErrNotPostOwner, http.StatusForbidden, "forbidden", "only the author may do this"},
		{"conflict error", services.ErrStatusUnchanged, http.StatusConflict, "conflict", "status already set"},
		{"internal error hides the cause", services.WrapInternal("failed", errors.New("password=hunter2")), http.StatusInternalServerError, "internal_error", "An internal error occurred"},
		{"unknown error", errors.New("some unknown error"), http.StatusInternalServerError, "internal_error", "An unexpected error occurred"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			HandleServiceError(w, tt.err, logger)

			assert.Equal(t, tt.expectedStatus, w.Code)

			response := decodeErrorResponse(t, w)
			assert.Equal(t, tt.expectedError, response.Error)
			assert.Equal(t, tt.expectedMessage, response.Message)
		})
	}
}

func TestHandleServiceErrorWithDetails(t *testing.T) {
	err := services.ErrInvalidStatus.WithDetail("status", "GONE")

	w := httptest.NewRecorder()
	HandleServiceError(w, err, zap.NewNop())

	assert.Equal(t, http.StatusBadRequest, w.Code)
	response := decodeErrorResponse(t, w)
	assert.Equal(t, "GONE", response.Details["status"])
}

func TestHandleServiceErrorNil(t *testing.T) {
	w := httptest.NewRecorder()

	HandleServiceError(w, nil, zap.NewNop())

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, w.Body.String())
}

func TestHandleValidationError(t *testing.T) {
	logger := zap.NewNop()

	t.Run("field errors become details", func(t *testing.T) {
		err := &utils.ValidationError{
			Message: "Validation failed",
			Fields: map[string]string{
				"Title": "Title is required",
			},
		}

		w := httptest.NewRecorder()
		HandleValidationError(w, err, logger)

		assert.Equal(t, http.StatusBadRequest, w.Code)
		response := decodeErrorResponse(t, w)
		assert.Equal(t, "bad_request", response.Error)
		assert.Equal(t, "Validation failed", response.Message)
		assert.Equal(t, "Title is required", response.Details["Title"])
	})

	t.Run("generic error", func(t *testing.T) {
		w := httptest.NewRecorder()
		HandleValidationError(w, utils.ErrEmptyBody, logger)

		assert.Equal(t, http.StatusBadRequest, w.Code)
		response := decodeErrorResponse(t, w)
		assert.Equal(t, "request body is empty", response.Message)
	})
}
