package httpx

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	apperrors "quickorder/internal/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestWriteError_StatusMapping(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
		code   string
	}{
		{"validation", apperrors.NewValidationError("bad"), http.StatusBadRequest, "VALIDATION_ERROR"},
		{"not found", apperrors.NewNotFoundError("missing"), http.StatusNotFound, "NOT_FOUND"},
		{"conflict", fmt.Errorf("wrapped: %w", apperrors.NewConflictError("nope")), http.StatusConflict, "CONFLICT"},
		{"forbidden", apperrors.NewForbiddenError("admins only"), http.StatusForbidden, "FORBIDDEN"},
		{"unauthorized", apperrors.NewUnauthorizedError("sign in"), http.StatusUnauthorized, "UNAUTHORIZED"},
		{"internal", fmt.Errorf("boom"), http.StatusInternalServerError, "INTERNAL_ERROR"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			WriteError(rec, zap.NewNop(), tt.err)

			assert.Equal(t, tt.status, rec.Code)
			var body map[string]interface{}
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
			assert.Equal(t, tt.code, body["error"])
		})
	}
}

func TestWriteError_InternalHidesCause(t *testing.T) {
	rec := httptest.NewRecorder()
	WriteError(rec, zap.NewNop(), fmt.Errorf("dial tcp 10.0.0.1: refused"))

	assert.NotContains(t, rec.Body.String(), "10.0.0.1")
}

func TestWriteValidationError_AlwaysHasDetails(t *testing.T) {
	rec := httptest.NewRecorder()
	WriteValidationError(rec, zap.NewNop(), "cart empty")

	assert.JSONEq(t, `{"error":"VALIDATION_ERROR","message":"cart empty","details":[]}`, rec.Body.String())
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
}

func TestDecodeJSON_Malformed(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader("{"))
	var dst map[string]string

	err := DecodeJSON(req, &dst)

	ve, ok := apperrors.IsValidationError(err)
	require.True(t, ok)
	assert.Equal(t, "body", ve.Details[0].Field)
}
