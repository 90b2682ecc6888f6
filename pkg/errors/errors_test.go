package errors

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAppError_HTTPStatus(t *testing.T) {
	tests := []struct {
		err    *AppError
		status int
	}{
		{Validation("username is required"), http.StatusBadRequest},
		{BadRequest("bad"), http.StatusBadRequest},
		{Unauthenticated("no token"), http.StatusUnauthorized},
		{Forbidden("nope"), http.StatusForbidden},
		{NotFound("Movie not found"), http.StatusNotFound},
		{Conflict("Movie already in favorites"), http.StatusConflict},
		{Upstream("tmdb down", nil), http.StatusServiceUnavailable},
		{Internal(fmt.Errorf("boom")), http.StatusInternalServerError},
		{NewAppError("SOMETHING_ELSE", "x", nil), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(string(tt.err.Code), func(t *testing.T) {
			assert.Equal(t, tt.status, tt.err.HTTPStatus())
		})
	}
}

func TestAppError_ToErrorResponse(t *testing.T) {
	resp := NotFound("Movie not found").ToErrorResponse("req-1")
	assert.False(t, resp.Success)
	assert.Equal(t, "Movie not found", resp.Error)
	assert.Equal(t, CodeNotFound, resp.Code)
	assert.Equal(t, "req-1", resp.TraceID)

	resp = Validation("age must be at least 13", "gender is required").ToErrorResponse("")
	assert.Equal(t, []string{"age must be at least 13", "gender is required"}, resp.Error)
}

func TestAs_FindsWrappedError(t *testing.T) {
	wrapped := fmt.Errorf("handler: %w", Conflict("dup"))

	appErr, ok := As(wrapped)
	require.True(t, ok)
	assert.Equal(t, CodeConflict, appErr.Code)
	assert.Equal(t, CodeConflict, CodeOf(wrapped))
	assert.Equal(t, CodeInternalError, CodeOf(fmt.Errorf("plain")))
}

func TestAppError_ErrorAndUnwrap(t *testing.T) {
	cause := fmt.Errorf("dial tcp: refused")
	err := Internal(cause)
	assert.Equal(t, "INTERNAL_ERROR: Server Error (caused by: dial tcp: refused)", err.Error())
	assert.ErrorIs(t, err, cause)
	assert.Equal(t, "NOT_FOUND: gone", NotFound("gone").Error())
}
