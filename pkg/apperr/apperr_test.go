package apperr

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNotFound(t *testing.T) {
	err := NotFound("invoice", "abc")
	assert.Equal(t, `invoice "abc" not found`, err.Error())
	assert.True(t, IsNotFound(err))
	assert.True(t, errors.Is(fmt.Errorf("load: %w", err), ErrNotFound))

	assert.Equal(t, "product not found", NotFound("product", "").Error())
}

func TestValidation(t *testing.T) {
	err := Required("name")
	assert.Equal(t, "name: is required", err.Error())
	assert.True(t, IsInvalid(err))

	var verr *ValidationError
	assert.True(t, errors.As(err, &verr))
	assert.Equal(t, "name", verr.Field)
}

func TestHTTPStatus(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"nil", nil, http.StatusOK},
		{"not found", NotFound("job", "1"), http.StatusNotFound},
		{"invalid", Invalid("quantity", "must be positive"), http.StatusBadRequest},
		{"conflict", Conflict("job %s is %s", "1", "DELIVERED"), http.StatusConflict},
		{"unauthorized", Unauthorized("bad token"), http.StatusUnauthorized},
		{"forbidden", Forbidden("not yours"), http.StatusForbidden},
		{"unavailable", Unavailable("archive disabled"), http.StatusServiceUnavailable},
		{"wrapped", fmt.Errorf("update: %w", Conflict("x")), http.StatusConflict},
		{"plain", errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, HTTPStatus(tt.err))
		})
	}
}
