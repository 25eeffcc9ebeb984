package httpx

import (
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	apperrors "github.com/target/petalcart/internal/errors"
)

func TestWriteAppError(t *testing.T) {
	tests := []struct {
		name    string
		err     error
		status  int
		code    string
		message string
	}{
		{"validation", apperrors.ValidationField("quantity", "too many"), http.StatusBadRequest, "validation", "too many"},
		{"wrapped unauthorized", fmt.Errorf("login: %w", apperrors.Unauthorized("nope")), http.StatusUnauthorized, "unauthorized", "nope"},
		{"not found", apperrors.NotFound("gone"), http.StatusNotFound, "not_found", "gone"},
		{"conflict", apperrors.ConflictField("email", "taken"), http.StatusConflict, "conflict", "taken"},
		{"rate limited", apperrors.RateLimited("slow down"), http.StatusTooManyRequests, "rate_limited", "slow down"},
		{"unavailable", apperrors.Unavailable(errors.New("dial tcp"), "try later"), http.StatusServiceUnavailable, "unavailable", "try later"},
		{"plain error", errors.New("pq: secret detail"), http.StatusInternalServerError, "internal", "Something went wrong. Please try again."},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			WriteAppError(rec, tt.err)
			assert.Equal(t, tt.status, rec.Code)
			body := decodeBody(t, rec)
			assert.Equal(t, tt.code, body["error"])
			assert.Equal(t, tt.message, body["message"])
		})
	}
}

func TestDecodeJSON_RequiresJSONContentType(t *testing.T) {
	var dst struct {
		Quantity int `json:"quantity"`
	}

	req := httptest.NewRequest(http.MethodPost, "/api/cart/items", strings.NewReader("quantity=3"))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := httptest.NewRecorder()
	assert.False(t, DecodeJSON(rec, req, &dst))
	assert.Equal(t, http.StatusUnsupportedMediaType, rec.Code)
	assert.Equal(t, "unsupported_media_type", decodeBody(t, rec)["error"])

	req = httptest.NewRequest(http.MethodPost, "/api/cart/items", strings.NewReader(`{"quantity":3}`))
	req.Header.Set("Content-Type", "application/json; charset=utf-8")
	rec = httptest.NewRecorder()
	assert.True(t, DecodeJSON(rec, req, &dst))
	assert.Equal(t, 3, dst.Quantity)
}
