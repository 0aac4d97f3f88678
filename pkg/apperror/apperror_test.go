package apperror

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestToHTTPStatus(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want int
	}{
		{"profile not found", NewProfileNotFound("u404"), http.StatusNotFound},
		{"invalid input", NewInvalidInput("missing id", nil), http.StatusBadRequest},
		{"model unavailable", NewModelUnavailable("timeout", errors.New("deadline")), http.StatusBadGateway},
		{"malformed", NewMalformedResponse("no suggestions", "garbage", nil), http.StatusBadGateway},
		{"persistence", NewPersistenceFailed("partial", 1, 3, nil), http.StatusInternalServerError},
		{"permission", NewPermissionDenied("other profile"), http.StatusForbidden},
		{"plain error", errors.New("boom"), http.StatusInternalServerError},
		{"wrapped", fmt.Errorf("ctx: %w", NewProfileNotFound("x")), http.StatusNotFound},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, ToHTTPStatus(tc.err))
		})
	}
}

func TestToJSON_HidesRawOutput(t *testing.T) {
	e := NewMalformedResponse("missing key suggestions", "ignore previous instructions", errors.New("parse"))
	body := e.ToJSON()

	assert.Equal(t, "malformed_response", body["kind"])
	assert.Equal(t, "missing key suggestions", body["details"])
	for _, v := range body {
		assert.NotContains(t, fmt.Sprint(v), "ignore previous instructions")
	}
}

func TestToJSON_PersistenceCounts(t *testing.T) {
	body := NewPersistenceFailed("2 of 3 skill records written", 2, 3, nil).ToJSON()

	assert.Equal(t, "persistence_failed", body["kind"])
	assert.Equal(t, 2, body["written"])
	assert.Equal(t, 3, body["expected"])
}

func TestFrom_WrapsUnclassified(t *testing.T) {
	e := From(errors.New("boom"))
	assert.ErrorIs(t, e, ErrInternal)

	nf := NewProfileNotFound("u1")
	assert.Same(t, nf, From(fmt.Errorf("wrapped: %w", nf)))
}
