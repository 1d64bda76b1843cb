package handlers

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"tasklog-service/models"

	"github.com/stretchr/testify/assert"
)

func TestWriteServiceErrorStatusMapping(t *testing.T) {
	cases := []struct {
		name   string
		err    error
		status int
	}{
		{"unauthorized", models.ErrUnauthorized, http.StatusUnauthorized},
		{"not found", models.ErrNotFound, http.StatusNotFound},
		{"forbidden", models.ErrForbidden, http.StatusForbidden},
		{"wrapped forbidden", errors.Join(errors.New("ctx"), models.ErrForbidden), http.StatusForbidden},
		{"validation", errors.New("assignedToUserId and assignedToEmail are mutually exclusive"), http.StatusBadRequest},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			writeServiceError(rec, tc.err)
			assert.Equal(t, tc.status, rec.Code)
		})
	}
}

func TestCallerIDWithoutClaims(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/api/tasks", nil)

	_, err := callerID(r)

	assert.ErrorIs(t, err, models.ErrUnauthorized)
}
