package handlers_test

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/tberg/doorbell/internal/handlers"
)

func TestTrackVisit_AlwaysNotFound(t *testing.T) {
	h := handlers.NewVisitHandler()

	req := httptest.NewRequest(http.MethodPost, "/api/track", strings.NewReader(`{"path":"/"}`))
	rec := httptest.NewRecorder()
	h.TrackVisit(rec, req)

	// Disabled on purpose: visits are collected passively, not via the API.
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
