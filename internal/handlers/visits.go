package handlers

import (
	"net/http"

	pkghttp "github.com/tberg/doorbell/pkg/http"
)

// VisitHandler owns the legacy visit-tracking endpoint.
type VisitHandler struct{}

func NewVisitHandler() *VisitHandler {
	return &VisitHandler{}
}

// TrackVisit handles POST /api/track. The endpoint is deliberately disabled:
// visit data is collected passively by the recording middleware, never via
// client-initiated calls. It answers 404 unconditionally.
func (h *VisitHandler) TrackVisit(w http.ResponseWriter, r *http.Request) {
	pkghttp.WriteNotFound(w, "Not found")
}
