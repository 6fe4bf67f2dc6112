package middleware

import (
	"net/http"
	"strings"
	"time"

	"github.com/tberg/doorbell/internal/models"
	pkghttp "github.com/tberg/doorbell/pkg/http"
)

// VisitSink receives page-view records. Implementations swallow their own
// failures; recording is telemetry and must never delay or fail a response.
type VisitSink interface {
	Record(rec models.VisitRecord)
}

// VisitRecorder passively captures a snapshot of every page view. Recording
// happens on a detached goroutine so the request path never waits on file or
// store I/O.
func VisitRecorder(sink VisitSink, ipConfig *pkghttp.IPConfig) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if isPageView(r) {
				rec := models.VisitRecord{
					Timestamp:      time.Now().UnixMilli(),
					IP:             pkghttp.ExtractClientIP(r, ipConfig),
					Path:           r.URL.Path,
					Method:         r.Method,
					UserAgent:      r.UserAgent(),
					AcceptLanguage: r.Header.Get("Accept-Language"),
					Referrer:       r.Referer(),
				}
				go sink.Record(rec)
			}

			next.ServeHTTP(w, r)
		})
	}
}

// isPageView matches requests for HTML pages: GETs that either target the
// root path or declare HTML in their Accept header.
func isPageView(r *http.Request) bool {
	if r.Method != http.MethodGet {
		return false
	}
	if r.URL.Path == "/" {
		return true
	}
	return strings.Contains(r.Header.Get("Accept"), "text/html")
}
