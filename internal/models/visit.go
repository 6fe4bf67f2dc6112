package models

import "time"

// VisitRecord is one passively captured page view. Records are append-only:
// created by the visit recorder, never mutated, read back by the correlator.
type VisitRecord struct {
	Timestamp      int64  `json:"timestamp"` // epoch millis
	IP             string `json:"ip"`
	Path           string `json:"path"`
	Method         string `json:"method"`
	UserAgent      string `json:"userAgent,omitempty"`
	AcceptLanguage string `json:"acceptLanguage,omitempty"`
	Referrer       string `json:"referrer,omitempty"`
}

// Time returns the record's timestamp as a time.Time.
func (v VisitRecord) Time() time.Time {
	return time.UnixMilli(v.Timestamp)
}
