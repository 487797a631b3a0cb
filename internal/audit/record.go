// Package audit emits one structured record per handled request.
package audit

import "time"

// Record describes one handled request. Write-once: it is built after the
// inner chain finishes, emitted, and discarded.
type Record struct {
	ID         string    `json:"id"`
	Timestamp  time.Time `json:"timestamp"`
	RequestID  string    `json:"requestId,omitempty"`
	Method     string    `json:"method"`
	Path       string    `json:"path"`
	Action     string    `json:"action,omitempty"`
	Resource   string    `json:"resource,omitempty"`
	Status     int       `json:"statusCode"`
	DurationMs int64     `json:"durationMs"`
	ClientIP   string    `json:"clientIp"`
	UserAgent  string    `json:"userAgent"`
	Error      string    `json:"error,omitempty"`
}
