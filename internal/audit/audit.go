// Package audit records who triggered and downloaded reports.
package audit

import (
	"context"
	"encoding/json"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

const (
	ActionReportTrigger  = "report.trigger"
	ActionReportDownload = "report.download"
)

// Entry is one audited API action.
type Entry struct {
	ID        string
	Actor     string
	Role      string
	Action    string
	ReportID  string
	Metadata  json.RawMessage
	IP        string
	UserAgent string
	CreatedAt time.Time
}

// Logger writes audit entries.
type Logger interface {
	Log(ctx context.Context, entry Entry) error
}

// FromRequest fills the caller fields of an entry from r.
func FromRequest(r *http.Request, action, reportID, actor, role string) Entry {
	return Entry{
		ID:        uuid.NewString(),
		Actor:     actor,
		Role:      role,
		Action:    action,
		ReportID:  reportID,
		IP:        ClientIP(r),
		UserAgent: r.UserAgent(),
		CreatedAt: time.Now().UTC(),
	}
}

// ClientIP prefers proxy headers over the socket address.
func ClientIP(r *http.Request) string {
	if r == nil {
		return ""
	}
	if forwarded := r.Header.Get("X-Forwarded-For"); forwarded != "" {
		first, _, _ := strings.Cut(forwarded, ",")
		return strings.TrimSpace(first)
	}
	if realIP := r.Header.Get("X-Real-IP"); realIP != "" {
		return strings.TrimSpace(realIP)
	}
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	return r.RemoteAddr
}

// LogrusLogger writes entries to a structured log instead of a table.
type LogrusLogger struct {
	Logger logrus.FieldLogger
}

// Log implements Logger.
func (l LogrusLogger) Log(_ context.Context, entry Entry) error {
	logger := l.Logger
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	logger.WithFields(logrus.Fields{
		"event":     "audit",
		"action":    entry.Action,
		"report_id": entry.ReportID,
		"actor":     entry.Actor,
		"role":      entry.Role,
		"ip":        entry.IP,
	}).Info("audit")
	return nil
}
