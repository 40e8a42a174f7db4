package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"

	"site-uptime/internal/audit"
	"site-uptime/internal/auth"
	"site-uptime/internal/observability/metrics"
	reportapp "site-uptime/internal/reporting/application"
	reporting "site-uptime/internal/reporting/domain"
)

// Reports is the job manager surface served over HTTP.
type Reports interface {
	Trigger(ctx context.Context) (*reportapp.Task, error)
	Status(ctx context.Context, id string) (reporting.Job, error)
}

// Handler serves report trigger and retrieval endpoints.
type Handler struct {
	reports Reports
	logger  logrus.FieldLogger
	audit   audit.Logger
}

// HandlerOption configures a Handler.
type HandlerOption func(*Handler)

// WithAuditLogger records triggers and downloads.
func WithAuditLogger(logger audit.Logger) HandlerOption {
	return func(h *Handler) {
		h.audit = logger
	}
}

// NewHandler constructs a handler.
func NewHandler(reports Reports, logger logrus.FieldLogger, opts ...HandlerOption) (*Handler, error) {
	if reports == nil {
		return nil, errors.New("report handler: nil reports")
	}
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	h := &Handler{reports: reports, logger: logger}
	for _, opt := range opts {
		opt(h)
	}
	return h, nil
}

// Register mounts the report routes on r.
func (h *Handler) Register(r *mux.Router) {
	r.HandleFunc("/api/trigger_report", h.TriggerReport).Methods(http.MethodPost)
	r.HandleFunc("/api/get_report/{report_id}", h.GetReport).Methods(http.MethodGet)
}

type triggerResponse struct {
	ReportID string `json:"report_id"`
}

type statusResponse struct {
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
}

// TriggerReport handles POST /api/trigger_report.
func (h *Handler) TriggerReport(w http.ResponseWriter, r *http.Request) {
	task, err := h.reports.Trigger(r.Context())
	if err != nil {
		h.logger.WithError(err).Error("trigger report failed")
		http.Error(w, "trigger report failed", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, triggerResponse{ReportID: task.ID})
	h.logAudit(r, audit.ActionReportTrigger, task.ID, "")
}

// GetReport handles GET /api/get_report/{report_id}.
func (h *Handler) GetReport(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["report_id"]
	format, err := ParseFormat(r.URL.Query().Get("format"))
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	job, err := h.reports.Status(r.Context(), id)
	if err != nil {
		if errors.Is(err, reporting.ErrJobNotFound) || errors.Is(err, reporting.ErrEmptyJobID) {
			http.Error(w, "report not found", http.StatusNotFound)
			return
		}
		h.logger.WithError(err).WithField("report_id", id).Error("report lookup failed")
		http.Error(w, "report lookup failed", http.StatusInternalServerError)
		return
	}

	switch job.State {
	case reporting.StateRunning:
		writeJSON(w, http.StatusOK, statusResponse{Status: string(job.State)})
	case reporting.StateFailed:
		writeJSON(w, http.StatusOK, statusResponse{Status: string(job.State), Message: job.Message})
	case reporting.StateComplete:
		if h.writeReport(w, format, job) {
			h.logAudit(r, audit.ActionReportDownload, job.ID, format)
		}
	default:
		http.Error(w, "unknown report state", http.StatusInternalServerError)
	}
}

func (h *Handler) writeReport(w http.ResponseWriter, format Format, job reporting.Job) bool {
	start := time.Now()
	payload, err := Encode(format, job)
	if err != nil {
		metrics.ObserveExport(string(format), metrics.ResultError, time.Since(start))
		h.logger.WithError(err).WithFields(logrus.Fields{"report_id": job.ID, "format": format}).Error("report export failed")
		http.Error(w, "report export failed", http.StatusInternalServerError)
		return false
	}
	metrics.ObserveExport(string(format), metrics.ResultSuccess, time.Since(start))

	w.Header().Set("Content-Type", format.ContentType())
	if format != FormatJSON {
		w.Header().Set("Content-Disposition", "attachment; filename=report_"+job.ID+"."+string(format))
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(payload)
	return true
}

func (h *Handler) logAudit(r *http.Request, action, reportID string, format Format) {
	if h.audit == nil {
		return
	}
	entry := audit.FromRequest(r, action, reportID, auth.SubjectFromContext(r.Context()), string(auth.RoleFromContext(r.Context())))
	if format != "" {
		entry.Metadata, _ = json.Marshal(map[string]string{"format": string(format)})
	}
	if err := h.audit.Log(r.Context(), entry); err != nil {
		h.logger.WithError(err).WithField("report_id", reportID).Warn("audit log failed")
	}
}

// Root handles GET /.
func Root(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"message": "Welcome to the Store Monitoring API"})
}

// Healthz handles GET /healthz.
func Healthz(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = w.Write([]byte("ok"))
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
