package http

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"

	"site-uptime/internal/observability/metrics"
)

type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(status int) {
	w.status = status
	w.ResponseWriter.WriteHeader(status)
}

// AccessLog logs every request and records it by route template.
func AccessLog(logger logrus.FieldLogger) mux.MiddlewareFunc {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			resp := &statusWriter{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(resp, r)
			elapsed := time.Since(start)

			metrics.ObserveHTTP(routeTemplate(r), strconv.Itoa(resp.status), elapsed)
			logger.WithFields(logrus.Fields{
				"event":       "http_request",
				"method":      r.Method,
				"path":        r.URL.Path,
				"status":      resp.status,
				"duration_ms": elapsed.Milliseconds(),
			}).Info("http request")
		})
	}
}

func routeTemplate(r *http.Request) string {
	route := mux.CurrentRoute(r)
	if route == nil {
		return ""
	}
	tpl, err := route.GetPathTemplate()
	if err != nil {
		return ""
	}
	return tpl
}
