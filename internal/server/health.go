package server

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
)

type DBPinger interface {
	Ping(ctx context.Context) error
}

// BrokerChecker reports whether the event broker connection is usable.
type BrokerChecker interface {
	Ping() error
}

// HealthChecker probes the database and the event broker. A nil broker is
// reported as disabled without degrading the overall status.
type HealthChecker struct {
	db     DBPinger
	broker BrokerChecker
	log    *slog.Logger
}

func NewHealthChecker(db DBPinger, broker BrokerChecker, log *slog.Logger) *HealthChecker {
	return &HealthChecker{db: db, broker: broker, log: log}
}

func (h *HealthChecker) ServeHTTP(writer http.ResponseWriter, req *http.Request) {
	h.log.DebugContext(req.Context(), "Performing health checks...")

	status := make(map[string]string)
	overallStatus := http.StatusOK

	if err := h.db.Ping(req.Context()); err != nil {
		status["database"] = "unavailable"
		overallStatus = http.StatusServiceUnavailable
		h.log.WarnContext(req.Context(), "Health check failed: DB ping", "error", err)
	} else {
		status["database"] = "ok"
	}

	switch {
	case h.broker == nil:
		status["broker"] = "disabled"
	case h.broker.Ping() != nil:
		status["broker"] = "unavailable"
		overallStatus = http.StatusServiceUnavailable
		h.log.WarnContext(req.Context(), "Health check failed: broker unreachable")
	default:
		status["broker"] = "ok"
	}

	writer.Header().Set("Content-Type", "application/json")
	writer.WriteHeader(overallStatus)
	if err := json.NewEncoder(writer).Encode(status); err != nil {
		h.log.ErrorContext(req.Context(), "Failed to write health check response", "error", err)
	}

	h.log.DebugContext(req.Context(), "Health checks completed", "status", overallStatus)
}
