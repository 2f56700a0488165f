package infra

import (
	"net/http"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/eliteGoblin/focusd/blissctl/internal/domain"
)

var (
	metricEngineInvocations = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "blissctl",
		Name:      "engine_invocations_total",
		Help:      "Engine subprocess invocations by command and exit code.",
	}, []string{"command", "exit_code"})
	metricChallengeAttempts = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "blissctl",
		Name:      "challenge_attempts_total",
		Help:      "Challenge gate submits by result.",
	}, []string{"result"})
)

func recordEngineInvocation(args []string, exitCode int32) {
	command := "none"
	if len(args) > 0 {
		command = args[0]
		if command == "config" && len(args) > 1 {
			command += "_" + args[1]
		}
	}
	metricEngineInvocations.WithLabelValues(command, strconv.Itoa(int(exitCode))).Inc()
}

func recordChallengeAttempt(passed, succeeded bool) {
	result := "rejected"
	switch {
	case passed && succeeded:
		result = "override"
	case passed:
		result = "engine_failed"
	}
	metricChallengeAttempts.WithLabelValues(result).Inc()
}

// MetricsHandler exposes the default registry.
func MetricsHandler() http.Handler {
	return promhttp.Handler()
}

// MeteredAuditLog counts every challenge submit, then hands it to an
// optional backing log. The count does not depend on the backing log
// being open or accepting the record.
type MeteredAuditLog struct {
	next domain.AuditLog
}

// NewMeteredAuditLog wraps next, which may be nil.
func NewMeteredAuditLog(next domain.AuditLog) *MeteredAuditLog {
	return &MeteredAuditLog{next: next}
}

// Record counts the attempt and forwards it.
func (m *MeteredAuditLog) Record(a domain.OverrideAttempt) error {
	recordChallengeAttempt(a.Passed, a.Succeeded)
	if m.next == nil {
		return nil
	}
	return m.next.Record(a)
}

// Recent reads from the backing log; without one there is no history.
func (m *MeteredAuditLog) Recent(limit int) ([]domain.OverrideAttempt, error) {
	if m.next == nil {
		return nil, nil
	}
	return m.next.Recent(limit)
}

// Close closes the backing log.
func (m *MeteredAuditLog) Close() error {
	if m.next == nil {
		return nil
	}
	return m.next.Close()
}

// Ensure MeteredAuditLog implements domain.AuditLog.
var _ domain.AuditLog = (*MeteredAuditLog)(nil)
