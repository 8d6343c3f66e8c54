// Package metrics собирает счётчики безопасности для Prometheus.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "auth"

type Metrics struct {
	AuthDecisions         *prometheus.CounterVec
	RefreshOutcomes       *prometheus.CounterVec
	ReuseDetected         prometheus.Counter
	BlacklistFailOpen     prometheus.Counter
	BlacklistCacheResults *prometheus.CounterVec
	AuditWriteFailures    prometheus.Counter
	RevokedSessions       *prometheus.CounterVec
	CleanupDeleted        *prometheus.CounterVec
}

// New регистрирует коллекторы в reg. В тестах передаётся prometheus.NewRegistry().
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		AuthDecisions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "middleware_decisions_total",
			Help:      "Решения auth middleware по режиму и исходу.",
		}, []string{"mode", "outcome"}),
		RefreshOutcomes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "refresh_total",
			Help:      "Попытки обмена refresh токена по исходу.",
		}, []string{"outcome"}),
		ReuseDetected: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "refresh_reuse_detected_total",
			Help:      "Повторные погашения refresh токена.",
		}),
		BlacklistFailOpen: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "blacklist_fail_open_total",
			Help:      "Проверки blacklist, пропущенные из-за ошибки хранилища.",
		}),
		BlacklistCacheResults: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "blacklist_cache_total",
			Help:      "Обращения к Redis кэшу blacklist.",
		}, []string{"result"}),
		AuditWriteFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "audit_write_failures_total",
			Help:      "Записи журнала аудита, которые не удалось сохранить.",
		}),
		RevokedSessions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "revoked_sessions_total",
			Help:      "Отозванные сессии по причине.",
		}, []string{"reason"}),
		CleanupDeleted: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cleanup_deleted_total",
			Help:      "Строки, удалённые фоновой очисткой.",
		}, []string{"table"}),
	}

	if reg != nil {
		reg.MustRegister(
			m.AuthDecisions,
			m.RefreshOutcomes,
			m.ReuseDetected,
			m.BlacklistFailOpen,
			m.BlacklistCacheResults,
			m.AuditWriteFailures,
			m.RevokedSessions,
			m.CleanupDeleted,
		)
	}

	return m
}

// NewNop : метрики без регистрации, для тестов и утилит
func NewNop() *Metrics {
	return New(nil)
}
