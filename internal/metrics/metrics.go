// Package metrics объявляет Prometheus-метрики движка доступа.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// GuardDecisions считает решения Access Guard по результату и причине.
	GuardDecisions = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "entitlements",
		Name:      "guard_decisions_total",
		Help:      "Access guard decisions by result and reason.",
	}, []string{"result", "reason"})

	// ContentItems считает материалы до и после фильтрации.
	ContentItems = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "entitlements",
		Name:      "content_items_total",
		Help:      "Content items seen by the filter, by stage (total|visible).",
	}, []string{"stage"})

	// PurchaseTransitions считает переходы заявок на покупку.
	PurchaseTransitions = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "entitlements",
		Name:      "purchase_transitions_total",
		Help:      "Purchase state transitions by target status and outcome.",
	}, []string{"status", "outcome"})

	// AccessChecks считает проверки доступа к файлам.
	AccessChecks = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "entitlements",
		Name:      "access_checks_total",
		Help:      "File access checks by mode (single|batch|fallback) and outcome.",
	}, []string{"mode", "outcome"})

	// SweepRuns считает запуски очистки истёкших подписок.
	SweepRuns = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "entitlements",
		Name:      "sweep_runs_total",
		Help:      "Expiry sweep runs by result (ok|skipped|error|partial).",
	}, []string{"result"})

	// SweepDemoted считает профили, пониженные очисткой.
	SweepDemoted = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "entitlements",
		Name:      "sweep_demoted_profiles_total",
		Help:      "Profiles demoted to free tier by the expiry sweep.",
	})
)
