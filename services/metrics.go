package services

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	plannerRuleTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "payroll_planner_rule_total",
		Help: "Payroll questions answered, by planner rule",
	}, []string{"rule"})

	extractionTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "payroll_extraction_total",
		Help: "Parameter extractions, by source (llm, cache, fallback)",
	}, []string{"source"})

	chatTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "payroll_chat_turns_total",
		Help: "Chat turns, by path and outcome",
	}, []string{"path", "outcome"})

	llmLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "payroll_llm_request_duration_seconds",
		Help:    "Language model request latency in seconds",
		Buckets: []float64{0.1, 0.5, 1, 2, 5, 10, 30},
	}, []string{"purpose"})

	reloadTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "payroll_store_reload_total",
		Help: "Record store reloads, by status",
	}, []string{"status"})

	recordsLoaded = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "payroll_store_records",
		Help: "Records in the current payroll set",
	})
)
