package services

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var leadSubmissionsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "leads_submissions_total",
		Help: "Lead form submissions by kind and result.",
	},
	[]string{"kind", "result"},
)

const (
	resultStored       = "stored"
	resultDuplicate    = "duplicate"
	resultInvalidEmail = "invalid_email"
	resultFailed       = "failed"
)
