// Hivestore - Durable Record Store for Hierarchical Agent Orchestration
// Copyright 2026 Kestrane
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/kestrane/hivestore

package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	dto "github.com/prometheus/client_model/go"
)

func TestCountersIncrement(t *testing.T) {
	before := testutil.ToFloat64(WritesTotal)
	WritesTotal.Inc()
	if got := testutil.ToFloat64(WritesTotal); got != before+1 {
		t.Errorf("WritesTotal = %v, want %v", got, before+1)
	}
}

func TestCorruptionVectorLabels(t *testing.T) {
	CorruptionsDetected.WithLabelValues("parse_error").Inc()
	if got := testutil.ToFloat64(CorruptionsDetected.WithLabelValues("parse_error")); got < 1 {
		t.Errorf("parse_error counter = %v, want >= 1", got)
	}
}

func TestMetricsRegisteredWithDefaultGatherer(t *testing.T) {
	DiskAvailableBytes.Set(42)

	families, err := prometheus.DefaultGatherer.Gather()
	if err != nil {
		t.Fatalf("Gather: %v", err)
	}

	var found *dto.MetricFamily
	for _, mf := range families {
		if mf.GetName() == "hivestore_disk_available_bytes" {
			found = mf
			break
		}
	}
	if found == nil {
		t.Fatal("hivestore_disk_available_bytes not registered with the default gatherer")
	}
	if found.GetType() != dto.MetricType_GAUGE {
		t.Errorf("type = %v, want gauge", found.GetType())
	}
	if v := found.GetMetric()[0].GetGauge().GetValue(); v != 42 {
		t.Errorf("gauge value = %v, want 42", v)
	}
}
