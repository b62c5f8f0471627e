package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
)

func TestCartMetricsRecord(t *testing.T) {
	t.Parallel()

	reg := prometheus.NewRegistry()
	m := NewCartMetrics(reg)

	m.IncWrite("add_item")
	m.IncWrite("add_item")
	m.IncWrite("")
	m.IncDecodeFailure()
	m.IncCheckoutSession("success")
	m.ObserveCheckoutDuration(250 * time.Millisecond)

	families, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather failed: %v", err)
	}

	byName := map[string]*dto.MetricFamily{}
	for _, fam := range families {
		byName[fam.GetName()] = fam
	}

	writes := byName["cart_writes_total"]
	if writes == nil {
		t.Fatal("cart_writes_total not registered")
	}
	if got := counterFor(writes, "op", "add_item"); got != 2 {
		t.Fatalf("expected 2 add_item writes, got %v", got)
	}
	if got := counterFor(writes, "op", "unknown"); got != 1 {
		t.Fatalf("expected empty op to normalize to unknown, got %v", got)
	}

	if fam := byName["cart_decode_failures_total"]; fam == nil || fam.GetMetric()[0].GetCounter().GetValue() != 1 {
		t.Fatal("decode failure counter not recorded")
	}
	if fam := byName["checkout_session_duration_seconds"]; fam == nil || fam.GetMetric()[0].GetHistogram().GetSampleCount() != 1 {
		t.Fatal("checkout duration not observed")
	}
}

func TestNilRegistererIsNoop(t *testing.T) {
	t.Parallel()

	m := NewCartMetrics(nil)
	m.IncWrite("add_item")
	m.IncDecodeFailure()
	m.IncCheckoutSession("failure")
	m.ObserveCheckoutDuration(time.Second)
}

func counterFor(fam *dto.MetricFamily, labelName, labelValue string) float64 {
	for _, metric := range fam.GetMetric() {
		for _, label := range metric.GetLabel() {
			if label.GetName() == labelName && label.GetValue() == labelValue {
				return metric.GetCounter().GetValue()
			}
		}
	}
	return -1
}
