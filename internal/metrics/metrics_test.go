package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
)

func counterValue(t *testing.T, name, label, value string) float64 {
	t.Helper()
	families, err := prometheus.DefaultGatherer.Gather()
	if err != nil {
		t.Fatalf("gather: %v", err)
	}
	for _, family := range families {
		if family.GetName() != name {
			continue
		}
		for _, metric := range family.GetMetric() {
			for _, pair := range metric.GetLabel() {
				if pair.GetName() == label && pair.GetValue() == value {
					return metric.GetCounter().GetValue()
				}
			}
		}
	}
	return 0
}

func TestObserveUpload(t *testing.T) {
	before := counterValue(t, "pdp_uploads_total", "result", "accepted")
	ObserveUpload("accepted", 1024)
	ObserveUpload("rate_limited", 0)
	if got := counterValue(t, "pdp_uploads_total", "result", "accepted"); got != before+1 {
		t.Fatalf("expected accepted counter to grow by one, got %v", got-before)
	}
	if got := counterValue(t, "pdp_uploads_total", "result", "rate_limited"); got < 1 {
		t.Fatalf("expected rate_limited to be counted")
	}
}

func TestObserveOutcomes(t *testing.T) {
	before := counterValue(t, "pdp_classifications_total", "outcome", "matched")
	ObserveOutcomes("matched", "unmatched", "matched")
	if got := counterValue(t, "pdp_classifications_total", "outcome", "matched"); got != before+2 {
		t.Fatalf("expected two matched, got %v", got-before)
	}
}
