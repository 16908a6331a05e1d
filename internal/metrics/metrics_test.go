package metrics

import (
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestMustRegister(t *testing.T) {
	reg := prometheus.NewRegistry()
	MustRegister(reg)

	families, err := reg.Gather()
	if err != nil {
		t.Fatalf("Gather() error = %v", err)
	}
	// Vec collectors without observed labels are not reported yet, the plain ones are.
	if len(families) == 0 {
		t.Error("Expected at least one metric family after registration")
	}
}

func TestObserveNetworkRequest(t *testing.T) {
	ObserveNetworkRequest("metrics-test", time.Now(), nil)
	ObserveNetworkRequest("metrics-test", time.Now(), errors.New("boom"))
	ObserveNetworkRequest("", time.Now(), nil)

	if got := testutil.CollectAndCount(NetworkRequestDuration); got < 3 {
		t.Errorf("Expected at least 3 label combinations, got %d", got)
	}
}
