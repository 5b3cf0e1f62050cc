package metrics

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/mohammed-shakir/geometry-operators/internal/core/observability"
)

func assertHasMetricLine(t *testing.T, body, metric string, wantLabels ...string) {
	t.Helper()
	for ln := range strings.SplitSeq(body, "\n") {
		if !strings.HasPrefix(ln, metric+"{") {
			continue
		}
		ok := true
		for _, s := range wantLabels {
			if !strings.Contains(ln, s) {
				ok = false
				break
			}
		}
		if ok && (len(ln) > 0 && ln[len(ln)-1] >= '0' && ln[len(ln)-1] <= '9') {
			return
		}
	}
	t.Fatalf("expected a %s line with labels %v; got:\n%s", metric, wantLabels, body)
}

func Test_AppMetrics_CustomRegistry_Smoke(t *testing.T) {
	p := Init(Config{Build: BuildInfo{Version: "test"}})
	observability.Init(p.Registerer(), true)

	observability.ObserveOperation("ConvexHull", "cursor", "ok", 0.004)
	observability.ObserveOperation("Relate", "scalar", "invalid_argument", 0.001)
	observability.IncStreamMessage("grpc")
	observability.IncSRMismatch()
	observability.IncSpatialRefCache("hit")
	observability.ObserveRegistryOp("lookup", nil, 0.002)
	observability.ObserveRegistryOp("put", errors.New("timeout"), 0.002)

	srv := p.Server()
	rr := httptest.NewRecorder()
	srv.Handler.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if rr.Code != http.StatusOK {
		t.Fatalf("status=%d", rr.Code)
	}
	body := rr.Body.String()
	mustContain := []string{
		`operation_duration_seconds_bucket`,
		`registry_op_duration_seconds_count`,
		`stream_messages_total{transport="grpc"} `,
		`sr_mismatch_total `,
		`spatial_ref_cache_total{outcome="hit"} `,
	}
	for _, s := range mustContain {
		if !strings.Contains(body, s) {
			t.Fatalf("expected metrics to contain %q;\n---\n%s", s, body)
		}
	}

	assertHasMetricLine(t, body, "operations_total",
		`operator="ConvexHull"`, `shape="cursor"`, `outcome="ok"`)
	assertHasMetricLine(t, body, "operations_total",
		`operator="Relate"`, `outcome="invalid_argument"`)
	assertHasMetricLine(t, body, "registry_ops_total",
		`op="put"`, `result="error"`)
	assertHasMetricLine(t, body, "geometry_operators_build_info",
		`version="test"`)
}
