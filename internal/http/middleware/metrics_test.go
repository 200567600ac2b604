package middleware

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestMetrics_CountersAndUnmatchedRoute(t *testing.T) {
	gin.SetMode(gin.TestMode)

	r := gin.New()
	r.Use(Metrics())
	r.GET("/donations/:id", func(c *gin.Context) { c.String(http.StatusOK, "hello") })
	r.POST("/donations", func(c *gin.Context) { c.Status(http.StatusCreated) })

	baseOK := testutil.ToFloat64(httpReqs.WithLabelValues("GET", "/donations/:id", "200"))
	base404 := testutil.ToFloat64(httpReqs.WithLabelValues("GET", unmatchedRoute, "404"))
	baseCreated := testutil.ToFloat64(httpReqs.WithLabelValues("POST", "/donations", "201"))

	for _, p := range []string{"/donations/a", "/donations/b"} {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, p, nil))
		if w.Code != http.StatusOK {
			t.Fatalf("GET %s -> %d", p, w.Code)
		}
	}

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/wp-login.php", nil))
	if w.Code != http.StatusNotFound {
		t.Fatalf("GET unmatched -> %d", w.Code)
	}

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/donations", bytes.NewBufferString(`{"amount":1}`)))
	if w.Code != http.StatusCreated {
		t.Fatalf("POST /donations -> %d", w.Code)
	}

	// Both ids collapse onto the route template.
	if got := testutil.ToFloat64(httpReqs.WithLabelValues("GET", "/donations/:id", "200")); got != baseOK+2 {
		t.Fatalf("route counter = %v; want %v", got, baseOK+2)
	}
	if got := testutil.ToFloat64(httpReqs.WithLabelValues("GET", unmatchedRoute, "404")); got != base404+1 {
		t.Fatalf("unmatched counter = %v; want %v", got, base404+1)
	}
	if got := testutil.ToFloat64(httpReqs.WithLabelValues("POST", "/donations", "201")); got != baseCreated+1 {
		t.Fatalf("create counter = %v; want %v", got, baseCreated+1)
	}
	if testutil.CollectAndCount(httpReqSize) == 0 {
		t.Fatalf("expected a request size observation")
	}
	if inFlight := testutil.ToFloat64(httpInflight); inFlight != 0 {
		t.Fatalf("httpInflight = %v; want 0", inFlight)
	}
}

func TestAdminAuth_CountsFailures(t *testing.T) {
	r := newAuthRouter("s3cret")
	base := testutil.ToFloat64(authFailures)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/admin", nil))
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", w.Code)
	}
	if got := testutil.ToFloat64(authFailures); got != base+1 {
		t.Fatalf("auth failures = %v; want %v", got, base+1)
	}
}
