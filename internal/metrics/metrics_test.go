package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/zulandar/spindle/internal/models"
)

func TestLifecycleCounters(t *testing.T) {
	m := New()
	m.JobCreated("CNC1", models.StageNext)
	m.JobCreated("CNC1", models.StageNext)
	m.JobCreated("CNC2", models.StageCurrent)
	m.JobFinished("CNC1", 100)
	m.JobPromoted("CNC1")
	m.ArchiveCleared(5)

	if got := testutil.ToFloat64(m.jobsCreated.WithLabelValues("CNC1", "next")); got != 2 {
		t.Errorf("jobs_created{CNC1,next} = %v, want 2", got)
	}
	if got := testutil.ToFloat64(m.jobsFinished.WithLabelValues("CNC1")); got != 1 {
		t.Errorf("jobs_finished{CNC1} = %v, want 1", got)
	}
	if got := testutil.ToFloat64(m.jobsPromoted.WithLabelValues("CNC1")); got != 1 {
		t.Errorf("jobs_promoted{CNC1} = %v, want 1", got)
	}
	if got := testutil.ToFloat64(m.archiveCleared); got != 5 {
		t.Errorf("archive_cleared = %v, want 5", got)
	}
}

func TestHandler_ExposesCollectors(t *testing.T) {
	m := New()
	m.ObserveRequest(http.MethodGet, "/api/dashboard", http.StatusOK, 3*time.Millisecond)
	m.JobFinished("CNC3", 50)

	srv := httptest.NewServer(m.Handler())
	defer srv.Close()

	resp, err := http.Get(srv.URL)
	if err != nil {
		t.Fatalf("GET: %v", err)
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)

	for _, want := range []string{
		`spindle_http_requests_total{method="GET",route="/api/dashboard",status="200"} 1`,
		`spindle_job_achievement_percent_count{machine="CNC3"} 1`,
		"go_goroutines",
	} {
		if !strings.Contains(string(body), want) {
			t.Errorf("metrics output missing %q", want)
		}
	}
}
