package metrics

import (
	"context"
	"crypto/x509"
	"crypto/x509/pkix"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"go.uber.org/zap"

	"github.com/certwatch-app/cw-certcheck/internal/scanner"
)

var now = time.Date(2025, time.March, 10, 12, 0, 0, 0, time.UTC)

type stubDialer struct{}

func (stubDialer) DialTLS(_ context.Context, hostname string, _ int, _ time.Duration) (*x509.Certificate, error) {
	if hostname == "down.example.com" {
		return nil, errors.New("connection refused")
	}
	return &x509.Certificate{
		Subject:   pkix.Name{CommonName: hostname},
		NotBefore: now.Add(-time.Hour),
		NotAfter:  now.Add(12*24*time.Hour + time.Hour),
	}, nil
}

func scan(t *testing.T, hosts ...string) []scanner.Result {
	t.Helper()
	s := scanner.New(scanner.Options{Dialer: stubDialer{}, Now: func() time.Time { return now }}, zap.NewNop())

	targets := make([]scanner.Target, 0, len(hosts))
	for _, h := range hosts {
		targets = append(targets, scanner.Target{Hostname: h, Port: 443})
	}
	return s.ScanAll(context.Background(), targets)
}

func TestObserveScan(t *testing.T) {
	m := New()
	m.ObserveScan(scan(t, "up.example.com", "down.example.com"), 2*time.Second, now)

	if got := testutil.ToFloat64(m.DaysUntilExpiry.WithLabelValues("up.example.com", "443")); got != 12 {
		t.Errorf("days_until_expiry = %v, want 12", got)
	}
	if got := testutil.CollectAndCount(m.DaysUntilExpiry); got != 1 {
		t.Errorf("days_until_expiry series = %d, want 1 (failures have no expiry)", got)
	}
	if got := testutil.ToFloat64(m.CheckResult.WithLabelValues("down.example.com", "443", "NETWORK_ERROR", "Unreachable")); got != 1 {
		t.Errorf("check_result{down} = %v, want 1", got)
	}
	if got := testutil.ToFloat64(m.CheckAttempts.WithLabelValues("down.example.com", "443")); got != 2 {
		t.Errorf("check_attempts{down} = %v, want 2", got)
	}
	if got := testutil.ToFloat64(m.ChecksTotal.WithLabelValues("SSL_CERT_OK")); got != 1 {
		t.Errorf("checks_total{SSL_CERT_OK} = %v, want 1", got)
	}
	if got := testutil.ToFloat64(m.LastScanTimestamp); got != float64(now.Unix()) {
		t.Errorf("last_scan_timestamp = %v, want %v", got, now.Unix())
	}
}

func TestObserveScan_DropsStaleTargets(t *testing.T) {
	m := New()
	m.ObserveScan(scan(t, "a.example.com", "b.example.com"), time.Second, now)
	m.ObserveScan(scan(t, "a.example.com"), time.Second, now)

	if got := testutil.CollectAndCount(m.CheckResult); got != 1 {
		t.Errorf("check_result series = %d, want 1", got)
	}
	// counters accumulate across scans
	if got := testutil.ToFloat64(m.ChecksTotal.WithLabelValues("SSL_CERT_OK")); got != 3 {
		t.Errorf("checks_total{SSL_CERT_OK} = %v, want 3", got)
	}
}

func TestObservePublish(t *testing.T) {
	m := New()
	m.ObservePublish(nil, time.Second)
	m.ObservePublish(errors.New("boom"), time.Second)
	m.ObservePublish(errors.New("boom"), time.Second)

	if got := testutil.ToFloat64(m.PublishTotal.WithLabelValues("success")); got != 1 {
		t.Errorf("publish_total{success} = %v, want 1", got)
	}
	if got := testutil.ToFloat64(m.PublishTotal.WithLabelValues("error")); got != 2 {
		t.Errorf("publish_total{error} = %v, want 2", got)
	}
}

func TestHandler(t *testing.T) {
	m := New()
	m.SetAgentInfo("1.2.3", "edge")
	m.ObserveScan(scan(t, "up.example.com"), time.Second, now)

	srv := httptest.NewServer(m.Handler())
	defer srv.Close()

	resp, err := http.Get(srv.URL)
	if err != nil {
		t.Fatalf("GET /metrics error = %v", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("Failed to read body: %v", err)
	}

	for _, want := range []string{
		`certcheck_agent_info{agent_name="edge",version="1.2.3"} 1`,
		`certcheck_certificate_days_until_expiry{hostname="up.example.com",port="443"} 12`,
		"certcheck_scan_duration_seconds_count 1",
	} {
		if !strings.Contains(string(body), want) {
			t.Errorf("metrics output missing %q", want)
		}
	}
}
