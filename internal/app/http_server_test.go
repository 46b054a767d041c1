package app

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/order-console/internal/api"
	healthcheck "github.com/vladislavdragonenkov/order-console/internal/health"
	"github.com/vladislavdragonenkov/order-console/internal/metrics"
)

// fakeBackend отвечает на GET /products кодом из status.
func fakeBackend(t *testing.T, status *atomic.Int32) *api.Client {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/products" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(int(status.Load()))
		_, _ = w.Write([]byte("[]"))
	}))
	t.Cleanup(srv.Close)

	client, err := api.NewClient(api.Config{BaseURL: srv.URL, Logger: log.WithField("test", "health-backend")})
	if err != nil {
		t.Fatalf("api client: %v", err)
	}
	return client
}

func getHealth(t *testing.T, baseURL string) (int, healthcheck.Response) {
	t.Helper()
	resp, err := http.Get(baseURL + "/healthz")
	if err != nil {
		t.Fatalf("get /healthz: %v", err)
	}
	defer resp.Body.Close()

	var body healthcheck.Response
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode /healthz: %v", err)
	}
	return resp.StatusCode, body
}

func getText(t *testing.T, url string) (int, string) {
	t.Helper()
	resp, err := http.Get(url)
	if err != nil {
		t.Fatalf("get %s: %v", url, err)
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)
	return resp.StatusCode, string(body)
}

func TestMetricsRoutes_BackendDownIsDegraded(t *testing.T) {
	var backendStatus atomic.Int32
	backendStatus.Store(http.StatusBadGateway)
	client := fakeBackend(t, &backendStatus)

	srv := httptest.NewServer(metricsRoutes(newHealthHandler(client.Ping, nil)))
	defer srv.Close()

	code, health := getHealth(t, srv.URL)
	if code != http.StatusOK {
		t.Errorf("expected 200 while only the backend is down, got %d", code)
	}
	if health.Status != healthcheck.StatusDegraded {
		t.Errorf("expected degraded status, got %s", health.Status)
	}
	backend, ok := health.Checks["backend"]
	if !ok {
		t.Fatal("backend check is missing")
	}
	if backend.Status != healthcheck.StatusDegraded || backend.Message == "" {
		t.Errorf("unexpected backend check %+v", backend)
	}
	if _, ok := health.Checks["storage"]; ok {
		t.Error("storage check should not be registered for the in-memory journal")
	}

	if code, body := getText(t, srv.URL+"/readyz"); code != http.StatusOK || body != "ready" {
		t.Errorf("readyz should stay ready with a degraded backend, got %d %q", code, body)
	}

	backendStatus.Store(http.StatusOK)
	if _, health := getHealth(t, srv.URL); health.Status != healthcheck.StatusHealthy {
		t.Errorf("expected healthy after backend recovery, got %s", health.Status)
	}
}

func TestMetricsRoutes_ReadinessFollowsStorage(t *testing.T) {
	var backendStatus atomic.Int32
	backendStatus.Store(http.StatusOK)
	client := fakeBackend(t, &backendStatus)

	var storageDown atomic.Bool
	storageDown.Store(true)
	storage := healthcheck.NewFuncChecker("storage", func(context.Context) error {
		if storageDown.Load() {
			return errors.New("connection refused")
		}
		return nil
	})

	srv := httptest.NewServer(metricsRoutes(newHealthHandler(client.Ping, storage)))
	defer srv.Close()

	if code, body := getText(t, srv.URL+"/readyz"); code != http.StatusServiceUnavailable || body != "not ready" {
		t.Errorf("expected not ready while storage is down, got %d %q", code, body)
	}
	code, health := getHealth(t, srv.URL)
	if code != http.StatusServiceUnavailable || health.Status != healthcheck.StatusUnhealthy {
		t.Errorf("expected 503 unhealthy, got %d %s", code, health.Status)
	}
	if health.Checks["storage"].Message != "connection refused" {
		t.Errorf("unexpected storage check %+v", health.Checks["storage"])
	}

	storageDown.Store(false)
	if code, _ := getText(t, srv.URL+"/readyz"); code != http.StatusOK {
		t.Errorf("expected ready after storage recovery, got %d", code)
	}
	if code, _ := getText(t, srv.URL+"/livez"); code != http.StatusOK {
		t.Errorf("livez should not depend on checks, got %d", code)
	}
}

func TestMetricsRoutes_ExposesConsoleMetrics(t *testing.T) {
	m := metrics.NewConsoleMetrics()
	m.ObserveAPIRequest("list_orders", 5*time.Millisecond, nil)

	srv := httptest.NewServer(metricsRoutes(newHealthHandler(func(context.Context) error { return nil }, nil)))
	defer srv.Close()

	code, body := getText(t, srv.URL+"/metrics")
	if code != http.StatusOK {
		t.Fatalf("expected 200 for /metrics, got %d", code)
	}
	if !strings.Contains(body, `order_console_api_requests_total{operation="list_orders",outcome="success"}`) {
		t.Error("/metrics should expose console api counters")
	}
}

func TestStartMetricsServer_StopsOnContextCancel(t *testing.T) {
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("reserve port: %v", err)
	}
	addr := listener.Addr().String()
	listener.Close()

	ctx, cancel := context.WithCancel(context.Background())
	handler := newHealthHandler(func(context.Context) error { return nil }, nil)
	srv := startMetricsServer(ctx, addr, log.WithField("test", "metrics-server"), handler)
	if srv == nil {
		t.Fatal("startMetricsServer should return the server")
	}

	url := "http://" + addr + "/livez"
	deadline := time.Now().Add(time.Second)
	for {
		resp, err := http.Get(url)
		if err == nil {
			resp.Body.Close()
			break
		}
		if time.Now().After(deadline) {
			t.Fatalf("metrics server did not start: %v", err)
		}
		time.Sleep(10 * time.Millisecond)
	}

	cancel()
	deadline = time.Now().Add(time.Second)
	for {
		resp, err := http.Get(url)
		if err != nil {
			break
		}
		resp.Body.Close()
		if time.Now().After(deadline) {
			t.Fatal("metrics server should stop after context cancellation")
		}
		time.Sleep(10 * time.Millisecond)
	}
}

func TestShutdownHTTP_NilServer(_ *testing.T) {
	shutdownHTTP(nil, log.WithField("test", "http-nil"))
}
