// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package daemon

import (
	"context"
	"errors"
	"io"
	"net"
	"net/http"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"go.uber.org/goleak"

	"github.com/httpme/httpme/internal/config"
	"github.com/httpme/httpme/internal/log"
)

func reserveListenAddr(t *testing.T) string {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("failed to reserve listen addr: %v", err)
	}
	addr := ln.Addr().String()
	_ = ln.Close()
	return addr
}

func waitForListen(addr string, timeout time.Duration) error {
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		conn, err := net.DialTimeout("tcp", addr, 50*time.Millisecond)
		if err == nil {
			_ = conn.Close()
			return nil
		}
		time.Sleep(10 * time.Millisecond)
	}
	return errors.New("listen timeout")
}

func testServerConfig(addr string) config.ServerConfig {
	return config.ServerConfig{
		ListenAddr:      addr,
		ReadTimeout:     time.Second,
		WriteTimeout:    time.Second,
		IdleTimeout:     10 * time.Second,
		MaxHeaderBytes:  1 << 20,
		ShutdownTimeout: 2 * time.Second,
	}
}

func TestNewManager_MissingLogger(t *testing.T) {
	deps := Deps{
		Logger:     zerolog.Nop(), // Disabled logger
		APIHandler: http.NotFoundHandler(),
	}

	_, err := NewManager(testServerConfig("127.0.0.1:0"), deps)
	if !errors.Is(err, ErrMissingLogger) {
		t.Fatalf("NewManager() error = %v, want %v", err, ErrMissingLogger)
	}
}

func TestNewManager_MissingAPIHandler(t *testing.T) {
	deps := Deps{Logger: log.WithComponent("test")}

	_, err := NewManager(testServerConfig("127.0.0.1:0"), deps)
	if !errors.Is(err, ErrMissingAPIHandler) {
		t.Fatalf("NewManager() error = %v, want %v", err, ErrMissingAPIHandler)
	}
}

func TestManager_ServesAndStops(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	apiAddr := reserveListenAddr(t)
	metricsAddr := reserveListenAddr(t)
	deps := Deps{
		Logger: log.WithComponent("test"),
		APIHandler: http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			_, _ = w.Write([]byte("api"))
		}),
		MetricsHandler: http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			_, _ = w.Write([]byte("metrics"))
		}),
		MetricsAddr: metricsAddr,
	}
	mgr, err := NewManager(testServerConfig(apiAddr), deps)
	if err != nil {
		t.Fatalf("NewManager() error = %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	errChan := make(chan error, 1)
	go func() { errChan <- mgr.Start(ctx) }()

	for addr, want := range map[string]string{apiAddr: "api", metricsAddr: "metrics"} {
		if err := waitForListen(addr, 2*time.Second); err != nil {
			t.Fatalf("%s did not start listening: %v", addr, err)
		}
		if got := get(t, "http://"+addr+"/"); got != want {
			t.Errorf("GET %s = %q, want %q", addr, got, want)
		}
	}

	cancel()
	select {
	case err := <-errChan:
		if err != nil {
			t.Errorf("Start() error = %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Start() did not return after context cancellation")
	}
}

func get(t *testing.T, url string) string {
	t.Helper()
	client := &http.Client{Transport: &http.Transport{DisableKeepAlives: true}}
	resp, err := client.Get(url)
	if err != nil {
		t.Fatalf("GET %s: %v", url, err)
	}
	defer func() { _ = resp.Body.Close() }()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read %s: %v", url, err)
	}
	return string(body)
}

func TestManager_ShutdownHooksRunLIFO(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	deps := Deps{Logger: log.WithComponent("test"), APIHandler: http.NotFoundHandler()}
	mgr, err := NewManager(testServerConfig(reserveListenAddr(t)), deps)
	if err != nil {
		t.Fatalf("NewManager() error = %v", err)
	}

	var mu sync.Mutex
	var order []string
	record := func(name string, err error) ShutdownHook {
		return func(context.Context) error {
			mu.Lock()
			defer mu.Unlock()
			order = append(order, name)
			return err
		}
	}
	boom := errors.New("boom")
	mgr.RegisterShutdownHook("telemetry", record("telemetry", nil))
	mgr.RegisterShutdownHook("asset_store", record("asset_store", boom))

	ctx, cancel := context.WithCancel(context.Background())
	errChan := make(chan error, 1)
	go func() { errChan <- mgr.Start(ctx) }()
	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-errChan:
		if !errors.Is(err, boom) {
			t.Fatalf("Start() error = %v, want hook error", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Start() did not return")
	}

	mu.Lock()
	defer mu.Unlock()
	if strings.Join(order, ",") != "asset_store,telemetry" {
		t.Errorf("hook order = %v, want LIFO", order)
	}

	// A second shutdown is a no-op.
	if err := mgr.Shutdown(context.Background()); err != nil {
		t.Errorf("second Shutdown() error = %v", err)
	}
}

func TestManager_Shutdown_NotStarted(t *testing.T) {
	deps := Deps{Logger: log.WithComponent("test"), APIHandler: http.NotFoundHandler()}
	mgr, err := NewManager(testServerConfig("127.0.0.1:0"), deps)
	if err != nil {
		t.Fatalf("NewManager() error = %v", err)
	}
	if err := mgr.Shutdown(context.Background()); !errors.Is(err, ErrManagerNotStarted) {
		t.Fatalf("Shutdown() error = %v, want %v", err, ErrManagerNotStarted)
	}
}

func TestManager_ListenFailure(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	defer func() { _ = ln.Close() }()

	deps := Deps{Logger: log.WithComponent("test"), APIHandler: http.NotFoundHandler()}
	mgr, err := NewManager(testServerConfig(ln.Addr().String()), deps)
	if err != nil {
		t.Fatalf("NewManager() error = %v", err)
	}

	errChan := make(chan error, 1)
	go func() { errChan <- mgr.Start(context.Background()) }()
	select {
	case err := <-errChan:
		if err == nil || !strings.Contains(err.Error(), "API server") {
			t.Fatalf("Start() error = %v, want API server failure", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Start() did not fail on an occupied address")
	}
}
