package connection

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/yndnr/littlesteps-go/internal/cli/config"
	"github.com/yndnr/littlesteps-go/internal/session"
	"github.com/yndnr/littlesteps-go/internal/telemetry/logger"
)

func newGateway(t *testing.T) (*httptest.Server, *atomic.Int32) {
	t.Helper()
	var meCalls atomic.Int32
	mux := http.NewServeMux()
	mux.HandleFunc("/auth/me", func(w http.ResponseWriter, r *http.Request) {
		meCalls.Add(1)
		if r.Header.Get("Authorization") != "Bearer a" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		if !strings.HasPrefix(r.Header.Get("User-Agent"), "littlesteps-cli/") {
			t.Errorf("User-Agent = %q", r.Header.Get("User-Agent"))
		}
		_, _ = io.WriteString(w, `{"user_id":"u1","username":"bob","role":"parent"}`)
	})
	mux.HandleFunc("/auth/refresh", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	})
	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)
	return server, &meCalls
}

func managerConfig(t *testing.T, url string) *config.CLIConfig {
	t.Helper()
	cfg := storeConfig(t, config.StoreFile, false)
	cfg.Gateway.URL = url
	return cfg
}

func TestManager_ClientRestoresSession(t *testing.T) {
	server, meCalls := newGateway(t)
	cfg := managerConfig(t, server.URL)

	seed, err := session.NewFileStore(cfg.SessionPath())
	if err != nil {
		t.Fatal(err)
	}
	if err := seed.Save(context.Background(), session.Tokens{AccessToken: "a", RefreshToken: "r"}); err != nil {
		t.Fatal(err)
	}

	m := NewManager(cfg, WithManagerLogger(logger.Nop()))
	defer m.Close(context.Background())

	c, err := m.Client(context.Background())
	if err != nil {
		t.Fatalf("Client() error = %v", err)
	}
	if !c.LoggedIn() {
		t.Fatal("client should be logged in from the persisted session")
	}
	if u := c.User(); u == nil || u.Username != "bob" {
		t.Errorf("User() = %+v, want bob", u)
	}

	again, err := m.Client(context.Background())
	if err != nil {
		t.Fatalf("Client() second call error = %v", err)
	}
	if again != c {
		t.Error("Client() should return the same client")
	}
	if meCalls.Load() != 1 {
		t.Errorf("identity fetched %d times, want 1", meCalls.Load())
	}
}

func TestManager_Endpoints(t *testing.T) {
	cfg := managerConfig(t, "http://localhost:1")
	cfg.Gateway.Endpoints = map[string]string{"child_profile": "/v2/profiles/"}

	m := NewManager(cfg, WithManagerLogger(logger.Nop()))
	defer m.Close(context.Background())

	c, err := m.Client(context.Background())
	if err != nil {
		t.Fatalf("Client() error = %v", err)
	}
	if got := c.Endpoints()["CHILD_PROFILE"]; got != "/v2/profiles" {
		t.Errorf("CHILD_PROFILE = %q, want /v2/profiles", got)
	}

	bad := managerConfig(t, "http://localhost:1")
	bad.Gateway.Endpoints = map[string]string{"billing": "/billing"}
	if _, err := NewManager(bad).Client(context.Background()); err == nil {
		t.Error("Client() should reject an unknown service")
	}
}

func TestManager_Close(t *testing.T) {
	m := NewManager(managerConfig(t, "http://localhost:1"), WithManagerLogger(logger.Nop()))

	if _, err := m.Client(context.Background()); err != nil {
		t.Fatalf("Client() error = %v", err)
	}
	if err := m.Close(context.Background()); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
	if err := m.Close(context.Background()); err != nil {
		t.Errorf("second Close() error = %v", err)
	}
	if _, err := m.Client(context.Background()); err == nil {
		t.Error("Client() after Close should fail")
	}
}

func TestManager_WatchFollowsOtherProcesses(t *testing.T) {
	server, _ := newGateway(t)
	cfg := managerConfig(t, server.URL)

	m := NewManager(cfg, WithManagerLogger(logger.Nop()))
	defer m.Close(context.Background())

	c, err := m.Client(context.Background())
	if err != nil {
		t.Fatalf("Client() error = %v", err)
	}
	if c.LoggedIn() {
		t.Fatal("client should start logged out")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if err := m.Watch(ctx); err != nil {
		t.Fatalf("Watch() error = %v", err)
	}

	// another CLI process logs in
	other, err := session.NewFileStore(cfg.SessionPath())
	if err != nil {
		t.Fatal(err)
	}
	if err := other.Save(context.Background(), session.Tokens{AccessToken: "a", RefreshToken: "r"}); err != nil {
		t.Fatal(err)
	}

	deadline := time.Now().Add(3 * time.Second)
	for time.Now().Before(deadline) {
		if c.LoggedIn() && c.User() != nil {
			return
		}
		time.Sleep(20 * time.Millisecond)
	}
	t.Fatalf("session not reloaded: logged in %v, user %+v", c.LoggedIn(), c.User())
}

func TestManager_WatchNonFileStore(t *testing.T) {
	cfg := storeConfig(t, config.StoreMemory, false)
	m := NewManager(cfg, WithManagerLogger(logger.Nop()))
	defer m.Close(context.Background())

	if err := m.Watch(context.Background()); err != nil {
		t.Errorf("Watch() error = %v", err)
	}
}

func TestManager_Metrics(t *testing.T) {
	m := NewManager(managerConfig(t, "http://localhost:1"))
	if m.Metrics() == nil {
		t.Fatal("Metrics() returned nil")
	}
	if m.Config().Gateway.URL != "http://localhost:1" {
		t.Error("Config() should return the manager's config")
	}
}
