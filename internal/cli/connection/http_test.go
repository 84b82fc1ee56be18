package connection

import (
	"context"
	"encoding/pem"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/yndnr/littlesteps-go/internal/cli/config"
	"github.com/yndnr/littlesteps-go/internal/gateway"
)

func TestNewHTTPClient_Defaults(t *testing.T) {
	hc, err := NewHTTPClient(config.GatewayConfig{URL: "http://localhost:8080"})
	if err != nil {
		t.Fatalf("NewHTTPClient() error = %v", err)
	}
	if hc.Timeout != gateway.DefaultTimeout {
		t.Errorf("Timeout = %v, want %v", hc.Timeout, gateway.DefaultTimeout)
	}
	tr := hc.Transport.(*http.Transport)
	if tr.TLSClientConfig != nil && tr.TLSClientConfig.InsecureSkipVerify {
		t.Error("default transport must verify certificates")
	}
}

func TestNewHTTPClient_Timeout(t *testing.T) {
	hc, err := NewHTTPClient(config.GatewayConfig{Timeout: 3 * time.Second})
	if err != nil {
		t.Fatalf("NewHTTPClient() error = %v", err)
	}
	if hc.Timeout != 3*time.Second {
		t.Errorf("Timeout = %v, want 3s", hc.Timeout)
	}
}

func TestNewHTTPClient_CAFile(t *testing.T) {
	server := httptest.NewTLSServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `{"ok":true}`)
	}))
	defer server.Close()

	caFile := filepath.Join(t.TempDir(), "gateway-ca.pem")
	data := pem.EncodeToMemory(&pem.Block{Type: "CERTIFICATE", Bytes: server.Certificate().Raw})
	if err := os.WriteFile(caFile, data, 0o600); err != nil {
		t.Fatal(err)
	}

	hc, err := NewHTTPClient(config.GatewayConfig{URL: server.URL, CAFile: caFile})
	if err != nil {
		t.Fatalf("NewHTTPClient() error = %v", err)
	}
	resp, err := hc.Get(server.URL)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("status = %d, want 200", resp.StatusCode)
	}
}

func TestNewHTTPClient_UntrustedCertificate(t *testing.T) {
	server := httptest.NewTLSServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	defer server.Close()

	hc, err := NewHTTPClient(config.GatewayConfig{URL: server.URL})
	if err != nil {
		t.Fatalf("NewHTTPClient() error = %v", err)
	}
	if _, err := hc.Get(server.URL); err == nil {
		t.Error("Get() should fail against an untrusted certificate")
	}

	insecure, err := NewHTTPClient(config.GatewayConfig{URL: server.URL, InsecureSkipVerify: true})
	if err != nil {
		t.Fatalf("NewHTTPClient() error = %v", err)
	}
	resp, err := insecure.Get(server.URL)
	if err != nil {
		t.Fatalf("Get() with insecure_skip_verify error = %v", err)
	}
	resp.Body.Close()
}

func TestNewHTTPClient_MissingCAFile(t *testing.T) {
	_, err := NewHTTPClient(config.GatewayConfig{CAFile: "/nonexistent/ca.pem"})
	if err == nil {
		t.Error("NewHTTPClient() should fail for a missing CA file")
	}
}

func TestNewHTTPClient_Socket(t *testing.T) {
	sock := shortSocketPath(t)
	ln, err := net.Listen("unix", sock)
	if err != nil {
		t.Skipf("unix sockets unavailable: %v", err)
	}
	server := httptest.NewUnstartedServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, r.Host)
	}))
	server.Listener = ln
	server.Start()
	defer server.Close()

	hc, err := NewHTTPClient(config.GatewayConfig{URL: "http://gateway.local", Socket: sock})
	if err != nil {
		t.Fatalf("NewHTTPClient() error = %v", err)
	}

	req, _ := http.NewRequestWithContext(context.Background(), http.MethodGet, "http://gateway.local/auth/me", nil)
	resp, err := hc.Do(req)
	if err != nil {
		t.Fatalf("Do() error = %v", err)
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)
	if string(body) != "gateway.local" {
		t.Errorf("Host = %q, want gateway.local", body)
	}
}

// shortSocketPath keeps the path under the unix socket length limit that
// t.TempDir can exceed.
func shortSocketPath(t *testing.T) string {
	t.Helper()
	dir, err := os.MkdirTemp("", "ls")
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { os.RemoveAll(dir) })
	return filepath.Join(dir, "gw.sock")
}
