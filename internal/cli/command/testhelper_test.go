package command

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/yndnr/littlesteps-go/internal/infra/shutdown"
	"github.com/yndnr/littlesteps-go/internal/session"
)

// mockServer is a fake gateway. Handlers use net/http method patterns,
// e.g. "GET /profiles/children/{id}".
type mockServer struct {
	*httptest.Server
	mux *http.ServeMux

	mu       sync.Mutex
	requests []string
}

// newMockServer creates a new mock server.
func newMockServer(t *testing.T) *mockServer {
	t.Helper()
	m := &mockServer{mux: http.NewServeMux()}
	m.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		m.mu.Lock()
		m.requests = append(m.requests, r.Method+" "+r.URL.Path)
		m.mu.Unlock()
		m.mux.ServeHTTP(w, r)
	}))
	t.Cleanup(m.Close)
	return m
}

// handle registers a handler for a pattern.
func (m *mockServer) handle(pattern string, handler http.HandlerFunc) {
	m.mux.HandleFunc(pattern, handler)
}

// seen returns the "METHOD /path" lines received so far.
func (m *mockServer) seen() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.requests...)
}

// handleMe serves /auth/me for bob when the bearer matches access.
func (m *mockServer) handleMe(access string) {
	m.handle("GET /auth/me", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer "+access {
			errorResponse(w, http.StatusUnauthorized, "token expired")
			return
		}
		jsonResponse(w, http.StatusOK, sampleUser())
	})
}

// jsonResponse writes a JSON response.
func jsonResponse(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

// errorResponse writes an error response the way the gateway does.
func errorResponse(w http.ResponseWriter, status int, message string) {
	jsonResponse(w, status, map[string]string{"message": message})
}

func sampleUser() map[string]string {
	return map[string]string{
		"user_id":    "u1",
		"username":   "bob",
		"role":       "parent",
		"email":      "bob@example.com",
		"first_name": "Bob",
		"last_name":  "Smith",
	}
}

// testEnv is one CLI installation: a config file pointing at a mock
// gateway and a plain session file under a temp dir.
type testEnv struct {
	t          *testing.T
	server     *mockServer
	dir        string
	configPath string
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	env := &testEnv{
		t:      t,
		server: newMockServer(t),
		dir:    t.TempDir(),
	}
	env.configPath = filepath.Join(env.dir, "cli.yaml")
	cfg := fmt.Sprintf(`gateway:
  url: %s
  timeout: 5s
session:
  store: file
  path: %s
  encrypt: false
log:
  level: error
output: table
history_file: ""
`, env.server.URL, env.sessionPath())
	if err := os.WriteFile(env.configPath, []byte(cfg), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return env
}

func (e *testEnv) sessionPath() string {
	return filepath.Join(e.dir, "session.json")
}

// seed stores a token pair as a previous login would have.
func (e *testEnv) seed(access, refresh string) {
	e.t.Helper()
	fs, err := session.NewFileStore(e.sessionPath())
	if err != nil {
		e.t.Fatalf("NewFileStore() error = %v", err)
	}
	if err := fs.Save(context.Background(), session.Tokens{AccessToken: access, RefreshToken: refresh}); err != nil {
		e.t.Fatalf("Save() error = %v", err)
	}
}

// stored reads the persisted token pair.
func (e *testEnv) stored() session.Tokens {
	e.t.Helper()
	fs, err := session.NewFileStore(e.sessionPath())
	if err != nil {
		e.t.Fatalf("NewFileStore() error = %v", err)
	}
	tokens, err := fs.Load(context.Background())
	if err != nil {
		e.t.Fatalf("Load() error = %v", err)
	}
	return tokens
}

// result is what one process run produced.
type result struct {
	stdout string
	stderr string
	err    error
}

// run executes the CLI once, as a fresh process would, feeding stdin.
func (e *testEnv) run(stdin string, args ...string) result {
	e.t.Helper()
	var stdout, stderr bytes.Buffer

	h := shutdown.NewHandler(time.Second)
	app := App(h)
	app.Reader = strings.NewReader(stdin)
	app.Writer = &stdout
	app.ErrWriter = &stderr

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	argv := append([]string{app.Name, "--config", e.configPath}, args...)
	err := app.RunContext(ctx, argv)
	if herr := h.Run(); herr != nil {
		e.t.Errorf("shutdown hooks: %v", herr)
	}
	return result{stdout: stdout.String(), stderr: stderr.String(), err: err}
}

// mustRun is run that fails the test on error.
func (e *testEnv) mustRun(args ...string) string {
	e.t.Helper()
	res := e.run("", args...)
	if res.err != nil {
		e.t.Fatalf("%v: error = %v\nstderr: %s", args, res.err, res.stderr)
	}
	return res.stdout
}

func decodeJSON(t *testing.T, data string, v any) {
	t.Helper()
	if err := json.Unmarshal([]byte(data), v); err != nil {
		t.Fatalf("decode %q: %v", data, err)
	}
}
