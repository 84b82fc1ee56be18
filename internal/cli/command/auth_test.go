package command

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/yndnr/littlesteps-go/internal/core/domain"
	"github.com/yndnr/littlesteps-go/internal/gateway"
)

func handleLogin(env *testEnv) {
	env.server.handle("POST /auth/login", func(w http.ResponseWriter, r *http.Request) {
		var body map[string]string
		_ = json.NewDecoder(r.Body).Decode(&body)
		if body["username"] != "bob" || body["password"] != "password1" {
			errorResponse(w, http.StatusUnauthorized, "Invalid username or password")
			return
		}
		jsonResponse(w, http.StatusOK, map[string]string{"access_token": "a1", "refresh_token": "r1"})
	})
	env.server.handleMe("a1")
}

func TestLogin(t *testing.T) {
	env := newTestEnv(t)
	handleLogin(env)

	out := env.mustRun("login", "-u", "bob", "-p", "password1")
	if !strings.Contains(out, "Logged in as Bob Smith (parent)") {
		t.Errorf("output = %q", out)
	}

	tokens := env.stored()
	if tokens.AccessToken != "a1" || tokens.RefreshToken != "r1" {
		t.Errorf("stored tokens = %+v", tokens)
	}
}

func TestLogin_PromptsForPassword(t *testing.T) {
	env := newTestEnv(t)
	handleLogin(env)

	res := env.run("password1\n", "login", "bob")
	if res.err != nil {
		t.Fatalf("login error = %v", res.err)
	}
	if !strings.Contains(res.stderr, "Password: ") {
		t.Errorf("prompt not shown on stderr: %q", res.stderr)
	}
	if strings.Contains(res.stdout, "password1") {
		t.Error("password echoed to stdout")
	}
}

func TestLogin_PasswordStdin(t *testing.T) {
	env := newTestEnv(t)
	handleLogin(env)

	res := env.run("password1", "-o", "json", "login", "-u", "bob", "--password-stdin")
	if res.err != nil {
		t.Fatalf("login error = %v", res.err)
	}
	if strings.Contains(res.stderr, "Password:") {
		t.Error("--password-stdin should not prompt")
	}
	var user domain.User
	decodeJSON(t, res.stdout, &user)
	if user.ID != "u1" || user.Role != domain.RoleParent {
		t.Errorf("user = %+v", user)
	}
}

func TestLogin_RejectsTrailingFlags(t *testing.T) {
	env := newTestEnv(t)
	handleLogin(env)

	res := env.run("", "login", "bob", "--password", "password1")
	if !domain.IsDomainError(res.err, domain.ErrInvalidArgument.Code) {
		t.Fatalf("error = %v, want invalid argument", res.err)
	}
	if len(env.server.seen()) != 0 {
		t.Errorf("requests sent: %v", env.server.seen())
	}
}

func TestLogin_BadCredentials(t *testing.T) {
	env := newTestEnv(t)
	handleLogin(env)

	res := env.run("", "login", "-u", "bob", "-p", "wrong")
	if res.err == nil {
		t.Fatal("expected error")
	}
	msg, code := Describe(res.err)
	if code != ExitServer {
		t.Errorf("exit code = %d, want %d", code, ExitServer)
	}
	if !strings.Contains(msg, "Invalid username or password") {
		t.Errorf("message = %q", msg)
	}
	if !env.stored().Empty() {
		t.Error("failed login stored tokens")
	}
}

func TestLogout(t *testing.T) {
	env := newTestEnv(t)
	env.server.handleMe("a1")
	env.seed("a1", "r1")

	if out := env.mustRun("logout"); !strings.Contains(out, "Logged out") {
		t.Errorf("output = %q", out)
	}
	if !env.stored().Empty() {
		t.Error("session file not cleared")
	}

	if out := env.mustRun("logout"); !strings.Contains(out, "Not logged in") {
		t.Errorf("second logout output = %q", out)
	}
}

func TestWhoami(t *testing.T) {
	env := newTestEnv(t)
	exp := time.Now().Add(time.Hour).Truncate(time.Second)
	access, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": "u1",
		"exp": exp.Unix(),
	}).SignedString([]byte("test-secret"))
	if err != nil {
		t.Fatal(err)
	}
	env.server.handleMe(access)
	env.seed(access, "r1")

	var id identity
	decodeJSON(t, env.mustRun("-o", "json", "whoami"), &id)

	if id.Username != "bob" || id.Name != "Bob Smith" {
		t.Errorf("identity = %+v", id)
	}
	if !id.Refreshable {
		t.Error("Refreshable = false, want true")
	}
	if id.TokenFingerprint == "" || strings.Contains(id.TokenFingerprint, access) {
		t.Errorf("TokenFingerprint = %q", id.TokenFingerprint)
	}
	if id.TokenExpires == nil || !id.TokenExpires.Equal(exp) {
		t.Errorf("TokenExpires = %v, want %v", id.TokenExpires, exp)
	}

	table := env.mustRun("whoami")
	if !strings.Contains(table, "bob") || !strings.Contains(table, "Token expires") {
		t.Errorf("table output = %q", table)
	}
}

func TestWhoami_NotLoggedIn(t *testing.T) {
	env := newTestEnv(t)

	res := env.run("", "whoami")
	if !errors.Is(res.err, domain.ErrNotLoggedIn) {
		t.Fatalf("error = %v, want ErrNotLoggedIn", res.err)
	}
	if len(env.server.seen()) != 0 {
		t.Errorf("requests sent without a session: %v", env.server.seen())
	}
}

func TestTokenExpiry_Opaque(t *testing.T) {
	if got := tokenExpiry("not-a-jwt"); got != nil {
		t.Errorf("tokenExpiry(opaque) = %v, want nil", got)
	}
}

func TestRegister(t *testing.T) {
	env := newTestEnv(t)
	var got map[string]string
	var auth string
	env.server.handle("POST /auth/register", func(w http.ResponseWriter, r *http.Request) {
		auth = r.Header.Get("Authorization")
		_ = json.NewDecoder(r.Body).Decode(&got)
		jsonResponse(w, http.StatusCreated, map[string]string{"message": "User registered successfully"})
	})

	out := env.mustRun("register", "-u", "carol", "-p", "password1", "--role", "Teacher", "-e", "carol@example.com")

	if auth != "" {
		t.Errorf("register sent Authorization %q", auth)
	}
	if got["username"] != "carol" || got["role"] != "teacher" || got["email"] != "carol@example.com" {
		t.Errorf("request body = %v", got)
	}
	if !strings.Contains(out, "User registered successfully") || !strings.Contains(out, "login carol") {
		t.Errorf("output = %q", out)
	}
}

func TestRegister_ShortPassword(t *testing.T) {
	env := newTestEnv(t)

	res := env.run("", "register", "-u", "carol", "-p", "short")
	var domErr *domain.DomainError
	if !errors.As(res.err, &domErr) {
		t.Fatalf("error = %v, want a validation error", res.err)
	}
	if len(env.server.seen()) != 0 {
		t.Errorf("invalid registration reached the server: %v", env.server.seen())
	}
}

func TestPasswd(t *testing.T) {
	env := newTestEnv(t)
	env.server.handleMe("a1")
	env.seed("a1", "r1")

	var body map[string]string
	env.server.handle("POST /auth/change-password", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer a1" {
			errorResponse(w, http.StatusUnauthorized, "missing token")
			return
		}
		_ = json.NewDecoder(r.Body).Decode(&body)
		jsonResponse(w, http.StatusOK, map[string]string{"message": "Password changed"})
	})

	res := env.run("password1\npassword2\n", "passwd")
	if res.err != nil {
		t.Fatalf("passwd error = %v", res.err)
	}
	if body["old_password"] != "password1" || body["new_password"] != "password2" {
		t.Errorf("request body = %v", body)
	}
	if !strings.Contains(res.stdout, "Password changed") {
		t.Errorf("output = %q", res.stdout)
	}
}

func TestSessionExpired(t *testing.T) {
	env := newTestEnv(t)
	env.server.handleMe("a2")
	env.server.handle("POST /auth/refresh", func(w http.ResponseWriter, r *http.Request) {
		errorResponse(w, http.StatusUnauthorized, "refresh token revoked")
	})
	env.server.handle("GET /profiles/children", func(w http.ResponseWriter, r *http.Request) {
		errorResponse(w, http.StatusUnauthorized, "token expired")
	})
	env.seed("a1", "r1")

	res := env.run("", "child", "list")
	if res.err == nil {
		t.Fatal("expected error")
	}
	// the stale token is rejected while restoring, so the command
	// finds nobody logged in
	if !gateway.IsSessionExpired(res.err) && !errors.Is(res.err, domain.ErrNotLoggedIn) {
		t.Errorf("error = %v, want session expired or not logged in", res.err)
	}
	if !env.stored().Empty() {
		t.Error("session file should be cleared after a failed refresh")
	}
}
