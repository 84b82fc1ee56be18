package gateway

import (
	"testing"
)

func TestParseService(t *testing.T) {
	tests := []struct {
		in      string
		want    Service
		wantErr bool
	}{
		{"AUTH", ServiceAuth, false},
		{"auth", ServiceAuth, false},
		{"child-profile", ServiceChildProfile, false},
		{" CHILD_PROFILE ", ServiceChildProfile, false},
		{"activity_log", ServiceActivityLog, false},
		{"billing", "", true},
		{"", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseService(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseService(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("ParseService(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestEndpointsResolve(t *testing.T) {
	e := DefaultEndpoints()
	tests := []struct {
		svc  Service
		path string
		want string
	}{
		{ServiceAuth, "/login", "/auth/login"},
		{ServiceAuth, "login", "/auth/login"},
		{ServiceChildProfile, "/children/c1", "/profiles/children/c1"},
		{ServiceActivityLog, "/log/meal", "/log/meal"},
		{ServiceActivityLog, "activities", "/activities"},
	}
	for _, tt := range tests {
		got, err := e.resolve(tt.svc, tt.path)
		if err != nil {
			t.Fatalf("resolve(%s, %s): %v", tt.svc, tt.path, err)
		}
		if got != tt.want {
			t.Errorf("resolve(%s, %s) = %q, want %q", tt.svc, tt.path, got, tt.want)
		}
	}

	if _, err := e.resolve("NOPE", "/x"); !IsConfiguration(err) {
		t.Errorf("resolve(NOPE) error = %v, want ConfigurationError", err)
	}
}

func TestEndpointsMerge(t *testing.T) {
	base := DefaultEndpoints()
	merged, err := base.Merge(map[string]string{"child_profile": "/api/profiles/", "auth": "/api/auth"})
	if err != nil {
		t.Fatalf("Merge: %v", err)
	}
	if merged[ServiceChildProfile] != "/api/profiles" {
		t.Errorf("CHILD_PROFILE = %q", merged[ServiceChildProfile])
	}
	if merged[ServiceAuth] != "/api/auth" {
		t.Errorf("AUTH = %q", merged[ServiceAuth])
	}
	if merged[ServiceActivityLog] != "" {
		t.Errorf("ACTIVITY_LOG = %q", merged[ServiceActivityLog])
	}
	if base[ServiceAuth] != "/auth" {
		t.Errorf("Merge modified the receiver")
	}

	if _, err := base.Merge(map[string]string{"billing": "/b"}); err == nil {
		t.Error("Merge with unknown service should fail")
	}

	want := []Service{ServiceActivityLog, ServiceAuth, ServiceChildProfile}
	got := merged.Services()
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("Services() = %v, want %v", got, want)
		}
	}
}

func TestErrorPredicates(t *testing.T) {
	httpErr := &HTTPError{Status: 404, Message: "Not Found"}
	expired := &SessionExpiredError{Reason: "refresh failed", Err: httpErr}

	if !IsSessionExpired(expired) {
		t.Error("IsSessionExpired(expired) = false")
	}
	if IsNetwork(expired) {
		t.Error("IsNetwork(expired) = true")
	}
	if got := StatusCode(httpErr); got != 404 {
		t.Errorf("StatusCode = %d", got)
	}
	if got := expired.Error(); got != "session expired: refresh failed: http 404: Not Found" {
		t.Errorf("Error() = %q", got)
	}
	if got := newHTTPError(599, nil).Message; got != "status 599" {
		t.Errorf("message for unknown status = %q", got)
	}
}
