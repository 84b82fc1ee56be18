package gateway

import (
	"fmt"
	"sort"
	"strings"
)

// Service names a logical backend behind the gateway.
type Service string

const (
	ServiceAuth         Service = "AUTH"
	ServiceChildProfile Service = "CHILD_PROFILE"
	ServiceActivityLog  Service = "ACTIVITY_LOG"
)

// Endpoints maps each service to its base path on the gateway.
type Endpoints map[Service]string

// DefaultEndpoints returns the stock service mapping.
func DefaultEndpoints() Endpoints {
	return Endpoints{
		ServiceAuth:         "/auth",
		ServiceChildProfile: "/profiles",
		ServiceActivityLog:  "",
	}
}

// ParseService accepts "auth", "child-profile", "CHILD_PROFILE" and so on.
func ParseService(s string) (Service, error) {
	name := Service(strings.ToUpper(strings.ReplaceAll(strings.TrimSpace(s), "-", "_")))
	switch name {
	case ServiceAuth, ServiceChildProfile, ServiceActivityLog:
		return name, nil
	}
	return "", &ConfigurationError{Reason: fmt.Sprintf("invalid service %q", s)}
}

// Merge returns a copy of e with overrides applied. Override keys go
// through ParseService, so configuration files can use lower case.
func (e Endpoints) Merge(overrides map[string]string) (Endpoints, error) {
	out := make(Endpoints, len(e))
	for k, v := range e {
		out[k] = v
	}
	for k, v := range overrides {
		svc, err := ParseService(k)
		if err != nil {
			return nil, err
		}
		out[svc] = strings.TrimRight(strings.TrimSpace(v), "/")
	}
	return out, nil
}

// Services returns the configured service names in sorted order.
func (e Endpoints) Services() []Service {
	out := make([]Service, 0, len(e))
	for k := range e {
		out = append(out, k)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// resolve joins the service base path and the request path.
func (e Endpoints) resolve(svc Service, path string) (string, error) {
	base, ok := e[svc]
	if !ok {
		return "", &ConfigurationError{Reason: fmt.Sprintf("invalid service %q", svc)}
	}
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	return base + path, nil
}
