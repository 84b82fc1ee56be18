package gateway

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
)

// Request describes one call against a logical service.
type Request struct {
	Service Service
	// Path is relative to the service base path. A missing leading slash
	// is added.
	Path string
	// Method defaults to GET.
	Method string
	// Query is appended to the URL when non-empty.
	Query url.Values
	// Body is encoded as JSON. json.RawMessage is sent as is.
	Body any
	// NoAuth skips the bearer header and the refresh-on-401 handling.
	NoAuth bool
	// Header is applied before the bearer header. An Authorization
	// header set here is kept.
	Header http.Header
}

// Response is the JSON body of a successful call. Empty bodies and 204
// responses come back as "{}".
type Response json.RawMessage

var emptyObject = Response("{}")

// Decode unmarshals the body into v.
func (r Response) Decode(v any) error {
	if len(r) == 0 {
		return json.Unmarshal(emptyObject, v)
	}
	if err := json.Unmarshal(r, v); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

// IsEmpty reports whether the body is an empty object.
func (r Response) IsEmpty() bool {
	return len(bytes.TrimSpace(r)) == 0 || bytes.Equal(bytes.TrimSpace(r), emptyObject)
}

func (r Response) String() string { return string(r) }

// MarshalJSON keeps Response embeddable in other documents.
func (r Response) MarshalJSON() ([]byte, error) {
	if len(r) == 0 {
		return emptyObject, nil
	}
	return r, nil
}

var allowedMethods = map[string]bool{
	http.MethodGet:    true,
	http.MethodPost:   true,
	http.MethodPut:    true,
	http.MethodDelete: true,
	http.MethodPatch:  true,
}

// prepared is a validated Request with its body encoded once so the
// replay sends identical bytes.
type prepared struct {
	service Service
	method  string
	path    string
	auth    bool
	body    []byte
	header  http.Header
}

func (c *Client) prepare(req Request) (*prepared, error) {
	method := strings.ToUpper(strings.TrimSpace(req.Method))
	if method == "" {
		method = http.MethodGet
	}
	if !allowedMethods[method] {
		return nil, &ConfigurationError{Reason: fmt.Sprintf("unsupported method %q", req.Method)}
	}

	path, err := c.endpoints.resolve(req.Service, req.Path)
	if err != nil {
		return nil, err
	}
	if len(req.Query) > 0 {
		path += "?" + req.Query.Encode()
	}

	p := &prepared{
		service: req.Service,
		method:  method,
		path:    path,
		auth:    !req.NoAuth,
		header:  req.Header.Clone(),
	}

	switch b := req.Body.(type) {
	case nil:
	case json.RawMessage:
		p.body = b
	default:
		data, err := json.Marshal(b)
		if err != nil {
			return nil, &ConfigurationError{Reason: "encode request body", Err: err}
		}
		p.body = data
	}
	return p, nil
}

// messageFrom extracts the "message" field of a JSON error body.
func messageFrom(body []byte) string {
	if len(bytes.TrimSpace(body)) == 0 {
		return ""
	}
	var payload struct {
		Message string `json:"message"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return ""
	}
	return payload.Message
}
