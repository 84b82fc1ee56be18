package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync/atomic"
	"time"

	"github.com/oklog/ulid/v2"
	"golang.org/x/sync/singleflight"
	"golang.org/x/time/rate"

	"github.com/yndnr/littlesteps-go/internal/core/domain"
	"github.com/yndnr/littlesteps-go/internal/session"
	"github.com/yndnr/littlesteps-go/internal/telemetry/logger"
	"github.com/yndnr/littlesteps-go/internal/telemetry/metric"
)

const (
	// DefaultTimeout bounds a single HTTP exchange.
	DefaultTimeout = 30 * time.Second

	// DefaultUserAgent is sent when WithUserAgent is not used.
	DefaultUserAgent = "littlesteps-cli/1.0"

	// maxBodySize caps how much of a response body is read.
	maxBodySize = 8 << 20
)

// Client is the authenticated API client. It is safe for concurrent use.
type Client struct {
	baseURL   string
	endpoints Endpoints
	http      *http.Client
	session   *session.Session
	limiter   *rate.Limiter
	recorder  metric.Recorder
	logger    logger.Logger
	userAgent string

	refreshes singleflight.Group
	loading   atomic.Bool
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the default *http.Client, for example with one
// dialing a unix socket.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.http = hc
		}
	}
}

// WithEndpoints replaces the service mapping.
func WithEndpoints(e Endpoints) Option {
	return func(c *Client) {
		if e != nil {
			c.endpoints = e
		}
	}
}

// WithRateLimit throttles outgoing exchanges. A limit of zero or less
// disables throttling.
func WithRateLimit(perSecond float64, burst int) Option {
	return func(c *Client) {
		if perSecond <= 0 {
			c.limiter = nil
			return
		}
		if burst < 1 {
			burst = 1
		}
		c.limiter = rate.NewLimiter(rate.Limit(perSecond), burst)
	}
}

// WithRecorder sets the metrics recorder.
func WithRecorder(r metric.Recorder) Option {
	return func(c *Client) {
		if r != nil {
			c.recorder = r
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l logger.Logger) Option {
	return func(c *Client) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithUserAgent sets the User-Agent header.
func WithUserAgent(ua string) Option {
	return func(c *Client) {
		if ua != "" {
			c.userAgent = ua
		}
	}
}

// New creates a client for the gateway at baseURL. A nil sess gets an
// in-memory session.
func New(baseURL string, sess *session.Session, opts ...Option) (*Client, error) {
	base, err := normalizeBaseURL(baseURL)
	if err != nil {
		return nil, err
	}
	if sess == nil {
		sess = session.New(nil)
	}

	c := &Client{
		baseURL:   base,
		endpoints: DefaultEndpoints(),
		http:      &http.Client{Timeout: DefaultTimeout},
		session:   sess,
		recorder:  metric.Nop{},
		logger:    logger.Default(),
		userAgent: DefaultUserAgent,
	}
	for _, opt := range opts {
		opt(c)
	}
	c.logger = c.logger.With("component", "gateway")
	c.loading.Store(true)
	return c, nil
}

func normalizeBaseURL(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", &ConfigurationError{Reason: "gateway URL is empty"}
	}
	if !strings.HasPrefix(raw, "http://") && !strings.HasPrefix(raw, "https://") {
		raw = "http://" + raw
	}
	u, err := url.Parse(raw)
	if err != nil {
		return "", &ConfigurationError{Reason: "invalid gateway URL", Err: err}
	}
	if u.Host == "" {
		return "", &ConfigurationError{Reason: fmt.Sprintf("gateway URL %q has no host", raw)}
	}
	return strings.TrimRight(u.String(), "/"), nil
}

// BaseURL returns the normalised gateway URL.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// Endpoints returns a copy of the service mapping.
func (c *Client) Endpoints() Endpoints {
	out, _ := c.endpoints.Merge(nil)
	return out
}

// Session returns the session the client reads tokens from.
func (c *Client) Session() *session.Session {
	return c.session
}

// User returns the cached identity, or nil.
func (c *Client) User() *domain.User {
	return c.session.Snapshot().User
}

// phase is a step of the request state machine.
type phase int

const (
	phaseAttempt phase = iota
	phaseRefreshing
	phaseReplaying
	phaseDone
	phaseFailed
)

func (p phase) String() string {
	switch p {
	case phaseAttempt:
		return "attempt"
	case phaseRefreshing:
		return "refreshing"
	case phaseReplaying:
		return "replaying"
	case phaseDone:
		return "done"
	case phaseFailed:
		return "failed"
	default:
		return fmt.Sprintf("phase(%d)", int(p))
	}
}

// Request sends req and returns the JSON body. An authenticated request
// rejected with 401 is refreshed and replayed at most once.
func (c *Client) Request(ctx context.Context, req Request) (Response, error) {
	p, err := c.prepare(req)
	if err != nil {
		return nil, err
	}

	var (
		state    = phaseAttempt
		resp  Response
		sent  session.Lease
		fresh string
	)
	for {
		switch state {
		case phaseAttempt:
			var status int
			resp, status, sent, err = c.send(ctx, p, "")
			switch {
			case err == nil:
				state = phaseDone
			case status == http.StatusUnauthorized && p.auth:
				state = phaseRefreshing
			default:
				state = phaseFailed
			}

		case phaseRefreshing:
			if cerr := ctx.Err(); cerr != nil {
				err = &NetworkError{Op: p.op(), Err: cerr}
				state = phaseFailed
				continue
			}
			fresh, err = c.refresh(ctx, sent)
			if err != nil {
				state = phaseFailed
			} else {
				state = phaseReplaying
			}

		case phaseReplaying:
			if cerr := ctx.Err(); cerr != nil {
				err = &NetworkError{Op: p.op(), Err: cerr}
				state = phaseFailed
				continue
			}
			resp, _, _, err = c.send(ctx, p, fresh)
			if err != nil {
				state = phaseFailed
			} else {
				state = phaseDone
			}

		case phaseDone:
			return resp, nil

		case phaseFailed:
			return nil, err
		}
	}
}

// Do sends req and decodes the body into out. A nil out discards it.
func (c *Client) Do(ctx context.Context, req Request, out any) error {
	resp, err := c.Request(ctx, req)
	if err != nil {
		return err
	}
	if out == nil {
		return nil
	}
	return resp.Decode(out)
}

// send performs one exchange. A non-empty bearer overrides every other
// source of the Authorization header. It returns the status (0 on
// transport failure) and the session lease at send time; the lease's
// access token is empty unless it was the one attached.
func (c *Client) send(ctx context.Context, p *prepared, bearer string) (Response, int, session.Lease, error) {
	header := make(http.Header, len(p.header)+1)
	for k, v := range p.header {
		header[k] = v
	}

	lease := c.session.Lease()
	attached := false
	if p.auth {
		switch {
		case bearer != "":
			header.Set("Authorization", "Bearer "+bearer)
		case header.Get("Authorization") != "":
		default:
			if lease.AccessToken != "" {
				header.Set("Authorization", "Bearer "+lease.AccessToken)
				attached = true
			}
		}
	} else {
		header.Del("Authorization")
	}

	if !attached {
		lease.AccessToken = ""
	}

	status, body, err := c.exchange(ctx, p.service, p.method, p.path, p.body, header)
	if err != nil {
		return nil, status, lease, err
	}
	return body, status, lease, nil
}

// exchange is one HTTP round trip with no retry logic. Non-2xx statuses
// come back as *HTTPError together with the status code.
func (c *Client) exchange(ctx context.Context, svc Service, method, path string, body []byte, header http.Header) (int, Response, error) {
	op := method + " " + path
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return 0, nil, &NetworkError{Op: op, Err: err}
		}
	}

	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	httpReq, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return 0, nil, &ConfigurationError{Reason: "build request", Err: err}
	}
	for k, v := range header {
		httpReq.Header[k] = v
	}
	if httpReq.Header.Get("Content-Type") == "" {
		httpReq.Header.Set("Content-Type", "application/json")
	}
	httpReq.Header.Set("Accept", "application/json")
	httpReq.Header.Set("User-Agent", c.userAgent)

	reqID := logger.RequestIDFromContext(ctx)
	if reqID == "" {
		reqID = ulid.Make().String()
	}
	httpReq.Header.Set("X-Request-ID", reqID)
	log := c.logger.With("request_id", reqID, "method", method, "path", path)

	start := time.Now()
	resp, err := c.http.Do(httpReq)
	if err != nil {
		c.recorder.ObserveRequest(string(svc), method, 0, time.Since(start))
		if cerr := ctx.Err(); cerr != nil {
			err = cerr
		}
		log.Debug("request failed", "error", err)
		return 0, nil, &NetworkError{Op: op, Err: err}
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	elapsed := time.Since(start)
	c.recorder.ObserveRequest(string(svc), method, resp.StatusCode, elapsed)
	if err != nil {
		log.Debug("read response failed", "status", resp.StatusCode, "error", err)
		return resp.StatusCode, nil, &NetworkError{Op: op, Err: fmt.Errorf("read body: %w", err)}
	}
	log.Debug("request completed", "status", resp.StatusCode, "duration", elapsed)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return resp.StatusCode, nil, newHTTPError(resp.StatusCode, data)
	}
	if resp.StatusCode == http.StatusNoContent || resp.ContentLength == 0 || len(bytes.TrimSpace(data)) == 0 {
		return resp.StatusCode, emptyObject, nil
	}
	if !json.Valid(data) {
		return resp.StatusCode, nil, domain.ErrUnexpectedResponse.
			WithDetails(fmt.Sprintf("%s returned a non-JSON body", op))
	}
	return resp.StatusCode, Response(data), nil
}

func (p *prepared) op() string {
	return p.method + " " + p.path
}

