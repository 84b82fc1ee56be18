package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/yndnr/littlesteps-go/internal/session"
	"github.com/yndnr/littlesteps-go/internal/telemetry/metric"
	"github.com/yndnr/littlesteps-go/pkg/token"
)

// errSessionGone marks a refresh whose login was logged out or replaced
// while it was pending.
var errSessionGone = errors.New("session replaced during refresh")

// tokenPair is the body of login and refresh responses.
type tokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

type refreshResult struct {
	access string
}

// refresh obtains a usable access token after a 401. sent is the session
// lease the rejected request was sent under. If the same login already
// holds a different access token, that one is returned without another
// refresh call. A request sent under a login that has since been
// replaced is not refreshed at all.
func (c *Client) refresh(ctx context.Context, sent session.Lease) (string, error) {
	cur := c.session.Lease()
	if cur.Epoch != sent.Epoch {
		c.recorder.ObserveRefresh(metric.RefreshSuperseded)
		c.logger.Debug("session replaced since the request was sent, not replaying")
		return "", &SessionExpiredError{Reason: "session changed", Err: errSessionGone}
	}
	if sent.AccessToken != "" && cur.AccessToken != "" && !token.Equal(sent.AccessToken, cur.AccessToken) {
		c.recorder.ObserveRefresh(metric.RefreshObsolete)
		c.logger.Debug("access token already replaced, replaying")
		return cur.AccessToken, nil
	}

	if cur.RefreshToken == "" {
		c.recorder.ObserveRefresh(metric.RefreshNoToken)
		c.teardown(ctx, cur.Epoch, "no_refresh_token")
		return "", &SessionExpiredError{Reason: "no refresh token"}
	}

	// The refresh outlives a cancelled caller so joined callers still get
	// a result; each caller stops waiting on its own context.
	ch := c.refreshes.DoChan(cur.RefreshToken, func() (any, error) {
		return c.doRefresh(context.WithoutCancel(ctx), cur)
	})
	select {
	case <-ctx.Done():
		return "", &NetworkError{Op: "refresh", Err: ctx.Err()}
	case res := <-ch:
		if res.Shared {
			c.recorder.ObserveRefresh(metric.RefreshShared)
		}
		if res.Err != nil {
			return "", res.Err
		}
		return res.Val.(refreshResult).access, nil
	}
}

// doRefresh calls the refresh endpoint once with lease's refresh token
// and installs the result. A failure tears the session down unless
// another login replaced it meanwhile.
func (c *Client) doRefresh(ctx context.Context, lease session.Lease) (refreshResult, error) {
	path, err := c.endpoints.resolve(ServiceAuth, "/refresh")
	if err != nil {
		return refreshResult{}, err
	}
	if c.http.Timeout <= 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, DefaultTimeout)
		defer cancel()
	}

	header := http.Header{}
	header.Set("Authorization", "Bearer "+lease.RefreshToken)
	_, body, err := c.exchange(ctx, ServiceAuth, http.MethodPost, path, nil, header)
	if err != nil {
		c.recorder.ObserveRefresh(metric.RefreshFailure)
		c.logger.Info("token refresh failed", "error", err)
		c.teardown(ctx, lease.Epoch, "refresh_failed")
		return refreshResult{}, &SessionExpiredError{Reason: "refresh failed", Err: err}
	}

	var pair tokenPair
	if err := json.Unmarshal(body, &pair); err != nil || pair.AccessToken == "" {
		c.recorder.ObserveRefresh(metric.RefreshFailure)
		c.logger.Info("token refresh returned no access token")
		c.teardown(ctx, lease.Epoch, "refresh_failed")
		return refreshResult{}, &SessionExpiredError{Reason: "refresh response has no access token", Err: err}
	}

	applied, err := c.session.UpdateAccessFor(ctx, lease.Epoch, pair.AccessToken, pair.RefreshToken)
	if err != nil {
		c.recorder.ObserveRefresh(metric.RefreshFailure)
		return refreshResult{}, err
	}
	if !applied {
		c.recorder.ObserveRefresh(metric.RefreshSuperseded)
		return refreshResult{}, &SessionExpiredError{Reason: "session changed during refresh", Err: errSessionGone}
	}

	c.recorder.ObserveRefresh(metric.RefreshSuccess)
	c.logger.Info("access token refreshed",
		"access", token.Fingerprint(pair.AccessToken),
		"refresh_rotated", pair.RefreshToken != "")
	return refreshResult{access: pair.AccessToken}, nil
}

// teardown logs out the login identified by epoch. A session that has
// moved on to another login is left alone.
func (c *Client) teardown(ctx context.Context, epoch uint64, reason string) {
	cleared, err := c.session.ClearFor(context.WithoutCancel(ctx), epoch, reason)
	if err != nil {
		c.logger.Warn("failed to clear session store", "error", err)
	}
	if !cleared {
		c.logger.Debug("no session to tear down", "reason", reason)
		return
	}
	c.logger.Warn("session torn down", "reason", reason)
	c.recorder.ObserveLogout(reason)
}
