package gateway

import (
	"context"
	"net/http"
	"strings"

	"github.com/yndnr/littlesteps-go/internal/core/domain"
	"github.com/yndnr/littlesteps-go/internal/session"
	"github.com/yndnr/littlesteps-go/pkg/token"
)

// Logout reasons recorded in metrics and session events.
const (
	ReasonUser           = "user"
	ReasonIdentityFailed = "identity_failed"
)

// Credentials is the login request body.
type Credentials struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// Login authenticates against the AUTH service, stores the returned token
// pair and fetches the identity with the new access token. If the
// identity cannot be fetched the session is cleared again and that error
// is returned.
func (c *Client) Login(ctx context.Context, username, password string) (session.Tokens, error) {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return session.Tokens{}, domain.ErrMissingArgument.WithDetails("username and password are required")
	}

	var pair tokenPair
	err := c.Do(ctx, Request{
		Service: ServiceAuth,
		Path:    "/login",
		Method:  http.MethodPost,
		Body:    Credentials{Username: username, Password: password},
		NoAuth:  true,
	}, &pair)
	if err != nil {
		return session.Tokens{}, err
	}
	switch {
	case pair.AccessToken == "":
		return session.Tokens{}, domain.ErrUnexpectedResponse.WithDetails("login response has no access token")
	case pair.RefreshToken == "":
		return session.Tokens{}, domain.ErrUnexpectedResponse.WithDetails("login response has no refresh token")
	}

	tokens := session.Tokens{AccessToken: pair.AccessToken, RefreshToken: pair.RefreshToken}
	if err := c.session.SetTokens(ctx, tokens); err != nil {
		return session.Tokens{}, err
	}
	c.logger.Info("logged in", "username", username, "access", token.Fingerprint(tokens.AccessToken))

	if err := c.FetchUserDetails(ctx, tokens.AccessToken); err != nil {
		return session.Tokens{}, err
	}
	return c.session.Snapshot().Tokens, nil
}

// FetchUserDetails loads the identity for accessToken and caches it on
// the session. An empty token clears the cached user. On failure the
// session is torn down and the error returned.
func (c *Client) FetchUserDetails(ctx context.Context, accessToken string) error {
	if accessToken == "" {
		c.session.SetUser(nil)
		return nil
	}

	header := http.Header{}
	header.Set("Authorization", "Bearer "+accessToken)

	var user domain.User
	err := c.Do(ctx, Request{
		Service: ServiceAuth,
		Path:    "/me",
		Header:  header,
	}, &user)
	if err != nil {
		c.logger.Warn("failed to fetch user details", "error", err)
		c.forceLogout(ctx, ReasonIdentityFailed)
		return err
	}

	c.session.SetUser(&user)
	c.logger.Debug("user details loaded", "user_id", user.ID, "role", string(user.Role))
	return nil
}

// Logout clears tokens and cached user from memory and the store. It is
// idempotent and makes no network call. Memory is always cleared; a store
// failure is returned.
func (c *Client) Logout(ctx context.Context) error {
	return c.logout(ctx, ReasonUser)
}

func (c *Client) logout(ctx context.Context, reason string) error {
	wasLoggedIn := !c.session.Snapshot().Tokens.Empty()
	err := c.session.Clear(context.WithoutCancel(ctx), reason)
	if wasLoggedIn {
		c.recorder.ObserveLogout(reason)
	}
	return err
}

// forceLogout is the teardown used when the identity cannot be loaded.
func (c *Client) forceLogout(ctx context.Context, reason string) {
	c.logger.Warn("session torn down", "reason", reason)
	if err := c.logout(ctx, reason); err != nil {
		c.logger.Warn("failed to clear session store", "error", err)
	}
}

// Initialize seeds the session from the store once. When an access token
// was persisted the identity is fetched with it; an identity failure
// leaves the client logged out without returning an error. IsLoading
// reports true until Initialize returns.
func (c *Client) Initialize(ctx context.Context) error {
	c.loading.Store(true)
	defer c.loading.Store(false)

	tokens, err := c.session.Restore(ctx)
	if err != nil {
		return err
	}
	if tokens.AccessToken == "" {
		c.logger.Debug("no persisted session")
		return nil
	}
	if err := c.FetchUserDetails(ctx, tokens.AccessToken); err != nil {
		c.logger.Info("persisted session is no longer valid", "error", err)
	}
	return nil
}

// IsLoading reports whether Initialize has not finished yet.
func (c *Client) IsLoading() bool {
	return c.loading.Load()
}

// LoggedIn reports whether an access token is held.
func (c *Client) LoggedIn() bool {
	return c.session.AccessToken() != ""
}
