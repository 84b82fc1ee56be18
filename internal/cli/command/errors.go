package command

import (
	"context"
	"errors"
	"fmt"

	"github.com/yndnr/littlesteps-go/internal/core/domain"
	"github.com/yndnr/littlesteps-go/internal/gateway"
)

// Exit codes.
const (
	ExitOK             = 0
	ExitFailure        = 1
	ExitUsage          = 2
	ExitSessionExpired = 3
	ExitNetwork        = 4
	ExitServer         = 5
	ExitInterrupted    = 130
)

var errNotLoggedIn = domain.ErrNotLoggedIn.WithDetails("run `littlesteps-cli login` first")

// Describe turns an error from a command into the line shown to the user
// and the process exit code.
func Describe(err error) (string, int) {
	if err == nil {
		return "", ExitOK
	}

	var (
		expired *gateway.SessionExpiredError
		netErr  *gateway.NetworkError
		httpErr *gateway.HTTPError
		cfgErr  *gateway.ConfigurationError
		domErr  *domain.DomainError
	)
	switch {
	case errors.Is(err, context.Canceled):
		return "interrupted", ExitInterrupted
	case errors.As(err, &expired):
		return "your session has expired, run `littlesteps-cli login` to sign in again", ExitSessionExpired
	case errors.As(err, &netErr):
		return fmt.Sprintf("cannot reach the Little Steps gateway (%v); check --gateway and your network connection", netErr.Err), ExitNetwork
	case errors.As(err, &httpErr):
		return fmt.Sprintf("server returned %d: %s", httpErr.Status, httpErr.Message), ExitServer
	case errors.As(err, &cfgErr):
		return err.Error(), ExitUsage
	case errors.As(err, &domErr):
		if domErr.Code == domain.ErrUnexpectedResponse.Code || domErr.Code == domain.ErrSessionStore.Code {
			return err.Error(), ExitFailure
		}
		return err.Error(), ExitUsage
	default:
		return err.Error(), ExitFailure
	}
}
