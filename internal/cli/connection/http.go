package connection

import (
	"fmt"
	"net/http"
	"time"

	"github.com/yndnr/littlesteps-go/internal/cli/config"
	"github.com/yndnr/littlesteps-go/internal/gateway"
	"github.com/yndnr/littlesteps-go/internal/infra/tlsroots"
)

// NewHTTPClient builds the transport for cfg. A configured socket takes
// over dialing; the URL still supplies the scheme and Host header.
func NewHTTPClient(cfg config.GatewayConfig) (*http.Client, error) {
	transport := http.DefaultTransport.(*http.Transport).Clone()
	transport.MaxIdleConnsPerHost = 4
	transport.IdleConnTimeout = 30 * time.Second

	tlsCfg, err := tlsroots.ClientConfig(tlsroots.ClientOptions{
		CAPath:             cfg.CAFile,
		InsecureSkipVerify: cfg.InsecureSkipVerify,
	})
	if err != nil {
		return nil, fmt.Errorf("gateway tls: %w", err)
	}
	if tlsCfg != nil {
		transport.TLSClientConfig = tlsCfg
	}

	if cfg.Socket != "" {
		if err := CheckSocket(cfg.Socket); err != nil {
			return nil, err
		}
		transport.DialContext = SocketDialer(cfg.Socket)
		transport.Proxy = nil
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = gateway.DefaultTimeout
	}
	return &http.Client{Transport: transport, Timeout: timeout}, nil
}
