package tlsroots

import (
	"crypto/tls"
	"crypto/x509"
	"encoding/pem"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

var (
	// ErrNoCertsFound is returned when no certificates are found in a PEM file.
	ErrNoCertsFound = errors.New("tlsroots: no certificates found in PEM file")

	// ErrNoCertsInDir is returned when a CA directory holds no usable certificates.
	ErrNoCertsInDir = errors.New("tlsroots: no certificates found in directory")
)

// Pool manages a pool of trusted root certificates.
type Pool struct {
	certPool *x509.CertPool
	added    int
}

// NewPool creates a new certificate pool with system roots.
// If system roots cannot be loaded, it creates an empty pool.
func NewPool() (*Pool, error) {
	pool, err := x509.SystemCertPool()
	if err != nil {
		pool = x509.NewCertPool()
	}
	return &Pool{certPool: pool}, nil
}

// NewEmptyPool creates a new empty certificate pool without system roots.
func NewEmptyPool() *Pool {
	return &Pool{certPool: x509.NewCertPool()}
}

// Added reports how many certificates were added on top of the base pool.
func (p *Pool) Added() int {
	return p.added
}

// AddCertFile adds certificates from a PEM file.
func (p *Pool) AddCertFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("tlsroots: read cert file %s: %w", path, err)
	}
	if err := p.AddCertPEM(data); err != nil {
		return fmt.Errorf("%w (%s)", err, path)
	}
	return nil
}

// AddCertPEM adds certificates from PEM-encoded data. Non-certificate
// blocks such as private keys are skipped.
func (p *Pool) AddCertPEM(pemData []byte) error {
	var certsAdded int

	for len(pemData) > 0 {
		var block *pem.Block
		block, pemData = pem.Decode(pemData)
		if block == nil {
			break
		}
		if block.Type != "CERTIFICATE" {
			continue
		}

		cert, err := x509.ParseCertificate(block.Bytes)
		if err != nil {
			return fmt.Errorf("tlsroots: parse certificate: %w", err)
		}
		p.AddCert(cert)
		certsAdded++
	}

	if certsAdded == 0 {
		return ErrNoCertsFound
	}
	return nil
}

// AddCert adds a certificate directly.
func (p *Pool) AddCert(cert *x509.Certificate) {
	p.certPool.AddCert(cert)
	p.added++
}

// AddCertDir adds every .pem, .crt and .cer file in dir. Files that fail
// to parse are skipped; a directory with nothing usable is an error.
func (p *Pool) AddCertDir(dir string) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return fmt.Errorf("tlsroots: read dir %s: %w", dir, err)
	}

	before := p.added
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		switch strings.ToLower(filepath.Ext(entry.Name())) {
		case ".pem", ".crt", ".cer":
			_ = p.AddCertFile(filepath.Join(dir, entry.Name()))
		}
	}

	if p.added == before {
		return fmt.Errorf("%w: %s", ErrNoCertsInDir, dir)
	}
	return nil
}

// AddPath adds a CA bundle file or a directory of certificates.
func (p *Pool) AddPath(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("tlsroots: stat %s: %w", path, err)
	}
	if info.IsDir() {
		return p.AddCertDir(path)
	}
	return p.AddCertFile(path)
}

// Pool returns the underlying x509.CertPool.
func (p *Pool) Pool() *x509.CertPool {
	return p.certPool
}

// TLSConfig creates a TLS config using this pool as root CAs.
func (p *Pool) TLSConfig() *tls.Config {
	return &tls.Config{
		RootCAs:    p.certPool,
		MinVersion: tls.VersionTLS12,
	}
}

// ClientOptions selects how the CLI verifies the gateway certificate.
type ClientOptions struct {
	// CAPath is an extra CA bundle or directory trusted alongside the system roots.
	CAPath string
	// ServerName overrides the name checked against the certificate.
	ServerName string
	// InsecureSkipVerify disables certificate verification entirely.
	InsecureSkipVerify bool
}

// ClientConfig builds the client-side TLS config for opts. It returns nil
// when opts asks for nothing beyond the defaults, so callers can keep the
// transport's own TLS settings.
func ClientConfig(opts ClientOptions) (*tls.Config, error) {
	if opts.CAPath == "" && opts.ServerName == "" && !opts.InsecureSkipVerify {
		return nil, nil
	}

	pool, err := NewPool()
	if err != nil {
		return nil, err
	}
	if opts.CAPath != "" {
		if err := pool.AddPath(opts.CAPath); err != nil {
			return nil, err
		}
	}

	cfg := pool.TLSConfig()
	cfg.ServerName = opts.ServerName
	cfg.InsecureSkipVerify = opts.InsecureSkipVerify //nolint:gosec // opt-in for development gateways
	return cfg, nil
}
