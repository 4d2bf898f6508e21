// Copyright (c) 2025
// Author: momentics <momentics@gmail.com>

package tcp

import (
	"crypto/tls"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// LetsEncryptRoot is the directory holding per-domain certbot output.
var LetsEncryptRoot = "/etc/letsencrypt/live"

// CertReloader serves a key pair loaded from disk and reloads it when the
// certificate file's modification time changes, so renewed certificates
// are picked up without restarting the listener.
type CertReloader struct {
	certFile string
	keyFile  string

	mu      sync.RWMutex
	cert    *tls.Certificate
	modTime time.Time
}

// NewCertReloader loads the key pair once and returns the reloader.
func NewCertReloader(certFile, keyFile string) (*CertReloader, error) {
	if certFile == "" || keyFile == "" {
		return nil, fmt.Errorf("certfile and keyfile must be specified")
	}
	r := &CertReloader{certFile: certFile, keyFile: keyFile}
	if err := r.reload(); err != nil {
		return nil, err
	}
	return r, nil
}

func (r *CertReloader) reload() error {
	st, err := os.Stat(r.certFile)
	if err != nil {
		return fmt.Errorf("stat certificate: %w", err)
	}
	cert, err := tls.LoadX509KeyPair(r.certFile, r.keyFile)
	if err != nil {
		return fmt.Errorf("failed to load certificates: %w", err)
	}
	r.mu.Lock()
	r.cert = &cert
	r.modTime = st.ModTime()
	r.mu.Unlock()
	return nil
}

// GetCertificate implements tls.Config.GetCertificate. A failed reload
// keeps serving the previous certificate.
func (r *CertReloader) GetCertificate(*tls.ClientHelloInfo) (*tls.Certificate, error) {
	if st, err := os.Stat(r.certFile); err == nil {
		r.mu.RLock()
		stale := st.ModTime().After(r.modTime)
		r.mu.RUnlock()
		if stale {
			_ = r.reload()
		}
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.cert, nil
}

// ServerTLSConfig returns the server-side TLS settings around getCert.
func ServerTLSConfig(getCert func(*tls.ClientHelloInfo) (*tls.Certificate, error)) *tls.Config {
	return &tls.Config{
		GetCertificate: getCert,
		MinVersion:     tls.VersionTLS12,
		CurvePreferences: []tls.CurveID{
			tls.X25519,
			tls.CurveP256,
		},
		NextProtos: []string{"http/1.1"},
	}
}

// LoadTLSConfig builds a server TLS config from PEM certificate and key files.
func LoadTLSConfig(certFile, keyFile string) (*tls.Config, error) {
	r, err := NewCertReloader(certFile, keyFile)
	if err != nil {
		return nil, err
	}
	return ServerTLSConfig(r.GetCertificate), nil
}

// LetsEncryptTLSConfig loads fullchain.pem and privkey.pem from the certbot
// directory of domain under LetsEncryptRoot.
func LetsEncryptTLSConfig(domain string) (*tls.Config, error) {
	dir := filepath.Join(LetsEncryptRoot, domain)
	if _, err := os.Stat(dir); err != nil {
		return nil, fmt.Errorf("letsencrypt dir for %q: %w", domain, err)
	}
	cfg, err := LoadTLSConfig(filepath.Join(dir, "fullchain.pem"), filepath.Join(dir, "privkey.pem"))
	if err != nil {
		return nil, err
	}
	cfg.ServerName = domain
	return cfg, nil
}
