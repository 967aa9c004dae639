package server

import (
	"crypto/tls"
	"fmt"
	"net/http"
)

// configureTLS sets up TLS configuration based on the mode
func (s *Server) configureTLS(httpServer *http.Server) error {
	switch s.TLSConfig.Mode {
	case "", "disabled":
		s.Logger.Info("TLS disabled, serving plain HTTP", "address", httpServer.Addr)
		return nil
	case "server", "mutual":
	default:
		return fmt.Errorf("invalid TLS mode: %s (must be 'disabled', 'server', or 'mutual')", s.TLSConfig.Mode)
	}

	certManager := NewCertificateManager(s.TLSConfig, s.Observability.GetMetrics(), s.Logger)
	if err := certManager.Start(); err != nil {
		return fmt.Errorf("failed to set up TLS: %w", err)
	}
	s.CertificateManager = certManager

	tlsConfig, err := s.buildTLSConfig()
	if err != nil {
		_ = certManager.Stop()
		return fmt.Errorf("failed to set up TLS: %w", err)
	}
	httpServer.TLSConfig = tlsConfig

	s.Logger.Info("TLS enabled",
		"mode", s.TLSConfig.Mode,
		"min_version", s.TLSConfig.MinVersion,
		"auto_reload", s.TLSConfig.WatchesCertificateFiles())
	return nil
}

// buildTLSConfig creates the TLS configuration around the certificate manager
func (s *Server) buildTLSConfig() (*tls.Config, error) {
	tlsConfig := &tls.Config{
		MinVersion:     tlsVersion(s.TLSConfig.MinVersion),
		GetCertificate: s.CertificateManager.GetServerCertificate,
	}

	if len(s.TLSConfig.CipherSuites) > 0 {
		suites, err := cipherSuiteIDs(s.TLSConfig.CipherSuites)
		if err != nil {
			return nil, err
		}
		tlsConfig.CipherSuites = suites
	}

	if s.TLSConfig.Mode != "mutual" {
		tlsConfig.ClientAuth = tls.NoClientCert
		return tlsConfig, nil
	}

	tlsConfig.ClientAuth = clientAuthPolicy(s.TLSConfig.ClientAuthPolicy)
	tlsConfig.ClientCAs = s.CertificateManager.CACertPool()
	base := tlsConfig.Clone()
	tlsConfig.GetConfigForClient = func(*tls.ClientHelloInfo) (*tls.Config, error) {
		cfg := base.Clone()
		cfg.ClientCAs = s.CertificateManager.CACertPool()
		return cfg, nil
	}
	return tlsConfig, nil
}

func tlsVersion(v string) uint16 {
	if v == "1.3" {
		return tls.VersionTLS13
	}
	return tls.VersionTLS12
}

func clientAuthPolicy(policy string) tls.ClientAuthType {
	switch policy {
	case "request":
		return tls.RequestClientCert
	case "verify":
		return tls.VerifyClientCertIfGiven
	default:
		return tls.RequireAndVerifyClientCert
	}
}

// cipherSuiteIDs resolves configured suite names against the Go TLS stack
func cipherSuiteIDs(names []string) ([]uint16, error) {
	known := make(map[string]uint16)
	for _, suite := range tls.CipherSuites() {
		known[suite.Name] = suite.ID
	}

	ids := make([]uint16, 0, len(names))
	for _, name := range names {
		id, ok := known[name]
		if !ok {
			return nil, fmt.Errorf("unsupported cipher suite: %s", name)
		}
		ids = append(ids, id)
	}
	return ids, nil
}
