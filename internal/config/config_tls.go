package config

import "fmt"

// pemSource names one PEM input that may come from a file or from inline content
type pemSource struct {
	name    string
	file    string
	content string
}

func (s pemSource) set() bool { return s.file != "" || s.content != "" }

func (s pemSource) validate() error {
	if s.file != "" && s.content != "" {
		return fmt.Errorf("cannot specify both %sFile and %sContent - choose one", s.name, s.name)
	}
	return nil
}

// ValidateTLSConfig validates the TLS configuration
func (c *Config) ValidateTLSConfig() error {
	tls := c.Server.TLS

	switch tls.MinVersion {
	case "", "1.2", "1.3":
	default:
		return fmt.Errorf("invalid TLS minVersion: %s (must be '1.2' or '1.3')", tls.MinVersion)
	}

	cert := pemSource{"cert", tls.CertFile, tls.CertContent}
	key := pemSource{"key", tls.KeyFile, tls.KeyContent}
	ca := pemSource{"ca", tls.CAFile, tls.CAContent}

	switch tls.Mode {
	case "disabled":
		return nil
	case "server", "mutual":
	default:
		return fmt.Errorf("invalid TLS mode: %s (must be 'disabled', 'server', or 'mutual')", tls.Mode)
	}

	if !cert.set() || !key.set() {
		return fmt.Errorf("TLS certificate and key are required for %s mode (provide either files or content)", tls.Mode)
	}
	sources := []pemSource{cert, key}

	if tls.Mode == "mutual" {
		if !ca.set() {
			return fmt.Errorf("CA certificate is required for mutual TLS mode (provide either caFile or caContent)")
		}
		switch tls.ClientAuthPolicy {
		case "require", "request", "verify", "":
		default:
			return fmt.Errorf("invalid clientAuthPolicy: %s (must be 'require', 'request', or 'verify')", tls.ClientAuthPolicy)
		}
		sources = append(sources, ca)
	}

	for _, s := range sources {
		if err := s.validate(); err != nil {
			return err
		}
	}

	if tls.AutoReload.Enabled && tls.AutoReload.DebounceDelay < 0 {
		return fmt.Errorf("TLS autoReload debounceDelay must not be negative")
	}
	return nil
}

// WatchesCertificateFiles reports whether certificate files should be watched for changes
func (t TLSConfig) WatchesCertificateFiles() bool {
	return t.Mode != "disabled" && t.AutoReload.Enabled && t.CertFile != "" && t.KeyFile != ""
}
