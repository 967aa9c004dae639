package server

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"fmt"
	"os"
	"sync"
	"time"

	"resumefit/internal/config"
	"resumefit/internal/errors"
	"resumefit/internal/observability"
	"resumefit/internal/watch"
)

// Certificates expiring within these windows are reported on /health
const (
	criticalExpiry = 24 * time.Hour
	warningExpiry  = 7 * 24 * time.Hour
)

// CertificateManager serves the current TLS material and reloads it when the
// certificate files change.
type CertificateManager struct {
	mu sync.RWMutex

	serverCert       *tls.Certificate
	caCertPool       *x509.CertPool
	serverCertExpiry time.Time

	config  config.TLSConfig
	watcher *watch.Watcher
	metrics *observability.Metrics
	logger  *errors.Logger

	stats CertificateStats
}

// CertificateStats counts reload attempts
type CertificateStats struct {
	ReloadCount        int64     `json:"reloadCount"`
	ReloadFailureCount int64     `json:"reloadFailureCount"`
	LastReloadTime     time.Time `json:"lastReloadTime"`
	LastReloadError    string    `json:"lastReloadError,omitempty"`
}

// NewCertificateManager creates a manager for tlsConfig. metrics may be nil.
func NewCertificateManager(tlsConfig config.TLSConfig, metrics *observability.Metrics, logger *errors.Logger) *CertificateManager {
	return &CertificateManager{
		config:  tlsConfig,
		metrics: metrics,
		logger:  logger,
	}
}

// Start loads the certificates and, for file-based material with auto-reload, starts watching.
func (cm *CertificateManager) Start() error {
	if err := cm.Reload(); err != nil {
		return fmt.Errorf("failed to load initial certificates: %w", err)
	}

	if !cm.config.WatchesCertificateFiles() {
		return nil
	}

	files := []string{cm.config.CertFile, cm.config.KeyFile}
	if cm.config.Mode == "mutual" && cm.config.CAContent == "" {
		files = append(files, cm.config.CAFile)
	}
	cm.watcher = watch.New(files, cm.config.AutoReload.DebounceDelay, cm.triggerReload, cm.logger)
	if err := cm.watcher.Start(); err != nil {
		return fmt.Errorf("failed to start certificate watcher: %w", err)
	}
	return nil
}

// Stop stops the file watcher if one is running
func (cm *CertificateManager) Stop() error {
	if cm.watcher == nil {
		return nil
	}
	return cm.watcher.Stop()
}

// GetServerCertificate returns the current server certificate for TLS handshakes
func (cm *CertificateManager) GetServerCertificate(hello *tls.ClientHelloInfo) (*tls.Certificate, error) {
	cm.mu.RLock()
	defer cm.mu.RUnlock()

	if cm.serverCert == nil {
		return nil, fmt.Errorf("no server certificate available")
	}
	if time.Now().After(cm.serverCertExpiry) {
		cm.logger.Warn("Serving expired server certificate",
			"expiry", cm.serverCertExpiry,
			"server_name", hello.ServerName)
	}
	return cm.serverCert, nil
}

// CACertPool returns the current pool used to verify client certificates
func (cm *CertificateManager) CACertPool() *x509.CertPool {
	cm.mu.RLock()
	defer cm.mu.RUnlock()
	return cm.caCertPool
}

// Reload reads the certificate material again. On failure the previous material stays in use.
func (cm *CertificateManager) Reload() error {
	cert, expiry, err := loadServerCertificate(cm.config)
	var pool *x509.CertPool
	if err == nil && cm.config.Mode == "mutual" {
		pool, err = loadCACertificatePool(cm.config)
	}

	cm.mu.Lock()
	cm.stats.ReloadCount++
	cm.stats.LastReloadTime = time.Now()
	if err != nil {
		cm.stats.ReloadFailureCount++
		cm.stats.LastReloadError = err.Error()
	} else {
		cm.serverCert = &cert
		cm.serverCertExpiry = expiry
		cm.caCertPool = pool
		cm.stats.LastReloadError = ""
	}
	cm.mu.Unlock()

	cm.metrics.RecordCertReload(context.Background(), err == nil)
	if err != nil {
		return err
	}
	cm.logger.Info("Certificates loaded", "server_cert_expiry", expiry)
	return nil
}

func (cm *CertificateManager) triggerReload() {
	cm.logger.Info("Certificate reload triggered by file watcher")
	if err := cm.Reload(); err != nil {
		cm.logger.LogError(err, "Failed to reload certificates")
	}
}

// CheckExpiry returns the time until the server certificate expires
func (cm *CertificateManager) CheckExpiry() (time.Duration, error) {
	cm.mu.RLock()
	defer cm.mu.RUnlock()

	if cm.serverCertExpiry.IsZero() {
		return 0, fmt.Errorf("no certificates loaded")
	}
	return time.Until(cm.serverCertExpiry), nil
}

// Stats returns reload counters
func (cm *CertificateManager) Stats() CertificateStats {
	cm.mu.RLock()
	defer cm.mu.RUnlock()
	return cm.stats
}

// loadServerCertificate loads the key pair from content (preferred) or files
func loadServerCertificate(cfg config.TLSConfig) (tls.Certificate, time.Time, error) {
	var cert tls.Certificate
	var err error
	switch {
	case cfg.CertContent != "" && cfg.KeyContent != "":
		cert, err = tls.X509KeyPair([]byte(cfg.CertContent), []byte(cfg.KeyContent))
		if err != nil {
			return tls.Certificate{}, time.Time{}, fmt.Errorf("failed to load server cert/key from content: %w", err)
		}
	case cfg.CertFile != "" && cfg.KeyFile != "":
		cert, err = tls.LoadX509KeyPair(cfg.CertFile, cfg.KeyFile)
		if err != nil {
			return tls.Certificate{}, time.Time{}, fmt.Errorf("failed to load server cert/key from files: %w", err)
		}
	default:
		return tls.Certificate{}, time.Time{}, fmt.Errorf("TLS certificate and key are required (provide either files or content)")
	}

	leaf, err := x509.ParseCertificate(cert.Certificate[0])
	if err != nil {
		return tls.Certificate{}, time.Time{}, fmt.Errorf("failed to parse server certificate: %w", err)
	}
	cert.Leaf = leaf
	return cert, leaf.NotAfter, nil
}

// loadCACertificatePool loads the CA bundle used for client verification
func loadCACertificatePool(cfg config.TLSConfig) (*x509.CertPool, error) {
	var caCert []byte
	switch {
	case cfg.CAContent != "":
		caCert = []byte(cfg.CAContent)
	case cfg.CAFile != "":
		data, err := os.ReadFile(cfg.CAFile)
		if err != nil {
			return nil, fmt.Errorf("failed to read CA file: %w", err)
		}
		caCert = data
	default:
		return nil, fmt.Errorf("CA certificate is required for mutual TLS mode (provide either caFile or caContent)")
	}

	pool := x509.NewCertPool()
	if !pool.AppendCertsFromPEM(caCert) {
		return nil, fmt.Errorf("failed to parse CA certificate")
	}
	return pool, nil
}
