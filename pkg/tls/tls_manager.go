// Package tls wires certificate handling for the HTTPS listener: either
// automatic Let's Encrypt issuance via autocert or manually provided
// certificate files, selected in the [TLS] configuration section.
package tls

import (
	"crypto/tls"
	"fmt"
	"net/http"
	"os"
	"strings"

	"golang.org/x/crypto/acme/autocert"

	"github.com/antibyte/lexana/pkg/configuration"
	"github.com/antibyte/lexana/pkg/logger"
)

// Manager handles TLS certificate management including Let's Encrypt.
type Manager struct {
	config      *Config
	autocertMgr *autocert.Manager
	tlsConfig   *tls.Config
	initialized bool
}

// Config holds the TLS options read from the [TLS] section.
type Config struct {
	EnableTLS          bool
	EnableLetsEncrypt  bool
	Domain             string
	LetsEncryptEmail   string
	CertCacheDir       string
	ForceHTTPSRedirect bool
	CertFile           string
	KeyFile            string
	HTTPPort           string
	HTTPSPort          string
}

// NewManager creates a TLS manager from the configuration.
func NewManager() (*Manager, error) {
	config := &Config{
		EnableTLS:          configuration.GetBool("TLS", "enable_tls", false),
		EnableLetsEncrypt:  configuration.GetBool("TLS", "enable_letsencrypt", false),
		Domain:             configuration.GetString("TLS", "domain", ""),
		LetsEncryptEmail:   configuration.GetString("TLS", "letsencrypt_email", ""),
		CertCacheDir:       configuration.GetString("TLS", "cert_cache_dir", "./certs"),
		ForceHTTPSRedirect: configuration.GetBool("TLS", "force_https_redirect", false),
		CertFile:           configuration.GetString("TLS", "cert_file", "./certs/server.crt"),
		KeyFile:            configuration.GetString("TLS", "key_file", "./certs/server.key"),
		HTTPPort:           configuration.GetString("TLS", "http_port", "8080"),
		HTTPSPort:          configuration.GetString("TLS", "https_port", "8443"),
	}

	manager := &Manager{config: config}

	if err := manager.validateConfig(); err != nil {
		return nil, fmt.Errorf("TLS configuration validation failed: %v", err)
	}

	if config.EnableTLS {
		if err := manager.initializeTLS(); err != nil {
			return nil, fmt.Errorf("TLS initialization failed: %v", err)
		}
	}

	return manager, nil
}

func (m *Manager) validateConfig() error {
	if !m.config.EnableTLS {
		return nil
	}
	if m.config.EnableLetsEncrypt {
		if strings.TrimSpace(m.config.Domain) == "" {
			return fmt.Errorf("domain is required when Let's Encrypt is enabled")
		}
		if strings.TrimSpace(m.config.LetsEncryptEmail) == "" {
			return fmt.Errorf("letsencrypt_email is required when Let's Encrypt is enabled")
		}
		if strings.Contains(m.config.Domain, "example.com") {
			logger.SecurityWarn("Using example domain - change this in production!")
		}
	} else {
		// Manual certificate mode - warn early about missing files
		if _, err := os.Stat(m.config.CertFile); os.IsNotExist(err) {
			logger.SecurityWarn("TLS certificate file not found: %s", m.config.CertFile)
		}
		if _, err := os.Stat(m.config.KeyFile); os.IsNotExist(err) {
			logger.SecurityWarn("TLS key file not found: %s", m.config.KeyFile)
		}
	}
	return nil
}

func (m *Manager) initializeTLS() error {
	if m.config.EnableLetsEncrypt {
		return m.initializeLetsEncrypt()
	}
	return m.initializeManualTLS()
}

func (m *Manager) initializeLetsEncrypt() error {
	logger.Info(logger.AreaSecurity, "Initializing Let's Encrypt for domain: %s", m.config.Domain)

	if err := os.MkdirAll(m.config.CertCacheDir, 0700); err != nil {
		return fmt.Errorf("failed to create certificate cache directory: %v", err)
	}

	m.autocertMgr = &autocert.Manager{
		Cache:      autocert.DirCache(m.config.CertCacheDir),
		Prompt:     autocert.AcceptTOS,
		Email:      m.config.LetsEncryptEmail,
		HostPolicy: autocert.HostWhitelist(m.config.Domain, "www."+m.config.Domain),
	}

	m.tlsConfig = &tls.Config{
		GetCertificate: func(clientHello *tls.ClientHelloInfo) (*tls.Certificate, error) {
			serverName := clientHello.ServerName
			if serverName == "" {
				logger.SecurityWarn("TLS handshake without SNI from %s, using default domain", clientHello.Conn.RemoteAddr())
				serverName = m.config.Domain
			}

			if serverName != m.config.Domain && serverName != "www."+m.config.Domain {
				logger.SecurityWarn("TLS request for unauthorized domain: %s from %s", serverName, clientHello.Conn.RemoteAddr())
				return nil, fmt.Errorf("unauthorized domain: %s", serverName)
			}

			cert, err := m.autocertMgr.GetCertificate(clientHello)
			if err != nil {
				logger.SecurityWarn("Failed to get certificate for %s: %v", serverName, err)
				return nil, fmt.Errorf("certificate error for %s: %v", serverName, err)
			}
			return cert, nil
		},
		NextProtos: []string{"h2", "http/1.1"},
		MinVersion: tls.VersionTLS12,
	}

	m.initialized = true
	logger.Info(logger.AreaSecurity, "Let's Encrypt TLS manager initialized successfully")
	return nil
}

func (m *Manager) initializeManualTLS() error {
	logger.Info(logger.AreaSecurity, "Initializing manual TLS with cert: %s, key: %s", m.config.CertFile, m.config.KeyFile)

	if _, err := os.Stat(m.config.CertFile); os.IsNotExist(err) {
		return fmt.Errorf("certificate file not found: %s", m.config.CertFile)
	}
	if _, err := os.Stat(m.config.KeyFile); os.IsNotExist(err) {
		return fmt.Errorf("key file not found: %s", m.config.KeyFile)
	}
	m.initialized = true
	logger.Info(logger.AreaSecurity, "Manual TLS manager initialized successfully")
	return nil
}

// GetTLSConfig returns the TLS configuration for the HTTPS server. Nil in
// manual mode (the server loads cert files itself) and when TLS is off.
func (m *Manager) GetTLSConfig() *tls.Config {
	if !m.initialized || !m.config.EnableTLS {
		return nil
	}
	return m.tlsConfig
}

// GetHTTPHandler returns an HTTP handler for Let's Encrypt challenges.
func (m *Manager) GetHTTPHandler() http.Handler {
	if m.autocertMgr != nil {
		return m.autocertMgr.HTTPHandler(nil)
	}
	return nil
}

// NeedsHTTPServer reports whether a plain HTTP listener is still needed
// (ACME challenges or HTTPS redirects).
func (m *Manager) NeedsHTTPServer() bool {
	return m.config.EnableTLS && (m.config.EnableLetsEncrypt || m.config.ForceHTTPSRedirect)
}

// GetHTTPSRedirectHandler returns a handler that redirects HTTP to HTTPS.
func (m *Manager) GetHTTPSRedirectHandler() http.Handler {
	if !m.config.ForceHTTPSRedirect {
		return nil
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		host := r.Host
		if strings.Contains(host, ":") {
			host = strings.Split(host, ":")[0]
		}

		httpsURL := fmt.Sprintf("https://%s", host)
		if m.config.HTTPSPort != "443" {
			httpsURL = fmt.Sprintf("https://%s:%s", host, m.config.HTTPSPort)
		}
		httpsURL += r.RequestURI

		http.Redirect(w, r, httpsURL, http.StatusMovedPermanently)
	})
}

// IsEnabled reports whether TLS is enabled.
func (m *Manager) IsEnabled() bool {
	return m.config.EnableTLS
}

// GetHTTPPort returns the HTTP port.
func (m *Manager) GetHTTPPort() string {
	return m.config.HTTPPort
}

// GetHTTPSPort returns the HTTPS port.
func (m *Manager) GetHTTPSPort() string {
	return m.config.HTTPSPort
}

// GetCertFiles returns the certificate and key file paths for manual TLS.
func (m *Manager) GetCertFiles() (string, string) {
	return m.config.CertFile, m.config.KeyFile
}
