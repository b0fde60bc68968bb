package tls

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestManagerDisabledByDefault(t *testing.T) {
	// Without a configuration file every [TLS] key falls back to its
	// default, which leaves TLS off.
	manager, err := NewManager()
	if err != nil {
		t.Fatalf("Failed to create TLS manager: %v", err)
	}

	if manager.IsEnabled() {
		t.Error("TLS should be disabled by default")
	}
	if manager.GetTLSConfig() != nil {
		t.Error("Disabled manager must not return a TLS config")
	}
	if manager.NeedsHTTPServer() {
		t.Error("Disabled manager must not request an HTTP listener")
	}
	if manager.GetHTTPPort() == "" || manager.GetHTTPSPort() == "" {
		t.Error("Ports should fall back to defaults")
	}
}

func TestValidateConfigLetsEncrypt(t *testing.T) {
	cases := []struct {
		name    string
		config  Config
		wantErr bool
	}{
		{
			name: "missing domain",
			config: Config{
				EnableTLS:         true,
				EnableLetsEncrypt: true,
				LetsEncryptEmail:  "admin@lexana.dev",
			},
			wantErr: true,
		},
		{
			name: "missing email",
			config: Config{
				EnableTLS:         true,
				EnableLetsEncrypt: true,
				Domain:            "lexana.dev",
			},
			wantErr: true,
		},
		{
			name: "complete",
			config: Config{
				EnableTLS:         true,
				EnableLetsEncrypt: true,
				Domain:            "lexana.dev",
				LetsEncryptEmail:  "admin@lexana.dev",
			},
			wantErr: false,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			manager := &Manager{config: &tc.config}
			err := manager.validateConfig()
			if tc.wantErr && err == nil {
				t.Error("Expected validation error")
			}
			if !tc.wantErr && err != nil {
				t.Errorf("Unexpected validation error: %v", err)
			}
		})
	}
}

func TestHTTPSRedirectHandler(t *testing.T) {
	manager := &Manager{config: &Config{
		ForceHTTPSRedirect: true,
		HTTPSPort:          "8443",
	}}

	handler := manager.GetHTTPSRedirectHandler()
	if handler == nil {
		t.Fatal("Expected a redirect handler")
	}

	req := httptest.NewRequest("GET", "http://lexana.dev:8080/api/languages", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusMovedPermanently {
		t.Fatalf("Expected 301, got %d", rec.Code)
	}
	location := rec.Header().Get("Location")
	if location != "https://lexana.dev:8443/api/languages" {
		t.Errorf("Unexpected redirect target: %s", location)
	}
}

func TestRedirectHandlerAbsentWhenDisabled(t *testing.T) {
	manager := &Manager{config: &Config{ForceHTTPSRedirect: false}}
	if manager.GetHTTPSRedirectHandler() != nil {
		t.Error("Redirect handler must be nil when redirects are off")
	}
}
