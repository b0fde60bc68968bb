package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/antibyte/lexana/pkg/api"
	"github.com/antibyte/lexana/pkg/auth"
	"github.com/antibyte/lexana/pkg/configuration"
	"github.com/antibyte/lexana/pkg/history"
	"github.com/antibyte/lexana/pkg/logger"
	tlsmanager "github.com/antibyte/lexana/pkg/tls"
)

func main() {
	// Initialize configuration (before all other initializations)
	configPath := "settings.cfg"
	if err := configuration.Initialize(configPath); err != nil {
		fmt.Printf("Error initializing configuration: %v\n", err)
		return
	}

	// Initialize logger
	if err := logger.Initialize(); err != nil {
		fmt.Printf("Error initializing logger: %v\n", err)
		return
	}
	defer logger.Close()
	logger.ConfigInfo("System started - Configuration loaded from: %s", configPath)

	// History database (optional)
	var store *history.Store
	if configuration.GetBool("Database", "history_enabled", true) {
		dbPath := configuration.GetString("Database", "path", "lexana.db")
		var err error
		store, err = history.Open(dbPath)
		if err != nil {
			logger.Fatal(logger.AreaDatabase, "Database initialization failed: %v", err)
		}
		defer store.Close()
		logger.Info(logger.AreaDatabase, "History database ready: %s", dbPath)

		// Seed the admin credential from the environment on first start
		if password := os.Getenv("LEXANA_ADMIN_PASSWORD"); password != "" {
			if err := store.SetAdminPassword(password); err != nil {
				logger.Error(logger.AreaDatabase, "Admin credential setup failed: %v", err)
			}
		}
	} else {
		logger.Info(logger.AreaDatabase, "History logging disabled by configuration")
	}

	handler := api.NewHandler(store)

	// Analysis API routes
	http.HandleFunc("/api/analyze", handler.HandleAnalyze)
	http.HandleFunc("/api/detect", handler.HandleDetect)
	http.HandleFunc("/api/languages", handler.HandleLanguages)
	http.HandleFunc("/api/history", func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodDelete {
			handler.HandleClearHistory(w, r)
			return
		}
		auth.RequireSession(handler.HandleHistory)(w, r)
	})

	// Session API routes
	http.HandleFunc("/api/auth/session", auth.HandleCreateSession)
	http.HandleFunc("/api/auth/validate", auth.HandleValidateSession)

	// Live analysis over WebSocket
	http.HandleFunc("/ws/analyze", handler.HandleLiveAnalyze)

	// Add favicon handler to prevent 404 errors
	http.HandleFunc("/favicon.ico", func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	})

	// Static frontend - MUST be registered LAST to not override API routes
	staticDir := configuration.GetString("Server", "static_dir", "web")
	http.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/" {
			http.ServeFile(w, r, staticDir+"/index.html")
			return
		}
		http.FileServer(http.Dir(staticDir)).ServeHTTP(w, r)
	})

	// Initialize TLS manager
	tlsManager, err := tlsmanager.NewManager()
	if err != nil {
		logger.Fatal(logger.AreaSecurity, "TLS manager initialization failed: %v", err)
		return
	}

	if tlsManager.IsEnabled() {
		startTLSServers(tlsManager)
	} else {
		startHTTPServer(tlsManager.GetHTTPPort())
	}
}

func newServer(addr string) *http.Server {
	return &http.Server{
		Addr:         addr,
		ReadTimeout:  configuration.GetDuration("Server", "read_timeout", 15*time.Second),
		WriteTimeout: configuration.GetDuration("Server", "write_timeout", 15*time.Second),
	}
}

// runWithShutdown blocks until the server stops or a termination signal
// arrives, then drains in-flight requests within the shutdown timeout.
func runWithShutdown(server *http.Server, serve func() error) {
	errorChan := make(chan error, 1)
	go func() {
		errorChan <- serve()
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errorChan:
		if err != nil && err != http.ErrServerClosed {
			logger.Fatal(logger.AreaGeneral, "Server failed: %v", err)
		}
	case sig := <-sigChan:
		logger.Info(logger.AreaGeneral, "Received %v, shutting down", sig)
		ctx, cancel := context.WithTimeout(context.Background(),
			configuration.GetDuration("Server", "shutdown_timeout", 10*time.Second))
		defer cancel()
		if err := server.Shutdown(ctx); err != nil {
			logger.Error(logger.AreaGeneral, "Shutdown error: %v", err)
		}
	}
}

// startHTTPServer starts the plain HTTP server
func startHTTPServer(port string) {
	listenAddr := configuration.GetString("Server", "listen_address", "0.0.0.0")
	addr := listenAddr + ":" + port
	logger.Info(logger.AreaGeneral, "Starting HTTP server on %s", addr)

	server := newServer(addr)
	runWithShutdown(server, server.ListenAndServe)
}

// startTLSServers starts the HTTPS server plus, when needed, a plain HTTP
// listener for Let's Encrypt challenges and redirects.
func startTLSServers(tlsManager *tlsmanager.Manager) {
	httpPort := tlsManager.GetHTTPPort()
	httpsPort := tlsManager.GetHTTPSPort()

	logger.Info(logger.AreaSecurity, "Starting TLS-enabled servers - HTTP: %s, HTTPS: %s", httpPort, httpsPort)

	if tlsManager.NeedsHTTPServer() {
		go func() {
			httpHandler := tlsManager.GetHTTPHandler()
			if httpHandler == nil {
				httpHandler = tlsManager.GetHTTPSRedirectHandler()
			}
			if httpHandler != nil {
				logger.Info(logger.AreaSecurity, "Starting HTTP server for Let's Encrypt challenges/redirects on port %s", httpPort)
				if err := http.ListenAndServe(":"+httpPort, httpHandler); err != nil {
					logger.Error(logger.AreaSecurity, "HTTP server error: %v", err)
				}
			}
		}()
	}

	server := newServer(":" + httpsPort)
	server.TLSConfig = tlsManager.GetTLSConfig()

	runWithShutdown(server, func() error {
		if tlsManager.GetTLSConfig() != nil {
			// Let's Encrypt mode
			logger.Info(logger.AreaSecurity, "HTTPS server using Let's Encrypt certificates")
			return server.ListenAndServeTLS("", "")
		}
		// Manual certificate mode
		certFile, keyFile := tlsManager.GetCertFiles()
		logger.Info(logger.AreaSecurity, "HTTPS server using manual certificates: %s, %s", certFile, keyFile)
		return server.ListenAndServeTLS(certFile, keyFile)
	})
}
