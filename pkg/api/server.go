package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/cbodonnell/snapsync/pkg/api/handlers"
	"github.com/cbodonnell/snapsync/pkg/api/middleware"
	authhandlers "github.com/cbodonnell/snapsync/pkg/auth/handlers"
	authproviders "github.com/cbodonnell/snapsync/pkg/auth/providers"
	"github.com/cbodonnell/snapsync/pkg/log"
	"github.com/gorilla/mux"
)

type APIServer struct {
	server *http.Server
	tls    *TLSConfig
}

type TLSConfig struct {
	CertFile string
	KeyFile  string
}

type NewAPIServerOptions struct {
	Port         int
	TLS          *TLSConfig
	AuthProvider authproviders.AuthProvider
	// AuthHandler serves the /auth routes. They are not mounted when nil.
	AuthHandler authhandlers.AuthHandler
	Clients     handlers.ClientFactory
}

// NewRouter creates the http.Handler serving the snapshot API
func NewRouter(opts NewAPIServerOptions) http.Handler {
	router := mux.NewRouter().UseEncodedPath()
	router.Use(middleware.NewLoggingMiddleware())

	if opts.AuthHandler != nil {
		auth := router.PathPrefix("/auth").Subrouter()
		auth.HandleFunc("/register", opts.AuthHandler.HandleRegister()).Methods(http.MethodPost)
		auth.HandleFunc("/login", opts.AuthHandler.HandleLogin()).Methods(http.MethodPost)
		auth.HandleFunc("/refresh", opts.AuthHandler.HandleRefresh()).Methods(http.MethodPost)
	}

	api := router.NewRoute().Subrouter()
	api.Use(middleware.NewAuthMiddleware(opts.AuthProvider))
	api.HandleFunc("/snapshots", handlers.HandleListSnapshots(opts.Clients)).Methods(http.MethodGet)
	api.HandleFunc("/snapshots/limits", handlers.HandleGetLimits(opts.Clients)).Methods(http.MethodGet)
	api.HandleFunc("/snapshots/{name}/open", handlers.HandleOpenSnapshot(opts.Clients)).Methods(http.MethodPost)
	api.HandleFunc("/snapshots/{name}/commit", handlers.HandleCommitSnapshot(opts.Clients)).Methods(http.MethodPost)
	api.HandleFunc("/snapshots/{name}/resolve", handlers.HandleResolveConflict(opts.Clients)).Methods(http.MethodPost)
	api.HandleFunc("/snapshots/{name}", handlers.HandleDeleteSnapshot(opts.Clients)).Methods(http.MethodDelete)
	api.HandleFunc("/conflicts/{conflictID}/resolve", handlers.HandleResolveConflictByID(opts.Clients)).Methods(http.MethodPost)

	return router
}

// NewAPIServer creates a new http.Server for handling API requests
func NewAPIServer(opts NewAPIServerOptions) *APIServer {
	server := &http.Server{
		Addr:    fmt.Sprintf(":%d", opts.Port),
		Handler: NewRouter(opts),
	}
	return &APIServer{
		server: server,
		tls:    opts.TLS,
	}
}

// Start starts the APIServer
func (s *APIServer) Start() {
	var listenAndServe func() error
	if s.tls != nil {
		log.Info("API server listening on %s with TLS", s.server.Addr)
		listenAndServe = func() error {
			return s.server.ListenAndServeTLS(s.tls.CertFile, s.tls.KeyFile)
		}
	} else {
		log.Info("API server listening on %s", s.server.Addr)
		listenAndServe = s.server.ListenAndServe
	}
	if err := listenAndServe(); err != nil {
		if errors.Is(err, http.ErrServerClosed) {
			log.Info("API server closed")
			return
		}
		log.Error("API server error: %v", err)
	}
}

// Stop stops the APIServer
func (s *APIServer) Stop(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}
