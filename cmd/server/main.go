package main

import (
	"context"
	"flag"
	"fmt"
	"net/url"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/cbodonnell/snapsync/pkg/api"
	authhandlers "github.com/cbodonnell/snapsync/pkg/auth/handlers"
	authproviders "github.com/cbodonnell/snapsync/pkg/auth/providers"
	"github.com/cbodonnell/snapsync/pkg/log"
	"github.com/cbodonnell/snapsync/pkg/repositories"
	"github.com/cbodonnell/snapsync/pkg/snapshots"
	"github.com/cbodonnell/snapsync/pkg/store"
	"github.com/cbodonnell/snapsync/pkg/version"
)

func main() {
	port := flag.Int("port", 9090, "port to listen on")
	logLevel := flag.String("log-level", "info", "Log level")
	devTokens := flag.String("dev-tokens", "", "comma-separated token=uid pairs accepted instead of Firebase tokens")
	flag.Parse()

	parsedLogLevel, err := log.ParseLogLevel(*logLevel)
	if err != nil {
		panic(fmt.Sprintf("Failed to parse log level: %v", err))
	}

	logger := log.New(os.Stdout, "", log.DefaultLoggerFlag, parsedLogLevel)
	log.SetDefaultLogger(logger)
	log.Info("Log level set to %s", parsedLogLevel)

	log.Info("Starting snapshot server version %s", version.Get())
	ctx := context.Background()

	apiServerOpts := api.NewAPIServerOptions{
		Port: *port,
	}

	if *devTokens != "" {
		tokens, err := parseDevTokens(*devTokens)
		if err != nil {
			panic(fmt.Sprintf("Failed to parse dev tokens: %v", err))
		}
		log.Warn("Accepting %d static dev tokens, do not use this in production", len(tokens))
		apiServerOpts.AuthProvider = authproviders.NewStaticAuthProvider(tokens)
	} else {
		firebaseProjectID := os.Getenv("FIREBASE_PROJECT_ID")
		if firebaseProjectID == "" {
			panic("FIREBASE_PROJECT_ID environment variable must be set")
		}
		firebaseAPIKey := os.Getenv("FIREBASE_API_KEY")
		authProvider, err := authproviders.NewFirebaseAuthProvider(ctx, authproviders.NewFirebaseAuthProviderOptions{
			ProjectID:       firebaseProjectID,
			APIKey:          firebaseAPIKey,
			CredentialsFile: os.Getenv("FIREBASE_CREDENTIALS_FILE"),
		})
		if err != nil {
			panic(fmt.Sprintf("Failed to create Firebase auth provider: %v", err))
		}
		apiServerOpts.AuthProvider = authProvider
		if firebaseAPIKey != "" {
			apiServerOpts.AuthHandler = authhandlers.NewFirebaseAuthHandler(authhandlers.NewFirebaseAuthHandlerOptions{
				APIKey: firebaseAPIKey,
			})
		}
	}

	connStr := os.Getenv("DATABASE_URL")
	if connStr == "" {
		connStr = "sqlite://snapsync.db"
	}
	repository, err := newRepository(ctx, connStr)
	if err != nil {
		panic(fmt.Sprintf("Failed to create repository: %v", err))
	}
	defer repository.Close(ctx)

	apiServerOpts.Clients = func(ownerID string) snapshots.Client {
		return store.NewStore(store.NewStoreOptions{
			Repository: repository,
			OwnerID:    ownerID,
		})
	}

	tlsCertFile := os.Getenv("SNAPSYNC_TLS_CERT_FILE")
	tlsKeyFile := os.Getenv("SNAPSYNC_TLS_KEY_FILE")
	if tlsCertFile != "" && tlsKeyFile != "" {
		apiServerOpts.TLS = &api.TLSConfig{
			CertFile: tlsCertFile,
			KeyFile:  tlsKeyFile,
		}
	}
	server := api.NewAPIServer(apiServerOpts)
	go server.Start()

	interrupt := make(chan os.Signal, 1)
	signal.Notify(interrupt, os.Interrupt, syscall.SIGTERM)
	<-interrupt

	stopCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := server.Stop(stopCtx); err != nil {
		log.Error("Failed to stop server: %v", err)
	}
}

// newRepository picks the repository from the connection string scheme:
// sqlite://<path>, postgresql://... or memory://.
func newRepository(ctx context.Context, connStr string) (repositories.Repository, error) {
	u, err := url.Parse(connStr)
	if err != nil {
		return nil, fmt.Errorf("failed to parse connection string: %v", err)
	}

	switch u.Scheme {
	case "sqlite":
		return repositories.NewSQLiteRepository(ctx, u.Host+u.Path)
	case "postgres", "postgresql":
		return repositories.NewPostgresRepository(ctx, u.String())
	case "memory":
		log.Warn("Using an in-memory repository, snapshots are lost on exit")
		return repositories.NewInMemoryRepository(), nil
	default:
		return nil, fmt.Errorf("unknown database type %s", u.Scheme)
	}
}

func parseDevTokens(s string) (map[string]string, error) {
	tokens := make(map[string]string)
	for _, pair := range strings.Split(s, ",") {
		token, uid, ok := strings.Cut(strings.TrimSpace(pair), "=")
		if !ok || token == "" || uid == "" {
			return nil, fmt.Errorf("invalid token pair %q", pair)
		}
		tokens[token] = uid
	}
	return tokens, nil
}
