package providers

import (
	"context"
	"fmt"

	firebase "firebase.google.com/go"
	"firebase.google.com/go/auth"
	"google.golang.org/api/option"
)

var _ AuthProvider = &FirebaseAuthProvider{}

// FirebaseAuthProvider verifies Firebase ID tokens, so a player's snapshots
// are keyed by their Firebase UID.
type FirebaseAuthProvider struct {
	auth *auth.Client
}

type NewFirebaseAuthProviderOptions struct {
	ProjectID string
	// APIKey is used when no credentials file is given.
	APIKey string
	// CredentialsFile is a service account key file.
	CredentialsFile string
}

// NewFirebaseAuthProvider creates a new FirebaseAuthProvider
func NewFirebaseAuthProvider(ctx context.Context, opts NewFirebaseAuthProviderOptions) (*FirebaseAuthProvider, error) {
	var opt option.ClientOption
	switch {
	case opts.CredentialsFile != "":
		opt = option.WithCredentialsFile(opts.CredentialsFile)
	case opts.APIKey != "":
		opt = option.WithAPIKey(opts.APIKey)
	default:
		return nil, fmt.Errorf("either an API key or a credentials file is required")
	}

	app, err := firebase.NewApp(ctx, &firebase.Config{ProjectID: opts.ProjectID}, opt)
	if err != nil {
		return nil, fmt.Errorf("error initializing app: %v", err)
	}

	client, err := app.Auth(ctx)
	if err != nil {
		return nil, fmt.Errorf("error getting Auth client: %v", err)
	}

	return &FirebaseAuthProvider{
		auth: client,
	}, nil
}

// VerifyToken verifies a Firebase ID token
func (p *FirebaseAuthProvider) VerifyToken(ctx context.Context, idToken string) (*TokenClaims, error) {
	token, err := p.auth.VerifyIDToken(ctx, idToken)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	return &TokenClaims{
		UID: token.UID,
	}, nil
}
