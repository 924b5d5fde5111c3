package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/cbodonnell/snapsync/pkg/log"
)

var _ AuthHandler = &FirebaseAuthHandler{}

const (
	DefaultIdentityToolkitURL = "https://identitytoolkit.googleapis.com/v1"
	DefaultSecureTokenURL     = "https://securetoken.googleapis.com/v1"
)

// FirebaseAuthHandler implements AuthHandler using Firebase Auth REST API
type FirebaseAuthHandler struct {
	apiKey             string
	identityToolkitURL string
	secureTokenURL     string
	client             *http.Client
}

type NewFirebaseAuthHandlerOptions struct {
	APIKey string
	// IdentityToolkitURL and SecureTokenURL default to the Google endpoints.
	IdentityToolkitURL string
	SecureTokenURL     string
	HTTPClient         *http.Client
}

// NewFirebaseAuthHandler creates a new instance of FirebaseAuthHandler
func NewFirebaseAuthHandler(opts NewFirebaseAuthHandlerOptions) *FirebaseAuthHandler {
	h := &FirebaseAuthHandler{
		apiKey:             opts.APIKey,
		identityToolkitURL: opts.IdentityToolkitURL,
		secureTokenURL:     opts.SecureTokenURL,
		client:             opts.HTTPClient,
	}
	if h.identityToolkitURL == "" {
		h.identityToolkitURL = DefaultIdentityToolkitURL
	}
	if h.secureTokenURL == "" {
		h.secureTokenURL = DefaultSecureTokenURL
	}
	if h.client == nil {
		h.client = http.DefaultClient
	}
	return h
}

// ErrorResponseBody is the response body for an error
// https://firebase.google.com/docs/reference/rest/auth#section-error-format
type ErrorResponseBody struct {
	Error struct {
		Code    int                  `json:"code"`
		Message ErrorResponseMessage `json:"message"`
	} `json:"error"`
}

type ErrorResponseMessage string

const (
	ErrorEmailExists             ErrorResponseMessage = "EMAIL_EXISTS"
	ErrorOperationNotAllowed     ErrorResponseMessage = "OPERATION_NOT_ALLOWED"
	ErrorTooManyAttempts         ErrorResponseMessage = "TOO_MANY_ATTEMPTS_TRY_LATER"
	ErrorInvalidEmail            ErrorResponseMessage = "INVALID_EMAIL"
	ErrorInvalidLoginCredentials ErrorResponseMessage = "INVALID_LOGIN_CREDENTIALS"
	ErrorTokenExpired            ErrorResponseMessage = "TOKEN_EXPIRED"
	ErrorInvalidRefreshToken     ErrorResponseMessage = "INVALID_REFRESH_TOKEN"
	ErrorWeakPassword            ErrorResponseMessage = "WEAK_PASSWORD : Password should be at least 6 characters"
)

// clientErrors are the Firebase errors caused by the request, reported to
// the caller as bad requests.
var clientErrors = map[ErrorResponseMessage]string{
	ErrorEmailExists:             "Email already exists",
	ErrorOperationNotAllowed:     "Operation not allowed",
	ErrorTooManyAttempts:         "Too many attempts, try again later",
	ErrorInvalidEmail:            "Invalid email",
	ErrorInvalidLoginCredentials: "Invalid credentials",
	ErrorTokenExpired:            "Token expired",
	ErrorInvalidRefreshToken:     "Invalid refresh token",
	ErrorWeakPassword:            "Password should be at least 6 characters",
}

// firebaseError is a non-200 answer from Firebase.
type firebaseError struct {
	status  int
	message ErrorResponseMessage
}

func (e *firebaseError) Error() string {
	return fmt.Sprintf("firebase responded %d: %s", e.status, e.message)
}

// post sends payload as JSON to url and decodes the answer into out.
func (s *FirebaseAuthHandler) post(ctx context.Context, url string, payload interface{}, out interface{}) error {
	body := bytes.NewBuffer(nil)
	if err := json.NewEncoder(body).Encode(payload); err != nil {
		return fmt.Errorf("error encoding request body: %v", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url+"?key="+s.apiKey, body)
	if err != nil {
		return fmt.Errorf("error creating request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("error sending request: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		errorResponse := &ErrorResponseBody{}
		if err := json.NewDecoder(resp.Body).Decode(errorResponse); err != nil {
			return fmt.Errorf("failed to decode error response with status %s: %v", resp.Status, err)
		}
		return &firebaseError{status: resp.StatusCode, message: errorResponse.Error.Message}
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("error decoding response: %v", err)
	}
	return nil
}

// writeError maps err to a response. action names the failed operation.
func writeError(w http.ResponseWriter, action string, err error) {
	if fe, ok := err.(*firebaseError); ok {
		if msg, ok := clientErrors[fe.message]; ok {
			http.Error(w, msg, http.StatusBadRequest)
			return
		}
	}
	log.Error("failed to %s: %v", action, err)
	http.Error(w, fmt.Sprintf("Failed to %s", action), http.StatusInternalServerError)
}

func writeTokenResponse(w http.ResponseWriter, response *TokenResponse) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(response); err != nil {
		log.Error("error encoding response: %v", err)
	}
}

// credentialsRequestBody is the request body of the sign up and sign in endpoints
type credentialsRequestBody struct {
	Email             string `json:"email"`
	Password          string `json:"password"`
	ReturnSecureToken bool   `json:"returnSecureToken"`
}

// credentialsResponseBody is the response body of the sign up and sign in endpoints
type credentialsResponseBody struct {
	IDToken      string `json:"idToken"`
	Email        string `json:"email"`
	RefreshToken string `json:"refreshToken"`
	ExpiresIn    string `json:"expiresIn"`
	LocalID      string `json:"localId"`
}

func (s *FirebaseAuthHandler) handleCredentials(endpoint string, action string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		email := r.FormValue("email")
		password := r.FormValue("password")

		if email == "" {
			http.Error(w, "Missing email", http.StatusBadRequest)
			return
		}
		if password == "" {
			http.Error(w, "Missing password", http.StatusBadRequest)
			return
		}

		requestPayload := &credentialsRequestBody{
			Email:             email,
			Password:          password,
			ReturnSecureToken: true,
		}
		responsePayload := &credentialsResponseBody{}
		if err := s.post(r.Context(), s.identityToolkitURL+endpoint, requestPayload, responsePayload); err != nil {
			writeError(w, action, err)
			return
		}

		writeTokenResponse(w, &TokenResponse{
			IDToken:      responsePayload.IDToken,
			RefreshToken: responsePayload.RefreshToken,
			ExpiresIn:    responsePayload.ExpiresIn,
			UID:          responsePayload.LocalID,
		})
	}
}

// HandleRegister handles requests to the register endpoint
// https://firebase.google.com/docs/reference/rest/auth#section-create-email-password
func (s *FirebaseAuthHandler) HandleRegister() http.HandlerFunc {
	return s.handleCredentials("/accounts:signUp", "register")
}

// HandleLogin handles requests to the login endpoint
// https://firebase.google.com/docs/reference/rest/auth#section-sign-in-email-password
func (s *FirebaseAuthHandler) HandleLogin() http.HandlerFunc {
	return s.handleCredentials("/accounts:signInWithPassword", "login")
}

// refreshRequestBody is the request body for the refresh endpoint
type refreshRequestBody struct {
	GrantType    string `json:"grant_type"`
	RefreshToken string `json:"refresh_token"`
}

// refreshResponseBody is the response body for the refresh endpoint
type refreshResponseBody struct {
	ExpiresIn    string `json:"expires_in"`
	TokenType    string `json:"token_type"`
	RefreshToken string `json:"refresh_token"`
	IDToken      string `json:"id_token"`
	UserID       string `json:"user_id"`
	ProjectID    string `json:"project_id"`
}

// HandleRefresh handles requests to the refresh endpoint
// https://firebase.google.com/docs/reference/rest/auth#section-refresh-token
func (s *FirebaseAuthHandler) HandleRefresh() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		refreshToken := r.FormValue("refreshToken")

		if refreshToken == "" {
			http.Error(w, "Missing refresh token", http.StatusBadRequest)
			return
		}

		requestPayload := &refreshRequestBody{
			GrantType:    "refresh_token",
			RefreshToken: refreshToken,
		}
		responsePayload := &refreshResponseBody{}
		if err := s.post(r.Context(), s.secureTokenURL+"/token", requestPayload, responsePayload); err != nil {
			writeError(w, "refresh", err)
			return
		}

		writeTokenResponse(w, &TokenResponse{
			IDToken:      responsePayload.IDToken,
			RefreshToken: responsePayload.RefreshToken,
			ExpiresIn:    responsePayload.ExpiresIn,
			UID:          responsePayload.UserID,
		})
	}
}
