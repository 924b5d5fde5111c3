package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newFakeFirebase(t *testing.T) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "test-key", r.URL.Query().Get("key"))
		body := map[string]interface{}{}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))

		fail := func(status int, message ErrorResponseMessage) {
			w.WriteHeader(status)
			errorResponse := &ErrorResponseBody{}
			errorResponse.Error.Code = status
			errorResponse.Error.Message = message
			json.NewEncoder(w).Encode(errorResponse)
		}

		switch r.URL.Path {
		case "/identity/accounts:signInWithPassword":
			if body["password"] != "hunter22" {
				fail(http.StatusBadRequest, ErrorInvalidLoginCredentials)
				return
			}
			json.NewEncoder(w).Encode(credentialsResponseBody{IDToken: "id-token", RefreshToken: "refresh-token", ExpiresIn: "3600", LocalID: "alice"})
		case "/identity/accounts:signUp":
			if body["email"] == "taken@example.com" {
				fail(http.StatusBadRequest, ErrorEmailExists)
				return
			}
			fail(http.StatusInternalServerError, "BACKEND_ERROR")
		case "/token/token":
			json.NewEncoder(w).Encode(refreshResponseBody{IDToken: "new-id-token", RefreshToken: "new-refresh-token", ExpiresIn: "3600", UserID: "alice"})
		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(server.Close)
	return server
}

func postForm(handler http.HandlerFunc, values url.Values) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(values.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := httptest.NewRecorder()
	handler(rec, req)
	return rec
}

func TestFirebaseAuthHandler(t *testing.T) {
	firebase := newFakeFirebase(t)
	h := NewFirebaseAuthHandler(NewFirebaseAuthHandlerOptions{
		APIKey:             "test-key",
		IdentityToolkitURL: firebase.URL + "/identity",
		SecureTokenURL:     firebase.URL + "/token",
	})

	tests := []struct {
		name       string
		handler    http.HandlerFunc
		values     url.Values
		wantStatus int
		wantToken  string
	}{
		{
			name:       "login",
			handler:    h.HandleLogin(),
			values:     url.Values{"email": {"alice@example.com"}, "password": {"hunter22"}},
			wantStatus: http.StatusOK,
			wantToken:  "id-token",
		},
		{
			name:       "login with bad password",
			handler:    h.HandleLogin(),
			values:     url.Values{"email": {"alice@example.com"}, "password": {"wrong"}},
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "login without password",
			handler:    h.HandleLogin(),
			values:     url.Values{"email": {"alice@example.com"}},
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "register taken email",
			handler:    h.HandleRegister(),
			values:     url.Values{"email": {"taken@example.com"}, "password": {"hunter22"}},
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "register backend failure",
			handler:    h.HandleRegister(),
			values:     url.Values{"email": {"bob@example.com"}, "password": {"hunter22"}},
			wantStatus: http.StatusInternalServerError,
		},
		{
			name:       "refresh",
			handler:    h.HandleRefresh(),
			values:     url.Values{"refreshToken": {"refresh-token"}},
			wantStatus: http.StatusOK,
			wantToken:  "new-id-token",
		},
		{
			name:       "refresh without token",
			handler:    h.HandleRefresh(),
			values:     url.Values{},
			wantStatus: http.StatusBadRequest,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := postForm(tt.handler, tt.values)
			assert.Equal(t, tt.wantStatus, rec.Code, rec.Body.String())
			if tt.wantStatus != http.StatusOK {
				return
			}
			response := &TokenResponse{}
			require.NoError(t, json.NewDecoder(rec.Body).Decode(response))
			assert.Equal(t, tt.wantToken, response.IDToken)
			assert.Equal(t, "alice", response.UID)
		})
	}
}
