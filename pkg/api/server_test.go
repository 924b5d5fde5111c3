package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/cbodonnell/snapsync/pkg/api/types"
	authproviders "github.com/cbodonnell/snapsync/pkg/auth/providers"
	"github.com/cbodonnell/snapsync/pkg/repositories"
	"github.com/cbodonnell/snapsync/pkg/snapshots"
	"github.com/cbodonnell/snapsync/pkg/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRouter() http.Handler {
	repo := repositories.NewInMemoryRepository()
	return NewRouter(NewAPIServerOptions{
		AuthProvider: authproviders.NewStaticAuthProvider(map[string]string{"token": "alice"}),
		Clients: func(ownerID string) snapshots.Client {
			return store.NewStore(store.NewStoreOptions{Repository: repo, OwnerID: ownerID})
		},
	})
}

func TestRouter(t *testing.T) {
	tests := []struct {
		name       string
		method     string
		path       string
		auth       string
		body       string
		wantStatus int
		wantCode   types.ErrorCode
	}{
		{
			name:       "missing token",
			method:     http.MethodGet,
			path:       "/snapshots",
			wantStatus: http.StatusUnauthorized,
		},
		{
			name:       "malformed authorization header",
			method:     http.MethodGet,
			path:       "/snapshots",
			auth:       "token",
			wantStatus: http.StatusUnauthorized,
		},
		{
			name:       "unknown token",
			method:     http.MethodGet,
			path:       "/snapshots",
			auth:       "Bearer other",
			wantStatus: http.StatusUnauthorized,
		},
		{
			name:       "list",
			method:     http.MethodGet,
			path:       "/snapshots",
			auth:       "Bearer token",
			wantStatus: http.StatusOK,
		},
		{
			name:       "limits",
			method:     http.MethodGet,
			path:       "/snapshots/limits",
			auth:       "Bearer token",
			wantStatus: http.StatusOK,
		},
		{
			name:       "open missing",
			method:     http.MethodPost,
			path:       "/snapshots/save/open",
			auth:       "Bearer token",
			body:       `{"createIfNotFound":false,"conflictPolicy":3}`,
			wantStatus: http.StatusNotFound,
			wantCode:   types.ErrorCodeSnapshotNotFound,
		},
		{
			name:       "open with create",
			method:     http.MethodPost,
			path:       "/snapshots/save/open",
			auth:       "Bearer token",
			body:       `{"createIfNotFound":true,"conflictPolicy":-1}`,
			wantStatus: http.StatusOK,
		},
		{
			name:       "open with invalid policy",
			method:     http.MethodPost,
			path:       "/snapshots/save/open",
			auth:       "Bearer token",
			body:       `{"createIfNotFound":true,"conflictPolicy":0}`,
			wantStatus: http.StatusBadRequest,
			wantCode:   types.ErrorCodeBadRequest,
		},
		{
			name:       "open with bad body",
			method:     http.MethodPost,
			path:       "/snapshots/save/open",
			auth:       "Bearer token",
			body:       `{`,
			wantStatus: http.StatusBadRequest,
			wantCode:   types.ErrorCodeBadRequest,
		},
		{
			name:       "commit to another name",
			method:     http.MethodPost,
			path:       "/snapshots/save/commit",
			auth:       "Bearer token",
			body:       `{"snapshot":{"metadata":{"uniqueName":"other"}}}`,
			wantStatus: http.StatusBadRequest,
			wantCode:   types.ErrorCodeBadRequest,
		},
		{
			name:       "commit",
			method:     http.MethodPost,
			path:       "/snapshots/save/commit",
			auth:       "Bearer token",
			body:       `{"snapshot":{"metadata":{"uniqueName":"save"},"contents":"cHJvZ3Jlc3M="}}`,
			wantStatus: http.StatusOK,
		},
		{
			name:       "delete missing",
			method:     http.MethodDelete,
			path:       "/snapshots/save",
			auth:       "Bearer token",
			wantStatus: http.StatusNotFound,
			wantCode:   types.ErrorCodeSnapshotNotFound,
		},
		{
			name:       "resolve unknown conflict",
			method:     http.MethodPost,
			path:       "/snapshots/save/resolve",
			auth:       "Bearer token",
			body:       `{"conflictId":"c","snapshot":{"metadata":{"uniqueName":"save"}}}`,
			wantStatus: http.StatusNotFound,
			wantCode:   types.ErrorCodeConflictNotFound,
		},
		{
			name:       "resolve by id without snapshot id",
			method:     http.MethodPost,
			path:       "/conflicts/c/resolve",
			auth:       "Bearer token",
			body:       `{}`,
			wantStatus: http.StatusBadRequest,
			wantCode:   types.ErrorCodeBadRequest,
		},
		{
			name:       "wrong method",
			method:     http.MethodPut,
			path:       "/snapshots/save",
			auth:       "Bearer token",
			wantStatus: http.StatusMethodNotAllowed,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router := newTestRouter()
			req := httptest.NewRequest(tt.method, tt.path, strings.NewReader(tt.body))
			if tt.auth != "" {
				req.Header.Set("Authorization", tt.auth)
			}
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, req)

			assert.Equal(t, tt.wantStatus, rec.Code, rec.Body.String())
			if tt.wantCode != "" {
				errorResponse := &types.ErrorResponse{}
				require.NoError(t, json.NewDecoder(rec.Body).Decode(errorResponse))
				assert.Equal(t, tt.wantCode, errorResponse.Code)
			}
		})
	}
}
