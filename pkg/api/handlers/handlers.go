package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/url"

	"github.com/cbodonnell/snapsync/pkg/api/middleware"
	"github.com/cbodonnell/snapsync/pkg/api/types"
	"github.com/cbodonnell/snapsync/pkg/log"
	"github.com/cbodonnell/snapsync/pkg/snapshots"
	"github.com/gorilla/mux"
)

// ClientFactory returns the snapshot client serving one owner.
type ClientFactory func(ownerID string) snapshots.Client

// maxRequestBodySize bounds request bodies. Contents and cover images are
// base64 in JSON, so the limit leaves room for the encoding overhead.
const maxRequestBodySize = 8 << 20

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error("failed to encode response: %v", err)
	}
}

func writeError(w http.ResponseWriter, status int, code types.ErrorCode, message string) {
	writeJSON(w, status, &types.ErrorResponse{
		Code:    code,
		Message: message,
	})
}

// writeClientError maps an error returned by a snapshot client to a response.
func writeClientError(w http.ResponseWriter, action string, err error) {
	switch {
	case errors.Is(err, snapshots.ErrSnapshotNotFound):
		writeError(w, http.StatusNotFound, types.ErrorCodeSnapshotNotFound, err.Error())
	case errors.Is(err, snapshots.ErrConflictNotFound):
		writeError(w, http.StatusNotFound, types.ErrorCodeConflictNotFound, err.Error())
	case errors.Is(err, snapshots.ErrDataTooLarge):
		writeError(w, http.StatusRequestEntityTooLarge, types.ErrorCodeDataTooLarge, err.Error())
	case errors.Is(err, snapshots.ErrConflictPending):
		writeError(w, http.StatusConflict, types.ErrorCodeConflictPending, err.Error())
	case errors.Is(err, snapshots.ErrSnapshotChanged):
		writeError(w, http.StatusConflict, types.ErrorCodeSnapshotChanged, err.Error())
	default:
		log.Error("failed to %s: %v", action, err)
		writeError(w, http.StatusInternalServerError, types.ErrorCodeInternal, "Failed to "+action)
	}
}

// pathVar returns the unescaped route variable. The router matches on the
// escaped path so that names may contain "/". It writes the error response
// itself when it returns false.
func pathVar(w http.ResponseWriter, r *http.Request, key string) (string, bool) {
	v, err := url.PathUnescape(mux.Vars(r)[key])
	if err != nil || v == "" {
		writeError(w, http.StatusBadRequest, types.ErrorCodeBadRequest, "Invalid "+key+" in path")
		return "", false
	}
	return v, true
}

// decodeBody decodes the JSON request body into v, writing the error
// response itself when it returns false.
func decodeBody(w http.ResponseWriter, r *http.Request, v interface{}) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxRequestBodySize)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		var maxBytesErr *http.MaxBytesError
		if errors.As(err, &maxBytesErr) {
			writeError(w, http.StatusRequestEntityTooLarge, types.ErrorCodeDataTooLarge, "Request body too large")
			return false
		}
		writeError(w, http.StatusBadRequest, types.ErrorCodeBadRequest, "Failed to decode request body")
		return false
	}
	return true
}

func clientFor(w http.ResponseWriter, r *http.Request, clients ClientFactory) (snapshots.Client, bool) {
	claims, ok := middleware.ClaimsFromContext(r.Context())
	if !ok {
		log.Error("failed to get token claims from context")
		writeError(w, http.StatusInternalServerError, types.ErrorCodeInternal, "Failed to get token claims from context")
		return nil, false
	}
	return clients(claims.UID), true
}

func HandleListSnapshots(clients ClientFactory) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		client, ok := clientFor(w, r, clients)
		if !ok {
			return
		}
		mds, err := client.Load(r.Context(), r.URL.Query().Get("forceReload") == "true")
		if err != nil {
			writeClientError(w, "list snapshots", err)
			return
		}
		writeJSON(w, http.StatusOK, mds)
	}
}

func HandleGetLimits(clients ClientFactory) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		client, ok := clientFor(w, r, clients)
		if !ok {
			return
		}
		maxDataSize, err := client.MaxDataSize(r.Context())
		if err != nil {
			writeClientError(w, "get max data size", err)
			return
		}
		maxCoverImageSize, err := client.MaxCoverImageSize(r.Context())
		if err != nil {
			writeClientError(w, "get max cover image size", err)
			return
		}
		writeJSON(w, http.StatusOK, &types.LimitsResponse{
			MaxDataSize:       maxDataSize,
			MaxCoverImageSize: maxCoverImageSize,
		})
	}
}

func HandleOpenSnapshot(clients ClientFactory) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		client, ok := clientFor(w, r, clients)
		if !ok {
			return
		}
		name, ok := pathVar(w, r, "name")
		if !ok {
			return
		}
		req := &types.OpenRequest{}
		if !decodeBody(w, r, req) {
			return
		}
		if !req.ConflictPolicy.Valid() {
			writeError(w, http.StatusBadRequest, types.ErrorCodeBadRequest, "Invalid conflict policy")
			return
		}

		res, err := client.Open(r.Context(), name, req.CreateIfNotFound, req.ConflictPolicy)
		if err != nil {
			writeClientError(w, "open snapshot", err)
			return
		}
		writeJSON(w, http.StatusOK, res)
	}
}

func HandleCommitSnapshot(clients ClientFactory) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		client, ok := clientFor(w, r, clients)
		if !ok {
			return
		}
		name, ok := pathVar(w, r, "name")
		if !ok {
			return
		}
		req := &types.CommitRequest{}
		if !decodeBody(w, r, req) {
			return
		}
		if req.Snapshot == nil || req.Snapshot.Metadata.UniqueName != name {
			writeError(w, http.StatusBadRequest, types.ErrorCodeBadRequest, "Snapshot does not match the path")
			return
		}

		md, err := client.CommitAndClose(r.Context(), req.Snapshot, req.Change)
		if err != nil {
			writeClientError(w, "commit snapshot", err)
			return
		}
		writeJSON(w, http.StatusOK, md)
	}
}

func HandleDeleteSnapshot(clients ClientFactory) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		client, ok := clientFor(w, r, clients)
		if !ok {
			return
		}
		name, ok := pathVar(w, r, "name")
		if !ok {
			return
		}
		snapshotID, err := client.Delete(r.Context(), &snapshots.Metadata{UniqueName: name})
		if err != nil {
			writeClientError(w, "delete snapshot", err)
			return
		}
		writeJSON(w, http.StatusOK, &types.DeleteResponse{SnapshotID: snapshotID})
	}
}

func HandleResolveConflict(clients ClientFactory) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		client, ok := clientFor(w, r, clients)
		if !ok {
			return
		}
		name, ok := pathVar(w, r, "name")
		if !ok {
			return
		}
		req := &types.ResolveRequest{}
		if !decodeBody(w, r, req) {
			return
		}
		if req.ConflictID == "" || req.Snapshot == nil || req.Snapshot.Metadata.UniqueName != name {
			writeError(w, http.StatusBadRequest, types.ErrorCodeBadRequest, "Resolution does not match the path")
			return
		}

		res, err := client.ResolveConflict(r.Context(), req.ConflictID, req.Snapshot)
		if err != nil {
			writeClientError(w, "resolve conflict", err)
			return
		}
		writeJSON(w, http.StatusOK, res)
	}
}

func HandleResolveConflictByID(clients ClientFactory) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		client, ok := clientFor(w, r, clients)
		if !ok {
			return
		}
		conflictID, ok := pathVar(w, r, "conflictID")
		if !ok {
			return
		}
		req := &types.ResolveByIDRequest{}
		if !decodeBody(w, r, req) {
			return
		}
		if req.SnapshotID == "" {
			writeError(w, http.StatusBadRequest, types.ErrorCodeBadRequest, "Missing snapshot ID")
			return
		}

		res, err := client.ResolveConflictByID(r.Context(), conflictID, req.SnapshotID, req.Change, req.Contents)
		if err != nil {
			writeClientError(w, "resolve conflict", err)
			return
		}
		writeJSON(w, http.StatusOK, res)
	}
}
