// Package client talks to the snapshot API over HTTP.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/cbodonnell/snapsync/pkg/api/types"
	authhandlers "github.com/cbodonnell/snapsync/pkg/auth/handlers"
	"github.com/cbodonnell/snapsync/pkg/log"
	"github.com/cbodonnell/snapsync/pkg/snapshots"
)

const DefaultServerURL = "http://localhost:9090"

var _ snapshots.Client = &HTTPClient{}

// HTTPClient implements snapshots.Client against the snapshot API.
type HTTPClient struct {
	baseURL string
	token   string
	client  *http.Client
	logger  *log.Logger
}

type NewHTTPClientOptions struct {
	ServerURL string
	// Token is sent as the bearer token of every snapshot request.
	Token      string
	HTTPClient *http.Client
}

func NewHTTPClient(opts NewHTTPClientOptions) *HTTPClient {
	c := &HTTPClient{
		baseURL: strings.TrimRight(opts.ServerURL, "/"),
		token:   opts.Token,
		client:  opts.HTTPClient,
		logger:  log.Component("client"),
	}
	if c.baseURL == "" {
		c.baseURL = DefaultServerURL
	}
	if c.client == nil {
		c.client = &http.Client{Timeout: 30 * time.Second}
	}
	return c
}

// APIError is a non-2xx response that does not map to a snapshots error.
type APIError struct {
	StatusCode int
	Code       types.ErrorCode
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("snapshot API responded %d %s: %s", e.StatusCode, e.Code, e.Message)
}

// decodeError turns an error response back into the error the server's
// client returned.
func decodeError(resp *http.Response) error {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	errorResponse := &types.ErrorResponse{}
	if err := json.Unmarshal(body, errorResponse); err != nil {
		errorResponse.Message = strings.TrimSpace(string(body))
	}

	switch errorResponse.Code {
	case types.ErrorCodeSnapshotNotFound:
		return snapshots.ErrSnapshotNotFound
	case types.ErrorCodeConflictNotFound:
		return snapshots.ErrConflictNotFound
	case types.ErrorCodeDataTooLarge:
		return fmt.Errorf("%w: %s", snapshots.ErrDataTooLarge, errorResponse.Message)
	case types.ErrorCodeConflictPending:
		return snapshots.ErrConflictPending
	case types.ErrorCodeSnapshotChanged:
		return snapshots.ErrSnapshotChanged
	}
	return &APIError{
		StatusCode: resp.StatusCode,
		Code:       errorResponse.Code,
		Message:    errorResponse.Message,
	}
}

// do sends a JSON request and decodes a JSON response into out when out
// is not nil.
func (c *HTTPClient) do(ctx context.Context, method string, path string, in interface{}, out interface{}) error {
	var body io.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("failed to encode request: %v", err)
		}
		body = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("failed to create request: %v", err)
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Authorization", "Bearer "+c.token)

	c.logger.Trace("%s %s", method, path)
	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send request: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return decodeError(resp)
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %v", err)
	}
	return nil
}

func snapshotPath(name string, suffix string) string {
	return "/snapshots/" + url.PathEscape(name) + suffix
}

func (c *HTTPClient) Open(ctx context.Context, name string, createIfNotFound bool, policy snapshots.ConflictPolicy) (*snapshots.DataOrConflict, error) {
	res := &snapshots.DataOrConflict{}
	req := &types.OpenRequest{
		CreateIfNotFound: createIfNotFound,
		ConflictPolicy:   policy,
	}
	if err := c.do(ctx, http.MethodPost, snapshotPath(name, "/open"), req, res); err != nil {
		return nil, err
	}
	return res, nil
}

func (c *HTTPClient) OpenMetadata(ctx context.Context, metadata *snapshots.Metadata, policy snapshots.ConflictPolicy) (*snapshots.DataOrConflict, error) {
	if metadata == nil {
		return nil, fmt.Errorf("snapshot metadata is nil")
	}
	return c.Open(ctx, metadata.UniqueName, false, policy)
}

func (c *HTTPClient) CommitAndClose(ctx context.Context, snapshot *snapshots.Snapshot, change snapshots.MetadataChange) (*snapshots.Metadata, error) {
	if snapshot == nil {
		return nil, fmt.Errorf("snapshot is nil")
	}
	md := &snapshots.Metadata{}
	req := &types.CommitRequest{
		Snapshot: snapshot,
		Change:   change,
	}
	if err := c.do(ctx, http.MethodPost, snapshotPath(snapshot.Metadata.UniqueName, "/commit"), req, md); err != nil {
		return nil, err
	}
	return md, nil
}

// DiscardAndClose does not reach the server, which keeps no state for
// open snapshots.
func (c *HTTPClient) DiscardAndClose(ctx context.Context, snapshot *snapshots.Snapshot) error {
	return nil
}

func (c *HTTPClient) Delete(ctx context.Context, metadata *snapshots.Metadata) (string, error) {
	if metadata == nil {
		return "", fmt.Errorf("snapshot metadata is nil")
	}
	res := &types.DeleteResponse{}
	if err := c.do(ctx, http.MethodDelete, snapshotPath(metadata.UniqueName, ""), nil, res); err != nil {
		return "", err
	}
	return res.SnapshotID, nil
}

func (c *HTTPClient) ResolveConflict(ctx context.Context, conflictID string, snapshot *snapshots.Snapshot) (*snapshots.DataOrConflict, error) {
	if snapshot == nil {
		return nil, fmt.Errorf("snapshot is nil")
	}
	res := &snapshots.DataOrConflict{}
	req := &types.ResolveRequest{
		ConflictID: conflictID,
		Snapshot:   snapshot,
	}
	if err := c.do(ctx, http.MethodPost, snapshotPath(snapshot.Metadata.UniqueName, "/resolve"), req, res); err != nil {
		return nil, err
	}
	return res, nil
}

func (c *HTTPClient) ResolveConflictByID(ctx context.Context, conflictID string, snapshotID string, change snapshots.MetadataChange, contents []byte) (*snapshots.DataOrConflict, error) {
	res := &snapshots.DataOrConflict{}
	req := &types.ResolveByIDRequest{
		SnapshotID: snapshotID,
		Change:     change,
		Contents:   contents,
	}
	if err := c.do(ctx, http.MethodPost, "/conflicts/"+url.PathEscape(conflictID)+"/resolve", req, res); err != nil {
		return nil, err
	}
	return res, nil
}

func (c *HTTPClient) Load(ctx context.Context, forceReload bool) ([]*snapshots.Metadata, error) {
	path := "/snapshots"
	if forceReload {
		path += "?forceReload=true"
	}
	mds := make([]*snapshots.Metadata, 0)
	if err := c.do(ctx, http.MethodGet, path, nil, &mds); err != nil {
		return nil, err
	}
	return mds, nil
}

func (c *HTTPClient) limits(ctx context.Context) (*types.LimitsResponse, error) {
	res := &types.LimitsResponse{}
	if err := c.do(ctx, http.MethodGet, "/snapshots/limits", nil, res); err != nil {
		return nil, err
	}
	return res, nil
}

func (c *HTTPClient) MaxDataSize(ctx context.Context) (int, error) {
	res, err := c.limits(ctx)
	if err != nil {
		return 0, err
	}
	return res.MaxDataSize, nil
}

func (c *HTTPClient) MaxCoverImageSize(ctx context.Context) (int, error) {
	res, err := c.limits(ctx)
	if err != nil {
		return 0, err
	}
	return res.MaxCoverImageSize, nil
}

func (c *HTTPClient) SnapshotFromMessage(payload []byte) (*snapshots.Metadata, error) {
	return snapshots.DecodeMetadataMessage(payload)
}

// Login exchanges an email and password for a token through the server's
// /auth/login route.
func Login(ctx context.Context, serverURL string, email string, password string) (*authhandlers.TokenResponse, error) {
	form := url.Values{
		"email":    {email},
		"password": {password},
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, strings.TrimRight(serverURL, "/")+"/auth/login", strings.NewReader(form.Encode()))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %v", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to send request: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4<<10))
		return nil, fmt.Errorf("login failed with status %s: %s", resp.Status, strings.TrimSpace(string(body)))
	}

	token := &authhandlers.TokenResponse{}
	if err := json.NewDecoder(resp.Body).Decode(token); err != nil {
		return nil, fmt.Errorf("failed to decode token: %v", err)
	}
	return token, nil
}
