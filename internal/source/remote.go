package source

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"path"
	"strings"
	"time"

	"gallery-player/internal/logging"
	"gallery-player/internal/mediatypes"
)

// maxRetrieveBytes caps a single item download. Anything larger than this
// is not a slideshow image.
const maxRetrieveBytes = 256 << 20

// Remote talks to the gallery server: list-fetches, item retrieval, and
// the server-held session used for resume.
type Remote struct {
	baseURL string
	client  *http.Client
}

// NewRemote creates a remote source for the given base URL, e.g.
// "http://gallery.local:4860". The timeout bounds every round trip,
// including item retrieval.
func NewRemote(baseURL string, timeout time.Duration) *Remote {
	return &Remote{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Timeout: timeout},
	}
}

// ID returns the source identity used for signatures and session keying.
func (r *Remote) ID() string {
	return "remote:" + r.baseURL
}

// Pinned reports false: remote handles hold downloaded bytes and are
// reclaimed with the window.
func (r *Remote) Pinned() bool {
	return false
}

// Locator returns the absolute retrieval URL for an item id.
func (r *Remote) Locator(id string) string {
	return r.baseURL + "/api/file?path=" + url.QueryEscape(id)
}

// playlistRequest is the wire shape of POST /api/playlist.
type playlistRequest struct {
	Paths       []string `json:"paths"`
	Sort        string   `json:"sort"`
	Orientation string   `json:"orientation"`
	Direction   string   `json:"direction"`
	CurrentPath string   `json:"current_path,omitempty"`
}

// wireOrientation maps the canonical orientation filter onto the server's
// vocabulary.
func wireOrientation(o mediatypes.Orientation) string {
	switch o {
	case mediatypes.OrientationLandscape:
		return "Landscape"
	case mediatypes.OrientationPortrait:
		return "Portrait"
	default:
		return "Both"
	}
}

// List performs one playlist round trip. The response is an ordered list
// of relative item ids; orientation is unknown until materialization.
func (r *Remote) List(ctx context.Context, req ListRequest) ([]Entry, error) {
	body := playlistRequest{
		Paths:       req.Paths,
		Sort:        string(req.Sort),
		Orientation: wireOrientation(req.Orientation),
		Direction:   string(req.Direction),
		CurrentPath: req.AnchorID,
	}

	var ids []string
	if err := r.postJSON(ctx, "/api/playlist", body, &ids); err != nil {
		return nil, err
	}

	entries := make([]Entry, len(ids))
	for i, id := range ids {
		entries[i] = Entry{ID: id, DisplayName: path.Base(id)}
	}
	logging.Debug("remote list-fetch returned %d ids", len(entries))
	return entries, nil
}

// Retrieve downloads the raw bytes for an item id.
func (r *Remote) Retrieve(ctx context.Context, id string) ([]byte, error) {
	reqURL := r.Locator(id)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, &TransportError{Op: "retrieve " + id, Err: err}
	}

	resp, err := r.client.Do(req)
	if err != nil {
		return nil, &TransportError{Op: "retrieve " + id, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, &TransportError{
			Op:  "retrieve " + id,
			Err: fmt.Errorf("unexpected status %d", resp.StatusCode),
		}
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxRetrieveBytes))
	if err != nil {
		return nil, &TransportError{Op: "retrieve " + id, Err: err}
	}
	return data, nil
}

// SessionStatus asks the server whether it holds a session for this client.
func (r *Remote) SessionStatus(ctx context.Context) (SessionStatus, error) {
	var st SessionStatus
	if err := r.getJSON(ctx, "/api/session-status", &st); err != nil {
		return SessionStatus{}, err
	}
	return st, nil
}

// SessionPlaylist fetches the server-held ordered list for this client.
func (r *Remote) SessionPlaylist(ctx context.Context) ([]string, error) {
	var ids []string
	if err := r.getJSON(ctx, "/api/session-playlist", &ids); err != nil {
		return nil, err
	}
	return ids, nil
}

// restoreResponse is the wire shape of POST /api/restore-playlist.
type restoreResponse struct {
	Status     string   `json:"status"`
	ValidCount int      `json:"valid_count"`
	Playlist   []string `json:"playlist"`
}

// RestorePlaylist asks the server to validate and adopt a persisted
// playlist as its active session. The returned list contains only the
// ids that still resolve, in the original order.
func (r *Remote) RestorePlaylist(ctx context.Context, playlist []string, currentIndex int) ([]string, error) {
	body := map[string]interface{}{
		"playlist":      playlist,
		"current_index": currentIndex,
	}
	var resp restoreResponse
	if err := r.postJSON(ctx, "/api/restore-playlist", body, &resp); err != nil {
		return nil, err
	}
	return resp.Playlist, nil
}

func (r *Remote) postJSON(ctx context.Context, endpoint string, body, out interface{}) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("failed to encode %s request: %w", endpoint, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.baseURL+endpoint, bytes.NewReader(payload))
	if err != nil {
		return &TransportError{Op: "POST " + endpoint, Err: err}
	}
	req.Header.Set("Content-Type", "application/json")

	return r.do(req, endpoint, out)
}

func (r *Remote) getJSON(ctx context.Context, endpoint string, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, r.baseURL+endpoint, nil)
	if err != nil {
		return &TransportError{Op: "GET " + endpoint, Err: err}
	}
	return r.do(req, endpoint, out)
}

func (r *Remote) do(req *http.Request, endpoint string, out interface{}) error {
	resp, err := r.client.Do(req)
	if err != nil {
		return &TransportError{Op: req.Method + " " + endpoint, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return &TransportError{
			Op:  req.Method + " " + endpoint,
			Err: fmt.Errorf("unexpected status %d", resp.StatusCode),
		}
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return &TransportError{Op: req.Method + " " + endpoint, Err: fmt.Errorf("decode response: %w", err)}
	}
	return nil
}
