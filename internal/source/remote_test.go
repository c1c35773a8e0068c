package source

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"gallery-player/internal/mediatypes"
)

func TestRemoteListWireFormat(t *testing.T) {
	t.Parallel()

	var got playlistRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/api/playlist" {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("failed to decode request: %v", err)
		}
		json.NewEncoder(w).Encode([]string{"vacation/img1.jpg", "vacation/img2.jpg"})
	}))
	defer srv.Close()

	remote := NewRemote(srv.URL, 5*time.Second)
	entries, err := remote.List(context.Background(), ListRequest{
		Paths:       []string{"vacation"},
		Sort:        mediatypes.SortName,
		Direction:   mediatypes.DirectionForward,
		Orientation: mediatypes.OrientationLandscape,
		AnchorID:    "vacation/img2.jpg",
	})
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}

	if got.Orientation != "Landscape" {
		t.Errorf("wire orientation = %q, want Landscape", got.Orientation)
	}
	if got.Sort != "name" || got.Direction != "forward" {
		t.Errorf("wire sort/direction = %q/%q", got.Sort, got.Direction)
	}
	if got.CurrentPath != "vacation/img2.jpg" {
		t.Errorf("wire current_path = %q", got.CurrentPath)
	}

	if len(entries) != 2 || entries[0].ID != "vacation/img1.jpg" {
		t.Fatalf("entries = %+v", entries)
	}
	if entries[0].DisplayName != "img1.jpg" {
		t.Errorf("display name = %q, want img1.jpg", entries[0].DisplayName)
	}
	if entries[0].OrientationKnown {
		t.Error("remote entries must not claim known orientation")
	}
}

func TestRemoteListErrorStatus(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer srv.Close()

	remote := NewRemote(srv.URL, 5*time.Second)
	_, err := remote.List(context.Background(), ListRequest{})
	if err == nil {
		t.Fatal("expected error on 500 response")
	}

	var terr *TransportError
	if !errors.As(err, &terr) {
		t.Fatalf("error type = %T, want *TransportError", err)
	}
}

func TestRemoteRetrieve(t *testing.T) {
	t.Parallel()

	payload := []byte{0xFF, 0xD8, 0xFF, 0xE0}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/file" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if got := r.URL.Query().Get("path"); got != "a b/img.jpg" {
			t.Errorf("path query = %q", got)
		}
		w.Write(payload)
	}))
	defer srv.Close()

	remote := NewRemote(srv.URL, 5*time.Second)
	data, err := remote.Retrieve(context.Background(), "a b/img.jpg")
	if err != nil {
		t.Fatalf("Retrieve failed: %v", err)
	}
	if len(data) != len(payload) {
		t.Fatalf("data length = %d, want %d", len(data), len(payload))
	}
}

func TestRemoteSessionEndpoints(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/session-status":
			json.NewEncoder(w).Encode(SessionStatus{HasSession: true, Source: "session", PlaylistSize: 3})
		case "/api/session-playlist":
			json.NewEncoder(w).Encode([]string{"a.jpg", "b.jpg", "c.jpg"})
		case "/api/restore-playlist":
			var body struct {
				Playlist     []string `json:"playlist"`
				CurrentIndex int      `json:"current_index"`
			}
			if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
				t.Errorf("failed to decode restore body: %v", err)
			}
			// Pretend the second item vanished.
			json.NewEncoder(w).Encode(restoreResponse{
				Status:     "restored",
				ValidCount: 2,
				Playlist:   []string{body.Playlist[0], body.Playlist[2]},
			})
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	remote := NewRemote(srv.URL, 5*time.Second)
	ctx := context.Background()

	st, err := remote.SessionStatus(ctx)
	if err != nil {
		t.Fatalf("SessionStatus failed: %v", err)
	}
	if !st.HasSession || st.PlaylistSize != 3 {
		t.Fatalf("status = %+v", st)
	}

	ids, err := remote.SessionPlaylist(ctx)
	if err != nil {
		t.Fatalf("SessionPlaylist failed: %v", err)
	}
	if len(ids) != 3 {
		t.Fatalf("session playlist length = %d", len(ids))
	}

	restored, err := remote.RestorePlaylist(ctx, []string{"x.jpg", "gone.jpg", "y.jpg"}, 1)
	if err != nil {
		t.Fatalf("RestorePlaylist failed: %v", err)
	}
	if len(restored) != 2 || restored[1] != "y.jpg" {
		t.Fatalf("restored = %v", restored)
	}
}

func TestRemoteLocatorEscapesID(t *testing.T) {
	t.Parallel()

	remote := NewRemote("http://host:4860/", time.Second)
	if got := remote.Locator("dir name/img&1.jpg"); got != "http://host:4860/api/file?path=dir+name%2Fimg%261.jpg" {
		t.Fatalf("locator = %q", got)
	}
}
