package source

import (
	"context"
	"fmt"

	"gallery-player/internal/mediatypes"
)

// ListRequest describes one playlist list-fetch.
type ListRequest struct {
	Paths       []string
	Sort        mediatypes.SortMode
	Direction   mediatypes.Direction
	Orientation mediatypes.Orientation

	// AnchorID, when set, hints the source to keep this item reachable;
	// the remote server rotates its result so the anchor stays first.
	AnchorID string
}

// Entry is one ordered result of a list-fetch. Orientation is known for
// local and demo entries; remote entries are probed at materialization.
type Entry struct {
	ID               string
	DisplayName      string
	OrientationKnown bool
	Landscape        bool
}

// Source produces ordered item lists and retrieves raw image bytes.
type Source interface {
	// ID identifies the source for criteria signatures and session keying.
	ID() string

	// List performs one list-fetch and returns the ordered entries.
	// An empty result is not an error.
	List(ctx context.Context, req ListRequest) ([]Entry, error)

	// Retrieve fetches the raw bytes for an item id.
	Retrieve(ctx context.Context, id string) ([]byte, error)

	// Locator returns the stable retrieval address for an item id,
	// used as the cross-snapshot cache key.
	Locator(id string) string

	// Pinned reports whether handles from this source are backed by a
	// stable local reference and therefore exempt from reclamation.
	Pinned() bool
}

// SessionCapable is implemented by sources whose server holds a resumable
// session playlist.
type SessionCapable interface {
	SessionStatus(ctx context.Context) (SessionStatus, error)
	SessionPlaylist(ctx context.Context) ([]string, error)
	RestorePlaylist(ctx context.Context, playlist []string, currentIndex int) ([]string, error)
}

// PlaylistValidator is implemented by sources that can check a persisted
// playlist against current reality, dropping ids that no longer resolve.
type PlaylistValidator interface {
	ValidatePlaylist(ctx context.Context, ids []string) ([]string, error)
}

// SessionStatus reports whether the remote collaborator holds a session.
type SessionStatus struct {
	HasSession   bool   `json:"has_session"`
	Source       string `json:"source"`
	PlaylistSize int    `json:"playlist_size"`
}

// TransportError indicates a network or protocol failure talking to a
// source. List-fetch transport errors leave the current playlist
// untouched; retrieval transport errors make the item fall back to
// on-demand display-time retrieval.
type TransportError struct {
	Op  string
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}
