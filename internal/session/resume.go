package session

import (
	"context"

	"gallery-player/internal/logging"
	"gallery-player/internal/metrics"
	"gallery-player/internal/playlist"
	"gallery-player/internal/source"
)

// Resumption is the outcome of a successful resume attempt: the ordered
// item ids to adopt and the index to start on.
type Resumption struct {
	IDs   []string
	Index int
	// Origin is "adopted" when the list came from a live server session
	// and "restored" when it was rebuilt from the local snapshot.
	Origin string
}

// Resumer reassembles a previous viewing session at startup. It prefers
// a session still live on the remote collaborator and falls back to the
// locally persisted snapshot, validated against current reality. A
// persisted snapshot only applies when it was produced under the same
// criteria signature the player is starting with.
type Resumer struct {
	src   source.Source
	store *Store
}

// NewResumer creates a resumer for src backed by the persisted store.
// store may be nil, in which case only live server sessions are
// considered.
func NewResumer(src source.Source, store *Store) *Resumer {
	return &Resumer{src: src, store: store}
}

// Resume attempts the resume paths in order. ok is false when nothing
// was resumable; the caller then performs a fresh list-fetch. Resume
// never fails hard: every error path degrades to a fresh fetch.
func (r *Resumer) Resume(ctx context.Context, criteria playlist.Criteria) (Resumption, bool) {
	rec, hasRec := r.store.Load(r.src.ID())
	matched := hasRec && rec.Signature == criteria.Signature()
	if hasRec && !matched {
		logging.Debug("persisted session ignored: criteria changed since it was saved")
	}

	if sc, isSession := r.src.(source.SessionCapable); isSession {
		if res, ok := r.resumeRemote(ctx, sc, rec, matched); ok {
			return res, true
		}
		return Resumption{}, false
	}

	if !matched || len(rec.Playlist) == 0 {
		metrics.SessionResumeTotal.WithLabelValues("miss").Inc()
		return Resumption{}, false
	}

	ids := rec.Playlist
	index := rec.CurrentIndex
	if pv, canValidate := r.src.(source.PlaylistValidator); canValidate {
		validated, err := pv.ValidatePlaylist(ctx, ids)
		if err != nil {
			metrics.SessionResumeTotal.WithLabelValues("error").Inc()
			logging.Warn("session playlist validation failed: %v", err)
			return Resumption{}, false
		}
		if len(validated) < len(ids) {
			logging.Info("session restore dropped %d missing items", len(ids)-len(validated))
		}
		ids = validated
	}
	if len(ids) == 0 {
		metrics.SessionResumeTotal.WithLabelValues("miss").Inc()
		return Resumption{}, false
	}

	metrics.SessionResumeTotal.WithLabelValues("restored").Inc()
	logging.Info("restored session: %d items at index %d", len(ids), clampIndex(index, len(ids)))
	return Resumption{IDs: ids, Index: clampIndex(index, len(ids)), Origin: "restored"}, true
}

// resumeRemote handles the two remote paths: adopt the server's live
// session, or push the persisted snapshot through the server's restore
// endpoint so it revalidates each entry.
func (r *Resumer) resumeRemote(ctx context.Context, sc source.SessionCapable, rec Record, matched bool) (Resumption, bool) {
	status, err := sc.SessionStatus(ctx)
	if err != nil {
		metrics.SessionResumeTotal.WithLabelValues("error").Inc()
		logging.Warn("session status check failed: %v", err)
		return Resumption{}, false
	}

	if status.HasSession && status.PlaylistSize > 0 {
		ids, err := sc.SessionPlaylist(ctx)
		if err != nil {
			metrics.SessionResumeTotal.WithLabelValues("error").Inc()
			logging.Warn("session playlist fetch failed: %v", err)
			return Resumption{}, false
		}
		if len(ids) > 0 {
			index := 0
			if matched {
				index = clampIndex(rec.CurrentIndex, len(ids))
			}
			metrics.SessionResumeTotal.WithLabelValues("adopted").Inc()
			logging.Info("adopted live server session: %d items at index %d", len(ids), index)
			return Resumption{IDs: ids, Index: index, Origin: "adopted"}, true
		}
	}

	if !matched || len(rec.Playlist) == 0 {
		metrics.SessionResumeTotal.WithLabelValues("miss").Inc()
		return Resumption{}, false
	}

	validated, err := sc.RestorePlaylist(ctx, rec.Playlist, rec.CurrentIndex)
	if err != nil {
		metrics.SessionResumeTotal.WithLabelValues("error").Inc()
		logging.Warn("session restore failed: %v", err)
		return Resumption{}, false
	}
	if len(validated) == 0 {
		metrics.SessionResumeTotal.WithLabelValues("miss").Inc()
		return Resumption{}, false
	}

	if dropped := len(rec.Playlist) - len(validated); dropped > 0 {
		logging.Info("session restore dropped %d missing items", dropped)
	}
	index := clampIndex(rec.CurrentIndex, len(validated))
	metrics.SessionResumeTotal.WithLabelValues("restored").Inc()
	logging.Info("restored session via server: %d items at index %d", len(validated), index)
	return Resumption{IDs: validated, Index: index, Origin: "restored"}, true
}

func clampIndex(i, n int) int {
	if i < 0 {
		return 0
	}
	if i >= n {
		return n - 1
	}
	return i
}
