package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"gallery-player/internal/mediatypes"
)

// StateResponse describes the player state for the UI.
type StateResponse struct {
	Version  uint64 `json:"version"`
	Index    int    `json:"index"`
	Count    int    `json:"count"`
	Paused   bool   `json:"paused"`
	Interval string `json:"interval"`
	Overlay  bool   `json:"overlay"`

	Criteria CriteriaBody  `json:"criteria"`
	Current  *CurrentState `json:"current,omitempty"`

	CacheEntries  int   `json:"cacheEntries"`
	CacheBytes    int64 `json:"cacheBytes"`
	CacheInFlight int   `json:"cacheInFlight"`
}

// CurrentState describes the item under the cursor.
type CurrentState struct {
	ID               string `json:"id"`
	DisplayName      string `json:"displayName"`
	OrientationKnown bool   `json:"orientationKnown"`
	Landscape        bool   `json:"landscape"`
	Materialized     bool   `json:"materialized"`
}

// CriteriaBody is the wire form of the filter/sort configuration, used
// both in state responses and criteria updates.
type CriteriaBody struct {
	Paths       []string `json:"paths"`
	Sort        string   `json:"sort"`
	Direction   string   `json:"direction"`
	Orientation string   `json:"orientation"`
}

// GetState returns the full player state.
func (h *Handlers) GetState(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-cache")
	writeJSON(w, h.buildState())
}

func (h *Handlers) buildState() StateResponse {
	store := h.engine.Store()
	cache := h.engine.Cache()
	criteria := store.Criteria()

	resp := StateResponse{
		Version:  store.Version(),
		Index:    store.CurrentIndex(),
		Count:    store.Len(),
		Paused:   h.engine.Paused(),
		Interval: h.engine.Interval().String(),
		Overlay:  h.engine.Overlay(),
		Criteria: CriteriaBody{
			Paths:       criteria.Paths,
			Sort:        string(criteria.Sort),
			Direction:   string(criteria.Direction),
			Orientation: string(criteria.Orientation),
		},
		CacheEntries:  cache.Len(),
		CacheBytes:    cache.Bytes(),
		CacheInFlight: cache.InFlightCount(),
	}

	if it, _, ok := store.Current(); ok {
		resp.Current = &CurrentState{
			ID:               it.ID,
			DisplayName:      it.DisplayName,
			OrientationKnown: it.OrientationKnown,
			Landscape:        it.Landscape,
			Materialized:     it.Handle != nil && !it.Handle.Released(),
		}
	}

	return resp
}

// GetCurrent serves the bytes of the current image, preferring the
// prefetched handle and falling back to a direct retrieval.
func (h *Handlers) GetCurrent(w http.ResponseWriter, r *http.Request) {
	it, data, format, ok, err := h.engine.CurrentImage(r.Context())
	if !ok {
		writeJSONError(w, "playlist is empty", http.StatusNotFound)
		return
	}
	if err != nil {
		writeJSONError(w, "failed to retrieve image: "+err.Error(), http.StatusBadGateway)
		return
	}

	w.Header().Set("Content-Type", mediatypes.MimeType("."+format))
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("X-Image-ID", it.ID)
	if _, err := w.Write(data); err != nil {
		// Client went away mid-image; nothing to recover.
		return
	}
}

// Advance moves to the next item.
func (h *Handlers) Advance(w http.ResponseWriter, _ *http.Request) {
	h.engine.Advance("manual")
	w.Header().Set("Content-Type", "application/json")
	writeJSON(w, h.buildState())
}

// Retreat moves to the previous item.
func (h *Handlers) Retreat(w http.ResponseWriter, _ *http.Request) {
	h.engine.Retreat("manual")
	w.Header().Set("Content-Type", "application/json")
	writeJSON(w, h.buildState())
}

// TogglePause flips the automatic advance.
func (h *Handlers) TogglePause(w http.ResponseWriter, _ *http.Request) {
	paused := h.engine.TogglePause()
	w.Header().Set("Content-Type", "application/json")
	writeJSON(w, map[string]bool{"paused": paused})
}

// ToggleOverlay flips the info overlay.
func (h *Handlers) ToggleOverlay(w http.ResponseWriter, _ *http.Request) {
	overlay := h.engine.ToggleOverlay()
	w.Header().Set("Content-Type", "application/json")
	writeJSON(w, map[string]bool{"overlay": overlay})
}

// SetInterval changes the automatic advance period.
func (h *Handlers) SetInterval(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Interval string `json:"interval"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeJSONError(w, "invalid request body", http.StatusBadRequest)
		return
	}

	d, err := time.ParseDuration(body.Interval)
	if err != nil || d <= 0 {
		writeJSONError(w, "interval must be a positive duration", http.StatusBadRequest)
		return
	}

	applied := h.engine.SetInterval(d)
	w.Header().Set("Content-Type", "application/json")
	writeJSON(w, map[string]string{"interval": applied.String()})
}

// SetCriteria updates the filter/sort configuration. Fields absent from
// the body keep their current values, so the UI can send partial edits;
// a burst of edits settles into a single refetch.
func (h *Handlers) SetCriteria(w http.ResponseWriter, r *http.Request) {
	var body CriteriaBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeJSONError(w, "invalid request body", http.StatusBadRequest)
		return
	}

	c := h.engine.Criteria()
	if body.Paths != nil {
		c.Paths = body.Paths
	}
	if body.Sort != "" {
		c.Sort = mediatypes.ParseSortMode(body.Sort)
	}
	if body.Direction != "" {
		c.Direction = mediatypes.ParseDirection(body.Direction)
	}
	if body.Orientation != "" {
		c.Orientation = mediatypes.ParseOrientation(body.Orientation)
	}

	h.engine.SetCriteria(c)
	writeJSONStatus(w, "accepted")
}

// Refresh forces a refetch under the current criteria.
func (h *Handlers) Refresh(w http.ResponseWriter, _ *http.Request) {
	h.engine.Refresh()
	writeJSONStatus(w, "accepted")
}
