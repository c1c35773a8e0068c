package session

import (
	"context"
	"errors"
	"testing"

	"gallery-player/internal/mediatypes"
	"gallery-player/internal/playlist"
	"gallery-player/internal/source"
)

// fakeRemote implements source.Source and source.SessionCapable.
type fakeRemote struct {
	status       source.SessionStatus
	statusErr    error
	sessionList  []string
	restored     []string
	restoreErr   error
	restoreCalls int
}

func (f *fakeRemote) ID() string          { return "remote:test" }
func (f *fakeRemote) Pinned() bool        { return false }
func (f *fakeRemote) Locator(id string) string { return "remote://" + id }
func (f *fakeRemote) List(context.Context, source.ListRequest) ([]source.Entry, error) {
	return nil, nil
}
func (f *fakeRemote) Retrieve(context.Context, string) ([]byte, error) { return nil, nil }

func (f *fakeRemote) SessionStatus(context.Context) (source.SessionStatus, error) {
	return f.status, f.statusErr
}
func (f *fakeRemote) SessionPlaylist(context.Context) ([]string, error) {
	return f.sessionList, nil
}
func (f *fakeRemote) RestorePlaylist(_ context.Context, playlist []string, _ int) ([]string, error) {
	f.restoreCalls++
	if f.restoreErr != nil {
		return nil, f.restoreErr
	}
	if f.restored != nil {
		return f.restored, nil
	}
	return playlist, nil
}

// fakeValidating implements source.Source and source.PlaylistValidator.
type fakeValidating struct {
	valid map[string]bool
}

func (f *fakeValidating) ID() string          { return "local:/photos" }
func (f *fakeValidating) Pinned() bool        { return true }
func (f *fakeValidating) Locator(id string) string { return "/photos/" + id }
func (f *fakeValidating) List(context.Context, source.ListRequest) ([]source.Entry, error) {
	return nil, nil
}
func (f *fakeValidating) Retrieve(context.Context, string) ([]byte, error) { return nil, nil }

func (f *fakeValidating) ValidatePlaylist(_ context.Context, ids []string) ([]string, error) {
	var out []string
	for _, id := range ids {
		if f.valid[id] {
			out = append(out, id)
		}
	}
	return out, nil
}

func testCriteria(sourceID string) playlist.Criteria {
	return playlist.Criteria{
		SourceID:  sourceID,
		Sort:      mediatypes.SortName,
		Direction: mediatypes.DirectionForward,
	}
}

func savedRecord(t *testing.T, store *Store, sourceID string, criteria playlist.Criteria, ids []string, index int) {
	t.Helper()
	err := store.Save(sourceID, Record{
		Signature:    criteria.Signature(),
		Playlist:     ids,
		CurrentIndex: index,
	})
	if err != nil {
		t.Fatalf("failed to seed record: %v", err)
	}
}

func TestResumeAdoptsLiveServerSession(t *testing.T) {
	t.Parallel()

	store := openTestStore(t)
	src := &fakeRemote{
		status:      source.SessionStatus{HasSession: true, PlaylistSize: 3},
		sessionList: []string{"a.jpg", "b.jpg", "c.jpg"},
	}
	criteria := testCriteria(src.ID())
	savedRecord(t, store, src.ID(), criteria, []string{"a.jpg", "b.jpg", "c.jpg"}, 2)

	res, ok := NewResumer(src, store).Resume(context.Background(), criteria)
	if !ok {
		t.Fatal("resume failed")
	}
	if res.Origin != "adopted" {
		t.Fatalf("origin = %q, want adopted", res.Origin)
	}
	if len(res.IDs) != 3 || res.Index != 2 {
		t.Fatalf("resumption = %+v", res)
	}
	if src.restoreCalls != 0 {
		t.Fatal("adopting a live session must not call restore")
	}
}

func TestResumeAdoptionIgnoresIndexOnSignatureMismatch(t *testing.T) {
	t.Parallel()

	store := openTestStore(t)
	src := &fakeRemote{
		status:      source.SessionStatus{HasSession: true, PlaylistSize: 2},
		sessionList: []string{"a.jpg", "b.jpg"},
	}
	// Persisted under different criteria.
	other := testCriteria(src.ID())
	other.Sort = mediatypes.SortDate
	savedRecord(t, store, src.ID(), other, []string{"a.jpg", "b.jpg"}, 1)

	res, ok := NewResumer(src, store).Resume(context.Background(), testCriteria(src.ID()))
	if !ok {
		t.Fatal("resume failed")
	}
	if res.Index != 0 {
		t.Fatalf("index = %d, want 0 when signatures differ", res.Index)
	}
}

func TestResumeRestoresPersistedPlaylistViaServer(t *testing.T) {
	t.Parallel()

	store := openTestStore(t)
	src := &fakeRemote{
		status:   source.SessionStatus{HasSession: false},
		restored: []string{"a.jpg", "c.jpg"},
	}
	criteria := testCriteria(src.ID())
	savedRecord(t, store, src.ID(), criteria, []string{"a.jpg", "b.jpg", "c.jpg"}, 2)

	res, ok := NewResumer(src, store).Resume(context.Background(), criteria)
	if !ok {
		t.Fatal("resume failed")
	}
	if res.Origin != "restored" {
		t.Fatalf("origin = %q, want restored", res.Origin)
	}
	if len(res.IDs) != 2 {
		t.Fatalf("ids = %v", res.IDs)
	}
	// Index 2 clamps into the shrunken list.
	if res.Index != 1 {
		t.Fatalf("index = %d, want 1", res.Index)
	}
}

func TestResumeMissesWithoutMatchingRecord(t *testing.T) {
	t.Parallel()

	store := openTestStore(t)
	src := &fakeRemote{status: source.SessionStatus{HasSession: false}}

	if _, ok := NewResumer(src, store).Resume(context.Background(), testCriteria(src.ID())); ok {
		t.Fatal("resume succeeded with nothing to resume")
	}
	if src.restoreCalls != 0 {
		t.Fatal("restore called without a matching record")
	}
}

func TestResumeDegradesOnStatusError(t *testing.T) {
	t.Parallel()

	store := openTestStore(t)
	src := &fakeRemote{statusErr: errors.New("connection refused")}
	criteria := testCriteria(src.ID())
	savedRecord(t, store, src.ID(), criteria, []string{"a.jpg"}, 0)

	if _, ok := NewResumer(src, store).Resume(context.Background(), criteria); ok {
		t.Fatal("resume must degrade to a fresh fetch on transport errors")
	}
}

func TestResumeValidatesLocalPlaylist(t *testing.T) {
	t.Parallel()

	store := openTestStore(t)
	src := &fakeValidating{valid: map[string]bool{"a.jpg": true, "c.jpg": true}}
	criteria := testCriteria(src.ID())
	savedRecord(t, store, src.ID(), criteria, []string{"a.jpg", "b.jpg", "c.jpg"}, 2)

	res, ok := NewResumer(src, store).Resume(context.Background(), criteria)
	if !ok {
		t.Fatal("resume failed")
	}
	if len(res.IDs) != 2 || res.IDs[1] != "c.jpg" {
		t.Fatalf("validated ids = %v", res.IDs)
	}
	if res.Index != 1 {
		t.Fatalf("index = %d, want 1 after clamping", res.Index)
	}
}

func TestResumeLocalMissWhenAllItemsVanished(t *testing.T) {
	t.Parallel()

	store := openTestStore(t)
	src := &fakeValidating{valid: map[string]bool{}}
	criteria := testCriteria(src.ID())
	savedRecord(t, store, src.ID(), criteria, []string{"a.jpg", "b.jpg"}, 0)

	if _, ok := NewResumer(src, store).Resume(context.Background(), criteria); ok {
		t.Fatal("resume succeeded with an empty validated playlist")
	}
}

func TestResumeWithNilStore(t *testing.T) {
	t.Parallel()

	src := &fakeRemote{
		status:      source.SessionStatus{HasSession: true, PlaylistSize: 1},
		sessionList: []string{"a.jpg"},
	}

	res, ok := NewResumer(src, nil).Resume(context.Background(), testCriteria(src.ID()))
	if !ok {
		t.Fatal("live server session should still be adoptable without a local store")
	}
	if res.Index != 0 {
		t.Fatalf("index = %d, want 0", res.Index)
	}
}
