package playlist

import (
	"strings"

	"gallery-player/internal/media"
	"gallery-player/internal/mediatypes"
)

// Item describes one playlist entry. IDs are unique within one snapshot
// but not globally; the Locator is the stable cross-snapshot address used
// for retrieval and cache keying.
type Item struct {
	ID               string
	Locator          string
	DisplayName      string
	OrientationKnown bool
	Landscape        bool

	// Handle is nil until the prefetcher materializes the item.
	Handle *media.Handle
}

// Criteria identifies a filter/sort/source configuration. Two criteria
// with equal signatures produce interchangeable playlists.
type Criteria struct {
	SourceID    string
	Paths       []string // order-sensitive
	Sort        mediatypes.SortMode
	Direction   mediatypes.Direction
	Orientation mediatypes.Orientation
}

// Signature returns the canonical serialization of the criteria. Path
// order is preserved; paths are escaped so that a path containing the
// separator cannot collide with a different selection.
func (c Criteria) Signature() string {
	var b strings.Builder
	b.WriteString(escape(c.SourceID))
	b.WriteByte('|')
	for i, p := range c.Paths {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteString(escape(p))
	}
	b.WriteByte('|')
	b.WriteString(string(c.Sort))
	b.WriteByte('|')
	b.WriteString(string(c.Direction))
	b.WriteByte('|')
	b.WriteString(string(c.Orientation))
	return b.String()
}

// Equal reports whether two criteria have the same signature.
func (c Criteria) Equal(o Criteria) bool {
	return c.Signature() == o.Signature()
}

func escape(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	s = strings.ReplaceAll(s, `|`, `\p`)
	s = strings.ReplaceAll(s, `,`, `\c`)
	return s
}
