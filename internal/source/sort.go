package source

import (
	"math/rand"
	"sort"

	"gallery-player/internal/mediatypes"
)

// itemMeta is the scanner-internal view of a candidate item, carrying the
// fields the sort modes need.
type itemMeta struct {
	id          string
	name        string
	parent      string
	mtime       int64
	folderMTime int64
	landscape   bool
}

// orderItems sorts items in place according to the sort mode. Direction
// is applied by the caller.
func orderItems(items []itemMeta, mode mediatypes.SortMode) {
	switch mode {
	case mediatypes.SortShuffle:
		rand.Shuffle(len(items), func(i, j int) {
			items[i], items[j] = items[j], items[i]
		})

	case mediatypes.SortDate:
		// Newest first; ties break on natural id order for stability.
		sort.SliceStable(items, func(i, j int) bool {
			if items[i].mtime != items[j].mtime {
				return items[i].mtime > items[j].mtime
			}
			return NaturalLess(items[i].id, items[j].id)
		})

	case mediatypes.SortSubfolderShuffle:
		groupSort(items, func(folders []string, mtimes map[string]int64) {
			rand.Shuffle(len(folders), func(i, j int) {
				folders[i], folders[j] = folders[j], folders[i]
			})
		})

	case mediatypes.SortSubfolderDate:
		groupSort(items, func(folders []string, mtimes map[string]int64) {
			sort.SliceStable(folders, func(i, j int) bool {
				if mtimes[folders[i]] != mtimes[folders[j]] {
					return mtimes[folders[i]] < mtimes[folders[j]]
				}
				return NaturalLess(folders[i], folders[j])
			})
		})

	default: // SortName
		sort.SliceStable(items, func(i, j int) bool {
			return NaturalLess(items[i].id, items[j].id)
		})
	}
}

// groupSort buckets items by parent folder, lets orderFolders arrange the
// folder sequence, and applies natural id order inside each folder.
func groupSort(items []itemMeta, orderFolders func(folders []string, mtimes map[string]int64)) {
	groups := make(map[string][]itemMeta)
	mtimes := make(map[string]int64)
	var folders []string

	for _, it := range items {
		if _, ok := groups[it.parent]; !ok {
			folders = append(folders, it.parent)
			mtimes[it.parent] = it.folderMTime
		}
		groups[it.parent] = append(groups[it.parent], it)
	}

	orderFolders(folders, mtimes)

	out := items[:0]
	for _, folder := range folders {
		group := groups[folder]
		sort.SliceStable(group, func(i, j int) bool {
			return NaturalLess(group[i].id, group[j].id)
		})
		out = append(out, group...)
	}
}

// toEntries converts ordered metadata into the public list result.
func toEntries(items []itemMeta, reverse bool) []Entry {
	entries := make([]Entry, len(items))
	for i, it := range items {
		entries[i] = Entry{
			ID:               it.id,
			DisplayName:      it.name,
			OrientationKnown: true,
			Landscape:        it.landscape,
		}
	}
	if reverse {
		for i, j := 0, len(entries)-1; i < j; i, j = i+1, j-1 {
			entries[i], entries[j] = entries[j], entries[i]
		}
	}
	return entries
}
