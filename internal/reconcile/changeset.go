package reconcile

import (
	"maps"
	"slices"

	"github.com/Aman-CERP/docsync/internal/manifest"
)

// ChangeSet partitions the identities known to the manifest or present on
// disk. The four lists are sorted and pairwise disjoint, and together they
// cover every identity of both inputs.
type ChangeSet struct {
	Added     []string `json:"added"`
	Modified  []string `json:"modified"`
	Deleted   []string `json:"deleted"`
	Unchanged []string `json:"unchanged"`
}

// Diff compares the last indexed state with the current directory state.
// Renames are not detected: they show up as one delete and one add.
func Diff(indexed manifest.Manifest, current map[string]string) *ChangeSet {
	cs := &ChangeSet{
		Added:     []string{},
		Modified:  []string{},
		Deleted:   []string{},
		Unchanged: []string{},
	}

	for _, id := range slices.Sorted(maps.Keys(current)) {
		old, ok := indexed[id]
		switch {
		case !ok:
			cs.Added = append(cs.Added, id)
		case old != current[id]:
			cs.Modified = append(cs.Modified, id)
		default:
			cs.Unchanged = append(cs.Unchanged, id)
		}
	}
	for _, id := range indexed.Identities() {
		if _, ok := current[id]; !ok {
			cs.Deleted = append(cs.Deleted, id)
		}
	}
	return cs
}

// Empty reports whether nothing needs to be applied.
func (c *ChangeSet) Empty() bool {
	return len(c.Added) == 0 && len(c.Modified) == 0 && len(c.Deleted) == 0
}

// Pending returns the number of identities that need gateway calls.
func (c *ChangeSet) Pending() int {
	return len(c.Added) + len(c.Modified) + len(c.Deleted)
}

func sortedKeys[V any](m map[string]V) []string {
	return slices.Sorted(maps.Keys(m))
}
