// Package join resolves identifier references between separately fetched
// festival collections.
package join

import "github.com/okian/festboard/internal/domain/model"

// Index maps identifiers to records. A miss is reported explicitly by Lookup.
type Index[K comparable, V any] struct {
	items map[K]V
}

// NewIndex indexes items by key. The first record wins when keys repeat and
// records with a zero key are skipped.
func NewIndex[K comparable, V any](items []V, key func(V) K) *Index[K, V] {
	idx := &Index[K, V]{items: make(map[K]V, len(items))}
	var zero K
	for _, item := range items {
		k := key(item)
		if k == zero {
			continue
		}
		if _, dup := idx.items[k]; dup {
			continue
		}
		idx.items[k] = item
	}
	return idx
}

// Lookup returns the record for k and whether it exists.
func (i *Index[K, V]) Lookup(k K) (V, bool) {
	if i == nil {
		var zero V
		return zero, false
	}
	v, ok := i.items[k]
	return v, ok
}

// Len returns the number of indexed records.
func (i *Index[K, V]) Len() int {
	if i == nil {
		return 0
	}
	return len(i.items)
}

// CandidatesByID indexes candidates by their identifier.
func CandidatesByID(candidates []model.Candidate) *Index[string, model.Candidate] {
	return NewIndex(candidates, func(c model.Candidate) string { return c.ID })
}

// ResolveCandidates returns copies of results whose candidate references point
// at the indexed records. References that are already embedded are kept.
// Identifiers with no record are returned in missing and stay unresolved.
func ResolveCandidates(results []model.Result, idx *Index[string, model.Candidate]) (resolved []model.Result, missing []string) {
	resolved = make([]model.Result, len(results))
	for i, r := range results {
		resolved[i] = r
		if r.Candidate.Value != nil {
			continue
		}
		c, ok := idx.Lookup(r.Candidate.ID)
		if !ok {
			missing = append(missing, r.Candidate.ID)
			continue
		}
		resolved[i].Candidate = r.Candidate.With(c)
	}
	return resolved, missing
}

// Find returns the first item matching pred.
func Find[T any](items []T, pred func(T) bool) (T, bool) {
	for _, item := range items {
		if pred(item) {
			return item, true
		}
	}
	var zero T
	return zero, false
}
