package repository

// Keyed is a record with a natural key and a stable identifier.
type Keyed interface {
	Key() string
	GetID() string
	SetID(id string)
}

// MergeResult counts what an upsert did.
type MergeResult struct {
	Added   int `json:"added"`
	Updated int `json:"updated"`
}

// MergeStrategy folds incoming records into an existing collection. It must
// not modify existing; the returned slice replaces it.
type MergeStrategy[T Keyed] interface {
	Name() string
	Merge(existing, incoming []T, newID func() string) ([]T, MergeResult)
}

// ReplaceOnKeyMatch swaps a record whose key matches an incoming one for the
// incoming record, keeping the old id. Unmatched records are appended with a
// fresh id. Fields are never unioned.
type ReplaceOnKeyMatch[T Keyed] struct{}

func (ReplaceOnKeyMatch[T]) Name() string { return "replace_on_key_match" }

func (ReplaceOnKeyMatch[T]) Merge(existing, incoming []T, newID func() string) ([]T, MergeResult) {
	var res MergeResult
	merged := make([]T, len(existing), len(existing)+len(incoming))
	copy(merged, existing)

	index := make(map[string]int, len(merged))
	for i, r := range merged {
		index[r.Key()] = i
	}
	for _, r := range incoming {
		if i, ok := index[r.Key()]; ok {
			r.SetID(merged[i].GetID())
			merged[i] = r
			res.Updated++
			continue
		}
		r.SetID(newID())
		index[r.Key()] = len(merged)
		merged = append(merged, r)
		res.Added++
	}
	return merged, res
}
