package queue

import "context"

// ResultsEncoder can serialize itself for storage. This is satisfied by
// *search.ResultSet without requiring a direct import of that package.
type ResultsEncoder interface {
	Encode() (string, error)
}

// PersistResults encodes env and writes the result to item via store.Update.
// On success the updated item fields (including any store-generated values)
// are written back through the item pointer. Returns a non-nil error when
// encoding or persistence fails; callers decide how to log the result.
func PersistResults(ctx context.Context, store *Store, item *Item, env ResultsEncoder) error {
	encoded, err := env.Encode()
	if err != nil {
		return err
	}
	copy := *item
	copy.ResultsJSON = encoded
	if store != nil {
		if err := store.Update(ctx, &copy); err != nil {
			return err
		}
	}
	*item = copy
	return nil
}
