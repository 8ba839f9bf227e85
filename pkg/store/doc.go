// Package store persists collected records and merges them across runs.
//
// A store is a JSON array of records at a caller-chosen path. Every flush
// reads the current array, appends the records whose IDs it does not yet
// contain, and replaces the file atomically. Merging is a set union keyed by
// record ID: the first record persisted for an ID is kept for good.
//
//	fs := store.NewFileStore("out/tweets.json", log)
//	res, err := fs.Flush(ctx, records)
//	if errors.IsStoreCorrupt(err) {
//	    // the existing file was not touched
//	}
package store
