// Package todo holds the todo list state: the item collection, the
// visibility filter and the draft input, plus the actions that change them.
//
// A Store keeps the canonical list in memory and writes a full snapshot to a
// storage.Storage under StorageKey after every change:
//
//	[
//	  {"id": "5f0c...", "title": "Buy milk", "completed": false},
//	  {"id": "9a1e...", "title": "Walk dog", "completed": true}
//	]
//
// New items go to the front of the list. Snapshots are read back once by
// Hydrate. A missing, malformed or schema-invalid snapshot hydrates as an
// empty list.
//
// # Persistence failures
//
// Storage errors never reach callers. Reads and writes are best effort: on
// failure the store logs a warning and carries on with its in-memory state.
//
// # Editing
//
// At most one item is in edit mode. The editing flag is view state and is
// not written to snapshots; hydrated items always start out of edit mode.
package todo
