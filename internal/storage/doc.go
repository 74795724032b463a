// Package storage provides local string key-value stores with a byte quota.
//
// Every backend stores string values under string keys and enforces an
// optional byte quota over the whole store:
//
//	quota >= sum(len(key) + len(value)) for every stored key
//
// A write that would break the quota fails with ErrQuotaExceeded and leaves
// the store unchanged.
//
// # Backends
//
//   - "memory": process-local map, lost on exit
//   - "file": a single JSON object file, rewritten atomically on each write
//   - "sqlite": a kv table in a SQLite database (WAL mode)
//
// Use Open to construct a backend by name.
package storage
