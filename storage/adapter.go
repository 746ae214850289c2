// Copyright (C) 2019-2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package storage provides the ordered key/value capability set the rest
// of this module persists instances, execution status and metadata
// through: Set/Get/Delete, ordered Next/Prev neighbour lookup, and an
// atomic multi-key WriteBatch. Column families are emulated by prefixing
// keys with the family name — Adapter callers never see the prefix.
package storage

import "fmt"

// Op identifies a WriteBatch entry's kind.
type Op int

const (
	OpSet Op = iota
	OpDelete
)

// BatchEntry is one operation in an atomic WriteBatch.
type BatchEntry struct {
	CF    string
	Op    Op
	Key   []byte
	Value []byte
}

// Adapter is the abstract storage capability set. Implementations include
// a pebble-backed engine (disk, or in-memory via pebble's memory vfs for
// tests) — see pebble.go. Nothing above this package may depend on a
// concrete implementation type.
type Adapter interface {
	// Set writes value under key in column family cf.
	Set(cf string, key, value []byte) error
	// Get returns the value under key in cf, or ok=false if absent.
	Get(cf string, key []byte) (value []byte, ok bool, err error)
	// Delete removes key from cf. Deleting an absent key is not an error.
	Delete(cf string, key []byte) error
	// Next returns the lexicographically smallest key in cf that is
	// greater than (or, if inclusive, greater than or equal to) key.
	Next(cf string, key []byte, inclusive bool) (nextKey, value []byte, ok bool, err error)
	// Prev returns the lexicographically largest key in cf that is less
	// than (or, if inclusive, less than or equal to) key.
	Prev(cf string, key []byte, inclusive bool) (prevKey, value []byte, ok bool, err error)
	// WriteBatch applies entries atomically: either all of them are
	// durable, or none are.
	WriteBatch(entries []BatchEntry) error
	// Close releases the underlying engine.
	Close() error
}

// Column families used by the persistent key layout (spec.md §6).
const (
	CFInstance         = "instance"
	CFMaxCommitted     = "status/max_committed"
	CFCheckpoint       = "status/checkpoint"
	CFData             = "data"
)

func fullKey(cf string, key []byte) []byte {
	out := make([]byte, 0, len(cf)+len(key)+2)
	out = append(out, '/')
	out = append(out, cf...)
	out = append(out, '/')
	out = append(out, key...)
	return out
}

func splitKey(cf string, full []byte) ([]byte, error) {
	prefix := fullKey(cf, nil)
	if len(full) < len(prefix) {
		return nil, fmt.Errorf("storage: key %q shorter than cf prefix %q", full, prefix)
	}
	return full[len(prefix):], nil
}
