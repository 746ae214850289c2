// Copyright (C) 2019-2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package storage

import (
	"bytes"

	"github.com/cockroachdb/pebble"
	"github.com/cockroachdb/pebble/vfs"

	"github.com/luxfi/epaxos/epaxoserr"
)

// PebbleAdapter implements Adapter over a *pebble.DB. Column families are
// emulated by key prefixing; ordered Next/Prev neighbour lookup uses
// pebble's native bidirectional iterator, which is the idiomatic way a
// pebble-backed Go service gets range scans without a RocksDB-style CF
// handle.
type PebbleAdapter struct {
	db *pebble.DB
}

// Open opens (or creates) a pebble database at dir on the real filesystem.
func Open(dir string) (*PebbleAdapter, error) {
	db, err := pebble.Open(dir, &pebble.Options{})
	if err != nil {
		return nil, epaxoserr.WrapStorage("open", err)
	}
	return &PebbleAdapter{db: db}, nil
}

// OpenMem opens an in-memory pebble database backed by pebble's memory
// vfs. This is the adapter implementation tests use, so the same code
// path (prefixing, batching, iteration) is exercised by both tests and
// production rather than maintaining a second, bespoke in-memory engine.
func OpenMem() (*PebbleAdapter, error) {
	db, err := pebble.Open("", &pebble.Options{FS: vfs.NewMem()})
	if err != nil {
		return nil, epaxoserr.WrapStorage("open-mem", err)
	}
	return &PebbleAdapter{db: db}, nil
}

func (a *PebbleAdapter) Set(cf string, key, value []byte) error {
	if err := a.db.Set(fullKey(cf, key), value, pebble.Sync); err != nil {
		return epaxoserr.WrapStorage("set", err)
	}
	return nil
}

func (a *PebbleAdapter) Get(cf string, key []byte) ([]byte, bool, error) {
	v, closer, err := a.db.Get(fullKey(cf, key))
	if err == pebble.ErrNotFound {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, epaxoserr.WrapStorage("get", err)
	}
	out := append([]byte(nil), v...)
	_ = closer.Close()
	return out, true, nil
}

func (a *PebbleAdapter) Delete(cf string, key []byte) error {
	if err := a.db.Delete(fullKey(cf, key), pebble.Sync); err != nil {
		return epaxoserr.WrapStorage("delete", err)
	}
	return nil
}

// prefixBounds returns the [lower, upper) byte range covering every key in
// column family cf.
func prefixBounds(cf string) ([]byte, []byte) {
	lower := fullKey(cf, nil)
	upper := append([]byte(nil), lower...)
	// Increment the last byte to get the exclusive upper bound for the
	// prefix range; fullKey always ends in '/' (0x2f), which never wraps.
	upper[len(upper)-1]++
	return lower, upper
}

func (a *PebbleAdapter) Next(cf string, key []byte, inclusive bool) ([]byte, []byte, bool, error) {
	lower, upper := prefixBounds(cf)
	iter, err := a.db.NewIter(&pebble.IterOptions{LowerBound: lower, UpperBound: upper})
	if err != nil {
		return nil, nil, false, epaxoserr.WrapStorage("next", err)
	}
	defer iter.Close()

	target := fullKey(cf, key)
	found := iter.SeekGE(target)
	if found && !inclusive && bytes.Equal(iter.Key(), target) {
		found = iter.Next()
	}
	if !found || !iter.Valid() {
		return nil, nil, false, nil
	}
	k, err := splitKey(cf, iter.Key())
	if err != nil {
		return nil, nil, false, epaxoserr.WrapStorage("next", err)
	}
	return k, append([]byte(nil), iter.Value()...), true, nil
}

func (a *PebbleAdapter) Prev(cf string, key []byte, inclusive bool) ([]byte, []byte, bool, error) {
	lower, upper := prefixBounds(cf)
	iter, err := a.db.NewIter(&pebble.IterOptions{LowerBound: lower, UpperBound: upper})
	if err != nil {
		return nil, nil, false, epaxoserr.WrapStorage("prev", err)
	}
	defer iter.Close()

	target := fullKey(cf, key)
	var found bool
	if inclusive {
		found = iter.SeekGE(target)
		if !found || !iter.Valid() || !bytes.Equal(iter.Key(), target) {
			found = iter.SeekLT(target)
		}
	} else {
		found = iter.SeekLT(target)
	}
	if !found || !iter.Valid() {
		return nil, nil, false, nil
	}
	k, err := splitKey(cf, iter.Key())
	if err != nil {
		return nil, nil, false, epaxoserr.WrapStorage("prev", err)
	}
	return k, append([]byte(nil), iter.Value()...), true, nil
}

func (a *PebbleAdapter) WriteBatch(entries []BatchEntry) error {
	batch := a.db.NewBatch()
	defer batch.Close()

	for _, e := range entries {
		switch e.Op {
		case OpSet:
			if err := batch.Set(fullKey(e.CF, e.Key), e.Value, nil); err != nil {
				return epaxoserr.WrapStorage("write-batch-set", err)
			}
		case OpDelete:
			if err := batch.Delete(fullKey(e.CF, e.Key), nil); err != nil {
				return epaxoserr.WrapStorage("write-batch-delete", err)
			}
		}
	}
	if err := a.db.Apply(batch, pebble.Sync); err != nil {
		return epaxoserr.WrapStorage("write-batch-apply", err)
	}
	return nil
}

func (a *PebbleAdapter) Close() error {
	if err := a.db.Close(); err != nil {
		return epaxoserr.WrapStorage("close", err)
	}
	return nil
}

var _ Adapter = (*PebbleAdapter)(nil)
