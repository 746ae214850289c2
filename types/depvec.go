// Copyright (C) 2019-2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package types

import "sort"

// InstanceIdVec is a dependency vector: at most one InstanceId per
// ReplicaId. It is kept sorted by ReplicaId so two vectors built from the
// same set of entries always serialise and compare identically —
// dependency-union must be deterministic across replicas.
type InstanceIdVec struct {
	entries []InstanceId
}

// NewInstanceIdVec builds a vector from entries, applying SetOrReplace for
// each so duplicates by ReplicaId collapse to the last one given.
func NewInstanceIdVec(entries ...InstanceId) InstanceIdVec {
	var v InstanceIdVec
	for _, e := range entries {
		v.SetOrReplace(e)
	}
	return v
}

// Get returns the entry for replica r, if any.
func (v InstanceIdVec) Get(r ReplicaId) (InstanceId, bool) {
	i := v.search(r)
	if i < len(v.entries) && v.entries[i].ReplicaId == r {
		return v.entries[i], true
	}
	return InstanceId{}, false
}

// SetOrReplace inserts id at its sorted position, overwriting any existing
// entry for the same ReplicaId.
func (v *InstanceIdVec) SetOrReplace(id InstanceId) {
	i := v.search(id.ReplicaId)
	if i < len(v.entries) && v.entries[i].ReplicaId == id.ReplicaId {
		v.entries[i] = id
		return
	}
	v.entries = append(v.entries, InstanceId{})
	copy(v.entries[i+1:], v.entries[i:])
	v.entries[i] = id
}

func (v InstanceIdVec) search(r ReplicaId) int {
	return sort.Search(len(v.entries), func(i int) bool {
		return v.entries[i].ReplicaId >= r
	})
}

// Entries returns the vector's entries in ReplicaId order. The caller must
// not mutate the returned slice.
func (v InstanceIdVec) Entries() []InstanceId {
	return v.entries
}

// Len returns the number of replicas represented in the vector.
func (v InstanceIdVec) Len() int {
	return len(v.entries)
}

// Clone returns a deep copy safe for independent mutation.
func (v InstanceIdVec) Clone() InstanceIdVec {
	out := make([]InstanceId, len(v.entries))
	copy(out, v.entries)
	return InstanceIdVec{entries: out}
}

// Equal reports whether a and b contain exactly the same entries.
func (a InstanceIdVec) Equal(b InstanceIdVec) bool {
	if len(a.entries) != len(b.entries) {
		return false
	}
	for i := range a.entries {
		if a.entries[i] != b.entries[i] {
			return false
		}
	}
	return true
}

// Union returns the elementwise maximum of a and b: for every ReplicaId
// present in either vector, the resulting InstanceIdx is the larger of the
// two (missing entries count as InstanceIdx -1, i.e. "not seen"). Union is
// associative, commutative and idempotent, which the dependency-merging
// rule in the FastAccept handler relies on.
func Union(a, b InstanceIdVec) InstanceIdVec {
	out := a.Clone()
	for _, be := range b.entries {
		if ae, ok := out.Get(be.ReplicaId); !ok || ae.InstanceIdx < be.InstanceIdx {
			out.SetOrReplace(be)
		}
	}
	return out
}

// Contains reports whether v has an entry for r and that entry is >=
// minIdx. A missing entry never satisfies this, so callers comparing
// "deps >= initial_deps elementwise" should only ever call this for
// replicas initial_deps actually names.
func (v InstanceIdVec) Contains(r ReplicaId, minIdx InstanceIdx) bool {
	e, ok := v.Get(r)
	if !ok {
		return false
	}
	return e.InstanceIdx >= minIdx
}

// Dominates reports whether every entry in other also appears in v with an
// InstanceIdx at least as large — i.e. v >= other elementwise. This backs
// invariant (a): for every non-committed instance, deps >= initial_deps.
func (v InstanceIdVec) Dominates(other InstanceIdVec) bool {
	for _, oe := range other.entries {
		if !v.Contains(oe.ReplicaId, oe.InstanceIdx) {
			return false
		}
	}
	return true
}
