// Copyright (C) 2019-2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package types holds the replicated command log's data model: replica and
// instance identifiers, ballots, commands, dependency vectors and the
// instance record itself. Nothing in this package talks to storage or the
// network — it is the arena every other package operates on.
package types

import "fmt"

// ReplicaId uniquely identifies a replica within a group.
type ReplicaId int32

// InstanceIdx is the per-leader monotonic position of an instance.
type InstanceIdx int64

// InstanceId addresses a single instance: the leader that proposed it and
// its position in that leader's log. Only the leader whose ReplicaId
// appears here may ever create the instance.
type InstanceId struct {
	ReplicaId   ReplicaId
	InstanceIdx InstanceIdx
}

// Less gives InstanceId a total lexicographic order: replica first, then
// index.
func (id InstanceId) Less(other InstanceId) bool {
	if id.ReplicaId != other.ReplicaId {
		return id.ReplicaId < other.ReplicaId
	}
	return id.InstanceIdx < other.InstanceIdx
}

func (id InstanceId) String() string {
	return fmt.Sprintf("(%d,%d)", id.ReplicaId, id.InstanceIdx)
}

// ToKey renders the <replica-id:16hex>/<idx:16hex> part of the persistent
// layout /instance/<replica-id:16hex>/<idx:16hex>; the /instance/ prefix
// comes from storing it under the storage.CFInstance column family.
func (id InstanceId) ToKey() []byte {
	return []byte(fmt.Sprintf("%016x/%016x", uint64(id.ReplicaId), uint64(id.InstanceIdx)))
}

// InstanceIdFromKey parses the key layout produced by ToKey. It is the
// left inverse of ToKey over the domain InstanceIdx >= 0.
func InstanceIdFromKey(key []byte) (InstanceId, error) {
	var rid, idx uint64
	n, err := fmt.Sscanf(string(key), "%016x/%016x", &rid, &idx)
	if err != nil || n != 2 {
		return InstanceId{}, fmt.Errorf("types: malformed instance key %q", key)
	}
	if int64(idx) < 0 {
		return InstanceId{}, fmt.Errorf("types: negative instance index in key %q", key)
	}
	return InstanceId{ReplicaId: ReplicaId(int32(rid)), InstanceIdx: InstanceIdx(int64(idx))}, nil
}
