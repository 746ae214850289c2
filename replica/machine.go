// Copyright (C) 2019-2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package replica implements the Replica State Machine: the four request
// handlers (FastAccept, Accept, Commit, Prepare) that own the durable
// Instance log for one replica. Handlers are pure with respect to their
// caller — every failure produces a structured reply, never a panic or a
// half-written instance.
package replica

import (
	"sync"

	"github.com/luxfi/log"

	"github.com/luxfi/epaxos/epaxoserr"
	"github.com/luxfi/epaxos/storage"
	"github.com/luxfi/epaxos/transport"
	"github.com/luxfi/epaxos/types"
	"github.com/luxfi/epaxos/wire"
)

const lockShards = 64

var _ transport.Handler = (*Machine)(nil)

// Machine is one replica's instance of the Replica State Machine. It is
// safe for concurrent use: handlers serialise on a per-instance lock, and
// the shared storage.Adapter is assumed to serialise its own writers.
type Machine struct {
	self    types.ReplicaId
	storage storage.Adapter
	log     log.Logger

	// Committed fires (non-blocking) whenever a Commit handler lands, so
	// the Executor can wake from its idle sleep instead of waiting out the
	// full interval. Buffered 1: a pending wakeup coalesces with any
	// further commits until the Executor drains it.
	Committed chan struct{}

	shards [lockShards]shard
}

type shard struct {
	mu    sync.Mutex
	locks map[types.InstanceId]*sync.Mutex
}

// Option configures optional Machine behaviour.
type Option func(*Machine)

// WithLogger attaches logger for structured diagnostics. Unset, a Machine
// logs nothing.
func WithLogger(logger log.Logger) Option {
	return func(m *Machine) { m.log = logger }
}

// New builds a Machine for self, persisting through adapter.
func New(self types.ReplicaId, adapter storage.Adapter, opts ...Option) *Machine {
	m := &Machine{self: self, storage: adapter, log: log.NewNoOpLogger(), Committed: make(chan struct{}, 1)}
	for i := range m.shards {
		m.shards[i].locks = make(map[types.InstanceId]*sync.Mutex)
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// lock returns (creating if needed) the per-instance mutex for id. The
// shard index spreads unrelated instances across independent locks, so
// concurrent handlers for different leaders rarely contend — spec.md §5's
// "map-keyed lock" critical section.
func (m *Machine) lock(id types.InstanceId) *sync.Mutex {
	idx := (uint64(uint32(id.ReplicaId))*31 + uint64(id.InstanceIdx)) % lockShards
	s := &m.shards[idx]
	s.mu.Lock()
	defer s.mu.Unlock()
	l, ok := s.locks[id]
	if !ok {
		l = &sync.Mutex{}
		s.locks[id] = l
	}
	return l
}

func (m *Machine) load(id types.InstanceId) (*types.Instance, error) {
	v, ok, err := m.storage.Get(storage.CFInstance, id.ToKey())
	if err != nil {
		return nil, epaxoserr.WrapStorage("get instance", err)
	}
	if !ok {
		return types.NewInstance(id), nil
	}
	inst, err := wire.DecodeInstance(id, v)
	if err != nil {
		return nil, epaxoserr.WrapStorage("decode instance", err)
	}
	return inst, nil
}

// persist writes inst, and — when committing for the first time — bumps
// the replica's max-committed index in the same atomic batch.
func (m *Machine) persist(inst *types.Instance, bumpMaxCommitted bool) error {
	entries := []storage.BatchEntry{
		{CF: storage.CFInstance, Op: storage.OpSet, Key: inst.InstanceId.ToKey(), Value: wire.EncodeInstance(inst)},
	}
	if bumpMaxCommitted {
		entries = append(entries, storage.BatchEntry{
			CF:    storage.CFMaxCommitted,
			Op:    storage.OpSet,
			Key:   maxCommittedKey(inst.InstanceId.ReplicaId),
			Value: encodeIdx(inst.InstanceId.InstanceIdx),
		})
	}
	if err := m.storage.WriteBatch(entries); err != nil {
		return epaxoserr.WrapStorage("write instance batch", err)
	}
	return nil
}

// validateHeader checks the common header shared by every request. Ballot
// and instance-id "presence" (spec.md §4.4) is structural in Go — a
// BallotNum/InstanceId value always exists — so only the addressing field
// is actually checkable here.
func (m *Machine) validateHeader(ctx string, h wire.Header) *epaxoserr.InvalidRequest {
	if h.ToReplicaId != m.self {
		return &epaxoserr.InvalidRequest{Field: "to_replica_id", Problem: "does not match this replica", Ctx: ctx}
	}
	return nil
}

// maxCommittedKey renders r in the /status/max_committed/<16hex> key
// layout from spec.md §6.3.
func maxCommittedKey(r types.ReplicaId) []byte {
	const hexDigits = "0123456789abcdef"
	buf := make([]byte, 16)
	v := uint64(uint32(r))
	for i := 15; i >= 0; i-- {
		buf[i] = hexDigits[v&0xf]
		v >>= 4
	}
	return buf
}

func encodeIdx(idx types.InstanceIdx) []byte {
	v := uint64(idx)
	out := make([]byte, 8)
	for i := 7; i >= 0; i-- {
		out[i] = byte(v)
		v >>= 8
	}
	return out
}

func decodeIdx(b []byte) types.InstanceIdx {
	var v uint64
	for _, c := range b {
		v = v<<8 | uint64(c)
	}
	return types.InstanceIdx(v)
}

// MaxCommitted returns the highest committed InstanceIdx this replica
// knows about for leader r, and whether anything has ever committed.
func (m *Machine) MaxCommitted(r types.ReplicaId) (types.InstanceIdx, bool, error) {
	v, ok, err := m.storage.Get(storage.CFMaxCommitted, maxCommittedKey(r))
	if err != nil {
		return 0, false, epaxoserr.WrapStorage("get max committed", err)
	}
	if !ok {
		return 0, false, nil
	}
	return decodeIdx(v), true, nil
}
