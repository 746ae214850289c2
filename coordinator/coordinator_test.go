// Copyright (C) 2019-2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package coordinator

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/luxfi/epaxos/replica"
	"github.com/luxfi/epaxos/storage"
	"github.com/luxfi/epaxos/transport"
	"github.com/luxfi/epaxos/types"
	"github.com/luxfi/epaxos/wire"
)

// clusterBus wires every replica's Machine as a transport.Handler behind a
// single in-process Bus, so a Coordinator's fan-out genuinely crosses
// replica boundaries instead of calling itself.
type clusterBus struct {
	handlers map[types.ReplicaId]transport.Handler
	deny     map[types.ReplicaId]bool
}

func (b *clusterBus) Replicate(_ context.Context, to types.ReplicaId, req wire.Message) (wire.Message, error) {
	if b.deny[to] {
		return wire.Message{}, errors.New("simulated unreachable peer")
	}
	h, ok := b.handlers[to]
	if !ok {
		return wire.Message{}, errors.New("no such replica")
	}
	return transport.Dispatch(h, req), nil
}

func newCluster(t *testing.T, n int) ([]types.ReplicaId, *clusterBus, map[types.ReplicaId]*replica.Machine) {
	t.Helper()
	group := make([]types.ReplicaId, n)
	machines := make(map[types.ReplicaId]*replica.Machine, n)
	handlers := make(map[types.ReplicaId]transport.Handler, n)
	for i := 0; i < n; i++ {
		rid := types.ReplicaId(i + 1)
		group[i] = rid
		adapter, err := storage.OpenMem()
		require.NoError(t, err)
		t.Cleanup(func() { _ = adapter.Close() })
		m := replica.New(rid, adapter)
		machines[rid] = m
		handlers[rid] = m
	}
	return group, &clusterBus{handlers: handlers}, machines
}

func TestSubmitCommitsOnFastPathWhenAllPeersAgree(t *testing.T) {
	require := require.New(t)
	group, bus, machines := newCluster(t, 3)

	c := New(group[0], group, machines[group[0]], bus, DefaultConfig(), nil, nil)
	res, err := c.Submit(context.Background(), []types.Command{{OpCode: types.OpSet, Key: []byte("k"), Value: []byte("v")}})
	require.NoError(err)
	require.True(res.FastPath)

	for _, rid := range group {
		idx, ok, err := machines[rid].MaxCommitted(group[0])
		require.NoError(err)
		require.True(ok, "replica %d should have learned the commit", rid)
		require.Equal(res.InstanceId.InstanceIdx, idx)
	}
}

func TestSubmitFallsBackToClassicQuorumFailureWhenPeersUnreachable(t *testing.T) {
	require := require.New(t)
	group, bus, machines := newCluster(t, 3)
	bus.deny = map[types.ReplicaId]bool{group[1]: true, group[2]: true}

	c := New(group[0], group, machines[group[0]], bus, DefaultConfig(), nil, nil)
	_, err := c.Submit(context.Background(), []types.Command{{OpCode: types.OpSet, Key: []byte("k"), Value: []byte("v")}})
	require.Error(err)
}

func TestSubmitAllocatesIncreasingInstanceIndexesUnderLeadership(t *testing.T) {
	require := require.New(t)
	group, bus, machines := newCluster(t, 3)
	c := New(group[0], group, machines[group[0]], bus, DefaultConfig(), nil, nil)

	res1, err := c.Submit(context.Background(), []types.Command{{OpCode: types.OpSet, Key: []byte("a"), Value: []byte("1")}})
	require.NoError(err)
	res2, err := c.Submit(context.Background(), []types.Command{{OpCode: types.OpSet, Key: []byte("b"), Value: []byte("2")}})
	require.NoError(err)

	require.Equal(group[0], res1.InstanceId.ReplicaId)
	require.Equal(group[0], res2.InstanceId.ReplicaId)
	require.Less(int64(res1.InstanceId.InstanceIdx), int64(res2.InstanceId.InstanceIdx))
}
