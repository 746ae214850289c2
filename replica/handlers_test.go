// Copyright (C) 2019-2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package replica

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/luxfi/epaxos/storage"
	"github.com/luxfi/epaxos/types"
	"github.com/luxfi/epaxos/wire"
)

func newTestMachine(t *testing.T, self types.ReplicaId) *Machine {
	t.Helper()
	adapter, err := storage.OpenMem()
	require.NoError(t, err)
	t.Cleanup(func() { _ = adapter.Close() })
	return New(self, adapter)
}

func TestFastAcceptFreshInstanceSeedsDepsFromInitial(t *testing.T) {
	require := require.New(t)
	m := newTestMachine(t, 2)

	id := types.InstanceId{ReplicaId: 1, InstanceIdx: 0}
	deps := types.NewInstanceIdVec(
		types.InstanceId{ReplicaId: 1, InstanceIdx: 0},
		types.InstanceId{ReplicaId: 2, InstanceIdx: 0},
		types.InstanceId{ReplicaId: 3, InstanceIdx: 0},
	)
	cmds := []types.Command{{OpCode: types.OpSet, Key: []byte("k1"), Value: []byte("v1")}}
	req := wire.NewFastAcceptRequest(2, types.InitialBallot(1), id, cmds, deps, 1)

	reply := m.HandleFastAccept(req)
	require.Nil(reply.Err)
	require.True(reply.Deps.Equal(deps))
	require.Equal([]bool{false, false, false}, reply.DepsCommitted)
}

func TestFastAcceptAppliedTwiceWithEqualBallotIsIdempotent(t *testing.T) {
	require := require.New(t)
	m := newTestMachine(t, 2)

	id := types.InstanceId{ReplicaId: 1, InstanceIdx: 0}
	deps := types.NewInstanceIdVec(types.InstanceId{ReplicaId: 1, InstanceIdx: 0})
	cmds := []types.Command{{OpCode: types.OpSet, Key: []byte("k1"), Value: []byte("v1")}}
	req := wire.NewFastAcceptRequest(2, types.InitialBallot(1), id, cmds, deps, 1)

	first := m.HandleFastAccept(req)
	second := m.HandleFastAccept(req)

	require.Equal(first.LastBallot, second.LastBallot)
	require.Equal(first.HasLastBallot, second.HasLastBallot)
	require.True(first.Deps.Equal(second.Deps))

	inst, err := m.load(id)
	require.NoError(err)
	require.False(inst.HasLastBallot())
}

func TestFastAcceptRejectsWrongReplica(t *testing.T) {
	require := require.New(t)
	m := newTestMachine(t, 2)

	id := types.InstanceId{ReplicaId: 1, InstanceIdx: 0}
	req := wire.NewFastAcceptRequest(3, types.InitialBallot(1), id, nil, types.InstanceIdVec{}, 0)

	reply := m.HandleFastAccept(req)
	require.NotNil(reply.Err)
	require.Equal("InvalidRequest", reply.Err.Kind)
}

func TestCommitBeforeFastAcceptInstallsDirectly(t *testing.T) {
	require := require.New(t)
	m := newTestMachine(t, 2)

	id := types.InstanceId{ReplicaId: 1, InstanceIdx: 5}
	finalDeps := types.NewInstanceIdVec(types.InstanceId{ReplicaId: 3, InstanceIdx: 2})
	cmds := []types.Command{{OpCode: types.OpSet, Key: []byte("k"), Value: []byte("v")}}
	req := wire.NewCommitRequest(2, types.InitialBallot(1), id, cmds, finalDeps)

	reply := m.HandleCommit(req)
	require.Nil(reply.Err)
	require.False(reply.HasLastBallot)

	inst, err := m.load(id)
	require.NoError(err)
	require.True(inst.Committed)
	require.False(inst.HasLastBallot())
	require.True(inst.FinalDeps.Equal(finalDeps))
}

func TestCommitOnAlreadyCommittedInstanceIsNoOp(t *testing.T) {
	require := require.New(t)
	m := newTestMachine(t, 2)

	id := types.InstanceId{ReplicaId: 1, InstanceIdx: 5}
	finalDeps := types.NewInstanceIdVec(types.InstanceId{ReplicaId: 3, InstanceIdx: 2})
	cmds := []types.Command{{OpCode: types.OpSet, Key: []byte("k"), Value: []byte("v")}}
	req := wire.NewCommitRequest(2, types.InitialBallot(1), id, cmds, finalDeps)
	require.Nil(m.HandleCommit(req).Err)

	differentDeps := types.NewInstanceIdVec(types.InstanceId{ReplicaId: 3, InstanceIdx: 99})
	otherReq := wire.NewCommitRequest(2, types.BallotNum{Epoch: 0, Num: 9, ReplicaId: 1}, id, cmds, differentDeps)
	reply := m.HandleCommit(otherReq)
	require.Nil(reply.Err)

	inst, err := m.load(id)
	require.NoError(err)
	require.True(inst.FinalDeps.Equal(finalDeps))
}

func TestAcceptRejectsStaleBallot(t *testing.T) {
	require := require.New(t)
	m := newTestMachine(t, 2)

	id := types.InstanceId{ReplicaId: 1, InstanceIdx: 0}
	high := types.BallotNum{Epoch: 0, Num: 5, ReplicaId: 1}
	low := types.BallotNum{Epoch: 0, Num: 3, ReplicaId: 1}

	fa := wire.NewFastAcceptRequest(2, high, id, nil, types.InstanceIdVec{}, 0)
	require.Nil(m.HandleFastAccept(fa).Err)

	staleReq := wire.NewAcceptRequest(2, low, id, nil, types.InstanceIdVec{})
	reply := m.HandleAccept(staleReq)
	require.Equal(high, reply.LastBallot)

	inst, err := m.load(id)
	require.NoError(err)
	require.Equal(high, inst.Ballot)
}

func TestPrepareReturnsCurrentView(t *testing.T) {
	require := require.New(t)
	m := newTestMachine(t, 2)

	id := types.InstanceId{ReplicaId: 1, InstanceIdx: 0}
	deps := types.NewInstanceIdVec(types.InstanceId{ReplicaId: 1, InstanceIdx: 0})
	cmds := []types.Command{{OpCode: types.OpSet, Key: []byte("k"), Value: []byte("v")}}
	fa := wire.NewFastAcceptRequest(2, types.InitialBallot(1), id, cmds, deps, 7)
	require.Nil(m.HandleFastAccept(fa).Err)

	prep := wire.NewPrepareRequest(2, types.BallotNum{Epoch: 0, Num: 1, ReplicaId: 2}, id)
	reply := m.HandlePrepare(prep)
	require.Nil(reply.Err)
	require.Equal(cmds, reply.Cmds)
	require.False(reply.Committed)
}
