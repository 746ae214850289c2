// Copyright (C) 2019-2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package replica

import (
	"github.com/luxfi/epaxos/types"
	"github.com/luxfi/epaxos/wire"
)

// HandleFastAccept implements spec.md §4.4's handle_fast_accept: union the
// incoming dependency vector into the local one and report which
// positions are already known committed.
func (m *Machine) HandleFastAccept(req wire.Message) wire.Message {
	if e := m.validateHeader("handle_fast_accept", req.Header); e != nil {
		return wire.NewErrorReply(wire.KindFastAcceptReply, req.Header.ToReplicaId, req.Header.Ballot, req.Header.InstanceId, errToPayload(e))
	}

	id := req.Header.InstanceId
	l := m.lock(id)
	l.Lock()
	defer l.Unlock()

	inst, err := m.load(id)
	if err != nil {
		return m.errReply(wire.KindFastAcceptReply, req.Header, err)
	}
	if inst.State == types.StateEmpty {
		inst.Cmds = req.Cmds
		inst.InitialDeps = req.InitialDeps
		inst.Deps = req.InitialDeps.Clone()
	}

	if req.Header.Ballot.Less(inst.Ballot) {
		m.log.Debug("rejecting stale fast-accept ballot", "instance", id.String(), "incoming", req.Header.Ballot.String(), "local", inst.Ballot.String())
		return wire.NewFastAcceptReply(req.Header.ToReplicaId, inst.Ballot, id, inst.Deps, nil, inst.Ballot)
	}

	depsCommitted := make([]bool, req.InitialDeps.Len())
	for i, rd := range req.InitialDeps.Entries() {
		local, ok := inst.Deps.Get(rd.ReplicaId)
		merged := rd
		if ok && local.InstanceIdx > merged.InstanceIdx {
			merged = local
		}
		inst.Deps.SetOrReplace(merged)

		dep, err := m.load(types.InstanceId{ReplicaId: rd.ReplicaId, InstanceIdx: merged.InstanceIdx})
		depsCommitted[i] = err == nil && dep.Committed
	}

	if inst.Ballot.Less(req.Header.Ballot) {
		inst.AdvanceBallot(req.Header.Ballot)
	}
	inst.State = types.StatePreAccepted

	if err := m.persist(inst, false); err != nil {
		return m.errReply(wire.KindFastAcceptReply, req.Header, err)
	}

	return wire.NewFastAcceptReply(req.Header.ToReplicaId, inst.Ballot, id, inst.Deps, depsCommitted, inst.Ballot)
}

// HandleAccept implements handle_accept: install the slow-path final
// dependency set under the winning ballot.
func (m *Machine) HandleAccept(req wire.Message) wire.Message {
	if e := m.validateHeader("handle_accept", req.Header); e != nil {
		return wire.NewErrorReply(wire.KindAcceptReply, req.Header.ToReplicaId, req.Header.Ballot, req.Header.InstanceId, errToPayload(e))
	}

	id := req.Header.InstanceId
	l := m.lock(id)
	l.Lock()
	defer l.Unlock()

	inst, err := m.load(id)
	if err != nil {
		return m.errReply(wire.KindAcceptReply, req.Header, err)
	}

	if req.Header.Ballot.Less(inst.Ballot) {
		m.log.Debug("rejecting stale accept ballot", "instance", id.String(), "incoming", req.Header.Ballot.String(), "local", inst.Ballot.String())
		return wire.NewAcceptReply(req.Header.ToReplicaId, inst.Ballot, id, inst.Ballot)
	}

	if inst.Committed {
		// Non-regression: cmds and final_deps never change once committed.
		reply := wire.NewAcceptReply(req.Header.ToReplicaId, inst.Ballot, id, inst.LastBallot)
		reply.HasLastBallot = inst.HasLastBallot()
		return reply
	}

	inst.Cmds = req.Cmds
	inst.SetFinalDeps(req.FinalDeps)
	if inst.Ballot.Less(req.Header.Ballot) {
		inst.AdvanceBallot(req.Header.Ballot)
	}
	inst.State = types.StateAccepted

	if err := m.persist(inst, false); err != nil {
		return m.errReply(wire.KindAcceptReply, req.Header, err)
	}

	reply := wire.NewAcceptReply(req.Header.ToReplicaId, inst.Ballot, id, inst.LastBallot)
	reply.HasLastBallot = inst.HasLastBallot()
	return reply
}

// HandleCommit implements handle_commit: unconditional, idempotent once
// already committed. A higher local ballot never rejects a commit — once a
// value is committed in EPaxos, commit is authoritative.
func (m *Machine) HandleCommit(req wire.Message) wire.Message {
	if e := m.validateHeader("handle_commit", req.Header); e != nil {
		return wire.NewErrorReply(wire.KindCommitReply, req.Header.ToReplicaId, req.Header.Ballot, req.Header.InstanceId, errToPayload(e))
	}

	id := req.Header.InstanceId
	l := m.lock(id)
	l.Lock()
	defer l.Unlock()

	inst, err := m.load(id)
	if err != nil {
		return m.errReply(wire.KindCommitReply, req.Header, err)
	}

	if inst.Committed {
		// Non-regression: cmds and final_deps never change once committed.
		reply := wire.NewCommitReply(req.Header.ToReplicaId, inst.Ballot, id)
		reply.HasLastBallot = inst.HasLastBallot()
		reply.LastBallot = inst.LastBallot
		return reply
	}

	inst.Cmds = req.Cmds
	inst.SetFinalDeps(req.FinalDeps)
	if inst.Ballot.Less(req.Header.Ballot) {
		inst.AdvanceBallot(req.Header.Ballot)
	}
	inst.Committed = true
	inst.State = types.StateCommitted

	if err := m.persist(inst, true); err != nil {
		return m.errReply(wire.KindCommitReply, req.Header, err)
	}
	m.log.Info("instance committed", "instance", id.String(), "ballot", inst.Ballot.String())

	select {
	case m.Committed <- struct{}{}:
	default:
	}

	reply := wire.NewCommitReply(req.Header.ToReplicaId, inst.Ballot, id)
	reply.HasLastBallot = inst.HasLastBallot()
	reply.LastBallot = inst.LastBallot
	return reply
}

// HandlePrepare implements handle_prepare: the classic-Paxos prepare round
// used for recovery, returning the instance's current view.
func (m *Machine) HandlePrepare(req wire.Message) wire.Message {
	if e := m.validateHeader("handle_prepare", req.Header); e != nil {
		return wire.NewErrorReply(wire.KindPrepareReply, req.Header.ToReplicaId, req.Header.Ballot, req.Header.InstanceId, errToPayload(e))
	}

	id := req.Header.InstanceId
	l := m.lock(id)
	l.Lock()
	defer l.Unlock()

	inst, err := m.load(id)
	if err != nil {
		return m.errReply(wire.KindPrepareReply, req.Header, err)
	}

	if req.Header.Ballot.Less(inst.Ballot) {
		return wire.NewPrepareReply(req.Header.ToReplicaId, inst.Ballot, id, nil, types.InstanceIdVec{}, types.InstanceIdVec{}, false, false, inst.Ballot)
	}

	if inst.Ballot.Less(req.Header.Ballot) {
		inst.AdvanceBallot(req.Header.Ballot)
	}
	if err := m.persist(inst, false); err != nil {
		return m.errReply(wire.KindPrepareReply, req.Header, err)
	}

	reply := wire.NewPrepareReply(req.Header.ToReplicaId, inst.Ballot, id, inst.Cmds, inst.Deps, inst.FinalDeps, inst.HasFinalDeps(), inst.Committed, inst.LastBallot)
	reply.HasLastBallot = inst.HasLastBallot()
	return reply
}
