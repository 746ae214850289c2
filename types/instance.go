// Copyright (C) 2019-2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package types

// State is an instance's position in the PreAccepted -> Accepted ->
// Committed -> Executed lifecycle.
type State int

const (
	StateEmpty State = iota
	StatePreAccepted
	StateAccepted
	StateCommitted
	StateExecuted
)

//go:generate stringer -type=State

func (s State) String() string {
	switch s {
	case StateEmpty:
		return "Empty"
	case StatePreAccepted:
		return "PreAccepted"
	case StateAccepted:
		return "Accepted"
	case StateCommitted:
		return "Committed"
	case StateExecuted:
		return "Executed"
	default:
		return "Unknown"
	}
}

// Instance is the central replicated record: one leader-proposed command
// batch together with everything the protocol needs to decide its final
// dependency set and to execute it in an order every replica agrees on.
//
// An Instance is owned by the Replica State Machine holding the local
// copy; it never crosses a replica boundary directly, only as messages.
type Instance struct {
	InstanceId InstanceId

	// Ballot is the current ballot; monotone non-decreasing.
	Ballot BallotNum
	// LastBallot is the ballot this instance held immediately before its
	// current one (see AdvanceBallot); reported back to drive recovery
	// decisions.
	LastBallot BallotNum
	hasLastBallot bool

	// Cmds is immutable once FastAccept installs it.
	Cmds []Command

	// InitialDeps is the dependency vector the leader proposed.
	InitialDeps InstanceIdVec
	// Deps is the FastAccept-merged, provisional dependency vector.
	Deps InstanceIdVec
	// FinalDeps is set by the Accept phase (or directly by the fast path)
	// and is immutable once committed.
	FinalDeps    InstanceIdVec
	hasFinalDeps bool

	Seq uint64

	Committed bool
	Executed  bool

	State State
}

// NewInstance creates the Empty instance a leader or a recovering replica
// starts from.
func NewInstance(id InstanceId) *Instance {
	return &Instance{InstanceId: id, State: StateEmpty}
}

// HasLastBallot reports whether any request has ever written to this
// instance. A freshly created instance (e.g. one materialised only to
// serve a Commit that arrived before any FastAccept) has no LastBallot.
func (i *Instance) HasLastBallot() bool { return i.hasLastBallot }

// AdvanceBallot installs newBallot as the instance's current Ballot. If
// the instance already held some state (it was not Empty), the ballot it
// is replacing becomes the new LastBallot — the value reported back to
// drive recovery arbitration. A fresh (Empty) instance has nothing to
// remember, so LastBallot is left unset.
//
// This mirrors the reference implementation's replica handlers rather
// than a running max: LastBallot is "the ballot this instance held
// immediately before the current one", not "the largest ballot ever
// observed". See DESIGN.md for the scenario that forced this reading.
func (i *Instance) AdvanceBallot(newBallot BallotNum) {
	if i.State != StateEmpty {
		i.LastBallot = i.Ballot
		i.hasLastBallot = true
	}
	i.Ballot = newBallot
}

// SetLastBallot installs an explicit LastBallot, for tests and for
// decoding persisted instances.
func (i *Instance) SetLastBallot(b BallotNum) {
	i.LastBallot = b
	i.hasLastBallot = true
}

// HasFinalDeps reports whether the Accept phase (or a fast-path commit)
// has ever set FinalDeps.
func (i *Instance) HasFinalDeps() bool { return i.hasFinalDeps }

// SetFinalDeps freezes FinalDeps. Per invariant (b), this must only be
// called before Committed is first set to true, or with an identical
// value — the caller (replica.Machine) enforces non-regression.
func (i *Instance) SetFinalDeps(deps InstanceIdVec) {
	i.FinalDeps = deps
	i.hasFinalDeps = true
}

// Clone returns a deep copy, so callers can hand out a snapshot without
// risking a caller mutating state the Replica State Machine still owns.
func (i *Instance) Clone() *Instance {
	cp := *i
	cp.Cmds = append([]Command(nil), i.Cmds...)
	cp.InitialDeps = i.InitialDeps.Clone()
	cp.Deps = i.Deps.Clone()
	cp.FinalDeps = i.FinalDeps.Clone()
	return &cp
}

// After reports whether i must execute after other, based on FinalDeps
// membership. If either instance has no FinalDeps yet, neither is "after"
// the other.
func (i *Instance) After(other *Instance) bool {
	if !i.hasFinalDeps || !other.hasFinalDeps {
		return false
	}
	dep, ok := i.FinalDeps.Get(other.InstanceId.ReplicaId)
	return ok && dep.InstanceIdx >= other.InstanceId.InstanceIdx
}

// Builder provides fluent construction of Instances for tests, mirroring
// the teacher ecosystem's constructor-sugar convention for test fixtures.
type Builder struct {
	inst *Instance
}

// NewBuilder starts a Builder for the instance addressed by id.
func NewBuilder(id InstanceId) *Builder {
	return &Builder{inst: NewInstance(id)}
}

func (b *Builder) Ballot(ballot BallotNum) *Builder {
	b.inst.Ballot = ballot
	return b
}

func (b *Builder) LastBallot(ballot BallotNum) *Builder {
	b.inst.SetLastBallot(ballot)
	return b
}

func (b *Builder) Cmds(cmds ...Command) *Builder {
	b.inst.Cmds = cmds
	return b
}

func (b *Builder) InitialDeps(deps InstanceIdVec) *Builder {
	b.inst.InitialDeps = deps
	b.inst.Deps = deps.Clone()
	return b
}

func (b *Builder) Deps(deps InstanceIdVec) *Builder {
	b.inst.Deps = deps
	return b
}

func (b *Builder) FinalDeps(deps InstanceIdVec) *Builder {
	b.inst.SetFinalDeps(deps)
	return b
}

func (b *Builder) Seq(seq uint64) *Builder {
	b.inst.Seq = seq
	return b
}

func (b *Builder) State(s State) *Builder {
	b.inst.State = s
	switch s {
	case StateCommitted, StateExecuted:
		b.inst.Committed = true
	}
	if s == StateExecuted {
		b.inst.Executed = true
	}
	return b
}

func (b *Builder) Build() *Instance {
	return b.inst
}
