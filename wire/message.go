// Copyright (C) 2019-2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package wire builds and serialises the request/reply messages the
// Replica State Machine and Replicator exchange. Serialisation itself is
// framed with google.golang.org/protobuf/encoding/protowire's low-level
// tag/varint/bytes primitives rather than generated .pb.go types — there
// is no protoc step in this module, but the wire format is still a real
// protobuf-compatible byte stream.
package wire

import "github.com/luxfi/epaxos/types"

// Kind discriminates which request or reply of the four phases
// (FastAccept, Accept, Commit, Prepare) a Message carries.
type Kind uint8

const (
	KindFastAcceptRequest Kind = iota
	KindFastAcceptReply
	KindAcceptRequest
	KindAcceptReply
	KindCommitRequest
	KindCommitReply
	KindPrepareRequest
	KindPrepareReply
)

func (k Kind) String() string {
	switch k {
	case KindFastAcceptRequest:
		return "FastAcceptRequest"
	case KindFastAcceptReply:
		return "FastAcceptReply"
	case KindAcceptRequest:
		return "AcceptRequest"
	case KindAcceptReply:
		return "AcceptReply"
	case KindCommitRequest:
		return "CommitRequest"
	case KindCommitReply:
		return "CommitReply"
	case KindPrepareRequest:
		return "PrepareRequest"
	case KindPrepareReply:
		return "PrepareReply"
	default:
		return "Unknown"
	}
}

// Header is common to every request and reply.
type Header struct {
	ToReplicaId types.ReplicaId
	Ballot      types.BallotNum
	InstanceId  types.InstanceId
}

// ErrPayload is the optional structured error a reply carries instead of
// (or alongside) its normal fields.
type ErrPayload struct {
	Kind    string
	Field   string
	Problem string
	Ctx     string
	Last    types.BallotNum
}

// Message is the single wire-level envelope for all eight request/reply
// kinds; Kind determines which fields are meaningful. Keeping one
// envelope type (rather than eight distinct Go types) keeps the codec in
// codec.go small while the builders below still give every phase its own
// constructor, matching spec.md §4.3's "message builders per phase".
type Message struct {
	Kind   Kind
	Header Header

	Cmds          []types.Command
	InitialDeps   types.InstanceIdVec
	Deps          types.InstanceIdVec
	DepsCommitted []bool

	FinalDeps    types.InstanceIdVec
	HasFinalDeps bool

	Committed bool
	Seq       uint64

	LastBallot    types.BallotNum
	HasLastBallot bool

	Err *ErrPayload
}

// NewFastAcceptRequest builds a FastAccept request.
func NewFastAcceptRequest(to types.ReplicaId, ballot types.BallotNum, id types.InstanceId, cmds []types.Command, initialDeps types.InstanceIdVec, seq uint64) Message {
	return Message{
		Kind:        KindFastAcceptRequest,
		Header:      Header{ToReplicaId: to, Ballot: ballot, InstanceId: id},
		Cmds:        cmds,
		InitialDeps: initialDeps,
		Seq:         seq,
	}
}

// NewFastAcceptReply builds a FastAccept reply carrying the merged
// dependency vector and per-position committed flags.
func NewFastAcceptReply(to types.ReplicaId, ballot types.BallotNum, id types.InstanceId, deps types.InstanceIdVec, depsCommitted []bool, lastBallot types.BallotNum) Message {
	return Message{
		Kind:          KindFastAcceptReply,
		Header:        Header{ToReplicaId: to, Ballot: ballot, InstanceId: id},
		Deps:          deps,
		DepsCommitted: depsCommitted,
		LastBallot:    lastBallot,
		HasLastBallot: true,
	}
}

// NewAcceptRequest builds an Accept request carrying the slow-path final
// dependency vector.
func NewAcceptRequest(to types.ReplicaId, ballot types.BallotNum, id types.InstanceId, cmds []types.Command, finalDeps types.InstanceIdVec) Message {
	return Message{
		Kind:         KindAcceptRequest,
		Header:       Header{ToReplicaId: to, Ballot: ballot, InstanceId: id},
		Cmds:         cmds,
		FinalDeps:    finalDeps,
		HasFinalDeps: true,
	}
}

// NewAcceptReply builds an Accept reply.
func NewAcceptReply(to types.ReplicaId, ballot types.BallotNum, id types.InstanceId, lastBallot types.BallotNum) Message {
	return Message{
		Kind:          KindAcceptReply,
		Header:        Header{ToReplicaId: to, Ballot: ballot, InstanceId: id},
		LastBallot:    lastBallot,
		HasLastBallot: true,
	}
}

// NewCommitRequest builds a Commit request.
func NewCommitRequest(to types.ReplicaId, ballot types.BallotNum, id types.InstanceId, cmds []types.Command, finalDeps types.InstanceIdVec) Message {
	return Message{
		Kind:         KindCommitRequest,
		Header:       Header{ToReplicaId: to, Ballot: ballot, InstanceId: id},
		Cmds:         cmds,
		FinalDeps:    finalDeps,
		HasFinalDeps: true,
	}
}

// NewCommitReply builds a Commit reply.
func NewCommitReply(to types.ReplicaId, ballot types.BallotNum, id types.InstanceId) Message {
	return Message{
		Kind:   KindCommitReply,
		Header: Header{ToReplicaId: to, Ballot: ballot, InstanceId: id},
	}
}

// NewPrepareRequest builds a recovery Prepare request.
func NewPrepareRequest(to types.ReplicaId, ballot types.BallotNum, id types.InstanceId) Message {
	return Message{
		Kind:   KindPrepareRequest,
		Header: Header{ToReplicaId: to, Ballot: ballot, InstanceId: id},
	}
}

// NewPrepareReply builds a recovery Prepare reply with the instance's
// current view.
func NewPrepareReply(to types.ReplicaId, ballot types.BallotNum, id types.InstanceId, cmds []types.Command, deps, finalDeps types.InstanceIdVec, hasFinalDeps, committed bool, lastBallot types.BallotNum) Message {
	return Message{
		Kind:          KindPrepareReply,
		Header:        Header{ToReplicaId: to, Ballot: ballot, InstanceId: id},
		Cmds:          cmds,
		Deps:          deps,
		FinalDeps:     finalDeps,
		HasFinalDeps:  hasFinalDeps,
		Committed:     committed,
		LastBallot:    lastBallot,
		HasLastBallot: true,
	}
}

// NewErrorReply attaches err to an otherwise-empty reply of the given
// kind, for handlers that must reject a request without touching state.
func NewErrorReply(kind Kind, to types.ReplicaId, ballot types.BallotNum, id types.InstanceId, err *ErrPayload) Message {
	return Message{
		Kind:   kind,
		Header: Header{ToReplicaId: to, Ballot: ballot, InstanceId: id},
		Err:    err,
	}
}
