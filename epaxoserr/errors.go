// Copyright (C) 2019-2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package epaxoserr is the closed tagged sum of errors that cross the
// Storage -> Replica -> Coordinator -> Replication boundary. Handlers are
// pure with respect to the caller: every failure produces one of these
// structured values, never a bare string or a panic.
package epaxoserr

import (
	"fmt"

	"github.com/cockroachdb/errors"

	"github.com/luxfi/epaxos/types"
)

// InvalidRequest is returned when a request fails header validation:
// missing common header, wrong to_replica_id, absent ballot or
// instance-id. It never mutates replica state.
type InvalidRequest struct {
	Field   string
	Problem string
	Ctx     string
}

func (e *InvalidRequest) Error() string {
	return fmt.Sprintf("invalid request: field=%s problem=%s ctx=%s", e.Field, e.Problem, e.Ctx)
}

// StaleBallot is returned when a request's ballot is lower than the local
// instance's current ballot. The reply's Last carries the local ballot so
// the coordinator can learn it and abort its current attempt.
type StaleBallot struct {
	Stale types.BallotNum
	Last  types.BallotNum
}

func (e *StaleBallot) Error() string {
	return fmt.Sprintf("stale ballot: %s < %s", e.Stale, e.Last)
}

// Dup is returned (and silently discarded by the coordinator) when a reply
// arrives from a sender already counted for this instance and phase.
type Dup struct {
	InstanceId types.InstanceId
	Phase      string
	Sender     types.ReplicaId
}

func (e *Dup) Error() string {
	return fmt.Sprintf("duplicate %s reply for %s from replica %d", e.Phase, e.InstanceId, e.Sender)
}

// DelayedReply is returned (and silently discarded) when a reply arrives
// for a phase the instance has already left.
type DelayedReply struct {
	InstanceId  types.InstanceId
	InstPhase   string
	ReplyPhase  string
}

func (e *DelayedReply) Error() string {
	return fmt.Sprintf("delayed %s reply for %s now in phase %s", e.ReplyPhase, e.InstanceId, e.InstPhase)
}

// Timeout is returned by the coordinator when T_total elapses before
// enough replies arrive.
type Timeout struct {
	Msec int64
}

func (e *Timeout) Error() string {
	return fmt.Sprintf("timeout after %dms", e.Msec)
}

// NotEnoughFastQuorum is returned when the fast path cannot be taken: too
// few identical-dependency replies arrived within the fast-path window.
type NotEnoughFastQuorum struct {
	Want int
	Got  int
}

func (e *NotEnoughFastQuorum) Error() string {
	return fmt.Sprintf("not enough fast quorum: want %d got %d", e.Want, e.Got)
}

// NotEnoughQuorum is returned when even the classic (slow-path) quorum is
// not met. The instance remains durable and recoverable via Prepare.
type NotEnoughQuorum struct {
	Want int
	Got  int
}

func (e *NotEnoughQuorum) Error() string {
	return fmt.Sprintf("not enough quorum: want %d got %d", e.Want, e.Got)
}

// Protocol covers violations of the protocol's own invariants that are not
// otherwise classified (e.g. a commit arriving for an instance under
// another replica's leadership slot).
type Protocol struct {
	Reason string
}

func (e *Protocol) Error() string {
	return fmt.Sprintf("protocol error: %s", e.Reason)
}

// Replica wraps an error surfaced by the Replica State Machine that does
// not fit the other categories.
type Replica struct {
	Reason string
	Cause  error
}

func (e *Replica) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("replica error: %s: %v", e.Reason, e.Cause)
	}
	return fmt.Sprintf("replica error: %s", e.Reason)
}

func (e *Replica) Unwrap() error { return e.Cause }

// Storage wraps a failure from the Storage Adapter. It is fatal for the
// current operation: a batch is either fully persisted or fully not, so
// the caller never has to reconcile partial state.
type Storage struct {
	Op    string
	Cause error
}

func (e *Storage) Error() string {
	return fmt.Sprintf("storage error during %s: %v", e.Op, e.Cause)
}

func (e *Storage) Unwrap() error { return e.Cause }

// WrapStorage wraps cause as a Storage error, attaching a stack trace via
// cockroachdb/errors so the failure keeps context across the
// Storage -> Replica -> Coordinator -> Replication boundary, where a bare
// sentinel error would otherwise lose it.
func WrapStorage(op string, cause error) error {
	if cause == nil {
		return nil
	}
	return &Storage{Op: op, Cause: errors.Wrapf(cause, "storage op %s", op)}
}

// DupReplica is a configuration-load error: the same ReplicaId appears in
// two groups.
type DupReplica struct {
	ReplicaId types.ReplicaId
}

func (e *DupReplica) Error() string {
	return fmt.Sprintf("duplicate replica id %d across groups", e.ReplicaId)
}

// OrphanReplica is a configuration-load error: a group references a
// ReplicaId whose NodeId is not in the nodes map.
type OrphanReplica struct {
	ReplicaId types.ReplicaId
	NodeId    string
}

func (e *OrphanReplica) Error() string {
	return fmt.Sprintf("replica %d references unknown node %q", e.ReplicaId, e.NodeId)
}
