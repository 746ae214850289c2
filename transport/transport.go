// Copyright (C) 2019-2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package transport declares the replication wire protocol's transport
// seam: a single bidirectional RPC, Replicate(Request) -> Reply, per
// spec.md §6.2. Concrete wiring (gRPC, in-process loopback, a test bus) is
// an external collaborator — this package only names the shape every
// Coordinator depends on, mirroring the teacher's router.InboundHandler
// (context.Context, Message) contract generalised to a request/reply call.
package transport

import (
	"context"

	"github.com/luxfi/epaxos/types"
	"github.com/luxfi/epaxos/wire"
)

// Bus sends req to the replica addressed by req.Header.ToReplicaId and
// returns its reply, or an error if the round trip could not complete
// before ctx is done.
type Bus interface {
	Replicate(ctx context.Context, to types.ReplicaId, req wire.Message) (wire.Message, error)
}

// Handler is implemented by anything that can answer an inbound request —
// the Replica State Machine, most commonly. A concrete Bus dispatches
// inbound RPCs to a Handler registered per replica.
type Handler interface {
	HandleFastAccept(req wire.Message) wire.Message
	HandleAccept(req wire.Message) wire.Message
	HandleCommit(req wire.Message) wire.Message
	HandlePrepare(req wire.Message) wire.Message
}

// Dispatch routes req to the Handler method matching its Kind, for Bus
// implementations that deliver inbound requests through a single seam.
func Dispatch(h Handler, req wire.Message) wire.Message {
	switch req.Kind {
	case wire.KindFastAcceptRequest:
		return h.HandleFastAccept(req)
	case wire.KindAcceptRequest:
		return h.HandleAccept(req)
	case wire.KindCommitRequest:
		return h.HandleCommit(req)
	case wire.KindPrepareRequest:
		return h.HandlePrepare(req)
	default:
		return wire.NewErrorReply(req.Kind, req.Header.ToReplicaId, req.Header.Ballot, req.Header.InstanceId,
			&wire.ErrPayload{Kind: "Protocol", Problem: "unroutable request kind", Ctx: req.Kind.String()})
	}
}
