// Copyright (C) 2019-2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package replica

import (
	"github.com/luxfi/epaxos/epaxoserr"
	"github.com/luxfi/epaxos/wire"
)

func errToPayload(e *epaxoserr.InvalidRequest) *wire.ErrPayload {
	return &wire.ErrPayload{Kind: "InvalidRequest", Field: e.Field, Problem: e.Problem, Ctx: e.Ctx}
}

// errReply turns a storage-layer failure into a structured error reply
// instead of letting it escape as a bare error — handlers are pure with
// respect to their caller (spec.md §7's policy).
func (m *Machine) errReply(kind wire.Kind, h wire.Header, err error) wire.Message {
	m.log.Error("handler storage failure", "kind", kind.String(), "instance", h.InstanceId.String(), "err", err)
	payload := &wire.ErrPayload{Kind: "Storage", Problem: err.Error(), Ctx: kind.String()}
	return wire.NewErrorReply(kind, h.ToReplicaId, h.Ballot, h.InstanceId, payload)
}
