// Copyright (C) 2019-2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package wire

import (
	"fmt"

	"google.golang.org/protobuf/encoding/protowire"

	"github.com/luxfi/epaxos/types"
)

// Field numbers for the persisted Instance record.
const (
	fieldInstBallot        protowire.Number = 1
	fieldInstLastBallot    protowire.Number = 2
	fieldInstHasLastBallot protowire.Number = 3
	fieldInstCmd           protowire.Number = 4 // repeated
	fieldInstInitialDeps   protowire.Number = 5
	fieldInstDeps          protowire.Number = 6
	fieldInstFinalDeps     protowire.Number = 7
	fieldInstHasFinalDeps  protowire.Number = 8
	fieldInstSeq           protowire.Number = 9
	fieldInstCommitted     protowire.Number = 10
	fieldInstExecuted      protowire.Number = 11
	fieldInstState         protowire.Number = 12
)

// EncodeInstance serialises an Instance for the /instance/... column
// family. The InstanceId itself is not encoded — it is already the
// storage key (spec.md §6's /instance/<replica-id>/<idx> layout), so
// re-encoding it in the value would be redundant.
func EncodeInstance(i *types.Instance) []byte {
	var out []byte
	out = appendBytesField(out, fieldInstBallot, encodeBallot(i.Ballot))
	if i.HasLastBallot() {
		out = appendBytesField(out, fieldInstLastBallot, encodeBallot(i.LastBallot))
		out = appendBoolField(out, fieldInstHasLastBallot, true)
	}
	for _, c := range i.Cmds {
		out = appendBytesField(out, fieldInstCmd, encodeCommand(c))
	}
	if i.InitialDeps.Len() > 0 {
		out = appendBytesField(out, fieldInstInitialDeps, encodeVec(i.InitialDeps))
	}
	if i.Deps.Len() > 0 {
		out = appendBytesField(out, fieldInstDeps, encodeVec(i.Deps))
	}
	if i.HasFinalDeps() {
		out = appendBytesField(out, fieldInstFinalDeps, encodeVec(i.FinalDeps))
		out = appendBoolField(out, fieldInstHasFinalDeps, true)
	}
	if i.Seq != 0 {
		out = appendVarintField(out, fieldInstSeq, i.Seq)
	}
	if i.Committed {
		out = appendBoolField(out, fieldInstCommitted, true)
	}
	if i.Executed {
		out = appendBoolField(out, fieldInstExecuted, true)
	}
	out = appendVarintField(out, fieldInstState, uint64(i.State))
	return out
}

// DecodeInstance parses the bytes written by EncodeInstance into an
// Instance addressed by id.
func DecodeInstance(id types.InstanceId, data []byte) (*types.Instance, error) {
	inst := types.NewInstance(id)
	for len(data) > 0 {
		num, typ, n := protowire.ConsumeTag(data)
		if n < 0 {
			return nil, fmt.Errorf("wire: bad instance tag: %w", protowire.ParseError(n))
		}
		data = data[n:]
		switch typ {
		case protowire.VarintType:
			v, n := protowire.ConsumeVarint(data)
			if n < 0 {
				return nil, fmt.Errorf("wire: bad instance varint: %w", protowire.ParseError(n))
			}
			data = data[n:]
			switch num {
			case fieldInstHasLastBallot:
				// presence flag; value carried separately
			case fieldInstSeq:
				inst.Seq = v
			case fieldInstHasFinalDeps:
			case fieldInstCommitted:
				inst.Committed = v != 0
			case fieldInstExecuted:
				inst.Executed = v != 0
			case fieldInstState:
				inst.State = types.State(v)
			}
		case protowire.BytesType:
			v, n := protowire.ConsumeBytes(data)
			if n < 0 {
				return nil, fmt.Errorf("wire: bad instance bytes: %w", protowire.ParseError(n))
			}
			data = data[n:]
			var err error
			switch num {
			case fieldInstBallot:
				inst.Ballot, err = decodeBallot(v)
			case fieldInstLastBallot:
				var lb types.BallotNum
				lb, err = decodeBallot(v)
				if err == nil {
					inst.SetLastBallot(lb)
				}
			case fieldInstCmd:
				var c types.Command
				c, err = decodeCommand(v)
				inst.Cmds = append(inst.Cmds, c)
			case fieldInstInitialDeps:
				inst.InitialDeps, err = decodeVec(v)
			case fieldInstDeps:
				inst.Deps, err = decodeVec(v)
			case fieldInstFinalDeps:
				var fd types.InstanceIdVec
				fd, err = decodeVec(v)
				if err == nil {
					inst.SetFinalDeps(fd)
				}
			}
			if err != nil {
				return nil, err
			}
		default:
			n := protowire.ConsumeFieldValue(num, typ, data)
			if n < 0 {
				return nil, fmt.Errorf("wire: bad instance field: %w", protowire.ParseError(n))
			}
			data = data[n:]
		}
	}
	return inst, nil
}
