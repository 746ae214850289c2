// Copyright (C) 2019-2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package wire

import (
	"fmt"

	"google.golang.org/protobuf/encoding/protowire"

	"github.com/luxfi/epaxos/types"
)

// Field numbers for the top-level Message envelope.
const (
	fieldKind          protowire.Number = 1
	fieldHeader        protowire.Number = 2
	fieldCmd           protowire.Number = 3 // repeated
	fieldInitialDeps    protowire.Number = 4
	fieldDeps          protowire.Number = 5
	fieldDepsCommitted protowire.Number = 6 // repeated varint
	fieldFinalDeps     protowire.Number = 7
	fieldHasFinalDeps  protowire.Number = 8
	fieldCommitted     protowire.Number = 9
	fieldSeq           protowire.Number = 10
	fieldLastBallot    protowire.Number = 11
	fieldHasLastBallot protowire.Number = 12
	fieldErr           protowire.Number = 13
)

// Field numbers shared by the small nested messages below.
const (
	fieldBallotEpoch     protowire.Number = 1
	fieldBallotNum       protowire.Number = 2
	fieldBallotReplicaId protowire.Number = 3

	fieldInstReplicaId protowire.Number = 1
	fieldInstIdx       protowire.Number = 2

	fieldHdrTo   protowire.Number = 1
	fieldHdrBal  protowire.Number = 2
	fieldHdrInst protowire.Number = 3

	fieldCmdOp  protowire.Number = 1
	fieldCmdKey protowire.Number = 2
	fieldCmdVal protowire.Number = 3

	fieldVecEntry protowire.Number = 1

	fieldErrKind    protowire.Number = 1
	fieldErrField   protowire.Number = 2
	fieldErrProblem protowire.Number = 3
	fieldErrCtx     protowire.Number = 4
	fieldErrLast    protowire.Number = 5
)

func appendVarintField(b []byte, num protowire.Number, v uint64) []byte {
	b = protowire.AppendTag(b, num, protowire.VarintType)
	return protowire.AppendVarint(b, v)
}

func appendBytesField(b []byte, num protowire.Number, v []byte) []byte {
	b = protowire.AppendTag(b, num, protowire.BytesType)
	return protowire.AppendBytes(b, v)
}

func appendBoolField(b []byte, num protowire.Number, v bool) []byte {
	if v {
		return appendVarintField(b, num, 1)
	}
	return appendVarintField(b, num, 0)
}

func encodeBallot(b types.BallotNum) []byte {
	var out []byte
	out = appendVarintField(out, fieldBallotEpoch, uint64(b.Epoch))
	out = appendVarintField(out, fieldBallotNum, uint64(b.Num))
	out = appendVarintField(out, fieldBallotReplicaId, uint64(protowire.EncodeZigZag(int64(b.ReplicaId))))
	return out
}

func decodeBallot(data []byte) (types.BallotNum, error) {
	var b types.BallotNum
	for len(data) > 0 {
		num, typ, n := protowire.ConsumeTag(data)
		if n < 0 {
			return b, fmt.Errorf("wire: bad ballot tag: %w", protowire.ParseError(n))
		}
		data = data[n:]
		v, n := protowire.ConsumeVarint(data)
		if n < 0 {
			return b, fmt.Errorf("wire: bad ballot varint: %w", protowire.ParseError(n))
		}
		data = data[n:]
		_ = typ
		switch num {
		case fieldBallotEpoch:
			b.Epoch = uint32(v)
		case fieldBallotNum:
			b.Num = uint32(v)
		case fieldBallotReplicaId:
			b.ReplicaId = types.ReplicaId(protowire.DecodeZigZag(v))
		}
	}
	return b, nil
}

func encodeInstanceId(id types.InstanceId) []byte {
	var out []byte
	out = appendVarintField(out, fieldInstReplicaId, uint64(protowire.EncodeZigZag(int64(id.ReplicaId))))
	out = appendVarintField(out, fieldInstIdx, uint64(id.InstanceIdx))
	return out
}

func decodeInstanceId(data []byte) (types.InstanceId, error) {
	var id types.InstanceId
	for len(data) > 0 {
		num, _, n := protowire.ConsumeTag(data)
		if n < 0 {
			return id, fmt.Errorf("wire: bad instance-id tag: %w", protowire.ParseError(n))
		}
		data = data[n:]
		v, n := protowire.ConsumeVarint(data)
		if n < 0 {
			return id, fmt.Errorf("wire: bad instance-id varint: %w", protowire.ParseError(n))
		}
		data = data[n:]
		switch num {
		case fieldInstReplicaId:
			id.ReplicaId = types.ReplicaId(protowire.DecodeZigZag(v))
		case fieldInstIdx:
			id.InstanceIdx = types.InstanceIdx(v)
		}
	}
	return id, nil
}

func encodeHeader(h Header) []byte {
	var out []byte
	out = appendVarintField(out, fieldHdrTo, uint64(protowire.EncodeZigZag(int64(h.ToReplicaId))))
	out = appendBytesField(out, fieldHdrBal, encodeBallot(h.Ballot))
	out = appendBytesField(out, fieldHdrInst, encodeInstanceId(h.InstanceId))
	return out
}

func decodeHeader(data []byte) (Header, error) {
	var h Header
	for len(data) > 0 {
		num, typ, n := protowire.ConsumeTag(data)
		if n < 0 {
			return h, fmt.Errorf("wire: bad header tag: %w", protowire.ParseError(n))
		}
		data = data[n:]
		switch typ {
		case protowire.VarintType:
			v, n := protowire.ConsumeVarint(data)
			if n < 0 {
				return h, fmt.Errorf("wire: bad header varint: %w", protowire.ParseError(n))
			}
			data = data[n:]
			if num == fieldHdrTo {
				h.ToReplicaId = types.ReplicaId(protowire.DecodeZigZag(v))
			}
		case protowire.BytesType:
			v, n := protowire.ConsumeBytes(data)
			if n < 0 {
				return h, fmt.Errorf("wire: bad header bytes: %w", protowire.ParseError(n))
			}
			data = data[n:]
			var err error
			switch num {
			case fieldHdrBal:
				h.Ballot, err = decodeBallot(v)
			case fieldHdrInst:
				h.InstanceId, err = decodeInstanceId(v)
			}
			if err != nil {
				return h, err
			}
		default:
			n := protowire.ConsumeFieldValue(num, typ, data)
			if n < 0 {
				return h, fmt.Errorf("wire: bad header field: %w", protowire.ParseError(n))
			}
			data = data[n:]
		}
	}
	return h, nil
}

func encodeCommand(c types.Command) []byte {
	var out []byte
	out = appendVarintField(out, fieldCmdOp, uint64(c.OpCode))
	out = appendBytesField(out, fieldCmdKey, c.Key)
	out = appendBytesField(out, fieldCmdVal, c.Value)
	return out
}

func decodeCommand(data []byte) (types.Command, error) {
	var c types.Command
	for len(data) > 0 {
		num, typ, n := protowire.ConsumeTag(data)
		if n < 0 {
			return c, fmt.Errorf("wire: bad command tag: %w", protowire.ParseError(n))
		}
		data = data[n:]
		switch typ {
		case protowire.VarintType:
			v, n := protowire.ConsumeVarint(data)
			if n < 0 {
				return c, fmt.Errorf("wire: bad command varint: %w", protowire.ParseError(n))
			}
			data = data[n:]
			if num == fieldCmdOp {
				c.OpCode = types.OpCode(v)
			}
		case protowire.BytesType:
			v, n := protowire.ConsumeBytes(data)
			if n < 0 {
				return c, fmt.Errorf("wire: bad command bytes: %w", protowire.ParseError(n))
			}
			data = data[n:]
			switch num {
			case fieldCmdKey:
				c.Key = append([]byte(nil), v...)
			case fieldCmdVal:
				c.Value = append([]byte(nil), v...)
			}
		}
	}
	return c, nil
}

func encodeVec(v types.InstanceIdVec) []byte {
	var out []byte
	for _, e := range v.Entries() {
		out = appendBytesField(out, fieldVecEntry, encodeInstanceId(e))
	}
	return out
}

func decodeVec(data []byte) (types.InstanceIdVec, error) {
	var v types.InstanceIdVec
	for len(data) > 0 {
		num, _, n := protowire.ConsumeTag(data)
		if n < 0 {
			return v, fmt.Errorf("wire: bad vec tag: %w", protowire.ParseError(n))
		}
		data = data[n:]
		entry, n := protowire.ConsumeBytes(data)
		if n < 0 {
			return v, fmt.Errorf("wire: bad vec entry: %w", protowire.ParseError(n))
		}
		data = data[n:]
		if num == fieldVecEntry {
			id, err := decodeInstanceId(entry)
			if err != nil {
				return v, err
			}
			v.SetOrReplace(id)
		}
	}
	return v, nil
}

func encodeErr(e *ErrPayload) []byte {
	var out []byte
	out = appendBytesField(out, fieldErrKind, []byte(e.Kind))
	out = appendBytesField(out, fieldErrField, []byte(e.Field))
	out = appendBytesField(out, fieldErrProblem, []byte(e.Problem))
	out = appendBytesField(out, fieldErrCtx, []byte(e.Ctx))
	out = appendBytesField(out, fieldErrLast, encodeBallot(e.Last))
	return out
}

func decodeErr(data []byte) (*ErrPayload, error) {
	e := &ErrPayload{}
	for len(data) > 0 {
		num, _, n := protowire.ConsumeTag(data)
		if n < 0 {
			return nil, fmt.Errorf("wire: bad err tag: %w", protowire.ParseError(n))
		}
		data = data[n:]
		v, n := protowire.ConsumeBytes(data)
		if n < 0 {
			return nil, fmt.Errorf("wire: bad err bytes: %w", protowire.ParseError(n))
		}
		data = data[n:]
		switch num {
		case fieldErrKind:
			e.Kind = string(v)
		case fieldErrField:
			e.Field = string(v)
		case fieldErrProblem:
			e.Problem = string(v)
		case fieldErrCtx:
			e.Ctx = string(v)
		case fieldErrLast:
			ballot, err := decodeBallot(v)
			if err != nil {
				return nil, err
			}
			e.Last = ballot
		}
	}
	return e, nil
}

// Encode serialises m as a protobuf-wire-compatible byte stream.
func Encode(m Message) []byte {
	var out []byte
	out = appendVarintField(out, fieldKind, uint64(m.Kind))
	out = appendBytesField(out, fieldHeader, encodeHeader(m.Header))
	for _, c := range m.Cmds {
		out = appendBytesField(out, fieldCmd, encodeCommand(c))
	}
	if m.InitialDeps.Len() > 0 {
		out = appendBytesField(out, fieldInitialDeps, encodeVec(m.InitialDeps))
	}
	if m.Deps.Len() > 0 {
		out = appendBytesField(out, fieldDeps, encodeVec(m.Deps))
	}
	for _, dc := range m.DepsCommitted {
		out = appendBoolField(out, fieldDepsCommitted, dc)
	}
	if m.HasFinalDeps {
		out = appendBytesField(out, fieldFinalDeps, encodeVec(m.FinalDeps))
		out = appendBoolField(out, fieldHasFinalDeps, true)
	}
	if m.Committed {
		out = appendBoolField(out, fieldCommitted, true)
	}
	if m.Seq != 0 {
		out = appendVarintField(out, fieldSeq, m.Seq)
	}
	if m.HasLastBallot {
		out = appendBytesField(out, fieldLastBallot, encodeBallot(m.LastBallot))
		out = appendBoolField(out, fieldHasLastBallot, true)
	}
	if m.Err != nil {
		out = appendBytesField(out, fieldErr, encodeErr(m.Err))
	}
	return out
}

// Decode parses a byte stream produced by Encode. Unknown fields are
// skipped, giving the format forward-compatibility the way any protobuf
// wire consumer gets it for free.
func Decode(data []byte) (Message, error) {
	var m Message
	for len(data) > 0 {
		num, typ, n := protowire.ConsumeTag(data)
		if n < 0 {
			return m, fmt.Errorf("wire: bad tag: %w", protowire.ParseError(n))
		}
		data = data[n:]

		switch typ {
		case protowire.VarintType:
			v, n := protowire.ConsumeVarint(data)
			if n < 0 {
				return m, fmt.Errorf("wire: bad varint: %w", protowire.ParseError(n))
			}
			data = data[n:]
			switch num {
			case fieldKind:
				m.Kind = Kind(v)
			case fieldDepsCommitted:
				m.DepsCommitted = append(m.DepsCommitted, v != 0)
			case fieldHasFinalDeps:
				m.HasFinalDeps = v != 0
			case fieldCommitted:
				m.Committed = v != 0
			case fieldSeq:
				m.Seq = v
			case fieldHasLastBallot:
				m.HasLastBallot = v != 0
			}
		case protowire.BytesType:
			v, n := protowire.ConsumeBytes(data)
			if n < 0 {
				return m, fmt.Errorf("wire: bad bytes: %w", protowire.ParseError(n))
			}
			data = data[n:]
			var err error
			switch num {
			case fieldHeader:
				m.Header, err = decodeHeader(v)
			case fieldCmd:
				var c types.Command
				c, err = decodeCommand(v)
				m.Cmds = append(m.Cmds, c)
			case fieldInitialDeps:
				m.InitialDeps, err = decodeVec(v)
			case fieldDeps:
				m.Deps, err = decodeVec(v)
			case fieldFinalDeps:
				m.FinalDeps, err = decodeVec(v)
			case fieldLastBallot:
				m.LastBallot, err = decodeBallot(v)
			case fieldErr:
				m.Err, err = decodeErr(v)
			}
			if err != nil {
				return m, err
			}
		default:
			n := protowire.ConsumeFieldValue(num, typ, data)
			if n < 0 {
				return m, fmt.Errorf("wire: bad field: %w", protowire.ParseError(n))
			}
			data = data[n:]
		}
	}
	return m, nil
}
