// Copyright (C) 2019-2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package types

import "bytes"

// OpCode identifies the kind of operation a Command performs. It is a byte
// rather than an enum-only type so the wire codec can carry future opcodes
// without a breaking change.
type OpCode uint8

const (
	// OpNoOp never conflicts with anything and has no effect when executed.
	OpNoOp OpCode = iota
	// OpGet reads a key; it conflicts with a concurrent Set on the same key.
	OpGet
	// OpSet writes a key; it conflicts with any Set or Get on the same key.
	OpSet
)

func (op OpCode) String() string {
	switch op {
	case OpNoOp:
		return "NoOp"
	case OpGet:
		return "Get"
	case OpSet:
		return "Set"
	default:
		return "Unknown"
	}
}

// Command is a single client operation: an opcode plus opaque key/value
// byte strings. A leader's instance carries a batch of these (Cmds).
type Command struct {
	OpCode OpCode
	Key    []byte
	Value  []byte
}

// Conflicts reports whether a and b must be ordered relative to one
// another. NoOp never conflicts. Two Gets never conflict. A Set conflicts
// with anything (Set or Get) touching the same key.
func Conflicts(a, b Command) bool {
	if a.OpCode == OpNoOp || b.OpCode == OpNoOp {
		return false
	}
	if a.OpCode == OpGet && b.OpCode == OpGet {
		return false
	}
	return bytes.Equal(a.Key, b.Key)
}

// CommandsConflict reports whether any command in batch a conflicts with
// any command in batch b. Instances carry batches, so the leader-level
// conflict predicate is the any-pair lift of Conflicts.
func CommandsConflict(a, b []Command) bool {
	for _, ca := range a {
		for _, cb := range b {
			if Conflicts(ca, cb) {
				return true
			}
		}
	}
	return false
}
