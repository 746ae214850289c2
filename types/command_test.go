// Copyright (C) 2019-2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package types

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestConflicts(t *testing.T) {
	require := require.New(t)

	setK := Command{OpCode: OpSet, Key: []byte("k")}
	setK2 := Command{OpCode: OpSet, Key: []byte("k")}
	setOther := Command{OpCode: OpSet, Key: []byte("other")}
	getK := Command{OpCode: OpGet, Key: []byte("k")}
	getK2 := Command{OpCode: OpGet, Key: []byte("k")}
	noop := Command{OpCode: OpNoOp}

	require.True(Conflicts(setK, setK2))
	require.False(Conflicts(setK, setOther))
	require.True(Conflicts(setK, getK))
	require.False(Conflicts(getK, getK2))
	require.False(Conflicts(noop, setK))
	require.False(Conflicts(setK, noop))
}

func TestCommandsConflictAnyPair(t *testing.T) {
	require := require.New(t)

	batchA := []Command{{OpCode: OpGet, Key: []byte("a")}, {OpCode: OpSet, Key: []byte("b")}}
	batchB := []Command{{OpCode: OpGet, Key: []byte("b")}}

	require.True(CommandsConflict(batchA, batchB))
	require.False(CommandsConflict([]Command{{OpCode: OpGet, Key: []byte("z")}}, batchB))
}
