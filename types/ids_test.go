// Copyright (C) 2019-2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package types

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestInstanceIdKeyRoundTrip(t *testing.T) {
	require := require.New(t)

	cases := []InstanceId{
		{ReplicaId: 1, InstanceIdx: 0},
		{ReplicaId: 3, InstanceIdx: 7},
		{ReplicaId: 42, InstanceIdx: 1 << 32},
	}
	for _, id := range cases {
		key := id.ToKey()
		got, err := InstanceIdFromKey(key)
		require.NoError(err)
		require.Equal(id, got)
	}
}

func TestInstanceIdFromKeyRejectsNegativeIdx(t *testing.T) {
	require := require.New(t)

	_, err := InstanceIdFromKey([]byte("0000000000000001/ffffffffffffffff"))
	require.Error(err)
}

func TestInstanceIdFromKeyRejectsMalformed(t *testing.T) {
	require := require.New(t)

	_, err := InstanceIdFromKey([]byte("not-a-key"))
	require.Error(err)
}

func TestInstanceIdLess(t *testing.T) {
	require := require.New(t)

	a := InstanceId{ReplicaId: 1, InstanceIdx: 5}
	b := InstanceId{ReplicaId: 1, InstanceIdx: 6}
	c := InstanceId{ReplicaId: 2, InstanceIdx: 0}

	require.True(a.Less(b))
	require.False(b.Less(a))
	require.True(b.Less(c))
	require.False(a.Less(a))
}

func TestBallotOrdering(t *testing.T) {
	require := require.New(t)

	b1 := BallotNum{Epoch: 0, Num: 5, ReplicaId: 1}
	b2 := BallotNum{Epoch: 0, Num: 5, ReplicaId: 2}
	b3 := BallotNum{Epoch: 0, Num: 6, ReplicaId: 1}

	require.True(b1.Less(b2))
	require.True(b2.Less(b3))
	require.True(ZeroBallot.Less(b1))
	require.True(b1.LessEqual(b1))
}
