// Copyright (C) 2019-2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package types

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestInstanceIdVecSetOrReplace(t *testing.T) {
	require := require.New(t)

	v := NewInstanceIdVec(
		InstanceId{ReplicaId: 2, InstanceIdx: 1},
		InstanceId{ReplicaId: 1, InstanceIdx: 0},
	)
	require.Equal(2, v.Len())

	got, ok := v.Get(1)
	require.True(ok)
	require.Equal(InstanceIdx(0), got.InstanceIdx)

	v.SetOrReplace(InstanceId{ReplicaId: 1, InstanceIdx: 9})
	got, ok = v.Get(1)
	require.True(ok)
	require.Equal(InstanceIdx(9), got.InstanceIdx)
	require.Equal(2, v.Len())
}

func TestUnionAssociativeCommutativeIdempotent(t *testing.T) {
	require := require.New(t)

	a := NewInstanceIdVec(InstanceId{1, 0}, InstanceId{2, 3})
	b := NewInstanceIdVec(InstanceId{2, 1}, InstanceId{3, 5})
	c := NewInstanceIdVec(InstanceId{1, 2}, InstanceId{3, 0})

	// commutative
	require.True(Union(a, b).Equal(Union(b, a)))

	// associative
	require.True(Union(Union(a, b), c).Equal(Union(a, Union(b, c))))

	// idempotent
	require.True(Union(a, a).Equal(a))
}

func TestUnionTakesElementwiseMax(t *testing.T) {
	require := require.New(t)

	a := NewInstanceIdVec(InstanceId{3, 0})
	b := NewInstanceIdVec(InstanceId{3, 1})

	u := Union(a, b)
	got, ok := u.Get(3)
	require.True(ok)
	require.Equal(InstanceIdx(1), got.InstanceIdx)
}

func TestDominates(t *testing.T) {
	require := require.New(t)

	initial := NewInstanceIdVec(InstanceId{1, 0}, InstanceId{2, 0}, InstanceId{3, 0})
	deps := NewInstanceIdVec(InstanceId{1, 0}, InstanceId{2, 0}, InstanceId{3, 1})

	require.True(deps.Dominates(initial))
	require.False(initial.Dominates(deps))
}
