// Copyright (C) 2019-2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package storage

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func openTestAdapter(t *testing.T) *PebbleAdapter {
	t.Helper()
	a, err := OpenMem()
	require.NoError(t, err)
	t.Cleanup(func() { _ = a.Close() })
	return a
}

func TestSetGetDelete(t *testing.T) {
	require := require.New(t)
	a := openTestAdapter(t)

	_, ok, err := a.Get(CFData, []byte("k1"))
	require.NoError(err)
	require.False(ok)

	require.NoError(a.Set(CFData, []byte("k1"), []byte("v1")))
	v, ok, err := a.Get(CFData, []byte("k1"))
	require.NoError(err)
	require.True(ok)
	require.Equal([]byte("v1"), v)

	require.NoError(a.Delete(CFData, []byte("k1")))
	_, ok, err = a.Get(CFData, []byte("k1"))
	require.NoError(err)
	require.False(ok)
}

func TestColumnFamiliesAreIsolated(t *testing.T) {
	require := require.New(t)
	a := openTestAdapter(t)

	require.NoError(a.Set(CFInstance, []byte("k"), []byte("instance-value")))
	_, ok, err := a.Get(CFData, []byte("k"))
	require.NoError(err)
	require.False(ok)

	v, ok, err := a.Get(CFInstance, []byte("k"))
	require.NoError(err)
	require.True(ok)
	require.Equal([]byte("instance-value"), v)
}

func TestNextOrderedTraversal(t *testing.T) {
	require := require.New(t)
	a := openTestAdapter(t)

	require.NoError(a.Set(CFData, []byte("a"), []byte("1")))
	require.NoError(a.Set(CFData, []byte("c"), []byte("3")))
	require.NoError(a.Set(CFData, []byte("e"), []byte("5")))

	k, v, ok, err := a.Next(CFData, []byte("a"), true)
	require.NoError(err)
	require.True(ok)
	require.Equal([]byte("a"), k)
	require.Equal([]byte("1"), v)

	k, _, ok, err = a.Next(CFData, []byte("a"), false)
	require.NoError(err)
	require.True(ok)
	require.Equal([]byte("c"), k)

	k, _, ok, err = a.Next(CFData, []byte("e"), false)
	require.NoError(err)
	require.False(ok)
	require.Nil(k)
}

func TestPrevOrderedTraversal(t *testing.T) {
	require := require.New(t)
	a := openTestAdapter(t)

	require.NoError(a.Set(CFData, []byte("a"), []byte("1")))
	require.NoError(a.Set(CFData, []byte("c"), []byte("3")))
	require.NoError(a.Set(CFData, []byte("e"), []byte("5")))

	k, _, ok, err := a.Prev(CFData, []byte("e"), true)
	require.NoError(err)
	require.True(ok)
	require.Equal([]byte("e"), k)

	k, _, ok, err = a.Prev(CFData, []byte("e"), false)
	require.NoError(err)
	require.True(ok)
	require.Equal([]byte("c"), k)

	k, _, ok, err = a.Prev(CFData, []byte("a"), false)
	require.NoError(err)
	require.False(ok)
	require.Nil(k)
}

func TestWriteBatchAppliesEveryEntryAcrossColumnFamilies(t *testing.T) {
	require := require.New(t)
	a := openTestAdapter(t)

	require.NoError(a.Set(CFData, []byte("x"), []byte("old")))

	err := a.WriteBatch([]BatchEntry{
		{CF: CFData, Op: OpSet, Key: []byte("x"), Value: []byte("new")},
		{CF: CFInstance, Op: OpSet, Key: []byte("y"), Value: []byte("z")},
		{CF: CFData, Op: OpDelete, Key: []byte("x-never-existed")},
	})
	require.NoError(err)

	v, ok, err := a.Get(CFData, []byte("x"))
	require.NoError(err)
	require.True(ok)
	require.Equal([]byte("new"), v)

	v, ok, err = a.Get(CFInstance, []byte("y"))
	require.NoError(err)
	require.True(ok)
	require.Equal([]byte("z"), v)
}
