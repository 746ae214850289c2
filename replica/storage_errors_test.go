// Copyright (C) 2019-2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package replica

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/luxfi/epaxos/internal/storagemock"
	"github.com/luxfi/epaxos/types"
	"github.com/luxfi/epaxos/wire"
)

// A real storage.Adapter (pebble or in-memory) can't be made to fail a
// single Get/WriteBatch call on demand, so the errReply path — a handler
// turning a storage failure into a structured reply instead of letting it
// escape — needs a mock to exercise at all.
func TestHandleFastAcceptReturnsStorageErrorReplyOnLoadFailure(t *testing.T) {
	require := require.New(t)
	ctrl := gomock.NewController(t)
	adapter := storagemock.NewMockAdapter(ctrl)
	adapter.EXPECT().Get(gomock.Any(), gomock.Any()).Return(nil, false, errors.New("disk on fire"))

	m := New(2, adapter)
	id := types.InstanceId{ReplicaId: 1, InstanceIdx: 0}
	req := wire.NewFastAcceptRequest(2, types.InitialBallot(1), id, nil, types.InstanceIdVec{}, 0)

	reply := m.HandleFastAccept(req)
	require.NotNil(reply.Err)
	require.Equal("Storage", reply.Err.Kind)
}

func TestHandleCommitReturnsStorageErrorReplyOnWriteFailure(t *testing.T) {
	require := require.New(t)
	ctrl := gomock.NewController(t)
	adapter := storagemock.NewMockAdapter(ctrl)
	adapter.EXPECT().Get(gomock.Any(), gomock.Any()).Return(nil, false, nil)
	adapter.EXPECT().WriteBatch(gomock.Any()).Return(errors.New("disk on fire"))

	m := New(2, adapter)
	id := types.InstanceId{ReplicaId: 1, InstanceIdx: 0}
	req := wire.NewCommitRequest(2, types.InitialBallot(1), id, nil, types.InstanceIdVec{})

	reply := m.HandleCommit(req)
	require.NotNil(reply.Err)
	require.Equal("Storage", reply.Err.Kind)
}
