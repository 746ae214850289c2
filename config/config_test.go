// Copyright (C) 2019-2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package config

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/luxfi/epaxos/epaxoserr"
	"github.com/luxfi/epaxos/types"
)

const validDoc = `
nodes:
  127.0.0.1:7001:
    api_addr: 127.0.0.1:8001
  127.0.0.1:7002:
    api_addr: 127.0.0.1:8002
  127.0.0.1:7003:
    api_addr: 127.0.0.1:8003
groups:
  - 1: 127.0.0.1:7001
    2: 127.0.0.1:7002
    3: 127.0.0.1:7003
`

func TestParseDerivesNodeIdAndReplication(t *testing.T) {
	require := require.New(t)
	c, err := Parse([]byte(validDoc))
	require.NoError(err)

	n := c.Nodes["127.0.0.1:7001"]
	require.Equal("127.0.0.1:7001", n.NodeId)
	require.Equal("127.0.0.1:7001", n.Replication, "replication defaults to the node key")
	require.Equal("127.0.0.1:8001", n.ApiAddr)
}

func TestParseBuildsReplicasMap(t *testing.T) {
	require := require.New(t)
	c, err := Parse([]byte(validDoc))
	require.NoError(err)

	info, ok := c.Replicas[types.ReplicaId(2)]
	require.True(ok)
	require.Equal(0, info.Group)
	require.Equal("127.0.0.1:7002", info.NodeId)

	group, ok := c.Group(types.ReplicaId(2))
	require.True(ok)
	require.Len(group, 3)
}

func TestParseRejectsDuplicateReplicaAcrossGroups(t *testing.T) {
	require := require.New(t)
	doc := validDoc + `
  - 1: 127.0.0.1:7001
`
	_, err := Parse([]byte(doc))
	require.Error(err)
	var dup *epaxoserr.DupReplica
	require.ErrorAs(err, &dup)
	require.Equal(types.ReplicaId(1), dup.ReplicaId)
}

func TestParseRejectsOrphanReplica(t *testing.T) {
	require := require.New(t)
	doc := `
nodes:
  127.0.0.1:7001:
    api_addr: 127.0.0.1:8001
groups:
  - 1: 127.0.0.1:7001
    2: 127.0.0.1:9999
`
	_, err := Parse([]byte(doc))
	require.Error(err)
	var orphan *epaxoserr.OrphanReplica
	require.ErrorAs(err, &orphan)
	require.Equal(types.ReplicaId(2), orphan.ReplicaId)
	require.Equal("127.0.0.1:9999", orphan.NodeId)
}

func TestParseExplicitReplicationOverridesDefault(t *testing.T) {
	require := require.New(t)
	doc := `
nodes:
  127.0.0.1:7001:
    api_addr: 127.0.0.1:8001
    replication: 10.0.0.1:7001
groups:
  - 1: 127.0.0.1:7001
`
	c, err := Parse([]byte(doc))
	require.NoError(err)
	require.Equal("10.0.0.1:7001", c.Nodes["127.0.0.1:7001"].Replication)
}
