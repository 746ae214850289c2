// Copyright (C) 2019-2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package config loads the cluster topology a replica process needs at
// startup: which nodes exist, which replication groups they form, and
// which group/node a given ReplicaId belongs to. Following the teacher's
// config package convention of a plain struct plus a loader function
// rather than a framework, this loader reads a single YAML document
// (gopkg.in/yaml.v3) and derives everything else from it.
package config

import (
	"os"

	"gopkg.in/yaml.v3"

	"github.com/luxfi/epaxos/epaxoserr"
	"github.com/luxfi/epaxos/types"
)

// NodeConfig is one entry of the top-level nodes map. NodeId is not part
// of the YAML document itself — it is the map key, filled in by Load.
type NodeConfig struct {
	NodeId      string `yaml:"-"`
	ApiAddr     string `yaml:"api_addr"`
	ApiUAddr    string `yaml:"api_uaddr,omitempty"`
	Replication string `yaml:"replication,omitempty"`
}

// ReplicaInfo is the derived view of one ReplicaId: which group it
// belongs to and which node hosts it.
type ReplicaInfo struct {
	Group  int
	NodeId string
}

// raw mirrors the YAML document's literal shape before derivation.
type raw struct {
	Nodes  map[string]*NodeConfig        `yaml:"nodes"`
	Groups []map[types.ReplicaId]string `yaml:"groups"`
}

// Cluster is the fully derived, validated cluster topology.
type Cluster struct {
	Nodes    map[string]*NodeConfig
	Groups   []map[types.ReplicaId]string
	Replicas map[types.ReplicaId]ReplicaInfo
}

// Load reads and validates the cluster document at path.
func Load(path string) (*Cluster, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, epaxoserr.WrapStorage("read cluster config", err)
	}
	return Parse(data)
}

// Parse validates and derives a Cluster from an already-read YAML
// document, for callers that source it from somewhere other than the
// filesystem (tests, embedded defaults).
func Parse(data []byte) (*Cluster, error) {
	var r raw
	if err := yaml.Unmarshal(data, &r); err != nil {
		return nil, epaxoserr.WrapStorage("parse cluster config", err)
	}

	for nodeId, n := range r.Nodes {
		n.NodeId = nodeId
		if n.Replication == "" {
			n.Replication = nodeId
		}
	}

	replicas := make(map[types.ReplicaId]ReplicaInfo)
	for groupIdx, group := range r.Groups {
		for rid, nodeId := range group {
			if _, dup := replicas[rid]; dup {
				return nil, &epaxoserr.DupReplica{ReplicaId: rid}
			}
			if _, ok := r.Nodes[nodeId]; !ok {
				return nil, &epaxoserr.OrphanReplica{ReplicaId: rid, NodeId: nodeId}
			}
			replicas[rid] = ReplicaInfo{Group: groupIdx, NodeId: nodeId}
		}
	}

	return &Cluster{Nodes: r.Nodes, Groups: r.Groups, Replicas: replicas}, nil
}

// Group returns every ReplicaId sharing rid's replication group, including
// rid itself. Callers (e.g. the Coordinator) use this to build the peer
// set for a given replica.
func (c *Cluster) Group(rid types.ReplicaId) ([]types.ReplicaId, bool) {
	info, ok := c.Replicas[rid]
	if !ok {
		return nil, false
	}
	group := c.Groups[info.Group]
	out := make([]types.ReplicaId, 0, len(group))
	for peer := range group {
		out = append(out, peer)
	}
	return out, true
}
