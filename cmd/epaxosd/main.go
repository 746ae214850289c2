// Copyright (C) 2019-2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Command epaxosd runs a single replica process: it loads the cluster
// topology, opens its durable instance log, builds the replica state
// machine and runs the execution loop. It starts no replication server and
// constructs no Coordinator: the RPC transport is left to whatever Bus
// implementation the deployment wires in, so this binary only shows the
// storage/replica/executor wiring.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/luxfi/log"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/luxfi/epaxos/config"
	"github.com/luxfi/epaxos/executor"
	"github.com/luxfi/epaxos/metrics"
	"github.com/luxfi/epaxos/replica"
	"github.com/luxfi/epaxos/storage"
	"github.com/luxfi/epaxos/types"
)

func main() {
	clusterPath := flag.String("cluster", "cluster.yaml", "path to the cluster topology YAML document")
	replicaId := flag.Int("replica-id", 0, "this process's ReplicaId within the cluster")
	dataDir := flag.String("data-dir", "", "directory for the durable instance log (pebble)")
	flag.Parse()

	logger := log.NewNoOpLogger()

	if err := run(*clusterPath, types.ReplicaId(*replicaId), *dataDir, logger); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(clusterPath string, self types.ReplicaId, dataDir string, logger log.Logger) error {
	cluster, err := config.Load(clusterPath)
	if err != nil {
		return fmt.Errorf("epaxosd: loading cluster config: %w", err)
	}
	group, ok := cluster.Group(self)
	if !ok {
		return fmt.Errorf("epaxosd: replica %d is not a member of any group in %s", self, clusterPath)
	}

	var adapter storage.Adapter
	if dataDir == "" {
		mem, err := storage.OpenMem()
		if err != nil {
			return fmt.Errorf("epaxosd: opening in-memory storage: %w", err)
		}
		adapter = mem
	} else {
		disk, err := storage.Open(dataDir)
		if err != nil {
			return fmt.Errorf("epaxosd: opening storage at %s: %w", dataDir, err)
		}
		adapter = disk
	}
	defer adapter.Close()

	machine := replica.New(self, adapter, replica.WithLogger(logger))

	reg := prometheus.NewRegistry()
	execMetrics := metrics.NewExecutor(reg)
	loop := executor.New(adapter, executor.StorageApplier{Storage: adapter}, machine.Committed, execMetrics, logger)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	logger.Info("epaxosd starting", "replica_id", int32(self), "group_size", len(group))
	loop.Run(ctx)
	logger.Info("epaxosd shutting down")
	return nil
}
