// Copyright (C) 2019-2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package executor implements the execution loop: the background process
// that walks every replica's committed instances, orders them by strongly
// connected component over the dependency graph (spec.md §4.6), and
// applies each instance's commands to the data column family exactly
// once, in an order every replica agrees on even though they were
// proposed concurrently by different leaders.
package executor

import (
	"context"
	"sort"
	"time"

	"github.com/luxfi/log"

	"github.com/luxfi/epaxos/epaxoserr"
	"github.com/luxfi/epaxos/metrics"
	"github.com/luxfi/epaxos/storage"
	"github.com/luxfi/epaxos/types"
	"github.com/luxfi/epaxos/wire"
)

// IdleInterval is how long the loop sleeps after a pass that found nothing
// eligible to run, absent a commit wakeup.
const IdleInterval = 10 * time.Millisecond

// Applier turns an instance's commands into the batch entries that apply
// its side effects against durable state. It must not write to storage
// itself — Pass combines the returned entries with the executed-flag
// update into a single atomic WriteBatch, so a crash can never apply an
// instance's effects without also recording it as executed (or vice
// versa). The default Applier (storage-backed) produces one Set entry per
// Set command and ignores Get/NoOp, but callers may substitute their own
// for testing or for a different backing store.
type Applier interface {
	Apply(id types.InstanceId, cmds []types.Command) ([]storage.BatchEntry, error)
}

// StorageApplier targets an Adapter's CFData column family: the last Set
// for a key wins within a batch.
type StorageApplier struct {
	Storage storage.Adapter
}

func (a StorageApplier) Apply(_ types.InstanceId, cmds []types.Command) ([]storage.BatchEntry, error) {
	var entries []storage.BatchEntry
	for _, c := range cmds {
		if c.OpCode != types.OpSet {
			continue
		}
		entries = append(entries, storage.BatchEntry{CF: storage.CFData, Op: storage.OpSet, Key: c.Key, Value: c.Value})
	}
	return entries, nil
}

// Loop walks the instance log and applies every instance the dependency
// graph has made eligible, sleeping between passes and waking early on a
// Committed signal.
type Loop struct {
	storage storage.Adapter
	applier Applier
	woken   <-chan struct{}
	metrics *metrics.Executor
	log     log.Logger
}

// New builds a Loop reading instances from adapter, applying side effects
// through applier, and waking early whenever woken fires.
func New(adapter storage.Adapter, applier Applier, woken <-chan struct{}, m *metrics.Executor, logger log.Logger) *Loop {
	if logger == nil {
		logger = log.NewNoOpLogger()
	}
	return &Loop{storage: adapter, applier: applier, woken: woken, metrics: m, log: logger}
}

// Run executes passes until ctx is cancelled.
func (l *Loop) Run(ctx context.Context) {
	for {
		progressed, err := l.Pass()
		if err != nil {
			l.log.Error("execution pass failed", "err", err)
		}
		if progressed {
			continue
		}
		if l.metrics != nil {
			l.metrics.IdlePasses.Inc()
		}
		select {
		case <-ctx.Done():
			return
		case <-l.woken:
		case <-time.After(IdleInterval):
		}
	}
}

// Pass scans every committed-but-not-executed instance, computes the
// strongly connected components of the dependency graph restricted to
// those instances, and applies each component (in reverse topological
// order, tie-broken within a component by (Seq, InstanceId)) whose every
// dependency is either already executed or a member of the same
// component. It reports whether anything was applied.
func (l *Loop) Pass() (bool, error) {
	pending, err := l.loadPending()
	if err != nil {
		return false, err
	}
	if len(pending) == 0 {
		return false, nil
	}

	g := newGraph(pending, l.storage)
	components := g.tarjanSCCs()

	progressed := false
	for _, comp := range components {
		if !g.eligible(comp) {
			continue
		}
		sortComponent(comp, pending)
		for _, id := range comp {
			inst := pending[id]
			entries, err := l.applier.Apply(id, inst.Cmds)
			if err != nil {
				return progressed, err
			}
			if err := l.applyAndMarkExecuted(inst, entries); err != nil {
				return progressed, err
			}
			progressed = true
			if l.metrics != nil {
				l.metrics.Executed.Inc()
			}
		}
		if l.metrics != nil && len(comp) > 1 {
			l.metrics.SccSizeTotal.Add(float64(len(comp)))
		}
	}
	return progressed, nil
}

func (l *Loop) loadPending() (map[types.InstanceId]*types.Instance, error) {
	out := make(map[types.InstanceId]*types.Instance)
	var cursor []byte
	inclusive := true
	for {
		key, value, ok, err := l.storage.Next(storage.CFInstance, cursor, inclusive)
		if err != nil {
			return nil, epaxoserr.WrapStorage("scan instances", err)
		}
		if !ok {
			break
		}
		cursor, inclusive = key, false

		id, err := types.InstanceIdFromKey(key)
		if err != nil {
			return nil, epaxoserr.WrapStorage("scan instances", err)
		}
		inst, err := wire.DecodeInstance(id, value)
		if err != nil {
			return nil, epaxoserr.WrapStorage("scan instances", err)
		}
		if inst.Committed && !inst.Executed {
			out[id] = inst
		}
	}
	return out, nil
}

// applyAndMarkExecuted writes an instance's side-effect entries and its
// executed-flag update as a single atomic WriteBatch (spec.md:108), so a
// crash between the two can never leave one applied without the other.
func (l *Loop) applyAndMarkExecuted(inst *types.Instance, entries []storage.BatchEntry) error {
	inst.Executed = true
	inst.State = types.StateExecuted
	batch := append(entries, storage.BatchEntry{
		CF: storage.CFInstance, Op: storage.OpSet, Key: inst.InstanceId.ToKey(), Value: wire.EncodeInstance(inst),
	})
	if err := l.storage.WriteBatch(batch); err != nil {
		return epaxoserr.WrapStorage("mark executed", err)
	}
	return nil
}

// sortComponent orders a single SCC's members by (Seq, InstanceId), the
// tie-break spec.md §4.6 mandates so two replicas executing the same
// component agree on an order even though nothing in the dependency graph
// itself distinguishes its members.
func sortComponent(comp []types.InstanceId, pending map[types.InstanceId]*types.Instance) {
	sort.Slice(comp, func(i, j int) bool {
		a, b := pending[comp[i]], pending[comp[j]]
		if a.Seq != b.Seq {
			return a.Seq < b.Seq
		}
		return comp[i].Less(comp[j])
	})
}
