// Copyright (C) 2019-2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package coordinator implements the Replicator: the locally-led
// fast/slow-path protocol driver from spec.md §4.5. It owns instance
// allocation for commands this replica leads and drives FastAccept,
// Accept and Commit across the replica group, never mutating an instance
// once committed.
package coordinator

import (
	"context"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/luxfi/log"

	"github.com/luxfi/epaxos/epaxoserr"
	"github.com/luxfi/epaxos/metrics"
	"github.com/luxfi/epaxos/quorum"
	"github.com/luxfi/epaxos/replica"
	"github.com/luxfi/epaxos/transport"
	"github.com/luxfi/epaxos/types"
	"github.com/luxfi/epaxos/wire"
)

// Config tunes the coordinator's timeouts and backpressure window.
type Config struct {
	// TFast bounds the fast-path round trip; once it elapses the
	// coordinator falls back to the slow path with whatever replies it
	// has.
	TFast time.Duration
	// TTotal bounds the entire Submit call, fast and slow path combined.
	TTotal time.Duration
	// MaxInFlight bounds how many instances this coordinator may have
	// outstanding (proposed, not yet committed) at once (spec.md §5
	// backpressure).
	MaxInFlight int
}

// DefaultConfig mirrors typical EPaxos deployments: a short fast-path
// window, a generous total budget, and a modest in-flight window.
func DefaultConfig() Config {
	return Config{TFast: 20 * time.Millisecond, TTotal: 500 * time.Millisecond, MaxInFlight: 256}
}

// Coordinator drives Submit calls for commands this replica leads.
type Coordinator struct {
	self    types.ReplicaId
	group   []types.ReplicaId // all replicas, including self
	machine *replica.Machine
	bus     transport.Bus
	cfg     Config
	metrics *metrics.Coordinator
	log     log.Logger

	mu         sync.Mutex
	nextIdx    types.InstanceIdx
	seen       types.InstanceIdVec
	inFlightCh chan struct{}
}

// New builds a Coordinator for self within group (which must include
// self), persisting and self-voting through machine and reaching peers
// through bus.
func New(self types.ReplicaId, group []types.ReplicaId, machine *replica.Machine, bus transport.Bus, cfg Config, m *metrics.Coordinator, logger log.Logger) *Coordinator {
	if logger == nil {
		logger = log.NewNoOpLogger()
	}
	return &Coordinator{
		self: self, group: group, machine: machine, bus: bus, cfg: cfg, metrics: m, log: logger,
		inFlightCh: make(chan struct{}, cfg.MaxInFlight),
	}
}

// Result is what Submit reports once an instance has been decided.
type Result struct {
	InstanceId types.InstanceId
	FinalDeps  types.InstanceIdVec
	FastPath   bool
}

func (c *Coordinator) peers() []types.ReplicaId {
	out := make([]types.ReplicaId, 0, len(c.group)-1)
	for _, r := range c.group {
		if r != c.self {
			out = append(out, r)
		}
	}
	return out
}

// observe merges vec into the coordinator's running view of "the highest
// InstanceId seen from each replica", per spec.md §4.5 step 1.
func (c *Coordinator) observe(vec types.InstanceIdVec) {
	c.mu.Lock()
	c.seen = types.Union(c.seen, vec)
	c.mu.Unlock()
}

// Submit allocates a new instance under this replica's leadership for
// cmds and drives it through the fast/slow path protocol to a decision.
func (c *Coordinator) Submit(ctx context.Context, cmds []types.Command) (Result, error) {
	select {
	case c.inFlightCh <- struct{}{}:
	case <-ctx.Done():
		return Result{}, ctx.Err()
	}
	defer func() { <-c.inFlightCh }()

	if c.cfg.TTotal > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.cfg.TTotal)
		defer cancel()
	}

	start := time.Now()
	if c.metrics != nil {
		defer func() { c.metrics.SubmitLatencySec.Observe(time.Since(start).Seconds()) }()
	}

	id, initialDeps := c.allocate()
	ballot := types.InitialBallot(c.self)
	c.log.Debug("submit starting", "instance", id.String(), "cmds", len(cmds))

	selfReq := wire.NewFastAcceptRequest(c.self, ballot, id, cmds, initialDeps, uint64(id.InstanceIdx))
	selfReply := c.machine.HandleFastAccept(selfReq)
	if selfReply.Err != nil {
		return Result{}, &epaxoserr.Replica{Reason: "self FastAccept failed", Cause: errFromPayload(selfReply.Err)}
	}

	replies := c.broadcastFastAccept(ctx, ballot, id, cmds, initialDeps)
	replies = append(replies, selfReply)

	if final, ok := c.fastPathDecision(initialDeps, replies); ok {
		if err := c.commit(ctx, id, cmds, final); err != nil {
			return Result{}, err
		}
		if c.metrics != nil {
			c.metrics.FastPathCommits.Inc()
		}
		c.log.Debug("submit committed on fast path", "instance", id.String())
		return Result{InstanceId: id, FinalDeps: final, FastPath: true}, nil
	}

	q := quorum.Classic(len(c.group))
	if len(replies) < q {
		if c.metrics != nil {
			c.metrics.QuorumFailures.Inc()
		}
		c.log.Warn("submit failed to reach classic quorum", "instance", id.String(), "want", q, "got", len(replies))
		return Result{}, &epaxoserr.NotEnoughQuorum{Want: q, Got: len(replies)}
	}

	final := mergedDeps(replies)
	if err := c.runAccept(ctx, id, cmds, final); err != nil {
		return Result{}, err
	}
	if err := c.commit(ctx, id, cmds, final); err != nil {
		return Result{}, err
	}
	if c.metrics != nil {
		c.metrics.SlowPathCommits.Inc()
	}
	c.log.Debug("submit committed on slow path", "instance", id.String())
	return Result{InstanceId: id, FinalDeps: final, FastPath: false}, nil
}

// allocate picks the next InstanceIdx under self's leadership and builds
// initial_deps from every replica's highest InstanceId this coordinator
// has observed so far (spec.md §4.5 step 1).
func (c *Coordinator) allocate() (types.InstanceId, types.InstanceIdVec) {
	c.mu.Lock()
	defer c.mu.Unlock()
	idx := c.nextIdx
	c.nextIdx++
	id := types.InstanceId{ReplicaId: c.self, InstanceIdx: idx}
	initialDeps := c.seen.Clone()
	c.seen.SetOrReplace(id)
	return id, initialDeps
}

func (c *Coordinator) broadcastFastAccept(ctx context.Context, ballot types.BallotNum, id types.InstanceId, cmds []types.Command, initialDeps types.InstanceIdVec) []wire.Message {
	return c.broadcast(ctx, c.cfg.TFast, func(peer types.ReplicaId) wire.Message {
		return wire.NewFastAcceptRequest(peer, ballot, id, cmds, initialDeps, uint64(id.InstanceIdx))
	})
}

// broadcast sends build(peer) to every peer concurrently (via errgroup,
// grounded on the same fan-out-with-shared-context shape the rest of the
// ecosystem uses for quorum joins) and collects the non-error replies
// within timeout, ignoring stragglers once ctx is done.
func (c *Coordinator) broadcast(ctx context.Context, timeout time.Duration, build func(types.ReplicaId) wire.Message) []wire.Message {
	roundCtx := ctx
	var cancel context.CancelFunc
	if timeout > 0 {
		roundCtx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	var mu sync.Mutex
	var out []wire.Message
	g, gctx := errgroup.WithContext(roundCtx)
	for _, peer := range c.peers() {
		peer := peer
		g.Go(func() error {
			req := build(peer)
			reply, err := c.bus.Replicate(gctx, peer, req)
			if err != nil {
				return nil //nolint:nilerr // a peer timing out just shrinks the reply set
			}
			if reply.Deps.Len() > 0 {
				c.observe(reply.Deps)
			}
			mu.Lock()
			out = append(out, reply)
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()
	return out
}

// fastPathDecision implements spec.md §4.5 step 4: commit directly when at
// least F replies (including self) agree on deps == initial_deps and every
// position they report is already known committed.
func (c *Coordinator) fastPathDecision(initialDeps types.InstanceIdVec, replies []wire.Message) (types.InstanceIdVec, bool) {
	f := quorum.Fast(len(c.group))
	agree := 0
	for _, r := range replies {
		if r.Err != nil {
			continue
		}
		if !r.Deps.Equal(initialDeps) {
			continue
		}
		allCommitted := true
		for _, dc := range r.DepsCommitted {
			if !dc {
				allCommitted = false
				break
			}
		}
		if !allCommitted {
			continue
		}
		agree++
	}
	if agree >= f {
		return initialDeps, true
	}
	return types.InstanceIdVec{}, false
}

// mergedDeps implements spec.md §4.5 step 5: final_deps is the elementwise
// max of every replied deps vector.
func mergedDeps(replies []wire.Message) types.InstanceIdVec {
	var out types.InstanceIdVec
	for _, r := range replies {
		if r.Err != nil {
			continue
		}
		out = types.Union(out, r.Deps)
	}
	return out
}

func (c *Coordinator) runAccept(ctx context.Context, id types.InstanceId, cmds []types.Command, final types.InstanceIdVec) error {
	ballot := types.InitialBallot(c.self)

	selfReq := wire.NewAcceptRequest(c.self, ballot, id, cmds, final)
	selfReply := c.machine.HandleAccept(selfReq)
	if selfReply.Err != nil {
		return &epaxoserr.Replica{Reason: "self Accept failed", Cause: errFromPayload(selfReply.Err)}
	}

	replies := c.broadcast(ctx, 0, func(peer types.ReplicaId) wire.Message {
		return wire.NewAcceptRequest(peer, ballot, id, cmds, final)
	})
	replies = append(replies, selfReply)

	ok := 0
	for _, r := range replies {
		if r.Err == nil {
			ok++
		}
	}
	q := quorum.Classic(len(c.group))
	if ok < q {
		return &epaxoserr.NotEnoughQuorum{Want: q, Got: ok}
	}
	return nil
}

// commit broadcasts Commit and applies it locally. Commit is authoritative
// in EPaxos: it does not wait for a quorum of acknowledgements, it only
// needs to be durable locally and eventually delivered everywhere.
func (c *Coordinator) commit(ctx context.Context, id types.InstanceId, cmds []types.Command, final types.InstanceIdVec) error {
	ballot := types.InitialBallot(c.self)
	selfReq := wire.NewCommitRequest(c.self, ballot, id, cmds, final)
	if reply := c.machine.HandleCommit(selfReq); reply.Err != nil {
		return &epaxoserr.Replica{Reason: "self Commit failed", Cause: errFromPayload(reply.Err)}
	}

	c.broadcast(ctx, 0, func(peer types.ReplicaId) wire.Message {
		return wire.NewCommitRequest(peer, ballot, id, cmds, final)
	})
	return nil
}
