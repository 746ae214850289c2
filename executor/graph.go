// Copyright (C) 2019-2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package executor

import (
	"github.com/luxfi/epaxos/epaxoserr"
	"github.com/luxfi/epaxos/storage"
	"github.com/luxfi/epaxos/types"
	"github.com/luxfi/epaxos/wire"
)

// graph is the dependency graph restricted to the instances currently
// pending execution: an edge id -> dep exists whenever dep is a member of
// id's FinalDeps and dep is itself pending. Edges to already-executed
// instances are not represented — they are trivially satisfied. storage
// is consulted by eligible to tell an executed dependency (safe to treat
// as satisfied) apart from one that was never even committed (must block
// execution), since neither shows up in pending.
type graph struct {
	pending map[types.InstanceId]*types.Instance
	edges   map[types.InstanceId][]types.InstanceId
	storage storage.Adapter
}

func newGraph(pending map[types.InstanceId]*types.Instance, adapter storage.Adapter) *graph {
	g := &graph{pending: pending, edges: make(map[types.InstanceId][]types.InstanceId), storage: adapter}
	for id, inst := range pending {
		for _, dep := range inst.FinalDeps.Entries() {
			depId := types.InstanceId{ReplicaId: dep.ReplicaId, InstanceIdx: dep.InstanceIdx}
			if depId == id {
				continue
			}
			if _, ok := pending[depId]; ok {
				g.edges[id] = append(g.edges[id], depId)
			}
		}
	}
	return g
}

// eligible reports whether every dependency of every member of comp that
// lies outside comp is already executed. A dependency still present in
// g.pending is checked by its own Executed flag rather than mere map
// membership, since applyAndMarkExecuted mutates the same *types.Instance
// the map holds — a component earlier in this same Pass may already have
// applied and marked it executed without removing it from the map. A
// dependency absent from g.pending is ambiguous on membership alone — it
// is either already executed (fine) or was never committed in the first
// place (must still block) — so it is resolved by loading it from storage
// and checking Executed directly. Edges within comp are fine: that is
// exactly what makes it a cycle.
func (g *graph) eligible(comp []types.InstanceId) bool {
	set := make(map[types.InstanceId]bool, len(comp))
	for _, id := range comp {
		set[id] = true
	}
	for _, id := range comp {
		for _, dep := range g.pending[id].FinalDeps.Entries() {
			depId := types.InstanceId{ReplicaId: dep.ReplicaId, InstanceIdx: dep.InstanceIdx}
			if set[depId] {
				continue
			}
			if depInst, stillTracked := g.pending[depId]; stillTracked {
				if !depInst.Executed {
					return false
				}
				continue
			}
			executed, err := g.isExecuted(depId)
			if err != nil || !executed {
				return false
			}
		}
	}
	return true
}

// isExecuted loads depId directly from storage and reports whether it has
// already been executed. A dependency that doesn't exist in storage yet
// (never committed) reports false, not an error — the caller blocks on it
// exactly as it would block on a still-pending dependency.
func (g *graph) isExecuted(depId types.InstanceId) (bool, error) {
	value, ok, err := g.storage.Get(storage.CFInstance, depId.ToKey())
	if err != nil {
		return false, epaxoserr.WrapStorage("load dependency", err)
	}
	if !ok {
		return false, nil
	}
	inst, err := wire.DecodeInstance(depId, value)
	if err != nil {
		return false, epaxoserr.WrapStorage("decode dependency", err)
	}
	return inst.Executed, nil
}

// tarjanSCCs returns the graph's strongly connected components in reverse
// topological order — a component's dependencies (components reachable
// from it) are returned before it is, so callers that execute components
// in the returned order always satisfy cross-component dependencies
// first. Within a component, caller-level tie-breaking is still required:
// a non-trivial SCC has no internal order Tarjan's algorithm can supply.
func (g *graph) tarjanSCCs() [][]types.InstanceId {
	t := &tarjan{
		g:       g,
		index:   make(map[types.InstanceId]int),
		lowlink: make(map[types.InstanceId]int),
		onStack: make(map[types.InstanceId]bool),
	}
	// Iterate in a stable order so repeated passes over the same pending
	// set produce the same SCC discovery order, which keeps test output
	// and logs deterministic.
	ids := make([]types.InstanceId, 0, len(g.pending))
	for id := range g.pending {
		ids = append(ids, id)
	}
	sortInstanceIds(ids)
	for _, id := range ids {
		if _, seen := t.index[id]; !seen {
			t.strongConnect(id)
		}
	}
	return t.components
}

type tarjan struct {
	g          *graph
	index      map[types.InstanceId]int
	lowlink    map[types.InstanceId]int
	onStack    map[types.InstanceId]bool
	stack      []types.InstanceId
	counter    int
	components [][]types.InstanceId
}

func (t *tarjan) strongConnect(v types.InstanceId) {
	t.index[v] = t.counter
	t.lowlink[v] = t.counter
	t.counter++
	t.stack = append(t.stack, v)
	t.onStack[v] = true

	neighbors := append([]types.InstanceId(nil), t.g.edges[v]...)
	sortInstanceIds(neighbors)
	for _, w := range neighbors {
		if _, seen := t.index[w]; !seen {
			t.strongConnect(w)
			if t.lowlink[w] < t.lowlink[v] {
				t.lowlink[v] = t.lowlink[w]
			}
		} else if t.onStack[w] {
			if t.index[w] < t.lowlink[v] {
				t.lowlink[v] = t.index[w]
			}
		}
	}

	if t.lowlink[v] == t.index[v] {
		var comp []types.InstanceId
		for {
			n := len(t.stack) - 1
			w := t.stack[n]
			t.stack = t.stack[:n]
			t.onStack[w] = false
			comp = append(comp, w)
			if w == v {
				break
			}
		}
		t.components = append(t.components, comp)
	}
}

func sortInstanceIds(ids []types.InstanceId) {
	for i := 1; i < len(ids); i++ {
		for j := i; j > 0 && ids[j].Less(ids[j-1]); j-- {
			ids[j], ids[j-1] = ids[j-1], ids[j]
		}
	}
}
