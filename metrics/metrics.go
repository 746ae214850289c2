// Copyright (C) 2019-2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package metrics wraps prometheus/client_golang counters and a histogram
// behind the small Averager/Counter registry shape the teacher ecosystem
// uses (utils/metric), so the Coordinator and Executor can report activity
// without depending on a concrete registry type.
package metrics

import "github.com/prometheus/client_golang/prometheus"

// Coordinator groups the counters the Replicator/Coordinator reports per
// spec.md §4.5: how often each path was taken, and how long each Submit
// call took in total.
type Coordinator struct {
	FastPathCommits  prometheus.Counter
	SlowPathCommits  prometheus.Counter
	QuorumFailures   prometheus.Counter
	Timeouts         prometheus.Counter
	SubmitLatencySec prometheus.Histogram
}

// NewCoordinator registers the Coordinator metric set under reg.
func NewCoordinator(reg prometheus.Registerer) *Coordinator {
	c := &Coordinator{
		FastPathCommits: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "epaxos", Subsystem: "coordinator", Name: "fast_path_commits_total",
			Help: "Commits decided on the fast path (single round trip).",
		}),
		SlowPathCommits: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "epaxos", Subsystem: "coordinator", Name: "slow_path_commits_total",
			Help: "Commits decided after falling back to Accept.",
		}),
		QuorumFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "epaxos", Subsystem: "coordinator", Name: "quorum_failures_total",
			Help: "Submit attempts that failed to gather a classic quorum.",
		}),
		Timeouts: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "epaxos", Subsystem: "coordinator", Name: "timeouts_total",
			Help: "Submit attempts that hit their deadline before deciding.",
		}),
		SubmitLatencySec: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "epaxos", Subsystem: "coordinator", Name: "submit_latency_seconds",
			Help:    "Wall-clock time from Submit to a decided instance.",
			Buckets: prometheus.DefBuckets,
		}),
	}
	reg.MustRegister(c.FastPathCommits, c.SlowPathCommits, c.QuorumFailures, c.Timeouts, c.SubmitLatencySec)
	return c
}

// Executor groups the counters the execution loop reports per spec.md §4.6.
type Executor struct {
	Executed     prometheus.Counter
	IdlePasses   prometheus.Counter
	SccSizeTotal prometheus.Counter
}

// NewExecutor registers the Executor metric set under reg.
func NewExecutor(reg prometheus.Registerer) *Executor {
	e := &Executor{
		Executed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "epaxos", Subsystem: "executor", Name: "instances_executed_total",
			Help: "Instances whose side effects have been applied.",
		}),
		IdlePasses: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "epaxos", Subsystem: "executor", Name: "idle_passes_total",
			Help: "Execution-loop passes that found nothing eligible to run.",
		}),
		SccSizeTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "epaxos", Subsystem: "executor", Name: "scc_members_total",
			Help: "Cumulative number of instances resolved via a non-trivial SCC.",
		}),
	}
	reg.MustRegister(e.Executed, e.IdlePasses, e.SccSizeTotal)
	return e
}
