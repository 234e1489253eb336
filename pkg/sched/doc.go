// Package sched runs tasks under a cooperative, single-token
// scheduler: at most one task executes at a time, and a task only
// gives up the token at a suspension point (a blocking operation from
// pkg/sync, or an explicit Yield). There is no preemption.
//
// The scheduler integrates with pkg/sync through the Parker it
// installs in every task's context, so lock acquisitions, condition
// waits, barrier waits and once-initialization waits all hand the
// token back while suspended.
package sched
