package sched_test

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/robotalks/brain.go/pkg/sched"
)

func TestSchedulerRunsTasksInSpawnOrder(t *testing.T) {
	s := sched.New()
	var order []int
	for i := 0; i < 4; i++ {
		i := i
		s.Spawn(fmt.Sprintf("task-%d", i), func(ctx context.Context) error {
			order = append(order, i)
			return nil
		})
	}
	require.NoError(t, s.Run(context.Background()))
	require.Equal(t, []int{0, 1, 2, 3}, order)
}

func TestSchedulerYieldRoundRobin(t *testing.T) {
	s := sched.New()
	var order []string
	for _, name := range []string{"a", "b"} {
		name := name
		s.Spawn(name, func(ctx context.Context) error {
			for i := 0; i < 3; i++ {
				order = append(order, name)
				sched.Yield(ctx)
			}
			return nil
		})
	}
	require.NoError(t, s.Run(context.Background()))
	require.Equal(t, []string{"a", "b", "a", "b", "a", "b"}, order)
}

func TestSchedulerSpawnFromTask(t *testing.T) {
	s := sched.New()
	var order []string
	s.Spawn("parent", func(ctx context.Context) error {
		order = append(order, "parent")
		s.Spawn("child", func(ctx context.Context) error {
			order = append(order, "child")
			return nil
		})
		order = append(order, "parent-done")
		return nil
	})
	require.NoError(t, s.Run(context.Background()))
	require.Equal(t, []string{"parent", "parent-done", "child"}, order)
}

func TestSchedulerAggregatesErrors(t *testing.T) {
	s := sched.New()
	errA := errors.New("a failed")
	s.Spawn("ok", func(ctx context.Context) error { return nil })
	s.Spawn("bad", func(ctx context.Context) error { return errA })
	err := s.Run(context.Background())
	require.Error(t, err)
	require.ErrorIs(t, err, errA)
	var taskErr *sched.TaskError
	require.ErrorAs(t, err, &taskErr)
	require.Equal(t, "bad", taskErr.Task)
}

func TestSchedulerIgnoresCancellationErrors(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	s := sched.New()
	s.Spawn("canceller", func(ctx context.Context) error {
		cancel()
		return nil
	})
	s.Spawn("victim", func(ctx context.Context) error {
		sched.Yield(ctx)
		return ctx.Err()
	})
	require.NoError(t, s.Run(ctx))
}

func TestCurrentAndYieldOutsideScheduler(t *testing.T) {
	require.Nil(t, sched.Current(context.Background()))
	sched.Yield(context.Background()) // must not panic or block
}

func TestSchedulerRunTwicePanics(t *testing.T) {
	s := sched.New()
	require.NoError(t, s.Run(context.Background()))
	require.Panics(t, func() { _ = s.Run(context.Background()) })
}
