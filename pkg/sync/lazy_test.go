package sync_test

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/robotalks/brain.go/pkg/sched"
	"github.com/robotalks/brain.go/pkg/sync"
)

func TestLazyLockMemoizes(t *testing.T) {
	inits := 0
	lazy := sync.NewLazyLock(func() (*int, error) {
		inits++
		v := 42
		return &v, nil
	})

	var first *int
	for i := 0; i < 5; i++ {
		v, err := lazy.Get(context.Background())
		require.NoError(t, err)
		if first == nil {
			first = v
		}
		require.Same(t, first, v)
	}
	require.Equal(t, 1, inits)
}

func TestLazyLockConcurrentFirstAccess(t *testing.T) {
	const callers = 4
	s := sched.New()
	inits := 0
	lazy := sync.NewLazyLock(func() (int, error) {
		inits++
		return 7, nil
	})

	for i := 0; i < callers; i++ {
		s.Spawn(fmt.Sprintf("caller-%d", i), func(ctx context.Context) error {
			v, err := lazy.Get(ctx)
			if err != nil {
				return err
			}
			require.Equal(t, 7, v)
			return nil
		})
	}
	require.NoError(t, s.Run(context.Background()))
	require.Equal(t, 1, inits)
}

func TestLazyLockInitFailureRetries(t *testing.T) {
	errFirst := errors.New("first access fails")
	attempts := 0
	lazy := sync.NewLazyLock(func() (int, error) {
		attempts++
		if attempts == 1 {
			return 0, errFirst
		}
		return 5, nil
	})

	_, err := lazy.Get(context.Background())
	require.ErrorIs(t, err, errFirst)

	v, err := lazy.Get(context.Background())
	require.NoError(t, err)
	require.Equal(t, 5, v)
	require.Equal(t, 2, attempts)
}
