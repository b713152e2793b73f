package direct_test

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"

	"github.com/randalmurphal/eventbus/pkg/eventbus/direct"
	buserr "github.com/randalmurphal/eventbus/pkg/eventbus/errors"
	"github.com/randalmurphal/eventbus/pkg/eventbus/observer"
)

type call struct {
	id   int
	data any
	key  string
}

func recorderCallback(calls *[]call, id int) observer.Callback {
	return func(data any, key string) (any, error) {
		*calls = append(*calls, call{id: id, data: data, key: key})
		return nil, nil
	}
}

func TestSendInvokesEachObserverOnceInOrder(t *testing.T) {
	for _, n := range []int{0, 1, 2, 5} {
		t.Run(fmt.Sprintf("n=%d", n), func(t *testing.T) {
			r := direct.New()
			var calls []call
			for i := 0; i < n; i++ {
				r.On("k", recorderCallback(&calls, i))
			}

			require.NoError(t, r.Send("k", "payload"))

			require.Len(t, calls, n)
			for i, c := range calls {
				assert.Equal(t, i, c.id)
				assert.Equal(t, "payload", c.data)
				assert.Equal(t, "k", c.key)
			}
		})
	}
}

func TestRemoverIsIdempotent(t *testing.T) {
	r := direct.New()
	remove := r.On("k", func(any, string) (any, error) { return nil, nil })

	assert.True(t, remove())
	assert.False(t, remove())
	assert.False(t, remove())
	assert.Equal(t, 0, r.Len())
	assert.Empty(t, r.Keys())
}

func TestRemoveOneOfMany(t *testing.T) {
	r := direct.New()
	var calls []call
	r.On("k", recorderCallback(&calls, 1))
	remove := r.On("k", recorderCallback(&calls, 2))
	r.On("k", recorderCallback(&calls, 3))

	require.True(t, remove())
	require.NoError(t, r.Send("k", nil))

	require.Len(t, calls, 2)
	assert.Equal(t, 1, calls[0].id)
	assert.Equal(t, 3, calls[1].id)
}

func TestKeyIsolation(t *testing.T) {
	r := direct.New()
	var aCalls, bCalls []call
	r.On("a", recorderCallback(&aCalls, 1))
	r.On("b", recorderCallback(&bCalls, 2))

	require.NoError(t, r.Send("b", "x"))
	_, err := r.Ask(context.Background(), "b", "y")
	require.NoError(t, err)

	assert.Empty(t, aCalls)
	assert.Len(t, bCalls, 2)
}

func TestSendWithoutObservers(t *testing.T) {
	r := direct.New()
	assert.NoError(t, r.Send("nobody", 1))
}

func TestSendPropagatesCallbackError(t *testing.T) {
	r := direct.New()
	boom := errors.New("boom")
	var calls []call

	r.On("k", func(any, string) (any, error) { return nil, boom })
	r.On("k", recorderCallback(&calls, 2))

	err := r.Send("k", nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, boom)

	var de *buserr.DispatchError
	require.ErrorAs(t, err, &de)
	assert.Equal(t, "send", de.Op)
	assert.Equal(t, "k", de.Key)
	assert.Empty(t, calls, "delivery stops at the failing observer")
}

func TestAskAggregatesTruthyResults(t *testing.T) {
	r := direct.New()
	r.On("k", func(data any, _ string) (any, error) { return data.(int) + 1, nil })
	r.On("k", func(any, string) (any, error) { return nil, nil })
	r.On("k", func(data any, _ string) (any, error) { return data.(int) + 2, nil })
	r.On("k", func(any, string) (any, error) { return 0, nil })
	r.On("k", func(any, string) (any, error) { return "", nil })

	results, err := r.Ask(context.Background(), "k", 1)
	require.NoError(t, err)
	assert.Equal(t, []any{2, 3}, results)
}

func TestAskWithoutObservers(t *testing.T) {
	r := direct.New()
	results, err := r.Ask(context.Background(), "nobody", nil)
	require.NoError(t, err)
	assert.NotNil(t, results)
	assert.Empty(t, results)
}

func TestAskPartialResultsOnError(t *testing.T) {
	r := direct.New()
	boom := errors.New("boom")
	var laterCalled bool

	r.On("k", func(any, string) (any, error) { return "first", nil })
	r.On("k", func(any, string) (any, error) { return nil, boom })
	r.On("k", func(any, string) (any, error) {
		laterCalled = true
		return "third", nil
	})

	results, err := r.Ask(context.Background(), "k", nil)
	require.NoError(t, err)
	assert.Equal(t, []any{"first"}, results)
	assert.False(t, laterCalled)
}

func TestAskErrorWithoutResults(t *testing.T) {
	r := direct.New()
	boom := errors.New("boom")
	r.On("k", func(any, string) (any, error) { return nil, boom })

	results, err := r.Ask(context.Background(), "k", nil)
	assert.Nil(t, results)
	require.Error(t, err)
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, buserr.CategoryDispatch, buserr.Categorize(err))
}

func TestAskCancelledContext(t *testing.T) {
	r := direct.New()
	called := false
	r.On("k", func(any, string) (any, error) {
		called = true
		return 1, nil
	})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := r.Ask(ctx, "k", nil)
	assert.ErrorIs(t, err, context.Canceled)
	assert.False(t, called)
}

func TestBroadcastReachesEveryObserverOnce(t *testing.T) {
	r := direct.New()
	var calls []call
	r.On("b", recorderCallback(&calls, 1))
	r.On("a", recorderCallback(&calls, 2))
	r.On("b", recorderCallback(&calls, 3))

	require.NoError(t, r.Broadcast("x"))

	require.Len(t, calls, 3)
	// Keys in first-registration order, observers in insertion order.
	assert.Equal(t, []int{1, 3, 2}, []int{calls[0].id, calls[1].id, calls[2].id})
	for _, c := range calls {
		assert.Equal(t, "x", c.data)
		assert.Empty(t, c.key)
	}
}

func TestBroadcastKeyOrderAfterReRegistration(t *testing.T) {
	r := direct.New()
	removeA := r.On("a", func(any, string) (any, error) { return nil, nil })
	r.On("b", func(any, string) (any, error) { return nil, nil })
	assert.Equal(t, []string{"a", "b"}, r.Keys())

	require.True(t, removeA())
	r.On("a", func(any, string) (any, error) { return nil, nil })
	assert.Equal(t, []string{"b", "a"}, r.Keys())
}

func TestBroadcastPropagatesCallbackError(t *testing.T) {
	r := direct.New()
	boom := errors.New("boom")
	r.On("k", func(any, string) (any, error) { return nil, boom })

	err := r.Broadcast(nil)
	var de *buserr.DispatchError
	require.ErrorAs(t, err, &de)
	assert.Equal(t, "broadcast", de.Op)
	assert.Empty(t, de.Key)
}

func TestClearInvalidatesRemoversAndStopsDelivery(t *testing.T) {
	r := direct.New()
	var calls []call
	removeA := r.On("a", recorderCallback(&calls, 1))
	removeB := r.On("b", recorderCallback(&calls, 2))

	r.Clear()

	assert.False(t, removeA())
	assert.False(t, removeB())
	require.NoError(t, r.Send("a", nil))
	require.NoError(t, r.Broadcast(nil))
	assert.Empty(t, calls)
	assert.Equal(t, 0, r.Len())
}

func TestRemoverAfterClearDoesNotRemoveNewObserver(t *testing.T) {
	r := direct.New()
	remove := r.On("k", func(any, string) (any, error) { return nil, nil })
	r.Clear()

	var calls []call
	r.On("k", recorderCallback(&calls, 1))

	assert.False(t, remove())
	require.NoError(t, r.Send("k", nil))
	assert.Len(t, calls, 1)
}

func TestSelfRemovalDuringSend(t *testing.T) {
	r := direct.New()
	var order []string
	var removeFirst observer.RemoveFunc

	removeFirst = r.On("k", func(any, string) (any, error) {
		order = append(order, "first")
		removeFirst()
		return nil, nil
	})
	r.On("k", func(any, string) (any, error) {
		order = append(order, "second")
		return nil, nil
	})

	require.NoError(t, r.Send("k", nil))
	assert.Equal(t, []string{"first", "second"}, order)

	order = nil
	require.NoError(t, r.Send("k", nil))
	assert.Equal(t, []string{"second"}, order)
}

func TestRemoveOtherDuringBroadcast(t *testing.T) {
	r := direct.New()
	var order []string
	var removeLater observer.RemoveFunc

	r.On("a", func(any, string) (any, error) {
		order = append(order, "a")
		removeLater()
		return nil, nil
	})
	removeLater = r.On("b", func(any, string) (any, error) {
		order = append(order, "b")
		return nil, nil
	})

	// The snapshot taken at dispatch start still includes "b".
	require.NoError(t, r.Broadcast(nil))
	assert.Equal(t, []string{"a", "b"}, order)
	assert.Equal(t, []string{"a"}, r.Keys())
}

func TestRegisterDuringSend(t *testing.T) {
	r := direct.New()
	var added atomic.Int32

	r.On("k", func(any, string) (any, error) {
		r.On("k", func(any, string) (any, error) {
			added.Add(1)
			return nil, nil
		})
		return nil, nil
	})

	require.NoError(t, r.Send("k", nil))
	assert.Equal(t, int32(0), added.Load())
	assert.Equal(t, 2, r.Len())
}

func TestConcurrentUse(t *testing.T) {
	r := direct.New()
	var delivered atomic.Int64

	var g errgroup.Group
	for i := 0; i < 8; i++ {
		key := fmt.Sprintf("k%d", i%2)
		g.Go(func() error {
			for j := 0; j < 100; j++ {
				remove := r.On(key, func(any, string) (any, error) {
					delivered.Add(1)
					return 1, nil
				})
				if err := r.Send(key, j); err != nil {
					return err
				}
				if _, err := r.Ask(context.Background(), key, j); err != nil {
					return err
				}
				if err := r.Broadcast(j); err != nil {
					return err
				}
				if !remove() {
					return errors.New("remover returned false on first call")
				}
			}
			return nil
		})
	}

	require.NoError(t, g.Wait())
	assert.Equal(t, 0, r.Len())
	assert.Positive(t, delivered.Load())
}
