package file

import (
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/go-gota/gota/dataframe"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func countingLoader(calls *int32, fail *atomic.Bool) LoaderFunc {
	return func(path string) (dataframe.DataFrame, error) {
		atomic.AddInt32(calls, 1)
		if fail != nil && fail.Load() {
			return dataframe.DataFrame{}, ErrDataLoad
		}
		return dataframe.LoadRecords([][]string{{"age"}, {"30"}}), nil
	}
}

func TestCacheMemoizesByPath(t *testing.T) {
	var calls int32
	c := NewCache(countingLoader(&calls, nil), nil)

	first, err := c.Get("data/a.csv")
	require.NoError(t, err)
	second, err := c.Get("./data/../data/a.csv")
	require.NoError(t, err)

	assert.Same(t, first, second)
	assert.Equal(t, int32(1), calls)
	assert.Equal(t, 1, c.Len())
	assert.Equal(t, 1, first.DataFrame().Nrow())
}

func TestCacheInvalidateAndClear(t *testing.T) {
	var calls int32
	c := NewCache(countingLoader(&calls, nil), nil)

	_, err := c.Get("a.csv")
	require.NoError(t, err)
	assert.True(t, c.Invalidate("a.csv"))
	assert.False(t, c.Invalidate("a.csv"))

	_, err = c.Get("a.csv")
	require.NoError(t, err)
	_, err = c.Get("b.csv")
	require.NoError(t, err)
	assert.Equal(t, int32(3), calls)

	assert.Equal(t, 2, c.Clear())
	assert.Equal(t, 0, c.Len())
}

func TestCacheDoesNotKeepFailures(t *testing.T) {
	var calls int32
	var fail atomic.Bool
	fail.Store(true)
	c := NewCache(countingLoader(&calls, &fail), nil)

	_, err := c.Get("a.csv")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrDataLoad))
	assert.Equal(t, 0, c.Len())

	fail.Store(false)
	_, err = c.Get("a.csv")
	require.NoError(t, err)
	assert.Equal(t, int32(2), calls)
}

func TestCacheConcurrentGetLoadsOnce(t *testing.T) {
	var calls int32
	release := make(chan struct{})
	c := NewCache(func(path string) (dataframe.DataFrame, error) {
		atomic.AddInt32(&calls, 1)
		<-release
		return dataframe.LoadRecords([][]string{{"age"}, {"30"}}), nil
	}, nil)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := c.Get("a.csv")
			assert.NoError(t, err)
		}()
	}

	time.Sleep(50 * time.Millisecond)
	close(release)
	wg.Wait()

	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}
