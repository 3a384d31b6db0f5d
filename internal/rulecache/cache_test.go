package rulecache

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tasnim.dev/vpc-topology/internal/aws/vpc"
)

type countingRecorder struct {
	mu     sync.Mutex
	counts map[string]int
}

func (r *countingRecorder) IncRuleCacheLookup(result string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.counts == nil {
		r.counts = map[string]int{}
	}
	r.counts[result]++
}

func rulesFor(groupID string) []vpc.SecurityGroupRule {
	return []vpc.SecurityGroupRule{{Direction: "inbound", Protocol: "TCP", PortRange: "443", Source: groupID}}
}

func TestCache_MemoizesPerGroup(t *testing.T) {
	var calls atomic.Int32
	rec := &countingRecorder{}
	c := New(FetcherFunc(func(ctx context.Context, groupID string) ([]vpc.SecurityGroupRule, error) {
		calls.Add(1)
		return rulesFor(groupID), nil
	}), rec)

	for i := 0; i < 3; i++ {
		rules, err := c.Get(context.Background(), "sg-1")
		require.NoError(t, err)
		assert.Equal(t, rulesFor("sg-1"), rules)
	}
	_, err := c.Get(context.Background(), "sg-2")
	require.NoError(t, err)

	assert.Equal(t, int32(2), calls.Load())
	assert.Equal(t, 2, c.Len())
	assert.Equal(t, map[string]int{"miss": 2, "hit": 2}, rec.counts)
}

func TestCache_ConcurrentLookupsShareOneFetch(t *testing.T) {
	var calls atomic.Int32
	started := make(chan struct{})
	release := make(chan struct{})
	c := New(FetcherFunc(func(ctx context.Context, groupID string) ([]vpc.SecurityGroupRule, error) {
		if calls.Add(1) == 1 {
			close(started)
		}
		<-release
		return rulesFor(groupID), nil
	}), nil)

	const callers = 20
	var wg sync.WaitGroup
	results := make([][]vpc.SecurityGroupRule, callers)
	errs := make([]error, callers)
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i], errs[i] = c.Get(context.Background(), "sg-web")
		}(i)
	}

	<-started
	close(release)
	wg.Wait()

	assert.Equal(t, int32(1), calls.Load())
	for i := 0; i < callers; i++ {
		require.NoError(t, errs[i])
		assert.Equal(t, rulesFor("sg-web"), results[i])
	}
}

func TestCache_ErrorsAreNotCached(t *testing.T) {
	boom := errors.New("throttled")
	var calls atomic.Int32
	rec := &countingRecorder{}
	c := New(FetcherFunc(func(ctx context.Context, groupID string) ([]vpc.SecurityGroupRule, error) {
		if calls.Add(1) == 1 {
			return nil, boom
		}
		return rulesFor(groupID), nil
	}), rec)

	_, err := c.Get(context.Background(), "sg-1")
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 0, c.Len())

	rules, err := c.Get(context.Background(), "sg-1")
	require.NoError(t, err)
	assert.Len(t, rules, 1)
	assert.Equal(t, int32(2), calls.Load())
	assert.Equal(t, map[string]int{"error": 1, "miss": 1}, rec.counts)
}

func TestCache_Invalidate(t *testing.T) {
	var calls atomic.Int32
	c := New(FetcherFunc(func(ctx context.Context, groupID string) ([]vpc.SecurityGroupRule, error) {
		calls.Add(1)
		return nil, nil
	}), nil)

	rules, err := c.Get(context.Background(), "sg-empty")
	require.NoError(t, err)
	assert.NotNil(t, rules, "an empty rule set is cached as empty, not nil")

	_, _ = c.Get(context.Background(), "sg-empty")
	assert.Equal(t, int32(1), calls.Load())

	c.Invalidate()
	assert.Equal(t, 0, c.Len())

	_, _ = c.Get(context.Background(), "sg-empty")
	assert.Equal(t, int32(2), calls.Load())
}

func TestCache_InvalidateDuringFetchDropsResult(t *testing.T) {
	release := make(chan struct{})
	started := make(chan struct{})
	c := New(FetcherFunc(func(ctx context.Context, groupID string) ([]vpc.SecurityGroupRule, error) {
		close(started)
		<-release
		return rulesFor(groupID), nil
	}), nil)

	done := make(chan struct{})
	go func() {
		defer close(done)
		rules, err := c.Get(context.Background(), "sg-1")
		assert.NoError(t, err)
		assert.Len(t, rules, 1)
	}()

	<-started
	c.Invalidate()
	close(release)
	<-done

	assert.Equal(t, 0, c.Len())
}

func TestCache_CancelledCallerDoesNotCancelSharedFetch(t *testing.T) {
	type requestKey struct{}
	var calls atomic.Int32
	started := make(chan struct{})
	release := make(chan struct{})
	fetched := make(chan error, 1)
	c := New(FetcherFunc(func(ctx context.Context, groupID string) ([]vpc.SecurityGroupRule, error) {
		if calls.Add(1) == 1 {
			close(started)
			<-release
			fetched <- ctx.Err()
			if ctx.Value(requestKey{}) != "req-1" {
				return nil, errors.New("request values lost")
			}
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}
		return rulesFor(groupID), nil
	}), nil)

	ctx, cancel := context.WithCancel(context.WithValue(context.Background(), requestKey{}, "req-1"))
	first := make(chan error, 1)
	go func() {
		_, err := c.Get(ctx, "sg-1")
		first <- err
	}()

	<-started
	cancel()
	assert.ErrorIs(t, <-first, context.Canceled, "the caller stops waiting")

	close(release)
	assert.NoError(t, <-fetched, "the fetch outlives the caller that started it")

	rules, err := c.Get(context.Background(), "sg-1")
	require.NoError(t, err)
	assert.Equal(t, rulesFor("sg-1"), rules)
}
