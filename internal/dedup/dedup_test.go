package dedup

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeIndex is an atomic in-memory SeenIndex standing in for Redis/Postgres.
type fakeIndex struct {
	mu      sync.Mutex
	urls    map[string]bool
	claimFn func(url string) error
}

func newFakeIndex() *fakeIndex {
	return &fakeIndex{urls: map[string]bool{}}
}

func (f *fakeIndex) Claim(_ context.Context, url string) (bool, error) {
	if f.claimFn != nil {
		if err := f.claimFn(url); err != nil {
			return false, err
		}
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.urls[url] {
		return false, nil
	}
	f.urls[url] = true
	return true, nil
}

func (f *fakeIndex) Exists(_ context.Context, url string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.urls[url], nil
}

func (f *fakeIndex) Release(_ context.Context, url string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.urls, url)
	return nil
}

const articleURL = "https://techcrunch.com/2024/05/01/acme-50m-arr/"

func TestClaim_ConcurrentSingleWinner(t *testing.T) {
	for _, tc := range []struct {
		name string
		d    *Deduplicator
	}{
		{"memory", New(nil, nil)},
		{"delegated", New(newFakeIndex(), nil)},
	} {
		t.Run(tc.name, func(t *testing.T) {
			var (
				wg      sync.WaitGroup
				winners atomic.Int32
			)
			for i := 0; i < 64; i++ {
				wg.Add(1)
				go func() {
					defer wg.Done()
					ok, err := tc.d.Claim(context.Background(), articleURL)
					assert.NoError(t, err)
					if ok {
						winners.Add(1)
					}
				}()
			}
			wg.Wait()
			assert.Equal(t, int32(1), winners.Load())
		})
	}
}

func TestClaim_PersistentIndexSurvivesNewProcess(t *testing.T) {
	idx := newFakeIndex()
	ctx := context.Background()

	first := New(idx, nil)
	ok, err := first.Claim(ctx, articleURL)
	require.NoError(t, err)
	require.True(t, ok)

	// A fresh Deduplicator has an empty memory index but shares the store.
	second := New(idx, nil)
	ok, err = second.Claim(ctx, articleURL)
	require.NoError(t, err)
	assert.False(t, ok)

	exists, err := second.Exists(ctx, articleURL)
	require.NoError(t, err)
	assert.True(t, exists)
}

func TestClaim_IndexErrorRollsBack(t *testing.T) {
	idx := newFakeIndex()
	boom := errors.New("redis down")
	idx.claimFn = func(string) error { return boom }

	d := New(idx, nil)
	ok, err := d.Claim(context.Background(), articleURL)
	require.ErrorIs(t, err, boom)
	assert.False(t, ok)

	// The failed claim must not leave the URL marked in memory.
	idx.claimFn = nil
	ok, err = d.Claim(context.Background(), articleURL)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestRelease(t *testing.T) {
	ctx := context.Background()
	idx := newFakeIndex()
	d := New(idx, nil)

	ok, _ := d.Claim(ctx, articleURL)
	require.True(t, ok)
	require.NoError(t, d.Release(ctx, articleURL))

	exists, err := d.Exists(ctx, articleURL)
	require.NoError(t, err)
	assert.False(t, exists)

	ok, _ = d.Claim(ctx, articleURL)
	assert.True(t, ok)
}

func TestExactKeyOnly(t *testing.T) {
	ctx := context.Background()
	d := New(nil, nil)
	require.NoError(t, d.Record(ctx, articleURL))

	exists, _ := d.Exists(ctx, articleURL)
	assert.True(t, exists)

	exists, _ = d.Exists(ctx, articleURL+"?utm_source=x")
	assert.False(t, exists, "no normalization beyond the canonical URL")
}
