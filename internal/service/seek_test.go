package service

import (
	"context"
	"errors"
	"math"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTaggingService_SeekPulse(t *testing.T) {
	svc, _, _ := newTestService(t)

	require.NoError(t, svc.RequestSeek(testKey, 42.5))

	got, ok := svc.PendingSeek(testKey)
	require.True(t, ok)
	assert.Equal(t, 42.5, got)

	assert.Eventually(t, func() bool {
		_, ok := svc.PendingSeek(testKey)
		return !ok
	}, time.Second, 5*time.Millisecond)
}

func TestTaggingService_SeekNewerRequestWins(t *testing.T) {
	svc, _, _ := newTestService(t)

	require.NoError(t, svc.RequestSeek(testKey, 1))
	require.NoError(t, svc.RequestSeek(testKey, 2))

	got, ok := svc.PendingSeek(testKey)
	require.True(t, ok)
	assert.Equal(t, 2.0, got)
}

func TestTaggingService_SeekValidation(t *testing.T) {
	svc, _, _ := newTestService(t)

	tests := []struct {
		name    string
		key     string
		seconds float64
	}{
		{"no video", "", 1},
		{"negative", testKey, -1},
		{"NaN", testKey, math.NaN()},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := svc.RequestSeek(tt.key, tt.seconds)
			var vErr *ValidationError
			if !errors.As(err, &vErr) {
				t.Errorf("RequestSeek() error = %v, want ValidationError", err)
			}
		})
	}

	_, ok := svc.PendingSeek(testKey)
	assert.False(t, ok)
}

func TestSeekPulse_ReplacedTimerDoesNotClearNewValue(t *testing.T) {
	p := newSeekPulse(30 * time.Millisecond)
	defer p.stop()

	p.request(testKey, 1)
	time.Sleep(20 * time.Millisecond)
	p.request(testKey, 2)
	time.Sleep(15 * time.Millisecond)

	// The first timer would have fired by now; the second has not.
	got, ok := p.get(testKey)
	require.True(t, ok)
	assert.Equal(t, 2.0, got)
}

func TestSeekPulse_Stop(t *testing.T) {
	p := newSeekPulse(time.Hour)
	p.request("a", 1)
	p.request("b", 2)

	p.stop()

	_, ok := p.get("a")
	assert.False(t, ok)
}

func TestKeyLock_SerializesSameKey(t *testing.T) {
	locks := newKeyLock()

	var (
		mu      sync.Mutex
		active  int
		maxSeen int
		wg      sync.WaitGroup
	)
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			unlock := locks.Lock("k")
			defer unlock()

			mu.Lock()
			active++
			if active > maxSeen {
				maxSeen = active
			}
			mu.Unlock()

			time.Sleep(time.Millisecond)

			mu.Lock()
			active--
			mu.Unlock()
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, maxSeen)
	assert.Zero(t, locks.size())
}

func TestKeyLock_IndependentKeys(t *testing.T) {
	locks := newKeyLock()

	unlockA := locks.Lock("a")
	defer unlockA()

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	done := make(chan struct{})
	go func() {
		unlock := locks.Lock("b")
		unlock()
		close(done)
	}()

	select {
	case <-done:
	case <-ctx.Done():
		t.Fatal("lock on b blocked behind a")
	}
}
