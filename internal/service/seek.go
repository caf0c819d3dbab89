package service

import (
	"sync"
	"time"
)

// seekPulse holds one-shot seek targets per video. A target is visible
// until the debounce elapses; a newer request replaces both the value and
// its clear timer.
type seekPulse struct {
	mu       sync.Mutex
	debounce time.Duration
	pending  map[string]*pendingSeek
}

type pendingSeek struct {
	seconds float64
	timer   *time.Timer
}

func newSeekPulse(debounce time.Duration) *seekPulse {
	return &seekPulse{
		debounce: debounce,
		pending:  make(map[string]*pendingSeek),
	}
}

func (p *seekPulse) request(key string, seconds float64) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if prev, ok := p.pending[key]; ok {
		prev.timer.Stop()
	}

	entry := &pendingSeek{seconds: seconds}
	entry.timer = time.AfterFunc(p.debounce, func() {
		p.mu.Lock()
		defer p.mu.Unlock()
		// A stopped timer can still fire if it raced with Stop.
		if p.pending[key] == entry {
			delete(p.pending, key)
		}
	})
	p.pending[key] = entry
}

func (p *seekPulse) get(key string) (float64, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()

	entry, ok := p.pending[key]
	if !ok {
		return 0, false
	}
	return entry.seconds, true
}

func (p *seekPulse) stop() {
	p.mu.Lock()
	defer p.mu.Unlock()

	for key, entry := range p.pending {
		entry.timer.Stop()
		delete(p.pending, key)
	}
}
