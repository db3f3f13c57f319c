package ratelimit

import (
	"context"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

type memoryEntry struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// MemoryLimiter is a per-process token bucket limiter for single-instance
// deployments without Redis.
type MemoryLimiter struct {
	mu       sync.Mutex
	policies Policies
	entries  map[string]*memoryEntry
	idleTTL  time.Duration
	stop     chan struct{}
	once     sync.Once
}

func NewMemoryLimiter(policies Policies) *MemoryLimiter {
	ml := &MemoryLimiter{
		policies: policies,
		entries:  make(map[string]*memoryEntry),
		idleTTL:  10 * time.Minute,
		stop:     make(chan struct{}),
	}
	go ml.cleanupLoop(3 * time.Minute)
	return ml
}

func (ml *MemoryLimiter) Allow(ctx context.Context, clientKey, policyName string) (bool, error) {
	policy, err := ml.policies.get(policyName)
	if err != nil {
		return false, err
	}

	return ml.limiter(policyName+":"+clientKey, policy).Allow(), nil
}

func (ml *MemoryLimiter) limiter(key string, policy Policy) *rate.Limiter {
	ml.mu.Lock()
	defer ml.mu.Unlock()

	if e, ok := ml.entries[key]; ok {
		e.lastSeen = time.Now()
		return e.limiter
	}

	every := rate.Every(policy.Window / time.Duration(policy.Limit))
	l := rate.NewLimiter(every, policy.Limit)
	ml.entries[key] = &memoryEntry{limiter: l, lastSeen: time.Now()}
	return l
}

func (ml *MemoryLimiter) cleanupLoop(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ml.stop:
			return
		case <-ticker.C:
			ml.evictIdle(time.Now())
		}
	}
}

func (ml *MemoryLimiter) evictIdle(now time.Time) {
	ml.mu.Lock()
	defer ml.mu.Unlock()

	for key, e := range ml.entries {
		if now.Sub(e.lastSeen) > ml.idleTTL {
			delete(ml.entries, key)
		}
	}
}

func (ml *MemoryLimiter) Close() error {
	ml.once.Do(func() { close(ml.stop) })
	return nil
}
