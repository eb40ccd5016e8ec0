package ratelimit

import (
	"context"
	"errors"
	"sync"
	"time"

	"ipshield/internal/domain"
)

var ErrCapacityExceeded = errors.New("quota table is full")

type MemoryConfig struct {
	Now     func() time.Time
	MaxKeys int
}

// MemoryLimiter keeps fixed-window quota counters for one process.
type MemoryLimiter struct {
	mu      sync.Mutex
	now     func() time.Time
	spent   map[string]*spentUnits
	maxKeys int
}

type spentUnits struct {
	units     int
	windowEnd time.Time
}

func NewMemoryLimiter(cfg MemoryConfig) *MemoryLimiter {
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	if cfg.MaxKeys <= 0 {
		cfg.MaxKeys = 10000
	}
	return &MemoryLimiter{
		now:     cfg.Now,
		spent:   make(map[string]*spentUnits),
		maxKeys: cfg.MaxKeys,
	}
}

func (m *MemoryLimiter) Spend(_ context.Context, caller string, class domain.QuotaClass, cost int, quota domain.Quota) (domain.QuotaDecision, error) {
	if !quota.Enabled() {
		return domain.QuotaDecision{Class: class, Allowed: true}, nil
	}
	if cost < 1 {
		cost = 1
	}
	now := m.now()
	key := quotaKey(caller, class)

	m.mu.Lock()
	defer m.mu.Unlock()

	entry, ok := m.spent[key]
	if ok && !now.Before(entry.windowEnd) {
		delete(m.spent, key)
		ok = false
	}
	if !ok {
		if len(m.spent) >= m.maxKeys {
			m.dropExpired(now)
		}
		if len(m.spent) >= m.maxKeys {
			return domain.QuotaDecision{}, ErrCapacityExceeded
		}
		entry = &spentUnits{windowEnd: now.Add(quota.Window)}
		m.spent[key] = entry
	}

	decision := domain.QuotaDecision{Class: class, Units: quota.Units, ResetAt: entry.windowEnd}
	if entry.units+cost > quota.Units {
		decision.Remaining = quota.Units - entry.units
		return decision, nil
	}
	entry.units += cost
	decision.Allowed = true
	decision.Remaining = quota.Units - entry.units
	return decision, nil
}

func (m *MemoryLimiter) dropExpired(now time.Time) {
	for key, entry := range m.spent {
		if !now.Before(entry.windowEnd) {
			delete(m.spent, key)
		}
	}
}
