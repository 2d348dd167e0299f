package services

import (
	"fmt"
	"sync"
	"time"

	"github.com/betslib/feedsync/internal/config"
	"github.com/betslib/feedsync/internal/logger"
	"github.com/betslib/feedsync/internal/types"
)

// QuotaGuard budgets outbound calls per provider against a daily limit that
// resets at the UTC date rollover. Ordinary reservations stop once the
// remaining budget would drop to the safety reserve, so priority consumers
// retain headroom. Safe for concurrent use by multiple workers.
type QuotaGuard struct {
	mu       sync.Mutex
	policies map[string]config.QuotaConfig
	day      string
	used     map[string]int
	subUsed  map[string]int
	now      func() time.Time
}

// NewQuotaGuard creates a quota guard with the given per-provider policies
func NewQuotaGuard(policies map[string]config.QuotaConfig) *QuotaGuard {
	return &QuotaGuard{
		policies: policies,
		used:     make(map[string]int),
		subUsed:  make(map[string]int),
		now:      time.Now,
	}
}

// TryReserve attempts to reserve cost calls from the provider's daily budget.
// Returns false once the remaining budget would fall to or below the safety
// reserve. Providers without a policy are unlimited.
func (g *QuotaGuard) TryReserve(provider string, cost int) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.rollover()

	policy, ok := g.policies[provider]
	if !ok {
		return true
	}
	if g.used[provider]+cost > policy.OperationalCap-policy.SafetyReserve {
		logger.WarnWithFields("Quota reservation denied", map[string]interface{}{
			"provider": provider,
			"used":     g.used[provider],
			"cost":     cost,
		})
		return false
	}
	g.used[provider] += cost
	return true
}

// Reserve is TryReserve for callers that propagate the denial as an error
func (g *QuotaGuard) Reserve(provider string, cost int) error {
	if !g.TryReserve(provider, cost) {
		return fmt.Errorf("provider %q: %w", provider, types.ErrQuotaExhausted)
	}
	return nil
}

// TryReservePriority reserves from the budget including the safety reserve.
// Priority consumers are still bounded by the operational cap.
func (g *QuotaGuard) TryReservePriority(provider string, cost int) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.rollover()

	policy, ok := g.policies[provider]
	if !ok {
		return true
	}
	if g.used[provider]+cost > policy.OperationalCap {
		return false
	}
	g.used[provider] += cost
	return true
}

// TryReserveSubFeature reserves against both the provider pool and the
// sub-feature carve-out. The carve-out is a nested counter: it can never
// exceed its own cap even when the parent pool has room.
func (g *QuotaGuard) TryReserveSubFeature(provider, subFeature string, cost int) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.rollover()

	policy, ok := g.policies[provider]
	if !ok {
		return true
	}
	subKey := provider + "/" + subFeature
	if policy.SubFeatureDailyCap > 0 && g.subUsed[subKey]+cost > policy.SubFeatureDailyCap {
		return false
	}
	if g.used[provider]+cost > policy.OperationalCap-policy.SafetyReserve {
		return false
	}
	g.used[provider] += cost
	g.subUsed[subKey] += cost
	return true
}

// Remaining returns the provider's remaining ordinary budget for the day
func (g *QuotaGuard) Remaining(provider string) int {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.rollover()

	policy, ok := g.policies[provider]
	if !ok {
		return 0
	}
	remaining := policy.OperationalCap - policy.SafetyReserve - g.used[provider]
	if remaining < 0 {
		return 0
	}
	return remaining
}

// rollover resets the counters when the UTC date changes. Callers must hold the mutex.
func (g *QuotaGuard) rollover() {
	day := g.now().UTC().Format("2006-01-02")
	if day != g.day {
		g.day = day
		g.used = make(map[string]int)
		g.subUsed = make(map[string]int)
	}
}
