package ratelimit

import (
	"time"

	"ipshield/internal/config"
	"ipshield/internal/domain"
)

// Quotas is the per-caller allowance for each class of work.
type Quotas map[domain.QuotaClass]domain.Quota

// QuotasFromConfig sizes caller quotas from RATE_LIMIT_REQUESTS. The verify
// quota never exceeds what the upstream pacing can serve in one window, so a
// single caller cannot queue more lookups than YAKOA_RATE_PER_SECOND allows.
func QuotasFromConfig(cfg config.Config) Quotas {
	if cfg.RateLimitRequests <= 0 {
		return Quotas{}
	}
	window := cfg.RateLimitWindow()
	if window <= 0 {
		window = time.Minute
	}
	verify := cfg.RateLimitRequests
	if cfg.YakoaConfigured() && cfg.YakoaRatePerSecond > 0 {
		upstream := cfg.YakoaRatePerSecond * int(window/time.Second)
		if upstream > 0 && upstream < verify {
			verify = upstream
		}
	}
	return Quotas{
		domain.QuotaVerify:   {Units: verify, Window: window},
		domain.QuotaRegister: {Units: cfg.RateLimitRequests, Window: window},
		domain.QuotaTokens:   {Units: cfg.RateLimitRequests, Window: window},
	}
}

func (q Quotas) For(class domain.QuotaClass) domain.Quota {
	return q[class]
}

func quotaKey(caller string, class domain.QuotaClass) string {
	return string(class) + ":" + caller
}
