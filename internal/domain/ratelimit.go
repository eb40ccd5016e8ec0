package domain

import (
	"context"
	"time"
)

// QuotaClass names the kind of work a request spends. Verify units map onto
// fingerprint lookups, register units onto pins plus a chain write.
type QuotaClass string

const (
	QuotaVerify   QuotaClass = "verify"
	QuotaRegister QuotaClass = "register"
	QuotaTokens   QuotaClass = "tokens"
)

type Quota struct {
	Units  int
	Window time.Duration
}

func (q Quota) Enabled() bool {
	return q.Units > 0
}

type QuotaDecision struct {
	Class     QuotaClass
	Allowed   bool
	Units     int
	Remaining int
	ResetAt   time.Time
}

// QuotaLimiter spends cost units of a caller's quota. A denied request
// spends nothing.
type QuotaLimiter interface {
	Spend(ctx context.Context, caller string, class QuotaClass, cost int, quota Quota) (QuotaDecision, error)
}
