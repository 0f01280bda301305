package services

import (
	"context"

	"github.com/leadsourcer/leadsourcer/internal/db/repos"
	"github.com/leadsourcer/leadsourcer/internal/logger"
)

// Ledger meters billable enrichments. A metering bug must never become a
// processing outage, so every unexpected error fails open with a warning.
type Ledger struct {
	billing *repos.BillingRepository
	cost    float64
}

// NewLedger creates a new billing ledger instance
func NewLedger(billing *repos.BillingRepository, cost float64) *Ledger {
	return &Ledger{billing: billing, cost: cost}
}

// Deduct attempts to charge one enrichment to the org. It returns whether
// processing may continue and, when a billing row exists, the balance after
// the attempt. orgID zero means the actor has no org and metering is skipped.
func (l *Ledger) Deduct(ctx context.Context, orgID, jobID, contributorID uint) (bool, *float64) {
	if orgID == 0 {
		return true, nil
	}

	result, err := l.billing.Deduct(ctx, orgID, jobID, contributorID, l.cost)
	if err != nil {
		logger.Warnf("Billing deduction failed for org %d job %d, failing open: %v", orgID, jobID, err)
		return true, nil
	}
	return result.Allowed, result.Balance
}
