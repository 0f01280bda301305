package repos

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/leadsourcer/leadsourcer/internal/db/models"
)

// BillingRepository handles the transactional credit deduction protocol
type BillingRepository struct {
	db *gorm.DB
}

// NewBillingRepository creates a new billing repository instance
func NewBillingRepository(db *gorm.DB) *BillingRepository {
	return &BillingRepository{db: db}
}

// DeductionResult reports the outcome of a deduction attempt. Balance is nil
// when no billing row exists for the org.
type DeductionResult struct {
	Allowed bool
	Balance *float64
}

// Deduct runs the metering protocol for one billable enrichment: lock the
// org's billing row, compare the balance against cost, and on success write
// the new balance plus the journal rows in the same transaction. The journal
// inserts are guarded by savepoints so a schema-drift failure there can
// never lose the balance update. Absence of a billing row fails open;
// BYOK and enterprise orgs fail open unconditionally.
func (r *BillingRepository) Deduct(ctx context.Context, orgID, jobID, contributorID uint, cost float64) (DeductionResult, error) {
	var result DeductionResult

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		q := tx.Where("org_id = ?", orgID)
		if tx.Dialector.Name() == "postgres" {
			q = q.Clauses(clause.Locking{Strength: "UPDATE"})
		}

		var billing models.OrgBilling
		err := q.First(&billing).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			// Metering not provisioned for this org; never block processing.
			result = DeductionResult{Allowed: true}
			return nil
		}
		if err != nil {
			return fmt.Errorf("failed to lock billing row: %w", err)
		}

		balance := billing.CreditBalance
		if billing.IsBYOK || billing.IsEnterprise {
			result = DeductionResult{Allowed: true, Balance: &balance}
			return nil
		}

		if balance < cost {
			result = DeductionResult{Allowed: false, Balance: &balance}
			return nil
		}

		newBalance := balance - cost
		if err := tx.Model(&models.OrgBilling{}).
			Where("org_id = ?", orgID).
			Updates(map[string]interface{}{
				"credit_balance":     newBalance,
				"total_credits_used": gorm.Expr("total_credits_used + ?", cost),
				"total_enrichments":  gorm.Expr("total_enrichments + 1"),
			}).Error; err != nil {
			return fmt.Errorf("failed to update balance: %w", err)
		}

		tx.SavePoint("journal")
		if err := tx.Create(&models.CreditTransaction{
			OrgID:         orgID,
			Type:          "deduction",
			Amount:        -cost,
			BalanceAfter:  newBalance,
			Description:   "Lead enrichment credit deduction",
			JobID:         jobID,
			ContributorID: contributorID,
		}).Error; err != nil {
			tx.RollbackTo("journal")
		}

		tx.SavePoint("usage")
		if err := tx.Create(&models.UsageEvent{
			OrgID:         orgID,
			EventType:     "enrichment",
			Cost:          cost,
			JobID:         jobID,
			ContributorID: contributorID,
		}).Error; err != nil {
			tx.RollbackTo("usage")
		}

		result = DeductionResult{Allowed: true, Balance: &newBalance}
		return nil
	})
	if err != nil {
		return DeductionResult{}, err
	}
	return result, nil
}

// GetByOrg returns the billing row for an org, or nil when metering is not
// provisioned
func (r *BillingRepository) GetByOrg(ctx context.Context, orgID uint) (*models.OrgBilling, error) {
	var billing models.OrgBilling
	err := r.db.WithContext(ctx).Where("org_id = ?", orgID).First(&billing).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &billing, nil
}
