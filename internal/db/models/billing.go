package models

import (
	"gorm.io/gorm"
)

// OrgBilling is the credit account of an organization. One row per org.
// The balance is only ever mutated inside the locked deduction transaction;
// absence of a row means metering is not provisioned and callers fail open.
type OrgBilling struct {
	gorm.Model
	OrgID uint `json:"org_id" gorm:"uniqueIndex;not null"`

	CreditBalance         float64 `json:"credit_balance"`
	TotalCreditsPurchased float64 `json:"total_credits_purchased"`
	TotalCreditsUsed      float64 `json:"total_credits_used"`
	TotalEnrichments      int64   `json:"total_enrichments"`

	IsBYOK       bool `json:"is_byok" gorm:"column:is_byok;default:false"`
	IsEnterprise bool `json:"is_enterprise" gorm:"default:false"`
}

// TableName keeps the original table name.
func (OrgBilling) TableName() string {
	return "org_billing"
}

// CreditTransaction is an append-only journal row written for every
// successful deduction. BalanceAfter mirrors the billing row's balance
// immediately after the write.
type CreditTransaction struct {
	gorm.Model
	OrgID         uint    `json:"org_id" gorm:"not null;index"`
	Type          string  `json:"type" gorm:"not null"`
	Amount        float64 `json:"amount"`
	BalanceAfter  float64 `json:"balance_after"`
	Description   string  `json:"description,omitempty"`
	JobID         uint    `json:"job_id" gorm:"index"`
	ContributorID uint    `json:"contributor_id" gorm:"index"`
}

// UsageEvent records one billable action tied to the job and contributor
// that caused it.
type UsageEvent struct {
	gorm.Model
	OrgID         uint    `json:"org_id" gorm:"not null;index"`
	EventType     string  `json:"event_type" gorm:"not null"`
	Cost          float64 `json:"cost"`
	JobID         uint    `json:"job_id" gorm:"index"`
	ContributorID uint    `json:"contributor_id" gorm:"index"`
	IsBYOK        bool    `json:"is_byok" gorm:"column:is_byok;default:false"`
}

// ClayPushLog records one webhook delivery attempt for one contributor.
// Success rows double as the export-deduplication set: a contributor with a
// success row for a project is never re-pushed by auto-export.
type ClayPushLog struct {
	gorm.Model
	OrgID          uint   `json:"org_id" gorm:"index"`
	JobID          uint   `json:"job_id" gorm:"not null;index"`
	ContributorID  uint   `json:"contributor_id" gorm:"not null;index"`
	ProjectID      uint   `json:"project_id" gorm:"not null;index"`
	Status         string `json:"status" gorm:"not null"`
	ErrorMessage   string `json:"error_message,omitempty" gorm:"type:text"`
	ResponseStatus int    `json:"response_status"`
}

// Push log status constants
const (
	// PushStatusSuccess marks a delivered webhook attempt
	PushStatusSuccess = "success"
	// PushStatusFailed marks a failed webhook attempt
	PushStatusFailed = "failed"
)
