package schema

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/jul1angr1s/AI-Bug-Bountry-App-sub003/internal/domain"
)

// PaymentDiscrepancy records one detected divergence between the on-chain
// payout log and the payments ledger. At most one unresolved row may exist
// per (payment_id, validation_id) pair; the engine checks before creating.
type PaymentDiscrepancy struct {
	// ID is a UUID assigned at creation
	ID string `gorm:"column:id;primaryKey;type:uuid"`
	// PaymentID is nil for MISSING_PAYMENT findings (no ledger row exists)
	PaymentID *string `gorm:"column:payment_id;type:uuid;index"`
	// ValidationID is the settlement key the finding concerns
	ValidationID string `gorm:"column:validation_id;not null;type:text;index"`
	// TxHash is the on-chain transaction hash, when one was observed
	TxHash string `gorm:"column:tx_hash;type:text"`
	// Amount is the chain-derived amount in human units
	Amount decimal.Decimal `gorm:"column:amount;type:numeric(20,6)"`
	// Status is drawn from the closed taxonomy; RESOLVED is terminal
	Status       domain.DiscrepancyStatus `gorm:"column:status;not null;type:text;index"`
	DiscoveredAt time.Time                `gorm:"column:discovered_at;not null;index"`
	ResolvedAt   *time.Time               `gorm:"column:resolved_at"`
	Notes        *string                  `gorm:"column:notes;type:text"`
	CreatedAt    time.Time                `gorm:"autoCreateTime"`
	UpdatedAt    time.Time                `gorm:"autoUpdateTime"`
}

func (PaymentDiscrepancy) TableName() string {
	return "payment_discrepancies"
}
