package schema

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/jul1angr1s/AI-Bug-Bountry-App-sub003/internal/domain"
)

// Payment represents the payments table, owned by the payout CRUD services.
// The reconciliation engine only reads COMPLETED rows in its audit window
// and conditionally fills tx_hash / reconciled / reconciled_at.
type Payment struct {
	// ID is the payment primary key (UUID assigned by the payment service)
	ID string `gorm:"column:id;primaryKey;type:uuid"`
	// OnChainValidationID is the hex-encoded bytes32 validation ID shared
	// with the BountyPaid event; nil until the payout is submitted on-chain
	OnChainValidationID *string `gorm:"column:on_chain_validation_id;type:text;index"`
	// Amount is the payout amount in human units
	Amount decimal.Decimal `gorm:"column:amount;not null;type:numeric(20,6)"`
	// TxHash is the settlement transaction hash; nil until observed
	TxHash *string `gorm:"column:tx_hash;type:text"`
	// Status is the payment lifecycle status (PENDING, COMPLETED, FAILED)
	Status domain.PaymentStatus `gorm:"column:status;not null;type:text;index"`
	// ResearcherAddress is the payout recipient
	ResearcherAddress string     `gorm:"column:researcher_address;not null;type:text"`
	Reconciled        bool       `gorm:"column:reconciled;not null;default:false"`
	ReconciledAt      *time.Time `gorm:"column:reconciled_at"`
	PaidAt            *time.Time `gorm:"column:paid_at;index"`
	CreatedAt         time.Time  `gorm:"autoCreateTime"`
	UpdatedAt         time.Time  `gorm:"autoUpdateTime"`
}

func (Payment) TableName() string {
	return "payments"
}
