package domain

import (
	"math/big"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// EventName identifies a decoded on-chain event shape. The set is closed:
// logs whose signature does not map to a known EventName are rejected at the
// decode boundary with a DecodeError.
type EventName string

const (
	// EventBountyPaid is emitted by the BountyPayout contract when a
	// validated finding is settled on-chain.
	// BountyPaid(bytes32 indexed validationId, address indexed researcher, uint256 amount)
	EventBountyPaid EventName = "BountyPaid"
)

// SettlementEvent is a decoded BountyPaid log. It is transient: the core
// hands it to downstream handlers and advances the cursor, nothing more.
type SettlementEvent struct {
	Event           EventName       `json:"event"`
	ContractAddress string          `json:"contract_address"`
	ValidationID    string          `json:"validation_id"` // hex-encoded bytes32, the settlement key
	Researcher      string          `json:"researcher"`
	RawAmount       *big.Int        `json:"raw_amount"` // smallest-denomination units
	Amount          decimal.Decimal `json:"amount"`     // scaled by the payout token decimals
	TxHash          string          `json:"tx_hash"`
	BlockNumber     uint64          `json:"block_number"`
	Timestamp       time.Time       `json:"timestamp"`
}

// PaymentStatus is the lifecycle status of a ledger payment row.
type PaymentStatus string

const (
	PaymentStatusPending   PaymentStatus = "PENDING"
	PaymentStatusCompleted PaymentStatus = "COMPLETED"
	PaymentStatusFailed    PaymentStatus = "FAILED"
)

// DiscrepancyStatus classifies a divergence between the on-chain payout log
// and the payment ledger. The set is closed.
type DiscrepancyStatus string

const (
	// DiscrepancyMissingPayment: on-chain payout with no ledger row sharing
	// its validation ID.
	DiscrepancyMissingPayment DiscrepancyStatus = "MISSING_PAYMENT"
	// DiscrepancyUnconfirmedPayment: COMPLETED ledger row with no matching
	// on-chain payout inside the audit window.
	DiscrepancyUnconfirmedPayment DiscrepancyStatus = "UNCONFIRMED_PAYMENT"
	// DiscrepancyAmountMismatch: both sides exist but amounts differ beyond
	// the configured tolerance.
	DiscrepancyAmountMismatch DiscrepancyStatus = "AMOUNT_MISMATCH"
	// DiscrepancyHashMismatch: amounts match but the recorded transaction
	// hash differs from the on-chain one.
	DiscrepancyHashMismatch DiscrepancyStatus = "DISCREPANCY"
	// DiscrepancyResolved is terminal and excluded from all unresolved queries.
	DiscrepancyResolved DiscrepancyStatus = "RESOLVED"
	// DiscrepancyOrphaned is a legacy class kept for consumers; the matching
	// algorithm does not produce it.
	DiscrepancyOrphaned DiscrepancyStatus = "ORPHANED"
)

// IsValidDiscrepancyStatus checks membership in the closed status set.
func IsValidDiscrepancyStatus(s DiscrepancyStatus) bool {
	switch s {
	case DiscrepancyMissingPayment, DiscrepancyUnconfirmedPayment,
		DiscrepancyAmountMismatch, DiscrepancyHashMismatch,
		DiscrepancyResolved, DiscrepancyOrphaned:
		return true
	}
	return false
}

// DiscrepancySort selects the ordering of discrepancy listings.
type DiscrepancySort string

const (
	DiscrepancySortByDiscoveredAt DiscrepancySort = "discovered_at"
	DiscrepancySortByAmount       DiscrepancySort = "amount"
)

// NormalizeAddress lowercases a hex address so addresses compare
// case-insensitively regardless of checksum casing.
func NormalizeAddress(addr string) string {
	return strings.ToLower(strings.TrimSpace(addr))
}

// SameAddress compares two hex addresses ignoring checksum casing.
func SameAddress(a, b string) bool {
	return NormalizeAddress(a) == NormalizeAddress(b)
}
