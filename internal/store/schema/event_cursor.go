package schema

import "time"

// EventCursor stores the last processed block number per contract/event
// pair. The contract address is stored lowercased; the block number only
// moves forward.
type EventCursor struct {
	ContractAddress    string    `gorm:"column:contract_address;primaryKey;type:text"`
	EventName          string    `gorm:"column:event_name;primaryKey;type:text"`
	LastProcessedBlock uint64    `gorm:"column:last_processed_block;not null"`
	UpdatedAt          time.Time `gorm:"autoUpdateTime"`
	CreatedAt          time.Time `gorm:"autoCreateTime"`
}

func (EventCursor) TableName() string {
	return "event_cursors"
}
