package domain

import "time"

// IdempotencyScopeCreateDonation is the scope under which POST /donations
// keys are recorded.
const IdempotencyScopeCreateDonation = "donations.create"

// Idempotency records the donation produced by a previously processed create
// request, keyed by (scope, key). Retries carrying the same Idempotency-Key
// are answered with the original donation instead of a duplicate-receipt
// error.
type Idempotency struct {
	ID         string    `gorm:"type:TEXT NOT NULL;primaryKey"`
	Scope      string    `gorm:"type:TEXT NOT NULL;uniqueIndex:ux_scope_key,priority:1"`
	Key        string    `gorm:"type:TEXT NOT NULL;uniqueIndex:ux_scope_key,priority:2"`
	DonationID string    `gorm:"type:TEXT NOT NULL"`
	Status     int       `gorm:"type:INTEGER NOT NULL"`
	CreatedAt  time.Time `gorm:"not null;autoCreateTime"`
	ExpiresAt  time.Time `gorm:"not null;index"`
}

// TableName implements the GORM tabler interface.
func (Idempotency) TableName() string { return "idempotency" }
