// Package domain defines the persistence models and value types for temple
// donations. Donation is mapped with GORM; DonorSummary and DashboardStats are
// derived views computed on read and never stored.
package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Community is the closed set of kulam affiliations a donor may declare.
type Community string

const (
	CommunityAny      Community = "any"
	CommunityPayiran  Community = "payiran"
	CommunitySemban   Community = "semban"
	CommunityOthaalan Community = "othaalan"
	CommunityAavan    Community = "aavan"
	CommunityAadai    Community = "aadai"
	CommunityVizhiyan Community = "vizhiyan"
	CommunityOdhaalan Community = "odhaalan"
	CommunityChozhan  Community = "chozhan"
	CommunityPandiyan Community = "pandiyan"
)

// Communities lists every valid Community in display order.
var Communities = []Community{
	CommunityAny, CommunityPayiran, CommunitySemban, CommunityOthaalan, CommunityAavan,
	CommunityAadai, CommunityVizhiyan, CommunityOdhaalan, CommunityChozhan, CommunityPandiyan,
}

// Valid reports whether c is a member of the closed community set.
func (c Community) Valid() bool {
	for _, v := range Communities {
		if c == v {
			return true
		}
	}
	return false
}

// PaymentMode is how a donation was paid.
type PaymentMode string

const (
	PaymentCash         PaymentMode = "cash"
	PaymentCard         PaymentMode = "card"
	PaymentUPI          PaymentMode = "upi"
	PaymentBankTransfer PaymentMode = "bankTransfer"
	PaymentCheque       PaymentMode = "cheque"
)

// PaymentModes lists every valid PaymentMode. Dashboard distributions are
// reported in this order.
var PaymentModes = []PaymentMode{
	PaymentCash, PaymentCard, PaymentUPI, PaymentBankTransfer, PaymentCheque,
}

// Valid reports whether m is a known payment mode.
func (m PaymentMode) Valid() bool {
	for _, v := range PaymentModes {
		if m == v {
			return true
		}
	}
	return false
}

// Source identifies which intake path created a donation. It is used for
// metrics and logs only and is not persisted.
type Source string

const (
	SourceForm    Source = "form"
	SourceImport  Source = "import"
	SourceWebhook Source = "webhook"
)

// Donation is a single recorded gift.
//
// Fields:
//   - ID: UUID primary key (char(36)), assigned at creation and never reused.
//   - ReceiptNo: human-assigned receipt number; unique across all rows.
//   - Phone: exactly ten digits; groups donations into donors.
//   - Amount: positive amount in rupees, at most 999999999999.99 to fit
//     DECIMAL(14,2).
//   - DonationDate: optional donor-specified date, distinct from CreatedAt.
//   - CreatedAt: set once on insert (UTC); drives ordering and date filters.
//
// Rows are hard-deleted; there is no DeletedAt column.
type Donation struct {
	ID           string          `json:"id"            gorm:"type:char(36);primaryKey"`
	ReceiptNo    string          `json:"receipt_no"    gorm:"type:varchar(64);not null;uniqueIndex:ux_donations_receipt_no"`
	Name         string          `json:"name"          gorm:"type:varchar(255);not null"`
	Community    Community       `json:"community"     gorm:"type:varchar(32);not null;default:'any';index"`
	Location     string          `json:"location"      gorm:"type:varchar(255);not null"`
	Address      string          `json:"address"       gorm:"type:text"`
	Phone        string          `json:"phone"         gorm:"type:varchar(10);not null;index:idx_donations_phone"`
	Amount       decimal.Decimal `json:"amount"        gorm:"type:DECIMAL(14,2);not null" swaggertype:"number"`
	PaymentMode  PaymentMode     `json:"payment_mode"  gorm:"type:varchar(32);not null;index"`
	Inscription  bool            `json:"inscription"   gorm:"not null;default:false"`
	DonationDate *time.Time      `json:"donation_date,omitempty"`
	CreatedAt    time.Time       `json:"created_at"    gorm:"not null;index:idx_donations_created"`
	UpdatedAt    time.Time       `json:"updated_at"`
}

// TableName returns the database table name for Donation.
func (Donation) TableName() string { return "donations" }

// DonationInput carries the editable fields of a donation. It is the payload
// for create and full-replace update, and the target type of the importer and
// webhook mappings.
type DonationInput struct {
	ReceiptNo    string          `json:"receipt_no"   validate:"required,max=64"`
	Name         string          `json:"name"         validate:"required,max=255"`
	Community    Community       `json:"community"    validate:"required,community"`
	Location     string          `json:"location"     validate:"required,max=255"`
	Address      string          `json:"address"      validate:"max=2000"`
	Phone        string          `json:"phone"        validate:"required,len=10,numeric"`
	Amount       decimal.Decimal `json:"amount"       validate:"gt=0,lte=999999999999.99" swaggertype:"number" example:"501"`
	PaymentMode  PaymentMode     `json:"payment_mode" validate:"required,paymentmode"`
	Inscription  bool            `json:"inscription"`
	DonationDate *time.Time      `json:"donation_date,omitempty"`
}

// Apply copies the editable fields of in onto d. ID and CreatedAt are left
// untouched.
func (in DonationInput) Apply(d *Donation) {
	d.ReceiptNo = in.ReceiptNo
	d.Name = in.Name
	d.Community = in.Community
	d.Location = in.Location
	d.Address = in.Address
	d.Phone = in.Phone
	d.Amount = in.Amount
	d.PaymentMode = in.PaymentMode
	d.Inscription = in.Inscription
	d.DonationDate = in.DonationDate
}

// DonorSummary is the derived view of all donations sharing a phone number.
// Name, Location and Community come from the newest donation.
type DonorSummary struct {
	Name          string          `json:"name"`
	Phone         string          `json:"phone"`
	Location      string          `json:"location"`
	Community     Community       `json:"community"`
	TotalAmount   decimal.Decimal `json:"total_amount" swaggertype:"number"`
	DonationCount int             `json:"donation_count"`
	LastDonation  time.Time       `json:"last_donation"`
	Donations     []Donation      `json:"donations"`
}

// PaymentModeShare is one slice of the dashboard payment distribution.
type PaymentModeShare struct {
	Mode       PaymentMode     `json:"mode"`
	Amount     decimal.Decimal `json:"amount" swaggertype:"number"`
	Percentage int64           `json:"percentage"`
}

// RecentDonation is the reduced donation shape shown on the dashboard.
type RecentDonation struct {
	Name        string          `json:"name"`
	Amount      decimal.Decimal `json:"amount" swaggertype:"number"`
	PaymentMode PaymentMode     `json:"payment_mode"`
	CreatedAt   time.Time       `json:"created_at"`
}

// DashboardStats are global collection statistics.
type DashboardStats struct {
	TotalCollection         decimal.Decimal    `json:"total_collection" swaggertype:"number"`
	TotalDonors             int                `json:"total_donors"`
	ThisMonth               decimal.Decimal    `json:"this_month" swaggertype:"number"`
	AvgDonation             decimal.Decimal    `json:"avg_donation" swaggertype:"number"`
	PaymentModeDistribution []PaymentModeShare `json:"payment_mode_distribution"`
	RecentDonations         []RecentDonation   `json:"recent_donations"`
}
