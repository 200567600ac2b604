package importer

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/templeledger/donations-backend/internal/domain"
)

// ParseError describes why a single field could not be read.
type ParseError struct {
	Field  string
	Value  string
	Reason string
}

func (e *ParseError) Error() string {
	if e.Value == "" {
		return fmt.Sprintf("%s %s", e.Field, e.Reason)
	}
	return fmt.Sprintf("%s %q %s", e.Field, e.Value, e.Reason)
}

// ParseErrors is every field failure found in one row.
type ParseErrors []*ParseError

func (es ParseErrors) Error() string {
	parts := make([]string, len(es))
	for i, e := range es {
		parts[i] = e.Error()
	}
	return strings.Join(parts, "; ")
}

// Unwrap exposes the individual errors to errors.As.
func (es ParseErrors) Unwrap() []error {
	out := make([]error, len(es))
	for i, e := range es {
		out[i] = e
	}
	return out
}

var currencyStripper = strings.NewReplacer(
	"₹", "", "Rs.", "", "rs.", "", "RS.", "", "Rs", "", "rs", "", "RS", "",
	"INR", "", "inr", "", "$", "", ",", "", " ", "", "\u00a0", "",
)

// ParseAmount reads a rupee amount, ignoring currency symbols, thousands
// separators and spaces. The amount must be greater than zero.
func ParseAmount(s string) (decimal.Decimal, error) {
	raw := strings.TrimSpace(s)
	if raw == "" {
		return decimal.Zero, &ParseError{Field: FieldAmount, Reason: "is required"}
	}
	d, err := decimal.NewFromString(currencyStripper.Replace(raw))
	if err != nil {
		return decimal.Zero, &ParseError{Field: FieldAmount, Value: raw, Reason: "is not a number"}
	}
	if !d.IsPositive() {
		return decimal.Zero, &ParseError{Field: FieldAmount, Value: raw, Reason: "must be greater than 0"}
	}
	return d, nil
}

// ParsePhone keeps only the digits of s, which must leave exactly ten.
func ParsePhone(s string) (string, error) {
	raw := strings.TrimSpace(s)
	if raw == "" {
		return "", &ParseError{Field: FieldPhone, Reason: "is required"}
	}
	var b strings.Builder
	for _, r := range raw {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	digits := b.String()
	if len(digits) != 10 {
		return "", &ParseError{Field: FieldPhone, Value: raw, Reason: fmt.Sprintf("must be exactly 10 digits (got %d)", len(digits))}
	}
	return digits, nil
}

var excelSerial = regexp.MustCompile(`^\d{5,6}(\.\d+)?$`)

// excelEpoch is day zero of the 1900 date system, shifted to absorb the
// phantom 29 February 1900.
var excelEpoch = time.Date(1899, 12, 30, 0, 0, 0, 0, time.UTC)

var dateLayouts = []string{"2/1/2006", "2-1-2006", "2006-1-2"}

// ParseDate reads an optional date. Accepted forms are an Excel serial day
// number (five or six digits, fraction ignored), DD/MM/YYYY, DD-MM-YYYY and
// YYYY-MM-DD. The result is midnight UTC; an empty input yields nil.
func ParseDate(s string) (*time.Time, error) {
	raw := strings.TrimSpace(s)
	if raw == "" {
		return nil, nil
	}
	if excelSerial.MatchString(raw) {
		days, _ := strconv.Atoi(strings.SplitN(raw, ".", 2)[0])
		t := excelEpoch.AddDate(0, 0, days)
		return &t, nil
	}
	for _, layout := range dateLayouts {
		if t, err := time.ParseInLocation(layout, raw, time.UTC); err == nil {
			return &t, nil
		}
	}
	return nil, &ParseError{Field: FieldDonationDate, Value: raw, Reason: "is not a valid date (use DD/MM/YYYY, DD-MM-YYYY or YYYY-MM-DD)"}
}

// ParseInscription reads yes/no style flags. Anything other than yes, y,
// true or 1 is false.
func ParseInscription(s string) bool {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "yes", "y", "true", "1":
		return true
	}
	return false
}

// communityAliases maps common spellings onto the closed kulam set.
var communityAliases = map[string]domain.Community{
	"othalan":  domain.CommunityOthaalan,
	"odhalan":  domain.CommunityOdhaalan,
	"avan":     domain.CommunityAavan,
	"adai":     domain.CommunityAadai,
	"cholan":   domain.CommunityChozhan,
	"chozan":   domain.CommunityChozhan,
	"pandian":  domain.CommunityPandiyan,
	"payiraan": domain.CommunityPayiran,
	"sembaan":  domain.CommunitySemban,
	"none":     domain.CommunityAny,
}

// NormalizeCommunity maps s onto a kulam; a trailing "kulam" is ignored.
// Empty or unrecognized input falls back to "any".
func NormalizeCommunity(s string) domain.Community {
	key := strings.ToLower(strings.TrimSpace(s))
	key = strings.TrimSpace(strings.TrimSuffix(key, "kulam"))
	key = strings.ReplaceAll(key, " ", "")
	if c := domain.Community(key); key != "" && c.Valid() {
		return c
	}
	if c, ok := communityAliases[key]; ok {
		return c
	}
	return domain.CommunityAny
}

var paymentAliases = map[string]domain.PaymentMode{
	"cash":         domain.PaymentCash,
	"card":         domain.PaymentCard,
	"creditcard":   domain.PaymentCard,
	"debitcard":    domain.PaymentCard,
	"upi":          domain.PaymentUPI,
	"gpay":         domain.PaymentUPI,
	"googlepay":    domain.PaymentUPI,
	"phonepe":      domain.PaymentUPI,
	"paytm":        domain.PaymentUPI,
	"banktransfer": domain.PaymentBankTransfer,
	"bank":         domain.PaymentBankTransfer,
	"transfer":     domain.PaymentBankTransfer,
	"neft":         domain.PaymentBankTransfer,
	"rtgs":         domain.PaymentBankTransfer,
	"imps":         domain.PaymentBankTransfer,
	"cheque":       domain.PaymentCheque,
	"check":        domain.PaymentCheque,
	"chq":          domain.PaymentCheque,
	"dd":           domain.PaymentCheque,
}

// NormalizePaymentMode maps s onto a payment mode, ignoring case, spaces,
// underscores and hyphens. Empty or unrecognized input falls back to cash.
func NormalizePaymentMode(s string) domain.PaymentMode {
	if m, ok := paymentAliases[NormalizeHeader(s)]; ok {
		return m
	}
	return domain.PaymentCash
}
