// Package importer maps loosely-typed tabular rows (CSV, XLSX or form
// webhook payloads) onto donation inputs and records them in bulk.
//
// Rows arrive as RawRow values keyed by normalized header. Amount, phone and
// date are parsed by typed functions that return either a value or a
// *ParseError; ParseRow collects every failure for a row so that a report can
// explain all of them at once. Community, payment mode and inscription are
// normalized loosely and fall back to their defaults. Importer.Import never aborts a batch because
// of a single bad row.
package importer

import (
	"fmt"
	"strconv"
	"strings"
	"unicode"
)

// RawRow is one input record keyed by normalized header (see NormalizeHeader).
type RawRow map[string]string

// Canonical field names. A field is read from the first non-empty header
// among its aliases.
const (
	FieldReceiptNo    = "receipt_no"
	FieldName         = "name"
	FieldCommunity    = "community"
	FieldLocation     = "location"
	FieldAddress      = "address"
	FieldPhone        = "phone"
	FieldAmount       = "amount"
	FieldPaymentMode  = "payment_mode"
	FieldInscription  = "inscription"
	FieldDonationDate = "donation_date"
)

// fieldAliases lists accepted normalized headers per field, in priority order.
// The export headers ("Receipt No", "Payment Mode", "Donation Date", ...)
// normalize into these, so an exported file can be re-imported as is.
var fieldAliases = map[string][]string{
	FieldReceiptNo:    {"receiptno", "receiptnumber", "receipt", "rno"},
	FieldName:         {"name", "donorname", "fullname"},
	FieldCommunity:    {"community", "kulam", "caste"},
	FieldLocation:     {"location", "place", "city", "village", "town"},
	FieldAddress:      {"address", "fulladdress"},
	FieldPhone:        {"phone", "phonenumber", "phoneno", "mobile", "mobilenumber", "mobileno", "contact"},
	FieldAmount:       {"amount", "donationamount", "amt"},
	FieldPaymentMode:  {"paymentmode", "paymentmethod", "mode", "payment"},
	FieldInscription:  {"inscription", "engraving"},
	FieldDonationDate: {"donationdate", "date"},
}

// NormalizeHeader lower-cases h and drops quotes, whitespace, dots,
// underscores and hyphens, so "Receipt No.", "receipt_no" and "RECEIPT-NO"
// all become "receiptno".
func NormalizeHeader(h string) string {
	h = strings.TrimPrefix(h, "\ufeff")
	var b strings.Builder
	b.Grow(len(h))
	for _, r := range h {
		switch {
		case unicode.IsSpace(r), r == '"', r == '\'', r == '.', r == '_', r == '-':
			continue
		default:
			b.WriteRune(unicode.ToLower(r))
		}
	}
	return b.String()
}

// NewRow zips headers and values into a RawRow. Headers are normalized and
// values trimmed; short rows leave the trailing fields empty and the first
// occurrence of a repeated header wins.
func NewRow(headers, values []string) RawRow {
	row := make(RawRow, len(headers))
	for i, h := range headers {
		key := NormalizeHeader(h)
		if key == "" {
			continue
		}
		if _, dup := row[key]; dup {
			continue
		}
		v := ""
		if i < len(values) {
			v = strings.TrimSpace(values[i])
		}
		row[key] = v
	}
	return row
}

// RowFromMap builds a RawRow from a decoded JSON object such as a form
// webhook payload. Numbers and booleans are rendered in their plain textual
// form; nested values are ignored.
func RowFromMap(m map[string]any) RawRow {
	row := make(RawRow, len(m))
	for k, v := range m {
		var s string
		switch x := v.(type) {
		case nil:
			continue
		case string:
			s = x
		case bool:
			s = strconv.FormatBool(x)
		case float64:
			s = strconv.FormatFloat(x, 'f', -1, 64)
		case int:
			s = strconv.Itoa(x)
		case int64:
			s = strconv.FormatInt(x, 10)
		case fmt.Stringer:
			s = x.String()
		default:
			continue
		}
		if key := NormalizeHeader(k); key != "" {
			row[key] = strings.TrimSpace(s)
		}
	}
	return row
}

// Value returns the first non-empty value among field's aliases.
func (r RawRow) Value(field string) string {
	for _, alias := range fieldAliases[field] {
		if v := strings.TrimSpace(r[alias]); v != "" {
			return v
		}
	}
	return ""
}

// Missing returns the fields, in argument order, that have no value in r.
func (r RawRow) Missing(fields ...string) []string {
	var out []string
	for _, f := range fields {
		if r.Value(f) == "" {
			out = append(out, f)
		}
	}
	return out
}

// Blank reports whether every value in r is empty.
func (r RawRow) Blank() bool {
	for _, v := range r {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}
