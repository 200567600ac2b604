package domain

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// The manual receipt books run 1..999, then A0001..A9999, B0001..B9999 and
// so on through Z9999.
const (
	numericReceipts   = 999
	receiptsPerLetter = 9999
	letterCount       = 26

	// MaxReceiptRank is the position of Z9999, the last receipt in the series.
	MaxReceiptRank = numericReceipts + letterCount*receiptsPerLetter
)

// ErrReceiptSequenceExhausted is returned when Z9999 has already been issued.
var ErrReceiptSequenceExhausted = errors.New("receipt sequence exhausted")

// ReceiptRank returns the 1-based position of s in the receipt series. The
// second result is false when s is not a series receipt (e.g. a legacy
// "R1700000000-3" import number), in which case it is ignored for suggestions.
func ReceiptRank(s string) (int, bool) {
	s = strings.ToUpper(strings.TrimSpace(s))
	if s == "" {
		return 0, false
	}
	if s[0] >= 'A' && s[0] <= 'Z' {
		digits := s[1:]
		if len(digits) != 4 || !allDigits(digits) {
			return 0, false
		}
		n, err := strconv.Atoi(digits)
		if err != nil || n < 1 || n > receiptsPerLetter {
			return 0, false
		}
		return numericReceipts + int(s[0]-'A')*receiptsPerLetter + n, true
	}
	if s[0] == '0' || len(s) > 3 || !allDigits(s) {
		return 0, false
	}
	n, err := strconv.Atoi(s)
	if err != nil || n < 1 || n > numericReceipts {
		return 0, false
	}
	return n, true
}

// allDigits reports whether s is made of ASCII digits only; strconv.Atoi
// alone would also accept a leading sign.
func allDigits(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}

// ReceiptAt is the inverse of ReceiptRank.
func ReceiptAt(rank int) (string, error) {
	switch {
	case rank < 1 || rank > MaxReceiptRank:
		return "", fmt.Errorf("receipt rank %d out of range [1,%d]", rank, MaxReceiptRank)
	case rank <= numericReceipts:
		return strconv.Itoa(rank), nil
	}
	off := rank - numericReceipts - 1
	letter := byte('A' + off/receiptsPerLetter)
	return fmt.Sprintf("%c%04d", letter, off%receiptsPerLetter+1), nil
}

// NextReceipt suggests the receipt that follows the highest-ranked series
// receipt in existing. With no series receipts it returns "1".
func NextReceipt(existing []string) (string, error) {
	highest := 0
	for _, r := range existing {
		if n, ok := ReceiptRank(r); ok && n > highest {
			highest = n
		}
	}
	if highest >= MaxReceiptRank {
		return "", ErrReceiptSequenceExhausted
	}
	return ReceiptAt(highest + 1)
}
