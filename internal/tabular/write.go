package tabular

import (
	"encoding/csv"
	"io"
	"strconv"
	"time"

	"github.com/templeledger/donations-backend/internal/domain"
)

// ExportHeader is the column order of WriteDonationsCSV. Every header
// normalizes to an importer alias, so an export can be imported back.
var ExportHeader = []string{
	"S.No", "Receipt No", "Name", "Community", "Location", "Address", "Phone",
	"Amount", "Payment Mode", "Inscription", "Donation Date", "Date",
}

const dateLayout = "02/01/2006"

// WriteDonationsCSV writes ds in the given order. Dates are DD/MM/YYYY; the
// recording date is rendered in loc (UTC when nil).
func WriteDonationsCSV(w io.Writer, ds []domain.Donation, loc *time.Location) error {
	if loc == nil {
		loc = time.UTC
	}
	cw := csv.NewWriter(w)
	if err := cw.Write(ExportHeader); err != nil {
		return err
	}
	for i, d := range ds {
		donated := ""
		if d.DonationDate != nil {
			donated = d.DonationDate.UTC().Format(dateLayout)
		}
		inscription := "No"
		if d.Inscription {
			inscription = "Yes"
		}
		rec := []string{
			strconv.Itoa(i + 1),
			d.ReceiptNo,
			d.Name,
			string(d.Community),
			d.Location,
			d.Address,
			d.Phone,
			d.Amount.String(),
			string(d.PaymentMode),
			inscription,
			donated,
			d.CreatedAt.In(loc).Format(dateLayout),
		}
		if err := cw.Write(rec); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
