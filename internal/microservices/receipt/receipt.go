// Package receipt renders a completed order as the downloadable text slip.
package receipt

import (
	"fmt"
	"strings"
	"time"

	"coffee-storefront/internal/domain"
)

const width = 33

const (
	dateLayout = "2/1/2006"
	timeLayout = "15.04.05"
)

// FileName is the download name of the slip for orderID.
func FileName(orderID string) string {
	return "struk-" + orderID + ".txt"
}

// Render produces the slip text. Dates and times are shown in loc, UTC when
// loc is nil. The output depends only on its arguments.
func Render(r domain.Receipt, loc *time.Location) string {
	if loc == nil {
		loc = time.UTC
	}
	ts := r.Timestamp.In(loc)
	heavy := strings.Repeat("=", width)
	light := strings.Repeat("-", width)

	var lines []string
	lines = append(lines,
		heavy,
		"         COFFEE SHOP",
		"      Struk Pembelian",
		heavy,
		"Order ID: "+r.OrderID,
		"Tanggal: "+ts.Format(dateLayout),
		"Waktu: "+ts.Format(timeLayout),
		"",
		"Customer: "+r.Customer.Name,
		"Phone: "+r.Customer.Phone,
		"",
		light,
		"DETAIL PESANAN:",
		light,
	)

	for i, l := range r.Items {
		if i > 0 {
			lines = append(lines, "")
		}
		lines = append(lines,
			l.Item.Name,
			fmt.Sprintf("%s x %d = %s", l.Item.Price, l.Quantity, l.LineTotal()),
		)
	}

	lines = append(lines,
		"",
		light,
		"Subtotal: "+r.Subtotal.String(),
		"Metode Bayar: "+r.PaymentMethod,
		"TOTAL: "+r.Total.String(),
		light,
		"",
	)
	if r.Notes != "" {
		lines = append(lines, "Catatan: "+r.Notes)
	}
	lines = append(lines,
		"Terima kasih atas pesanan Anda!",
		heavy,
	)

	return strings.Join(lines, "\n") + "\n"
}
