package extract

import (
	"crypto/sha1"
	"encoding/hex"
	"fmt"
	"log/slog"
	"strconv"

	"github.com/vmoraru/invoice-extraction-service/internal/domain"
	"github.com/vmoraru/invoice-extraction-service/internal/weight"
)

// NormalizeKGWeighedRows rewrites rows sold by weight into the canonical
// "one lot" form: for a KG row the printed quantity is really the weight in
// kilograms, so quantity becomes 1.0, the weight candidate takes the printed
// quantity and unit_price is re-derived from the line total.
func NormalizeKGWeighedRows(data *domain.InvoiceData, logger *slog.Logger) {
	if logger == nil {
		logger = slog.Default()
	}

	for i := range data.Products {
		p := &data.Products[i]
		if p.UOM == nil || *p.UOM != "KG" {
			continue
		}

		weightKg := p.Quantity
		logger.Info("normalizing weighed row",
			"name", p.Name, "printed_quantity", weightKg, "total_price", p.TotalPrice)

		p.WeightKgCandidate = &weightKg
		p.Quantity = 1.0
		p.UnitPrice = p.TotalPrice
		// The name rarely carries a size for weighed goods; leave the
		// token empty instead of parsing a misleading one.
		p.SizeToken = nil
	}
}

// AddRowMetadata assigns stable row identifiers and runs the name-based
// weight parser on rows that were not already normalized as weighed goods.
func AddRowMetadata(data *domain.InvoiceData) {
	for i := range data.Products {
		p := &data.Products[i]

		id := rowID(i, p)
		p.RowID = &id

		if p.WeightKgCandidate != nil {
			continue
		}

		parsed := weight.ParseCandidate(p.Name)
		p.WeightKgCandidate = parsed.WeightKg
		p.SizeToken = parsed.SizeToken
		p.ParseConfidence = parsed.ParseConfidence
	}
}

// rowID derives a deterministic short identifier from the row index and its
// identifying fields. Same invoice content yields the same ids, so preview
// responses can be correlated across requests.
func rowID(index int, p *domain.Product) string {
	rawCode := ""
	if p.RawCode != nil {
		rawCode = *p.RawCode
	}
	basis := fmt.Sprintf("%d|%s|%s|%s|%s",
		index,
		rawCode,
		p.Name,
		strconv.FormatFloat(p.Quantity, 'g', -1, 64),
		strconv.FormatFloat(p.TotalPrice, 'g', -1, 64),
	)
	sum := sha1.Sum([]byte(basis))
	return "r_" + hex.EncodeToString(sum[:])[:12]
}
