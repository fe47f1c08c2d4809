package openai

import "github.com/vmoraru/invoice-extraction-service/internal/domain"

func strPtr(s string) *string { return &s }

// mockInvoice returns fixed invoice data for testing without an API key.
func mockInvoice() *domain.InvoiceData {
	return &domain.InvoiceData{
		Supplier:      strPtr("MOCK SUPPLIER"),
		InvoiceNumber: strPtr("MOCK-001"),
		Date:          strPtr("02-02-2026"),
		TotalAmount:   8142.84,
		Currency:      "MDL",
		Products: []domain.Product{
			{
				RawCode:         strPtr("4840167001399"),
				Name:            "200G UNT CIOCOLATA JLC",
				Quantity:        5.0,
				UnitPrice:       43.43,
				TotalPrice:      217.15,
				ConfidenceScore: 0.95,
			},
			{
				RawCode:         strPtr("4840167002500"),
				Name:            "CIOCOLATA ALBA 70% 200G",
				Quantity:        4.0,
				UnitPrice:       41.58,
				TotalPrice:      166.32,
				ConfidenceScore: 0.95,
			},
		},
	}
}
