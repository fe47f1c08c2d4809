package domain

// ProductRecord is the persisted product shape used by the import service.
type ProductRecord struct {
	ProductID      string  `json:"product_id"`
	Barcode        *string `json:"barcode"`
	Name           string  `json:"name"`
	NormalizedName string  `json:"normalized_name"`
	Supplier       *string `json:"supplier"`
	Price          float64 `json:"price"`
	Price50        float64 `json:"price_50"`
	Price70        float64 `json:"price_70"`
	Price100       float64 `json:"price_100"`
	Markup         int     `json:"markup"`
}

// UpsertProductInput is the payload for create/update product operations.
type UpsertProductInput struct {
	Name           string
	NormalizedName string
	Barcode        *string
	Supplier       *string
	Price          float64
	Price50        float64
	Price70        float64
	Price100       float64
	Markup         int
}
