package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Sweet is the core inventory aggregate. Name is unique (case-sensitive on
// equality, case-insensitive on substring search). Quantity never goes below
// zero; every mutation re-asserts that invariant.
type Sweet struct {
	ID        string          `json:"id"`
	Name      string          `json:"name"`
	Category  string          `json:"category"`
	Price     decimal.Decimal `json:"price"`
	Quantity  int             `json:"quantity"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}
