package handler

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/sweetshop/sweetshop-api/internal/core/domain"
)

type sweetRequest struct {
	Name     string          `json:"name" validate:"required,max=100"`
	Category string          `json:"category" validate:"required,max=50"`
	Price    decimal.Decimal `json:"price"`
	Quantity int             `json:"quantity" validate:"gte=0"`
}

type sweetResponse struct {
	ID        string          `json:"id"`
	Name      string          `json:"name"`
	Category  string          `json:"category"`
	Price     decimal.Decimal `json:"price"`
	Quantity  int             `json:"quantity"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}

func toSweetResponse(s *domain.Sweet) sweetResponse {
	return sweetResponse{
		ID:        s.ID,
		Name:      s.Name,
		Category:  s.Category,
		Price:     s.Price,
		Quantity:  s.Quantity,
		CreatedAt: s.CreatedAt,
		UpdatedAt: s.UpdatedAt,
	}
}

func toSweetResponses(sweets []domain.Sweet) []sweetResponse {
	out := make([]sweetResponse, 0, len(sweets))
	for i := range sweets {
		out = append(out, toSweetResponse(&sweets[i]))
	}
	return out
}
