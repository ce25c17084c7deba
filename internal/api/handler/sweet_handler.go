package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"

	"github.com/sweetshop/sweetshop-api/internal/api/metrics"
	"github.com/sweetshop/sweetshop-api/internal/core/domain"
	"github.com/sweetshop/sweetshop-api/internal/core/ports"
)

type SweetHandler struct {
	sweetService ports.SweetService
}

func NewSweetHandler(sweetService ports.SweetService) *SweetHandler {
	return &SweetHandler{sweetService: sweetService}
}

// Create adds a new sweet to the catalog.
func (h *SweetHandler) Create(c echo.Context) error {
	input, err := h.bindInput(c)
	if err != nil {
		return err
	}

	sweet, err := h.sweetService.Create(c.Request().Context(), input)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, toSweetResponse(sweet))
}

// Update replaces a sweet's name, category, price, and quantity.
func (h *SweetHandler) Update(c echo.Context) error {
	input, err := h.bindInput(c)
	if err != nil {
		return err
	}

	sweet, err := h.sweetService.Update(c.Request().Context(), c.Param("id"), input)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toSweetResponse(sweet))
}

// GetByID returns a single sweet.
func (h *SweetHandler) GetByID(c echo.Context) error {
	sweet, err := h.sweetService.GetByID(c.Request().Context(), c.Param("id"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toSweetResponse(sweet))
}

// List returns the catalog, optionally narrowed by query-parameter filters.
// The bare listing and the filtered search share one code path: absent
// parameters impose no constraint.
func (h *SweetHandler) List(c echo.Context) error {
	criteria, err := parseCriteria(c)
	if err != nil {
		return err
	}

	sweets, err := h.sweetService.Search(c.Request().Context(), criteria)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toSweetResponses(sweets))
}

// Purchase decrements stock by the requested quantity.
func (h *SweetHandler) Purchase(c echo.Context) error {
	qty, err := parseQuantity(c)
	if err != nil {
		return err
	}

	sweet, err := h.sweetService.Purchase(c.Request().Context(), c.Param("id"), qty)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrInsufficientStock):
			metrics.PurchasesTotal.WithLabelValues("insufficient_stock").Inc()
		default:
			metrics.PurchasesTotal.WithLabelValues("error").Inc()
		}
		return err
	}

	metrics.PurchasesTotal.WithLabelValues("success").Inc()
	return c.JSON(http.StatusOK, toSweetResponse(sweet))
}

// Restock increments stock by the requested quantity.
func (h *SweetHandler) Restock(c echo.Context) error {
	qty, err := parseQuantity(c)
	if err != nil {
		return err
	}

	sweet, err := h.sweetService.Restock(c.Request().Context(), c.Param("id"), qty)
	if err != nil {
		return err
	}

	metrics.RestocksTotal.Inc()
	return c.JSON(http.StatusOK, toSweetResponse(sweet))
}

// Delete removes a sweet from the catalog.
func (h *SweetHandler) Delete(c echo.Context) error {
	if err := h.sweetService.Delete(c.Request().Context(), c.Param("id")); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *SweetHandler) bindInput(c echo.Context) (ports.SweetInput, error) {
	var req sweetRequest
	if err := c.Bind(&req); err != nil {
		return ports.SweetInput{}, echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return ports.SweetInput{}, err
	}
	return ports.SweetInput{
		Name:     req.Name,
		Category: req.Category,
		Price:    req.Price,
		Quantity: req.Quantity,
	}, nil
}

// parseCriteria reads the optional search filters from the query string.
func parseCriteria(c echo.Context) (ports.SearchCriteria, error) {
	criteria := ports.SearchCriteria{
		Name:     c.QueryParam("name"),
		Category: c.QueryParam("category"),
	}

	if raw := c.QueryParam("minPrice"); raw != "" {
		min, err := decimal.NewFromString(raw)
		if err != nil {
			return ports.SearchCriteria{}, NewValidationError("minPrice", "must be a decimal number")
		}
		criteria.MinPrice = &min
	}
	if raw := c.QueryParam("maxPrice"); raw != "" {
		max, err := decimal.NewFromString(raw)
		if err != nil {
			return ports.SearchCriteria{}, NewValidationError("maxPrice", "must be a decimal number")
		}
		criteria.MaxPrice = &max
	}
	return criteria, nil
}

// parseQuantity reads the mandatory quantity query parameter. Range checks
// live in the service layer.
func parseQuantity(c echo.Context) (int, error) {
	raw := c.QueryParam("quantity")
	if raw == "" {
		return 0, NewValidationError("quantity", "is required")
	}
	qty, err := strconv.Atoi(raw)
	if err != nil {
		return 0, NewValidationError("quantity", "must be an integer")
	}
	return qty, nil
}
