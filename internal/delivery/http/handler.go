package http

import (
	"bytes"
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/betterbuy/backend/internal/domain"
	"github.com/betterbuy/backend/internal/infrastructure/export"
	"github.com/betterbuy/backend/internal/usecase"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// Handler holds dependencies for HTTP handlers
type Handler struct {
	capture    *usecase.CaptureService
	cart       *usecase.CartService
	rates      *usecase.RateCache
	currencies *usecase.CurrencyResolver
}

// NewHandler creates a new HTTP handler
func NewHandler(
	capture *usecase.CaptureService,
	cart *usecase.CartService,
	rates *usecase.RateCache,
	currencies *usecase.CurrencyResolver,
) *Handler {
	return &Handler{
		capture:    capture,
		cart:       cart,
		rates:      rates,
		currencies: currencies,
	}
}

// HealthCheck returns the health status of the API
func (h *Handler) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "healthy",
		"service": "betterbuy-backend",
		"version": "1.0.0",
	})
}

// ResolveCurrency returns the storefront currency for ?url=
func (h *Handler) ResolveCurrency(c *gin.Context) {
	rawURL := strings.TrimSpace(c.Query("url"))
	if rawURL == "" {
		respondError(c, domain.ErrInvalidRequest)
		return
	}
	c.JSON(http.StatusOK, h.currencies.Resolve(rawURL))
}

// GetRates returns the current exchange-rate table. It never fails: when
// the source is down the retained or built-in table is served.
func (h *Handler) GetRates(c *gin.Context) {
	c.JSON(http.StatusOK, h.rates.Table(c.Request.Context()))
}

// ExtractProduct captures a product without storing it
func (h *Handler) ExtractProduct(c *gin.Context) {
	var req domain.CaptureRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, domain.ErrInvalidRequest)
		return
	}

	product, err := h.capture.Capture(c.Request.Context(), &req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, product)
}

// ListCart returns the cart in insertion order
func (h *Handler) ListCart(c *gin.Context) {
	items, err := h.cart.List(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}

	views := make([]cartItem, len(items))
	for i := range items {
		views[i] = cartItem{
			Product:      items[i],
			Store:        usecase.StoreName(items[i].URL),
			PriceDisplay: items[i].PriceDisplay(),
		}
	}
	c.JSON(http.StatusOK, gin.H{"items": views, "count": len(views)})
}

// cartItem is a cart product as the extension's cart card renders it
type cartItem struct {
	domain.Product
	Store        string `json:"store"`
	PriceDisplay string `json:"priceDisplay"`
}

// AddCartItem captures a product and appends it to the cart
func (h *Handler) AddCartItem(c *gin.Context) {
	var req domain.CaptureRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, domain.ErrInvalidRequest)
		return
	}

	product, err := h.capture.CaptureToCart(c.Request.Context(), &req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, product)
}

// DeleteCartItem removes one product from the cart
func (h *Handler) DeleteCartItem(c *gin.Context) {
	id := c.Param("id")
	if err := h.cart.Delete(c.Request.Context(), id); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"deleted": id})
}

// ClearCart empties the cart
func (h *Handler) ClearCart(c *gin.Context) {
	if err := h.cart.Clear(c.Request.Context()); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"cleared": true})
}

// Compare renders a comparison of the selected cart products
func (h *Handler) Compare(c *gin.Context) {
	var req domain.CompareRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, domain.ErrInvalidRequest)
		return
	}

	artifact, err := h.cart.Compare(c.Request.Context(), req.ProductIDs)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, artifact)
}

// ExportComparison downloads the deterministic table of ?ids= as a workbook.
// ids may be repeated or comma separated.
func (h *Handler) ExportComparison(c *gin.Context) {
	var ids []string
	for _, v := range c.QueryArray("ids") {
		for _, id := range strings.Split(v, ",") {
			if id = strings.TrimSpace(id); id != "" {
				ids = append(ids, id)
			}
		}
	}

	products, table, err := h.cart.ComparisonTable(c.Request.Context(), ids)
	if err != nil {
		respondError(c, err)
		return
	}

	rows := make([]export.Row, len(products))
	for i, p := range products {
		rows[i] = export.Row{
			Position:    table.Rows[i].Position,
			Store:       usecase.StoreName(p.URL),
			Name:        table.Rows[i].Name,
			Price:       p.PriceRaw,
			Currency:    p.CurrencyCode,
			PriceUSD:    p.PriceUSD,
			Description: table.Rows[i].Description,
			URL:         p.URL,
			Cheapest:    i == table.CheapestIndex,
		}
	}

	var buf bytes.Buffer
	if err := export.WriteComparisonXLSX(&buf, rows); err != nil {
		respondError(c, err)
		return
	}

	c.Header("Content-Disposition", `attachment; filename="comparison.xlsx"`)
	c.Data(http.StatusOK, xlsxContentType, buf.Bytes())
}

// respondError maps domain errors to HTTP status codes
func respondError(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	message := "internal server error"

	switch {
	case errors.Is(err, domain.ErrNotEnoughProducts):
		status, message = http.StatusBadRequest, domain.ErrNotEnoughProducts.Error()
	case errors.Is(err, domain.ErrInvalidRequest):
		status, message = http.StatusBadRequest, domain.ErrInvalidRequest.Error()
	case errors.Is(err, domain.ErrProductNotFound):
		status, message = http.StatusNotFound, domain.ErrProductNotFound.Error()
	case errors.Is(err, domain.ErrDocumentUnavailable):
		status, message = http.StatusUnprocessableEntity, domain.ErrDocumentUnavailable.Error()
	case errors.Is(err, domain.ErrRateLimited):
		status, message = http.StatusTooManyRequests, domain.ErrRateLimited.Error()
	}

	if status == http.StatusInternalServerError {
		log.Error().Err(err).Str("path", c.Request.URL.Path).Msg("request failed")
	} else {
		log.Debug().Err(err).Int("status", status).Str("path", c.Request.URL.Path).Msg("request rejected")
	}

	c.AbortWithStatusJSON(status, gin.H{"error": message})
}
