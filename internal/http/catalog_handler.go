package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"calmspace/internal/domain"
)

// CatalogHandler expone los catálogos fijos de servicios y terapeutas.
type CatalogHandler struct {
	prices domain.PriceTable
}

func NewCatalogHandler(prices domain.PriceTable) *CatalogHandler {
	if prices == nil {
		prices = domain.DefaultPriceTable
	}
	return &CatalogHandler{prices: prices}
}

// Services maneja GET /catalog/services.
func (h *CatalogHandler) Services(c *gin.Context) {
	type entry struct {
		Slug      string `json:"slug"`
		Name      string `json:"name"`
		BasePrice int64  `json:"base_price"`
	}
	services := make([]entry, 0, len(domain.ServiceTypes()))
	for _, s := range domain.ServiceTypes() {
		services = append(services, entry{
			Slug:      string(s),
			Name:      s.DisplayName(),
			BasePrice: h.prices.BasePriceFor(s),
		})
	}
	c.JSON(http.StatusOK, gin.H{"services": services})
}

// Therapists maneja GET /catalog/therapists.
func (h *CatalogHandler) Therapists(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"therapists": domain.DefaultTherapists})
}
