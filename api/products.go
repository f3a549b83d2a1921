package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/Domenick1991/travelbooking/internal/domain"
	"github.com/Domenick1991/travelbooking/internal/service/catalog"
	"github.com/gin-gonic/gin"
)

type ProductHandler struct {
	service catalog.ProductUseCase
}

type productRequest struct {
	Kind                 string     `json:"kind" binding:"required"`
	Name                 string     `json:"name" binding:"required"`
	Description          string     `json:"description"`
	PriceCents           int64      `json:"price_cents" binding:"required"`
	Currency             string     `json:"currency"`
	FullRefundWindowDays int        `json:"full_refund_window_days"`
	HalfRefundWindowDays int        `json:"half_refund_window_days"`
	StartsAt             *time.Time `json:"starts_at"`
	Active               *bool      `json:"active"`
}

type productResponse struct {
	ID                   int64      `json:"id"`
	Kind                 string     `json:"kind"`
	Name                 string     `json:"name"`
	Description          string     `json:"description,omitempty"`
	PriceCents           int64      `json:"price_cents"`
	Currency             string     `json:"currency"`
	FullRefundWindowDays int        `json:"full_refund_window_days"`
	HalfRefundWindowDays int        `json:"half_refund_window_days"`
	StartsAt             *time.Time `json:"starts_at,omitempty"`
	Active               bool       `json:"active"`
}

func NewProductHandler(service catalog.ProductUseCase) *ProductHandler {
	return &ProductHandler{service: service}
}

func (h *ProductHandler) Register(router *gin.RouterGroup) {
	router.GET("/products", h.list)
	router.GET("/products/:id", h.get)
}

func (h *ProductHandler) RegisterAdmin(router *gin.RouterGroup) {
	router.POST("/products", h.create)
	router.PUT("/products/:id", h.update)
}

func (h *ProductHandler) list(c *gin.Context) {
	var kind domain.ProductKind
	if k := c.Query("kind"); k != "" {
		parsed, err := domain.ParseProductKind(k)
		if err != nil {
			writeError(c, err)
			return
		}
		kind = parsed
	}

	products, err := h.service.List(c.Request.Context(), kind)
	if err != nil {
		writeError(c, err)
		return
	}
	resp := make([]productResponse, 0, len(products))
	for i := range products {
		resp = append(resp, newProductResponse(&products[i]))
	}
	c.JSON(http.StatusOK, resp)
}

func (h *ProductHandler) get(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		writeError(c, domain.NewValidationError("invalid id"))
		return
	}
	p, err := h.service.GetByID(c.Request.Context(), id)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, newProductResponse(p))
}

func (h *ProductHandler) create(c *gin.Context) {
	var req productRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	p, err := h.service.Create(c.Request.Context(), req.input())
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, newProductResponse(p))
}

func (h *ProductHandler) update(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		writeError(c, domain.NewValidationError("invalid id"))
		return
	}
	var req productRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	p, err := h.service.Update(c.Request.Context(), id, req.input())
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, newProductResponse(p))
}

func (r productRequest) input() catalog.ProductInput {
	active := true
	if r.Active != nil {
		active = *r.Active
	}
	return catalog.ProductInput{
		Kind:                 domain.ProductKind(r.Kind),
		Name:                 r.Name,
		Description:          r.Description,
		PriceCents:           r.PriceCents,
		Currency:             r.Currency,
		FullRefundWindowDays: r.FullRefundWindowDays,
		HalfRefundWindowDays: r.HalfRefundWindowDays,
		StartsAt:             r.StartsAt,
		Active:               active,
	}
}

func newProductResponse(p *domain.Product) productResponse {
	return productResponse{
		ID:                   p.ID,
		Kind:                 string(p.Kind),
		Name:                 p.Name,
		Description:          p.Description,
		PriceCents:           p.PriceCents,
		Currency:             p.Currency,
		FullRefundWindowDays: p.FullRefundWindowDays,
		HalfRefundWindowDays: p.HalfRefundWindowDays,
		StartsAt:             p.StartsAt,
		Active:               p.Active,
	}
}
