package handler

import (
	"net/http"

	"ravito/internal/dto"
	"ravito/internal/service"

	"github.com/gin-gonic/gin"
)

type CatalogHandler struct{ svc service.CatalogService }

func NewCatalogHandler(svc service.CatalogService) *CatalogHandler {
	return &CatalogHandler{svc: svc}
}

// List godoc
// @Summary Catalogue des produits actifs
// @Tags catalog
// @Produce json
// @Success 200 {array} dto.ProductResponse
// @Router /v1/products [get]
func (h *CatalogHandler) List(c *gin.Context) {
	resp, err := h.svc.ListProducts(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *CatalogHandler) Get(c *gin.Context) {
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	resp, err := h.svc.GetProduct(c.Request.Context(), id)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Create godoc
// @Summary Ajoute un produit au catalogue
// @Tags catalog
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body dto.ProductRequest true "Produit"
// @Success 201 {object} dto.ProductResponse
// @Failure 422 {object} apierror.ValidationError
// @Router /v1/admin/products [post]
func (h *CatalogHandler) Create(c *gin.Context) {
	var req dto.ProductRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.CreateProduct(c.Request.Context(), req)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, resp)
}

func (h *CatalogHandler) Update(c *gin.Context) {
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	var req dto.ProductRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.UpdateProduct(c.Request.Context(), id, req)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// ── Organization prices ──────────────────────────────────────────────────────

// Prices godoc
// @Summary Prix de vente de l'établissement
// @Tags catalog
// @Produce json
// @Security BearerAuth
// @Success 200 {array} dto.OrganizationPriceResponse
// @Router /v1/prices [get]
func (h *CatalogHandler) Prices(c *gin.Context) {
	actor, ok := actorFrom(c)
	if !ok {
		return
	}
	resp, err := h.svc.ListOrganizationPrices(c.Request.Context(), actor.OrgID)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *CatalogHandler) SetPrice(c *gin.Context) {
	actor, ok := actorFrom(c)
	if !ok {
		return
	}
	productID, ok := uuidParam(c, "product_id")
	if !ok {
		return
	}
	var req dto.OrganizationPriceRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.SetOrganizationPrice(c.Request.Context(), actor.OrgID, productID, req)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}
