package handler

import (
	"net/http"
	"time"

	"ravito/internal/apierror"
	"ravito/internal/dto"
	"ravito/internal/orderflow"
	"ravito/internal/service"

	"github.com/gin-gonic/gin"
)

type OrdersHandler struct{ svc service.OrderService }

func NewOrdersHandler(svc service.OrderService) *OrdersHandler { return &OrdersHandler{svc: svc} }

// Checkout godoc
// @Summary Transforme le panier en commande
// @Tags orders
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body dto.CheckoutRequest true "Zone et adresse de livraison"
// @Success 201 {object} dto.OrderResponse
// @Failure 422 {object} apierror.APIError
// @Router /v1/orders [post]
func (h *OrdersHandler) Checkout(c *gin.Context) {
	actor, ok := actorFrom(c)
	if !ok {
		return
	}
	var req dto.CheckoutRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.Checkout(c.Request.Context(), actor, req)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, resp)
}

func bindFilter(c *gin.Context) (dto.OrderFilter, bool) {
	var f dto.OrderFilter
	if err := c.ShouldBindQuery(&f); err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("Filtre invalide: "+err.Error()))
		return f, false
	}
	return f, true
}

// List godoc
// @Summary Commandes visibles par l'utilisateur
// @Tags orders
// @Produce json
// @Security BearerAuth
// @Param status query string false "Statut"
// @Param from query string false "YYYY-MM-DD"
// @Param to query string false "YYYY-MM-DD"
// @Param page query int false "Page"
// @Param limit query int false "Taille de page"
// @Success 200 {object} dto.OrderListResponse
// @Router /v1/orders [get]
func (h *OrdersHandler) List(c *gin.Context) {
	actor, ok := actorFrom(c)
	if !ok {
		return
	}
	f, ok := bindFilter(c)
	if !ok {
		return
	}
	resp, err := h.svc.List(c.Request.Context(), actor, f)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Export godoc
// @Summary Export CSV des commandes
// @Tags orders
// @Produce text/csv
// @Security BearerAuth
// @Success 200 {file} file
// @Router /v1/orders/export.csv [get]
func (h *OrdersHandler) Export(c *gin.Context) {
	actor, ok := actorFrom(c)
	if !ok {
		return
	}
	f, ok := bindFilter(c)
	if !ok {
		return
	}
	data, err := h.svc.ExportCSV(c.Request.Context(), actor, f)
	if err != nil {
		writeError(c, err)
		return
	}
	name := "commandes-" + time.Now().Format("2006-01-02") + ".csv"
	attachment(c, "text/csv; charset=utf-8", name, data)
}

func (h *OrdersHandler) Get(c *gin.Context) {
	actor, ok := actorFrom(c)
	if !ok {
		return
	}
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	resp, err := h.svc.Get(c.Request.Context(), actor, id)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// SubmitOffer godoc
// @Summary Le fournisseur propose un prix
// @Tags orders
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Order ID"
// @Param body body dto.OfferRequest true "Offre"
// @Success 201 {object} dto.OrderResponse
// @Failure 409 {object} apierror.APIError
// @Router /v1/orders/{id}/offers [post]
func (h *OrdersHandler) SubmitOffer(c *gin.Context) {
	actor, ok := actorFrom(c)
	if !ok {
		return
	}
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	var req dto.OfferRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.SubmitOffer(c.Request.Context(), actor, id, req)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, resp)
}

// AcceptOffer godoc
// @Summary Le client accepte une offre
// @Description Fixe le montant HT, la commission et le total; les autres offres sont refusées.
// @Tags orders
// @Produce json
// @Security BearerAuth
// @Param id path string true "Order ID"
// @Param offer_id path string true "Offer ID"
// @Success 200 {object} dto.OrderResponse
// @Router /v1/orders/{id}/offers/{offer_id}/accept [post]
func (h *OrdersHandler) AcceptOffer(c *gin.Context) {
	actor, ok := actorFrom(c)
	if !ok {
		return
	}
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	offerID, ok := uuidParam(c, "offer_id")
	if !ok {
		return
	}
	resp, err := h.svc.AcceptOffer(c.Request.Context(), actor, id, offerID)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *OrdersHandler) ConfirmPayment(c *gin.Context) {
	actor, ok := actorFrom(c)
	if !ok {
		return
	}
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	resp, err := h.svc.ConfirmPayment(c.Request.Context(), actor, id)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// AdvanceStatus godoc
// @Summary Fait avancer une commande payée jusqu'à la livraison
// @Tags orders
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Order ID"
// @Param body body dto.StatusRequest true "Événement"
// @Success 200 {object} dto.OrderResponse
// @Failure 409 {object} apierror.APIError
// @Router /v1/orders/{id}/status [post]
func (h *OrdersHandler) AdvanceStatus(c *gin.Context) {
	actor, ok := actorFrom(c)
	if !ok {
		return
	}
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	var req dto.StatusRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.AdvanceStatus(c.Request.Context(), actor, id, orderflow.Event(req.Event))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *OrdersHandler) Cancel(c *gin.Context) {
	actor, ok := actorFrom(c)
	if !ok {
		return
	}
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	var req dto.CancelRequest
	if !bindOptional(c, &req) {
		return
	}
	resp, err := h.svc.Cancel(c.Request.Context(), actor, id, req)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *OrdersHandler) Rate(c *gin.Context) {
	actor, ok := actorFrom(c)
	if !ok {
		return
	}
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	var req dto.RatingRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.Rate(c.Request.Context(), actor, id, req)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}
