package handler

import (
	"net/http"

	"ravito/internal/dto"
	"ravito/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type ZonesHandler struct{ svc service.ZoneService }

func NewZonesHandler(svc service.ZoneService) *ZonesHandler { return &ZonesHandler{svc: svc} }

// ListActive godoc
// @Summary Zones de livraison actives
// @Tags zones
// @Produce json
// @Success 200 {array} dto.ZoneResponse
// @Router /v1/zones [get]
func (h *ZonesHandler) ListActive(c *gin.Context) { h.list(c, true) }

// ListAll returns inactive zones too, for the admin screen.
func (h *ZonesHandler) ListAll(c *gin.Context) { h.list(c, false) }

func (h *ZonesHandler) list(c *gin.Context, activeOnly bool) {
	resp, err := h.svc.List(c.Request.Context(), activeOnly)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Create godoc
// @Summary Crée une zone
// @Tags zones
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body dto.ZoneRequest true "Zone"
// @Success 201 {object} dto.ZoneResponse
// @Router /v1/admin/zones [post]
func (h *ZonesHandler) Create(c *gin.Context) {
	var req dto.ZoneRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.Create(c.Request.Context(), req)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, resp)
}

func (h *ZonesHandler) Update(c *gin.Context) {
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	var req dto.ZoneRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.Update(c.Request.Context(), id, req)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Delete godoc
// @Summary Supprime une zone sans commande en cours
// @Tags zones
// @Accept json
// @Security BearerAuth
// @Param id path string true "Zone ID"
// @Param body body dto.ConfirmRequest true "confirm: true"
// @Success 204
// @Failure 409 {object} apierror.APIError
// @Router /v1/admin/zones/{id} [delete]
func (h *ZonesHandler) Delete(c *gin.Context) {
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	var req dto.ConfirmRequest
	if !bindOptional(c, &req) {
		return
	}
	if err := h.svc.Delete(c.Request.Context(), id, req.Confirm); err != nil {
		writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// ── Supplier zones ───────────────────────────────────────────────────────────

// Request godoc
// @Summary Le fournisseur demande à desservir une zone
// @Tags zones
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body dto.SupplierZoneRequest true "Zone"
// @Success 201 {object} dto.SupplierZoneResponse
// @Router /v1/supplier/zones [post]
func (h *ZonesHandler) Request(c *gin.Context) {
	actor, ok := actorFrom(c)
	if !ok {
		return
	}
	var req dto.SupplierZoneRequest
	if !bindAndValidate(c, &req) {
		return
	}
	zoneID, _ := uuid.Parse(req.ZoneID)
	resp, err := h.svc.RequestZone(c.Request.Context(), actor.OrgID, zoneID)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, resp)
}

func (h *ZonesHandler) Mine(c *gin.Context) {
	actor, ok := actorFrom(c)
	if !ok {
		return
	}
	resp, err := h.svc.ListSupplierZones(c.Request.Context(), actor.OrgID)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Requests lists supplier zone requests for review, optionally by status.
func (h *ZonesHandler) Requests(c *gin.Context) {
	resp, err := h.svc.ListRequests(c.Request.Context(), c.Query("status"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *ZonesHandler) ApproveRequest(c *gin.Context) {
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	resp, err := h.svc.Review(c.Request.Context(), id, true, nil)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *ZonesHandler) RejectRequest(c *gin.Context) {
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	var req dto.RejectRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.Review(c.Request.Context(), id, false, &req.Reason)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}
