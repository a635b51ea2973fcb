package handler

import (
	"net/http"

	"ravito/internal/dto"
	"ravito/internal/service"

	"github.com/gin-gonic/gin"
)

type CartHandler struct{ svc service.CartService }

func NewCartHandler(svc service.CartService) *CartHandler { return &CartHandler{svc: svc} }

// Get godoc
// @Summary Panier du client connecté
// @Tags cart
// @Produce json
// @Security BearerAuth
// @Success 200 {object} dto.CartResponse
// @Router /v1/cart [get]
func (h *CartHandler) Get(c *gin.Context) {
	actor, ok := actorFrom(c)
	if !ok {
		return
	}
	resp, err := h.svc.Get(c.Request.Context(), actor.UserID)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Apply godoc
// @Summary Applique une action au panier
// @Description add_item, update_quantity, toggle_consigne, remove_item, clear
// @Tags cart
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body dto.CartActionRequest true "Action"
// @Success 200 {object} dto.CartResponse
// @Failure 404 {object} apierror.APIError
// @Router /v1/cart/actions [post]
func (h *CartHandler) Apply(c *gin.Context) {
	actor, ok := actorFrom(c)
	if !ok {
		return
	}
	var req dto.CartActionRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.Apply(c.Request.Context(), actor.UserID, req)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *CartHandler) Clear(c *gin.Context) {
	actor, ok := actorFrom(c)
	if !ok {
		return
	}
	if err := h.svc.Clear(c.Request.Context(), actor.UserID); err != nil {
		writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
