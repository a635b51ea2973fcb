package handler

import (
	"net/http"

	"ravito/internal/service"

	"github.com/gin-gonic/gin"
)

// DirectoryHandler serves the public lookups used by the registration and
// order screens.
type DirectoryHandler struct{ svc service.DirectoryService }

func NewDirectoryHandler(svc service.DirectoryService) *DirectoryHandler {
	return &DirectoryHandler{svc: svc}
}

// OrganizationName godoc
// @Summary Nom d'une organisation
// @Tags directory
// @Produce json
// @Param id path string true "Organization ID"
// @Success 200 {object} dto.OrganizationNameResponse
// @Failure 404 {object} apierror.APIError
// @Router /v1/organizations/{id}/name [get]
func (h *DirectoryHandler) OrganizationName(c *gin.Context) {
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	resp, err := h.svc.OrganizationName(c.Request.Context(), id)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *DirectoryHandler) SalesRepresentatives(c *gin.Context) {
	resp, err := h.svc.SalesRepresentatives(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}
