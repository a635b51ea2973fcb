package handler

import (
	"fmt"
	"net/http"
	"time"

	"ravito/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type ReportsHandler struct{ svc service.AnnualService }

func NewReportsHandler(svc service.AnnualService) *ReportsHandler {
	return &ReportsHandler{svc: svc}
}

func (h *ReportsHandler) scope(c *gin.Context) (uuid.UUID, int, bool) {
	actor, ok := actorFrom(c)
	if !ok {
		return uuid.Nil, 0, false
	}
	year, ok := intQuery(c, "year", time.Now().Year())
	if !ok {
		return uuid.Nil, 0, false
	}
	return actor.OrgID, year, true
}

// Annual godoc
// @Summary Rapport annuel de l'établissement
// @Description KPIs, données mensuelles, dépenses par catégorie, top produits et évolution sur l'année précédente.
// @Tags reports
// @Produce json
// @Security BearerAuth
// @Param year query int false "Année (défaut: année en cours)"
// @Success 200 {object} annual.Report
// @Failure 500 {object} apierror.APIError
// @Router /v1/reports/annual [get]
func (h *ReportsHandler) Annual(c *gin.Context) {
	orgID, year, ok := h.scope(c)
	if !ok {
		return
	}
	resp, err := h.svc.Report(c.Request.Context(), orgID, year)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *ReportsHandler) AnnualPDF(c *gin.Context) {
	orgID, year, ok := h.scope(c)
	if !ok {
		return
	}
	data, err := h.svc.PDF(c.Request.Context(), orgID, year)
	if err != nil {
		writeError(c, err)
		return
	}
	attachment(c, "application/pdf", fmt.Sprintf("rapport-annuel-%d.pdf", year), data)
}

func (h *ReportsHandler) AnnualXLSX(c *gin.Context) {
	orgID, year, ok := h.scope(c)
	if !ok {
		return
	}
	data, err := h.svc.XLSX(c.Request.Context(), orgID, year)
	if err != nil {
		writeError(c, err)
		return
	}
	attachment(c, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
		fmt.Sprintf("rapport-annuel-%d.xlsx", year), data)
}
