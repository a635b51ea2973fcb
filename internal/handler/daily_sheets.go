package handler

import (
	"net/http"
	"time"

	"ravito/internal/dto"
	"ravito/internal/service"

	"github.com/gin-gonic/gin"
)

type DailySheetsHandler struct{ svc service.DailySheetService }

func NewDailySheetsHandler(svc service.DailySheetService) *DailySheetsHandler {
	return &DailySheetsHandler{svc: svc}
}

// Open godoc
// @Summary Ouvre la fiche du jour
// @Description Le stock initial et la caisse d'ouverture sont reportés de la dernière fiche clôturée.
// @Tags daily-sheets
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body dto.OpenSheetRequest false "Date et caisse d'ouverture"
// @Success 201 {object} dto.DailySheetResponse
// @Failure 409 {object} apierror.APIError
// @Router /v1/daily-sheets [post]
func (h *DailySheetsHandler) Open(c *gin.Context) {
	actor, ok := actorFrom(c)
	if !ok {
		return
	}
	var req dto.OpenSheetRequest
	if !bindOptional(c, &req) {
		return
	}
	resp, err := h.svc.Open(c.Request.Context(), actor, req)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, resp)
}

// List godoc
// @Summary Fiches d'un mois
// @Tags daily-sheets
// @Produce json
// @Security BearerAuth
// @Param year query int false "Année (défaut: année en cours)"
// @Param month query int false "Mois 1-12 (défaut: mois en cours)"
// @Success 200 {array} dto.DailySheetListItem
// @Router /v1/daily-sheets [get]
func (h *DailySheetsHandler) List(c *gin.Context) {
	actor, ok := actorFrom(c)
	if !ok {
		return
	}
	now := time.Now()
	year, ok := intQuery(c, "year", now.Year())
	if !ok {
		return
	}
	month, ok := intQuery(c, "month", int(now.Month()))
	if !ok {
		return
	}
	resp, err := h.svc.ListMonth(c.Request.Context(), actor, year, month)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *DailySheetsHandler) Get(c *gin.Context) {
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

func (h *DailySheetsHandler) GetByDate(c *gin.Context) {
	actor, ok := actorFrom(c)
	if !ok {
		return
	}
	resp, err := h.svc.GetByDate(c.Request.Context(), actor, c.Param("date"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// ── Entries ──────────────────────────────────────────────────────────────────

// UpdateStockLine godoc
// @Summary Saisie des stocks d'un produit
// @Tags daily-sheets
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Sheet ID"
// @Param line_id path string true "Stock line ID"
// @Param body body dto.StockLineRequest true "Quantités"
// @Success 200 {object} dto.DailySheetResponse
// @Failure 409 {object} apierror.APIError
// @Router /v1/daily-sheets/{id}/stock-lines/{line_id} [patch]
func (h *DailySheetsHandler) UpdateStockLine(c *gin.Context) {
	actor, ok := actorFrom(c)
	if !ok {
		return
	}
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	lineID, ok := uuidParam(c, "line_id")
	if !ok {
		return
	}
	var req dto.StockLineRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.UpdateStockLine(c.Request.Context(), actor, id, lineID, req)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *DailySheetsHandler) AddExpense(c *gin.Context) {
	actor, ok := actorFrom(c)
	if !ok {
		return
	}
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	var req dto.ExpenseRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.AddExpense(c.Request.Context(), actor, id, req)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, resp)
}

func (h *DailySheetsHandler) DeleteExpense(c *gin.Context) {
	actor, ok := actorFrom(c)
	if !ok {
		return
	}
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	expenseID, ok := uuidParam(c, "expense_id")
	if !ok {
		return
	}
	resp, err := h.svc.DeleteExpense(c.Request.Context(), actor, id, expenseID)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *DailySheetsHandler) UpdatePackaging(c *gin.Context) {
	actor, ok := actorFrom(c)
	if !ok {
		return
	}
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	packagingID, ok := uuidParam(c, "packaging_id")
	if !ok {
		return
	}
	var req dto.PackagingRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.UpdatePackaging(c.Request.Context(), actor, id, packagingID, req)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *DailySheetsHandler) UpdateCredit(c *gin.Context) {
	actor, ok := actorFrom(c)
	if !ok {
		return
	}
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	var req dto.CreditRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.UpdateCredit(c.Request.Context(), actor, id, req)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// ── Closure ──────────────────────────────────────────────────────────────────

// Check godoc
// @Summary Liste ce qui manque avant la clôture
// @Tags daily-sheets
// @Produce json
// @Security BearerAuth
// @Param id path string true "Sheet ID"
// @Success 200 {object} dto.ClosureCheckResponse
// @Router /v1/daily-sheets/{id}/check [get]
func (h *DailySheetsHandler) Check(c *gin.Context) {
	actor, ok := actorFrom(c)
	if !ok {
		return
	}
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	resp, err := h.svc.Check(c.Request.Context(), actor, id)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Close godoc
// @Summary Clôture la fiche
// @Description Irréversible: exige confirm=true et toutes les saisies de stock final.
// @Tags daily-sheets
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Sheet ID"
// @Param body body dto.CloseSheetRequest true "Caisse de clôture"
// @Success 200 {object} dto.DailySheetResponse
// @Failure 409 {object} apierror.APIError
// @Failure 422 {object} apierror.MissingError
// @Router /v1/daily-sheets/{id}/close [post]
func (h *DailySheetsHandler) Close(c *gin.Context) {
	actor, ok := actorFrom(c)
	if !ok {
		return
	}
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	var req dto.CloseSheetRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.Close(c.Request.Context(), actor, id, req)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// PDF godoc
// @Summary Fiche clôturée au format PDF
// @Tags daily-sheets
// @Produce application/pdf
// @Security BearerAuth
// @Param id path string true "Sheet ID"
// @Success 200 {file} file
// @Failure 409 {object} apierror.APIError
// @Router /v1/daily-sheets/{id}/pdf [get]
func (h *DailySheetsHandler) PDF(c *gin.Context) {
	actor, ok := actorFrom(c)
	if !ok {
		return
	}
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	data, name, err := h.svc.PDF(c.Request.Context(), actor, id)
	if err != nil {
		writeError(c, err)
		return
	}
	attachment(c, "application/pdf", name, data)
}
