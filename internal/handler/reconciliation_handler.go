package handler

import (
	"fmt"
	"net/http"
	"time"

	"logiflow/internal/middleware"
	"logiflow/internal/service"
	"logiflow/pkg/response"

	"github.com/gin-gonic/gin"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

type ReconciliationHandler struct {
	reconciliationService service.ReconciliationService
}

func NewReconciliationHandler(reconciliationService service.ReconciliationService) *ReconciliationHandler {
	return &ReconciliationHandler{reconciliationService: reconciliationService}
}

func (h *ReconciliationHandler) RegisterRoutes(router *gin.RouterGroup) {
	rec := router.Group("/api/reconciliation")
	{
		rec.GET("", middleware.RequirePermission(service.PermReconciliationRead), h.List)
		rec.GET("/export", middleware.RequirePermission(service.PermReconciliationRead), h.Export)
		rec.PUT("/:id/invoice", middleware.RequirePermission(service.PermReconciliationWrite), h.UpdateInvoice)
		rec.POST("/:id/validate", middleware.RequirePermission(service.PermReconciliationValidate), h.Validate)
		rec.DELETE("/:id", middleware.RequirePermission(service.PermDeliveriesDelete), h.Delete)
	}
}

// List returns delivered deliveries carrying a BL with their reconciliation status and totals
// @Summary      Reconciliation list
// @Tags         reconciliation
// @Security     SessionCookie
// @Produce      json
// @Param        storeId    query     int     false  "Store"
// @Param        startDate  query     string  false  "Delivered from (YYYY-MM-DD)"
// @Param        endDate    query     string  false  "Delivered until (YYYY-MM-DD)"
// @Param        status     query     string  false  "Reconciliation status" Enums(awaiting, partial_invoice, ready_to_validate, validated)
// @Success      200        {object}  response.Response{data=service.ReconciliationList}
// @Router       /api/reconciliation [get]
func (h *ReconciliationHandler) List(c *gin.Context) {
	r, ok := requester(c)
	if !ok {
		return
	}
	var q service.ListQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		respondBindError(c, err)
		return
	}
	list, err := h.reconciliationService.List(c.Request.Context(), r, q)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, list))
}

// Export downloads the filtered reconciliation list as an xlsx workbook
// @Summary      Export reconciliation
// @Tags         reconciliation
// @Security     SessionCookie
// @Produce      application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Param        storeId    query  int     false  "Store"
// @Param        startDate  query  string  false  "Delivered from (YYYY-MM-DD)"
// @Param        endDate    query  string  false  "Delivered until (YYYY-MM-DD)"
// @Param        status     query  string  false  "Reconciliation status" Enums(awaiting, partial_invoice, ready_to_validate, validated)
// @Success      200
// @Router       /api/reconciliation/export [get]
func (h *ReconciliationHandler) Export(c *gin.Context) {
	r, ok := requester(c)
	if !ok {
		return
	}
	var q service.ListQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		respondBindError(c, err)
		return
	}
	buf, err := h.reconciliationService.Export(c.Request.Context(), r, q)
	if err != nil {
		respondError(c, err)
		return
	}

	filename := fmt.Sprintf("reconciliation-%s.xlsx", time.Now().Format("2006-01-02"))
	c.Header("Content-Disposition", `attachment; filename="`+filename+`"`)
	c.Data(http.StatusOK, xlsxContentType, buf.Bytes())
}

// UpdateInvoice sets or clears the invoice reference and amount of a delivery
// @Summary      Update invoice
// @Tags         reconciliation
// @Security     SessionCookie
// @Accept       json
// @Produce      json
// @Param        id       path      int                           true  "Delivery ID"
// @Param        payload  body      service.UpdateInvoiceRequest  true  "Invoice"
// @Success      200      {object}  response.Response{data=service.DeliveryResponse}
// @Failure      403      {object}  response.Response
// @Failure      422      {object}  response.Response
// @Router       /api/reconciliation/{id}/invoice [put]
func (h *ReconciliationHandler) UpdateInvoice(c *gin.Context) {
	r, ok := requester(c)
	if !ok {
		return
	}
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	var req service.UpdateInvoiceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}
	delivery, err := h.reconciliationService.UpdateInvoice(c.Request.Context(), r, id, req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, delivery))
}

// Validate marks the delivery reconciled; it needs an invoice reference and amount
// @Summary      Validate reconciliation
// @Tags         reconciliation
// @Security     SessionCookie
// @Produce      json
// @Param        id   path      int  true  "Delivery ID"
// @Success      200  {object}  response.Response{data=service.DeliveryResponse}
// @Failure      409  {object}  response.Response
// @Failure      422  {object}  response.Response
// @Router       /api/reconciliation/{id}/validate [post]
func (h *ReconciliationHandler) Validate(c *gin.Context) {
	r, ok := requester(c)
	if !ok {
		return
	}
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	delivery, err := h.reconciliationService.Validate(c.Request.Context(), r, id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, delivery))
}

// @Summary      Delete reconciled delivery
// @Tags         reconciliation
// @Security     SessionCookie
// @Produce      json
// @Param        id   path      int  true  "Delivery ID"
// @Success      200  {object}  response.Response
// @Failure      403  {object}  response.Response
// @Router       /api/reconciliation/{id} [delete]
func (h *ReconciliationHandler) Delete(c *gin.Context) {
	r, ok := requester(c)
	if !ok {
		return
	}
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	if err := h.reconciliationService.Delete(c.Request.Context(), r, id); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, response.Message("Delivery deleted")))
}
