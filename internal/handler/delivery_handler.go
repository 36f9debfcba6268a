package handler

import (
	"net/http"

	"logiflow/internal/middleware"
	"logiflow/internal/service"
	"logiflow/pkg/response"

	"github.com/gin-gonic/gin"
)

type DeliveryHandler struct {
	deliveryService service.DeliveryService
}

func NewDeliveryHandler(deliveryService service.DeliveryService) *DeliveryHandler {
	return &DeliveryHandler{deliveryService: deliveryService}
}

func (h *DeliveryHandler) RegisterRoutes(router *gin.RouterGroup) {
	deliveries := router.Group("/api/deliveries")
	{
		deliveries.GET("", middleware.RequirePermission(service.PermDeliveriesRead), h.ListDeliveries)
		deliveries.GET("/:id", middleware.RequirePermission(service.PermDeliveriesRead), h.GetDelivery)
		deliveries.POST("", middleware.RequirePermission(service.PermDeliveriesWrite), h.CreateDelivery)
		deliveries.PUT("/:id", middleware.RequirePermission(service.PermDeliveriesWrite), h.UpdateDelivery)
		deliveries.DELETE("/:id", middleware.RequirePermission(service.PermDeliveriesDelete), h.DeleteDelivery)
		deliveries.POST("/:id/validate", middleware.RequirePermission(service.PermDeliveriesValidate), h.ValidateDelivery)
	}
}

// ListDeliveries returns the deliveries of the stores visible to the caller
// @Summary      List deliveries
// @Tags         deliveries
// @Security     SessionCookie
// @Produce      json
// @Param        storeId     query     int     false  "Store"
// @Param        startDate   query     string  false  "Planned from (YYYY-MM-DD)"
// @Param        endDate     query     string  false  "Planned until (YYYY-MM-DD)"
// @Param        status      query     string  false  "planned or delivered"
// @Param        supplierId  query     int     false  "Supplier"
// @Param        orderId     query     int     false  "Linked order"
// @Param        withBL      query     bool    false  "Only deliveries carrying a BL number"
// @Success      200         {object}  response.Response{data=[]service.DeliveryResponse}
// @Router       /api/deliveries [get]
func (h *DeliveryHandler) ListDeliveries(c *gin.Context) {
	r, ok := requester(c)
	if !ok {
		return
	}
	var q service.DeliveryListQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		respondBindError(c, err)
		return
	}
	deliveries, err := h.deliveryService.ListDeliveries(c.Request.Context(), r, q)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, deliveries))
}

// @Summary      Get delivery
// @Tags         deliveries
// @Security     SessionCookie
// @Produce      json
// @Param        id   path      int  true  "Delivery ID"
// @Success      200  {object}  response.Response{data=service.DeliveryResponse}
// @Failure      404  {object}  response.Response
// @Router       /api/deliveries/{id} [get]
func (h *DeliveryHandler) GetDelivery(c *gin.Context) {
	r, ok := requester(c)
	if !ok {
		return
	}
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	delivery, err := h.deliveryService.GetDelivery(c.Request.Context(), r, id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, delivery))
}

// CreateDelivery records a delivery; a linked order advances to planned
// @Summary      Create delivery
// @Tags         deliveries
// @Security     SessionCookie
// @Accept       json
// @Produce      json
// @Param        payload  body      service.CreateDeliveryRequest  true  "Delivery"
// @Success      201      {object}  response.Response{data=service.DeliveryResponse}
// @Failure      400      {object}  response.Response
// @Failure      403      {object}  response.Response
// @Router       /api/deliveries [post]
func (h *DeliveryHandler) CreateDelivery(c *gin.Context) {
	r, ok := requester(c)
	if !ok {
		return
	}
	var req service.CreateDeliveryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}
	delivery, err := h.deliveryService.CreateDelivery(c.Request.Context(), r, req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, delivery))
}

// UpdateDelivery edits a delivery; setting reconciled also requires reconciliation.validate
// @Summary      Update delivery
// @Tags         deliveries
// @Security     SessionCookie
// @Accept       json
// @Produce      json
// @Param        id       path      int                            true  "Delivery ID"
// @Param        payload  body      service.UpdateDeliveryRequest  true  "Changes"
// @Success      200      {object}  response.Response{data=service.DeliveryResponse}
// @Failure      403      {object}  response.Response
// @Failure      409      {object}  response.Response
// @Failure      422      {object}  response.Response
// @Router       /api/deliveries/{id} [put]
func (h *DeliveryHandler) UpdateDelivery(c *gin.Context) {
	r, ok := requester(c)
	if !ok {
		return
	}
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	var req service.UpdateDeliveryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}
	delivery, err := h.deliveryService.UpdateDelivery(c.Request.Context(), r, id, req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, delivery))
}

// ValidateDelivery marks a planned delivery as delivered
// @Summary      Validate delivery
// @Tags         deliveries
// @Security     SessionCookie
// @Accept       json
// @Produce      json
// @Param        id       path      int                              true   "Delivery ID"
// @Param        payload  body      service.ValidateDeliveryRequest  false  "Delivery date and BL"
// @Success      200      {object}  response.Response{data=service.DeliveryResponse}
// @Failure      409      {object}  response.Response
// @Router       /api/deliveries/{id}/validate [post]
func (h *DeliveryHandler) ValidateDelivery(c *gin.Context) {
	r, ok := requester(c)
	if !ok {
		return
	}
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	var req service.ValidateDeliveryRequest
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			respondBindError(c, err)
			return
		}
	}
	delivery, err := h.deliveryService.ValidateDelivery(c.Request.Context(), r, id, req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, delivery))
}

// @Summary      Delete delivery
// @Tags         deliveries
// @Security     SessionCookie
// @Produce      json
// @Param        id   path      int  true  "Delivery ID"
// @Success      200  {object}  response.Response
// @Failure      403  {object}  response.Response
// @Router       /api/deliveries/{id} [delete]
func (h *DeliveryHandler) DeleteDelivery(c *gin.Context) {
	r, ok := requester(c)
	if !ok {
		return
	}
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	if err := h.deliveryService.DeleteDelivery(c.Request.Context(), r, id); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, response.Message("Delivery deleted")))
}
